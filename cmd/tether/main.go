// tether CLI - boots the reference host, loads the linked addon and
// calls its exports
package main

import (
	"flag"
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"
	"go.uber.org/multierr"

	"github.com/chazu/tether/bind"
	_ "github.com/chazu/tether/examples/demo"
	"github.com/chazu/tether/manifest"
	"github.com/chazu/tether/trace"
	"github.com/chazu/tether/vm"
)

func main() {
	verbose := flag.Int("v", 0, "Log verbosity (0 = errors only)")
	configDir := flag.String("config", ".", "Directory to search upwards for tether.toml")
	tracePath := flag.String("trace", "", "Record scope events to this SQLite database")
	snapshotPath := flag.String("snapshot", "", "Write a CBOR heap snapshot here before exiting")
	stress := flag.Bool("stress", false, "Collect before every allocation")
	interactive := flag.Bool("i", false, "Read calls from stdin")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: tether [options] [export [args...]]\n\n")
		fmt.Fprintf(os.Stderr, "Loads the linked addon into a fresh host and prints its namespace.\n")
		fmt.Fprintf(os.Stderr, "With an export name, calls it with the given arguments instead.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  tether                       # Print the namespace\n")
		fmt.Fprintf(os.Stderr, "  tether add 40 2              # Call add(40, 2)\n")
		fmt.Fprintf(os.Stderr, "  tether -stress -trace t.db greet gopher\n")
		fmt.Fprintf(os.Stderr, "  tether -i                    # Interactive calls\n")
	}
	flag.Parse()

	m, err := manifest.FindAndLoad(*configDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if m == nil {
		m = manifest.Default()
	}
	applyFlags(m, *verbose, *tracePath, *stress)

	if p := m.LogPath(); p != "" {
		commonlog.Configure(m.Log.Verbosity, &p)
	} else {
		commonlog.Configure(m.Log.Verbosity, nil)
	}

	if err := run(m, flag.Args(), *snapshotPath, *interactive); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// applyFlags lets command-line flags override the manifest.
func applyFlags(m *manifest.Manifest, verbosity int, tracePath string, stress bool) {
	if verbosity > m.Log.Verbosity {
		m.Log.Verbosity = verbosity
	}
	if tracePath != "" {
		m.Trace.Path = tracePath
	}
	if stress {
		m.Host.GCEvery = 1
	}
}

func run(m *manifest.Manifest, args []string, snapshotPath string, interactive bool) (err error) {
	opts := vm.Options{
		MaxScopeDepth: m.Host.MaxScopeDepth,
		GCEvery:       m.Host.GCEvery,
	}
	if p := m.TracePath(); p != "" {
		rec, err := trace.OpenSQLite(p)
		if err != nil {
			return err
		}
		opts.Recorder = rec
	}

	v := vm.New(opts)
	defer func() { err = multierr.Append(err, v.Close()) }()

	w := vm.NewWorker(v)
	defer w.Stop()
	collector := vm.NewCollector(w, m.Host.GCInterval)
	collector.Start()
	defer collector.Stop()

	name := m.Addon.Name
	if _, err := w.Do(func(v *vm.VM) (any, error) {
		return nil, v.Load(name, bind.Init)
	}); err != nil {
		return err
	}

	switch {
	case interactive:
		err = runREPL(w, name, os.Stdin, os.Stdout)
	case len(args) > 0:
		err = callAndPrint(w, name, args[0], parseArgs(args[1:]))
	default:
		err = printNamespace(w, name)
	}
	if err != nil {
		return err
	}

	if snapshotPath != "" {
		return writeSnapshot(w, snapshotPath)
	}
	return nil
}

// parseArgs converts command-line words to host values: numbers, true,
// false and null are recognised, everything else is a string.
func parseArgs(words []string) []any {
	out := make([]any, len(words))
	for i, w := range words {
		switch w {
		case "true":
			out[i] = true
		case "false":
			out[i] = false
		case "null":
			out[i] = nil
		default:
			if f, err := strconv.ParseFloat(w, 64); err == nil {
				out[i] = f
			} else {
				out[i] = w
			}
		}
	}
	return out
}

func callAndPrint(w *vm.Worker, module, export string, args []any) error {
	result, err := w.Do(func(v *vm.VM) (any, error) {
		return v.CallExport(module, export, args...)
	})
	if err != nil {
		return err
	}
	fmt.Println(formatValue(result))
	return nil
}

func printNamespace(w *vm.Worker, module string) error {
	result, err := w.Do(func(v *vm.VM) (any, error) {
		return v.Namespace(module)
	})
	if err != nil {
		return err
	}
	ns := result.(map[string]any)
	names := make([]string, 0, len(ns))
	for k := range ns {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		fmt.Printf("%s = %s\n", k, formatValue(ns[k]))
	}
	return nil
}

func writeSnapshot(w *vm.Worker, path string) error {
	data, err := w.Do(func(v *vm.VM) (any, error) {
		v.Collect()
		return vm.MarshalSnapshot(v.Snapshot())
	})
	if err != nil {
		return err
	}
	return os.WriteFile(path, data.([]byte), 0644)
}
