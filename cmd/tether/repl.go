package main

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/chazu/tether/vm"
)

// runREPL reads one call per line: an export name followed by its
// arguments. ":ns" prints the namespace, ":gc" collects, ":quit" exits.
func runREPL(w *vm.Worker, module string, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	fmt.Fprint(out, "> ")
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		words := strings.Fields(line)
		switch {
		case len(words) == 0:
		case words[0] == ":quit":
			return nil
		case words[0] == ":ns":
			names, err := w.Do(func(v *vm.VM) (any, error) {
				return v.ExportNames(module)
			})
			if err != nil {
				fmt.Fprintf(out, "error: %v\n", err)
			} else {
				fmt.Fprintln(out, strings.Join(names.([]string), " "))
			}
		case words[0] == ":gc":
			stats, err := w.Do(func(v *vm.VM) (any, error) {
				return v.Collect(), nil
			})
			if err != nil {
				fmt.Fprintf(out, "error: %v\n", err)
			} else {
				s := stats.(*vm.GCStats)
				fmt.Fprintf(out, "live %d, swept %d, finalized %d\n", s.Live, s.Swept, s.Finalized)
			}
		default:
			args := parseArgs(words[1:])
			result, err := w.Do(func(v *vm.VM) (any, error) {
				return v.CallExport(module, words[0], args...)
			})
			if err != nil {
				fmt.Fprintf(out, "error: %v\n", err)
			} else {
				fmt.Fprintln(out, formatValue(result))
			}
		}
		fmt.Fprint(out, "> ")
	}
	return scanner.Err()
}

// formatValue renders a value converted with vm.ToGo.
func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "undefined"
	case string:
		return fmt.Sprintf("%q", x)
	case float64:
		return fmt.Sprintf("%g", x)
	case []any:
		parts := make([]string, len(x))
		for i, e := range x {
			parts[i] = formatValue(e)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = k + ": " + formatValue(x[k])
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case vm.FunctionRef:
		return "[Function: " + x.Name + "]"
	case vm.ErrorRef:
		return x.Name + ": " + x.Message
	case vm.ExternalRef:
		if x.Tagged {
			return fmt.Sprintf("[External %T tag=%s]", x.Data, x.Tag)
		}
		return fmt.Sprintf("[External %T]", x.Data)
	}
	return fmt.Sprint(v)
}
