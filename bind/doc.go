// Package bind is the native side of the host boundary: typed handles,
// the scope stack that roots them, the context variants that mediate
// every host call, boxed native values, and the export registry.
//
// A Handle is usable only while the scope it was created in is open.
// Go cannot express that as a type, so every Context operation asserts
// it and panics with *ScopeError on misuse. Misuse inside a native
// function surfaces to the host as a thrown Error.
package bind

import (
	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("tether.bind")
