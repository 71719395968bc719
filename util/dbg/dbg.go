package dbg

// DebugLogger is the emulator's trace sink.
// The implementation is picked at build time: `-tags debug` routes everything
// to stderr, any other build compiles the calls down to no-ops.
type DebugLogger interface {
	Printf(format string, a ...interface{})
	Println(a ...interface{})
	// Dump pretty-prints arbitrary values (decoded instructions, ELF program
	// headers, register files) for post-mortem inspection.
	Dump(a ...interface{})
}

// Set by debug-log.go or nodebug-log.go.
var (
	debugLog DebugLogger
	enabled  bool
)

func Printf(format string, a ...interface{}) {
	debugLog.Printf(format, a...)
}

func Println(a ...interface{}) {
	debugLog.Println(a...)
}

func Dump(a ...interface{}) {
	debugLog.Dump(a...)
}

// Enabled reports whether tracing is compiled in, so hot paths can skip
// building expensive arguments.
func Enabled() bool {
	return enabled
}
