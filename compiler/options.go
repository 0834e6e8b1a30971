package compiler

import "log"

// Options configures a single Compile call. The zero value compiles
// silently with no tracing, matching the teacher's own compile
// package, which takes configuration as struct fields rather than
// package-level flags.
type Options struct {
	// Debug, when true, logs two summary lines per Compile through
	// Logger: the measuring pass's code and total size, and the final
	// instruction count, block size and load address. Individual
	// opcodes are not traced.
	Debug bool
	// Logger receives debug tracing when Debug is set. Defaults to
	// log.Default() if nil.
	Logger *log.Logger
}

func (o Options) logger() *log.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return log.Default()
}

func (o Options) debugf(format string, args ...interface{}) {
	if o.Debug {
		o.logger().Printf(format, args...)
	}
}
