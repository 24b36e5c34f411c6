package fusion

import (
	"reflect"
	"runtime"
)

// MiddlewareName best-effort recovers a middleware function's declared name
// via its program counter, for the introspector's behavior.middlewareChain
// surface. Anonymous closures resolve to a synthetic "funcN" name assigned
// by the compiler; that is still useful for drift detection (same closure
// keeps the same name across builds from the same source).
func MiddlewareName(mw Middleware) string {
	if mw == nil {
		return ""
	}
	pc := reflect.ValueOf(mw).Pointer()
	fn := runtime.FuncForPC(pc)
	if fn == nil {
		return "unknown"
	}
	return fn.Name()
}
