package macro

import (
	"fmt"

	"github.com/ebitengine/purego"
)

// callNative invokes the JIT-compiled address fnAddr with a dynamically
// constructed argument vector of pointer-sized words (spec §4.9 step 3:
// "pointer for the MContext*, pointer for each argument... via an FFI
// trampoline"), returning the callee's single pointer-sized result.
//
// purego.SyscallN is this project's trampoline: it is built exactly for
// calling an arbitrary native function address with a variable argument
// count without cgo, which is what every macro invocation needs (the
// argument count depends on the macro's declared arity). Grounded on the
// pack's own purego manifest (github.com/ebitengine/purego); this project
// has no fixed library to call into ahead of time, only a JIT address
// handed back by ir.Builder.JITCompile, so RegisterLibFunc's by-symbol-name
// binding does not apply here the way it would for a real shared object.
func callNative(fnAddr uintptr, args []uintptr) (result uintptr, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("macro: panic in JIT-compiled macro body: %v", r)
		}
	}()
	if fnAddr == 0 {
		return 0, fmt.Errorf("macro: no JIT address to call (JIT backend not configured)")
	}
	r1, _, errno := purego.SyscallN(fnAddr, args...)
	if errno != 0 {
		return 0, fmt.Errorf("macro: native call failed: %v", errno)
	}
	return r1, nil
}
