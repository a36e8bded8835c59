package util

import "fmt"

// Asserts always panic. The calculation pipeline recovers them at its
// boundary and reports a generic computation failure, so a violated
// invariant can never surface as a partial result.
func Assert(cond bool, o ...interface{}) {
	if !cond {
		panic(fmt.Sprint(o...))
	}
}

func Assertf(cond bool, fmtstr string, o ...interface{}) {
	if !cond {
		panic(fmt.Sprintf(fmtstr, o...))
	}
}
