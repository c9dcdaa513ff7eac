package graph

import "github.com/pkg/errors"

// Threading errors up through the recursive tracing and nesting code would
// complicate every signature for failures that indicate broken internal
// invariants, not bad input. Instead internal code panics with a typed error,
// and the public entry points recover and return it.

type graphError error

// fatalf panics with a graphError.
func fatalf(format string, args ...interface{}) {
	panic(graphError(errors.Errorf(format, args...)))
}

func handleGraphPanic(r interface{}) error {
	if r != nil {
		if ge, ok := r.(graphError); ok {
			return ge
		}
		panic(r)
	}
	return nil
}
