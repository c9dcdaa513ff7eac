// Package dbg converts arbitrary pointers into readable random names. Pointer
// strings are hopeless to tell apart in trace output; a name like
// "BriskHeron" is not. Names are memoized per object and generated lazily, so
// the memo only grows when debugging output is actually produced.
package dbg

import (
	"fmt"
	"reflect"
	"strings"

	petname "github.com/dustinkirkland/golang-petname"
)

var memo map[interface{}]string

func init() {
	memo = make(map[interface{}]string)
	// Names are handed out in demand order, so they are deliberately
	// nondeterministic between runs: the same name must never be mistaken for
	// the same object across two traces.
	petname.NonDeterministicMode()
}

func Name(obj interface{}) string {
	if obj == nil || reflect.ValueOf(obj).IsNil() {
		return "Ø"
	}
	if r, ok := memo[obj]; ok {
		return r
	}
	r := fmt.Sprintf("%s%s", strings.Title(petname.Adjective()), strings.Title(petname.Name()))
	memo[obj] = r
	return r
}
