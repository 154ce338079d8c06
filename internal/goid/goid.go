// Package goid reads the numeric ID of the calling goroutine.
//
// The runtime does not export goroutine IDs. They are parsed from the
// first line of runtime.Stack ("goroutine 42 [running]:"), which is
// stable across Go releases. Only ownership checks use it: the reentrant
// protocol lock and the executor self-wait guard.
package goid

import (
	"bytes"
	"runtime"
	"strconv"
)

var prefix = []byte("goroutine ")

// ID returns the ID of the calling goroutine, or 0 if it cannot be parsed.
func ID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	b := bytes.TrimPrefix(buf[:n], prefix)
	if i := bytes.IndexByte(b, ' '); i > 0 {
		b = b[:i]
	}
	id, err := strconv.ParseUint(string(b), 10, 64)
	if err != nil {
		return 0
	}
	return id
}
