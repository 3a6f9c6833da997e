package util

import (
	"runtime"
)

// CurrentStack returns the stack of the calling goroutine.
func CurrentStack() string {
	buf := make([]byte, 1<<16)
	n := runtime.Stack(buf, false)
	return string(buf[:n])
}
