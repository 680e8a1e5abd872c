// Package erro annotates errors crossing collaborator boundaries (templates,
// caches, config files) with the location they were observed at.
package erro

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

const sep = " ->\x00 "

func caller(skip int) string {
	pc, filename, linenr, ok := runtime.Caller(skip + 1)
	if !ok {
		return "unknown"
	}
	strs := strings.Split(runtime.FuncForPC(pc).Name(), "/")
	return fmt.Sprintf("%s:%d (%s)", filename, linenr, strs[len(strs)-1])
}

// Wrap will wrap an error and return a new error that is annotated with the
// function/file/linenumber of where Wrap() was called. Wrap(nil) is nil.
func Wrap(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s%s%w", caller(1), sep, err)
}

// Wrapf is like Wrap but also records what was being attempted, e.g.
// Wrapf(err, "render %s", name).
func Wrapf(err error, format string, a ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %s%s%w", caller(1), fmt.Sprintf(format, a...), sep, err)
}

// Sdump returns the error chain with each annotation on its own line.
func Sdump(err error) string {
	if err == nil {
		return ""
	}
	return strings.ReplaceAll(err.Error(), sep, "\n\n")
}

// Is reports whether any error in err's chain matches the target(s). Exactly
// the same as errors.Is, but variadic
func Is(err error, target error, targets ...error) bool {
	for _, e := range append([]error{target}, targets...) {
		if errors.Is(err, e) {
			return true
		}
	}
	return false
}
