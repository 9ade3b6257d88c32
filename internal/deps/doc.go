// Package deps reports whether the external binaries factcheck shells out to
// are resolvable on PATH.
package deps
