// Package types defines the shared data types for the window service:
// the window parameter bag, open requests, and hot-category
// configuration.
//
// The parameter bag is the only channel for passing data into a window,
// so every value stored in it must survive a JSON round trip. Params are
// normalized through JSON on the way in, which keeps property matching
// stable regardless of the Go types callers hand us (int vs float64 and
// so on).
package types
