// Package runtime defines the contracts this service consumes from the
// underlying window runtime and the configuration store. The concrete
// renderer-backed runtime lives outside this module; the headless
// sub-package provides an in-process implementation for the development
// server, and runtimetest a manually-stepped fake for tests.
package runtime
