// Package shell wires the window service together and exposes the
// surface other application components call: opening windows,
// registering hot categories, property lookups, and the main-window
// accessors. One Service is constructed at startup and passed by
// reference wherever window services are needed; there are no ambient
// singletons.
package shell
