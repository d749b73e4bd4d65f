// Package clock provides a tiny time abstraction.
//
// Business code depends on Clocker instead of calling time.Now directly so that
// expiry windows and usage timestamps can be driven by a deterministic clock
// in tests.
package clock
