// Package backend provides in-process backends: Fake for tests, Inline for
// synchronous execution and Router for selecting a backend by pool name.
package backend
