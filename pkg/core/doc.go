// Package core provides the fundamental types and interfaces for the backgrounder package.
//
// This package contains:
//   - Descriptor, the positional job invocation tuple submitted to a backend
//   - QueueOptions and Retry, the resolved execution parameters of a submission
//   - Job, the GORM model used by the durable SQL backend
//   - Backend and Performer, the two seams between the adapter and a job system
//   - Error types shared by every package
//
// Most users should import the root package github.com/jdziat/backgrounder
// instead of this package directly.
package core
