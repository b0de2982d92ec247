// Package security provides validation, sanitization, and limits for the backgrounder package.
//
// This package includes:
//   - Input validation for registered type names and queue names
//   - Error message sanitization before failures are persisted
//   - Clamping functions to enforce safe limits on retries and concurrency
//
// Backends call these at submission and failure time; the adapter core
// itself performs no validation.
package security
