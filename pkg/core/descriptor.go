package core

import (
	"encoding/json"
	"fmt"
)

// Descriptor is a job invocation: which object, which method, which
// arguments, and what to do when the method fails.
//
// A nil Args means no arguments were supplied. A non-nil slice is passed
// positionally, even when empty.
type Descriptor struct {
	Identifier       string
	Method           string
	Args             []any
	RaiseOnError     bool
	ExceptionHandler string
}

// DescriptorOption modifies a Descriptor built by NewDescriptor.
type DescriptorOption func(*Descriptor)

// WithRaise sets whether a failed invocation returns an error.
func WithRaise(raise bool) DescriptorOption {
	return func(d *Descriptor) {
		d.RaiseOnError = raise
	}
}

// WithExceptionHandler names a method on the target that receives the error instead.
func WithExceptionHandler(method string) DescriptorOption {
	return func(d *Descriptor) {
		d.ExceptionHandler = method
	}
}

// NewDescriptor builds a Descriptor that raises on error unless told otherwise.
func NewDescriptor(identifier, method string, args []any, opts ...DescriptorOption) Descriptor {
	d := Descriptor{
		Identifier:   identifier,
		Method:       method,
		Args:         args,
		RaiseOnError: true,
	}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

// MarshalJSON encodes the descriptor as the positional array
// [identifier, method, args, raise_on_error, exception_handler].
func (d Descriptor) MarshalJSON() ([]byte, error) {
	var handler any
	if d.ExceptionHandler != "" {
		handler = d.ExceptionHandler
	}
	return json.Marshal([]any{d.Identifier, d.Method, d.Args, d.RaiseOnError, handler})
}

func (d *Descriptor) UnmarshalJSON(data []byte) error {
	var parts []json.RawMessage
	if err := json.Unmarshal(data, &parts); err != nil {
		return fmt.Errorf("backgrounder: descriptor must be an array: %w", err)
	}
	if len(parts) < 2 || len(parts) > 5 {
		return fmt.Errorf("backgrounder: descriptor must have 2-5 elements, got %d", len(parts))
	}

	out := Descriptor{RaiseOnError: true}
	if err := json.Unmarshal(parts[0], &out.Identifier); err != nil {
		return fmt.Errorf("backgrounder: descriptor identifier: %w", err)
	}
	if err := json.Unmarshal(parts[1], &out.Method); err != nil {
		return fmt.Errorf("backgrounder: descriptor method: %w", err)
	}
	if len(parts) > 2 {
		if err := json.Unmarshal(parts[2], &out.Args); err != nil {
			return fmt.Errorf("backgrounder: descriptor args: %w", err)
		}
	}
	if len(parts) > 3 && string(parts[3]) != "null" {
		if err := json.Unmarshal(parts[3], &out.RaiseOnError); err != nil {
			return fmt.Errorf("backgrounder: descriptor raise flag: %w", err)
		}
	}
	if len(parts) > 4 && string(parts[4]) != "null" {
		if err := json.Unmarshal(parts[4], &out.ExceptionHandler); err != nil {
			return fmt.Errorf("backgrounder: descriptor exception handler: %w", err)
		}
	}

	*d = out
	return nil
}
