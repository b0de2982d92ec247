// Package worker invokes a named method on an object resolved from a job
// descriptor and applies the failure policy.
//
// A descriptor's identifier is either a global id (gid://app/Model/id),
// resolved through a gid.Locator, or a registered type name, instantiated
// through a registry.Registry. Resolution failures of the two forms are
// deliberately treated differently: a global id that cannot be located is
// logged and skipped, while an unknown type name is returned to the caller
// as is.
//
// When the invoked method fails the Worker either hands the error to the
// descriptor's exception handler method, or reports it (when enabled) and
// then logs it or returns a *core.Error, depending on RaiseOnError.
package worker
