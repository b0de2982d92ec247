// Package registry maps type names to factories and invokes methods by name.
//
// Only registered types can be instantiated from a bare type name, and only
// exported methods can be invoked. Method names written in snake_case by
// producers in other languages are matched against their CamelCase Go form.
package registry
