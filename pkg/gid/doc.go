// Package gid parses and locates global identifiers.
//
// A global identifier is a URI of the form
//
//	gid://<app>/<Model>/<id>[?key=value]
//
// that names one persisted object. A Locator turns a parsed GlobalID back
// into a live object. Two locators are provided: FinderLocator, which
// dispatches to per-model lookup functions, and GormLocator, which loads
// rows by primary key through GORM.
package gid
