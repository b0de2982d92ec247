package gid

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/jdziat/backgrounder/pkg/core"
)

const scheme = "gid"

// GlobalID identifies one object of one model in one application.
type GlobalID struct {
	App    string
	Model  string
	ID     string
	Params url.Values
}

// New builds a GlobalID.
func New(app, model, id string) GlobalID {
	return GlobalID{App: app, Model: model, ID: id}
}

// Is reports whether identifier should be treated as a global identifier
// rather than a type name.
func Is(identifier string) bool {
	return strings.Contains(identifier, scheme+":")
}

// Parse decodes a gid:// URI.
func Parse(s string) (GlobalID, error) {
	u, err := url.Parse(s)
	if err != nil {
		return GlobalID{}, fmt.Errorf("%w: %v", core.ErrInvalidGlobalID, err)
	}
	if u.Scheme != scheme || u.Host == "" {
		return GlobalID{}, fmt.Errorf("%w: %q", core.ErrInvalidGlobalID, s)
	}

	parts := strings.SplitN(strings.TrimPrefix(u.Path, "/"), "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return GlobalID{}, fmt.Errorf("%w: %q has no model or id", core.ErrInvalidGlobalID, s)
	}

	g := GlobalID{App: u.Host, Model: parts[0], ID: parts[1]}
	if q := u.Query(); len(q) > 0 {
		g.Params = q
	}
	return g, nil
}

// String renders the gid:// URI.
func (g GlobalID) String() string {
	u := url.URL{
		Scheme: scheme,
		Host:   g.App,
		Path:   "/" + g.Model + "/" + g.ID,
	}
	if len(g.Params) > 0 {
		u.RawQuery = g.Params.Encode()
	}
	return u.String()
}

// Identifiable is implemented by objects that know their own global id.
type Identifiable interface {
	GlobalID() (GlobalID, error)
}

// Locator resolves a GlobalID to a live object. A nil object with a nil
// error means the object does not exist.
type Locator interface {
	Locate(ctx context.Context, id GlobalID) (any, error)
}

// LocatorFunc adapts a function to the Locator interface.
type LocatorFunc func(ctx context.Context, id GlobalID) (any, error)

func (f LocatorFunc) Locate(ctx context.Context, id GlobalID) (any, error) {
	return f(ctx, id)
}
