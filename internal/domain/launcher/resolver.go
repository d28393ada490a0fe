package launcher

import "strings"

const (
	DefaultScheme = "mojo:"
	DefaultRoot   = "/boot/apps/"
)

// Resolver maps application names to file paths.
type Resolver struct {
	scheme string
	root   string
}

// NewResolver returns a resolver for names starting with scheme. The root
// is used as a plain string prefix, so it normally ends in a separator.
func NewResolver(scheme, root string) Resolver {
	return Resolver{scheme: scheme, root: root}
}

// DefaultResolver resolves "mojo:<name>" to "/boot/apps/<name>".
func DefaultResolver() Resolver {
	return NewResolver(DefaultScheme, DefaultRoot)
}

// ResolveName returns the path for name, or "" when name does not carry
// the scheme or names nothing after it.
func (r Resolver) ResolveName(name string) string {
	rest, ok := strings.CutPrefix(name, r.scheme)
	if !ok || rest == "" {
		return ""
	}
	return r.root + rest
}

// Name is the inverse of ResolveName for a path relative to the root.
func (r Resolver) Name(rel string) string {
	return r.scheme + rel
}

func (r Resolver) Scheme() string { return r.scheme }

func (r Resolver) Root() string { return r.root }
