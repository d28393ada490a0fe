// Package startup reads the manager's startup document.
//
// The document has two optional fields: "initial-apps", a list of
// application names started unconditionally, and "args-for", a map from
// application name to the arguments it is initialized with. Any type
// mismatch rejects the whole document. Unknown fields are ignored.
//
// The same shape is accepted as JSON, YAML or TOML; Load picks the format
// from the file extension.
//
//	{"initial-apps": ["mojo:hello"], "args-for": {"mojo:hello": ["--verbose"]}}
package startup
