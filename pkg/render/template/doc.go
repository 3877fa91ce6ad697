// Package template defines the renderer-agnostic contract widgets render
// through. The pongo2 implementation lives in the gotemplate subpackage.
package template
