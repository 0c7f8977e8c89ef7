package snirf

import (
	"path"
	"strings"
)

// MetadataStore is a hierarchical key-value container: an HDF5 file or an
// in-memory tree with the same shape.
//
// Paths are slash separated and relative to the root ("nirs/probe/wavelengths").
// A leading "/" is accepted and ignored.
type MetadataStore interface {
	// Path identifies the store, usually the file path.
	Path() string

	// Writable reports whether Write and CreateGroup are permitted.
	Writable() bool

	// HasGroup reports whether a group exists at path. The root always exists.
	HasGroup(path string) bool

	// Keys lists the names of the direct children of the group at path.
	Keys(group string) ([]string, error)

	// Has reports whether any entry (group or dataset) exists at path.
	Has(path string) bool

	// Read returns the value of the dataset at path.
	Read(path string) (*Value, error)

	// Write creates a new dataset at path. It never replaces an existing entry.
	Write(path string, v *Value) error

	// CreateGroup creates an empty group at path. The parent must exist.
	CreateGroup(path string) error

	// Close releases the store, flushing pending writes. It is safe to call
	// Close multiple times.
	Close() error
}

// ShapeNormalizer is implemented by stores that cannot keep every value in
// the shape it was written with.
type ShapeNormalizer interface {
	// StoredShape returns the shape v reads back with after Write.
	StoredShape(v *Value) string
}

// cleanPath normalizes a store path: no leading or trailing slash, no
// duplicate separators. The root is "".
func cleanPath(p string) string {
	p = path.Clean("/" + p)
	return strings.TrimPrefix(p, "/")
}

// joinPath joins path elements into a clean store path.
func joinPath(elem ...string) string {
	return cleanPath(path.Join(elem...))
}

// splitPath returns the parent path and base name of a clean store path.
func splitPath(p string) (parent, name string) {
	p = cleanPath(p)
	i := strings.LastIndex(p, "/")
	if i < 0 {
		return "", p
	}
	return p[:i], p[i+1:]
}
