// Package storage defines the object and document primitives the asset
// pipeline persists through. Backends live in subpackages.
package storage

import (
	"context"
	"errors"
)

// Storage errors returned by backends. Callers match them with errors.Is.
var (
	// ErrAlreadyExists means an object with the same name is already stored.
	ErrAlreadyExists = errors.New("storage: object already exists")
	// ErrNotFound means the requested document does not exist yet.
	ErrNotFound = errors.New("storage: not found")
	// ErrConflict means a conditional write lost against a concurrent writer.
	ErrConflict = errors.New("storage: version conflict")
	// ErrInvalidName means the object name is empty or escapes the namespace.
	ErrInvalidName = errors.New("storage: invalid name")
)

// Object describes a local file to be stored under Name.
type Object struct {
	Name        string
	Path        string
	ContentType string
}

// ObjectStore persists binaries.
type ObjectStore interface {
	// Put stores the file at obj.Path under obj.Name and returns its public URL.
	// It must never replace an existing object; it returns ErrAlreadyExists instead.
	Put(ctx context.Context, obj Object) (string, error)
}

// Document is a single versioned blob read and written as a whole.
type Document interface {
	// Read returns the current content and its version token.
	// It returns ErrNotFound when the document has never been written.
	Read(ctx context.Context) ([]byte, string, error)
	// Write replaces the content only if the stored version still equals
	// version. An empty version means "create, must not exist yet".
	// A lost race returns ErrConflict.
	Write(ctx context.Context, data []byte, version, message string) error
}

// Backend bundles the object store and catalog document of one storage system.
type Backend interface {
	ObjectStore
	Catalog() Document
	Name() string
}
