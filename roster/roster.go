// Package roster holds the in-memory tables of users and documents a
// session learns about while parsing the protocol stream. Records are
// kept in the order they were learned and are never deleted for the life
// of a session; parting only marks a user as not currently joined.
package roster

import "errors"

const (
	// MaxUsers bounds the user table.
	MaxUsers = 256

	// MaxDocuments bounds the document catalog.
	MaxDocuments = 1024
)

var (
	ErrRosterFull  = errors.New("user roster is full")
	ErrCatalogFull = errors.New("document catalog is full")
)

// ObbyIDUnassigned marks a user that is known but not currently joined
// at the application layer.
const ObbyIDUnassigned = ^uint32(0)
