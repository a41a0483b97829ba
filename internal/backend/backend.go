// Package backend defines the capability set every record store variant
// implements: walk a collection, build and commit a record, fetch a record
// by id, add/remove set items without a membership check, and walk a set
// with per-record operation tags.
package backend

import "github.com/minimap-pm/minimap/internal/record"

// RecordIterator yields records from a collection, newest first.
type RecordIterator interface {
	// Next advances the iterator. ok is false once the sequence is
	// exhausted; err is non-nil only on a read failure mid-walk.
	Next() (rec record.Record, ok bool, err error)
}

// SetEntry pairs a set record with its Add/Del tag.
type SetEntry struct {
	Record record.Record
	Op     record.SetOperation
}

// SetIterator yields set entries from a set-typed collection, newest first,
// with the two sentinel commits themselves filtered out.
type SetIterator interface {
	Next() (entry SetEntry, ok bool, err error)
}

// RecordBuilder accumulates attachment changes before a single terminal
// Commit call. It is single-use.
type RecordBuilder interface {
	UpsertAttachment(name string, content []byte) RecordBuilder
	RemoveAttachment(name string) RecordBuilder
	Commit(message string) (record.Record, error)
}

// Backend is the capability set shared by every record store variant.
type Backend interface {
	// Walk returns an iterator over collection, newest first. A collection
	// with no head yields an empty iterator, not an error.
	Walk(collection string) (RecordIterator, error)
	// Latest returns the head record of collection, or nil if the
	// collection has no head yet.
	Latest(collection string) (record.Record, error)
	// RecordBuilder returns a fresh builder for a plain append to
	// collection.
	RecordBuilder(collection string) RecordBuilder
	// GetRecord fetches a record by its opaque id, or nil if absent.
	GetRecord(id string) (record.Record, error)
	// SetAddUnchecked appends an Add-tagged record to collection with no
	// membership check.
	SetAddUnchecked(collection, message string) (record.Record, error)
	// SetDelUnchecked appends a Del-tagged record to collection with no
	// membership check.
	SetDelUnchecked(collection, message string) (record.Record, error)
	// WalkSet returns a set iterator over collection, newest first.
	WalkSet(collection string) (SetIterator, error)
	// Attachment returns the bytes for name as recorded in rec's
	// attachment overlay, or nil if rec carries no such attachment.
	Attachment(rec record.Record, name string) ([]byte, error)
}
