// Package memorybackend is the in-memory reference backend: the backend
// invariants are specified and tested against it before the Git backend is
// held to the same contract.
//
// Grounded on the original Rust crate's workspace/memory.rs: a mutex-guarded
// map of collection name to head record id, a flat record table, and a
// content-addressed attachment pool keyed by a SHA-256 digest of the bytes.
package memorybackend

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"

	"github.com/minimap-pm/minimap/internal/backend"
	"github.com/minimap-pm/minimap/internal/record"
)

var _ backend.Backend = (*Backend)(nil)

// Backend is the in-memory reference implementation of backend.Backend.
type Backend struct {
	mu          sync.Mutex
	author      string
	email       string
	nextID      uint64
	heads       map[string]string
	records     map[string]*memRecord
	attachments map[string][]byte
	now         func() int64
}

// New constructs an empty in-memory backend, committing as author/email.
// Record timestamps come from a monotonically increasing counter rather
// than the wall clock, so tests don't depend on wall-clock time.
func New(author, email string) *Backend {
	var clock int64
	return &Backend{
		author:      author,
		email:       email,
		heads:       make(map[string]string),
		records:     make(map[string]*memRecord),
		attachments: make(map[string][]byte),
		now: func() int64 {
			clock++
			return clock
		},
	}
}

type memRecord struct {
	id          string
	parent      string
	author      string
	email       string
	message     string
	timestamp   int64
	op          record.SetOperation
	hasOp       bool
	attachments map[string]string // name -> attachment pool key
}

func (r *memRecord) ID() string        { return r.id }
func (r *memRecord) ParentID() string  { return r.parent }
func (r *memRecord) Author() string    { return r.author }
func (r *memRecord) Email() string     { return r.email }
func (r *memRecord) Message() string   { return r.message }
func (r *memRecord) Timestamp() int64  { return r.timestamp }
func (r *memRecord) Op() (record.SetOperation, bool) {
	return r.op, r.hasOp
}

func (b *Backend) genID() string {
	b.nextID++
	seed := fmt.Sprintf("MINIMAPINMEMORY::%x::MINIMAPINMEMORY", b.nextID)
	sum := sha256.Sum256([]byte(seed))
	return hex.EncodeToString(sum[:])
}

func blobKey(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// Walk implements backend.Backend.
func (b *Backend) Walk(collection string) (backend.RecordIterator, error) {
	b.mu.Lock()
	head := b.heads[collection]
	b.mu.Unlock()
	return &recordIterator{b: b, cur: head}, nil
}

// Latest implements backend.Backend.
func (b *Backend) Latest(collection string) (record.Record, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	head, ok := b.heads[collection]
	if !ok {
		return nil, nil
	}
	return b.records[head], nil
}

// GetRecord implements backend.Backend.
func (b *Backend) GetRecord(id string) (record.Record, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	r, ok := b.records[id]
	if !ok {
		return nil, nil
	}
	return r, nil
}

// RecordBuilder implements backend.Backend.
func (b *Backend) RecordBuilder(collection string) backend.RecordBuilder {
	return &recordBuilder{b: b, collection: collection, hasOp: false}
}

// SetAddUnchecked implements backend.Backend.
func (b *Backend) SetAddUnchecked(collection, message string) (record.Record, error) {
	return b.commitSetOp(collection, message, record.SetOperationAdd)
}

// SetDelUnchecked implements backend.Backend.
func (b *Backend) SetDelUnchecked(collection, message string) (record.Record, error) {
	return b.commitSetOp(collection, message, record.SetOperationDel)
}

func (b *Backend) commitSetOp(collection, message string, op record.SetOperation) (record.Record, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	parent := b.heads[collection]
	var parentAttachments map[string]string
	if parent != "" {
		parentAttachments = b.records[parent].attachments
	}
	r := &memRecord{
		id:          b.genID(),
		parent:      parent,
		author:      b.author,
		email:       b.email,
		message:     message,
		timestamp:   b.now(),
		op:          op,
		hasOp:       true,
		attachments: cloneAttachments(parentAttachments),
	}
	b.records[r.id] = r
	b.heads[collection] = r.id
	return r, nil
}

// WalkSet implements backend.Backend.
func (b *Backend) WalkSet(collection string) (backend.SetIterator, error) {
	b.mu.Lock()
	head := b.heads[collection]
	b.mu.Unlock()
	return &setIterator{b: b, cur: head}, nil
}

// Attachment implements backend.Backend.
func (b *Backend) Attachment(rec record.Record, name string) ([]byte, error) {
	mr, ok := rec.(*memRecord)
	if !ok {
		return nil, record.NewMalformedError("attachment lookup on foreign record type")
	}
	key, ok := mr.attachments[name]
	if !ok {
		return nil, nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.attachments[key], nil
}

func cloneAttachments(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

type recordIterator struct {
	b   *Backend
	cur string
}

func (it *recordIterator) Next() (record.Record, bool, error) {
	if it.cur == "" {
		return nil, false, nil
	}
	it.b.mu.Lock()
	r, ok := it.b.records[it.cur]
	it.b.mu.Unlock()
	if !ok {
		return nil, false, nil
	}
	it.cur = r.parent
	return r, true, nil
}

type setIterator struct {
	b   *Backend
	cur string
}

func (it *setIterator) Next() (backend.SetEntry, bool, error) {
	if it.cur == "" {
		return backend.SetEntry{}, false, nil
	}
	it.b.mu.Lock()
	r, ok := it.b.records[it.cur]
	it.b.mu.Unlock()
	if !ok {
		return backend.SetEntry{}, false, nil
	}
	it.cur = r.parent
	if !r.hasOp {
		return backend.SetEntry{}, false, record.NewMalformedError("non-set record encountered while walking set collection")
	}
	return backend.SetEntry{Record: r, Op: r.op}, true, nil
}

type recordBuilder struct {
	b          *Backend
	collection string
	upserts    map[string][]byte
	removes    map[string]bool
	order      []string // names in first-call order; Commit does not read it
	hasOp      bool
}

func (rb *recordBuilder) UpsertAttachment(name string, content []byte) backend.RecordBuilder {
	if rb.upserts == nil {
		rb.upserts = make(map[string][]byte)
	}
	if rb.removes != nil {
		delete(rb.removes, name)
	}
	if _, seen := rb.upserts[name]; !seen {
		rb.order = append(rb.order, name)
	}
	rb.upserts[name] = content
	return rb
}

func (rb *recordBuilder) RemoveAttachment(name string) backend.RecordBuilder {
	if rb.removes == nil {
		rb.removes = make(map[string]bool)
	}
	if rb.upserts != nil {
		delete(rb.upserts, name)
	}
	if _, seen := rb.removes[name]; !seen {
		rb.order = append(rb.order, name)
	}
	rb.removes[name] = true
	return rb
}

func (rb *recordBuilder) Commit(message string) (record.Record, error) {
	b := rb.b
	b.mu.Lock()
	defer b.mu.Unlock()
	parent := b.heads[rb.collection]
	var parentAttachments map[string]string
	if parent != "" {
		parentAttachments = b.records[parent].attachments
	}
	attachments := cloneAttachments(parentAttachments)
	for name, content := range rb.upserts {
		key := blobKey(content)
		b.attachments[key] = content
		attachments[name] = key
	}
	for name := range rb.removes {
		delete(attachments, name)
	}
	r := &memRecord{
		id:          b.genID(),
		parent:      parent,
		author:      b.author,
		email:       b.email,
		message:     message,
		timestamp:   b.now(),
		attachments: attachments,
	}
	b.records[r.id] = r
	b.heads[rb.collection] = r.id
	return r, nil
}
