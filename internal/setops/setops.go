// Package setops implements the derived set semantics layered purely on top
// of a backend's WalkSet: set_find, set_add, set_del, set_get_all and
// set_walk_present. These are pure functions over the backend contract, not
// methods on any concrete backend, so every backend variant gets identical
// set behavior for free.
package setops

import (
	"github.com/minimap-pm/minimap/internal/backend"
	"github.com/minimap-pm/minimap/internal/record"
)

// FindResult is the outcome of Find. A nil Record means the message was never
// observed; a non-nil Record with Present false is a tombstone.
type FindResult struct {
	// Present is true if the message's newest observation was an Add.
	Present bool
	// Record is the record that determined the result (the newest
	// observation of the message), nil if the message was never observed.
	Record record.Record
}

// Find performs a newest-first linear scan of the set for msg.
func Find(b backend.Backend, collection, msg string) (FindResult, error) {
	it, err := b.WalkSet(collection)
	if err != nil {
		return FindResult{}, err
	}
	for {
		entry, ok, err := it.Next()
		if err != nil {
			return FindResult{}, err
		}
		if !ok {
			return FindResult{}, nil
		}
		if entry.Record.Message() == msg {
			return FindResult{Present: entry.Op == record.SetOperationAdd, Record: entry.Record}, nil
		}
	}
}

// Add adds msg to the set unless already present. On success it returns the
// new record and ok=true. If msg is already present, it returns the
// existing record and ok=false — the caller's definition of "failure".
func Add(b backend.Backend, collection, msg string) (rec record.Record, ok bool, err error) {
	found, err := Find(b, collection, msg)
	if err != nil {
		return nil, false, err
	}
	if found.Present {
		return found.Record, false, nil
	}
	rec, err = b.SetAddUnchecked(collection, msg)
	if err != nil {
		return nil, false, err
	}
	return rec, true, nil
}

// Del removes msg from the set if present. ok is true if a delete record was
// created; if msg was already absent, ok is false and rec is the prior
// tombstone (or nil if msg was never observed at all).
func Del(b backend.Backend, collection, msg string) (rec record.Record, ok bool, err error) {
	found, err := Find(b, collection, msg)
	if err != nil {
		return nil, false, err
	}
	if !found.Present {
		return found.Record, false, nil
	}
	rec, err = b.SetDelUnchecked(collection, msg)
	if err != nil {
		return nil, false, err
	}
	return rec, true, nil
}

// slot tracks the "oldest observed" insertion order alongside its current
// (possibly revised) presence.
type slot struct {
	rec     record.Record
	present bool
}

// GetAll replays the set newest-first, maintaining "newest observation
// wins" tie-breaking, and returns the currently-present messages in
// oldest-addition-first order.
//
// For each record encountered (newest first):
//   - Add and the key is unseen: the key becomes present, insertion-ordered
//     at this point.
//   - Add and the key is already a tombstone (seen as Del, not yet as Add):
//     the message was re-added before a later delete we have not yet seen;
//     erase the key entirely (a historical-accuracy artifact, not a
//     membership change).
//   - Del and the key is unseen: the key becomes a tombstone.
//   - Either way, once a key has been seen once (Add or Del), later
//     (older) observations of the same key are ignored.
func GetAll(b backend.Backend, collection string) ([]record.Record, error) {
	it, err := b.WalkSet(collection)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	slots := make(map[string]*slot)
	var order []string
	for {
		entry, ok, err := it.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		msg := entry.Record.Message()
		if entry.Op == record.SetOperationAdd {
			if !seen[msg] {
				seen[msg] = true
				s := &slot{rec: entry.Record, present: true}
				slots[msg] = s
				order = append(order, msg)
				continue
			}
			if s, ok := slots[msg]; ok && !s.present {
				delete(slots, msg)
				continue
			}
			// already present or already erased: ignore older Add
		} else {
			if !seen[msg] {
				seen[msg] = true
				slots[msg] = &slot{rec: entry.Record, present: false}
			}
			// already seen: ignore older Del
		}
	}
	out := make([]record.Record, 0, len(order))
	for i := len(order) - 1; i >= 0; i-- {
		msg := order[i]
		s, ok := slots[msg]
		if ok && s.present {
			out = append(out, s.rec)
		}
	}
	return out, nil
}

// WalkPresent iterates the set newest-first, yielding each currently-present
// message's record exactly once, in first-seen (newest observation) order.
func WalkPresent(b backend.Backend, collection string) ([]record.Record, error) {
	it, err := b.WalkSet(collection)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var out []record.Record
	for {
		entry, ok, err := it.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		msg := entry.Record.Message()
		if seen[msg] {
			continue
		}
		seen[msg] = true
		if entry.Op == record.SetOperationAdd {
			out = append(out, entry.Record)
		}
	}
	return out, nil
}
