package gitbackend

import (
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/minimap-pm/minimap/internal/backend"
	"github.com/minimap-pm/minimap/internal/record"
)

// Walk implements backend.Backend. Ordering follows the commit graph's
// primary-parent chain from the branch head, not an arbitrary topological
// order, matching the "parent-chain order" invariant.
func (b *Backend) Walk(collection string) (backend.RecordIterator, error) {
	head, err := b.headCommit(collection)
	if err != nil {
		return nil, err
	}
	return &recordIterator{b: b, cur: head}, nil
}

type recordIterator struct {
	b   *Backend
	cur *object.Commit
}

func (it *recordIterator) Next() (record.Record, bool, error) {
	if it.cur == nil {
		return nil, false, nil
	}
	cur := it.cur
	next, err := primaryParent(cur)
	if err != nil {
		return nil, false, err
	}
	it.cur = next
	return &gitRecord{commit: cur}, true, nil
}

func primaryParent(c *object.Commit) (*object.Commit, error) {
	if c.NumParents() == 0 {
		return nil, nil
	}
	parent, err := c.Parent(0)
	if err != nil {
		return nil, record.NewGitError(err)
	}
	return parent, nil
}

// WalkSet implements backend.Backend. The two sentinel commits themselves
// are filtered out; every other commit must have exactly 1 parent (the
// sentinel, for the first record) or 2 (predecessor plus sentinel) —
// anything else is Malformed.
func (b *Backend) WalkSet(collection string) (backend.SetIterator, error) {
	head, err := b.headCommit(collection)
	if err != nil {
		return nil, err
	}
	return &setIterator{b: b, cur: head}, nil
}

type setIterator struct {
	b   *Backend
	cur *object.Commit
}

func (it *setIterator) Next() (backend.SetEntry, bool, error) {
	for {
		if it.cur == nil {
			return backend.SetEntry{}, false, nil
		}
		cur := it.cur
		if cur.Hash == it.b.sentinelAdd || cur.Hash == it.b.sentinelDel {
			// The sentinel commits are never themselves members of any
			// real set collection, but guard against a malformed walk
			// reaching one anyway.
			it.cur = nil
			continue
		}

		var op record.SetOperation
		switch cur.NumParents() {
		case 1:
			// First record in the set: its one parent is the sentinel.
			switch cur.ParentHashes[0] {
			case it.b.sentinelAdd:
				op = record.SetOperationAdd
			case it.b.sentinelDel:
				op = record.SetOperationDel
			default:
				return backend.SetEntry{}, false, record.NewMalformedError("set record " + cur.Hash.String() + " has one parent that is not a sentinel")
			}
			it.cur = nil
		case 2:
			primary, err := primaryParent(cur)
			if err != nil {
				return backend.SetEntry{}, false, err
			}
			sentinel := otherParent(cur, primary)
			switch sentinel {
			case it.b.sentinelAdd:
				op = record.SetOperationAdd
			case it.b.sentinelDel:
				op = record.SetOperationDel
			default:
				return backend.SetEntry{}, false, record.NewMalformedError("set record " + cur.Hash.String() + " has no sentinel parent")
			}
			it.cur = primary
		default:
			return backend.SetEntry{}, false, record.NewMalformedError("set record " + cur.Hash.String() + " does not have 1 or 2 parents")
		}

		return backend.SetEntry{Record: &gitRecord{commit: cur, op: op, hasOp: true}, Op: op}, true, nil
	}
}

func otherParent(c *object.Commit, primary *object.Commit) plumbing.Hash {
	for _, ph := range c.ParentHashes {
		if primary == nil || ph != primary.Hash {
			return ph
		}
	}
	return plumbing.ZeroHash
}
