package gitbackend

import (
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/minimap-pm/minimap/internal/record"
)

// gitRecord adapts a go-git commit object to record.Record. op/hasOp are
// set only by WalkSet and by SetAddUnchecked/SetDelUnchecked; records
// returned by Walk, Latest or GetRecord report no tag (Op's ok is false)
// even when they belong to a set-typed collection.
type gitRecord struct {
	commit *object.Commit
	op     record.SetOperation
	hasOp  bool
}

func (r *gitRecord) ID() string {
	return r.commit.Hash.String()
}

func (r *gitRecord) ParentID() string {
	if r.commit.NumParents() == 0 {
		return ""
	}
	return r.commit.ParentHashes[0].String()
}

func (r *gitRecord) Author() string   { return r.commit.Author.Name }
func (r *gitRecord) Email() string    { return r.commit.Author.Email }
func (r *gitRecord) Message() string  { return r.commit.Message }
func (r *gitRecord) Timestamp() int64 { return r.commit.Author.When.Unix() }
func (r *gitRecord) Op() (record.SetOperation, bool) {
	return r.op, r.hasOp
}
