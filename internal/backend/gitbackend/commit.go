package gitbackend

import (
	"errors"
	"fmt"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/minimap-pm/minimap/internal/backend"
	"github.com/minimap-pm/minimap/internal/record"
)

// recordBuilder accumulates attachment changes for a single plain commit.
type recordBuilder struct {
	b          *Backend
	collection string
	upserts    map[string][]byte
	removes    map[string]bool
}

func (b *Backend) RecordBuilder(collection string) backend.RecordBuilder {
	return &recordBuilder{b: b, collection: collection}
}

func (rb *recordBuilder) UpsertAttachment(name string, content []byte) backend.RecordBuilder {
	if rb.upserts == nil {
		rb.upserts = make(map[string][]byte)
	}
	if rb.removes != nil {
		delete(rb.removes, name)
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
	rb.removes[name] = true
	return rb
}

func (rb *recordBuilder) Commit(message string) (record.Record, error) {
	return rb.b.commit(rb.collection, message, rb.upserts, rb.removes, nil)
}

// SetAddUnchecked implements backend.Backend.
func (b *Backend) SetAddUnchecked(collection, message string) (record.Record, error) {
	return b.commit(collection, message, nil, nil, &b.sentinelAdd)
}

// SetDelUnchecked implements backend.Backend.
func (b *Backend) SetDelUnchecked(collection, message string) (record.Record, error) {
	return b.commit(collection, message, nil, nil, &b.sentinelDel)
}

// commit implements the commit protocol of spec section 4.1: resolve the
// current head, overlay the tree, build the commit with the head as
// primary parent and sentinel (if any) as secondary parent, push it, and
// only on confirmed push success update the local ref.
func (b *Backend) commit(collection, message string, upserts map[string][]byte, removes map[string]bool, sentinel *plumbing.Hash) (record.Record, error) {
	head, err := b.headCommit(collection)
	if err != nil {
		return nil, err
	}

	var baseTree *object.Tree
	var parents []plumbing.Hash
	if head != nil {
		baseTree, err = head.Tree()
		if err != nil {
			return nil, record.NewGitError(err)
		}
		parents = append(parents, head.Hash)
	}
	if sentinel != nil {
		parents = append(parents, *sentinel)
	}

	treeHash, err := overlayTree(b.repo.Storer, baseTree, upserts, removes)
	if err != nil {
		return nil, err
	}

	sig := b.signature()
	commitObj := &object.Commit{
		Author:       sig,
		Committer:    sig,
		Message:      message,
		TreeHash:     treeHash,
		ParentHashes: parents,
	}
	commitHash, err := writeCommit(b.repo.Storer, commitObj)
	if err != nil {
		return nil, err
	}

	refName := collectionRefName(collection)
	refSpec := config.RefSpec(fmt.Sprintf("%s:%s", commitHash, refName))
	if err := b.repo.Push(&git.PushOptions{RemoteName: "origin", RefSpecs: []config.RefSpec{refSpec}}); err != nil {
		if errors.Is(err, git.NoErrAlreadyUpToDate) {
			// Fall through: nothing changed remotely, but we still have a
			// brand new local commit object to adopt below.
		} else if errors.Is(err, git.ErrRemoteNotFound) {
			return nil, record.NewNotPushedError()
		} else {
			return nil, record.NewPushFailedError(err)
		}
	}

	if err := b.repo.Storer.SetReference(plumbing.NewHashReference(refName, commitHash)); err != nil {
		return nil, record.NewGitError(err)
	}

	newCommit, err := b.repo.CommitObject(commitHash)
	if err != nil {
		return nil, record.NewGitError(err)
	}
	gr := &gitRecord{commit: newCommit}
	if sentinel != nil {
		gr.hasOp = true
		if *sentinel == b.sentinelAdd {
			gr.op = record.SetOperationAdd
		} else {
			gr.op = record.SetOperationDel
		}
	}
	return gr, nil
}
