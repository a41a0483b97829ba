// Package gitbackend is the authoritative Git-backed record store: every
// collection is a branch, every record a commit, and set membership is
// tagged via two sentinel commits (meta/+, meta/-) carried as a record's
// secondary parent.
//
// Grounded on the original Rust crate's remote/git.rs, reimplemented
// against go-git/v5 in place of libgit2 — the tree overlay is hand-rolled
// (see tree.go) the way other_examples' go-git-based tools construct trees
// and commits directly against a Storer, and push outcomes are read from
// the single error go-git's Push returns (see commit.go).
package gitbackend

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/minimap-pm/minimap/internal/backend"
	"github.com/minimap-pm/minimap/internal/record"
)

const (
	sentinelAddTag = "meta/+"
	sentinelDelTag = "meta/-"
)

// Backend is the Git-backed implementation of backend.Backend.
type Backend struct {
	repo         *git.Repository
	remoteURL    string
	authorName   string
	authorEmail  string
	logger       *slog.Logger
	sentinelAdd  plumbing.Hash
	sentinelDel  plumbing.Hash
}

// Option configures Open.
type Option func(*options)

type options struct {
	authorName  string
	authorEmail string
	logger      *slog.Logger
}

// WithSignature sets the author/committer identity used for every commit
// this backend creates.
func WithSignature(name, email string) Option {
	return func(o *options) { o.authorName, o.authorEmail = name, email }
}

// WithLogger overrides the default slog.Logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// LocalCloneDir returns the cache directory a given remote URL is cloned
// into: <system-temp>/minimap/<hex-sha256(remote-url)>.
func LocalCloneDir(remoteURL string) string {
	sum := sha256.Sum256([]byte(remoteURL))
	return filepath.Join(os.TempDir(), "minimap", hex.EncodeToString(sum[:]))
}

// Open clones remoteURL into its cache directory (or opens the existing
// clone), then bootstraps the meta/+ and meta/- sentinel tags if either is
// missing, pushing both tag refs back to origin.
func Open(remoteURL string, opts ...Option) (*Backend, error) {
	o := options{authorName: "minimap", authorEmail: "minimap@localhost", logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	dir := LocalCloneDir(remoteURL)
	repo, err := git.PlainOpen(dir)
	switch {
	case errors.Is(err, git.ErrRepositoryNotExists):
		if mkErr := os.MkdirAll(filepath.Dir(dir), 0o755); mkErr != nil {
			return nil, record.NewIoError(mkErr)
		}
		repo, err = git.PlainClone(dir, true, &git.CloneOptions{URL: remoteURL})
		if err != nil {
			return nil, record.NewGitError(fmt.Errorf("cloning %s: %w", remoteURL, err))
		}
		o.logger.Debug("cloned remote", "remote", remoteURL, "dir", dir)
	case err != nil:
		return nil, record.NewGitError(err)
	}

	b := &Backend{
		repo:        repo,
		remoteURL:   remoteURL,
		authorName:  o.authorName,
		authorEmail: o.authorEmail,
		logger:      o.logger,
	}
	if err := b.bootstrapSentinels(); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *Backend) signature() object.Signature {
	return object.Signature{Name: b.authorName, Email: b.authorEmail, When: time.Now()}
}

// bootstrapSentinels looks up the meta/+ and meta/- tags, creating any that
// are missing as empty-tree commits whose message is exactly the tag name.
// If either had to be created, both tag refs are pushed in one batch.
func (b *Backend) bootstrapSentinels() error {
	addHash, addCreated, err := b.ensureSentinelTag(sentinelAddTag)
	if err != nil {
		return err
	}
	delHash, delCreated, err := b.ensureSentinelTag(sentinelDelTag)
	if err != nil {
		return err
	}
	b.sentinelAdd, b.sentinelDel = addHash, delHash

	if addCreated || delCreated {
		specs := []config.RefSpec{
			config.RefSpec(fmt.Sprintf("refs/tags/%s:refs/tags/%s", sentinelAddTag, sentinelAddTag)),
			config.RefSpec(fmt.Sprintf("refs/tags/%s:refs/tags/%s", sentinelDelTag, sentinelDelTag)),
		}
		if err := b.repo.Push(&git.PushOptions{RemoteName: "origin", RefSpecs: specs}); err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
			return record.NewPushFailedError(err)
		}
	}
	return nil
}

func (b *Backend) ensureSentinelTag(tag string) (hash plumbing.Hash, created bool, err error) {
	refName := plumbing.NewTagReferenceName(tag)
	ref, err := b.repo.Reference(refName, true)
	if err == nil {
		return ref.Hash(), false, nil
	}
	if !errors.Is(err, plumbing.ErrReferenceNotFound) {
		return plumbing.ZeroHash, false, record.NewGitError(err)
	}

	emptyTreeHash, err := writeTree(b.repo.Storer, nil)
	if err != nil {
		return plumbing.ZeroHash, false, err
	}
	commit := &object.Commit{
		Author:    b.signature(),
		Committer: b.signature(),
		Message:   tag,
		TreeHash:  emptyTreeHash,
	}
	commitHash, err := writeCommit(b.repo.Storer, commit)
	if err != nil {
		return plumbing.ZeroHash, false, err
	}
	if err := b.repo.Storer.SetReference(plumbing.NewHashReference(refName, commitHash)); err != nil {
		return plumbing.ZeroHash, false, record.NewGitError(err)
	}
	return commitHash, true, nil
}

func collectionRefName(collection string) plumbing.ReferenceName {
	return plumbing.NewBranchReferenceName(collection)
}

func (b *Backend) headCommit(collection string) (*object.Commit, error) {
	ref, err := b.repo.Reference(collectionRefName(collection), true)
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return nil, nil
		}
		return nil, record.NewGitError(err)
	}
	commit, err := b.repo.CommitObject(ref.Hash())
	if err != nil {
		return nil, record.NewGitError(err)
	}
	return commit, nil
}

// Latest implements backend.Backend.
func (b *Backend) Latest(collection string) (record.Record, error) {
	commit, err := b.headCommit(collection)
	if err != nil || commit == nil {
		return nil, err
	}
	return &gitRecord{commit: commit}, nil
}

// GetRecord implements backend.Backend.
func (b *Backend) GetRecord(id string) (record.Record, error) {
	if !plumbing.IsHash(id) {
		return nil, record.NewMalformedError("record id " + id + " is not a valid hash")
	}
	commit, err := b.repo.CommitObject(plumbing.NewHash(id))
	if err != nil {
		if errors.Is(err, plumbing.ErrObjectNotFound) {
			return nil, nil
		}
		return nil, record.NewGitError(err)
	}
	return &gitRecord{commit: commit}, nil
}

// Attachment implements backend.Backend.
func (b *Backend) Attachment(rec record.Record, name string) ([]byte, error) {
	gr, ok := rec.(*gitRecord)
	if !ok {
		return nil, record.NewMalformedError("attachment lookup on foreign record type")
	}
	tree, err := gr.commit.Tree()
	if err != nil {
		return nil, record.NewGitError(err)
	}
	entry, err := tree.FindEntry(name)
	if err != nil {
		if errors.Is(err, object.ErrEntryNotFound) || errors.Is(err, object.ErrDirectoryNotFound) {
			return nil, nil
		}
		return nil, record.NewGitError(err)
	}
	blob, err := object.GetBlob(b.repo.Storer, entry.Hash)
	if err != nil {
		return nil, record.NewGitError(err)
	}
	reader, err := blob.Reader()
	if err != nil {
		return nil, record.NewGitError(err)
	}
	defer reader.Close()
	buf := make([]byte, blob.Size)
	if _, err := io.ReadFull(reader, buf); err != nil {
		return nil, record.NewIoError(err)
	}
	return buf, nil
}

var _ backend.Backend = (*Backend)(nil)
