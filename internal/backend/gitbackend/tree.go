package gitbackend

import (
	"sort"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"

	"github.com/minimap-pm/minimap/internal/record"
)

// writeBlob encodes content as a blob object and returns its hash.
func writeBlob(s storer.EncodedObjectStorer, content []byte) (plumbing.Hash, error) {
	obj := s.NewEncodedObject()
	obj.SetType(plumbing.BlobObject)
	w, err := obj.Writer()
	if err != nil {
		return plumbing.ZeroHash, record.NewGitError(err)
	}
	if _, err := w.Write(content); err != nil {
		w.Close()
		return plumbing.ZeroHash, record.NewGitError(err)
	}
	if err := w.Close(); err != nil {
		return plumbing.ZeroHash, record.NewGitError(err)
	}
	hash, err := s.SetEncodedObject(obj)
	if err != nil {
		return plumbing.ZeroHash, record.NewGitError(err)
	}
	return hash, nil
}

// treeEntrySortKey implements Git's tree entry ordering: directory names
// sort as if they carried a trailing "/".
func treeEntrySortKey(e object.TreeEntry) string {
	if e.Mode == filemode.Dir {
		return e.Name + "/"
	}
	return e.Name
}

// writeTree encodes entries (in any order) as a tree object and returns its
// hash.
func writeTree(s storer.EncodedObjectStorer, entries []object.TreeEntry) (plumbing.Hash, error) {
	sort.Slice(entries, func(i, j int) bool {
		return treeEntrySortKey(entries[i]) < treeEntrySortKey(entries[j])
	})
	tree := &object.Tree{Entries: entries}
	obj := s.NewEncodedObject()
	obj.SetType(plumbing.TreeObject)
	if err := tree.Encode(obj); err != nil {
		return plumbing.ZeroHash, record.NewGitError(err)
	}
	hash, err := s.SetEncodedObject(obj)
	if err != nil {
		return plumbing.ZeroHash, record.NewGitError(err)
	}
	return hash, nil
}

// writeCommit encodes commit and returns its hash.
func writeCommit(s storer.EncodedObjectStorer, commit *object.Commit) (plumbing.Hash, error) {
	obj := s.NewEncodedObject()
	obj.SetType(plumbing.CommitObject)
	if err := commit.Encode(obj); err != nil {
		return plumbing.ZeroHash, record.NewGitError(err)
	}
	hash, err := s.SetEncodedObject(obj)
	if err != nil {
		return plumbing.ZeroHash, record.NewGitError(err)
	}
	return hash, nil
}

// splitUpserts partitions a path-keyed map into entries that apply
// directly at this level and entries that must recurse into a named
// subtree.
func splitUpserts(upserts map[string][]byte) (top map[string][]byte, nested map[string]map[string][]byte) {
	top = make(map[string][]byte)
	nested = make(map[string]map[string][]byte)
	for path, content := range upserts {
		if i := strings.IndexByte(path, '/'); i >= 0 {
			name, rest := path[:i], path[i+1:]
			if nested[name] == nil {
				nested[name] = make(map[string][]byte)
			}
			nested[name][rest] = content
			continue
		}
		top[path] = content
	}
	return top, nested
}

func splitRemoves(removes map[string]bool) (top map[string]bool, nested map[string]map[string]bool) {
	top = make(map[string]bool)
	nested = make(map[string]map[string]bool)
	for path := range removes {
		if i := strings.IndexByte(path, '/'); i >= 0 {
			name, rest := path[:i], path[i+1:]
			if nested[name] == nil {
				nested[name] = make(map[string]bool)
			}
			nested[name][rest] = true
			continue
		}
		top[path] = true
	}
	return top, nested
}

// overlayTree applies upserts/removes (paths relative to base, possibly
// containing "/") onto base (nil means the empty tree), writing any new
// blob/tree objects to s, and returns the resulting tree's hash.
func overlayTree(s storer.EncodedObjectStorer, base *object.Tree, upserts map[string][]byte, removes map[string]bool) (plumbing.Hash, error) {
	entries := make(map[string]object.TreeEntry)
	if base != nil {
		for _, e := range base.Entries {
			entries[e.Name] = e
		}
	}

	topUpserts, nestedUpserts := splitUpserts(upserts)
	topRemoves, nestedRemoves := splitRemoves(removes)

	for name, content := range topUpserts {
		hash, err := writeBlob(s, content)
		if err != nil {
			return plumbing.ZeroHash, err
		}
		entries[name] = object.TreeEntry{Name: name, Mode: filemode.Regular, Hash: hash}
	}
	for name := range topRemoves {
		delete(entries, name)
	}

	subNames := make(map[string]bool)
	for name := range nestedUpserts {
		subNames[name] = true
	}
	for name := range nestedRemoves {
		subNames[name] = true
	}
	for name := range subNames {
		var subBase *object.Tree
		if e, ok := entries[name]; ok && e.Mode == filemode.Dir {
			t, err := object.GetTree(s, e.Hash)
			if err != nil {
				return plumbing.ZeroHash, record.NewGitError(err)
			}
			subBase = t
		}
		subHash, err := overlayTree(s, subBase, nestedUpserts[name], nestedRemoves[name])
		if err != nil {
			return plumbing.ZeroHash, err
		}
		subTree, err := object.GetTree(s, subHash)
		if err != nil {
			return plumbing.ZeroHash, record.NewGitError(err)
		}
		if len(subTree.Entries) == 0 {
			delete(entries, name)
			continue
		}
		entries[name] = object.TreeEntry{Name: name, Mode: filemode.Dir, Hash: subHash}
	}

	flat := make([]object.TreeEntry, 0, len(entries))
	for _, e := range entries {
		flat = append(flat, e)
	}
	return writeTree(s, flat)
}
