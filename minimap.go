// Package minimap provides the public API for the Git-backed issue-tracking
// data model: projects, tickets, comments, attachments, state transitions,
// and cross-workspace dependencies, each encoded as a named sequence of
// immutable commits.
//
// Most callers only need OpenGit/OpenMemory plus the Workspace/Project/Ticket
// methods re-exported below. The internal/* packages implement the backend
// contract, the derived set semantics, and the entity layer; this package
// only wires them together and re-exports their public surface.
package minimap

import (
	"github.com/minimap-pm/minimap/internal/backend/gitbackend"
	"github.com/minimap-pm/minimap/internal/backend/memorybackend"
	"github.com/minimap-pm/minimap/internal/deps"
	"github.com/minimap-pm/minimap/internal/record"
	"github.com/minimap-pm/minimap/internal/workspace"
)

// Core entity types.
type (
	Workspace          = workspace.Workspace
	Project            = workspace.Project
	Ticket             = workspace.Ticket
	State              = workspace.State
	Dependency         = workspace.Dependency
	ResolvedDependency = workspace.ResolvedDependency
)

// Ticket lifecycle states.
const (
	Open   = workspace.Open
	Closed = workspace.Closed
)

// Error is the single error type every operation returns on failure.
type Error = record.Error

// Error kinds.
const (
	KindGit                  = record.KindGit
	KindIo                   = record.KindIo
	KindNotPushed            = record.KindNotPushed
	KindPushFailed           = record.KindPushFailed
	KindNotFound             = record.KindNotFound
	KindExists               = record.KindExists
	KindMalformed            = record.KindMalformed
	KindMalformedOrigin      = record.KindMalformedOrigin
	KindUnknownOrigin        = record.KindUnknownOrigin
	KindMalformedEndpoint    = record.KindMalformedEndpoint
	KindMalformedProjectSlug = record.KindMalformedProjectSlug
	KindOrigin               = record.KindOrigin
)

// Dependency resolution.
type (
	DependencyStatus = deps.Status
	DependencyOrigin = deps.Origin
	DependencyRegistry = deps.Registry
)

const (
	DependencyPending  = deps.StatusPending
	DependencyComplete = deps.StatusComplete
)

// GitOption configures OpenGit.
type GitOption = gitbackend.Option

// WithSignature sets the author/committer identity used for every commit a
// Git-backed workspace creates.
func WithSignature(name, email string) GitOption {
	return gitbackend.WithSignature(name, email)
}

// OpenGit opens (cloning if necessary) a Git-backed workspace against
// remoteURL. The local clone is cached under
// <system-temp>/minimap/<hex-sha256(remoteURL)>.
func OpenGit(remoteURL string, opts ...GitOption) (*Workspace, error) {
	b, err := gitbackend.Open(remoteURL, opts...)
	if err != nil {
		return nil, err
	}
	return workspace.Open(b), nil
}

// OpenMemory opens an in-memory workspace: the reference backend used to
// specify and test the entity layer's behavior independent of any network
// transport.
func OpenMemory(author, email string) *Workspace {
	return workspace.Open(memorybackend.New(author, email))
}
