// Package policy decides whether a requester may read, write or delete a
// profile. It is a pure function of its inputs and performs no I/O; callers
// load the target's ownership metadata and act on the returned decision.
package policy

import "github.com/google/uuid"

// Operation is the kind of access being requested.
type Operation string

const (
	OpRead   Operation = "read"
	OpWrite  Operation = "write"
	OpDelete Operation = "delete"
)

// Decision is the outcome of a policy check.
type Decision int

const (
	Deny Decision = iota
	Allow
)

// Target carries the profile metadata the decision depends on.
type Target struct {
	OwnerID  uuid.UUID
	IsPublic bool
}

// Decide evaluates op for the requester against the target. A nil requester
// is an anonymous caller.
//
// Reads of public profiles are always allowed; reads of private profiles only
// by their owner. Writes and deletes require ownership regardless of
// visibility: a public profile is world-readable but never world-writable.
// A denied read of an existing private profile is a Deny, not a not-found;
// the access-request flow depends on private profiles being visible as
// existing.
func Decide(requester *uuid.UUID, op Operation, target Target) Decision {
	isOwner := requester != nil && *requester == target.OwnerID

	switch op {
	case OpRead:
		if target.IsPublic || isOwner {
			return Allow
		}
		return Deny
	case OpWrite, OpDelete:
		if isOwner {
			return Allow
		}
		return Deny
	default:
		return Deny
	}
}

// CanRead reports whether the requester may read the target.
func CanRead(requester *uuid.UUID, target Target) bool {
	return Decide(requester, OpRead, target) == Allow
}

// CanWrite reports whether the requester may modify the target.
func CanWrite(requester *uuid.UUID, target Target) bool {
	return Decide(requester, OpWrite, target) == Allow
}

// CanDelete reports whether the requester may delete the target.
func CanDelete(requester *uuid.UUID, target Target) bool {
	return Decide(requester, OpDelete, target) == Allow
}
