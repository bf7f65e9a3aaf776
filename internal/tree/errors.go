// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package tree

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("already registered")
	ErrDeleted   = errors.New("category is deleted")

	// ErrCycle means a parent chain loops back on itself.
	ErrCycle = errors.New("parent chain forms a cycle")
	// ErrDangling means a back-reference points at an unknown node.
	ErrDangling = errors.New("reference to unknown node")
	// ErrUnlinked means the parent/child or category/page links disagree.
	ErrUnlinked = errors.New("relationship is not bidirectional")

	ErrBlank      = errors.New("must not be blank")
	ErrTooLong    = errors.New("is too long")
	ErrSlugFormat = errors.New("must contain only lowercase letters, digits and single hyphens")
	ErrSlugTaken  = errors.New("is already in use")
)

// ValidationError reports a user-correctable problem with one field.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// InvariantViolation reports a broken structural invariant. It signals a
// programming error; callers abort the operation instead of correcting input.
type InvariantViolation struct {
	Op  string
	ID  uuid.UUID
	Err error
}

func (e *InvariantViolation) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.ID, e.Err)
}

func (e *InvariantViolation) Unwrap() error { return e.Err }
