// Package ordering assigns positions to entities that live in an ordered
// scope, such as modules inside a course or contents inside a module.
//
// A new entity without an explicit position is appended: it receives the
// largest position in its scope plus one, or 0 when the scope is empty.
// Deletions leave gaps; nothing is ever renumbered here.
package ordering

import (
	"context"
	"fmt"

	"github.com/im7mortal/kmutex"

	"github.com/akinalp/lectern/pkg"
)

// Scope identifies the partition positions are computed in. Each orderable
// kind has its own small struct type, so scopes of different kinds never
// collide even when their IDs do.
type Scope interface {
	comparable
}

// Orderable is an entity that knows its scope and accepts a position.
type Orderable[S Scope] interface {
	OrderScope() S
	SetPosition(position int)
}

// MaxFinder reports the largest position stored in a scope, or -1 when the
// scope holds no entities.
type MaxFinder[S Scope] interface {
	MaxPosition(ctx context.Context, scope S) (int, error)
}

// Assigner computes positions for one orderable kind.
//
// Assignments in the same scope are serialized: the scope lock is held from
// reading the current maximum until the entity is persisted, so two
// concurrent creations cannot both take the same position. The lock is
// in-process only.
type Assigner[S Scope] struct {
	finder MaxFinder[S]
	locks  *kmutex.Kmutex
}

// NewAssigner returns an Assigner backed by finder. locks may be shared
// between assigners of different kinds.
func NewAssigner[S Scope](finder MaxFinder[S], locks *kmutex.Kmutex) *Assigner[S] {
	if locks == nil {
		locks = kmutex.New()
	}
	return &Assigner[S]{finder: finder, locks: locks}
}

// Next returns the position a new entity appended to scope would get.
// It does not lock; use Assign when the result is about to be persisted.
func (a *Assigner[S]) Next(ctx context.Context, scope S) (int, error) {
	maxPos, err := a.finder.MaxPosition(ctx, scope)
	if err != nil {
		return 0, fmt.Errorf("failed to read max position: %w", err)
	}
	if maxPos < 0 {
		return 0, nil
	}
	return maxPos + 1, nil
}

// Assign decides entity's position, writes it onto entity and then calls
// persist. An explicit position is used as-is without reading the scope.
// The assigned position is returned so callers can surface it directly.
func (a *Assigner[S]) Assign(
	ctx context.Context,
	entity Orderable[S],
	explicit *int,
	persist func(ctx context.Context) error,
) (int, error) {
	if explicit != nil {
		if *explicit < 0 {
			return 0, fmt.Errorf("%w: position cannot be negative", pkg.ErrBadRequest)
		}
		entity.SetPosition(*explicit)
		if err := persist(ctx); err != nil {
			return 0, err
		}
		return *explicit, nil
	}

	scope := entity.OrderScope()
	a.locks.Lock(scope)
	defer a.locks.Unlock(scope)

	pos, err := a.Next(ctx, scope)
	if err != nil {
		return 0, err
	}

	entity.SetPosition(pos)
	if err := persist(ctx); err != nil {
		return 0, err
	}
	return pos, nil
}
