package datastore

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"sync"

	"github.com/mesh-intelligence/cvtracker/internal/service"
	"github.com/mesh-intelligence/cvtracker/pkg/types"
)

const (
	opCreate = "create"
	opUpdate = "update"
	opDelete = "delete"
)

type entity[T any] interface {
	types.Record[T]
	Validate() error
}

// collection binds an entity type to its service and snapshot slice.
type collection[T entity[T]] struct {
	name string
	svc  func(*service.Services) *service.Service[T]
	slot func(*Snapshot) *[]T
}

func indexAt[T types.Record[T]](recs []T, position int) int {
	return slices.IndexFunc(recs, func(r T) bool { return r.RowPosition() == position })
}

// create prepends rec under a temporary negative position, appends it
// remotely and reloads. A failed append removes the temporary record.
func create[T entity[T]](ctx context.Context, s *Store, c collection[T], rec T) error {
	if err := rec.Validate(); err != nil {
		return fmt.Errorf("%s %s: %w", opCreate, c.name, err)
	}
	temp := int(-s.tempSeq.Add(1))
	rec = rec.AtPosition(temp)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return types.ErrStoreDetached
	}
	p := c.slot(&s.snap)
	*p = slices.Insert(*p, 0, rec)
	s.mu.Unlock()

	err := c.svc(s.svc).Create(ctx, s.sc, rec)
	s.metrics.Mutation(c.name, opCreate, err)
	if err != nil {
		s.mu.Lock()
		p := c.slot(&s.snap)
		if i := indexAt(*p, temp); i >= 0 {
			*p = slices.Delete(*p, i, i+1)
		}
		s.mu.Unlock()
		return s.fail(c.name, opCreate, err)
	}
	s.reload(ctx, c.name, opCreate)
	return nil
}

// update replaces the record at rec's position and writes it remotely. A
// failed write restores the previous record unless a reload replaced the
// snapshot in the meantime.
func update[T entity[T]](ctx context.Context, s *Store, c collection[T], rec T) error {
	pos := rec.RowPosition()
	if pos < types.FirstDataPosition {
		return fmt.Errorf("%s %s: %w: %d", opUpdate, c.name, types.ErrInvalidPosition, pos)
	}
	if err := rec.Validate(); err != nil {
		return fmt.Errorf("%s %s: %w", opUpdate, c.name, err)
	}
	unlock := s.locks.lock(c.name + ":" + strconv.Itoa(pos))
	defer unlock()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return types.ErrStoreDetached
	}
	p := c.slot(&s.snap)
	i := indexAt(*p, pos)
	if i < 0 {
		s.mu.Unlock()
		return fmt.Errorf("%s %s at row %d: %w", opUpdate, c.name, pos, types.ErrNotFound)
	}
	prev := (*p)[i]
	(*p)[i] = rec
	gen := s.generation
	s.mu.Unlock()

	err := c.svc(s.svc).Update(ctx, s.sc, pos, rec)
	s.metrics.Mutation(c.name, opUpdate, err)
	if err != nil {
		s.mu.Lock()
		if s.generation == gen {
			p := c.slot(&s.snap)
			if i := indexAt(*p, pos); i >= 0 {
				(*p)[i] = prev
			}
		}
		s.mu.Unlock()
		return s.fail(c.name, opUpdate, err)
	}
	return nil
}

// remove drops the record at position, deletes it remotely and reloads. A
// failed delete puts the record back at its index unless a reload replaced
// the snapshot in the meantime.
func remove[T entity[T]](ctx context.Context, s *Store, c collection[T], position int) error {
	if position < types.FirstDataPosition {
		return fmt.Errorf("%s %s: %w: %d", opDelete, c.name, types.ErrInvalidPosition, position)
	}
	unlock := s.locks.lock(c.name + ":" + strconv.Itoa(position))
	defer unlock()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return types.ErrStoreDetached
	}
	p := c.slot(&s.snap)
	i := indexAt(*p, position)
	if i < 0 {
		s.mu.Unlock()
		return fmt.Errorf("%s %s at row %d: %w", opDelete, c.name, position, types.ErrNotFound)
	}
	prev := (*p)[i]
	*p = slices.Delete(*p, i, i+1)
	gen := s.generation
	s.mu.Unlock()

	err := c.svc(s.svc).Delete(ctx, s.sc, position)
	s.metrics.Mutation(c.name, opDelete, err)
	if err != nil {
		s.mu.Lock()
		if s.generation == gen {
			p := c.slot(&s.snap)
			*p = slices.Insert(*p, min(i, len(*p)), prev)
		}
		s.mu.Unlock()
		return s.fail(c.name, opDelete, err)
	}
	s.reload(ctx, c.name, opDelete)
	return nil
}

func (s *Store) fail(entity, op string, err error) error {
	s.logger.Error("mutation rolled back", "entity", entity, "op", op, "err", err)
	s.notifier.Notify(Notice{Level: LevelError, Message: fmt.Sprintf("Failed to %s %s: %v", op, entity, err)})
	return &MutationError{Entity: entity, Op: op, Err: err}
}

// reload refreshes positions after a create or delete. The mutation has
// already succeeded remotely, so a failed reload is only logged; LoadAll
// sends its own notice.
func (s *Store) reload(ctx context.Context, entity, op string) {
	s.writes.Add(1)
	if err := s.LoadAll(ctx); err != nil {
		s.logger.Warn("reload after mutation failed", "entity", entity, "op", op, "err", err)
	}
}

// keyedMutex serializes callers that share a key.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedLock
}

type keyedLock struct {
	mu   sync.Mutex
	refs int
}

func (k *keyedMutex) lock(key string) (unlock func()) {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*keyedLock)
	}
	l, ok := k.locks[key]
	if !ok {
		l = &keyedLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
