// Package function implements FunctionStore, the process-wide registry of
// named mutator functions a kv.Function key-value references by id
// (spec.md §4.8), plus the SwayFunction input/result model Merger dispatches
// against (spec.md §9's "Function dispatch over variable inputs" design
// note).
package function

import (
	"reflect"
	"sync"

	"github.com/iamNilotpal/swaydb/internal/kv"
	"github.com/iamNilotpal/swaydb/pkg/errors"
)

// Input names the data a Func declares it needs to run. Merger uses this to
// decide whether it can execute the function against the locally-known
// value or must stash a PendingApply (spec.md §4.4, §9).
type Input uint8

const (
	InputValue Input = iota
	InputValueDeadline
	InputKey
	InputKeyValue
	InputKeyDeadline
	InputKeyValueDeadline
)

// Args is the data Merger can assemble from a single local key-value.
// HasValue and Deadline.IsSet() report which fields were actually
// available — a Remove carries no Value, a deadline-less Put carries no
// Deadline.
type Args struct {
	Key       []byte
	Value     []byte
	HasValue  bool
	Deadline  kv.Deadline
}

// Satisfies reports whether args carries everything input requires.
// InputKey is always satisfiable since the key is always known locally.
func Satisfies(input Input, args Args) bool {
	switch input {
	case InputValue, InputKeyValue:
		return args.HasValue
	case InputValueDeadline, InputKeyValueDeadline:
		return args.HasValue && args.Deadline.IsSet()
	case InputKeyDeadline:
		return args.Deadline.IsSet()
	default: // InputKey
		return true
	}
}

// ResultKind discriminates the four outcomes a Func's Apply may produce.
type ResultKind uint8

const (
	ResultNothing ResultKind = iota // keep the old value, only the time advances
	ResultRemove
	ResultExpire // a Remove carrying the returned deadline
	ResultUpdate
)

// Result is what a Func's Apply call returns.
type Result struct {
	Kind     ResultKind
	Value    []byte
	Deadline kv.Deadline
}

// Func is one registered mutator. RequiredInput lets Merger decide whether
// it can run Apply against a given local value without lower-level data.
type Func interface {
	ID() string
	RequiredInput() Input
	Apply(args Args) (Result, error)
}

// Store is FunctionStore: an insert-only, process-wide registry of
// id -> Func, the same concurrent-map-with-insert-if-absent shape the
// per-Segment skiplist and block-reader slots use (spec.md §5).
type Store struct {
	mu  sync.RWMutex
	fns map[string]Func
}

// NewStore returns an empty registry.
func NewStore() *Store {
	return &Store{fns: make(map[string]Func)}
}

// Put registers fn under its own ID. It fails if an id is already present
// bound to a different function (spec.md §4.8); re-registering the exact
// same function under its own id is a no-op success.
func (s *Store) Put(fn Func) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := fn.ID()
	if existing, ok := s.fns[id]; ok {
		if reflect.DeepEqual(existing, fn) {
			return nil
		}
		return errors.NewFunctionError(nil, errors.ErrorCodeFunctionAlreadyExists, "function id already registered with a different function").
			WithID(id)
	}
	s.fns[id] = fn
	return nil
}

// Get resolves id, returning (nil, false) on a clean miss.
func (s *Store) Get(id string) (Func, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn, ok := s.fns[id]
	return fn, ok
}

// Remove deletes id from the registry, if present.
func (s *Store) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.fns, id)
}

// Contains reports whether id is registered.
func (s *Store) Contains(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.fns[id]
	return ok
}

// NotFoundError builds the fatal error a Function key-value referencing an
// absent id surfaces to its caller.
func NotFoundError(id string) error {
	return errors.NewFunctionNotFoundError(id)
}
