// Package engine provides the core database engine implementation for the
// swaydb storage system.
//
// The engine serves as the central coordinator and entry point for all
// database operations. It wires together Level 0's in-memory write buffer,
// the persistent levels' sorted Segment runs, the Merger (consulted through
// Level 0 and the traversal package), the SegmentAssigner and Defrag
// pipeline, and the FunctionStore, exposing a single Get/Put/Remove/Higher/
// Lower/Compact surface (spec.md §6.2).
package engine

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/iamNilotpal/swaydb/internal/assign"
	"github.com/iamNilotpal/swaydb/internal/block"
	"github.com/iamNilotpal/swaydb/internal/defrag"
	"github.com/iamNilotpal/swaydb/internal/function"
	"github.com/iamNilotpal/swaydb/internal/kv"
	"github.com/iamNilotpal/swaydb/internal/level0"
	"github.com/iamNilotpal/swaydb/internal/segment"
	"github.com/iamNilotpal/swaydb/internal/traversal"
	"github.com/iamNilotpal/swaydb/pkg/codec"
	"github.com/iamNilotpal/swaydb/pkg/options"
	"github.com/iamNilotpal/swaydb/pkg/slice"
	"go.uber.org/zap"
)

// ErrEngineClosed is returned when attempting to perform operations on a
// closed engine.
var ErrEngineClosed = errors.New("operation failed: cannot access closed engine")

// Engine coordinates every subsystem behind a single API. It is safe for
// concurrent use: writes serialize through Level 0's own writer lock,
// reads take a read lock only long enough to snapshot the current
// Traversal, and Compact takes the write lock while it installs a new
// persistent level.
type Engine struct {
	options *options.Options
	log     *zap.SugaredLogger
	closed  atomic.Bool

	cmp   slice.Comparator
	clock *codec.Clock
	fns   *function.Store

	mu     sync.RWMutex
	level0 *level0.Map
	levels [][]*segment.SegmentRef // levels[0] is the first persistent level, directly below Level 0
	tr     *traversal.Traversal

	nextSegmentID atomic.Uint64
	sweeper       segment.MemorySweeper
}

// Config holds the parameters needed to initialize a new Engine.
type Config struct {
	Options *options.Options
	Logger  *zap.SugaredLogger
}

// New creates and initializes a new Engine instance with the provided
// configuration.
func New(config *Config) (*Engine, error) {
	opts := config.Options
	if opts == nil {
		opts = &options.Options{}
	}
	if opts.SegmentOptions == nil {
		opts.SegmentOptions = &options.SegmentOptions{}
	}
	if opts.BlockOptions == nil {
		opts.BlockOptions = &options.BlockOptions{}
	}

	cmp := slice.DefaultComparator
	fns := function.NewStore()

	e := &Engine{
		options: opts,
		log:     config.Logger,
		cmp:     cmp,
		clock:   codec.NewClock(),
		fns:     fns,
		level0:  level0.New(level0.Config{Comparator: cmp, Functions: fns}),
		sweeper: func(int, string) {},
	}
	e.rebuildTraversal()
	return e, nil
}

// Close releases every open Segment across every persistent level.
func (e *Engine) Close() error {
	if !e.closed.CompareAndSwap(false, true) {
		return ErrEngineClosed
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, lvl := range e.levels {
		for _, ref := range lvl {
			if err := ref.Close(); err != nil {
				return err
			}
		}
	}
	return nil
}

func (e *Engine) checkOpen() error {
	if e.closed.Load() {
		return ErrEngineClosed
	}
	return nil
}

// rebuildTraversal re-derives the Traversal from the current Level 0 map
// and persistent level runs. Callers must hold e.mu for writing.
func (e *Engine) rebuildTraversal() {
	levels := make([]traversal.Level, 0, 1+len(e.levels))
	levels = append(levels, traversal.Level0Level{Map: e.level0})
	for _, segs := range e.levels {
		levels = append(levels, &traversal.SegmentLevel{Segments: segs, Cmp: e.cmp})
	}
	e.tr = traversal.New(levels, e.fns, e.cmp)
}

func (e *Engine) snapshot() *traversal.Traversal {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.tr
}

// Put writes a Put key-value into Level 0.
func (e *Engine) Put(key, value []byte, deadline kv.Deadline) error {
	if err := e.checkOpen(); err != nil {
		return err
	}
	return e.level0.Write(key, kv.Put{Value: value, Deadline: deadline, Time: e.clock.Next()})
}

// Remove writes a Remove key-value (tombstone) into Level 0.
func (e *Engine) Remove(key []byte, deadline kv.Deadline) error {
	if err := e.checkOpen(); err != nil {
		return err
	}
	return e.level0.Write(key, kv.Remove{Deadline: deadline, Time: e.clock.Next()})
}

// UpdateValue writes an Update key-value into Level 0.
func (e *Engine) UpdateValue(key, value []byte, deadline kv.Deadline) error {
	if err := e.checkOpen(); err != nil {
		return err
	}
	return e.level0.Write(key, kv.Update{Value: value, Deadline: deadline, Time: e.clock.Next()})
}

// ApplyFunction writes a Function key-value referencing fnID into Level 0.
func (e *Engine) ApplyFunction(key []byte, fnID string) error {
	if err := e.checkOpen(); err != nil {
		return err
	}
	return e.level0.Write(key, kv.Function{FnID: fnID, Time: e.clock.Next()})
}

// RemoveRange writes a Remove Range over [fromKey, toKey) into Level 0.
func (e *Engine) RemoveRange(fromKey, toKey []byte) error {
	if err := e.checkOpen(); err != nil {
		return err
	}
	t := e.clock.Next()
	return e.level0.Write(fromKey, kv.Range{FromKey: fromKey, ToKey: toKey, RangeValue: kv.Remove{Time: t}, Time: t})
}

// RegisterFunction registers fn with the engine's FunctionStore.
func (e *Engine) RegisterFunction(fn function.Func) error {
	return e.fns.Put(fn)
}

// Get resolves key's effective value across every level. The second return
// is false both on a clean miss and on an expired/removed key.
func (e *Engine) Get(key []byte) ([]byte, bool, error) {
	if err := e.checkOpen(); err != nil {
		return nil, false, err
	}
	v, found, err := e.snapshot().Get(key)
	if err != nil || !found {
		return nil, false, err
	}
	return v.(kv.Put).Value, true, nil
}

// Higher returns the key/value pair with the smallest key strictly greater
// than key.
func (e *Engine) Higher(key []byte) (foundKey, value []byte, ok bool, err error) {
	if err := e.checkOpen(); err != nil {
		return nil, nil, false, err
	}
	k, v, found, err := e.snapshot().Higher(key)
	if err != nil || !found {
		return nil, nil, false, err
	}
	return k, v.(kv.Put).Value, true, nil
}

// Lower returns the key/value pair with the greatest key strictly less
// than key.
func (e *Engine) Lower(key []byte) (foundKey, value []byte, ok bool, err error) {
	if err := e.checkOpen(); err != nil {
		return nil, nil, false, err
	}
	k, v, found, err := e.snapshot().Lower(key)
	if err != nil || !found {
		return nil, nil, false, err
	}
	return k, v.(kv.Put).Value, true, nil
}

// Compact runs the Defrag pipeline for levelIdx: level 0's persistent run
// drains and absorbs Level 0's current contents; every deeper level
// defrags in place against an empty assignable stream (a whole-level
// rewrite with no new data, the degenerate case of spec.md §4.6). On the
// last level, removeDeletes drops deadline-less Removes; timed Removes are
// kept. The produced Segments replace levelIdx's run
// and the Traversal is rebuilt to see them.
func (e *Engine) Compact(ctx context.Context, levelIdx int) error {
	if err := e.checkOpen(); err != nil {
		return err
	}

	e.mu.Lock()
	for len(e.levels) <= levelIdx {
		e.levels = append(e.levels, nil)
	}
	targets := e.levels[levelIdx]
	isLastLevel := levelIdx == len(e.levels)-1

	var assignables []assign.Assignable
	if levelIdx == 0 {
		for _, en := range e.level0.Entries() {
			assignables = append(assignables, assign.KeyValue{K: en.Key, V: en.Value})
		}
	}
	e.mu.Unlock()

	d := defrag.New(defrag.Config{
		BlockOptions:   *e.options.BlockOptions,
		SegmentOptions: *e.options.SegmentOptions,
		Functions:      e.fns,
		Comparator:     e.cmp,
	})

	fragments, err := d.Run(ctx, nil, nil, assignables, targets, isLastLevel, levelIdx)
	if err != nil {
		return err
	}

	refs, err := defrag.Commit(
		fragments,
		e.options.SegmentOptions.Directory,
		e.options.SegmentOptions.Prefix,
		func() uint64 { return e.nextSegmentID.Add(1) },
		e.compressor(),
		e.sweeper,
		e.cmp,
	)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.levels[levelIdx] = refs
	if levelIdx == 0 {
		e.level0.Clear()
	}
	e.rebuildTraversal()
	return nil
}

func (e *Engine) compressor() block.Compressor {
	if e.options.BlockOptions.CompressionEnabled {
		return block.SnappyCompressor{}
	}
	return nil
}
