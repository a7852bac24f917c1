// Package defrag implements the Defrag pipeline: it consumes a sorted
// stream of assignables plus the targets the assigner routed them onto,
// folds each target's new key-values against its existing ones through the
// Merger, and produces the Transient Segment fragments a level commits as
// its new persisted Segments (spec.md §4.6).
package defrag

import (
	"context"
	"os"
	"path/filepath"
	"sort"

	"github.com/iamNilotpal/swaydb/internal/assign"
	"github.com/iamNilotpal/swaydb/internal/block"
	"github.com/iamNilotpal/swaydb/internal/function"
	"github.com/iamNilotpal/swaydb/internal/kv"
	"github.com/iamNilotpal/swaydb/internal/merge"
	"github.com/iamNilotpal/swaydb/internal/segment"
	"github.com/iamNilotpal/swaydb/pkg/filesys"
	"github.com/iamNilotpal/swaydb/pkg/options"
	"github.com/iamNilotpal/swaydb/pkg/seginfo"
	"github.com/iamNilotpal/swaydb/pkg/slice"
	"golang.org/x/sync/errgroup"
)

// Fragment is one piece of a Defrag run's output: either a freshly-built
// Transient Segment body (Bytes/Footer set), or a RemoteSegment reference
// to an existing target that passed through unchanged (Remote set).
type Fragment struct {
	MinKey []byte
	MaxKey []byte

	Bytes  []byte
	Footer block.Footer

	Remote *segment.SegmentRef
}

// Config parameterizes a Defrag run.
type Config struct {
	BlockOptions   options.BlockOptions
	SegmentOptions options.SegmentOptions
	Functions      *function.Store
	Comparator     slice.Comparator
}

// Defrag runs the defragmentation pipeline for one level.
type Defrag struct {
	cfg Config
}

// New returns a Defrag using cfg.
func New(cfg Config) *Defrag {
	if cfg.Comparator == nil {
		cfg.Comparator = slice.DefaultComparator
	}
	if cfg.Functions == nil {
		cfg.Functions = function.NewStore()
	}
	return &Defrag{cfg: cfg}
}

// kvPair is a flattened, fully-resolved key-value ready for a Builder.
type kvPair struct {
	Key   []byte
	Value kv.Value
}

// Run executes one defrag pass: head-defrag and assignment run
// concurrently (spec.md §4.6 step 1), each target either passes through as
// a RemoteSegment (untouched) or is merged against its assigned
// headGap/midOverlap/tailGap items, and tailGap is appended as its own
// fragment. Fragments are returned sorted by MinKey, the order commit
// requires.
func (d *Defrag) Run(
	ctx context.Context,
	headGap, tailGap, assignables []assign.Assignable,
	targets []*segment.SegmentRef,
	removeDeletes bool,
	createdInLevel int,
) ([]Fragment, error) {
	assignTargets := make([]assign.Target, len(targets))
	for i, t := range targets {
		assignTargets[i] = assign.Target{MinKey: t.MinKey(), MaxKey: t.MaxKey()}
	}

	var entries []assign.Entry
	var headKVs []kvPair

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		headKVs = flattenAssignables(headGap)
		return nil
	})
	g.Go(func() error {
		var err error
		entries, err = assign.Assign(assignables, assignTargets, false, d.cfg.Comparator)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var fragments []Fragment
	if len(headKVs) > 0 {
		f, err := d.buildFragment(headKVs, createdInLevel, removeDeletes)
		if err != nil {
			return nil, err
		}
		fragments = append(fragments, f)
	}

	touched := make([]bool, len(targets))
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if e.IsGap {
			f, err := d.buildFragment(flattenAssignables(e.Items), createdInLevel, removeDeletes)
			if err != nil {
				return nil, err
			}
			fragments = append(fragments, f)
			continue
		}

		touched[e.TargetIndex] = true
		merged, err := d.mergeAgainstTarget(targets[e.TargetIndex], flattenAssignables(e.Items))
		if err != nil {
			return nil, err
		}
		f, err := d.buildFragment(merged, createdInLevel, removeDeletes)
		if err != nil {
			return nil, err
		}
		fragments = append(fragments, f)
	}

	if tailKVs := flattenAssignables(tailGap); len(tailKVs) > 0 {
		f, err := d.buildFragment(tailKVs, createdInLevel, removeDeletes)
		if err != nil {
			return nil, err
		}
		fragments = append(fragments, f)
	}

	for i, t := range targets {
		if touched[i] {
			continue
		}
		fragments = append(fragments, Fragment{MinKey: t.MinKey(), MaxKey: t.MaxKey(), Remote: t})
	}

	fragments, err := d.expandUndersizedRemotes(fragments, createdInLevel, removeDeletes)
	if err != nil {
		return nil, err
	}

	kept := fragments[:0]
	for _, f := range fragments {
		if f.Bytes != nil || f.Remote != nil {
			kept = append(kept, f)
		}
	}
	fragments = kept

	sort.Slice(fragments, func(i, j int) bool {
		return d.cfg.Comparator(fragments[i].MinKey, fragments[j].MinKey) < 0
	})
	return fragments, nil
}

// expandUndersizedRemotes rebuilds any RemoteSegment smaller than
// SegmentOptions.MinSizeForDefrag from its own key-values, per spec.md
// §4.6 step 4's "expand into child SegmentRefs and group with neighbouring
// fragments" rule. Rebuilding in place rather than physically regrouping
// with an adjacent fragment is a deliberate simplification (see DESIGN.md):
// it never loses data, and a later defrag pass over the now-smaller
// neighbourhood will coalesce it further.
func (d *Defrag) expandUndersizedRemotes(fragments []Fragment, createdInLevel int, removeDeletes bool) ([]Fragment, error) {
	min := int64(d.cfg.SegmentOptions.MinSizeForDefrag)
	if min <= 0 {
		return fragments, nil
	}
	out := make([]Fragment, 0, len(fragments))
	for _, f := range fragments {
		if f.Remote == nil || f.Remote.Size() >= min {
			out = append(out, f)
			continue
		}
		kvs, err := decodeAll(f.Remote, d.cfg.Comparator)
		if err != nil {
			return nil, err
		}
		rebuilt, err := d.buildFragment(kvs, createdInLevel, removeDeletes)
		if err != nil {
			return nil, err
		}
		out = append(out, rebuilt)
	}
	return out, nil
}

// decodeAll scans a Segment front to back and decodes every key-value.
func decodeAll(ref *segment.SegmentRef, cmp slice.Comparator) ([]kvPair, error) {
	searcher := segment.NewSearcher(ref, cmp)
	sortedIndex, err := ref.BlockCache().GetSortedIndex(cmp)
	if err != nil {
		return nil, err
	}

	var out []kvPair
	off := int64(0)
	for {
		e, ok, err := sortedIndex.ReadAtOK(off)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		v, err := searcher.Decode(e)
		if err != nil {
			return nil, err
		}
		out = append(out, kvPair{Key: e.Key, Value: v})
		if e.NextIndexOffset == -1 {
			break
		}
		off = e.NextIndexOffset
	}
	return out, nil
}

// mergeAgainstTarget folds items (already flattened, sorted ascending)
// onto target's existing entries via a single forward merge-join: a new
// item exactly at an existing key merges onto it, a Range item merges onto
// every existing key it contains, and every other new key is inserted as
// a standalone entry in its sorted position.
func (d *Defrag) mergeAgainstTarget(target *segment.SegmentRef, items []kvPair) ([]kvPair, error) {
	searcher := segment.NewSearcher(target, d.cfg.Comparator)
	sortedIndex, err := target.BlockCache().GetSortedIndex(d.cfg.Comparator)
	if err != nil {
		return nil, err
	}

	ranges := make([]kv.Range, 0)
	for _, it := range items {
		if r, ok := it.Value.(kv.Range); ok {
			ranges = append(ranges, r)
		}
	}

	var result []kvPair
	fi := 0
	off := int64(0)
	for {
		e, ok, err := sortedIndex.ReadAtOK(off)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}

		for fi < len(items) && d.cfg.Comparator(items[fi].Key, e.Key) < 0 {
			result = append(result, items[fi])
			fi++
		}

		decoded, err := searcher.Decode(e)
		if err != nil {
			return nil, err
		}

		switch {
		case fi < len(items) && d.cfg.Comparator(items[fi].Key, e.Key) == 0:
			merged, err := merge.Merge(e.Key, items[fi].Value, decoded, d.cfg.Functions, d.cfg.Comparator)
			if err != nil {
				return nil, err
			}
			result = append(result, kvPair{Key: e.Key, Value: merged})
			fi++
		default:
			if r, found := coveringRange(ranges, e.Key, d.cfg.Comparator); found {
				merged, err := merge.Merge(e.Key, r.RangeValue, decoded, d.cfg.Functions, d.cfg.Comparator)
				if err != nil {
					return nil, err
				}
				result = append(result, kvPair{Key: e.Key, Value: merged})
			} else {
				result = append(result, kvPair{Key: e.Key, Value: decoded})
			}
		}

		if e.NextIndexOffset == -1 {
			break
		}
		off = e.NextIndexOffset
	}

	for ; fi < len(items); fi++ {
		result = append(result, items[fi])
	}
	return result, nil
}

func coveringRange(ranges []kv.Range, key []byte, cmp slice.Comparator) (kv.Range, bool) {
	for _, r := range ranges {
		if r.Contains(key, cmp) {
			return r, true
		}
	}
	return kv.Range{}, false
}

// flattenAssignables resolves sub-Segments into their leaf key-values,
// returning a flat, key-ascending slice.
func flattenAssignables(items []assign.Assignable) []kvPair {
	var out []kvPair
	for _, it := range items {
		switch v := it.(type) {
		case assign.KeyValue:
			out = append(out, kvPair{Key: v.K, Value: v.V})
		case assign.SubSegment:
			out = append(out, flattenAssignables(v.Items)...)
		}
	}
	return out
}

// buildFragment assembles kvs into one Transient Segment body. removeDeletes
// drops deadline-less tombstones first, per spec.md §4.6's last-level
// semantics; a resulting empty kvs yields an empty Fragment the caller
// drops.
func (d *Defrag) buildFragment(kvs []kvPair, createdInLevel int, removeDeletes bool) (Fragment, error) {
	if removeDeletes {
		kvs = dropSurvivorlessTombstones(kvs)
	}
	if len(kvs) == 0 {
		return Fragment{}, nil
	}

	largest := 0
	for _, p := range kvs {
		if len(p.Key) > largest {
			largest = len(p.Key)
		}
	}

	b := segment.NewBuilder(d.cfg.BlockOptions, createdInLevel, len(kvs), largest)
	for _, p := range kvs {
		if err := b.Append(p.Key, p.Value); err != nil {
			return Fragment{}, err
		}
	}
	body, footer, err := b.Build()
	if err != nil {
		return Fragment{}, err
	}
	return Fragment{MinKey: kvs[0].Key, MaxKey: kvs[len(kvs)-1].Key, Bytes: body, Footer: footer}, nil
}

// dropSurvivorlessTombstones removes a deadline-less Remove: at the
// written level there is nothing beneath it left to shadow, so it has
// already done its job and can be discarded (spec.md §4.6's
// removeDeletes rule).
func dropSurvivorlessTombstones(kvs []kvPair) []kvPair {
	out := kvs[:0:0]
	for _, p := range kvs {
		if r, ok := p.Value.(kv.Remove); ok && !r.Deadline.IsSet() {
			continue
		}
		out = append(out, p)
	}
	return out
}

// Commit writes every Bytes fragment to dir under prefix (named via
// pkg/seginfo.GenerateName, ids drawn from nextID), opens it as a
// SegmentRef, and Acquires every Remote fragment's ref — producing the
// final, minKey-sorted list of Segments a level installs (spec.md §4.6
// step 4's "add remote full Segments, re-sort the final slice" rule).
func Commit(
	fragments []Fragment,
	dir, prefix string,
	nextID func() uint64,
	comp block.Compressor,
	sweeper segment.MemorySweeper,
	cmp slice.Comparator,
) ([]*segment.SegmentRef, error) {
	refs := make([]*segment.SegmentRef, 0, len(fragments))
	for _, f := range fragments {
		if f.Remote != nil {
			f.Remote.Acquire()
			refs = append(refs, f.Remote)
			continue
		}

		id := nextID()
		name := seginfo.GenerateName(id, prefix)
		path := filepath.Join(dir, name)
		if err := filesys.WriteFile(path, 0644, f.Bytes); err != nil {
			return nil, err
		}

		file, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		ref, err := segment.OpenRef(id, path, file, int64(len(f.Bytes)), comp, sweeper, cmp)
		if err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}

	sort.Slice(refs, func(i, j int) bool { return cmp(refs[i].MinKey(), refs[j].MinKey()) < 0 })
	return refs, nil
}
