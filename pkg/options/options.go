// Package options provides data structures and functions for configuring
// a swaydb instance. It defines various parameters that control storage
// behavior, performance, and maintenance operations, such as directory
// paths, segment characteristics, block-layer tuning, and the Level Zero
// memory cache.
package options

import (
	"strings"
	"time"
)

// SegmentOptions defines configurable parameters for each Segment.
// It provides fine-grained control over Segment behavior, performance,
// and resource utilization.
type SegmentOptions struct {
	// Size defines the maximum size a Segment can grow to before rotation.
	// When a Segment reaches this size, a new Segment will be created.
	// Larger Segments mean fewer files but slower defrag and recovery.
	//
	//  - Default: 64MB
	//  - Maximum: 4GB
	//  - Minimum: 2MB
	Size uint64 `json:"maxSegmentSize"`

	// Directory specifies where Segment files are stored.
	//
	// Default: "/var/lib/swaydb/segments"
	Directory string `json:"directory"`

	// Prefix defines the filename prefix for Segment files.
	// Final filename will be: `prefix_segmentId_timestamp.seg`
	//
	// Default: "segment"
	//
	// Example: If Prefix is "mydata", a Segment file might be "mydata_00001_1716679260000000000.seg".
	Prefix string `json:"prefix"`

	// MinSizeForDefrag is the size below which a RemoteSegment produced by
	// a defrag run is expanded back into its child Segments and regrouped
	// with neighbouring fragments rather than kept whole.
	MinSizeForDefrag uint64 `json:"minSizeForDefrag"`
}

// BlockOptions controls how the block layer (SortedIndex, HashIndex,
// BinarySearchIndex, BloomFilter, Values) is built for a Segment.
type BlockOptions struct {
	// CompressionEnabled toggles snappy compression of written blocks.
	CompressionEnabled bool `json:"compressionEnabled"`

	// HashIndexEnabled toggles writing a HashIndex block alongside the
	// SortedIndex for O(1) average-case point lookups.
	HashIndexEnabled bool `json:"hashIndexEnabled"`

	// HashIndexMaxProbe bounds how many slots a HashIndex write will probe
	// before giving up on placing an entry.
	HashIndexMaxProbe int `json:"hashIndexMaxProbe"`

	// HashIndexMinimumHits is the minimum hit count under which a built
	// HashIndex block is discarded rather than written to the Segment.
	HashIndexMinimumHits int `json:"hashIndexMinimumHits"`

	// BinarySearchIndexEnabled toggles writing a BinarySearchIndex block.
	BinarySearchIndexEnabled bool `json:"binarySearchIndexEnabled"`

	// BinarySearchIndexDensity is the fraction of SortedIndex entries
	// indexed by the BinarySearchIndex (1.0 = every entry).
	BinarySearchIndexDensity float64 `json:"binarySearchIndexDensity"`

	// BloomFilterEnabled toggles writing a BloomFilter block.
	BloomFilterEnabled bool `json:"bloomFilterEnabled"`

	// BloomFilterFalsePositive is the target false-positive rate used to
	// size a new BloomFilter block.
	BloomFilterFalsePositive float64 `json:"bloomFilterFalsePositive"`

	// BloomFilterMinimumKeys is the minimum number of unique keys a Segment
	// must have before a BloomFilter block is written for it.
	BloomFilterMinimumKeys int `json:"bloomFilterMinimumKeys"`
}

// LevelZeroOptions controls the in-memory LevelZeroMapCache.
type LevelZeroOptions struct {
	// MapSize bounds the in-memory map before it is flushed and replaced.
	MapSize uint64 `json:"mapSize"`
}

// Options defines the configuration parameters for a swaydb instance.
// It provides control over storage, block-layer, and maintenance aspects.
type Options struct {
	// DataDir specifies the base path where files will be stored.
	//
	// Default: "/var/lib/swaydb"
	DataDir string `json:"dataDir"`

	// CompactInterval defines how often the defrag process runs to merge
	// old Segments. More frequent defrag means more optimal storage but
	// higher overhead.
	//
	// Default: 5h
	CompactInterval time.Duration `json:"compactInterval"`

	// SegmentOptions configures Segment management including size limits
	// and naming convention.
	SegmentOptions *SegmentOptions `json:"segmentOptions"`

	// BlockOptions configures the Segment block layer.
	BlockOptions *BlockOptions `json:"blockOptions"`

	// LevelZeroOptions configures the in-memory Level Zero map cache.
	LevelZeroOptions *LevelZeroOptions `json:"levelZeroOptions"`
}

// OptionFunc is a function type that modifies a swaydb instance's configuration.
type OptionFunc func(*Options)

// WithDefaultOptions applies a predefined set of default configuration values
// to the Options struct.
func WithDefaultOptions() OptionFunc {
	return func(o *Options) {
		opts := NewDefaultOptions()
		o.DataDir = opts.DataDir
		o.SegmentOptions = opts.SegmentOptions
		o.CompactInterval = opts.CompactInterval
		o.BlockOptions = opts.BlockOptions
		o.LevelZeroOptions = opts.LevelZeroOptions
	}
}

// WithDataDir sets the primary data directory.
func WithDataDir(directory string) OptionFunc {
	return func(o *Options) {
		directory = strings.TrimSpace(directory)
		if directory != "" {
			o.DataDir = directory
		}
	}
}

// WithCompactInterval sets the interval at which defrag runs.
func WithCompactInterval(interval time.Duration) OptionFunc {
	return func(o *Options) {
		if interval > DefaultCompactInterval {
			o.CompactInterval = interval
		}
	}
}

// WithSegmentDir sets the directory specifically for storing Segment files.
func WithSegmentDir(directory string) OptionFunc {
	return func(o *Options) {
		directory = strings.TrimSpace(directory)
		if directory != "" {
			o.SegmentOptions.Directory = directory
		}
	}
}

// WithSegmentPrefix sets the file name prefix for Segment files.
func WithSegmentPrefix(prefix string) OptionFunc {
	return func(o *Options) {
		prefix = strings.TrimSpace(prefix)
		if prefix != "" {
			o.SegmentOptions.Prefix = prefix
		}
	}
}

// WithSegmentSize sets the maximum size of individual Segment files.
func WithSegmentSize(size uint64) OptionFunc {
	return func(o *Options) {
		if size > MinSegmentSize && size < MaxSegmentSize {
			o.SegmentOptions.Size = size
		}
	}
}

// WithMinSizeForDefrag sets the size below which a RemoteSegment produced by
// defrag is expanded and regrouped instead of passed through whole.
func WithMinSizeForDefrag(size uint64) OptionFunc {
	return func(o *Options) {
		if size > 0 && size < o.SegmentOptions.Size {
			o.SegmentOptions.MinSizeForDefrag = size
		}
	}
}

// WithCompression toggles snappy compression for written blocks.
func WithCompression(enabled bool) OptionFunc {
	return func(o *Options) { o.BlockOptions.CompressionEnabled = enabled }
}

// WithHashIndex toggles the HashIndex block and tunes its probing.
func WithHashIndex(enabled bool, maxProbe, minimumHits int) OptionFunc {
	return func(o *Options) {
		o.BlockOptions.HashIndexEnabled = enabled
		if maxProbe > 0 {
			o.BlockOptions.HashIndexMaxProbe = maxProbe
		}
		if minimumHits > 0 {
			o.BlockOptions.HashIndexMinimumHits = minimumHits
		}
	}
}

// WithBinarySearchIndex toggles the BinarySearchIndex block and its density.
func WithBinarySearchIndex(enabled bool, density float64) OptionFunc {
	return func(o *Options) {
		o.BlockOptions.BinarySearchIndexEnabled = enabled
		if density > 0 && density <= 1.0 {
			o.BlockOptions.BinarySearchIndexDensity = density
		}
	}
}

// WithBloomFilter toggles the BloomFilter block and its sizing parameters.
func WithBloomFilter(enabled bool, falsePositive float64, minimumKeys int) OptionFunc {
	return func(o *Options) {
		o.BlockOptions.BloomFilterEnabled = enabled
		if falsePositive > 0 && falsePositive < 1.0 {
			o.BlockOptions.BloomFilterFalsePositive = falsePositive
		}
		if minimumKeys > 0 {
			o.BlockOptions.BloomFilterMinimumKeys = minimumKeys
		}
	}
}

// WithLevelZeroMapSize sets the size bound for the in-memory map cache.
func WithLevelZeroMapSize(size uint64) OptionFunc {
	return func(o *Options) {
		if size > 0 {
			o.LevelZeroOptions.MapSize = size
		}
	}
}
