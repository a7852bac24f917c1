package options

import "time"

const (
	// DefaultDataDir specifies the default base directory where swaydb will
	// store its data files. If no other directory is specified during
	// initialization, this path will be used.
	DefaultDataDir = "/var/lib/swaydb"

	// DefaultCompactInterval defines the default time duration between
	// automatic compaction operations. By default, compaction will run
	// every 5 hours.
	DefaultCompactInterval = time.Hour * 5

	// MinSegmentSize represents the minimum allowed size for a Segment file
	// in bytes (2MB).
	MinSegmentSize uint64 = 2 * 1024 * 1024

	// MaxSegmentSize represents the maximum allowed size for a Segment file
	// in bytes (4GB).
	MaxSegmentSize uint64 = 4 * 1024 * 1024 * 1024

	// DefaultSegmentSize specifies the default target size for a new
	// Segment file in bytes (64MB).
	DefaultSegmentSize uint64 = 64 * 1024 * 1024

	// DefaultSegmentDirectory specifies the default subdirectory within the
	// main data directory where Segment files will be stored.
	DefaultSegmentDirectory = "/segments"

	// DefaultSegmentPrefix defines the default prefix for Segment file names.
	DefaultSegmentPrefix = "segment"

	// DefaultMinSizeForDefrag is the threshold below which a RemoteSegment
	// produced by Defrag is expanded into its children and regrouped with
	// neighbouring fragments instead of being passed through whole.
	DefaultMinSizeForDefrag uint64 = 1 * 1024 * 1024

	// DefaultLevelZeroMapSize bounds the in-memory LevelZeroMapCache before
	// it is flushed and replaced by the caller.
	DefaultLevelZeroMapSize uint64 = 4 * 1024 * 1024

	// DefaultHashIndexMaxProbe bounds how many slots HashIndex.Write will
	// probe before giving up on writing an entry.
	DefaultHashIndexMaxProbe = 10

	// DefaultHashIndexMinimumHits is the minimum hit count under which a
	// built HashIndex block is discarded rather than written to the Segment.
	DefaultHashIndexMinimumHits = 2

	// DefaultBloomFilterFalsePositiveRate is the target false-positive rate
	// used to size a new BloomFilter block.
	DefaultBloomFilterFalsePositiveRate = 0.01

	// DefaultBloomFilterMinimumKeys is the minimum number of unique keys a
	// Segment must have before a BloomFilter block is written for it.
	DefaultBloomFilterMinimumKeys = 10

	// DefaultBinarySearchIndexDensity is the fraction of sorted-index
	// entries indexed by the BinarySearchIndex block (1.0 = every entry).
	DefaultBinarySearchIndexDensity = 1.0
)

// defaultOptions holds the default configuration settings for a swaydb instance.
var defaultOptions = Options{
	DataDir:         DefaultDataDir,
	CompactInterval: DefaultCompactInterval,
	SegmentOptions: &SegmentOptions{
		Size:             DefaultSegmentSize,
		Prefix:           DefaultSegmentPrefix,
		Directory:        DefaultSegmentDirectory,
		MinSizeForDefrag: DefaultMinSizeForDefrag,
	},
	BlockOptions: &BlockOptions{
		CompressionEnabled:       false,
		HashIndexEnabled:         true,
		HashIndexMaxProbe:        DefaultHashIndexMaxProbe,
		HashIndexMinimumHits:     DefaultHashIndexMinimumHits,
		BinarySearchIndexEnabled: true,
		BinarySearchIndexDensity: DefaultBinarySearchIndexDensity,
		BloomFilterEnabled:       true,
		BloomFilterFalsePositive: DefaultBloomFilterFalsePositiveRate,
		BloomFilterMinimumKeys:   DefaultBloomFilterMinimumKeys,
	},
	LevelZeroOptions: &LevelZeroOptions{
		MapSize: DefaultLevelZeroMapSize,
	},
}

// NewDefaultOptions returns a copy of the default configuration, safe for
// callers to mutate via OptionFuncs without aliasing package-level state.
func NewDefaultOptions() Options {
	cp := defaultOptions
	segCopy := *defaultOptions.SegmentOptions
	blockCopy := *defaultOptions.BlockOptions
	lvlCopy := *defaultOptions.LevelZeroOptions
	cp.SegmentOptions = &segCopy
	cp.BlockOptions = &blockCopy
	cp.LevelZeroOptions = &lvlCopy
	return cp
}
