// Package seginfo names Segment files on disk.
//
// Filename Format: prefix_NNNNN_timestamp.seg
//
// Where:
//   - prefix: A configurable string identifying the file type (e.g., "segment", "log", "backup").
//   - NNNNN: A zero-padded 5-digit sequence number (00001, 00002, etc.).
//   - timestamp: A nanosecond-precision Unix timestamp for uniqueness and traceability.
//   - .seg: A fixed file extension.
//
// Example filenames:
//
//	segment_00001_1678881234567890123.seg
//	backup_00042_1678881298765432101.seg
//
// This is a trimmed carryover of the teacher's segment-discovery package:
// only GenerateName is wired (Defrag's Commit step calls it to name each
// new fragment). The discovery/parsing helpers (GetLastSegmentInfo,
// GetLastSegmentName, ParseSegmentID, GetFileInfo) belong to directory
// bootstrap and recovery, which spec.md §1 places out of scope, so they
// were dropped rather than kept unreached (DESIGN.md).
package seginfo

import (
	"fmt"
	"time"
)

// GenerateName creates a properly formatted filename for a new segment file.
func GenerateName(id uint64, prefix string) string {
	// Return a recognizable error pattern rather than failing silently.
	if prefix == "" {
		return fmt.Sprintf("INVALID_PREFIX_%05d_%d.seg", id, time.Now().UnixNano())
	}

	// Generate timestamp with nanosecond precision for maximum uniqueness.
	timestamp := time.Now().UnixNano()

	// Format: prefix_NNNNN_timestamp.seg.
	// %05d ensures zero-padding (00001, 00002, etc.) for proper lexicographic sorting.
	return fmt.Sprintf("%s_%05d_%d.seg", prefix, id, timestamp)
}
