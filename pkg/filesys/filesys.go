// Package filesys provides the small set of file system operations the
// storage core actually needs: writing a committed Segment's bytes to
// disk. It started as a carryover of the teacher's general-purpose file
// utilities; everything beyond what Defrag's Commit step calls was trimmed
// since it was never wired to a SPEC_FULL component (DESIGN.md).
package filesys

import "os"

// WriteFile writes the provided `contents` to the file at `filePath` with
// the given `permission`. If the file does not exist, it will be created.
// If it exists, it will be truncated.
func WriteFile(filePath string, permission os.FileMode, contents []byte) error {
	return os.WriteFile(filePath, contents, permission)
}
