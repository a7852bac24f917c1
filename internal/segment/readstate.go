package segment

// ReadState is the per-thread scratchpad a SegmentSearcher consults to
// resume a forward scan from the last offset it stopped at, rather than
// reseeking the SortedIndex from the start on every call. It is never
// shared across goroutines — each reading thread owns its own ReadState,
// the same way the teacher's engine keeps one read transaction per caller
// rather than pooling them.
type ReadState struct {
	lastSegmentID      uint64
	lastIndexOffset    int64
	lastKey            []byte
	hasLastIndexOffset bool
}

// NewReadState returns an empty scratchpad with no cached position.
func NewReadState() *ReadState {
	return &ReadState{lastIndexOffset: -1}
}

// Resume reports the last index offset known for segmentID, if the
// state's cached position belongs to that Segment.
func (s *ReadState) Resume(segmentID uint64) (int64, []byte, bool) {
	if !s.hasLastIndexOffset || s.lastSegmentID != segmentID {
		return 0, nil, false
	}
	return s.lastIndexOffset, s.lastKey, true
}

// Remember records the most recent position a search landed on, so the
// next call into the same Segment can resume from there instead of
// restarting its probe.
func (s *ReadState) Remember(segmentID uint64, indexOffset int64, key []byte) {
	s.lastSegmentID = segmentID
	s.lastIndexOffset = indexOffset
	s.lastKey = append(s.lastKey[:0], key...)
	s.hasLastIndexOffset = true
}

// Reset clears the cached position, forcing the next search to start
// fresh (used when a Segment is closed/evicted out from under a reader).
func (s *ReadState) Reset() {
	s.hasLastIndexOffset = false
	s.lastIndexOffset = -1
	s.lastKey = nil
}
