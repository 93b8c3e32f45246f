/*
DESCRIPTION
  queues.go implements the three owning/aliasing queues of spec §3 —
  ReorderList, RefList and OutputList — as double-ended owning sequences,
  plus DTSQueue, the pending-decode-timestamp queue that guarantees
  dts <= pts.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package frame

// List is a double-ended owning sequence of *EncoderFrame, used for
// ReorderList and OutputList. It is deliberately a thin slice wrapper
// rather than an intrusive linked list: frame counts per GOP are small
// enough that slice shifts are cheap, and callers get easy indexed
// scanning for the reorderer's pyramid search.
type List struct {
	frames []*EncoderFrame
}

// Len returns the number of frames currently owned by l.
func (l *List) Len() int { return len(l.frames) }

// PushBack appends f to the tail of l.
func (l *List) PushBack(f *EncoderFrame) {
	l.frames = append(l.frames, f)
}

// At returns the frame at position i (0 is the head).
func (l *List) At(i int) *EncoderFrame { return l.frames[i] }

// PopFront removes and returns the frame at the head of l.
func (l *List) PopFront() *EncoderFrame {
	f := l.frames[0]
	l.frames = l.frames[1:]
	return f
}

// RemoveAt removes and returns the frame at index i, preserving the
// relative order of the remaining frames.
func (l *List) RemoveAt(i int) *EncoderFrame {
	f := l.frames[i]
	l.frames = append(l.frames[:i], l.frames[i+1:]...)
	return f
}

// Clear empties l, dropping its references to every frame it held.
func (l *List) Clear() {
	l.frames = nil
}

// Each calls fn for every frame in l, in order, stopping early if fn
// returns false.
func (l *List) Each(fn func(int, *EncoderFrame) bool) {
	for i, f := range l.frames {
		if !fn(i, f) {
			return
		}
	}
}

// RefList holds non-owning Handles into an Arena, sorted by GopFrameNum,
// per spec §3 ("RefList — pictures still serving as DPB references, sorted
// by gop_frame_num").
type RefList struct {
	arena   *Arena
	handles []Handle
}

// NewRefList returns a new, empty RefList backed by arena.
func NewRefList(arena *Arena) *RefList {
	return &RefList{arena: arena}
}

// Len returns the number of references currently resident.
func (r *RefList) Len() int { return len(r.handles) }

// Frames returns the resident reference frames in RefList order (sorted by
// GopFrameNum). The returned slice aliases no internal state and is safe
// for the caller to read.
func (r *RefList) Frames() []*EncoderFrame {
	out := make([]*EncoderFrame, 0, len(r.handles))
	for _, h := range r.handles {
		if f, ok := r.arena.Get(h); ok {
			out = append(out, f)
		}
	}
	return out
}

// Insert adds f as a new reference, re-sorting RefList by GopFrameNum to
// maintain its invariant (spec §4.C step 4: "insert F into RefList and
// re-sort by gop_frame_num").
func (r *RefList) Insert(f *EncoderFrame) {
	h := r.arena.Put(f)
	r.handles = append(r.handles, h)
	r.resort()
}

func (r *RefList) resort() {
	handles := make([]Handle, 0, len(r.handles))
	// Re-derive handles in GopFrameNum order; arena handles are stable
	// regardless of slice position so this just reorders the index list.
	pairs := make([]struct {
		h Handle
		f *EncoderFrame
	}, 0, len(r.handles))
	for _, h := range r.handles {
		if f, ok := r.arena.Get(h); ok {
			pairs = append(pairs, struct {
				h Handle
				f *EncoderFrame
			}{h, f})
		}
	}
	for i := 1; i < len(pairs); i++ {
		j := i
		for j > 0 && pairs[j-1].f.GopFrameNum > pairs[j].f.GopFrameNum {
			pairs[j-1], pairs[j] = pairs[j], pairs[j-1]
			j--
		}
	}
	for _, p := range pairs {
		handles = append(handles, p.h)
	}
	r.handles = handles
}

// EvictOldest removes and frees the head (lowest GopFrameNum) reference,
// per the sliding-window eviction policy of spec §4.C step 3.
func (r *RefList) EvictOldest() {
	if len(r.handles) == 0 {
		return
	}
	r.arena.Free(r.handles[0])
	r.handles = r.handles[1:]
}

// EvictAt removes and frees the reference at index i.
func (r *RefList) EvictAt(i int) {
	r.arena.Free(r.handles[i])
	r.handles = append(r.handles[:i], r.handles[i+1:]...)
}

// EvictFrameNum removes and frees the reference whose GopFrameNum equals
// frameNum, if resident; used for MMCO-1 explicit eviction. Reports
// whether a matching reference was found.
func (r *RefList) EvictFrameNum(frameNum uint32) bool {
	for i, h := range r.handles {
		if f, ok := r.arena.Get(h); ok && f.GopFrameNum == frameNum {
			r.EvictAt(i)
			return true
		}
	}
	return false
}

// Drain frees every resident reference, emptying RefList; used on a fresh
// CVS (spec §4.B step 3). Encoder.Stop does not call it.
func (r *RefList) Drain() {
	for _, h := range r.handles {
		r.arena.Free(h)
	}
	r.handles = nil
}

// DTSQueue stores pending decode timestamps to guarantee dts <= pts, per
// spec §3.
type DTSQueue struct {
	pending []int64
}

// PrePad pushes n synthetic DTS values in increasing order, spaced one
// frame-duration apart, from n frame-durations before first up to
// frameDuration before first. Used once at stream
// start to pre-pad by num_reorder_frames (spec §4.B "DTS rule").
func (q *DTSQueue) PrePad(n int, first, frameDuration int64) {
	for i := n; i >= 1; i-- {
		q.pending = append(q.pending, first-int64(i)*frameDuration)
	}
}

// Push enqueues a new pending DTS.
func (q *DTSQueue) Push(dts int64) {
	q.pending = append(q.pending, dts)
}

// Pop dequeues and returns the oldest pending DTS. Pop on an empty queue
// returns 0, false.
func (q *DTSQueue) Pop() (int64, bool) {
	if len(q.pending) == 0 {
		return 0, false
	}
	dts := q.pending[0]
	q.pending = q.pending[1:]
	return dts, true
}

// Len returns the number of pending DTS values.
func (q *DTSQueue) Len() int { return len(q.pending) }

// Clear empties the queue. Encoder.Flush and Encoder.Stop do not call it.
func (q *DTSQueue) Clear() { q.pending = nil }
