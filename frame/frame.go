/*
DESCRIPTION
  frame.go defines EncoderFrame, the per-picture state that flows through
  the reorderer, reference manager and backend driver, plus the
  generation-indexed arena used to hand out non-owning RefList handles.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package frame defines EncoderFrame and the owning/non-owning queue types
// it moves through: ReorderList and OutputList, which exclusively own a
// frame, and RefList, which holds non-owning handles into an Arena so that
// a frame can be simultaneously resident in one owning queue and aliased
// as a reference without the two being confused about lifetime.
package frame

import "github.com/ausocean/h264enc/gop"

// EncoderFrame is attached one-to-one to each input picture accepted by the
// encoder, per spec §3.
type EncoderFrame struct {
	// GopType is a copy of the GopFrameDescriptor this frame's logical
	// position was assigned by the GOP Planner.
	GopType gop.Descriptor

	// GopFrameNum is the monotonic count of reference pictures within the
	// CVS, modulo MaxFrameNum; non-reference pictures reuse the previous
	// value.
	GopFrameNum uint32

	// POC is (gop_position*2) mod MaxPicOrderCnt for the natural case, or 0
	// at an IDR or forced key frame.
	POC uint32

	// IDRPicID increments only at an IDR.
	IDRPicID uint32

	// ForceIDR is true for every picture that opens a new CVS as an IDR:
	// the first picture of each natural GOP as well as a forced key frame
	// that opens a GOP early. It does not tell the two cases apart.
	ForceIDR bool

	// LastFrame is true iff this is the final picture leaving the
	// reorderer, whether because the stream ended or a flush was forced.
	LastFrame bool

	// UnusedForReferencePicNum is -1, or the frame_num of a reference this
	// picture explicitly evicts via MMCO op 1.
	UnusedForReferencePicNum int64

	// PTS and DTS are the presentation and decode timestamps, in the same
	// units as the caller's input timeline.
	PTS int64
	DTS int64

	// BackendState is an opaque handle owned by the Backend Driver,
	// allocated at encode submission and freed with the frame; the core
	// never inspects it.
	BackendState interface{}

	// Dropped is true if a backend fatal error forced this picture out of
	// the pipeline before output; its bitstream is never emitted, whole or
	// partial, and its slot in the reference structure is treated as
	// vacant rather than silently reusing a truncated frame.
	Dropped bool

	// input is the caller-supplied picture payload, opaque to everything
	// below the Encoder Context.
	Input interface{}
}

// IsRef reports whether this frame may be used as a reference by a later
// picture.
func (f *EncoderFrame) IsRef() bool { return f.GopType.IsRef }

// SliceType returns this frame's coding slice type.
func (f *EncoderFrame) SliceType() gop.SliceType { return f.GopType.SliceType }

// Handle is a non-owning, generation-checked reference into an Arena. A
// stale Handle (its frame evicted since the Handle was taken) is detected
// by Arena.Get rather than dereferencing freed memory.
type Handle struct {
	index int
	gen   uint64
}

// Valid reports whether h was ever issued by an Arena (the zero Handle is
// never valid).
func (h Handle) Valid() bool { return h.gen != 0 }

// Arena is a generation-indexed slot array of *EncoderFrame, giving RefList
// O(1) insertion and eviction without the owning queues losing track of a
// frame that's simultaneously resident elsewhere.
//
// Slots are reused once freed; Handle.gen distinguishes a reused slot's new
// occupant from a stale reference to whatever used to live there.
type Arena struct {
	slots []arenaSlot
	free  []int
	gen   uint64
}

type arenaSlot struct {
	frame *EncoderFrame
	gen   uint64
}

// NewArena returns a new, empty Arena.
func NewArena() *Arena {
	return &Arena{}
}

// Put inserts f into the arena and returns a Handle aliasing it.
func (a *Arena) Put(f *EncoderFrame) Handle {
	a.gen++
	gen := a.gen
	if n := len(a.free); n > 0 {
		idx := a.free[n-1]
		a.free = a.free[:n-1]
		a.slots[idx] = arenaSlot{frame: f, gen: gen}
		return Handle{index: idx, gen: gen}
	}
	a.slots = append(a.slots, arenaSlot{frame: f, gen: gen})
	return Handle{index: len(a.slots) - 1, gen: gen}
}

// Get returns the frame aliased by h, or nil, false if h is stale.
func (a *Arena) Get(h Handle) (*EncoderFrame, bool) {
	if !h.Valid() || h.index < 0 || h.index >= len(a.slots) {
		return nil, false
	}
	s := a.slots[h.index]
	if s.gen != h.gen {
		return nil, false
	}
	return s.frame, true
}

// Free releases the slot aliased by h for reuse. Freeing an already-stale
// or zero Handle is a no-op.
func (a *Arena) Free(h Handle) {
	if !h.Valid() || h.index < 0 || h.index >= len(a.slots) {
		return
	}
	if a.slots[h.index].gen != h.gen {
		return
	}
	a.slots[h.index] = arenaSlot{}
	a.free = append(a.free, h.index)
}
