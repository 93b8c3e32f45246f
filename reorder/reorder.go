/*
DESCRIPTION
  reorder.go implements the Frame Queue & Reorderer (spec §4.B): accepting
  display-order input pictures and emitting them in encode order, honoring
  the GOP Planner's frame map, forced key frames, and B-pyramid dependency
  ordering.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package reorder implements the Frame Queue & Reorderer: the component
// that turns display-order input into encode order, deferring a B
// picture's submission until the reference pictures its prediction
// depends on have themselves been submitted.
package reorder

import (
	"github.com/ausocean/h264enc/frame"
	"github.com/ausocean/h264enc/gop"
)

// Reorderer holds the ReorderList and GOP-position bookkeeping for one
// CVS. It is not safe for concurrent use; the Encoder Context serializes
// access to it.
type Reorderer struct {
	list frame.List
	st   *gop.State

	pos             int
	totalIDRCount   uint32
	gopFrameCounter uint32

	// closed is true while the pictures bounded by currentGOPLen cannot
	// receive any more members before they must drain: set when a forced
	// key frame caches a new IDR at the tail (the old GOP's leftover B/P
	// run will never get its natural close), and at end of stream. Reset
	// once that leftover run has fully drained.
	closed bool
}

// New returns a Reorderer driven by the GOP Planner's State.
func New(st *gop.State) *Reorderer {
	return &Reorderer{st: st}
}

// Push appends f to the ReorderList, assigning the GOP-plan-derived
// GopType, POC and (when applicable) ForceIDR fields. forceKeyFrame
// requests f become an IDR outside the normal GOP cadence; f is still
// cached at the ReorderList's tail rather than emitted immediately, so
// whatever remains of the current GOP drains first. last signals end of
// stream: a trailing B picture is promoted to a reference P so the CVS
// ends on a reference. Push reports resetCVS = true when f opens a fresh
// CVS (natural or forced), telling the caller to drain RefList.
func (r *Reorderer) Push(f *frame.EncoderFrame, forceKeyFrame, last bool) (resetCVS bool) {
	if forceKeyFrame && r.pos != 0 {
		f.GopType = gop.Descriptor{SliceType: gop.I, IsRef: true}
		f.POC = 0
		f.ForceIDR = true
		r.list.PushBack(f)
		r.pos = 1
		r.closed = true
		return true
	}

	if r.pos == len(r.st.FrameMap) {
		r.pos = 0
	}
	resetCVS = r.pos == 0

	f.GopType = r.st.FrameMap[r.pos]
	f.POC = uint32((r.pos * 2) % int(r.st.MaxPicOrderCnt))
	if r.pos == 0 {
		f.ForceIDR = true
		if r.list.Len() > 0 {
			// A new CVS is starting with older pictures still undrained
			// (possible when ref_num_list1 > 1 leaves a B run waiting on
			// forward references that belonged to the DPB about to be
			// cleared): force them out ahead of this picture.
			r.closed = true
		}
	}
	r.pos++
	r.list.PushBack(f)

	if last {
		if n := r.list.Len(); n > 0 {
			tail := r.list.At(n - 1)
			if tail.SliceType() == gop.B {
				tail.GopType.SliceType = gop.P
				tail.GopType.IsRef = true
			}
		}
	}
	return resetCVS
}

// currentGOPLen returns the number of ReorderList entries belonging to the
// GOP currently draining, excluding a forced-IDR picture cached at the
// tail for the GOP that follows.
func (r *Reorderer) currentGOPLen() int {
	n := r.list.Len()
	if n > 0 && r.list.At(n-1).ForceIDR {
		return n - 1
	}
	return n
}

// Pop selects and removes the next picture ready for encoding, given the
// pictures currently resident in the DPB (refs, sorted or not). It
// returns false if the ReorderList is empty or the ready picture cannot
// yet be determined (stall for more input).
func (r *Reorderer) Pop(refs []*frame.EncoderFrame) (*frame.EncoderFrame, bool) {
	if r.list.Len() == 0 {
		return nil, false
	}

	gopLen := r.currentGOPLen()
	if gopLen == 0 {
		// Only a cached forced IDR remains; the old GOP has fully drained,
		// so it may now begin.
		f := r.emit(r.list.Len() - 1)
		r.closed = false
		return f, true
	}

	tailIdx := gopLen - 1
	tail := r.list.At(tailIdx)
	if tail.SliceType() != gop.B {
		return r.emit(tailIdx), true
	}

	if r.st.BPyramid {
		idx := r.selectPyramidVictim(gopLen)
		if idx < 0 {
			return nil, false
		}
		cand := r.list.At(idx)
		if r.hasEnoughForwardRefs(cand, refs) || r.closed {
			return r.emit(idx), true
		}
		return nil, false
	}

	head := r.list.At(0)
	if r.hasEnoughForwardRefs(head, refs) || r.closed {
		return r.emit(0), true
	}
	return nil, false
}

// Flush drains every remaining ReorderList entry in Pop order, forcing
// emission once further input can no longer arrive — at end of stream
// there is none to wait for.
func (r *Reorderer) Flush(refs []*frame.EncoderFrame) []*frame.EncoderFrame {
	r.closed = true
	var out []*frame.EncoderFrame
	liveRefs := append([]*frame.EncoderFrame(nil), refs...)
	for r.list.Len() > 0 {
		f, ok := r.Pop(liveRefs)
		if !ok {
			// Pop only stalls waiting on forward references, and closed
			// forces that check open; this is an unreachable safety net.
			f = r.emit(0)
		}
		out = append(out, f)
		if f.IsRef() {
			liveRefs = append(liveRefs, f)
		}
	}
	return out
}

// selectPyramidVictim scans the first gopLen ReorderList entries for the B
// picture with the lowest pyramid level (tie-break: smallest POC), then
// repeatedly shifts the selection to whichever of its temporal references
// is still resident, since that reference must leave first.
func (r *Reorderer) selectPyramidVictim(gopLen int) int {
	best := -1
	for i := 0; i < gopLen; i++ {
		f := r.list.At(i)
		if f.SliceType() != gop.B {
			continue
		}
		if best < 0 {
			best = i
			continue
		}
		bf := r.list.At(best)
		if f.GopType.PyramidLevel < bf.GopType.PyramidLevel ||
			(f.GopType.PyramidLevel == bf.GopType.PyramidLevel && f.POC < bf.POC) {
			best = i
		}
	}
	if best < 0 {
		return -1
	}

	for {
		cand := r.list.At(best)
		leftPOC := uint32(int(cand.POC) + cand.GopType.LeftRefPOCDiff)
		rightPOC := uint32(int(cand.POC) + cand.GopType.RightRefPOCDiff)
		shifted := false
		for i := 0; i < gopLen; i++ {
			f := r.list.At(i)
			if f.POC == leftPOC || f.POC == rightPOC {
				best = i
				shifted = true
				break
			}
		}
		if !shifted {
			return best
		}
	}
}

// hasEnoughForwardRefs reports whether refs contains at least
// ref_num_list1 pictures with POC greater than cand's.
func (r *Reorderer) hasEnoughForwardRefs(cand *frame.EncoderFrame, refs []*frame.EncoderFrame) bool {
	n := 0
	for _, f := range refs {
		if f.POC > cand.POC {
			n++
		}
	}
	return n >= r.st.RefNumList1
}

// emit removes the ReorderList entry at idx and stamps its gop_frame_num
// and idr_pic_id per spec §4.B step 4.
func (r *Reorderer) emit(idx int) *frame.EncoderFrame {
	f := r.list.RemoveAt(idx)
	if f.ForceIDR {
		r.totalIDRCount++
		r.gopFrameCounter = 0
	}
	f.IDRPicID = r.totalIDRCount
	f.GopFrameNum = r.gopFrameCounter
	if f.IsRef() {
		r.gopFrameCounter++
	}
	return f
}

// Len returns the number of pictures currently awaiting emission.
func (r *Reorderer) Len() int { return r.list.Len() }
