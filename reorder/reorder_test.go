/*
DESCRIPTION
  reorder_test.go exercises the Reorderer's push/pop cycle against a small
  concrete GOP plan, confirming display-order input is turned into the
  expected encode order and that a forced key frame correctly caches at the
  tail until the old GOP's leftovers have drained.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package reorder

import (
	"testing"

	"github.com/ausocean/h264enc/frame"
	"github.com/ausocean/h264enc/gop"
	"github.com/ausocean/h264enc/level"
)

// planState returns the GOP plan for idrPeriod=4, numBFrames=2,
// numRefFrames=3, plain B (no pyramid): frame_map [I, B(nonref,l1),
// B(ref,l0), P].
func planState(bPyramid bool, numRefFrames int) *gop.State {
	st, _ := gop.Plan(gop.Params{
		Profile:      level.ProfileHigh,
		IDRPeriod:    4,
		NumBFrames:   2,
		NumRefFrames: numRefFrames,
		BPyramid:     bPyramid,
		FrameRateNum: 30,
		FrameRateDen: 1,
		List0Cap:     numRefFrames,
		List1Cap:     numRefFrames,
	})
	return st
}

// harness drives a Reorderer the way Encoder does: feeding Pop's own
// output back in as a DPB reference the moment it's "submitted".
type harness struct {
	r    *Reorderer
	refs []*frame.EncoderFrame
}

func (h *harness) push(pts int64, force, last bool) []*frame.EncoderFrame {
	f := &frame.EncoderFrame{PTS: pts}
	h.r.Push(f, force, last)
	var emitted []*frame.EncoderFrame
	for {
		out, ok := h.r.Pop(h.refs)
		if !ok {
			break
		}
		emitted = append(emitted, out)
		if out.IsRef() {
			h.refs = append(h.refs, out)
		}
	}
	return emitted
}

func sliceTypes(fs []*frame.EncoderFrame) []gop.SliceType {
	out := make([]gop.SliceType, len(fs))
	for i, f := range fs {
		out[i] = f.SliceType()
	}
	return out
}

func TestPlainBReordersToEncodeOrder(t *testing.T) {
	h := &harness{r: New(planState(false, 3))}

	var all []*frame.EncoderFrame
	all = append(all, h.push(0, false, false)...)  // I
	all = append(all, h.push(33, false, false)...) // B (nonref)
	all = append(all, h.push(66, false, false)...) // B (ref)
	all = append(all, h.push(99, false, false)...) // P

	want := []gop.SliceType{gop.I, gop.P, gop.B, gop.B}
	got := sliceTypes(all)
	if len(got) != len(want) {
		t.Fatalf("emitted %d pictures, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("position %d: slice type = %s, want %s", i, got[i], want[i])
		}
	}

	if all[0].GopFrameNum != 0 || all[0].IDRPicID != 1 {
		t.Errorf("I picture: gop_frame_num=%d idr_pic_id=%d, want 0,1", all[0].GopFrameNum, all[0].IDRPicID)
	}
	if all[1].GopFrameNum != 1 {
		t.Errorf("P picture: gop_frame_num=%d, want 1", all[1].GopFrameNum)
	}
}

func TestForcedKeyFrameDrainsOldGOPBeforeNewOne(t *testing.T) {
	h := &harness{r: New(planState(false, 3))}

	var all []*frame.EncoderFrame
	all = append(all, h.push(0, false, false)...)  // I
	all = append(all, h.push(33, false, false)...) // B (nonref, stalled)

	// A force-key-frame request arrives mid-GOP (position 2): the new
	// picture is cached at the tail as a fresh IDR rather than taking over
	// position 2, so the old GOP's stalled B drains first and only then
	// does the new IDR begin.
	forced := h.push(66, true, false)
	if len(forced) != 2 {
		t.Fatalf("forced push emitted %d pictures, want 2 (stalled B, then the new IDR): %v", len(forced), sliceTypes(forced))
	}
	if forced[0].SliceType() != gop.B {
		t.Errorf("first picture drained by the forced push = %s, want B (old GOP's leftover)", forced[0].SliceType())
	}
	if !forced[1].ForceIDR {
		t.Error("second picture drained by the forced push should be the new IDR")
	}
	all = append(all, forced...)

	if h.r.Len() != 0 {
		t.Errorf("ReorderList length = %d, want 0", h.r.Len())
	}
	if len(all) != 3 {
		t.Fatalf("total emitted = %d, want 3: %v", len(all), sliceTypes(all))
	}
}

func TestEndOfStreamPromotesTrailingBToReferenceP(t *testing.T) {
	h := &harness{r: New(planState(false, 3))}

	h.push(0, false, false)  // I
	h.push(33, false, false) // B (nonref, stalled)
	out := h.push(66, false, true)

	// The B pushed with last=true is promoted to a reference P, so it
	// should itself be immediately emittable, and nothing should be left
	// stalled in the ReorderList.
	if h.r.Len() != 0 {
		t.Errorf("ReorderList length = %d, want 0 after end-of-stream push", h.r.Len())
	}
	var sawPromotedP bool
	for _, f := range out {
		if f.SliceType() == gop.P && f.IsRef() {
			sawPromotedP = true
		}
	}
	if !sawPromotedP {
		t.Errorf("expected a promoted reference P among %v", sliceTypes(out))
	}
}
