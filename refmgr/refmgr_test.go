/*
DESCRIPTION
  refmgr_test.go tests L0/L1 construction, list modification emission and
  victim selection.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package refmgr

import (
	"testing"

	"github.com/ausocean/h264enc/frame"
	"github.com/ausocean/h264enc/gop"
)

func mkRef(poc uint32, gopFrameNum uint32) *frame.EncoderFrame {
	return &frame.EncoderFrame{
		GopType:     gop.Descriptor{SliceType: gop.P, IsRef: true},
		POC:         poc,
		GopFrameNum: gopFrameNum,
	}
}

func TestBuildListsSortsAndTruncates(t *testing.T) {
	m := &Manager{RefNumList0: 2, RefNumList1: 1}
	refs := []*frame.EncoderFrame{
		mkRef(0, 0),
		mkRef(2, 1),
		mkRef(4, 2),
		mkRef(8, 3),
	}
	f := &frame.EncoderFrame{GopType: gop.Descriptor{SliceType: gop.B}, POC: 6, UnusedForReferencePicNum: -1}

	lists := m.BuildLists(f, refs)
	if len(lists.L0) != 2 || lists.L0[0].POC != 4 || lists.L0[1].POC != 2 {
		t.Errorf("L0 = %+v, want [poc=4, poc=2]", lists.L0)
	}
	if len(lists.L1) != 1 || lists.L1[0].POC != 8 {
		t.Errorf("L1 = %+v, want [poc=8]", lists.L1)
	}
}

func TestBuildListsISliceEmpty(t *testing.T) {
	m := &Manager{RefNumList0: 2, RefNumList1: 1}
	refs := []*frame.EncoderFrame{mkRef(0, 0)}
	f := &frame.EncoderFrame{GopType: gop.Descriptor{SliceType: gop.I}, POC: 0, UnusedForReferencePicNum: -1}
	lists := m.BuildLists(f, refs)
	if len(lists.L0) != 0 || len(lists.L1) != 0 {
		t.Errorf("expected empty lists for an I slice, got %+v", lists)
	}
}

func TestSelectVictimNotBPyramid(t *testing.T) {
	m := &Manager{MaxDecFrameBuffering: 3, BPyramid: false}
	refs := []*frame.EncoderFrame{mkRef(0, 0), mkRef(2, 1)}
	f := &frame.EncoderFrame{GopType: gop.Descriptor{SliceType: gop.P, IsRef: true}, POC: 4}
	victim, unused := m.SelectVictim(f, refs)
	if victim != 0 || unused != 0 {
		t.Errorf("SelectVictim() = (%d, %d), want (0, 0)", victim, unused)
	}
}

func TestSelectVictimBPyramidPrefersLowestPOC(t *testing.T) {
	m := &Manager{MaxDecFrameBuffering: 3, BPyramid: true}
	refs := []*frame.EncoderFrame{mkRef(4, 0), mkRef(0, 1), mkRef(2, 2)}
	f := &frame.EncoderFrame{GopType: gop.Descriptor{SliceType: gop.B, IsRef: true}, POC: 6}
	victim, unused := m.SelectVictim(f, refs)
	if victim != 1 {
		t.Fatalf("SelectVictim() victim index = %d, want 1 (lowest POC)", victim)
	}
	if unused != refs[1].GopFrameNum {
		t.Errorf("SelectVictim() unusedFrameNum = %d, want %d", unused, refs[1].GopFrameNum)
	}
}

func TestSelectVictimNoEvictionNeeded(t *testing.T) {
	m := &Manager{MaxDecFrameBuffering: 5, BPyramid: true}
	refs := []*frame.EncoderFrame{mkRef(0, 0)}
	f := &frame.EncoderFrame{GopType: gop.Descriptor{SliceType: gop.P, IsRef: true}, POC: 2}
	victim, _ := m.SelectVictim(f, refs)
	if victim != -1 {
		t.Errorf("SelectVictim() = %d, want -1 (no eviction needed)", victim)
	}
}
