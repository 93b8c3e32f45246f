/*
DESCRIPTION
  plan_test.go tests the GOP Planner against the concrete scenarios and
  invariants it must satisfy.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package gop

import (
	"testing"

	"github.com/ausocean/h264enc/level"
)

func sliceTypes(st *State) string {
	s := make([]byte, len(st.FrameMap))
	for i, d := range st.FrameMap {
		s[i] = d.SliceType.String()[0]
	}
	return string(s)
}

// TestPlanSmallGOPNoB covers the "small GOP, no B frames" concrete
// scenario: idr_period=4, num_bframes=0 yields an all I/P frame_map with
// the final position forced to P.
func TestPlanSmallGOPNoB(t *testing.T) {
	st, _ := Plan(Params{
		Profile:      level.ProfileMain,
		IDRPeriod:    4,
		NumBFrames:   0,
		NumRefFrames: 1,
		List0Cap:     4,
		List1Cap:     0,
	})
	if got, want := sliceTypes(st), "IPPP"; got != want {
		t.Errorf("frame map = %q, want %q", got, want)
	}
	if !st.FrameMap[0].IsRef {
		t.Error("position 0 must be a reference")
	}
	if st.FrameMap[0].SliceType != I {
		t.Error("position 0 must be I")
	}
	if !st.FrameMap[len(st.FrameMap)-1].IsRef || st.FrameMap[len(st.FrameMap)-1].SliceType != P {
		t.Error("last position must be P+ref")
	}
}

// TestPlanBPyramidOf3 covers the spec's "B-pyramid of 3" concrete
// scenario: {idr_period=8, b=3, b_pyramid=true, num_ref=4} should produce
// frame_map[1..7] slice types B,B,B,P,B,B,P, position 7 being forced to P.
func TestPlanBPyramidOf3(t *testing.T) {
	st, _ := Plan(Params{
		Profile:      level.ProfileHigh,
		IDRPeriod:    8,
		NumBFrames:   3,
		NumRefFrames: 4,
		BPyramid:     true,
		List0Cap:     4,
		List1Cap:     1,
	})
	if got, want := sliceTypes(st), "IBBBPBBP"; got != want {
		t.Errorf("frame map = %q, want %q", got, want)
	}
	// The middle B of the 1..3 run (index 2) must carry the lowest pyramid
	// level of that run.
	if st.FrameMap[2].PyramidLevel > st.FrameMap[1].PyramidLevel || st.FrameMap[2].PyramidLevel > st.FrameMap[3].PyramidLevel {
		t.Errorf("midpoint of B run does not carry the lowest level: %+v", st.FrameMap[1:4])
	}
}

// TestPlanIntraOnlyFallback covers the "no L0 capacity" degenerate case:
// every position must be I+ref, and no B/P appear.
func TestPlanIntraOnlyFallback(t *testing.T) {
	st, notices := Plan(Params{
		Profile:      level.ProfileMain,
		IDRPeriod:    6,
		NumBFrames:   2,
		NumRefFrames: 2,
		List0Cap:     0,
	})
	if !st.IntraOnly {
		t.Fatal("expected IntraOnly state")
	}
	if len(notices) == 0 {
		t.Error("expected a clamp notice for the intra-only fallback")
	}
	for i, d := range st.FrameMap {
		if d.SliceType != I || !d.IsRef {
			t.Errorf("frame_map[%d] = %+v, want I+ref", i, d)
		}
	}
}

// TestPlanP1Invariants checks invariant P1 across a spread of
// configurations: position 0 is always I+ref, the last position is P+ref
// iff idr_period>1 && ip_period>0, and every B carries a level within
// [0, highest_pyramid_level].
func TestPlanP1Invariants(t *testing.T) {
	cases := []Params{
		{Profile: level.ProfileMain, IDRPeriod: 8, NumBFrames: 0, NumRefFrames: 2, List0Cap: 2},
		{Profile: level.ProfileHigh, IDRPeriod: 16, NumBFrames: 3, NumRefFrames: 4, List0Cap: 4, List1Cap: 1},
		{Profile: level.ProfileHigh, IDRPeriod: 12, NumBFrames: 2, NumRefFrames: 3, BPyramid: true, List0Cap: 3, List1Cap: 1},
		{Profile: level.ProfileMain, IDRPeriod: 1, NumRefFrames: 1, List0Cap: 1},
	}
	for i, p := range cases {
		st, _ := Plan(p)
		if st.IntraOnly {
			continue
		}
		if st.FrameMap[0].SliceType != I || !st.FrameMap[0].IsRef {
			t.Errorf("case %d: position 0 = %+v, want I+ref", i, st.FrameMap[0])
		}
		last := st.FrameMap[len(st.FrameMap)-1]
		wantP := st.IDRPeriod > 1 && st.IPPeriod > 0
		if wantP && (last.SliceType != P || !last.IsRef) {
			t.Errorf("case %d: last position = %+v, want P+ref", i, last)
		}
		for j, d := range st.FrameMap {
			if d.SliceType == B && (d.PyramidLevel < 0 || d.PyramidLevel > st.HighestPyramidLevel) {
				t.Errorf("case %d: frame_map[%d] pyramid level %d out of [0,%d]", i, j, d.PyramidLevel, st.HighestPyramidLevel)
			}
		}
	}
}

// TestAssignPyramidP2 checks invariant P2: the recursion covers
// [lo,hi) exactly once with no duplicates, and the midpoint carries the
// smallest level in the range.
func TestAssignPyramidP2(t *testing.T) {
	for _, n := range []int{1, 2, 3, 5, 7, 8, 15} {
		fm := make([]Descriptor, n)
		assignPyramid(fm, 0, n, 0, 1<<30)
		mid := n / 2
		for i, d := range fm {
			if i == mid {
				continue
			}
			if d.PyramidLevel < fm[mid].PyramidLevel {
				t.Errorf("n=%d: index %d has level %d < midpoint level %d", n, i, d.PyramidLevel, fm[mid].PyramidLevel)
			}
		}
	}
}
