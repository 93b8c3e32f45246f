/*
DESCRIPTION
  plan.go implements Plan, the GOP Planner's single entry point: the
  clamping and list-partitioning arithmetic of spec §4.A steps 1-8 and
  11-12, and the frame_map construction of step 9, which delegates pyramid
  depth assignment to the recursive split in pyramid.go (step 10).

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

import "github.com/ausocean/h264enc/level"

// dpbSafetyBound is the "level + 3 == 16" ceiling step 8 grows the
// b-pyramid's highest level toward; it exists because the DPB reference
// picture index space needs room for the pyramid depth plus a small
// working margin.
const dpbSafetyBound = 16

// Params are the caller-supplied inputs to Plan, corresponding to spec
// §3's GopState inputs and §6.1's configuration surface.
type Params struct {
	Profile level.Profile

	// IDRPeriod is the max frames between two IDRs; 0 means "derive from
	// framerate".
	IDRPeriod uint32

	NumBFrames   int
	NumIFrames   int
	NumRefFrames int
	BPyramid     bool

	FrameRateNum uint32
	FrameRateDen uint32

	// List0Cap and List1Cap are the accelerator-advertised maximum L0/L1
	// reference-list sizes.
	List0Cap int
	List1Cap int
}

// Plan derives a finalized State from p, following spec §4.A steps 1-12.
// It never fails: every input is clamped into a consistent, if degenerate,
// GOP structure. Notices record every clamp so the caller can log them.
func Plan(p Params) (*State, []Notice) {
	var notices []Notice
	note := func(msg string) { notices = append(notices, Notice{Message: msg}) }

	// Step 1: Baseline profile cannot carry B slices.
	if p.Profile == level.ProfileBaseline && p.NumBFrames != 0 {
		note("baseline profile: forcing num_bframes to 0")
		p.NumBFrames = 0
	}

	// Step 2: idr_period == 0 means "derive from framerate".
	idrPeriod := p.IDRPeriod
	if idrPeriod == 0 {
		if p.FrameRateDen == 0 {
			p.FrameRateDen = 1
		}
		idrPeriod = ceilDiv(p.FrameRateNum, p.FrameRateDen)
		if idrPeriod == 0 {
			idrPeriod = 1
		}
	}

	// Step 3: clamp num_bframes by GOP length.
	numBFrames := p.NumBFrames
	var maxB int
	if idrPeriod <= 8 {
		maxB = int(idrPeriod) - 2
	} else {
		maxB = (int(idrPeriod) - 1) / 2
	}
	if maxB < 0 {
		maxB = 0
	}
	if numBFrames > maxB {
		note("clamping num_bframes to fit idr_period")
		numBFrames = maxB
	}

	// Step 4: clamp list0/list1 to num_ref_frames; intra-only fallback.
	list0Cap := p.List0Cap
	list1Cap := p.List1Cap
	if list0Cap > p.NumRefFrames {
		list0Cap = p.NumRefFrames
	}
	if list1Cap > p.NumRefFrames {
		list1Cap = p.NumRefFrames
	}
	if list0Cap == 0 {
		return intraOnlyState(idrPeriod), append(notices, Notice{Message: "no L0 capacity: falling back to intra-only"})
	}

	// Step 5: disable B entirely if there's no room for a second reference.
	if p.NumRefFrames <= 1 || list1Cap == 0 {
		if numBFrames != 0 {
			note("disabling B frames: insufficient reference capacity")
		}
		numBFrames = 0
		list1Cap = 0
	}

	// Step 6: b-pyramid uses a single backward anchor.
	if p.BPyramid && list1Cap > 1 {
		list1Cap = 1
	}

	ipPeriod := numBFrames + 1

	// Step 7: gop_ref_num, incremented when the GOP's tail position is
	// naturally a P (i.e. not interrupted mid-B-run).
	gopRefNum := (int(idrPeriod) + numBFrames) / ipPeriod
	if ipPeriod > 0 && (int(idrPeriod)-1)%ipPeriod == 0 {
		gopRefNum++
	}

	// Step 8: partition references between L0 and L1.
	refNumList0, refNumList1, highestLevel := partitionRefs(numBFrames, p.NumRefFrames, list0Cap, list1Cap, p.BPyramid, gopRefNum)

	// Step 11: log2 field derivation.
	log2MaxFrameNum := 4
	for (uint32(1) << uint(log2MaxFrameNum)) <= idrPeriod {
		log2MaxFrameNum++
	}
	log2MaxPocLsb := log2MaxFrameNum + 1

	st := &State{
		IDRPeriod:             idrPeriod,
		NumBFrames:            numBFrames,
		NumIFrames:            p.NumIFrames,
		NumRefFrames:          p.NumRefFrames,
		BPyramid:              p.BPyramid,
		IPPeriod:              ipPeriod,
		HighestPyramidLevel:   highestLevel,
		RefNumList0:           refNumList0,
		RefNumList1:           refNumList1,
		Log2MaxFrameNum:       log2MaxFrameNum,
		Log2MaxPicOrderCntLSB: log2MaxPocLsb,
		MaxFrameNum:           uint32(1) << uint(log2MaxFrameNum),
		MaxPicOrderCnt:        uint32(1) << uint(log2MaxPocLsb),
	}

	// Step 9/10: build the frame map.
	st.IPeriod = intraCadence(idrPeriod, p.NumIFrames)
	st.FrameMap = buildFrameMap(idrPeriod, ipPeriod, st.IPeriod, p.NumIFrames, highestLevel, p.BPyramid)

	// Step 12: num_reorder_frames / max_dec_frame_buffering / max_num_ref_frames.
	st.NumReorderFrames, st.MaxDecFrameBuffering, st.MaxNumRefFrames = dpbSizing(st)

	return st, notices
}

// intraOnlyState builds the degenerate GopState for the list0_cap == 0
// fallback (step 4): no references at all, every non-IDR position is I.
func intraOnlyState(idrPeriod uint32) *State {
	log2MaxFrameNum := 4
	for (uint32(1) << uint(log2MaxFrameNum)) <= idrPeriod {
		log2MaxFrameNum++
	}
	// "increment once more in intra-only mode".
	log2MaxPocLsb := log2MaxFrameNum + 1 + 1

	frameMap := make([]Descriptor, idrPeriod)
	for i := range frameMap {
		frameMap[i] = Descriptor{SliceType: I, IsRef: true}
	}

	return &State{
		IDRPeriod:             idrPeriod,
		IntraOnly:             true,
		IPPeriod:              0,
		Log2MaxFrameNum:       log2MaxFrameNum,
		Log2MaxPicOrderCntLSB: log2MaxPocLsb,
		MaxFrameNum:           uint32(1) << uint(log2MaxFrameNum),
		MaxPicOrderCnt:        uint32(1) << uint(log2MaxPocLsb),
		NumReorderFrames:      0,
		MaxDecFrameBuffering:  2,
		MaxNumRefFrames:       0,
		FrameMap:              frameMap,
	}
}

// partitionRefs implements step 8.
func partitionRefs(numBFrames, numRefFrames, list0Cap, list1Cap int, bPyramid bool, gopRefNum int) (refNumList0, refNumList1, highestLevel int) {
	switch {
	case numBFrames == 0:
		return numRefFrames, 0, 0

	case bPyramid:
		refNumList1 = 1
		refNumList0 = numRefFrames - 1
		if refNumList0 > list0Cap {
			refNumList0 = list0Cap
		}
		level := 0
		remaining := numBFrames / 2
		for remaining > 0 && level+3 < dpbSafetyBound {
			level++
			remaining /= 2
		}
		return refNumList0, refNumList1, level

	default: // Plain B.
		refNumList1 = 1
		refNumList0 = numRefFrames - refNumList1
		for numBFrames*refNumList1 <= 16 &&
			refNumList1 <= gopRefNum &&
			refNumList1 < list1Cap &&
			refNumList0/refNumList1 > 4 {
			refNumList0--
			refNumList1++
		}
		// Plain-B pyramid depth is uncapped: the recursion only stops when
		// a run can no longer be split, so report the depth the longest
		// (num_bframes-long) run actually reaches.
		return refNumList0, refNumList1, pyramidDepth(numBFrames)
	}
}

// pyramidDepth returns the recursion depth reached when splitting a run of
// n B pictures in half repeatedly until each side has length 1.
func pyramidDepth(n int) int {
	depth := 0
	for n > 1 {
		n /= 2
		depth++
	}
	return depth
}

// intraCadence derives i_period, the spacing between extra I insertions.
func intraCadence(idrPeriod uint32, numIFrames int) int {
	if numIFrames <= 0 {
		return int(idrPeriod)
	}
	period := int(idrPeriod) / (numIFrames + 1)
	if period <= 0 {
		period = 1
	}
	return period
}

// buildFrameMap implements step 9, delegating pyramid-level assignment
// for each maximal run of B positions to assignPyramid (step 10).
func buildFrameMap(idrPeriod uint32, ipPeriod, iPeriod, numIFrames, highestLevel int, bPyramid bool) []Descriptor {
	n := int(idrPeriod)
	frameMap := make([]Descriptor, n)
	frameMap[0] = Descriptor{SliceType: I, IsRef: true}

	iFramesRemaining := numIFrames
	runStart := -1

	flush := func(end int) {
		if runStart < 0 {
			return
		}
		lMax := highestLevel
		if !bPyramid {
			lMax = 1 << 30 // Uncapped: recursion alone bottoms out at len 1.
		}
		assignPyramid(frameMap, runStart, end, 0, lMax)
		runStart = -1
	}

	for i := 1; i < n; i++ {
		if ipPeriod > 1 && i%ipPeriod != 0 {
			if runStart < 0 {
				runStart = i
			}
			continue
		}
		flush(i)
		if iPeriod > 0 && i%iPeriod == 0 && iFramesRemaining > 0 {
			frameMap[i] = Descriptor{SliceType: I, IsRef: true}
			iFramesRemaining--
		} else {
			frameMap[i] = Descriptor{SliceType: P, IsRef: true}
		}
	}
	flush(n)

	if idrPeriod > 1 && ipPeriod > 0 {
		frameMap[n-1] = Descriptor{SliceType: P, IsRef: true}
	}

	return frameMap
}

// dpbSizing implements step 12. The exact formulas aren't pinned down by
// the standard text the spec cites; this follows the common convention
// (also used by x264/ffmpeg style encoders) of deriving both buffering
// bounds from the pyramid depth, clamped to 16. See DESIGN.md.
func dpbSizing(st *State) (numReorderFrames, maxDecFrameBuffering, maxNumRefFrames int) {
	switch {
	case st.NumBFrames == 0:
		numReorderFrames = 0
	case st.BPyramid:
		numReorderFrames = st.HighestPyramidLevel + 1
	default:
		numReorderFrames = 1
	}

	maxDecFrameBuffering = st.NumRefFrames
	if numReorderFrames > maxDecFrameBuffering {
		maxDecFrameBuffering = numReorderFrames
	}
	maxDecFrameBuffering++ // Room for the picture currently being encoded.

	maxNumRefFrames = st.RefNumList0 + st.RefNumList1
	if st.NumRefFrames > maxNumRefFrames {
		maxNumRefFrames = st.NumRefFrames
	}

	if numReorderFrames > 16 {
		numReorderFrames = 16
	}
	if maxDecFrameBuffering > 16 {
		maxDecFrameBuffering = 16
	}
	if maxNumRefFrames > 16 {
		maxNumRefFrames = 16
	}
	return numReorderFrames, maxDecFrameBuffering, maxNumRefFrames
}

func ceilDiv(a, b uint32) uint32 {
	if b == 0 {
		return a
	}
	return (a + b - 1) / b
}
