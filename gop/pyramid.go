/*
DESCRIPTION
  pyramid.go implements step 10 of the GOP Planner's algorithm: recursive
  assignment of temporal pyramid depth and reference POC deltas to a
  maximal run of consecutive B positions.

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

// assignPyramid assigns B slice type, pyramid level and reference POC
// deltas to every position in frameMap[start:end], recursively splitting
// the run in half around its midpoint: the midpoint becomes the
// shallowest (most-referenced) B of the run, and each half recurses at
// level+1, until level reaches levelCap or the run can no longer be
// split.
//
// start and end are logical frame_map indices; the POC deltas written at
// the recursion base case assume POC strides by 2 per logical position,
// matching the encoder's fixed IDR/non-IDR POC spacing.
func assignPyramid(frameMap []Descriptor, start, end, level, levelCap int) {
	n := end - start
	if n <= 0 {
		return
	}
	if n == 1 || level >= levelCap {
		assignPyramidRun(frameMap, start, end, level)
		return
	}
	mid := start + n/2
	frameMap[mid] = Descriptor{
		SliceType:       B,
		IsRef:           true,
		PyramidLevel:    level,
		LeftRefPOCDiff:  -2 * (mid - start + 1),
		RightRefPOCDiff: 2 * (end - mid),
	}
	assignPyramid(frameMap, start, mid, level+1, levelCap)
	assignPyramid(frameMap, mid+1, end, level+1, levelCap)
}

// assignPyramidRun handles the base case: a run too short to split
// further, or one that has hit levelCap. Every position in the run is
// assigned sequentially as a non-reference B predicting from the nearest
// already-placed anchors to either side.
func assignPyramidRun(frameMap []Descriptor, start, end, level int) {
	for i := start; i < end; i++ {
		frameMap[i] = Descriptor{
			SliceType:       B,
			IsRef:           false,
			PyramidLevel:    level,
			LeftRefPOCDiff:  -2 * (i - start + 1),
			RightRefPOCDiff: 2 * (end - i),
		}
	}
}
