/*
DESCRIPTION
  gop.go defines the data types produced by the GOP Planner: the slice-type/
  reference-ness/pyramid-depth plan for every logical position within a
  coded video sequence, and the derived constants the rest of the encoder
  (reorderer, reference manager, parameter-set builder) size their own state
  from.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package gop implements the GOP Planner: the pure, stateless component
// that decides, for each logical position within a coded video sequence,
// the slice type, pyramid depth and reference-ness of the picture that
// will occupy it. It holds no per-encode state; Plan is called once per
// CVS configuration and the resulting GopState is then shared read-only by
// the reorderer, reference manager and parameter-set builder.
package gop

// SliceType identifies the coding type of a picture.
type SliceType uint8

const (
	I SliceType = iota
	P
	B
)

// String returns a single-letter slice type name, as used in log output.
func (t SliceType) String() string {
	switch t {
	case I:
		return "I"
	case P:
		return "P"
	case B:
		return "B"
	default:
		return "?"
	}
}

// Descriptor is the planned role of a single logical position within a
// GOP: its slice type, whether it may serve as a future reference, its
// temporal pyramid depth, and (for B pictures) the POC deltas to the two
// temporal references it predicts from.
type Descriptor struct {
	SliceType SliceType

	// IsRef is true if this picture may be used as a reference by a later
	// picture.
	IsRef bool

	// PyramidLevel is the temporal layer depth assigned by the pyramid-info
	// recursion (step 10); 0 for I/P pictures and for the most-referenced B
	// in any run, increasing with recursion depth thereafter.
	PyramidLevel int

	// LeftRefPOCDiff and RightRefPOCDiff are the signed POC deltas (in POC
	// units, i.e. already multiplied by the fixed +2-per-position stride)
	// from this picture to its backward and forward temporal references.
	// Both are zero for I/P pictures.
	LeftRefPOCDiff  int
	RightRefPOCDiff int
}

// Notice is an informational message emitted by Plan when it silently
// clamps a caller-supplied parameter to a value the GOP structure can
// actually support.
type Notice struct {
	Message string
}

// State is the finalized, immutable plan for one CVS: the per-position
// frame map plus every constant derived from it that downstream components
// need to size their own buffers.
type State struct {
	// Echoed / clamped inputs.
	IDRPeriod    uint32
	NumBFrames   int
	NumIFrames   int
	NumRefFrames int
	BPyramid     bool

	// IntraOnly is true when the accelerator advertised no L0 capacity at
	// all; FrameMap is then all-I and most other derived fields are zero.
	IntraOnly bool

	// IPPeriod is NumBFrames+1: the spacing between consecutive I/P anchor
	// positions. Zero only in the IntraOnly case.
	IPPeriod int

	// IPeriod is the spacing, in logical positions, between extra
	// (non-IDR) I-frame insertions within the GOP.
	IPeriod int

	// HighestPyramidLevel is the deepest temporal layer the pyramid-info
	// recursion reaches for this configuration's longest B run.
	HighestPyramidLevel int

	// RefNumList0 and RefNumList1 are the number of reference pictures a
	// non-I slice's L0 and L1 lists are built from (truncated further, per
	// encode, to what's actually resident in the DPB).
	RefNumList0 int
	RefNumList1 int

	// Log2MaxFrameNum and Log2MaxPicOrderCntLSB size the frame_num and
	// pic_order_cnt_lsb syntax elements in the SPS.
	Log2MaxFrameNum       int
	Log2MaxPicOrderCntLSB int

	// MaxFrameNum and MaxPicOrderCnt are 2^Log2MaxFrameNum and
	// 2^Log2MaxPicOrderCntLSB respectively, cached for the hot frame_num/
	// POC wraparound arithmetic in the reorderer.
	MaxFrameNum       uint32
	MaxPicOrderCnt    uint32
	NumReorderFrames     int
	MaxDecFrameBuffering int
	MaxNumRefFrames      int

	// FrameMap holds exactly IDRPeriod descriptors, one per logical
	// position 0..IDRPeriod-1 within a CVS.
	FrameMap []Descriptor
}
