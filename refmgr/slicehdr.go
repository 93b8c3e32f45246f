/*
DESCRIPTION
  slicehdr.go assembles the design-level SliceHeader described in spec
  §4.C "Slice-header synthesis": the per-encode syntax summary handed to
  the backend driver with each EncodeFrame call.

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
	"github.com/ausocean/h264enc/frame"
	"github.com/ausocean/h264enc/gop"
)

// MMCOOp is a single decoded reference picture marking operation.
type MMCOOp struct {
	// Op is the memory_management_control_operation value; this encoder
	// only ever emits op 1 (mark a short-term reference as "unused for
	// reference").
	Op                       int
	DifferenceOfPicNumsMinus1 uint32
}

// SliceHeader is the design-level per-encode slice header summary of spec
// §4.C.
type SliceHeader struct {
	FirstMB   int
	SliceType gop.SliceType
	PPSID     int
	FrameNum  uint32
	FieldFlag bool

	IDRPicID    uint32
	HasIDRPicID bool

	PicOrderCntLSB uint32

	DirectSpatialMVPredFlag bool

	NumRefIdxActiveOverrideFlag bool
	NumRefIdxL0ActiveMinus1     int
	NumRefIdxL1ActiveMinus1     int

	L0Mods []ModOp
	L1Mods []ModOp

	MMCO []MMCOOp

	// DeblockAlphaC0Offsetdiv2 and DeblockBetaOffsetDiv2 are fixed at 2 per
	// spec §4.C.
	DeblockAlphaC0OffsetDiv2 int
	DeblockBetaOffsetDiv2    int
}

// BuildSliceHeader assembles a SliceHeader for f, given the L0/L1 lists
// already constructed for it and the maxFrameNum used to detect
// out-of-frame-num-order lists. f.UnusedForReferencePicNum, if set by the
// Reference Manager's victim selection, becomes the slice's MMCO-1
// marking.
func BuildSliceHeader(f *frame.EncoderFrame, ppsID int, lists Lists, maxFrameNum uint32) SliceHeader {
	h := SliceHeader{
		FirstMB:                  0,
		SliceType:                f.SliceType(),
		PPSID:                    ppsID,
		FrameNum:                 f.GopFrameNum,
		FieldFlag:                false,
		PicOrderCntLSB:           f.POC,
		DirectSpatialMVPredFlag:  f.SliceType() == gop.B,
		DeblockAlphaC0OffsetDiv2: 2,
		DeblockBetaOffsetDiv2:    2,
	}
	if f.GopFrameNum == 0 {
		h.HasIDRPicID = true
		h.IDRPicID = f.IDRPicID
	}

	h.L0Mods = ModificationsFor(lists.L0, maxFrameNum)
	h.L1Mods = ModificationsFor(lists.L1, maxFrameNum)

	if len(lists.L0) > 0 {
		h.NumRefIdxActiveOverrideFlag = true
		h.NumRefIdxL0ActiveMinus1 = len(lists.L0) - 1
	}
	if len(lists.L1) > 0 {
		h.NumRefIdxActiveOverrideFlag = true
		h.NumRefIdxL1ActiveMinus1 = len(lists.L1) - 1
	}

	if f.UnusedForReferencePicNum >= 0 {
		h.MMCO = append(h.MMCO, MMCOOp{
			Op:                        1,
			DifferenceOfPicNumsMinus1: f.GopFrameNum - uint32(f.UnusedForReferencePicNum) - 1,
		})
	}

	return h
}
