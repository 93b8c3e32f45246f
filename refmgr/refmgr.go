/*
DESCRIPTION
  refmgr.go implements the Reference Manager's per-encode contract (spec
  §4.C): L0/L1 construction, ref_pic_list_modification emission, and DPB
  victim selection for eviction when the reference list is full.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package refmgr implements the Reference Manager: L0/L1 reference list
// construction, list-modification emission, DPB eviction policy and
// slice-header synthesis.
package refmgr

import (
	"sort"

	"github.com/ausocean/h264enc/frame"
	"github.com/ausocean/h264enc/gop"
)

// Manager holds the reference-list sizing derived by the GOP Planner and
// applies it per encode.
type Manager struct {
	RefNumList0 int
	RefNumList1 int

	// MaxDecFrameBuffering bounds RefList's resident size (spec invariant
	// P4/I2): |RefList| + (1 if encoding a ref) <= MaxDecFrameBuffering.
	MaxDecFrameBuffering int

	BPyramid bool
}

// Lists are the L0/L1 reference lists built for a single encode.
type Lists struct {
	L0 []*frame.EncoderFrame
	L1 []*frame.EncoderFrame
}

// BuildLists constructs L0 and L1 for f from the current RefList contents,
// per spec §4.C step 1. I slices get empty lists.
func (m *Manager) BuildLists(f *frame.EncoderFrame, refs []*frame.EncoderFrame) Lists {
	if f.SliceType() == gop.I {
		return Lists{}
	}

	var l0, l1 []*frame.EncoderFrame
	for _, r := range refs {
		if r.POC <= f.POC {
			l0 = append(l0, r)
		} else {
			l1 = append(l1, r)
		}
	}
	sort.Slice(l0, func(i, j int) bool { return l0[i].POC > l0[j].POC })
	sort.Slice(l1, func(i, j int) bool { return l1[i].POC < l1[j].POC })

	if len(l0) > m.RefNumList0 {
		l0 = l0[:m.RefNumList0]
	}
	if len(l1) > m.RefNumList1 {
		l1 = l1[:m.RefNumList1]
	}
	return Lists{L0: l0, L1: l1}
}

// ModOp is a single ref_pic_list_modification entry.
type ModOp struct {
	// IDC is modification_of_pic_nums_idc: 0 subtracts, 1 adds, relative to
	// the previous picture number; 3 terminates the list (implicit: callers
	// needn't append it, ModificationsFor does so only conceptually, the
	// returned slice already excludes the terminator).
	IDC               int
	AbsDiffPicNumMin1 uint32
}

// ModificationsFor returns the ref_pic_list_modification entries for list,
// built in frame-num order, whenever its POC order (the order list is
// already sorted into) differs from frame-num order — spec §4.C step 2.
func ModificationsFor(list []*frame.EncoderFrame, maxFrameNum uint32) []ModOp {
	if len(list) == 0 {
		return nil
	}
	byFrameNum := make([]*frame.EncoderFrame, len(list))
	copy(byFrameNum, list)
	sort.Slice(byFrameNum, func(i, j int) bool { return byFrameNum[i].GopFrameNum < byFrameNum[j].GopFrameNum })

	inOrder := true
	for i := range list {
		if list[i] != byFrameNum[i] {
			inOrder = false
			break
		}
	}
	if inOrder {
		return nil
	}

	var ops []ModOp
	prevPicNum := int64(list[0].GopFrameNum) // Reset relative to list[0]; see below.
	// predPicNum tracks PicNumPred per 8.2.4.3.1; here frame_num serves
	// directly as pic_num since this encoder never produces field pictures.
	predPicNum := prevPicNum
	for _, f := range list {
		picNum := int64(f.GopFrameNum)
		if picNum < predPicNum {
			diff := predPicNum - picNum
			ops = append(ops, ModOp{IDC: 0, AbsDiffPicNumMin1: uint32(diff - 1)})
		} else {
			diff := picNum - predPicNum
			ops = append(ops, ModOp{IDC: 1, AbsDiffPicNumMin1: uint32(diff - 1)})
		}
		predPicNum = picNum
	}
	return ops
}

// SelectVictim picks the DPB slot to evict when admitting f would exceed
// MaxDecFrameBuffering, per spec §4.C step 3. It returns the index into
// refs to evict, or -1 if no eviction is needed. When f is a B picture in
// B-pyramid mode, the victim is the resident reference with the lowest
// POC, whatever its slice type (B pictures are not preferred); when that
// victim isn't already the head, unusedFrameNum carries its frame_num for
// the slice header's MMCO-1 marking. Otherwise the victim is the head and
// unusedFrameNum is 0.
func (m *Manager) SelectVictim(f *frame.EncoderFrame, refs []*frame.EncoderFrame) (victim int, unusedFrameNum uint32) {
	if !f.IsRef() || len(refs) < m.MaxDecFrameBuffering-1 {
		return -1, 0
	}
	if !m.BPyramid || f.SliceType() != gop.B {
		return 0, 0 // Oldest = head, since RefList is sorted by gop_frame_num.
	}

	lowestPOC := 0
	for i, r := range refs {
		if i == 0 || r.POC < refs[lowestPOC].POC {
			lowestPOC = i
		}
	}
	if lowestPOC == 0 {
		return 0, 0
	}
	return lowestPOC, refs[lowestPOC].GopFrameNum
}
