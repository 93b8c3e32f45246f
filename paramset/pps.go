/*
DESCRIPTION
  pps.go defines PPS, the picture parameter set builder/marshaller/parser,
  adapted from h264dec's decoder-only PPS with a Marshal counterpart added
  for the Parameter-Set Builder (spec §4.D "PPS derivation").

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package paramset

import (
	"bytes"

	"github.com/ausocean/h264enc/bits"
	"github.com/ausocean/h264enc/level"
	"github.com/pkg/errors"
)

// PPS is a picture parameter set, following section 7.3.2.2 of ITU-T
// H.264, restricted to the single-slice-group, no-redundant-picture
// subset this encoder ever emits.
type PPS struct {
	PPSID uint64
	SPSID uint64

	EntropyCodingModeCABAC bool

	NumRefIdxL0DefaultActiveMinus1 uint64
	NumRefIdxL1DefaultActiveMinus1 uint64

	WeightedPred   bool
	WeightedBipred uint8

	PicInitQPMinus26    int
	PicInitQSMinus26    int
	ChromaQPIndexOffset int

	DeblockingFilterControlPresent bool
	ConstrainedIntraPred            bool

	Transform8x8Mode bool
}

// PPSBuildParams are the inputs to BuildPPS.
type PPSBuildParams struct {
	Profile level.Profile
}

// BuildPPS derives a PPS, per spec §4.D "PPS derivation".
func BuildPPS(p PPSBuildParams) *PPS {
	return &PPS{
		PPSID: 0,
		SPSID: 0,
		EntropyCodingModeCABAC: p.Profile != level.ProfileBaseline && p.Profile != level.ProfileExtended,
		DeblockingFilterControlPresent: true,
		Transform8x8Mode:               p.Profile >= level.ProfileHigh,
	}
}

// Marshal serializes pp into RBSP bytes following section 7.3.2.2.
func (pp *PPS) Marshal() []byte {
	bw := bits.NewWriter()
	w := bits.NewFieldWriter(bw)

	w.Ue(pp.PPSID)
	w.Ue(pp.SPSID)
	w.Flag(pp.EntropyCodingModeCABAC)
	w.Flag(false) // bottom_field_pic_order_in_frame_present_flag: frame pictures only.
	w.Ue(0)       // num_slice_groups_minus1: single slice group.
	w.Ue(pp.NumRefIdxL0DefaultActiveMinus1)
	w.Ue(pp.NumRefIdxL1DefaultActiveMinus1)
	w.Flag(pp.WeightedPred)
	w.Bits(uint64(pp.WeightedBipred), 2)
	w.Se(pp.PicInitQPMinus26)
	w.Se(pp.PicInitQSMinus26)
	w.Se(pp.ChromaQPIndexOffset)
	w.Flag(pp.DeblockingFilterControlPresent)
	w.Flag(pp.ConstrainedIntraPred)
	w.Flag(false) // redundant_pic_cnt_present_flag.

	if pp.Transform8x8Mode {
		w.Flag(true)
		w.Flag(false) // pic_scaling_matrix_present_flag: flat scaling lists only.
		w.Se(pp.ChromaQPIndexOffset)
	}

	bw.AlignWithTrailingBits()
	return bw.Bytes()
}

// Parse parses a PPS RBSP, for the backend-override path of spec §4.D.
func ParsePPS(rbsp []byte) (*PPS, error) {
	br := bits.NewReader(bytes.NewReader(rbsp))
	r := bits.NewFieldReader(br)

	pp := &PPS{}
	pp.PPSID = r.Ue()
	pp.SPSID = r.Ue()
	pp.EntropyCodingModeCABAC = r.Flag()
	r.Flag() // bottom_field_pic_order_in_frame_present_flag.
	numSliceGroupsMinus1 := r.Ue()
	if numSliceGroupsMinus1 != 0 {
		return nil, errors.New("paramset: backend-overridden PPS uses multiple slice groups, unsupported")
	}
	pp.NumRefIdxL0DefaultActiveMinus1 = r.Ue()
	pp.NumRefIdxL1DefaultActiveMinus1 = r.Ue()
	pp.WeightedPred = r.Flag()
	pp.WeightedBipred = uint8(r.Bits(2))
	pp.PicInitQPMinus26 = r.Se()
	pp.PicInitQSMinus26 = r.Se()
	pp.ChromaQPIndexOffset = r.Se()
	pp.DeblockingFilterControlPresent = r.Flag()
	pp.ConstrainedIntraPred = r.Flag()
	r.Flag() // redundant_pic_cnt_present_flag.

	if bits.MoreRBSPData(br) {
		pp.Transform8x8Mode = r.Flag()
		r.Flag() // pic_scaling_matrix_present_flag.
		r.Se()   // second_chroma_qp_index_offset, ignored: this encoder keeps it equal to ChromaQPIndexOffset.
	}

	if err := r.Err(); err != nil {
		return nil, errors.Wrap(err, "paramset: parsing PPS")
	}
	return pp, nil
}
