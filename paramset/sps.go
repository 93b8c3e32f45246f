/*
DESCRIPTION
  sps.go defines SPS, the sequence parameter set builder/marshaller/parser
  for the Parameter-Set Builder (spec §4.D). Field shapes are adapted from
  h264dec's decoder-only SPS, extended with a Marshal counterpart so the
  same struct serves both directions of the override protocol.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package paramset implements the Parameter-Set Builder: SPS/PPS/VUI
// derivation from a negotiated profile/level and the GOP Planner's
// GopState, marshalling to RBSP bytes, parsing a backend-overridden blob
// back into Go structures, and the profile/level negotiation and
// level-fit search of spec §4.D.
package paramset

import (
	"bytes"

	"github.com/ausocean/h264enc/bits"
	"github.com/ausocean/h264enc/gop"
	"github.com/ausocean/h264enc/level"
	"github.com/pkg/errors"
)

// subWidthC and subHeightC are the chroma-format-idc indexed
// SubWidthC/SubHeightC tables used for frame cropping, per spec §4.D.
var subWidthC = [4]int{1, 2, 2, 1}
var subHeightC = [4]int{1, 2, 1, 1}

// SPS is a sequence parameter set, covering the fields this encoder base
// ever needs to set or read back (scaling-list syntax, which this encoder
// never emits, is intentionally absent).
type SPS struct {
	ProfileIDC  uint8
	Constraint0 bool
	Constraint1 bool
	Constraint2 bool
	Constraint3 bool
	Constraint4 bool
	Constraint5 bool
	LevelIDC    uint8

	SPSID uint64

	ChromaFormatIDC      uint64
	BitDepthLumaMinus8   uint64
	BitDepthChromaMinus8 uint64

	Log2MaxFrameNumMinus4     uint64
	PicOrderCntType           uint64
	Log2MaxPicOrderCntLSBMin4 uint64

	MaxNumRefFrames  uint64
	FrameMBSOnly     bool
	Direct8x8Inference bool

	PicWidthInMBSMinus1      uint64
	PicHeightInMapUnitsMinus1 uint64

	FrameCroppingFlag     bool
	FrameCropLeftOffset   uint64
	FrameCropRightOffset  uint64
	FrameCropTopOffset    uint64
	FrameCropBottomOffset uint64

	VUIParametersPresent bool
	VUI                  *VUIParameters
}

// BuildParams are the inputs to Build, gathered from the negotiated
// ProfileSpec, the input picture geometry, and the GOP Planner's State.
type BuildParams struct {
	Profile level.Profile
	Level   level.Level

	Width, Height int

	ChromaFormatIDC      uint64 // 1 = 4:2:0, 2 = 4:2:2, 3 = 4:4:4.
	BitDepthLumaMinus8   uint64
	BitDepthChromaMinus8 uint64

	FrameRateNum, FrameRateDen uint32

	GOP *gop.State
}

// Build derives an SPS from p, per spec §4.D "SPS derivation".
func Build(p BuildParams) *SPS {
	s := &SPS{
		ProfileIDC: p.Profile.IDC(),
		LevelIDC:   p.Level.IDC(),

		SPSID: 0,

		ChromaFormatIDC:      p.ChromaFormatIDC,
		BitDepthLumaMinus8:   clip6(p.BitDepthLumaMinus8),
		BitDepthChromaMinus8: clip6(p.BitDepthChromaMinus8),

		Log2MaxFrameNumMinus4:     uint64(p.GOP.Log2MaxFrameNum - 4),
		PicOrderCntType:           0,
		Log2MaxPicOrderCntLSBMin4: uint64(p.GOP.Log2MaxPicOrderCntLSB - 4),

		MaxNumRefFrames: uint64(p.GOP.MaxNumRefFrames),
		FrameMBSOnly:    true,

		PicWidthInMBSMinus1:       uint64((p.Width+15)/16 - 1),
		PicHeightInMapUnitsMinus1: uint64((p.Height+15)/16 - 1),
	}

	if p.Level == level.Level1b && (p.Profile == level.ProfileBaseline || p.Profile == level.ProfileMain) {
		s.Constraint3 = true
	}
	if p.Profile != level.ProfileBaseline {
		s.Direct8x8Inference = true
	}

	cw := ((p.Width + 15) / 16) * 16
	ch := ((p.Height + 15) / 16) * 16
	if cw != p.Width || ch != p.Height {
		s.FrameCroppingFlag = true
		sw := subWidthC[p.ChromaFormatIDC]
		sh := subHeightC[p.ChromaFormatIDC]
		s.FrameCropRightOffset = uint64((cw - p.Width) / sw)
		s.FrameCropBottomOffset = uint64((ch - p.Height) / sh)
	}

	s.VUIParametersPresent = true
	s.VUI = buildVUI(p)

	return s
}

func clip6(v uint64) uint64 {
	if v > 6 {
		return 6
	}
	return v
}

// Marshal serializes s into RBSP bytes following section 7.3.2.1.1 of
// ITU-T H.264.
func (s *SPS) Marshal() []byte {
	bw := bits.NewWriter()
	w := bits.NewFieldWriter(bw)

	w.Bits(uint64(s.ProfileIDC), 8)
	w.Flag(s.Constraint0)
	w.Flag(s.Constraint1)
	w.Flag(s.Constraint2)
	w.Flag(s.Constraint3)
	w.Flag(s.Constraint4)
	w.Flag(s.Constraint5)
	w.Bits(0, 2) // Reserved.
	w.Bits(uint64(s.LevelIDC), 8)
	w.Ue(s.SPSID)
	w.Ue(s.ChromaFormatIDC)
	w.Ue(s.BitDepthLumaMinus8)
	w.Ue(s.BitDepthChromaMinus8)
	w.Flag(false) // qpprime_y_zero_transform_bypass_flag.
	w.Flag(false) // seq_scaling_matrix_present_flag: this encoder emits flat scaling lists.
	w.Ue(s.Log2MaxFrameNumMinus4)
	w.Ue(s.PicOrderCntType)
	w.Ue(s.Log2MaxPicOrderCntLSBMin4)
	w.Ue(s.MaxNumRefFrames)
	w.Flag(false) // gaps_in_frame_num_value_allowed_flag.
	w.Ue(s.PicWidthInMBSMinus1)
	w.Ue(s.PicHeightInMapUnitsMinus1)
	w.Flag(s.FrameMBSOnly)
	w.Flag(s.Direct8x8Inference)
	w.Flag(s.FrameCroppingFlag)
	if s.FrameCroppingFlag {
		w.Ue(s.FrameCropLeftOffset)
		w.Ue(s.FrameCropRightOffset)
		w.Ue(s.FrameCropTopOffset)
		w.Ue(s.FrameCropBottomOffset)
	}
	w.Flag(s.VUIParametersPresent)
	if s.VUIParametersPresent {
		marshalVUI(w, s.VUI)
	}
	bw.AlignWithTrailingBits()
	return bw.Bytes()
}

// Parse parses an SPS RBSP, for the backend-override path of spec §4.D
// ("Override protocol"): a backend may hand back a rewritten SPS blob,
// which must be parsed back into Go structures.
func Parse(rbsp []byte) (*SPS, error) {
	br := bits.NewReader(bytes.NewReader(rbsp))
	r := bits.NewFieldReader(br)

	s := &SPS{}
	s.ProfileIDC = uint8(r.Bits(8))
	s.Constraint0 = r.Flag()
	s.Constraint1 = r.Flag()
	s.Constraint2 = r.Flag()
	s.Constraint3 = r.Flag()
	s.Constraint4 = r.Flag()
	s.Constraint5 = r.Flag()
	r.Bits(2)
	s.LevelIDC = uint8(r.Bits(8))
	s.SPSID = r.Ue()
	s.ChromaFormatIDC = r.Ue()
	s.BitDepthLumaMinus8 = r.Ue()
	s.BitDepthChromaMinus8 = r.Ue()
	r.Flag() // qpprime_y_zero_transform_bypass_flag.
	if r.Flag() {
		return nil, errors.New("paramset: backend-overridden SPS carries scaling lists, unsupported")
	}
	s.Log2MaxFrameNumMinus4 = r.Ue()
	s.PicOrderCntType = r.Ue()
	s.Log2MaxPicOrderCntLSBMin4 = r.Ue()
	s.MaxNumRefFrames = r.Ue()
	r.Flag() // gaps_in_frame_num_value_allowed_flag.
	s.PicWidthInMBSMinus1 = r.Ue()
	s.PicHeightInMapUnitsMinus1 = r.Ue()
	s.FrameMBSOnly = r.Flag()
	s.Direct8x8Inference = r.Flag()
	s.FrameCroppingFlag = r.Flag()
	if s.FrameCroppingFlag {
		s.FrameCropLeftOffset = r.Ue()
		s.FrameCropRightOffset = r.Ue()
		s.FrameCropTopOffset = r.Ue()
		s.FrameCropBottomOffset = r.Ue()
	}
	s.VUIParametersPresent = r.Flag()
	if s.VUIParametersPresent {
		vui, err := parseVUI(r)
		if err != nil {
			return nil, errors.Wrap(err, "paramset: parsing VUI")
		}
		s.VUI = vui
	}
	if err := r.Err(); err != nil {
		return nil, errors.Wrap(err, "paramset: parsing SPS")
	}
	return s, nil
}
