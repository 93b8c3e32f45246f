/*
DESCRIPTION
  vui.go defines VUIParameters, adapted from h264dec's decoder-only
  VUIParameters/HRDParameters into a build/marshal/parse triple serving
  the Parameter-Set Builder's SPS derivation (spec §4.D).

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>
  mrmod <mcmoranbjr@gmail.com>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package paramset

import "github.com/ausocean/h264enc/bits"

const extendedSAR = 255

// VUIParameters is the video usability information syntax structure of
// section E.1.1.
type VUIParameters struct {
	AspectRatioInfoPresent bool
	AspectRatioIDC         uint8
	SARWidth               uint32
	SARHeight              uint32

	TimingInfoPresent bool
	NumUnitsInTick    uint32
	TimeScale         uint32
	FixedFrameRate    bool

	MotionVectorsOverPicBoundaries bool
	Log2MaxMVLengthHorizontal      uint64
	Log2MaxMVLengthVertical        uint64
	MaxNumReorderFrames            uint64
	MaxDecFrameBuffering           uint64

	PicStructPresent bool
}

// buildVUI derives the VUI block of an SPS from p and its GOP state, per
// spec §4.D "VUI" bullet.
func buildVUI(p BuildParams) *VUIParameters {
	v := &VUIParameters{
		MotionVectorsOverPicBoundaries: true,
		Log2MaxMVLengthHorizontal:      15,
		Log2MaxMVLengthVertical:        15,
		MaxNumReorderFrames:            uint64(p.GOP.NumReorderFrames),
		MaxDecFrameBuffering:           uint64(p.GOP.MaxDecFrameBuffering),
		PicStructPresent:               true,
	}

	// Pixels are assumed square (sample aspect ratio 1:1) absent any
	// caller-supplied aspect ratio hint; that is aspect_ratio_idc 1,
	// which VUI-consuming decoders already default to when the
	// flag below is left unset, so nothing further is signalled here.

	if p.FrameRateNum != 0 && p.FrameRateDen != 0 {
		v.TimingInfoPresent = true
		// num_units_in_tick/time_scale conventionally count field-rate
		// ticks (2 per frame) even though this encoder is frame-only.
		v.NumUnitsInTick = p.FrameRateDen
		v.TimeScale = p.FrameRateNum * 2
		v.FixedFrameRate = true
	}

	return v
}

func marshalVUI(w *bits.FieldWriter, v *VUIParameters) {
	w.Flag(v.AspectRatioInfoPresent)
	if v.AspectRatioInfoPresent {
		w.Bits(uint64(v.AspectRatioIDC), 8)
		if v.AspectRatioIDC == extendedSAR {
			w.Bits(uint64(v.SARWidth), 16)
			w.Bits(uint64(v.SARHeight), 16)
		}
	}
	w.Flag(false) // overscan_info_present_flag.
	w.Flag(false) // video_signal_type_present_flag.
	w.Flag(false) // chroma_loc_info_present_flag.
	w.Flag(v.TimingInfoPresent)
	if v.TimingInfoPresent {
		w.Bits(uint64(v.NumUnitsInTick), 32)
		w.Bits(uint64(v.TimeScale), 32)
		w.Flag(v.FixedFrameRate)
	}
	w.Flag(false) // nal_hrd_parameters_present_flag: no HRD conformance point signalled.
	w.Flag(false) // vcl_hrd_parameters_present_flag.
	w.Flag(v.PicStructPresent)
	w.Flag(true) // bitstream_restriction_flag.
	w.Flag(v.MotionVectorsOverPicBoundaries)
	w.Ue(0) // max_bytes_per_pic_denom: unconstrained.
	w.Ue(0) // max_bits_per_mb_denom: unconstrained.
	w.Ue(v.Log2MaxMVLengthHorizontal)
	w.Ue(v.Log2MaxMVLengthVertical)
	w.Ue(v.MaxNumReorderFrames)
	w.Ue(v.MaxDecFrameBuffering)
}

func parseVUI(r *bits.FieldReader) (*VUIParameters, error) {
	v := &VUIParameters{}
	v.AspectRatioInfoPresent = r.Flag()
	if v.AspectRatioInfoPresent {
		v.AspectRatioIDC = uint8(r.Bits(8))
		if v.AspectRatioIDC == extendedSAR {
			v.SARWidth = uint32(r.Bits(16))
			v.SARHeight = uint32(r.Bits(16))
		}
	}
	r.Flag() // overscan_info_present_flag.
	r.Flag() // video_signal_type_present_flag.
	r.Flag() // chroma_loc_info_present_flag.
	v.TimingInfoPresent = r.Flag()
	if v.TimingInfoPresent {
		v.NumUnitsInTick = uint32(r.Bits(32))
		v.TimeScale = uint32(r.Bits(32))
		v.FixedFrameRate = r.Flag()
	}
	r.Flag() // nal_hrd_parameters_present_flag.
	r.Flag() // vcl_hrd_parameters_present_flag.
	v.PicStructPresent = r.Flag()
	if r.Flag() { // bitstream_restriction_flag.
		v.MotionVectorsOverPicBoundaries = r.Flag()
		r.Ue() // max_bytes_per_pic_denom.
		r.Ue() // max_bits_per_mb_denom.
		v.Log2MaxMVLengthHorizontal = r.Ue()
		v.Log2MaxMVLengthVertical = r.Ue()
		v.MaxNumReorderFrames = r.Ue()
		v.MaxDecFrameBuffering = r.Ue()
	}
	return v, r.Err()
}
