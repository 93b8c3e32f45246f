/*
DESCRIPTION
  nal.go implements NAL unit encapsulation for the encoder core: start-code
  prefixing, emulation-prevention byte insertion adapted from the NAL
  type/length handling in codec/h264's extract.go and lex.go, access-unit
  delimiter synthesis, and the per-access-unit NAL ordering rules of spec
  §6.2.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package nal builds the NAL unit byte sequences the Encoder Context
// emits for each access unit: AUD, SPS, PPS, filler and slice data,
// ordered per spec §6.2 and wrapped with start codes and
// emulation-prevention bytes.
package nal

import "github.com/ausocean/h264enc/gop"

// Type identifies a nal_unit_type, following Table 7-1 of ITU-T H.264.
type Type uint8

const (
	TypeSliceNonIDR Type = 1
	TypeSliceIDR    Type = 5
	TypeSEI         Type = 6
	TypeSPS         Type = 7
	TypePPS         Type = 8
	TypeAUD         Type = 9
	TypeFillerData  Type = 12
)

var startCode = []byte{0x00, 0x00, 0x00, 0x01}

// Wrap prepends a start code to payload and applies emulation-prevention
// byte insertion (escaping any 00 00 0x/1/2/3 run with a 0x03 byte per
// section 7.4.1.1), returning a single self-delimiting NAL unit.
func Wrap(nalRefIDC uint8, t Type, rbsp []byte) []byte {
	header := byte(nalRefIDC<<5) | byte(t)
	out := make([]byte, 0, len(startCode)+1+len(rbsp)+len(rbsp)/2)
	out = append(out, startCode...)
	out = append(out, header)
	out = append(out, escapeEmulation(rbsp)...)
	return out
}

// escapeEmulation inserts an emulation_prevention_three_byte (0x03) after
// every 00 00 run immediately followed by a byte <= 0x03, so that no
// sequence of three or more bytes in the encapsulated NAL unit can be
// mistaken for a start code or other reserved pattern.
func escapeEmulation(rbsp []byte) []byte {
	out := make([]byte, 0, len(rbsp)+len(rbsp)/2)
	zeros := 0
	for _, b := range rbsp {
		if zeros >= 2 && b <= 0x03 {
			out = append(out, 0x03)
			zeros = 0
		}
		out = append(out, b)
		if b == 0x00 {
			zeros++
		} else {
			zeros = 0
		}
	}
	return out
}

// primaryPicType maps a GopFrameDescriptor's slice type to the AUD's
// primary_pic_type field, per spec §6.2: {IDR,I}->0, {P}->1, {B}->2.
func primaryPicType(isIDR bool, st gop.SliceType) uint8 {
	switch {
	case isIDR || st == gop.I:
		return 0
	case st == gop.P:
		return 1
	default:
		return 2
	}
}

// AUD builds an access unit delimiter's RBSP payload: primary_pic_type
// followed by rbsp_trailing_bits.
func AUD(isIDR bool, st gop.SliceType) []byte {
	pt := primaryPicType(isIDR, st)
	// primary_pic_type is u(3); rbsp_trailing_bits is "1" then zero-pad to
	// a byte boundary, giving a fixed single-byte payload.
	return []byte{(pt << 5) | 0x10}
}

// Filler builds n bytes of filler_data RBSP: n-1 bytes of 0xFF followed by
// rbsp_trailing_bits, used to pad an access unit to the backend's required
// buffer-offset granularity (spec §6.2).
func Filler(n int) []byte {
	if n <= 0 {
		return nil
	}
	out := make([]byte, n)
	for i := 0; i < n-1; i++ {
		out[i] = 0xff
	}
	out[n-1] = 0x80 // rbsp_trailing_bits: stop bit then zero padding.
	return out
}

// Unit is one (type, rbsp) pair. Assemble builds the ordered list of them
// for one access unit, per spec §6.2: IDR carries AUD->SPS->PPS->filler->slice;
// other I carries AUD->PPS->filler->slice; P/B carries AUD->slice.
// audEnabled disables the leading AUD entirely when false; sps/pps/filler
// are only included when nonzero-length.
type Unit struct {
	Type Type
	RBSP []byte
}

// Assemble builds the ordered NAL unit list for one access unit.
func Assemble(audEnabled bool, isIDR bool, st gop.SliceType, sps, pps, filler, slice []byte) []Unit {
	var units []Unit
	if audEnabled {
		units = append(units, Unit{Type: TypeAUD, RBSP: AUD(isIDR, st)})
	}
	if isIDR {
		if len(sps) > 0 {
			units = append(units, Unit{Type: TypeSPS, RBSP: sps})
		}
		if len(pps) > 0 {
			units = append(units, Unit{Type: TypePPS, RBSP: pps})
		}
	} else if st == gop.I {
		if len(pps) > 0 {
			units = append(units, Unit{Type: TypePPS, RBSP: pps})
		}
	}
	if (isIDR || st == gop.I) && len(filler) > 0 {
		units = append(units, Unit{Type: TypeFillerData, RBSP: filler})
	}
	sliceType := TypeSliceNonIDR
	if isIDR {
		sliceType = TypeSliceIDR
	}
	units = append(units, Unit{Type: sliceType, RBSP: slice})
	return units
}

// Encode wraps every unit in u with start code and emulation prevention,
// concatenating them into the final access-unit byte stream. nalRefIDC is
// 0 for non-reference slices (and AUD/filler) and nonzero (conventionally
// 3) for SPS/PPS/reference slices, per section 7.4.1.
func Encode(units []Unit, refIDCFor func(Type) uint8) []byte {
	var out []byte
	for _, u := range units {
		out = append(out, Wrap(refIDCFor(u.Type), u.Type, u.RBSP)...)
	}
	return out
}
