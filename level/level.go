/*
DESCRIPTION
  level.go implements the profile/level descriptor table of spec §4.D: the
  per-level resource ceilings a negotiated stream must fit within, and the
  search that picks the lowest conformant level for a given picture size,
  frame rate, bitrate and DPB requirement.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package level implements the profile/level descriptor table and the
// profile/level negotiation and fit-search logic of spec §4.D.
package level

import "fmt"

// Profile identifies a coding profile, following Annex A of ITU-T H.264.
type Profile uint8

const (
	ProfileBaseline Profile = iota
	ProfileMain
	ProfileExtended
	ProfileHigh
	ProfileHigh10
	ProfileHigh422
	ProfileHigh444
)

// String returns the conventional profile name.
func (p Profile) String() string {
	switch p {
	case ProfileBaseline:
		return "Baseline"
	case ProfileMain:
		return "Main"
	case ProfileExtended:
		return "Extended"
	case ProfileHigh:
		return "High"
	case ProfileHigh10:
		return "High10"
	case ProfileHigh422:
		return "High422"
	case ProfileHigh444:
		return "High444Predictive"
	default:
		return fmt.Sprintf("Profile(%d)", uint8(p))
	}
}

// IDC returns the profile_idc value this Profile is signalled with in an SPS.
func (p Profile) IDC() uint8 {
	switch p {
	case ProfileBaseline:
		return 66
	case ProfileMain:
		return 77
	case ProfileExtended:
		return 88
	case ProfileHigh:
		return 100
	case ProfileHigh10:
		return 110
	case ProfileHigh422:
		return 122
	case ProfileHigh444:
		return 244
	default:
		return 0
	}
}

// Level identifies a level_idc, following Annex A Table A-1 of ITU-T H.264.
// The numeric value is level*10 (so Level30 == "3.0", Level1b == level 1b,
// stored as 9 since it sorts below Level11).
type Level uint16

const (
	Level1b Level = 9
	Level10 Level = 10
	Level11 Level = 11
	Level12 Level = 12
	Level13 Level = 13
	Level20 Level = 20
	Level21 Level = 21
	Level22 Level = 22
	Level30 Level = 30
	Level31 Level = 31
	Level32 Level = 32
	Level40 Level = 40
	Level41 Level = 41
	Level42 Level = 42
	Level50 Level = 50
	Level51 Level = 51
	Level52 Level = 52
	Level60 Level = 60
	Level61 Level = 61
	Level62 Level = 62
)

// String returns the conventional level name, e.g. "4.0" or "1b".
func (l Level) String() string {
	if l == Level1b {
		return "1b"
	}
	return fmt.Sprintf("%d.%d", l/10, l%10)
}

// IDC returns the level_idc value this Level is signalled with in an SPS.
// Level1b is signalled as level_idc 11 with constraint_set3_flag set; see
// Descriptor.ConstraintSet3.
func (l Level) IDC() uint8 {
	if l == Level1b {
		return 11
	}
	return uint8(l)
}

// Descriptor holds the per-level resource ceilings from Annex A Table A-1.
type Descriptor struct {
	Level Level

	// ConstraintSet3 is true only for Level1b, whose level_idc (11) collides
	// with Level11's; the bitstream disambiguates via constraint_set3_flag.
	ConstraintSet3 bool

	MaxMBPS        uint32 // Max macroblock processing rate, MB/s.
	MaxFS          uint32 // Max frame size, in macroblocks.
	MaxDPBMBs      uint32 // Max decoded picture buffer size, in macroblocks.
	MaxBR          uint32 // Max video bitrate, in units of 1000 bits/s (profile-factor applied separately).
	MaxCPB         uint32 // Max CPB size, in units of 1000 bits (profile-factor applied separately).
	MinCR          uint32 // Min compression ratio.
	MaxMVsPer2MB   uint32 // Max number of motion vectors per two consecutive MBs.
}

// Descriptors is the level table of Annex A Table A-1, ordered ascending.
var Descriptors = []Descriptor{
	{Level: Level10, MaxMBPS: 1485, MaxFS: 99, MaxDPBMBs: 396, MaxBR: 64, MaxCPB: 175, MinCR: 2, MaxMVsPer2MB: 0},
	{Level: Level1b, ConstraintSet3: true, MaxMBPS: 1485, MaxFS: 99, MaxDPBMBs: 396, MaxBR: 128, MaxCPB: 350, MinCR: 2, MaxMVsPer2MB: 0},
	{Level: Level11, MaxMBPS: 3000, MaxFS: 396, MaxDPBMBs: 900, MaxBR: 192, MaxCPB: 500, MinCR: 2, MaxMVsPer2MB: 0},
	{Level: Level12, MaxMBPS: 6000, MaxFS: 396, MaxDPBMBs: 2376, MaxBR: 384, MaxCPB: 1000, MinCR: 2, MaxMVsPer2MB: 0},
	{Level: Level13, MaxMBPS: 11880, MaxFS: 396, MaxDPBMBs: 2376, MaxBR: 768, MaxCPB: 2000, MinCR: 2, MaxMVsPer2MB: 0},
	{Level: Level20, MaxMBPS: 11880, MaxFS: 396, MaxDPBMBs: 2376, MaxBR: 2000, MaxCPB: 2000, MinCR: 2, MaxMVsPer2MB: 0},
	{Level: Level21, MaxMBPS: 19800, MaxFS: 792, MaxDPBMBs: 4752, MaxBR: 4000, MaxCPB: 4000, MinCR: 2, MaxMVsPer2MB: 0},
	{Level: Level22, MaxMBPS: 20250, MaxFS: 1620, MaxDPBMBs: 8100, MaxBR: 4000, MaxCPB: 4000, MinCR: 2, MaxMVsPer2MB: 0},
	{Level: Level30, MaxMBPS: 40500, MaxFS: 1620, MaxDPBMBs: 8100, MaxBR: 10000, MaxCPB: 10000, MinCR: 2, MaxMVsPer2MB: 32},
	{Level: Level31, MaxMBPS: 108000, MaxFS: 3600, MaxDPBMBs: 18000, MaxBR: 14000, MaxCPB: 14000, MinCR: 4, MaxMVsPer2MB: 16},
	{Level: Level32, MaxMBPS: 216000, MaxFS: 5120, MaxDPBMBs: 20480, MaxBR: 20000, MaxCPB: 20000, MinCR: 4, MaxMVsPer2MB: 16},
	{Level: Level40, MaxMBPS: 245760, MaxFS: 8192, MaxDPBMBs: 32768, MaxBR: 20000, MaxCPB: 25000, MinCR: 4, MaxMVsPer2MB: 16},
	{Level: Level41, MaxMBPS: 245760, MaxFS: 8192, MaxDPBMBs: 32768, MaxBR: 50000, MaxCPB: 62500, MinCR: 2, MaxMVsPer2MB: 16},
	{Level: Level42, MaxMBPS: 522240, MaxFS: 8704, MaxDPBMBs: 34816, MaxBR: 50000, MaxCPB: 62500, MinCR: 2, MaxMVsPer2MB: 16},
	{Level: Level50, MaxMBPS: 589824, MaxFS: 22080, MaxDPBMBs: 110400, MaxBR: 135000, MaxCPB: 135000, MinCR: 2, MaxMVsPer2MB: 16},
	{Level: Level51, MaxMBPS: 983040, MaxFS: 36864, MaxDPBMBs: 184320, MaxBR: 240000, MaxCPB: 240000, MinCR: 2, MaxMVsPer2MB: 16},
	{Level: Level52, MaxMBPS: 2073600, MaxFS: 36864, MaxDPBMBs: 184320, MaxBR: 240000, MaxCPB: 240000, MinCR: 2, MaxMVsPer2MB: 16},
	{Level: Level60, MaxMBPS: 4177920, MaxFS: 139264, MaxDPBMBs: 696320, MaxBR: 240000, MaxCPB: 240000, MinCR: 2, MaxMVsPer2MB: 16},
	{Level: Level61, MaxMBPS: 8355840, MaxFS: 139264, MaxDPBMBs: 696320, MaxBR: 480000, MaxCPB: 480000, MinCR: 2, MaxMVsPer2MB: 16},
	{Level: Level62, MaxMBPS: 16711680, MaxFS: 139264, MaxDPBMBs: 696320, MaxBR: 800000, MaxCPB: 800000, MinCR: 2, MaxMVsPer2MB: 16},
}

// cpbBRFactor returns the CpbBrVclFactor/CpbBrNalFactor of Annex A Table A-2
// for profile p, used to scale a Descriptor's MaxBR/MaxCPB (given in
// profile-independent units) into actual bits/s and bits.
func cpbBRFactor(p Profile) uint32 {
	switch p {
	case ProfileHigh10:
		return 3600
	case ProfileHigh422, ProfileHigh444:
		return 4800
	case ProfileHigh:
		return 1500
	default:
		return 1200
	}
}

// Find returns the Descriptor for lvl, or false if lvl isn't in the table.
func Find(lvl Level) (Descriptor, bool) {
	for _, d := range Descriptors {
		if d.Level == lvl {
			return d, true
		}
	}
	return Descriptor{}, false
}

// Requirements describes a stream's resource demands for the purpose of
// level fitting.
type Requirements struct {
	Width, Height  int
	FrameRateNum   uint32
	FrameRateDen   uint32
	BitrateBPS     uint32
	MaxDecFrameBuffering int // in frame buffers, converted to MBs internally.
}

// macroblocks returns the picture size in macroblocks, rounding each
// dimension up to the nearest multiple of 16.
func macroblocks(w, h int) uint32 {
	mbw := (w + 15) / 16
	mbh := (h + 15) / 16
	return uint32(mbw * mbh)
}

// Fit returns the lowest Level in Descriptors, at or above minLevel, able to
// carry the given profile and Requirements. It returns false if no level in
// the table suffices.
func Fit(p Profile, minLevel Level, req Requirements) (Level, bool) {
	fs := macroblocks(req.Width, req.Height)
	if req.FrameRateDen == 0 {
		req.FrameRateDen = 1
	}
	fps := float64(req.FrameRateNum) / float64(req.FrameRateDen)
	mbps := uint32(float64(fs) * fps)
	dpbMBs := fs * uint32(req.MaxDecFrameBuffering)
	factor := cpbBRFactor(p)

	for _, d := range Descriptors {
		if d.Level < minLevel {
			continue
		}
		if d.ConstraintSet3 {
			// Level 1b is only reachable by explicit request (minLevel ==
			// Level1b); Fit's ascending search otherwise skips it so that a
			// plain search for "the lowest level that fits" doesn't land on
			// the constrained variant of level 1.
			if minLevel != Level1b {
				continue
			}
		}
		if fs > d.MaxFS {
			continue
		}
		if mbps > d.MaxMBPS {
			continue
		}
		if dpbMBs > d.MaxDPBMBs {
			continue
		}
		maxBR := uint64(d.MaxBR) * uint64(factor)
		if uint64(req.BitrateBPS) > maxBR {
			continue
		}
		return d.Level, true
	}
	return 0, false
}
