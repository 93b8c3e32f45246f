/*
DESCRIPTION
  negotiate.go implements the Parameter-Set Builder's profile/level
  negotiation (spec §4.D): filtering downstream-advertised {profile,level}
  candidates by chroma/bit-depth support, picking the highest surviving
  profile, and resolving an "auto" level via the level-fit search.

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
	"github.com/ausocean/h264enc/errs"
	"github.com/ausocean/h264enc/level"
)

// Candidate is a single {profile, level} pair advertised by the
// downstream. Level 0 means "auto": resolve via the level-fit search.
type Candidate struct {
	Profile level.Profile
	Level   level.Level
}

// minProfileFor reports the lowest profile able to carry the given
// chroma-format-idc and bit depth, per spec §4.D step 2.
func minProfileFor(chromaFormatIDC uint64, bitDepthOver8 bool) level.Profile {
	switch {
	case chromaFormatIDC == 3:
		return level.ProfileHigh444
	case chromaFormatIDC == 2:
		return level.ProfileHigh422
	case bitDepthOver8:
		return level.ProfileHigh10
	default:
		return level.ProfileMain
	}
}

// profileRank orders profiles from lowest to highest capability, used to
// pick "the highest profile" among survivors (step 3) and to compare
// against minProfileFor (step 2).
var profileRank = map[level.Profile]int{
	level.ProfileBaseline: 0,
	level.ProfileExtended: 1,
	level.ProfileMain:     2,
	level.ProfileHigh:     3,
	level.ProfileHigh10:   4,
	level.ProfileHigh422:  5,
	level.ProfileHigh444:  6,
}

// NegotiationInput gathers the encoder-side facts needed to negotiate,
// beyond the downstream's advertised Candidates.
type NegotiationInput struct {
	Candidates []Candidate

	ChromaFormatIDC    uint64
	BitDepthLumaOver8  bool
	BitDepthChromaOver8 bool

	Width, Height int
	FrameRateNum, FrameRateDen uint32
	BitrateBPS                 uint32
	MaxDecFrameBuffering       int
}

// Negotiate runs spec §4.D steps 1-4 and returns the chosen profile and
// level, or a NotNegotiated error if no candidate survives or, for an
// auto-level survivor, no level in the table fits.
func Negotiate(in NegotiationInput) (level.Profile, level.Level, error) {
	need := minProfileFor(in.ChromaFormatIDC, in.BitDepthLumaOver8 || in.BitDepthChromaOver8)

	var best *Candidate
	for i := range in.Candidates {
		c := &in.Candidates[i]
		if profileRank[c.Profile] < profileRank[need] {
			continue
		}
		if best == nil || profileRank[c.Profile] > profileRank[best.Profile] {
			best = c
		}
	}
	if best == nil {
		return 0, 0, errs.NotNegotiated("no advertised profile/level meets the input's chroma/bit-depth requirements")
	}

	if best.Level != 0 {
		return best.Profile, best.Level, nil
	}

	lvl, ok := level.Fit(best.Profile, level.Level10, level.Requirements{
		Width: in.Width, Height: in.Height,
		FrameRateNum: in.FrameRateNum, FrameRateDen: in.FrameRateDen,
		BitrateBPS:           in.BitrateBPS,
		MaxDecFrameBuffering: in.MaxDecFrameBuffering,
	})
	if !ok {
		return 0, 0, errs.NotNegotiated("no level fits the negotiated profile at this bitrate/resolution/framerate")
	}
	return best.Profile, lvl, nil
}
