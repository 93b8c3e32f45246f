/*
DESCRIPTION
  paramset_test.go tests SPS/PPS round-tripping through Marshal/Parse and
  the profile/level negotiation search.

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
	"testing"

	"github.com/ausocean/h264enc/gop"
	"github.com/ausocean/h264enc/level"
)

func testGOPState() *gop.State {
	st, _ := gop.Plan(gop.Params{
		Profile:      level.ProfileHigh,
		IDRPeriod:    8,
		NumBFrames:   2,
		NumRefFrames: 3,
		List0Cap:     3,
		List1Cap:     1,
	})
	return st
}

func TestSPSMarshalParseRoundTrip(t *testing.T) {
	sps := Build(BuildParams{
		Profile:              level.ProfileHigh,
		Level:                level.Level31,
		Width:                1920,
		Height:               1080,
		ChromaFormatIDC:      1,
		FrameRateNum:         30,
		FrameRateDen:         1,
		GOP:                  testGOPState(),
	})

	rbsp := sps.Marshal()
	got, err := Parse(rbsp)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got.ProfileIDC != sps.ProfileIDC {
		t.Errorf("ProfileIDC = %d, want %d", got.ProfileIDC, sps.ProfileIDC)
	}
	if got.LevelIDC != sps.LevelIDC {
		t.Errorf("LevelIDC = %d, want %d", got.LevelIDC, sps.LevelIDC)
	}
	if got.PicWidthInMBSMinus1 != sps.PicWidthInMBSMinus1 {
		t.Errorf("PicWidthInMBSMinus1 = %d, want %d", got.PicWidthInMBSMinus1, sps.PicWidthInMBSMinus1)
	}
	if got.VUI == nil || got.VUI.MaxDecFrameBuffering != sps.VUI.MaxDecFrameBuffering {
		t.Errorf("VUI.MaxDecFrameBuffering mismatch: got %+v, want %+v", got.VUI, sps.VUI)
	}
}

func TestSPSFrameCropping(t *testing.T) {
	sps := Build(BuildParams{
		Profile:         level.ProfileMain,
		Level:           level.Level30,
		Width:           1000,
		Height:          700,
		ChromaFormatIDC: 1,
		GOP:             testGOPState(),
	})
	if !sps.FrameCroppingFlag {
		t.Fatal("expected frame cropping for a non-multiple-of-16 resolution")
	}
	if sps.FrameCropRightOffset == 0 && sps.FrameCropBottomOffset == 0 {
		t.Error("expected nonzero crop offsets")
	}
}

func TestPPSMarshalParseRoundTrip(t *testing.T) {
	pps := BuildPPS(PPSBuildParams{Profile: level.ProfileHigh})
	rbsp := pps.Marshal()
	got, err := ParsePPS(rbsp)
	if err != nil {
		t.Fatalf("ParsePPS: %v", err)
	}
	if got.EntropyCodingModeCABAC != pps.EntropyCodingModeCABAC {
		t.Errorf("EntropyCodingModeCABAC = %v, want %v", got.EntropyCodingModeCABAC, pps.EntropyCodingModeCABAC)
	}
	if got.Transform8x8Mode != pps.Transform8x8Mode {
		t.Errorf("Transform8x8Mode = %v, want %v", got.Transform8x8Mode, pps.Transform8x8Mode)
	}
}

func TestNegotiateRejectsInsufficientProfile(t *testing.T) {
	_, _, err := Negotiate(NegotiationInput{
		Candidates:      []Candidate{{Profile: level.ProfileBaseline, Level: level.Level30}},
		ChromaFormatIDC: 3, // 4:4:4 needs High444.
	})
	if err == nil {
		t.Fatal("expected NotNegotiated error")
	}
}

func TestNegotiatePicksHighestSurvivingProfile(t *testing.T) {
	p, lvl, err := Negotiate(NegotiationInput{
		Candidates: []Candidate{
			{Profile: level.ProfileMain, Level: level.Level31},
			{Profile: level.ProfileHigh, Level: level.Level40},
			{Profile: level.ProfileBaseline, Level: level.Level20},
		},
		ChromaFormatIDC: 1,
	})
	if err != nil {
		t.Fatalf("Negotiate: %v", err)
	}
	if p != level.ProfileHigh || lvl != level.Level40 {
		t.Errorf("Negotiate() = (%v, %v), want (High, 4.0)", p, lvl)
	}
}

func TestNegotiateResolvesAutoLevel(t *testing.T) {
	p, lvl, err := Negotiate(NegotiationInput{
		Candidates:           []Candidate{{Profile: level.ProfileMain, Level: 0}},
		ChromaFormatIDC:      1,
		Width:                1920,
		Height:               1080,
		FrameRateNum:         30,
		FrameRateDen:         1,
		BitrateBPS:           5_000_000,
		MaxDecFrameBuffering: 4,
	})
	if err != nil {
		t.Fatalf("Negotiate: %v", err)
	}
	if p != level.ProfileMain || lvl != level.Level40 {
		t.Errorf("Negotiate() = (%v, %v), want (Main, 4.0)", p, lvl)
	}
}
