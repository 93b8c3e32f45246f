/*
DESCRIPTION
  level_test.go tests the level-descriptor table and the level-fit search.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package level

import "testing"

// TestFit1080p30Main5Mbps covers the spec's "Level auto at 1080p30, 5Mb/s,
// Main" concrete scenario: expected level is 4.0.
func TestFit1080p30Main5Mbps(t *testing.T) {
	got, ok := Fit(ProfileMain, Level10, Requirements{
		Width: 1920, Height: 1080,
		FrameRateNum: 30, FrameRateDen: 1,
		BitrateBPS:           5_000_000,
		MaxDecFrameBuffering: 4,
	})
	if !ok {
		t.Fatal("Fit returned no level")
	}
	if got != Level40 {
		t.Errorf("Fit() = %v, want 4.0", got)
	}
}

// TestFitSmallestSufficient checks invariant P6: Fit returns the smallest
// level in the table whose four budgets each suffice.
func TestFitSmallestSufficient(t *testing.T) {
	got, ok := Fit(ProfileBaseline, Level10, Requirements{
		Width: 176, Height: 144,
		FrameRateNum: 15, FrameRateDen: 1,
		BitrateBPS:           56_000,
		MaxDecFrameBuffering: 1,
	})
	if !ok {
		t.Fatal("Fit returned no level")
	}
	if got != Level10 {
		t.Errorf("Fit() = %v, want 1.0 (smallest level)", got)
	}
}

// TestFitExceedsTable checks that requirements beyond level 6.2's budgets
// return none.
func TestFitExceedsTable(t *testing.T) {
	_, ok := Fit(ProfileHigh, Level10, Requirements{
		Width: 16384, Height: 16384,
		FrameRateNum: 120, FrameRateDen: 1,
		BitrateBPS:           1<<32 - 1,
		MaxDecFrameBuffering: 16,
	})
	if ok {
		t.Error("Fit() should have returned no level for requirements beyond the table")
	}
}

// TestFitMonotonic checks that Fit never returns a level below minLevel.
func TestFitMonotonic(t *testing.T) {
	got, ok := Fit(ProfileMain, Level31, Requirements{
		Width: 320, Height: 240,
		FrameRateNum: 30, FrameRateDen: 1,
		BitrateBPS:           100_000,
		MaxDecFrameBuffering: 2,
	})
	if !ok {
		t.Fatal("Fit returned no level")
	}
	if got < Level31 {
		t.Errorf("Fit() = %v, below minLevel 3.1", got)
	}
}
