/*
DESCRIPTION
  backend_test.go exercises Driver's contract with a fake in-process
  implementation, confirming the interface's method set is satisfiable and
  that its status values compose as the core expects.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package backend

import (
	"testing"

	"github.com/ausocean/h264enc/errs"
	"github.com/ausocean/h264enc/frame"
	"github.com/ausocean/h264enc/level"
	"github.com/ausocean/h264enc/paramset"
	"github.com/ausocean/h264enc/refmgr"
)

// fakeDriver is a minimal Driver used to confirm the interface's contract
// is satisfiable and that the core's expected call sequence works.
type fakeDriver struct {
	notReadyOnce bool
	resetCalled  bool
}

func (f *fakeDriver) Negotiate(in InputState) (level.Profile, level.Level, error) {
	if len(in.Candidates) == 0 {
		return 0, 0, errs.NotNegotiated("no candidates advertised")
	}
	return in.Candidates[0].Profile, level.Level31, nil
}

func (f *fakeDriver) NewSequence(in InputState, profile level.Profile, lvl level.Level) (level.Level, error) {
	return lvl, nil
}

func (f *fakeDriver) NewParameters(sps *paramset.SPS, pps *paramset.PPS) (*ParameterOverride, error) {
	return nil, nil
}

func (f *fakeDriver) NewOutput(fr *frame.EncoderFrame) error { return nil }

func (f *fakeDriver) EncodeFrame(fr *frame.EncoderFrame, sh refmgr.SliceHeader, lists refmgr.Lists) (Status, error) {
	if !f.notReadyOnce {
		f.notReadyOnce = true
		return StatusNotReady, nil
	}
	return StatusOK, nil
}

func (f *fakeDriver) PrepareOutput(fr *frame.EncoderFrame) (Status, []byte, error) {
	return StatusOK, []byte{0xAA}, nil
}

func (f *fakeDriver) Reset() error {
	f.resetCalled = true
	return nil
}

func TestFakeDriverSatisfiesInterface(t *testing.T) {
	var d Driver = &fakeDriver{}
	_, _, err := d.Negotiate(InputState{Candidates: []paramset.Candidate{{Profile: level.ProfileHigh}}})
	if err != nil {
		t.Fatalf("Negotiate: %v", err)
	}
}

func TestNegotiateNoCandidatesIsNotNegotiated(t *testing.T) {
	d := &fakeDriver{}
	_, _, err := d.Negotiate(InputState{})
	if errs.Code(err) != errs.CodeNotNegotiated {
		t.Errorf("Code(err) = %d, want CodeNotNegotiated", errs.Code(err))
	}
}

func TestEncodeFrameRetriesOnNotReady(t *testing.T) {
	d := &fakeDriver{}
	fr := &frame.EncoderFrame{}
	st, err := d.EncodeFrame(fr, refmgr.SliceHeader{}, refmgr.Lists{})
	if err != nil || st != StatusNotReady {
		t.Fatalf("first EncodeFrame() = (%v, %v), want (StatusNotReady, nil)", st, err)
	}
	st, err = d.EncodeFrame(fr, refmgr.SliceHeader{}, refmgr.Lists{})
	if err != nil || st != StatusOK {
		t.Fatalf("second EncodeFrame() = (%v, %v), want (StatusOK, nil)", st, err)
	}
}

func TestResetClearsSession(t *testing.T) {
	d := &fakeDriver{}
	if err := d.Reset(); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if !d.resetCalled {
		t.Error("Reset did not mark resetCalled")
	}
}
