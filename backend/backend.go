/*
DESCRIPTION
  backend.go defines Driver, the capability-set interface the Encoder
  Context drives an accelerator through, adapted from device.go's
  AVDevice vtable-style interface into the seven-method callback surface
  of spec §4.E.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package backend defines Driver, the synchronous callback surface a
// concrete accelerator implements so the encoder core can remain
// independent of any specific hardware or GPU encoder.
package backend

import (
	"github.com/ausocean/h264enc/frame"
	"github.com/ausocean/h264enc/level"
	"github.com/ausocean/h264enc/paramset"
	"github.com/ausocean/h264enc/refmgr"
)

// Status distinguishes the three outcomes an accelerator call may have,
// per spec §4.E.
type Status int

const (
	// StatusOK indicates the call completed successfully.
	StatusOK Status = iota
	// StatusNotReady indicates the accelerator could not complete the call
	// yet; the caller should retry on the next drain tick (spec's
	// "try-again-later" / "no output yet", treated identically per the
	// Open Question decision recorded in DESIGN.md).
	StatusNotReady
	// StatusFatal indicates the accelerator signalled an unrecoverable
	// failure; the core surfaces errs.BackendFatal.
	StatusFatal
)

// InputState summarizes the negotiation-time facts a Driver needs: input
// geometry, chroma/bit-depth, and the downstream's advertised
// profile/level candidates.
type InputState struct {
	Width, Height        int
	ChromaFormatIDC      uint64
	BitDepthLumaOver8    bool
	BitDepthChromaOver8  bool
	FrameRateNum         uint32
	FrameRateDen         uint32
	Candidates           []paramset.Candidate
}

// ParameterOverride is returned by NewParameters when the accelerator
// rewrites the proposed SPS/PPS; nil fields mean "no change" to that set.
type ParameterOverride struct {
	SPS *paramset.SPS
	PPS *paramset.PPS
}

// Driver is the capability-set the Encoder Context drives an accelerator
// through. Every method call is synchronous with respect to the caller;
// the only asynchrony modeled is via Status, not goroutines.
type Driver interface {
	// Negotiate selects a profile/level from the downstream's advertised
	// candidates, given in. Returns errs.NotNegotiated if nothing fits.
	Negotiate(in InputState) (level.Profile, level.Level, error)

	// NewSequence opens an accelerator session for profile at lvl. The
	// accelerator may raise lvl (e.g. because its minimum supported level
	// exceeds what negotiation picked); the core then clamps its own state
	// to match.
	NewSequence(in InputState, profile level.Profile, lvl level.Level) (level.Level, error)

	// NewParameters hands the accelerator the proposed SPS/PPS for the
	// current CVS. A non-nil *ParameterOverride means the accelerator
	// rewrote one or both sets; the core parses and substitutes them, then
	// calls NewParameters exactly once more with the corrected sets (spec
	// §4.D "Override protocol": no fixed-point loop).
	NewParameters(sps *paramset.SPS, pps *paramset.PPS) (*ParameterOverride, error)

	// NewOutput attaches backend state to f, ahead of EncodeFrame. Optional:
	// implementations that need no per-frame backend handle may no-op.
	NewOutput(f *frame.EncoderFrame) error

	// EncodeFrame submits f for encoding, given its synthesized slice
	// header and reference lists.
	EncodeFrame(f *frame.EncoderFrame, sh refmgr.SliceHeader, lists refmgr.Lists) (Status, error)

	// PrepareOutput packages the accelerator's bitstream for f into its
	// output buffer. May return StatusNotReady to defer.
	PrepareOutput(f *frame.EncoderFrame) (Status, []byte, error)

	// Reset drops all accelerator session state; called on encoder stop.
	Reset() error
}
