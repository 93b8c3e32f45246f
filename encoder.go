/*
DESCRIPTION
  encoder.go provides an API for driving an H.264 encoder backend through a
  push/drain pipeline: GOP planning, profile/level negotiation, reference
  list management, slice header synthesis and NAL assembly, adapted from
  revid.Revid's construction, Start/Stop/Update and bitrate-reporting
  shape.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package h264enc provides the Encoder Context: a push/drain pipeline
// that plans a GOP structure, negotiates profile/level with a backend
// driver, manages the decoded picture buffer and emits complete,
// Annex-B-framed H.264 access units.
package h264enc

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/ausocean/client/pi/netsender"
	"github.com/ausocean/h264enc/backend"
	"github.com/ausocean/h264enc/config"
	"github.com/ausocean/h264enc/errs"
	"github.com/ausocean/h264enc/frame"
	"github.com/ausocean/h264enc/gop"
	"github.com/ausocean/h264enc/level"
	"github.com/ausocean/h264enc/nal"
	"github.com/ausocean/h264enc/paramset"
	"github.com/ausocean/h264enc/refmgr"
	"github.com/ausocean/h264enc/reorder"
	"github.com/ausocean/utils/bitrate"
)

// Encoder drives one encode session: it owns the GOP plan, the decoded
// picture buffer, and the backend driver, and exposes Push/Drain/Flush to
// turn raw input frames into complete access units.
type Encoder struct {
	// cfg holds the Encoder's configuration. As with revid.Revid, it also
	// carries logging.
	cfg config.Config

	// ns holds the netsender.Sender responsible for remote property
	// reporting, mirroring revid.Revid's construction.
	ns *netsender.Sender

	drv backend.Driver

	gopState  *gop.State
	reorderer *reorder.Reorderer
	refMgr    *refmgr.Manager
	arena     *frame.Arena
	refs      *frame.RefList
	pending   frame.List
	dts       frame.DTSQueue
	dtsPadded bool

	sps *paramset.SPS
	pps *paramset.PPS

	profile level.Profile
	lvl     level.Level

	// reconfigurePending is set by Update and Reconfigure and cleared by
	// Push at the next CVS boundary. Clearing it only logs; the GOP plan,
	// profile/level and SPS/PPS built by Start are not rebuilt.
	reconfigurePending atomic.Bool

	bitrate bitrate.Calculator

	mu      sync.Mutex
	running bool
}

// New returns a new Encoder with the desired configuration, or an error if
// construction was not successful.
func New(c config.Config, ns *netsender.Sender) (*Encoder, error) {
	e := &Encoder{ns: ns}
	if err := e.setConfig(c); err != nil {
		return nil, fmt.Errorf("could not set config: %w", err)
	}
	return e, nil
}

// Config returns a copy of the Encoder's current config.
func (e *Encoder) Config() config.Config {
	return e.cfg
}

// Bitrate returns the result of the most recent bitrate measurement.
func (e *Encoder) Bitrate() int {
	return e.bitrate.Bitrate()
}

// MaxNumReferences returns the configured number of reference frames the
// DPB is sized for.
func (e *Encoder) MaxNumReferences() int {
	return int(e.cfg.NumRefFrames)
}

// IsLive reports whether this session is configured as a live source,
// which disallows batched output delay.
func (e *Encoder) IsLive() bool {
	return e.cfg.Live
}

// IDRPeriod returns the configured number of logical positions between
// IDRs.
func (e *Encoder) IDRPeriod() int {
	return int(e.cfg.IDRPeriod)
}

// NumBFrames returns the configured number of B pictures between
// consecutive I/P anchors.
func (e *Encoder) NumBFrames() int {
	return int(e.cfg.NumBFrames)
}

// IsBPyramid reports whether the GOP plan uses hierarchical B-pyramid
// reference structure rather than flat B runs.
func (e *Encoder) IsBPyramid() bool {
	return e.cfg.BPyramid
}

// Reconfigure sets the pending-reconfigure flag, as Update does, without
// changing the config; Push clears the flag at the next CVS boundary.
func (e *Encoder) Reconfigure() {
	e.reconfigurePending.Store(true)
}

func (e *Encoder) setConfig(c config.Config) error {
	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	e.cfg = c
	return nil
}

// Start plans the first GOP, negotiates profile/level with drv and builds
// the initial SPS/PPS. drv must be set before calling Start.
func (e *Encoder) Start(drv backend.Driver) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.running {
		e.cfg.Logger.Warning("start called, but encoder already running")
		return nil
	}
	e.drv = drv

	e.cfg.Logger.Debug("planning GOP")
	st, notices := gop.Plan(gop.Params{
		Profile:      level.Profile(e.cfg.Profile),
		IDRPeriod:    uint32(e.cfg.IDRPeriod),
		NumBFrames:   int(e.cfg.NumBFrames),
		NumIFrames:   int(e.cfg.NumIFrames),
		NumRefFrames: int(e.cfg.NumRefFrames),
		BPyramid:     e.cfg.BPyramid,
		FrameRateNum: uint32(e.cfg.FrameRateNum),
		FrameRateDen: uint32(e.cfg.FrameRateDen),
		List0Cap:     int(e.cfg.NumRefFrames),
		List1Cap:     int(e.cfg.NumRefFrames),
	})
	for _, n := range notices {
		e.cfg.Logger.Warning("GOP planning notice", "notice", n.Message)
	}
	e.gopState = st

	e.cfg.Logger.Debug("negotiating profile/level with backend")
	in := backend.InputState{
		Width:               int(e.cfg.Width),
		Height:              int(e.cfg.Height),
		ChromaFormatIDC:     uint64(e.cfg.ChromaFormatIDC),
		BitDepthLumaOver8:   e.cfg.BitDepthLuma > 8,
		BitDepthChromaOver8: e.cfg.BitDepthChroma > 8,
		FrameRateNum:        uint32(e.cfg.FrameRateNum),
		FrameRateDen:        uint32(e.cfg.FrameRateDen),
		Candidates:          []paramset.Candidate{{Profile: level.Profile(e.cfg.Profile), Level: level.Level(e.cfg.Level)}},
	}
	profile, lvl, err := e.drv.Negotiate(in)
	if err != nil {
		return errs.Wrap(err, errs.CodeNotNegotiated, "backend rejected negotiation")
	}
	lvl, err = e.drv.NewSequence(in, profile, lvl)
	if err != nil {
		return errs.BackendFatal(err)
	}
	if lvl == 0 {
		// Auto level: spec §4.D step 4 requires a level-fit search rather
		// than emitting an unresolved level_idc of 0 into the SPS.
		e.cfg.Logger.Debug("level left auto by negotiation, running level-fit search")
		fit, ok := level.Fit(profile, level.Level10, level.Requirements{
			Width:                int(e.cfg.Width),
			Height:               int(e.cfg.Height),
			FrameRateNum:         uint32(e.cfg.FrameRateNum),
			FrameRateDen:         uint32(e.cfg.FrameRateDen),
			BitrateBPS:           uint32(e.cfg.Bitrate),
			MaxDecFrameBuffering: st.MaxDecFrameBuffering,
		})
		if !ok {
			return errs.NotNegotiated("no level fits the negotiated profile at this bitrate/resolution/framerate")
		}
		lvl = fit
	}
	e.profile, e.lvl = profile, lvl
	e.cfg.Logger.Info("negotiated profile/level", "profile", profile.String(), "level", lvl.String())

	e.sps = paramset.Build(paramset.BuildParams{
		Profile:              profile,
		Level:                lvl,
		Width:                int(e.cfg.Width),
		Height:               int(e.cfg.Height),
		ChromaFormatIDC:      uint64(e.cfg.ChromaFormatIDC),
		BitDepthLumaMinus8:   uint64(e.cfg.BitDepthLuma) - 8,
		BitDepthChromaMinus8: uint64(e.cfg.BitDepthChroma) - 8,
		FrameRateNum:         uint32(e.cfg.FrameRateNum),
		FrameRateDen:         uint32(e.cfg.FrameRateDen),
		GOP:                  st,
	})
	e.pps = paramset.BuildPPS(paramset.PPSBuildParams{Profile: profile})

	if override, err := e.drv.NewParameters(e.sps, e.pps); err != nil {
		return errs.BackendFatal(err)
	} else if override != nil {
		if override.SPS != nil {
			e.sps = override.SPS
		}
		if override.PPS != nil {
			e.pps = override.PPS
		}
		if _, err := e.drv.NewParameters(e.sps, e.pps); err != nil {
			return errs.BackendFatal(err)
		}
	}

	e.refMgr = &refmgr.Manager{
		RefNumList0:          st.RefNumList0,
		RefNumList1:          st.RefNumList1,
		MaxDecFrameBuffering: st.MaxDecFrameBuffering,
		BPyramid:             e.cfg.BPyramid,
	}
	e.arena = frame.NewArena()
	e.refs = frame.NewRefList(e.arena)
	e.pending = frame.List{}
	e.dts = frame.DTSQueue{}
	e.dtsPadded = false
	e.reorderer = reorder.New(st)
	e.running = true
	e.cfg.Logger.Info("encoder started")
	return nil
}

// Stop resets the backend driver and marks the encoder stopped. The GOP
// plan, queues and reference list are left in place until the next Start
// rebuilds them.
func (e *Encoder) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.running {
		e.cfg.Logger.Warning("stop called but encoder isn't running")
		return
	}
	if err := e.drv.Reset(); err != nil {
		e.cfg.Logger.Error("backend reset failed", "error", err.Error())
	}
	e.running = false
	e.cfg.Logger.Info("encoder stopped")
}

// Running reports whether the encoder has been started and not yet
// stopped.
func (e *Encoder) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// Update takes a map of variables and their values, applies them to the
// Encoder's config at once and marks a reconfigure as pending. Settings
// read per frame (such as AUD, OutputDelay and BufferAlignment) take effect
// on the next Drain; the GOP plan, profile/level and SPS/PPS built by Start
// are not rebuilt, at the next CVS boundary or otherwise.
func (e *Encoder) Update(vars map[string]string) error {
	e.cfg.Logger.Debug("checking vars from server", "vars", vars)
	e.cfg.Update(vars)
	e.reconfigurePending.Store(true)
	e.cfg.Logger.Info("reconfigure scheduled for next CVS boundary")
	return nil
}

// Push submits one raw input frame, in display order, for encoding. in
// carries the backend's native pixel buffer, forwarded uninterpreted to
// backend.EncodeFrame via EncoderFrame.Input. pts is the frame's
// presentation time in milliseconds: the DTS pre-pad steps back from the
// first pts in frame durations computed in milliseconds. forceKeyFrame requests
// this picture open a new GOP outside the normal IDR cadence; last marks
// the final picture of the stream, so the reorderer drains everything it
// can once it has been accepted.
//
// Push does not itself guarantee bitstream output: a newly pushed
// B picture is commonly held in the reorderer until later pushes supply
// the forward references it predicts from. Call Drain to collect whatever
// has become ready.
func (e *Encoder) Push(in interface{}, pts int64, forceKeyFrame, last bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.running {
		return errs.StreamInvariant("Push called while encoder not running")
	}

	if !e.dtsPadded {
		frameDuration := int64(1000) * int64(e.cfg.FrameRateDen) / int64(maxUint(1, e.cfg.FrameRateNum))
		e.dts.PrePad(e.gopState.NumReorderFrames, pts, frameDuration)
		e.dtsPadded = true
	}
	e.dts.Push(pts)

	f := &frame.EncoderFrame{PTS: pts, Input: in, UnusedForReferencePicNum: -1}
	if resetCVS := e.reorderer.Push(f, forceKeyFrame, last); resetCVS {
		e.refs.Drain()
		if e.reconfigurePending.Load() {
			e.reconfigurePending.Store(false)
			e.cfg.Logger.Info("applying pending reconfigure at CVS boundary")
		}
	}

	for {
		ready, ok := e.reorderer.Pop(e.refs.Frames())
		if !ok {
			break
		}
		if err := e.submit(ready); err != nil {
			return err
		}
	}

	if last {
		for _, ready := range e.reorderer.Flush(e.refs.Frames()) {
			ready.LastFrame = true
			if err := e.submit(ready); err != nil {
				return err
			}
		}
	}
	return nil
}

// submit builds a picture's reference lists and slice header, evicts the
// chosen reference (if any), hands it to the backend driver and records it
// as pending output.
func (e *Encoder) submit(f *frame.EncoderFrame) error {
	if err := e.drv.NewOutput(f); err != nil {
		return errs.BackendFatal(err)
	}

	residentRefs := e.refs.Frames()
	lists := e.refMgr.BuildLists(f, residentRefs)

	var victimFrameNum uint32
	victim, unused := e.refMgr.SelectVictim(f, residentRefs)
	if victim >= 0 {
		victimFrameNum = residentRefs[victim].GopFrameNum
		if victim > 0 {
			// Only a victim other than the head needs an explicit MMCO-1
			// marking in the slice header.
			f.UnusedForReferencePicNum = int64(unused)
		}
	}

	sh := refmgr.BuildSliceHeader(f, int(e.pps.PPSID), lists, e.gopState.MaxFrameNum)

	status, err := e.drv.EncodeFrame(f, sh, lists)
	if err != nil {
		return errs.BackendFatal(err)
	}
	if status == backend.StatusFatal {
		f.Dropped = true
		e.cfg.Logger.Error("backend returned StatusFatal, dropping frame", "gop_frame_num", f.GopFrameNum)
		return errs.BackendFatal(fmt.Errorf("backend returned StatusFatal for frame_num %d", f.GopFrameNum))
	}
	// StatusNotReady still means the submission itself succeeded; output
	// readiness for this frame is polled later, via Drain.

	if victim >= 0 {
		e.refs.EvictFrameNum(victimFrameNum)
	}
	if f.IsRef() {
		e.refs.Insert(f)
	}

	e.pending.PushBack(f)
	return nil
}

func maxUint(a, b uint) uint {
	if a > b {
		return a
	}
	return b
}

// Drain collects every frame whose backend output is ready, wraps it into
// a complete Annex-B access unit and returns the concatenated bytes. It is
// safe to call Drain after every Push, or periodically; frames not yet
// ready remain pending.
func (e *Encoder) Drain() ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.drain(false)
}

// drain is Drain's implementation. When force is false (the normal Drain
// path), it retains up to cfg.OutputDelay already-encoded frames in
// OutputList before releasing any, per spec §5's output-delay knob; force
// is set only by Flush, which must release everything regardless.
func (e *Encoder) drain(force bool) ([]byte, error) {
	var out []byte
	for {
		if e.pending.Len() == 0 {
			break
		}
		if !force && e.pending.Len() <= int(e.cfg.OutputDelay) {
			break
		}
		f := e.pending.At(0)
		status, bitstream, err := e.drv.PrepareOutput(f)
		if err != nil {
			return out, errs.BackendFatal(err)
		}
		if status == backend.StatusNotReady {
			break
		}
		if status == backend.StatusFatal {
			f.Dropped = true
			e.pending.PopFront()
			e.dts.Pop()
			e.cfg.Logger.Error("backend returned StatusFatal from PrepareOutput, dropping frame", "gop_frame_num", f.GopFrameNum)
			return out, errs.BackendFatal(fmt.Errorf("backend returned StatusFatal from PrepareOutput for frame_num %d", f.GopFrameNum))
		}

		isIDR := f.ForceIDR
		var sps, pps []byte
		if isIDR {
			sps, pps = e.sps.Marshal(), e.pps.Marshal()
		} else if f.SliceType() == gop.I {
			pps = e.pps.Marshal()
		}
		refIDCFor := func(t nal.Type) uint8 {
			if t == nal.TypeAUD || t == nal.TypeFillerData {
				return 0
			}
			if !f.IsRef() {
				return 0
			}
			return 3
		}

		var filler []byte
		if e.cfg.BufferAlignment > 0 && (isIDR || f.SliceType() == gop.I) {
			// Assemble always appends a trailing slice unit; drop it so the
			// measured prefix covers only AUD/SPS/PPS, the bytes that
			// precede filler per spec §6.2.
			prefixUnits := nal.Assemble(e.cfg.AUD, isIDR, f.SliceType(), sps, pps, nil, nil)
			prefix := nal.Encode(prefixUnits[:len(prefixUnits)-1], refIDCFor)
			align := int(e.cfg.BufferAlignment)
			if pad := align - len(prefix)%align; pad != align {
				// The filler unit's own 4-byte start code and header byte
				// count toward the padding, and its payload holds at least
				// one byte.
				const fillerOverhead = 5
				for pad <= fillerOverhead {
					pad += align
				}
				filler = nal.Filler(pad - fillerOverhead)
			}
		}

		units := nal.Assemble(e.cfg.AUD, isIDR, f.SliceType(), sps, pps, filler, bitstream)
		au := nal.Encode(units, refIDCFor)
		e.bitrate.Report(len(au))
		out = append(out, au...)
		e.pending.PopFront()
		if dts, ok := e.dts.Pop(); ok {
			e.cfg.Logger.Debug("emitted access unit", "pts", f.PTS, "dts", dts, "bytes", len(au))
		}
	}
	return out, nil
}

// Flush drains any remaining ready frames and reports how many frames
// are still pending in the backend, for a caller deciding whether to wait
// longer before Stop.
func (e *Encoder) Flush() ([]byte, int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	out, err := e.drain(true)
	if err != nil {
		return out, e.pending.Len(), err
	}
	return out, e.pending.Len(), nil
}
