/*
DESCRIPTION
  config.go contains the configuration settings for the h264enc encoder
  core, adapted from revid's Config: a flat struct of exported fields with
  package-level defaults, updated in bulk from a string-keyed map via the
  Variables table in variables.go.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package config holds the encoder's configuration surface: GOP shape,
// reference structure, profile/level hints and the ambient logging/
// bitrate-reporting knobs, updated in bulk from a string-keyed map the way
// revid.Config is.
package config

import "github.com/ausocean/utils/logging"

// Enums for Profile.
const (
	ProfileBaseline = iota
	ProfileMain
	ProfileExtended
	ProfileHigh
	ProfileHigh10
	ProfileHigh422
	ProfileHigh444
)

// Config provides the parameters relevant to one Encoder Context instance.
// A new Config must be passed to New. Default values for these
// fields are defined as consts in variables.go.
type Config struct {
	// Width and Height are the input luma sample dimensions in pixels.
	Width, Height uint

	// FrameRateNum and FrameRateDen give the input frame rate as a
	// rational number of frames per second.
	FrameRateNum, FrameRateDen uint

	// ChromaFormatIDC selects 4:2:0 (1), 4:2:2 (2) or 4:4:4 (3) sampling.
	ChromaFormatIDC uint

	// BitDepthLuma and BitDepthChroma give the sample bit depth, 8-14.
	BitDepthLuma, BitDepthChroma uint

	// Profile is the encoder's preferred profile, offered to the backend
	// driver's Negotiate as the only candidate; the profile the backend
	// returns is the one used.
	Profile int

	// Level is the preferred level, or 0 to resolve automatically from
	// Width/Height/FrameRate/Bitrate.
	Level uint

	// IDRPeriod is the maximum number of frames between two IDR access
	// units. Validate replaces 0 with the default of 250 frames, so
	// periodic IDR insertion cannot be disabled.
	IDRPeriod uint

	// NumBFrames is the number of consecutive B frames targeted between
	// successive reference frames.
	NumBFrames uint

	// NumIFrames is the number of non-IDR I frames to insert evenly
	// across each IDR period, beyond the mandatory leading IDR.
	NumIFrames uint

	// NumRefFrames bounds the decoded picture buffer's reference count.
	NumRefFrames uint

	// BPyramid enables hierarchical B-frame reference structures; when
	// false, B frames reference only the nearest preceding and following
	// reference pictures.
	BPyramid bool

	// Bitrate is the target bitrate in bits per second, used for level
	// resolution when the level is left automatic. Encoder.Bitrate reports
	// the measured output rate independently of it.
	Bitrate uint

	// CBR indicates whether constant (true) or variable (false) bitrate
	// is requested. The Encoder does not pass it to the backend driver.
	CBR bool

	// OutputDelay bounds, in frames, how far the encoder may buffer input
	// before it must emit output, trading reordering latitude for
	// end-to-end latency. Ignored (forced to 0) when Live is true.
	OutputDelay uint

	// Live indicates the input is a live source rather than a file or
	// other seekable batch source; it disables OutputDelay's batched
	// flushing so frames are emitted as soon as the reorderer allows.
	Live bool

	// AUD controls whether an access unit delimiter precedes every access
	// unit's NAL units.
	AUD bool

	// BufferAlignment is the backend's required output buffer-offset
	// granularity in bytes, 0 meaning no alignment requirement. When
	// nonzero, an IDR or I access unit's filler NAL is sized so that its
	// AUD/SPS/PPS prefix plus the whole filler unit end on a multiple of
	// this value, where the slice data begins.
	BufferAlignment uint

	// Logger holds an implementation of the Logger interface. This must
	// be set for the encoder to work correctly.
	Logger logging.Logger

	// LogLevel is the encoder's logging verbosity level. Valid values are
	// defined by the logging package's enums: logging.Debug, logging.Info,
	// logging.Warning, logging.Error, logging.Fatal.
	LogLevel int8

	// Suppress holds logger suppression state.
	Suppress bool

	// MonitorPeriod holds a bitrate-reporting period in seconds. The
	// Encoder does not read it; Encoder.Bitrate reports on demand.
	MonitorPeriod uint
}

// Validate checks for any errors in the config fields and defaults
// settings if particular parameters have not been defined.
func (c *Config) Validate() error {
	for _, v := range Variables {
		if v.Validate != nil {
			v.Validate(c)
		}
	}
	return nil
}

// Update takes a map of configuration variable names and their
// corresponding values, parses the string values and converts into the
// correct type, then sets the config struct fields as appropriate.
func (c *Config) Update(vars map[string]string) {
	for _, value := range Variables {
		if v, ok := vars[value.Name]; ok && value.Update != nil {
			value.Update(c, v)
		}
	}
}

// LogInvalidField logs that a field was bad or unset and has been
// defaulted to def.
func (c *Config) LogInvalidField(name string, def interface{}) {
	c.Logger.Info(name+" bad or unset, defaulting", name, def)
}
