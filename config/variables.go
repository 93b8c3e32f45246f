/*
DESCRIPTION
  variables.go contains a list of structs that provide a variable Name, a
  type in a string format, a function for updating the variable in the
  Config struct from a string, and a validation function to check the
  validity of the corresponding field value in the Config.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ausocean/utils/logging"
)

// Config map keys.
const (
	KeyWidth           = "Width"
	KeyHeight          = "Height"
	KeyFrameRateNum    = "FrameRateNum"
	KeyFrameRateDen    = "FrameRateDen"
	KeyChromaFormatIDC = "ChromaFormatIDC"
	KeyBitDepthLuma    = "BitDepthLuma"
	KeyBitDepthChroma  = "BitDepthChroma"
	KeyProfile         = "Profile"
	KeyLevel           = "Level"
	KeyIDRPeriod       = "IDRPeriod"
	KeyNumBFrames      = "NumBFrames"
	KeyNumIFrames      = "NumIFrames"
	KeyNumRefFrames    = "NumRefFrames"
	KeyBPyramid        = "BPyramid"
	KeyBitrate         = "Bitrate"
	KeyCBR             = "CBR"
	KeyOutputDelay     = "OutputDelay"
	KeyLive            = "Live"
	KeyAUD             = "AUD"
	KeyBufferAlignment = "BufferAlignment"
	KeyLogLevel        = "LogLevel"
	KeySuppress        = "Suppress"
	KeyMonitorPeriod   = "MonitorPeriod"
)

// Config map parameter types.
const (
	typeString = "string"
	typeInt    = "int"
	typeUint   = "uint"
	typeBool   = "bool"
)

// Default variable values.
const (
	defaultFrameRateNum    = 30
	defaultFrameRateDen    = 1
	defaultChromaFormatIDC = 1 // 4:2:0.
	defaultBitDepth        = 8
	defaultProfile         = ProfileMain
	defaultIDRPeriod       = 250
	defaultNumBFrames      = 2
	defaultNumRefFrames    = 4
	defaultBitrate         = 4_000_000
	defaultOutputDelay     = 16
	defaultVerbosity       = logging.Error
)

// Variables lists every Config field that can be set from a string-keyed
// map, along with its type tag, its Update setter and an optional
// Validate corrector applied after Update.
var Variables = []struct {
	Name     string
	Type     string
	Update   func(*Config, string)
	Validate func(*Config)
}{
	{
		Name:   KeyWidth,
		Type:   typeUint,
		Update: func(c *Config, v string) { c.Width = parseUint(KeyWidth, v, c) },
	},
	{
		Name:   KeyHeight,
		Type:   typeUint,
		Update: func(c *Config, v string) { c.Height = parseUint(KeyHeight, v, c) },
	},
	{
		Name:   KeyFrameRateNum,
		Type:   typeUint,
		Update: func(c *Config, v string) { c.FrameRateNum = parseUint(KeyFrameRateNum, v, c) },
		Validate: func(c *Config) {
			if c.FrameRateNum == 0 {
				c.LogInvalidField(KeyFrameRateNum, defaultFrameRateNum)
				c.FrameRateNum = defaultFrameRateNum
			}
		},
	},
	{
		Name:   KeyFrameRateDen,
		Type:   typeUint,
		Update: func(c *Config, v string) { c.FrameRateDen = parseUint(KeyFrameRateDen, v, c) },
		Validate: func(c *Config) {
			if c.FrameRateDen == 0 {
				c.LogInvalidField(KeyFrameRateDen, defaultFrameRateDen)
				c.FrameRateDen = defaultFrameRateDen
			}
		},
	},
	{
		Name:   KeyChromaFormatIDC,
		Type:   typeUint,
		Update: func(c *Config, v string) { c.ChromaFormatIDC = parseUint(KeyChromaFormatIDC, v, c) },
		Validate: func(c *Config) {
			if c.ChromaFormatIDC == 0 || c.ChromaFormatIDC > 3 {
				c.LogInvalidField(KeyChromaFormatIDC, defaultChromaFormatIDC)
				c.ChromaFormatIDC = defaultChromaFormatIDC
			}
		},
	},
	{
		Name:   KeyBitDepthLuma,
		Type:   typeUint,
		Update: func(c *Config, v string) { c.BitDepthLuma = parseUint(KeyBitDepthLuma, v, c) },
		Validate: func(c *Config) {
			if c.BitDepthLuma < 8 {
				c.LogInvalidField(KeyBitDepthLuma, defaultBitDepth)
				c.BitDepthLuma = defaultBitDepth
			}
		},
	},
	{
		Name:   KeyBitDepthChroma,
		Type:   typeUint,
		Update: func(c *Config, v string) { c.BitDepthChroma = parseUint(KeyBitDepthChroma, v, c) },
		Validate: func(c *Config) {
			if c.BitDepthChroma < 8 {
				c.LogInvalidField(KeyBitDepthChroma, defaultBitDepth)
				c.BitDepthChroma = defaultBitDepth
			}
		},
	},
	{
		Name:   KeyProfile,
		Type:   "enum:baseline,main,extended,high,high10,high422,high444",
		Update: func(c *Config, v string) { c.Profile = parseProfile(v, c) },
	},
	{
		Name:   KeyLevel,
		Type:   typeUint,
		Update: func(c *Config, v string) { c.Level = parseUint(KeyLevel, v, c) },
	},
	{
		Name:   KeyIDRPeriod,
		Type:   typeUint,
		Update: func(c *Config, v string) { c.IDRPeriod = parseUint(KeyIDRPeriod, v, c) },
		Validate: func(c *Config) {
			if c.IDRPeriod == 0 {
				c.LogInvalidField(KeyIDRPeriod, defaultIDRPeriod)
				c.IDRPeriod = defaultIDRPeriod
			}
		},
	},
	{
		Name:   KeyNumBFrames,
		Type:   typeUint,
		Update: func(c *Config, v string) { c.NumBFrames = parseUint(KeyNumBFrames, v, c) },
	},
	{
		Name:   KeyNumIFrames,
		Type:   typeUint,
		Update: func(c *Config, v string) { c.NumIFrames = parseUint(KeyNumIFrames, v, c) },
	},
	{
		Name:   KeyNumRefFrames,
		Type:   typeUint,
		Update: func(c *Config, v string) { c.NumRefFrames = parseUint(KeyNumRefFrames, v, c) },
		Validate: func(c *Config) {
			if c.NumRefFrames == 0 {
				c.LogInvalidField(KeyNumRefFrames, defaultNumRefFrames)
				c.NumRefFrames = defaultNumRefFrames
			}
		},
	},
	{
		Name:   KeyBPyramid,
		Type:   typeBool,
		Update: func(c *Config, v string) { c.BPyramid = parseBool(KeyBPyramid, v, c) },
	},
	{
		Name:   KeyBitrate,
		Type:   typeUint,
		Update: func(c *Config, v string) { c.Bitrate = parseUint(KeyBitrate, v, c) },
		Validate: func(c *Config) {
			if c.Bitrate == 0 {
				c.LogInvalidField(KeyBitrate, defaultBitrate)
				c.Bitrate = defaultBitrate
			}
		},
	},
	{
		Name:   KeyCBR,
		Type:   typeBool,
		Update: func(c *Config, v string) { c.CBR = parseBool(KeyCBR, v, c) },
	},
	{
		Name:   KeyOutputDelay,
		Type:   typeUint,
		Update: func(c *Config, v string) { c.OutputDelay = parseUint(KeyOutputDelay, v, c) },
		Validate: func(c *Config) {
			if c.OutputDelay == 0 {
				c.LogInvalidField(KeyOutputDelay, defaultOutputDelay)
				c.OutputDelay = defaultOutputDelay
			}
		},
	},
	{
		Name:   KeyLive,
		Type:   typeBool,
		Update: func(c *Config, v string) { c.Live = parseBool(KeyLive, v, c) },
		Validate: func(c *Config) {
			if c.Live && c.OutputDelay != 0 {
				c.LogInvalidField(KeyOutputDelay, 0)
				c.OutputDelay = 0
			}
		},
	},
	{
		Name:   KeyAUD,
		Type:   typeBool,
		Update: func(c *Config, v string) { c.AUD = parseBool(KeyAUD, v, c) },
	},
	{
		Name:   KeyBufferAlignment,
		Type:   typeUint,
		Update: func(c *Config, v string) { c.BufferAlignment = parseUint(KeyBufferAlignment, v, c) },
	},
	{
		Name:   KeyLogLevel,
		Type:   typeInt,
		Update: func(c *Config, v string) { c.LogLevel = int8(parseInt(KeyLogLevel, v, c)) },
	},
	{
		Name:   KeySuppress,
		Type:   typeBool,
		Update: func(c *Config, v string) { c.Suppress = parseBool(KeySuppress, v, c) },
	},
	{
		Name:   KeyMonitorPeriod,
		Type:   typeUint,
		Update: func(c *Config, v string) { c.MonitorPeriod = parseUint(KeyMonitorPeriod, v, c) },
	},
}

func parseUint(n, v string, c *Config) uint {
	_v, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		c.Logger.Warning(fmt.Sprintf("expected unsigned int for param %s", n), "value", v)
	}
	return uint(_v)
}

func parseInt(n, v string, c *Config) int {
	_v, err := strconv.Atoi(v)
	if err != nil {
		c.Logger.Warning(fmt.Sprintf("expected integer for param %s", n), "value", v)
	}
	return _v
}

func parseBool(n, v string, c *Config) (b bool) {
	switch strings.ToLower(v) {
	case "true":
		b = true
	case "false":
		b = false
	default:
		c.Logger.Warning(fmt.Sprintf("expect bool for param %s", n), "value", v)
	}
	return
}

func parseProfile(v string, c *Config) int {
	switch strings.ToLower(v) {
	case "baseline":
		return ProfileBaseline
	case "main":
		return ProfileMain
	case "extended":
		return ProfileExtended
	case "high":
		return ProfileHigh
	case "high10":
		return ProfileHigh10
	case "high422":
		return ProfileHigh422
	case "high444":
		return ProfileHigh444
	default:
		c.Logger.Warning("unrecognised profile, defaulting", "value", v)
		return defaultProfile
	}
}
