/*
DESCRIPTION
  config_test.go provides testing for the Config struct methods (Validate
  and Update).

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
	"testing"

	"github.com/google/go-cmp/cmp"
)

type dumbLogger struct{}

func (dl *dumbLogger) Log(l int8, m string, a ...interface{})  {}
func (dl *dumbLogger) SetLevel(l int8)                         {}
func (dl *dumbLogger) Debug(msg string, args ...interface{})   {}
func (dl *dumbLogger) Info(msg string, args ...interface{})    {}
func (dl *dumbLogger) Warning(msg string, args ...interface{}) {}
func (dl *dumbLogger) Error(msg string, args ...interface{})   {}
func (dl *dumbLogger) Fatal(msg string, args ...interface{})   {}

func TestValidate(t *testing.T) {
	dl := &dumbLogger{}

	want := Config{
		Logger:          dl,
		FrameRateNum:    defaultFrameRateNum,
		FrameRateDen:    defaultFrameRateDen,
		ChromaFormatIDC: defaultChromaFormatIDC,
		BitDepthLuma:    defaultBitDepth,
		BitDepthChroma:  defaultBitDepth,
		IDRPeriod:       defaultIDRPeriod,
		NumRefFrames:    defaultNumRefFrames,
		Bitrate:         defaultBitrate,
		OutputDelay:     defaultOutputDelay,
	}

	got := Config{Logger: dl}
	err := (&got).Validate()
	if err != nil {
		t.Fatalf("did not expect error: %v", err)
	}

	if !cmp.Equal(got, want) {
		t.Errorf("configs not equal\nwant: %v\ngot: %v", want, got)
	}
}

func TestUpdate(t *testing.T) {
	updateMap := map[string]string{
		"Width":           "1920",
		"Height":          "1080",
		"FrameRateNum":    "30",
		"FrameRateDen":    "1",
		"ChromaFormatIDC": "1",
		"BitDepthLuma":    "8",
		"BitDepthChroma":  "8",
		"Profile":         "high",
		"Level":           "40",
		"IDRPeriod":       "60",
		"NumBFrames":      "2",
		"NumIFrames":      "1",
		"NumRefFrames":    "3",
		"BPyramid":        "true",
		"Bitrate":         "5000000",
		"CBR":             "true",
		"OutputDelay":     "8",
		"AUD":             "true",
		"LogLevel":        "1",
		"Suppress":        "false",
		"MonitorPeriod":   "10",
	}

	want := Config{
		Width:           1920,
		Height:          1080,
		FrameRateNum:    30,
		FrameRateDen:    1,
		ChromaFormatIDC: 1,
		BitDepthLuma:    8,
		BitDepthChroma:  8,
		Profile:         ProfileHigh,
		Level:           40,
		IDRPeriod:       60,
		NumBFrames:      2,
		NumIFrames:      1,
		NumRefFrames:    3,
		BPyramid:        true,
		Bitrate:         5000000,
		CBR:             true,
		OutputDelay:     8,
		AUD:             true,
		LogLevel:        1,
		Suppress:        false,
		MonitorPeriod:   10,
	}

	got := Config{Logger: &dumbLogger{}}
	got.Update(updateMap)
	want.Logger = got.Logger

	if !cmp.Equal(got, want) {
		t.Errorf("configs not equal\nwant: %v\ngot: %v", want, got)
	}
}

func TestValidateCorrectsBadChromaFormat(t *testing.T) {
	c := Config{Logger: &dumbLogger{}, ChromaFormatIDC: 9}
	if err := c.Validate(); err != nil {
		t.Fatalf("did not expect error: %v", err)
	}
	if c.ChromaFormatIDC != defaultChromaFormatIDC {
		t.Errorf("ChromaFormatIDC = %d, want default %d", c.ChromaFormatIDC, defaultChromaFormatIDC)
	}
}
