/*
DESCRIPTION
  nal_test.go tests emulation prevention, AUD primary_pic_type mapping,
  and per-access-unit NAL ordering.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package nal

import (
	"bytes"
	"testing"

	"github.com/ausocean/h264enc/gop"
)

func TestEscapeEmulationInsertsThreeByte(t *testing.T) {
	in := []byte{0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x02}
	got := escapeEmulation(in)
	want := []byte{0x00, 0x00, 0x03, 0x00, 0x01, 0x00, 0x00, 0x03, 0x02}
	if !bytes.Equal(got, want) {
		t.Errorf("escapeEmulation() = %x, want %x", got, want)
	}
}

func TestEscapeEmulationNoFalsePositive(t *testing.T) {
	in := []byte{0x01, 0x02, 0x03, 0x00, 0x00, 0x04}
	got := escapeEmulation(in)
	if !bytes.Equal(got, in) {
		t.Errorf("escapeEmulation() = %x, want unchanged %x", got, in)
	}
}

func TestPrimaryPicTypeMapping(t *testing.T) {
	cases := []struct {
		isIDR bool
		st    gop.SliceType
		want  uint8
	}{
		{true, gop.I, 0},
		{false, gop.I, 0},
		{false, gop.P, 1},
		{false, gop.B, 2},
	}
	for _, c := range cases {
		if got := primaryPicType(c.isIDR, c.st); got != c.want {
			t.Errorf("primaryPicType(%v, %v) = %d, want %d", c.isIDR, c.st, got, c.want)
		}
	}
}

func TestAssembleIDROrdering(t *testing.T) {
	units := Assemble(true, true, gop.I, []byte{1}, []byte{2}, []byte{3}, []byte{4})
	want := []Type{TypeAUD, TypeSPS, TypePPS, TypeFillerData, TypeSliceIDR}
	if len(units) != len(want) {
		t.Fatalf("got %d units, want %d", len(units), len(want))
	}
	for i, u := range units {
		if u.Type != want[i] {
			t.Errorf("units[%d].Type = %v, want %v", i, u.Type, want[i])
		}
	}
}

func TestAssembleNonIDRIOrdering(t *testing.T) {
	units := Assemble(true, false, gop.I, nil, []byte{2}, []byte{3}, []byte{4})
	want := []Type{TypeAUD, TypePPS, TypeFillerData, TypeSliceNonIDR}
	if len(units) != len(want) {
		t.Fatalf("got %d units, want %d", len(units), len(want))
	}
	for i, u := range units {
		if u.Type != want[i] {
			t.Errorf("units[%d].Type = %v, want %v", i, u.Type, want[i])
		}
	}
}

func TestAssemblePBOrdering(t *testing.T) {
	units := Assemble(true, false, gop.B, nil, nil, nil, []byte{4})
	want := []Type{TypeAUD, TypeSliceNonIDR}
	if len(units) != len(want) {
		t.Fatalf("got %d units, want %d", len(units), len(want))
	}
	for i, u := range units {
		if u.Type != want[i] {
			t.Errorf("units[%d].Type = %v, want %v", i, u.Type, want[i])
		}
	}
}
