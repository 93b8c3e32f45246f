/*
DESCRIPTION
  bitreader.go provides a bit reader implementation that can read or peek from
  an io.Reader data source. Adapted from the h264dec bitstream reader for use
  as the read side of the parameter-set override protocol, where a backend's
  rewritten SPS/PPS blob must be parsed back into Go structures.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package bits provides Exp-Golomb bit readers and writers used by the
// paramset package to marshal and, where a backend returns overridden
// parameter sets, unmarshal SPS/PPS fields.
package bits

import (
	"bufio"
	"io"
)

type bytePeeker interface {
	io.ByteReader
	Peek(int) ([]byte, error)
}

// Reader is a bit reader that provides methods for reading bits from an
// io.Reader source, least-significant-bit-last within each returned value.
type Reader struct {
	r     bytePeeker
	n     uint64
	bits  int
	nRead int
}

// NewReader returns a new Reader.
func NewReader(r io.Reader) *Reader {
	byter, ok := r.(bytePeeker)
	if !ok {
		byter = bufio.NewReader(r)
	}
	return &Reader{r: byter}
}

// ReadBits reads n bits from the source and returns them in the
// least-significant part of a uint64.
func (br *Reader) ReadBits(n int) (uint64, error) {
	for n > br.bits {
		b, err := br.r.ReadByte()
		if err == io.EOF {
			return 0, io.ErrUnexpectedEOF
		}
		if err != nil {
			return 0, err
		}
		br.nRead++
		br.n <<= 8
		br.n |= uint64(b)
		br.bits += 8
	}

	r := (br.n >> uint(br.bits-n)) & ((1 << uint(n)) - 1)
	br.bits -= n
	return r, nil
}

// PeekBits provides the next n bits returning them in the least-significant
// part of a uint64, without advancing through the source.
func (br *Reader) PeekBits(n int) (uint64, error) {
	byt, err := br.r.Peek(int((n-br.bits)+7) / 8)
	bits := br.bits
	if err != nil {
		if err == io.EOF {
			return 0, io.ErrUnexpectedEOF
		}
		return 0, err
	}
	v := br.n
	for i := 0; n > bits; i++ {
		b := byt[i]
		v <<= 8
		v |= uint64(b)
		bits += 8
	}

	r := (v >> uint(bits-n)) & ((1 << uint(n)) - 1)
	return r, nil
}

// ByteAligned returns true if the reader position is at the start of a byte.
func (br *Reader) ByteAligned() bool { return br.bits == 0 }

// Off returns the current offset from the starting bit of the current byte.
func (br *Reader) Off() int { return br.bits }

// BytesRead returns the number of bytes that have been read by the Reader.
func (br *Reader) BytesRead() int { return br.nRead }

// MoreRBSPData reports whether there is more RBSP data left before the
// rbsp_trailing_bits stop bit, following the same peek-ahead method as the
// decoder side: a sticky stop bit followed only by trailing zeros and,
// optionally, a byte-aligned start code means there's nothing left to read.
func MoreRBSPData(br *Reader) bool {
	b, err := br.PeekBits(1)
	if err != nil {
		return false
	}
	if b == 0 {
		return true
	}

	b, err = br.PeekBits(8 - br.Off())
	if err != nil {
		return false
	}
	rem := 0x01 << uint(7-br.Off())
	if int(b) != rem {
		return true
	}

	_, err = br.PeekBits(9 - br.Off())
	if err != nil {
		return false
	}

	b, err = br.PeekBits(8 - br.Off() + 24)
	if err != nil {
		return true
	}
	rem = (0x01 << uint((7-br.Off())+24)) | 0x01
	if int(b) == rem {
		return false
	}

	b, err = br.PeekBits(8 - br.Off() + 32)
	if err != nil {
		return true
	}
	rem = (0x01 << uint((7-br.Off())+32)) | 0x01
	return int(b) != rem
}
