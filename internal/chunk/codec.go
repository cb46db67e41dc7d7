package chunk

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"math"

	"sandfall/internal/core"
	"sandfall/internal/material"
)

// ErrCorrupt is returned when encoded chunk data fails validation.
var ErrCorrupt = errors.New("chunk: corrupt data")

const (
	codecMagic   = "SFCK"
	codecVersion = 1

	headerLen  = len(codecMagic) + 1 + 2*4
	pixelsLen  = Area * 2
	tempsLen   = Cells * 4
	rectLen    = 4 * 2
	payloadLen = headerLen + pixelsLen + tempsLen + rectLen
	encodedLen = payloadLen + 4
)

// MarshalBinary encodes the key, pixels with persistent flags, the coarse
// temperatures and the pending dirty region, followed by a CRC32.
func (c *Chunk) MarshalBinary() ([]byte, error) {
	buf := make([]byte, 0, encodedLen)
	buf = append(buf, codecMagic...)
	buf = append(buf, codecVersion)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(int32(c.Key.X)))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(int32(c.Key.Y)))
	for _, p := range c.pix {
		buf = append(buf, byte(p.Mat), byte(p.Flags&PersistentFlags))
	}
	for _, t := range c.temp {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(t))
	}
	d := c.prev.Union(c.dirty)
	buf = append(buf, uint8(d.MinX), uint8(d.MinY), uint8(d.MaxX), uint8(d.MaxY))
	buf = append(buf, 0, 0, 0, 0)
	buf = binary.LittleEndian.AppendUint32(buf, crc32.ChecksumIEEE(buf))
	return buf, nil
}

// UnmarshalBinary decodes data produced by MarshalBinary. On error the
// receiver is left unchanged.
func (c *Chunk) UnmarshalBinary(data []byte) error {
	if len(data) != encodedLen {
		return fmt.Errorf("%w: length %d, want %d", ErrCorrupt, len(data), encodedLen)
	}
	payload := data[:payloadLen]
	if got, want := crc32.ChecksumIEEE(payload), binary.LittleEndian.Uint32(data[payloadLen:]); got != want {
		return fmt.Errorf("%w: checksum %08x, want %08x", ErrCorrupt, got, want)
	}
	if string(payload[:len(codecMagic)]) != codecMagic {
		return fmt.Errorf("%w: bad magic", ErrCorrupt)
	}
	off := len(codecMagic)
	if v := payload[off]; v != codecVersion {
		return fmt.Errorf("%w: unsupported version %d", ErrCorrupt, v)
	}
	off++

	var tmp Chunk
	tmp.Key.X = int(int32(binary.LittleEndian.Uint32(payload[off:])))
	tmp.Key.Y = int(int32(binary.LittleEndian.Uint32(payload[off+4:])))
	off += 8
	for i := range tmp.pix {
		tmp.pix[i] = Pixel{Mat: material.ID(payload[off]), Flags: Flags(payload[off+1]) & PersistentFlags}
		off += 2
	}
	for i := range tmp.temp {
		t := math.Float32frombits(binary.LittleEndian.Uint32(payload[off:]))
		if math.IsNaN(float64(t)) || math.IsInf(float64(t), 0) {
			return fmt.Errorf("%w: non-finite temperature in cell %d", ErrCorrupt, i)
		}
		tmp.temp[i] = t
		off += 4
	}
	d := core.Rect{
		MinX: int(payload[off]), MinY: int(payload[off+1]),
		MaxX: int(payload[off+2]), MaxY: int(payload[off+3]),
	}
	if !d.Empty() && d.Clip(Bounds) != d {
		return fmt.Errorf("%w: dirty region %v outside chunk", ErrCorrupt, d)
	}
	if !d.Empty() {
		tmp.dirty = d
	}
	tmp.gen = c.gen + 1
	*c = tmp
	return nil
}

// Validate reports pixels whose material id is outside the catalog.
func (c *Chunk) Validate(cat *material.Catalog) error {
	for i, p := range c.pix {
		if int(p.Mat) >= cat.Len() {
			return fmt.Errorf("%w: pixel %d has unknown material %d", ErrCorrupt, i, p.Mat)
		}
	}
	return nil
}
