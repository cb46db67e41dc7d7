package observe

import (
	"encoding/binary"
	"errors"
	"fmt"

	"sandfall/internal/chunk"
	"sandfall/internal/core"
	"sandfall/internal/material"
	"sandfall/internal/world"
)

// ErrFrame marks a malformed frame.
var ErrFrame = errors.New("observe: malformed frame")

var frameMagic = [4]byte{'S', 'F', 'R', 'M'}

const (
	frameVersion = 1
	headerSize   = 4 + 1 + 8 + 4*4
	// maxFrameArea bounds decoded frames.
	maxFrameArea = 1 << 24
)

// Frame is one rendered rectangle at a tick. Slices are row-major over Rect.
type Frame struct {
	Tick    uint64
	Rect    core.Rect
	Mats    []material.ID
	Flags   []chunk.Flags
	Present []bool
}

// EncodeFrame serialises a render view. Layout: magic, version, tick, rect
// as four int32, then one material byte, one flag byte per pixel and a
// presence bitset.
func EncodeFrame(tick uint64, v world.RenderView) []byte {
	n := v.Rect.Dx() * v.Rect.Dy()
	buf := make([]byte, headerSize, headerSize+2*n+(n+7)/8)
	copy(buf, frameMagic[:])
	buf[4] = frameVersion
	binary.LittleEndian.PutUint64(buf[5:], tick)
	for i, x := range []int{v.Rect.MinX, v.Rect.MinY, v.Rect.MaxX, v.Rect.MaxY} {
		binary.LittleEndian.PutUint32(buf[13+4*i:], uint32(int32(x)))
	}
	for i := 0; i < n; i++ {
		buf = append(buf, byte(v.Mats[i]))
	}
	for i := 0; i < n; i++ {
		buf = append(buf, byte(v.Flags[i]))
	}
	bits := make([]byte, (n+7)/8)
	for i := 0; i < n; i++ {
		if v.Present[i] {
			bits[i>>3] |= 1 << (i & 7)
		}
	}
	return append(buf, bits...)
}

// DecodeFrame parses a frame produced by EncodeFrame.
func DecodeFrame(b []byte) (Frame, error) {
	if len(b) < headerSize || [4]byte(b[:4]) != frameMagic {
		return Frame{}, fmt.Errorf("%w: bad header", ErrFrame)
	}
	if b[4] != frameVersion {
		return Frame{}, fmt.Errorf("%w: version %d", ErrFrame, b[4])
	}
	var f Frame
	f.Tick = binary.LittleEndian.Uint64(b[5:])
	var r [4]int
	for i := range r {
		r[i] = int(int32(binary.LittleEndian.Uint32(b[13+4*i:])))
	}
	f.Rect = core.Rect{MinX: r[0], MinY: r[1], MaxX: r[2], MaxY: r[3]}
	n := f.Rect.Dx() * f.Rect.Dy()
	if n > maxFrameArea {
		return Frame{}, fmt.Errorf("%w: area %d too large", ErrFrame, n)
	}
	body := b[headerSize:]
	if len(body) != 2*n+(n+7)/8 {
		return Frame{}, fmt.Errorf("%w: body is %d bytes, want %d", ErrFrame, len(body), 2*n+(n+7)/8)
	}
	f.Mats = make([]material.ID, n)
	f.Flags = make([]chunk.Flags, n)
	f.Present = make([]bool, n)
	for i := 0; i < n; i++ {
		f.Mats[i] = material.ID(body[i])
		f.Flags[i] = chunk.Flags(body[n+i])
		f.Present[i] = body[2*n+(i>>3)]&(1<<(i&7)) != 0
	}
	return f, nil
}
