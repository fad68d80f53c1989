//go:build windows

package d3d

import (
	"fmt"
	"sync/atomic"
	"unsafe"

	"github.com/breeze-rmm/spout2media/internal/gfx"
)

var nextTextureID atomic.Uint64

// PatternSource is a host-side 8-bit RGBA or BGRA texture refreshed with FillPattern on
// every Advance. It plays the part of an engine render target.
type PatternSource struct {
	s      *Standalone
	tex    uintptr
	id     gfx.TextureID
	width  uint32
	height uint32
	format gfx.Format
	pixels []byte
	frame  uint64
}

// NewPatternSource allocates the source texture on s.
func NewPatternSource(s *Standalone, width, height uint32, format gfx.Format) (*PatternSource, error) {
	if !PatternFormat(format) {
		return nil, fmt.Errorf("pattern source cannot render %s", format)
	}
	desc := d3d11Texture2DDesc{
		Width:       width,
		Height:      height,
		MipLevels:   1,
		ArraySize:   1,
		Format:      uint32(format),
		SampleCount: 1,
		Usage:       d3d11UsageDefault,
		BindFlags:   d3d11BindShaderResource,
	}
	var tex uintptr
	if _, err := comCall(s.dev.ptr, d3d11DeviceCreateTexture2D,
		uintptr(unsafe.Pointer(&desc)),
		0,
		uintptr(unsafe.Pointer(&tex)),
	); err != nil {
		return nil, fmt.Errorf("CreateTexture2D source: %w", err)
	}
	return &PatternSource{
		s:      s,
		tex:    tex,
		id:     gfx.TextureID(nextTextureID.Add(1)),
		width:  width,
		height: height,
		format: format,
		pixels: make([]byte, int(width)*int(height)*4),
	}, nil
}

// Advance draws the next pattern frame into the texture.
func (p *PatternSource) Advance() {
	FillPattern(p.pixels, int(p.width), int(p.height), p.frame)
	if isRGBA(p.format) {
		toRGBA(p.pixels)
	}
	p.s.ctx.updateSubresource(p.tex, p.pixels, p.width*4)
	p.frame++
}

func (p *PatternSource) ID() gfx.TextureID          { return p.id }
func (p *PatternSource) NativeResource() gfx.Handle { return gfx.Handle(p.tex) }
func (p *PatternSource) Width() uint32              { return p.width }
func (p *PatternSource) Height() uint32             { return p.height }
func (p *PatternSource) Format() gfx.Format         { return p.format }

func (p *PatternSource) Close() {
	comRelease(p.tex)
	p.tex = 0
}

var _ gfx.Texture = (*PatternSource)(nil)
