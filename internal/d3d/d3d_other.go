//go:build !windows

package d3d

import (
	"errors"

	"github.com/breeze-rmm/spout2media/internal/gfx"
)

// ErrNotSupported is returned on platforms without Direct3D.
var ErrNotSupported = errors.New("direct3d is only available on windows")

// Graphics is unavailable off Windows.
type Graphics struct{}

func NewGraphics() (*Graphics, error) { return nil, ErrNotSupported }

func (g *Graphics) OpenDevice(gfx.Handle) (gfx.Device, gfx.DeviceContext, error) {
	return nil, nil, ErrNotSupported
}

func (g *Graphics) CreateBridge(gfx.Handle, gfx.Handle, gfx.DeviceFlags) (gfx.Device, gfx.DeviceContext, gfx.Bridge, error) {
	return nil, nil, nil, ErrNotSupported
}

// Standalone is unavailable off Windows.
type Standalone struct{}

func CreateStandalone() (*Standalone, error) { return nil, ErrNotSupported }

func (s *Standalone) Name() string                   { return gfx.BackendUnknown.String() }
func (s *Standalone) NativeDevice() gfx.Handle       { return 0 }
func (s *Standalone) NativeCommandQueue() gfx.Handle { return 0 }
func (s *Standalone) Close()                         {}

// PatternSource is unavailable off Windows.
type PatternSource struct{}

func NewPatternSource(*Standalone, uint32, uint32, gfx.Format) (*PatternSource, error) {
	return nil, ErrNotSupported
}

func (p *PatternSource) Advance()                   {}
func (p *PatternSource) ID() gfx.TextureID          { return 0 }
func (p *PatternSource) NativeResource() gfx.Handle { return 0 }
func (p *PatternSource) Width() uint32              { return 0 }
func (p *PatternSource) Height() uint32             { return 0 }
func (p *PatternSource) Format() gfx.Format         { return gfx.FormatUnknown }
func (p *PatternSource) Close()                     {}
