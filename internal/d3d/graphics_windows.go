//go:build windows

package d3d

import (
	"errors"
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/breeze-rmm/spout2media/internal/gfx"
	"github.com/breeze-rmm/spout2media/internal/logging"
)

var log = logging.L("d3d")

var (
	d3d11DLL = windows.NewLazySystemDLL("d3d11.dll")

	procD3D11CreateDevice     = d3d11DLL.NewProc("D3D11CreateDevice")
	procD3D11On12CreateDevice = d3d11DLL.NewProc("D3D11On12CreateDevice")
)

// Graphics is the D3D11 / D3D11On12 implementation of gfx.Graphics.
type Graphics struct{}

// NewGraphics checks that d3d11.dll can be loaded.
func NewGraphics() (*Graphics, error) {
	if err := d3d11DLL.Load(); err != nil {
		return nil, fmt.Errorf("load d3d11.dll: %w", err)
	}
	return &Graphics{}, nil
}

// OpenDevice AddRefs the host's ID3D11Device and fetches its immediate
// context. Both references belong to the caller.
func (g *Graphics) OpenDevice(native gfx.Handle) (gfx.Device, gfx.DeviceContext, error) {
	if native == 0 {
		return nil, nil, errors.New("nil ID3D11Device")
	}
	comAddRef(uintptr(native))
	dev := &device{ptr: uintptr(native)}
	ctx := dev.immediateContext()
	if ctx.ptr == 0 {
		dev.Release()
		return nil, nil, errors.New("ID3D11Device::GetImmediateContext returned nil")
	}
	return dev, ctx, nil
}

func (g *Graphics) CreateBridge(native, queue gfx.Handle, flags gfx.DeviceFlags) (gfx.Device, gfx.DeviceContext, gfx.Bridge, error) {
	if err := procD3D11On12CreateDevice.Find(); err != nil {
		return nil, nil, nil, fmt.Errorf("D3D11On12 unavailable: %w", err)
	}
	dev, ctx, br, err := createOn12Device(uintptr(native), uintptr(queue), flags)
	if err != nil {
		return nil, nil, nil, err
	}
	log.Debug("D3D11On12 device created", "queue", queue.String())
	return dev, ctx, br, nil
}

// Standalone is a D3D11 device owned by this process, used when no host
// engine supplies one. It reports itself as a D3D11 RHI.
type Standalone struct {
	dev *device
	ctx *deviceContext
}

// CreateStandalone creates a hardware D3D11 device with BGRA support.
func CreateStandalone() (*Standalone, error) {
	var dev, ctx uintptr
	featureLevel := uint32(d3dFeatureLevel11_0)
	var actualLevel uint32

	hr, _, _ := procD3D11CreateDevice.Call(
		0,
		uintptr(d3dDriverTypeHardware),
		0,
		uintptr(gfx.DeviceBGRASupport),
		uintptr(unsafe.Pointer(&featureLevel)),
		1,
		uintptr(d3d11SDKVersion),
		uintptr(unsafe.Pointer(&dev)),
		uintptr(unsafe.Pointer(&actualLevel)),
		uintptr(unsafe.Pointer(&ctx)),
	)
	if int32(hr) < 0 {
		return nil, fmt.Errorf("D3D11CreateDevice failed: 0x%08X", uint32(hr))
	}
	log.Info("D3D11 device created", "featureLevel", fmt.Sprintf("0x%x", actualLevel))
	return &Standalone{dev: &device{ptr: dev}, ctx: &deviceContext{ptr: ctx}}, nil
}

func (s *Standalone) Name() string                   { return gfx.BackendD3D11.String() }
func (s *Standalone) NativeDevice() gfx.Handle       { return gfx.Handle(s.dev.ptr) }
func (s *Standalone) NativeCommandQueue() gfx.Handle { return 0 }

func (s *Standalone) Close() {
	s.ctx.Release()
	s.dev.Release()
}

var (
	_ gfx.Graphics = (*Graphics)(nil)
	_ gfx.RHI      = (*Standalone)(nil)
)
