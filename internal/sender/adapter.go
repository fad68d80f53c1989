package sender

import (
	"errors"

	"github.com/breeze-rmm/spout2media/internal/gfx"
)

// GraphicsBackendAdapter gives the sender a D3D11 device and immediate
// context regardless of the host backend, and turns host textures into
// handles usable on that device. It is chosen once per Context.
type GraphicsBackendAdapter interface {
	Backend() gfx.Backend
	Device() gfx.Device
	Context() gfx.DeviceContext
	// Resolve returns a D3D11 handle for tex. The adapter keeps ownership.
	Resolve(tex gfx.Texture) (gfx.Handle, error)
	// Close releases the immediate context, any wrapped resources, the
	// bridge and the device, in that order.
	Close()
}

// NewAdapter selects the adapter matching the host's active backend.
func NewAdapter(rhi gfx.RHI, graphics gfx.Graphics) (GraphicsBackendAdapter, error) {
	switch backend := gfx.ParseBackend(rhi.Name()); backend {
	case gfx.BackendD3D11:
		return NewDirectAdapter(rhi, graphics)
	case gfx.BackendD3D12:
		return NewBridgedAdapter(rhi, graphics)
	default:
		return nil, &UnsupportedBackendError{Name: rhi.Name()}
	}
}

// DirectAdapter serves hosts that already render with D3D11.
type DirectAdapter struct {
	device  gfx.Device
	context gfx.DeviceContext
}

func NewDirectAdapter(rhi gfx.RHI, graphics gfx.Graphics) (*DirectAdapter, error) {
	native := rhi.NativeDevice()
	if native == 0 {
		return nil, &DeviceAcquisitionError{Backend: gfx.BackendD3D11, Err: errors.New("host returned no native device")}
	}
	device, context, err := graphics.OpenDevice(native)
	if err != nil {
		return nil, &DeviceAcquisitionError{Backend: gfx.BackendD3D11, Err: err}
	}
	return &DirectAdapter{device: device, context: context}, nil
}

func (a *DirectAdapter) Backend() gfx.Backend       { return gfx.BackendD3D11 }
func (a *DirectAdapter) Device() gfx.Device         { return a.device }
func (a *DirectAdapter) Context() gfx.DeviceContext { return a.context }

// Resolve hands back the host's own D3D11 texture; nothing is cached.
func (a *DirectAdapter) Resolve(tex gfx.Texture) (gfx.Handle, error) {
	h := tex.NativeResource()
	if h == 0 {
		return 0, &ResourceWrapError{Texture: tex.ID(), Err: ErrNilResource}
	}
	return h, nil
}

func (a *DirectAdapter) Close() {
	if a.context != nil {
		a.context.Release()
		a.context = nil
	}
	if a.device != nil {
		a.device.Release()
		a.device = nil
	}
}

// BridgedAdapter serves D3D12 hosts through a D3D11On12 device.
type BridgedAdapter struct {
	device  gfx.Device
	context gfx.DeviceContext
	scope   *interopScope
}

func NewBridgedAdapter(rhi gfx.RHI, graphics gfx.Graphics) (*BridgedAdapter, error) {
	native := rhi.NativeDevice()
	if native == 0 {
		return nil, &DeviceAcquisitionError{Backend: gfx.BackendD3D12, Err: errors.New("host returned no native device")}
	}
	device, context, bridge, err := graphics.CreateBridge(native, rhi.NativeCommandQueue(), gfx.DeviceBGRASupport)
	if err != nil {
		return nil, &DeviceAcquisitionError{Backend: gfx.BackendD3D12, Err: err}
	}
	return &BridgedAdapter{
		device:  device,
		context: context,
		scope:   newInteropScope(bridge),
	}, nil
}

func (a *BridgedAdapter) Backend() gfx.Backend       { return gfx.BackendD3D12 }
func (a *BridgedAdapter) Device() gfx.Device         { return a.device }
func (a *BridgedAdapter) Context() gfx.DeviceContext { return a.context }

// Resolve wraps tex on first sight and serves the cached wrapper afterwards.
func (a *BridgedAdapter) Resolve(tex gfx.Texture) (gfx.Handle, error) {
	return a.scope.resolve(tex)
}

// Wrapped returns the number of distinct textures wrapped so far.
func (a *BridgedAdapter) Wrapped() int {
	return a.scope.len()
}

func (a *BridgedAdapter) Close() {
	if a.context != nil {
		a.context.Release()
		a.context = nil
	}
	if a.scope != nil {
		a.scope.close()
		a.scope = nil
	}
	if a.device != nil {
		a.device.Release()
		a.device = nil
	}
}

var (
	_ GraphicsBackendAdapter = (*DirectAdapter)(nil)
	_ GraphicsBackendAdapter = (*BridgedAdapter)(nil)
)
