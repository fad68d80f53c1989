// Package gfx is the graphics vocabulary shared by the sender and the native
// backends: opaque handles, pixel formats, resource states and the device
// interfaces a backend has to provide.
package gfx

import "fmt"

// Handle is an opaque native object pointer (a COM interface pointer on
// Windows) or an OS share handle.
type Handle uintptr

// TextureID identifies a host texture across frames. Two textures with the
// same ID refer to the same native resource.
type TextureID uint64

// Backend identifies the active rendering backend of the host.
type Backend int

const (
	BackendUnknown Backend = iota
	// BackendD3D11 is the older, immediate-context driven generation.
	BackendD3D11
	// BackendD3D12 is the newer, command-list driven generation.
	BackendD3D12
)

func (b Backend) String() string {
	switch b {
	case BackendD3D11:
		return "D3D11"
	case BackendD3D12:
		return "D3D12"
	default:
		return "unknown"
	}
}

// ParseBackend maps an RHI name ("D3D11", "D3D12") to a Backend.
func ParseBackend(name string) Backend {
	switch name {
	case "D3D11":
		return BackendD3D11
	case "D3D12":
		return BackendD3D12
	default:
		return BackendUnknown
	}
}

// ResourceState mirrors D3D12_RESOURCE_STATES.
type ResourceState uint32

const (
	StatePresent    ResourceState = 0
	StateCopySource ResourceState = 0x800
)

// DeviceFlags mirrors D3D11_CREATE_DEVICE_FLAG.
type DeviceFlags uint32

const DeviceBGRASupport DeviceFlags = 0x20

// SharedTexture is a texture that other processes can open by ShareHandle.
type SharedTexture struct {
	Texture     Handle
	ShareHandle Handle
}

// RHI is the host's rendering backend oracle.
type RHI interface {
	// Name returns the backend name, e.g. "D3D11" or "D3D12".
	Name() string
	// NativeDevice returns the backend's native device pointer.
	NativeDevice() Handle
	// NativeCommandQueue returns the direct command queue for D3D12
	// backends, or 0 when the host does not expose one.
	NativeCommandQueue() Handle
}

// Texture is a host-owned texture delivered with a frame.
type Texture interface {
	ID() TextureID
	// NativeResource returns the backend-native resource pointer. The
	// caller does not receive a reference.
	NativeResource() Handle
	Width() uint32
	Height() uint32
	Format() Format
}

// Device is an older-generation (D3D11) device owned by the caller.
type Device interface {
	CreateSharedTexture(width, height uint32, format Format) (SharedTexture, error)
	// ReleaseResource drops one reference on a resource created by this device.
	ReleaseResource(h Handle)
	// RemovedReason reports a non-nil error once the device has been lost.
	RemovedReason() error
	Release()
}

// DeviceContext is the immediate context of a Device.
type DeviceContext interface {
	CopyResource(dst, src Handle)
	// Flush submits queued commands to the GPU.
	Flush()
	Release()
}

// Bridge is the D3D11On12 interop device used to wrap D3D12 resources.
type Bridge interface {
	WrapResource(native Handle, in, out ResourceState) (Handle, error)
	ReleaseWrapped(handles ...Handle)
	Release()
}

// Graphics acquires devices from a host's native device.
type Graphics interface {
	// OpenDevice takes a reference on an existing D3D11 device and returns
	// it with its immediate context.
	OpenDevice(native Handle) (Device, DeviceContext, error)
	// CreateBridge layers a D3D11 device over a D3D12 device. queue may be 0.
	CreateBridge(native, queue Handle, flags DeviceFlags) (Device, DeviceContext, Bridge, error)
}

func (h Handle) String() string {
	return fmt.Sprintf("0x%x", uintptr(h))
}
