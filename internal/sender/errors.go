package sender

import (
	"errors"
	"fmt"

	"github.com/breeze-rmm/spout2media/internal/gfx"
)

// ErrDeviceLost is returned by Publish when the device was removed or reset
// while the frame was in flight. The context is unusable afterwards.
var ErrDeviceLost = errors.New("graphics device lost")

// ErrNilResource is wrapped in a ResourceWrapError when the host hands over
// a texture without a native resource.
var ErrNilResource = errors.New("texture has no native resource")

// DeviceAcquisitionError means the device, interop bridge or immediate
// context could not be obtained from the host backend.
type DeviceAcquisitionError struct {
	Backend gfx.Backend
	Err     error
}

func (e *DeviceAcquisitionError) Error() string {
	return fmt.Sprintf("acquire %s device: %v", e.Backend, e.Err)
}

func (e *DeviceAcquisitionError) Unwrap() error { return e.Err }

// SenderRegistrationError means the frame-sharing namespace rejected the
// sender (name collision, invalid name, no free slot).
type SenderRegistrationError struct {
	Name string
	Err  error
}

func (e *SenderRegistrationError) Error() string {
	return fmt.Sprintf("register sender %q: %v", e.Name, e.Err)
}

func (e *SenderRegistrationError) Unwrap() error { return e.Err }

// SharedTextureAllocError means the GPU could not allocate the shared
// sending texture.
type SharedTextureAllocError struct {
	Width, Height uint32
	Format        gfx.Format
	Err           error
}

func (e *SharedTextureAllocError) Error() string {
	return fmt.Sprintf("allocate shared texture %dx%d %s: %v", e.Width, e.Height, e.Format, e.Err)
}

func (e *SharedTextureAllocError) Unwrap() error { return e.Err }

// ResourceWrapError means a source texture could not be made usable on the
// D3D11 device. Only the current frame is affected.
type ResourceWrapError struct {
	Texture gfx.TextureID
	Err     error
}

func (e *ResourceWrapError) Error() string {
	return fmt.Sprintf("wrap texture %d: %v", e.Texture, e.Err)
}

func (e *ResourceWrapError) Unwrap() error { return e.Err }

// UnsupportedBackendError means the host renders with neither D3D11 nor D3D12.
type UnsupportedBackendError struct {
	Name string
}

func (e *UnsupportedBackendError) Error() string {
	return fmt.Sprintf("unsupported rendering backend %q", e.Name)
}
