//go:build windows

package d3d

import (
	"fmt"
	"unsafe"

	"github.com/breeze-rmm/spout2media/internal/gfx"
)

// d3d11ResourceFlags matches D3D11_RESOURCE_FLAGS.
type d3d11ResourceFlags struct {
	BindFlags           uint32
	MiscFlags           uint32
	CPUAccessFlags      uint32
	StructureByteStride uint32
}

// bridge wraps an ID3D11On12Device.
type bridge struct {
	ptr uintptr
}

// createOn12Device layers a D3D11 device over the host's D3D12 device. The
// host's direct queue is passed through when known so D3D11 work lands on
// the queue the host renders with.
func createOn12Device(d3d12, queue uintptr, flags gfx.DeviceFlags) (*device, *deviceContext, *bridge, error) {
	var dev, ctx uintptr
	var queues *uintptr
	numQueues := 0
	if queue != 0 {
		queues = &queue
		numQueues = 1
	}

	hr, _, _ := procD3D11On12CreateDevice.Call(
		d3d12,
		uintptr(flags),
		0, // pFeatureLevels (default)
		0,
		uintptr(unsafe.Pointer(queues)),
		uintptr(numQueues),
		0, // NodeMask
		uintptr(unsafe.Pointer(&dev)),
		uintptr(unsafe.Pointer(&ctx)),
		0, // pChosenFeatureLevel
	)
	if int32(hr) < 0 {
		return nil, nil, nil, fmt.Errorf("D3D11On12CreateDevice failed: 0x%08X", uint32(hr))
	}

	on12, err := queryInterface(dev, iidID3D11On12Device)
	if err != nil {
		comRelease(ctx)
		comRelease(dev)
		return nil, nil, nil, fmt.Errorf("QueryInterface ID3D11On12Device: %w", err)
	}
	return &device{ptr: dev}, &deviceContext{ptr: ctx}, &bridge{ptr: on12}, nil
}

// WrapResource exposes a D3D12 resource as an ID3D11Resource.
func (b *bridge) WrapResource(native gfx.Handle, in, out gfx.ResourceState) (gfx.Handle, error) {
	flags := d3d11ResourceFlags{}
	var wrapped uintptr
	if _, err := comCall(b.ptr, on12CreateWrappedResource,
		uintptr(native),
		uintptr(unsafe.Pointer(&flags)),
		uintptr(in),
		uintptr(out),
		uintptr(unsafe.Pointer(iidID3D11Resource)),
		uintptr(unsafe.Pointer(&wrapped)),
	); err != nil {
		return 0, fmt.Errorf("CreateWrappedResource: %w", err)
	}
	return gfx.Handle(wrapped), nil
}

// ReleaseWrapped hands the resources back to D3D12 and drops the wrapper
// references.
func (b *bridge) ReleaseWrapped(handles ...gfx.Handle) {
	if len(handles) == 0 {
		return
	}
	ptrs := make([]uintptr, len(handles))
	for i, h := range handles {
		ptrs[i] = uintptr(h)
	}
	comCallVoid(b.ptr, on12ReleaseWrappedResources,
		uintptr(unsafe.Pointer(&ptrs[0])),
		uintptr(len(ptrs)),
	)
	for _, p := range ptrs {
		comRelease(p)
	}
}

func (b *bridge) Release() {
	comRelease(b.ptr)
	b.ptr = 0
}

var _ gfx.Bridge = (*bridge)(nil)
