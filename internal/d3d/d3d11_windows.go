//go:build windows

package d3d

import (
	"fmt"
	"unsafe"

	"github.com/go-ole/go-ole"

	"github.com/breeze-rmm/spout2media/internal/gfx"
)

var (
	iidIDXGIResource    = ole.NewGUID("{035F3AB4-482E-4E50-B41F-8A7F8BD8960B}")
	iidID3D11Resource   = ole.NewGUID("{DC8E63F3-D12B-4952-B47B-5E45026A862D}")
	iidID3D11On12Device = ole.NewGUID("{85611E73-70A9-490E-9614-A9E302777904}")
)

const (
	d3dDriverTypeHardware = 1
	d3dFeatureLevel11_0   = 0xb000
	d3d11SDKVersion       = 7

	d3d11UsageDefault       = 0
	d3d11BindShaderResource = 0x8
	d3d11BindRenderTarget   = 0x20
	d3d11ResourceMiscShared = 0x2

	// ID3D11Device
	d3d11DeviceCreateTexture2D        = 5
	d3d11DeviceGetDeviceRemovedReason = 39
	d3d11DeviceGetImmediateContext    = 40

	// ID3D11DeviceContext
	d3d11CtxCopyResource      = 47
	d3d11CtxUpdateSubresource = 48
	d3d11CtxFlush             = 111

	// IDXGIResource (IUnknown + IDXGIObject + IDXGIDeviceSubObject)
	dxgiResourceGetSharedHandle = 8

	// ID3D11On12Device
	on12CreateWrappedResource   = 3
	on12ReleaseWrappedResources = 4
)

// d3d11Texture2DDesc matches D3D11_TEXTURE2D_DESC.
type d3d11Texture2DDesc struct {
	Width          uint32
	Height         uint32
	MipLevels      uint32
	ArraySize      uint32
	Format         uint32
	SampleCount    uint32
	SampleQuality  uint32
	Usage          uint32
	BindFlags      uint32
	CPUAccessFlags uint32
	MiscFlags      uint32
}

// device wraps an ID3D11Device the sender holds one reference on.
type device struct {
	ptr uintptr
}

func (d *device) immediateContext() *deviceContext {
	var ctx uintptr
	comCallVoid(d.ptr, d3d11DeviceGetImmediateContext, uintptr(unsafe.Pointer(&ctx)))
	return &deviceContext{ptr: ctx}
}

// CreateSharedTexture creates a render-target texture other processes can
// open through the returned legacy shared handle.
func (d *device) CreateSharedTexture(width, height uint32, format gfx.Format) (gfx.SharedTexture, error) {
	desc := d3d11Texture2DDesc{
		Width:       width,
		Height:      height,
		MipLevels:   1,
		ArraySize:   1,
		Format:      uint32(format),
		SampleCount: 1,
		Usage:       d3d11UsageDefault,
		BindFlags:   d3d11BindRenderTarget | d3d11BindShaderResource,
		MiscFlags:   d3d11ResourceMiscShared,
	}
	var tex uintptr
	if _, err := comCall(d.ptr, d3d11DeviceCreateTexture2D,
		uintptr(unsafe.Pointer(&desc)),
		0,
		uintptr(unsafe.Pointer(&tex)),
	); err != nil {
		return gfx.SharedTexture{}, fmt.Errorf("CreateTexture2D: %w", err)
	}

	res, err := queryInterface(tex, iidIDXGIResource)
	if err != nil {
		comRelease(tex)
		return gfx.SharedTexture{}, fmt.Errorf("QueryInterface IDXGIResource: %w", err)
	}
	defer comRelease(res)

	var share uintptr
	if _, err := comCall(res, dxgiResourceGetSharedHandle, uintptr(unsafe.Pointer(&share))); err != nil {
		comRelease(tex)
		return gfx.SharedTexture{}, fmt.Errorf("IDXGIResource::GetSharedHandle: %w", err)
	}
	return gfx.SharedTexture{Texture: gfx.Handle(tex), ShareHandle: gfx.Handle(share)}, nil
}

func (d *device) ReleaseResource(h gfx.Handle) {
	comRelease(uintptr(h))
}

func (d *device) RemovedReason() error {
	if d.ptr == 0 {
		return nil
	}
	_, err := comCall(d.ptr, d3d11DeviceGetDeviceRemovedReason)
	return err
}

func (d *device) Release() {
	comRelease(d.ptr)
	d.ptr = 0
}

type deviceContext struct {
	ptr uintptr
}

func (c *deviceContext) CopyResource(dst, src gfx.Handle) {
	comCallVoid(c.ptr, d3d11CtxCopyResource, uintptr(dst), uintptr(src))
}

func (c *deviceContext) Flush() {
	comCallVoid(c.ptr, d3d11CtxFlush)
}

func (c *deviceContext) updateSubresource(dst uintptr, data []byte, rowPitch uint32) {
	comCallVoid(c.ptr, d3d11CtxUpdateSubresource,
		dst,
		0, // DstSubresource
		0, // pDstBox (whole resource)
		uintptr(unsafe.Pointer(&data[0])),
		uintptr(rowPitch),
		0,
	)
}

func (c *deviceContext) Release() {
	comRelease(c.ptr)
	c.ptr = 0
}

var (
	_ gfx.Device        = (*device)(nil)
	_ gfx.DeviceContext = (*deviceContext)(nil)
)
