package gfx

import "fmt"

// Format is a DXGI_FORMAT value.
type Format uint32

const (
	FormatUnknown           Format = 0
	FormatR16G16B16A16Float Format = 10
	FormatR10G10B10A2Unorm  Format = 24
	FormatR8G8B8A8Unorm     Format = 28
	FormatR8G8B8A8UnormSRGB Format = 29
	FormatB8G8R8A8Unorm     Format = 87
	FormatB8G8R8A8UnormSRGB Format = 91
	FormatR32G32B32A32Float Format = 2
)

var formatNames = map[Format]string{
	FormatUnknown:           "UNKNOWN",
	FormatR32G32B32A32Float: "R32G32B32A32_FLOAT",
	FormatR16G16B16A16Float: "R16G16B16A16_FLOAT",
	FormatR10G10B10A2Unorm:  "R10G10B10A2_UNORM",
	FormatR8G8B8A8Unorm:     "R8G8B8A8_UNORM",
	FormatR8G8B8A8UnormSRGB: "R8G8B8A8_UNORM_SRGB",
	FormatB8G8R8A8Unorm:     "B8G8R8A8_UNORM",
	FormatB8G8R8A8UnormSRGB: "B8G8R8A8_UNORM_SRGB",
}

func (f Format) String() string {
	if name, ok := formatNames[f]; ok {
		return name
	}
	return fmt.Sprintf("DXGI_FORMAT(%d)", uint32(f))
}

// Shareable reports whether receivers can open a shared texture of this
// format. Spout receivers only handle 8-bit RGBA/BGRA and the float formats.
func (f Format) Shareable() bool {
	_, ok := formatNames[f]
	return ok && f != FormatUnknown
}

// ParseFormat accepts the DXGI name with or without the DXGI_FORMAT_ prefix.
func ParseFormat(s string) (Format, error) {
	for f, name := range formatNames {
		if s == name || s == "DXGI_FORMAT_"+name {
			if f == FormatUnknown {
				break
			}
			return f, nil
		}
	}
	return FormatUnknown, fmt.Errorf("unsupported pixel format %q", s)
}
