package d3d

import "github.com/breeze-rmm/spout2media/internal/gfx"

// FillPattern renders frame n of a scrolling BGRA test pattern into buf,
// which must hold height rows of width*4 bytes. A white bar sweeps across
// a diagonal gradient so receivers can see frames advance.
func FillPattern(buf []byte, width, height int, n uint64) {
	shift := int(n % 256)
	bar := int(n*4) % max(width, 1)
	for y := 0; y < height; y++ {
		row := buf[y*width*4 : (y+1)*width*4]
		for x := 0; x < width; x++ {
			p := row[x*4 : x*4+4]
			if x >= bar && x < bar+8 {
				p[0], p[1], p[2] = 0xff, 0xff, 0xff
			} else {
				p[0] = byte((x + shift) * 255 / max(width, 1))
				p[1] = byte(y * 255 / max(height, 1))
				p[2] = byte(shift)
			}
			p[3] = 0xff
		}
	}
}

// PatternFormat reports whether FillPattern output can be uploaded to a
// texture of format f.
func PatternFormat(f gfx.Format) bool {
	switch f {
	case gfx.FormatB8G8R8A8Unorm, gfx.FormatB8G8R8A8UnormSRGB,
		gfx.FormatR8G8B8A8Unorm, gfx.FormatR8G8B8A8UnormSRGB:
		return true
	}
	return false
}

// toRGBA swaps the blue and red channels in place.
func toRGBA(buf []byte) {
	for i := 0; i+3 < len(buf); i += 4 {
		buf[i], buf[i+2] = buf[i+2], buf[i]
	}
}

func isRGBA(f gfx.Format) bool {
	return f == gfx.FormatR8G8B8A8Unorm || f == gfx.FormatR8G8B8A8UnormSRGB
}
