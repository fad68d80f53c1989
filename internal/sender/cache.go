package sender

import (
	"github.com/breeze-rmm/spout2media/internal/gfx"
)

// interopScope owns the interop bridge together with every resource it has
// wrapped. Wrapped handles are only valid while the bridge lives, so both
// are dropped in one close call and the map is never shared between scopes.
type interopScope struct {
	bridge  gfx.Bridge
	wrapped map[gfx.TextureID]gfx.Handle
}

func newInteropScope(bridge gfx.Bridge) *interopScope {
	return &interopScope{
		bridge:  bridge,
		wrapped: make(map[gfx.TextureID]gfx.Handle),
	}
}

// resolve wraps each texture identity at most once. The wrap declares the
// resource as a copy source on entry and hands it back in the present state.
func (s *interopScope) resolve(tex gfx.Texture) (gfx.Handle, error) {
	id := tex.ID()
	if h, ok := s.wrapped[id]; ok {
		return h, nil
	}

	native := tex.NativeResource()
	if native == 0 {
		return 0, &ResourceWrapError{Texture: id, Err: ErrNilResource}
	}
	h, err := s.bridge.WrapResource(native, gfx.StateCopySource, gfx.StatePresent)
	if err != nil {
		return 0, &ResourceWrapError{Texture: id, Err: err}
	}
	s.wrapped[id] = h
	log.Debug("wrapped host texture", "texture", id, "handle", h)
	return h, nil
}

func (s *interopScope) len() int {
	return len(s.wrapped)
}

func (s *interopScope) close() {
	for id, h := range s.wrapped {
		s.bridge.ReleaseWrapped(h)
		delete(s.wrapped, id)
	}
	if s.bridge != nil {
		s.bridge.Release()
		s.bridge = nil
	}
}
