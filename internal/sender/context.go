// Package sender publishes host textures as a Spout sender: it owns the
// D3D11 device (direct or bridged over D3D12), the shared sending texture and
// the namespace registration for one (name, size, format) configuration.
package sender

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/breeze-rmm/spout2media/internal/gfx"
	"github.com/breeze-rmm/spout2media/internal/logging"
)

var log = logging.L("sender")

// Namespace is the frame-sharing registry receivers look senders up in.
type Namespace interface {
	CreateSender(name string, width, height uint32, share gfx.Handle, format gfx.Format) error
	// UpdateSender refreshes the sender description and signals a new frame.
	UpdateSender(name string, width, height uint32, share gfx.Handle) error
	ReleaseSender(name string)
}

// Key is the configuration a Context was built for. Any difference means
// the Context has to be rebuilt, never mutated.
type Key struct {
	Name          string
	Width, Height uint32
	Format        gfx.Format
}

func (k Key) String() string {
	return fmt.Sprintf("%s %dx%d %s", k.Name, k.Width, k.Height, k.Format)
}

// KeyOf derives the configuration key for publishing tex under name.
func KeyOf(name string, tex gfx.Texture) Key {
	return Key{Name: name, Width: tex.Width(), Height: tex.Height(), Format: tex.Format()}
}

// Context is one live Spout sender. It is not safe for concurrent use; all
// calls belong on the render timeline.
type Context struct {
	key     Key
	adapter GraphicsBackendAdapter
	ns      Namespace
	shared  gfx.SharedTexture
	frames  uint64
	closed  bool
	log     *slog.Logger
}

// New acquires a device for the host backend, allocates the shared sending
// texture and registers key.Name with ns. On failure everything acquired so
// far is released and one of DeviceAcquisitionError, UnsupportedBackendError,
// SharedTextureAllocError or SenderRegistrationError is returned.
func New(key Key, rhi gfx.RHI, graphics gfx.Graphics, ns Namespace) (*Context, error) {
	if key.Width == 0 || key.Height == 0 {
		return nil, &SharedTextureAllocError{Width: key.Width, Height: key.Height, Format: key.Format, Err: errors.New("zero-sized texture")}
	}

	adapter, err := NewAdapter(rhi, graphics)
	if err != nil {
		return nil, err
	}

	shared, err := adapter.Device().CreateSharedTexture(key.Width, key.Height, key.Format)
	if err != nil {
		adapter.Close()
		return nil, &SharedTextureAllocError{Width: key.Width, Height: key.Height, Format: key.Format, Err: err}
	}

	if err := ns.CreateSender(key.Name, key.Width, key.Height, shared.ShareHandle, key.Format); err != nil {
		adapter.Device().ReleaseResource(shared.Texture)
		adapter.Close()
		return nil, &SenderRegistrationError{Name: key.Name, Err: err}
	}

	c := &Context{
		key:     key,
		adapter: adapter,
		ns:      ns,
		shared:  shared,
		log:     logging.WithSender(log, key.Name),
	}
	c.log.Info("sender created",
		"width", key.Width, "height", key.Height, "format", key.Format.String(),
		logging.KeyBackend, adapter.Backend().String(), "shareHandle", shared.ShareHandle.String())
	return c, nil
}

// Key returns the configuration this context serves.
func (c *Context) Key() Key { return c.key }

// Matches reports whether frames with key k can be published on c.
func (c *Context) Matches(k Key) bool { return c.key == k }

// Frames returns the number of frames published so far.
func (c *Context) Frames() uint64 { return c.frames }

// ShareHandle returns the cross-process handle of the sending texture.
func (c *Context) ShareHandle() gfx.Handle { return c.shared.ShareHandle }

// Adapter exposes the backend adapter the context was built with.
func (c *Context) Adapter() GraphicsBackendAdapter { return c.adapter }

// Publish copies tex into the sending texture, flushes the immediate
// context and only then tells the namespace a new frame is ready. Without a
// live device context the frame is silently dropped.
func (c *Context) Publish(tex gfx.Texture) error {
	if c == nil || c.closed || c.adapter == nil || c.adapter.Context() == nil {
		return nil
	}

	src, err := c.adapter.Resolve(tex)
	if err != nil {
		return err
	}

	dc := c.adapter.Context()
	dc.CopyResource(c.shared.Texture, src)
	dc.Flush()

	if reason := c.adapter.Device().RemovedReason(); reason != nil {
		return fmt.Errorf("publish %s: %w: %v", c.key.Name, ErrDeviceLost, reason)
	}

	if err := c.ns.UpdateSender(c.key.Name, c.key.Width, c.key.Height, c.shared.ShareHandle); err != nil {
		return fmt.Errorf("signal frame for %s: %w", c.key.Name, err)
	}
	c.frames++
	return nil
}

// Close unregisters the sender and releases the sending texture, the
// immediate context, wrapped resources, the bridge and the device. Calling
// Close again is a no-op.
func (c *Context) Close() {
	if c == nil || c.closed {
		return
	}
	c.closed = true

	c.ns.ReleaseSender(c.key.Name)
	if c.shared.Texture != 0 {
		c.adapter.Device().ReleaseResource(c.shared.Texture)
		c.shared = gfx.SharedTexture{}
	}
	c.adapter.Close()
	c.log.Info("sender closed", "frames", c.frames)
}
