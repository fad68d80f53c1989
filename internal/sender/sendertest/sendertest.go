// Package sendertest provides recording doubles of the graphics backend and
// the frame-sharing namespace for tests of the sender and capture packages.
package sendertest

import (
	"errors"
	"fmt"
	"sync"

	"github.com/breeze-rmm/spout2media/internal/gfx"
)

// Recorder collects calls across all doubles in the order they happen.
type Recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *Recorder) add(format string, args ...any) {
	r.mu.Lock()
	r.events = append(r.events, fmt.Sprintf(format, args...))
	r.mu.Unlock()
}

// Events returns a copy of the recorded calls.
func (r *Recorder) Events() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

// Count returns how many recorded calls equal event.
func (r *Recorder) Count(event string) int {
	n := 0
	for _, e := range r.Events() {
		if e == event {
			n++
		}
	}
	return n
}

// Index returns the position of the first event equal to event at or after
// from, or -1.
func (r *Recorder) Index(event string, from int) int {
	events := r.Events()
	for i := from; i < len(events); i++ {
		if events[i] == event {
			return i
		}
	}
	return -1
}

// Reset drops all recorded calls.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.events = nil
	r.mu.Unlock()
}

// RHI is a fixed host backend description.
type RHI struct {
	Backend string
	Device  gfx.Handle
	Queue   gfx.Handle
}

func (r RHI) Name() string                   { return r.Backend }
func (r RHI) NativeDevice() gfx.Handle       { return r.Device }
func (r RHI) NativeCommandQueue() gfx.Handle { return r.Queue }

// Texture is a host texture double.
type Texture struct {
	Identity gfx.TextureID
	Native   gfx.Handle
	W, H     uint32
	Fmt      gfx.Format
}

func (t Texture) ID() gfx.TextureID          { return t.Identity }
func (t Texture) NativeResource() gfx.Handle { return t.Native }
func (t Texture) Width() uint32              { return t.W }
func (t Texture) Height() uint32             { return t.H }
func (t Texture) Format() gfx.Format         { return t.Fmt }

// Graphics hands out recording devices. Error fields make the matching step
// fail; DeviceLost makes RemovedReason report a lost device.
type Graphics struct {
	Rec        *Recorder
	OpenErr    error
	BridgeErr  error
	AllocErr   error
	WrapErr    error
	DeviceLost error

	mu      sync.Mutex
	next    gfx.Handle
	opened  int
	bridged int
	Queues  []gfx.Handle
}

// NewGraphics returns a Graphics recording into rec.
func NewGraphics(rec *Recorder) *Graphics {
	return &Graphics{Rec: rec, next: 0x1000}
}

func (g *Graphics) handle() gfx.Handle {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.next += 0x10
	return g.next
}

// Opened returns how many direct devices were opened.
func (g *Graphics) Opened() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.opened
}

// Bridged returns how many bridge devices were created.
func (g *Graphics) Bridged() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.bridged
}

func (g *Graphics) OpenDevice(native gfx.Handle) (gfx.Device, gfx.DeviceContext, error) {
	g.Rec.add("graphics.open")
	if g.OpenErr != nil {
		return nil, nil, g.OpenErr
	}
	g.mu.Lock()
	g.opened++
	g.mu.Unlock()
	return &Device{g: g}, &DeviceContext{rec: g.Rec}, nil
}

func (g *Graphics) CreateBridge(native, queue gfx.Handle, flags gfx.DeviceFlags) (gfx.Device, gfx.DeviceContext, gfx.Bridge, error) {
	g.Rec.add("graphics.bridge")
	if g.BridgeErr != nil {
		return nil, nil, nil, g.BridgeErr
	}
	if flags&gfx.DeviceBGRASupport == 0 {
		return nil, nil, nil, errors.New("bridge requires BGRA support")
	}
	g.mu.Lock()
	g.bridged++
	g.Queues = append(g.Queues, queue)
	g.mu.Unlock()
	return &Device{g: g}, &DeviceContext{rec: g.Rec}, &Bridge{g: g}, nil
}

// Device is a recording D3D11 device.
type Device struct {
	g        *Graphics
	released bool
}

func (d *Device) CreateSharedTexture(width, height uint32, format gfx.Format) (gfx.SharedTexture, error) {
	d.g.Rec.add("device.create_texture %dx%d", width, height)
	if d.g.AllocErr != nil {
		return gfx.SharedTexture{}, d.g.AllocErr
	}
	return gfx.SharedTexture{Texture: d.g.handle(), ShareHandle: d.g.handle()}, nil
}

func (d *Device) ReleaseResource(h gfx.Handle) {
	d.g.Rec.add("device.release_texture")
}

func (d *Device) RemovedReason() error {
	return d.g.DeviceLost
}

func (d *Device) Release() {
	if d.released {
		d.g.Rec.add("device.double_release")
		return
	}
	d.released = true
	d.g.Rec.add("device.release")
}

// DeviceContext is a recording immediate context.
type DeviceContext struct {
	rec      *Recorder
	released bool
}

func (c *DeviceContext) CopyResource(dst, src gfx.Handle) {
	c.rec.add("ctx.copy %s", src)
}

func (c *DeviceContext) Flush() {
	c.rec.add("ctx.flush")
}

func (c *DeviceContext) Release() {
	if c.released {
		c.rec.add("ctx.double_release")
		return
	}
	c.released = true
	c.rec.add("ctx.release")
}

// Bridge is a recording interop bridge.
type Bridge struct {
	g        *Graphics
	wraps    int
	released bool
}

func (b *Bridge) WrapResource(native gfx.Handle, in, out gfx.ResourceState) (gfx.Handle, error) {
	b.g.Rec.add("bridge.wrap %s", native)
	if b.g.WrapErr != nil {
		return 0, b.g.WrapErr
	}
	if in != gfx.StateCopySource || out != gfx.StatePresent {
		return 0, fmt.Errorf("unexpected wrap states %#x -> %#x", in, out)
	}
	b.wraps++
	return native + 1, nil
}

func (b *Bridge) ReleaseWrapped(handles ...gfx.Handle) {
	for range handles {
		b.g.Rec.add("bridge.release_wrapped")
	}
}

func (b *Bridge) Release() {
	if b.released {
		b.g.Rec.add("bridge.double_release")
		return
	}
	b.released = true
	b.g.Rec.add("bridge.release")
}

// Namespace is a recording frame-sharing namespace.
type Namespace struct {
	Rec       *Recorder
	CreateErr error
	UpdateErr error

	mu      sync.Mutex
	senders map[string]gfx.Handle
}

// NewNamespace returns a Namespace recording into rec.
func NewNamespace(rec *Recorder) *Namespace {
	return &Namespace{Rec: rec, senders: make(map[string]gfx.Handle)}
}

func (n *Namespace) CreateSender(name string, width, height uint32, share gfx.Handle, format gfx.Format) error {
	n.Rec.add("ns.create %s", name)
	if n.CreateErr != nil {
		return n.CreateErr
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	if _, ok := n.senders[name]; ok {
		return fmt.Errorf("sender %q already exists", name)
	}
	n.senders[name] = share
	return nil
}

func (n *Namespace) UpdateSender(name string, width, height uint32, share gfx.Handle) error {
	n.Rec.add("ns.update %s", name)
	return n.UpdateErr
}

func (n *Namespace) ReleaseSender(name string) {
	n.Rec.add("ns.release %s", name)
	n.mu.Lock()
	delete(n.senders, name)
	n.mu.Unlock()
}

// Registered reports whether name is currently registered.
func (n *Namespace) Registered(name string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	_, ok := n.senders[name]
	return ok
}

// Share returns the share handle name was registered with.
func (n *Namespace) Share(name string) (gfx.Handle, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	h, ok := n.senders[name]
	return h, ok
}
