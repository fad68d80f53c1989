package sender

import (
	"errors"
	"strings"
	"testing"

	"github.com/breeze-rmm/spout2media/internal/gfx"
	"github.com/breeze-rmm/spout2media/internal/sender/sendertest"
)

func newFixture(backend string) (*sendertest.Recorder, *sendertest.Graphics, *sendertest.Namespace, sendertest.RHI) {
	rec := &sendertest.Recorder{}
	return rec, sendertest.NewGraphics(rec), sendertest.NewNamespace(rec),
		sendertest.RHI{Backend: backend, Device: 0xd3d, Queue: 0x9e}
}

func hdTexture(id gfx.TextureID) sendertest.Texture {
	return sendertest.Texture{Identity: id, Native: gfx.Handle(0x5000 + uint64(id)*0x100), W: 1920, H: 1080, Fmt: gfx.FormatB8G8R8A8Unorm}
}

func TestNewD3D11RegistersSender(t *testing.T) {
	rec, g, ns, rhi := newFixture("D3D11")
	tex := hdTexture(1)

	c, err := New(KeyOf("A", tex), rhi, g, ns)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()

	if g.Opened() != 1 || g.Bridged() != 0 {
		t.Fatalf("opened=%d bridged=%d, want 1/0", g.Opened(), g.Bridged())
	}
	share, ok := ns.Share("A")
	if !ok {
		t.Fatal("sender A not registered")
	}
	if share == 0 || c.ShareHandle() != share {
		t.Fatalf("ShareHandle() = %v, registered %v", c.ShareHandle(), share)
	}
	if c.Adapter().Backend() != gfx.BackendD3D11 {
		t.Fatalf("backend = %v", c.Adapter().Backend())
	}
	if rec.Index("device.create_texture 1920x1080", 0) > rec.Index("ns.create A", 0) {
		t.Fatalf("texture must exist before registration: %v", rec.Events())
	}
}

func TestNewD3D12CreatesBridgeWithQueue(t *testing.T) {
	_, g, ns, rhi := newFixture("D3D12")
	c, err := New(KeyOf("A", hdTexture(1)), rhi, g, ns)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()

	if g.Bridged() != 1 || g.Opened() != 0 {
		t.Fatalf("opened=%d bridged=%d, want 0/1", g.Opened(), g.Bridged())
	}
	if len(g.Queues) != 1 || g.Queues[0] != 0x9e {
		t.Fatalf("bridge queues = %v", g.Queues)
	}
}

func TestNewUnsupportedBackend(t *testing.T) {
	rec, g, ns, rhi := newFixture("Vulkan")
	_, err := New(KeyOf("A", hdTexture(1)), rhi, g, ns)

	var ube *UnsupportedBackendError
	if !errors.As(err, &ube) {
		t.Fatalf("err = %v, want UnsupportedBackendError", err)
	}
	if ube.Name != "Vulkan" {
		t.Fatalf("Name = %q", ube.Name)
	}
	if len(rec.Events()) != 0 {
		t.Fatalf("unsupported backend must not touch devices: %v", rec.Events())
	}
}

func TestNewDeviceAcquisitionFailure(t *testing.T) {
	for _, backend := range []string{"D3D11", "D3D12"} {
		t.Run(backend, func(t *testing.T) {
			_, g, ns, rhi := newFixture(backend)
			g.OpenErr = errors.New("no device")
			g.BridgeErr = errors.New("no bridge")

			_, err := New(KeyOf("A", hdTexture(1)), rhi, g, ns)
			var dae *DeviceAcquisitionError
			if !errors.As(err, &dae) {
				t.Fatalf("err = %v, want DeviceAcquisitionError", err)
			}
			if dae.Backend.String() != backend {
				t.Fatalf("Backend = %v, want %s", dae.Backend, backend)
			}
			if ns.Registered("A") {
				t.Fatal("sender registered despite device failure")
			}
		})
	}
}

func TestNewNilNativeDevice(t *testing.T) {
	_, g, ns, rhi := newFixture("D3D11")
	rhi.Device = 0
	_, err := New(KeyOf("A", hdTexture(1)), rhi, g, ns)
	var dae *DeviceAcquisitionError
	if !errors.As(err, &dae) {
		t.Fatalf("err = %v, want DeviceAcquisitionError", err)
	}
	if g.Opened() != 0 {
		t.Fatal("OpenDevice called with a nil native device")
	}
}

func TestNewAllocFailureReleasesDevice(t *testing.T) {
	rec, g, ns, rhi := newFixture("D3D12")
	g.AllocErr = errors.New("out of memory")

	_, err := New(KeyOf("A", hdTexture(1)), rhi, g, ns)
	var sae *SharedTextureAllocError
	if !errors.As(err, &sae) {
		t.Fatalf("err = %v, want SharedTextureAllocError", err)
	}
	for _, ev := range []string{"ctx.release", "bridge.release", "device.release"} {
		if rec.Count(ev) != 1 {
			t.Fatalf("%s count = %d: %v", ev, rec.Count(ev), rec.Events())
		}
	}
	if rec.Count("ns.create A") != 0 {
		t.Fatal("sender registered despite alloc failure")
	}
}

func TestNewRegistrationFailureReleasesEverything(t *testing.T) {
	rec, g, ns, rhi := newFixture("D3D11")
	ns.CreateErr = errors.New("name taken")

	_, err := New(KeyOf("A", hdTexture(1)), rhi, g, ns)
	var sre *SenderRegistrationError
	if !errors.As(err, &sre) {
		t.Fatalf("err = %v, want SenderRegistrationError", err)
	}
	if !strings.Contains(err.Error(), `"A"`) {
		t.Fatalf("error should name the sender: %v", err)
	}
	for _, ev := range []string{"device.release_texture", "ctx.release", "device.release"} {
		if rec.Count(ev) != 1 {
			t.Fatalf("%s count = %d: %v", ev, rec.Count(ev), rec.Events())
		}
	}
}

func TestNewZeroSize(t *testing.T) {
	_, g, ns, rhi := newFixture("D3D11")
	_, err := New(Key{Name: "A", Format: gfx.FormatB8G8R8A8Unorm}, rhi, g, ns)
	var sae *SharedTextureAllocError
	if !errors.As(err, &sae) {
		t.Fatalf("err = %v, want SharedTextureAllocError", err)
	}
	if g.Opened() != 0 {
		t.Fatal("device opened for a zero-sized sender")
	}
}

func TestPublishFlushesBeforeSignal(t *testing.T) {
	for _, backend := range []string{"D3D11", "D3D12"} {
		t.Run(backend, func(t *testing.T) {
			rec, g, ns, rhi := newFixture(backend)
			tex := hdTexture(1)
			c, err := New(KeyOf("A", tex), rhi, g, ns)
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			defer c.Close()

			for frame := 0; frame < 3; frame++ {
				start := len(rec.Events())
				if err := c.Publish(tex); err != nil {
					t.Fatalf("Publish %d: %v", frame, err)
				}
				flush := rec.Index("ctx.flush", start)
				signal := rec.Index("ns.update A", start)
				if flush < 0 || signal < 0 || flush > signal {
					t.Fatalf("frame %d: flush at %d, signal at %d: %v", frame, flush, signal, rec.Events()[start:])
				}
			}
			if c.Frames() != 3 {
				t.Fatalf("Frames = %d, want 3", c.Frames())
			}
		})
	}
}

func TestPublishD3D11UsesNativeHandle(t *testing.T) {
	rec, g, ns, rhi := newFixture("D3D11")
	tex := hdTexture(2)
	c, _ := New(KeyOf("A", tex), rhi, g, ns)
	defer c.Close()

	if err := c.Publish(tex); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if rec.Count("ctx.copy "+tex.Native.String()) != 1 {
		t.Fatalf("expected copy from the native handle: %v", rec.Events())
	}
}

func TestBridgedWrapCache(t *testing.T) {
	rec, g, ns, rhi := newFixture("D3D12")
	t1, t2 := hdTexture(1), hdTexture(2)
	c, err := New(KeyOf("A", t1), rhi, g, ns)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()
	adapter := c.Adapter().(*BridgedAdapter)

	h1, err := adapter.Resolve(t1)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	h1again, _ := adapter.Resolve(t1)
	if h1 != h1again {
		t.Fatalf("cache miss on identical texture: %v != %v", h1, h1again)
	}

	steps := []struct {
		tex   sendertest.Texture
		wraps int
	}{{t1, 1}, {t1, 1}, {t2, 2}}
	for i, s := range steps {
		if err := c.Publish(s.tex); err != nil {
			t.Fatalf("frame %d: %v", i, err)
		}
		if got := adapter.Wrapped(); got != s.wraps {
			t.Fatalf("frame %d: wrapped = %d, want %d", i, got, s.wraps)
		}
	}
	if n := rec.Count("bridge.wrap " + t1.Native.String()); n != 1 {
		t.Fatalf("T1 wrapped %d times", n)
	}
}

func TestPublishWrapFailureKeepsContext(t *testing.T) {
	rec, g, ns, rhi := newFixture("D3D12")
	tex := hdTexture(1)
	c, _ := New(KeyOf("A", tex), rhi, g, ns)
	defer c.Close()

	g.WrapErr = errors.New("E_INVALIDARG")
	err := c.Publish(tex)
	var rwe *ResourceWrapError
	if !errors.As(err, &rwe) || rwe.Texture != 1 {
		t.Fatalf("err = %v, want ResourceWrapError for texture 1", err)
	}
	if rec.Count("ns.update A") != 0 {
		t.Fatal("frame signalled despite wrap failure")
	}

	g.WrapErr = nil
	if err := c.Publish(tex); err != nil {
		t.Fatalf("Publish after recovery: %v", err)
	}
}

func TestPublishNilNativeResource(t *testing.T) {
	_, g, ns, rhi := newFixture("D3D11")
	tex := hdTexture(1)
	c, _ := New(KeyOf("A", tex), rhi, g, ns)
	defer c.Close()

	tex.Native = 0
	if err := c.Publish(tex); !errors.Is(err, ErrNilResource) {
		t.Fatalf("err = %v, want ErrNilResource", err)
	}
}

func TestPublishDeviceLost(t *testing.T) {
	rec, g, ns, rhi := newFixture("D3D11")
	tex := hdTexture(1)
	c, _ := New(KeyOf("A", tex), rhi, g, ns)
	defer c.Close()

	g.DeviceLost = errors.New("DXGI_ERROR_DEVICE_REMOVED")
	if err := c.Publish(tex); !errors.Is(err, ErrDeviceLost) {
		t.Fatalf("err = %v, want ErrDeviceLost", err)
	}
	if rec.Count("ns.update A") != 0 {
		t.Fatal("frame signalled on a lost device")
	}
}

func TestPublishAfterCloseIsNoop(t *testing.T) {
	rec, g, ns, rhi := newFixture("D3D11")
	tex := hdTexture(1)
	c, _ := New(KeyOf("A", tex), rhi, g, ns)
	c.Close()
	rec.Reset()

	if err := c.Publish(tex); err != nil {
		t.Fatalf("Publish after Close: %v", err)
	}
	if len(rec.Events()) != 0 {
		t.Fatalf("closed context touched the device: %v", rec.Events())
	}

	var nilCtx *Context
	if err := nilCtx.Publish(tex); err != nil {
		t.Fatalf("nil Publish: %v", err)
	}
	nilCtx.Close()
}

func TestCloseReleasesInDependencyOrder(t *testing.T) {
	rec, g, ns, rhi := newFixture("D3D12")
	t1, t2 := hdTexture(1), hdTexture(2)
	c, _ := New(KeyOf("A", t1), rhi, g, ns)
	c.Publish(t1)
	c.Publish(t2)
	rec.Reset()

	c.Close()
	c.Close()

	want := []string{
		"ns.release A",
		"device.release_texture",
		"ctx.release",
		"bridge.release_wrapped",
		"bridge.release_wrapped",
		"bridge.release",
		"device.release",
	}
	got := rec.Events()
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("release order:\n got %v\nwant %v", got, want)
	}
	if ns.Registered("A") {
		t.Fatal("sender still registered after Close")
	}
}

func TestKeyMatching(t *testing.T) {
	k := Key{Name: "A", Width: 1920, Height: 1080, Format: gfx.FormatB8G8R8A8Unorm}
	variants := []Key{
		{Name: "B", Width: 1920, Height: 1080, Format: gfx.FormatB8G8R8A8Unorm},
		{Name: "A", Width: 1280, Height: 1080, Format: gfx.FormatB8G8R8A8Unorm},
		{Name: "A", Width: 1920, Height: 720, Format: gfx.FormatB8G8R8A8Unorm},
		{Name: "A", Width: 1920, Height: 1080, Format: gfx.FormatR16G16B16A16Float},
	}
	c := &Context{key: k}
	if !c.Matches(k) {
		t.Fatal("identical key should match")
	}
	for _, v := range variants {
		if c.Matches(v) {
			t.Fatalf("%v should not match %v", v, k)
		}
	}
	if got := k.String(); got != "A 1920x1080 B8G8R8A8_UNORM" {
		t.Fatalf("String = %q", got)
	}
}
