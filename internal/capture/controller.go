// Package capture drives a sender from the host's media capture lifecycle:
// it starts and stops capturing, builds a sender context lazily on the first
// frame and rebuilds it whenever the frame configuration changes.
package capture

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/breeze-rmm/spout2media/internal/gfx"
	"github.com/breeze-rmm/spout2media/internal/health"
	"github.com/breeze-rmm/spout2media/internal/logging"
	"github.com/breeze-rmm/spout2media/internal/renderq"
	"github.com/breeze-rmm/spout2media/internal/sender"
)

var log = logging.L("capture")

// State is the capture state reported to the host.
type State int32

const (
	StateIdle State = iota
	StateCapturing
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateCapturing:
		return "capturing"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// StateReporter receives state transitions, typically the host's capture
// framework.
type StateReporter interface {
	SetState(State)
}

// Scheduler queues work onto the render timeline.
type Scheduler interface {
	Submit(task renderq.Task) bool
}

// Frame is one captured frame delivered by the host.
type Frame struct {
	Number  uint64
	Texture gfx.Texture
}

// InitError reports that a sender context could not be built for a frame.
// The controller holds no context afterwards and retries on the next frame.
type InitError struct {
	Key sender.Key
	Err error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("capture initialization failed for %s: %v", e.Key, e.Err)
}

func (e *InitError) Unwrap() error { return e.Err }

// Options wire a Controller to the host and the namespace.
type Options struct {
	Output    Output
	RHI       gfx.RHI
	Graphics  gfx.Graphics
	Namespace sender.Namespace
	// Reporter and Health are optional.
	Reporter StateReporter
	Health   *health.Monitor
	// Scheduler receives teardown work from Stop. Nil runs it inline, which
	// is only safe when Stop is called on the render timeline.
	// With a scheduler, teardown never runs off the render timeline: if the
	// queue rejects it, the next OnFrame performs it before anything else.
	Scheduler Scheduler
}

// Stats are cumulative counters, safe to read from any goroutine.
type Stats struct {
	Constructions uint64
	Destructions  uint64
	Published     uint64
	Dropped       uint64
	InitFailures  uint64
}

// Controller owns at most one sender.Context at a time. OnFrame must be
// called from the render timeline; Start, Stop, State and Stats may be
// called from any goroutine.
type Controller struct {
	opts Options

	mu     sync.Mutex
	state  State
	output Output

	// render timeline only
	current *sender.Context
	// set by Stop, consumed on the render timeline
	teardownPending atomic.Bool

	constructions atomic.Uint64
	destructions  atomic.Uint64
	published     atomic.Uint64
	dropped       atomic.Uint64
	initFailures  atomic.Uint64
}

// New returns an idle controller.
func New(opts Options) *Controller {
	return &Controller{opts: opts, output: opts.Output}
}

// Start validates the output and begins capturing. The sender itself is
// created on the first frame.
func (c *Controller) Start() error {
	c.mu.Lock()
	if err := c.output.Validate(); err != nil {
		c.mu.Unlock()
		return fmt.Errorf("invalid media output: %w", err)
	}
	if c.state == StateCapturing {
		c.mu.Unlock()
		return nil
	}
	c.state = StateCapturing
	name := c.output.SenderName
	c.mu.Unlock()

	log.Info("capture started", logging.KeySender, name)
	c.report(StateCapturing)
	return nil
}

// Stop ends capturing and schedules destruction of the held context. It is
// safe to call repeatedly and without a prior Start.
func (c *Controller) Stop() {
	c.mu.Lock()
	c.state = StateStopped
	c.mu.Unlock()

	if c.opts.Scheduler == nil {
		c.teardown()
	} else {
		c.teardownPending.Store(true)
		if !c.opts.Scheduler.Submit(c.pendingTeardown) {
			log.Warn("render queue rejected teardown, deferring it to the next frame")
		}
	}
	log.Info("capture stopped")
	c.report(StateStopped)
}

// SetOutput changes the sender name. The next frame rebuilds the context.
func (c *Controller) SetOutput(o Output) error {
	if err := o.Validate(); err != nil {
		return err
	}
	c.mu.Lock()
	c.output = o
	c.mu.Unlock()
	return nil
}

func (c *Controller) Output() Output {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.output
}

// State returns the current capture state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) Stats() Stats {
	return Stats{
		Constructions: c.constructions.Load(),
		Destructions:  c.destructions.Load(),
		Published:     c.published.Load(),
		Dropped:       c.dropped.Load(),
		InitFailures:  c.initFailures.Load(),
	}
}

// OnFrame publishes f, rebuilding the sender first when the frame's name,
// size or format differ from the held context. Frames arriving outside
// the capturing state are dropped.
func (c *Controller) OnFrame(f Frame) error {
	c.pendingTeardown()

	c.mu.Lock()
	state, name := c.state, c.output.SenderName
	c.mu.Unlock()

	if state != StateCapturing || f.Texture == nil {
		c.dropped.Add(1)
		return nil
	}

	key := sender.KeyOf(name, f.Texture)
	if c.current == nil || !c.current.Matches(key) {
		if c.current != nil {
			log.Info("sender configuration changed, rebuilding",
				"from", c.current.Key().String(), "to", key.String())
			c.teardown()
		}
		ctx, err := sender.New(key, c.opts.RHI, c.opts.Graphics, c.opts.Namespace)
		if err != nil {
			c.initFailures.Add(1)
			c.dropped.Add(1)
			log.Error("sender construction failed", logging.KeySender, name, logging.KeyError, err)
			c.setHealth(health.ComponentSender, health.Unhealthy, err.Error())
			return &InitError{Key: key, Err: err}
		}
		c.current = ctx
		c.constructions.Add(1)
		log.Info("sender built", logging.KeySender, name, "shareHandle", ctx.ShareHandle().String())
		c.setHealth(health.ComponentDevice, health.Healthy, "")
	}

	if err := c.current.Publish(f.Texture); err != nil {
		c.dropped.Add(1)
		if errors.Is(err, sender.ErrDeviceLost) {
			log.Error("device lost, discarding sender", logging.KeySender, name, logging.KeyError, err)
			c.setHealth(health.ComponentDevice, health.Unhealthy, err.Error())
			c.teardown()
		} else {
			log.Warn("frame dropped", logging.KeySender, name, logging.KeyFrame, f.Number, logging.KeyError, err)
			c.setHealth(health.ComponentSender, health.Degraded, err.Error())
		}
		return err
	}
	c.published.Add(1)
	c.setHealth(health.ComponentSender, health.Healthy, "")
	return nil
}

// Close destroys any held context inline. Call it only once the render
// timeline has stopped, e.g. after the render queue has shut down.
func (c *Controller) Close() {
	c.teardownPending.Store(false)
	c.teardown()
}

func (c *Controller) pendingTeardown() {
	if c.teardownPending.CompareAndSwap(true, false) {
		c.teardown()
	}
}

// teardown runs on the render timeline.
func (c *Controller) teardown() {
	if c.current == nil {
		return
	}
	c.current.Close()
	c.current = nil
	c.destructions.Add(1)
}

func (c *Controller) setHealth(component string, s health.Status, msg string) {
	if c.opts.Health != nil {
		c.opts.Health.Update(component, s, msg)
	}
}

func (c *Controller) report(s State) {
	if c.opts.Reporter != nil {
		c.opts.Reporter.SetState(s)
	}
}
