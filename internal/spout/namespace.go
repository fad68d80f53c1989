// Package spout implements the sender side of the Spout 2 frame-sharing
// namespace: the shared sender list, the active sender slot, each sender's
// SharedTextureInfo map and its frame counter.
package spout

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/breeze-rmm/spout2media/internal/gfx"
	"github.com/breeze-rmm/spout2media/internal/logging"
)

var log = logging.L("spout")

// Well-known map names shared with every Spout application.
const (
	SenderNamesMap  = "SpoutSenderNames"
	ActiveSenderMap = "ActiveSenderName"

	DefaultMaxSenders = 64
)

func countSemaphoreName(sender string) string {
	return sender + "_Count_Semaphore"
}

// Options configure a Namespace.
type Options struct {
	// MaxSenders is the capacity of the shared sender list.
	MaxSenders int
	// HostPath is written into each sender's description. Empty means
	// HostPath() is used.
	HostPath string
}

// Namespace registers and updates senders owned by this process. It is safe
// for concurrent use.
type Namespace struct {
	mapper Mapper
	opts   Options

	mu      sync.Mutex
	names   Region
	active  Region
	senders map[string]*senderEntry
}

type senderEntry struct {
	info   Region
	frames Semaphore
	desc   SenderInfo
	count  uint64
}

// NewNamespace opens (creating if needed) the shared sender list and active
// sender slot through m.
func NewNamespace(m Mapper, opts Options) (*Namespace, error) {
	if opts.MaxSenders <= 0 {
		opts.MaxSenders = DefaultMaxSenders
	}
	if opts.HostPath == "" {
		opts.HostPath = HostPath()
	}

	names, err := m.Create(SenderNamesMap, opts.MaxSenders*MaxNameLen)
	if err != nil {
		return nil, fmt.Errorf("open sender list: %w", err)
	}
	active, err := m.Create(ActiveSenderMap, MaxNameLen)
	if err != nil {
		names.Close()
		return nil, fmt.Errorf("open active sender slot: %w", err)
	}

	return &Namespace{
		mapper:  m,
		opts:    opts,
		names:   names,
		active:  active,
		senders: make(map[string]*senderEntry),
	}, nil
}

// CreateSender adds name to the sender list and publishes its description.
// The first sender registered while no active sender exists becomes active.
func (n *Namespace) CreateSender(name string, width, height uint32, share gfx.Handle, format gfx.Format) error {
	if _, err := encodeName(name); err != nil {
		return err
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	if err := n.register(name); err != nil {
		return err
	}

	info, err := n.mapper.Create(name, InfoSize)
	if err != nil {
		n.unregister(name)
		return fmt.Errorf("create sender info map: %w", err)
	}
	frames, err := n.mapper.Semaphore(countSemaphoreName(name))
	if err != nil {
		info.Close()
		n.unregister(name)
		return fmt.Errorf("create frame counter: %w", err)
	}

	e := &senderEntry{
		info:   info,
		frames: frames,
		desc: SenderInfo{
			ShareHandle: uint32(share),
			Width:       width,
			Height:      height,
			Format:      format,
			Description: n.opts.HostPath,
		},
	}
	if err := writeInfo(info, e.desc); err != nil {
		frames.Close()
		info.Close()
		n.unregister(name)
		return err
	}
	n.senders[name] = e

	if err := n.claimActive(name); err != nil {
		log.Warn("could not update active sender", logging.KeySender, name, logging.KeyError, err)
	}
	log.Info("sender registered", logging.KeySender, name, "width", width, "height", height, "format", format.String())
	return nil
}

// UpdateSender rewrites the description of a sender created by this
// Namespace and bumps its frame counter.
func (n *Namespace) UpdateSender(name string, width, height uint32, share gfx.Handle) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	e, ok := n.senders[name]
	if !ok {
		return fmt.Errorf("update %q: %w", name, ErrUnknownSender)
	}
	if e.desc.Width != width || e.desc.Height != height || e.desc.ShareHandle != uint32(share) {
		e.desc.Width, e.desc.Height, e.desc.ShareHandle = width, height, uint32(share)
		if err := writeInfo(e.info, e.desc); err != nil {
			return err
		}
	}
	if err := e.frames.Release(); err != nil {
		return fmt.Errorf("signal frame for %q: %w", name, err)
	}
	e.count++
	return nil
}

// ReleaseSender removes name from the sender list and closes its maps.
// Unknown names are ignored.
func (n *Namespace) ReleaseSender(name string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.releaseLocked(name)
}

func (n *Namespace) releaseLocked(name string) {
	e, ok := n.senders[name]
	if !ok {
		return
	}
	delete(n.senders, name)
	n.unregister(name)
	e.frames.Close()
	e.info.Close()
	log.Info("sender released", logging.KeySender, name, logging.KeyFrame, e.count)
}

// FrameCount returns how many frames name has signalled through this Namespace.
func (n *Namespace) FrameCount(name string) uint64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	if e, ok := n.senders[name]; ok {
		return e.count
	}
	return 0
}

// Senders lists every registered sender, including other processes' senders.
func (n *Namespace) Senders() ([]string, error) {
	if err := n.names.Lock(); err != nil {
		return nil, err
	}
	defer n.names.Unlock()
	return readNames(n.names.Bytes()), nil
}

// SenderInfo reads the published description of any registered sender.
func (n *Namespace) SenderInfo(name string) (SenderInfo, error) {
	if _, err := encodeName(name); err != nil {
		return SenderInfo{}, err
	}
	r, err := n.mapper.Open(name, InfoSize)
	if err != nil {
		return SenderInfo{}, err
	}
	defer r.Close()

	if err := r.Lock(); err != nil {
		return SenderInfo{}, err
	}
	defer r.Unlock()

	var info SenderInfo
	if err := info.UnmarshalBinary(r.Bytes()); err != nil {
		return SenderInfo{}, err
	}
	return info, nil
}

// ActiveSender returns the active sender name, or "" if none is set.
func (n *Namespace) ActiveSender() (string, error) {
	if err := n.active.Lock(); err != nil {
		return "", err
	}
	defer n.active.Unlock()
	return decodeName(n.active.Bytes()), nil
}

// Close releases every sender this Namespace registered and the shared
// list handles.
func (n *Namespace) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	for name := range n.senders {
		n.releaseLocked(name)
	}
	return errors.Join(n.active.Close(), n.names.Close())
}

func (n *Namespace) register(name string) error {
	if err := n.names.Lock(); err != nil {
		return err
	}
	defer n.names.Unlock()

	names := readNames(n.names.Bytes())
	if slices.Contains(names, name) {
		return fmt.Errorf("%q: %w", name, ErrSenderExists)
	}
	if len(names) >= n.opts.MaxSenders {
		return fmt.Errorf("%q: %w (%d senders)", name, ErrNamespaceFull, len(names))
	}
	return writeNames(n.names.Bytes(), append(names, name))
}

func (n *Namespace) unregister(name string) {
	if err := n.names.Lock(); err != nil {
		log.Warn("could not lock sender list", logging.KeySender, name, logging.KeyError, err)
		return
	}
	names := slices.DeleteFunc(readNames(n.names.Bytes()), func(s string) bool { return s == name })
	if err := writeNames(n.names.Bytes(), names); err != nil {
		log.Warn("could not rewrite sender list", logging.KeyError, err)
	}
	n.names.Unlock()

	if err := n.active.Lock(); err != nil {
		return
	}
	defer n.active.Unlock()
	if decodeName(n.active.Bytes()) != name {
		return
	}
	clear(n.active.Bytes())
	if len(names) > 0 {
		if b, err := encodeName(names[0]); err == nil {
			copy(n.active.Bytes(), b)
		}
	}
}

// claimActive makes name the active sender when the slot is empty or points
// at a sender that is no longer listed.
func (n *Namespace) claimActive(name string) error {
	listed, err := n.Senders()
	if err != nil {
		return err
	}
	if err := n.active.Lock(); err != nil {
		return err
	}
	defer n.active.Unlock()

	current := decodeName(n.active.Bytes())
	if current != "" && slices.Contains(listed, current) {
		return nil
	}
	b, err := encodeName(name)
	if err != nil {
		return err
	}
	clear(n.active.Bytes())
	copy(n.active.Bytes(), b)
	return nil
}

func writeInfo(r Region, info SenderInfo) error {
	buf, err := info.MarshalBinary()
	if err != nil {
		return err
	}
	if err := r.Lock(); err != nil {
		return err
	}
	defer r.Unlock()
	copy(r.Bytes(), buf)
	return nil
}
