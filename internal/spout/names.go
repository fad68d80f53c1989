package spout

import (
	"bytes"
	"errors"
	"fmt"

	"golang.org/x/text/encoding/charmap"
)

// MaxNameLen is the size of one sender name slot, terminator included.
const MaxNameLen = 256

var (
	ErrInvalidName   = errors.New("invalid sender name")
	ErrSenderExists  = errors.New("sender name already registered")
	ErrNamespaceFull = errors.New("sender list is full")
	ErrUnknownSender = errors.New("sender not registered by this process")
)

// ValidateName reports whether name can be stored in a sender slot.
func ValidateName(name string) error {
	_, err := encodeName(name)
	return err
}

// encodeName converts name to the ANSI bytes Spout stores in its maps.
func encodeName(name string) ([]byte, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidName)
	}
	b, err := charmap.Windows1252.NewEncoder().Bytes([]byte(name))
	if err != nil {
		return nil, fmt.Errorf("%w: %q is not representable in the ANSI code page", ErrInvalidName, name)
	}
	if len(b) >= MaxNameLen {
		return nil, fmt.Errorf("%w: %q exceeds %d bytes", ErrInvalidName, name, MaxNameLen-1)
	}
	if bytes.IndexByte(b, 0) >= 0 {
		return nil, fmt.Errorf("%w: %q contains NUL", ErrInvalidName, name)
	}
	return b, nil
}

// decodeName reads a NUL-terminated ANSI name.
func decodeName(slot []byte) string {
	if i := bytes.IndexByte(slot, 0); i >= 0 {
		slot = slot[:i]
	}
	s, err := charmap.Windows1252.NewDecoder().Bytes(slot)
	if err != nil {
		return string(slot)
	}
	return string(s)
}

// readNames parses the sender list. Names are packed from slot 0; the first
// empty slot ends the list.
func readNames(buf []byte) []string {
	var names []string
	for off := 0; off+MaxNameLen <= len(buf); off += MaxNameLen {
		slot := buf[off : off+MaxNameLen]
		if slot[0] == 0 {
			break
		}
		names = append(names, decodeName(slot))
	}
	return names
}

// writeNames rewrites the whole list, zeroing unused slots.
func writeNames(buf []byte, names []string) error {
	if len(names)*MaxNameLen > len(buf) {
		return ErrNamespaceFull
	}
	clear(buf)
	for i, name := range names {
		b, err := encodeName(name)
		if err != nil {
			return err
		}
		copy(buf[i*MaxNameLen:], b)
	}
	return nil
}
