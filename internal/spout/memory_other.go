//go:build !windows

package spout

// NewSystemMapper returns the mapper for the host OS. Spout is a Windows
// protocol, so other platforms get an in-process namespace.
func NewSystemMapper() Mapper {
	return NewMemoryMapper()
}
