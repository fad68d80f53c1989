//go:build windows

package spout

import (
	"errors"
	"fmt"
	"runtime"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	kernel32 = windows.NewLazySystemDLL("kernel32.dll")

	procOpenFileMappingW = kernel32.NewProc("OpenFileMappingW")
	procCreateSemaphoreW = kernel32.NewProc("CreateSemaphoreW")
	procReleaseSemaphore = kernel32.NewProc("ReleaseSemaphore")
)

const (
	fileMapAllAccess = 0xF001F
	// Same wait Spout itself uses for its map mutexes.
	lockTimeoutMs = 67
	semaphoreMax  = 0x7FFFFFFF
)

type winMapper struct{}

// NewSystemMapper returns a mapper over Windows named file mappings, mutexes
// and semaphores, interoperable with native Spout senders and receivers.
func NewSystemMapper() Mapper {
	return winMapper{}
}

func (winMapper) Create(name string, size int) (Region, error) {
	name16, err := windows.UTF16PtrFromString(name)
	if err != nil {
		return nil, err
	}
	h, err := windows.CreateFileMapping(windows.InvalidHandle, nil, windows.PAGE_READWRITE, 0, uint32(size), name16)
	if h == 0 {
		return nil, fmt.Errorf("CreateFileMapping %s: %w", name, err)
	}
	return mapRegion(name, h, size)
}

func (winMapper) Open(name string, size int) (Region, error) {
	name16, err := windows.UTF16PtrFromString(name)
	if err != nil {
		return nil, err
	}
	r, _, callErr := procOpenFileMappingW.Call(fileMapAllAccess, 0, uintptr(unsafe.Pointer(name16)))
	if r == 0 {
		if errors.Is(callErr, windows.ERROR_FILE_NOT_FOUND) {
			return nil, fmt.Errorf("open %s: %w", name, ErrNotFound)
		}
		return nil, fmt.Errorf("OpenFileMapping %s: %w", name, callErr)
	}
	return mapRegion(name, windows.Handle(r), size)
}

func mapRegion(name string, h windows.Handle, size int) (Region, error) {
	addr, err := windows.MapViewOfFile(h, fileMapAllAccess, 0, 0, uintptr(size))
	if err != nil {
		windows.CloseHandle(h)
		return nil, fmt.Errorf("MapViewOfFile %s: %w", name, err)
	}

	mutexName, err := windows.UTF16PtrFromString(name + "_mutex")
	if err != nil {
		windows.UnmapViewOfFile(addr)
		windows.CloseHandle(h)
		return nil, err
	}
	mutex, err := windows.CreateMutex(nil, false, mutexName)
	if mutex == 0 {
		windows.UnmapViewOfFile(addr)
		windows.CloseHandle(h)
		return nil, fmt.Errorf("CreateMutex %s_mutex: %w", name, err)
	}

	return &winRegion{
		name:  name,
		h:     h,
		mutex: mutex,
		addr:  addr,
		view:  unsafe.Slice((*byte)(unsafe.Pointer(addr)), size),
	}, nil
}

type winRegion struct {
	name  string
	h     windows.Handle
	mutex windows.Handle
	addr  uintptr
	view  []byte
}

func (r *winRegion) Name() string  { return r.name }
func (r *winRegion) Bytes() []byte { return r.view }

// Lock acquires the map mutex. Win32 mutexes are owned by the acquiring OS
// thread, so the goroutine stays pinned until Unlock.
func (r *winRegion) Lock() error {
	runtime.LockOSThread()
	ev, err := windows.WaitForSingleObject(r.mutex, lockTimeoutMs)
	switch ev {
	case windows.WAIT_OBJECT_0, windows.WAIT_ABANDONED:
		return nil
	case uint32(windows.WAIT_TIMEOUT):
		runtime.UnlockOSThread()
		return fmt.Errorf("%s: %w", r.name, ErrLockTimeout)
	default:
		runtime.UnlockOSThread()
		return fmt.Errorf("wait %s_mutex: %w", r.name, err)
	}
}

func (r *winRegion) Unlock() {
	if err := r.unlock(); err != nil {
		log.Error("mutex release failed", "map", r.name, "error", err)
	}
}

func (r *winRegion) unlock() error {
	defer runtime.UnlockOSThread()
	if err := windows.ReleaseMutex(r.mutex); err != nil {
		return fmt.Errorf("release %s_mutex: %w", r.name, err)
	}
	return nil
}

func (r *winRegion) Close() error {
	if r.addr == 0 {
		return nil
	}
	err := windows.UnmapViewOfFile(r.addr)
	r.addr = 0
	r.view = nil
	windows.CloseHandle(r.mutex)
	windows.CloseHandle(r.h)
	return err
}

func (winMapper) Semaphore(name string) (Semaphore, error) {
	name16, err := windows.UTF16PtrFromString(name)
	if err != nil {
		return nil, err
	}
	h, _, callErr := procCreateSemaphoreW.Call(0, 0, semaphoreMax, uintptr(unsafe.Pointer(name16)))
	if h == 0 {
		return nil, fmt.Errorf("CreateSemaphore %s: %w", name, callErr)
	}
	return &winSemaphore{h: windows.Handle(h)}, nil
}

type winSemaphore struct {
	h windows.Handle
}

func (s *winSemaphore) Release() error {
	var prev int32
	r, _, err := procReleaseSemaphore.Call(uintptr(s.h), 1, uintptr(unsafe.Pointer(&prev)))
	if r == 0 {
		return fmt.Errorf("ReleaseSemaphore: %w", err)
	}
	return nil
}

func (s *winSemaphore) Close() error {
	if s.h == 0 {
		return nil
	}
	err := windows.CloseHandle(s.h)
	s.h = 0
	return err
}
