//go:build windows

package d3d

import (
	"syscall"
	"unsafe"

	"github.com/go-ole/go-ole"
)

// COM calls go straight through the vtable with syscall.SyscallN; no cgo.

const (
	vtblQueryInterface = 0
)

// comCall invokes the vtable method at vtableIdx on obj and converts a
// failing HRESULT into an *ole.OleError.
func comCall(obj uintptr, vtableIdx int, args ...uintptr) (uintptr, error) {
	allArgs := make([]uintptr, 0, 1+len(args))
	allArgs = append(allArgs, obj)
	allArgs = append(allArgs, args...)
	ret, _, _ := syscall.SyscallN(comVtblFn(obj, vtableIdx), allArgs...)
	if int32(ret) < 0 {
		return ret, ole.NewError(ret)
	}
	return ret, nil
}

// comCallVoid invokes a vtable method that returns nothing.
func comCallVoid(obj uintptr, vtableIdx int, args ...uintptr) {
	allArgs := make([]uintptr, 0, 1+len(args))
	allArgs = append(allArgs, obj)
	allArgs = append(allArgs, args...)
	syscall.SyscallN(comVtblFn(obj, vtableIdx), allArgs...)
}

// comVtblFn resolves a COM vtable function pointer by index.
func comVtblFn(obj uintptr, idx int) uintptr {
	vtablePtr := *(*uintptr)(unsafe.Pointer(obj))
	return *(*uintptr)(unsafe.Pointer(vtablePtr + uintptr(idx)*unsafe.Sizeof(uintptr(0))))
}

func unknown(obj uintptr) *ole.IUnknown {
	return (*ole.IUnknown)(unsafe.Pointer(obj))
}

func comAddRef(obj uintptr) {
	if obj != 0 {
		unknown(obj).AddRef()
	}
}

func comRelease(obj uintptr) {
	if obj != 0 {
		unknown(obj).Release()
	}
}

func queryInterface(obj uintptr, iid *ole.GUID) (uintptr, error) {
	var out uintptr
	_, err := comCall(obj, vtblQueryInterface,
		uintptr(unsafe.Pointer(iid)),
		uintptr(unsafe.Pointer(&out)),
	)
	return out, err
}
