// Package cabi exposes the core engine across a C ABI boundary: opaque
// handles for storages, processors, and executables, a register
// getter/setter, a typed byte-level memory accessor, composite-storage
// mount/unmount, an admit/notify storage constructor taking C callback
// function pointers, register-name and exit-code description lookups,
// and assemble/tick/run entry points. All multi-byte values at this
// boundary are little-endian, matching the core's internal convention.
//
// Handles are plain integer indices into package-level registries
// rather than C pointers to Go values, so cgo never holds a Go pointer
// across a call boundary longer than the call itself.
package cabi

/*
#include <stdint.h>
#include <stdbool.h>
#include <stdlib.h>

typedef bool (*vex_admit_cb)(const uint8_t *data, size_t data_len, uint32_t addr, uint32_t size, void *user_data);
typedef void (*vex_notify_cb)(const uint8_t *data, size_t data_len, uint32_t addr, uint32_t size, void *user_data);

static inline bool vex_call_admit(vex_admit_cb fn, const uint8_t *data, size_t data_len, uint32_t addr, uint32_t size, void *user_data) {
	return fn(data, data_len, addr, size, user_data);
}

static inline void vex_call_notify(vex_notify_cb fn, const uint8_t *data, size_t data_len, uint32_t addr, uint32_t size, void *user_data) {
	fn(data, data_len, addr, size, user_data);
}
*/
import "C"

import (
	"bytes"
	"sync"
	"unsafe"

	"github.com/vex-arch/vexvm/asm"
	"github.com/vex-arch/vexvm/container"
	"github.com/vex-arch/vexvm/engine"
	"github.com/vex-arch/vexvm/isa"
	"github.com/vex-arch/vexvm/storage"
)

var (
	mu          sync.Mutex
	storages    = map[C.uint32_t]storage.Storage{}
	processors  = map[C.uint32_t]*engine.Processor{}
	executables = map[C.uint32_t]*container.Executable{}
	nextHandle  C.uint32_t
)

func allocHandle() C.uint32_t {
	nextHandle++
	return nextHandle
}

// vex_storage_new allocates a zero-initialized plain storage of length
// bytes and returns its handle.
//
//export vex_storage_new
func vex_storage_new(length C.uint32_t) C.uint32_t {
	mu.Lock()
	defer mu.Unlock()
	h := allocHandle()
	storages[h] = storage.NewPlain(uint32(length))
	return h
}

// vex_storage_free releases a storage handle.
//
//export vex_storage_free
func vex_storage_free(handle C.uint32_t) {
	mu.Lock()
	defer mu.Unlock()
	delete(storages, handle)
}

// vex_mem_read reads size (1/2/4) little-endian bytes at addr from the
// storage named by handle. Returns 0 and sets *ok to 0 on any failure.
//
//export vex_mem_read
func vex_mem_read(handle C.uint32_t, addr, size C.uint32_t, ok *C.int) C.uint32_t {
	mu.Lock()
	mem, found := storages[handle]
	mu.Unlock()
	if !found {
		*ok = 0
		return 0
	}
	v, err := mem.Read(uint32(addr), uint32(size))
	if err != nil {
		*ok = 0
		return 0
	}
	*ok = 1
	return C.uint32_t(v)
}

// vex_mem_write writes size (1/2/4) little-endian bytes of value at
// addr into the storage named by handle. Returns 1 on success.
//
//export vex_mem_write
func vex_mem_write(handle C.uint32_t, addr, size, value C.uint32_t) C.int {
	mu.Lock()
	mem, found := storages[handle]
	mu.Unlock()
	if !found {
		return 0
	}
	if err := mem.Write(uint32(addr), uint32(size), uint32(value)); err != nil {
		return 0
	}
	return 1
}

// vex_storage_new_composite allocates an empty composite storage and
// returns its handle. Children are attached with vex_storage_mount.
//
//export vex_storage_new_composite
func vex_storage_new_composite() C.uint32_t {
	mu.Lock()
	defer mu.Unlock()
	h := allocHandle()
	storages[h] = storage.NewComposite()
	return h
}

// vex_storage_mount attaches the child storage named by childHandle to
// a composite storage at address under key. Returns 0 on success, 1 if
// handle does not name a composite storage, 2 if key already exists, 3
// on fragment intersection, 4 if childHandle is unknown.
//
//export vex_storage_mount
func vex_storage_mount(handle C.uint32_t, address C.uint32_t, key *C.char, childHandle C.uint32_t) C.int {
	mu.Lock()
	defer mu.Unlock()
	comp, ok := storages[handle].(*storage.Composite)
	if !ok {
		return 1
	}
	child, found := storages[childHandle]
	if !found {
		return 4
	}
	err := comp.Mount(uint32(address), C.GoString(key), child)
	switch err.(type) {
	case nil:
		return 0
	case *storage.ErrKeyAlreadyExists:
		return 2
	case *storage.ErrFragmentIntersection:
		return 3
	default:
		return 1
	}
}

// vex_storage_unmount detaches the child bound to key from a composite
// storage. Returns 0 on success, 1 if handle does not name a composite
// storage, 2 if key was not bound.
//
//export vex_storage_unmount
func vex_storage_unmount(handle C.uint32_t, key *C.char) C.int {
	mu.Lock()
	defer mu.Unlock()
	comp, ok := storages[handle].(*storage.Composite)
	if !ok {
		return 1
	}
	if _, found := comp.Unmount(C.GoString(key)); !found {
		return 2
	}
	return 0
}

// observedHandler adapts a pair of C function pointers to storage.Handler.
type observedHandler struct {
	admit    C.vex_admit_cb
	notify   C.vex_notify_cb
	userData unsafe.Pointer
}

func (h *observedHandler) Admit(mem storage.Reader, addr, size uint32) bool {
	buf, err := mem.Borrow(0, mem.Length())
	if err != nil {
		return false
	}
	var data *C.uint8_t
	if len(buf) > 0 {
		data = (*C.uint8_t)(unsafe.Pointer(&buf[0]))
	}
	return bool(C.vex_call_admit(h.admit, data, C.size_t(len(buf)), C.uint32_t(addr), C.uint32_t(size), h.userData))
}

func (h *observedHandler) Notify(mem storage.Reader, addr, size uint32) {
	buf, err := mem.Borrow(0, mem.Length())
	if err != nil {
		return
	}
	var data *C.uint8_t
	if len(buf) > 0 {
		data = (*C.uint8_t)(unsafe.Pointer(&buf[0]))
	}
	C.vex_call_notify(h.notify, data, C.size_t(len(buf)), C.uint32_t(addr), C.uint32_t(size), h.userData)
}

// vex_storage_new_observed wraps length zero-initialized bytes with a
// pair of C callbacks: admit is consulted before every write, notify
// runs after a write it allowed commits. Returns the new handle.
//
//export vex_storage_new_observed
func vex_storage_new_observed(length C.uint32_t, admit C.vex_admit_cb, notify C.vex_notify_cb, userData unsafe.Pointer) C.uint32_t {
	mu.Lock()
	defer mu.Unlock()
	h := allocHandle()
	storages[h] = storage.NewObserved(uint32(length), &observedHandler{admit: admit, notify: notify, userData: userData})
	return h
}

// vex_register_name returns the canonical "$NAME" text for register
// index, or NULL if index is out of range. The returned pointer is
// owned by the caller and must be released with vex_free_string.
//
//export vex_register_name
func vex_register_name(index C.int) *C.char {
	if int(index) < 0 || int(index) >= isa.RegisterCount {
		return nil
	}
	return C.CString("$" + isa.RegisterNames[index])
}

// vex_exit_code_name returns the textual name of an ExitCode value. The
// returned pointer is owned by the caller and must be released with
// vex_free_string.
//
//export vex_exit_code_name
func vex_exit_code_name(code C.int) *C.char {
	return C.CString(engine.ExitCode(code).String())
}

// vex_free_string releases a string previously returned by
// vex_register_name or vex_exit_code_name.
//
//export vex_free_string
func vex_free_string(s *C.char) {
	C.free(unsafe.Pointer(s))
}

// vex_processor_new allocates a fresh Processor and returns its handle.
//
//export vex_processor_new
func vex_processor_new() C.uint32_t {
	mu.Lock()
	defer mu.Unlock()
	h := allocHandle()
	processors[h] = engine.NewProcessor()
	return h
}

// vex_processor_free releases a processor handle.
//
//export vex_processor_free
func vex_processor_free(handle C.uint32_t) {
	mu.Lock()
	defer mu.Unlock()
	delete(processors, handle)
}

// vex_processor_get_pc returns the processor's program counter.
//
//export vex_processor_get_pc
func vex_processor_get_pc(handle C.uint32_t) C.uint32_t {
	mu.Lock()
	defer mu.Unlock()
	p, found := processors[handle]
	if !found {
		return 0
	}
	return C.uint32_t(p.PC)
}

// vex_processor_get_register returns register index's raw bit pattern.
//
//export vex_processor_get_register
func vex_processor_get_register(handle C.uint32_t, index C.int) C.uint32_t {
	mu.Lock()
	defer mu.Unlock()
	p, found := processors[handle]
	if !found {
		return 0
	}
	return C.uint32_t(p.Registers.GetUint32(int(index)))
}

// vex_processor_set_register sets register index's raw bit pattern.
//
//export vex_processor_set_register
func vex_processor_set_register(handle C.uint32_t, index C.int, value C.uint32_t) {
	mu.Lock()
	defer mu.Unlock()
	p, found := processors[handle]
	if !found {
		return
	}
	p.Registers.SetUint32(int(index), uint32(value))
}

// vex_executable_load parses a container from raw bytes and returns an
// executable handle, or 0 on error.
//
//export vex_executable_load
func vex_executable_load(data *C.uint8_t, length C.int) C.uint32_t {
	buf := C.GoBytes(unsafe.Pointer(data), length)
	exe, err := container.Read(bytes.NewReader(buf))
	if err != nil {
		return 0
	}
	mu.Lock()
	defer mu.Unlock()
	h := allocHandle()
	executables[h] = exe
	return h
}

// vex_executable_free releases an executable handle.
//
//export vex_executable_free
func vex_executable_free(handle C.uint32_t) {
	mu.Lock()
	defer mu.Unlock()
	delete(executables, handle)
}

// vex_assemble compiles src as VEX assembly with the given data
// offset. On success it registers an executable handle and returns it;
// on failure it returns 0 and writes a diagnostic to *errOut (caller-
// owned buffer of errOutLen bytes, truncated and NUL-terminated).
//
//export vex_assemble
func vex_assemble(src *C.char, dataOffset C.uint32_t, errOut *C.char, errOutLen C.int) C.uint32_t {
	source := C.GoString(src)
	prog, errs := asm.Assemble(source, "<cabi>", uint32(dataOffset))
	if len(errs) > 0 {
		writeCString(errs[0].Error(), errOut, errOutLen)
		return 0
	}

	mu.Lock()
	defer mu.Unlock()
	h := allocHandle()
	executables[h] = &container.Executable{
		DataOffset:   uint32(dataOffset),
		Instructions: prog.Instructions,
		Data:         prog.Data,
	}
	return h
}

// vex_tick executes a single instruction of executable exe against
// processor proc and storage mem, returning the engine.ExitCode. The
// caller is expected to keep ticking until the returned *done is
// non-zero.
//
//export vex_tick
func vex_tick(procHandle, exeHandle, memHandle C.uint32_t, done *C.int) C.int {
	mu.Lock()
	p, pf := processors[procHandle]
	e, ef := executables[exeHandle]
	m, mf := storages[memHandle]
	mu.Unlock()
	if !pf || !ef || !mf {
		*done = 1
		return C.int(engine.InvalidOpcode)
	}

	code, isDone := p.Tick(e.Instructions, m)
	if isDone {
		*done = 1
	} else {
		*done = 0
	}
	return C.int(code)
}

// vex_run ticks the processor to completion (or until maxTicks is
// reached, if non-zero) and returns the terminal ExitCode. If the
// ticks run out first, it returns -1.
//
//export vex_run
func vex_run(procHandle, exeHandle, memHandle C.uint32_t, maxTicks C.uint64_t) C.int {
	mu.Lock()
	p, pf := processors[procHandle]
	e, ef := executables[exeHandle]
	m, mf := storages[memHandle]
	mu.Unlock()
	if !pf || !ef || !mf {
		return C.int(engine.InvalidOpcode)
	}

	var ticks uint64
	for maxTicks == 0 || C.uint64_t(ticks) < maxTicks {
		code, done := p.Tick(e.Instructions, m)
		if done {
			return C.int(code)
		}
		ticks++
	}
	return -1
}

func writeCString(s string, out *C.char, outLen C.int) {
	if outLen <= 0 {
		return
	}
	buf := (*[1 << 30]byte)(unsafe.Pointer(out))[:outLen:outLen]
	n := copy(buf[:outLen-1], s)
	buf[n] = 0
}
