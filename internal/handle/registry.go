// Package handle owns the in-memory bytes of processed results. Each result
// gets an opaque id and a resolvable address that stays valid until the
// handle is released.
package handle

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// AddressPrefix is prepended to the id to form a handle's address.
const AddressPrefix = "/results/"

// ErrHandleNotFound covers unknown ids and ids that were already released.
var ErrHandleNotFound = errors.New("result handle not found")

// Handle is the metadata of an allocated result.
type Handle struct {
	ID          string
	Address     string
	ContentType string
	Size        int64
	CreatedAt   time.Time
}

type entry struct {
	handle Handle
	data   []byte
}

// Registry maps handle ids to result bytes.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*entry
	onFree  func(Handle)
}

func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*entry)}
}

// OnRelease registers a callback invoked once per released handle.
func (r *Registry) OnRelease(fn func(Handle)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onFree = fn
}

// Allocate stores data and returns a new handle. The registry takes
// ownership of the slice.
func (r *Registry) Allocate(data []byte, contentType string) Handle {
	id := uuid.NewString()
	h := Handle{
		ID:          id,
		Address:     AddressPrefix + id,
		ContentType: contentType,
		Size:        int64(len(data)),
		CreatedAt:   time.Now().UTC(),
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[id] = &entry{handle: h, data: data}
	return h
}

// Resolve returns the bytes behind a live handle.
func (r *Registry) Resolve(id string) (Handle, []byte, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[id]
	if !ok {
		return Handle{}, nil, ErrHandleNotFound
	}
	return e.handle, e.data, nil
}

// Release drops a handle and its bytes. A second release of the same id
// returns ErrHandleNotFound.
func (r *Registry) Release(id string) error {
	r.mu.Lock()
	e, ok := r.entries[id]
	if !ok {
		r.mu.Unlock()
		return ErrHandleNotFound
	}
	delete(r.entries, id)
	onFree := r.onFree
	h := e.handle
	r.mu.Unlock()

	if onFree != nil {
		onFree(h)
	}
	return nil
}

// Live is the number of handles allocated and not yet released.
func (r *Registry) Live() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
