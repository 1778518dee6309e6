package recording

import (
	"fmt"
	"sort"
	"sync"
)

// Factory is a function that creates a new Recorder instance.
type Factory func() Recorder

// Registry state - protected by mutex for thread-safe access.
var (
	registryMu sync.RWMutex
	recorders  = make(map[string]Factory)
)

// Register registers a recorder factory with the given name.
// This function is typically called from init():
//
//	func init() {
//	    recording.Register("undo-stack", func() recording.Recorder {
//	        return NewStack()
//	    })
//	}
//
// Register panics if factory is nil or the name is already taken.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if factory == nil {
		panic("recording: Register factory is nil")
	}
	if _, dup := recorders[name]; dup {
		panic("recording: Register called twice for " + name)
	}
	recorders[name] = factory
}

// Unregister removes a recorder from the registry.
// This is primarily useful for testing to clean up between tests.
func Unregister(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(recorders, name)
}

// NewRecorder creates a new recorder instance by name.
func NewRecorder(name string) (Recorder, error) {
	registryMu.RLock()
	factory, ok := recorders[name]
	registryMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("recording: unknown recorder %q (forgotten import?)", name)
	}
	return factory(), nil
}

// Recorders returns a sorted list of registered recorder names.
func Recorders() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(recorders))
	for name := range recorders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsRegistered checks if a recorder with the given name is registered.
func IsRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := recorders[name]
	return ok
}
