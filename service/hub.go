package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

var (
	ErrDuplicateService  = errors.New("service already registered")
	ErrServiceNotFound   = errors.New("service not found")
	ErrUnknownDependency = errors.New("dependency not registered")
	ErrDependencyCycle   = errors.New("dependency cycle")
)

// State is a service's position in the hub lifecycle
type State int

const (
	StateRegistered State = iota
	StateInitialized
	StateStarted
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateRegistered:
		return "registered"
	case StateInitialized:
		return "initialized"
	case StateStarted:
		return "started"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

type entry struct {
	svc   Service
	state State
}

// Hub holds the application's services and drives them through Init, Start and Stop
// Dependencies are initialized and started first and stopped last
type Hub struct {
	mu      sync.RWMutex
	entries map[string]*entry
	order   []string // resolved lazily, reset by Register
}

// NewHub creates an empty hub
func NewHub() *Hub {
	return &Hub{entries: make(map[string]*entry)}
}

// Register adds svc under its Name
func (h *Hub) Register(svc Service) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	name := svc.Name()
	if _, ok := h.entries[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateService, name)
	}
	h.entries[name] = &entry{svc: svc}
	h.order = nil
	return nil
}

// Get returns the service registered under name
func (h *Hub) Get(name string) (Service, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	e, ok := h.entries[name]
	if !ok {
		return nil, false
	}
	return e.svc, true
}

// MustGet returns the service registered under name as T
// Panics when it is missing or of another type; for wiring done once at startup
func MustGet[T Service](h *Hub, name string) T {
	svc, ok := h.Get(name)
	if !ok {
		panic(fmt.Sprintf("%v: %s", ErrServiceNotFound, name))
	}
	typed, ok := svc.(T)
	if !ok {
		panic(fmt.Sprintf("service %s is %T", name, svc))
	}
	return typed
}

// State reports where name is in its lifecycle
func (h *Hub) State(name string) (State, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	e, ok := h.entries[name]
	if !ok {
		return 0, false
	}
	return e.state, true
}

// Order returns the dependency order Init and Start follow
func (h *Hub) Order() ([]string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.resolve(); err != nil {
		return nil, err
	}
	return append([]string(nil), h.order...), nil
}

// InitAll calls Init(args...) on every service in dependency order
// A failure stops the services initialized so far, newest first
func (h *Hub) InitAll(args ...any) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.resolve(); err != nil {
		return err
	}

	for i, name := range h.order {
		e := h.entries[name]
		if err := e.svc.Init(args...); err != nil {
			h.rollback(h.order[:i])
			return fmt.Errorf("init %s: %w", name, err)
		}
		e.state = StateInitialized
	}
	return nil
}

// StartAll calls Start on every service in dependency order
// Services already started are started again, so a service that degraded softly can retry
// its acquisition; on failure only the services started by this call are stopped
func (h *Hub) StartAll() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.resolve(); err != nil {
		return err
	}

	var fresh []string
	for _, name := range h.order {
		e := h.entries[name]
		if err := e.svc.Start(); err != nil {
			h.rollback(fresh)
			return fmt.Errorf("start %s: %w", name, err)
		}
		if e.state != StateStarted {
			e.state = StateStarted
			fresh = append(fresh, name)
		}
	}
	return nil
}

// StopAll stops every initialized or started service in reverse dependency order
// All services are stopped; their errors are joined
func (h *Hub) StopAll() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	var errs []error
	for i := len(h.order) - 1; i >= 0; i-- {
		name := h.order[i]
		e := h.entries[name]
		if e.state != StateInitialized && e.state != StateStarted {
			continue
		}
		if err := e.svc.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("stop %s: %w", name, err))
		}
		e.state = StateStopped
	}
	return errors.Join(errs...)
}

// rollback stops names newest first; caller holds mu
func (h *Hub) rollback(names []string) {
	for i := len(names) - 1; i >= 0; i-- {
		e := h.entries[names[i]]
		e.svc.Stop()
		e.state = StateStopped
	}
}

// resolve orders services so each follows its dependencies (Kahn's algorithm)
// Ready services are taken by name for a stable order; caller holds mu
func (h *Hub) resolve() error {
	if h.order != nil {
		return nil
	}

	pending := make(map[string]int, len(h.entries))
	dependents := make(map[string][]string)
	for name, e := range h.entries {
		deps := e.svc.Dependencies()
		pending[name] = len(deps)
		for _, dep := range deps {
			if _, ok := h.entries[dep]; !ok {
				return fmt.Errorf("%w: %s needs %s", ErrUnknownDependency, name, dep)
			}
			dependents[dep] = append(dependents[dep], name)
		}
	}

	var ready []string
	for name, n := range pending {
		if n == 0 {
			ready = append(ready, name)
		}
	}

	order := make([]string, 0, len(h.entries))
	for len(ready) > 0 {
		sort.Strings(ready)
		name := ready[0]
		ready = ready[1:]
		order = append(order, name)
		delete(pending, name)

		for _, d := range dependents[name] {
			pending[d]--
			if pending[d] == 0 {
				ready = append(ready, d)
			}
		}
	}

	if len(pending) > 0 {
		stuck := make([]string, 0, len(pending))
		for name := range pending {
			stuck = append(stuck, name)
		}
		sort.Strings(stuck)
		return fmt.Errorf("%w among %s", ErrDependencyCycle, strings.Join(stuck, ", "))
	}

	h.order = order
	return nil
}
