package glrender

import (
	"errors"
	"fmt"
)

// ErrUnknownProgram is returned for identities not created in a [Registry].
var ErrUnknownProgram = errors.New("unknown program identity")

// Registry maps logical shader identities to programs and tracks the single active program.
// Switching the active program always commits the batch of the previously active one.
type Registry struct {
	backend  Backend
	programs map[string]*Program
	active   *Program
	activeID string
}

// NewRegistry returns an empty registry creating programs on backend.
func NewRegistry(backend Backend) *Registry {
	return &Registry{
		backend:  backend,
		programs: make(map[string]*Program),
	}
}

// Backend returns the backend programs of the registry are created on.
func (r *Registry) Backend() Backend { return r.backend }

// Create builds the program of identity with factory and registers it.
// On error nothing is registered.
func (r *Registry) Create(identity string, factory func(Backend) (*Program, error)) error {
	if _, exists := r.programs[identity]; exists {
		return fmt.Errorf("program %q already created", identity)
	}
	p, err := factory(r.backend)
	if err != nil {
		return fmt.Errorf("creating program %q: %w", identity, err)
	} else if p == nil {
		return fmt.Errorf("creating program %q: factory returned nil program", identity)
	}
	r.programs[identity] = p
	return nil
}

// Get returns the program registered as identity or nil.
func (r *Registry) Get(identity string) *Program { return r.programs[identity] }

// Active returns the active program or nil if no program has been selected.
func (r *Registry) Active() *Program { return r.active }

// ActiveIdentity returns the identity of the active program or the empty string.
func (r *Registry) ActiveIdentity() string { return r.activeID }

// Select makes the program of identity active. The previously active program,
// if different, is committed before the new program is bound.
func (r *Registry) Select(identity string) error {
	p := r.programs[identity]
	if p == nil {
		return fmt.Errorf("select %q: %w", identity, ErrUnknownProgram)
	}
	if p == r.active {
		return nil
	}
	if r.active != nil {
		slogger().Debug("glrender: switch program", "from", r.activeID, "to", identity)
		r.active.flush("program switch")
	}
	r.active, r.activeID = p, identity
	p.bind()
	return nil
}

// Flush commits the active program.
func (r *Registry) Flush() {
	if r.active != nil {
		r.active.flush("flush")
	}
}

// Release commits the program of identity if it is active, leaves no program active
// in that case, and releases the program's GPU resources.
func (r *Registry) Release(identity string) error {
	p := r.programs[identity]
	if p == nil {
		return fmt.Errorf("release %q: %w", identity, ErrUnknownProgram)
	}
	if p == r.active {
		p.flush("release")
		r.active, r.activeID = nil, ""
	}
	delete(r.programs, identity)
	p.Release()
	return nil
}

// ReleaseAll releases every registered program.
func (r *Registry) ReleaseAll() {
	if r.active != nil {
		r.active.flush("release")
		r.active, r.activeID = nil, ""
	}
	for id, p := range r.programs {
		p.Release()
		delete(r.programs, id)
	}
}

// DrawCalls returns the sum of draw calls of all registered programs.
func (r *Registry) DrawCalls() (n int) {
	for _, p := range r.programs {
		n += p.stats.DrawCalls
	}
	return n
}

// ResetStats zeroes the draw counters of all registered programs.
func (r *Registry) ResetStats() {
	for _, p := range r.programs {
		p.ResetStats()
	}
}
