package definition

import (
	"fmt"
	"sort"
	"sync"

	"github.com/anggasct/statechart"
)

// Registry maps callback names used in definitions to functions.
// It is safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	actions   map[string]statechart.ActionFunc
	guards    map[string]statechart.GuardFunc
	doActions map[string]statechart.DoActionFunc
}

func NewRegistry() *Registry {
	return &Registry{
		actions:   make(map[string]statechart.ActionFunc),
		guards:    make(map[string]statechart.GuardFunc),
		doActions: make(map[string]statechart.DoActionFunc),
	}
}

// RegisterAction registers an entry, exit or transition action
func (r *Registry) RegisterAction(name string, fn statechart.ActionFunc) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return register(r.actions, name, fn)
}

func (r *Registry) RegisterGuard(name string, fn statechart.GuardFunc) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return register(r.guards, name, fn)
}

func (r *Registry) RegisterDoAction(name string, fn statechart.DoActionFunc) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return register(r.doActions, name, fn)
}

// MustRegisterAction is like RegisterAction but panics on error
func (r *Registry) MustRegisterAction(name string, fn statechart.ActionFunc) *Registry {
	if err := r.RegisterAction(name, fn); err != nil {
		panic(err)
	}
	return r
}

// MustRegisterGuard is like RegisterGuard but panics on error
func (r *Registry) MustRegisterGuard(name string, fn statechart.GuardFunc) *Registry {
	if err := r.RegisterGuard(name, fn); err != nil {
		panic(err)
	}
	return r
}

// MustRegisterDoAction is like RegisterDoAction but panics on error
func (r *Registry) MustRegisterDoAction(name string, fn statechart.DoActionFunc) *Registry {
	if err := r.RegisterDoAction(name, fn); err != nil {
		panic(err)
	}
	return r
}

func (r *Registry) action(name string) (statechart.ActionFunc, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return lookup(r.actions, name, ErrUnknownAction)
}

func (r *Registry) guard(name string) (statechart.GuardFunc, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return lookup(r.guards, name, ErrUnknownGuard)
}

func (r *Registry) doAction(name string) (statechart.DoActionFunc, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return lookup(r.doActions, name, ErrUnknownDoAction)
}

// Names returns the registered action, guard and do-action names, sorted
func (r *Registry) Names() (actions, guards, doActions []string) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedKeys(r.actions), sortedKeys(r.guards), sortedKeys(r.doActions)
}

func register[F any](m map[string]F, name string, fn F) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidDefinition)
	}
	if _, exists := m[name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateName, name)
	}
	m[name] = fn
	return nil
}

func lookup[F any](m map[string]F, name string, notFound error) (F, error) {
	fn, ok := m[name]
	if !ok {
		var zero F
		return zero, fmt.Errorf("%w %q", notFound, name)
	}
	return fn, nil
}

func sortedKeys[F any](m map[string]F) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
