package payment

import (
	"fmt"
	"sort"
	"sync"
)

type Registry struct {
	mu         sync.RWMutex
	processors map[string]Processor
}

func NewRegistry() *Registry {
	return &Registry{processors: make(map[string]Processor)}
}

func (r *Registry) Register(processors ...Processor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range processors {
		r.processors[p.Key()] = p
	}
}

func (r *Registry) Get(key string) (Processor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.processors[key]
	if !ok {
		return nil, fmt.Errorf("%q: %w", key, ErrProcessorNotFound)
	}
	return p, nil
}

func (r *Registry) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, 0, len(r.processors))
	for k := range r.processors {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
