package app

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/cases"

	"hotel_pms/internal/domain"
)

// Registry maps vendor names to the adapters compiled into the binary.
type Registry struct {
	adapters map[string]PMSAdapter
}

func NewRegistry(adapters ...PMSAdapter) *Registry {
	r := &Registry{adapters: make(map[string]PMSAdapter, len(adapters))}
	for _, a := range adapters {
		r.adapters[vendorKey(a.Name())] = a
	}
	return r
}

// Resolve matches name exactly after trimming and case folding.
func (r *Registry) Resolve(name string) (PMSAdapter, error) {
	if a, ok := r.adapters[vendorKey(name)]; ok {
		return a, nil
	}
	return nil, fmt.Errorf("%w: %q", domain.ErrUnknownVendor, name)
}

func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.adapters))
	for k := range r.adapters {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Casers are stateful, so each call gets its own.
func vendorKey(name string) string {
	return cases.Fold().String(strings.TrimSpace(name))
}
