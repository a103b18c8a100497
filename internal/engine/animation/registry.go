package animation

import (
	"sort"

	"github.com/Faultbox/midgard-anim/pkg/anim"
)

// Registry is an append-only, ordered collection of clips with a name index.
// The zero value is an empty registry. Indices are stable once assigned. When
// a name is added twice the name lookup resolves to the newer clip and the
// older one stays reachable by index.
type Registry struct {
	clips  []*Clip
	byName map[string]int
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]int)}
}

// Add appends a clip built from a and returns its index.
func (r *Registry) Add(name string, a *anim.Animation) (int, error) {
	clip, err := NewClip(name, a)
	if err != nil {
		return -1, err
	}
	return r.AddClip(clip), nil
}

// AddClip appends clip and returns its index.
func (r *Registry) AddClip(clip *Clip) int {
	idx := len(r.clips)
	r.clips = append(r.clips, clip)
	if r.byName == nil {
		r.byName = make(map[string]int)
	}
	r.byName[clip.name] = idx
	return idx
}

// Get returns the clip at index.
func (r *Registry) Get(index int) (*Clip, bool) {
	if index < 0 || index >= len(r.clips) {
		return nil, false
	}
	return r.clips[index], true
}

// ByName returns the clip registered under name.
func (r *Registry) ByName(name string) (*Clip, bool) {
	idx, ok := r.byName[name]
	if !ok {
		return nil, false
	}
	return r.clips[idx], true
}

// Index returns the index registered under name.
func (r *Registry) Index(name string) (int, bool) {
	idx, ok := r.byName[name]
	return idx, ok
}

// Len returns the number of clips, including ones shadowed by a newer name.
func (r *Registry) Len() int {
	return len(r.clips)
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
