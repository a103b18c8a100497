package animation

import (
	"errors"
	"reflect"
	"testing"

	"github.com/Faultbox/midgard-anim/pkg/anim"
)

func TestRegistryAdd(t *testing.T) {
	r := NewRegistry()

	idle := staticClip(t, "idle", 1, 2)
	walk := staticClip(t, "walk", 1, 2)
	idle2 := staticClip(t, "idle", 1, 2)

	for i, c := range []*Clip{idle, walk, idle2} {
		if got := r.AddClip(c); got != i {
			t.Errorf("AddClip(%s) = %d, want %d", c.Name(), got, i)
		}
	}

	if r.Len() != 3 {
		t.Errorf("Len = %d, want 3", r.Len())
	}

	// Last registration wins the name; the first stays reachable by index.
	if idx, ok := r.Index("idle"); !ok || idx != 2 {
		t.Errorf("Index(idle) = %d, %v; want 2", idx, ok)
	}
	if c, ok := r.ByName("idle"); !ok || c != idle2 {
		t.Error("ByName(idle) should return the newer clip")
	}
	if c, ok := r.Get(0); !ok || c != idle {
		t.Error("Get(0) should still return the first clip")
	}

	if want := []string{"idle", "walk"}; !reflect.DeepEqual(r.Names(), want) {
		t.Errorf("Names = %v, want %v", r.Names(), want)
	}
}

func TestRegistryZeroValue(t *testing.T) {
	var r Registry
	if _, ok := r.ByName("idle"); ok {
		t.Error("empty registry found a clip")
	}

	if got := r.AddClip(staticClip(t, "idle", 1, 1)); got != 0 {
		t.Errorf("AddClip = %d, want 0", got)
	}
	if idx, ok := r.Index("idle"); !ok || idx != 0 {
		t.Errorf("Index(idle) = %d, %v, want 0, true", idx, ok)
	}
	if r.Len() != 1 {
		t.Errorf("Len = %d, want 1", r.Len())
	}
}

func TestRegistryNotFound(t *testing.T) {
	r := NewRegistry()
	r.AddClip(staticClip(t, "idle", 1, 1))

	for _, idx := range []int{-1, 1, 100} {
		if _, ok := r.Get(idx); ok {
			t.Errorf("Get(%d) should not be found", idx)
		}
	}
	if _, ok := r.ByName("run"); ok {
		t.Error("ByName(run) should not be found")
	}
	if _, ok := r.Index("run"); ok {
		t.Error("Index(run) should not be found")
	}
}

func TestRegistryRejectsInvalidClip(t *testing.T) {
	r := NewRegistry()

	if _, err := r.Add("nil", nil); !errors.Is(err, ErrInvalidClip) {
		t.Errorf("Add(nil) error = %v, want %v", err, ErrInvalidClip)
	}
	if r.Len() != 0 {
		t.Errorf("rejected clip was stored, Len = %d", r.Len())
	}

	a, err := anim.BuildAnimation(&anim.RawAnimation{Duration: 0.5, Tracks: make([]anim.RawTrack, 1)})
	if err != nil {
		t.Fatalf("BuildAnimation: %v", err)
	}
	idx, err := r.Add("wave", a)
	if err != nil || idx != 0 {
		t.Fatalf("Add(wave) = %d, %v", idx, err)
	}
	if c, _ := r.Get(0); c.Name() != "wave" || c.Duration() != 0.5 || c.NumTracks() != 1 {
		t.Errorf("unexpected clip %q %g %d", c.Name(), c.Duration(), c.NumTracks())
	}
}
