package animation

import (
	"errors"
	"fmt"

	"github.com/Faultbox/midgard-anim/pkg/anim"
)

// ErrInvalidClip is returned for a missing animation or a non-positive duration.
var ErrInvalidClip = errors.New("invalid animation clip")

// Clip is a named, compiled animation with one track per skeleton joint.
type Clip struct {
	name      string
	animation *anim.Animation
}

// NewClip wraps a compiled animation under name.
func NewClip(name string, a *anim.Animation) (*Clip, error) {
	if a == nil {
		return nil, fmt.Errorf("%w: %q has no animation", ErrInvalidClip, name)
	}
	if a.Duration() <= 0 {
		return nil, fmt.Errorf("%w: %q has duration %g", ErrInvalidClip, name, a.Duration())
	}
	return &Clip{name: name, animation: a}, nil
}

// Name returns the clip name.
func (c *Clip) Name() string { return c.name }

// Duration returns the clip length in seconds.
func (c *Clip) Duration() float32 { return c.animation.Duration() }

// NumTracks returns the number of joint tracks.
func (c *Clip) NumTracks() int { return c.animation.NumTracks() }

// Animation returns the compiled animation.
func (c *Clip) Animation() *anim.Animation { return c.animation }
