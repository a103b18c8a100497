package anim

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	pmath "github.com/Faultbox/midgard-anim/pkg/math"
)

// trackCursor caches the last key used for each channel of a track.
type trackCursor struct {
	translation int
	rotation    int
	scale       int
}

// SamplingContext caches per-track keyframe cursors between samples so that
// forward playback finds its keys in constant time. A context serves one
// sampler at a time and must be sized for the largest animation it samples.
type SamplingContext struct {
	cursors   []trackCursor
	animation *Animation
}

// NewSamplingContext creates a context for animations with up to maxTracks tracks.
func NewSamplingContext(maxTracks int) *SamplingContext {
	c := &SamplingContext{}
	c.Resize(maxTracks)
	return c
}

// Resize changes the number of tracks the context can serve and invalidates it.
func (c *SamplingContext) Resize(maxTracks int) {
	if maxTracks < 0 {
		maxTracks = 0
	}
	if cap(c.cursors) >= maxTracks {
		c.cursors = c.cursors[:maxTracks]
	} else {
		c.cursors = make([]trackCursor, maxTracks)
	}
	c.Invalidate()
}

// MaxTracks returns the number of tracks the context can serve.
func (c *SamplingContext) MaxTracks() int {
	return len(c.cursors)
}

// Invalidate drops all cached cursors.
func (c *SamplingContext) Invalidate() {
	c.animation = nil
	for i := range c.cursors {
		c.cursors[i] = trackCursor{}
	}
}

// bind makes the context track a, invalidating it when a changes.
func (c *SamplingContext) bind(a *Animation) {
	if c.animation != a {
		c.Invalidate()
		c.animation = a
	}
}

// SamplingJob samples an animation at a normalized time into local-space transforms.
type SamplingJob struct {
	Animation *Animation
	Context   *SamplingContext
	// Ratio is the normalized playback position, clamped to [0, 1].
	Ratio float32
	// Output receives one transform per track; entries past the track count are untouched.
	Output []pmath.Transform
}

// Run executes the job.
func (j *SamplingJob) Run() error {
	if j.Animation == nil {
		return ErrNilAnimation
	}
	if j.Context == nil {
		return ErrNilContext
	}

	n := j.Animation.NumTracks()
	if j.Context.MaxTracks() < n {
		return fmt.Errorf("%w: context %d, animation %q has %d", ErrContextTooSmall, j.Context.MaxTracks(), j.Animation.name, n)
	}
	if len(j.Output) < n {
		return fmt.Errorf("%w: %d transforms for %d tracks", ErrOutputTooSmall, len(j.Output), n)
	}

	j.Context.bind(j.Animation)
	ratio := mgl32.Clamp(j.Ratio, 0, 1)

	for i := range j.Animation.tracks {
		tr := &j.Animation.tracks[i]
		cur := &j.Context.cursors[i]
		out := pmath.IdentityTransform()

		if k, t, ok := seekVec3(tr.translations, &cur.translation, ratio); ok {
			out.Translation = pmath.LerpVec3(tr.translations[k].value, tr.translations[k+1].value, t)
		} else if len(tr.translations) > 0 {
			out.Translation = tr.translations[k].value
		}

		if k, t, ok := seekQuat(tr.rotations, &cur.rotation, ratio); ok {
			out.Rotation = pmath.NlerpQuat(tr.rotations[k].value, tr.rotations[k+1].value, t)
		} else if len(tr.rotations) > 0 {
			out.Rotation = tr.rotations[k].value
		}

		if k, t, ok := seekVec3(tr.scales, &cur.scale, ratio); ok {
			out.Scale = pmath.LerpVec3(tr.scales[k].value, tr.scales[k+1].value, t)
		} else if len(tr.scales) > 0 {
			out.Scale = tr.scales[k].value
		}

		j.Output[i] = out
	}

	return nil
}

// seekVec3 and seekQuat locate the key pair around ratio, starting from the
// cached cursor. They return the left key index, the interpolation factor and
// whether interpolation is needed; when it is not, the key index alone holds
// the value (first key before the start, last key after the end).
func seekVec3(keys []vec3Key, cursor *int, ratio float32) (int, float32, bool) {
	return seek(len(keys), func(i int) float32 { return keys[i].ratio }, cursor, ratio)
}

func seekQuat(keys []quatKey, cursor *int, ratio float32) (int, float32, bool) {
	return seek(len(keys), func(i int) float32 { return keys[i].ratio }, cursor, ratio)
}

func seek(n int, ratioAt func(int) float32, cursor *int, ratio float32) (int, float32, bool) {
	if n == 0 {
		return 0, 0, false
	}

	k := *cursor
	if k >= n || ratioAt(k) > ratio {
		k = 0
	}
	for k+1 < n && ratioAt(k+1) <= ratio {
		k++
	}
	*cursor = k

	if ratio <= ratioAt(k) || k+1 >= n {
		return k, 0, false
	}

	r0, r1 := ratioAt(k), ratioAt(k+1)
	return k, (ratio - r0) / (r1 - r0), true
}
