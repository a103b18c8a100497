package anim

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// TranslationKey is a translation keyframe; Time is in seconds.
type TranslationKey struct {
	Time  float32
	Value mgl32.Vec3
}

// RotationKey is a rotation keyframe; Time is in seconds.
type RotationKey struct {
	Time  float32
	Value mgl32.Quat
}

// ScaleKey is a scale keyframe; Time is in seconds.
type ScaleKey struct {
	Time  float32
	Value mgl32.Vec3
}

// RawTrack holds the keyframes of one joint. An empty track samples to identity.
type RawTrack struct {
	Translations []TranslationKey
	Rotations    []RotationKey
	Scales       []ScaleKey
}

// Empty reports whether the track has no keys at all.
func (t *RawTrack) Empty() bool {
	return len(t.Translations) == 0 && len(t.Rotations) == 0 && len(t.Scales) == 0
}

// RawAnimation is the offline description of a clip: one track per joint.
type RawAnimation struct {
	Name     string
	Duration float32 // seconds
	Tracks   []RawTrack
}

// NumTracks returns the number of tracks.
func (r *RawAnimation) NumTracks() int {
	return len(r.Tracks)
}

// Validate checks the duration and that every track's keys are strictly
// increasing and lie within [0, Duration].
func (r *RawAnimation) Validate() error {
	if r.Duration <= 0 {
		return fmt.Errorf("%w: %q has duration %g", ErrInvalidDuration, r.Name, r.Duration)
	}

	for i := range r.Tracks {
		tr := &r.Tracks[i]

		times := make([]float32, 0, len(tr.Translations))
		for _, k := range tr.Translations {
			times = append(times, k.Time)
		}
		if err := r.validateTimes(i, "translation", times); err != nil {
			return err
		}

		times = times[:0]
		for _, k := range tr.Rotations {
			times = append(times, k.Time)
		}
		if err := r.validateTimes(i, "rotation", times); err != nil {
			return err
		}

		times = times[:0]
		for _, k := range tr.Scales {
			times = append(times, k.Time)
		}
		if err := r.validateTimes(i, "scale", times); err != nil {
			return err
		}
	}
	return nil
}

func (r *RawAnimation) validateTimes(track int, kind string, times []float32) error {
	prev := float32(-1)
	for _, t := range times {
		if t < 0 || t > r.Duration {
			return fmt.Errorf("%w: track %d %s key at %g, duration %g", ErrKeyframeRange, track, kind, t, r.Duration)
		}
		if t <= prev {
			return fmt.Errorf("%w: track %d %s key at %g after %g", ErrKeyframeOrder, track, kind, t, prev)
		}
		prev = t
	}
	return nil
}

// vec3Key and quatKey store keys by ratio (time / duration).
type vec3Key struct {
	ratio float32
	value mgl32.Vec3
}

type quatKey struct {
	ratio float32
	value mgl32.Quat
}

type track struct {
	translations []vec3Key
	rotations    []quatKey
	scales       []vec3Key
}

// Animation is a compiled, immutable clip.
type Animation struct {
	name     string
	duration float32
	tracks   []track
}

// BuildAnimation validates and compiles a raw animation. Rotation keys are
// normalized and consecutive rotations are aligned to the same hemisphere.
func BuildAnimation(raw *RawAnimation) (*Animation, error) {
	if raw == nil {
		return nil, ErrNilAnimation
	}
	if err := raw.Validate(); err != nil {
		return nil, err
	}

	inv := 1 / raw.Duration
	a := &Animation{
		name:     raw.Name,
		duration: raw.Duration,
		tracks:   make([]track, len(raw.Tracks)),
	}

	for i := range raw.Tracks {
		src := &raw.Tracks[i]
		dst := &a.tracks[i]

		dst.translations = make([]vec3Key, len(src.Translations))
		for j, k := range src.Translations {
			dst.translations[j] = vec3Key{ratio: k.Time * inv, value: k.Value}
		}

		dst.rotations = make([]quatKey, len(src.Rotations))
		for j, k := range src.Rotations {
			q := k.Value.Normalize()
			if j > 0 && dst.rotations[j-1].value.Dot(q) < 0 {
				q = mgl32.Quat{W: -q.W, V: q.V.Mul(-1)}
			}
			dst.rotations[j] = quatKey{ratio: k.Time * inv, value: q}
		}

		dst.scales = make([]vec3Key, len(src.Scales))
		for j, k := range src.Scales {
			dst.scales[j] = vec3Key{ratio: k.Time * inv, value: k.Value}
		}
	}

	return a, nil
}

// Name returns the clip name.
func (a *Animation) Name() string {
	return a.name
}

// Duration returns the clip length in seconds.
func (a *Animation) Duration() float32 {
	return a.duration
}

// NumTracks returns the number of joint tracks.
func (a *Animation) NumTracks() int {
	return len(a.tracks)
}
