package model

import (
	"fmt"

	"github.com/Faultbox/midgard-anim/pkg/anim"
)

// rawAnimation converts an imported animation into one track per joint.
// Key times are converted from ticks to seconds. Channels for nodes that are
// not joints are dropped and their names returned.
func rawAnimation(src *AnimationSource, joints map[string]int, numJoints int) (*anim.RawAnimation, []string) {
	tps := src.TicksPerSecond
	if tps <= 0 {
		tps = 1
	}

	raw := &anim.RawAnimation{
		Name:     src.Name,
		Duration: float32(src.Duration / tps),
		Tracks:   make([]anim.RawTrack, numJoints),
	}

	var dropped []string
	for i := range src.Channels {
		ch := &src.Channels[i]
		idx, ok := joints[ch.Node]
		if !ok {
			dropped = append(dropped, ch.Node)
			continue
		}

		track := &raw.Tracks[idx]
		track.Translations = make([]anim.TranslationKey, len(ch.Positions))
		for k, key := range ch.Positions {
			track.Translations[k] = anim.TranslationKey{Time: float32(key.Time / tps), Value: key.Value}
		}
		track.Rotations = make([]anim.RotationKey, len(ch.Rotations))
		for k, key := range ch.Rotations {
			track.Rotations[k] = anim.RotationKey{Time: float32(key.Time / tps), Value: key.Value}
		}
		track.Scales = make([]anim.ScaleKey, len(ch.Scales))
		for k, key := range ch.Scales {
			track.Scales[k] = anim.ScaleKey{Time: float32(key.Time / tps), Value: key.Value}
		}
	}

	return raw, dropped
}

// compileAnimation validates and compiles an imported animation.
func compileAnimation(src *AnimationSource, joints map[string]int, numJoints int) (*anim.Animation, []string, error) {
	raw, dropped := rawAnimation(src, joints, numJoints)
	a, err := anim.BuildAnimation(raw)
	if err != nil {
		return nil, dropped, fmt.Errorf("animation %q: %w", src.Name, err)
	}
	return a, dropped, nil
}
