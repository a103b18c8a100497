package anim

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	pmath "github.com/Faultbox/midgard-anim/pkg/math"
)

// BlendLayer is one weighted input pose of a BlendingJob.
type BlendLayer struct {
	Transform []pmath.Transform
	Weight    float32
}

// BlendingJob combines several local-space poses into one by weight.
//
// Translations and scales are averaged by weight, rotations are summed in a
// common hemisphere and renormalized. When the accumulated weight is below
// Threshold the rest pose contributes the missing weight, so a blend of
// near-zero layers settles on the bind pose instead of a degenerate result.
type BlendingJob struct {
	Layers    []BlendLayer
	RestPose  []pmath.Transform
	Threshold float32
	Output    []pmath.Transform
}

// Run executes the job.
func (j *BlendingJob) Run() error {
	if len(j.Layers) == 0 {
		return ErrNoLayers
	}

	n := len(j.Output)
	for i, l := range j.Layers {
		if len(l.Transform) < n {
			return fmt.Errorf("%w: layer %d has %d transforms, output %d", ErrLayerSize, i, len(l.Transform), n)
		}
	}
	if len(j.RestPose) < n {
		return fmt.Errorf("%w: rest pose has %d transforms, output %d", ErrInputTooSmall, len(j.RestPose), n)
	}

	for joint := 0; joint < n; joint++ {
		var (
			total       float32
			translation mgl32.Vec3
			scale       mgl32.Vec3
			rotation    mgl32.Quat
			seeded      bool
		)

		add := func(t pmath.Transform, w float32) {
			if w <= 0 {
				return
			}
			q := t.Rotation
			if seeded {
				q = pmath.AlignQuat(rotation, q)
			}
			seeded = true
			rotation = rotation.Add(q.Scale(w))
			translation = translation.Add(t.Translation.Mul(w))
			scale = scale.Add(t.Scale.Mul(w))
			total += w
		}

		for _, l := range j.Layers {
			add(l.Transform[joint], l.Weight)
		}
		if total < j.Threshold {
			add(j.RestPose[joint], j.Threshold-total)
		}

		if total <= 0 {
			j.Output[joint] = j.RestPose[joint]
			continue
		}

		inv := 1 / total
		j.Output[joint] = pmath.Transform{
			Translation: translation.Mul(inv),
			Rotation:    rotation.Normalize(),
			Scale:       scale.Mul(inv),
		}
	}

	return nil
}
