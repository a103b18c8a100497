package anim

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	pmath "github.com/Faultbox/midgard-anim/pkg/math"
)

// LocalToModelJob converts local-space joint transforms into model-space
// matrices by walking the hierarchy parents first:
// model[i] = model[parent(i)] * local[i].
type LocalToModelJob struct {
	Skeleton *Skeleton
	Input    []pmath.Transform
	Output   []mgl32.Mat4
}

// Run executes the job.
func (j *LocalToModelJob) Run() error {
	if j.Skeleton == nil {
		return ErrNilSkeleton
	}

	n := j.Skeleton.NumJoints()
	if len(j.Input) < n {
		return fmt.Errorf("%w: %d transforms for %d joints", ErrInputTooSmall, len(j.Input), n)
	}
	if len(j.Output) < n {
		return fmt.Errorf("%w: %d matrices for %d joints", ErrOutputTooSmall, len(j.Output), n)
	}

	for _, idx := range j.Skeleton.order {
		local := j.Input[idx].Mat4()
		if parent := j.Skeleton.parents[idx]; parent >= 0 {
			j.Output[idx] = j.Output[parent].Mul4(local)
		} else {
			j.Output[idx] = local
		}
	}

	return nil
}
