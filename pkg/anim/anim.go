// Package anim is the skeletal animation runtime: it compiles raw joint forests
// and keyframe tracks into runtime skeletons and animations, and provides the
// jobs that sample, blend and compose them into model-space matrices.
//
// Jobs are plain structs filled by the caller and executed with Run. They
// never allocate on the hot path; buffers are owned by the caller.
package anim

import "errors"

// Build errors.
var (
	ErrEmptySkeleton       = errors.New("skeleton has no joints")
	ErrInvalidJointIndex   = errors.New("joint index out of range")
	ErrDuplicateJointIndex = errors.New("joint index used more than once")
	ErrNilAnimation        = errors.New("animation is nil")
	ErrInvalidDuration     = errors.New("animation duration must be positive")
	ErrKeyframeOrder       = errors.New("keyframes must be strictly increasing in time")
	ErrKeyframeRange       = errors.New("keyframe time outside [0, duration]")
)

// Job errors.
var (
	ErrNilContext      = errors.New("sampling context is nil")
	ErrContextTooSmall = errors.New("sampling context smaller than animation track count")
	ErrOutputTooSmall  = errors.New("output buffer too small")
	ErrInputTooSmall   = errors.New("input buffer too small")
	ErrNilSkeleton     = errors.New("skeleton is nil")
	ErrNoLayers        = errors.New("blending job has no layers")
	ErrLayerSize       = errors.New("blend layer smaller than output")
)

// DefaultBlendThreshold is the accumulated layer weight below which the
// rest pose starts contributing to a blend.
const DefaultBlendThreshold = 0.1
