package anim

import (
	"fmt"

	pmath "github.com/Faultbox/midgard-anim/pkg/math"
)

// RawJoint is one node of an offline joint forest.
type RawJoint struct {
	// Index is the joint's slot in the caller's flat joint array.
	// Every per-joint buffer the runtime reads or writes is addressed by it.
	Index     int
	Name      string
	Transform pmath.Transform // bind transform in parent space
	Children  []RawJoint
}

// RawSkeleton is the offline, forest-shaped description of a skeleton.
type RawSkeleton struct {
	Roots []RawJoint
}

// NumJoints returns the total number of joints in the forest.
func (r *RawSkeleton) NumJoints() int {
	n := 0
	r.walk(func(_ *RawJoint, _ int) { n++ })
	return n
}

// Validate checks that the forest is non-empty and that joint indices form
// a permutation of [0, NumJoints).
func (r *RawSkeleton) Validate() error {
	n := r.NumJoints()
	if n == 0 {
		return ErrEmptySkeleton
	}

	seen := make([]bool, n)
	var err error
	r.walk(func(j *RawJoint, _ int) {
		if err != nil {
			return
		}
		if j.Index < 0 || j.Index >= n {
			err = fmt.Errorf("%w: joint %q has index %d, skeleton has %d joints", ErrInvalidJointIndex, j.Name, j.Index, n)
			return
		}
		if seen[j.Index] {
			err = fmt.Errorf("%w: %d (joint %q)", ErrDuplicateJointIndex, j.Index, j.Name)
			return
		}
		seen[j.Index] = true
	})
	return err
}

// walk visits every joint depth-first, parents before children, passing the
// parent's index (-1 for roots).
func (r *RawSkeleton) walk(fn func(j *RawJoint, parent int)) {
	var visit func(j *RawJoint, parent int)
	visit = func(j *RawJoint, parent int) {
		fn(j, parent)
		for i := range j.Children {
			visit(&j.Children[i], j.Index)
		}
	}
	for i := range r.Roots {
		visit(&r.Roots[i], -1)
	}
}

// Skeleton is the compiled, immutable runtime hierarchy.
type Skeleton struct {
	parents   []int
	names     []string
	restPoses []pmath.Transform
	order     []int
}

// BuildSkeleton validates and compiles a raw joint forest.
func BuildSkeleton(raw *RawSkeleton) (*Skeleton, error) {
	if raw == nil {
		return nil, ErrEmptySkeleton
	}
	if err := raw.Validate(); err != nil {
		return nil, err
	}

	n := raw.NumJoints()
	s := &Skeleton{
		parents:   make([]int, n),
		names:     make([]string, n),
		restPoses: make([]pmath.Transform, n),
		order:     make([]int, 0, n),
	}

	raw.walk(func(j *RawJoint, parent int) {
		s.parents[j.Index] = parent
		s.names[j.Index] = j.Name
		s.restPoses[j.Index] = j.Transform
		s.order = append(s.order, j.Index)
	})

	return s, nil
}

// NumJoints returns the number of joints.
func (s *Skeleton) NumJoints() int {
	return len(s.parents)
}

// Parents returns the parent index of each joint, -1 for roots.
func (s *Skeleton) Parents() []int {
	return s.parents
}

// Names returns joint names by index.
func (s *Skeleton) Names() []string {
	return s.names
}

// RestPoses returns the bind transforms by joint index.
func (s *Skeleton) RestPoses() []pmath.Transform {
	return s.restPoses
}

// Order returns joint indices sorted so every parent precedes its children.
func (s *Skeleton) Order() []int {
	return s.order
}
