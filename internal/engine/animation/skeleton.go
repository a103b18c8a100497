package animation

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/midgard-anim/pkg/anim"
	pmath "github.com/Faultbox/midgard-anim/pkg/math"
)

// Skeleton errors.
var (
	ErrNoJoints         = errors.New("skeleton has no joints")
	ErrParentOutOfRange = errors.New("joint parent index out of range")
	ErrCyclicHierarchy  = errors.New("joint hierarchy is not a forest")
	ErrSkeletonInUse    = errors.New("skeleton is already driven by another player")
	ErrJointCount       = errors.New("hierarchy joint count does not match skeleton")
)

// Skeleton owns a joint array, its compiled hierarchy and the model-space
// joint matrices the renderer reads for skinning.
type Skeleton struct {
	joints    []Joint
	hierarchy *anim.Skeleton
	matrices  []mgl32.Mat4

	// owner is the single player allowed to write matrices.
	owner *Player
}

// NewSkeleton validates joints and builds a skeleton from them.
func NewSkeleton(joints []Joint) (*Skeleton, error) {
	s := &Skeleton{}
	if err := s.Build(joints); err != nil {
		return nil, err
	}
	return s, nil
}

// Build validates that joints form a forest, compiles the runtime hierarchy
// and sizes the joint matrix buffer. Parent links may point forwards or
// backwards in the array. On error the skeleton is left untouched.
func (s *Skeleton) Build(joints []Joint) error {
	n := len(joints)
	if n == 0 {
		return ErrNoJoints
	}

	children := make([][]int, n)
	var roots []int
	for i, j := range joints {
		switch {
		case j.ParentIndex == -1:
			roots = append(roots, i)
		case j.ParentIndex < -1 || j.ParentIndex >= n:
			return fmt.Errorf("%w: joint %d (%q) has parent %d, skeleton has %d joints",
				ErrParentOutOfRange, i, j.Name, j.ParentIndex, n)
		default:
			children[j.ParentIndex] = append(children[j.ParentIndex], i)
		}
	}

	// Every joint of a forest is reachable from exactly one root; joints
	// caught in a parent cycle are reachable from none.
	visited := 0
	var node func(i int) anim.RawJoint
	node = func(i int) anim.RawJoint {
		visited++
		raw := anim.RawJoint{
			Index:     i,
			Name:      joints[i].Name,
			Transform: joints[i].LocalBindTransform,
		}
		for _, c := range children[i] {
			raw.Children = append(raw.Children, node(c))
		}
		return raw
	}

	raw := anim.RawSkeleton{Roots: make([]anim.RawJoint, 0, len(roots))}
	for _, r := range roots {
		raw.Roots = append(raw.Roots, node(r))
	}
	if visited != n {
		return fmt.Errorf("%w: %d of %d joints unreachable from a root", ErrCyclicHierarchy, n-visited, n)
	}

	hierarchy, err := anim.BuildSkeleton(&raw)
	if err != nil {
		return fmt.Errorf("compile hierarchy: %w", err)
	}

	s.joints = append([]Joint(nil), joints...)
	s.setHierarchy(hierarchy)
	return nil
}

// SetHierarchy replaces the runtime hierarchy and resets the joint matrices
// to identity. The hierarchy must have one joint per skeleton joint.
func (s *Skeleton) SetHierarchy(h *anim.Skeleton) error {
	if h == nil || h.NumJoints() != len(s.joints) {
		n := 0
		if h != nil {
			n = h.NumJoints()
		}
		return fmt.Errorf("%w: hierarchy has %d joints, skeleton has %d", ErrJointCount, n, len(s.joints))
	}
	s.setHierarchy(h)
	return nil
}

func (s *Skeleton) setHierarchy(h *anim.Skeleton) {
	s.hierarchy = h

	n := 0
	if h != nil {
		n = h.NumJoints()
	}
	s.matrices = make([]mgl32.Mat4, n)
	for i := range s.matrices {
		s.matrices[i] = mgl32.Ident4()
	}
}

// Hierarchy returns the compiled runtime hierarchy.
func (s *Skeleton) Hierarchy() *anim.Skeleton {
	return s.hierarchy
}

// NumJoints returns the number of joints.
func (s *Skeleton) NumJoints() int {
	return len(s.joints)
}

// Joints returns the joint array. Callers must not modify it.
func (s *Skeleton) Joints() []Joint {
	return s.joints
}

// Joint returns the joint at index.
func (s *Skeleton) Joint(index int) (Joint, bool) {
	if index < 0 || index >= len(s.joints) {
		return Joint{}, false
	}
	return s.joints[index], true
}

// JointIndex returns the index of the first joint named name.
func (s *Skeleton) JointIndex(name string) (int, bool) {
	for i := range s.joints {
		if s.joints[i].Name == name {
			return i, true
		}
	}
	return -1, false
}

// RestPose returns the local bind transforms by joint index.
func (s *Skeleton) RestPose() []pmath.Transform {
	if s.hierarchy == nil {
		return nil
	}
	return s.hierarchy.RestPoses()
}

// JointMatrices returns the current skinning matrices, one per joint.
// They are identity until the first successful update. The slice is
// replaced when the hierarchy is reassigned, so it must not be cached
// across frames.
func (s *Skeleton) JointMatrices() []mgl32.Mat4 {
	return s.matrices
}

func (s *Skeleton) claim(p *Player) error {
	if s.owner != nil && s.owner != p {
		return ErrSkeletonInUse
	}
	s.owner = p
	return nil
}

func (s *Skeleton) release(p *Player) {
	if s.owner == p {
		s.owner = nil
	}
}
