// Package animation provides the per-model skeletal animation runtime:
// skeletons built from flat joint arrays, a registry of compiled clips and a
// player that samples, crossfades and composes them into skinning matrices.
package animation

import (
	"github.com/go-gl/mathgl/mgl32"

	pmath "github.com/Faultbox/midgard-anim/pkg/math"
)

// Joint is one node of a skeleton hierarchy. A joint's identity is its index
// in the skeleton's joint array.
type Joint struct {
	Name string
	// ParentIndex is the index of the parent joint, -1 for a root.
	ParentIndex int
	// LocalBindTransform is the bind transform in parent space.
	LocalBindTransform pmath.Transform
	// InverseBindPose maps a vertex from model space into this joint's bind space.
	InverseBindPose mgl32.Mat4
}

// NewJoint creates a joint with identity bind transforms.
func NewJoint(name string, parent int) Joint {
	return Joint{
		Name:               name,
		ParentIndex:        parent,
		LocalBindTransform: pmath.IdentityTransform(),
		InverseBindPose:    mgl32.Ident4(),
	}
}

// IsRoot reports whether the joint has no parent.
func (j Joint) IsRoot() bool {
	return j.ParentIndex == -1
}
