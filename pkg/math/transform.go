// Package math provides transform math shared by the animation runtime.
// Vectors, quaternions and matrices come from mgl32; matrices are column-major
// (OpenGL compatible), so m[12], m[13], m[14] hold the translation.
package math

import (
	gomath "math"

	"github.com/go-gl/mathgl/mgl32"
)

// Transform is a decomposed affine transform used for joints and keyframes.
type Transform struct {
	Translation mgl32.Vec3
	Rotation    mgl32.Quat
	Scale       mgl32.Vec3
}

// IdentityTransform returns a transform with no translation, no rotation and unit scale.
func IdentityTransform() Transform {
	return Transform{
		Rotation: mgl32.QuatIdent(),
		Scale:    mgl32.Vec3{1, 1, 1},
	}
}

// Mat4 composes the transform as Translation * Rotation * Scale.
func (t Transform) Mat4() mgl32.Mat4 {
	m := t.Rotation.Normalize().Mat4()

	for col := 0; col < 3; col++ {
		s := t.Scale[col]
		m[col*4+0] *= s
		m[col*4+1] *= s
		m[col*4+2] *= s
	}

	m[12] = t.Translation[0]
	m[13] = t.Translation[1]
	m[14] = t.Translation[2]
	return m
}

// IsIdentity reports whether the transform is the identity within eps.
func (t Transform) IsIdentity(eps float32) bool {
	id := IdentityTransform()
	return t.Translation.ApproxEqualThreshold(id.Translation, eps) &&
		t.Scale.ApproxEqualThreshold(id.Scale, eps) &&
		t.Rotation.OrientationEqualThreshold(id.Rotation, eps)
}

// DecomposeMat4 splits a column-major matrix into translation, rotation and scale.
// Shear is not representable and is discarded.
func DecomposeMat4(m mgl32.Mat4) Transform {
	t := Transform{
		Translation: mgl32.Vec3{m[12], m[13], m[14]},
	}

	sx := m.Col(0).Vec3().Len()
	sy := m.Col(1).Vec3().Len()
	sz := m.Col(2).Vec3().Len()

	// A mirrored basis keeps its handedness in the X scale.
	if m.Det() < 0 {
		sx = -sx
	}
	t.Scale = mgl32.Vec3{sx, sy, sz}

	if gomath.Abs(float64(sx)) < 1e-6 {
		sx = 1
	}
	if sy < 1e-6 {
		sy = 1
	}
	if sz < 1e-6 {
		sz = 1
	}

	rot := mgl32.Mat4{
		m[0] / sx, m[1] / sx, m[2] / sx, 0,
		m[4] / sy, m[5] / sy, m[6] / sy, 0,
		m[8] / sz, m[9] / sz, m[10] / sz, 0,
		0, 0, 0, 1,
	}
	t.Rotation = mgl32.Mat4ToQuat(rot).Normalize()

	return t
}

// LerpVec3 performs linear interpolation between two 3D vectors.
func LerpVec3(a, b mgl32.Vec3, t float32) mgl32.Vec3 {
	return a.Add(b.Sub(a).Mul(t))
}
