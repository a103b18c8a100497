package math

import "github.com/go-gl/mathgl/mgl32"

// AlignQuat returns q or -q, whichever lies in the same hemisphere as ref.
// Both represent the same rotation; aligning them keeps interpolation on the short arc.
func AlignQuat(ref, q mgl32.Quat) mgl32.Quat {
	if ref.Dot(q) < 0 {
		return mgl32.Quat{W: -q.W, V: q.V.Mul(-1)}
	}
	return q
}

// NlerpQuat interpolates between two rotations along the shortest path and renormalizes.
func NlerpQuat(a, b mgl32.Quat, t float32) mgl32.Quat {
	return mgl32.QuatNlerp(a, AlignQuat(a, b), t)
}

// QuatFromXYZW builds a quaternion from (x, y, z, w) components as stored by importers.
func QuatFromXYZW(v [4]float32) mgl32.Quat {
	return mgl32.Quat{W: v[3], V: mgl32.Vec3{v[0], v[1], v[2]}}
}
