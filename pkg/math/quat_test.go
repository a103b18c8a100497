package math

import (
	gomath "math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestAlignQuat(t *testing.T) {
	ref := mgl32.QuatIdent()
	q := mgl32.Quat{W: -1}

	got := AlignQuat(ref, q)
	if got.W != 1 {
		t.Errorf("AlignQuat: got W %v, want 1", got.W)
	}

	same := AlignQuat(ref, ref)
	if same != ref {
		t.Errorf("AlignQuat should keep an aligned quaternion, got %v", same)
	}
}

func TestNlerpQuatEndpoints(t *testing.T) {
	q1 := mgl32.QuatIdent()
	q2 := mgl32.QuatRotate(float32(gomath.Pi/2), mgl32.Vec3{0, 1, 0})

	if got := NlerpQuat(q1, q2, 0); !got.ApproxEqualThreshold(q1, 1e-5) {
		t.Errorf("NlerpQuat at t=0: got %v, want %v", got, q1)
	}
	if got := NlerpQuat(q1, q2, 1); !got.ApproxEqualThreshold(q2, 1e-5) {
		t.Errorf("NlerpQuat at t=1: got %v, want %v", got, q2)
	}

	// For a 90 degree arc the midpoint is the 45 degree rotation.
	mid := NlerpQuat(q1, q2, 0.5)
	expectedW := float32(gomath.Cos(gomath.Pi / 8))
	if gomath.Abs(float64(mid.W-expectedW)) > 1e-4 {
		t.Errorf("NlerpQuat at t=0.5: expected W ~%v, got %v", expectedW, mid.W)
	}
	if l := mid.Len(); gomath.Abs(float64(l-1)) > 1e-5 {
		t.Errorf("NlerpQuat result should be unit length, got %v", l)
	}
}

func TestNlerpQuatShortestPath(t *testing.T) {
	q1 := mgl32.QuatIdent()
	// Same rotation as identity but in the opposite hemisphere.
	q2 := mgl32.Quat{W: -1}

	mid := NlerpQuat(q1, q2, 0.5)
	if !mid.OrientationEqualThreshold(q1, 1e-5) {
		t.Errorf("NlerpQuat should not pass through a zero quaternion, got %v", mid)
	}
}

func TestQuatFromXYZW(t *testing.T) {
	q := QuatFromXYZW([4]float32{0.1, 0.2, 0.3, 0.9})
	if q.W != 0.9 || q.V != (mgl32.Vec3{0.1, 0.2, 0.3}) {
		t.Errorf("QuatFromXYZW: got %v", q)
	}
}
