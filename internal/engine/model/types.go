// Package model turns an imported scene graph into an animated rig: a
// skeleton, a registry of compiled clips, a player and per-vertex skin
// influences.
package model

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/midgard-anim/internal/engine/animation"
)

// Node is one node of an imported scene graph.
type Node struct {
	Name      string
	Transform mgl32.Mat4 // local transform in parent space
	Children  []*Node
}

// VertexWeight assigns part of a vertex to a bone.
type VertexWeight struct {
	Vertex int
	Weight float32
}

// Bone binds mesh vertices to the scene node of the same name.
type Bone struct {
	Name    string
	Offset  mgl32.Mat4 // inverse bind matrix: model space to bone space
	Weights []VertexWeight
}

// Mesh is the skinning part of an imported mesh.
type Mesh struct {
	Name        string
	VertexCount int
	Bones       []Bone
}

// VectorKey is a translation or scale key; Time is in ticks.
type VectorKey struct {
	Time  float64
	Value mgl32.Vec3
}

// QuatKey is a rotation key; Time is in ticks.
type QuatKey struct {
	Time  float64
	Value mgl32.Quat
}

// NodeChannel holds the keys that animate one node.
type NodeChannel struct {
	Node      string
	Positions []VectorKey
	Rotations []QuatKey
	Scales    []VectorKey
}

// AnimationSource is an imported animation.
type AnimationSource struct {
	Name           string
	Duration       float64 // ticks
	TicksPerSecond float64 // <= 0 means keys are already in seconds
	Channels       []NodeChannel
}

// Scene is the resolved, in-memory output of a scene importer.
type Scene struct {
	Root       *Node
	Meshes     []Mesh
	Animations []AnimationSource
}

// MaxInfluences is the number of joints that may move one vertex.
const MaxInfluences = 4

// Influence lists the joints moving one vertex. Unused slots have joint -1
// and weight 0.
type Influence struct {
	Joints  [MaxInfluences]int32
	Weights [MaxInfluences]float32
}

// Skin holds the per-vertex influences of one mesh.
type Skin struct {
	Mesh       string
	Influences []Influence
}

// Rig is everything built from one scene.
type Rig struct {
	Skeleton *animation.Skeleton
	Registry *animation.Registry
	Player   *animation.Player
	// JointMap maps node names to joint indices.
	JointMap map[string]int
	Skins    []Skin
	// Warnings lists the recoverable problems met while building.
	Warnings []string
}
