package main

import (
	"fmt"
	"os"

	"github.com/go-gl/mathgl/mgl32"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/midgard-anim/internal/engine/model"
	pmath "github.com/Faultbox/midgard-anim/pkg/math"
)

// rigDoc is the YAML layout of a rig fixture. Rotations are [x, y, z, w];
// matrices are 16 floats in column-major order.
type rigDoc struct {
	Root       *nodeDoc       `yaml:"root"`
	Meshes     []meshDoc      `yaml:"meshes"`
	Animations []animationDoc `yaml:"animations"`
}

type nodeDoc struct {
	Name        string    `yaml:"name"`
	Translation []float32 `yaml:"translation"`
	Rotation    []float32 `yaml:"rotation"`
	Scale       []float32 `yaml:"scale"`
	Children    []nodeDoc `yaml:"children"`
}

type meshDoc struct {
	Name     string    `yaml:"name"`
	Vertices int       `yaml:"vertices"`
	Bones    []boneDoc `yaml:"bones"`
}

type boneDoc struct {
	Name string `yaml:"name"`
	// Offset defaults to the inverse of the node's model-space bind matrix.
	Offset  []float32   `yaml:"offset"`
	Weights []weightDoc `yaml:"weights"`
}

type weightDoc struct {
	Vertex int     `yaml:"vertex"`
	Weight float32 `yaml:"weight"`
}

type animationDoc struct {
	Name           string       `yaml:"name"`
	Duration       float64      `yaml:"duration"`
	TicksPerSecond float64      `yaml:"ticks_per_second"`
	Channels       []channelDoc `yaml:"channels"`
}

type channelDoc struct {
	Node      string   `yaml:"node"`
	Positions []keyDoc `yaml:"positions"`
	Rotations []keyDoc `yaml:"rotations"`
	Scales    []keyDoc `yaml:"scales"`
}

type keyDoc struct {
	Time  float64   `yaml:"time"`
	Value []float32 `yaml:"value"`
}

// loadScene reads a rig fixture into a scene graph.
func loadScene(path string) (*model.Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parseScene(data)
}

func parseScene(data []byte) (*model.Scene, error) {
	var doc rigDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode rig: %w", err)
	}
	if doc.Root == nil {
		return nil, model.ErrNoRoot
	}

	bind := make(map[string]mgl32.Mat4)
	root, err := doc.Root.node(mgl32.Ident4(), bind)
	if err != nil {
		return nil, err
	}
	scene := &model.Scene{Root: root}

	for _, md := range doc.Meshes {
		mesh := model.Mesh{Name: md.Name, VertexCount: md.Vertices}
		for _, bd := range md.Bones {
			bone := model.Bone{Name: bd.Name}
			switch {
			case len(bd.Offset) == 16:
				copy(bone.Offset[:], bd.Offset)
			case len(bd.Offset) == 0:
				if m, ok := bind[bd.Name]; ok {
					bone.Offset = m.Inv()
				} else {
					bone.Offset = mgl32.Ident4()
				}
			default:
				return nil, fmt.Errorf("mesh %q bone %q: offset needs 16 values, got %d", md.Name, bd.Name, len(bd.Offset))
			}
			for _, w := range bd.Weights {
				bone.Weights = append(bone.Weights, model.VertexWeight{Vertex: w.Vertex, Weight: w.Weight})
			}
			mesh.Bones = append(mesh.Bones, bone)
		}
		scene.Meshes = append(scene.Meshes, mesh)
	}

	for _, ad := range doc.Animations {
		src := model.AnimationSource{
			Name:           ad.Name,
			Duration:       ad.Duration,
			TicksPerSecond: ad.TicksPerSecond,
		}
		for _, cd := range ad.Channels {
			ch, err := cd.channel()
			if err != nil {
				return nil, fmt.Errorf("animation %q: %w", ad.Name, err)
			}
			src.Channels = append(src.Channels, ch)
		}
		scene.Animations = append(scene.Animations, src)
	}

	return scene, nil
}

// node converts the document subtree, recording each node's model-space
// bind matrix by name.
func (d *nodeDoc) node(parent mgl32.Mat4, bind map[string]mgl32.Mat4) (*model.Node, error) {
	t := pmath.IdentityTransform()

	if d.Translation != nil {
		v, err := vec3(d.Translation)
		if err != nil {
			return nil, fmt.Errorf("node %q translation: %w", d.Name, err)
		}
		t.Translation = v
	}
	if d.Rotation != nil {
		if len(d.Rotation) != 4 {
			return nil, fmt.Errorf("node %q rotation: need 4 values, got %d", d.Name, len(d.Rotation))
		}
		t.Rotation = pmath.QuatFromXYZW([4]float32(d.Rotation)).Normalize()
	}
	if d.Scale != nil {
		v, err := vec3(d.Scale)
		if err != nil {
			return nil, fmt.Errorf("node %q scale: %w", d.Name, err)
		}
		t.Scale = v
	}

	n := &model.Node{Name: d.Name, Transform: t.Mat4()}
	global := parent.Mul4(n.Transform)
	if _, seen := bind[d.Name]; !seen {
		bind[d.Name] = global
	}

	for i := range d.Children {
		child, err := d.Children[i].node(global, bind)
		if err != nil {
			return nil, err
		}
		n.Children = append(n.Children, child)
	}
	return n, nil
}

func (d *channelDoc) channel() (model.NodeChannel, error) {
	ch := model.NodeChannel{Node: d.Node}

	for _, k := range d.Positions {
		v, err := vec3(k.Value)
		if err != nil {
			return ch, fmt.Errorf("node %q position at %g: %w", d.Node, k.Time, err)
		}
		ch.Positions = append(ch.Positions, model.VectorKey{Time: k.Time, Value: v})
	}
	for _, k := range d.Rotations {
		if len(k.Value) != 4 {
			return ch, fmt.Errorf("node %q rotation at %g: need 4 values, got %d", d.Node, k.Time, len(k.Value))
		}
		ch.Rotations = append(ch.Rotations, model.QuatKey{Time: k.Time, Value: pmath.QuatFromXYZW([4]float32(k.Value))})
	}
	for _, k := range d.Scales {
		v, err := vec3(k.Value)
		if err != nil {
			return ch, fmt.Errorf("node %q scale at %g: %w", d.Node, k.Time, err)
		}
		ch.Scales = append(ch.Scales, model.VectorKey{Time: k.Time, Value: v})
	}
	return ch, nil
}

func vec3(v []float32) (mgl32.Vec3, error) {
	if len(v) != 3 {
		return mgl32.Vec3{}, fmt.Errorf("need 3 values, got %d", len(v))
	}
	return mgl32.Vec3{v[0], v[1], v[2]}, nil
}
