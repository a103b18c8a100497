package model

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Faultbox/midgard-anim/internal/engine/animation"
	pmath "github.com/Faultbox/midgard-anim/pkg/math"
)

// ErrNoRoot is returned for a scene without a root node.
var ErrNoRoot = errors.New("scene has no root node")

// Builder converts imported scenes into rigs.
type Builder struct {
	log      *zap.Logger
	settings animation.Settings
}

// NewBuilder creates a builder whose players use settings. A nil logger
// disables logging.
func NewBuilder(settings animation.Settings, log *zap.Logger) *Builder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Builder{log: log, settings: settings}
}

// build accumulates the state of one Build call.
type build struct {
	log      *zap.Logger
	joints   []animation.Joint
	jointMap map[string]int
	warnings []string
}

func (b *build) warn(msg string, fields ...zap.Field) {
	b.log.Warn(msg, fields...)

	enc := zapcore.NewMapObjectEncoder()
	keys := make([]string, 0, len(fields))
	for _, f := range fields {
		f.AddTo(enc)
		keys = append(keys, f.Key)
	}
	sort.Strings(keys)

	var sb strings.Builder
	sb.WriteString(msg)
	for _, k := range keys {
		fmt.Fprintf(&sb, " %s=%v", k, enc.Fields[k])
	}
	b.warnings = append(b.warnings, sb.String())
}

// Build extracts joints, inverse bind poses, clips and skins from scene.
// Missing references are recorded as warnings and skipped; an invalid
// hierarchy fails the whole build. Clips that fail validation are skipped.
// The returned rig's player is already playing clip 0 when there is one.
func (b *Builder) Build(scene *Scene) (*Rig, error) {
	if scene == nil || scene.Root == nil {
		return nil, ErrNoRoot
	}

	st := &build{log: b.log, jointMap: make(map[string]int)}

	// Joints
	st.extractJoints(scene.Root, -1, make(map[*Node]bool))

	// Inverse bind poses
	for mi := range scene.Meshes {
		mesh := &scene.Meshes[mi]
		for _, bone := range mesh.Bones {
			idx, ok := st.jointMap[bone.Name]
			if !ok {
				st.warn("bone has no matching node", zap.String("mesh", mesh.Name), zap.String("bone", bone.Name))
				continue
			}
			st.joints[idx].InverseBindPose = bone.Offset
		}
	}

	skeleton, err := animation.NewSkeleton(st.joints)
	if err != nil {
		b.log.Error("build skeleton", zap.Error(err))
		return nil, fmt.Errorf("build skeleton: %w", err)
	}

	// Clips
	registry := animation.NewRegistry()
	for ai := range scene.Animations {
		src := &scene.Animations[ai]

		a, dropped, err := compileAnimation(src, st.jointMap, len(st.joints))
		for _, node := range dropped {
			b.log.Debug("channel has no matching joint", zap.String("animation", src.Name), zap.String("node", node))
		}
		if err != nil {
			b.log.Error("compile animation", zap.Error(err))
			st.warnings = append(st.warnings, err.Error())
			continue
		}

		if _, exists := registry.Index(src.Name); exists {
			st.warn("duplicate animation name, earlier clip reachable by index only", zap.String("animation", src.Name))
		}
		if _, err := registry.Add(src.Name, a); err != nil {
			b.log.Error("register animation", zap.Error(err))
			st.warnings = append(st.warnings, err.Error())
		}
	}

	// Skins
	skins := make([]Skin, 0, len(scene.Meshes))
	for mi := range scene.Meshes {
		skin, warnings := buildSkin(&scene.Meshes[mi], st.jointMap)
		for _, w := range warnings {
			b.log.Warn(w)
		}
		st.warnings = append(st.warnings, warnings...)
		skins = append(skins, skin)
	}

	player := animation.NewPlayer(skeleton, registry, b.settings, b.log.Named("player"))
	if registry.Len() > 0 {
		player.SetClip(0)
	}

	b.log.Info("rig built",
		zap.Int("joints", skeleton.NumJoints()),
		zap.Int("clips", registry.Len()),
		zap.Int("meshes", len(skins)),
		zap.Int("warnings", len(st.warnings)))

	return &Rig{
		Skeleton: skeleton,
		Registry: registry,
		Player:   player,
		JointMap: st.jointMap,
		Skins:    skins,
		Warnings: st.warnings,
	}, nil
}

// extractJoints walks the node tree depth-first, giving each node name a
// joint index on first visit. A node revisited through a shared or cyclic
// child link is skipped. A zero transform is read as identity.
func (b *build) extractJoints(node *Node, parent int, visited map[*Node]bool) {
	if node == nil {
		return
	}
	if visited[node] {
		b.warn("node reached twice, skipping", zap.String("node", node.Name))
		return
	}
	visited[node] = true

	idx, ok := b.jointMap[node.Name]
	if !ok {
		idx = len(b.joints)
		b.jointMap[node.Name] = idx

		joint := animation.NewJoint(node.Name, parent)
		if node.Transform != (mgl32.Mat4{}) {
			joint.LocalBindTransform = pmath.DecomposeMat4(node.Transform)
		}
		b.joints = append(b.joints, joint)
	} else {
		b.warn("duplicate node name, reusing joint", zap.String("node", node.Name), zap.Int("index", idx))
	}

	for _, child := range node.Children {
		b.extractJoints(child, idx, visited)
	}
}
