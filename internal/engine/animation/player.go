package animation

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-anim/pkg/anim"
	pmath "github.com/Faultbox/midgard-anim/pkg/math"
)

// Shader uniforms written by UploadJointMatrices.
const (
	UniformAnimated     = "animated"
	UniformBoneMatrices = "finalBonesMatrices"
)

// State is the playback state of a Player.
type State int

const (
	StateIdle     State = iota // no clip selected
	StatePlaying               // one clip advancing
	StateBlending              // crossfading from the current clip to the next
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePlaying:
		return "playing"
	case StateBlending:
		return "blending"
	default:
		return "unknown"
	}
}

// Settings holds player playback parameters.
type Settings struct {
	BlendDuration  float32 // crossfade length in seconds
	BlendThreshold float32 // layer weight below which the rest pose contributes
	Speed          float32 // playback rate multiplier
	Looping        bool
}

// DefaultSettings returns the default playback settings.
func DefaultSettings() Settings {
	return Settings{
		BlendDuration:  0.25,
		BlendThreshold: anim.DefaultBlendThreshold,
		Speed:          1.0,
		Looping:        true,
	}
}

// UniformSetter receives the skinning state of a player. A shader program
// wrapper satisfies it.
type UniformSetter interface {
	SetBool(name string, v bool)
	SetMat4v(name string, m []mgl32.Mat4)
}

// Player drives one skeleton from the clips of a registry. It is ticked once
// per frame with Update and is not safe for concurrent use.
type Player struct {
	log      *zap.Logger
	skeleton *Skeleton
	registry *Registry
	settings Settings

	state        State
	playing      bool
	finished     bool
	current      int
	next         int
	elapsed      float32 // seconds into the current clip
	nextElapsed  float32 // seconds into the incoming clip while blending
	blendElapsed float32

	context  *anim.SamplingContext
	locals   []pmath.Transform
	incoming []pmath.Transform
	blended  []pmath.Transform
	models   []mgl32.Mat4
	layers   [2]anim.BlendLayer
}

// NewPlayer creates a player attached to skeleton and registry. Either may be
// nil and attached later. A nil logger disables logging.
func NewPlayer(skeleton *Skeleton, registry *Registry, settings Settings, log *zap.Logger) *Player {
	if log == nil {
		log = zap.NewNop()
	}
	p := &Player{
		log:      log,
		settings: settings,
		playing:  true,
		context:  anim.NewSamplingContext(0),
	}
	p.SetBlendDuration(settings.BlendDuration)
	p.SetBlendThreshold(settings.BlendThreshold)
	if !finite(settings.Speed) {
		p.settings.Speed = 1
	}
	p.reset()
	p.SetSkeleton(skeleton)
	p.SetRegistry(registry)
	return p
}

// SetSkeleton attaches the skeleton the player writes to and resets playback.
// A skeleton already driven by another player is refused and the player is
// left without one.
func (p *Player) SetSkeleton(s *Skeleton) {
	if p.skeleton != nil {
		p.skeleton.release(p)
	}
	p.skeleton = nil
	p.reset()

	if s == nil {
		return
	}
	if err := s.claim(p); err != nil {
		p.log.Error("attach skeleton", zap.Error(err))
		return
	}
	p.skeleton = s

	n := s.NumJoints()
	p.locals = make([]pmath.Transform, n)
	p.incoming = make([]pmath.Transform, n)
	p.blended = make([]pmath.Transform, n)
	p.models = make([]mgl32.Mat4, n)
}

// SetRegistry attaches the clip registry and resets playback.
func (p *Player) SetRegistry(r *Registry) {
	p.registry = r
	p.reset()
}

// Skeleton returns the attached skeleton.
func (p *Player) Skeleton() *Skeleton { return p.skeleton }

// Registry returns the attached registry.
func (p *Player) Registry() *Registry { return p.registry }

// Detach releases the skeleton so another player can drive it.
func (p *Player) Detach() {
	p.SetSkeleton(nil)
}

func (p *Player) reset() {
	p.state = StateIdle
	p.finished = false
	p.current = -1
	p.next = -1
	p.elapsed = 0
	p.nextElapsed = 0
	p.blendElapsed = 0
	p.context.Invalidate()
}

// SetClip selects the clip at index. The first selection starts playing it
// immediately; later selections crossfade from the current clip. It reports
// whether the command was accepted: unknown indices, clips that do not match
// the skeleton, and selections made while a crossfade is running are refused
// without changing state.
func (p *Player) SetClip(index int) bool {
	if p.skeleton == nil || p.registry == nil {
		p.log.Debug("set clip without skeleton or registry", zap.Int("index", index))
		return false
	}

	clip, ok := p.registry.Get(index)
	if !ok {
		p.log.Debug("set clip: index out of range", zap.Int("index", index), zap.Int("clips", p.registry.Len()))
		return false
	}
	if clip.NumTracks() != p.skeleton.NumJoints() {
		p.log.Warn("set clip: track count does not match skeleton",
			zap.String("clip", clip.Name()),
			zap.Int("tracks", clip.NumTracks()),
			zap.Int("joints", p.skeleton.NumJoints()))
		return false
	}

	switch p.state {
	case StateBlending:
		p.log.Debug("set clip: blend in progress", zap.Int("index", index), zap.Int("next", p.next))
		return false

	case StatePlaying:
		if index == p.current {
			return true
		}
		if p.settings.BlendDuration <= 0 {
			p.start(index)
			return true
		}
		p.next = index
		p.nextElapsed = 0
		p.blendElapsed = 0
		p.state = StateBlending
		p.resizeContext()
		return true

	default:
		p.start(index)
		return true
	}
}

// SetClipByName selects the clip registered under name.
func (p *Player) SetClipByName(name string) bool {
	if p.registry == nil {
		p.log.Debug("set clip without registry", zap.String("clip", name))
		return false
	}
	idx, ok := p.registry.Index(name)
	if !ok {
		p.log.Debug("set clip: unknown name", zap.String("clip", name))
		return false
	}
	return p.SetClip(idx)
}

// start switches to index without a crossfade.
func (p *Player) start(index int) {
	p.current = index
	p.next = -1
	p.elapsed = 0
	p.nextElapsed = 0
	p.blendElapsed = 0
	p.finished = false
	p.state = StatePlaying
	p.resizeContext()
}

// resizeContext sizes the sampling context for the active clips.
func (p *Player) resizeContext() {
	tracks := 0
	for _, idx := range []int{p.current, p.next} {
		if clip, ok := p.registry.Get(idx); ok && clip.NumTracks() > tracks {
			tracks = clip.NumTracks()
		}
	}
	p.context.Resize(tracks)
}

// CancelBlend abandons a running crossfade and keeps playing the current clip.
func (p *Player) CancelBlend() {
	if p.state != StateBlending {
		return
	}
	p.state = StatePlaying
	p.next = -1
	p.nextElapsed = 0
	p.blendElapsed = 0
	p.resizeContext()
}

// Update advances playback by dt seconds and rewrites the skeleton's joint
// matrices. It never fails: sampling errors keep the previous matrices and
// hierarchy errors reset them to identity.
func (p *Player) Update(dt float32) {
	if p.skeleton == nil || p.registry == nil || p.state == StateIdle {
		return
	}
	if dt < 0 || !finite(dt) || !p.playing {
		dt = 0
	}

	current, ok := p.registry.Get(p.current)
	if !ok {
		p.reset()
		return
	}

	step := dt * p.settings.Speed

	if p.state == StateBlending {
		next, ok := p.registry.Get(p.next)
		if !ok {
			p.CancelBlend()
		} else {
			p.elapsed, _ = p.advance(current, p.elapsed, step)
			p.nextElapsed, _ = p.advance(next, p.nextElapsed, step)
			p.blendElapsed += dt

			if p.blendElapsed < p.settings.BlendDuration {
				p.pose(current, next)
				return
			}

			// Crossfade done: the incoming clip keeps its local time.
			p.current = p.next
			p.elapsed = p.nextElapsed
			p.next = -1
			p.nextElapsed = 0
			p.blendElapsed = 0
			p.finished = false
			p.state = StatePlaying
			p.resizeContext()
			p.pose(next, nil)
			return
		}
	}

	if !p.finished {
		p.elapsed, p.finished = p.advance(current, p.elapsed, step)
	}
	p.pose(current, nil)
}

// advance moves t by step within clip, wrapping when looping and clamping
// otherwise. It reports whether a non-looping clip reached its end.
func (p *Player) advance(clip *Clip, t, step float32) (float32, bool) {
	d := clip.Duration()
	t += step

	if p.settings.Looping {
		t = float32(math.Mod(float64(t), float64(d)))
		if t < 0 {
			t += d
		}
		return t, false
	}

	if t >= d {
		return d, true
	}
	if t <= 0 && step < 0 {
		return 0, true
	}
	return t, false
}

// pose samples current (and next when blending) and writes skinning matrices.
func (p *Player) pose(current, next *Clip) {
	if err := p.sample(current, p.elapsed, p.locals); err != nil {
		p.log.Warn("sample clip", zap.String("clip", current.Name()), zap.Error(err))
		return
	}
	src := p.locals

	if next != nil {
		if err := p.sample(next, p.nextElapsed, p.incoming); err != nil {
			p.log.Warn("sample clip", zap.String("clip", next.Name()), zap.Error(err))
			return
		}

		out, in := p.BlendWeights()
		p.layers[0] = anim.BlendLayer{Transform: p.locals, Weight: out}
		p.layers[1] = anim.BlendLayer{Transform: p.incoming, Weight: in}

		job := anim.BlendingJob{
			Layers:    p.layers[:],
			RestPose:  p.skeleton.RestPose(),
			Threshold: p.settings.BlendThreshold,
			Output:    p.blended,
		}
		if err := job.Run(); err != nil {
			p.log.Warn("blend clips", zap.String("from", current.Name()), zap.String("to", next.Name()), zap.Error(err))
			return
		}
		src = p.blended
	}

	matrices := p.skeleton.JointMatrices()

	ltm := anim.LocalToModelJob{
		Skeleton: p.skeleton.Hierarchy(),
		Input:    src,
		Output:   p.models,
	}
	if err := ltm.Run(); err != nil {
		p.log.Warn("local to model", zap.Error(err))
		for i := range matrices {
			matrices[i] = mgl32.Ident4()
		}
		return
	}

	// Bind space to animated model space.
	for i, j := range p.skeleton.Joints() {
		if i >= len(matrices) {
			break
		}
		matrices[i] = p.models[i].Mul4(j.InverseBindPose)
	}
}

func (p *Player) sample(clip *Clip, t float32, out []pmath.Transform) error {
	job := anim.SamplingJob{
		Animation: clip.Animation(),
		Context:   p.context,
		Ratio:     t / clip.Duration(),
		Output:    out,
	}
	return job.Run()
}

// UploadJointMatrices hands the current skinning state to a shader.
func (p *Player) UploadJointMatrices(u UniformSetter) {
	if p.skeleton == nil || p.state == StateIdle {
		u.SetBool(UniformAnimated, false)
		return
	}
	u.SetBool(UniformAnimated, true)
	u.SetMat4v(UniformBoneMatrices, p.skeleton.JointMatrices())
}

// State returns the playback state.
func (p *Player) State() State { return p.state }

// IsBlending reports whether a crossfade is running.
func (p *Player) IsBlending() bool { return p.state == StateBlending }

// GetCurrentClipIndex returns the index of the current clip, -1 when idle.
func (p *Player) GetCurrentClipIndex() int { return p.current }

// NextClipIndex returns the index of the incoming clip, -1 when not blending.
func (p *Player) NextClipIndex() int { return p.next }

// GetCurrentTime returns the playback position in seconds within the current clip.
func (p *Player) GetCurrentTime() float32 { return p.elapsed }

// BlendProgress returns how far the crossfade has run, in [0, 1].
func (p *Player) BlendProgress() float32 {
	if p.state != StateBlending {
		return 0
	}
	if p.settings.BlendDuration <= 0 {
		return 1
	}
	return mgl32.Clamp(p.blendElapsed/p.settings.BlendDuration, 0, 1)
}

// BlendWeights returns the outgoing and incoming clip weights. They always
// sum to one; outside a crossfade the current clip has full weight.
func (p *Player) BlendWeights() (out, in float32) {
	if p.state != StateBlending {
		return 1, 0
	}
	w := p.BlendProgress()
	return 1 - w, w
}

// Settings returns the current playback settings.
func (p *Player) Settings() Settings { return p.settings }

// SetBlendDuration sets the crossfade length in seconds.
func (p *Player) SetBlendDuration(seconds float32) {
	if seconds < 0 || !finite(seconds) {
		seconds = 0
	}
	p.settings.BlendDuration = seconds
}

// SetBlendThreshold sets the weight below which the rest pose fills a blend.
func (p *Player) SetBlendThreshold(threshold float32) {
	if threshold < 0 || !finite(threshold) {
		threshold = 0
	}
	p.settings.BlendThreshold = threshold
}

// SetSpeed sets the playback rate multiplier. NaN and infinite rates are ignored.
func (p *Player) SetSpeed(speed float32) {
	if !finite(speed) {
		p.log.Debug("ignoring non-finite speed", zap.Float32("speed", speed))
		return
	}
	p.settings.Speed = speed
}

// SetLooping sets whether clips wrap at their end.
func (p *Player) SetLooping(looping bool) {
	p.settings.Looping = looping
	if looping {
		p.finished = false
	}
}

// SetPlaying pauses or resumes time advancement. A paused player still
// poses the skeleton at the current time.
func (p *Player) SetPlaying(playing bool) { p.playing = playing }

// IsPlaying reports whether time advances on Update.
func (p *Player) IsPlaying() bool { return p.playing }

// IsFinished reports whether a non-looping clip reached its end.
func (p *Player) IsFinished() bool { return p.finished }

func finite(x float32) bool {
	return !math.IsNaN(float64(x)) && !math.IsInf(float64(x), 0)
}
