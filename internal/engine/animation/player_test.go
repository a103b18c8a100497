package animation

import (
	gomath "math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Faultbox/midgard-anim/pkg/anim"
)

// staticClip has empty tracks, so every joint samples to identity.
func staticClip(t *testing.T, name string, duration float32, tracks int) *Clip {
	t.Helper()
	a, err := anim.BuildAnimation(&anim.RawAnimation{Name: name, Duration: duration, Tracks: make([]anim.RawTrack, tracks)})
	if err != nil {
		t.Fatalf("BuildAnimation(%s): %v", name, err)
	}
	c, err := NewClip(name, a)
	if err != nil {
		t.Fatalf("NewClip(%s): %v", name, err)
	}
	return c
}

// slideClip moves the root joint along X from 'from' to 'to' over duration.
func slideClip(t *testing.T, name string, duration, from, to float32, tracks int) *Clip {
	t.Helper()
	raw := anim.RawAnimation{Name: name, Duration: duration, Tracks: make([]anim.RawTrack, tracks)}
	raw.Tracks[0].Translations = []anim.TranslationKey{
		{Time: 0, Value: mgl32.Vec3{from, 0, 0}},
		{Time: duration, Value: mgl32.Vec3{to, 0, 0}},
	}
	a, err := anim.BuildAnimation(&raw)
	if err != nil {
		t.Fatalf("BuildAnimation(%s): %v", name, err)
	}
	c, err := NewClip(name, a)
	if err != nil {
		t.Fatalf("NewClip(%s): %v", name, err)
	}
	return c
}

type fixture struct {
	skeleton *Skeleton
	registry *Registry
	player   *Player
	logs     *observer.ObservedLogs
}

func newFixture(t *testing.T, settings Settings, clips ...*Clip) *fixture {
	t.Helper()

	joints := make([]Joint, 3)
	for i := range joints {
		joints[i] = NewJoint(jointName(i), i-1)
	}
	s, err := NewSkeleton(joints)
	if err != nil {
		t.Fatalf("NewSkeleton: %v", err)
	}

	r := NewRegistry()
	for _, c := range clips {
		r.AddClip(c)
	}

	core, logs := observer.New(zapcore.DebugLevel)
	return &fixture{
		skeleton: s,
		registry: r,
		player:   NewPlayer(s, r, settings, zap.New(core)),
		logs:     logs,
	}
}

func approx(a, b float32) bool {
	return gomath.Abs(float64(a-b)) < 1e-5
}

func TestPlayerScenarioLoopingIdentity(t *testing.T) {
	joints := chainJoints(3)
	s, err := NewSkeleton(joints)
	if err != nil {
		t.Fatalf("NewSkeleton: %v", err)
	}
	r := NewRegistry()
	r.AddClip(staticClip(t, "idle", 2.0, 3))

	p := NewPlayer(s, r, DefaultSettings(), nil)
	if !p.SetClip(0) {
		t.Fatal("SetClip(0) refused")
	}

	p.Update(1.0)
	p.Update(1.0)

	if got := p.GetCurrentTime(); got != 0 {
		t.Errorf("elapsed after two 1s ticks of a 2s loop = %f, want 0", got)
	}

	matrices := s.JointMatrices()
	if len(matrices) != len(joints) {
		t.Fatalf("matrices = %d, want %d", len(matrices), len(joints))
	}
	for i, m := range matrices {
		if !m.ApproxEqualThreshold(joints[i].InverseBindPose, 1e-6) {
			t.Errorf("joint %d matrix = %v, want inverse bind pose %v", i, m, joints[i].InverseBindPose)
		}
	}
}

func TestPlayerScenarioCrossfadeCompletes(t *testing.T) {
	settings := DefaultSettings()
	settings.BlendDuration = 0.25

	f := newFixture(t, settings, staticClip(t, "a", 1, 3), staticClip(t, "b", 1, 3))
	p := f.player

	p.SetClip(0)
	p.Update(0.1)

	if !p.SetClip(1) {
		t.Fatal("SetClip(1) refused")
	}
	if !p.IsBlending() || p.State() != StateBlending {
		t.Fatalf("state after switching = %v, want blending", p.State())
	}

	p.Update(0.25)

	if got := p.GetCurrentClipIndex(); got != 1 {
		t.Errorf("current clip = %d, want 1", got)
	}
	if p.IsBlending() {
		t.Error("still blending after the blend duration elapsed")
	}
	if got := p.NextClipIndex(); got != -1 {
		t.Errorf("next clip = %d, want -1", got)
	}
	// The incoming clip keeps the local time it accumulated during the fade.
	if got := p.GetCurrentTime(); !approx(got, 0.25) {
		t.Errorf("elapsed after fade = %f, want 0.25", got)
	}
}

func TestPlayerBlendWeights(t *testing.T) {
	settings := DefaultSettings()
	settings.BlendDuration = 1

	f := newFixture(t, settings, staticClip(t, "a", 2, 3), staticClip(t, "b", 2, 3))
	p := f.player
	p.SetClip(0)

	if out, in := p.BlendWeights(); out != 1 || in != 0 {
		t.Errorf("weights while playing = %f, %f; want 1, 0", out, in)
	}

	p.SetClip(1)
	if out, in := p.BlendWeights(); out != 1 || in != 0 {
		t.Errorf("weights at blend start = %f, %f; want 1, 0", out, in)
	}

	steps := []struct {
		dt      float32
		wantOut float32
	}{
		{0.25, 0.75},
		{0.25, 0.5},
		{0.25, 0.25},
	}
	for _, s := range steps {
		p.Update(s.dt)
		out, in := p.BlendWeights()
		if !approx(out, s.wantOut) {
			t.Errorf("outgoing weight = %f, want %f", out, s.wantOut)
		}
		if !approx(out+in, 1) {
			t.Errorf("weights %f + %f do not sum to 1", out, in)
		}
		if !approx(p.BlendProgress(), in) {
			t.Errorf("BlendProgress = %f, want %f", p.BlendProgress(), in)
		}
	}

	p.Update(0.25)
	if out, in := p.BlendWeights(); out != 1 || in != 0 {
		t.Errorf("weights after blend = %f, %f; want 1, 0 on the new clip", out, in)
	}
}

func TestPlayerBlendedPose(t *testing.T) {
	settings := DefaultSettings()
	settings.BlendDuration = 1

	f := newFixture(t, settings,
		slideClip(t, "left", 1, 0, 0, 3),
		slideClip(t, "right", 1, 10, 10, 3),
	)
	p := f.player
	p.SetClip(0)
	p.SetClip(1)
	p.Update(0.5)

	// Children inherit the root's translation.
	for i, m := range f.skeleton.JointMatrices() {
		if got := m.At(0, 3); !approx(got, 5) {
			t.Errorf("joint %d x = %f, want 5", i, got)
		}
	}
}

func TestPlayerSetClipDuringBlendIsRejected(t *testing.T) {
	f := newFixture(t, DefaultSettings(),
		staticClip(t, "a", 1, 3), staticClip(t, "b", 1, 3), staticClip(t, "c", 1, 3))
	p := f.player

	p.SetClip(0)
	p.SetClip(1)

	if p.SetClip(2) {
		t.Error("SetClip during a blend should be refused")
	}
	if p.GetCurrentClipIndex() != 0 || p.NextClipIndex() != 1 || !p.IsBlending() {
		t.Errorf("blend state changed: current %d next %d state %v",
			p.GetCurrentClipIndex(), p.NextClipIndex(), p.State())
	}

	p.Update(0.3)
	if !p.SetClip(2) {
		t.Error("SetClip after the blend finished should be accepted")
	}
	if p.NextClipIndex() != 2 {
		t.Errorf("next clip = %d, want 2", p.NextClipIndex())
	}
}

func TestPlayerFirstClipSnaps(t *testing.T) {
	f := newFixture(t, DefaultSettings(), staticClip(t, "a", 1, 3), staticClip(t, "b", 1, 3))
	p := f.player

	if p.State() != StateIdle || p.GetCurrentClipIndex() != -1 {
		t.Fatalf("new player state %v clip %d, want idle -1", p.State(), p.GetCurrentClipIndex())
	}

	p.SetClipByName("b")
	if p.State() != StatePlaying || p.GetCurrentClipIndex() != 1 || p.GetCurrentTime() != 0 {
		t.Errorf("first clip: state %v clip %d time %f", p.State(), p.GetCurrentClipIndex(), p.GetCurrentTime())
	}

	// Re-selecting the playing clip is a no-op.
	p.Update(0.4)
	if !p.SetClip(1) || p.IsBlending() || !approx(p.GetCurrentTime(), 0.4) {
		t.Errorf("re-selecting the current clip restarted it: state %v time %f", p.State(), p.GetCurrentTime())
	}
}

func TestPlayerInvalidCommands(t *testing.T) {
	f := newFixture(t, DefaultSettings(), staticClip(t, "a", 1, 3), staticClip(t, "short", 1, 2))
	p := f.player
	p.SetClip(0)
	p.Update(0.5)

	tests := []struct {
		name string
		cmd  func() bool
	}{
		{"negative index", func() bool { return p.SetClip(-1) }},
		{"index past end", func() bool { return p.SetClip(7) }},
		{"unknown name", func() bool { return p.SetClipByName("run") }},
		{"track count mismatch", func() bool { return p.SetClip(1) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.cmd() {
				t.Error("command accepted")
			}
			if p.State() != StatePlaying || p.GetCurrentClipIndex() != 0 || !approx(p.GetCurrentTime(), 0.5) {
				t.Errorf("state changed: %v clip %d time %f", p.State(), p.GetCurrentClipIndex(), p.GetCurrentTime())
			}
		})
	}

	detached := NewPlayer(nil, nil, DefaultSettings(), nil)
	if detached.SetClip(0) || detached.SetClipByName("a") {
		t.Error("player without skeleton or registry accepted a clip")
	}
	detached.Update(1) // must not panic
}

func TestPlayerNonLooping(t *testing.T) {
	settings := DefaultSettings()
	settings.Looping = false

	f := newFixture(t, settings, slideClip(t, "once", 1, 0, 10, 3))
	p := f.player
	p.SetClip(0)

	p.Update(0.6)
	if p.IsFinished() {
		t.Fatal("finished too early")
	}
	p.Update(0.6)
	if !p.IsFinished() || p.GetCurrentTime() != 1 {
		t.Errorf("finished %v at %f, want true at 1", p.IsFinished(), p.GetCurrentTime())
	}
	p.Update(0.6)
	if p.GetCurrentTime() != 1 {
		t.Errorf("finished clip advanced to %f", p.GetCurrentTime())
	}
	if got := f.skeleton.JointMatrices()[0].At(0, 3); !approx(got, 10) {
		t.Errorf("root x at end = %f, want 10", got)
	}
}

func TestPlayerSpeedAndPause(t *testing.T) {
	f := newFixture(t, DefaultSettings(), staticClip(t, "a", 4, 3))
	p := f.player
	p.SetClip(0)

	p.SetSpeed(2)
	p.Update(0.5)
	if !approx(p.GetCurrentTime(), 1) {
		t.Errorf("time at double speed = %f, want 1", p.GetCurrentTime())
	}

	p.SetPlaying(false)
	p.Update(0.5)
	if !approx(p.GetCurrentTime(), 1) {
		t.Errorf("paused player advanced to %f", p.GetCurrentTime())
	}
	if p.IsPlaying() {
		t.Error("IsPlaying after pause")
	}
}

func TestPlayerIgnoresNonFiniteTime(t *testing.T) {
	bad := []struct {
		name string
		dt   float32
	}{
		{"nan", float32(gomath.NaN())},
		{"+inf", float32(gomath.Inf(1))},
		{"-inf", float32(gomath.Inf(-1))},
	}

	for _, tt := range bad {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, DefaultSettings(), slideClip(t, "slide", 1, 0, 10, 3), staticClip(t, "rest", 1, 3))
			p := f.player
			p.SetClip(0)
			p.Update(0.1)
			p.Update(tt.dt)
			p.Update(0.1)
			p.Update(0.1)

			if !approx(p.GetCurrentTime(), 0.3) {
				t.Errorf("time after bad tick = %f, want 0.3", p.GetCurrentTime())
			}
			assertFiniteMatrices(t, f.skeleton)

			// Same for a crossfade in progress.
			p.SetClip(1)
			p.Update(tt.dt)
			p.Update(0.1)
			if !p.IsBlending() || !approx(p.BlendProgress(), 0.4) {
				t.Errorf("blend after bad tick: blending %v progress %f, want 0.4", p.IsBlending(), p.BlendProgress())
			}
			assertFiniteMatrices(t, f.skeleton)
		})
	}
}

func TestPlayerIgnoresNonFiniteSettings(t *testing.T) {
	settings := DefaultSettings()
	settings.Speed = float32(gomath.NaN())
	settings.BlendDuration = float32(gomath.Inf(1))

	f := newFixture(t, settings, staticClip(t, "a", 1, 3), staticClip(t, "b", 1, 3))
	p := f.player
	if got := p.Settings(); got.Speed != 1 || got.BlendDuration != 0 {
		t.Errorf("settings = %+v, want speed 1 and no blend", got)
	}

	p.SetSpeed(float32(gomath.Inf(-1)))
	p.SetBlendThreshold(float32(gomath.NaN()))
	if got := p.Settings(); got.Speed != 1 || got.BlendThreshold != 0 {
		t.Errorf("settings = %+v, want speed 1 and threshold 0", got)
	}

	p.SetClip(0)
	p.Update(0.25)
	if !approx(p.GetCurrentTime(), 0.25) {
		t.Errorf("time = %f, want 0.25", p.GetCurrentTime())
	}
	assertFiniteMatrices(t, f.skeleton)
}

func assertFiniteMatrices(t *testing.T, s *Skeleton) {
	t.Helper()
	for i, m := range s.JointMatrices() {
		for _, v := range m {
			if gomath.IsNaN(float64(v)) || gomath.IsInf(float64(v), 0) {
				t.Fatalf("joint %d matrix not finite: %v", i, m)
			}
		}
	}
}

func TestPlayerCancelBlend(t *testing.T) {
	f := newFixture(t, DefaultSettings(), staticClip(t, "a", 1, 3), staticClip(t, "b", 1, 3))
	p := f.player
	p.SetClip(0)
	p.SetClip(1)
	p.Update(0.1)

	p.CancelBlend()
	if p.IsBlending() || p.GetCurrentClipIndex() != 0 || p.NextClipIndex() != -1 {
		t.Errorf("after cancel: state %v current %d next %d", p.State(), p.GetCurrentClipIndex(), p.NextClipIndex())
	}
}

func TestPlayerSamplingFailureKeepsMatrices(t *testing.T) {
	f := newFixture(t, DefaultSettings(), slideClip(t, "slide", 1, 0, 10, 3))
	p := f.player
	p.SetClip(0)
	p.Update(0.5)

	before := append([]mgl32.Mat4(nil), f.skeleton.JointMatrices()...)

	p.context.Resize(0)
	p.Update(0.25)

	for i, m := range f.skeleton.JointMatrices() {
		if m != before[i] {
			t.Errorf("joint %d matrix changed after a failed sample", i)
		}
	}
	if f.logs.FilterMessage("sample clip").Len() != 1 {
		t.Errorf("expected one sampling warning, got %d", f.logs.FilterMessage("sample clip").Len())
	}
}

func TestPlayerPropagationFailureFallsBackToIdentity(t *testing.T) {
	f := newFixture(t, DefaultSettings(), slideClip(t, "slide", 1, 0, 10, 3))
	p := f.player
	p.SetClip(0)
	p.Update(0.5)

	// A hierarchy with more joints than the player's pose buffers.
	larger, err := NewSkeleton(chainJoints(4))
	if err != nil {
		t.Fatalf("NewSkeleton: %v", err)
	}
	f.skeleton.setHierarchy(larger.Hierarchy())
	f.skeleton.JointMatrices()[0] = mgl32.Translate3D(3, 3, 3)

	p.Update(0.1)

	for i, m := range f.skeleton.JointMatrices() {
		if m != mgl32.Ident4() {
			t.Errorf("joint %d = %v, want identity", i, m)
		}
	}
	if f.logs.FilterMessage("local to model").Len() != 1 {
		t.Error("expected a propagation warning")
	}
}

func TestPlayerSkeletonOwnership(t *testing.T) {
	f := newFixture(t, DefaultSettings(), staticClip(t, "a", 1, 3))

	other := NewPlayer(f.skeleton, f.registry, DefaultSettings(), nil)
	if other.Skeleton() != nil {
		t.Fatal("a second player attached to an owned skeleton")
	}
	if other.SetClip(0) {
		t.Error("player without skeleton accepted a clip")
	}

	f.player.Detach()
	other.SetSkeleton(f.skeleton)
	if other.Skeleton() != f.skeleton {
		t.Error("skeleton not attachable after the owner detached")
	}
}

type uniformRecorder struct {
	bools map[string]bool
	mats  map[string][]mgl32.Mat4
}

func (u *uniformRecorder) SetBool(name string, v bool)          { u.bools[name] = v }
func (u *uniformRecorder) SetMat4v(name string, m []mgl32.Mat4) { u.mats[name] = m }

func TestPlayerUploadJointMatrices(t *testing.T) {
	f := newFixture(t, DefaultSettings(), staticClip(t, "a", 1, 3))
	u := &uniformRecorder{bools: map[string]bool{}, mats: map[string][]mgl32.Mat4{}}

	f.player.UploadJointMatrices(u)
	if u.bools[UniformAnimated] {
		t.Error("idle player reported animated")
	}

	f.player.SetClip(0)
	f.player.Update(0.1)
	f.player.UploadJointMatrices(u)
	if !u.bools[UniformAnimated] {
		t.Error("playing player not animated")
	}
	if got := len(u.mats[UniformBoneMatrices]); got != 3 {
		t.Errorf("uploaded %d matrices, want 3", got)
	}
}

func TestStateString(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateIdle, "idle"},
		{StatePlaying, "playing"},
		{StateBlending, "blending"},
		{State(9), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}
