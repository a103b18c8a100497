package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Faultbox/midgard-anim/internal/config"
)

func TestCmdInfo(t *testing.T) {
	var out bytes.Buffer
	if err := cmdInfo(config.Default(), []string{armFixture}, &out); err != nil {
		t.Fatalf("cmdInfo: %v", err)
	}

	for _, want := range []string{"Joints: 3", "elbow", "Clips: 2", "wave", "arm"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}

	if err := cmdInfo(config.Default(), nil, &out); err != errUsage {
		t.Errorf("no args error = %v, want %v", err, errUsage)
	}
}

func TestCmdPlay(t *testing.T) {
	tests := []struct {
		name    string
		clip    string
		frames  int
		want    []string
		wantErr bool
	}{
		{
			name:   "default clip",
			frames: 2,
			want:   []string{"   1  t= 0.017  clip=idle", "state=playing", "Joint matrices"},
		},
		{
			name:   "crossfade",
			clip:   "wave",
			frames: 3,
			want:   []string{"state=blending", "clip=idle"},
		},
		{
			name:    "unknown clip",
			clip:    "jump",
			frames:  1,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Play.Clip = tt.clip
			cfg.Play.Frames = tt.frames

			var out bytes.Buffer
			err := cmdPlay(cfg, []string{armFixture}, &out)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("cmdPlay: %v", err)
			}
			if lines := strings.Count(out.String(), "\n"); lines != tt.frames+1+3 {
				t.Errorf("got %d lines, want %d:\n%s", lines, tt.frames+4, out.String())
			}
			for _, want := range tt.want {
				if !strings.Contains(out.String(), want) {
					t.Errorf("output missing %q:\n%s", want, out.String())
				}
			}
		})
	}
}

func TestPlayWithoutClips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bare.yaml")
	if err := os.WriteFile(path, []byte("root: {name: root}\n"), 0644); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	if err := cmdPlay(config.Default(), []string{path}, &out); err == nil {
		t.Error("expected error for a rig without clips")
	}
}

func TestCmdConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := config.Default()
	cfg.Animation.BlendDuration = 0.5

	var out bytes.Buffer
	if err := cmdConfig(cfg, []string{path}, &out); err != nil {
		t.Fatalf("cmdConfig: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("config not written: %v", err)
	}
	var saved config.Config
	if err := yaml.Unmarshal(data, &saved); err != nil {
		t.Fatalf("written config is not yaml: %v", err)
	}
	if saved.Animation.BlendDuration != 0.5 {
		t.Errorf("blend_duration = %f, want 0.5", saved.Animation.BlendDuration)
	}
	if !strings.Contains(out.String(), path) {
		t.Errorf("output %q does not name %s", out.String(), path)
	}
}

func TestWatchRigStopsOnCancel(t *testing.T) {
	cfg := config.Default()
	w, err := newFileWatcher(cfg.Watch.Debounce, armFixture)
	if err != nil {
		t.Fatalf("newFileWatcher: %v", err)
	}
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	done := make(chan error, 1)
	go func() { done <- watchRig(ctx, cfg, armFixture, w, &out) }()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("watchRig: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("watchRig did not return after cancel")
	}

	if !strings.Contains(out.String(), "Rig: "+armFixture) {
		t.Errorf("initial build not printed:\n%s", out.String())
	}
}
