package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-anim/internal/config"
	"github.com/Faultbox/midgard-anim/internal/engine/animation"
	"github.com/Faultbox/midgard-anim/internal/engine/model"
	"github.com/Faultbox/midgard-anim/internal/logger"
)

var errUsage = errors.New("missing rig file argument")

// buildRig loads a rig fixture and builds it with the configured settings.
func buildRig(cfg *config.Config, path string) (*model.Rig, error) {
	scene, err := loadScene(path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}

	b := model.NewBuilder(cfg.Animation.Settings(), logger.Named("builder"))
	rig, err := b.Build(scene)
	if err != nil {
		return nil, fmt.Errorf("build %s: %w", path, err)
	}
	return rig, nil
}

func cmdInfo(cfg *config.Config, args []string, w io.Writer) error {
	if len(args) < 1 {
		return errUsage
	}

	rig, err := buildRig(cfg, args[0])
	if err != nil {
		return err
	}
	printRig(w, args[0], rig)
	return nil
}

func printRig(w io.Writer, path string, rig *model.Rig) {
	fmt.Fprintf(w, "Rig: %s\n", path)

	joints := rig.Skeleton.Joints()
	fmt.Fprintf(w, "Joints: %d\n", len(joints))
	for i, j := range joints {
		fmt.Fprintf(w, "  [%2d] %-20s parent %d\n", i, j.Name, j.ParentIndex)
	}

	fmt.Fprintf(w, "Clips: %d\n", rig.Registry.Len())
	for i := 0; i < rig.Registry.Len(); i++ {
		clip, _ := rig.Registry.Get(i)
		fmt.Fprintf(w, "  [%2d] %-20s %6.2fs  %d tracks\n", i, clip.Name(), clip.Duration(), clip.NumTracks())
	}

	if len(rig.Skins) > 0 {
		fmt.Fprintln(w, "Skins:")
		for _, s := range rig.Skins {
			most := 0
			for i := range s.Influences {
				if c := s.Influences[i].Count(); c > most {
					most = c
				}
			}
			fmt.Fprintf(w, "  %-20s %d vertices, up to %d influences\n", s.Mesh, len(s.Influences), most)
		}
	}

	if len(rig.Warnings) > 0 {
		fmt.Fprintf(w, "Warnings: %d\n", len(rig.Warnings))
		for _, msg := range rig.Warnings {
			fmt.Fprintf(w, "  %s\n", msg)
		}
	}
}

func cmdPlay(cfg *config.Config, args []string, w io.Writer) error {
	if len(args) < 1 {
		return errUsage
	}

	rig, err := buildRig(cfg, args[0])
	if err != nil {
		return err
	}
	return play(rig, cfg, w)
}

// play ticks the rig's player for the configured number of frames.
func play(rig *model.Rig, cfg *config.Config, w io.Writer) error {
	if rig.Registry.Len() == 0 {
		return errors.New("rig has no clips")
	}

	p := rig.Player
	if cfg.Play.Clip != "" && !p.SetClipByName(cfg.Play.Clip) {
		return fmt.Errorf("clip %q not found", cfg.Play.Clip)
	}

	dt := cfg.Animation.TickInterval()
	for frame := 1; frame <= cfg.Play.Frames; frame++ {
		p.Update(dt)

		out, in := p.BlendWeights()
		fmt.Fprintf(w, "%4d  t=%6.3f  clip=%-12s state=%-8s weights=%.2f/%.2f\n",
			frame, p.GetCurrentTime(), clipName(p, p.GetCurrentClipIndex()), p.State(), out, in)
	}

	fmt.Fprintln(w, "Joint matrices (translation):")
	joints := rig.Skeleton.Joints()
	for i, m := range rig.Skeleton.JointMatrices() {
		name := ""
		if i < len(joints) {
			name = joints[i].Name
		}
		fmt.Fprintf(w, "  [%2d] %-20s %8.3f %8.3f %8.3f\n", i, name, m.At(0, 3), m.At(1, 3), m.At(2, 3))
	}
	return nil
}

func clipName(p *animation.Player, index int) string {
	if clip, ok := p.Registry().Get(index); ok {
		return clip.Name()
	}
	return "-"
}

func cmdWatch(cfg *config.Config, args []string, w io.Writer) error {
	if len(args) < 1 {
		return errUsage
	}
	path := args[0]

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	watcher, err := newFileWatcher(cfg.Watch.Debounce, path)
	if err != nil {
		return fmt.Errorf("watch %s: %w", path, err)
	}
	defer watcher.Close()

	return watchRig(ctx, cfg, path, watcher, w)
}

// watchRig rebuilds the rig on every change until ctx is done. Build errors
// are logged and do not stop watching.
func watchRig(ctx context.Context, cfg *config.Config, path string, watcher *fileWatcher, w io.Writer) error {
	rebuild := func() {
		rig, err := buildRig(cfg, path)
		if err != nil {
			logger.Warn("rebuild failed", zap.String("rig", path), zap.Error(err))
			return
		}
		printRig(w, path, rig)
	}

	rebuild()
	logger.Info("watching", zap.String("rig", path))

	for {
		select {
		case <-ctx.Done():
			return nil
		case name, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			logger.Info("rig changed", zap.String("file", filepath.Base(name)))
			rebuild()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", zap.Error(err))
		}
	}
}

func cmdConfig(cfg *config.Config, args []string, w io.Writer) error {
	if len(args) > 0 {
		if err := cfg.SaveTo(args[0]); err != nil {
			return err
		}
		fmt.Fprintf(w, "Wrote %s\n", args[0])
		return nil
	}

	if err := cfg.Save(); err != nil {
		return err
	}
	fmt.Fprintf(w, "Wrote %s\n", filepath.Join(config.ConfigDir(), "config.yaml"))
	return nil
}
