// animtool is a CLI utility for inspecting and playing skeletal animation rigs.
package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-anim/internal/config"
	"github.com/Faultbox/midgard-anim/internal/logger"
)

func main() {
	// Parse CLI flags first
	config.ParseFlags()

	args := config.Args()
	if len(args) < 1 {
		printUsage()
		os.Exit(1)
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile, cfg.Logging.Format); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Sugar.Debugf("Config: %+v", cfg)

	command := args[0]
	rest := args[1:]

	switch command {
	case "info":
		err = cmdInfo(cfg, rest, os.Stdout)
	case "play":
		err = cmdPlay(cfg, rest, os.Stdout)
	case "watch":
		err = cmdWatch(cfg, rest, os.Stdout)
	case "config":
		err = cmdConfig(cfg, rest, os.Stdout)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		logger.Sync()
		os.Exit(1)
	}

	if err != nil {
		logger.Error("command failed", zap.String("command", command), zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`animtool - skeletal animation rig utility

Usage:
  animtool [flags] <command> [arguments]

Commands:
  info <rig.yaml>      Show joints, clips, skins and build warnings
  play <rig.yaml>      Tick the player and print each frame
  watch <rig.yaml>     Rebuild and show the rig whenever the file changes
  config [path]        Write the effective config (default: user config dir)

Flags:
  -config <path>       Config file
  -debug               Debug logging
  -blend <seconds>     Crossfade duration
  -speed <x>           Playback speed multiplier
  -once                Do not loop clips
  -tick-rate <hz>      Player updates per second
  -frames <n>          Frames to simulate in play
  -clip <name>         Clip to switch to in play

Examples:
  animtool info testdata/arm.yaml
  animtool -frames 30 -clip wave play testdata/arm.yaml
  animtool -blend 0.5 watch testdata/arm.yaml`)
}
