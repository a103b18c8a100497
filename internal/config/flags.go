package config

import "flag"

var (
	flagConfig   = flag.String("config", "", "Path to config file")
	flagDebug    = flag.Bool("debug", false, "Enable debug logging")
	flagBlend    = flag.Float64("blend", -1, "Crossfade duration in seconds")
	flagSpeed    = flag.Float64("speed", 0, "Playback speed multiplier")
	flagOnce     = flag.Bool("once", false, "Play clips once instead of looping")
	flagTickRate = flag.Int("tick-rate", 0, "Player updates per second")
	flagFrames   = flag.Int("frames", 0, "Frames to simulate in play")
	flagClip     = flag.String("clip", "", "Clip to play")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// Args returns the non-flag arguments.
func Args() []string {
	return flag.Args()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagBlend >= 0 {
		cfg.Animation.BlendDuration = float32(*flagBlend)
	}
	if *flagSpeed != 0 {
		cfg.Animation.Speed = float32(*flagSpeed)
	}
	if *flagOnce {
		cfg.Animation.Looping = false
	}
	if *flagTickRate > 0 {
		cfg.Animation.TickRate = *flagTickRate
	}
	if *flagFrames > 0 {
		cfg.Play.Frames = *flagFrames
	}
	if *flagClip != "" {
		cfg.Play.Clip = *flagClip
	}
}
