package main

import (
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/lixenwraith/ambience/audio"
	"github.com/lixenwraith/ambience/parameter"
)

// options holds parsed command-line flags
// Only flags given explicitly override the environment configuration
type options struct {
	backend  string
	volume   int
	tempo    float64
	pattern  string
	seed     int64
	debug    bool
	headless bool
	render   string
	duration time.Duration

	set map[string]bool
}

func parseFlags(args []string, out io.Writer) (*options, error) {
	o := &options{set: make(map[string]bool)}

	fs := flag.NewFlagSet("ambience", flag.ContinueOnError)
	fs.SetOutput(out)
	fs.StringVar(&o.backend, "backend", "auto", "Audio backend: auto, speaker, oto, pipe, null")
	fs.IntVar(&o.volume, "volume", parameter.DefaultVolume, "Master volume percent (0-100)")
	fs.Float64Var(&o.tempo, "tempo", parameter.DefaultBPM, "Tempo in BPM")
	fs.StringVar(&o.pattern, "pattern", audio.PatternSynthwave, "Pattern: synthwave, drift")
	fs.Int64Var(&o.seed, "seed", 0, "Velocity jitter seed (0 = random)")
	fs.BoolVar(&o.debug, "debug", false, "Write logs to logs/ambience.log")
	fs.BoolVar(&o.headless, "headless", false, "Play without the terminal UI until interrupted")
	fs.StringVar(&o.render, "render", "", "Render to a WAV file instead of playing")
	fs.DurationVar(&o.duration, "duration", 30*time.Second, "Length of -render output")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	fs.Visit(func(f *flag.Flag) { o.set[f.Name] = true })
	return o, nil
}

// apply overrides cfg with explicitly given flags
func (o *options) apply(cfg *audio.AudioConfig) error {
	if o.set["backend"] {
		b, err := audio.ParseBackend(o.backend)
		if err != nil {
			return fmt.Errorf("-backend %q: %w", o.backend, err)
		}
		cfg.Backend = b
	}
	if o.set["volume"] {
		cfg.Volume = audio.ClampVolume(o.volume)
	}
	if o.set["tempo"] {
		if o.tempo < parameter.MinBPM || o.tempo > parameter.MaxBPM {
			return fmt.Errorf("-tempo %.1f outside [%.0f, %.0f]", o.tempo, float64(parameter.MinBPM), float64(parameter.MaxBPM))
		}
		cfg.Tempo = o.tempo
	}
	if o.set["pattern"] {
		if _, err := audio.LookupPattern(o.pattern); err != nil {
			return fmt.Errorf("-pattern: %w", err)
		}
		cfg.Pattern = o.pattern
	}
	if o.set["seed"] {
		cfg.Seed = o.seed
	}
	return nil
}
