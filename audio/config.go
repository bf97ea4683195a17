package audio

import (
	"os"
	"strconv"
	"time"

	"github.com/lixenwraith/ambience/constant"
	"github.com/lixenwraith/ambience/parameter"
)

// Environment variables read by LoadAudioConfig
const (
	EnvAudioEnabled = "AMBIENCE_AUDIO_ENABLED"
	EnvBackend      = "AMBIENCE_BACKEND"
	EnvVolume       = "AMBIENCE_VOLUME"
	EnvSampleRate   = "AMBIENCE_SAMPLE_RATE"
	EnvTempo        = "AMBIENCE_TEMPO"
	EnvPattern      = "AMBIENCE_PATTERN"
	EnvSeed         = "AMBIENCE_SEED"
)

// AudioConfig holds engine settings
type AudioConfig struct {
	Enabled        bool
	Backend        BackendType
	SampleRate     int
	BufferDuration time.Duration
	Volume         int     // percent, 0-100
	Tempo          float64 // BPM
	Pattern        string  // registered pattern name
	Seed           int64   // velocity jitter seed, 0 = seed from clock
}

// DefaultAudioConfig returns the stock configuration
func DefaultAudioConfig() *AudioConfig {
	return &AudioConfig{
		Enabled:        true,
		Backend:        BackendAuto,
		SampleRate:     constant.AudioSampleRate,
		BufferDuration: constant.AudioBufferDuration,
		Volume:         parameter.DefaultVolume,
		Tempo:          parameter.DefaultBPM,
		Pattern:        PatternSynthwave,
	}
}

// LoadAudioConfig loads audio configuration from environment variables
// Invalid values are ignored and the default kept
func LoadAudioConfig() *AudioConfig {
	cfg := DefaultAudioConfig()

	// Check if audio is enabled
	if enabled := os.Getenv(EnvAudioEnabled); enabled != "" {
		if val, err := strconv.ParseBool(enabled); err == nil {
			cfg.Enabled = val
		}
	}

	if backend := os.Getenv(EnvBackend); backend != "" {
		if val, err := ParseBackend(backend); err == nil {
			cfg.Backend = val
		}
	}

	// Master volume in percent, clamped
	if volume := os.Getenv(EnvVolume); volume != "" {
		if val, err := strconv.Atoi(volume); err == nil {
			cfg.Volume = ClampVolume(val)
		}
	}

	if sampleRate := os.Getenv(EnvSampleRate); sampleRate != "" {
		if val, err := strconv.Atoi(sampleRate); err == nil && val > 0 {
			cfg.SampleRate = val
		}
	}

	if tempo := os.Getenv(EnvTempo); tempo != "" {
		if val, err := strconv.ParseFloat(tempo, 64); err == nil &&
			val >= parameter.MinBPM && val <= parameter.MaxBPM {
			cfg.Tempo = val
		}
	}

	if pattern := os.Getenv(EnvPattern); pattern != "" {
		if _, err := LookupPattern(pattern); err == nil {
			cfg.Pattern = pattern
		}
	}

	if seed := os.Getenv(EnvSeed); seed != "" {
		if val, err := strconv.ParseInt(seed, 10, 64); err == nil {
			cfg.Seed = val
		}
	}

	return cfg
}

// SaveAudioConfig exports cfg to environment variables
func SaveAudioConfig(cfg *AudioConfig) error {
	vars := map[string]string{
		EnvAudioEnabled: strconv.FormatBool(cfg.Enabled),
		EnvBackend:      cfg.Backend.String(),
		EnvVolume:       strconv.Itoa(ClampVolume(cfg.Volume)),
		EnvSampleRate:   strconv.Itoa(cfg.SampleRate),
		EnvTempo:        strconv.FormatFloat(cfg.Tempo, 'f', -1, 64),
		EnvPattern:      cfg.Pattern,
		EnvSeed:         strconv.FormatInt(cfg.Seed, 10),
	}
	for k, v := range vars {
		if err := os.Setenv(k, v); err != nil {
			return err
		}
	}
	return nil
}

// ClampVolume bounds a percent to [0, 100]
func ClampVolume(percent int) int {
	if percent < parameter.MinVolume {
		return parameter.MinVolume
	} else if percent > parameter.MaxVolume {
		return parameter.MaxVolume
	}
	return percent
}

// SchedulerConfig derives scheduler settings from cfg
func (c *AudioConfig) SchedulerConfig() SchedulerConfig {
	sc := DefaultSchedulerConfig()
	if c.Tempo > 0 {
		sc.Tempo = c.Tempo
	}
	return sc
}
