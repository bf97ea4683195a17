package constant

import "time"

// Audio Hardware Settings
const (
	AudioSampleRate    = 44100
	AudioChannels      = 2
	AudioBitDepth      = 16
	AudioBytesPerFrame = AudioChannels * (AudioBitDepth / 8) // 4 bytes

	// AudioFloatBytesPerFrame is the frame size of float32 LE stereo output
	AudioFloatBytesPerFrame = AudioChannels * 4
)

// Audio Output Timing
const (
	// AudioBufferDuration is the device buffer requested from speaker/oto
	AudioBufferDuration = 50 * time.Millisecond

	// AudioPumpInterval paces pipe and null sinks
	// Must stay below the scheduler lookahead so dispatched notes are rendered on time
	AudioPumpInterval = 20 * time.Millisecond

	// AudioDrainTimeout bounds waiting for pump goroutines on close
	AudioDrainTimeout = 100 * time.Millisecond

	// AudioMonitorInterval is how often the monitor service samples engine status
	AudioMonitorInterval = 5 * time.Second
)

// Soft limiter knee applied before int16 conversion
const (
	LimiterThreshold = 0.8
	LimiterHeadroom  = 0.2
	LimiterSlope     = 5.0
)
