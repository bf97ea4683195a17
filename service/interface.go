package service

// Service defines the lifecycle interface for long-lived subsystems
// Services own device handles and background goroutines
//
// Lifecycle:
//  1. Construction (via factory)
//  2. Init(args...) - configuration from parsed flags/env
//  3. Start() - acquire devices, launch goroutines
//  4. [runtime operation]
//  5. Stop() - halt goroutines, release resources
type Service interface {
	// Name returns the unique identifier for this service
	Name() string

	// Dependencies returns names of services that must Init before this one
	Dependencies() []string

	// Init configures the service from optional args
	Init(args ...any) error

	// Start begins service operation
	// Called after all services have initialized, and again when the user retries;
	// must be idempotent once running
	Start() error

	// Stop halts service operation and releases resources
	// Must be idempotent
	Stop() error
}

// Transport is the user-facing playback control surface
type Transport interface {
	Toggle()
	SetVolume(percent int)
	Volume() int
	IsRunning() bool
}
