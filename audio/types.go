package audio

import (
	"errors"
	"strings"
)

// BackendType identifies the output sink
type BackendType int

const (
	BackendAuto BackendType = iota
	BackendSpeaker
	BackendOto
	BackendPipe
	BackendNull
)

var backendNames = [...]string{
	BackendAuto:    "auto",
	BackendSpeaker: "speaker",
	BackendOto:     "oto",
	BackendPipe:    "pipe",
	BackendNull:    "null",
}

func (b BackendType) String() string {
	if b < 0 || int(b) >= len(backendNames) {
		return "unknown"
	}
	return backendNames[b]
}

// ParseBackend maps a backend name to its type
func ParseBackend(name string) (BackendType, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range backendNames {
		if n == name {
			return BackendType(i), nil
		}
	}
	return BackendAuto, ErrUnknownBackend
}

// PipeBackendType identifies a CLI player used by the pipe sink
type PipeBackendType int

const (
	PipePulse PipeBackendType = iota
	PipePipeWire
	PipeALSA
	PipeSoX
	PipeFFplay
	PipeOSS
)

// PipeBackendConfig describes a CLI audio backend
type PipeBackendConfig struct {
	Type PipeBackendType
	Name string
	Path string
	Args []string
}

// Sentinel errors
var (
	ErrNoAudioBackend = errors.New("no compatible audio backend found")
	ErrPipeClosed     = errors.New("audio pipe closed")
	ErrGraphClosed    = errors.New("audio graph closed")
	ErrInvalidVoice   = errors.New("invalid voice parameters")
	ErrUnknownBackend = errors.New("unknown audio backend")
	ErrUnknownPattern = errors.New("unknown pattern")
	ErrSinkNotOpen    = errors.New("audio sink not open")
	ErrAudioDisabled  = errors.New("audio disabled by configuration")
)
