package audio

import (
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"

	"github.com/gopxl/beep"
	"github.com/lixenwraith/ambience/constant"
	"github.com/lixenwraith/ambience/core"
)

// pipeSink streams s16le PCM to a system CLI player's stdin (or OSS device)
type pipeSink struct {
	backend *PipeBackendConfig
	cmd     *exec.Cmd
	stdin   io.WriteCloser
	ossFile *os.File // For direct OSS writes
	pump    *pump

	// Set when the player exits or the pipe breaks
	broken atomic.Bool

	wg sync.WaitGroup
}

func newPipeSink() *pipeSink {
	return &pipeSink{}
}

func (s *pipeSink) Name() string {
	if s.backend != nil {
		return BackendPipe.String() + ":" + s.backend.Name
	}
	return BackendPipe.String()
}

// Broken reports whether the player went away after Open
func (s *pipeSink) Broken() bool {
	return s.broken.Load()
}

func (s *pipeSink) Open(src beep.Streamer, sr beep.SampleRate) error {
	if s.pump != nil {
		return nil
	}

	backend, err := DetectBackend(int(sr))
	if err != nil {
		return err
	}
	s.backend = backend

	var writer io.Writer
	if backend.Type == PipeOSS {
		// Direct file write for OSS
		f, err := os.OpenFile(backend.Path, os.O_WRONLY, 0)
		if err != nil {
			return fmt.Errorf("open %s: %w", backend.Path, err)
		}
		s.ossFile = f
		writer = f
	} else {
		// Exec-based backend
		cmd := exec.Command(backend.Path, backend.Args...)
		stdin, err := cmd.StdinPipe()
		if err != nil {
			return fmt.Errorf("%s stdin: %w", backend.Name, err)
		}

		if err := cmd.Start(); err != nil {
			stdin.Close()
			return fmt.Errorf("%s start: %w", backend.Name, err)
		}

		s.cmd = cmd
		s.stdin = stdin
		writer = stdin
	}

	s.pump = newPump(src, writer, sr, constant.AudioPumpInterval)
	s.pump.Start()

	if s.cmd != nil {
		// Monitor process
		s.wg.Add(1)
		core.Go(s.monitorProcess)
	}

	// Monitor pump errors
	s.wg.Add(1)
	core.Go(s.monitorPump)

	return nil
}

// monitorProcess watches for subprocess exit
func (s *pipeSink) monitorProcess() {
	defer s.wg.Done()

	if err := s.cmd.Wait(); err != nil && !s.pump.stopped.Load() {
		s.broken.Store(true)
		log.Printf("audio: %s exited: %v", s.backend.Name, err)
	}
}

// monitorPump watches for pipe errors
func (s *pipeSink) monitorPump() {
	defer s.wg.Done()

	select {
	case err := <-s.pump.Errors():
		s.broken.Store(true)
		log.Printf("audio: %v", err)
	case <-s.pump.stopChan:
	}
}

func (s *pipeSink) Suspend() error {
	if s.pump == nil {
		return ErrSinkNotOpen
	}
	s.pump.paused.Store(true)
	return nil
}

func (s *pipeSink) Resume() error {
	if s.pump == nil {
		return ErrSinkNotOpen
	}
	s.pump.paused.Store(false)
	return nil
}

// Close terminates the player; unblocks a pump stuck in Write by closing the pipe first
func (s *pipeSink) Close() error {
	if s.pump == nil {
		return nil
	}

	s.pump.signalStop()

	if s.stdin != nil {
		s.stdin.Close()
	}
	if s.ossFile != nil {
		s.ossFile.Close()
	}
	if s.cmd != nil && s.cmd.Process != nil {
		s.cmd.Process.Kill()
	}

	if !s.pump.wait(constant.AudioDrainTimeout) {
		log.Printf("audio: %s pump still writing after %v", s.Name(), constant.AudioDrainTimeout)
	}
	s.wg.Wait()
	s.pump = nil
	return nil
}
