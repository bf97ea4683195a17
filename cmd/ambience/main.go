package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/gdamore/tcell/v2"
	"github.com/lixenwraith/ambience/audio"
	"github.com/lixenwraith/ambience/core"
	"github.com/lixenwraith/ambience/service"
	"golang.org/x/term"
)

func main() {
	opts, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		os.Exit(2)
	}

	if logFile := setupLogging(opts.debug); logFile != nil {
		defer logFile.Close()
	}

	cfg := audio.LoadAudioConfig()
	if err := opts.apply(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "ambience: %v\n", err)
		os.Exit(2)
	}

	if opts.render != "" {
		if err := renderFile(opts.render, cfg, opts); err != nil {
			fmt.Fprintf(os.Stderr, "ambience: %v\n", err)
			os.Exit(1)
		}
		return
	}

	hub, err := newHub()
	if err != nil {
		fmt.Fprintf(os.Stderr, "ambience: %v\n", err)
		os.Exit(1)
	}
	if err := hub.InitAll(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "ambience: %v\n", err)
		os.Exit(1)
	}

	if opts.headless || !term.IsTerminal(int(os.Stdin.Fd())) {
		os.Exit(runHeadless(hub))
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create screen: %v\n", err)
		os.Exit(1)
	}
	if err := screen.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize terminal: %v\n", err)
		os.Exit(1)
	}

	// Restore the terminal before reporting a crash from any audio goroutine
	core.SetCrashHandler(func(r any) {
		screen.Fini()
		fmt.Fprintf(os.Stderr, "\r\n\x1b[31mAMBIENCE CRASHED: %v\x1b[0m\r\n", r)
		fmt.Fprintf(os.Stderr, "Stack Trace:\r\n%s\r\n", debug.Stack())
		os.Exit(1)
	})

	u := newUI(screen, hub)
	u.run()
	screen.Fini()

	if err := hub.StopAll(); err != nil {
		log.Printf("shutdown: %v", err)
	}
}

// newHub registers the audio engine and the monitor that watches it
func newHub() (*service.Hub, error) {
	hub := service.NewHub()
	svc := audio.NewService()
	for _, s := range []service.Service{svc, audio.NewMonitorService(svc)} {
		if err := hub.Register(s); err != nil {
			return nil, err
		}
	}
	order, err := hub.Order()
	if err != nil {
		return nil, err
	}
	log.Printf("services: %v", order)
	return hub, nil
}

// runHeadless starts playback immediately and blocks until SIGINT or SIGTERM
func runHeadless(hub *service.Hub) int {
	svc := service.MustGet[*audio.AudioService](hub, audio.ServiceName)
	if err := hub.StartAll(); err != nil {
		fmt.Fprintf(os.Stderr, "ambience: %v\n", err)
		return 1
	}
	if svc.IsDisabled() {
		fmt.Fprintln(os.Stderr, "ambience: no audio backend available")
		hub.StopAll()
		return 1
	}

	st := svc.Engine().Status()
	fmt.Fprintf(os.Stderr, "ambience: playing %s at %.0f BPM on %s, Ctrl-C to stop\n", st.Pattern, st.Tempo, st.Backend)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	if err := hub.StopAll(); err != nil {
		log.Printf("shutdown: %v", err)
		return 1
	}
	return 0
}

// renderFile writes an offline render of cfg to path
func renderFile(path string, cfg *audio.AudioConfig, opts *options) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := audio.RenderWAV(f, cfg, opts.duration); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	log.Printf("rendered %v of %s to %s", opts.duration, cfg.Pattern, path)
	return nil
}
