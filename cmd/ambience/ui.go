package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/lixenwraith/ambience/audio"
	"github.com/lixenwraith/ambience/core"
	"github.com/lixenwraith/ambience/service"
)

const (
	redrawInterval = 50 * time.Millisecond
	volumeStep     = 5
	volumeBarWidth = 20
)

var (
	styleDefault = tcell.StyleDefault
	styleTitle   = tcell.StyleDefault.Foreground(tcell.ColorFuchsia).Bold(true)
	styleLabel   = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleActive  = tcell.StyleDefault.Foreground(tcell.ColorAqua)
	styleBeat    = tcell.StyleDefault.Foreground(tcell.ColorYellow)
	styleWarn    = tcell.StyleDefault.Foreground(tcell.ColorRed)
)

// ui is the single-screen transport: start, pause and volume
type ui struct {
	screen tcell.Screen
	hub    *service.Hub
	svc    *audio.AudioService

	started bool
	message string
}

func newUI(screen tcell.Screen, hub *service.Hub) *ui {
	return &ui{
		screen: screen,
		hub:    hub,
		svc:    service.MustGet[*audio.AudioService](hub, audio.ServiceName),
	}
}

func (u *ui) run() {
	ticker := time.NewTicker(redrawInterval)
	defer ticker.Stop()

	eventChan := make(chan tcell.Event, 16)
	core.Go(func() {
		for {
			ev := u.screen.PollEvent()
			if ev == nil {
				return
			}
			eventChan <- ev
		}
	})

	u.draw()
	for {
		select {
		case ev := <-eventChan:
			switch ev := ev.(type) {
			case *tcell.EventKey:
				if !u.handleKey(ev) {
					return
				}
			case *tcell.EventResize:
				u.screen.Sync()
			}
			u.draw()
		case <-ticker.C:
			u.draw()
		}
	}
}

// handleKey applies one key press; false means quit
func (u *ui) handleKey(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return false
	case tcell.KeyEnter:
		u.start()
		return true
	case tcell.KeyUp, tcell.KeyRight:
		u.nudgeVolume(volumeStep)
		return true
	case tcell.KeyDown, tcell.KeyLeft:
		u.nudgeVolume(-volumeStep)
		return true
	case tcell.KeyRune:
	default:
		return true
	}

	switch ev.Rune() {
	case 'q':
		return false
	case 's':
		u.start()
	case ' ', 'p':
		if tr := u.svc.Transport(); tr != nil {
			tr.Toggle()
		}
	case '+', '=':
		u.nudgeVolume(volumeStep)
	case '-', '_':
		u.nudgeVolume(-volumeStep)
	}
	return true
}

// start acquires the device on a user gesture
// A missing device can be retried with the next gesture; disabled audio cannot
func (u *ui) start() {
	if u.started {
		return
	}

	if err := u.hub.StartAll(); err != nil {
		u.message = err.Error()
		return
	}

	err := u.svc.Err()
	switch {
	case err == nil:
		u.started = true
		u.message = ""
	case errors.Is(err, audio.ErrAudioDisabled):
		u.started = true
		u.message = "audio disabled by configuration"
	default:
		u.message = "no audio backend available, Enter to retry"
	}
}

// nudgeVolume works before start too; the engine applies the stored volume on Initialize
func (u *ui) nudgeVolume(delta int) {
	if tr := u.svc.Transport(); tr != nil {
		tr.SetVolume(tr.Volume() + delta)
	}
}

func (u *ui) draw() {
	u.screen.Clear()

	u.text(2, 1, styleTitle, "ambience")

	var st audio.Status
	if eng := u.svc.Engine(); eng != nil {
		st = eng.Status()
	}

	state := "press Enter to start"
	switch {
	case st.SinkBroken:
		state = "output lost"
	case st.Running:
		state = "playing"
	case st.Initialized:
		state = "paused"
	case u.started:
		state = "silent"
	}

	y := 3
	u.row(y, "state", state, styleActive)
	y++
	u.row(y, "backend", orDash(st.Backend), styleDefault)
	y++
	u.row(y, "pattern", fmt.Sprintf("%s  %.0f BPM", st.Pattern, st.Tempo), styleDefault)
	y++
	u.row(y, "volume", volumeBar(st.Volume), styleDefault)
	y++
	u.row(y, "clock", fmt.Sprintf("%.2fs  voices %d  steps %d", st.ClockTime, st.ActiveVoices, st.Scheduler.Steps), styleDefault)
	y += 2

	u.text(2, y, styleLabel, "step")
	u.drawSteps(y, st)
	y += 2

	if u.message != "" {
		u.text(2, y, styleWarn, u.message)
		y += 2
	}

	u.text(2, y, styleLabel, "Enter start  Space pause  +/- volume  q quit")
	u.screen.Show()
}

// drawSteps marks each pattern step, beat-one steps highlighted and the last dispatched lit
func (u *ui) drawSteps(y int, st audio.Status) {
	if !st.Initialized {
		return
	}
	n := len(st.Beats)
	for i, beat := range st.Beats {
		style, ch := styleLabel, '·'
		if beat {
			style = styleBeat
		}
		if i == (st.Position+n-1)%n {
			style, ch = styleActive, '●'
		}
		u.screen.SetContent(11+i*2, y, ch, nil, style)
	}
}

func (u *ui) row(y int, label, value string, style tcell.Style) {
	u.text(2, y, styleLabel, label)
	u.text(11, y, style, value)
}

func (u *ui) text(x, y int, style tcell.Style, s string) {
	for _, r := range s {
		u.screen.SetContent(x, y, r, nil, style)
		x++
	}
}

func volumeBar(percent int) string {
	filled := percent * volumeBarWidth / 100
	return fmt.Sprintf("[%s%s] %3d%%", strings.Repeat("█", filled), strings.Repeat(" ", volumeBarWidth-filled), percent)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
