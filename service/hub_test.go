package service

import (
	"errors"
	"strings"
	"testing"
)

// recorder collects lifecycle calls across services in call order
type recorder struct {
	calls []string
}

func (r *recorder) String() string { return strings.Join(r.calls, ",") }

type fakeService struct {
	name     string
	deps     []string
	rec      *recorder
	initErr  error
	startErr error
	stopErr  error
	starts   int
	stops    int
}

func (f *fakeService) Name() string           { return f.name }
func (f *fakeService) Dependencies() []string { return f.deps }

func (f *fakeService) Init(args ...any) error {
	f.rec.calls = append(f.rec.calls, "init:"+f.name)
	return f.initErr
}

func (f *fakeService) Start() error {
	f.starts++
	f.rec.calls = append(f.rec.calls, "start:"+f.name)
	return f.startErr
}

func (f *fakeService) Stop() error {
	f.stops++
	f.rec.calls = append(f.rec.calls, "stop:"+f.name)
	return f.stopErr
}

// TestHubLifecycleOrder verifies dependencies start first and stop last
func TestHubLifecycleOrder(t *testing.T) {
	rec := &recorder{}
	h := NewHub()
	h.Register(&fakeService{name: "monitor", deps: []string{"audio"}, rec: rec})
	h.Register(&fakeService{name: "audio", rec: rec})

	order, err := h.Order()
	if err != nil {
		t.Fatalf("Order failed: %v", err)
	}
	if strings.Join(order, ",") != "audio,monitor" {
		t.Errorf("Expected audio,monitor, got %v", order)
	}

	if err := h.InitAll(); err != nil {
		t.Fatalf("InitAll failed: %v", err)
	}
	if err := h.StartAll(); err != nil {
		t.Fatalf("StartAll failed: %v", err)
	}
	if st, _ := h.State("monitor"); st != StateStarted {
		t.Errorf("Expected monitor started, got %s", st)
	}
	if err := h.StopAll(); err != nil {
		t.Fatalf("StopAll failed: %v", err)
	}

	want := "init:audio,init:monitor,start:audio,start:monitor,stop:monitor,stop:audio"
	if rec.String() != want {
		t.Errorf("Expected %s, got %s", want, rec)
	}
	if st, _ := h.State("audio"); st != StateStopped {
		t.Errorf("Expected audio stopped, got %s", st)
	}
}

// TestHubStableOrder verifies independent services are ordered by name
func TestHubStableOrder(t *testing.T) {
	rec := &recorder{}
	h := NewHub()
	for _, name := range []string{"c", "a", "d", "b"} {
		h.Register(&fakeService{name: name, rec: rec})
	}
	h.Register(&fakeService{name: "0", deps: []string{"d"}, rec: rec})

	order, err := h.Order()
	if err != nil {
		t.Fatalf("Order failed: %v", err)
	}
	if got := strings.Join(order, ","); got != "a,b,c,d,0" {
		t.Errorf("Expected a,b,c,d,0, got %s", got)
	}
}

// TestHubResolveErrors verifies registration and dependency errors are typed
func TestHubResolveErrors(t *testing.T) {
	rec := &recorder{}

	h := NewHub()
	h.Register(&fakeService{name: "audio", rec: rec})
	if err := h.Register(&fakeService{name: "audio", rec: rec}); !errors.Is(err, ErrDuplicateService) {
		t.Errorf("Expected ErrDuplicateService, got %v", err)
	}

	h = NewHub()
	h.Register(&fakeService{name: "monitor", deps: []string{"audio"}, rec: rec})
	if err := h.InitAll(); !errors.Is(err, ErrUnknownDependency) {
		t.Errorf("Expected ErrUnknownDependency, got %v", err)
	}

	h = NewHub()
	h.Register(&fakeService{name: "a", deps: []string{"b"}, rec: rec})
	h.Register(&fakeService{name: "b", deps: []string{"a"}, rec: rec})
	h.Register(&fakeService{name: "c", rec: rec})
	err := h.StartAll()
	if !errors.Is(err, ErrDependencyCycle) {
		t.Fatalf("Expected ErrDependencyCycle, got %v", err)
	}
	if !strings.HasSuffix(err.Error(), "among a, b") {
		t.Errorf("Expected cycle members only, got %v", err)
	}
	if len(rec.calls) != 0 {
		t.Errorf("Expected no lifecycle calls, got %s", rec)
	}
}

// TestHubInitRollback verifies a failed Init stops the services before it
func TestHubInitRollback(t *testing.T) {
	rec := &recorder{}
	h := NewHub()
	a := &fakeService{name: "a", rec: rec}
	b := &fakeService{name: "b", deps: []string{"a"}, rec: rec, initErr: errors.New("bad config")}
	h.Register(a)
	h.Register(b)

	if err := h.InitAll(); err == nil || !strings.Contains(err.Error(), "init b") {
		t.Fatalf("Expected init b error, got %v", err)
	}
	if rec.String() != "init:a,init:b,stop:a" {
		t.Errorf("Unexpected calls %s", rec)
	}
	if st, _ := h.State("b"); st != StateRegistered {
		t.Errorf("Expected b still registered, got %s", st)
	}
}

// TestHubStartRollback verifies only services started by the failing call are stopped
func TestHubStartRollback(t *testing.T) {
	rec := &recorder{}
	h := NewHub()
	a := &fakeService{name: "a", rec: rec}
	b := &fakeService{name: "b", deps: []string{"a"}, rec: rec, startErr: errors.New("boom")}
	h.Register(a)
	h.Register(b)
	h.InitAll()

	if err := h.StartAll(); err == nil {
		t.Fatal("Expected start error")
	}
	if a.stops != 1 || b.stops != 0 {
		t.Errorf("Expected a stopped once and b untouched, got %d/%d", a.stops, b.stops)
	}
	if st, _ := h.State("a"); st != StateStopped {
		t.Errorf("Expected a stopped, got %s", st)
	}
}

// TestHubStartRetry verifies a second StartAll restarts services without a rollback of earlier ones
func TestHubStartRetry(t *testing.T) {
	rec := &recorder{}
	h := NewHub()
	a := &fakeService{name: "a", rec: rec}
	h.Register(a)
	h.InitAll()

	h.StartAll()
	if err := h.StartAll(); err != nil {
		t.Fatalf("retry StartAll failed: %v", err)
	}
	if a.starts != 2 || a.stops != 0 {
		t.Errorf("Expected 2 starts and no stop, got %d/%d", a.starts, a.stops)
	}

	h.StopAll()
	if err := h.StopAll(); err != nil {
		t.Errorf("Expected second StopAll to be a no-op, got %v", err)
	}
	if a.stops != 1 {
		t.Errorf("Expected one stop, got %d", a.stops)
	}
}

// TestHubStopAllJoinsErrors verifies every service is stopped even when some fail
func TestHubStopAllJoinsErrors(t *testing.T) {
	rec := &recorder{}
	errA := errors.New("a stuck")
	errB := errors.New("b stuck")
	h := NewHub()
	h.Register(&fakeService{name: "a", rec: rec, stopErr: errA})
	h.Register(&fakeService{name: "b", deps: []string{"a"}, rec: rec, stopErr: errB})
	h.InitAll()
	h.StartAll()

	err := h.StopAll()
	if !errors.Is(err, errA) || !errors.Is(err, errB) {
		t.Errorf("Expected both stop errors, got %v", err)
	}
}

// TestMustGet verifies typed lookup and its panics
func TestMustGet(t *testing.T) {
	rec := &recorder{}
	h := NewHub()
	h.Register(&fakeService{name: "audio", rec: rec})

	if svc := MustGet[*fakeService](h, "audio"); svc.Name() != "audio" {
		t.Errorf("Expected audio, got %s", svc.Name())
	}

	defer func() {
		if recover() == nil {
			t.Error("Expected panic for missing service")
		}
	}()
	MustGet[*fakeService](h, "missing")
}

// TestStateString verifies lifecycle names
func TestStateString(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateRegistered, "registered"},
		{StateInitialized, "initialized"},
		{StateStarted, "started"},
		{StateStopped, "stopped"},
		{State(9), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("Expected %s, got %s", tt.want, got)
		}
	}
}
