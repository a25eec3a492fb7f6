package shopkeeper

import (
	"errors"
	"strings"
	"testing"

	"github.com/louisbranch/shopkeepers/internal/services/shopkeepers/domain/location"
)

func tickCalls(t *testing.T, sk *Shopkeeper) string {
	t.Helper()
	var calls []string
	for _, call := range recorder(t, sk).Calls {
		switch call {
		case "onTickStart", "onTick", "onTickEnd", "visualizeLastTick":
			calls = append(calls, call)
		}
	}
	return strings.Join(calls, ",")
}

func TestTickRunsPhasesInOrder(t *testing.T) {
	h := newTestHost(t)
	sk := h.createAdded(t, 1, h.placedData(t))

	if err := sk.Tick(); err != nil {
		t.Fatalf("tick: %v", err)
	}
	if got := tickCalls(t, sk); got != "" {
		t.Fatalf("calls before ticking = %q, want none", got)
	}

	sk.StartTicking()
	sk.StartTicking()
	if recorder(t, sk).Count("onStartTicking") != 1 {
		t.Fatal("expected start ticking to be idempotent")
	}
	if err := sk.Tick(); err != nil {
		t.Fatalf("tick: %v", err)
	}
	if got, want := tickCalls(t, sk), "onTickStart,onTick,onTickEnd"; got != want {
		t.Fatalf("calls = %q, want %q", got, want)
	}
}

func TestTickEndRunsAfterError(t *testing.T) {
	h := newTestHost(t)
	sk := h.createAdded(t, 1, h.placedData(t))
	sk.StartTicking()
	boom := errors.New("boom")
	recorder(t, sk).TickErr = boom

	if err := sk.Tick(); !errors.Is(err, boom) {
		t.Fatalf("tick error = %v, want boom", err)
	}
	if recorder(t, sk).Count("onTickEnd") != 1 {
		t.Fatalf("calls = %v", recorder(t, sk).Calls)
	}
}

func TestTickEndRunsAfterPanic(t *testing.T) {
	h := newTestHost(t)
	sk := h.createAdded(t, 1, h.placedData(t))
	sk.StartTicking()
	recorder(t, sk).TickPanic = "kaboom"

	func() {
		defer func() {
			if r := recover(); r != "kaboom" {
				t.Fatalf("recovered %v, want kaboom", r)
			}
		}()
		_ = sk.Tick()
	}()
	if recorder(t, sk).Count("onTickEnd") != 1 {
		t.Fatalf("calls = %v", recorder(t, sk).Calls)
	}
}

func TestTickStartCanStopTicking(t *testing.T) {
	h := newTestHost(t)
	sk := h.createAdded(t, 1, h.placedData(t))
	sk.StartTicking()
	recorder(t, sk).OnTickStartHook = sk.StopTicking

	if err := sk.Tick(); err != nil {
		t.Fatalf("tick: %v", err)
	}
	if got := tickCalls(t, sk); got != "onTickStart" {
		t.Fatalf("calls = %q, want onTickStart only", got)
	}
	if recorder(t, sk).Count("onStopTicking") != 1 {
		t.Fatal("expected object to be told ticking stopped")
	}
}

func TestTypeTickHooks(t *testing.T) {
	h := newTestHost(t)
	var order []string
	guarded, err := NewType(TypeConfig{
		ID: "guarded",
		OnTickStart: func(sk *Shopkeeper) {
			order = append(order, "type-start")
			if sk.Name() == "remove me" {
				sk.Delete()
				sk.StopTicking()
			}
		},
		OnTick: func(sk *Shopkeeper) error {
			order = append(order, "type-tick")
			return nil
		},
	})
	if err != nil {
		t.Fatalf("new type: %v", err)
	}
	cd := h.placedData(t)
	cd.Type = guarded
	sk := h.createAdded(t, 1, cd)
	sk.StartTicking()

	if err := sk.Tick(); err != nil {
		t.Fatalf("tick: %v", err)
	}
	if got := strings.Join(order, ","); got != "type-start,type-tick" {
		t.Fatalf("type hooks = %q", got)
	}
	if got := tickCalls(t, sk); got != "onTickStart,onTick,onTickEnd" {
		t.Fatalf("object calls = %q", got)
	}

	order = nil
	recorder(t, sk).Reset()
	sk.SetName("remove me")
	if err := sk.Tick(); err != nil {
		t.Fatalf("tick: %v", err)
	}
	if got := strings.Join(order, ","); got != "type-start" {
		t.Fatalf("type hooks = %q", got)
	}
	if got := tickCalls(t, sk); got != "" {
		t.Fatalf("object calls = %q, want none", got)
	}
	if sk.IsValid() {
		t.Fatal("expected guard to delete the shopkeeper")
	}
}

func TestTickVisualization(t *testing.T) {
	h := newTestHost(t)
	visualizer := &fakeVisualizer{}
	h.env.Visualizer = visualizer
	sk := h.createAdded(t, 1, h.placedData(t))
	sk.StartTicking()

	if err := sk.Tick(); err != nil {
		t.Fatalf("tick: %v", err)
	}
	if len(visualizer.calls) != 0 {
		t.Fatal("expected no visualization unless enabled")
	}

	h.env.Settings.VisualizeTicks = true
	if err := sk.Tick(); err != nil {
		t.Fatalf("tick: %v", err)
	}
	if len(visualizer.calls) != 1 {
		t.Fatalf("visualizations = %d, want 1", len(visualizer.calls))
	}
	want := location.BlockLocation{World: "w", X: 10, Y: 65, Z: -3}
	if got := visualizer.calls[0]; got.anchor != want || got.group != sk.TickingGroup() {
		t.Fatalf("visualization = %+v, want anchor %v group %d", got, want, sk.TickingGroup())
	}
	if recorder(t, sk).Count("visualizeLastTick") != 1 {
		t.Fatal("expected object visualization hook")
	}
}
