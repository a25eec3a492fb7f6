package ticking

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/louisbranch/shopkeepers/internal/services/shopkeepers/domain/lifecycle"
	"github.com/louisbranch/shopkeepers/internal/services/shopkeepers/domain/location"
	"github.com/louisbranch/shopkeepers/internal/services/shopkeepers/domain/shopkeeper"
	"github.com/louisbranch/shopkeepers/internal/services/shopkeepers/domain/shopobject/objecttest"
)

type countingSaver struct{ delayed int }

func (s *countingSaver) SaveDelayed() { s.delayed++ }

type fixture struct {
	env    *shopkeeper.Env
	ticker *Ticker
	saver  *countingSaver
	logs   []string
}

func newFixture(t *testing.T, groups int) *fixture {
	t.Helper()
	f := &fixture{saver: &countingSaver{}}
	logf := func(format string, args ...any) { f.logs = append(f.logs, fmt.Sprintf(format, args...)) }
	f.env = &shopkeeper.Env{
		Types:    shopkeeper.DefaultTypes(),
		Objects:  objecttest.NewRegistry(),
		Groups:   NewGroupCounter(groups),
		Settings: shopkeeper.DefaultSettings(),
		Logf:     logf,
	}
	f.ticker = New(Config{Groups: groups, Saver: f.saver, Logf: logf})
	return f
}

func (f *fixture) add(t *testing.T, shopID int) *shopkeeper.Shopkeeper {
	t.Helper()
	admin, _ := f.env.Types.Get(shopkeeper.AdminTypeID)
	placed, _ := f.env.Objects.Get("test-placed")
	sk, err := shopkeeper.Create(f.env, shopID, shopkeeper.CreationData{
		Type:       admin,
		ObjectType: placed,
		Spawn:      &location.Location{World: "w", X: float64(shopID)},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := sk.InformAdded(lifecycle.AddedCreated); err != nil {
		t.Fatalf("inform added: %v", err)
	}
	_, token := sk.PersistState()
	sk.OnPersisted(token)
	f.ticker.Start(sk)
	return sk
}

func ticks(sk *shopkeeper.Shopkeeper) int {
	return objecttest.Of(sk.Object()).Count("onTick")
}

func TestPulseCyclesGroupsRoundRobin(t *testing.T) {
	f := newFixture(t, 3)
	var all []*shopkeeper.Shopkeeper
	for id := 1; id <= 7; id++ {
		all = append(all, f.add(t, id))
	}
	if got := f.ticker.GroupSizes(); fmt.Sprint(got) != "[3 2 2]" {
		t.Fatalf("group sizes = %v, want [3 2 2]", got)
	}

	for pulse := 0; pulse < 3; pulse++ {
		result := f.ticker.Pulse()
		if result.Group != pulse {
			t.Fatalf("pulse %d ticked group %d", pulse, result.Group)
		}
		for _, sk := range all {
			want := 0
			if sk.TickingGroup() <= pulse {
				want = 1
			}
			if got := ticks(sk); got != want {
				t.Fatalf("after pulse %d, shopkeeper %d ticks = %d, want %d", pulse, sk.ID(), got, want)
			}
		}
	}
	if f.ticker.CurrentGroup() != 0 {
		t.Fatalf("current group = %d, want 0", f.ticker.CurrentGroup())
	}
	f.ticker.Pulse()
	if got := ticks(all[0]); got != 2 {
		t.Fatalf("ticks after full cycle = %d, want 2", got)
	}
}

func TestPulseIsolatesFailures(t *testing.T) {
	f := newFixture(t, 1)
	failing := f.add(t, 1)
	panicking := f.add(t, 2)
	healthy := f.add(t, 3)
	objecttest.Of(failing.Object()).TickErr = errors.New("boom")
	objecttest.Of(panicking.Object()).TickPanic = "kaboom"

	result := f.ticker.Pulse()
	if result.Ticked != 3 || result.Failed != 2 {
		t.Fatalf("result = %+v", result)
	}
	if ticks(healthy) != 1 {
		t.Fatal("expected healthy shopkeeper to tick")
	}
	for _, sk := range []*shopkeeper.Shopkeeper{failing, panicking} {
		if objecttest.Of(sk.Object()).Count("onTickEnd") != 1 {
			t.Fatalf("%s: expected tick end after failure", sk)
		}
	}
	joined := strings.Join(f.logs, "\n")
	if !strings.Contains(joined, "Shopkeeper 1: Error during tick: boom") ||
		!strings.Contains(joined, "Shopkeeper 2: Error during tick: panic: kaboom") {
		t.Fatalf("logs = %v", f.logs)
	}
}

func TestPulseSkipsShopkeepersStoppedMidPulse(t *testing.T) {
	f := newFixture(t, 1)
	first := f.add(t, 1)
	second := f.add(t, 2)
	objecttest.Of(first.Object()).OnTickHook = func() { f.ticker.Stop(second) }

	result := f.ticker.Pulse()
	if result.Ticked != 1 || ticks(second) != 0 {
		t.Fatalf("result = %+v, second ticks = %d", result, ticks(second))
	}
	if second.IsTicking() || f.ticker.IsTicking(second) {
		t.Fatal("expected second shopkeeper to stop ticking")
	}
	if f.ticker.Len() != 1 {
		t.Fatalf("len = %d, want 1", f.ticker.Len())
	}
}

func TestPulseRequestsDelayedSaveForDirtyShopkeepers(t *testing.T) {
	f := newFixture(t, 1)
	sk := f.add(t, 1)

	f.ticker.Pulse()
	if f.saver.delayed != 0 {
		t.Fatal("expected no save for clean shopkeepers")
	}
	objecttest.Of(sk.Object()).OnTickHook = sk.MarkDirty
	result := f.ticker.Pulse()
	if result.Dirty != 1 || f.saver.delayed != 1 {
		t.Fatalf("result = %+v, delayed saves = %d", result, f.saver.delayed)
	}
}

func TestStartAndStopAreIdempotent(t *testing.T) {
	f := newFixture(t, 2)
	sk := f.add(t, 1)
	f.ticker.Start(sk)
	if f.ticker.Len() != 1 {
		t.Fatalf("len = %d, want 1", f.ticker.Len())
	}
	f.ticker.Stop(sk)
	f.ticker.Stop(sk)
	if f.ticker.Len() != 0 || sk.IsTicking() {
		t.Fatal("expected shopkeeper to stop ticking")
	}
	if got := objecttest.Of(sk.Object()).Count("onStopTicking"); got != 1 {
		t.Fatalf("stop notifications = %d, want 1", got)
	}
}
