package shopkeeper

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/louisbranch/shopkeepers/internal/services/shopkeepers/domain/lifecycle"
	"github.com/louisbranch/shopkeepers/internal/services/shopkeepers/domain/location"
	"github.com/louisbranch/shopkeepers/internal/services/shopkeepers/domain/shopobject"
	"github.com/louisbranch/shopkeepers/internal/services/shopkeepers/domain/shopobject/objecttest"
	"github.com/louisbranch/shopkeepers/internal/services/shopkeepers/domain/ui"
)

var testNow = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

type fakeStorage struct {
	pending map[int]*Shopkeeper
	marks   int
	saves   int
	delayed int
}

func (f *fakeStorage) MarkDirty(sk *Shopkeeper) {
	f.marks++
	f.pending[sk.ID()] = sk
}

func (f *fakeStorage) Save() { f.saves++ }

func (f *fakeStorage) SaveDelayed() { f.delayed++ }

type fakeRegistry struct {
	moved   int
	deleted []*Shopkeeper
}

func (f *fakeRegistry) Moved(*Shopkeeper) { f.moved++ }

func (f *fakeRegistry) Delete(sk *Shopkeeper) {
	f.deleted = append(f.deleted, sk)
	_ = sk.InformRemoval(lifecycle.RemovedDelete)
}

type counter struct{ next int }

func (c *counter) NextGroup() int {
	group := c.next % 4
	c.next++
	return group
}

type visualization struct {
	anchor location.BlockLocation
	group  int
}

type fakeVisualizer struct {
	calls []visualization
}

func (f *fakeVisualizer) VisualizeTick(anchor location.BlockLocation, group int) {
	f.calls = append(f.calls, visualization{anchor: anchor, group: group})
}

type testHost struct {
	env      *Env
	storage  *fakeStorage
	registry *fakeRegistry
	sessions *ui.Registry
	logs     []string
}

func newTestHost(t *testing.T) *testHost {
	t.Helper()
	objects := objecttest.NewRegistry()
	if err := objects.Register(shopobject.NewSignType()); err != nil {
		t.Fatalf("register sign: %v", err)
	}
	h := &testHost{
		storage:  &fakeStorage{pending: make(map[int]*Shopkeeper)},
		registry: &fakeRegistry{},
		sessions: ui.NewRegistry(func() time.Time { return testNow }, nil),
	}
	h.env = &Env{
		Types:    DefaultTypes(),
		Objects:  objects,
		Groups:   &counter{},
		Storage:  h.storage,
		Registry: h.registry,
		UI:       h.sessions,
		Worlds:   NewStaticWorlds("w", "world"),
		Settings: DefaultSettings(),
		Logf: func(format string, args ...any) {
			h.logs = append(h.logs, fmt.Sprintf(format, args...))
		},
		Now: func() time.Time { return testNow },
	}
	return h
}

func (h *testHost) loggedContaining(substr string) bool {
	for _, line := range h.logs {
		if strings.Contains(line, substr) {
			return true
		}
	}
	return false
}

func (h *testHost) shopType(t *testing.T, id string) *Type {
	t.Helper()
	st, ok := h.env.Types.Get(id)
	if !ok {
		t.Fatalf("shop type %s not registered", id)
	}
	return st
}

func (h *testHost) objectType(t *testing.T, id string) *shopobject.Type {
	t.Helper()
	ot, ok := h.env.Objects.Get(id)
	if !ok {
		t.Fatalf("object type %s not registered", id)
	}
	return ot
}

func (h *testHost) placedData(t *testing.T) CreationData {
	return CreationData{
		Type:       h.shopType(t, AdminTypeID),
		ObjectType: h.objectType(t, "test-placed"),
		Spawn:      &location.Location{World: "w", X: 10.5, Y: 64, Z: -2.5, Yaw: 90},
	}
}

func (h *testHost) virtualData(t *testing.T) CreationData {
	return CreationData{
		Type:       h.shopType(t, AdminTypeID),
		ObjectType: h.objectType(t, "test-virtual"),
	}
}

func (h *testHost) create(t *testing.T, shopID int, cd CreationData) *Shopkeeper {
	t.Helper()
	sk, err := Create(h.env, shopID, cd)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	return sk
}

// createAdded creates a shopkeeper, registers it, and clears the creation
// dirtiness and recorded object calls.
func (h *testHost) createAdded(t *testing.T, shopID int, cd CreationData) *Shopkeeper {
	t.Helper()
	sk := h.create(t, shopID, cd)
	if err := sk.InformAdded(lifecycle.AddedCreated); err != nil {
		t.Fatalf("inform added: %v", err)
	}
	_, token := sk.PersistState()
	sk.OnPersisted(token)
	delete(h.storage.pending, sk.ID())
	recorder(t, sk).Reset()
	return sk
}

func recorder(t *testing.T, sk *Shopkeeper) *objecttest.Recorder {
	t.Helper()
	r := objecttest.Of(sk.Object())
	if r == nil {
		t.Fatalf("object is %T, want recorder", sk.Object())
	}
	return r
}
