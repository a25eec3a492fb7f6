package shopkeeper

import (
	"testing"

	"github.com/louisbranch/shopkeepers/internal/services/shopkeepers/domain/data"
	"github.com/louisbranch/shopkeepers/internal/services/shopkeepers/domain/lifecycle"
	"github.com/louisbranch/shopkeepers/internal/services/shopkeepers/domain/location"
)

func TestMarkDirtyIsIdempotent(t *testing.T) {
	h := newTestHost(t)
	sk := h.createAdded(t, 1, h.placedData(t))

	for i := 0; i < 3; i++ {
		sk.MarkDirty()
	}
	if !sk.IsDirty() {
		t.Fatal("expected dirty")
	}
	if len(h.storage.pending) != 1 {
		t.Fatalf("pending = %d, want 1", len(h.storage.pending))
	}
	_, token := sk.PersistState()
	sk.OnPersisted(token)
	if sk.IsDirty() {
		t.Fatal("expected clean after a single acknowledgement")
	}
}

func TestOnPersistedKeepsLaterChangesDirty(t *testing.T) {
	h := newTestHost(t)
	sk := h.createAdded(t, 1, h.placedData(t))

	sk.SetName("Before")
	record, token := sk.PersistState()
	sk.SetName("After")
	sk.OnPersisted(token)

	if !sk.IsDirty() {
		t.Fatal("expected change after capture to keep the shopkeeper dirty")
	}
	if got, _ := record.String(KeyName); got != "Before" {
		t.Fatalf("captured name = %q, want Before", got)
	}

	_, token = sk.PersistState()
	sk.OnPersisted(token)
	if sk.IsDirty() {
		t.Fatal("expected clean after the next capture")
	}
}

func TestDirtyBeforeRegistrationIsForwardedOnAdd(t *testing.T) {
	h := newTestHost(t)
	sk := h.create(t, 1, h.placedData(t))

	if len(h.storage.pending) != 0 {
		t.Fatal("expected no storage signal before registration")
	}
	if err := sk.InformAdded(lifecycle.AddedCreated); err != nil {
		t.Fatalf("inform added: %v", err)
	}
	if h.storage.pending[1] != sk {
		t.Fatal("expected pending dirty shopkeeper to be forwarded on add")
	}
}

func TestSaveRequestsFlush(t *testing.T) {
	h := newTestHost(t)
	sk := h.createAdded(t, 1, h.placedData(t))

	sk.Save()
	sk.SaveDelayed()
	if h.storage.saves != 1 || h.storage.delayed != 1 {
		t.Fatalf("saves = %d, delayed = %d", h.storage.saves, h.storage.delayed)
	}
	if !sk.IsDirty() {
		t.Fatal("expected save to mark dirty")
	}
}

func TestPlacementSurvivesSaveAndLoad(t *testing.T) {
	h := newTestHost(t)
	cd := h.placedData(t)
	cd.Spawn = &location.Location{World: "w", X: 10, Y: 64, Z: -3, Yaw: 90}
	sk := h.create(t, 7, cd)
	sk.SetName("Bob")
	recorder(t, sk).State = "stock"
	recorder(t, sk).External = "kept outside"

	record, _ := sk.PersistState()
	raw, err := record.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoded, err := data.Decode(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	loaded, err := Load(h.env, decoded)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if loaded.ID() != 7 || loaded.UniqueID() != sk.UniqueID() {
		t.Fatalf("identity = %d %s, want 7 %s", loaded.ID(), loaded.UniqueID(), sk.UniqueID())
	}
	got, _ := loaded.BlockLocation()
	if got != (location.BlockLocation{World: "w", X: 10, Y: 64, Z: -3}) {
		t.Fatalf("location = %v", got)
	}
	if loaded.Yaw() != 90 {
		t.Fatalf("yaw = %v, want 90", loaded.Yaw())
	}
	if loaded.Name() != "Bob" {
		t.Fatalf("name = %q, want Bob", loaded.Name())
	}
	if r := recorder(t, loaded); r.State != "stock" || r.External != "" {
		t.Fatalf("object state = %q external = %q", r.State, r.External)
	}
}

func TestVirtualRecordHasNoPlacementKeys(t *testing.T) {
	h := newTestHost(t)
	sk := h.create(t, 2, h.virtualData(t))

	record, _ := sk.PersistState()
	for _, key := range []string{KeyWorld, KeyX, KeyY, KeyZ, KeyYaw} {
		if record.Has(key) {
			t.Fatalf("virtual record has %s", key)
		}
	}
	loaded, err := Load(h.env, record)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !loaded.IsVirtual() {
		t.Fatal("expected loaded shopkeeper to be virtual")
	}
}
