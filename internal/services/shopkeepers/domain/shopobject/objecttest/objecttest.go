// Package objecttest provides a recording object type for tests of code that
// drives shop objects.
package objecttest

import (
	"github.com/louisbranch/shopkeepers/internal/services/shopkeepers/domain/data"
	"github.com/louisbranch/shopkeepers/internal/services/shopkeepers/domain/lifecycle"
	"github.com/louisbranch/shopkeepers/internal/services/shopkeepers/domain/location"
	"github.com/louisbranch/shopkeepers/internal/services/shopkeepers/domain/shopobject"
)

const (
	stateKey    = "state"
	externalKey = "external"
)

// Recorder is an object that records every call it receives. Its State is
// persisted under "state"; External is only persisted when saving all.
type Recorder struct {
	shopobject.Base

	Calls    []string
	State    string
	External string
	Face     location.Face

	// LoadErr, FaceErr and TickErr are returned by the matching methods.
	LoadErr error
	FaceErr error
	TickErr error
	// TickPanic, when non-nil, is raised from OnTick.
	TickPanic any

	// OnTickStartHook runs inside OnTickStart.
	OnTickStartHook func()
	// OnTickHook runs inside OnTick before the error and panic injection.
	OnTickHook func()
}

// NewType returns a recording object type.
func NewType(id string, virtual, mustBeSpawned bool) *shopobject.Type {
	t, err := shopobject.NewType(shopobject.TypeConfig{
		ID:            id,
		Virtual:       virtual,
		MustBeSpawned: mustBeSpawned,
		New: func(t *shopobject.Type, owner shopobject.Owner, params *shopobject.CreationParams) shopobject.Object {
			r := &Recorder{Base: shopobject.NewBase(t, owner)}
			if params != nil {
				r.Face = params.AttachedFace
			}
			return r
		},
	})
	if err != nil {
		panic(err)
	}
	return t
}

// NewRegistry returns a registry with a virtual "test-virtual" type and a
// placed, host-spawned "test-placed" type.
func NewRegistry() *shopobject.Registry {
	r := shopobject.NewRegistry()
	_ = r.Register(NewType("test-virtual", true, false))
	_ = r.Register(NewType("test-placed", false, true))
	return r
}

// Of returns obj as a recorder, or nil when it is something else.
func Of(obj shopobject.Object) *Recorder {
	r, _ := obj.(*Recorder)
	return r
}

// Count returns how many times the named call was recorded.
func (r *Recorder) Count(call string) int {
	n := 0
	for _, c := range r.Calls {
		if c == call {
			n++
		}
	}
	return n
}

// Reset forgets the recorded calls.
func (r *Recorder) Reset() {
	r.Calls = nil
}

func (r *Recorder) record(call string) {
	r.Calls = append(r.Calls, call)
}

func (r *Recorder) Setup() { r.record("setup") }

func (r *Recorder) Load(state data.Container) error {
	r.record("load")
	if r.LoadErr != nil {
		return r.LoadErr
	}
	value, err := state.StringOr(stateKey, "")
	if err != nil {
		return err
	}
	external, err := state.StringOr(externalKey, r.External)
	if err != nil {
		return err
	}
	r.State = value
	r.External = external
	return nil
}

func (r *Recorder) Save(state data.Container, saveAll bool) {
	r.record("save")
	if r.State != "" {
		state.Set(stateKey, r.State)
	}
	if saveAll && r.External != "" {
		state.Set(externalKey, r.External)
	}
}

func (r *Recorder) SetName(name string) {
	r.record("setName")
	r.Base.SetName(name)
}

func (r *Recorder) OnAdded(lifecycle.AddedCause) { r.record("onAdded") }

func (r *Recorder) Remove() {
	r.record("remove")
	r.Base.Remove()
}

func (r *Recorder) Delete() { r.record("delete") }

func (r *Recorder) Spawn() bool {
	r.record("spawn")
	return r.Base.Spawn()
}

func (r *Recorder) Despawn() {
	r.record("despawn")
	r.Base.Despawn()
}

func (r *Recorder) Move() { r.record("move") }

func (r *Recorder) SetAttachedFace(face location.Face) error {
	r.record("setAttachedFace")
	if r.FaceErr != nil {
		return r.FaceErr
	}
	r.Face = face
	return nil
}

func (r *Recorder) OnStartTicking() {
	r.record("onStartTicking")
	r.Base.OnStartTicking()
}

func (r *Recorder) OnStopTicking() {
	r.record("onStopTicking")
	r.Base.OnStopTicking()
}

func (r *Recorder) OnTickStart() {
	r.record("onTickStart")
	if r.OnTickStartHook != nil {
		r.OnTickStartHook()
	}
}

func (r *Recorder) OnTick() error {
	r.record("onTick")
	if r.OnTickHook != nil {
		r.OnTickHook()
	}
	if r.TickPanic != nil {
		panic(r.TickPanic)
	}
	return r.TickErr
}

func (r *Recorder) OnTickEnd() { r.record("onTickEnd") }

func (r *Recorder) VisualizeLastTick() { r.record("visualizeLastTick") }
