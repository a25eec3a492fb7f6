package shopkeeper

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/louisbranch/shopkeepers/internal/platform/text"
	"github.com/louisbranch/shopkeepers/internal/services/shopkeepers/domain/data"
)

// MaxSnapshotNameLength is the longest allowed snapshot name, in characters.
const MaxSnapshotNameLength = 64

// Snapshot entry keys. The dynamic name is stored as KeySnapshotNameField
// since KeyName holds the snapshot's own name.
const (
	KeySnapshotTimestamp = "timestamp"
	KeySnapshotNameField = "name_field"
)

// Snapshot is a named capture of a shopkeeper's dynamic state. It is
// immutable once built.
type Snapshot struct {
	name      string
	timestamp time.Time
	state     data.Container
}

// NewSnapshot validates name and builds a snapshot of a copy of state.
func NewSnapshot(name string, timestamp time.Time, state data.Container) (*Snapshot, error) {
	name = strings.TrimSpace(name)
	if err := ValidateSnapshotName(name); err != nil {
		return nil, err
	}
	if state == nil {
		return nil, ValidationError("snapshot %q has no state", name)
	}
	if _, err := state.String(KeyType); err != nil {
		return nil, ValidationError("snapshot %q has no shop type", name)
	}
	return &Snapshot{name: name, timestamp: timestamp.UTC(), state: state.Clone()}, nil
}

// ValidateSnapshotName checks the snapshot naming rules.
func ValidateSnapshotName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ValidationError("snapshot name is empty")
	}
	if utf8.RuneCountInString(name) > MaxSnapshotNameLength {
		return ValidationError("snapshot name is longer than %d characters", MaxSnapshotNameLength)
	}
	if text.ContainsColorCodes(name) {
		return ValidationError("snapshot name contains color codes")
	}
	return nil
}

func (s *Snapshot) Name() string { return s.name }

func (s *Snapshot) Timestamp() time.Time { return s.timestamp }

// ShopTypeID returns the shop type the state was captured from.
func (s *Snapshot) ShopTypeID() string {
	typeID, _ := s.state.String(KeyType)
	return typeID
}

// DynamicState returns a copy of the captured state.
func (s *Snapshot) DynamicState() data.Container {
	return s.state.Clone()
}

func (s *Snapshot) encode() data.Container {
	entry := s.state.Clone()
	name, _ := entry.StringOr(KeyName, "")
	entry.Remove(KeyName)
	entry.Set(KeySnapshotNameField, name)
	entry.Set(KeyName, s.name)
	entry.Set(KeySnapshotTimestamp, s.timestamp.Format(time.RFC3339Nano))
	return entry
}

func decodeSnapshot(entry data.Container) (*Snapshot, error) {
	name, err := entry.String(KeyName)
	if err != nil {
		return nil, err
	}
	rawTimestamp, err := entry.String(KeySnapshotTimestamp)
	if err != nil {
		return nil, err
	}
	timestamp, err := time.Parse(time.RFC3339Nano, rawTimestamp)
	if err != nil {
		return nil, fmt.Errorf("snapshot %q: invalid timestamp: %w", name, err)
	}
	state := entry.Clone()
	state.Remove(KeyName)
	state.Remove(KeySnapshotTimestamp)
	dynamicName, err := state.StringOr(KeySnapshotNameField, "")
	if err != nil {
		return nil, err
	}
	state.Remove(KeySnapshotNameField)
	state.Set(KeyName, dynamicName)
	return NewSnapshot(name, timestamp, state)
}

func (s *Shopkeeper) loadSnapshots(record data.Container) error {
	entries, err := record.ContainerList(KeySnapshots)
	if err != nil {
		return LoadError(s.LogPrefix()+"invalid snapshots", err)
	}
	snapshots := make([]*Snapshot, 0, len(entries))
	for i, entry := range entries {
		snapshot, err := decodeSnapshot(entry)
		if err != nil {
			return LoadError(fmt.Sprintf("%sinvalid snapshot %d", s.LogPrefix(), i+1), err)
		}
		for _, other := range snapshots {
			if text.EqualNormalized(other.name, snapshot.name) {
				return LoadError(fmt.Sprintf("%sduplicate snapshot name: %s", s.LogPrefix(), snapshot.name), nil)
			}
		}
		snapshots = append(snapshots, snapshot)
	}
	s.snapshots = snapshots
	return nil
}

func (s *Shopkeeper) saveSnapshots(record data.Container) {
	if len(s.snapshots) == 0 {
		return
	}
	entries := make([]any, 0, len(s.snapshots))
	for _, snapshot := range s.snapshots {
		entries = append(entries, snapshot.encode())
	}
	record.Set(KeySnapshots, entries)
}

// Snapshots returns the snapshots in order.
func (s *Shopkeeper) Snapshots() []*Snapshot {
	return append([]*Snapshot(nil), s.snapshots...)
}

// Snapshot returns the snapshot at index.
func (s *Shopkeeper) Snapshot(index int) (*Snapshot, error) {
	if index < 0 || index >= len(s.snapshots) {
		return nil, ValidationError("snapshot index %d out of range", index)
	}
	return s.snapshots[index], nil
}

// SnapshotIndex returns the index of the snapshot named name, or -1.
func (s *Shopkeeper) SnapshotIndex(name string) int {
	key := text.Normalize(name)
	for i, snapshot := range s.snapshots {
		if text.Normalize(snapshot.name) == key {
			return i
		}
	}
	return -1
}

// SnapshotByName returns the snapshot named name.
func (s *Shopkeeper) SnapshotByName(name string) (*Snapshot, bool) {
	index := s.SnapshotIndex(name)
	if index < 0 {
		return nil, false
	}
	return s.snapshots[index], true
}

// CreateSnapshot captures the full dynamic state of s. The snapshot is not
// added; see AddSnapshot and TakeSnapshot.
func (s *Shopkeeper) CreateSnapshot(name string) (*Snapshot, error) {
	if err := ValidateSnapshotName(name); err != nil {
		return nil, err
	}
	if s.SnapshotIndex(name) >= 0 {
		return nil, ValidationError("%sthere is already a snapshot named %q", s.LogPrefix(), strings.TrimSpace(name))
	}
	state := data.New()
	s.saveDynamicState(state, true)
	return NewSnapshot(name, s.env.now(), state)
}

// TakeSnapshot creates a snapshot and adds it.
func (s *Shopkeeper) TakeSnapshot(name string) (*Snapshot, error) {
	snapshot, err := s.CreateSnapshot(name)
	if err != nil {
		return nil, err
	}
	if err := s.AddSnapshot(snapshot); err != nil {
		return nil, err
	}
	return snapshot, nil
}

// AddSnapshot appends snapshot.
func (s *Shopkeeper) AddSnapshot(snapshot *Snapshot) error {
	if snapshot == nil {
		return ValidationError("snapshot is required")
	}
	if snapshot.ShopTypeID() != s.typ.id {
		return ValidationError("%ssnapshot %q is of shop type %s", s.LogPrefix(), snapshot.name, snapshot.ShopTypeID())
	}
	if s.SnapshotIndex(snapshot.name) >= 0 {
		return ValidationError("%sthere is already a snapshot named %q", s.LogPrefix(), snapshot.name)
	}
	s.snapshots = append(s.snapshots, snapshot)
	s.MarkDirty()
	if limit := s.env.Settings.SnapshotWarningLimit; limit > 0 && len(s.snapshots) > limit {
		s.env.logf("%sShopkeeper has %d snapshots (warning limit: %d). Consider deleting old snapshots.",
			s.LogPrefix(), len(s.snapshots), limit)
	}
	return nil
}

// RemoveSnapshot removes and returns the snapshot at index.
func (s *Shopkeeper) RemoveSnapshot(index int) (*Snapshot, error) {
	snapshot, err := s.Snapshot(index)
	if err != nil {
		return nil, err
	}
	s.snapshots = append(s.snapshots[:index:index], s.snapshots[index+1:]...)
	s.MarkDirty()
	return snapshot, nil
}

// RemoveAllSnapshots removes every snapshot and returns how many there were.
func (s *Shopkeeper) RemoveAllSnapshots() int {
	n := len(s.snapshots)
	if n == 0 {
		return 0
	}
	s.snapshots = nil
	s.MarkDirty()
	return n
}

// ApplySnapshot restores the dynamic state captured by snapshot. Open UI
// sessions are aborted. The object is not respawned; it reacts to the loaded
// state itself.
func (s *Shopkeeper) ApplySnapshot(snapshot *Snapshot) error {
	if snapshot == nil {
		return ValidationError("snapshot is required")
	}
	if snapshot.ShopTypeID() != s.typ.id {
		return SnapshotLoadError(snapshot.name, LoadError(
			fmt.Sprintf("%ssnapshot is of shop type %s", s.LogPrefix(), snapshot.ShopTypeID()), nil))
	}
	if err := s.env.ui().AbortSessions(s.id); err != nil {
		s.env.logf("%sCould not abort UI sessions before applying snapshot %q: %v", s.LogPrefix(), snapshot.name, err)
	}
	if err := s.loadDynamicState(snapshot.state); err != nil {
		return SnapshotLoadError(snapshot.name, err)
	}
	s.MarkDirty()
	return nil
}
