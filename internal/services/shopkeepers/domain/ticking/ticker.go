package ticking

import (
	"fmt"
	"sort"

	"github.com/louisbranch/shopkeepers/internal/services/shopkeepers/domain/shopkeeper"
)

// Saver is asked for a delayed flush after a pulse left shopkeepers dirty.
type Saver interface {
	SaveDelayed()
}

// Config configures a Ticker.
type Config struct {
	Groups int
	Saver  Saver
	Logf   func(format string, args ...any)
}

// PulseResult summarizes one pulse.
type PulseResult struct {
	Group  int
	Ticked int
	Failed int
	Dirty  int
}

// Ticker drives shopkeeper ticks, one group per pulse. It is confined to the
// tick goroutine.
type Ticker struct {
	groups  int
	members []map[int]*shopkeeper.Shopkeeper
	current int
	saver   Saver
	logf    func(string, ...any)
}

// New builds a ticker.
func New(cfg Config) *Ticker {
	groups := cfg.Groups
	if groups <= 0 {
		groups = DefaultGroups
	}
	logf := cfg.Logf
	if logf == nil {
		logf = func(string, ...any) {}
	}
	members := make([]map[int]*shopkeeper.Shopkeeper, groups)
	for i := range members {
		members[i] = make(map[int]*shopkeeper.Shopkeeper)
	}
	return &Ticker{groups: groups, members: members, saver: cfg.Saver, logf: logf}
}

// Groups returns the number of groups.
func (t *Ticker) Groups() int { return t.groups }

// CurrentGroup returns the group the next pulse ticks.
func (t *Ticker) CurrentGroup() int { return t.current }

func (t *Ticker) groupOf(sk *shopkeeper.Shopkeeper) int {
	group := sk.TickingGroup() % t.groups
	if group < 0 {
		group += t.groups
	}
	return group
}

// Start begins ticking sk.
func (t *Ticker) Start(sk *shopkeeper.Shopkeeper) {
	group := t.members[t.groupOf(sk)]
	if _, ok := group[sk.ID()]; ok {
		return
	}
	group[sk.ID()] = sk
	sk.StartTicking()
}

// Stop ends ticking sk.
func (t *Ticker) Stop(sk *shopkeeper.Shopkeeper) {
	group := t.members[t.groupOf(sk)]
	if _, ok := group[sk.ID()]; !ok {
		return
	}
	delete(group, sk.ID())
	sk.StopTicking()
}

// IsTicking reports whether sk is ticked by t.
func (t *Ticker) IsTicking(sk *shopkeeper.Shopkeeper) bool {
	_, ok := t.members[t.groupOf(sk)][sk.ID()]
	return ok
}

// Len returns the number of ticking shopkeepers.
func (t *Ticker) Len() int {
	n := 0
	for _, group := range t.members {
		n += len(group)
	}
	return n
}

// GroupSizes returns the number of ticking shopkeepers per group.
func (t *Ticker) GroupSizes() []int {
	sizes := make([]int, t.groups)
	for i, group := range t.members {
		sizes[i] = len(group)
	}
	return sizes
}

// Pulse ticks the current group and advances to the next one. Shopkeepers
// stopped by an earlier tick of the same pulse are skipped. A failing tick is
// logged and does not affect the others.
func (t *Ticker) Pulse() PulseResult {
	result := PulseResult{Group: t.current}
	group := t.members[t.current]
	batch := make([]*shopkeeper.Shopkeeper, 0, len(group))
	for _, sk := range group {
		batch = append(batch, sk)
	}
	sort.Slice(batch, func(i, j int) bool { return batch[i].ID() < batch[j].ID() })

	for _, sk := range batch {
		if group[sk.ID()] != sk || !sk.IsTicking() {
			continue
		}
		result.Ticked++
		if err := tick(sk); err != nil {
			result.Failed++
			t.logf("%sError during tick: %v", sk.LogPrefix(), err)
		}
		if sk.IsValid() && sk.IsDirty() {
			result.Dirty++
		}
	}
	if result.Dirty > 0 && t.saver != nil {
		t.saver.SaveDelayed()
	}
	t.current = (t.current + 1) % t.groups
	return result
}

func tick(sk *shopkeeper.Shopkeeper) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return sk.Tick()
}
