// Package ui tracks interactive sessions players open on shopkeepers.
package ui

import (
	"sort"
	"time"
)

// Type identifies a kind of interactive view.
type Type string

const (
	// Trading is the customer-facing trading view.
	Trading Type = "trading"
	// Editor is the owner-facing editor view.
	Editor Type = "editor"
)

// Player is the viewer of a session.
type Player struct {
	Name     string
	Sneaking bool
}

// Handler opens a view type for a shopkeeper.
type Handler interface {
	UIType() Type
	CanOpen(player Player) bool
}

// Owner is something that exposes views, keyed by a stable id.
type Owner interface {
	ID() int
	UIHandler(uiType Type) Handler
}

// Session is one open view.
type Session struct {
	OwnerID  int
	Type     Type
	Player   string
	OpenedAt time.Time
}

// TradingHandler opens the trading view for any player.
type TradingHandler struct{}

// UIType implements Handler.
func (TradingHandler) UIType() Type { return Trading }

// CanOpen implements Handler.
func (TradingHandler) CanOpen(Player) bool { return true }

// EditorHandler opens the editor view for the named owners only. An empty
// owner list allows everyone.
type EditorHandler struct {
	Owners []string
}

// UIType implements Handler.
func (EditorHandler) UIType() Type { return Editor }

// CanOpen implements Handler.
func (h EditorHandler) CanOpen(player Player) bool {
	if len(h.Owners) == 0 {
		return true
	}
	for _, owner := range h.Owners {
		if owner == player.Name {
			return true
		}
	}
	return false
}

// Registry holds open sessions in memory. It is confined to the tick thread.
type Registry struct {
	sessions map[int][]Session
	delayed  map[int]struct{}
	now      func() time.Time
	logf     func(string, ...any)
}

// NewRegistry builds an empty session registry. now and logf may be nil.
func NewRegistry(now func() time.Time, logf func(string, ...any)) *Registry {
	if now == nil {
		now = time.Now
	}
	if logf == nil {
		logf = func(string, ...any) {}
	}
	return &Registry{
		sessions: make(map[int][]Session),
		delayed:  make(map[int]struct{}),
		now:      now,
		logf:     logf,
	}
}

// Request opens uiType on owner for player. It reports false when the owner
// has no handler for the type or the handler refuses the player.
func (r *Registry) Request(uiType Type, owner Owner, player Player) bool {
	handler := owner.UIHandler(uiType)
	if handler == nil {
		r.logf("No %s handler registered for shopkeeper %d.", uiType, owner.ID())
		return false
	}
	if !handler.CanOpen(player) {
		return false
	}
	id := owner.ID()
	kept := r.sessions[id][:0]
	for _, session := range r.sessions[id] {
		if session.Player != player.Name {
			kept = append(kept, session)
		}
	}
	r.sessions[id] = append(kept, Session{OwnerID: id, Type: uiType, Player: player.Name, OpenedAt: r.now()})
	return true
}

// Sessions returns the open sessions of ownerID.
func (r *Registry) Sessions(ownerID int) []Session {
	return append([]Session(nil), r.sessions[ownerID]...)
}

// SessionsOfType returns the open sessions of ownerID with the given type.
func (r *Registry) SessionsOfType(ownerID int, uiType Type) []Session {
	var out []Session
	for _, session := range r.sessions[ownerID] {
		if session.Type == uiType {
			out = append(out, session)
		}
	}
	return out
}

// Close ends the session of player on ownerID, if any.
func (r *Registry) Close(ownerID int, player string) {
	sessions := r.sessions[ownerID]
	for i, session := range sessions {
		if session.Player == player {
			r.sessions[ownerID] = append(sessions[:i], sessions[i+1:]...)
			break
		}
	}
	if len(r.sessions[ownerID]) == 0 {
		delete(r.sessions, ownerID)
	}
}

// AbortSessions closes every session of ownerID immediately.
func (r *Registry) AbortSessions(ownerID int) error {
	if n := len(r.sessions[ownerID]); n > 0 {
		r.logf("Aborted %d UI session(s) of shopkeeper %d.", n, ownerID)
	}
	delete(r.sessions, ownerID)
	delete(r.delayed, ownerID)
	return nil
}

// AbortSessionsDelayed closes every session of ownerID on the next call to
// ProcessDelayed.
func (r *Registry) AbortSessionsDelayed(ownerID int) {
	r.delayed[ownerID] = struct{}{}
}

// ProcessDelayed runs the pending delayed aborts.
func (r *Registry) ProcessDelayed() {
	if len(r.delayed) == 0 {
		return
	}
	ids := make([]int, 0, len(r.delayed))
	for id := range r.delayed {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		_ = r.AbortSessions(id)
	}
}
