package shopkeeper

import "github.com/louisbranch/shopkeepers/internal/services/shopkeepers/domain/ui"

// editorHandler lets the owner of player shops edit them. Shops without an
// owner are editable by anyone who can interact with them.
type editorHandler struct {
	sk *Shopkeeper
}

func (h editorHandler) UIType() ui.Type { return ui.Editor }

func (h editorHandler) CanOpen(player ui.Player) bool {
	return h.sk.owner == "" || h.sk.owner == player.Name
}

// RegisterUIHandler sets the handler for its UI type, replacing any previous
// one.
func (s *Shopkeeper) RegisterUIHandler(handler ui.Handler) {
	if handler == nil {
		return
	}
	s.uiHandlers[handler.UIType()] = handler
}

// UIHandler returns the handler for uiType, or nil.
func (s *Shopkeeper) UIHandler(uiType ui.Type) ui.Handler {
	return s.uiHandlers[uiType]
}

// OpenWindow opens uiType for player.
func (s *Shopkeeper) OpenWindow(uiType ui.Type, player ui.Player) bool {
	return s.env.ui().Request(uiType, s, player)
}

func (s *Shopkeeper) OpenTradingWindow(player ui.Player) bool {
	return s.OpenWindow(ui.Trading, player)
}

func (s *Shopkeeper) OpenEditorWindow(player ui.Player) bool {
	return s.OpenWindow(ui.Editor, player)
}

// OnPlayerInteraction opens the editor for sneaking players and the trading
// view otherwise.
func (s *Shopkeeper) OnPlayerInteraction(player ui.Player) bool {
	if player.Sneaking {
		return s.OpenEditorWindow(player)
	}
	return s.OpenTradingWindow(player)
}

// UISessions returns the open sessions on s.
func (s *Shopkeeper) UISessions() []ui.Session {
	return s.env.ui().Sessions(s.id)
}

// AbortUISessions closes every open session on s.
func (s *Shopkeeper) AbortUISessions() error {
	return s.env.ui().AbortSessions(s.id)
}

// AbortUISessionsDelayed closes every open session on s on the next pulse.
func (s *Shopkeeper) AbortUISessionsDelayed() {
	s.env.ui().AbortSessionsDelayed(s.id)
}
