package shopkeeper

// IsTicking reports whether the scheduler currently ticks s.
func (s *Shopkeeper) IsTicking() bool { return s.ticking }

// StartTicking is called by the scheduler when it starts ticking s.
func (s *Shopkeeper) StartTicking() {
	if s.ticking {
		return
	}
	s.ticking = true
	s.object.OnStartTicking()
}

// StopTicking is called by the scheduler when it stops ticking s.
func (s *Shopkeeper) StopTicking() {
	if !s.ticking {
		return
	}
	s.ticking = false
	s.object.OnStopTicking()
}

// Tick runs one tick: the start phase, then, unless the start phase stopped
// ticking, the tick body and the end phase. The end phase runs even when the
// body fails or panics.
func (s *Shopkeeper) Tick() error {
	if !s.ticking {
		return nil
	}
	s.onTickStart()
	if !s.ticking {
		return nil
	}
	defer s.onTickEnd()
	return s.onTick()
}

func (s *Shopkeeper) onTickStart() {
	if s.typ.onTickStart != nil {
		s.typ.onTickStart(s)
		if !s.ticking {
			return
		}
	}
	s.object.OnTickStart()
}

func (s *Shopkeeper) onTick() error {
	if s.typ.onTick != nil {
		if err := s.typ.onTick(s); err != nil {
			return err
		}
		if !s.ticking {
			return nil
		}
	}
	return s.object.OnTick()
}

func (s *Shopkeeper) onTickEnd() {
	s.object.OnTickEnd()
	if s.env.Settings.VisualizeTicks {
		s.visualizeLastTick()
	}
}

func (s *Shopkeeper) visualizeLastTick() {
	if s.env.Visualizer != nil {
		if anchor, ok := s.object.TickVisualizationAnchor(); ok {
			s.env.Visualizer.VisualizeTick(anchor, s.group)
		}
	}
	s.object.VisualizeLastTick()
}
