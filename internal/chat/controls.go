package chat

// Controls is the input surface a Controller drives: the text input and the
// send action, which are always enabled and disabled together.
type Controls interface {
	// Clear empties the input and resets its size.
	Clear()
	// SetEnabled enables or disables both input and send.
	SetEnabled(enabled bool)
	// Focus returns keyboard focus to the input.
	Focus()
}

// StateControls is a Controls that only records state. It backs the
// one-shot CLI, where there is no input widget.
type StateControls struct {
	Enabled bool
	Focused bool
	Clears  int
	// Toggles counts SetEnabled calls that changed state.
	Toggles int
}

// NewStateControls returns enabled, focused controls.
func NewStateControls() *StateControls {
	return &StateControls{Enabled: true, Focused: true}
}

func (s *StateControls) Clear() {
	s.Clears++
}

func (s *StateControls) SetEnabled(enabled bool) {
	if s.Enabled != enabled {
		s.Toggles++
	}
	s.Enabled = enabled
	if !enabled {
		s.Focused = false
	}
}

func (s *StateControls) Focus() {
	s.Focused = true
}
