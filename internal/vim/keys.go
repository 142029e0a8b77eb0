package vim

import (
	tea "github.com/charmbracelet/bubbletea"
)

// Key is a normalized keystroke. Special keys carry a Name ("esc", "enter",
// "ctrl+r"...); printable keys carry a Rune and an empty Name.
type Key struct {
	Name string
	Rune rune
}

// RuneKey returns the key for a printable rune.
func RuneKey(r rune) Key {
	return Key{Rune: r}
}

// NamedKey returns the key for a special key name.
func NamedKey(name string) Key {
	return Key{Name: name}
}

// Keys converts a string of printable runes into keys, for replaying input.
func Keys(s string) []Key {
	keys := make([]Key, 0, len(s))
	for _, r := range s {
		keys = append(keys, RuneKey(r))
	}
	return keys
}

// IsRune returns true for printable keys.
func (k Key) IsRune() bool {
	return k.Name == ""
}

// String returns the key the way bindings name it.
func (k Key) String() string {
	if k.Name != "" {
		return k.Name
	}
	if k.Rune == ' ' {
		return "space"
	}
	return string(k.Rune)
}

// KeyFromMsg normalizes a bubbletea key message.
func KeyFromMsg(msg tea.KeyMsg) Key {
	switch msg.Type {
	case tea.KeyRunes:
		if len(msg.Runes) == 1 && !msg.Alt {
			return RuneKey(msg.Runes[0])
		}
		return NamedKey(msg.String())
	case tea.KeySpace:
		return RuneKey(' ')
	case tea.KeyEnter:
		return NamedKey("enter")
	case tea.KeyEsc:
		return NamedKey("esc")
	case tea.KeyBackspace:
		return NamedKey("backspace")
	case tea.KeyDelete:
		return NamedKey("delete")
	case tea.KeyTab:
		return NamedKey("tab")
	case tea.KeyShiftTab:
		return NamedKey("shift+tab")
	case tea.KeyUp:
		return NamedKey("up")
	case tea.KeyDown:
		return NamedKey("down")
	case tea.KeyLeft:
		return NamedKey("left")
	case tea.KeyRight:
		return NamedKey("right")
	case tea.KeyHome:
		return NamedKey("home")
	case tea.KeyEnd:
		return NamedKey("end")
	default:
		return NamedKey(msg.String())
	}
}

// KeyBinding documents a single key for the help line.
type KeyBinding struct {
	key         string
	description string
}

// NewKeyBinding creates a new key binding.
func NewKeyBinding(key, description string) *KeyBinding {
	return &KeyBinding{
		key:         key,
		description: description,
	}
}

// Key returns the key string.
func (kb *KeyBinding) Key() string {
	return kb.key
}

// Description returns the description.
func (kb *KeyBinding) Description() string {
	return kb.description
}

// Matches returns true if the keystroke is this binding.
func (kb *KeyBinding) Matches(key Key) bool {
	return key.String() == kb.key
}

// KeyMap holds key bindings organized by mode.
type KeyMap struct {
	bindings map[Mode][]*KeyBinding
}

// NewKeyMap creates a new empty key map.
func NewKeyMap() *KeyMap {
	return &KeyMap{
		bindings: make(map[Mode][]*KeyBinding),
	}
}

// Register adds a key binding for a mode.
func (km *KeyMap) Register(mode Mode, key, description string) {
	km.bindings[mode] = append(km.bindings[mode], NewKeyBinding(key, description))
}

// GetBindings returns all bindings for a mode.
func (km *KeyMap) GetBindings(mode Mode) []*KeyBinding {
	return km.bindings[mode]
}

// FindBinding finds a matching binding for the given mode and key.
func (km *KeyMap) FindBinding(mode Mode, key Key) (*KeyBinding, bool) {
	for _, kb := range km.bindings[mode] {
		if kb.Matches(key) {
			return kb, true
		}
	}
	return nil, false
}

// DefaultKeyMap returns the bindings shown in the help line.
func DefaultKeyMap() *KeyMap {
	km := NewKeyMap()

	km.Register(ModeNormal, "i", "insert")
	km.Register(ModeNormal, "v", "visual")
	km.Register(ModeNormal, ":", "command")
	km.Register(ModeNormal, "tab", "next pane")
	km.Register(ModeNormal, "ctrl+s", "send")
	km.Register(ModeNormal, "ctrl+n", "method")
	km.Register(ModeNormal, "u", "undo")
	km.Register(ModeNormal, "ctrl+c", "quit")

	km.Register(ModeInsert, "esc", "normal")
	km.Register(ModeInsert, "ctrl+s", "send")

	km.Register(ModeVisual, "y", "yank")
	km.Register(ModeVisual, "d", "delete")
	km.Register(ModeVisual, "c", "change")
	km.Register(ModeVisual, "esc", "normal")

	km.Register(ModeCommand, "enter", "run")
	km.Register(ModeCommand, "esc", "cancel")

	return km
}
