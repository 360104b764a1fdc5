package domain

import "strings"

// Keyboard describes a Telegram reply keyboard in transport-neutral form.
// Remove wins over Rows; a nil *Keyboard leaves the current keyboard alone.
type Keyboard struct {
	Rows    [][]string
	OneTime bool
	Remove  bool
}

// KeyboardOf builds a one-button-per-row keyboard, the most common shape here.
func KeyboardOf(buttons ...string) *Keyboard {
	rows := make([][]string, len(buttons))
	for i, b := range buttons {
		rows[i] = []string{b}
	}
	return &Keyboard{Rows: rows}
}

// RemoveKeyboard hides the current reply keyboard.
func RemoveKeyboard() *Keyboard { return &Keyboard{Remove: true} }

// IncomingMessage is a text message the conversation engine reacts to.
type IncomingMessage struct {
	ChatID    int64
	UserID    int64
	MessageID int
	FirstName string
	Text      string
}

// Command returns the leading /command without the slash, or "".
func (m IncomingMessage) Command() string {
	if len(m.Text) == 0 || m.Text[0] != '/' {
		return ""
	}
	cmd := m.Text[1:]
	for i := 0; i < len(cmd); i++ {
		if cmd[i] == ' ' || cmd[i] == '@' {
			return cmd[:i]
		}
	}
	return cmd
}

// Args returns whitespace-separated arguments after the command.
func (m IncomingMessage) Args() []string {
	if m.Command() == "" {
		return nil
	}
	fields := strings.Fields(m.Text)
	if len(fields) <= 1 {
		return nil
	}
	return fields[1:]
}
