package tui

import (
	"github.com/atotto/clipboard"

	"github.com/tednaaa/resto/internal/app"
)

// SystemClipboard is the OS clipboard. Where the platform has no clipboard
// tool it keeps the text in process.
type SystemClipboard struct {
	fallback app.MemoryClipboard
}

// NewSystemClipboard creates the clipboard collaborator.
func NewSystemClipboard() *SystemClipboard {
	return &SystemClipboard{}
}

// ReadAll returns the clipboard text.
func (c *SystemClipboard) ReadAll() (string, error) {
	if clipboard.Unsupported {
		return c.fallback.ReadAll()
	}
	text, err := clipboard.ReadAll()
	if err != nil {
		return "", err
	}
	if text == "" {
		return "", app.ErrClipboardEmpty
	}
	return text, nil
}

// WriteAll replaces the clipboard text.
func (c *SystemClipboard) WriteAll(text string) error {
	if clipboard.Unsupported {
		return c.fallback.WriteAll(text)
	}
	return clipboard.WriteAll(text)
}
