package app

import (
	"errors"
	"sync"
)

// ErrClipboardEmpty is returned when there is nothing to read.
var ErrClipboardEmpty = errors.New("clipboard is empty")

// Clipboard is the system clipboard collaborator.
type Clipboard interface {
	ReadAll() (string, error)
	WriteAll(text string) error
}

// MemoryClipboard keeps clipboard content in process. It is the default when
// no system clipboard is wired in.
type MemoryClipboard struct {
	mu   sync.Mutex
	text string
}

// ReadAll returns the stored text.
func (c *MemoryClipboard) ReadAll() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.text == "" {
		return "", ErrClipboardEmpty
	}
	return c.text, nil
}

// WriteAll replaces the stored text.
func (c *MemoryClipboard) WriteAll(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.text = text
	return nil
}
