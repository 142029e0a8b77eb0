package app

import "strings"

// Pane identifies one of the editable regions.
type Pane int

const (
	PaneURL Pane = iota
	PaneHeaders
	PaneBody
)

// Panes lists the panes in focus order.
var Panes = []Pane{PaneURL, PaneHeaders, PaneBody}

var paneNames = map[Pane]string{
	PaneURL:     "URL",
	PaneHeaders: "Headers",
	PaneBody:    "Body",
}

// String returns the pane title.
func (p Pane) String() string {
	if name, ok := paneNames[p]; ok {
		return name
	}
	return "Unknown"
}

// Next returns the pane after p, wrapping around.
func (p Pane) Next() Pane {
	return Panes[(int(p)+1)%len(Panes)]
}

// Prev returns the pane before p, wrapping around.
func (p Pane) Prev() Pane {
	return Panes[(int(p)+len(Panes)-1)%len(Panes)]
}

// ParsePane resolves a pane by name, case-insensitively.
func ParsePane(name string) (Pane, bool) {
	switch strings.ToLower(name) {
	case "url":
		return PaneURL, true
	case "headers", "header":
		return PaneHeaders, true
	case "body":
		return PaneBody, true
	}
	return 0, false
}
