package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventParsed   EventType = "parsed"
	EventResolved EventType = "resolved"
	EventReload   EventType = "reload"
	EventPlane    EventType = "plane"
	EventPlaced   EventType = "placed"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
}

// ParseEvent is emitted once a document has been read.
type ParseEvent struct {
	EventBase
	Extents [3]int `json:"extents"`
	Groups  int    `json:"groups"`
}

// ResolveEvent is emitted after each resolution pass (initial and reload).
type ResolveEvent struct {
	EventBase
	SceneFile string          `json:"scene_file,omitempty"`
	State     ResolutionState `json:"state"`
	Missing   []string        `json:"missing,omitempty"`
	Reload    bool            `json:"reload"`
}

// PlaneEvent is emitted after every command of a z plane has been handed out.
type PlaneEvent struct {
	EventBase
	Z      int `json:"z"`
	Placed int `json:"placed"`
}

// PlacementEvent is emitted for each instantiated command.
type PlacementEvent struct {
	EventBase
	Command PlacementCommand `json:"command"`
}

// LifecycleHooks defines callbacks for engine observability.
type LifecycleHooks struct {
	OnParsed   func(context.Context, *ParseEvent)
	OnResolved func(context.Context, *ResolveEvent)
	OnPlane    func(context.Context, *PlaneEvent)
	OnPlaced   func(context.Context, *PlacementEvent)
}
