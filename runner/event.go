package runner

import (
	"github.com/vidhunt/vidhunt/log"
)

// Status is the state of a single provider attempt as reported in update events.
type Status string

const (
	StatusPending  Status = "pending"
	StatusNotFound Status = "notfound"
	StatusFailure  Status = "failure"
)

// Event is one of InitEvent, StartEvent, UpdateEvent and DiscoverEmbedsEvent.
type Event interface {
	// Name is the event name: init, start, update or discoverEmbeds.
	Name() string
	// Run is the id of the resolution that emitted the event.
	Run() string
}

// InitEvent carries the source order of a resolution before anything is tried.
type InitEvent struct {
	RunID     string   `json:"runId"`
	SourceIDs []string `json:"sourceIds"`
}

// StartEvent is emitted before a source or embed is tried.
// Embeds are identified by "<source id>-<index>".
type StartEvent struct {
	RunID string `json:"runId"`
	ID    string `json:"id"`
}

// UpdateEvent reports progress or the end of an unsuccessful attempt.
type UpdateEvent struct {
	RunID      string  `json:"runId"`
	ID         string  `json:"id"`
	Percentage float64 `json:"percentage"`
	Status     Status  `json:"status"`
	Reason     string  `json:"reason,omitempty"`
	Error      error   `json:"-"`
}

// DiscoveredEmbed is an embed reference a source handed off, in the order it will be tried.
type DiscoveredEmbed struct {
	ID             string `json:"id"`
	EmbedScraperID string `json:"embedScraperId"`
}

// DiscoverEmbedsEvent lists the embeds a source returned.
type DiscoverEmbedsEvent struct {
	RunID    string            `json:"runId"`
	SourceID string            `json:"sourceId"`
	Embeds   []DiscoveredEmbed `json:"embeds"`
}

func (InitEvent) Name() string           { return "init" }
func (StartEvent) Name() string          { return "start" }
func (UpdateEvent) Name() string         { return "update" }
func (DiscoverEmbedsEvent) Name() string { return "discoverEmbeds" }

func (e InitEvent) Run() string           { return e.RunID }
func (e StartEvent) Run() string          { return e.RunID }
func (e UpdateEvent) Run() string         { return e.RunID }
func (e DiscoverEmbedsEvent) Run() string { return e.RunID }

// Sink receives resolution events synchronously, in emission order.
type Sink interface {
	Emit(Event)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(Event)

// Emit calls f.
func (f SinkFunc) Emit(e Event) {
	f(e)
}

// MultiSink fans events out to several sinks. Nil sinks are skipped.
type MultiSink []Sink

// Emit delivers e to every sink in order.
func (m MultiSink) Emit(e Event) {
	for _, s := range m {
		if s != nil {
			s.Emit(e)
		}
	}
}

// LogSink mirrors events to the application log.
type LogSink struct{}

// Emit logs e. Progress updates are logged at trace level.
func (LogSink) Emit(e Event) {
	entry := log.WithFields(log.Fields{"run": e.Run(), "event": e.Name()})

	switch e := e.(type) {
	case InitEvent:
		entry.Debugf("resolving with sources %v", e.SourceIDs)
	case StartEvent:
		entry.WithField("provider", e.ID).Debug("trying provider")
	case DiscoverEmbedsEvent:
		entry.WithField("provider", e.SourceID).Debugf("discovered %d embeds", len(e.Embeds))
	case UpdateEvent:
		entry = entry.WithField("provider", e.ID)
		switch e.Status {
		case StatusPending:
			entry.Tracef("progress %.0f%%", e.Percentage)
		case StatusNotFound:
			entry.Debugf("not found: %s", e.Reason)
		case StatusFailure:
			entry.WithError(e.Error).Warnf("failed: %s", e.Reason)
		}
	}
}
