// Package plugin provides discovery and execution of external feedback
// plugins. Plugins are standalone executables that receive trainer events
// as JSON on stdin, so haptic cues, sound effects, or score uploads can be
// added without touching the core.
package plugin

import "encoding/json"

// Event names delivered to plugins.
const (
	// EventResolution fires for every scored note.
	EventResolution = "resolution"
	// EventSummary fires once when a run completes.
	EventSummary = "summary"
)

// Manifest describes a plugin's metadata and the events it subscribes to.
type Manifest struct {
	Name         string          `json:"name"`
	Version      string          `json:"version"`
	Description  string          `json:"description"`
	Executable   string          `json:"executable"`
	Events       []string        `json:"events"`
	ConfigSchema json.RawMessage `json:"configSchema,omitempty"`
}

// Request represents one event delivered to a plugin.
type Request struct {
	Event  string          `json:"event"`
	Data   json.RawMessage `json:"data"`
	Config json.RawMessage `json:"config,omitempty"`
}

// Response represents the response from a plugin execution.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Plugin represents a discovered plugin with its manifest and location.
type Plugin struct {
	Manifest   Manifest
	Path       string
	Executable string
}

// Subscribes reports whether the plugin asked for the given event.
func (p *Plugin) Subscribes(event string) bool {
	for _, e := range p.Manifest.Events {
		if e == event {
			return true
		}
	}
	return false
}
