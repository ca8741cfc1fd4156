package plugin

import (
	"encoding/json"
	"log"

	"github.com/ayusman/taala/internal/session"
	"github.com/ayusman/taala/internal/timeline"
)

// Notifier fans trainer events out to every subscribed plugin. Delivery is
// asynchronous and best-effort: a slow or broken plugin is logged and
// skipped, never allowed to stall the judgment loop.
type Notifier struct {
	manager  *Manager
	executor *Executor
}

// NewNotifier creates a Notifier over the given manager and executor.
func NewNotifier(manager *Manager, executor *Executor) *Notifier {
	return &Notifier{manager: manager, executor: executor}
}

// NotifyResolution delivers one scored note to resolution subscribers.
func (n *Notifier) NotifyResolution(res timeline.Resolution) {
	n.notify(EventResolution, res)
}

// NotifySummary delivers a finished run to summary subscribers.
func (n *Notifier) NotifySummary(result session.Result) {
	n.notify(EventSummary, result)
}

func (n *Notifier) notify(event string, payload interface{}) {
	subs := n.manager.Subscribers(event)
	if len(subs) == 0 {
		return
	}

	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("Failed to marshal %s event: %v", event, err)
		return
	}
	req := &Request{Event: event, Data: data}

	for _, p := range subs {
		go func(p *Plugin) {
			resp, err := n.executor.Execute(p, req)
			if err != nil {
				log.Printf("Plugin %s failed on %s: %v", p.Manifest.Name, event, err)
				return
			}
			if !resp.Success {
				log.Printf("Plugin %s rejected %s: %s", p.Manifest.Name, event, resp.Error)
			}
		}(p)
	}
}
