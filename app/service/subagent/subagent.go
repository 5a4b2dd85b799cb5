package subagent

import (
	"context"
	"fmt"
	"strings"
)

// SubAgent is one capability handler the supervisor can hand the turn to.
type SubAgent interface {
	// Name is the handoff target identifier, unique within the registry.
	Name() string
	// Purpose is the natural-language capability description the supervisor
	// routes by.
	Purpose() string
	// WithHistory reports whether the handoff passes the full message
	// history or only a task description.
	WithHistory() bool
	// Invoke runs the agent against the task and returns its final message.
	Invoke(ctx context.Context, task string) (string, error)
}

// Registry is the fixed named set of sub-agents, built once at startup.
type Registry struct {
	order  []string
	agents map[string]SubAgent
}

func NewRegistry(agents ...SubAgent) (*Registry, error) {
	r := &Registry{
		agents: make(map[string]SubAgent, len(agents)),
	}
	for _, a := range agents {
		if _, exists := r.agents[a.Name()]; exists {
			return nil, fmt.Errorf("duplicate sub-agent name: %s", a.Name())
		}
		r.agents[a.Name()] = a
		r.order = append(r.order, a.Name())
	}
	return r, nil
}

func (r *Registry) Get(name string) (SubAgent, bool) {
	a, ok := r.agents[name]
	return a, ok
}

// Describe renders the "name: purpose" list injected into the supervisor
// prompt.
func (r *Registry) Describe() string {
	var b strings.Builder
	for _, name := range r.order {
		fmt.Fprintf(&b, "- %s: %s\n", name, r.agents[name].Purpose())
	}
	return b.String()
}
