package supervisor

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"neuroseven/app/service/kb"
	"neuroseven/app/service/subagent"
	"neuroseven/app/service/thread"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedCompleter struct {
	response string
	fail     bool
}

func (s scriptedCompleter) Complete(_ context.Context, _ string) (string, error) {
	if s.fail {
		return "", errors.New("model unavailable")
	}
	return s.response, nil
}

func (s scriptedCompleter) CompleteJSON(_ context.Context, _ string, out any) error {
	if s.fail {
		return errors.New("model unavailable")
	}
	return json.Unmarshal([]byte(s.response), out)
}

type stubAgent struct {
	name        string
	withHistory bool
}

func (a stubAgent) Name() string    { return a.name }
func (a stubAgent) Purpose() string { return "тестовый агент" }
func (a stubAgent) WithHistory() bool {
	return a.withHistory
}
func (a stubAgent) Invoke(_ context.Context, task string) (string, error) {
	return "done: " + task, nil
}

func testKB(t *testing.T) *kb.Service {
	t.Helper()

	path := filepath.Join(t.TempDir(), "catalog.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"complexes": [{"id": "akvatoria", "name": "Акватория"}],
		"developer": {"name": "Семь небес"}
	}`), 0644))

	svc, err := kb.NewFromFile(path)
	require.NoError(t, err)

	return svc
}

func newSupervisor(t *testing.T, completer scriptedCompleter, agents ...subagent.SubAgent) *Service {
	t.Helper()

	registry, err := subagent.NewRegistry(agents...)
	require.NoError(t, err)

	return New(completer, registry, testKB(t))
}

func TestRouteHandoff(t *testing.T) {
	sup := newSupervisor(t,
		scriptedCompleter{response: `{"handoff": "kb_agent", "task": "расскажи про Акваторию"}`},
		stubAgent{name: "kb_agent"})

	conv := &thread.Conversation{ThreadID: "t1"}
	conv.Append(thread.TextMessage(thread.RoleUser, "что за Акватория?"))

	decision, err := sup.Route(context.Background(), conv)
	require.NoError(t, err)
	assert.Equal(t, "kb_agent", decision.Handoff)
	assert.Equal(t, "расскажи про Акваторию", decision.Task)
}

func TestRouteUnknownAgentDegradesToReply(t *testing.T) {
	sup := newSupervisor(t,
		scriptedCompleter{response: `{"handoff": "ghost_agent", "task": "x", "reply": "Отвечу сама."}`},
		stubAgent{name: "kb_agent"})

	decision, err := sup.Route(context.Background(), &thread.Conversation{ThreadID: "t1"})
	require.NoError(t, err)
	assert.Empty(t, decision.Handoff)
	assert.Equal(t, "Отвечу сама.", decision.Reply)
}

func TestRouteModelFailureFallsBack(t *testing.T) {
	sup := newSupervisor(t, scriptedCompleter{fail: true}, stubAgent{name: "kb_agent"})

	decision, err := sup.Route(context.Background(), &thread.Conversation{ThreadID: "t1"})
	require.NoError(t, err)
	assert.Empty(t, decision.Handoff)
	assert.NotEmpty(t, decision.Reply)
}

func TestRouteEmptyDecisionFallsBack(t *testing.T) {
	sup := newSupervisor(t, scriptedCompleter{response: `{}`}, stubAgent{name: "kb_agent"})

	decision, err := sup.Route(context.Background(), &thread.Conversation{ThreadID: "t1"})
	require.NoError(t, err)
	assert.NotEmpty(t, decision.Reply)
}

func TestTaskForHistoryPolicy(t *testing.T) {
	sup := newSupervisor(t, scriptedCompleter{},
		stubAgent{name: "plain"},
		stubAgent{name: "chatty", withHistory: true})

	conv := &thread.Conversation{ThreadID: "t1"}
	conv.Append(thread.TextMessage(thread.RoleUser, "хочу двушку"))

	plain := sup.TaskFor(stubAgent{name: "plain"}, conv, "подбери квартиру")
	assert.Equal(t, "подбери квартиру", plain)

	chatty := sup.TaskFor(stubAgent{name: "chatty", withHistory: true}, conv, "подбери квартиру")
	assert.Contains(t, chatty, "хочу двушку")
	assert.Contains(t, chatty, "подбери квартиру")
}

func TestDuplicateAgentRejected(t *testing.T) {
	_, err := subagent.NewRegistry(stubAgent{name: "a"}, stubAgent{name: "a"})
	assert.Error(t, err)
}
