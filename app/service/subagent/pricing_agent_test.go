package subagent

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"neuroseven/app/service/pricing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedPricing(t *testing.T) *pricing.Service {
	t.Helper()

	dir := t.TempDir()
	db, err := sql.Open("sqlite3", filepath.Join(dir, "akvatoria.db"))
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`CREATE TABLE flats (
		rooms INTEGER, area REAL, price INTEGER, floor INTEGER, renovation TEXT
	)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO flats VALUES (2, 48.0, 7900000, 7, 'предчистовая')`)
	require.NoError(t, err)

	svc := pricing.NewAt(dir)
	t.Cleanup(func() { _ = svc.Shutdown() })

	return svc
}

func TestPricingAgentAnswersWithMatches(t *testing.T) {
	completer := &scriptedCompleter{script: []string{
		`{"rooms": 2}`,
		"В Акватории есть двушка 48 кв.м за 7.9 млн.",
	}}
	agent := NewPricingAgent("akvatoria", "Акватория", completer, seedPricing(t))

	assert.Equal(t, "akvatoria_flat_info_retriever", agent.Name())
	assert.False(t, agent.WithHistory())

	answer, err := agent.Invoke(context.Background(), "есть двушки?")
	require.NoError(t, err)
	assert.Contains(t, answer, "двушка")

	// the phrasing prompt carries the rows found
	require.Len(t, completer.prompts, 2)
	assert.Contains(t, completer.prompts[1], "7900000")
}

func TestPricingAgentNoMatches(t *testing.T) {
	completer := &scriptedCompleter{script: []string{`{"rooms": 5}`}}
	agent := NewPricingAgent("akvatoria", "Акватория", completer, seedPricing(t))

	answer, err := agent.Invoke(context.Background(), "есть пятикомнатные?")
	require.NoError(t, err)
	assert.Equal(t, "В Акватория нет квартир под такие условия.", answer)
}
