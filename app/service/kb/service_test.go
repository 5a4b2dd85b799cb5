package kb

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCatalog = `{
  "complexes": [
    {
      "id": "akvatoria",
      "name": "Акватория",
      "alternative_name": "ЖК на Калинина",
      "district": "Чуркин",
      "ready_date": "2027",
      "number_of_houses": 3,
      "comfort_level": "комфорт",
      "general_info": "Три монолитных дома у моря.",
      "features": "Закрытый двор, кладовые.",
      "financial_conditions": "Ипотека от 6%.",
      "managers_info": "Показы ежедневно."
    },
    {
      "id": "format",
      "name": "Формат",
      "district": "Вторая речка",
      "ready_date": "2026",
      "number_of_houses": 2,
      "comfort_level": "бизнес"
    }
  ],
  "developer": {
    "name": "Семь небес",
    "address": "Владивосток, Светланская 1",
    "working_hours": "10:00-19:00",
    "completed_complexes": ["Маяк"]
  }
}`

func testService(t *testing.T) *Service {
	t.Helper()

	path := filepath.Join(t.TempDir(), "catalog.json")
	require.NoError(t, os.WriteFile(path, []byte(testCatalog), 0644))

	svc, err := NewFromFile(path)
	require.NoError(t, err)

	return svc
}

func TestListComplexesStripsLongFields(t *testing.T) {
	svc := testService(t)

	list := svc.ListComplexes()
	require.Len(t, list, 2)

	assert.Equal(t, "akvatoria", list[0].ID)
	assert.Equal(t, "Акватория", list[0].Name)
	assert.Empty(t, list[0].GeneralInfo)
	assert.Empty(t, list[0].Features)
	assert.Empty(t, list[0].FinancialConditions)
	assert.Empty(t, list[0].ManagersInfo)
}

func TestComplexInfo(t *testing.T) {
	svc := testService(t)

	info, err := svc.ComplexInfo("akvatoria", []string{"general_info", "district"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"general_info": "Три монолитных дома у моря.",
		"district":     "Чуркин",
	}, info)

	// id lookup tolerates case and whitespace
	_, err = svc.ComplexInfo("  Akvatoria ", nil)
	require.NoError(t, err)

	_, err = svc.ComplexInfo("nope", nil)
	assert.Error(t, err)

	// no fields means everything
	all, err := svc.ComplexInfo("format", nil)
	require.NoError(t, err)
	assert.Equal(t, "Формат", all["name"])
	assert.Len(t, all, 10)
}

func TestDeveloperAndIDs(t *testing.T) {
	svc := testService(t)

	assert.Equal(t, "Семь небес", svc.DeveloperInfo().Name)
	assert.Equal(t, []string{"akvatoria", "format"}, svc.ComplexIDs())
}

func TestCatalogSummaryMentionsEveryComplex(t *testing.T) {
	svc := testService(t)

	summary := svc.CatalogSummary()
	assert.Contains(t, summary, "akvatoria")
	assert.Contains(t, summary, "format")
	assert.Contains(t, summary, "Чуркин")
}

func TestEmptyCatalogRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"complexes": []}`), 0644))

	_, err := NewFromFile(path)
	assert.Error(t, err)
}
