package subagent

import (
	"context"
	"encoding/json"
	"fmt"

	"neuroseven/app/service/kb"

	"github.com/tmc/langchaingo/tools"
)

type agentTool struct {
	name        string
	description string
	call        func(ctx context.Context, input string) (string, error)
}

func (t *agentTool) Name() string {
	return t.name
}

func (t *agentTool) Description() string {
	return t.description
}

func (t *agentTool) Call(ctx context.Context, input string) (string, error) {
	return t.call(ctx, input)
}

func createCatalogTools(kbSvc *kb.Service) []tools.Tool {
	return []tools.Tool{
		&agentTool{
			name: "get_list_of_complexes",
			description: "Возвращает список жилых комплексов (ЖК), доступных к продаже: " +
				"id, название, альтернативное название, район, срок сдачи, количество домов, уровень комфорта. " +
				"Вход не требуется.",
			call: func(ctx context.Context, input string) (string, error) {
				result, err := json.Marshal(kbSvc.ListComplexes())
				if err != nil {
					return "", fmt.Errorf("failed to marshal complexes: %w", err)
				}
				return string(result), nil
			},
		},
		&agentTool{
			name: "get_developer_info",
			description: "Возвращает информацию о застройщике: название, адрес, часы работы, сданные объекты. " +
				"ВАЖНО: этот инструмент не возвращает информацию о жилых комплексах. Вход не требуется.",
			call: func(ctx context.Context, input string) (string, error) {
				result, err := json.Marshal(kbSvc.DeveloperInfo())
				if err != nil {
					return "", fmt.Errorf("failed to marshal developer info: %w", err)
				}
				return string(result), nil
			},
		},
		&agentTool{
			name: "get_complex_info",
			description: "Возвращает расширенную информацию по определённому ЖК. " +
				`Вход: JSON вида {"complex_id": "vesna", "fields": ["general_info", "features"]}. ` +
				"Доступные поля: name, alternative_name, district, ready_date, number_of_houses, " +
				"comfort_level, general_info, features, financial_conditions, managers_info.",
			call: func(ctx context.Context, input string) (string, error) {
				var req struct {
					ComplexID string   `json:"complex_id"`
					Fields    []string `json:"fields"`
				}
				if err := json.Unmarshal([]byte(input), &req); err != nil {
					return "", fmt.Errorf("invalid request JSON: %w", err)
				}

				info, err := kbSvc.ComplexInfo(req.ComplexID, req.Fields)
				if err != nil {
					return "", err
				}

				result, err := json.Marshal(info)
				if err != nil {
					return "", fmt.Errorf("failed to marshal complex info: %w", err)
				}
				return string(result), nil
			},
		},
	}
}
