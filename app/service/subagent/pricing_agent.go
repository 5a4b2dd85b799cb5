package subagent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"neuroseven/app/service/llm"
	"neuroseven/app/service/pricing"

	_ "embed"
)

//go:embed pricing_extract_prompt.txt
var pricingExtractPrompt string

//go:embed pricing_answer_prompt.txt
var pricingAnswerPrompt string

// PricingAgent serves flat lookups for one residential complex: the model
// extracts structured filters from the task, the pricing store runs the
// query, the model phrases the result.
type PricingAgent struct {
	complexID   string
	displayName string
	completer   llm.Completer
	pricingSvc  *pricing.Service
}

func NewPricingAgent(complexID, displayName string, completer llm.Completer, pricingSvc *pricing.Service) *PricingAgent {
	return &PricingAgent{
		complexID:   complexID,
		displayName: displayName,
		completer:   completer,
		pricingSvc:  pricingSvc,
	}
}

func (a *PricingAgent) Name() string {
	return a.complexID + "_flat_info_retriever"
}

func (a *PricingAgent) Purpose() string {
	return fmt.Sprintf("дать информацию по квартирам %s", a.displayName)
}

func (a *PricingAgent) WithHistory() bool {
	return false
}

func (a *PricingAgent) Invoke(ctx context.Context, task string) (string, error) {
	prompt := strings.ReplaceAll(pricingExtractPrompt, "{task}", task)

	var filters pricing.Filters
	if err := a.completer.CompleteJSON(ctx, prompt, &filters); err != nil {
		return "", fmt.Errorf("failed to extract flat filters: %w", err)
	}

	flats, err := a.pricingSvc.Query(a.complexID, filters)
	if err != nil {
		return "", fmt.Errorf("failed to query flats: %w", err)
	}

	if len(flats) == 0 {
		return fmt.Sprintf("В %s нет квартир под такие условия.", a.displayName), nil
	}

	flatsJSON, err := json.Marshal(flats)
	if err != nil {
		return "", fmt.Errorf("failed to marshal flats: %w", err)
	}

	answerPrompt := pricingAnswerPrompt
	answerPrompt = strings.ReplaceAll(answerPrompt, "{task}", task)
	answerPrompt = strings.ReplaceAll(answerPrompt, "{complex}", a.displayName)
	answerPrompt = strings.ReplaceAll(answerPrompt, "{flats}", string(flatsJSON))

	answer, err := a.completer.Complete(ctx, answerPrompt)
	if err != nil {
		return "", fmt.Errorf("failed to phrase flats answer: %w", err)
	}

	return answer, nil
}
