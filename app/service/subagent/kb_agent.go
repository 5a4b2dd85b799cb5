package subagent

import (
	"context"

	"neuroseven/app/service/kb"
	"neuroseven/app/service/llm"

	"github.com/tmc/langchaingo/tools"
)

const kbInstructions = "Вы — агент, отвечающий на вопросы о жилых комплексах, застройщике, " +
	"инфраструктуре и финансовых условиях (ипотека, скидки и т. д.). " +
	"Не отвечайте на вопросы о ценах и параметрах конкретных квартир."

// KBAgent answers catalog questions: complexes on sale, the developer,
// facilities, financial conditions.
type KBAgent struct {
	completer llm.Completer
	toolset   []tools.Tool
}

func NewKBAgent(completer llm.Completer, kbSvc *kb.Service, retriever *kb.Retriever) *KBAgent {
	toolset := createCatalogTools(kbSvc)
	if retriever != nil {
		toolset = append(toolset, retriever)
	}

	return &KBAgent{
		completer: completer,
		toolset:   toolset,
	}
}

func (a *KBAgent) Name() string {
	return "kb_agent"
}

func (a *KBAgent) Purpose() string {
	return "получать и давать информацию о жилых комплексах, застройщиках, " +
		"инфраструктуре, финансовых условиях (ипотека, скидки и т. д.)"
}

func (a *KBAgent) WithHistory() bool {
	return false
}

func (a *KBAgent) Invoke(ctx context.Context, task string) (string, error) {
	return runToolLoop(ctx, a.completer, kbInstructions, task, a.toolset)
}
