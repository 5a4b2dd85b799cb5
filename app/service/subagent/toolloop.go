package subagent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"neuroseven/app/service/llm"

	_ "embed"

	"github.com/tmc/langchaingo/tools"
)

//go:embed react_prompt_template.txt
var reactPromptTemplate string

const (
	maxToolIterations = 4

	// Sent instead of an answer when the loop runs out of iterations, so the
	// conversation keeps moving instead of spinning on the model.
	nudgeReply = "Подскажите, пожалуйста, точнее, что вас интересует — я уточню информацию."
)

type reactStep struct {
	Tool   string `json:"tool,omitempty"`
	Input  string `json:"input,omitempty"`
	Answer string `json:"answer,omitempty"`
}

// runToolLoop drives a bounded observe-act loop: the model either picks a
// tool or produces the final answer. The iteration cap guards against models
// that never converge.
func runToolLoop(ctx context.Context, completer llm.Completer, instructions, task string, toolset []tools.Tool) (string, error) {
	var toolList strings.Builder
	for _, t := range toolset {
		fmt.Fprintf(&toolList, "- %s: %s\n", t.Name(), t.Description())
	}

	var observations strings.Builder

	for i := 0; i < maxToolIterations; i++ {
		templateValues := map[string]any{
			"instructions": instructions,
			"task":         task,
			"tools":        toolList.String(),
			"observations": observations.String(),
		}

		prompt := reactPromptTemplate
		for key, value := range templateValues {
			prompt = strings.ReplaceAll(prompt, "{"+key+"}", fmt.Sprint(value))
		}

		var step reactStep
		if err := completer.CompleteJSON(ctx, prompt, &step); err != nil {
			return "", fmt.Errorf("tool loop completion failed: %w", err)
		}

		if step.Answer != "" {
			return strings.TrimSpace(step.Answer), nil
		}
		if step.Tool == "" {
			break
		}

		observations.WriteString(runTool(ctx, toolset, step.Tool, step.Input))
		observations.WriteString("\n")
	}

	slog.Warn("Tool loop gave no answer, nudging the user", "task", task)
	return nudgeReply, nil
}

func runTool(ctx context.Context, toolset []tools.Tool, name, input string) string {
	for _, t := range toolset {
		if t.Name() != name {
			continue
		}

		logHandler.HandleToolStart(ctx, input)
		output, err := t.Call(ctx, input)
		if err != nil {
			logHandler.HandleToolError(ctx, err)
			return fmt.Sprintf("%s: ошибка инструмента: %v", name, err)
		}
		logHandler.HandleToolEnd(ctx, output)

		return fmt.Sprintf("%s(%s) => %s", name, input, output)
	}
	return fmt.Sprintf("неизвестный инструмент: %s", name)
}
