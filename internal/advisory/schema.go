package advisory

import "github.com/mindharmony/mindharmony/internal/llm"

// AnalysisSchema is the structured-output schema requested from the LLM.
var AnalysisSchema = &llm.Schema{
	Name:        "advisory-analysis",
	Description: "A supportive, non-clinical summary of screening scores with coping strategies",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"summary": map[string]any{
				"type":        "string",
				"description": "一段 2-3 句的富有同理心的中文总结。",
			},
			"copingStrategies": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"minItems":    StrategyCount,
				"maxItems":    StrategyCount,
				"description": "3条具体的、可执行的中文应对策略列表。",
			},
			"isCrisis": map[string]any{
				"type":        "boolean",
				"description": "如果分数显示严重困扰需要立即关注，则为 true。",
			},
		},
		"required":             []any{"summary", "copingStrategies", "isCrisis"},
		"additionalProperties": false,
	},
}
