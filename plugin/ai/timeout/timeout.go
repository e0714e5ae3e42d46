// Package timeout defines centralized timeout constants for AI operations.
// Package timeout 定义 AI 操作的集中式超时常量。
package timeout

import "time"

// AI operation timeout constants.
// AI 操作超时常量。
const (
	// GenerationTimeout bounds a single call to the generation service.
	// GenerationTimeout 是单次生成服务调用的超时时间。
	GenerationTimeout = 30 * time.Second

	// ClassificationTimeout bounds LLM intent classification.
	// ClassificationTimeout 是 LLM 意图分类的超时时间。
	ClassificationTimeout = 15 * time.Second

	// DecompositionTimeout bounds LLM workflow decomposition.
	// DecompositionTimeout 是 LLM 工作流拆解的超时时间。
	DecompositionTimeout = 20 * time.Second

	// PipelineTimeout bounds one pipeline run started by the HTTP surface or CLI.
	// PipelineTimeout 是一次流水线运行的超时时间。
	PipelineTimeout = 2 * time.Minute

	// CompletionResetDelay is how long the complete phase stays visible before returning to idle.
	// CompletionResetDelay 是完成状态重置为空闲前的停留时间。
	CompletionResetDelay = 2 * time.Second

	// RecordTimeout bounds persisting a run record.
	RecordTimeout = 5 * time.Second

	// MaxTruncateLength is the maximum length for truncating strings in logs.
	// MaxTruncateLength 是日志中字符串截断的最大长度。
	MaxTruncateLength = 200
)

// Truncate shortens s to MaxTruncateLength runes for logging.
func Truncate(s string) string {
	r := []rune(s)
	if len(r) <= MaxTruncateLength {
		return s
	}
	return string(r[:MaxTruncateLength]) + "..."
}
