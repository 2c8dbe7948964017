package agent

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/daykeeper-io/daykeeper/internal/provider"
	"github.com/daykeeper-io/daykeeper/internal/tool"
	"github.com/daykeeper-io/daykeeper/pkg/protocol"
)

const (
	defaultMaxIterations = 15
	defaultMaxRetries    = 3
	retryBackoff         = 500 * time.Millisecond
)

// Loop runs one logical completion invocation to termination: send the
// messages, execute any requested tool calls, feed the results back, and
// repeat until the model stops requesting tools or the iteration limit is
// reached. Tool failures are folded into tool results so the model can
// recover; provider failures are retried up to MaxRetries and then fatal.
type Loop struct {
	Provider      provider.Provider
	Tools         *tool.Registry
	Logger        *slog.Logger
	Temperature   float64
	MaxIterations int
	MaxRetries    int
}

func (l *Loop) logger() *slog.Logger {
	if l.Logger != nil {
		return l.Logger
	}
	return slog.Default()
}

// Run executes the loop and returns the final free text plus the ordered
// record of tool invocations, paired to their calls by call ID.
func (l *Loop) Run(ctx context.Context, messages []protocol.ChatMessage) (string, []protocol.ToolInvocation, error) {
	maxIter := l.MaxIterations
	if maxIter <= 0 {
		maxIter = defaultMaxIterations
	}

	toolDefs := l.Tools.Definitions()
	var invocations []protocol.ToolInvocation

	for i := 0; i < maxIter; i++ {
		if err := ctx.Err(); err != nil {
			return "", invocations, fmt.Errorf("loop: context cancelled: %w", err)
		}

		resp, err := l.chatWithRetry(ctx, protocol.ChatRequest{
			Messages:    messages,
			Tools:       toolDefs,
			Temperature: l.Temperature,
		})
		if err != nil {
			return "", invocations, err
		}

		if !resp.HasToolCalls() {
			return resp.Content, invocations, nil
		}

		messages = append(messages, protocol.ChatMessage{
			Role:      "assistant",
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
		})

		// Execute each requested call in order; results are paired back to
		// the model by call ID.
		for _, tc := range resp.ToolCalls {
			result, err := l.Tools.Execute(ctx, tc.Name, tc.Arguments)
			failed := err != nil
			if failed {
				// The failure goes back as a tool result so the model can
				// recover; it never aborts the loop.
				result = fmt.Sprintf("Error: %v", err)
				l.logger().Warn(fmt.Sprintf("tool error: %s", tc.Name), "call_id", tc.ID, "error", err)
			} else {
				l.logger().Info(fmt.Sprintf("tool result: %s", tc.Name), "call_id", tc.ID, "result_len", len(result))
			}

			invocations = append(invocations, protocol.ToolInvocation{
				CallID: tc.ID,
				Name:   tc.Name,
				Result: result,
				Failed: failed,
			})

			messages = append(messages, protocol.ChatMessage{
				Role:       "tool",
				Content:    result,
				ToolCallID: tc.ID,
				Name:       tc.Name,
			})
		}
	}

	return "", invocations, fmt.Errorf("loop: exceeded max iterations (%d)", maxIter)
}

// chatWithRetry calls the provider, retrying transient failures with a
// short linear backoff.
func (l *Loop) chatWithRetry(ctx context.Context, req protocol.ChatRequest) (*protocol.ChatResponse, error) {
	maxRetries := l.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		resp, err := l.Provider.Chat(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		l.logger().Warn("provider call failed", "attempt", attempt, "error", err)

		if attempt < maxRetries {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt) * retryBackoff):
			}
		}
	}
	return nil, &CompletionServiceError{Attempts: maxRetries, Err: lastErr}
}
