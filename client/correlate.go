package client

import (
	"context"
	"encoding/json"
	"fmt"
)

const executingEventType = "executing"

// WaitForCompletion blocks until the server signals that the given prompt
// has finished all nodes, then returns its history record.
//
// Completion is signaled by an "executing" WebSocket message whose node
// field is empty and whose prompt id matches. Messages for other prompts,
// or ones that still name a running node, are ignored. The message listener
// is detached on every exit path, including decode failures and context
// cancellation; the server emits no completion signal for unknown prompt
// ids, so callers wanting bounded latency should pass a context with a
// deadline.
func (c *Client) WaitForCompletion(ctx context.Context, promptID string) (*HistoryEntry, error) {
	if promptID == "" {
		return nil, ErrEmptyPromptID
	}
	if !c.transport.IsConnected() {
		return nil, ErrNotConnected
	}

	msgs := make(chan []byte, 64)
	id := c.transport.On(EventMessage, func(ev Event) {
		if ev.Binary {
			return
		}
		select {
		case msgs <- ev.Data:
		default:
			c.logger.Warn("Completion wait buffer full, dropping message")
		}
	})
	defer c.transport.Off(EventMessage, id)

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case data := <-msgs:
			var msg wsMessage
			if err := json.Unmarshal(data, &msg); err != nil {
				return nil, fmt.Errorf("failed to decode websocket message: %w", err)
			}

			if msg.Type != executingEventType {
				continue
			}

			var exec ExecutingEvent
			if err := json.Unmarshal(msg.Data, &exec); err != nil {
				return nil, fmt.Errorf("failed to decode executing event: %w", err)
			}

			// a named node means the prompt is still running
			if exec.Node != nil && *exec.Node != "" {
				continue
			}
			if exec.PromptID != promptID {
				continue
			}

			c.logger.WithField("prompt_id", promptID).Debug("Prompt completed")
			return c.GetHistoryEntry(ctx, promptID)
		}
	}
}

// Run submits a workflow and waits for its completion
func (c *Client) Run(ctx context.Context, prompt map[string]interface{}) (*HistoryEntry, error) {
	queued, err := c.QueuePrompt(ctx, prompt)
	if err != nil {
		return nil, err
	}
	return c.WaitForCompletion(ctx, queued.PromptID)
}
