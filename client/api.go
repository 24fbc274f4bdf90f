package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// GetEmbeddings lists available embeddings
func (c *Client) GetEmbeddings(ctx context.Context) ([]string, error) {
	var out []string
	if err := c.doJSON(ctx, http.MethodGet, c.buildURL("/embeddings", nil), nil, &out); err != nil {
		return nil, fmt.Errorf("failed to get embeddings: %w", err)
	}
	return out, nil
}

// GetExtensions lists available extensions
func (c *Client) GetExtensions(ctx context.Context) ([]string, error) {
	var out []string
	if err := c.doJSON(ctx, http.MethodGet, c.buildURL("/extensions", nil), nil, &out); err != nil {
		return nil, fmt.Errorf("failed to get extensions: %w", err)
	}
	return out, nil
}

// QueuePrompt submits a workflow graph for execution. The server assigns
// and returns the prompt id used to correlate later events and history.
// Optional CallOptions override the request target.
func (c *Client) QueuePrompt(ctx context.Context, prompt map[string]interface{}, opts ...CallOptions) (*QueueResponse, error) {
	method, path := resolveCall(http.MethodPost, "/prompt", opts)

	body := map[string]interface{}{
		"prompt":    prompt,
		"client_id": c.clientID,
	}

	var out QueueResponse
	if err := c.doJSON(ctx, method, c.buildURL(path, nil), body, &out); err != nil {
		return nil, fmt.Errorf("failed to queue prompt: %w", err)
	}

	c.logger.WithField("prompt_id", out.PromptID).Debug("Prompt queued")
	return &out, nil
}

// GetPromptInfo inspects the current prompt/queue state
func (c *Client) GetPromptInfo(ctx context.Context) (*PromptInfo, error) {
	var out PromptInfo
	if err := c.doJSON(ctx, http.MethodGet, c.buildURL("/prompt", nil), nil, &out); err != nil {
		return nil, fmt.Errorf("failed to get prompt info: %w", err)
	}
	return &out, nil
}

// Interrupt cancels the currently executing prompt
func (c *Client) Interrupt(ctx context.Context) error {
	if err := c.doJSON(ctx, http.MethodPost, c.buildURL("/interrupt", nil), nil, nil); err != nil {
		return fmt.Errorf("failed to interrupt execution: %w", err)
	}
	return nil
}

// GetHistory fetches history records for all retained jobs
func (c *Client) GetHistory(ctx context.Context) (History, error) {
	var out History
	if err := c.doJSON(ctx, http.MethodGet, c.buildURL("/history", nil), nil, &out); err != nil {
		return nil, fmt.Errorf("failed to get history: %w", err)
	}
	return out, nil
}

// GetHistoryEntry fetches the history record for a single prompt id
func (c *Client) GetHistoryEntry(ctx context.Context, promptID string) (*HistoryEntry, error) {
	if promptID == "" {
		return nil, ErrEmptyPromptID
	}

	var out History
	if err := c.doJSON(ctx, http.MethodGet, c.buildURL("/history/"+url.PathEscape(promptID), nil), nil, &out); err != nil {
		return nil, fmt.Errorf("failed to get history for prompt %s: %w", promptID, err)
	}

	entry, ok := out[promptID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrHistoryMissing, promptID)
	}
	return &entry, nil
}

// DeleteHistory prunes the given prompt ids from server history
func (c *Client) DeleteHistory(ctx context.Context, promptIDs ...string) error {
	body := map[string]interface{}{"delete": promptIDs}
	if err := c.doJSON(ctx, http.MethodPost, c.buildURL("/history", nil), body, nil); err != nil {
		return fmt.Errorf("failed to delete history entries: %w", err)
	}
	return nil
}

// ClearHistory removes all retained history records
func (c *Client) ClearHistory(ctx context.Context) error {
	body := map[string]interface{}{"clear": true}
	if err := c.doJSON(ctx, http.MethodPost, c.buildURL("/history", nil), body, nil); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	return nil
}

// GetQueue inspects the running and pending queue entries
func (c *Client) GetQueue(ctx context.Context) (*QueueState, error) {
	var out QueueState
	if err := c.doJSON(ctx, http.MethodGet, c.buildURL("/queue", nil), nil, &out); err != nil {
		return nil, fmt.Errorf("failed to get queue: %w", err)
	}
	return &out, nil
}

// DeleteQueueEntries removes the given prompt ids from the pending queue
func (c *Client) DeleteQueueEntries(ctx context.Context, promptIDs ...string) error {
	body := map[string]interface{}{"delete": promptIDs}
	if err := c.doJSON(ctx, http.MethodPost, c.buildURL("/queue", nil), body, nil); err != nil {
		return fmt.Errorf("failed to delete queue entries: %w", err)
	}
	return nil
}

// ClearQueue removes all pending queue entries
func (c *Client) ClearQueue(ctx context.Context) error {
	body := map[string]interface{}{"clear": true}
	if err := c.doJSON(ctx, http.MethodPost, c.buildURL("/queue", nil), body, nil); err != nil {
		return fmt.Errorf("failed to clear queue: %w", err)
	}
	return nil
}

// GetImage fetches the raw bytes of a stored image
func (c *Client) GetImage(ctx context.Context, ref ImageRef) ([]byte, error) {
	query := url.Values{
		"filename":  {ref.Filename},
		"subfolder": {ref.Subfolder},
		"type":      {ref.Type},
	}

	data, err := c.do(ctx, http.MethodGet, c.buildURL("/view", query), nil, "")
	if err != nil {
		return nil, fmt.Errorf("failed to get image %s: %w", ref.Filename, err)
	}
	return data, nil
}

// ViewMetadata fetches metadata for a stored model file, e.g. folder
// "checkpoints" and a safetensors filename.
func (c *Client) ViewMetadata(ctx context.Context, folder, filename string) (map[string]json.RawMessage, error) {
	query := url.Values{"filename": {filename}}

	var out map[string]json.RawMessage
	u := c.buildURL("/view_metadata/"+url.PathEscape(folder), query)
	if err := c.doJSON(ctx, http.MethodGet, u, nil, &out); err != nil {
		return nil, fmt.Errorf("failed to get metadata for %s/%s: %w", folder, filename, err)
	}
	return out, nil
}

// GetSystemStats fetches server and hardware statistics
func (c *Client) GetSystemStats(ctx context.Context) (map[string]interface{}, error) {
	var out map[string]interface{}
	if err := c.doJSON(ctx, http.MethodGet, c.buildURL("/system_stats", nil), nil, &out); err != nil {
		return nil, fmt.Errorf("failed to get system stats: %w", err)
	}
	return out, nil
}

// GetObjectInfo fetches the node-type schema for all node classes
func (c *Client) GetObjectInfo(ctx context.Context) (map[string]json.RawMessage, error) {
	var out map[string]json.RawMessage
	if err := c.doJSON(ctx, http.MethodGet, c.buildURL("/object_info", nil), nil, &out); err != nil {
		return nil, fmt.Errorf("failed to get object info: %w", err)
	}
	return out, nil
}

// GetObjectInfoForClass fetches the node-type schema for a single node class
func (c *Client) GetObjectInfoForClass(ctx context.Context, class string) (map[string]json.RawMessage, error) {
	var out map[string]json.RawMessage
	u := c.buildURL("/object_info/"+url.PathEscape(class), nil)
	if err := c.doJSON(ctx, http.MethodGet, u, nil, &out); err != nil {
		return nil, fmt.Errorf("failed to get object info for class %s: %w", class, err)
	}
	return out, nil
}

// Call performs an arbitrary JSON request against the server using explicit
// CallOptions. Escape hatch for endpoints not wrapped above.
func (c *Client) Call(ctx context.Context, opts CallOptions, reqBody interface{}, out interface{}) error {
	method, path := resolveCall(http.MethodGet, "/", []CallOptions{opts})
	return c.doJSON(ctx, method, c.buildURL(path, nil), reqBody, out)
}

// resolveCall applies optional CallOptions overrides to an operation's defaults
func resolveCall(method, path string, opts []CallOptions) (string, string) {
	for _, opt := range opts {
		if opt.Method != "" {
			method = opt.Method
		}
		if opt.Path != "" {
			path = opt.Path
		}
	}
	return method, path
}
