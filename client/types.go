package client

import "encoding/json"

// QueueResponse ComfyUI response to a prompt submission
type QueueResponse struct {
	PromptID   string                 `json:"prompt_id"`
	Number     int                    `json:"number"`
	NodeErrors map[string]interface{} `json:"node_errors,omitempty"`
}

// PromptInfo current prompt/queue state returned by GET /prompt
type PromptInfo struct {
	ExecInfo struct {
		QueueRemaining int `json:"queue_remaining"`
	} `json:"exec_info"`
}

// QueueState queue contents returned by GET /queue
type QueueState struct {
	QueueRunning []json.RawMessage `json:"queue_running"`
	QueuePending []json.RawMessage `json:"queue_pending"`
}

// ExecutingEvent payload of a "executing" WebSocket message.
// A nil Node means the named prompt has finished all nodes.
type ExecutingEvent struct {
	Node     *string `json:"node"`
	PromptID string  `json:"prompt_id"`
}

// wsMessage envelope for WebSocket messages
type wsMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// ImageRef locates a stored image on the server
type ImageRef struct {
	Filename  string `json:"filename"`
	Subfolder string `json:"subfolder"`
	Type      string `json:"type"`
}

// ImageContainer a fetched image together with its server-side location
type ImageContainer struct {
	Ref  ImageRef
	Data []byte
}

// NodeOutput per-node output section of a history entry
type NodeOutput struct {
	Images []ImageRef `json:"images"`
}

// HistoryStatus execution status section of a history entry
type HistoryStatus struct {
	StatusStr string            `json:"status_str"`
	Completed bool              `json:"completed"`
	Messages  []json.RawMessage `json:"messages,omitempty"`
}

// HistoryEntry server-retained record of one job's outputs
type HistoryEntry struct {
	Prompt  []json.RawMessage     `json:"prompt,omitempty"`
	Outputs map[string]NodeOutput `json:"outputs"`
	Status  HistoryStatus         `json:"status"`
}

// History history records keyed by prompt id
type History map[string]HistoryEntry

// UploadResponse ComfyUI response to an image or mask upload
type UploadResponse struct {
	Name      string `json:"name"`
	Subfolder string `json:"subfolder"`
	Type      string `json:"type"`
}
