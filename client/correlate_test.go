package client

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serveHistory(fs *fakeServer, promptID string, entry HistoryEntry) {
	fs.mux.HandleFunc("/history/"+promptID, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(History{promptID: entry})
	})
}

func completedEntry() HistoryEntry {
	return HistoryEntry{
		Outputs: map[string]NodeOutput{
			"9": {Images: []ImageRef{{Filename: "out.png", Subfolder: "", Type: "output"}}},
		},
		Status: HistoryStatus{StatusStr: "success", Completed: true},
	}
}

func TestWaitForCompletion(t *testing.T) {
	fs := newFakeServer(t)
	serveHistory(fs, "abc123", completedEntry())
	c := newConnectedClient(t, fs)

	done := make(chan struct{})
	var entry *HistoryEntry
	var waitErr error
	go func() {
		defer close(done)
		entry, waitErr = c.WaitForCompletion(context.Background(), "abc123")
	}()

	// wait until the correlator has attached its listener
	require.Eventually(t, func() bool {
		return c.Transport().listenerCount(EventMessage) == 1
	}, time.Second, 10*time.Millisecond)

	// a still-running node must be ignored
	fs.sendText(`{"type":"executing","data":{"node":"5","prompt_id":"abc123"}}`)
	// completion of an unrelated prompt must be ignored
	fs.sendText(`{"type":"executing","data":{"node":null,"prompt_id":"other"}}`)
	// a binary frame mid-wait must not be parsed
	fs.sendBinary([]byte{0xde, 0xad})
	// unrelated event kinds must be ignored
	fs.sendText(`{"type":"status","data":{}}`)

	select {
	case <-done:
		t.Fatal("wait resolved before the completion signal")
	case <-time.After(100 * time.Millisecond):
	}

	fs.sendText(`{"type":"executing","data":{"node":null,"prompt_id":"abc123"}}`)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("wait did not resolve")
	}

	require.NoError(t, waitErr)
	require.NotNil(t, entry)
	assert.True(t, entry.Status.Completed)
	assert.Equal(t, "out.png", entry.Outputs["9"].Images[0].Filename)

	// the listener must be detached after resolution
	assert.Equal(t, 0, c.Transport().listenerCount(EventMessage))
}

func TestWaitForCompletionDecodeFailureDetaches(t *testing.T) {
	fs := newFakeServer(t)
	c := newConnectedClient(t, fs)

	done := make(chan error, 1)
	go func() {
		_, err := c.WaitForCompletion(context.Background(), "abc123")
		done <- err
	}()

	require.Eventually(t, func() bool {
		return c.Transport().listenerCount(EventMessage) == 1
	}, time.Second, 10*time.Millisecond)

	fs.sendText(`{not json`)

	select {
	case err := <-done:
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to decode")
	case <-time.After(time.Second):
		t.Fatal("wait did not fail on the malformed frame")
	}

	assert.Equal(t, 0, c.Transport().listenerCount(EventMessage))
}

func TestWaitForCompletionContextCancel(t *testing.T) {
	fs := newFakeServer(t)
	c := newConnectedClient(t, fs)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.WaitForCompletion(ctx, "abc123")
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 0, c.Transport().listenerCount(EventMessage))
}

func TestWaitForCompletionRequiresConnection(t *testing.T) {
	fs := newFakeServer(t)
	c := NewClient(fs.srv.URL)

	_, err := c.WaitForCompletion(context.Background(), "abc123")
	require.ErrorIs(t, err, ErrNotConnected)

	_, err = c.WaitForCompletion(context.Background(), "")
	require.ErrorIs(t, err, ErrEmptyPromptID)
}

func TestRun(t *testing.T) {
	fs := newFakeServer(t)
	serveHistory(fs, "abc123", completedEntry())
	fs.mux.HandleFunc("/prompt", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(QueueResponse{PromptID: "abc123", Number: 1})

		// emit the completion signal once the prompt is accepted
		conn := fs.lastConn()
		go func() {
			time.Sleep(50 * time.Millisecond)
			conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"executing","data":{"node":null,"prompt_id":"abc123"}}`))
		}()
	})

	c := newConnectedClient(t, fs)

	entry, err := c.Run(context.Background(), map[string]interface{}{"1": map[string]interface{}{}})
	require.NoError(t, err)
	assert.True(t, entry.Status.Completed)
}
