// Package client drives a remote ComfyUI instance over its REST API and
// companion WebSocket.
//
// A Client submits workflow graphs ("prompts"), correlates the completion
// event the server emits for each prompt, and retrieves the resulting
// artifacts:
//
//	c := client.NewClient("http://127.0.0.1:8188")
//	if err := c.Connect(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer c.Disconnect()
//
//	queued, err := c.QueuePrompt(ctx, workflow)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	entry, err := c.WaitForCompletion(ctx, queued.PromptID)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	images, err := c.CollectImages(ctx, entry)
//
// The client performs no retries and owns no reconnect policy; a failed
// call surfaces to its caller unchanged. WaitForCompletion honors context
// cancellation, which is also the only way to bound its latency when the
// server never reports completion.
package client
