package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ayan4m1/comfy-ui-client/client"
	"github.com/ayan4m1/comfy-ui-client/internal/config"

	"github.com/sirupsen/logrus"
)

func main() {
	// Configure global logger
	config.ConfigureGlobalLogger()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	if len(os.Args) < 2 {
		logrus.Fatal("Usage: comfy-ui-client <workflow.json>")
	}

	// Read workflow graph
	data, err := os.ReadFile(os.Args[1])
	if err != nil {
		logrus.Fatalf("Failed to read workflow file: %v", err)
	}

	var workflow map[string]interface{}
	if err := json.Unmarshal(data, &workflow); err != nil {
		logrus.Fatalf("Failed to parse workflow file: %v", err)
	}

	// Create ComfyUI client
	opts := []client.Option{}
	if cfg.ClientID != "" {
		opts = append(opts, client.WithClientID(cfg.ClientID))
	}
	if cfg.Token != "" {
		opts = append(opts, client.WithBearerToken(cfg.Token))
	}

	c := client.NewClient(cfg.ServerURL, opts...)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.WaitTimeout)
	defer cancel()

	// Open the WebSocket connection before submitting so the completion
	// event cannot be missed
	if err := c.Connect(ctx); err != nil {
		logrus.Fatalf("Failed to connect to ComfyUI: %v", err)
	}
	defer c.Disconnect()

	logrus.WithFields(logrus.Fields{
		"server":    cfg.ServerURL,
		"client_id": c.ClientID(),
	}).Info("Connected to ComfyUI")

	// Submit workflow and wait for completion
	queued, err := c.QueuePrompt(ctx, workflow)
	if err != nil {
		logrus.Fatalf("Failed to queue prompt: %v", err)
	}

	logrus.WithField("prompt_id", queued.PromptID).Info("Prompt queued")

	entry, err := c.WaitForCompletion(ctx, queued.PromptID)
	if err != nil {
		logrus.Fatalf("Failed to wait for completion: %v", err)
	}

	// Collect and save output images
	images, err := c.CollectImages(ctx, entry)
	if err != nil {
		logrus.Fatalf("Failed to collect images: %v", err)
	}

	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		logrus.Fatalf("Failed to create output directory: %v", err)
	}

	count := 0
	for nodeID, containers := range images {
		for i, img := range containers {
			name := img.Ref.Filename
			if name == "" {
				name = fmt.Sprintf("%s-%s-%d.png", queued.PromptID, nodeID, i)
			}

			path := filepath.Join(cfg.OutputDir, name)
			if err := img.Save(path); err != nil {
				logrus.Fatalf("Failed to save image: %v", err)
			}

			logrus.WithFields(logrus.Fields{
				"node_id": nodeID,
				"path":    path,
			}).Info("Image saved")
			count++
		}
	}

	logrus.WithFields(logrus.Fields{
		"prompt_id": queued.PromptID,
		"images":    count,
	}).Info("Workflow finished")
}
