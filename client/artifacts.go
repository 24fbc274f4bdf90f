package client

import (
	"context"
	"fmt"
	"os"
	"sort"
)

// CollectImages fetches every output image referenced by a completed job's
// history record and returns them keyed by output node id. Images are
// fetched one at a time in stable node order; the first failed fetch
// aborts the whole collection.
func (c *Client) CollectImages(ctx context.Context, entry *HistoryEntry) (map[string][]ImageContainer, error) {
	if entry == nil {
		return nil, fmt.Errorf("history entry is nil")
	}

	nodeIDs := make([]string, 0, len(entry.Outputs))
	for nodeID := range entry.Outputs {
		nodeIDs = append(nodeIDs, nodeID)
	}
	sort.Strings(nodeIDs)

	images := make(map[string][]ImageContainer)
	for _, nodeID := range nodeIDs {
		for _, ref := range entry.Outputs[nodeID].Images {
			data, err := c.GetImage(ctx, ref)
			if err != nil {
				return nil, fmt.Errorf("failed to collect image for node %s: %w", nodeID, err)
			}
			images[nodeID] = append(images[nodeID], ImageContainer{Ref: ref, Data: data})
		}
	}

	return images, nil
}

// Save writes the image bytes to the given path
func (ic ImageContainer) Save(path string) error {
	if err := os.WriteFile(path, ic.Data, 0o644); err != nil {
		return fmt.Errorf("failed to save image %s: %w", ic.Ref.Filename, err)
	}
	return nil
}
