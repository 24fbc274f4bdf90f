package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
)

// UploadOptions options for image and mask uploads
type UploadOptions struct {
	// Subfolder below the server's input directory
	Subfolder string
	// Type storage area, e.g. "input" or "temp"; server default when empty
	Type string
	// Overwrite replaces an existing file with the same name
	Overwrite bool
}

// UploadImage uploads an image file to the server's input storage
func (c *Client) UploadImage(ctx context.Context, filename string, image []byte, opts UploadOptions) (*UploadResponse, error) {
	return c.upload(ctx, "/upload/image", filename, image, opts, nil)
}

// UploadMask uploads a mask for a previously uploaded image. The original
// image reference is sent alongside the mask so the server can pair them.
func (c *Client) UploadMask(ctx context.Context, filename string, mask []byte, original ImageRef, opts UploadOptions) (*UploadResponse, error) {
	return c.upload(ctx, "/upload/mask", filename, mask, opts, &original)
}

// upload encodes a multipart form with the file and optional fields
func (c *Client) upload(ctx context.Context, path, filename string, data []byte, opts UploadOptions, original *ImageRef) (*UploadResponse, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("image", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("failed to write image data: %w", err)
	}

	if opts.Subfolder != "" {
		if err := writer.WriteField("subfolder", opts.Subfolder); err != nil {
			return nil, fmt.Errorf("failed to write subfolder field: %w", err)
		}
	}
	if opts.Type != "" {
		if err := writer.WriteField("type", opts.Type); err != nil {
			return nil, fmt.Errorf("failed to write type field: %w", err)
		}
	}
	if err := writer.WriteField("overwrite", strconv.FormatBool(opts.Overwrite)); err != nil {
		return nil, fmt.Errorf("failed to write overwrite field: %w", err)
	}

	if original != nil {
		refJSON, err := json.Marshal(original)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal original image reference: %w", err)
		}
		if err := writer.WriteField("original_ref", string(refJSON)); err != nil {
			return nil, fmt.Errorf("failed to write original_ref field: %w", err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize multipart form: %w", err)
	}

	respData, err := c.do(ctx, http.MethodPost, c.buildURL(path, nil), &buf, writer.FormDataContentType())
	if err != nil {
		return nil, fmt.Errorf("failed to upload %s: %w", filename, err)
	}

	var out UploadResponse
	if err := json.Unmarshal(respData, &out); err != nil {
		return nil, fmt.Errorf("failed to decode upload response: %w", err)
	}

	c.logger.WithField("filename", out.Name).Debug("File uploaded")
	return &out, nil
}
