package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUploadImage(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/upload/image", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, r.ParseMultipartForm(1<<20))

		assert.Equal(t, "true", r.FormValue("overwrite"))
		assert.Equal(t, "sub", r.FormValue("subfolder"))

		file, header, err := r.FormFile("image")
		require.NoError(t, err)
		defer file.Close()

		data, err := io.ReadAll(file)
		require.NoError(t, err)
		assert.Equal(t, []byte("fake png"), data)

		json.NewEncoder(w).Encode(UploadResponse{Name: header.Filename, Subfolder: "sub", Type: "input"})
	})

	c := newRESTClient(t, mux)

	resp, err := c.UploadImage(context.Background(), "input.png", []byte("fake png"), UploadOptions{
		Subfolder: "sub",
		Overwrite: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "input.png", resp.Name)
	assert.Equal(t, "input", resp.Type)
}

func TestUploadMaskCarriesOriginalRef(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/upload/mask", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))

		var ref ImageRef
		require.NoError(t, json.Unmarshal([]byte(r.FormValue("original_ref")), &ref))
		assert.Equal(t, "input.png", ref.Filename)
		assert.Equal(t, "input", ref.Type)

		json.NewEncoder(w).Encode(UploadResponse{Name: "mask.png", Type: "input"})
	})

	c := newRESTClient(t, mux)

	resp, err := c.UploadMask(context.Background(), "mask.png", []byte("mask data"), ImageRef{
		Filename: "input.png",
		Type:     "input",
	}, UploadOptions{})
	require.NoError(t, err)
	assert.Equal(t, "mask.png", resp.Name)
}

// TestUploadViewRoundTrip uploads an image and fetches it back through the
// view endpoint of a stub server, asserting byte-identical content.
func TestUploadViewRoundTrip(t *testing.T) {
	var mu sync.Mutex
	stored := map[string][]byte{}

	mux := http.NewServeMux()
	mux.HandleFunc("/upload/image", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))

		file, header, err := r.FormFile("image")
		require.NoError(t, err)
		defer file.Close()

		data, err := io.ReadAll(file)
		require.NoError(t, err)

		mu.Lock()
		stored[header.Filename] = data
		mu.Unlock()

		json.NewEncoder(w).Encode(UploadResponse{Name: header.Filename, Type: "input"})
	})
	mux.HandleFunc("/view", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		data, ok := stored[r.URL.Query().Get("filename")]
		mu.Unlock()
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Write(data)
	})

	c := newRESTClient(t, mux)

	payload := []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x01}
	uploaded, err := c.UploadImage(context.Background(), "round.png", payload, UploadOptions{})
	require.NoError(t, err)

	fetched, err := c.GetImage(context.Background(), ImageRef{
		Filename: uploaded.Name,
		Type:     uploaded.Type,
	})
	require.NoError(t, err)
	assert.Equal(t, payload, fetched)
}
