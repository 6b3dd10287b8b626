package gemini

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newVisionTestServer() *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/logo.png", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte("png bytes"))
	})
	mux.HandleFunc("/photo.jpg", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write([]byte("jpeg bytes"))
	})
	mux.HandleFunc("/page.html", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html></html>"))
	})
	return httptest.NewServer(mux)
}

func newVisionTestClient(srv *httptest.Server) *GeminiClient {
	return &GeminiClient{
		logger:     zap.NewNop(),
		httpClient: srv.Client(),
	}
}

func TestFetchAllKeepsURLsAlignedWithBlobs(t *testing.T) {
	srv := newVisionTestServer()
	defer srv.Close()
	c := newVisionTestClient(srv)

	urls := []string{
		srv.URL + "/logo.png",
		srv.URL + "/missing.png",
		srv.URL + "/photo.jpg",
	}
	blobs, fetched := c.fetchAll(context.Background(), urls)

	require.Len(t, blobs, 2)
	assert.Equal(t, []string{srv.URL + "/logo.png", srv.URL + "/photo.jpg"}, fetched)
}

func TestFetchAllSkipsNonImageContent(t *testing.T) {
	srv := newVisionTestServer()
	defer srv.Close()
	c := newVisionTestClient(srv)

	blobs, fetched := c.fetchAll(context.Background(), []string{srv.URL + "/page.html"})
	assert.Empty(t, blobs)
	assert.Empty(t, fetched)
}

func TestFetchImageFormat(t *testing.T) {
	srv := newVisionTestServer()
	defer srv.Close()
	c := newVisionTestClient(srv)

	format, data, err := c.fetchImage(context.Background(), srv.URL+"/photo.jpg")
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, []byte("jpeg bytes"), data)

	blob := genai.ImageData(format, data)
	assert.Equal(t, "image/jpeg", blob.MIMEType)
}

func TestURLListNumbersInOrder(t *testing.T) {
	out := urlList([]string{"https://a.test/1.png", "https://b.test/2.png"})
	assert.Equal(t, "1. https://a.test/1.png\n2. https://b.test/2.png\n", out)
}
