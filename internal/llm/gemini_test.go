package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func geminiChunk(text string) string {
	return fmt.Sprintf(`{"candidates":[{"content":{"role":"model","parts":[{"text":%q}]},"index":0}]}`, text)
}

// geminiStreamHandler answers streamGenerateContent with a JSON array of chunks.
func geminiStreamHandler(t *testing.T, chunks []string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		require.True(t, strings.HasSuffix(r.URL.Path, "/models/gemini-test:streamGenerateContent"), "path %s", r.URL.Path)
		parts := make([]string, 0, len(chunks))
		for _, c := range chunks {
			parts = append(parts, geminiChunk(c))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprintf(w, "[%s]", strings.Join(parts, ","))
	}
}

func newTestGeminiClient(t *testing.T, handler http.HandlerFunc, dim int) *GeminiClient {
	t.Helper()
	server := newTestServer(t, handler)
	client, err := NewGeminiClient(context.Background(), "key", server.URL, "gemini-test", "embed-test", dim, 0.2)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = client.Close()
	})
	return client
}

func TestGeminiClient_Generate(t *testing.T) {
	client := newTestGeminiClient(t, geminiStreamHandler(t, []string{"grounded ", "answer"}), 0)

	got, err := client.Generate(context.Background(), Prompt{System: "sys", User: "question"})
	require.NoError(t, err)
	assert.Equal(t, "grounded answer", got)
}

func TestGeminiClient_GenerateEmpty(t *testing.T) {
	client := newTestGeminiClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprint(w, `[{"candidates":[{"content":{"role":"model","parts":[]},"index":0}]}]`)
	}, 0)

	_, err := client.Generate(context.Background(), Prompt{User: "q"})
	assert.True(t, errors.Is(err, ErrEmptyResponse))
}

func TestGeminiClient_GenerateStream(t *testing.T) {
	client := newTestGeminiClient(t, geminiStreamHandler(t, []string{"Hello", "", ", world"}), 0)

	var got []string
	for fragment, err := range client.GenerateStream(context.Background(), Prompt{User: "q"}) {
		require.NoError(t, err)
		got = append(got, fragment)
	}
	assert.Equal(t, []string{"Hello", ", world"}, got)
}

func TestGeminiClient_GenerateStreamBreak(t *testing.T) {
	client := newTestGeminiClient(t, geminiStreamHandler(t, []string{"t0", "t1", "t2", "t3"}), 0)

	count := 0
	for _, err := range client.GenerateStream(context.Background(), Prompt{User: "q"}) {
		require.NoError(t, err)
		count++
		if count == 2 {
			break
		}
	}
	assert.Equal(t, 2, count)
}

func TestGeminiClient_GenerateStreamUpstreamError(t *testing.T) {
	client := newTestGeminiClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = fmt.Fprint(w, `{"error":{"code":400,"message":"API key not valid","status":"INVALID_ARGUMENT"}}`)
	}, 0)

	var lastErr error
	n := 0
	for _, err := range client.GenerateStream(context.Background(), Prompt{User: "q"}) {
		n++
		lastErr = err
	}
	assert.Equal(t, 1, n)
	require.Error(t, lastErr)
	assert.Contains(t, lastErr.Error(), "gemini stream")
}

func TestGeminiClient_EmbedTexts(t *testing.T) {
	tests := []struct {
		name    string
		dim     int
		body    string
		want    [][]float32
		wantErr bool
	}{
		{
			name: "two vectors",
			dim:  2,
			body: `{"embeddings":[{"values":[0.1,0.2]},{"values":[0.3,0.4]}]}`,
			want: [][]float32{{0.1, 0.2}, {0.3, 0.4}},
		},
		{
			name:    "dimension mismatch",
			dim:     3,
			body:    `{"embeddings":[{"values":[0.1,0.2]},{"values":[0.3,0.4]}]}`,
			wantErr: true,
		},
		{
			name:    "missing vector",
			dim:     2,
			body:    `{"embeddings":[{"values":[0.1,0.2]}]}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotRequests int
			client := newTestGeminiClient(t, func(w http.ResponseWriter, r *http.Request) {
				require.True(t, strings.HasSuffix(r.URL.Path, "/models/embed-test:batchEmbedContents"), "path %s", r.URL.Path)
				var body struct {
					Requests []json.RawMessage `json:"requests"`
				}
				require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
				gotRequests = len(body.Requests)
				w.Header().Set("Content-Type", "application/json")
				_, _ = fmt.Fprint(w, tt.body)
			}, tt.dim)

			got, err := client.EmbedTexts(context.Background(), []string{"a", "b"})
			assert.Equal(t, 2, gotRequests)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGeminiClient_EmbedTextsEmptyInput(t *testing.T) {
	client := newTestGeminiClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected for empty input")
	}, 2)

	_, err := client.EmbedTexts(context.Background(), nil)
	assert.Error(t, err)
}
