package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server
}

func TestOpenAIClient_Generate(t *testing.T) {
	var gotBody map[string]any
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/chat/completions", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprint(w, `{"id":"1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"grounded answer"},"finish_reason":"stop"}]}`)
	})

	client := NewOpenAIClient("key", server.URL+"/v1", "gpt-4o-mini", "text-embedding-3-small", 3, 0.3)
	got, err := client.Generate(context.Background(), Prompt{System: "sys", User: "question"})
	require.NoError(t, err)
	assert.Equal(t, "grounded answer", got)

	messages, ok := gotBody["messages"].([]any)
	require.True(t, ok)
	assert.Len(t, messages, 2)
	assert.Equal(t, "gpt-4o-mini", gotBody["model"])
}

func TestOpenAIClient_GenerateEmpty(t *testing.T) {
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprint(w, `{"id":"1","object":"chat.completion","choices":[]}`)
	})

	client := NewOpenAIClient("key", server.URL+"/v1", "m", "e", 0, 0)
	_, err := client.Generate(context.Background(), Prompt{User: "q"})
	assert.True(t, errors.Is(err, ErrEmptyResponse))
}

func TestOpenAIClient_GenerateStream(t *testing.T) {
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		for _, token := range []string{"Hello", ", ", "world"} {
			_, _ = fmt.Fprintf(w, "data: {\"id\":\"1\",\"object\":\"chat.completion.chunk\",\"choices\":[{\"index\":0,\"delta\":{\"content\":%q}}]}\n\n", token)
		}
		_, _ = fmt.Fprint(w, "data: [DONE]\n\n")
	})

	client := NewOpenAIClient("key", server.URL+"/v1", "m", "e", 0, 0)
	var got []string
	for fragment, err := range client.GenerateStream(context.Background(), Prompt{User: "q"}) {
		require.NoError(t, err)
		got = append(got, fragment)
	}
	assert.Equal(t, []string{"Hello", ", ", "world"}, got)
}

func TestOpenAIClient_GenerateStreamBreak(t *testing.T) {
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		for i := 0; i < 5; i++ {
			_, _ = fmt.Fprintf(w, "data: {\"id\":\"1\",\"object\":\"chat.completion.chunk\",\"choices\":[{\"index\":0,\"delta\":{\"content\":\"t%d\"}}]}\n\n", i)
		}
		_, _ = fmt.Fprint(w, "data: [DONE]\n\n")
	})

	client := NewOpenAIClient("key", server.URL+"/v1", "m", "e", 0, 0)
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

func TestOpenAIClient_EmbedTexts(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		dim     int
		wantErr error
		want    [][]float32
	}{
		{
			name: "ordered by index",
			body: `{"object":"list","data":[{"object":"embedding","embedding":[0.3,0.4],"index":1},{"object":"embedding","embedding":[0.1,0.2],"index":0}],"model":"e"}`,
			dim:  2,
			want: [][]float32{{0.1, 0.2}, {0.3, 0.4}},
		},
		{
			name:    "dimension mismatch",
			body:    `{"object":"list","data":[{"object":"embedding","embedding":[0.1],"index":0},{"object":"embedding","embedding":[0.3],"index":1}],"model":"e"}`,
			dim:     2,
			wantErr: ErrEmbeddingSize,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				require.Equal(t, "/v1/embeddings", r.URL.Path)
				w.Header().Set("Content-Type", "application/json")
				_, _ = fmt.Fprint(w, tt.body)
			})
			client := NewOpenAIClient("key", server.URL+"/v1", "m", "e", tt.dim, 0)
			got, err := client.EmbedTexts(context.Background(), []string{"a", "b"})
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOpenAIClient_EmbedTextsEmptyInput(t *testing.T) {
	client := NewOpenAIClient("key", "http://127.0.0.1:1/v1", "m", "e", 0, 0)
	_, err := client.EmbedTexts(context.Background(), nil)
	assert.Error(t, err)
}
