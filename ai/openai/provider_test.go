package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/poiesic/tedrag/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeOpenAI serves the two endpoints the provider calls.
func fakeOpenAI(t *testing.T, answer string) (*httptest.Server, *[]string) {
	t.Helper()
	var seenAuth []string

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/embeddings", func(w http.ResponseWriter, r *http.Request) {
		seenAuth = append(seenAuth, r.Header.Get("Authorization"))

		var req struct {
			Input []string `json:"input"`
			Model string   `json:"model"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		data := make([]map[string]any, len(req.Input))
		for i := range req.Input {
			data[i] = map[string]any{
				"object":    "embedding",
				"index":     i,
				"embedding": []float32{float32(i), 0.5, 0.25},
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"data":   data,
			"model":  req.Model,
			"usage":  map[string]int{"prompt_tokens": 1, "total_tokens": 1},
		})
	})
	mux.HandleFunc("/v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		seenAuth = append(seenAuth, r.Header.Get("Authorization"))

		var req struct {
			Messages []struct {
				Role    string `json:"role"`
				Content any    `json:"content"`
			} `json:"messages"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if assert.Len(t, req.Messages, 2) {
			assert.Equal(t, "system", req.Messages[0].Role)
			assert.Equal(t, "user", req.Messages[1].Role)
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1,
			"model":   "test-chat",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]string{"role": "assistant", "content": answer},
			}},
			"usage": map[string]int{"prompt_tokens": 1, "completion_tokens": 1, "total_tokens": 2},
		})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &seenAuth
}

func testConfig(host string) *ai.Config {
	return ai.NewConfig(
		ai.WithHost(host),
		ai.WithAPIKey("sk-test"),
		ai.WithEmbeddingModel("test-embed"),
		ai.WithChatModel("test-chat"),
	)
}

func TestNewProvider_InvalidConfig(t *testing.T) {
	cfg := ai.NewConfig(ai.WithEmbeddingModel(""))

	provider, err := NewProvider(cfg)
	require.Error(t, err)
	assert.Nil(t, provider)
}

func TestProvider_Embedder(t *testing.T) {
	srv, seenAuth := fakeOpenAI(t, "")

	provider, err := NewProvider(testConfig(srv.URL))
	require.NoError(t, err)
	defer provider.Close()

	ctx := context.Background()

	t.Run("batch embedding keeps input order", func(t *testing.T) {
		vectors, err := provider.Embedder().EmbedTexts(ctx, []string{"first", "second", "third"})
		require.NoError(t, err)
		require.Len(t, vectors, 3)
		assert.Equal(t, float32(0), vectors[0][0])
		assert.Equal(t, float32(2), vectors[2][0])
	})

	t.Run("single query embedding", func(t *testing.T) {
		vector, err := provider.Embedder().EmbedText(ctx, "what is climate change?")
		require.NoError(t, err)
		assert.Len(t, vector, 3)
	})

	require.NotEmpty(t, *seenAuth)
	assert.Equal(t, "Bearer sk-test", (*seenAuth)[0])
}

func TestProvider_ChatModel(t *testing.T) {
	srv, _ := fakeOpenAI(t, "I don't know based on the provided TED data.")

	provider, err := NewProvider(testConfig(srv.URL))
	require.NoError(t, err)
	defer provider.Close()

	answer, err := provider.ChatModel().Generate(context.Background(), "system prompt", "Context:\n\n\nQuestion: why?")
	require.NoError(t, err)
	assert.Equal(t, "I don't know based on the provided TED data.", answer)
}

func TestProvider_ServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"invalid api key","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	provider, err := NewProvider(testConfig(srv.URL))
	require.NoError(t, err)

	_, err = provider.Embedder().EmbedTexts(context.Background(), []string{"text"})
	assert.Error(t, err)

	_, err = provider.ChatModel().Generate(context.Background(), "s", "u")
	assert.Error(t, err)
}

func TestNewEmbedder_KeepsNewLines(t *testing.T) {
	var inputs []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Input []string `json:"input"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		inputs = append(inputs, req.Input...)

		data := make([]map[string]any, len(req.Input))
		for i := range req.Input {
			data[i] = map[string]any{"object": "embedding", "index": i, "embedding": []float32{1, 0}}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"object": "list", "data": data})
	}))
	defer srv.Close()

	embedder, err := NewEmbedder(testConfig(srv.URL))
	require.NoError(t, err)

	chunk := "First paragraph.\n\nSecond paragraph\nwith a break."
	vectors, err := embedder.EmbedTexts(context.Background(), []string{chunk})
	require.NoError(t, err)
	require.Len(t, vectors, 1)
	assert.Equal(t, []string{chunk}, inputs)

	vectors, err = embedder.EmbedTexts(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, vectors)
	assert.Len(t, inputs, 1, "an empty batch makes no request")
}

func TestNewChatModel(t *testing.T) {
	srv, _ := fakeOpenAI(t, "Try Sir Ken Robinson.")

	chat, err := NewChatModel(testConfig(srv.URL))
	require.NoError(t, err)

	answer, err := chat.Generate(context.Background(), "system prompt", "Question: schools?")
	require.NoError(t, err)
	assert.Equal(t, "Try Sir Ken Robinson.", answer)

	_, err = NewChatModel(ai.NewConfig(ai.WithChatModel("")))
	assert.Error(t, err)
}
