package ark_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mistakebook/mistakebook/internal/clients/ark"
)

func TestComplete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		// The client fills in its configured model.
		assert.Equal(t, "test-model", req["model"])
		assert.Equal(t, map[string]any{"type": "json_object"}, req["response_format"])
		assert.Equal(t, map[string]any{"type": "disabled"}, req["thinking"])

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": `{"category":"判断推理"}`}},
			},
		})
	}))
	defer srv.Close()

	client := ark.New(srv.URL, "test-key", "test-model")
	content, err := client.Complete(context.Background(), ark.Request{
		Messages: []ark.Message{
			{Role: "user", Content: []ark.ContentPart{
				ark.TextPart("分析这道题"),
				ark.ImagePart("data:image/png;base64,AAAA"),
			}},
		},
		ResponseFormat: ark.JSONObject(),
		Thinking:       ark.ThinkingDisabled(),
		Temperature:    0.3,
	})
	require.NoError(t, err)
	assert.Equal(t, `{"category":"判断推理"}`, content)
}

func TestCompleteServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"rate limited"}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := ark.New(srv.URL, "k", "m").Complete(context.Background(), ark.Request{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestCompleteNoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	_, err := ark.New(srv.URL, "k", "m").Complete(context.Background(), ark.Request{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no choices")
}
