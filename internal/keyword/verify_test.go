package keyword

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/1webtutor/social-content-aggregator/pkg/record"
)

func openAIResponse(answer string) string {
	return `{"choices":[{"message":{"content":"` + answer + `"}}]}`
}

func TestLLMVerifierApproves(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer key", r.Header.Get("Authorization"))
		w.Write([]byte(openAIResponse("YES")))
	}))
	defer srv.Close()

	v := NewLLMVerifier("openai", "", "key", srv.URL, testLogger())
	ok := v.Verify(context.Background(), record.Record{Caption: "summer sale"}, "summer sale")
	require.True(t, ok)
}

func TestLLMVerifierRejects(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(openAIResponse("NO")))
	}))
	defer srv.Close()

	v := NewLLMVerifier("openai", "", "key", srv.URL, testLogger())
	ok := v.Verify(context.Background(), record.Record{Caption: "off topic"}, "summer sale")
	require.False(t, ok)
}

func TestLLMVerifierFailsOpen(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	v := NewLLMVerifier("openai", "", "key", srv.URL, testLogger())
	ok := v.Verify(context.Background(), record.Record{Caption: "anything"}, "summer sale")
	require.True(t, ok)
}

func TestLLMVerifierAnthropic(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/messages", r.URL.Path)
		require.Equal(t, "key", r.Header.Get("x-api-key"))
		w.Write([]byte(`{"content":[{"text":"NO"}]}`))
	}))
	defer srv.Close()

	v := NewLLMVerifier("anthropic", "", "key", srv.URL, testLogger())
	ok := v.Verify(context.Background(), record.Record{Caption: "off topic"}, "summer sale")
	require.False(t, ok)
}
