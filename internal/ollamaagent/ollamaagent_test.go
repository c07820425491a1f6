package ollamaagent

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/parlance-sh/parlance/internal/plugin"
	"github.com/parlance-sh/parlance/internal/stream"
	"github.com/stretchr/testify/require"
)

func TestSendMessageStreamsDeltasAndUsage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"message":{"role":"assistant","content":"Hel"},"done":false}`+"\n")
		io.WriteString(w, `{"message":{"role":"assistant","content":"lo"},"done":false}`+"\n")
		io.WriteString(w, `{"message":{"role":"assistant","content":""},"done":true,"eval_count":12,"prompt_eval_count":34}`+"\n")
	}))
	defer srv.Close()

	p := New(srv.URL, "llama3")
	events, err := p.SendMessage(context.Background(), plugin.MessageContext{Message: "hi"})
	require.NoError(t, err)

	var texts []string
	var sawUsage stream.Event
	for e := range events {
		switch e.Kind {
		case stream.TextDelta:
			texts = append(texts, e.Text)
		case stream.Usage:
			sawUsage = e
		}
	}
	require.Equal(t, []string{"Hel", "lo"}, texts)
	require.Equal(t, 12, sawUsage.TokenUsage.OutputTokens)
	require.Equal(t, 34, sawUsage.TokenUsage.InputTokens)
}

func TestSendMessageHTTPErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		io.WriteString(w, "model not found")
	}))
	defer srv.Close()

	p := New(srv.URL, "llama3")
	_, err := p.SendMessage(context.Background(), plugin.MessageContext{Message: "hi"})
	require.Error(t, err)
}

func TestDefaultModelFallsBackWhenUnset(t *testing.T) {
	p := New("", "")
	require.Equal(t, "llama3", p.model())
}
