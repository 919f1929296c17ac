package ai

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestModels(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/v1/models" {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer key" {
			t.Errorf("Authorization = %q", got)
		}
		w.Write([]byte(`{"data":[{"id":"zeta"},{"id":"alpha"},{"id":"mid"}]}`))
	}))
	defer server.Close()

	// Accepts the full completions endpoint as well as the base.
	got, err := NewClient().Models(context.Background(), server.URL+"/v1/chat/completions", "key")
	if err != nil {
		t.Fatalf("Models: %v", err)
	}
	want := []string{"alpha", "mid", "zeta"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestModelsErrors(t *testing.T) {
	t.Run("key missing", func(t *testing.T) {
		_, err := NewClient().Models(context.Background(), "https://api.openai.com/v1", "")
		if !errors.Is(err, ErrAPIKeyMissing) {
			t.Errorf("err = %v", err)
		}
	})

	t.Run("upstream error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		_, err := NewClient().Models(context.Background(), server.URL, "")
		var ue *UpstreamError
		if !errors.As(err, &ue) || ue.Status != http.StatusNotFound {
			t.Errorf("err = %v", err)
		}
		if ue != nil && ue.Error() != "API error: status 404" {
			t.Errorf("Error() = %q", ue.Error())
		}
	})

	t.Run("bad json", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("nope"))
		}))
		defer server.Close()

		if _, err := NewClient().Models(context.Background(), server.URL, ""); err == nil {
			t.Error("expected parse error")
		}
	})
}
