package commitmsg

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rasalas/gitmsg/internal/ai"
	"github.com/rasalas/gitmsg/internal/changes"
)

type fakeRepo struct {
	roots  []string
	staged map[string]string
	head   map[string]string
	calls  int
}

func (f *fakeRepo) Repositories(ctx context.Context) ([]string, error) {
	return f.roots, nil
}

func (f *fakeRepo) StagedDiff(ctx context.Context, root string) (string, error) {
	f.calls++
	return f.staged[root], nil
}

func (f *fakeRepo) HeadDiff(ctx context.Context, root string) (string, error) {
	f.calls++
	return f.head[root], nil
}

func bufferedServer(t *testing.T, content string, gotPrompt *string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Messages []struct {
				Content string `json:"content"`
			} `json:"messages"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		if gotPrompt != nil && len(body.Messages) > 0 {
			*gotPrompt = body.Messages[0].Content
		}
		fmt.Fprintf(w, `{"choices":[{"message":{"content":%q}}]}`, content)
	}))
}

func TestGenerate(t *testing.T) {
	var prompt string
	server := bufferedServer(t, "```\nHere's a commit message: feat(api): add retries. This commit message explains it.\n```", &prompt)
	defer server.Close()

	repo := &fakeRepo{
		roots: []string{"/repo"},
		head:  map[string]string{"/repo": "diff --git a/x b/x\n+retry"},
	}
	g := New(repo, nil, ai.Request{URL: server.URL, Model: "m"})

	res, err := g.Generate(context.Background(), "", nil)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if res.Message != "feat(api): add retries." {
		t.Errorf("Message = %q", res.Message)
	}
	if !strings.Contains(res.Raw, "This commit message") {
		t.Errorf("Raw = %q, want the unmodified reply", res.Raw)
	}
	if res.Strategy != changes.Head || res.Source.Root != "/repo" {
		t.Errorf("got %+v", res)
	}
	if prompt != ai.BuildPrompt("diff --git a/x b/x\n+retry") {
		t.Errorf("prompt = %q", prompt)
	}
	if g.Request.Prompt != "" {
		t.Error("request template was mutated")
	}
}

func TestGenerateStreamIdlePartial(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"\\\"fix: handle\"}}]}\n\n")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\" nil config\\\"\"}}]}\n\n")
		w.(http.Flusher).Flush()
		<-release
	}))
	defer server.Close()
	defer close(release)

	repo := &fakeRepo{roots: []string{"/repo"}, staged: map[string]string{"/repo": "d"}}
	client := ai.NewClient(ai.WithIdleTimeout(100 * time.Millisecond))
	g := New(repo, client, ai.Request{URL: server.URL, Stream: true})

	var mu sync.Mutex
	var reports []string
	res, err := g.Generate(context.Background(), "", func(s string) {
		mu.Lock()
		reports = append(reports, s)
		mu.Unlock()
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if res.Message != "fix: handle nil config" {
		t.Errorf("Message = %q", res.Message)
	}
	if len(reports) == 0 {
		t.Error("no progress reported")
	}
}

func TestGenerateErrors(t *testing.T) {
	t.Run("nothing to commit", func(t *testing.T) {
		hit := false
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hit = true
		}))
		defer server.Close()

		g := New(&fakeRepo{roots: []string{"/repo"}}, nil, ai.Request{URL: server.URL})
		_, err := g.Generate(context.Background(), "", nil)
		if !errors.Is(err, changes.ErrNotFound) {
			t.Errorf("err = %v, want ErrNotFound", err)
		}
		if hit {
			t.Error("endpoint called without a diff")
		}
	})

	t.Run("no repository", func(t *testing.T) {
		_, err := New(&fakeRepo{}, nil, ai.Request{URL: "http://localhost"}).Generate(context.Background(), "", nil)
		if !errors.Is(err, changes.ErrNoRepository) {
			t.Errorf("err = %v", err)
		}
	})

	t.Run("empty after cleaning", func(t *testing.T) {
		server := bufferedServer(t, "Here's a commit message:", nil)
		defer server.Close()

		repo := &fakeRepo{roots: []string{"/repo"}, staged: map[string]string{"/repo": "d"}}
		_, err := New(repo, nil, ai.Request{URL: server.URL}).Generate(context.Background(), "", nil)
		if !errors.Is(err, ErrEmptyResult) {
			t.Errorf("err = %v, want ErrEmptyResult", err)
		}
	})

	t.Run("missing key", func(t *testing.T) {
		repo := &fakeRepo{roots: []string{"/repo"}, staged: map[string]string{"/repo": "d"}}
		_, err := New(repo, nil, ai.Request{URL: "https://api.example.com/v1"}).Generate(context.Background(), "", nil)
		if !errors.Is(err, ai.ErrAPIKeyMissing) {
			t.Errorf("err = %v, want ErrAPIKeyMissing", err)
		}
	})

	t.Run("upstream error propagates", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer server.Close()

		repo := &fakeRepo{roots: []string{"/repo"}, staged: map[string]string{"/repo": "d"}}
		_, err := New(repo, nil, ai.Request{URL: server.URL}).Generate(context.Background(), "", nil)
		var ue *ai.UpstreamError
		if !errors.As(err, &ue) || ue.Status != http.StatusBadGateway {
			t.Errorf("err = %v", err)
		}
	})

	t.Run("cancelled before fetch", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		repo := &fakeRepo{roots: []string{"/repo"}, staged: map[string]string{"/repo": "d"}}
		_, err := New(repo, nil, ai.Request{URL: "http://localhost"}).Generate(ctx, "", nil)
		if !errors.Is(err, ErrCancelled) {
			t.Errorf("err = %v, want ErrCancelled", err)
		}
		if repo.calls != 0 {
			t.Errorf("diff fetched %d times after cancellation", repo.calls)
		}
	})

	t.Run("cancelled mid stream", func(t *testing.T) {
		release := make(chan struct{})
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"feat: some \"}}]}\n\n")
			w.(http.Flusher).Flush()
			<-release
		}))
		defer server.Close()
		defer close(release)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		repo := &fakeRepo{roots: []string{"/repo"}, staged: map[string]string{"/repo": "d"}}
		g := New(repo, nil, ai.Request{URL: server.URL, Stream: true})
		res, err := g.Generate(ctx, "", func(string) { cancel() })
		if !errors.Is(err, ErrCancelled) {
			t.Errorf("err = %v, want ErrCancelled", err)
		}
		if res.Message != "" {
			t.Errorf("partial message leaked: %q", res.Message)
		}
	})
}
