package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

func collect(chunks ...string) ([]string, bool) {
	var got []string
	dec := newSSEDecoder(func(data string) bool {
		if data == doneSentinel {
			return false
		}
		got = append(got, data)
		return true
	})
	alive := true
	for _, c := range chunks {
		if !dec.Write([]byte(c)) {
			alive = false
			break
		}
	}
	if alive {
		dec.Flush()
	}
	return got, alive
}

func TestSSEDecoder(t *testing.T) {
	tests := []struct {
		name   string
		chunks []string
		want   []string
		alive  bool
	}{
		{
			name:   "one frame per line",
			chunks: []string{"data: a\n\ndata: b\n\n"},
			want:   []string{"a", "b"},
			alive:  true,
		},
		{
			name:   "frame split across reads",
			chunks: []string{"da", "ta: hel", "lo\n", "\n"},
			want:   []string{"hello"},
			alive:  true,
		},
		{
			name:   "crlf line endings",
			chunks: []string{"data: a\r\n\r\ndata: b\r\n"},
			want:   []string{"a", "b"},
			alive:  true,
		},
		{
			name:   "no space after colon",
			chunks: []string{"data:x\n"},
			want:   []string{"x"},
			alive:  true,
		},
		{
			name:   "non-data lines ignored",
			chunks: []string{": keep-alive\nevent: message\nid: 1\ndata: a\n"},
			want:   []string{"a"},
			alive:  true,
		},
		{
			name:   "stops at done",
			chunks: []string{"data: a\ndata: [DONE]\ndata: b\n"},
			want:   []string{"a"},
			alive:  false,
		},
		{
			name:   "trailing line without newline is flushed",
			chunks: []string{"data: a\ndata: b"},
			want:   []string{"a", "b"},
			alive:  true,
		},
		{
			name:   "empty input",
			chunks: nil,
			want:   nil,
			alive:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, alive := collect(tt.chunks...)
			if fmt.Sprint(got) != fmt.Sprint(tt.want) {
				t.Errorf("got %q, want %q", got, tt.want)
			}
			if alive != tt.alive {
				t.Errorf("alive = %v, want %v", alive, tt.alive)
			}
		})
	}
}

func TestSettled(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"feat", ""},
		{"feat:", ""},
		{"feat: add", "feat:"},
		{"feat: add ", "feat: add"},
		{"feat: add  lo", "feat: add"},
		{"feat:\nadd", "feat:"},
	}
	for _, tt := range tests {
		if got := settled(tt.in); got != tt.want {
			t.Errorf("settled(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestProgressReportsEachPrefixOnce(t *testing.T) {
	var reports []string
	p := &progress{notify: func(s string) { reports = append(reports, s) }}
	for _, d := range []string{"fe", "at:", " a", "dd", " ", "x", "\n", "", " "} {
		p.add(d)
	}
	want := []string{"feat:", "feat: add", "feat: add x"}
	if fmt.Sprint(reports) != fmt.Sprint(want) {
		t.Errorf("reports = %q, want %q", reports, want)
	}
	if p.text.String() != "feat: add x\n " {
		t.Errorf("accumulated %q", p.text.String())
	}
}

func frame(content string) string {
	return fmt.Sprintf("data: {\"choices\":[{\"delta\":{\"content\":%q}}]}\n\n", content)
}

func sseServer(t *testing.T, handler func(w http.ResponseWriter, flush func())) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			t.Error("response writer does not support flushing")
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		handler(w, flusher.Flush)
	}))
}

func TestCompleteStream(t *testing.T) {
	server := sseServer(t, func(w http.ResponseWriter, flush func()) {
		for _, c := range []string{"feat", ": add", " retry", " logic"} {
			fmt.Fprint(w, frame(c))
			flush()
		}
		fmt.Fprint(w, ": comment\n\n")
		fmt.Fprint(w, "data: {not json}\n\n")
		fmt.Fprint(w, "data: {\"choices\":[]}\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
		fmt.Fprint(w, frame(" ignored"))
		flush()
	})
	defer server.Close()

	var reports []string
	got, err := NewClient().Complete(context.Background(), Request{URL: server.URL, Stream: true}, func(s string) {
		reports = append(reports, s)
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if got != "feat: add retry logic" {
		t.Errorf("got %q", got)
	}
	if len(reports) == 0 {
		t.Fatal("no progress reported")
	}
	for i := 1; i < len(reports); i++ {
		if !strings.HasPrefix(reports[i], reports[i-1]) || reports[i] == reports[i-1] {
			t.Errorf("reports not strictly growing: %q", reports)
		}
	}
	if last := reports[len(reports)-1]; last != "feat: add retry" {
		t.Errorf("last report = %q", last)
	}
}

func TestCompleteStreamEOFWithoutDone(t *testing.T) {
	server := sseServer(t, func(w http.ResponseWriter, flush func()) {
		fmt.Fprint(w, frame("fix: a"))
		// Final frame without its trailing newline.
		fmt.Fprint(w, `data: {"choices":[{"delta":{"content":" b"}}]}`)
		flush()
	})
	defer server.Close()

	got, err := NewClient().Complete(context.Background(), Request{URL: server.URL, Stream: true}, nil)
	if err != nil || got != "fix: a b" {
		t.Errorf("got %q, %v", got, err)
	}
}

func TestCompleteStreamIdleTimeout(t *testing.T) {
	release := make(chan struct{})
	server := sseServer(t, func(w http.ResponseWriter, flush func()) {
		fmt.Fprint(w, frame("docs: update"))
		fmt.Fprint(w, frame(" readme"))
		flush()
		<-release
	})
	defer server.Close()
	defer close(release)

	client := NewClient(WithIdleTimeout(100 * time.Millisecond))
	start := time.Now()
	got, err := client.Complete(context.Background(), Request{URL: server.URL, Stream: true}, nil)
	if err != nil {
		t.Fatalf("idle timeout must finish successfully, got %v", err)
	}
	if got != "docs: update readme" {
		t.Errorf("got %q", got)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("took %v, idle timer did not fire", elapsed)
	}
}

func TestCompleteStreamCancelled(t *testing.T) {
	release := make(chan struct{})
	server := sseServer(t, func(w http.ResponseWriter, flush func()) {
		fmt.Fprint(w, frame("feat: partial "))
		flush()
		<-release
	})
	defer server.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var once sync.Once
	got, err := NewClient().Complete(ctx, Request{URL: server.URL, Stream: true}, func(string) {
		once.Do(cancel)
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if got != "" {
		t.Errorf("partial text must be discarded, got %q", got)
	}
}

func TestCompleteStreamUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"rate limited"}}`, http.StatusTooManyRequests)
	}))
	defer server.Close()

	_, err := NewClient().Complete(context.Background(), Request{URL: server.URL, APIKey: "k", Stream: true}, nil)
	var ue *UpstreamError
	if !errors.As(err, &ue) || ue.Status != http.StatusTooManyRequests {
		t.Fatalf("err = %v, want UpstreamError 429", err)
	}
	if !strings.Contains(ue.Error(), "rate limited") {
		t.Errorf("Error() = %q", ue.Error())
	}
}
