package ai

import "testing"

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"https://api.openai.com/v1", "https://api.openai.com/v1/chat/completions"},
		{"https://api.openai.com/v1/", "https://api.openai.com/v1/chat/completions"},
		{"https://api.openai.com/v1/chat/completions", "https://api.openai.com/v1/chat/completions"},
		{"http://localhost:11434/v1", "http://localhost:11434/v1/chat/completions"},
		{" http://host/v1 ", "http://host/v1/chat/completions"},
	}
	for _, tt := range tests {
		if got := NormalizeURL(tt.in); got != tt.want {
			t.Errorf("NormalizeURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestBaseURL(t *testing.T) {
	if got := BaseURL("https://api.groq.com/openai/v1/chat/completions"); got != "https://api.groq.com/openai/v1" {
		t.Errorf("BaseURL = %q", got)
	}
	if got := BaseURL("http://localhost:11434/v1/"); got != "http://localhost:11434/v1" {
		t.Errorf("BaseURL = %q", got)
	}
}

func TestIsLocal(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"http://localhost:11434", true},
		{"http://LOCALHOST:1234/v1", true},
		{"localhost:11434", true},
		{"http://127.0.0.1:8080/v1", true},
		{"http://127.8.9.10", true},
		{"http://[::1]:8080", true},
		{"http://10.1.2.3/v1", true},
		{"http://172.16.0.1", true},
		{"http://172.31.255.255", true},
		{"http://172.32.0.1", false},
		{"http://192.168.1.20:11434", true},
		{"http://192.169.1.20", false},
		{"https://api.openai.com/v1", false},
		{"https://localhost.example.com", false},
		{"http://8.8.8.8", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			if got := IsLocal(tt.url); got != tt.want {
				t.Errorf("IsLocal(%q) = %v, want %v", tt.url, got, tt.want)
			}
		})
	}
}
