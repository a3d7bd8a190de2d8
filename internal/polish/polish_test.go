package polish

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestEnabledRequiresFullConfig(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
		want bool
	}{
		{"all set", Config{Enabled: true, Endpoint: "http://x", APIKey: "k"}, true},
		{"flag off", Config{Enabled: false, Endpoint: "http://x", APIKey: "k"}, false},
		{"no endpoint", Config{Enabled: true, APIKey: "k"}, false},
		{"no key", Config{Enabled: true, Endpoint: "http://x"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := NewClient(tc.cfg).Enabled(); got != tc.want {
				t.Fatalf("Enabled() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestRewrite(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer key-1" {
			t.Errorf("missing bearer header, got %q", r.Header.Get("Authorization"))
		}
		var payload map[string]string
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		if payload["inputs"] != "raw feedback" {
			t.Errorf("inputs = %q", payload["inputs"])
		}
		_ = json.NewEncoder(w).Encode([]map[string]string{{"summary_text": "polished feedback"}})
	}))
	defer server.Close()

	client := NewClient(Config{Enabled: true, Endpoint: server.URL, APIKey: "key-1"})
	result, err := client.Rewrite(context.Background(), "raw feedback")
	if err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	if result != "polished feedback" {
		t.Fatalf("result = %q", result)
	}
}

func TestRewriteServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(Config{Enabled: true, Endpoint: server.URL, APIKey: "key-1"})
	if _, err := client.Rewrite(context.Background(), "text"); err == nil {
		t.Fatal("expected error on 503")
	}
}

func TestRewriteEmptyResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]map[string]string{})
	}))
	defer server.Close()

	client := NewClient(Config{Enabled: true, Endpoint: server.URL, APIKey: "key-1"})
	if _, err := client.Rewrite(context.Background(), "text"); err == nil {
		t.Fatal("expected error on empty result")
	}
}
