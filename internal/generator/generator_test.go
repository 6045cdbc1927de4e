package generator

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/adetolarazak567-alt/AI-Smartvendoo/internal/catalog"
)

func TestGenerateCannedFallback(t *testing.T) {
	g := New(catalog.Default(), nil)

	got, err := g.Generate(context.Background(), "copywriting", map[string]string{
		"copy_type": "landing page",
		"tone":      "bold",
		"name":      "Acme",
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	want := "Elite landing page for 'Acme' in a bold tone."
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestGenerateDropsUnknownParams(t *testing.T) {
	g := New(catalog.Default(), nil)

	got, err := g.Generate(context.Background(), "freelance", map[string]string{
		"job_type": "web design",
		"platform": "Upwork",
		"level":    "expert",
		"email":    "should-not-leak@example.com",
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if strings.Contains(got, "should-not-leak") {
		t.Fatalf("unknown parameter leaked into output: %q", got)
	}
}

func TestGenerateUnknownService(t *testing.T) {
	g := New(catalog.Default(), nil)
	if _, err := g.Generate(context.Background(), "fortune-telling", nil); err == nil {
		t.Fatal("expected error for unknown service")
	}
}

type failingProvider struct{}

func (failingProvider) Complete(context.Context, string, string) (string, error) {
	return "", errors.New("upstream exploded")
}

func TestGenerateSurfacesProviderError(t *testing.T) {
	g := New(catalog.Default(), failingProvider{})
	if _, err := g.Generate(context.Background(), "copywriting", nil); err == nil {
		t.Fatal("expected provider error to surface")
	}
}

func TestOpenAIProviderComplete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected auth header %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":" Elite copy. "}}]}`))
	}))
	defer srv.Close()

	p := NewOpenAIProvider(Config{
		Model:  "gpt-4o-mini",
		APIKey: "test-key",
		APIURL: srv.URL,
	})

	got, err := p.Complete(context.Background(), "system", "prompt")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if got != "Elite copy." {
		t.Fatalf("expected trimmed content, got %q", got)
	}
}

func TestOpenAIProviderErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	p := NewOpenAIProvider(Config{Model: "gpt-4o-mini", APIURL: srv.URL})
	if _, err := p.Complete(context.Background(), "", "prompt"); err == nil {
		t.Fatal("expected error for non-2xx status")
	}
}

func TestNewProviderSelection(t *testing.T) {
	if p, err := NewProvider(Config{Provider: "canned"}); err != nil || p != nil {
		t.Fatalf("expected nil canned provider, got %v (%v)", p, err)
	}
	if p, err := NewProvider(Config{Provider: "openai"}); err != nil || p == nil {
		t.Fatalf("expected openai provider, got %v (%v)", p, err)
	}
	if _, err := NewProvider(Config{Provider: "gopher"}); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}
