package netinfo

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestResolver_ReturnsIP(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ip":"1.2.3.4"}`))
	}))
	defer s.Close()

	r := NewResolver(s.URL, 2*time.Second)
	ip, err := r.Resolve(context.Background())
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if ip != "1.2.3.4" {
		t.Fatalf("want 1.2.3.4, got %q", ip)
	}
}

func TestResolver_Non200IsUnavailable(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", 503)
	}))
	defer s.Close()

	r := NewResolver(s.URL, 2*time.Second)
	_, err := r.Resolve(context.Background())
	if !errors.Is(err, ErrIPUnavailable) {
		t.Fatalf("want ErrIPUnavailable, got %v", err)
	}
}

func TestResolver_TimeoutIsUnavailable(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(`{"ip":"1.2.3.4"}`))
	}))
	defer s.Close()

	r := NewResolver(s.URL, 50*time.Millisecond)
	_, err := r.Resolve(context.Background())
	if !errors.Is(err, ErrIPUnavailable) {
		t.Fatalf("want ErrIPUnavailable, got %v", err)
	}
}

func TestResolver_EmptyIPIsUnavailable(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer s.Close()

	r := NewResolver(s.URL, 2*time.Second)
	_, err := r.Resolve(context.Background())
	if !errors.Is(err, ErrIPUnavailable) {
		t.Fatalf("want ErrIPUnavailable, got %v", err)
	}
}
