package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestReverseLookup(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/reverse" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("lat"); got != "38.7" {
			t.Errorf("lat = %q", got)
		}
		if got := r.Header.Get("User-Agent"); got != "wunjo-test" {
			t.Errorf("user agent = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"display_name": "Lisbon, Portugal"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "wunjo-test", time.Second)
	got, err := c.ReverseLookup(context.Background(), 38.7, -9.1)
	if err != nil {
		t.Fatalf("ReverseLookup: %v", err)
	}
	if got != "Lisbon, Portugal" {
		t.Errorf("display name = %q", got)
	}
}

func TestReverseLookupServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := New(srv.URL, "", time.Second)
	if _, err := c.ReverseLookup(context.Background(), 1, 2); err == nil {
		t.Fatal("expected error on 502")
	}
}

func TestReverseLookupEmptyResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "", time.Second)
	if _, err := c.ReverseLookup(context.Background(), 1, 2); err == nil {
		t.Fatal("expected error on empty display name")
	}
}

func TestReverseLookupTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}))
	defer srv.Close()

	c := New(srv.URL, "", 20*time.Millisecond)
	if _, err := c.ReverseLookup(context.Background(), 1, 2); err == nil {
		t.Fatal("expected timeout error")
	}
}
