package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestIsNewerVersion(t *testing.T) {
	tests := []struct {
		latest, current string
		want            bool
	}{
		{"1.2.0", "1.1.9", true},
		{"v2.0.0", "1.9.9", true},
		{"1.2.0", "1.2.0", false},
		{"1.1.0", "1.2.0", false},
		{"1.2.0", "1.2.0-rc.1", true},
		{"1.2.0", "dev", false},
	}
	for _, tt := range tests {
		if got := isNewerVersion(tt.latest, tt.current); got != tt.want {
			t.Errorf("isNewerVersion(%q, %q) = %v, want %v", tt.latest, tt.current, got, tt.want)
		}
	}
}

func TestVersionCheck(t *testing.T) {
	oldVersion := Version
	Version = "1.0.0"
	t.Cleanup(func() { Version = oldVersion })

	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if r.Header.Get("If-None-Match") == `"abc"` {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"abc"`)
		_, _ = w.Write([]byte(`{"tag_name":"v1.3.0","draft":false,"prerelease":false}`))
	}))
	defer srv.Close()

	vc := newVersionChecker(srv.URL)
	ctx := context.Background()

	if err := vc.check(ctx); err != nil {
		t.Fatalf("check() error = %v", err)
	}
	info := vc.Info()
	if info.Latest != "1.3.0" || !info.UpdateAvail || info.Current != "1.0.0" {
		t.Errorf("Info() = %+v", info)
	}

	if err := vc.check(ctx); err != nil {
		t.Fatalf("conditional check() error = %v", err)
	}
	if vc.Info().Latest != "1.3.0" || requests != 2 {
		t.Errorf("after 304: latest %q, requests %d", vc.Info().Latest, requests)
	}
}

func TestVersionCheckRateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	vc := newVersionChecker(srv.URL)
	if err := vc.check(context.Background()); !errors.Is(err, errTransient) {
		t.Errorf("check() error = %v, want transient", err)
	}
	if vc.Info().UpdateAvail {
		t.Error("update reported without a release")
	}
}

func TestReleaseStatus(t *testing.T) {
	tests := []struct {
		code      int
		wantErr   bool
		transient bool
	}{
		{http.StatusOK, false, false},
		{http.StatusNotModified, false, false},
		{http.StatusNotFound, false, false},
		{http.StatusForbidden, true, true},
		{http.StatusBadGateway, true, true},
		{http.StatusBadRequest, true, false},
	}
	for _, tt := range tests {
		err := releaseStatus(tt.code)
		if (err != nil) != tt.wantErr || errors.Is(err, errTransient) != tt.transient {
			t.Errorf("releaseStatus(%d) = %v", tt.code, err)
		}
	}
}
