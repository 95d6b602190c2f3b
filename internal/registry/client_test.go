package registry

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/hashicorp/go-hclog"

	"github.com/Kamalesh-Seervi/gap-terraform-mcp-server/internal/fetch"
)

func testServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, 0, hclog.NewNullLogger())
}

var bucketRef = fetch.RegistryRef{Namespace: "terraform-google-modules", Name: "cloud-storage", Provider: "google"}

func TestLatest(t *testing.T) {
	c := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/modules/terraform-google-modules/cloud-storage/google" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		fmt.Fprint(w, `{
			"id": "terraform-google-modules/cloud-storage/google/5.0.0",
			"namespace": "terraform-google-modules",
			"name": "cloud-storage",
			"provider": "google",
			"version": "5.0.0",
			"description": "Cloud Storage buckets",
			"downloads": 1200
		}`)
	})

	mod, err := c.Latest(context.Background(), bucketRef)
	if err != nil {
		t.Fatalf("Latest() error: %v", err)
	}
	if mod.Version != "5.0.0" || mod.Downloads != 1200 {
		t.Errorf("unexpected module: %+v", mod)
	}
}

func TestVersions(t *testing.T) {
	c := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"modules": [{"versions": [{"version": "1.0.0"}, {"version": "2.1.0"}, {"version": "2.0.0"}]}]}`)
	})

	got, err := c.Versions(context.Background(), bucketRef)
	if err != nil {
		t.Fatalf("Versions() error: %v", err)
	}
	want := []string{"1.0.0", "2.1.0", "2.0.0"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Versions() mismatch (-want +got):\n%s", diff)
	}
}

func TestSearch(t *testing.T) {
	c := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/modules/search" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if q := r.URL.Query().Get("q"); q != "storage" {
			t.Errorf("q = %q", q)
		}
		if p := r.URL.Query().Get("provider"); p != "google" {
			t.Errorf("provider = %q", p)
		}
		fmt.Fprint(w, `{"modules": [{"name": "cloud-storage", "namespace": "terraform-google-modules", "provider": "google", "version": "5.0.0"}]}`)
	})

	mods, err := c.Search(context.Background(), "storage", "google")
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if len(mods) != 1 || mods[0].Name != "cloud-storage" {
		t.Errorf("unexpected modules: %+v", mods)
	}
}

func TestResolveDownload_PinnedVersion(t *testing.T) {
	c := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/modules/terraform-google-modules/cloud-storage/google/4.0.0/download" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("X-Terraform-Get", "git::https://github.com/terraform-google-modules/terraform-google-cloud-storage?ref=v4.0.0")
		w.WriteHeader(http.StatusNoContent)
	})

	ref := bucketRef
	ref.Version = "4.0.0"
	loc, err := c.ResolveDownload(context.Background(), ref)
	if err != nil {
		t.Fatalf("ResolveDownload() error: %v", err)
	}
	if loc == "" || loc[:5] != "git::" {
		t.Errorf("unexpected location: %q", loc)
	}
}

func TestResolveDownload_LatestPicksHighestVersion(t *testing.T) {
	c := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/modules/terraform-google-modules/cloud-storage/google/versions":
			// Unordered, with one unparseable tag that must be tolerated.
			fmt.Fprint(w, `{"modules": [{"versions": [{"version": "2.0.0"}, {"version": "not-a-version"}, {"version": "10.1.0"}, {"version": "9.9.9"}]}]}`)
		case "/v1/modules/terraform-google-modules/cloud-storage/google/10.1.0/download":
			w.Header().Set("X-Terraform-Get", "https://example.com/archive.tgz")
			w.WriteHeader(http.StatusNoContent)
		default:
			t.Errorf("unexpected path: %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	})

	loc, err := c.ResolveDownload(context.Background(), bucketRef)
	if err != nil {
		t.Fatalf("ResolveDownload() error: %v", err)
	}
	if loc != "https://example.com/archive.tgz" {
		t.Errorf("location = %q", loc)
	}
}

func TestResolveDownload_NotFound(t *testing.T) {
	c := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	ref := bucketRef
	ref.Version = "1.0.0"
	_, err := c.ResolveDownload(context.Background(), ref)
	var fe *fetch.Error
	if !errors.As(err, &fe) {
		t.Fatalf("expected *fetch.Error, got %T: %v", err, err)
	}
	if fe.Reason != fetch.NotFound {
		t.Errorf("Reason = %q, want %q", fe.Reason, fetch.NotFound)
	}
}

func TestResolveDownload_MissingHeader(t *testing.T) {
	c := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	ref := bucketRef
	ref.Version = "1.0.0"
	_, err := c.ResolveDownload(context.Background(), ref)
	var fe *fetch.Error
	if !errors.As(err, &fe) || fe.Reason != fetch.NotFound {
		t.Fatalf("expected not-found for missing download header, got %v", err)
	}
}

func TestResolveDownload_NoParseableVersions(t *testing.T) {
	c := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"modules": [{"versions": [{"version": "garbage"}]}]}`)
	})

	_, err := c.ResolveDownload(context.Background(), bucketRef)
	var fe *fetch.Error
	if !errors.As(err, &fe) || fe.Reason != fetch.NotFound {
		t.Fatalf("expected not-found, got %v", err)
	}
}

func TestGetJSON_NotFound(t *testing.T) {
	c := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := c.Latest(context.Background(), bucketRef)
	var fe *fetch.Error
	if !errors.As(err, &fe) || fe.Reason != fetch.NotFound {
		t.Fatalf("expected not-found, got %v", err)
	}
}

func TestNewClient_DefaultBaseURL(t *testing.T) {
	c := NewClient("", 0, hclog.NewNullLogger())
	if c.base != DefaultBaseURL {
		t.Errorf("base = %q, want %q", c.base, DefaultBaseURL)
	}
}

func TestNewClient_Timeout(t *testing.T) {
	c := NewClient("", 5*time.Second, hclog.NewNullLogger())
	if got := c.http.HTTPClient.Timeout; got != 5*time.Second {
		t.Errorf("Timeout = %v, want 5s", got)
	}

	// Zero falls back to the default; an unbounded client would let a hung
	// registry response block the run.
	c = NewClient("", 0, hclog.NewNullLogger())
	if got := c.http.HTTPClient.Timeout; got != DefaultTimeout {
		t.Errorf("Timeout = %v, want %v", got, DefaultTimeout)
	}
}
