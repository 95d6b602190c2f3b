package fetch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"
)

func TestParseReference(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
		check   func(t *testing.T, ref Reference)
	}{
		{
			name:  "registry coordinates",
			input: "terraform-google-modules/cloud-storage/google",
			check: func(t *testing.T, ref Reference) {
				if ref.Registry == nil {
					t.Fatal("expected registry reference")
				}
				if ref.Registry.Namespace != "terraform-google-modules" ||
					ref.Registry.Name != "cloud-storage" ||
					ref.Registry.Provider != "google" {
					t.Errorf("unexpected coordinates: %+v", ref.Registry)
				}
				if ref.Registry.Version != "" {
					t.Errorf("Version = %q, want empty", ref.Registry.Version)
				}
			},
		},
		{
			name:  "pinned version",
			input: "terraform-google-modules/cloud-storage/google@4.0.0",
			check: func(t *testing.T, ref Reference) {
				if ref.Registry.Version != "4.0.0" {
					t.Errorf("Version = %q", ref.Registry.Version)
				}
			},
		},
		{
			name:  "source URL",
			input: "git::https://github.com/org/mod.git",
			check: func(t *testing.T, ref Reference) {
				if ref.Registry != nil {
					t.Error("URL input must not produce registry coordinates")
				}
				if ref.URL != "git::https://github.com/org/mod.git" {
					t.Errorf("URL = %q", ref.URL)
				}
			},
		},
		{
			name:  "whitespace trimmed",
			input: "  ns/name/google  ",
			check: func(t *testing.T, ref Reference) {
				if ref.Registry == nil || ref.Registry.Namespace != "ns" {
					t.Errorf("unexpected ref: %+v", ref)
				}
			},
		},
		{name: "empty", input: "", wantErr: true},
		{name: "too few parts", input: "name/google", wantErr: true},
		{name: "too many parts", input: "a/b/c/d", wantErr: true},
		{name: "empty part", input: "a//c", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref, err := ParseReference(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseReference(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if tt.check != nil {
				tt.check(t, ref)
			}
		})
	}
}

func TestReferenceString(t *testing.T) {
	ref, _ := ParseReference("ns/name/google@1.2.3")
	if got := ref.String(); got != "ns/name/google@1.2.3" {
		t.Errorf("String() = %q", got)
	}
	ref, _ = ParseReference("https://example.com/mod.zip")
	if got := ref.String(); got != "https://example.com/mod.zip" {
		t.Errorf("String() = %q", got)
	}
}

func TestCheckFormat(t *testing.T) {
	tests := []struct {
		src     string
		wantErr bool
	}{
		{"https://example.com/mod.zip", false},
		{"https://example.com/mod.tar.gz", false},
		{"https://example.com/mod.tgz", false},
		{"https://example.com/mod.rar", true},
		{"https://example.com/mod.7z", true},
		{"https://example.com/mod.exe", true},
		{"git::https://github.com/org/mod.git", false},
		{"https://example.com/archive", false},
	}

	for _, tt := range tests {
		err := checkFormat(tt.src)
		if (err != nil) != tt.wantErr {
			t.Errorf("checkFormat(%q) error = %v, wantErr %v", tt.src, err, tt.wantErr)
		}
		if err != nil {
			var fe *Error
			if !errors.As(err, &fe) || fe.Reason != UnsupportedFormat {
				t.Errorf("checkFormat(%q) reason = %v", tt.src, err)
			}
		}
	}
}

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for path, content := range files {
		full := filepath.Join(root, path)
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func TestLoadSnapshot_RetainsDeclarationFiles(t *testing.T) {
	root := writeTree(t, map[string]string{
		"main.tf":               `resource "a" "b" {}`,
		"variables.tf":          `variable "x" {}`,
		"terraform.tfvars":      `x = 1`,
		"README.md":             "# Module",
		"LICENSE":               "MIT",
		"provider.bin":          "binary junk",
		".terraform/cached.tf":  "cached",
		".git/config":           "git stuff",
		"modules/sub/nested.tf": `output "y" {}`,
	})

	snap, err := LoadSnapshot(root, 0)
	if err != nil {
		t.Fatalf("LoadSnapshot() error: %v", err)
	}

	wantPaths := []string{"LICENSE", "README.md", "main.tf", "modules/sub/nested.tf", "terraform.tfvars", "variables.tf"}
	if len(snap.Files) != len(wantPaths) {
		t.Fatalf("retained %d files, want %d: %+v", len(snap.Files), len(wantPaths), snap.Files)
	}
	for i, want := range wantPaths {
		if snap.Files[i].Path != want {
			t.Errorf("Files[%d].Path = %q, want %q", i, snap.Files[i].Path, want)
		}
	}
}

func TestLoadSnapshot_SizeCeiling(t *testing.T) {
	root := writeTree(t, map[string]string{"main.tf": `resource "a" "b" {}`})

	_, err := LoadSnapshot(root, 4)
	var fe *Error
	if !errors.As(err, &fe) {
		t.Fatalf("expected *Error, got %T: %v", err, err)
	}
	if fe.Reason != TooLarge {
		t.Errorf("Reason = %q, want %q", fe.Reason, TooLarge)
	}
}

func TestSnapshot_Accessors(t *testing.T) {
	root := writeTree(t, map[string]string{
		"main.tf":   `resource "a" "b" {}`,
		"README.md": "# Title",
		"notes.txt": "misc",
	})
	snap, err := LoadSnapshot(root, 0)
	if err != nil {
		t.Fatalf("LoadSnapshot() error: %v", err)
	}

	configs := snap.ConfigFiles()
	if len(configs) != 1 || configs[0].Path != "main.tf" {
		t.Errorf("ConfigFiles() = %+v", configs)
	}

	readme, ok := snap.ReadmeFile()
	if !ok || readme.Path != "README.md" {
		t.Errorf("ReadmeFile() = %+v, %v", readme, ok)
	}

	if _, ok := snap.Lookup("main.tf"); !ok {
		t.Error("Lookup(main.tf) missed")
	}
	if _, ok := snap.Lookup("absent.tf"); ok {
		t.Error("Lookup(absent.tf) hit")
	}
}

type stubResolver struct {
	src string
	err error
}

func (s *stubResolver) ResolveDownload(ctx context.Context, ref RegistryRef) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.src, nil
}

func TestFetch_LocalDirectory(t *testing.T) {
	src := writeTree(t, map[string]string{
		"main.tf": `resource "google_storage_bucket" "data" {}`,
	})

	f := New(&stubResolver{}, 0, 0, hclog.NewNullLogger())
	snap, cleanup, err := f.Fetch(context.Background(), Reference{URL: src})
	if err != nil {
		t.Fatalf("Fetch() error: %v", err)
	}
	defer cleanup()

	if len(snap.Files) != 1 || snap.Files[0].Path != "main.tf" {
		t.Errorf("unexpected snapshot: %+v", snap.Files)
	}
	if _, err := os.Stat(snap.Root); err != nil {
		t.Errorf("snapshot root missing before cleanup: %v", err)
	}

	cleanup()
	if _, err := os.Stat(snap.Root); !os.IsNotExist(err) {
		t.Error("cleanup did not remove the fetch directory")
	}
}

func TestFetch_RegistryResolution(t *testing.T) {
	src := writeTree(t, map[string]string{"main.tf": `variable "x" {}`})

	f := New(&stubResolver{src: src}, 0, 0, hclog.NewNullLogger())
	ref := Reference{Registry: &RegistryRef{Namespace: "ns", Name: "mod", Provider: "google"}}
	snap, cleanup, err := f.Fetch(context.Background(), ref)
	if err != nil {
		t.Fatalf("Fetch() error: %v", err)
	}
	defer cleanup()

	if len(snap.Files) != 1 {
		t.Errorf("unexpected snapshot: %+v", snap.Files)
	}
}

func TestFetch_ResolverErrorPropagates(t *testing.T) {
	resolveErr := &Error{Reason: NotFound, Ref: "ns/mod/google"}
	f := New(&stubResolver{err: resolveErr}, 0, 0, hclog.NewNullLogger())

	ref := Reference{Registry: &RegistryRef{Namespace: "ns", Name: "mod", Provider: "google"}}
	_, _, err := f.Fetch(context.Background(), ref)
	var fe *Error
	if !errors.As(err, &fe) || fe.Reason != NotFound {
		t.Fatalf("expected not-found, got %v", err)
	}
}

func TestFetch_RejectedFormat(t *testing.T) {
	f := New(&stubResolver{}, 0, 0, hclog.NewNullLogger())
	_, _, err := f.Fetch(context.Background(), Reference{URL: "https://example.com/mod.rar"})
	var fe *Error
	if !errors.As(err, &fe) || fe.Reason != UnsupportedFormat {
		t.Fatalf("expected unsupported-format, got %v", err)
	}
}

func TestFetch_EmptySourceRejected(t *testing.T) {
	src := writeTree(t, map[string]string{"image.bin": "not terraform"})

	f := New(&stubResolver{}, 0, 0, hclog.NewNullLogger())
	_, _, err := f.Fetch(context.Background(), Reference{URL: src})
	var fe *Error
	if !errors.As(err, &fe) || fe.Reason != UnsupportedFormat {
		t.Fatalf("expected unsupported-format for empty snapshot, got %v", err)
	}
}

// hangingResolver blocks until the fetch deadline fires.
type hangingResolver struct{}

func (hangingResolver) ResolveDownload(ctx context.Context, ref RegistryRef) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func TestFetch_StageTimeout(t *testing.T) {
	f := New(hangingResolver{}, 0, 50*time.Millisecond, hclog.NewNullLogger())
	ref := Reference{Registry: &RegistryRef{Namespace: "ns", Name: "mod", Provider: "google"}}

	done := make(chan error, 1)
	go func() {
		_, _, err := f.Fetch(context.Background(), ref)
		done <- err
	}()

	select {
	case err := <-done:
		var fe *Error
		if !errors.As(err, &fe) || fe.Reason != NetworkFailure {
			t.Fatalf("expected network-failure on expiry, got %v", err)
		}
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("expected the deadline to be wrapped, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("fetch did not honor its stage timeout")
	}
}

func TestError_Message(t *testing.T) {
	e := &Error{Reason: TooLarge, Ref: "ns/mod/google", Err: fmt.Errorf("52428801 bytes")}
	msg := e.Error()
	if msg == "" {
		t.Fatal("empty error message")
	}
}
