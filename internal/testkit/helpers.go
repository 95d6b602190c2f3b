// Package testkit provides shared test helpers: canned Terraform fixtures
// and snapshot construction for parser, remediation, and pipeline tests.
package testkit

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Kamalesh-Seervi/gap-terraform-mcp-server/internal/fetch"
)

// WriteModule materializes files into a temp directory and returns its
// path. Keys are relative paths, values file contents.
func WriteModule(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for path, content := range files {
		full := filepath.Join(dir, path)
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", path, err)
		}
		if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}
	return dir
}

// Snapshot materializes files and loads them as a fetch.Snapshot.
func Snapshot(t *testing.T, files map[string]string) *fetch.Snapshot {
	t.Helper()
	dir := WriteModule(t, files)
	snap, err := fetch.LoadSnapshot(dir, fetch.DefaultMaxBytes)
	if err != nil {
		t.Fatalf("load snapshot: %v", err)
	}
	return snap
}

// InsecureBucket is a storage bucket that trips the uniform-access,
// public-access-prevention, versioning, and logging checks.
const InsecureBucket = `resource "google_storage_bucket" "data" {
  name     = "org-data"
  location = "US"
}
`

// SecureBucket passes the storage checks the remediation table covers.
const SecureBucket = `resource "google_storage_bucket" "data" {
  name                        = "org-data"
  location                    = "US"
  uniform_bucket_level_access = true
  public_access_prevention    = "enforced"

  versioning {
    enabled = true
  }

  logging {
    log_bucket = "org-audit"
  }
}
`

// OpenFirewall allows SSH from anywhere.
const OpenFirewall = `resource "google_compute_firewall" "ssh" {
  name    = "allow-ssh"
  network = "default"

  allow {
    protocol = "tcp"
    ports    = ["22"]
  }

  source_ranges = ["0.0.0.0/0"]
}
`

// ModuleVariables declares typed inputs with and without defaults.
const ModuleVariables = `variable "project_id" {
  type        = string
  description = "Project to deploy into"
}

variable "region" {
  type    = string
  default = "us-central1"
}
`

// ModuleOutputs declares outputs referencing the bucket fixture.
const ModuleOutputs = `output "bucket_name" {
  value       = google_storage_bucket.data.name
  description = "Name of the data bucket"
}
`
