// Package fetch resolves module references to local file snapshots. A
// reference is either registry coordinates (namespace/name/provider with an
// optional version) or a direct source URL; either way the result is a
// request-scoped temp directory plus an in-memory Snapshot of its
// declaration files.
package fetch

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	getter "github.com/hashicorp/go-getter"
	"github.com/hashicorp/go-hclog"
)

// DefaultMaxBytes bounds the decompressed size of a fetched module.
const DefaultMaxBytes = 50 << 20 // 50 MB

// DefaultTimeout bounds one fetch stage, resolution and download included.
const DefaultTimeout = 2 * time.Minute

// RegistryRef identifies a module in a Terraform registry.
type RegistryRef struct {
	Namespace string
	Name      string
	Provider  string
	Version   string // empty means latest
}

func (r RegistryRef) String() string {
	s := r.Namespace + "/" + r.Name + "/" + r.Provider
	if r.Version != "" {
		s += "@" + r.Version
	}
	return s
}

// Reference is an immutable module reference: exactly one of Registry or
// URL is set.
type Reference struct {
	Registry *RegistryRef
	URL      string
}

func (r Reference) String() string {
	if r.Registry != nil {
		return r.Registry.String()
	}
	return r.URL
}

// ParseReference validates caller input into a Reference. Registry
// coordinates are "namespace/name/provider" with an optional "@version"
// suffix; anything with a scheme is treated as a source URL.
func ParseReference(s string) (Reference, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Reference{}, fmt.Errorf("empty module reference")
	}
	if strings.Contains(s, "://") {
		if _, err := url.Parse(s); err != nil {
			return Reference{}, fmt.Errorf("invalid source URL %q: %w", s, err)
		}
		return Reference{URL: s}, nil
	}

	coords := s
	version := ""
	if at := strings.IndexByte(coords, '@'); at >= 0 {
		coords, version = coords[:at], coords[at+1:]
	}
	parts := strings.Split(coords, "/")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return Reference{}, fmt.Errorf("invalid module ID %q: expected namespace/name/provider", s)
	}
	return Reference{Registry: &RegistryRef{
		Namespace: parts[0],
		Name:      parts[1],
		Provider:  parts[2],
		Version:   version,
	}}, nil
}

// Resolver turns registry coordinates into a concrete download location.
// An empty version selects the latest published release.
type Resolver interface {
	ResolveDownload(ctx context.Context, ref RegistryRef) (string, error)
}

// Fetcher downloads module sources into scoped temp directories.
type Fetcher struct {
	resolver Resolver
	maxBytes int64
	timeout  time.Duration
	log      hclog.Logger
}

// New creates a Fetcher. maxBytes <= 0 selects DefaultMaxBytes, timeout <= 0
// selects DefaultTimeout.
func New(resolver Resolver, maxBytes int64, timeout time.Duration, log hclog.Logger) *Fetcher {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Fetcher{resolver: resolver, maxBytes: maxBytes, timeout: timeout, log: log.Named("fetch")}
}

// archive extensions go-getter decompresses; anything else with an
// extension that looks like an archive is rejected up front.
var supportedArchives = map[string]bool{
	"zip": true, "tar.gz": true, "tgz": true,
	"tar.bz2": true, "tbz2": true, "tar.xz": true, "txz": true,
}

var rejectedFormats = map[string]bool{
	"rar": true, "7z": true, "exe": true, "dmg": true, "iso": true,
}

func checkFormat(src string) error {
	u, err := url.Parse(src)
	if err != nil {
		return nil
	}
	path := strings.ToLower(u.Path)
	for ext := range supportedArchives {
		if strings.HasSuffix(path, "."+ext) {
			return nil
		}
	}
	for ext := range rejectedFormats {
		if strings.HasSuffix(path, "."+ext) {
			return &Error{Reason: UnsupportedFormat, Ref: src}
		}
	}
	return nil
}

// Fetch resolves ref to a local Snapshot. The returned cleanup function
// removes the scoped temp directory and must be called when the run ends,
// on error paths included.
func (f *Fetcher) Fetch(ctx context.Context, ref Reference) (*Snapshot, func(), error) {
	noop := func() {}

	// The stage deadline covers resolution and download both; a stalled
	// registry or source host must not block the run indefinitely.
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	src := ref.URL
	if ref.Registry != nil {
		resolved, err := f.resolver.ResolveDownload(ctx, *ref.Registry)
		if err != nil {
			return nil, noop, wrapResolveErr(ref.String(), err)
		}
		src = resolved
	}
	if err := checkFormat(src); err != nil {
		return nil, noop, err
	}

	tmp, err := os.MkdirTemp("", "module-fetch-*")
	if err != nil {
		return nil, noop, fmt.Errorf("create fetch dir: %w", err)
	}
	cleanup := func() { os.RemoveAll(tmp) }

	f.log.Debug("downloading module source", "ref", ref.String(), "src", src)

	// Local directory sources are copied, not symlinked, so the snapshot
	// can be patched without touching the caller's tree. The destination
	// must not pre-exist for the file getter.
	getters := make(map[string]getter.Getter, len(getter.Getters))
	for scheme, g := range getter.Getters {
		getters[scheme] = g
	}
	getters["file"] = &getter.FileGetter{Copy: true}

	dst := filepath.Join(tmp, "source")
	client := &getter.Client{
		Ctx:     ctx,
		Src:     src,
		Dst:     dst,
		Pwd:     tmp,
		Mode:    getter.ClientModeAny,
		Getters: getters,
	}
	if err := client.Get(); err != nil {
		cleanup()
		if ctx.Err() != nil {
			return nil, noop, &Error{Reason: NetworkFailure, Ref: ref.String(), Err: ctx.Err()}
		}
		return nil, noop, classifyGetErr(ref.String(), err)
	}

	snap, err := LoadSnapshot(dst, f.maxBytes)
	if err != nil {
		cleanup()
		if fe, ok := err.(*Error); ok {
			fe.Ref = ref.String()
			return nil, noop, fe
		}
		return nil, noop, fmt.Errorf("load snapshot for %s: %w", ref.String(), err)
	}
	if len(snap.Files) == 0 {
		cleanup()
		return nil, noop, &Error{Reason: UnsupportedFormat, Ref: ref.String(),
			Err: fmt.Errorf("no declaration or text files in source")}
	}

	f.log.Info("fetched module source", "ref", ref.String(), "files", len(snap.Files))
	return snap, cleanup, nil
}

func wrapResolveErr(ref string, err error) error {
	if fe, ok := err.(*Error); ok {
		if fe.Ref == "" {
			fe.Ref = ref
		}
		return fe
	}
	return &Error{Reason: NetworkFailure, Ref: ref, Err: err}
}

func classifyGetErr(ref string, err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "404") || strings.Contains(msg, "no such file"):
		return &Error{Reason: NotFound, Ref: ref, Err: err}
	case strings.Contains(msg, "unsupported") || strings.Contains(msg, "can't detect"):
		return &Error{Reason: UnsupportedFormat, Ref: ref, Err: err}
	default:
		return &Error{Reason: NetworkFailure, Ref: ref, Err: err}
	}
}
