package fetch

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// File is a single file captured from a module source, addressed by its
// path relative to the snapshot root.
type File struct {
	Path string
	Raw  string
}

// Snapshot is the ordered file set for one analysis run. It is owned by the
// run that produced it; Root points at the on-disk materialization, which is
// removed when the run's cleanup function is called.
type Snapshot struct {
	Root  string
	Files []File
}

// Lookup returns the file with the given relative path.
func (s *Snapshot) Lookup(path string) (File, bool) {
	for _, f := range s.Files {
		if f.Path == path {
			return f, true
		}
	}
	return File{}, false
}

// ConfigFiles returns the Terraform declaration files in snapshot order.
func (s *Snapshot) ConfigFiles() []File {
	var out []File
	for _, f := range s.Files {
		if strings.HasSuffix(f.Path, ".tf") {
			out = append(out, f)
		}
	}
	return out
}

// ReadmeFile returns the first README-like file, if any.
func (s *Snapshot) ReadmeFile() (File, bool) {
	for _, f := range s.Files {
		base := strings.ToUpper(filepath.Base(f.Path))
		if base == "README" || strings.HasPrefix(base, "README.") {
			return f, true
		}
	}
	return File{}, false
}

// retained decides whether a file belongs in a snapshot. Binaries, lock
// files and provider plugins are skipped; only declaration and text files
// feed the pipeline.
func retained(path string) bool {
	base := strings.ToLower(filepath.Base(path))
	switch {
	case strings.HasSuffix(base, ".tf"), strings.HasSuffix(base, ".tf.json"):
		return true
	case strings.HasSuffix(base, ".tfvars"):
		return true
	case strings.HasSuffix(base, ".md"), strings.HasSuffix(base, ".txt"):
		return true
	case base == "readme" || base == "license":
		return true
	}
	return false
}

// LoadSnapshot walks root and captures retained files relative to it,
// enforcing the cumulative decompressed-size ceiling. Hidden directories
// (.git, .terraform) are skipped.
func LoadSnapshot(root string, maxBytes int64) (*Snapshot, error) {
	snap := &Snapshot{Root: root}
	var total int64

	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if name := info.Name(); name != "." && strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if !retained(rel) {
			return nil
		}
		total += info.Size()
		if maxBytes > 0 && total > maxBytes {
			return &Error{Reason: TooLarge, Ref: root}
		}
		raw, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		snap.Files = append(snap.Files, File{Path: filepath.ToSlash(rel), Raw: string(raw)})
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Walk order is already lexical per directory, but normalize across
	// platforms so extraction stays deterministic.
	sort.Slice(snap.Files, func(i, j int) bool { return snap.Files[i].Path < snap.Files[j].Path })
	return snap, nil
}
