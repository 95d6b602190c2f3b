// Package remedy maps policy findings to byte-range patches against the
// originating declaration blocks and applies them without corrupting
// unrelated content. Fix strategies form a versioned table keyed by check
// ID; unknown checks are skipped, never guessed.
package remedy

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Kamalesh-Seervi/gap-terraform-mcp-server/internal/parser"
)

// StrategyKind selects how a fix rewrites the block body.
type StrategyKind string

const (
	// SetAttribute inserts the attribute with the safe value, or replaces
	// the existing value when the attribute is already declared.
	SetAttribute StrategyKind = "set_attribute"
	// EnsureBlock inserts a nested block when it is absent.
	EnsureBlock StrategyKind = "ensure_block"
	// ReplaceAttribute rewrites an existing attribute value and does
	// nothing when the attribute is absent.
	ReplaceAttribute StrategyKind = "replace_attribute"
)

// Strategy is one known-safe automated remediation.
type Strategy struct {
	CheckID   string       `yaml:"check_id"`
	Kind      StrategyKind `yaml:"kind"`
	Attribute string       `yaml:"attribute,omitempty"`
	Value     string       `yaml:"value,omitempty"`
	Block     string       `yaml:"block,omitempty"`
	BlockBody string       `yaml:"block_body,omitempty"`
	Summary   string       `yaml:"summary"`
}

// Table is the strategy lookup, keyed by check ID.
type Table struct {
	strategies map[string]Strategy
}

// builtin is the trusted GCP remediation set. Values are the documented
// safe defaults; anything needing environment-specific input (KMS keys,
// project IDs) stays out of the table and remains a manual fix.
func builtin() []Strategy {
	return []Strategy{
		{
			CheckID:   "CKV_GCP_29",
			Kind:      SetAttribute,
			Attribute: "uniform_bucket_level_access",
			Value:     "true",
			Summary:   "enable uniform bucket-level access",
		},
		{
			CheckID:   "CKV_GCP_114",
			Kind:      SetAttribute,
			Attribute: "public_access_prevention",
			Value:     `"enforced"`,
			Summary:   "enforce public access prevention",
		},
		{
			CheckID:   "CKV_GCP_78",
			Kind:      EnsureBlock,
			Block:     "versioning",
			BlockBody: "enabled = true",
			Summary:   "enable object versioning",
		},
		{
			CheckID:   "CKV_GCP_62",
			Kind:      EnsureBlock,
			Block:     "logging",
			BlockBody: `log_bucket = "access-logs"`,
			Summary:   "enable bucket access logging",
		},
		{
			CheckID:   "CKV_GCP_2",
			Kind:      ReplaceAttribute,
			Attribute: "source_ranges",
			Value:     `["10.0.0.0/8"]`,
			Summary:   "restrict firewall ingress source ranges",
		},
		{
			CheckID:   "CKV_GCP_15",
			Kind:      SetAttribute,
			Attribute: "deletion_protection",
			Value:     "true",
			Summary:   "enable deletion protection",
		},
	}
}

// NewTable builds the strategy table. overridePath optionally points at a
// YAML file whose entries replace or extend the built-in set, keeping the
// table pluggable without a rebuild.
func NewTable(overridePath string) (*Table, error) {
	t := &Table{strategies: make(map[string]Strategy)}
	for _, s := range builtin() {
		t.strategies[s.CheckID] = s
	}

	if overridePath != "" {
		raw, err := os.ReadFile(overridePath)
		if err != nil {
			return nil, fmt.Errorf("read strategy overrides: %w", err)
		}
		var overrides struct {
			Strategies []Strategy `yaml:"strategies"`
		}
		if err := yaml.Unmarshal(raw, &overrides); err != nil {
			return nil, fmt.Errorf("parse strategy overrides: %w", err)
		}
		for _, s := range overrides.Strategies {
			if s.CheckID == "" {
				return nil, fmt.Errorf("strategy override with empty check_id")
			}
			t.strategies[s.CheckID] = s
		}
	}
	return t, nil
}

// Lookup returns the strategy for a check ID.
func (t *Table) Lookup(checkID string) (Strategy, bool) {
	s, ok := t.strategies[checkID]
	return s, ok
}

// CheckIDs returns the allow-list of fixable check IDs, used by the scan
// adapter to compute Finding.Fixable.
func (t *Table) CheckIDs() map[string]bool {
	ids := make(map[string]bool, len(t.strategies))
	for id := range t.strategies {
		ids[id] = true
	}
	return ids
}

// Compute derives the patch for applying s to block. The patch is anchored
// to the block's body byte range, never to line numbers. ok is false when
// the strategy has nothing safe to do (attribute to replace is absent, or
// the nested block already exists).
func (s Strategy) Compute(block parser.DeclarationBlock) (Patch, bool) {
	bodyStart := block.End - 1 - len(block.Body)

	switch s.Kind {
	case SetAttribute:
		if start, end, ok := attrValueRange(block.Body, s.Attribute); ok {
			return Patch{
				File:        block.SourceFile,
				Start:       bodyStart + start,
				End:         bodyStart + end,
				Replacement: s.Value,
				CheckID:     s.CheckID,
			}, true
		}
		return insertionPatch(block, s.CheckID, fmt.Sprintf("  %s = %s\n", s.Attribute, s.Value)), true

	case EnsureBlock:
		present := regexp.MustCompile(`(?m)^\s*` + regexp.QuoteMeta(s.Block) + `\s*\{`).MatchString(block.Body)
		if present {
			return Patch{}, false
		}
		text := fmt.Sprintf("  %s {\n    %s\n  }\n", s.Block, s.BlockBody)
		return insertionPatch(block, s.CheckID, text), true

	case ReplaceAttribute:
		start, end, ok := attrValueRange(block.Body, s.Attribute)
		if !ok {
			return Patch{}, false
		}
		return Patch{
			File:        block.SourceFile,
			Start:       bodyStart + start,
			End:         bodyStart + end,
			Replacement: s.Value,
			CheckID:     s.CheckID,
		}, true
	}
	return Patch{}, false
}

// insertionPatch places text just before the block's closing brace.
func insertionPatch(block parser.DeclarationBlock, checkID, text string) Patch {
	if !strings.HasSuffix(block.Body, "\n") {
		text = "\n" + text
	}
	at := block.End - 1
	return Patch{
		File:        block.SourceFile,
		Start:       at,
		End:         at,
		Replacement: text,
		CheckID:     checkID,
	}
}

// attrValueRange finds a single-line `name = value` attribute at the top
// level of the body and returns the byte range of its value, comments and
// trailing spaces excluded. Identically named attributes inside nested
// blocks are ignored; rewriting those would change the wrong setting.
func attrValueRange(body, name string) (int, int, bool) {
	re := regexp.MustCompile(`(?m)^[ \t]*` + regexp.QuoteMeta(name) + `[ \t]*=[ \t]*(.+)$`)
	for _, m := range re.FindAllStringSubmatchIndex(body, -1) {
		if braceDepth(body, m[0]) != 0 {
			continue
		}
		start, end := m[2], m[3]
		value := body[start:end]
		trimmed := strings.TrimRight(stripComment(value), " \t")
		return start, start + len(trimmed), true
	}
	return 0, 0, false
}

// braceDepth reports the brace nesting depth at pos, ignoring braces
// inside strings and comments.
func braceDepth(body string, pos int) int {
	depth := 0
	inString, inLineComment, inBlockComment, escaped := false, false, false, false
	for i := 0; i < pos && i < len(body); i++ {
		c := body[i]
		switch {
		case inLineComment:
			if c == '\n' {
				inLineComment = false
			}
		case inBlockComment:
			if c == '*' && i+1 < len(body) && body[i+1] == '/' {
				inBlockComment = false
				i++
			}
		case inString:
			if escaped {
				escaped = false
			} else if c == '\\' {
				escaped = true
			} else if c == '"' {
				inString = false
			}
		default:
			switch c {
			case '"':
				inString = true
			case '#':
				inLineComment = true
			case '/':
				if i+1 < len(body) {
					switch body[i+1] {
					case '/':
						inLineComment = true
						i++
					case '*':
						inBlockComment = true
						i++
					}
				}
			case '{':
				depth++
			case '}':
				depth--
			}
		}
	}
	return depth
}

func stripComment(s string) string {
	inString, escaped := false, false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			if escaped {
				escaped = false
			} else if c == '\\' {
				escaped = true
			} else if c == '"' {
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '#':
			return s[:i]
		case '/':
			if i+1 < len(s) && s[i+1] == '/' {
				return s[:i]
			}
		}
	}
	return s
}
