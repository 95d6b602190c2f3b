package parser

import (
	"regexp"
	"strings"

	"github.com/Kamalesh-Seervi/gap-terraform-mcp-server/internal/fetch"
)

var blockOpenRe = regexp.MustCompile(`(?m)^(resource|variable|output|provider|module)\s+"([^"]+)"(?:\s+"([^"]+)")?\s*\{`)

// Extract parses a snapshot's declaration files into a ModuleModel.
// Extraction is deterministic: files are visited in snapshot order and
// blocks in byte order, so the same snapshot always yields the same model.
func Extract(snap *fetch.Snapshot) (*ModuleModel, error) {
	model := &ModuleModel{}
	varFiles := make(map[string]string)

	for _, f := range snap.ConfigFiles() {
		blocks, err := extractFile(f.Path, f.Raw)
		if err != nil {
			return nil, err
		}
		for _, b := range blocks {
			switch b.Kind {
			case KindVariable:
				if _, dup := varFiles[b.TypeName]; dup {
					return nil, &ExtractError{Reason: DuplicateSymbol, File: f.Path, Symbol: b.TypeName}
				}
				varFiles[b.TypeName] = f.Path
				model.Inputs = append(model.Inputs, variableSpec(b))
			case KindOutput:
				model.Outputs = append(model.Outputs, outputSpec(b))
			default:
				model.Resources = append(model.Resources, b)
			}
		}
	}

	if readme, ok := snap.ReadmeFile(); ok {
		model.Readme = readme.Raw
		model.DocTitle = firstHeading(readme.Raw)
	}
	return model, nil
}

// extractFile locates every top-level declaration block in one file.
// The brace balance of the whole file is validated first so that matching
// braces are guaranteed to exist for each block.
func extractFile(path, content string) ([]DeclarationBlock, error) {
	if line, ok := validateBraces(content); !ok {
		return nil, &ExtractError{Reason: Malformed, File: path, Line: line}
	}

	var blocks []DeclarationBlock
	cursor := 0
	for _, loc := range blockOpenRe.FindAllStringSubmatchIndex(content, -1) {
		if loc[0] < cursor {
			// Inside the body of a previously captured block; the
			// brace-depth walk below already consumed it.
			continue
		}
		kind := BlockKind(content[loc[2]:loc[3]])
		first := content[loc[4]:loc[5]]
		second := ""
		if loc[6] >= 0 {
			second = content[loc[6]:loc[7]]
		}
		if kind == KindResource && second == "" {
			return nil, &ExtractError{Reason: Malformed, File: path, Line: lineAt(content, loc[0])}
		}

		open := loc[1] - 1 // the regex ends at the opening brace
		close := matchingBrace(content, open)
		if close < 0 {
			return nil, &ExtractError{Reason: Malformed, File: path, Line: lineAt(content, open)}
		}

		typeName, instance := first, second
		if kind != KindResource {
			instance = ""
			typeName = first
		}
		blocks = append(blocks, DeclarationBlock{
			Kind:         kind,
			TypeName:     typeName,
			InstanceName: instance,
			Body:         content[open+1 : close],
			SourceFile:   path,
			Start:        loc[0],
			End:          close + 1,
		})
		cursor = close + 1
	}
	return blocks, nil
}

// validateBraces walks the file once, tracking brace depth outside strings
// and comments. It reports the approximate line of the first imbalance.
func validateBraces(content string) (int, bool) {
	depth := 0
	lastOpen := 0
	inString, inLineComment, inBlockComment, escaped := false, false, false, false

	for i := 0; i < len(content); i++ {
		c := content[i]
		switch {
		case inLineComment:
			if c == '\n' {
				inLineComment = false
			}
		case inBlockComment:
			if c == '*' && i+1 < len(content) && content[i+1] == '/' {
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
				if i+1 < len(content) {
					switch content[i+1] {
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
				lastOpen = i
			case '}':
				depth--
				if depth < 0 {
					return lineAt(content, i), false
				}
			}
		}
	}
	if depth != 0 {
		return lineAt(content, lastOpen), false
	}
	return 0, true
}

// matchingBrace returns the index of the brace closing the one at open,
// or -1. String and comment content is ignored during the walk.
func matchingBrace(content string, open int) int {
	depth := 0
	inString, inLineComment, inBlockComment, escaped := false, false, false, false

	for i := open; i < len(content); i++ {
		c := content[i]
		switch {
		case inLineComment:
			if c == '\n' {
				inLineComment = false
			}
		case inBlockComment:
			if c == '*' && i+1 < len(content) && content[i+1] == '/' {
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
				if i+1 < len(content) {
					switch content[i+1] {
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
				if depth == 0 {
					return i
				}
			}
		}
	}
	return -1
}

func lineAt(content string, pos int) int {
	if pos > len(content) {
		pos = len(content)
	}
	return strings.Count(content[:pos], "\n") + 1
}

func firstHeading(readme string) string {
	for _, line := range strings.Split(readme, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# ") {
			return strings.TrimSpace(strings.TrimPrefix(trimmed, "# "))
		}
	}
	return ""
}
