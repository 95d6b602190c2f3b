package parser

import (
	"regexp"
	"strings"
)

// variableSpec parses the type/default/description sub-attributes of a
// variable block. Absence of an attribute is distinct from an empty value:
// a variable with no default at all is required.
func variableSpec(b DeclarationBlock) VariableSpec {
	spec := VariableSpec{Name: b.TypeName, SourceFile: b.SourceFile}
	if v, ok := bodyAttr(b.Body, "type"); ok {
		spec.Type = v
	}
	if v, ok := bodyAttr(b.Body, "description"); ok {
		spec.Description = unquote(v)
	}
	if v, ok := bodyAttr(b.Body, "default"); ok {
		spec.Default = v
		spec.HasDefault = true
	}
	spec.Required = !spec.HasDefault
	return spec
}

func outputSpec(b DeclarationBlock) OutputSpec {
	spec := OutputSpec{Name: b.TypeName, SourceFile: b.SourceFile}
	if v, ok := bodyAttr(b.Body, "description"); ok {
		spec.Description = unquote(v)
	}
	return spec
}

// bodyAttr finds a `name = value` attribute at the top nesting level of a
// block body. Multi-line values (objects, lists, multi-line strings in
// parentheses) are captured whole by tracking bracket depth until the
// value closes.
func bodyAttr(body, name string) (string, bool) {
	attrRe := regexp.MustCompile(`^\s*` + regexp.QuoteMeta(name) + `\s*=\s*(.*)$`)
	lines := strings.Split(body, "\n")
	depth := 0

	for i := 0; i < len(lines); i++ {
		line := lines[i]
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, "//") {
			continue
		}

		if depth == 0 {
			if m := attrRe.FindStringSubmatch(line); m != nil {
				value := strings.TrimSpace(stripLineComment(m[1]))
				open := bracketDelta(value)
				for open > 0 && i+1 < len(lines) {
					i++
					value += "\n" + lines[i]
					open += bracketDelta(lines[i])
				}
				return strings.TrimSpace(value), true
			}
		}
		depth += bracketDelta(line)
		if depth < 0 {
			depth = 0
		}
	}
	return "", false
}

// bracketDelta counts net brace/bracket nesting on one line, ignoring
// characters inside double-quoted strings and trailing comments.
func bracketDelta(line string) int {
	delta := 0
	inString, escaped := false, false
	for i := 0; i < len(line); i++ {
		c := line[i]
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
			return delta
		case '/':
			if i+1 < len(line) && line[i+1] == '/' {
				return delta
			}
		case '{', '[', '(':
			delta++
		case '}', ']', ')':
			delta--
		}
	}
	return delta
}

func stripLineComment(s string) string {
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

func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}
