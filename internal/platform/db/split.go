package db

import (
	"strings"
	"unicode"
)

// SplitStatements splits a SQL script into individual statements on
// top-level semicolons. Semicolons inside quoted strings, quoted identifiers,
// comments and dollar-quoted bodies do not end a statement. Statements that
// contain only comments or whitespace are dropped.
func SplitStatements(script string) []string {
	var (
		out     []string
		start   int
		hasCode bool
		depth   int // block comment nesting
	)
	emit := func(end int) {
		if hasCode {
			if stmt := strings.TrimSpace(script[start:end]); stmt != "" {
				out = append(out, stmt)
			}
		}
		hasCode = false
	}

	n := len(script)
	for i := 0; i < n; i++ {
		c := script[i]
		switch {
		case depth > 0:
			if c == '*' && i+1 < n && script[i+1] == '/' {
				depth--
				i++
			} else if c == '/' && i+1 < n && script[i+1] == '*' {
				depth++
				i++
			}
		case c == '-' && i+1 < n && script[i+1] == '-':
			for i < n && script[i] != '\n' {
				i++
			}
		case c == '/' && i+1 < n && script[i+1] == '*':
			depth = 1
			i++
		case c == '\'' || c == '"':
			hasCode = true
			i = skipQuoted(script, i, c, c == '\'' && escapeString(script, i))
		case c == '$':
			hasCode = true
			if i > 0 && isIdentByte(script[i-1]) {
				continue
			}
			if tag, ok := dollarTag(script, i); ok {
				closing := strings.Index(script[i+len(tag):], tag)
				if closing < 0 {
					i = n - 1
				} else {
					i += len(tag) + closing + len(tag) - 1
				}
			}
		case c == ';':
			emit(i)
			start = i + 1
		default:
			if !unicode.IsSpace(rune(c)) {
				hasCode = true
			}
		}
	}
	emit(n)
	return out
}

// skipQuoted returns the index of the closing quote matching script[i].
// Doubled quotes are treated as escapes, and so is any backslash pair when
// backslash is set.
func skipQuoted(script string, i int, quote byte, backslash bool) int {
	for j := i + 1; j < len(script); j++ {
		if backslash && script[j] == '\\' {
			j++
			continue
		}
		if script[j] != quote {
			continue
		}
		if j+1 < len(script) && script[j+1] == quote {
			j++
			continue
		}
		return j
	}
	return len(script) - 1
}

// dollarTag reports the dollar-quote delimiter starting at i, e.g. "$$" or
// "$body$". Positional parameters such as "$1" are not tags.
func dollarTag(script string, i int) (string, bool) {
	j := i + 1
	for j < len(script) {
		c := script[j]
		if c == '$' {
			return script[i : j+1], true
		}
		isLetter := c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
		isDigit := c >= '0' && c <= '9'
		if !isLetter && !(isDigit && j > i+1) {
			return "", false
		}
		j++
	}
	return "", false
}

// escapeString reports whether the quote at i opens an E'...' string.
func escapeString(script string, i int) bool {
	if i == 0 || (script[i-1] != 'E' && script[i-1] != 'e') {
		return false
	}
	return i == 1 || !isIdentByte(script[i-2])
}

// isIdentByte reports whether c may continue an unquoted identifier.
func isIdentByte(c byte) bool {
	return c == '_' || c == '$' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c >= 0x80
}
