package config

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// SimplePattern compiles a user-facing name pattern: '*' matches any run of
// characters, '?' exactly one, '.' is literal, everything else keeps its
// regular-expression meaning. The whole input must match.
func SimplePattern(p string) (*regexp.Regexp, error) {
	var b strings.Builder
	b.WriteString("^(?:")
	for i := 0; i < len(p); {
		r, size := utf8.DecodeRuneInString(p[i:])
		switch r {
		case '\\':
			// экранированный символ копируем как есть
			b.WriteByte('\\')
			i += size
			if i < len(p) {
				r, size = utf8.DecodeRuneInString(p[i:])
				b.WriteRune(r)
			} else {
				size = 0
			}
		case '*':
			b.WriteString(".*")
		case '?':
			b.WriteString(".")
		case '.':
			b.WriteString(`\.`)
		default:
			b.WriteRune(r)
		}
		i += size
	}
	b.WriteString(")$")
	re, err := regexp.Compile(b.String())
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", p, err)
	}
	return re, nil
}

// SimplePatterns compiles every pattern, failing on the first invalid one.
func SimplePatterns(ps []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(ps))
	for _, p := range ps {
		re, err := SimplePattern(p)
		if err != nil {
			return nil, err
		}
		out = append(out, re)
	}
	return out, nil
}

// SplitPatterns splits a comma or semicolon separated list as given on the
// command line, dropping blanks.
func SplitPatterns(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ';' })
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}
