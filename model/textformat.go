package model

import "strings"

// FormatPart is one element of a parsed TextFormat: either a literal run of
// bytes (preserved byte-exactly, including trailing whitespace) or a
// feature reference with optional fallback alternatives ("{a/b}" meaning
// "a if present, else b").
type FormatPart struct {
	Literal  string   // non-empty iff this part is a literal run
	Features []string // non-empty iff this part is a feature reference; tried in order
}

// TextFormat is a parsed named text template, e.g. "{g_word_utf8}{trailer_utf8}".
type TextFormat struct {
	Name  string
	Parts []FormatPart
}

// ParseTextFormat parses a template string of the form used by meta.json's
// declared text formats: literal characters interleaved with "{feature}"
// or "{a/b}" alternative groups.
func ParseTextFormat(name, template string) TextFormat {
	tf := TextFormat{Name: name}
	var lit strings.Builder

	flushLiteral := func() {
		if lit.Len() > 0 {
			tf.Parts = append(tf.Parts, FormatPart{Literal: lit.String()})
			lit.Reset()
		}
	}

	runes := []rune(template)
	for i := 0; i < len(runes); i++ {
		c := runes[i]
		if c != '{' {
			lit.WriteRune(c)
			continue
		}
		end := i + 1
		for end < len(runes) && runes[end] != '}' {
			end++
		}
		if end >= len(runes) {
			// Unterminated "{": treat the rest as literal text.
			lit.WriteRune(c)
			continue
		}
		flushLiteral()
		inner := string(runes[i+1 : end])
		tf.Parts = append(tf.Parts, FormatPart{Features: strings.Split(inner, "/")})
		i = end
	}
	flushLiteral()
	return tf
}
