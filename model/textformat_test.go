package model_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/context-fabric/fabric/model"
)

func TestParseTextFormatLiteralAndFeature(t *testing.T) {
	tf := model.ParseTextFormat("text-orig-full", "{g_word_utf8}{trailer_utf8}")
	assert.Equal(t, []model.FormatPart{
		{Features: []string{"g_word_utf8"}},
		{Features: []string{"trailer_utf8"}},
	}, tf.Parts)
}

func TestParseTextFormatAlternatives(t *testing.T) {
	tf := model.ParseTextFormat("alt", "{lex_utf8/g_word_utf8} ")
	assert.Equal(t, []model.FormatPart{
		{Features: []string{"lex_utf8", "g_word_utf8"}},
		{Literal: " "},
	}, tf.Parts)
}

func TestParseTextFormatPreservesLiteralWhitespace(t *testing.T) {
	tf := model.ParseTextFormat("ws", "{a}  {b}\n")
	assert.Equal(t, []model.FormatPart{
		{Features: []string{"a"}},
		{Literal: "  "},
		{Features: []string{"b"}},
		{Literal: "\n"},
	}, tf.Parts)
}

func TestParseTextFormatUnterminatedBraceIsLiteral(t *testing.T) {
	tf := model.ParseTextFormat("broken", "abc{def")
	assert.Equal(t, []model.FormatPart{
		{Literal: "abc{def"},
	}, tf.Parts)
}
