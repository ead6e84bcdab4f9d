// Package model defines the value and text-format types shared by the
// storage, feature, and navigation layers of the fabric engine.
//
// # Value types
//
//   - Value: a typed feature value (int or string) or the absent state
//   - Kind: the tag distinguishing int/string/absent
//
// # Text formats
//
//   - TextFormat: a parsed "{g_word_utf8}{trailer_utf8}"-style template
//   - FormatPart: one literal run or one feature alternative in a template
package model
