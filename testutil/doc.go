// Package testutil provides testing utilities for the fabric engine.
//
// This package is intended for use in tests only. Its main entry point,
// Corpus, builds a small fixed BHSA-shaped store through the real
// cfm.Writer / warp.Compute / cfm.Open pipeline so package tests exercise
// the same load path production code does.
//
//	store, registry := testutil.Corpus(t)
package testutil
