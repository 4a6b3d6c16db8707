// Package tokenize implements the tokenizer contract shared by build and
// query time: lowercase, split, trim, filter, and hash. Any divergence
// between build-time and query-time tokenization corrupts results, so this
// package exposes exactly one code path for each variant and both the
// builder and the query planner call into it.
//
// Grounded on original_source/src/abstract/TextBase.h's
// ltrim/rtrim/clean_word/get_words/get_full_text_words family, reworked
// from byte-oriented C++ string scanning into idiomatic Go rune handling,
// and on compactindexsized/compactindex.go's xxhash-based hashing
// (github.com/rpcpool/yellowstone-faithful) for the stable 64-bit word
// hash.
package tokenize

import (
	"strings"
	"unicode/utf8"

	"github.com/cespare/xxhash/v2"
)

// MaxWordLen is the maximum token length in bytes after trimming, per
// original_source's CC_MAX_WORD_LEN.
const MaxWordLen = 30

const splitChars = " \t,|!"

// Variant selects which filter a token must pass to survive tokenization.
type Variant int

const (
	// Alphanumeric keeps only tokens made of [a-z0-9] plus å, ä, ö.
	Alphanumeric Variant = iota
	// FullText keeps any non-empty, valid-UTF8 token.
	FullText
	// AlphanumericNoStopwords is Alphanumeric with stopword rejection.
	AlphanumericNoStopwords
)

// Tokenize splits s per the tokenizer contract (§4.7) and returns the
// surviving tokens in order. It is pure and deterministic: the same input
// always yields the same output, independent of process state.
func Tokenize(s string, v Variant) []string {
	var out []string
	for _, field := range splitOnAny(s, splitChars) {
		tok := trim(field)
		if tok == "" || len(tok) > MaxWordLen {
			continue
		}
		tok = strings.ToLower(tok)
		switch v {
		case Alphanumeric:
			if !isClean(tok) {
				continue
			}
		case AlphanumericNoStopwords:
			if !isClean(tok) || stopwords[tok] {
				continue
			}
		case FullText:
			if !utf8.ValidString(tok) {
				continue
			}
		}
		out = append(out, tok)
	}
	return out
}

// IndexVariant is the single Variant used for every word- and link-index
// key, at both ingest and query time. Spec §3's "tokenization at build and
// query time is byte-for-byte identical" invariant only holds if ingest and
// query share this one literal rather than each picking their own: a word
// that is a stopword, or that contains punctuation isClean rejects, would
// otherwise be indexed under a hash the query side can never reproduce.
// Alphanumeric-with-stopwords is chosen so common terms ("the", "and")
// neither bloat postings nor skew bm25.
const IndexVariant = AlphanumericNoStopwords

// Hash returns token's stable 64-bit hash. The hash depends only on the
// token's bytes, never on process state.
func Hash(token string) uint64 {
	return xxhash.Sum64String(token)
}

// TokenizeHash is a convenience that tokenizes and hashes in one pass,
// which is what both build-time insertion and query-time probing do.
func TokenizeHash(s string, v Variant) []uint64 {
	toks := Tokenize(s, v)
	hashes := make([]uint64, len(toks))
	for i, t := range toks {
		hashes[i] = Hash(t)
	}
	return hashes
}

func splitOnAny(s string, chars string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return strings.ContainsRune(chars, r)
	})
}

// trim strips leading/trailing whitespace and punctuation, mirroring
// TextBase.h's ltrim/rtrim (isspace + ispunct).
func trim(s string) string {
	return strings.TrimFunc(s, func(r rune) bool {
		return isSpaceASCII(r) || isPunctASCII(r)
	})
}

func isSpaceASCII(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}

func isPunctASCII(r rune) bool {
	return r < utf8.RuneSelf && strings.ContainsRune("!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~", r)
}

// isClean reports whether every rune in s is [a-z0-9] or one of å, ä, ö,
// per TextBase.h's is_clean_word / IS_MULTIBYTE handling.
func isClean(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !isCleanChar(r) {
			return false
		}
	}
	return true
}

func isCleanChar(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z':
		return true
	case r >= '0' && r <= '9':
		return true
	case r == 'å' || r == 'ä' || r == 'ö':
		return true
	}
	return false
}
