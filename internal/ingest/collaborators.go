package ingest

import (
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// URLResolver is the out-of-scope "URL parsing and hashing" collaborator
// (spec §1's non-goals): it turns one TSV column pair (a canonical URL and
// its raw/original form, as original_source's two-column URL encoding
// carries) into a stable url hash and host hash. Production deployments
// are expected to supply their own resolver backed by a real URL library;
// DefaultURLResolver is a minimal stand-in sufficient for tests.
type URLResolver interface {
	Resolve(url, raw string) (urlHash, hostHash uint64)
}

// HarmonicScorer is the out-of-scope harmonic-centrality collaborator: it
// looks up a precomputed authority score for a host. DefaultHarmonicScorer
// is a constant stand-in; a real deployment wires the centrality pipeline
// original_source treats as an external input.
type HarmonicScorer interface {
	Score(hostHash uint64) float32
}

// LinkHasher derives the link_hash and domain_link_hash primary keys a
// link record is stored under, from the endpoints and link text
// original_source's add_link_file hashes per source URL.
type LinkHasher interface {
	LinkHash(sourceURLHash, targetURLHash uint64, linkText string) uint64
	DomainLinkHash(sourceHostHash, targetHostHash uint64, linkText string) uint64
}

type hashURLResolver struct{}

// Resolve extracts a host from url by stripping any scheme and path, then
// hashes both the full url and the host with xxhash. This is not a
// conformant URL parser; it exists only so ingestion has a usable default
// when no real resolver is supplied.
func (hashURLResolver) Resolve(url, raw string) (uint64, uint64) {
	host := url
	if i := strings.Index(host, "://"); i >= 0 {
		host = host[i+3:]
	}
	if i := strings.IndexByte(host, '/'); i >= 0 {
		host = host[:i]
	}
	return xxhash.Sum64String(url), xxhash.Sum64String(host)
}

// DefaultURLResolver is the stand-in URLResolver used when ingestion isn't
// given a production implementation.
var DefaultURLResolver URLResolver = hashURLResolver{}

type constantHarmonicScorer struct{ score float32 }

func (c constantHarmonicScorer) Score(uint64) float32 { return c.score }

// DefaultHarmonicScorer reports a constant score for every host.
var DefaultHarmonicScorer HarmonicScorer = constantHarmonicScorer{score: 1}

type xxhashLinkHasher struct{}

func (xxhashLinkHasher) LinkHash(sourceURLHash, targetURLHash uint64, linkText string) uint64 {
	return xxhash.Sum64String(fmt.Sprintf("%d:%d:%s", sourceURLHash, targetURLHash, linkText))
}

func (xxhashLinkHasher) DomainLinkHash(sourceHostHash, targetHostHash uint64, linkText string) uint64 {
	return xxhash.Sum64String(fmt.Sprintf("%d:%d:%s", sourceHostHash, targetHostHash, linkText))
}

// DefaultLinkHasher is the stand-in LinkHasher used when ingestion isn't
// given a production implementation.
var DefaultLinkHasher LinkHasher = xxhashLinkHasher{}
