// Package query implements the query planner (index manager): it holds
// the three sharded indices a query probes and runs spec §4.6's find
// algorithm against them.
//
// Grounded on original_source/src/indexer/index_manager.cpp's query method
// (tokenize, find_sum on word_index, find_intersection on link_index,
// find_group_by on domain_link_index with domain_formula, then a level
// evaluator), adapted onto internal/sharded's facade.
package query

import (
	"math"
	"sort"

	"k8s.io/klog/v2"

	"github.com/alexandriatwo/alexandria/internal/record"
	"github.com/alexandriatwo/alexandria/internal/sharded"
	"github.com/alexandriatwo/alexandria/internal/tokenize"
)

// WordSumTopK is the top_k passed to word_index.find_sum, per spec §4.6
// step 2.
const WordSumTopK = 1000

// QueryTokenVariant is the tokenizer variant used at query time for word-
// and link-index keys. This is an alias of tokenize.IndexVariant, not an
// independent choice: internal/ingest's word- and link-file ingestion use
// the same tokenize.IndexVariant constant directly, so the identical-
// tokenization invariant (spec §3) holds by construction rather than by two
// packages happening to agree.
const QueryTokenVariant = tokenize.IndexVariant

// DocumentResult is one ranked document in a query response.
type DocumentResult struct {
	DocID uint32
	Score float32
}

// Result is the full response to one query: the ranked documents plus the
// domain-level aggregates computed alongside them.
//
// DomainLinks is reported separately from Documents rather than folded into
// each document's score: link_record/word_record carry no field mapping a
// document back to its own domain, so there is no join that would let a
// domain's aggregate authority attach to one specific document without
// inventing data spec.md does not provide. This is the open-question
// resolution recorded in DESIGN.md for step 5's "level evaluator".
type Result struct {
	Documents   []DocumentResult
	DomainLinks []sharded.GroupResult
}

// Manager holds the three sharded indices one query probes.
type Manager struct {
	WordIndex       *sharded.Index
	LinkIndex       *sharded.Index
	DomainLinkIndex *sharded.Index
}

// domainFormula is index_manager.cpp's expm1(25*score)/50, taken verbatim.
func domainFormula(s float32) float32 {
	return float32((math.Exp(25*float64(s)) - 1) / 50)
}

// Find runs spec §4.6's algorithm: tokenize, probe all three indices,
// combine, sort by descending score (ties ascending document id).
func (m *Manager) Find(query string) (*Result, error) {
	terms := tokenize.TokenizeHash(query, QueryTokenVariant)
	klog.V(4).Infof("query: %q -> %d terms", query, len(terms))
	if len(terms) == 0 {
		return &Result{}, nil
	}

	bm25, err := m.WordIndex.FindSum(terms, WordSumTopK)
	if err != nil {
		return nil, err
	}

	links, err := m.LinkIndex.FindIntersection(terms)
	if err != nil {
		return nil, err
	}

	counts := make([]int, len(terms))
	domainLinks, err := m.DomainLinkIndex.FindGroupBy(terms, domainFormula, counts)
	if err != nil {
		return nil, err
	}

	docs := levelEvaluate(bm25, links)
	klog.V(4).Infof("query: %q -> %d documents, %d domain groups", query, len(docs), len(domainLinks))

	return &Result{Documents: docs, DomainLinks: domainLinks}, nil
}

// levelEvaluate combines bm25's per-document term score with link_index's
// inbound-link evidence, keyed by the link's target document, and sorts
// descending by combined score with ties broken by ascending document id.
func levelEvaluate(bm25 []sharded.ScoredRecord, links []record.Record) []DocumentResult {
	scores := make(map[uint32]float32, len(bm25))
	for _, s := range bm25 {
		scores[s.DocID] += s.Sum
	}
	for _, rec := range links {
		lr, ok := rec.(record.LinkRecord)
		if !ok {
			continue
		}
		scores[uint32(lr.TargetHash)] += lr.Score()
	}

	out := make([]DocumentResult, 0, len(scores))
	for id, score := range scores {
		out = append(out, DocumentResult{DocID: id, Score: score})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].DocID < out[j].DocID
	})
	return out
}
