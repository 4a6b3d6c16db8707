package ingest

import (
	"bufio"
	"os"
	"strings"

	"github.com/alexandriatwo/alexandria/internal/errs"
	"github.com/alexandriatwo/alexandria/internal/record"
	"github.com/alexandriatwo/alexandria/internal/tokenize"
)

// LinkFileTextColumn is the 0-based column holding the link's anchor/
// surrounding text, per original_source's col_values[4].
const LinkFileTextColumn = 4

// IngestLinkFile streams a link file (source_url, source_raw, target_url,
// target_raw, link_text, tab-separated) into w, grounded on
// original_source/src/indexer/index_manager.cpp's add_link_file:
//
//   - domainsToIndex, when non-empty, drops links whose target host isn't
//     in the set (the domain prefilter original_source applies before
//     building a run).
//   - link_text is truncated to linkTextMaxBytes, matching
//     col_values[4].substr(0, 1000).
//   - every word tokenized out of link_text indexes one domain_link_record
//     unconditionally, and one link_record only when the target URL is in
//     urlsToIndex (nil/empty means index every target), matching
//     add_link_file's two-tier "link_record iff target is itself an
//     indexed document" rule.
func (w *Worker) IngestLinkFile(
	path string,
	resolver URLResolver,
	harmonic HarmonicScorer,
	hasher LinkHasher,
	linkTextMaxBytes int,
	domainsToIndex map[uint64]struct{},
	urlsToIndex map[uint64]struct{},
) error {
	if linkTextMaxBytes <= 0 {
		linkTextMaxBytes = 1000
	}

	f, err := os.Open(path)
	if err != nil {
		return errs.Io(path, 0, err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			continue
		}
		cols := strings.Split(line, "\t")
		if len(cols) < 5 {
			continue
		}

		targetURLHash, targetHostHash := resolver.Resolve(cols[2], cols[3])
		if len(domainsToIndex) > 0 {
			if _, ok := domainsToIndex[targetHostHash]; !ok {
				continue
			}
		}
		sourceURLHash, sourceHostHash := resolver.Resolve(cols[0], cols[1])
		sourceScore := harmonic.Score(sourceHostHash)

		linkText := cols[LinkFileTextColumn]
		if len(linkText) > linkTextMaxBytes {
			linkText = linkText[:linkTextMaxBytes]
		}

		linkHash := hasher.LinkHash(sourceURLHash, targetURLHash, linkText)
		domainLinkHash := hasher.DomainLinkHash(sourceHostHash, targetHostHash, linkText)

		indexTargetURL := len(urlsToIndex) == 0
		if !indexTargetURL {
			_, indexTargetURL = urlsToIndex[targetURLHash]
		}

		for _, word := range tokenize.Tokenize(linkText, tokenize.IndexVariant) {
			wordHash := tokenize.Hash(word)

			if indexTargetURL {
				linkRec := record.LinkRecord{
					LinkHash:     linkHash,
					ScoreVal:     sourceScore,
					SourceDomain: sourceHostHash,
					TargetHash:   targetURLHash,
				}
				if err := w.Insert(DBLink, wordHash, linkRec); err != nil {
					return err
				}
			}

			domainRec := record.DomainLinkRecord{
				LinkHash:     domainLinkHash,
				ScoreVal:     sourceScore,
				SourceDomain: sourceHostHash,
				TargetDomain: targetHostHash,
			}
			if err := w.Insert(DBDomainLink, wordHash, domainRec); err != nil {
				return err
			}
		}
	}
	return sc.Err()
}
