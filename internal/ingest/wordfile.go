package ingest

import (
	"bufio"
	"os"
	"strings"

	"github.com/alexandriatwo/alexandria/internal/errs"
	"github.com/alexandriatwo/alexandria/internal/record"
	"github.com/alexandriatwo/alexandria/internal/tokenize"
)

// wordFileColumns mirrors add_word_file's column selection: column 0 is
// the page URL, columns 1-4 are the text fields tokenized into the word
// index (title, headings, body, anchor text, in original_source's schema).
var wordFileColumns = []int{1, 2, 3, 4}

// IngestWordFile streams a word file (url, col1..col4, tab-separated) into
// w, grounded on original_source/src/indexer/index_manager.cpp's
// add_word_file: every one of columns 1-4 is tokenized with
// tokenize.IndexVariant (the same variant the query planner uses), and
// each surviving word's hash indexes one word_record keyed by the page's
// host hash.
//
// wordsToIndex, when non-empty, restricts indexing to that vocabulary (the
// prefiltered word set original_source builds before a run, words_to_index
// in add_word_file); nil or empty indexes every word. This is the
// IngestWordFile-side resolution of the counted_record(domain_hash) vs.
// word_record{doc_id,score} reconciliation recorded in DESIGN.md: the
// host hash stands in as the record's PrimaryKey (as original_source's own
// counted_record used it), with ScoreVal carrying one unit of term
// occurrence rather than original_source's separate count field.
func (w *Worker) IngestWordFile(path string, resolver URLResolver, wordsToIndex map[uint64]struct{}) error {
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
		_, hostHash := resolver.Resolve(cols[0], cols[0])

		for _, col := range wordFileColumns {
			for _, word := range tokenize.Tokenize(cols[col], tokenize.IndexVariant) {
				wordHash := tokenize.Hash(word)
				if len(wordsToIndex) > 0 {
					if _, ok := wordsToIndex[wordHash]; !ok {
						continue
					}
				}
				rec := record.WordRecord{DocID: hostHash, ScoreVal: 1}
				if err := w.Insert(DBWord, wordHash, rec); err != nil {
					return err
				}
			}
		}
	}
	return sc.Err()
}
