package tokenize

// stopwords is a fixed rejection set for the AlphanumericNoStopwords
// variant. The original pipeline's stopword list is a collaborator outside
// this spec's core (text normalization); this is a representative English
// stopword set sufficient to exercise the variant's filtering behavior.
var stopwords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "as": true, "at": true,
	"be": true, "by": true, "for": true, "from": true, "has": true, "he": true,
	"in": true, "is": true, "it": true, "its": true, "of": true, "on": true,
	"that": true, "the": true, "to": true, "was": true, "were": true, "will": true,
	"with": true,
}
