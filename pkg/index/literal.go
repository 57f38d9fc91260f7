package index

import (
	"sort"
	"strings"

	minhashlsh "github.com/ekzhu/minhash-lsh"
	"go.uber.org/zap"

	"github.com/sqlink-ai/sqlink-engine/pkg/models"
)

// LiteralIndex finds columns whose sampled values could contain a query
// literal. Candidates come from a Jaccard-threshold LSH over MinHash
// signatures; a case-insensitive substring scan over the stored samples
// backstops the LSH, which misses short strings.
type LiteralIndex struct {
	numPermutations int
	threshold       float64
	logger          *zap.Logger

	lsh        *minhashlsh.MinhashLSH
	signatures map[string][]uint64
	samples    map[string][]string
	keys       []string
}

// NewLiteralIndex creates an empty literal index. Build must run before
// queries return anything.
func NewLiteralIndex(numPermutations int, threshold float64, logger *zap.Logger) *LiteralIndex {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LiteralIndex{
		numPermutations: numPermutations,
		threshold:       threshold,
		logger:          logger.Named("literal-index"),
		signatures:      make(map[string][]uint64),
		samples:         make(map[string][]string),
	}
}

// Build indexes the sampled values of every profiled column. A column whose
// profile carries a signature of the right size is inserted as-is; otherwise
// the signature is computed from its sampled values. Columns without sampled
// values contribute nothing and are never returned by queries. Build
// replaces any previous contents.
func (ix *LiteralIndex) Build(profiles []*models.ColumnProfile) {
	ix.lsh = minhashlsh.NewMinhashLSH16(ix.numPermutations, ix.threshold, len(profiles))
	ix.signatures = make(map[string][]uint64, len(profiles))
	ix.samples = make(map[string][]string, len(profiles))
	ix.keys = nil

	for _, profile := range profiles {
		values := profile.SampleValues()
		if len(values) == 0 {
			continue
		}

		key := profile.Key()
		signature := profile.MinHashSignature
		if len(signature) != ix.numPermutations {
			signature = ComputeSignature(values, ix.numPermutations)
		}

		ix.lsh.Add(key, signature)
		ix.signatures[key] = signature
		ix.samples[key] = values
		ix.keys = append(ix.keys, key)
	}
	ix.lsh.Index()

	ix.logger.Debug("Literal index built",
		zap.Int("profiles", len(profiles)),
		zap.Int("indexed", len(ix.keys)))
}

// Len returns the number of indexed columns.
func (ix *LiteralIndex) Len() int {
	return len(ix.keys)
}

// QueryLiteral returns the keys of columns that could contain the literal,
// sorted. An empty literal matches nothing.
func (ix *LiteralIndex) QueryLiteral(literal string) []string {
	if literal == "" || ix.lsh == nil {
		return nil
	}

	matched := make(map[string]bool)

	signature := ComputeSignature([]string{literal}, ix.numPermutations)
	for _, candidate := range ix.lsh.Query(signature) {
		key, ok := candidate.(string)
		if !ok {
			continue
		}
		// The banded lookup over-approximates; keep only candidates whose
		// estimated similarity clears the threshold.
		if EstimateJaccard(signature, ix.signatures[key]) >= ix.threshold {
			matched[key] = true
		}
	}

	lowered := strings.ToLower(literal)
	for _, key := range ix.keys {
		if matched[key] {
			continue
		}
		for _, sample := range ix.samples[key] {
			if strings.Contains(strings.ToLower(sample), lowered) {
				matched[key] = true
				break
			}
		}
	}

	keys := make([]string, 0, len(matched))
	for key := range matched {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
