// Package similarity provides the pure scoring functions the comparison
// engine is built on. Every function is total for well-typed input and
// returns a score in [0, 1].
package similarity

import (
	"math"
	"strings"

	"github.com/mcp-eval/engine/pkg/types"
)

const (
	// DefaultMaxNumericDiff is the difference at which numeric similarity
	// reaches zero.
	DefaultMaxNumericDiff = 1000.0

	// DefaultDomainPrefix selects the tool calls that count toward
	// trajectory scoring. Calls without the prefix are agent scratch-tools
	// and are excluded.
	DefaultDomainPrefix = "mcp__"
)

// Scorer computes similarity scores under a fixed configuration. A Scorer is
// immutable after construction and safe for concurrent use.
type Scorer struct {
	maxNumericDiff float64
	domainPrefix   string
}

// NewScorer returns a Scorer. Non-positive maxNumericDiff and an empty
// domainPrefix fall back to the defaults.
func NewScorer(maxNumericDiff float64, domainPrefix string) *Scorer {
	if maxNumericDiff <= 0 {
		maxNumericDiff = DefaultMaxNumericDiff
	}
	if domainPrefix == "" {
		domainPrefix = DefaultDomainPrefix
	}
	return &Scorer{maxNumericDiff: maxNumericDiff, domainPrefix: domainPrefix}
}

// Value scores the similarity of two argument values.
//
// Equal values score 1.0, and exactly one absent value scores 0.0. Same-kind
// values dispatch on the kind: strings use token-set Jaccard, numbers use a
// linear falloff over maxNumericDiff, composites use character-frequency
// cosine over their canonical serialization. Mismatched kinds fall back to
// token similarity of their string forms.
func (s *Scorer) Value(a, b types.Value) float64 {
	if a.Equal(b) {
		return 1.0
	}
	if a.IsAbsent() || b.IsAbsent() {
		return 0.0
	}
	if a.Kind() == types.KindNull || b.Kind() == types.KindNull {
		return 0.0
	}
	if a.Kind() != b.Kind() {
		return TokenSimilarity(a.StringForm(), b.StringForm())
	}

	switch a.Kind() {
	case types.KindString:
		return TokenSimilarity(a.StringVal(), b.StringVal())
	case types.KindNumber:
		return s.numberSimilarity(a.NumberVal(), b.NumberVal())
	case types.KindBool:
		// Booleans compare as 0/1 on the numeric falloff.
		return s.numberSimilarity(boolToFloat(a.BoolVal()), boolToFloat(b.BoolVal()))
	case types.KindArray, types.KindObject:
		return CompositeSimilarity(a, b)
	}
	return TokenSimilarity(a.StringForm(), b.StringForm())
}

// Args scores the similarity of two argument maps: Jaccard similarity of the
// key sets, blended 30/70 with the mean value similarity over common keys.
// With no common keys there are no values to corroborate similarity, so the
// key score alone is halved.
func (s *Scorer) Args(args1, args2 map[string]types.Value) float64 {
	if len(args1) == 0 && len(args2) == 0 {
		return 1.0
	}
	if mapsEqual(args1, args2) {
		return 1.0
	}

	keySim := keySimilarity(args1, args2)

	var common []string
	for k := range args1 {
		if _, ok := args2[k]; ok {
			common = append(common, k)
		}
	}
	if len(common) == 0 {
		return keySim * 0.5
	}

	var sum float64
	for _, k := range common {
		sum += s.Value(args1[k], args2[k])
	}
	meanValueSim := sum / float64(len(common))

	return keySim*0.3 + meanValueSim*0.7
}

// ToolCall scores the similarity of two tool calls. Tool identity is
// load-bearing: different names score exactly 0.0 with no partial credit.
// Equal names score the argument similarity.
func (s *Scorer) ToolCall(c1, c2 *types.ToolCallRecord) float64 {
	name1, name2 := "", ""
	if c1 != nil {
		name1 = c1.ToolName
	}
	if c2 != nil {
		name2 = c2.ToolName
	}
	if name1 != name2 {
		return 0.0
	}
	var in1, in2 map[string]types.Value
	if c1 != nil {
		in1 = c1.ToolInput
	}
	if c2 != nil {
		in2 = c2.ToolInput
	}
	return s.Args(in1, in2)
}

// Trajectory scores two call sequences after filtering both to domain calls.
// Both empty scores 1.0, exactly one empty scores 0.0. Otherwise the shorter
// side is padded with absent positions (scoring 0) and the result is the
// strictly positional mean of per-call similarity: no reordering or
// insertion/deletion alignment is attempted, so one inserted or removed call
// degrades every later position. Deliberate regression-sensitive strictness,
// not an edit-distance match.
func (s *Scorer) Trajectory(current, baseline []types.ToolCallRecord) float64 {
	cur := s.FilterDomain(current)
	base := s.FilterDomain(baseline)

	if len(cur) == 0 && len(base) == 0 {
		return 1.0
	}
	if len(cur) == 0 || len(base) == 0 {
		return 0.0
	}

	maxLen := len(cur)
	if len(base) > maxLen {
		maxLen = len(base)
	}

	var sum float64
	for i := 0; i < maxLen; i++ {
		if i >= len(cur) || i >= len(base) {
			continue // absent counterpart scores 0
		}
		sum += s.ToolCall(&cur[i], &base[i])
	}
	return sum / float64(maxLen)
}

// FilterDomain returns the calls whose name carries the domain prefix.
func (s *Scorer) FilterDomain(calls []types.ToolCallRecord) []types.ToolCallRecord {
	var out []types.ToolCallRecord
	for _, c := range calls {
		if strings.HasPrefix(c.ToolName, s.domainPrefix) {
			out = append(out, c)
		}
	}
	return out
}

// DomainPrefix returns the configured domain namespace prefix.
func (s *Scorer) DomainPrefix() string { return s.domainPrefix }

// TokenSimilarity is the Jaccard similarity of the lower-cased,
// whitespace-split token sets of two strings. Equal strings score 1.0; two
// tokenless strings score 1.0; exactly one tokenless string scores 0.0.
func TokenSimilarity(s1, s2 string) float64 {
	if s1 == s2 {
		return 1.0
	}
	set1 := tokenSet(s1)
	set2 := tokenSet(s2)
	if len(set1) == 0 && len(set2) == 0 {
		return 1.0
	}
	if len(set1) == 0 || len(set2) == 0 {
		return 0.0
	}
	inter := 0
	for t := range set1 {
		if _, ok := set2[t]; ok {
			inter++
		}
	}
	union := len(set1) + len(set2) - inter
	return float64(inter) / float64(union)
}

// CompositeSimilarity approximates structural similarity of two composite
// values as the cosine similarity of character-frequency vectors over their
// canonical (key-sorted) serializations. This is a bounded-cost proxy, not a
// deep diff: two objects with identical key names but very different values
// can score deceptively high. The approximation is preserved as-is because
// every historical baseline comparison is calibrated against it.
func CompositeSimilarity(a, b types.Value) float64 {
	if a.Equal(b) {
		return 1.0
	}
	freq1 := charFrequencies(a.Canonical())
	freq2 := charFrequencies(b.Canonical())
	if len(freq1) == 0 && len(freq2) == 0 {
		return 1.0
	}

	var dot, mag1, mag2 float64
	for ch, n1 := range freq1 {
		n := float64(n1)
		mag1 += n * n
		if n2, ok := freq2[ch]; ok {
			dot += n * float64(n2)
		}
	}
	for _, n2 := range freq2 {
		n := float64(n2)
		mag2 += n * n
	}

	mag1 = math.Sqrt(mag1)
	mag2 = math.Sqrt(mag2)
	if mag1 == 0 || mag2 == 0 {
		return 0.0
	}
	return dot / (mag1 * mag2)
}

func (s *Scorer) numberSimilarity(a, b float64) float64 {
	if a == b {
		return 1.0
	}
	diff := math.Abs(a - b)
	return math.Max(0.0, 1.0-diff/s.maxNumericDiff)
}

func keySimilarity(args1, args2 map[string]types.Value) float64 {
	if len(args1) == 0 && len(args2) == 0 {
		return 1.0
	}
	if len(args1) == 0 || len(args2) == 0 {
		return 0.0
	}
	inter := 0
	for k := range args1 {
		if _, ok := args2[k]; ok {
			inter++
		}
	}
	union := len(args1) + len(args2) - inter
	return float64(inter) / float64(union)
}

func mapsEqual(a, b map[string]types.Value) bool {
	if len(a) != len(b) {
		return false
	}
	for k, av := range a {
		bv, ok := b[k]
		if !ok || !av.Equal(bv) {
			return false
		}
	}
	return true
}

func tokenSet(s string) map[string]struct{} {
	fields := strings.Fields(strings.ToLower(s))
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

func charFrequencies(s string) map[rune]int {
	freq := make(map[rune]int, len(s))
	for _, r := range s {
		freq[r]++
	}
	return freq
}

func boolToFloat(b bool) float64 {
	if b {
		return 1.0
	}
	return 0.0
}
