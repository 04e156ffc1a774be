package metrics

import (
	"strings"

	"github.com/agnivade/levenshtein"

	"conveval/internal/transforms"
)

// Measures holds the error measures between a reference transcript and one
// hypothesis.
type Measures struct {
	WER  float64 `json:"wer"`
	CER  float64 `json:"cer"`
	MER  float64 `json:"mer"`
	WIL  float64 `json:"wil"`
	WIP  float64 `json:"wip"`
	HPER float64 `json:"hper"`
	RPER float64 `json:"rper"`

	UnknownRate float64 `json:"unk_rate"`

	Hits          int `json:"hits"`
	Substitutions int `json:"substitutions"`
	Deletions     int `json:"deletions"`
	Insertions    int `json:"insertions"`
}

// ComputeMeasures scores a hypothesis against the reference using the given
// normalization pipeline. A nil pipeline falls back to the default one. An
// empty reference is scored as a single empty token so that errors on silent
// segments still surface as insertions.
func ComputeMeasures(truth, hypothesis string, pipeline *transforms.Pipeline) Measures {
	if pipeline == nil {
		pipeline = transforms.Default()
	}

	if strings.TrimSpace(truth) == "" && strings.TrimSpace(hypothesis) == "" {
		return Measures{}
	}

	var truthWords []string
	if strings.TrimSpace(truth) == "" {
		truthWords = []string{""}
	} else {
		truthWords = pipeline.Words(truth)
	}
	hypWords := pipeline.Words(hypothesis)

	h, s, d, i := wordAlignment(truthWords, hypWords)

	m := Measures{
		Hits:          h,
		Substitutions: s,
		Deletions:     d,
		Insertions:    i,
	}

	m.WER = float64(s+d+i) / maxFloat(1, float64(h+s+d))
	m.MER = float64(s+d+i) / maxFloat(1, float64(h+s+d+i))
	if len(hypWords) > 0 {
		m.WIP = (float64(h) / float64(len(truthWords))) * (float64(h) / float64(len(hypWords)))
	}
	m.WIL = 1 - m.WIP

	m.HPER, m.RPER = perRates(truthWords, hypWords)
	m.CER = characterErrorRate(truthWords, hypWords)

	unknowns := 0
	for _, w := range hypWords {
		if w == "<unk>" {
			unknowns++
		}
	}
	m.UnknownRate = float64(unknowns) / float64(len(truthWords))

	return m
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

// wordAlignment runs the standard edit-distance recurrence over word
// sequences and backtracks the operation counts: hits, substitutions,
// deletions and insertions relative to the reference.
func wordAlignment(truth, hyp []string) (hits, subs, dels, ins int) {
	n, m := len(truth), len(hyp)

	dist := make([][]int, n+1)
	for i := range dist {
		dist[i] = make([]int, m+1)
		dist[i][0] = i
	}
	for j := 0; j <= m; j++ {
		dist[0][j] = j
	}

	for i := 1; i <= n; i++ {
		for j := 1; j <= m; j++ {
			cost := 1
			if truth[i-1] == hyp[j-1] {
				cost = 0
			}
			best := dist[i-1][j-1] + cost
			if del := dist[i-1][j] + 1; del < best {
				best = del
			}
			if insn := dist[i][j-1] + 1; insn < best {
				best = insn
			}
			dist[i][j] = best
		}
	}

	i, j := n, m
	for i > 0 || j > 0 {
		switch {
		case i > 0 && j > 0 && truth[i-1] == hyp[j-1] && dist[i][j] == dist[i-1][j-1]:
			hits++
			i--
			j--
		case i > 0 && j > 0 && dist[i][j] == dist[i-1][j-1]+1:
			subs++
			i--
			j--
		case i > 0 && dist[i][j] == dist[i-1][j]+1:
			dels++
			i--
		default:
			ins++
			j--
		}
	}
	return hits, subs, dels, ins
}

// perRates computes the hypothesis and reference phone-free word error
// contributions: surplus hypothesis words and missed reference words as
// fractions of the reference length.
func perRates(truth, hyp []string) (hper, rper float64) {
	truthCount := make(map[string]int)
	hypCount := make(map[string]int)
	total := 0
	for _, w := range truth {
		truthCount[w]++
		total++
	}
	for _, w := range hyp {
		hypCount[w]++
	}

	var surplus, missed int
	for w, c := range hypCount {
		if extra := c - truthCount[w]; extra > 0 {
			surplus += extra
		}
	}
	for w, c := range truthCount {
		if missing := c - hypCount[w]; missing > 0 {
			missed += missing
		}
	}

	if total == 0 {
		return float64(surplus), float64(missed)
	}
	return float64(surplus) / float64(total), float64(missed) / float64(total)
}

// characterErrorRate is the character-level edit distance over the joined
// word sequences, normalized by the reference length.
func characterErrorRate(truth, hyp []string) float64 {
	truthStr := strings.Join(truth, " ")
	hypStr := strings.Join(hyp, " ")
	dist := levenshtein.ComputeDistance(truthStr, hypStr)
	return float64(dist) / maxFloat(1, float64(len([]rune(truthStr))))
}

// AggregateMeasures averages measures over transcription alternatives,
// typically the ASR n-best list for one utterance.
func AggregateMeasures(alternatives []Measures) Measures {
	if len(alternatives) == 0 {
		return Measures{}
	}
	var agg Measures
	for _, m := range alternatives {
		agg.WER += m.WER
		agg.CER += m.CER
		agg.MER += m.MER
		agg.WIL += m.WIL
		agg.WIP += m.WIP
		agg.HPER += m.HPER
		agg.RPER += m.RPER
		agg.UnknownRate += m.UnknownRate
		agg.Hits += m.Hits
		agg.Substitutions += m.Substitutions
		agg.Deletions += m.Deletions
		agg.Insertions += m.Insertions
	}
	n := float64(len(alternatives))
	agg.WER /= n
	agg.CER /= n
	agg.MER /= n
	agg.WIL /= n
	agg.WIP /= n
	agg.HPER /= n
	agg.RPER /= n
	agg.UnknownRate /= n
	return agg
}

// FirstK aggregates over the leading k alternatives of an n-best list.
func FirstK(alternatives []Measures, k int) Measures {
	if k > len(alternatives) {
		k = len(alternatives)
	}
	return AggregateMeasures(alternatives[:k])
}
