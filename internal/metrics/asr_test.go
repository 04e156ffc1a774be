package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"conveval/internal/transforms"
)

func TestComputeMeasuresWER(t *testing.T) {
	tests := []struct {
		name  string
		truth string
		hyp   string
		wer   float64
	}{
		{"both empty", "", "", 0},
		{"single substitution", "a", "b", 1},
		{"single deletion", "a b", "b", 0.5},
		{"exact match", "hello world", "hello world", 0},
		{"everything wrong", "hello world", "errr", 1},
		{"insertion", "hello world", "hello that world", 0.5},
		{"empty reference", "", "hello", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := ComputeMeasures(tt.truth, tt.hyp, nil)
			assert.InDelta(t, tt.wer, m.WER, 1e-9)
		})
	}
}

func TestComputeMeasuresAlignment(t *testing.T) {
	tests := []struct {
		name             string
		truth            string
		hyp              string
		hits, subs       int
		dels, insertions int
	}{
		{"exact", "hello world", "hello world", 2, 0, 0, 0},
		{"dropped word", "hello world", "hello", 1, 0, 1, 0},
		{"garbled", "hello world", "errr", 0, 1, 1, 0},
		{"extra word", "hello world", "hello that world", 2, 0, 0, 1},
		{"substituted word", "hello world", "hola world", 1, 1, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := ComputeMeasures(tt.truth, tt.hyp, nil)
			assert.Equal(t, tt.hits, m.Hits, "hits")
			assert.Equal(t, tt.subs, m.Substitutions, "substitutions")
			assert.Equal(t, tt.dels, m.Deletions, "deletions")
			assert.Equal(t, tt.insertions, m.Insertions, "insertions")
		})
	}
}

func TestComputeMeasuresDerivedRates(t *testing.T) {
	m := ComputeMeasures("hello world", "hello", nil)
	assert.InDelta(t, 0.5, m.WIP, 1e-9)
	assert.InDelta(t, 0.5, m.WIL, 1e-9)
	assert.InDelta(t, 6.0/11.0, m.CER, 1e-9)

	m = ComputeMeasures("hello world", "hello that world", nil)
	assert.InDelta(t, 1.0/3.0, m.MER, 1e-9)

	m = ComputeMeasures("hello world", "hola world", nil)
	assert.InDelta(t, 0.5, m.HPER, 1e-9)
	assert.InDelta(t, 0.5, m.RPER, 1e-9)
}

func TestComputeMeasuresUnknownRate(t *testing.T) {
	m := ComputeMeasures("hello world", "<unk> world", nil)
	assert.InDelta(t, 0.5, m.UnknownRate, 1e-9)
}

func TestComputeMeasuresNormalizes(t *testing.T) {
	m := ComputeMeasures("Hello   WORLD", "hello world", nil)
	assert.Equal(t, 0.0, m.WER)
	assert.Equal(t, 2, m.Hits)
}

func TestComputeMeasuresCustomPipeline(t *testing.T) {
	pipeline := transforms.Compose(
		transforms.ToLowerCase,
		transforms.RemoveKaldiNonWords,
		transforms.RemoveMultipleSpaces,
		transforms.Strip,
	)
	m := ComputeMeasures("hello world", "[noise] hello world", pipeline)
	assert.Equal(t, 0.0, m.WER)
}

func TestAggregateMeasures(t *testing.T) {
	alts := []Measures{
		{WER: 0.5, CER: 0.2, Hits: 1, Deletions: 1},
		{WER: 1.0, CER: 0.4, Hits: 0, Substitutions: 2},
	}

	agg := AggregateMeasures(alts)
	assert.InDelta(t, 0.75, agg.WER, 1e-9)
	assert.InDelta(t, 0.3, agg.CER, 1e-9)
	assert.Equal(t, 1, agg.Hits)
	assert.Equal(t, 2, agg.Substitutions)
	assert.Equal(t, 1, agg.Deletions)
}

func TestAggregateMeasuresEmpty(t *testing.T) {
	assert.Equal(t, Measures{}, AggregateMeasures(nil))
}

func TestFirstK(t *testing.T) {
	alts := []Measures{{WER: 0.0}, {WER: 1.0}, {WER: 1.0}}

	assert.Equal(t, 0.0, FirstK(alts, 1).WER)
	assert.InDelta(t, 0.5, FirstK(alts, 2).WER, 1e-9)
	assert.InDelta(t, 2.0/3.0, FirstK(alts, 5).WER, 1e-9)
}
