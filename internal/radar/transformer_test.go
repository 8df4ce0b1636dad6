package radar

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgeslab/edges-backend/internal/domain/evaluation"
)

func concept(name string, e, d, g, x, s int) *evaluation.Concept {
	return &evaluation.Concept{Name: name, Entertaining: e, Daring: d, Gripping: g, Experiential: x, Subversive: s}
}

func TestRowsEmptyListHasFiveBareRows(t *testing.T) {
	rows := Rows(nil)
	require.Len(t, rows, 5)
	for i, row := range rows {
		assert.Equal(t, evaluation.Criteria[i], row.Criterion)
		assert.Empty(t, row.Values)
	}
}

func TestRowsOrderAndShadowValues(t *testing.T) {
	concepts := []*evaluation.Concept{
		concept("Ad A", 8, 6, 7, 9, 5),
		concept("Ad B", 3, 4, 5, 6, 7),
	}
	rows := Rows(concepts)
	require.Len(t, rows, 5)

	labels := []string{}
	for _, row := range rows {
		labels = append(labels, row.Label)
		assert.Len(t, row.Values, 4)
		for _, c := range concepts {
			v, ok := row.Value(c.Name)
			require.True(t, ok)
			assert.Equal(t, c.Score(row.Criterion), v)
			assert.Equal(t, v, row.Values[c.Name+ValueSuffix])
		}
	}
	assert.Equal(t, []string{"ENTERTAINING", "DARING", "GRIPPING", "EXPERIENTIAL", "SUBVERSIVE"}, labels)
}

func TestRowsDuplicateNamesLastWriteWins(t *testing.T) {
	rows := Rows([]*evaluation.Concept{
		concept("Same", 1, 1, 1, 1, 1),
		concept("Same", 9, 9, 9, 9, 9),
	})
	for _, row := range rows {
		assert.Len(t, row.Values, 2)
		assert.Equal(t, 9, row.Values["Same"])
		assert.Equal(t, 9, row.Values["Same_value"])
	}
}

func TestRowsIsIdempotent(t *testing.T) {
	concepts := []*evaluation.Concept{concept("Ad A", 8, 6, 7, 9, 5)}
	assert.Equal(t, Rows(concepts), Rows(concepts))
	assert.Equal(t, 8, concepts[0].Entertaining)
}

func TestRowMarshalJSONIsFlat(t *testing.T) {
	rows := Rows([]*evaluation.Concept{concept("Ad A", 8, 6, 7, 9, 5)})
	raw, err := json.Marshal(rows[1])
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, map[string]any{"criterion": "DARING", "Ad A": float64(6), "Ad A_value": float64(6)}, got)
}

func TestConfigDefaultsColor(t *testing.T) {
	a := concept("Ad A", 1, 1, 1, 1, 1)
	a.Color = "#3B82F6"
	b := concept("Ad B", 1, 1, 1, 1, 1)

	cfg := Config([]*evaluation.Concept{a, b})
	assert.Equal(t, "#3B82F6", cfg["Ad A"].Color)
	assert.Equal(t, DefaultColor, cfg["Ad B"].Color)
}

func TestAverage(t *testing.T) {
	withScores := func(scores ...int) []*evaluation.Concept {
		out := []*evaluation.Concept{}
		for _, s := range scores {
			out = append(out, concept("c", s, 1, 1, 1, 1))
		}
		return out
	}
	assert.Equal(t, 7.0, Average(withScores(7, 7, 7), evaluation.Entertaining))
	assert.Equal(t, 0.0, Average(nil, evaluation.Entertaining))
	assert.Equal(t, 5.5, Average(withScores(1, 10), evaluation.Entertaining))
	assert.Equal(t, 6.7, Average(withScores(6, 7, 7), evaluation.Entertaining))
}

func TestAveragesFollowCriteriaOrder(t *testing.T) {
	avgs := Averages([]*evaluation.Concept{concept("a", 2, 4, 6, 8, 10), concept("b", 4, 4, 4, 4, 4)})
	require.Len(t, avgs, 5)
	assert.Equal(t, []float64{3, 4, 5, 6, 7}, []float64{avgs[0].Average, avgs[1].Average, avgs[2].Average, avgs[3].Average, avgs[4].Average})
	assert.Equal(t, "SUBVERSIVE", avgs[4].Label)
}
