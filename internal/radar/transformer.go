// Package radar turns scored concepts into chart-ready data and renders radar exports.
package radar

import (
	"encoding/json"
	"math"

	"github.com/edgeslab/edges-backend/internal/domain/evaluation"
)

// DefaultColor is used for concepts without an assigned color.
const DefaultColor = "#000000"

// ValueSuffix marks the mirrored annotation key of a series ("Ad A_value").
const ValueSuffix = "_value"

// Row is one criterion of the radar chart. Values holds, for every concept,
// its score under the concept name and again under name+ValueSuffix.
type Row struct {
	Criterion evaluation.Criterion
	Label     string
	Values    map[string]int
}

// Value returns the plotted score of a series, and whether the row has it.
func (r Row) Value(name string) (int, bool) {
	v, ok := r.Values[name]
	return v, ok
}

// MarshalJSON flattens the row into {"criterion": "DARING", "<name>": 6, "<name>_value": 6}.
func (r Row) MarshalJSON() ([]byte, error) {
	flat := make(map[string]any, len(r.Values)+1)
	flat["criterion"] = r.Label
	for k, v := range r.Values {
		flat[k] = v
	}
	return json.Marshal(flat)
}

// Rows returns exactly one row per criterion, in evaluation.Criteria order.
// Concepts sharing a name collapse into one key; the later concept wins.
func Rows(concepts []*evaluation.Concept) []Row {
	rows := make([]Row, 0, len(evaluation.Criteria))
	for _, cr := range evaluation.Criteria {
		row := Row{
			Criterion: cr,
			Label:     cr.Label(),
			Values:    make(map[string]int, len(concepts)*2),
		}
		for _, c := range concepts {
			if c == nil {
				continue
			}
			row.Values[c.Name] = c.Score(cr)
		}
		for _, c := range concepts {
			if c == nil {
				continue
			}
			row.Values[c.Name+ValueSuffix] = c.Score(cr)
		}
		rows = append(rows, row)
	}
	return rows
}

type SeriesConfig struct {
	Color string `json:"color"`
}

// Config maps each concept name to its series color.
func Config(concepts []*evaluation.Concept) map[string]SeriesConfig {
	cfg := make(map[string]SeriesConfig, len(concepts))
	for _, c := range concepts {
		if c == nil {
			continue
		}
		color := c.Color
		if color == "" {
			color = DefaultColor
		}
		cfg[c.Name] = SeriesConfig{Color: color}
	}
	return cfg
}

// Average is the mean score of one criterion across concepts, rounded to one
// decimal place. No concepts averages to 0.
func Average(concepts []*evaluation.Concept, cr evaluation.Criterion) float64 {
	sum, n := 0, 0
	for _, c := range concepts {
		if c == nil {
			continue
		}
		sum += c.Score(cr)
		n++
	}
	if n == 0 {
		return 0
	}
	return math.Round(float64(sum)/float64(n)*10) / 10
}

type CriterionAverage struct {
	Criterion evaluation.Criterion `json:"criterion"`
	Label     string               `json:"label"`
	Average   float64              `json:"average"`
}

// Averages returns Average for every criterion in chart order.
func Averages(concepts []*evaluation.Concept) []CriterionAverage {
	out := make([]CriterionAverage, 0, len(evaluation.Criteria))
	for _, cr := range evaluation.Criteria {
		out = append(out, CriterionAverage{Criterion: cr, Label: cr.Label(), Average: Average(concepts, cr)})
	}
	return out
}
