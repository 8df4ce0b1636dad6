package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/edgeslab/edges-backend/internal/domain/evaluation"
	"github.com/edgeslab/edges-backend/internal/platform/logger"
)

func concept(name, brand string) evaluation.Concept {
	return evaluation.Concept{
		Name:         name,
		Entertaining: 8,
		Daring:       6,
		Gripping:     7,
		Experiential: 9,
		Subversive:   5,
		BrandName:    brand,
	}
}

func TestScoreRange(t *testing.T) {
	svc := NewScoringService(logger.Nop(), 42)
	for i := 0; i < 200; i++ {
		c := svc.Score(ScoreRequest{Name: "Launch Film", AssetURL: "https://cdn.test/a.mp4"})
		for _, cr := range evaluation.Criteria {
			v := c.Score(cr)
			assert.GreaterOrEqual(t, v, 3)
			assert.LessOrEqual(t, v, 9)
		}
		assert.Equal(t, evaluation.SourceAIGenerated, c.Source)
		assert.NoError(t, c.Validate())
	}
}

func TestScoreDefaults(t *testing.T) {
	svc := NewScoringService(logger.Nop(), 7)
	c := svc.Score(ScoreRequest{Name: "   ", BrandName: " Acme "})
	assert.Equal(t, DefaultAssetName, c.Name)
	assert.Equal(t, "Acme", c.BrandName)
}

func TestScoreSeedIsDeterministic(t *testing.T) {
	a := NewScoringService(logger.Nop(), 99).Score(ScoreRequest{Name: "x"})
	b := NewScoringService(logger.Nop(), 99).Score(ScoreRequest{Name: "x"})
	assert.Equal(t, a, b)
}
