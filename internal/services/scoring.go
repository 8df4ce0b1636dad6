package services

import (
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/edgeslab/edges-backend/internal/domain/evaluation"
	"github.com/edgeslab/edges-backend/internal/platform/logger"
)

const (
	DefaultAssetName = "Unnamed Asset"

	aiScoreMin = 3
	aiScoreMax = 9
)

type ScoreRequest struct {
	Name              string `json:"name"`
	AssetURL          string `json:"assetUrl"`
	KPIsObjectives    string `json:"kpisObjectives"`
	AdditionalContext string `json:"additionalContext"`
	BrandName         string `json:"brandName"`
}

// ScoringService rates an asset on every criterion. The current model is a
// stand-in that draws each score uniformly from [3,9].
type ScoringService interface {
	Score(req ScoreRequest) evaluation.Concept
}

type scoringService struct {
	log *logger.Logger
	mu  sync.Mutex
	rng *rand.Rand
}

func NewScoringService(log *logger.Logger, seed int64) ScoringService {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &scoringService{
		log: log.With("service", "ScoringService"),
		rng: rand.New(rand.NewSource(seed)),
	}
}

func (s *scoringService) Score(req ScoreRequest) evaluation.Concept {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = DefaultAssetName
	}
	c := evaluation.Concept{
		Name:              name,
		Source:            evaluation.SourceAIGenerated,
		AssetURL:          strings.TrimSpace(req.AssetURL),
		KPIsObjectives:    req.KPIsObjectives,
		AdditionalContext: req.AdditionalContext,
		BrandName:         strings.TrimSpace(req.BrandName),
	}

	s.mu.Lock()
	c.Entertaining = s.draw()
	c.Daring = s.draw()
	c.Gripping = s.draw()
	c.Experiential = s.draw()
	c.Subversive = s.draw()
	s.mu.Unlock()

	s.log.Debug("asset scored", "name", name, "has_asset_url", c.AssetURL != "")
	return c
}

func (s *scoringService) draw() int {
	return aiScoreMin + s.rng.Intn(aiScoreMax-aiScoreMin+1)
}
