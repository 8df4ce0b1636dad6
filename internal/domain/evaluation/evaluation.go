package evaluation

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Evaluation is the persisted row of a concept in the evaluations table.
type Evaluation struct {
	ID                uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID            uuid.UUID `gorm:"type:uuid;not null;index;column:user_id" json:"user_id"`
	ConceptName       string    `gorm:"not null;column:concept_name" json:"concept_name"`
	Entertaining      int       `gorm:"not null;column:entertaining" json:"entertaining"`
	Daring            int       `gorm:"not null;column:daring" json:"daring"`
	Gripping          int       `gorm:"not null;column:gripping" json:"gripping"`
	Experiential      int       `gorm:"not null;column:experiential" json:"experiential"`
	Subversive        int       `gorm:"not null;column:subversive" json:"subversive"`
	Color             string    `gorm:"column:color" json:"color"`
	Source            string    `gorm:"not null;default:manual;column:source" json:"source"`
	AssetURL          string    `gorm:"column:asset_url" json:"asset_url"`
	KPIsObjectives    string    `gorm:"column:kpis_objectives" json:"kpis_objectives"`
	AdditionalContext string    `gorm:"column:additional_context" json:"additional_context"`
	BrandName         string    `gorm:"column:brand_name;index" json:"brand_name"`
	CreatedAt         time.Time `gorm:"not null;autoCreateTime;index" json:"created_at"`
}

func (Evaluation) TableName() string { return "evaluations" }

func (e *Evaluation) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// FromConcept maps a concept to the row shape owned by userID.
func FromConcept(userID uuid.UUID, c *Concept) *Evaluation {
	source := c.Source
	if source == "" {
		source = SourceManual
	}
	return &Evaluation{
		UserID:            userID,
		ConceptName:       c.Name,
		Entertaining:      c.Entertaining,
		Daring:            c.Daring,
		Gripping:          c.Gripping,
		Experiential:      c.Experiential,
		Subversive:        c.Subversive,
		Color:             c.Color,
		Source:            string(source),
		AssetURL:          c.AssetURL,
		KPIsObjectives:    c.KPIsObjectives,
		AdditionalContext: c.AdditionalContext,
		BrandName:         c.BrandName,
	}
}

// ToConcept maps a persisted row back to a concept.
func (e *Evaluation) ToConcept() *Concept {
	return &Concept{
		Name:              e.ConceptName,
		Entertaining:      e.Entertaining,
		Daring:            e.Daring,
		Gripping:          e.Gripping,
		Experiential:      e.Experiential,
		Subversive:        e.Subversive,
		Color:             e.Color,
		Source:            Source(e.Source),
		AssetURL:          e.AssetURL,
		KPIsObjectives:    e.KPIsObjectives,
		AdditionalContext: e.AdditionalContext,
		BrandName:         e.BrandName,
	}
}
