package evaluation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Source records how a concept's scores were produced. Display only.
type Source string

const (
	SourceManual      Source = "manual"
	SourceAIGenerated Source = "ai-generated"
)

// ErrInvalidConcept wraps every validation failure returned by Concept.Validate.
var ErrInvalidConcept = errors.New("invalid concept")

// Concept is a scored creative asset. Scores are immutable once created; only
// the name may change, and a rename produces a new value (see WithName).
type Concept struct {
	Name              string `json:"name" validate:"required"`
	Entertaining      int    `json:"entertaining" validate:"min=1,max=10"`
	Daring            int    `json:"daring" validate:"min=1,max=10"`
	Gripping          int    `json:"gripping" validate:"min=1,max=10"`
	Experiential      int    `json:"experiential" validate:"min=1,max=10"`
	Subversive        int    `json:"subversive" validate:"min=1,max=10"`
	Color             string `json:"color,omitempty"`
	Source            Source `json:"source,omitempty" validate:"omitempty,oneof=manual ai-generated"`
	AssetURL          string `json:"assetUrl,omitempty"`
	KPIsObjectives    string `json:"kpisObjectives,omitempty"`
	AdditionalContext string `json:"additionalContext,omitempty"`
	BrandName         string `json:"brandName,omitempty"`
}

// Score returns the concept's value for one criterion, or 0 for an unknown criterion.
func (c *Concept) Score(cr Criterion) int {
	switch cr {
	case Entertaining:
		return c.Entertaining
	case Daring:
		return c.Daring
	case Gripping:
		return c.Gripping
	case Experiential:
		return c.Experiential
	case Subversive:
		return c.Subversive
	}
	return 0
}

// WithName returns a copy of the concept with only the name replaced.
func (c *Concept) WithName(name string) *Concept {
	cp := *c
	cp.Name = name
	return &cp
}

// Brand returns the grouping key: BrandName, or Uncategorized when unset.
func (c *Concept) Brand() string {
	if c.BrandName == "" {
		return Uncategorized
	}
	return c.BrandName
}

var validate = validator.New()

// Validate rejects empty names and out-of-range scores. It never coerces.
func (c *Concept) Validate() error {
	if c == nil {
		return fmt.Errorf("%w: concept is nil", ErrInvalidConcept)
	}
	var problems []string
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("%w: %v", ErrInvalidConcept, err)
		}
		for _, fe := range verrs {
			problems = append(problems, formatFieldError(fe))
		}
	}
	if c.Name != "" && strings.TrimSpace(c.Name) == "" {
		problems = append(problems, "name must not be blank")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConcept, strings.Join(problems, "; "))
	}
	return nil
}

func formatFieldError(e validator.FieldError) string {
	field := strings.ToLower(e.Field())
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min", "max":
		return fmt.Sprintf("%s must be between %d and %d, got %v", field, MinScore, MaxScore, e.Value())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, e.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
