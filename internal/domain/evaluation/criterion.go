package evaluation

import "strings"

// Criterion is one of the five fixed EDGES dimensions.
type Criterion string

const (
	Entertaining Criterion = "entertaining"
	Daring       Criterion = "daring"
	Gripping     Criterion = "gripping"
	Experiential Criterion = "experiential"
	Subversive   Criterion = "subversive"
)

// Criteria is the fixed axis order of the radar chart. Do not reorder.
var Criteria = []Criterion{Entertaining, Daring, Gripping, Experiential, Subversive}

const (
	MinScore = 1
	MaxScore = 10
)

var criterionDescriptions = map[Criterion]string{
	Entertaining: "Drawing audience in with compelling narratives",
	Daring:       "Challenging expectations or hijacking medium/moment",
	Gripping:     "Stopping and grabbing attention to engage",
	Experiential: "Actively involving and interacting with consumers",
	Subversive:   "Challenging category rules with a new path forward",
}

// Label is the display label used on chart axes ("ENTERTAINING").
func (c Criterion) Label() string {
	return strings.ToUpper(string(c))
}

func (c Criterion) Description() string {
	return criterionDescriptions[c]
}

func (c Criterion) Valid() bool {
	_, ok := criterionDescriptions[c]
	return ok
}
