package approval

import (
	"regexp"
	"strings"
)

var reStageCode = regexp.MustCompile(`^[A-Z][A-Z0-9_]{1,63}$`)

// Predefined workflow stages, in project order.
var stageCatalogue = []struct{ Code, Label string }{
	{"INITIAL_DRAWINGS", "Initial Concept Drawings"},
	{"DEVELOPED_DESIGN", "Developed Design"},
	{"DETAILED_DESIGN", "Detailed Design"},
	{"PLANNING_SUBMISSION", "Planning Submission"},
	{"BUILDING_REGULATIONS", "Building Regulations"},
	{"TENDER_PACKAGE", "Tender Package"},
	{"CONSTRUCTION_DRAWINGS", "Construction Drawings"},
	{"FINAL_SIGN_OFF", "Final Sign-off"},
}

type Stage struct {
	Code  string `json:"code"`
	Label string `json:"label"`
}

// Stages lists the predefined stages.
func Stages() []Stage {
	out := make([]Stage, 0, len(stageCatalogue))
	for _, s := range stageCatalogue {
		out = append(out, Stage{Code: s.Code, Label: s.Label})
	}
	return out
}

// ResolveStage validates a stage code and picks its label. Custom codes need a label.
func ResolveStage(code, label string) (Stage, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	label = strings.TrimSpace(label)
	if !reStageCode.MatchString(code) {
		return Stage{}, ErrInvalidStage
	}
	if label != "" {
		return Stage{Code: code, Label: label}, nil
	}
	for _, s := range stageCatalogue {
		if s.Code == code {
			return Stage{Code: s.Code, Label: s.Label}, nil
		}
	}
	return Stage{}, ErrInvalidStage
}
