package report

import (
	"encoding/json"
	"io"
	"strings"

	"github.com/unbound-force/sbfl/internal/spectrum"
	"github.com/unbound-force/sbfl/internal/suspicion"
)

// JSONReport is the top-level JSON output structure.
type JSONReport struct {
	Version   string                              `json:"version"`
	Totals    spectrum.GlobalCounters             `json:"totals"`
	Rankings  map[string][]suspicion.ScoredRecord `json:"rankings"`
	Composite []suspicion.CompositeRecord         `json:"composite"`
	Summary   Summary                             `json:"summary"`
}

// WriteJSON writes result as formatted JSON. Rankings are keyed by
// lower-case formula name.
func WriteJSON(w io.Writer, result *suspicion.Result, version string) error {
	rankings := make(map[string][]suspicion.ScoredRecord, len(suspicion.Formulas))
	for _, f := range suspicion.Formulas {
		ranking := result.Ranking(f)
		if ranking == nil {
			ranking = []suspicion.ScoredRecord{}
		}
		rankings[strings.ToLower(string(f))] = ranking
	}
	composite := result.Composite
	if composite == nil {
		composite = []suspicion.CompositeRecord{}
	}

	report := JSONReport{
		Version:   version,
		Totals:    result.Totals,
		Rankings:  rankings,
		Composite: composite,
		Summary:   Summarize(result),
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
