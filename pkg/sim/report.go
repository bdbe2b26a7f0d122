package sim

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
)

// pct renders a hit-rate percentage; a zero-denominator rate reads "nan%".
func pct(v float64) string {
	if math.IsNaN(v) {
		return "nan%"
	}
	return fmt.Sprintf("%3.4f%%", v)
}

// WriteReport prints the statistics table, one row per policy.
func WriteReport(w io.Writer, results []*Result) {
	fmt.Fprintf(w, "| replacement | hit_rate | instr_hit_rate | data_hit_rate | instr_access |  instr_hit   | data_access  |   data_hit   |\n")
	fmt.Fprintf(w, "| :---------- | :------: | -------------: | ------------: | -----------: | -----------: | -----------: | -----------: |\n")
	for _, r := range results {
		s := r.Stats
		fmt.Fprintf(w, "| %-11s | %s |       %s |      %s | %12d | %12d | %12d | %12d |\n",
			r.Policy,
			pct(s.HitRate()),
			pct(s.InstrHitRate()),
			pct(s.DataHitRate()),
			s.InstrAccess,
			s.InstrHit,
			s.DataAccess,
			s.DataHit,
		)
	}
}

// statsJSON is the machine-readable form of one policy row. Rates are
// omitted when their denominator is zero.
type statsJSON struct {
	Policy       string   `json:"policy"`
	HitRate      *float64 `json:"hit_rate,omitempty"`
	InstrHitRate *float64 `json:"instr_hit_rate,omitempty"`
	DataHitRate  *float64 `json:"data_hit_rate,omitempty"`
	InstrAccess  uint64   `json:"instr_access"`
	InstrHit     uint64   `json:"instr_hit"`
	DataAccess   uint64   `json:"data_access"`
	DataHit      uint64   `json:"data_hit"`
	Executed     uint64   `json:"executed"`
}

func rawRate(v float64) *float64 {
	if math.IsNaN(v) {
		return nil
	}
	return &v
}

// WriteJSON writes the per-policy statistics as indented JSON.
func WriteJSON(w io.Writer, results []*Result) error {
	rows := make([]statsJSON, 0, len(results))
	for _, r := range results {
		s := r.Stats
		rows = append(rows, statsJSON{
			Policy:       r.Policy.String(),
			HitRate:      rawRate(s.HitRate()),
			InstrHitRate: rawRate(s.InstrHitRate()),
			DataHitRate:  rawRate(s.DataHitRate()),
			InstrAccess:  s.InstrAccess,
			InstrHit:     s.InstrHit,
			DataAccess:   s.DataAccess,
			DataHit:      s.DataHit,
			Executed:     r.Executed,
		})
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rows)
}
