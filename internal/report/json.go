package report

import (
	"fmt"

	"github.com/segmentio/encoding/json"
)

// GenerateJSON serializes the report as indented JSON.
func GenerateJSON(r *Report) ([]byte, error) {
	out, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSON report: %w", err)
	}
	return out, nil
}
