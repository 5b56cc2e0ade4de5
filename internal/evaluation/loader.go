package evaluation

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// dateLayout is the layout of golden case dates
const dateLayout = "2006-01-02"

// LoadGoldenCases reads and parses a golden case set from a JSON file.
func LoadGoldenCases(path string) ([]GoldenCase, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read golden cases file: %w", err)
	}

	var cases []GoldenCase
	if err := json.Unmarshal(data, &cases); err != nil {
		return nil, fmt.Errorf("failed to parse golden cases: %w", err)
	}

	return cases, nil
}

// ValidateGoldenCases checks that all golden cases have required fields and valid values.
func ValidateGoldenCases(cases []GoldenCase) error {
	seen := make(map[string]struct{}, len(cases))

	for i, c := range cases {
		if c.ID == "" {
			return fmt.Errorf("case at index %d: missing id", i)
		}
		if _, dup := seen[c.ID]; dup {
			return fmt.Errorf("case at index %d: duplicate id %q", i, c.ID)
		}
		seen[c.ID] = struct{}{}

		if !c.Kind.IsValid() {
			return fmt.Errorf("case %q: invalid kind %q", c.ID, c.Kind)
		}
		if c.Clinic == "" {
			return fmt.Errorf("case %q: missing clinic", c.ID)
		}
		if _, err := time.Parse(dateLayout, c.Start); err != nil {
			return fmt.Errorf("case %q: invalid start %q", c.ID, c.Start)
		}
		if _, err := time.Parse(dateLayout, c.End); err != nil {
			return fmt.Errorf("case %q: invalid end %q", c.ID, c.End)
		}

		switch c.Kind {
		case KindHeatmap:
			if c.ExpectedTotal == nil && len(c.ExpectedCells) == 0 {
				return fmt.Errorf("case %q: heatmap case has no expectations", c.ID)
			}
		case KindDepartment:
			if c.Department == "" {
				return fmt.Errorf("case %q: missing department", c.ID)
			}
			if c.ExpectedCount == nil && len(c.ExpectedPoints) == 0 {
				return fmt.Errorf("case %q: department case has no expectations", c.ID)
			}
		}
	}

	return nil
}
