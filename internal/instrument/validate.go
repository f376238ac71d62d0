package instrument

import (
	"fmt"
	"strings"
)

// Validate checks the structural invariants of each schema: non-empty
// question list, option values within [0, MaxOptionValue], and a band table
// that partitions [0, MaxScore] with strictly increasing bounds.
// Returns a combined error describing all problems found, or nil if valid.
func Validate(schemas ...*Schema) error {
	var errs []string

	seen := make(map[ScaleID]bool, len(schemas))
	for _, s := range schemas {
		if seen[s.ID] {
			errs = append(errs, fmt.Sprintf("duplicate scale ID: %q", s.ID))
		}
		seen[s.ID] = true

		if len(s.Questions) == 0 {
			errs = append(errs, fmt.Sprintf("scale %q has no questions", s.ID))
		}

		for _, q := range s.Questions {
			if len(q.Options) == 0 {
				errs = append(errs, fmt.Sprintf("scale %q question %d has no options", s.ID, q.ID))
			}
			for _, o := range q.Options {
				if o.Value < 0 || o.Value > MaxOptionValue {
					errs = append(errs, fmt.Sprintf("scale %q question %d: option value %d outside [0, %d]",
						s.ID, q.ID, o.Value, MaxOptionValue))
				}
			}
		}

		errs = append(errs, validateBands(s)...)
	}

	if len(errs) > 0 {
		return fmt.Errorf("instrument validation failed:\n  %s", strings.Join(errs, "\n  "))
	}
	return nil
}

func validateBands(s *Schema) []string {
	if len(s.Bands) == 0 {
		return []string{fmt.Sprintf("scale %q has no severity bands", s.ID)}
	}

	var errs []string
	if s.Bands[0].UpperBound < 0 {
		errs = append(errs, fmt.Sprintf("scale %q: first band does not cover 0", s.ID))
	}
	for i := 1; i < len(s.Bands); i++ {
		if s.Bands[i].UpperBound <= s.Bands[i-1].UpperBound {
			errs = append(errs, fmt.Sprintf("scale %q: band %d bound %d not greater than %d",
				s.ID, i, s.Bands[i].UpperBound, s.Bands[i-1].UpperBound))
		}
	}
	if last := s.Bands[len(s.Bands)-1].UpperBound; last != s.MaxScore() {
		errs = append(errs, fmt.Sprintf("scale %q: last band bound %d != max score %d", s.ID, last, s.MaxScore()))
	}
	for i, b := range s.Bands {
		if b.Level == "" {
			errs = append(errs, fmt.Sprintf("scale %q: band %d has no level", s.ID, i))
		}
	}
	return errs
}
