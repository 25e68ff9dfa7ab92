package domain

import (
	"fmt"
	"strings"
)

// TimeLimitBounds caps per-question time limits; zero values disable the cap.
type TimeLimitBounds struct {
	MinSeconds int
	MaxSeconds int
}

// ValidateQuizInput checks a create/update payload and returns a
// *ValidationError enumerating every problem found, or nil. Nothing is
// persisted on failure.
func ValidateQuizInput(in QuizInput, bounds TimeLimitBounds) error {
	var reasons []string

	if strings.TrimSpace(in.Title) == "" {
		reasons = append(reasons, "title is required")
	}
	if len(in.Questions) == 0 {
		reasons = append(reasons, "at least one question is required")
	}
	for i, q := range in.Questions {
		if strings.TrimSpace(q.Text) == "" {
			reasons = append(reasons, fmt.Sprintf("question %d: text is required", i))
		}
		if len(q.Options) != OptionsPerQuestion {
			reasons = append(reasons, fmt.Sprintf("question %d: exactly %d options are required", i, OptionsPerQuestion))
		} else {
			for j, opt := range q.Options {
				if strings.TrimSpace(opt) == "" {
					reasons = append(reasons, fmt.Sprintf("question %d: option %d is empty", i, j))
				}
			}
		}
		if q.CorrectOption < 0 || q.CorrectOption >= OptionsPerQuestion {
			reasons = append(reasons, fmt.Sprintf("question %d: correct option must be between 0 and %d", i, OptionsPerQuestion-1))
		}
		if q.TimeLimitSeconds <= 0 {
			reasons = append(reasons, fmt.Sprintf("question %d: time limit must be positive", i))
		} else {
			if bounds.MinSeconds > 0 && q.TimeLimitSeconds < bounds.MinSeconds {
				reasons = append(reasons, fmt.Sprintf("question %d: time limit below minimum of %ds", i, bounds.MinSeconds))
			}
			if bounds.MaxSeconds > 0 && q.TimeLimitSeconds > bounds.MaxSeconds {
				reasons = append(reasons, fmt.Sprintf("question %d: time limit above maximum of %ds", i, bounds.MaxSeconds))
			}
		}
	}

	if len(reasons) > 0 {
		return &ValidationError{Reasons: reasons}
	}
	return nil
}
