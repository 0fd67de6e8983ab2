// Package report renders completed evaluations for export.
package report

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"property-evaluation-service/internal/domain"
)

const (
	ImprovementThreshold = 70.0
	highPriorityBelow    = 30.0
	mediumPriorityBelow  = 50.0
)

// Priority tags a category that needs improvement.
type Priority string

const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

// PriorityFor returns the improvement priority for a category percentage.
func PriorityFor(percentage float64) Priority {
	switch {
	case percentage < highPriorityBelow:
		return PriorityHigh
	case percentage < mediumPriorityBelow:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

// ImprovementAreas returns categories below the improvement threshold, weakest first.
func ImprovementAreas(result domain.EvaluationResult) []domain.CategoryScore {
	areas := make([]domain.CategoryScore, 0, len(result.CategoryScores))
	for _, cs := range result.CategoryScores {
		if cs.Percentage < ImprovementThreshold {
			areas = append(areas, cs)
		}
	}
	sort.SliceStable(areas, func(i, j int) bool {
		return areas[i].Percentage < areas[j].Percentage
	})
	return areas
}

// FormatText renders a plain-text summary of a completed evaluation.
func FormatText(result domain.EvaluationResult, propertyLabel string, generatedAt time.Time) string {
	var b strings.Builder

	b.WriteString("PROPERTY QUALITY EVALUATION REPORT\n")
	b.WriteString("==================================\n")
	fmt.Fprintf(&b, "Generated: %s\n", generatedAt.UTC().Format("2006-01-02 15:04 MST"))
	fmt.Fprintf(&b, "Property type: %s\n\n", propertyLabel)

	b.WriteString("OVERALL SCORE\n")
	fmt.Fprintf(&b, "Score: %d%% (%.1f/%.1f)\n", round(result.Percentage), result.TotalScore, result.MaxPossibleScore)
	fmt.Fprintf(&b, "Level: %s\n", result.Level)
	fmt.Fprintf(&b, "Badge: %s\n", result.Badge)
	fmt.Fprintf(&b, "Completion: %d%%\n\n", round(result.CompletionRate))

	b.WriteString("CATEGORY BREAKDOWN\n")
	for _, cs := range result.CategoryScores {
		fmt.Fprintf(&b, "- %s: %d%% (%.1f/%.1f), %d/%d questions answered\n",
			cs.CategoryName, round(cs.Percentage), cs.Score, cs.MaxScore, cs.QuestionsAnswered, cs.TotalQuestions)
	}

	b.WriteString("\nAREAS FOR IMPROVEMENT\n")
	areas := ImprovementAreas(result)
	if len(areas) == 0 {
		fmt.Fprintf(&b, "None, every category scored at least %.0f%%.\n", ImprovementThreshold)
	}
	for _, cs := range areas {
		fmt.Fprintf(&b, "- %s: %d%% [%s priority]\n", cs.CategoryName, round(cs.Percentage), PriorityFor(cs.Percentage))
	}

	return b.String()
}

func round(v float64) int {
	return int(math.Round(v))
}
