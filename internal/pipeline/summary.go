package pipeline

import (
	"github.com/montanaflynn/stats"

	"padronizador/internal"
	"padronizador/internal/util"
)

// Summarize derives the display counts for one transformed column. Blank
// cells and cells emptied by the character filter are counted separately.
func Summarize(original, normalized internal.Table, column string, outcomes []internal.CellOutcome, sampleRows int) internal.RunSummary {
	summary := internal.RunSummary{
		Column:  column,
		Rows:    normalized.Len(),
		Samples: []internal.CellSample{},
	}

	lengths := make(stats.Float64Data, 0, len(outcomes))
	for i, outcome := range outcomes {
		switch outcome {
		case internal.OutcomeBlank:
			summary.BlankPreserved++
		case internal.OutcomeException:
			summary.ExceptionPreserved++
		case internal.OutcomeEmptied:
			summary.EmptiedByFilter++
		case internal.OutcomeNormalized:
			summary.Normalized++
		}

		before := util.CoerceText(original.Rows[i][column])
		after := util.CoerceText(normalized.Rows[i][column])
		if before != after {
			summary.Changed++
		}
		if outcome == internal.OutcomeNormalized {
			lengths = append(lengths, float64(len([]rune(after))))
		}
		if i < sampleRows {
			summary.Samples = append(summary.Samples, internal.CellSample{Row: i + 1, Original: before, Result: after})
		}
	}

	summary.NameLength = lengthStats(lengths)
	return summary
}

func lengthStats(data stats.Float64Data) internal.LengthStats {
	if len(data) == 0 {
		return internal.LengthStats{}
	}
	mean, _ := stats.Mean(data)
	median, _ := stats.Median(data)
	maxLen, _ := stats.Max(data)
	return internal.LengthStats{Mean: round2(mean), Median: median, Max: maxLen}
}

func round2(v float64) float64 {
	r, err := stats.Round(v, 2)
	if err != nil {
		return v
	}
	return r
}
