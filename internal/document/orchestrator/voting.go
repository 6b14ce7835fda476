package orchestrator

import (
	"veridoc/internal/document/models"
	"veridoc/internal/document/parser"
)

// votedField describes one field participating in consensus voting and
// how its values are normalized before tallying.
type votedField struct {
	name      string
	get       func(models.ExtractedFields) string
	set       func(*models.ExtractedFields, string)
	normalize func(string) string
}

var votedFields = []votedField{
	{
		name:      "name",
		get:       func(f models.ExtractedFields) string { return f.FullName },
		set:       func(f *models.ExtractedFields, v string) { f.FullName = v },
		normalize: models.NormalizeName,
	},
	{
		name:      "id_number",
		get:       func(f models.ExtractedFields) string { return f.IDNumber },
		set:       func(f *models.ExtractedFields, v string) { f.IDNumber = v },
		normalize: models.NormalizeID,
	},
	{
		name:      "date_of_birth",
		get:       func(f models.ExtractedFields) string { return f.DateOfBirth },
		set:       func(f *models.ExtractedFields, v string) { f.DateOfBirth = v },
		normalize: parser.NormalizeDate,
	},
}

// Vote reduces a RunSet to a single ExtractedFields by per-field majority.
//
// For each voted field the non-empty values are normalized and tallied;
// the highest tally wins, ties broken by first-seen order. The run that
// agrees with the most winning values (weighted by tally) becomes the
// representative, and its voted fields are overwritten with the winners.
// The second return lists fields on which the runs disagreed.
func Vote(runs models.RunSet) (models.ExtractedFields, []string) {
	if len(runs) == 0 {
		return models.ExtractedFields{}, nil
	}
	if len(runs) == 1 {
		return runs[0], nil
	}

	type fieldVote struct {
		winnerNorm  string
		winnerValue string
		tally       map[string]int
	}

	votes := make(map[string]fieldVote, len(votedFields))
	var disagreements []string

	for _, vf := range votedFields {
		tally := make(map[string]int)
		firstSeen := make(map[string]string)
		var order []string

		for _, run := range runs {
			v := vf.get(run)
			if v == "" {
				continue
			}
			n := vf.normalize(v)
			if n == "" {
				n = v
			}
			if _, seen := tally[n]; !seen {
				firstSeen[n] = v
				order = append(order, n)
			}
			tally[n]++
		}

		var winner string
		for _, n := range order {
			if winner == "" || tally[n] > tally[winner] {
				winner = n
			}
		}

		votes[vf.name] = fieldVote{
			winnerNorm:  winner,
			winnerValue: firstSeen[winner],
			tally:       tally,
		}
		if len(order) > 1 {
			disagreements = append(disagreements, vf.name)
		}
	}

	// Pick the run that agrees with the most winning values, weighted by
	// how popular each winning value was. Ties keep the earlier run.
	best := 0
	bestScore := -1
	for i, run := range runs {
		score := 0
		for _, vf := range votedFields {
			v := vf.get(run)
			if v == "" {
				continue
			}
			n := vf.normalize(v)
			if n == "" {
				n = v
			}
			if fv := votes[vf.name]; fv.winnerNorm != "" && n == fv.winnerNorm {
				score += fv.tally[n]
			}
		}
		if score > bestScore {
			best = i
			bestScore = score
		}
	}

	result := runs[best]
	for _, vf := range votedFields {
		vf.set(&result, votes[vf.name].winnerValue)
	}
	return result, disagreements
}
