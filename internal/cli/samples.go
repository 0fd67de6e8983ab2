package cli

import "property-evaluation-service/internal/domain"

// samplePropertyTypes are the built-in question trees, served when no database is configured and
// stored by the seed command.
func samplePropertyTypes() map[string]domain.PropertyType {
	return map[string]domain.PropertyType{
		"apartment": {
			ID:   "apartment",
			Name: "Apartment",
			Categories: []domain.Category{
				{
					ID:    "structure",
					Name:  "Structure",
					Names: map[string]string{"ro": "Structură"},
					Questions: []domain.Question{
						conditionQuestion("apt-walls", "What condition are the walls and ceilings in?", 2),
						conditionQuestion("apt-windows", "What condition are the windows in?", 1),
					},
				},
				{
					ID:    "energy",
					Name:  "Energy",
					Names: map[string]string{"ro": "Energie"},
					Questions: []domain.Question{
						{
							ID:     "apt-heating",
							Text:   "How is the apartment heated?",
							Weight: 1.5,
							Answers: []domain.Answer{
								{ID: "stove", Text: "Stove or none", Weight: 1},
								{ID: "district", Text: "District heating", Weight: 3},
								{ID: "own-boiler", Text: "Own condensing boiler", Weight: 4},
								{ID: "heat-pump", Text: "Heat pump", Weight: 5},
							},
						},
					},
				},
				{
					ID:    "comfort",
					Name:  "Comfort",
					Names: map[string]string{"ro": "Confort"},
					Questions: []domain.Question{
						conditionQuestion("apt-kitchen", "What condition is the kitchen in?", 1),
						conditionQuestion("apt-bathroom", "What condition is the bathroom in?", 1),
					},
				},
			},
		},
		"house": {
			ID:   "house",
			Name: "House",
			Categories: []domain.Category{
				{
					ID:    "structure",
					Name:  "Structure",
					Names: map[string]string{"ro": "Structură"},
					Questions: []domain.Question{
						conditionQuestion("house-roof", "What condition is the roof in?", 2),
						conditionQuestion("house-foundation", "What condition is the foundation in?", 3),
						conditionQuestion("house-facade", "What condition is the facade in?", 1),
					},
				},
				{
					ID:    "energy",
					Name:  "Energy",
					Names: map[string]string{"ro": "Energie"},
					Questions: []domain.Question{
						{
							ID:     "house-insulation",
							Text:   "How well is the house insulated?",
							Weight: 2,
							Answers: []domain.Answer{
								{ID: "none", Text: "Not insulated", Weight: 0},
								{ID: "partial", Text: "Partially insulated", Weight: 2.5},
								{ID: "full", Text: "Fully insulated", Weight: 5},
							},
						},
						conditionQuestion("house-windows", "What condition are the windows in?", 1),
					},
				},
				{
					ID:    "surroundings",
					Name:  "Surroundings",
					Names: map[string]string{"ro": "Împrejurimi"},
					Questions: []domain.Question{
						conditionQuestion("house-yard", "What condition is the yard in?", 0.5),
					},
				},
			},
		},
	}
}

func conditionQuestion(id, text string, weight float64) domain.Question {
	return domain.Question{
		ID:     id,
		Text:   text,
		Weight: weight,
		Answers: []domain.Answer{
			{ID: "poor", Text: "Poor, needs major work", Weight: 1},
			{ID: "fair", Text: "Fair, needs minor work", Weight: 3},
			{ID: "good", Text: "Good", Weight: 4},
			{ID: "excellent", Text: "Excellent", Weight: 5},
		},
	}
}
