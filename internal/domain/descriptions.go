package domain

var traitDescriptions = map[string]map[string]string{
	"Openness": {
		"high":   "Highly creative, curious, and open to new experiences. Enjoys exploring ideas and art.",
		"medium": "Balanced between tradition and innovation. Open to new experiences but also values routine.",
		"low":    "More conventional and practical. Prefers familiar experiences and proven methods.",
	},
	"Conscientiousness": {
		"high":   "Highly organized, responsible, and goal-oriented. Plans ahead and follows through.",
		"medium": "Generally organized with some flexibility. Balances planning with spontaneity.",
		"low":    "More spontaneous and flexible. Prefers going with the flow rather than strict planning.",
	},
	"Extraversion": {
		"high":   "Outgoing, energetic, and socially engaged. Draws energy from social interactions.",
		"medium": "Ambivert - comfortable in both social and solitary settings.",
		"low":    "More reserved and introspective. Prefers quiet environments and smaller groups.",
	},
	"Agreeableness": {
		"high":   "Highly cooperative, compassionate, and friendly. Values harmony and helping others.",
		"medium": "Balanced between cooperation and independence. Can be both supportive and assertive.",
		"low":    "More independent and analytical. Prioritizes logic over emotions in decision-making.",
	},
	"Neuroticism": {
		"high":   "More emotionally sensitive and reactive. May experience stress more intensely.",
		"medium": "Emotionally balanced with normal stress responses. Generally stable mood.",
		"low":    "Emotionally stable and calm. Handles stress well and maintains composure.",
	},
}

// TraitDescription devuelve el texto descriptivo de un rasgo según su score.
// Umbrales: >0.6 high, <0.4 low, resto medium.
func TraitDescription(trait string, score float64) string {
	levels, ok := traitDescriptions[trait]
	if !ok {
		return "No description available."
	}
	level := "medium"
	switch {
	case score > 0.6:
		level = "high"
	case score < 0.4:
		level = "low"
	}
	return levels[level]
}
