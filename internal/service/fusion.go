package service

import "insta-persona/internal/domain"

// Fuse combina los scores por modalidad con una mezcla lineal ponderada.
// Las claves ausentes en cualquiera de los dos mapas valen 0.5 antes de mezclar.
func Fuse(textScores, imageScores domain.TraitScores, textWeight float64) domain.TraitScores {
	imageWeight := 1.0 - textWeight
	fused := make(domain.TraitScores, len(domain.TraitNames))
	for _, trait := range domain.TraitNames {
		textVal, ok := textScores[trait]
		if !ok {
			textVal = 0.5
		}
		imageVal, ok := imageScores[trait]
		if !ok {
			imageVal = 0.5
		}
		fused[trait] = textVal*textWeight + imageVal*imageWeight
	}
	return fused
}

// Confidence premia un rasgo pico fuerte y la dispersion entre rasgos:
// 0.7*max + min(2*varianza, 0.3), con tope 1.0.
func Confidence(scores domain.TraitScores) float64 {
	if len(scores) == 0 {
		return 0.0
	}

	var max, sum float64
	first := true
	for _, value := range scores {
		if first || value > max {
			max = value
			first = false
		}
		sum += value
	}
	mean := sum / float64(len(scores))

	var variance float64
	for _, value := range scores {
		diff := value - mean
		variance += diff * diff
	}
	variance /= float64(len(scores))

	spread := variance * 2
	if spread > 0.3 {
		spread = 0.3
	}

	confidence := max*0.7 + spread
	if confidence > 1.0 {
		return 1.0
	}
	return confidence
}

// Normalize reescala los valores a [0,1] con min-max. Si todos los valores
// son iguales devuelve 0.5 en cada rasgo (perfil indiferenciado).
func Normalize(scores domain.TraitScores) domain.TraitScores {
	if len(scores) == 0 {
		return domain.TraitScores{}
	}

	var min, max float64
	first := true
	for _, value := range scores {
		if first {
			min, max = value, value
			first = false
			continue
		}
		if value < min {
			min = value
		}
		if value > max {
			max = value
		}
	}

	normalized := make(domain.TraitScores, len(scores))
	if max == min {
		for trait := range scores {
			normalized[trait] = 0.5
		}
		return normalized
	}
	for trait, value := range scores {
		normalized[trait] = (value - min) / (max - min)
	}
	return normalized
}
