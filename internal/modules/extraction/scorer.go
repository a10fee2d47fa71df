package extraction

import "github.com/yungbote/unidine-backend/internal/domain/restaurants"

// Score folds per-field signal confidences into a Confidence using the default weights.
func Score(sig Signals) restaurants.Confidence {
	return ScoreWith(restaurants.DefaultWeights, sig)
}

func ScoreWith(w restaurants.Weights, sig Signals) restaurants.Confidence {
	var c restaurants.Confidence
	if !sig.IsMention {
		return c
	}
	if sig.Name != nil {
		c.Name = restaurants.Clamp01(sig.Name.Confidence)
	}
	if sig.Location != nil {
		c.Location = restaurants.Clamp01(sig.Location.Confidence)
	}
	if len(sig.Cuisine) > 0 {
		c.Cuisine = restaurants.Clamp01(sig.CuisineConfidence)
	}
	c.Overall = w.Overall(c.Name, c.Location, c.Cuisine)
	return c
}
