package config

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseWeights parses a comma separated list of nutrient=weight pairs.
// An empty string yields an empty map.
func ParseWeights(s string) (map[string]float64, error) {
	out := make(map[string]float64)
	if strings.TrimSpace(s) == "" {
		return out, nil
	}

	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		name, value, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("invalid weight %q, expected nutrient=value", pair)
		}
		name = strings.ToLower(strings.TrimSpace(name))
		w, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid weight for %s: %w", name, err)
		}
		out[name] = w
	}
	return out, nil
}
