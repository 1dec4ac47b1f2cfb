// Package typechart holds the attack-type versus defend-type damage
// multipliers. The chart is parsed once from an embedded YAML document and
// is read-only afterwards.
package typechart

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed typechart.yaml
var chartYAML []byte

// Neutral is the multiplier for any pair absent from the chart.
const Neutral = 1.0

var chart = mustParse(chartYAML)

func parse(b []byte) (map[string]map[string]float64, error) {
	var raw map[string]map[string]float64
	if err := yaml.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse type chart: %w", err)
	}
	out := make(map[string]map[string]float64, len(raw))
	for atk, row := range raw {
		r := make(map[string]float64, len(row))
		for def, m := range row {
			switch m {
			case 0, 0.5, 1, 2:
			default:
				return nil, fmt.Errorf("type chart: %s -> %s has unsupported multiplier %v", atk, def, m)
			}
			r[normalize(def)] = m
		}
		out[normalize(atk)] = r
	}
	return out, nil
}

func mustParse(b []byte) map[string]map[string]float64 {
	c, err := parse(b)
	if err != nil {
		panic(err)
	}
	return c
}

func normalize(t string) string {
	return strings.ToLower(strings.TrimSpace(t))
}

// Effectiveness returns the multiplier for attackType hitting defendType:
// one of 0, 0.5, 1 or 2. Unknown types and unlisted pairs are neutral.
func Effectiveness(attackType, defendType string) float64 {
	row, ok := chart[normalize(attackType)]
	if !ok {
		return Neutral
	}
	if m, ok := row[normalize(defendType)]; ok {
		return m
	}
	return Neutral
}

// Multiplier is the product of Effectiveness over every defender type.
func Multiplier(attackType string, defendTypes []string) float64 {
	m := Neutral
	for _, d := range defendTypes {
		m *= Effectiveness(attackType, d)
	}
	return m
}
