// Package forecast owns the demand model lifecycle: training data
// sourcing, model fitting, artifact persistence and batch forecast
// generation across the region/blood-type grid.
package forecast

import (
	"strings"
	"time"
)

// Season buckets the Indian calendar the way Delhi blood demand moves:
// dengue-driven spikes cluster in and after the monsoon.
type Season int

const (
	SeasonWinter Season = iota
	SeasonSummer
	SeasonMonsoon
	SeasonPostMonsoon
)

var seasonNames = map[Season]string{
	SeasonWinter:      "Winter",
	SeasonSummer:      "Summer",
	SeasonMonsoon:     "Monsoon",
	SeasonPostMonsoon: "Post-Monsoon",
}

func (s Season) String() string {
	return seasonNames[s]
}

// ParseSeason returns the season for its label, case-insensitively.
func ParseSeason(label string) (Season, bool) {
	label = strings.TrimSpace(label)
	for season, name := range seasonNames {
		if strings.EqualFold(name, label) {
			return season, true
		}
	}

	return SeasonWinter, false
}

// SeasonOf maps a calendar date to its season.
func SeasonOf(t time.Time) Season {
	switch t.Month() {
	case time.December, time.January, time.February:
		return SeasonWinter
	case time.March, time.April, time.May:
		return SeasonSummer
	case time.June, time.July, time.August, time.September:
		return SeasonMonsoon
	default:
		return SeasonPostMonsoon
	}
}

// DemandMultiplier scales baseline demand for the season. Post-monsoon
// carries the dengue peak.
func (s Season) DemandMultiplier() float64 {
	switch s {
	case SeasonSummer:
		return 0.9
	case SeasonMonsoon:
		return 1.3
	case SeasonPostMonsoon:
		return 1.8
	default:
		return 1.0
	}
}

// OutbreakProne reports whether disease outbreaks are plausible in this
// season (monsoon and the months right after).
func (s Season) OutbreakProne() bool {
	return s == SeasonMonsoon || s == SeasonPostMonsoon
}
