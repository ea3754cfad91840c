package service

import (
	"VNSniper/internal/domain/models"
)

// TechnicalClassifier derives a TechnicalProfile from one symbol's bar
// history and fundamental ratios. Pure and synchronous: every call is a
// function of its arguments only.
type TechnicalClassifier interface {
	Classify(symbol string, bars []models.PriceBar, ratios *models.FundamentalRatios) models.TechnicalProfile
}

// StrengthRater computes a RelativeStrengthProfile for one symbol
// against the benchmark's bar history.
type StrengthRater interface {
	Rate(symbol string, bars, benchmark []models.PriceBar) models.RelativeStrengthProfile
}

// RegimeAssessor evaluates the four-layer market regime over the
// benchmark, its sub-indices, and the universe's bar histories.
type RegimeAssessor interface {
	Assess(in RegimeInputs) models.RegimeAssessment
}

// RegimeInputs carries everything one regime assessment reads. Baskets
// maps basket name to the bar histories of its constituents; the "ALL"
// basket is the full analysis universe.
type RegimeInputs struct {
	Benchmark []models.PriceBar
	LargeCap  []models.PriceBar
	MidCap    []models.PriceBar
	Baskets   map[string]map[string][]models.PriceBar
}
