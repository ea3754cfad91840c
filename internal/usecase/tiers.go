package usecase

import (
	"VNSniper/internal/domain/models"
)

// TierRule is one named technical screen. Rules are declarative so the
// tier list stays in one place and the aggregation loop never changes.
type TierRule struct {
	Name  string
	Match func(p models.TechnicalProfile) bool
}

// CategoryRule is the relative-strength counterpart of TierRule.
type CategoryRule struct {
	Name  string
	Match func(p models.RelativeStrengthProfile) bool
}

// TierRules is the registry of technical screens, evaluated per run.
// A profile may land in several tiers.
var TierRules = []TierRule{
	{
		Name: "sniper_entry",
		Match: func(p models.TechnicalProfile) bool {
			return p.QualityTier == models.TierPrime &&
				(p.State == models.StateBreakout || p.State == models.StateConfirm) &&
				p.MTFSync == models.MTFFull
		},
	},
	{
		Name: "breakout",
		Match: func(p models.TechnicalProfile) bool {
			return p.State == models.StateBreakout
		},
	},
	{
		Name: "confirm",
		Match: func(p models.TechnicalProfile) bool {
			return p.State == models.StateConfirm
		},
	},
	{
		Name: "retest",
		Match: func(p models.TechnicalProfile) bool {
			return p.State == models.StateRetest && p.RetestQuality >= 65
		},
	},
	{
		Name: "trend",
		Match: func(p models.TechnicalProfile) bool {
			return p.State == models.StateTrend &&
				(p.TrendPath == models.TrendSMajor || p.TrendPath == models.TrendMajor)
		},
	},
	{
		Name: "base_watch",
		Match: func(p models.TechnicalProfile) bool {
			return p.State == models.StateBase && p.QualityTier != models.TierAvoid
		},
	},
	{
		Name: "prime_quality",
		Match: func(p models.TechnicalProfile) bool {
			return p.QualityTier == models.TierPrime
		},
	},
	{
		Name: "momentum",
		Match: func(p models.TechnicalProfile) bool {
			return p.MomentumIndex >= 70
		},
	},
}

// CategoryRules is the registry of relative-strength screens.
var CategoryRules = []CategoryRule{
	{
		Name: "rs_prime",
		Match: func(p models.RelativeStrengthProfile) bool {
			return p.Bucket == models.BucketPrime
		},
	},
	{
		Name: "rs_elite",
		Match: func(p models.RelativeStrengthProfile) bool {
			return p.Bucket == models.BucketPrime || p.Bucket == models.BucketElite
		},
	},
	{
		Name: "rs_core",
		Match: func(p models.RelativeStrengthProfile) bool {
			return p.Bucket == models.BucketCore
		},
	},
	{
		Name: "leaders",
		Match: func(p models.RelativeStrengthProfile) bool {
			return p.State == models.RSLeading
		},
	},
	{
		Name: "improving",
		Match: func(p models.RelativeStrengthProfile) bool {
			return p.State == models.RSImproving
		},
	},
	{
		Name: "active",
		Match: func(p models.RelativeStrengthProfile) bool {
			return p.IsActive
		},
	},
	{
		Name: "synced",
		Match: func(p models.RelativeStrengthProfile) bool {
			return p.Vector == models.VectorSync
		},
	},
}

// BuildTiers groups technical profiles by every matching tier rule.
// Input order is preserved inside each tier, so tiers inherit the
// run's rank ordering.
func BuildTiers(profiles []models.TechnicalProfile) map[string][]models.TechnicalProfile {
	out := make(map[string][]models.TechnicalProfile, len(TierRules))
	for _, rule := range TierRules {
		out[rule.Name] = []models.TechnicalProfile{}
	}
	for _, p := range profiles {
		for _, rule := range TierRules {
			if rule.Match(p) {
				out[rule.Name] = append(out[rule.Name], p)
			}
		}
	}
	return out
}

// BuildCategories groups RS profiles by every matching category rule.
func BuildCategories(profiles []models.RelativeStrengthProfile) map[string][]models.RelativeStrengthProfile {
	out := make(map[string][]models.RelativeStrengthProfile, len(CategoryRules))
	for _, rule := range CategoryRules {
		out[rule.Name] = []models.RelativeStrengthProfile{}
	}
	for _, p := range profiles {
		for _, rule := range CategoryRules {
			if rule.Match(p) {
				out[rule.Name] = append(out[rule.Name], p)
			}
		}
	}
	return out
}
