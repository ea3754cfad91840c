package usecase

import (
	"testing"

	"VNSniper/internal/domain/models"
)

func TestBuildTiersSniperEntry(t *testing.T) {
	profiles := []models.TechnicalProfile{
		{
			Symbol: "FPT", QualityTier: models.TierPrime,
			State: models.StateBreakout, MTFSync: models.MTFFull,
		},
		{
			Symbol: "HPG", QualityTier: models.TierPrime,
			State: models.StateBreakout, MTFSync: models.MTFPartial,
		},
		{
			Symbol: "SSI", QualityTier: models.TierValid,
			State: models.StateConfirm, MTFSync: models.MTFFull,
		},
	}

	tiers := BuildTiers(profiles)
	sniper := tiers["sniper_entry"]
	if len(sniper) != 1 || sniper[0].Symbol != "FPT" {
		t.Fatalf("sniper_entry requires prime quality, entry state, and full sync: %+v", sniper)
	}
	if len(tiers["breakout"]) != 2 {
		t.Fatalf("expected 2 breakouts, got %d", len(tiers["breakout"]))
	}
}

func TestBuildTiersAlwaysPresent(t *testing.T) {
	tiers := BuildTiers(nil)
	for _, rule := range TierRules {
		if _, ok := tiers[rule.Name]; !ok {
			t.Fatalf("tier %s missing from empty aggregation", rule.Name)
		}
	}
}

func TestBuildCategories(t *testing.T) {
	profiles := []models.RelativeStrengthProfile{
		{Symbol: "FPT", Bucket: models.BucketPrime, State: models.RSLeading, Vector: models.VectorSync, IsActive: true},
		{Symbol: "SSI", Bucket: models.BucketWeak, State: models.RSDeclining, Vector: models.VectorNeut},
	}

	cats := BuildCategories(profiles)
	if len(cats["rs_prime"]) != 1 || cats["rs_prime"][0].Symbol != "FPT" {
		t.Fatalf("unexpected rs_prime: %+v", cats["rs_prime"])
	}
	if len(cats["leaders"]) != 1 || len(cats["active"]) != 1 {
		t.Fatalf("leader must also be active")
	}
	if len(cats["rs_core"]) != 0 {
		t.Fatalf("no core members expected")
	}
}
