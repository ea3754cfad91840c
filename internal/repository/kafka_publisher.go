package repository

import (
	"context"
	"fmt"
	"time"

	"VNSniper/internal/domain/models"
	domrepo "VNSniper/internal/domain/repository"
	pkgkafka "VNSniper/pkg/kafka"
)

// KafkaPublisher implements SignalPublisher over Kafka topics. Regime
// transitions and tier entries go to separate topics so downstream
// consumers subscribe to what they need.
type KafkaPublisher struct {
	producer     *pkgkafka.Producer
	regimeTopic  string
	entriesTopic string
}

func NewKafkaPublisher(producer *pkgkafka.Producer, regimeTopic, entriesTopic string) *KafkaPublisher {
	if regimeTopic == "" {
		regimeTopic = "vnsniper.regime"
	}
	if entriesTopic == "" {
		entriesTopic = "vnsniper.entries"
	}
	return &KafkaPublisher{
		producer:     producer,
		regimeTopic:  regimeTopic,
		entriesTopic: entriesTopic,
	}
}

var _ domrepo.SignalPublisher = (*KafkaPublisher)(nil)

type regimeEvent struct {
	State      string    `json:"state"`
	Score      float64   `json:"score"`
	AllocMin   float64   `json:"alloc_min"`
	AllocMax   float64   `json:"alloc_max"`
	AllWeak    bool      `json:"all_weak"`
	Ceiling    string    `json:"ceiling"`
	Components string    `json:"components"`
	Breadth    string    `json:"breadth"`
	Timestamp  time.Time `json:"timestamp"`
}

type entryEvent struct {
	Tier          string    `json:"tier"`
	Symbol        string    `json:"symbol"`
	State         string    `json:"state"`
	QualityTier   string    `json:"quality_tier"`
	MTFSync       string    `json:"mtf_sync"`
	Price         float64   `json:"price"`
	MomentumIndex float64   `json:"momentum_index"`
	Rank          float64   `json:"rank"`
	Timestamp     time.Time `json:"timestamp"`
}

func (p *KafkaPublisher) PublishRegime(ctx context.Context, r *models.RegimeAssessment) error {
	if r == nil {
		return fmt.Errorf("publish regime: nil assessment")
	}
	ev := regimeEvent{
		State:      string(r.State),
		Score:      r.Score,
		AllocMin:   r.Allocation.MinPct,
		AllocMax:   r.Allocation.MaxPct,
		AllWeak:    r.AllWeak,
		Ceiling:    r.Ceiling.Badge,
		Components: r.Components.Badge,
		Breadth:    r.Breadth.Badge,
		Timestamp:  r.Timestamp,
	}
	return p.producer.Publish(ctx, p.regimeTopic, []byte(ev.State), ev)
}

// PublishEntries fans the tier's profiles into one batch, keyed by
// symbol so a partition sees each symbol in order.
func (p *KafkaPublisher) PublishEntries(ctx context.Context, tier string, profiles []models.TechnicalProfile) error {
	if len(profiles) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, 0, len(profiles))
	for _, prof := range profiles {
		msgs = append(msgs, pkgkafka.Message{
			Key: []byte(prof.Symbol),
			Value: entryEvent{
				Tier:          tier,
				Symbol:        prof.Symbol,
				State:         string(prof.State),
				QualityTier:   string(prof.QualityTier),
				MTFSync:       string(prof.MTFSync),
				Price:         prof.Price,
				MomentumIndex: prof.MomentumIndex,
				Rank:          prof.Rank,
				Timestamp:     prof.Timestamp,
			},
		})
	}
	return p.producer.PublishBatch(ctx, p.entriesTopic, msgs)
}

func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}
