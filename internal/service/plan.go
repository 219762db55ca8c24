package service

import (
	"time"

	"github.com/audiolibrelab/broadcastrec/internal/config"
)

// PlanStatus tells what a run would do with a channel.
type PlanStatus string

const (
	// PlanInert channels have no complete window and are never recorded.
	PlanInert PlanStatus = "inert"
	// PlanPending channels will be recorded.
	PlanPending PlanStatus = "pending"
	// PlanLate channels end before now, collar included.
	PlanLate PlanStatus = "late"
)

// ChannelPlan is the schedule of one channel as seen at a given instant.
type ChannelPlan struct {
	Name   string     `json:"name"`
	Status PlanStatus `json:"status"`
	Source string     `json:"source"`
	// WaitUntil is the start minus collar.
	WaitUntil time.Time `json:"wait_until,omitzero"`
	// RecordUntil is the stop plus collar.
	RecordUntil time.Time `json:"record_until,omitzero"`
}

// Plan classifies every configured channel at now.
func (s *RecordingService) Plan(now time.Time) []ChannelPlan {
	collar := s.cfg.Options.Collar()
	plans := make([]ChannelPlan, 0, len(s.cfg.Channels))
	for _, ch := range s.cfg.Channels {
		p := ChannelPlan{Name: ch.Name, Status: PlanInert, Source: source(ch)}
		if ch.Scheduled() {
			p.WaitUntil = ch.Start.Add(-collar)
			p.RecordUntil = ch.Stop.Add(collar)
			p.Status = PlanPending
			if p.RecordUntil.Before(now) {
				p.Status = PlanLate
			}
		}
		plans = append(plans, p)
	}
	return plans
}

func source(ch config.Channel) string {
	switch {
	case ch.URL != "":
		return "url"
	case ch.UUID != "":
		return "uuid"
	default:
		return "name"
	}
}
