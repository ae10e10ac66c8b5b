package convo

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"outdial/internal/callrecords"
	"outdial/internal/leads"

	"github.com/redis/go-redis/v9"
)

// CallContext is everything the conversation engine needs once a call is
// answered: who it is talking to and why. A pure read; nothing here
// touches orchestration state.
type CallContext struct {
	LeadID          string              `json:"lead_id"`
	LeadName        string              `json:"lead_name"`
	PhoneNumber     string              `json:"phone_number"`
	Company         string              `json:"company,omitempty"`
	Purpose         callrecords.Purpose `json:"purpose"`
	CustomPrompt    string              `json:"custom_prompt,omitempty"`
	AdditionalNotes string              `json:"additional_notes,omitempty"`
}

const defaultContextTTL = 2 * time.Hour

// Service resolves call context by provider call id. Lookups are cached
// in Redis for the duration of a call; the conversation engine polls
// this during the call and the underlying record never changes the
// fields we serve.
type Service struct {
	records callrecords.Repository
	leads   leads.Store
	cache   *redis.Client // nil disables caching
	ttl     time.Duration
	log     *slog.Logger
}

func NewService(records callrecords.Repository, store leads.Store, cache *redis.Client, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		records: records,
		leads:   store,
		cache:   cache,
		ttl:     defaultContextTTL,
		log:     log,
	}
}

func cacheKey(providerCallID string) string { return "callctx:" + providerCallID }

func (s *Service) GetCallContext(ctx context.Context, providerCallID string) (CallContext, error) {
	if providerCallID == "" {
		return CallContext{}, callrecords.ErrInvalidArgument
	}

	if s.cache != nil {
		if raw, err := s.cache.Get(ctx, cacheKey(providerCallID)).Bytes(); err == nil {
			var cc CallContext
			if json.Unmarshal(raw, &cc) == nil {
				return cc, nil
			}
		}
	}

	rec, err := s.records.GetByProviderCallID(ctx, providerCallID)
	if err != nil {
		return CallContext{}, err
	}
	lead, err := s.leads.GetLead(ctx, rec.UserID, rec.LeadID)
	if err != nil {
		return CallContext{}, err
	}

	cc := CallContext{
		LeadID:          lead.ID,
		LeadName:        lead.Name,
		PhoneNumber:     rec.PhoneNumber,
		Company:         lead.Company,
		Purpose:         rec.Purpose,
		CustomPrompt:    rec.CustomPrompt,
		AdditionalNotes: rec.AdditionalNotes,
	}

	if s.cache != nil {
		if raw, merr := json.Marshal(cc); merr == nil {
			if serr := s.cache.Set(ctx, cacheKey(providerCallID), raw, s.ttl).Err(); serr != nil {
				// Cache writes are best-effort.
				s.log.Warn("caching call context", "provider_call_id", providerCallID, "error", serr)
			}
		}
	}
	return cc, nil
}
