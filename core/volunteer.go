package core

import (
	"context"

	"github.com/rs/zerolog/log"
)

type VolunteerOutcome string

const (
	OutcomeVolunteered        VolunteerOutcome = "volunteered"
	OutcomeAlreadyVolunteered VolunteerOutcome = "already_volunteered"
)

type VolunteerResult struct {
	Event   *Event           `json:"event"`
	Outcome VolunteerOutcome `json:"outcome"`
}

// Coordinator signs users up for events. The server's answer to the update is
// adopted as truth and mirrored, so concurrent sign-ups from other devices are
// not overwritten locally.
type Coordinator struct {
	repository Repository
	cache      *Cache
}

func NewCoordinator(repository Repository, cache *Cache) *Coordinator {
	return &Coordinator{repository: repository, cache: cache}
}

func (c *Coordinator) Volunteer(ctx context.Context, event *Event, userId string) (*VolunteerResult, error) {
	if event == nil {
		return nil, NewValidationError(ReasonMissingField, "event is required")
	}

	already, err := CheckVolunteer(event, userId)
	if err != nil {
		return nil, err
	}

	if already {
		return &VolunteerResult{Event: event, Outcome: OutcomeAlreadyVolunteered}, nil
	}

	updated, err := c.repository.VolunteerForEvent(ctx, event.WithVolunteer(userId))
	if err != nil {
		return nil, err
	}

	c.mirror(ctx, updated)

	log.Ctx(ctx).Info().Str("event_id", updated.Id).Str("user_id", userId).
		Int("volunteers", len(updated.VolunteersIds)).Msg("volunteer registered")

	return &VolunteerResult{Event: updated, Outcome: OutcomeVolunteered}, nil
}

// mirror stores the server's event and patches a cached listing. Failures only
// leave the mirror stale.
func (c *Coordinator) mirror(ctx context.Context, updated *Event) {
	err := c.cache.Put(ctx, EventKey(updated.Id), updated)
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("event_id", updated.Id).Msg("failed to cache updated event")
	}

	events, found, err := Lookup[[]Event](ctx, c.cache, KeyAllEvents)
	if err != nil || !found {
		return
	}

	for i := range events {
		if events[i].Id == updated.Id {
			events[i] = *updated

			err = c.cache.Put(ctx, KeyAllEvents, events)
			if err != nil {
				log.Ctx(ctx).Warn().Err(err).Msg("failed to cache updated listing")
			}

			return
		}
	}
}
