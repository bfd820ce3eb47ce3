package core

import (
	"strings"

	"github.com/google/uuid"
)

// PlaceholderImageUrl is used for events created without a photo.
const PlaceholderImageUrl = "https://i1.wp.com/www.slashfilm.com/wp/wp-content/images/Minions-movie-2.jpg"

func ValidateDraft(draft EventDraft) error {
	if len(strings.TrimSpace(draft.Name)) == 0 {
		return NewValidationError(ReasonMissingField, "name is required")
	}

	if len(strings.TrimSpace(draft.Description)) == 0 {
		return NewValidationError(ReasonMissingField, "description is required")
	}

	if draft.VolunteersNeeded <= 0 {
		return NewValidationError(ReasonInvalidField, "volunteers needed must be a positive number")
	}

	if draft.DateTime.IsZero() {
		return NewValidationError(ReasonMissingField, "date and time are required")
	}

	return nil
}

// NewEvent turns a validated draft into an event with a fresh id, ready to be
// sent. The id is fixed here so that resending the same event is idempotent.
func NewEvent(draft EventDraft, organizerId string) *Event {
	imageUrl := strings.TrimSpace(draft.ImageUrl)
	if imageUrl == "" {
		imageUrl = PlaceholderImageUrl
	}

	return &Event{
		Id:               uuid.NewString(),
		Name:             strings.TrimSpace(draft.Name),
		Description:      strings.TrimSpace(draft.Description),
		DateTime:         draft.DateTime.UTC(),
		ImageUrl:         imageUrl,
		OrganizerId:      organizerId,
		Position:         draft.Position,
		VolunteersNeeded: draft.VolunteersNeeded,
		VolunteersIds:    []string{},
	}
}

// CheckVolunteer applies the sign-up preconditions in order. already is true
// when userId is on the list, which is not an error.
func CheckVolunteer(event *Event, userId string) (already bool, err error) {
	if strings.TrimSpace(userId) == "" {
		return false, NewValidationError(ReasonNotAuthenticated, "no user logged in")
	}

	if event.IsFull() {
		return false, NewValidationError(ReasonEventFull, "team is full")
	}

	if event.HasVolunteer(userId) {
		return true, nil
	}

	return false, nil
}
