package core

import "time"

// Upcoming keeps the events strictly after now. When none qualify the whole
// set is returned so the map never goes blank on stale data.
func Upcoming(events []Event, now time.Time) []Event {
	upcoming := make([]Event, 0, len(events))

	for _, event := range events {
		if event.DateTime.After(now) {
			upcoming = append(upcoming, event)
		}
	}

	if len(upcoming) == 0 {
		return events
	}

	return upcoming
}
