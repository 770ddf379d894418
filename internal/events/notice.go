package events

import (
	"fmt"
	"strings"
	"time"

	"github.com/sysu-ecnc-dev/guard-roster/backend/internal/domain"
)

// Notice is the plain-text message sent to a guard about one assignment event.
type Notice struct {
	To      string
	Subject string
	Body    string
}

func ComposeNotice(evt *domain.ShiftAssignmentEvent, loc *time.Location) (*Notice, error) {
	if evt.GuardEmail == "" {
		return nil, fmt.Errorf("event %s has no guard email", evt.EventID)
	}

	start := evt.ScheduledStart.In(loc)
	end := evt.ScheduledEnd.In(loc)
	when := fmt.Sprintf("%s %s-%s", start.Format("Mon 02/01/2006"), start.Format("15:04"), end.Format("15:04"))

	var subject string
	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s,\n\n", evt.GuardName)

	switch evt.Type {
	case domain.EventShiftAssignmentCreated:
		subject = "New shift assignment: " + when
		fmt.Fprintf(&b, "You have been assigned to a %s shift at %s on %s.\n",
			domain.ClassifyTimeSlot(start), evt.LocationName, when)
	case domain.EventShiftAssignmentCancelled:
		subject = "Shift assignment cancelled: " + when
		fmt.Fprintf(&b, "Your shift at %s on %s has been cancelled.\n", evt.LocationName, when)
		if evt.Reason != "" {
			fmt.Fprintf(&b, "Reason: %s\n", evt.Reason)
		}
	default:
		return nil, fmt.Errorf("unsupported event type %q", evt.Type)
	}

	fmt.Fprintf(&b, "\nAssignment #%d, shift #%d.\n", evt.AssignmentID, evt.ShiftID)

	return &Notice{
		To:      evt.GuardEmail,
		Subject: subject,
		Body:    b.String(),
	}, nil
}

const (
	minSendBackoff = 2 * time.Second
	maxSendBackoff = 5 * time.Minute
)

// SendBackoff is how long a worker waits before requeueing after its n-th consecutive delivery
// failure: it doubles from two seconds and is capped at five minutes.
func SendBackoff(failures int) time.Duration {
	if failures <= 0 {
		return 0
	}
	d := minSendBackoff
	for i := 1; i < failures && d < maxSendBackoff; i++ {
		d *= 2
	}
	return min(d, maxSendBackoff)
}
