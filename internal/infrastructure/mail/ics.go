package mail

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

const icsTimeLayout = "20060102T150405Z"

// buildICS renders a minimal iCalendar REQUEST for the appointment so mail
// clients can add it to the recipient's calendar.
func buildICS(summary string, start, end time.Time, description, location, organizerEmail string, attendeeEmails []string, uid string) string {
	if uid == "" {
		uid = fmt.Sprintf("%s@unity-care", uuid.New())
	}
	desc := strings.ReplaceAll(description, "\n", "\\n")

	lines := []string{
		"BEGIN:VCALENDAR",
		"PRODID:-//Unity Care Clinic//Booking//EN",
		"VERSION:2.0",
		"CALSCALE:GREGORIAN",
		"METHOD:REQUEST",
		"BEGIN:VEVENT",
		"UID:" + uid,
		"DTSTAMP:" + time.Now().UTC().Format(icsTimeLayout),
		"DTSTART:" + start.UTC().Format(icsTimeLayout),
		"DTEND:" + end.UTC().Format(icsTimeLayout),
		"SUMMARY:" + summary,
		"DESCRIPTION:" + desc,
	}
	if location != "" {
		lines = append(lines, "LOCATION:"+location)
	}
	if organizerEmail != "" {
		lines = append(lines, "ORGANIZER;CN=Unity Care Clinic:MAILTO:"+organizerEmail)
	}
	for _, email := range attendeeEmails {
		if email != "" {
			lines = append(lines, fmt.Sprintf("ATTENDEE;CN=%s;RSVP=FALSE:MAILTO:%s", email, email))
		}
	}
	lines = append(lines, "END:VEVENT", "END:VCALENDAR")
	return strings.Join(lines, "\r\n") + "\r\n"
}

// googleAddToCalendarLink builds a render URL the patient can click when the
// mail client ignores the ICS attachment.
func googleAddToCalendarLink(summary string, start, end time.Time, details, location string) string {
	params := url.Values{}
	params.Set("action", "TEMPLATE")
	params.Set("text", summary)
	params.Set("dates", start.UTC().Format(icsTimeLayout)+"/"+end.UTC().Format(icsTimeLayout))
	params.Set("details", details)
	if location != "" {
		params.Set("location", location)
	}
	return "https://calendar.google.com/calendar/render?" + params.Encode()
}
