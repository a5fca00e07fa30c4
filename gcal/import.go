// ABOUTME: Converts busy Google Calendar events into blockout ranges
// ABOUTME: Pages through the primary calendar and records the import in sync_state
package gcal

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strconv"
	"time"

	engagecal "github.com/harperreed/engage/calendar"
	"github.com/harperreed/engage/codec"
	"github.com/harperreed/engage/db"
	"google.golang.org/api/calendar/v3"
)

const maxResults = 250 // Google Calendar API max per page

// Skip reasons.
const (
	SkipMissingStart = "missing start time"
	SkipCancelled    = "cancelled"
	SkipFree         = "free"
	SkipDeclined     = "declined"
	SkipUnparseable  = "unparseable time"
)

// Result summarizes one import.
type Result struct {
	Ranges  []codec.BlockoutRange
	Fetched int
	Skipped map[string]int
}

// skipReason returns "" for events that make the operator busy.
func skipReason(event *calendar.Event) string {
	if event == nil || event.Start == nil || event.End == nil {
		return SkipMissingStart
	}
	if event.Status == "cancelled" {
		return SkipCancelled
	}
	if event.Transparency == "transparent" {
		return SkipFree
	}
	for _, attendee := range event.Attendees {
		if attendee.Self && attendee.ResponseStatus == "declined" {
			return SkipDeclined
		}
	}
	return ""
}

// BusyRanges converts events to blockout ranges.
// All-day events become one all-day range per local date; timed events keep their exact span.
func BusyRanges(events []*calendar.Event, loc *time.Location) ([]codec.BlockoutRange, map[string]int) {
	skipped := make(map[string]int)
	var ranges []codec.BlockoutRange
	for _, event := range events {
		if reason := skipReason(event); reason != "" {
			skipped[reason]++
			continue
		}
		rs, err := eventRanges(event, loc)
		if err != nil {
			skipped[SkipUnparseable]++
			continue
		}
		ranges = append(ranges, rs...)
	}
	return codec.NormalizeBlockoutRanges(ranges), skipped
}

func eventRanges(event *calendar.Event, loc *time.Location) ([]codec.BlockoutRange, error) {
	if event.Start.Date != "" {
		first, err := time.Parse("2006-01-02", event.Start.Date)
		if err != nil {
			return nil, err
		}
		// End.Date is exclusive; a missing one means a single day.
		last := first.AddDate(0, 0, 1)
		if event.End.Date != "" {
			if last, err = time.Parse("2006-01-02", event.End.Date); err != nil {
				return nil, err
			}
		}
		var out []codec.BlockoutRange
		for day := first; day.Before(last); day = day.AddDate(0, 0, 1) {
			r, err := engagecal.BuildRange(day.Format("2006-01-02"), true, "", "", loc)
			if err != nil {
				return nil, err
			}
			out = append(out, r)
		}
		return out, nil
	}

	start, err := time.Parse(time.RFC3339, event.Start.DateTime)
	if err != nil {
		return nil, err
	}
	end, err := time.Parse(time.RFC3339, event.End.DateTime)
	if err != nil {
		return nil, err
	}
	r := codec.BlockoutRange{Start: start.UTC(), End: end.UTC()}
	if !r.Valid() {
		return nil, fmt.Errorf("event %s ends before it starts", event.Id)
	}
	return []codec.BlockoutRange{r}, nil
}

// Import fetches primary-calendar events in [from, to) and converts the busy ones.
// When database is non-nil the run is tracked under db.ServiceGoogleCalendar.
func Import(ctx context.Context, database *sql.DB, svc *calendar.Service, from, to time.Time, loc *time.Location) (*Result, error) {
	track := func(status string, msg *string) {
		if database != nil {
			_ = db.UpdateSyncStatus(database, db.ServiceGoogleCalendar, status, msg)
		}
	}
	track(db.SyncStatusSyncing, nil)

	var events []*calendar.Event
	pageToken := ""
	for page := 1; ; page++ {
		call := svc.Events.List("primary").
			TimeMin(from.Format(time.RFC3339)).
			TimeMax(to.Format(time.RFC3339)).
			MaxResults(maxResults).
			SingleEvents(true).
			OrderBy("startTime").
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		resp, err := call.Do()
		if err != nil {
			msg := fmt.Sprintf("failed to fetch events: %v", err)
			track(db.SyncStatusError, &msg)
			return nil, fmt.Errorf("failed to fetch calendar events: %w", err)
		}
		events = append(events, resp.Items...)
		log.Printf("gcal: fetched %d events (page %d)", len(resp.Items), page)

		pageToken = resp.NextPageToken
		if pageToken == "" {
			break
		}
	}

	ranges, skipped := BusyRanges(events, loc)
	if database != nil {
		if err := db.CompleteSync(database, db.ServiceGoogleCalendar, strconv.Itoa(len(ranges)), time.Now()); err != nil {
			return nil, err
		}
	}
	return &Result{Ranges: ranges, Fetched: len(events), Skipped: skipped}, nil
}

// Merge adds imported ranges to a blockout and enables it.
func Merge(b engagecal.Blockout, ranges []codec.BlockoutRange) engagecal.Blockout {
	next := b.Normalize()
	for _, r := range ranges {
		next.Ranges = engagecal.AddRange(next.Ranges, r)
	}
	if len(ranges) > 0 {
		next.Enabled = true
	}
	return next
}
