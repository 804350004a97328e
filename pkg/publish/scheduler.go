// Package publish maps the publish-mode setting to a content-entry write
// plan, staggering queued batches across time slots.
package publish

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Publish modes.
const (
	ModeDraft    = "draft"
	ModePublish  = "publish"
	ModeSchedule = "schedule"
)

// Statuses carried on the write plan.
const (
	StatusDraft   = "draft"
	StatusPublish = "publish"
	StatusFuture  = "future"
)

// Plan is the write plan for one record.
type Plan struct {
	Status      string
	PostType    string
	Title       string
	Content     string
	ScheduledAt *time.Time
}

// Planner computes write plans from the global publishing settings.
type Planner struct {
	Mode         string
	PostType     string
	ScheduleTime string // HH:MM
	Frequency    string // daily | weekly
	Now          func() time.Time
}

// NewPlanner creates a planner. An unrecognized mode falls back to draft.
func NewPlanner(mode, postType, scheduleTime, frequency string) *Planner {
	switch mode {
	case ModeDraft, ModePublish, ModeSchedule:
	default:
		mode = ModeDraft
	}
	if postType == "" {
		postType = "social_posts"
	}
	return &Planner{
		Mode:         mode,
		PostType:     postType,
		ScheduleTime: scheduleTime,
		Frequency:    frequency,
		Now:          time.Now,
	}
}

// Build computes the plan for the record at the given batch index. The
// caption becomes the entry content; the title is its first ten words.
func (p *Planner) Build(caption string, index int) Plan {
	plan := Plan{
		Status:   StatusDraft,
		PostType: p.PostType,
		Title:    TrimWords(caption, 10),
		Content:  caption,
	}

	switch p.Mode {
	case ModePublish:
		plan.Status = StatusPublish
	case ModeSchedule:
		at := NextScheduleTime(p.Now(), p.ScheduleTime, p.Frequency, index)
		plan.Status = StatusFuture
		plan.ScheduledAt = &at
	}

	return plan
}

var timeRe = regexp.MustCompile(`^(?:[01]\d|2[0-3]):[0-5]\d$`)

// NextScheduleTime computes the staggered release slot for a batch index.
// The base slot is today at the configured HH:MM (local time), pushed to
// tomorrow when already past. Index > 0 ladders forward: whole days under
// daily frequency, whole weeks under weekly, hours otherwise.
func NextScheduleTime(now time.Time, scheduleTime, frequency string, index int) time.Time {
	if !timeRe.MatchString(scheduleTime) {
		scheduleTime = "09:00"
	}

	parts := strings.SplitN(scheduleTime, ":", 2)
	hours, _ := strconv.Atoi(parts[0])
	minutes, _ := strconv.Atoi(parts[1])

	target := time.Date(now.Year(), now.Month(), now.Day(), hours, minutes, 0, 0, now.Location())
	if !target.After(now) {
		target = target.Add(24 * time.Hour)
	}

	switch frequency {
	case "daily":
		target = target.Add(time.Duration(index) * 24 * time.Hour)
	case "weekly":
		target = target.Add(time.Duration(index) * 7 * 24 * time.Hour)
	default:
		if index > 0 {
			target = target.Add(time.Duration(index) * time.Hour)
		}
	}

	return target
}

// Due reports whether a recurring keyword job should run now. A job with no
// prior run is always due.
func Due(lastRun *time.Time, frequency string, now time.Time) bool {
	if lastRun == nil {
		return true
	}
	interval := 24 * time.Hour
	if frequency == "weekly" {
		interval = 7 * 24 * time.Hour
	}
	return now.Sub(*lastRun) >= interval
}

// TrimWords returns the first n whitespace-separated words of s, appending
// an ellipsis when truncated.
func TrimWords(s string, n int) string {
	words := strings.Fields(s)
	if len(words) <= n {
		return strings.Join(words, " ")
	}
	return strings.Join(words[:n], " ") + "…"
}
