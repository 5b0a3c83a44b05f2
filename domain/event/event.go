// Package event defines the platform event records measurements are
// computed from.
package event

import "time"

// GitHub event types.
const (
	PullRequestEvent              = "PullRequestEvent"
	PushEvent                     = "PushEvent"
	IssuesEvent                   = "IssuesEvent"
	IssueCommentEvent             = "IssueCommentEvent"
	PullRequestReviewCommentEvent = "PullRequestReviewCommentEvent"
	CommitCommentEvent            = "CommitCommentEvent"
	CreateEvent                   = "CreateEvent"
	WatchEvent                    = "WatchEvent"
	ForkEvent                     = "ForkEvent"
)

// Actions carried in the optional fifth column.
const (
	ActionOpened   = "opened"
	ActionClosed   = "closed"
	ActionMerged   = "merged"
	ActionReopened = "reopened"
)

// ContributionEvents are the events that change a repository.
func ContributionEvents() []string {
	return []string{
		PullRequestEvent, PushEvent, IssuesEvent, IssueCommentEvent,
		PullRequestReviewCommentEvent, CommitCommentEvent, CreateEvent,
	}
}

// PopularityEvents are the events that signal interest in a repository.
func PopularityEvents() []string {
	return []string{WatchEvent, ForkEvent}
}

// Event is one record of an event stream.
type Event struct {
	Time   time.Time
	Type   string
	User   string
	Repo   string
	Action string
}

// Day returns the UTC calendar day of the event, formatted 2006-01-02.
func (e Event) Day() string {
	return e.Time.UTC().Format(time.DateOnly)
}
