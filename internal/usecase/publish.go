package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"artcurator/internal/domain"
	"artcurator/internal/ports"
)

// submitPause is the fixed delay between feed submissions; the feed API
// throttles rapid bursts.
const submitPause = 2 * time.Second

// PublisherDeps wires the publish scheduler.
type PublisherDeps struct {
	Candidates   ports.CandidateStore
	Sessions     ports.SessionStore
	Uploads      *Uploads
	Wall         ports.Wall
	Counter      *CounterResolver
	Interval     time.Duration
	Lookback     int
	TextTemplate string // fmt template: counter value, artist, tag string
	Logger       *slog.Logger

	// Now and Sleep default to the real clock; tests replace them.
	Now   func() time.Time
	Sleep func(time.Duration)
}

// Publisher drains the accepted subset of a closed session to the feed,
// spacing posts by a minimum interval and numbering them with the running
// counter.
type Publisher struct {
	deps PublisherDeps
}

// Report is the partial-success outcome of one publish run. A non-zero
// Failed is not an error; the caller shows both numbers to the reviewer.
type Report struct {
	Published int
	Failed    int
}

// NewPublisher constructs the publish scheduler.
func NewPublisher(deps PublisherDeps) *Publisher {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Sleep == nil {
		deps.Sleep = time.Sleep
	}
	return &Publisher{deps: deps}
}

// Publish runs the full publishing pass for a session. It must only be
// called after the reviewer explicitly confirmed the end of the session.
// Once started it runs over the whole accepted list; there is no mid-run
// cancellation beyond ctx plumbed into individual calls.
func (p *Publisher) Publish(ctx context.Context, sessionID int64) (Report, error) {
	d := p.deps

	accepted, err := acceptedMembers(ctx, d.Candidates, d.Sessions, sessionID)
	if err != nil {
		return Report{}, err
	}

	// Accepted members are consumed now, publish outcome notwithstanding:
	// a failed upload must not re-surface already-decided content in the
	// next search. The session delete and the status write are two separate
	// store calls; a crash between them leaves accepted candidates without
	// an owning session, which is an accepted risk.
	if err := d.Sessions.DeleteSession(ctx, sessionID); err != nil {
		return Report{}, fmt.Errorf("delete session %d: %w", sessionID, err)
	}
	ids := make([]int64, len(accepted))
	for i, c := range accepted {
		ids[i] = c.ID
	}
	if err := d.Candidates.SetStatus(ctx, ids, domain.StatusResolved); err != nil {
		return Report{}, fmt.Errorf("mark resolved: %w", err)
	}

	if len(accepted) == 0 {
		return Report{}, nil
	}

	posts, err := d.Wall.RecentPosts(ctx, d.Lookback)
	if err != nil {
		return Report{}, fmt.Errorf("load recent posts: %w", err)
	}
	var lastPostTime int64
	if len(posts) > 0 {
		lastPostTime = posts[0].Timestamp
	}

	counter := 1
	if value, ok := d.Counter.Resolve(posts); ok {
		counter = value + 1
	} else {
		d.Logger.Info("no prior counter found, starting from 1")
	}

	intervalSec := int64(d.Interval / time.Second)
	var report Report
	for _, candidate := range accepted {
		attachment, err := d.Uploads.WallPhoto(ctx, candidate)
		if err != nil {
			// Skipped items consume neither a counter value nor a slot in
			// the publish schedule.
			d.Logger.Warn("wall upload failed", "candidate", candidate.ID, "error", err)
			report.Failed++
			continue
		}

		text := fmt.Sprintf(d.TextTemplate, counter, candidate.Artist, candidate.Characters)

		now := d.Now().Unix()
		var publishAt int64
		if lastPostTime+intervalSec >= now {
			publishAt = lastPostTime + intervalSec
		}

		if err := d.Wall.CreatePost(ctx, text, attachment, publishAt); err != nil {
			d.Logger.Warn("wall post failed", "candidate", candidate.ID, "error", err)
			report.Failed++
			continue
		}

		if publishAt > 0 {
			lastPostTime = publishAt
		} else {
			lastPostTime = now
		}
		counter++
		report.Published++
		d.Logger.Info("published", "candidate", candidate.ID, "publishAt", publishAt, "counter", counter-1)

		d.Sleep(submitPause)
	}

	return report, nil
}
