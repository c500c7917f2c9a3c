package usecase

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"artcurator/internal/domain"
)

const testTemplate = "%d день без рерана\nАвтор: %s\n%s"

type publishFixture struct {
	publisher *Publisher
	store     *fakeStore
	wall      *fakeWall
	wallUp    *fakeWallUploader
	clock     *fakeClock
}

func newPublishFixture(t *testing.T, interval time.Duration) *publishFixture {
	t.Helper()

	store := newFakeStore()
	wall := &fakeWall{}
	wallUp := &fakeWallUploader{}
	clock := &fakeClock{now: time.Unix(1756600000, 0)}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	counter, err := NewCounterResolver(wall, `(\d+) день без рерана`)
	if err != nil {
		t.Fatalf("counter resolver: %v", err)
	}

	uploads := NewUploads(store, &fakeFetcher{}, &fakeMessageUploader{}, wallUp, logger)
	publisher := NewPublisher(PublisherDeps{
		Candidates:   store,
		Sessions:     store,
		Uploads:      uploads,
		Wall:         wall,
		Counter:      counter,
		Interval:     interval,
		Lookback:     10,
		TextTemplate: testTemplate,
		Logger:       logger,
		Now:          clock.Now,
		Sleep:        clock.Sleep,
	})
	return &publishFixture{publisher: publisher, store: store, wall: wall, wallUp: wallUp, clock: clock}
}

func (f *publishFixture) acceptedSession(t *testing.T, ids ...int64) int64 {
	t.Helper()
	ctx := context.Background()

	var batch []domain.Candidate
	for _, id := range ids {
		c := sessionCandidate(id)
		c.Status = domain.StatusAccepted
		batch = append(batch, c)
	}
	if err := f.store.UpsertCandidates(ctx, batch); err != nil {
		t.Fatalf("seed candidates: %v", err)
	}
	sessionID, err := f.store.CreateSession(ctx, ids)
	if err != nil {
		t.Fatalf("seed session: %v", err)
	}
	return sessionID
}

func sessionCandidate(id int64) domain.Candidate {
	return domain.Candidate{
		ID:         id,
		PreviewURL: previewURL(id),
		FileURL:    fileURL(id),
		Artist:     "artist_a",
		Characters: "#HuTao #ХуТао",
		PageURL:    "https://booru/posts/1",
		SourceURL:  "https://art/1",
	}
}

func TestPublishSpacing(t *testing.T) {
	t.Parallel()

	f := newPublishFixture(t, 300*time.Second)
	now := f.clock.now.Unix()
	// The last wall post is 400s old: more than one interval, so the first
	// post goes out immediately and the second is deferred by one interval
	// measured from now.
	f.wall.recent = []domain.WallPost{{Text: "3 день без рерана", Timestamp: now - 400}}

	sessionID := f.acceptedSession(t, 10, 11)
	report, err := f.publisher.Publish(context.Background(), sessionID)
	if err != nil {
		t.Fatalf("Publish error: %v", err)
	}
	if report.Published != 2 || report.Failed != 0 {
		t.Fatalf("report = %+v, want 2/0", report)
	}

	if len(f.wall.submitted) != 2 {
		t.Fatalf("submitted %d posts, want 2", len(f.wall.submitted))
	}
	if f.wall.submitted[0].PublishAt != 0 {
		t.Fatalf("first post publishAt = %d, want immediate", f.wall.submitted[0].PublishAt)
	}
	if f.wall.submitted[1].PublishAt != now+300 {
		t.Fatalf("second post publishAt = %d, want %d", f.wall.submitted[1].PublishAt, now+300)
	}
}

func TestPublishBacklogSpacing(t *testing.T) {
	t.Parallel()

	f := newPublishFixture(t, 300*time.Second)
	now := f.clock.now.Unix()
	// The last post is only 100s old: every post in the run is deferred and
	// the schedule is strictly increasing, spaced by exactly one interval.
	f.wall.recent = []domain.WallPost{{Text: "7 день без рерана", Timestamp: now - 100}}

	sessionID := f.acceptedSession(t, 10, 11, 12)
	if _, err := f.publisher.Publish(context.Background(), sessionID); err != nil {
		t.Fatalf("Publish error: %v", err)
	}

	want := []int64{now + 200, now + 500, now + 800}
	for i, post := range f.wall.submitted {
		if post.PublishAt != want[i] {
			t.Fatalf("post %d publishAt = %d, want %d", i, post.PublishAt, want[i])
		}
	}
}

func TestPublishCounterSequence(t *testing.T) {
	t.Parallel()

	f := newPublishFixture(t, 300*time.Second)
	f.wall.recent = []domain.WallPost{
		{Text: "something unrelated", Timestamp: f.clock.now.Unix() - 50},
		{Text: "41 день без рерана", Timestamp: f.clock.now.Unix() - 1000},
	}
	// The middle candidate's upload fails; it must not consume a counter
	// value.
	f.wallUp.failOn = map[string]bool{fileURL(11): true}

	sessionID := f.acceptedSession(t, 10, 11, 12)
	report, err := f.publisher.Publish(context.Background(), sessionID)
	if err != nil {
		t.Fatalf("Publish error: %v", err)
	}
	if report.Published != 2 || report.Failed != 1 {
		t.Fatalf("report = %+v, want 2/1", report)
	}

	if !strings.HasPrefix(f.wall.submitted[0].Text, "42 день") {
		t.Fatalf("first text = %q, want counter 42", f.wall.submitted[0].Text)
	}
	if !strings.HasPrefix(f.wall.submitted[1].Text, "43 день") {
		t.Fatalf("second text = %q, want counter 43", f.wall.submitted[1].Text)
	}
}

func TestPublishFirstRunCounter(t *testing.T) {
	t.Parallel()

	f := newPublishFixture(t, 300*time.Second)
	f.wall.recent = nil // empty feed: unresolved counter is a first run

	sessionID := f.acceptedSession(t, 10)
	if _, err := f.publisher.Publish(context.Background(), sessionID); err != nil {
		t.Fatalf("Publish error: %v", err)
	}
	if !strings.HasPrefix(f.wall.submitted[0].Text, "1 день") {
		t.Fatalf("text = %q, want counter 1", f.wall.submitted[0].Text)
	}
}

func TestPublishConsumesSession(t *testing.T) {
	t.Parallel()

	f := newPublishFixture(t, 300*time.Second)
	ctx := context.Background()
	f.wall.recent = nil
	f.wallUp.failOn = map[string]bool{fileURL(11): true}

	sessionID := f.acceptedSession(t, 10, 11)
	if _, err := f.publisher.Publish(ctx, sessionID); err != nil {
		t.Fatalf("Publish error: %v", err)
	}

	// Both members are consumed even though one failed to upload.
	for _, id := range []int64{10, 11} {
		c, _, _ := f.store.Candidate(ctx, id)
		if c.Status != domain.StatusResolved {
			t.Fatalf("candidate %d status = %s, want resolved", id, c.Status)
		}
	}
	members, _ := f.store.SessionMembers(ctx, sessionID)
	if len(members) != 0 {
		t.Fatal("session must be deleted by publish")
	}
}

func TestPublishPausesBetweenSubmissions(t *testing.T) {
	t.Parallel()

	f := newPublishFixture(t, 300*time.Second)
	f.wall.recent = nil

	sessionID := f.acceptedSession(t, 10, 11, 12)
	if _, err := f.publisher.Publish(context.Background(), sessionID); err != nil {
		t.Fatalf("Publish error: %v", err)
	}
	if len(f.clock.sleeps) != 3 {
		t.Fatalf("paused %d times, want 3", len(f.clock.sleeps))
	}
}

func TestPublishSubmitFailureCounts(t *testing.T) {
	t.Parallel()

	f := newPublishFixture(t, 300*time.Second)
	f.wall.recent = nil
	f.wall.failNext = 1

	sessionID := f.acceptedSession(t, 10, 11)
	report, err := f.publisher.Publish(context.Background(), sessionID)
	if err != nil {
		t.Fatalf("Publish error: %v", err)
	}
	if report.Published != 1 || report.Failed != 1 {
		t.Fatalf("report = %+v, want 1/1", report)
	}
	// The failed submission did not consume a counter value.
	if !strings.HasPrefix(f.wall.submitted[0].Text, "1 день") {
		t.Fatalf("text = %q, want counter 1", f.wall.submitted[0].Text)
	}
}

func TestPublishEmptyAcceptedSet(t *testing.T) {
	t.Parallel()

	f := newPublishFixture(t, 300*time.Second)
	ctx := context.Background()

	// Session whose members were all rejected.
	c := sessionCandidate(10)
	c.Status = domain.StatusResolved
	if err := f.store.UpsertCandidates(ctx, []domain.Candidate{c}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	sessionID, err := f.store.CreateSession(ctx, []int64{10})
	if err != nil {
		t.Fatalf("seed session: %v", err)
	}

	report, err := f.publisher.Publish(ctx, sessionID)
	if err != nil {
		t.Fatalf("Publish error: %v", err)
	}
	if report.Published != 0 || report.Failed != 0 {
		t.Fatalf("report = %+v, want 0/0", report)
	}
	members, _ := f.store.SessionMembers(ctx, sessionID)
	if len(members) != 0 {
		t.Fatal("session must still be deleted")
	}
	if len(f.wall.submitted) != 0 {
		t.Fatal("nothing should be submitted")
	}
}
