package usecase

import (
	"context"
	"fmt"
	"time"

	"artcurator/internal/domain"
)

// fakeStore is an in-memory stand-in for all persistence ports.
type fakeStore struct {
	candidates  map[int64]domain.Candidate
	order       []int64
	sessions    map[int64][]int64
	nextSession int64
	attachments map[string]string
	settings    map[string]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		candidates:  map[int64]domain.Candidate{},
		sessions:    map[int64][]int64{},
		attachments: map[string]string{},
		settings:    map[string]string{},
	}
}

func (s *fakeStore) UpsertCandidates(_ context.Context, candidates []domain.Candidate) error {
	for _, c := range candidates {
		if _, ok := s.candidates[c.ID]; ok {
			continue
		}
		if c.Status == "" {
			c.Status = domain.StatusUndecided
		}
		s.candidates[c.ID] = c
		s.order = append(s.order, c.ID)
	}
	return nil
}

func (s *fakeStore) SetStatus(_ context.Context, ids []int64, status domain.Status) error {
	for _, id := range ids {
		c, ok := s.candidates[id]
		if !ok {
			continue
		}
		c.Status = status
		s.candidates[id] = c
	}
	return nil
}

func (s *fakeStore) AllCandidates(_ context.Context) ([]domain.Candidate, error) {
	out := make([]domain.Candidate, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.candidates[id])
	}
	return out, nil
}

func (s *fakeStore) Candidate(_ context.Context, id int64) (domain.Candidate, bool, error) {
	c, ok := s.candidates[id]
	return c, ok, nil
}

func (s *fakeStore) CandidateExists(_ context.Context, id int64) (bool, error) {
	_, ok := s.candidates[id]
	return ok, nil
}

func (s *fakeStore) CreateSession(_ context.Context, ids []int64) (int64, error) {
	s.nextSession++
	s.sessions[s.nextSession] = append([]int64(nil), ids...)
	return s.nextSession, nil
}

func (s *fakeStore) SessionMembers(_ context.Context, sessionID int64) ([]int64, error) {
	return s.sessions[sessionID], nil
}

func (s *fakeStore) DeleteSession(_ context.Context, sessionID int64) error {
	delete(s.sessions, sessionID)
	return nil
}

func (s *fakeStore) CacheAttachment(_ context.Context, id int64, kind domain.AttachmentKind, handle string) error {
	key := attachmentKey(id, kind)
	if _, ok := s.attachments[key]; ok {
		return nil
	}
	s.attachments[key] = handle
	return nil
}

func (s *fakeStore) CachedAttachment(_ context.Context, id int64, kind domain.AttachmentKind) (string, bool, error) {
	handle, ok := s.attachments[attachmentKey(id, kind)]
	return handle, ok, nil
}

func (s *fakeStore) SetValue(_ context.Context, key, value string) error {
	s.settings[key] = value
	return nil
}

func (s *fakeStore) Value(_ context.Context, key string) (string, bool, error) {
	value, ok := s.settings[key]
	return value, ok, nil
}

func attachmentKey(id int64, kind domain.AttachmentKind) string {
	return fmt.Sprintf("%d/%s", id, kind)
}

type fakeSearcher struct {
	hits []domain.SearchHit
	err  error
}

func (s *fakeSearcher) Search(context.Context, string, int) ([]domain.SearchHit, error) {
	return s.hits, s.err
}

// fakeFetcher echoes the URL back as bytes so uploads can key off it.
type fakeFetcher struct {
	failURLs map[string]bool
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) ([]byte, error) {
	if f.failURLs[url] {
		return nil, fmt.Errorf("fetch %s: connection reset", url)
	}
	return []byte(url), nil
}

type fakeMessageUploader struct {
	calls  int
	failOn map[string]bool // keyed by fetched bytes (= source URL)
}

func (u *fakeMessageUploader) UploadMessagePhoto(_ context.Context, data []byte, _ int64) (string, error) {
	u.calls++
	if u.failOn[string(data)] {
		return "", fmt.Errorf("upload rejected")
	}
	return "msg:" + string(data), nil
}

type fakeWallUploader struct {
	calls  int
	failOn map[string]bool
}

func (u *fakeWallUploader) UploadWallPhoto(_ context.Context, data []byte) (string, error) {
	u.calls++
	if u.failOn[string(data)] {
		return "", fmt.Errorf("upload rejected")
	}
	return "wall:" + string(data), nil
}

type submittedPost struct {
	Text       string
	Attachment string
	PublishAt  int64
}

type fakeWall struct {
	recent    []domain.WallPost
	recentErr error
	submitted []submittedPost
	failNext  int // fail the next N CreatePost calls
}

func (w *fakeWall) RecentPosts(context.Context, int) ([]domain.WallPost, error) {
	return w.recent, w.recentErr
}

func (w *fakeWall) CreatePost(_ context.Context, text, attachment string, publishAt int64) error {
	if w.failNext > 0 {
		w.failNext--
		return fmt.Errorf("wall post failed")
	}
	w.submitted = append(w.submitted, submittedPost{Text: text, Attachment: attachment, PublishAt: publishAt})
	return nil
}

type fakeClock struct {
	now    time.Time
	sleeps []time.Duration
}

func (c *fakeClock) Now() time.Time        { return c.now }
func (c *fakeClock) Sleep(d time.Duration) { c.sleeps = append(c.sleeps, d) }
