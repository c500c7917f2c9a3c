package ports

import (
	"context"

	"artcurator/internal/domain"
)

// Searcher pulls candidate records from the tag-search provider.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]domain.SearchHit, error)
}

// ImageFetcher downloads raw image bytes from a candidate URL.
type ImageFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// MessageUploader turns image bytes into a chat-attachable media handle.
type MessageUploader interface {
	UploadMessagePhoto(ctx context.Context, data []byte, peerID int64) (string, error)
}

// WallUploader turns image bytes into a feed-attachable media handle.
type WallUploader interface {
	UploadWallPhoto(ctx context.Context, data []byte) (string, error)
}

// Wall reads and writes the social feed.
type Wall interface {
	// RecentPosts returns up to count posts, newest first.
	RecentPosts(ctx context.Context, count int) ([]domain.WallPost, error)
	// CreatePost submits a post; publishAt == 0 means publish immediately.
	CreatePost(ctx context.Context, text, attachment string, publishAt int64) error
}

// CandidateStore persists every candidate ever seen and its review status.
type CandidateStore interface {
	// UpsertCandidates inserts new candidates; ids already present are left
	// untouched, status included.
	UpsertCandidates(ctx context.Context, candidates []domain.Candidate) error
	SetStatus(ctx context.Context, ids []int64, status domain.Status) error
	AllCandidates(ctx context.Context) ([]domain.Candidate, error)
	Candidate(ctx context.Context, id int64) (domain.Candidate, bool, error)
	CandidateExists(ctx context.Context, id int64) (bool, error)
}

// SessionStore persists the ordered member list of each review session.
type SessionStore interface {
	CreateSession(ctx context.Context, ids []int64) (int64, error)
	// SessionMembers returns the member ids in presentation order. An unknown
	// session yields an empty list, not an error.
	SessionMembers(ctx context.Context, sessionID int64) ([]int64, error)
	DeleteSession(ctx context.Context, sessionID int64) error
}

// AttachmentCache maps candidate ids to already-uploaded media handles.
type AttachmentCache interface {
	// CacheAttachment records a handle; an existing entry is never overwritten.
	CacheAttachment(ctx context.Context, id int64, kind domain.AttachmentKind, handle string) error
	CachedAttachment(ctx context.Context, id int64, kind domain.AttachmentKind) (string, bool, error)
}

// KeyValue is a small settings store for values outside the candidate model.
type KeyValue interface {
	SetValue(ctx context.Context, key, value string) error
	Value(ctx context.Context, key string) (string, bool, error)
}
