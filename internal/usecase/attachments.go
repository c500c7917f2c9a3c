package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"artcurator/internal/domain"
	"artcurator/internal/ports"
)

// Uploads resolves media handles for candidates through the attachment
// cache: a cache hit never re-uploads, a miss fetches the image bytes,
// uploads them and records the handle. The handle is cached as soon as the
// upload succeeds, independent of whatever the caller does next; uploads are
// expensive and safe to keep.
type Uploads struct {
	cache    ports.AttachmentCache
	fetcher  ports.ImageFetcher
	messages ports.MessageUploader
	wall     ports.WallUploader
	logger   *slog.Logger
}

// NewUploads wires the cache with both upload destinations.
func NewUploads(cache ports.AttachmentCache, fetcher ports.ImageFetcher, messages ports.MessageUploader, wall ports.WallUploader, logger *slog.Logger) *Uploads {
	return &Uploads{
		cache:    cache,
		fetcher:  fetcher,
		messages: messages,
		wall:     wall,
		logger:   logger,
	}
}

// MessagePhoto returns a chat-attachable handle for the candidate's preview.
func (u *Uploads) MessagePhoto(ctx context.Context, c domain.Candidate, peerID int64) (string, error) {
	return u.getOrUpload(ctx, c.ID, domain.AttachmentMessage, c.PreviewURL, func(data []byte) (string, error) {
		return u.messages.UploadMessagePhoto(ctx, data, peerID)
	})
}

// WallPhoto returns a feed-attachable handle for the candidate's full image.
func (u *Uploads) WallPhoto(ctx context.Context, c domain.Candidate) (string, error) {
	return u.getOrUpload(ctx, c.ID, domain.AttachmentWall, c.FileURL, func(data []byte) (string, error) {
		return u.wall.UploadWallPhoto(ctx, data)
	})
}

func (u *Uploads) getOrUpload(ctx context.Context, id int64, kind domain.AttachmentKind, sourceURL string, upload func([]byte) (string, error)) (string, error) {
	handle, ok, err := u.cache.CachedAttachment(ctx, id, kind)
	if err != nil {
		return "", fmt.Errorf("read attachment cache: %w", err)
	}
	if ok {
		u.logger.Debug("attachment cache hit", "candidate", id, "kind", kind)
		return handle, nil
	}

	u.logger.Info("uploading new attachment", "candidate", id, "kind", kind)
	data, err := u.fetcher.Fetch(ctx, sourceURL)
	if err != nil {
		return "", fmt.Errorf("fetch image for %d: %w", id, err)
	}
	handle, err = upload(data)
	if err != nil {
		return "", fmt.Errorf("upload image for %d: %w", id, err)
	}

	if err := u.cache.CacheAttachment(ctx, id, kind, handle); err != nil {
		return "", fmt.Errorf("cache attachment for %d: %w", id, err)
	}
	return handle, nil
}
