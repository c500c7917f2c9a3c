package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"artcurator/internal/domain"
	"artcurator/internal/ports"
	"artcurator/internal/tags"
)

// ReviewDeps wires all driven adapters into the review engine.
type ReviewDeps struct {
	Searcher   ports.Searcher
	Candidates ports.CandidateStore
	Sessions   ports.SessionStore
	Uploads    *Uploads
	Tags       *tags.Normalizer
	Logger     *slog.Logger
}

// Review is the pagination state machine driving a review session. It keeps
// no per-session cursor: every card binds the next offset into its actions,
// and the transport round-trips that value back.
type Review struct {
	searcher   ports.Searcher
	candidates ports.CandidateStore
	sessions   ports.SessionStore
	uploads    *Uploads
	tags       *tags.Normalizer
	logger     *slog.Logger
}

// NewReview constructs the review engine.
func NewReview(deps ReviewDeps) *Review {
	return &Review{
		searcher:   deps.Searcher,
		candidates: deps.Candidates,
		sessions:   deps.Sessions,
		uploads:    deps.Uploads,
		tags:       deps.Tags,
		logger:     deps.Logger,
	}
}

// DiscoverResult reports the outcome of one search pass.
type DiscoverResult struct {
	SessionID int64
	NewCount  int
	Created   bool
}

// Discover runs the provider search, drops everything already reviewed,
// stores the rest and opens a review session over them. Candidates that were
// seen before but never decided on are presented again. With nothing new the
// result has Created == false and no session exists.
func (r *Review) Discover(ctx context.Context, query string, limit int) (DiscoverResult, error) {
	hits, err := r.searcher.Search(ctx, query, limit)
	if err != nil {
		return DiscoverResult{}, fmt.Errorf("search: %w", err)
	}

	stored, err := r.candidates.AllCandidates(ctx)
	if err != nil {
		return DiscoverResult{}, fmt.Errorf("load candidates: %w", err)
	}
	reviewed := make(map[int64]struct{})
	for _, c := range stored {
		if c.Status != domain.StatusUndecided {
			reviewed[c.ID] = struct{}{}
		}
	}

	var fresh []domain.Candidate
	for _, hit := range hits {
		if _, done := reviewed[hit.ID]; done {
			continue
		}
		fresh = append(fresh, domain.Candidate{
			ID:         hit.ID,
			Status:     domain.StatusUndecided,
			PreviewURL: hit.PreviewURL,
			FileURL:    hit.FileURL,
			Artist:     hit.Artist,
			Characters: r.tags.Normalize(hit.CharacterTags),
			PageURL:    hit.PageURL,
			SourceURL:  hit.SourceURL,
		})
		r.logger.Info("found candidate", "candidate", hit.ID, "artist", hit.Artist, "page", hit.PageURL)
	}

	if len(fresh) == 0 {
		return DiscoverResult{}, nil
	}

	if err := r.candidates.UpsertCandidates(ctx, fresh); err != nil {
		return DiscoverResult{}, fmt.Errorf("store candidates: %w", err)
	}

	ids := make([]int64, len(fresh))
	for i, c := range fresh {
		ids[i] = c.ID
	}
	sessionID, err := r.sessions.CreateSession(ctx, ids)
	if err != nil {
		return DiscoverResult{}, fmt.Errorf("create session: %w", err)
	}

	return DiscoverResult{SessionID: sessionID, NewCount: len(fresh), Created: true}, nil
}

// Advance produces the card at offset, or the end-of-session card when the
// offset is past the member list. An unknown session is indistinguishable
// from an exhausted one and also ends the session.
func (r *Review) Advance(ctx context.Context, sessionID int64, offset int, peerID int64) (domain.Card, error) {
	members, err := r.sessions.SessionMembers(ctx, sessionID)
	if err != nil {
		return domain.Card{}, fmt.Errorf("load session %d: %w", sessionID, err)
	}
	if offset < 0 || offset >= len(members) {
		return endOfSessionCard(sessionID), nil
	}

	candidateID := members[offset]
	candidate, ok, err := r.candidates.Candidate(ctx, candidateID)
	if err != nil {
		return domain.Card{}, fmt.Errorf("load candidate %d: %w", candidateID, err)
	}
	if !ok {
		return domain.Card{}, fmt.Errorf("session %d references unknown candidate %d", sessionID, candidateID)
	}

	// Upload failures degrade the card to text-only, they never abort.
	attachment, err := r.uploads.MessagePhoto(ctx, candidate, peerID)
	if err != nil {
		r.logger.Warn("could not attach preview", "candidate", candidateID, "error", err)
		attachment = ""
	}

	next := offset + 1
	return domain.Card{
		Text:       cardText(candidate),
		Attachment: attachment,
		Actions: []domain.Action{
			{Kind: domain.ActionAccept, CandidateID: candidateID, SessionID: sessionID, NextOffset: next},
			{Kind: domain.ActionReject, CandidateID: candidateID, SessionID: sessionID, NextOffset: next},
			{Kind: domain.ActionUnsure, CandidateID: candidateID, SessionID: sessionID, NextOffset: next},
			{Kind: domain.ActionEndSession, SessionID: sessionID},
		},
	}, nil
}

// ApplyDecision records a reviewer verdict. Unsure changes nothing; the
// reviewer simply moves on.
func (r *Review) ApplyDecision(ctx context.Context, candidateID int64, decision domain.Decision) error {
	switch decision {
	case domain.DecisionAccept:
		return r.candidates.SetStatus(ctx, []int64{candidateID}, domain.StatusAccepted)
	case domain.DecisionReject:
		return r.candidates.SetStatus(ctx, []int64{candidateID}, domain.StatusResolved)
	case domain.DecisionUnsure:
		return nil
	default:
		return fmt.Errorf("unknown decision %q", decision)
	}
}

// Cancel rolls a session back completely: every member reverts to undecided,
// including the ones already accepted or rejected, and the session is gone.
func (r *Review) Cancel(ctx context.Context, sessionID int64) error {
	members, err := r.sessions.SessionMembers(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("load session %d: %w", sessionID, err)
	}
	if err := r.candidates.SetStatus(ctx, members, domain.StatusUndecided); err != nil {
		return fmt.Errorf("reset statuses: %w", err)
	}
	if err := r.sessions.DeleteSession(ctx, sessionID); err != nil {
		return fmt.Errorf("delete session %d: %w", sessionID, err)
	}
	r.logger.Info("session cancelled", "session", sessionID, "members", len(members))
	return nil
}

// AcceptedCount reports how many members of a session are currently accepted,
// for the pre-publish confirmation message.
func (r *Review) AcceptedCount(ctx context.Context, sessionID int64) (int, error) {
	accepted, err := acceptedMembers(ctx, r.candidates, r.sessions, sessionID)
	if err != nil {
		return 0, err
	}
	return len(accepted), nil
}

func cardText(c domain.Candidate) string {
	return fmt.Sprintf(
		"🎨 Арт от %s\nПост на Danbooru: %s\nИсточник: %s\nПерсонажи: %s\n",
		c.Artist, c.PageURL, c.SourceURL, c.Characters,
	)
}

func endOfSessionCard(sessionID int64) domain.Card {
	return domain.Card{
		EndOfSession: true,
		Text:         "🚩 Вы просмотрели все арты!",
		Actions: []domain.Action{
			{Kind: domain.ActionEndSession, SessionID: sessionID},
		},
	}
}

// acceptedMembers returns the accepted members of a session in their original
// presentation order.
func acceptedMembers(ctx context.Context, candidates ports.CandidateStore, sessions ports.SessionStore, sessionID int64) ([]domain.Candidate, error) {
	members, err := sessions.SessionMembers(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load session %d: %w", sessionID, err)
	}
	if len(members) == 0 {
		return nil, nil
	}

	stored, err := candidates.AllCandidates(ctx)
	if err != nil {
		return nil, fmt.Errorf("load candidates: %w", err)
	}
	byID := make(map[int64]domain.Candidate, len(stored))
	for _, c := range stored {
		byID[c.ID] = c
	}

	var accepted []domain.Candidate
	for _, id := range members {
		if c, ok := byID[id]; ok && c.Status == domain.StatusAccepted {
			accepted = append(accepted, c)
		}
	}
	return accepted, nil
}
