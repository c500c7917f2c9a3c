package domain

// Status enumerates the review states of a candidate.
type Status string

const (
	// StatusUndecided means the candidate has not been reviewed yet.
	StatusUndecided Status = "no_rating"
	// StatusAccepted means the reviewer picked the candidate for publishing.
	StatusAccepted Status = "to_post"
	// StatusResolved is terminal: rejected, or already consumed by a publish run.
	StatusResolved Status = "deleted"
)

// Candidate is one discovered image record with its review status.
// All descriptive fields are captured at discovery time and never change.
type Candidate struct {
	ID         int64
	Status     Status
	PreviewURL string
	FileURL    string
	Artist     string
	Characters string // normalized display tag string
	PageURL    string
	SourceURL  string
}

// SearchHit is a raw provider record before normalization and dedup.
type SearchHit struct {
	ID            int64
	PreviewURL    string
	FileURL       string
	Artist        string
	CharacterTags string // provider tag string, whitespace separated
	PageURL       string
	SourceURL     string
}

// WallPost is one published feed post as returned by the feed API.
type WallPost struct {
	Text      string
	Timestamp int64 // unix seconds
}

// Decision is a reviewer verdict on a single candidate.
type Decision string

const (
	DecisionAccept Decision = "accept"
	DecisionReject Decision = "reject"
	DecisionUnsure Decision = "unsure"
)

// ActionKind identifies one of the buttons offered with a card.
type ActionKind string

const (
	ActionAccept     ActionKind = "accept"
	ActionReject     ActionKind = "reject"
	ActionUnsure     ActionKind = "unsure"
	ActionEndSession ActionKind = "end_session"
)

// Action is a reviewer affordance with its round-trip parameters pre-bound.
// NextOffset carries the cursor: the transport echoes it back verbatim, so
// the engine never stores a per-session "current position".
type Action struct {
	Kind        ActionKind
	CandidateID int64
	SessionID   int64
	NextOffset  int
}

// Card is the rendered unit shown to a reviewer for one candidate, or the
// end-of-session state when EndOfSession is set.
type Card struct {
	EndOfSession bool
	Text         string
	Attachment   string // media handle; empty when upload failed or at end
	Actions      []Action
}

// AttachmentKind separates cached upload handles by destination, since the
// feed API issues different tokens for chat photos and wall photos.
type AttachmentKind string

const (
	AttachmentMessage AttachmentKind = "message"
	AttachmentWall    AttachmentKind = "wall"
)
