package models

// LocalPhoto represents a user-selected image pending or already associated
// with a backend resource.
type LocalPhoto struct {
	ID          string `json:"id"`
	Path        string `json:"path"`
	PreviewURI  string `json:"preview_uri"`
	DisplayName string `json:"display_name"`
	RemoteID    string `json:"remote_id,omitempty"`
}

// Uploaded reports whether the backend has stored this photo.
func (p LocalPhoto) Uploaded() bool {
	return p.RemoteID != ""
}

// CrushPhoto is the single-photo input of the opener workflow. It is sent as
// encoded content directly and never as a stored resource reference, so it
// carries no remote id.
type CrushPhoto struct {
	Path        string `json:"path"`
	PreviewURI  string `json:"preview_uri"`
	DisplayName string `json:"display_name"`
}

// GeneratedProfile is the immutable result of a profile-generation call.
// It is replaced wholesale on regeneration, never partially updated.
type GeneratedProfile struct {
	Bio             string   `json:"bio"`
	Traits          []string `json:"traits"`
	Interests       []string `json:"interests"`
	MatchPercentage int      `json:"match_percentage"`
	ProfileStrength string   `json:"profile_strength"`
}

// Opener is one conversation-starter candidate.
type Opener struct {
	Text       string `json:"text"`
	Confidence int    `json:"confidence"`
	Type       string `json:"type"`
}

// Session is the authenticated identity.
type Session struct {
	ID        string   `json:"id"`
	Email     string   `json:"email"`
	Name      string   `json:"name"`
	Plan      PlanTier `json:"plan"`
	CreatedAt string   `json:"created_at"`
	Token     string   `json:"token"`
}

// Valid reports whether the session carries the non-empty credential every
// live session must have.
func (s *Session) Valid() bool {
	return s != nil && s.Token != ""
}
