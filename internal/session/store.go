package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"flaire-cli/internal/api"
	"flaire-cli/internal/models"
	"flaire-cli/internal/storage"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
)

// ErrNotSignedIn is returned by operations that require a live session.
var ErrNotSignedIn = errors.New("not signed in")

// Store owns the authenticated session and writes every mutation through to
// the durable local record. It replaces ambient global auth state: components
// needing the session receive the store by injection.
type Store struct {
	mu           sync.Mutex
	db           *storage.DB
	client       *api.Client
	session      *models.Session
	onPlanChange []func(models.PlanTier)
}

// New creates a store hydrated from the durable record. A missing, malformed
// or credential-less record yields no session, never an error.
func New(db *storage.DB, client *api.Client) *Store {
	s := &Store{db: db, client: client}
	s.hydrate()
	return s
}

func (s *Store) hydrate() {
	payload, err := s.db.LoadSession()
	if err != nil {
		log.Warn().Err(err).Msg("Failed to load persisted session")
		return
	}
	if payload == nil {
		return
	}

	var sess models.Session
	if err := json.Unmarshal(payload, &sess); err != nil {
		log.Warn().Err(err).Msg("Discarding malformed persisted session")
		return
	}
	if !sess.Valid() {
		log.Warn().Msg("Discarding persisted session with empty credential")
		return
	}
	s.session = &sess
}

// Current returns a copy of the live session, or nil when signed out.
func (s *Store) Current() *models.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return nil
	}
	copied := *s.session
	return &copied
}

// OnPlanChange registers a hook fired whenever the session's plan tier
// changes. Used to reset usage counters at that moment.
func (s *Store) OnPlanChange(fn func(models.PlanTier)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onPlanChange = append(s.onPlanChange, fn)
}

// SignIn authenticates and installs the returned session.
func (s *Store) SignIn(ctx context.Context, email, password string) (*models.Session, error) {
	sess, err := s.client.SignIn(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return s.install(sess)
}

// SignUp creates an account and installs the returned session.
func (s *Store) SignUp(ctx context.Context, name, email, password string) (*models.Session, error) {
	sess, err := s.client.SignUp(ctx, name, email, password)
	if err != nil {
		return nil, err
	}
	return s.install(sess)
}

func (s *Store) install(sess *models.Session) (*models.Session, error) {
	if !sess.Valid() {
		return nil, &api.AuthError{Message: "backend returned a session without a credential"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	previous := models.PlanTier("")
	if s.session != nil {
		previous = s.session.Plan
	}
	s.session = sess
	if err := s.persistLocked(); err != nil {
		return nil, err
	}
	if sess.Plan != previous {
		s.firePlanChangeLocked(sess.Plan)
	}

	log.Info().Str("email", sess.Email).Str("plan", string(sess.Plan)).Msg("Signed in")
	copied := *sess
	return &copied, nil
}

// SignOut destroys the session and purges the durable copy.
func (s *Store) SignOut() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.session = nil
	if err := s.db.DeleteSession(); err != nil {
		return err
	}
	log.Info().Msg("Signed out")
	return nil
}

// RefreshPlan re-reads the account's plan tier from the backend and applies
// it to the session. Only the plan field is refreshed.
func (s *Store) RefreshPlan(ctx context.Context) (*models.Session, error) {
	s.mu.Lock()
	if s.session == nil {
		s.mu.Unlock()
		return nil, ErrNotSignedIn
	}
	token := s.session.Token
	s.mu.Unlock()

	plan, err := s.client.Me(ctx, token)
	if err != nil {
		return nil, err
	}
	return s.applyPlan(plan)
}

// BeginUpgrade starts the external checkout flow for a plan upgrade and
// returns the redirect URL. The plan tier changes only once a later refresh
// observes it on the backend.
func (s *Store) BeginUpgrade(ctx context.Context, plan models.PlanTier) (string, error) {
	s.mu.Lock()
	if s.session == nil {
		s.mu.Unlock()
		return "", ErrNotSignedIn
	}
	token := s.session.Token
	s.mu.Unlock()

	if !plan.Known() {
		return "", fmt.Errorf("unknown plan %q", plan)
	}
	return s.client.CreateCheckout(ctx, token, plan)
}

// ApplyPlan mutates the session's plan tier immediately, bypassing checkout.
// Kept for the simplified upgrade path and for tests.
func (s *Store) ApplyPlan(plan models.PlanTier) (*models.Session, error) {
	if !plan.Known() {
		return nil, fmt.Errorf("unknown plan %q", plan)
	}
	return s.applyPlan(plan)
}

func (s *Store) applyPlan(plan models.PlanTier) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return nil, ErrNotSignedIn
	}
	if s.session.Plan != plan {
		s.session.Plan = plan
		if err := s.persistLocked(); err != nil {
			return nil, err
		}
		s.firePlanChangeLocked(plan)
		log.Info().Str("plan", string(plan)).Msg("Plan updated")
	}
	copied := *s.session
	return &copied, nil
}

// TokenExpiry inspects the bearer credential for a JWT expiry claim without
// verifying the signature. The credential is otherwise opaque to the client;
// a non-JWT credential yields a zero time.
func (s *Store) TokenExpiry() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return time.Time{}
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(s.session.Token, claims); err != nil {
		return time.Time{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}

func (s *Store) persistLocked() error {
	payload, err := json.Marshal(s.session)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	return s.db.SaveSession(payload)
}

func (s *Store) firePlanChangeLocked(plan models.PlanTier) {
	for _, fn := range s.onPlanChange {
		fn(plan)
	}
}
