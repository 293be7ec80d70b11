package session

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"flaire-cli/internal/api"
	"flaire-cli/internal/models"
	"flaire-cli/internal/storage"
	"flaire-cli/internal/usage"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDB(t *testing.T) *storage.DB {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "flaire.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func testBackend(t *testing.T, router http.Handler) *api.Client {
	t.Helper()
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return api.New(server.URL, 5*time.Second)
}

func signinBackend(t *testing.T, plan string) *api.Client {
	router := chi.NewRouter()
	router.Post("/auth/signin", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{
			"id": "u-1", "email": "a@b.c", "name": "Alex",
			"plan": plan, "created_at": "2026-01-01T00:00:00Z", "token": "tok-123",
		})
	})
	return testBackend(t, router)
}

func TestHydrateFromMalformedRecord(t *testing.T) {
	db := testDB(t)
	require.NoError(t, db.SaveSession([]byte("{not json")))

	store := New(db, nil)
	assert.Nil(t, store.Current(), "malformed record must read as no session")
}

func TestHydrateRejectsEmptyCredential(t *testing.T) {
	db := testDB(t)
	require.NoError(t, db.SaveSession([]byte(`{"id":"u-1","email":"a@b.c"}`)))

	store := New(db, nil)
	assert.Nil(t, store.Current())
}

func TestSignInPersistsAcrossColdStart(t *testing.T) {
	db := testDB(t)
	client := signinBackend(t, "free")

	store := New(db, client)
	sess, err := store.SignIn(context.Background(), "a@b.c", "pw")
	require.NoError(t, err)
	assert.Equal(t, models.PlanFree, sess.Plan)

	// A fresh store over the same database hydrates the same session.
	rehydrated := New(db, client)
	got := rehydrated.Current()
	require.NotNil(t, got)
	assert.Equal(t, "tok-123", got.Token)
	assert.Equal(t, "a@b.c", got.Email)
}

func TestSignOutPurgesDurableCopy(t *testing.T) {
	db := testDB(t)
	client := signinBackend(t, "free")

	store := New(db, client)
	_, err := store.SignIn(context.Background(), "a@b.c", "pw")
	require.NoError(t, err)

	require.NoError(t, store.SignOut())
	assert.Nil(t, store.Current())

	coldStart := New(db, client)
	assert.Nil(t, coldStart.Current(), "cold start after sign-out must yield no session")
}

func TestSignInFailureSurfacesAuthError(t *testing.T) {
	router := chi.NewRouter()
	router.Post("/auth/signin", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
	})
	store := New(testDB(t), testBackend(t, router))

	_, err := store.SignIn(context.Background(), "a@b.c", "pw")
	var authErr *api.AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Nil(t, store.Current())
}

func TestRefreshPlanUpdatesPlanOnlyAndFiresHook(t *testing.T) {
	db := testDB(t)
	router := chi.NewRouter()
	router.Post("/auth/signin", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{
			"id": "u-1", "email": "a@b.c", "name": "Alex",
			"plan": "free", "created_at": "2026-01-01T00:00:00Z", "token": "tok-123",
		})
	})
	router.Get("/auth/me", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(map[string]string{"plan": "pro", "email": "changed@b.c"})
	})
	store := New(db, testBackend(t, router))

	_, err := store.SignIn(context.Background(), "a@b.c", "pw")
	require.NoError(t, err)

	var observed []models.PlanTier
	store.OnPlanChange(func(plan models.PlanTier) { observed = append(observed, plan) })

	sess, err := store.RefreshPlan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.PlanPro, sess.Plan)
	assert.Equal(t, "a@b.c", sess.Email, "refresh touches the plan field only")
	assert.Equal(t, []models.PlanTier{models.PlanPro}, observed)
}

func TestRefreshPlanUnchangedDoesNotFireHook(t *testing.T) {
	router := chi.NewRouter()
	router.Post("/auth/signin", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{
			"id": "u-1", "email": "a@b.c", "name": "Alex",
			"plan": "pro", "created_at": "2026-01-01T00:00:00Z", "token": "tok-123",
		})
	})
	router.Get("/auth/me", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"plan": "pro"})
	})
	store := New(testDB(t), testBackend(t, router))
	_, err := store.SignIn(context.Background(), "a@b.c", "pw")
	require.NoError(t, err)

	fired := false
	store.OnPlanChange(func(models.PlanTier) { fired = true })

	_, err = store.RefreshPlan(context.Background())
	require.NoError(t, err)
	assert.False(t, fired)
}

func TestApplyPlanImmediateUpgrade(t *testing.T) {
	db := testDB(t)
	store := New(db, signinBackend(t, "free"))
	_, err := store.SignIn(context.Background(), "a@b.c", "pw")
	require.NoError(t, err)

	var observed models.PlanTier
	store.OnPlanChange(func(plan models.PlanTier) { observed = plan })

	sess, err := store.ApplyPlan(models.PlanPremium)
	require.NoError(t, err)
	assert.Equal(t, models.PlanPremium, sess.Plan)
	assert.Equal(t, models.PlanPremium, observed)

	// The mutation is written through synchronously.
	rehydrated := New(db, nil)
	require.NotNil(t, rehydrated.Current())
	assert.Equal(t, models.PlanPremium, rehydrated.Current().Plan)
}

func TestPlanUpgradeResetsUsageCounters(t *testing.T) {
	store := New(testDB(t), signinBackend(t, "free"))
	_, err := store.SignIn(context.Background(), "a@b.c", "pw")
	require.NoError(t, err)

	tracker := usage.NewTracker(models.PlanFree)
	tracker.Record(usage.FeatureProfiles)
	tracker.Record(usage.FeatureProfiles)
	tracker.Record(usage.FeatureOpeners)
	store.OnPlanChange(tracker.SetPlan)

	_, err = store.ApplyPlan(models.PlanPro)
	require.NoError(t, err)
	assert.Equal(t, models.UsageCounters{}, tracker.Counters())
	assert.Equal(t, models.PlanPro, tracker.Plan())
}

func TestApplyPlanRejectsUnknownTier(t *testing.T) {
	store := New(testDB(t), signinBackend(t, "free"))
	_, err := store.SignIn(context.Background(), "a@b.c", "pw")
	require.NoError(t, err)

	_, err = store.ApplyPlan(models.PlanTier("gold"))
	assert.Error(t, err)
}

func TestBeginUpgradeReturnsCheckoutURL(t *testing.T) {
	router := chi.NewRouter()
	router.Post("/auth/signin", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{
			"id": "u-1", "email": "a@b.c", "name": "Alex",
			"plan": "free", "created_at": "2026-01-01T00:00:00Z", "token": "tok-123",
		})
	})
	router.Post("/billing/create-checkout-session", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"url": "https://pay.example/cs_9"})
	})
	store := New(testDB(t), testBackend(t, router))
	_, err := store.SignIn(context.Background(), "a@b.c", "pw")
	require.NoError(t, err)

	url, err := store.BeginUpgrade(context.Background(), models.PlanPro)
	require.NoError(t, err)
	assert.Equal(t, "https://pay.example/cs_9", url)
}

func TestOperationsRequireSession(t *testing.T) {
	store := New(testDB(t), nil)

	_, err := store.RefreshPlan(context.Background())
	assert.ErrorIs(t, err, ErrNotSignedIn)

	_, err = store.BeginUpgrade(context.Background(), models.PlanPro)
	assert.ErrorIs(t, err, ErrNotSignedIn)

	_, err = store.ApplyPlan(models.PlanPro)
	assert.ErrorIs(t, err, ErrNotSignedIn)
}

func TestTokenExpiry(t *testing.T) {
	db := testDB(t)
	exp := time.Now().Add(24 * time.Hour).Truncate(time.Second)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": "u-1",
		"exp":     exp.Unix(),
	})
	signed, err := token.SignedString([]byte("secret"))
	require.NoError(t, err)

	payload, err := json.Marshal(models.Session{ID: "u-1", Email: "a@b.c", Plan: models.PlanFree, Token: signed})
	require.NoError(t, err)
	require.NoError(t, db.SaveSession(payload))

	store := New(db, nil)
	assert.Equal(t, exp.UTC(), store.TokenExpiry().UTC())
}

func TestTokenExpiryOpaqueCredential(t *testing.T) {
	db := testDB(t)
	payload, err := json.Marshal(models.Session{ID: "u-1", Email: "a@b.c", Token: "not-a-jwt"})
	require.NoError(t, err)
	require.NoError(t, db.SaveSession(payload))

	store := New(db, nil)
	assert.True(t, store.TokenExpiry().IsZero())
}
