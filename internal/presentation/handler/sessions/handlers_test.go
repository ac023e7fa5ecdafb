package sessions

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homelyhq/homely/internal/domain"
	"github.com/homelyhq/homely/internal/infrastructure/auth"
)

const testAPIKey = "backend-key"

type fakeUserRepo struct {
	byClerkID map[string]*domain.User
}

func (f *fakeUserRepo) Create(_ context.Context, u *domain.User) error {
	f.byClerkID[u.ClerkID] = u
	return nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, _ string) (*domain.User, error) {
	return nil, domain.ErrNotFound
}

func (f *fakeUserRepo) GetByClerkID(_ context.Context, clerkID string) (*domain.User, error) {
	if u, ok := f.byClerkID[clerkID]; ok {
		return u, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, _ string) (*domain.User, error) {
	return nil, domain.ErrNotFound
}

func (f *fakeUserRepo) List(_ context.Context, _, _ int) ([]domain.User, error) { return nil, nil }
func (f *fakeUserRepo) Update(_ context.Context, _ *domain.User) error { return nil }
func (f *fakeUserRepo) Delete(_ context.Context, _ string) error { return nil }
func (f *fakeUserRepo) DeleteByClerkID(_ context.Context, _ string) error { return nil }
func (f *fakeUserRepo) EnsureIndexes(_ context.Context) error { return nil }

func setup(t *testing.T, apiKey string) (*Handler, *auth.Sessions) {
	t.Helper()

	sessions, err := auth.NewSessions("test-secret", time.Hour)
	require.NoError(t, err)

	user, err := domain.NewUser("clerk_abc", "jane@example.com", "jane", "")
	require.NoError(t, err)
	user.ID = "user-1"

	repo := &fakeUserRepo{byClerkID: map[string]*domain.User{"clerk_abc": user}}
	return NewHandler(sessions, repo, apiKey), sessions
}

func mintRequest(apiKey, body string) *http.Request {
	r := httptest.NewRequest(http.MethodPost, "/api/auth/sessions", strings.NewReader(body))
	if apiKey != "" {
		r.Header.Set("X-API-Key", apiKey)
	}
	return r
}

func TestCreateSessionMintsVerifiableToken(t *testing.T) {
	h, sessions := setup(t, testAPIKey)

	w := httptest.NewRecorder()
	h.CreateSessionHandler(w, mintRequest(testAPIKey, `{"clerkId":"clerk_abc"}`))

	require.Equal(t, http.StatusCreated, w.Code)

	var resp createSessionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "user-1", resp.UserID)

	userID, err := sessions.Verify(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)
}

func TestCreateSessionRejectsWrongAPIKey(t *testing.T) {
	h, _ := setup(t, testAPIKey)

	w := httptest.NewRecorder()
	h.CreateSessionHandler(w, mintRequest("wrong", `{"clerkId":"clerk_abc"}`))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreateSessionRejectsMissingAPIKey(t *testing.T) {
	h, _ := setup(t, testAPIKey)

	w := httptest.NewRecorder()
	h.CreateSessionHandler(w, mintRequest("", `{"clerkId":"clerk_abc"}`))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreateSessionUnknownUser(t *testing.T) {
	h, _ := setup(t, testAPIKey)

	w := httptest.NewRecorder()
	h.CreateSessionHandler(w, mintRequest(testAPIKey, `{"clerkId":"clerk_nope"}`))

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateSessionRequiresClerkID(t *testing.T) {
	h, _ := setup(t, testAPIKey)

	w := httptest.NewRecorder()
	h.CreateSessionHandler(w, mintRequest(testAPIKey, `{}`))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateSessionDisabledWithoutAPIKey(t *testing.T) {
	h, _ := setup(t, "")

	w := httptest.NewRecorder()
	h.CreateSessionHandler(w, mintRequest(testAPIKey, `{"clerkId":"clerk_abc"}`))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
