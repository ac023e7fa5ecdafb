package webhooks

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homelyhq/homely/internal/domain"
	"github.com/homelyhq/homely/internal/infrastructure/logging"
	"github.com/homelyhq/homely/internal/infrastructure/webhook"
)

const testSecret = "whsec_MfKQ9r8GKYqrTwjUPD8ILPZIo2LaLaSw"

type nopLogger struct{}

func (nopLogger) Init() {}
func (nopLogger) Debug(logging.Category, logging.SubCategory, string, map[logging.ExtraKey]any) {}
func (nopLogger) Debugf(string, ...any) {}
func (nopLogger) Info(logging.Category, logging.SubCategory, string, map[logging.ExtraKey]any) {}
func (nopLogger) Infof(string, ...any) {}
func (nopLogger) Warn(logging.Category, logging.SubCategory, string, map[logging.ExtraKey]any) {}
func (nopLogger) Warnf(string, ...any) {}
func (nopLogger) Error(logging.Category, logging.SubCategory, string, map[logging.ExtraKey]any) {}
func (nopLogger) Errorf(string, ...any) {}
func (nopLogger) Fatal(logging.Category, logging.SubCategory, string, map[logging.ExtraKey]any) {}
func (nopLogger) Fatalf(string, ...any) {}

type fakeUserRepo struct {
	byClerkID map[string]*domain.User
	created   int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byClerkID: make(map[string]*domain.User)}
}

func (f *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	if _, exists := f.byClerkID[user.ClerkID]; exists {
		return domain.ErrDuplicate
	}
	f.byClerkID[user.ClerkID] = user
	f.created++
	return nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	for _, u := range f.byClerkID {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeUserRepo) GetByClerkID(_ context.Context, clerkID string) (*domain.User, error) {
	if u, ok := f.byClerkID[clerkID]; ok {
		return u, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range f.byClerkID {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeUserRepo) List(_ context.Context, limit, offset int) ([]domain.User, error) {
	var out []domain.User
	for _, u := range f.byClerkID {
		out = append(out, *u)
	}
	return out, nil
}

func (f *fakeUserRepo) Update(_ context.Context, user *domain.User) error {
	if _, ok := f.byClerkID[user.ClerkID]; !ok {
		return domain.ErrNotFound
	}
	f.byClerkID[user.ClerkID] = user
	return nil
}

func (f *fakeUserRepo) Delete(_ context.Context, id string) error {
	for clerkID, u := range f.byClerkID {
		if u.ID == id {
			delete(f.byClerkID, clerkID)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (f *fakeUserRepo) DeleteByClerkID(_ context.Context, clerkID string) error {
	if _, ok := f.byClerkID[clerkID]; !ok {
		return domain.ErrNotFound
	}
	delete(f.byClerkID, clerkID)
	return nil
}

func (f *fakeUserRepo) EnsureIndexes(_ context.Context) error { return nil }

func setupHandler(t *testing.T) (*Handler, *fakeUserRepo, *webhook.Verifier) {
	t.Helper()

	verifier, err := webhook.NewVerifier(testSecret, time.Minute)
	require.NoError(t, err)

	repo := newFakeUserRepo()
	return NewHandler(verifier, repo, nil, nopLogger{}), repo, verifier
}

func signedRequest(t *testing.T, v *webhook.Verifier, body string) *http.Request {
	t.Helper()

	r := httptest.NewRequest(http.MethodPost, "/api/webhooks/clerk", strings.NewReader(body))

	msgID := "msg_test"
	timestamp := strconv.FormatInt(time.Now().Unix(), 10)
	r.Header.Set(webhook.HeaderID, msgID)
	r.Header.Set(webhook.HeaderTimestamp, timestamp)
	r.Header.Set(webhook.HeaderSignature, "v1,"+v.Sign(msgID, timestamp, []byte(body)))
	return r
}

const createdEvent = `{
	"type": "user.created",
	"data": {
		"id": "clerk_abc",
		"username": "jane",
		"image_url": "https://img.example/jane.png",
		"primary_email_address_id": "em_1",
		"email_addresses": [{"id": "em_1", "email_address": "jane@example.com"}]
	}
}`

func TestUserCreatedProvisionsUser(t *testing.T) {
	h, repo, verifier := setupHandler(t)

	w := httptest.NewRecorder()
	h.ClerkWebhookHandler(w, signedRequest(t, verifier, createdEvent))

	assert.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, 1, repo.created)

	user := repo.byClerkID["clerk_abc"]
	require.NotNil(t, user)
	assert.Equal(t, "jane@example.com", user.Email)
	assert.Equal(t, "jane", user.Username)
	assert.Equal(t, "https://img.example/jane.png", user.Avatar)
}

func TestUserCreatedIsIdempotent(t *testing.T) {
	h, repo, verifier := setupHandler(t)

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		h.ClerkWebhookHandler(w, signedRequest(t, verifier, createdEvent))
		assert.Equal(t, http.StatusOK, w.Code)
	}

	assert.Equal(t, 1, repo.created)
	assert.Len(t, repo.byClerkID, 1)
}

func TestUserUpdatedAppliesChanges(t *testing.T) {
	h, repo, verifier := setupHandler(t)

	w := httptest.NewRecorder()
	h.ClerkWebhookHandler(w, signedRequest(t, verifier, createdEvent))
	require.Equal(t, http.StatusOK, w.Code)

	updated := strings.Replace(createdEvent, "user.created", "user.updated", 1)
	updated = strings.Replace(updated, `"username": "jane"`, `"username": "janedoe"`, 1)

	w = httptest.NewRecorder()
	h.ClerkWebhookHandler(w, signedRequest(t, verifier, updated))
	assert.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, "janedoe", repo.byClerkID["clerk_abc"].Username)
}

func TestUserUpdatedUpsertsUnknownUser(t *testing.T) {
	h, repo, verifier := setupHandler(t)

	updated := strings.Replace(createdEvent, "user.created", "user.updated", 1)

	w := httptest.NewRecorder()
	h.ClerkWebhookHandler(w, signedRequest(t, verifier, updated))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, repo.byClerkID, 1)
}

func TestUserDeletedRemovesUser(t *testing.T) {
	h, repo, verifier := setupHandler(t)

	w := httptest.NewRecorder()
	h.ClerkWebhookHandler(w, signedRequest(t, verifier, createdEvent))
	require.Equal(t, http.StatusOK, w.Code)

	deleted := `{"type": "user.deleted", "data": {"id": "clerk_abc"}}`
	w = httptest.NewRecorder()
	h.ClerkWebhookHandler(w, signedRequest(t, verifier, deleted))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, repo.byClerkID)
}

func TestUserDeletedUnknownUserIsNoOp(t *testing.T) {
	h, _, verifier := setupHandler(t)

	deleted := `{"type": "user.deleted", "data": {"id": "clerk_nobody"}}`
	w := httptest.NewRecorder()
	h.ClerkWebhookHandler(w, signedRequest(t, verifier, deleted))

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestUnknownEventTypeIsAcknowledged(t *testing.T) {
	h, repo, verifier := setupHandler(t)

	event := `{"type": "session.created", "data": {"id": "sess_1"}}`
	w := httptest.NewRecorder()
	h.ClerkWebhookHandler(w, signedRequest(t, verifier, event))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, repo.byClerkID)
}

func TestBadSignatureIsRejected(t *testing.T) {
	h, repo, verifier := setupHandler(t)

	r := signedRequest(t, verifier, createdEvent)
	r.Header.Set(webhook.HeaderSignature, "v1,Ym9ndXM=")

	w := httptest.NewRecorder()
	h.ClerkWebhookHandler(w, r)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, repo.byClerkID)
}

func TestMissingSignatureHeadersRejected(t *testing.T) {
	h, _, _ := setupHandler(t)

	r := httptest.NewRequest(http.MethodPost, "/api/webhooks/clerk", strings.NewReader(createdEvent))
	w := httptest.NewRecorder()
	h.ClerkWebhookHandler(w, r)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMalformedPayloadRejected(t *testing.T) {
	h, _, verifier := setupHandler(t)

	w := httptest.NewRecorder()
	h.ClerkWebhookHandler(w, signedRequest(t, verifier, "not json"))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
