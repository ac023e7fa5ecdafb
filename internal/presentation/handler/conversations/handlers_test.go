package conversations

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homelyhq/homely/internal/domain"
	"github.com/homelyhq/homely/internal/infrastructure/auth"
)

type fakeConversationRepo struct {
	byID map[string]*domain.Conversation
}

func newFakeConversationRepo() *fakeConversationRepo {
	return &fakeConversationRepo{byID: make(map[string]*domain.Conversation)}
}

func (f *fakeConversationRepo) Create(_ context.Context, c *domain.Conversation) error {
	for _, existing := range f.byID {
		if existing.PairKey == c.PairKey {
			return domain.ErrDuplicate
		}
	}
	f.byID[c.ID] = c
	return nil
}

func (f *fakeConversationRepo) GetByID(_ context.Context, id string) (*domain.Conversation, error) {
	if c, ok := f.byID[id]; ok {
		return c, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeConversationRepo) GetByPairKey(_ context.Context, pairKey string) (*domain.Conversation, error) {
	for _, c := range f.byID {
		if c.PairKey == pairKey {
			return c, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeConversationRepo) ListByParticipant(_ context.Context, userID string) ([]domain.Conversation, error) {
	var out []domain.Conversation
	for _, c := range f.byID {
		if c.HasParticipant(userID) {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (f *fakeConversationRepo) MarkSeen(_ context.Context, id, userID string) error {
	c, ok := f.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	for _, seen := range c.SeenBy {
		if seen == userID {
			return nil
		}
	}
	c.SeenBy = append(c.SeenBy, userID)
	return nil
}

func (f *fakeConversationRepo) SetLastMessage(_ context.Context, id, text, senderID string) error {
	c, ok := f.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	c.LastMessage = text
	c.SeenBy = []string{senderID}
	return nil
}

func (f *fakeConversationRepo) EnsureIndexes(_ context.Context) error { return nil }

type fakeUserRepo struct {
	ids map[string]bool
}

func (f *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	if f.ids[id] {
		return &domain.User{ID: id}, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeUserRepo) Create(_ context.Context, _ *domain.User) error { return nil }

func (f *fakeUserRepo) GetByClerkID(_ context.Context, _ string) (*domain.User, error) {
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

func setup() (*Handler, *fakeConversationRepo) {
	convRepo := newFakeConversationRepo()
	userRepo := &fakeUserRepo{ids: map[string]bool{"alice": true, "bob": true}}
	return NewHandler(convRepo, userRepo), convRepo
}

func authedRequest(method, target, body, userID string) *http.Request {
	var r *http.Request
	if body != "" {
		r = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		r = httptest.NewRequest(method, target, nil)
	}
	return r.WithContext(auth.WithUserID(r.Context(), userID))
}

func withChatID(r *http.Request, chatID string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("chatId", chatID)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func TestCreateConversation(t *testing.T) {
	h, _ := setup()

	w := httptest.NewRecorder()
	h.CreateConversationHandler(w, authedRequest(http.MethodPost, "/api/conversations", `{"userId":"bob"}`, "alice"))

	require.Equal(t, http.StatusCreated, w.Code)

	var conv domain.Conversation
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &conv))
	assert.ElementsMatch(t, []string{"alice", "bob"}, conv.ParticipantIDs)
}

func TestCreateConversationIsIdempotentOnPair(t *testing.T) {
	h, repo := setup()

	w := httptest.NewRecorder()
	h.CreateConversationHandler(w, authedRequest(http.MethodPost, "/api/conversations", `{"userId":"bob"}`, "alice"))
	require.Equal(t, http.StatusCreated, w.Code)

	var first domain.Conversation
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &first))

	// Same pair from the other side comes back as the existing conversation.
	w = httptest.NewRecorder()
	h.CreateConversationHandler(w, authedRequest(http.MethodPost, "/api/conversations", `{"userId":"alice"}`, "bob"))
	require.Equal(t, http.StatusOK, w.Code)

	var second domain.Conversation
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &second))
	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, repo.byID, 1)
}

func TestCreateConversationWithSelfRejected(t *testing.T) {
	h, _ := setup()

	w := httptest.NewRecorder()
	h.CreateConversationHandler(w, authedRequest(http.MethodPost, "/api/conversations", `{"userId":"alice"}`, "alice"))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateConversationUnknownUserRejected(t *testing.T) {
	h, _ := setup()

	w := httptest.NewRecorder()
	h.CreateConversationHandler(w, authedRequest(http.MethodPost, "/api/conversations", `{"userId":"nobody"}`, "alice"))

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetConversationRequiresParticipant(t *testing.T) {
	h, repo := setup()

	conv, err := domain.NewConversation("alice", "bob")
	require.NoError(t, err)
	repo.byID[conv.ID] = conv

	r := withChatID(authedRequest(http.MethodGet, "/api/conversations/"+conv.ID, "", "mallory"), conv.ID)
	w := httptest.NewRecorder()
	h.GetConversationHandler(w, r)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestGetConversationMarksSeen(t *testing.T) {
	h, repo := setup()

	conv, err := domain.NewConversation("alice", "bob")
	require.NoError(t, err)
	repo.byID[conv.ID] = conv

	r := withChatID(authedRequest(http.MethodGet, "/api/conversations/"+conv.ID, "", "bob"), conv.ID)
	w := httptest.NewRecorder()
	h.GetConversationHandler(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, repo.byID[conv.ID].SeenBy, "bob")
}

func TestGetConversationNotFound(t *testing.T) {
	h, _ := setup()

	r := withChatID(authedRequest(http.MethodGet, "/api/conversations/nope", "", "alice"), "nope")
	w := httptest.NewRecorder()
	h.GetConversationHandler(w, r)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListConversationsOnlyMine(t *testing.T) {
	h, repo := setup()

	mine, err := domain.NewConversation("alice", "bob")
	require.NoError(t, err)
	other, err := domain.NewConversation("bob", "carol")
	require.NoError(t, err)
	repo.byID[mine.ID] = mine
	repo.byID[other.ID] = other

	w := httptest.NewRecorder()
	h.ListConversationsHandler(w, authedRequest(http.MethodGet, "/api/conversations", "", "alice"))

	require.Equal(t, http.StatusOK, w.Code)

	var out []domain.Conversation
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	require.Len(t, out, 1)
	assert.Equal(t, mine.ID, out[0].ID)
}
