package ws

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homelyhq/homely/internal/domain"
	"github.com/homelyhq/homely/internal/infrastructure/logging"
)

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

type fakeConversationRepo struct {
	conversations map[string]*domain.Conversation
}

func newFakeConversationRepo(convs ...*domain.Conversation) *fakeConversationRepo {
	repo := &fakeConversationRepo{conversations: make(map[string]*domain.Conversation)}
	for _, c := range convs {
		repo.conversations[c.ID] = c
	}
	return repo
}

func (f *fakeConversationRepo) Create(_ context.Context, c *domain.Conversation) error {
	f.conversations[c.ID] = c
	return nil
}

func (f *fakeConversationRepo) GetByID(_ context.Context, id string) (*domain.Conversation, error) {
	c, ok := f.conversations[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return c, nil
}

func (f *fakeConversationRepo) GetByPairKey(_ context.Context, pairKey string) (*domain.Conversation, error) {
	for _, c := range f.conversations {
		if c.PairKey == pairKey {
			return c, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeConversationRepo) ListByParticipant(_ context.Context, userID string) ([]domain.Conversation, error) {
	var out []domain.Conversation
	for _, c := range f.conversations {
		if c.HasParticipant(userID) {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (f *fakeConversationRepo) MarkSeen(_ context.Context, id, userID string) error { return nil }

func (f *fakeConversationRepo) SetLastMessage(_ context.Context, id, text, senderID string) error {
	return nil
}

func (f *fakeConversationRepo) EnsureIndexes(_ context.Context) error { return nil }

func newTestClient(id, userID string, buffer int) *Client {
	return &Client{
		ID:     id,
		UserID: userID,
		send:   make(chan *Envelope, buffer),
		closed: make(chan struct{}),
		rooms:  make(map[string]struct{}),
	}
}

func newTestCore(repo domain.ConversationRepository, opts Options) *Core {
	return NewCore(repo, nopLogger{}, opts)
}

func mustConversation(t *testing.T, id string, participants ...string) *domain.Conversation {
	t.Helper()
	require.Len(t, participants, 2)
	conv, err := domain.NewConversation(participants[0], participants[1])
	require.NoError(t, err)
	conv.ID = id
	return conv
}

func drain(cl *Client) []*Envelope {
	var out []*Envelope
	for {
		select {
		case msg := <-cl.send:
			out = append(out, msg)
		default:
			return out
		}
	}
}

func TestJoinRequiresParticipant(t *testing.T) {
	conv := mustConversation(t, "conv1", "alice", "bob")
	core := newTestCore(newFakeConversationRepo(conv), Options{RoomDelivery: true, DirectDelivery: true})

	intruder := newTestClient("c1", "mallory", 8)
	core.registry.Add(intruder)

	core.authorizeAndJoin(intruder, "conv1")

	assert.False(t, core.registry.InRoom(intruder, "conv1"))

	msgs := drain(intruder)
	require.Len(t, msgs, 1)
	assert.Equal(t, ErrorUnauthorized, msgs[0].Event)
}

func TestJoinUnknownConversation(t *testing.T) {
	core := newTestCore(newFakeConversationRepo(), Options{RoomDelivery: true})

	cl := newTestClient("c1", "alice", 8)
	core.registry.Add(cl)

	core.authorizeAndJoin(cl, "missing")

	msgs := drain(cl)
	require.Len(t, msgs, 1)
	assert.Equal(t, ErrorUnauthorized, msgs[0].Event)
}

func TestJoinIsIdempotent(t *testing.T) {
	conv := mustConversation(t, "conv1", "alice", "bob")
	core := newTestCore(newFakeConversationRepo(conv), Options{RoomDelivery: true})

	cl := newTestClient("c1", "alice", 8)
	core.registry.Add(cl)

	core.authorizeAndJoin(cl, "conv1")
	core.authorizeAndJoin(cl, "conv1")

	assert.True(t, core.registry.InRoom(cl, "conv1"))
	assert.Equal(t, 1, core.registry.RoomSize("conv1"))
}

func TestRoomDeliveryExcludesSender(t *testing.T) {
	conv := mustConversation(t, "conv1", "alice", "bob")
	core := newTestCore(newFakeConversationRepo(conv), Options{RoomDelivery: true, DirectDelivery: true})

	alice := newTestClient("cA", "alice", 8)
	bob := newTestClient("cB", "bob", 8)
	core.registry.Add(alice)
	core.registry.Add(bob)
	core.registry.Join(alice, "conv1")
	core.registry.Join(bob, "conv1")

	payload := json.RawMessage(`{"text":"hi"}`)
	core.dispatch(bob, &Envelope{Event: EventSendMessage, ChatID: "conv1", Data: payload})

	aliceMsgs := drain(alice)
	require.Len(t, aliceMsgs, 1)
	assert.Equal(t, EventReceiveMessage, aliceMsgs[0].Event)
	assert.Equal(t, "conv1", aliceMsgs[0].ChatID)
	assert.JSONEq(t, `{"text":"hi"}`, string(aliceMsgs[0].Data))

	assert.Empty(t, drain(bob))
}

// A sender does not have to join a room to address it; join authorization
// gates who can listen, not who can speak.
func TestSendWithoutJoinReachesJoinedMembers(t *testing.T) {
	conv := mustConversation(t, "conv1", "alice", "bob")
	core := newTestCore(newFakeConversationRepo(conv), Options{RoomDelivery: true, DirectDelivery: true})

	alice := newTestClient("cA", "alice", 8)
	bob := newTestClient("cB", "bob", 8)
	charlie := newTestClient("cC", "charlie", 8)
	core.registry.Add(alice)
	core.registry.Add(bob)
	core.registry.Add(charlie)
	core.registry.Join(alice, "conv1")

	payload := json.RawMessage(`{"text":"hello"}`)
	core.dispatch(bob, &Envelope{Event: EventSendMessage, ChatID: "conv1", To: "alice", Data: payload})

	// Alice gets the room delivery plus the direct delivery.
	aliceMsgs := drain(alice)
	require.Len(t, aliceMsgs, 2)

	events := []string{aliceMsgs[0].Event, aliceMsgs[1].Event}
	assert.Contains(t, events, EventReceiveMessage)
	assert.Contains(t, events, "alice")

	// Charlie only sees the direct channel.
	charlieMsgs := drain(charlie)
	require.Len(t, charlieMsgs, 1)
	assert.Equal(t, "alice", charlieMsgs[0].Event)

	// The sender hears nothing back.
	assert.Empty(t, drain(bob))
}

func TestDirectDeliveryDisabled(t *testing.T) {
	conv := mustConversation(t, "conv1", "alice", "bob")
	core := newTestCore(newFakeConversationRepo(conv), Options{RoomDelivery: true, DirectDelivery: false})

	alice := newTestClient("cA", "alice", 8)
	bob := newTestClient("cB", "bob", 8)
	core.registry.Add(alice)
	core.registry.Add(bob)
	core.registry.Join(alice, "conv1")

	core.dispatch(bob, &Envelope{Event: EventSendMessage, ChatID: "conv1", To: "alice", Data: json.RawMessage(`{}`)})

	aliceMsgs := drain(alice)
	require.Len(t, aliceMsgs, 1)
	assert.Equal(t, EventReceiveMessage, aliceMsgs[0].Event)
}

func TestRoomDeliveryDisabled(t *testing.T) {
	conv := mustConversation(t, "conv1", "alice", "bob")
	core := newTestCore(newFakeConversationRepo(conv), Options{RoomDelivery: false, DirectDelivery: true})

	alice := newTestClient("cA", "alice", 8)
	bob := newTestClient("cB", "bob", 8)
	core.registry.Add(alice)
	core.registry.Add(bob)
	core.registry.Join(alice, "conv1")

	core.dispatch(bob, &Envelope{Event: EventSendMessage, ChatID: "conv1", To: "alice", Data: json.RawMessage(`{}`)})

	aliceMsgs := drain(alice)
	require.Len(t, aliceMsgs, 1)
	assert.Equal(t, "alice", aliceMsgs[0].Event)
}

func TestSendToEmptyRoomIsQuiet(t *testing.T) {
	core := newTestCore(newFakeConversationRepo(), Options{RoomDelivery: true})

	bob := newTestClient("cB", "bob", 8)
	core.registry.Add(bob)

	core.dispatch(bob, &Envelope{Event: EventSendMessage, ChatID: "empty", Data: json.RawMessage(`{}`)})

	assert.Empty(t, drain(bob))
}

func TestMalformedFrameGetsErrorInvalid(t *testing.T) {
	core := newTestCore(newFakeConversationRepo(), Options{RoomDelivery: true})

	cl := newTestClient("c1", "alice", 8)
	core.registry.Add(cl)

	cases := []*Envelope{
		{Event: "bogus_event"},
		{Event: EventJoinRoom},
		{Event: EventSendMessage},
		{Event: EventSendMessage, ChatID: "conv1"},
	}

	for _, envelope := range cases {
		core.dispatch(cl, envelope)

		msgs := drain(cl)
		require.Len(t, msgs, 1, "event %q", envelope.Event)
		assert.Equal(t, ErrorInvalid, msgs[0].Event)
	}
}

func TestLeaveRoom(t *testing.T) {
	conv := mustConversation(t, "conv1", "alice", "bob")
	core := newTestCore(newFakeConversationRepo(conv), Options{RoomDelivery: true})

	cl := newTestClient("c1", "alice", 8)
	core.registry.Add(cl)
	core.registry.Join(cl, "conv1")

	core.dispatch(cl, &Envelope{Event: EventLeaveRoom, ChatID: "conv1"})

	assert.False(t, core.registry.InRoom(cl, "conv1"))

	msgs := drain(cl)
	require.Len(t, msgs, 1)
	assert.Equal(t, EventLeft, msgs[0].Event)
}

func TestDisconnectCleansUpMemberships(t *testing.T) {
	core := newTestCore(newFakeConversationRepo(), Options{RoomDelivery: true})

	cl := newTestClient("c1", "alice", 8)
	core.registry.Add(cl)
	core.registry.Join(cl, "conv1")
	core.registry.Join(cl, "conv2")

	core.registry.Remove(cl)

	assert.Equal(t, 0, core.registry.ConnectionCount())
	assert.Equal(t, 0, core.registry.RoomSize("conv1"))
	assert.Equal(t, 0, core.registry.RoomSize("conv2"))

	// The closed signal is what stops the pumps.
	assert.True(t, cl.isClosed())

	// A second remove is a no-op, not a double close.
	core.registry.Remove(cl)
}

// A join answer or a frame still queued for dispatch can land after the
// run loop has already removed the same connection. Late replies must be
// swallowed, not sent into a dead channel.
func TestLateRepliesAfterDisconnectAreDropped(t *testing.T) {
	conv := mustConversation(t, "conv1", "alice", "bob")
	core := newTestCore(newFakeConversationRepo(conv), Options{RoomDelivery: true})

	cl := newTestClient("c1", "alice", 8)
	core.registry.Add(cl)
	core.registry.Remove(cl)

	assert.NotPanics(t, func() {
		cl.trySend(NewInvalid("late frame"))
		core.authorizeAndJoin(cl, "conv1")
		core.dispatch(cl, &Envelope{Event: EventLeaveRoom, ChatID: "conv1"})
		core.dispatch(cl, &Envelope{Event: "bogus_event"})
	})

	assert.Empty(t, drain(cl))
}

func TestJoinAfterDisconnectIsIgnored(t *testing.T) {
	core := newTestCore(newFakeConversationRepo(), Options{RoomDelivery: true})

	cl := newTestClient("c1", "alice", 8)
	core.registry.Add(cl)
	core.registry.Remove(cl)

	core.registry.Join(cl, "conv1")
	assert.Equal(t, 0, core.registry.RoomSize("conv1"))
}

func TestFullBufferDropsFrame(t *testing.T) {
	core := newTestCore(newFakeConversationRepo(), Options{RoomDelivery: true})

	slow := newTestClient("cS", "slow", 1)
	fast := newTestClient("cF", "fast", 8)
	core.registry.Add(slow)
	core.registry.Add(fast)
	core.registry.Join(slow, "conv1")

	payload := json.RawMessage(`{}`)
	core.dispatch(fast, &Envelope{Event: EventSendMessage, ChatID: "conv1", Data: payload})
	core.dispatch(fast, &Envelope{Event: EventSendMessage, ChatID: "conv1", Data: payload})

	// Buffer of one: the second frame was dropped, the connection survives.
	assert.Len(t, drain(slow), 1)
	assert.Equal(t, 2, core.registry.ConnectionCount())
}
