package handler_test

import (
	"encoding/json"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/scatters/internal/game/room"
	"github.com/palemoky/scatters/internal/presence"
	"github.com/palemoky/scatters/internal/protocol"
	"github.com/palemoky/scatters/internal/server/handler"
	"github.com/palemoky/scatters/internal/testutil"
)

type testEnv struct {
	handler *handler.Handler
	gateway *testutil.SimpleGateway
	rooms   *room.RoomManager
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	fc := clockwork.NewFakeClock()
	gateway := testutil.NewSimpleGateway()
	rooms := room.NewRoomManagerWithClock(nil, time.Minute, fc, rand.New(rand.NewPCG(1, 9)))

	h := handler.New(handler.Deps{
		Gateway:     gateway,
		RoomManager: rooms,
		Presence:    presence.NewWithClock(fc, presence.DefaultSweepInterval, presence.DefaultWindow, nil),
	})

	return &testEnv{handler: h, gateway: gateway, rooms: rooms}
}

func (env *testEnv) connect(t *testing.T, name string) *testutil.SimpleClient {
	t.Helper()
	c := testutil.NewSimpleClient("id-"+name, "")
	env.handler.Handle(c, protocol.MustNewMessage(protocol.MsgName, protocol.NamePayload{Name: name}))
	require.Equal(t, name, c.GetName())
	return c
}

func (env *testEnv) send(c *testutil.SimpleClient, msgType protocol.MessageType, payload any) {
	env.handler.Handle(c, protocol.MustNewMessage(msgType, payload))
}

func decodePayload[T any](t *testing.T, msg *protocol.Message) T {
	t.Helper()
	require.NotNil(t, msg)
	var payload T
	require.NoError(t, json.Unmarshal(msg.Payload, &payload))
	return payload
}

func TestHandleNameRejectsDuplicates(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.connect(t, "alice")

	other := testutil.NewSimpleClient("id-2", "")
	env.send(other, protocol.MsgName, protocol.NamePayload{Name: "alice"})

	assert.Empty(t, other.GetName())
	errMsg := other.LastOfType(protocol.MsgError)
	payload := decodePayload[protocol.ErrorPayload](t, errMsg)
	assert.Equal(t, protocol.ErrCodeInvalidMsg, payload.Code)
}

func TestHandlePing(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	c := env.connect(t, "alice")

	env.send(c, protocol.MsgPing, protocol.PingPayload{Timestamp: 12345})

	pong := decodePayload[protocol.PongPayload](t, c.LastOfType(protocol.MsgPong))
	assert.Equal(t, int64(12345), pong.ClientTimestamp)
	assert.NotZero(t, pong.ServerTimestamp)
}

func TestUnknownMessageType(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	c := env.connect(t, "alice")

	env.handler.Handle(c, &protocol.Message{Type: "no-such-thing"})

	payload := decodePayload[protocol.ErrorPayload](t, c.LastOfType(protocol.MsgError))
	assert.Equal(t, protocol.ErrCodeInvalidMsg, payload.Code)
}

func TestPrivateRoomJoinRequiresInvite(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	alice := env.connect(t, "alice")
	bob := env.connect(t, "bob")

	env.send(alice, protocol.MsgCreateRoom, protocol.CreateRoomPayload{
		Name: "den", Mode: "realtime", Visibility: "private",
	})
	created := decodePayload[protocol.RoomCreatedPayload](t, alice.LastOfType(protocol.MsgRoomCreated))
	assert.Equal(t, "den", created.Room.Name)

	// Uninvited bob bounces off.
	env.send(bob, protocol.MsgJoinRoom, protocol.JoinRoomPayload{Room: "den"})
	errPayload := decodePayload[protocol.ErrorPayload](t, bob.LastOfType(protocol.MsgError))
	assert.Equal(t, protocol.ErrCodeNotInvited, errPayload.Code)
	assert.False(t, bob.InRoom("den"))

	// Invited bob gets a push and can join.
	env.send(alice, protocol.MsgInvitePlayer, protocol.InvitePlayerPayload{Room: "den", Username: "bob"})
	invited := decodePayload[protocol.InvitedPayload](t, bob.LastOfType(protocol.MsgInvited))
	assert.Equal(t, "alice", invited.From)

	env.send(bob, protocol.MsgJoinRoom, protocol.JoinRoomPayload{Room: "den"})
	joined := decodePayload[protocol.JoinedRoomPayload](t, bob.LastOfType(protocol.MsgJoinedRoom))
	assert.Equal(t, "den", joined.Room)
	assert.True(t, bob.InRoom("den"))
}

func TestRoomListsExcludeJoinedRooms(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	alice := env.connect(t, "alice")

	env.send(alice, protocol.MsgCreateRoom, protocol.CreateRoomPayload{Name: "lobby", Mode: "realtime", Visibility: "public"})
	env.send(alice, protocol.MsgCreateRoom, protocol.CreateRoomPayload{Name: "arena", Mode: "async", Visibility: "public"})
	env.send(alice, protocol.MsgJoinRoom, protocol.JoinRoomPayload{Room: "lobby"})

	env.send(alice, protocol.MsgListRooms, nil)
	list := decodePayload[protocol.RoomsListPayload](t, alice.LastOfType(protocol.MsgRoomsList))
	require.Len(t, list.Rooms, 1)
	assert.Equal(t, "arena", list.Rooms[0].Name)

	env.send(alice, protocol.MsgMyRooms, nil)
	mine := decodePayload[protocol.RoomsListPayload](t, alice.LastOfType(protocol.MsgRoomsList))
	require.Len(t, mine.Rooms, 1)
	assert.Equal(t, "lobby", mine.Rooms[0].Name)
}

func TestGameFlowBroadcasts(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	alice := env.connect(t, "alice")
	bob := env.connect(t, "bob")

	env.send(alice, protocol.MsgCreateRoom, protocol.CreateRoomPayload{Name: "lobby", Mode: "realtime", Visibility: "public"})
	env.send(alice, protocol.MsgJoinRoom, protocol.JoinRoomPayload{Room: "lobby"})
	env.send(bob, protocol.MsgJoinRoom, protocol.JoinRoomPayload{Room: "lobby"})

	// Both saw the membership update.
	assert.NotNil(t, alice.LastOfType(protocol.MsgPlayersUpdated))
	assert.NotNil(t, bob.LastOfType(protocol.MsgPlayersUpdated))

	env.send(alice, protocol.MsgStartGame, protocol.RoomActionPayload{Room: "lobby"})
	started := decodePayload[protocol.GameStartedPayload](t, bob.LastOfType(protocol.MsgGameStarted))
	assert.Equal(t, "alice", started.ActivePlayer)

	// The phase listener pushed the ROLL transition to the whole room.
	phase := decodePayload[protocol.PhaseChangedPayload](t, bob.LastOfType(protocol.MsgPhaseChanged))
	assert.Equal(t, "ROLL", phase.Phase)

	// Only the active player's roll is broadcast.
	env.send(bob, protocol.MsgRollDice, protocol.RoomActionPayload{Room: "lobby"})
	assert.Nil(t, alice.LastOfType(protocol.MsgDiceRolled))

	env.send(alice, protocol.MsgRollDice, protocol.RoomActionPayload{Room: "lobby"})
	rolled := decodePayload[protocol.DiceRolledPayload](t, bob.LastOfType(protocol.MsgDiceRolled))
	assert.NotEmpty(t, rolled.Letter)

	env.send(alice, protocol.MsgSendAnswers, protocol.SendAnswersPayload{Room: "lobby", Answers: []string{"Ant"}})
	responses := decodePayload[protocol.GotResponsesPayload](t, bob.LastOfType(protocol.MsgGotResponses))
	require.Len(t, responses.Responses, 1)
	assert.Equal(t, "alice", responses.Responses[0].Username)

	env.send(alice, protocol.MsgSendTallies, protocol.SendTalliesPayload{
		Room: "lobby", Tallies: map[string][]int{"alice": {1}, "bob": {0}},
	})
	env.send(bob, protocol.MsgSendTallies, protocol.SendTalliesPayload{
		Room: "lobby", Tallies: map[string][]int{"alice": {1}, "bob": {0}},
	})

	// The scored broadcast happens off the engine lock.
	require.Eventually(t, func() bool {
		return alice.LastOfType(protocol.MsgRoundScored) != nil
	}, 2*time.Second, 10*time.Millisecond)

	scored := decodePayload[protocol.RoundScoredPayload](t, alice.LastOfType(protocol.MsgRoundScored))
	require.Len(t, scored.Players, 2)
	assert.Equal(t, 1, scored.Players[0].Score)

	env.send(alice, protocol.MsgNextRound, protocol.RoomActionPayload{Room: "lobby"})
	next := decodePayload[protocol.NextRoundPayload](t, bob.LastOfType(protocol.MsgNextRoundPush))
	assert.Equal(t, 1, next.Round)
	assert.Equal(t, "bob", next.ActivePlayer)
}

func TestStartRoundTwiceAnnouncesOnce(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	alice := env.connect(t, "alice")

	env.send(alice, protocol.MsgCreateRoom, protocol.CreateRoomPayload{Name: "lobby", Mode: "realtime", Visibility: "public"})
	env.send(alice, protocol.MsgJoinRoom, protocol.JoinRoomPayload{Room: "lobby"})
	env.send(alice, protocol.MsgStartGame, protocol.RoomActionPayload{Room: "lobby"})
	env.send(alice, protocol.MsgRollDice, protocol.RoomActionPayload{Room: "lobby"})

	env.send(alice, protocol.MsgStartRound, protocol.RoomActionPayload{Room: "lobby"})
	require.Equal(t, 1, alice.CountOfType(protocol.MsgRoundStarted))

	// The timer is already running; a second start must not re-announce it.
	env.send(alice, protocol.MsgStartRound, protocol.RoomActionPayload{Room: "lobby"})
	assert.Equal(t, 1, alice.CountOfType(protocol.MsgRoundStarted))
}

func TestGameActionRequiresMembership(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	alice := env.connect(t, "alice")

	env.send(alice, protocol.MsgCreateRoom, protocol.CreateRoomPayload{Name: "lobby", Mode: "realtime", Visibility: "public"})

	// Created but never joined: game actions bounce.
	env.send(alice, protocol.MsgStartGame, protocol.RoomActionPayload{Room: "lobby"})
	payload := decodePayload[protocol.ErrorPayload](t, alice.LastOfType(protocol.MsgError))
	assert.Equal(t, protocol.ErrCodeNotInRoom, payload.Code)
}

func TestStatusSnapshot(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	alice := env.connect(t, "alice")

	env.send(alice, protocol.MsgCreateRoom, protocol.CreateRoomPayload{Name: "lobby", Mode: "realtime", Visibility: "public"})
	env.send(alice, protocol.MsgJoinRoom, protocol.JoinRoomPayload{Room: "lobby"})
	env.send(alice, protocol.MsgStartGame, protocol.RoomActionPayload{Room: "lobby"})
	env.send(alice, protocol.MsgGetStatus, protocol.RoomActionPayload{Room: "lobby"})

	st := decodePayload[protocol.StatusPayload](t, alice.LastOfType(protocol.MsgStatus))
	assert.Equal(t, "lobby", st.Room)
	assert.Equal(t, "alice", st.ActivePlayer)
	assert.Equal(t, "ROLL", st.Phase)
	assert.True(t, st.GameInProgress)
	require.Len(t, st.Players, 1)
}

func TestAwayBackBroadcast(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	alice := env.connect(t, "alice")
	bob := env.connect(t, "bob")

	env.send(alice, protocol.MsgCreateRoom, protocol.CreateRoomPayload{Name: "lobby", Mode: "realtime", Visibility: "public"})
	env.send(alice, protocol.MsgJoinRoom, protocol.JoinRoomPayload{Room: "lobby"})
	env.send(bob, protocol.MsgJoinRoom, protocol.JoinRoomPayload{Room: "lobby"})

	env.send(alice, protocol.MsgSetAway, protocol.RoomActionPayload{Room: "lobby"})
	away := decodePayload[protocol.PlayerAwayPayload](t, bob.LastOfType(protocol.MsgPlayerAway))
	assert.Equal(t, "alice", away.Username)

	env.send(alice, protocol.MsgSetBack, protocol.RoomActionPayload{Room: "lobby"})
	back := decodePayload[protocol.PlayerAwayPayload](t, bob.LastOfType(protocol.MsgPlayerBack))
	assert.Equal(t, "alice", back.Username)
}
