package rpc

import (
	"net/rpc"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wfunc/dicetown/catalog"
	"github.com/wfunc/dicetown/dice"
	"github.com/wfunc/dicetown/models"
	"github.com/wfunc/dicetown/persistence"
	"github.com/wfunc/dicetown/services"
)

func newTestClient(t *testing.T) *rpc.Client {
	t.Helper()
	game := services.NewGameService(persistence.NewMemoryStore(), services.WithRoller(dice.NewFixedRoller([]int{1})))
	server, err := NewServer("127.0.0.1:0", NewGameService(game))
	require.NoError(t, err)
	go server.Start()
	t.Cleanup(server.Stop)

	client, err := rpc.Dial("tcp", server.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestGameService_PlayOneTurn(t *testing.T) {
	client := newTestClient(t)

	var reply SnapshotReply
	err := client.Call(ServiceName+".StartGame", &StartGameArgs{
		RoomID: "room-1",
		Seats: []models.Seat{
			{PlayerState: models.PlayerState{ID: "p1"}},
			{PlayerState: models.PlayerState{ID: "p2"}},
		},
	}, &reply)
	require.NoError(t, err)
	require.NotNil(t, reply.Snapshot)
	assert.Equal(t, "p1", reply.Snapshot.Turn.CurrentTurnPlayerID)

	reply = SnapshotReply{}
	require.NoError(t, client.Call(ServiceName+".Roll", &ActionArgs{RoomID: "room-1", PlayerID: "p1", DiceCount: 1}, &reply))
	assert.Equal(t, models.PhaseBuying, reply.Snapshot.Turn.Phase)

	reply = SnapshotReply{}
	require.NoError(t, client.Call(ServiceName+".BuyEstablishment", &ActionArgs{RoomID: "room-1", PlayerID: "p1", CardID: catalog.WheatField}, &reply))
	p1, ok := reply.Snapshot.Player("p1")
	require.True(t, ok)
	assert.Equal(t, 2, p1.Cards[catalog.WheatField])

	reply = SnapshotReply{}
	require.NoError(t, client.Call(ServiceName+".EndTurn", &ActionArgs{RoomID: "room-1", PlayerID: "p1"}, &reply))
	assert.Equal(t, "p2", reply.Snapshot.Turn.CurrentTurnPlayerID)

	reply = SnapshotReply{}
	require.NoError(t, client.Call(ServiceName+".Snapshot", &SnapshotArgs{RoomID: "room-1"}, &reply))
	assert.Equal(t, "p2", reply.Snapshot.Turn.CurrentTurnPlayerID)
}

func TestGameService_RejectionCarriesStatus(t *testing.T) {
	client := newTestClient(t)

	var reply SnapshotReply
	err := client.Call(ServiceName+".Roll", &ActionArgs{RoomID: "missing", PlayerID: "p1", DiceCount: 1}, &reply)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "NotFound"), "got %v", err)
	assert.True(t, strings.Contains(err.Error(), "ROOM_NOT_FOUND"), "got %v", err)
}
