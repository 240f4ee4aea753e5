package lobby

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/spacetime-relay/internal/dependencies/mocks"
	"github.com/mcoot/spacetime-relay/internal/model"
	"github.com/mcoot/spacetime-relay/internal/storage/memory"
	"github.com/mcoot/spacetime-relay/internal/testutil"
)

type ControllerSuite struct {
	suite.Suite
	storage    *memory.Storage
	notifier   *testutil.RecordingNotifier
	feed       *testutil.RecordingPublisher
	clock      *mocks.MockClock
	random     *mocks.MockRandom
	controller *Controller
	ctx        context.Context
}

func TestControllerSuite(t *testing.T) {
	suite.Run(t, new(ControllerSuite))
}

func (s *ControllerSuite) SetupTest() {
	logger := testutil.NopLogger()
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.random = mocks.NewMockRandom()
	s.storage = memory.New(memory.Config{MaxPlayers: 4}, s.clock, s.random, logger)
	s.notifier = testutil.NewRecordingNotifier()
	s.feed = testutil.NewRecordingPublisher()
	s.controller = NewController(s.storage, s.notifier, s.feed, s.clock, logger)
	s.ctx = context.Background()
}

func (s *ControllerSuite) createLobby(hostID model.PlayerID, code string) *model.Lobby {
	s.random.QueueString(code)
	lobby, err := s.controller.CreateLobby(s.ctx, hostID, model.PlayerProfile{Name: string(hostID)})
	s.Require().NoError(err)
	return lobby
}

func (s *ControllerSuite) join(playerID model.PlayerID, code model.LobbyCode) {
	_, err := s.controller.JoinLobby(s.ctx, playerID, string(code), model.PlayerProfile{Name: string(playerID)})
	s.Require().NoError(err)
}

// lobbyOf creates a lobby hosted by the first id and joins the rest in order
func (s *ControllerSuite) lobbyOf(ids ...model.PlayerID) *model.Lobby {
	lobby := s.createLobby(ids[0], "ABC234")
	for _, id := range ids[1:] {
		s.join(id, lobby.Code)
	}
	s.notifier.Reset()
	return lobby
}

// CreateLobby tests

func (s *ControllerSuite) TestCreateLobbySucceeds() {
	lobby := s.createLobby("host-1", "ABC234")

	s.Equal(model.LobbyCode("ABC234"), lobby.Code)
	s.Equal(model.PhaseLobby, lobby.Phase)
	s.Equal(model.PlayerID("host-1"), lobby.Host)
	s.Equal([]model.PlayerID{"host-1"}, lobby.MemberIDs())

	msgs := s.notifier.For("host-1")
	s.Require().Len(msgs, 1)
	s.Equal(model.EventLobbyCreated, msgs[0].Type)
	payload := msgs[0].Payload.(model.LobbyCreatedPayload)
	s.True(payload.IsHost)
	s.Equal(model.LobbyCode("ABC234"), payload.Code)
	s.Require().Len(payload.Players, 1)
	s.Equal(model.MaxHealth, payload.Players[0].Health)

	s.Equal([]model.ActivityType{model.ActivityLobbyCreated}, s.feed.Types())
}

func (s *ControllerSuite) TestCreateLobbyFillsProfileDefaults() {
	s.random.QueueString("ABC234")
	lobby, err := s.controller.CreateLobby(s.ctx, "host-1", model.PlayerProfile{})
	s.Require().NoError(err)

	host := lobby.GetMember("host-1")
	s.Require().NotNil(host)
	s.Equal(model.DefaultPlayerName, host.Name)
	s.Equal(model.DefaultShipType, host.ShipType)
	s.Equal(model.DefaultColor, host.Color)
}

func (s *ControllerSuite) TestCreateLobbyCodesAreDistinct() {
	s.random.QueueString("AAAAAA", "AAAAAA", "BBBBBB", "BBBBBB", "CCCCCC")
	seen := map[model.LobbyCode]bool{}
	for _, id := range []model.PlayerID{"p1", "p2", "p3"} {
		lobby, err := s.controller.CreateLobby(s.ctx, id, model.PlayerProfile{})
		s.Require().NoError(err)
		s.False(seen[lobby.Code], "duplicate code %s", lobby.Code)
		seen[lobby.Code] = true
	}
}

func (s *ControllerSuite) TestCreateLobbyWhileInLobby() {
	s.createLobby("host-1", "ABC234")

	_, err := s.controller.CreateLobby(s.ctx, "host-1", model.PlayerProfile{})
	s.ErrorIs(err, model.ErrAlreadyInLobby)

	summaries, err := s.storage.ListLobbies(s.ctx)
	s.Require().NoError(err)
	s.Len(summaries, 1)
}

// JoinLobby tests

func (s *ControllerSuite) TestJoinLobbySucceeds() {
	lobby := s.createLobby("host-1", "ABC234")
	s.notifier.Reset()

	_, err := s.controller.JoinLobby(s.ctx, "p2", "ABC234", model.PlayerProfile{Name: "Bob", ShipType: "interceptor", Color: 0xff0000})
	s.Require().NoError(err)

	joined := s.notifier.For("p2")
	s.Require().Len(joined, 1)
	s.Equal(model.EventLobbyJoined, joined[0].Type)
	payload := joined[0].Payload.(model.LobbyJoinedPayload)
	s.False(payload.IsHost)
	s.Equal(model.PlayerID("host-1"), payload.Host)
	s.Equal(model.PhaseLobby, payload.Phase)
	s.Require().Len(payload.Players, 2)
	s.Equal(model.PlayerID("host-1"), payload.Players[0].ID)
	s.Equal("Bob", payload.Players[1].Name)

	s.Equal([]model.PlayerID{"host-1"}, s.notifier.Recipients(model.EventPlayerJoined))
	announced := s.notifier.OfType(model.EventPlayerJoined)[0].Msg.Payload.(model.Player)
	s.Equal(model.PlayerID("p2"), announced.ID)
	s.Equal("interceptor", announced.ShipType)

	s.Len(lobby.Members, 2)
}

func (s *ControllerSuite) TestJoinLobbyNormalizesCode() {
	s.createLobby("host-1", "ABC234")

	lobby, err := s.controller.JoinLobby(s.ctx, "p2", "  abc234 ", model.PlayerProfile{})
	s.Require().NoError(err)
	s.Equal(model.LobbyCode("ABC234"), lobby.Code)
}

func (s *ControllerSuite) TestJoinLobbyInvalidCode() {
	for _, code := range []string{"", "ABC", "ABC2345", "ABC10O", "ABC-23"} {
		_, err := s.controller.JoinLobby(s.ctx, "p2", code, model.PlayerProfile{})
		s.ErrorIs(err, model.ErrInvalidCode, "code %q", code)
	}
}

func (s *ControllerSuite) TestJoinLobbyUnknownCodeMutatesNothing() {
	lobby := s.createLobby("host-1", "ABC234")
	s.notifier.Reset()

	_, err := s.controller.JoinLobby(s.ctx, "p2", "ZZZZZZ", model.PlayerProfile{})
	s.ErrorIs(err, model.ErrLobbyNotFound)

	s.Empty(s.notifier.Deliveries())
	s.Equal([]model.PlayerID{"host-1"}, lobby.MemberIDs())
	_, err = s.storage.LobbyForPlayer(s.ctx, "p2")
	s.ErrorIs(err, model.ErrNotInLobby)
}

func (s *ControllerSuite) TestJoinFullLobby() {
	lobby := s.lobbyOf("host-1", "p2", "p3", "p4")

	_, err := s.controller.JoinLobby(s.ctx, "p5", string(lobby.Code), model.PlayerProfile{})
	s.ErrorIs(err, model.ErrLobbyFull)
	s.Len(lobby.Members, 4)
	s.Empty(s.notifier.Deliveries())
}

func (s *ControllerSuite) TestJoinWhileInAnotherLobby() {
	s.createLobby("host-1", "AAAAAA")
	s.createLobby("host-2", "BBBBBB")

	_, err := s.controller.JoinLobby(s.ctx, "host-1", "BBBBBB", model.PlayerProfile{})
	s.ErrorIs(err, model.ErrAlreadyInLobby)

	lobby, err := s.storage.LobbyForPlayer(s.ctx, "host-1")
	s.Require().NoError(err)
	s.Equal(model.LobbyCode("AAAAAA"), lobby.Code)
}

func (s *ControllerSuite) TestJoinDuringPlay() {
	lobby := s.lobbyOf("host-1", "p2")
	s.Require().NoError(s.controller.StartGame(s.ctx, "host-1"))

	joined, err := s.controller.JoinLobby(s.ctx, "p3", string(lobby.Code), model.PlayerProfile{})
	s.Require().NoError(err)
	payload := s.notifier.For("p3")[len(s.notifier.For("p3"))-1].Payload.(model.LobbyJoinedPayload)
	s.Equal(model.PhasePlaying, payload.Phase)
	s.Len(joined.Members, 3)
}

// ToggleReady tests

func (s *ControllerSuite) TestToggleReadyFlips() {
	lobby := s.lobbyOf("host-1", "p2")

	s.Require().NoError(s.controller.ToggleReady(s.ctx, "p2"))
	s.True(lobby.GetMember("p2").Ready)
	s.Require().NoError(s.controller.ToggleReady(s.ctx, "p2"))
	s.False(lobby.GetMember("p2").Ready)

	ready := s.notifier.OfType(model.EventPlayerReady)
	s.Len(ready, 4)
	s.Equal(model.PlayerReadyPayload{PlayerID: "p2", Ready: true}, ready[0].Msg.Payload)
	s.Equal(model.PlayerReadyPayload{PlayerID: "p2", Ready: false}, ready[3].Msg.Payload)
}

func (s *ControllerSuite) TestToggleReadyNotInLobby() {
	s.ErrorIs(s.controller.ToggleReady(s.ctx, "stranger"), model.ErrNotInLobby)
	s.Empty(s.notifier.Deliveries())
}

func (s *ControllerSuite) TestAllReadyFiresOnceOnLastToggle() {
	s.lobbyOf("host-1", "p2", "p3")

	s.Require().NoError(s.controller.ToggleReady(s.ctx, "host-1"))
	s.Require().NoError(s.controller.ToggleReady(s.ctx, "p2"))
	s.Empty(s.notifier.OfType(model.EventAllReady))

	s.Require().NoError(s.controller.ToggleReady(s.ctx, "p3"))
	s.ElementsMatch([]model.PlayerID{"host-1", "p2", "p3"}, s.notifier.Recipients(model.EventAllReady))
}

func (s *ControllerSuite) TestAllReadyNeedsTwoPlayers() {
	s.lobbyOf("host-1")

	s.Require().NoError(s.controller.ToggleReady(s.ctx, "host-1"))
	s.Empty(s.notifier.OfType(model.EventAllReady))
}

func (s *ControllerSuite) TestAllReadyNotSentOnceStarted() {
	s.lobbyOf("host-1", "p2")
	s.Require().NoError(s.controller.StartGame(s.ctx, "host-1"))

	s.Require().NoError(s.controller.ToggleReady(s.ctx, "host-1"))
	s.Require().NoError(s.controller.ToggleReady(s.ctx, "p2"))
	s.Empty(s.notifier.OfType(model.EventAllReady))
}

// StartGame tests

func (s *ControllerSuite) TestStartGameByHost() {
	lobby := s.lobbyOf("host-1", "p2")

	s.Require().NoError(s.controller.StartGame(s.ctx, "host-1"))
	s.Equal(model.PhasePlaying, lobby.Phase)

	starting := s.notifier.OfType(model.EventGameStarting)
	s.Len(starting, 2)
	roster := starting[0].Msg.Payload.(model.RosterPayload).Players
	s.Equal([]model.PlayerID{"host-1", "p2"}, []model.PlayerID{roster[0].ID, roster[1].ID})
	s.Contains(s.feed.Types(), model.ActivityGameStarted)
}

func (s *ControllerSuite) TestStartGameNotHost() {
	lobby := s.lobbyOf("host-1", "p2", "p3")

	for _, id := range []model.PlayerID{"p2", "p3"} {
		s.ErrorIs(s.controller.StartGame(s.ctx, id), model.ErrNotHost)
	}
	s.Equal(model.PhaseLobby, lobby.Phase)
	s.Empty(s.notifier.Deliveries())
}

func (s *ControllerSuite) TestStartGameTwice() {
	s.lobbyOf("host-1", "p2")
	s.Require().NoError(s.controller.StartGame(s.ctx, "host-1"))

	s.ErrorIs(s.controller.StartGame(s.ctx, "host-1"), model.ErrGameInProgress)
}

func (s *ControllerSuite) TestStartGameNotInLobby() {
	s.ErrorIs(s.controller.StartGame(s.ctx, "stranger"), model.ErrNotInLobby)
}

// EndGame tests

func (s *ControllerSuite) TestEndGameBroadcastsStandings() {
	lobby := s.lobbyOf("host-1", "p2", "p3")
	s.Require().NoError(s.controller.StartGame(s.ctx, "host-1"))
	lobby.GetMember("p2").Score = 50
	lobby.GetMember("p3").Score = 50
	lobby.GetMember("host-1").Score = 10

	s.Require().NoError(s.controller.EndGame(s.ctx, "host-1"))
	s.Equal(model.PhaseGameOver, lobby.Phase)

	over := s.notifier.OfType(model.EventGameOver)
	s.Len(over, 3)
	roster := over[0].Msg.Payload.(model.RosterPayload).Players
	s.Equal([]model.PlayerID{"p2", "p3", "host-1"}, []model.PlayerID{roster[0].ID, roster[1].ID, roster[2].ID})
}

func (s *ControllerSuite) TestEndGameRequiresHostAndPlay() {
	s.lobbyOf("host-1", "p2")

	s.ErrorIs(s.controller.EndGame(s.ctx, "host-1"), model.ErrNotPlaying)
	s.Require().NoError(s.controller.StartGame(s.ctx, "host-1"))
	s.ErrorIs(s.controller.EndGame(s.ctx, "p2"), model.ErrNotHost)
	s.Require().NoError(s.controller.EndGame(s.ctx, "host-1"))
	s.ErrorIs(s.controller.EndGame(s.ctx, "host-1"), model.ErrNotPlaying)
}

// LeaveLobby tests

func (s *ControllerSuite) TestLeaveBroadcastsPlayerLeft() {
	lobby := s.lobbyOf("host-1", "p2", "p3")

	departure, err := s.controller.LeaveLobby(s.ctx, "p3")
	s.Require().NoError(err)
	s.Equal(lobby.Code, departure.Code)
	s.Empty(departure.NewHost)
	s.False(departure.LobbyDeleted)

	s.ElementsMatch([]model.PlayerID{"host-1", "p2"}, s.notifier.Recipients(model.EventPlayerLeft))
	s.Empty(s.notifier.OfType(model.EventNewHost))
}

func (s *ControllerSuite) TestHostLeaveTransfersToLongestTenured() {
	lobby := s.lobbyOf("host-1", "p2", "p3")

	departure, err := s.controller.LeaveLobby(s.ctx, "host-1")
	s.Require().NoError(err)
	s.Equal(model.PlayerID("p2"), departure.NewHost)
	s.Equal(model.PlayerID("p2"), lobby.Host)

	newHost := s.notifier.OfType(model.EventNewHost)
	s.Len(newHost, 2)
	for _, d := range newHost {
		s.Equal(model.NewHostPayload{HostID: "p2"}, d.Msg.Payload)
	}

	// The new host can start, the old one is gone
	s.Require().NoError(s.controller.StartGame(s.ctx, "p2"))
}

func (s *ControllerSuite) TestLastLeaveDeletesLobby() {
	lobby := s.lobbyOf("host-1", "p2")

	_, err := s.controller.LeaveLobby(s.ctx, "host-1")
	s.Require().NoError(err)
	departure, err := s.controller.LeaveLobby(s.ctx, "p2")
	s.Require().NoError(err)
	s.True(departure.LobbyDeleted)

	_, err = s.controller.GetLobby(s.ctx, lobby.Code)
	s.ErrorIs(err, model.ErrLobbyNotFound)
	_, err = s.controller.JoinLobby(s.ctx, "p3", string(lobby.Code), model.PlayerProfile{})
	s.ErrorIs(err, model.ErrLobbyNotFound)

	// A later sweep finds nothing to do
	s.clock.Advance(2 * time.Hour)
	removed, err := s.storage.SweepExpired(s.ctx, s.clock.Now(), time.Hour)
	s.Require().NoError(err)
	s.Empty(removed)

	s.Contains(s.feed.Types(), model.ActivityLobbyClosed)
}

func (s *ControllerSuite) TestLeaveNotInLobby() {
	_, err := s.controller.LeaveLobby(s.ctx, "stranger")
	s.ErrorIs(err, model.ErrNotInLobby)
}

func (s *ControllerSuite) TestLeaveThenCreateAgain() {
	s.lobbyOf("host-1", "p2")
	_, err := s.controller.LeaveLobby(s.ctx, "p2")
	s.Require().NoError(err)

	s.random.QueueString("DDDDDD")
	lobby, err := s.controller.CreateLobby(s.ctx, "p2", model.PlayerProfile{})
	s.Require().NoError(err)
	s.Equal(model.LobbyCode("DDDDDD"), lobby.Code)
}
