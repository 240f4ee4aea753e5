package reaper

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

type ReaperSuite struct {
	suite.Suite
	storage *memory.Storage
	feed    *testutil.RecordingPublisher
	clock   *mocks.MockClock
	random  *mocks.MockRandom
	reaper  *Reaper
	ctx     context.Context
}

func TestReaperSuite(t *testing.T) {
	suite.Run(t, new(ReaperSuite))
}

func (s *ReaperSuite) SetupTest() {
	logger := testutil.NopLogger()
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.random = mocks.NewMockRandom()
	s.storage = memory.New(memory.DefaultConfig(), s.clock, s.random, logger)
	s.feed = testutil.NewRecordingPublisher()
	s.reaper = New(s.storage, s.feed, s.clock, DefaultConfig(), logger)
	s.ctx = context.Background()
}

func (s *ReaperSuite) emptyLobby(code string) model.LobbyCode {
	s.random.QueueString(code)
	created, err := s.storage.CreateLobby(s.ctx, "ghost", "Ghost")
	s.Require().NoError(err)
	return created
}

func (s *ReaperSuite) TestSweepRemovesExpiredEmptyLobbies() {
	code := s.emptyLobby("ABC234")

	s.Empty(s.reaper.SweepOnce(s.ctx))

	s.clock.Advance(DefaultRetention + time.Second)
	s.Equal([]model.LobbyCode{code}, s.reaper.SweepOnce(s.ctx))

	s.Require().Len(s.feed.Activities(), 1)
	s.Equal(model.ActivityLobbyReaped, s.feed.Activities()[0].Type)
	s.Equal(code, s.feed.Activities()[0].LobbyCode)
}

func (s *ReaperSuite) TestSweepIsIdempotent() {
	s.emptyLobby("ABC234")
	s.clock.Advance(2 * DefaultRetention)

	s.Len(s.reaper.SweepOnce(s.ctx), 1)
	s.Empty(s.reaper.SweepOnce(s.ctx))
	s.Len(s.feed.Activities(), 1)
}

func (s *ReaperSuite) TestSweepKeepsOccupiedLobbies() {
	code := s.emptyLobby("ABC234")
	s.Require().NoError(s.storage.AddMember(s.ctx, code, model.NewPlayer("p1", model.PlayerProfile{})))
	s.clock.Advance(2 * DefaultRetention)

	s.Empty(s.reaper.SweepOnce(s.ctx))
}

func (s *ReaperSuite) TestRunSweepsOnEachInterval() {
	s.emptyLobby("ABC234")
	s.clock.Advance(DefaultRetention + time.Second)

	ctx, cancel := context.WithCancel(s.ctx)
	done := make(chan struct{})
	go func() {
		s.reaper.Run(ctx)
		close(done)
	}()
	s.Eventually(func() bool { return s.clock.Tickers() == 1 }, time.Second, time.Millisecond)
	s.Empty(s.feed.Activities())

	s.clock.Advance(DefaultInterval)
	s.Eventually(func() bool { return len(s.feed.Activities()) == 1 }, time.Second, time.Millisecond)

	// A lobby that empties later is caught by the next tick
	s.emptyLobby("XYZ789")
	s.clock.Advance(DefaultRetention + time.Second)
	s.Eventually(func() bool { return len(s.feed.Activities()) == 2 }, time.Second, time.Millisecond)
	s.Equal(model.LobbyCode("XYZ789"), s.feed.Activities()[1].LobbyCode)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		s.Fail("reaper did not stop")
	}
	s.Equal(0, s.clock.Tickers())
}
