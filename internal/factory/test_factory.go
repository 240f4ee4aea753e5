package factory

import (
	"context"
	"time"

	"github.com/mcoot/spacetime-relay/internal/dependencies/mocks"
	"github.com/mcoot/spacetime-relay/internal/testutil"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom
	Activity   *testutil.RecordingPublisher
}

// NewTestApp creates an App configured for testing with mocked dependencies
func NewTestApp(cfg Config) *TestApp {
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()
	activity := testutil.NewRecordingPublisher()

	logger := cfg.Logger
	if logger == nil {
		logger = testutil.NopLogger()
	}

	app := newWithDependencies(cfg, mockClock, mockRandom, activity, logger)

	return &TestApp{
		App:        app,
		MockClock:  mockClock,
		MockRandom: mockRandom,
		Activity:   activity,
	}
}

// Start runs the hub until ctx is cancelled
func (t *TestApp) Start(ctx context.Context) {
	go t.Hub.Run(ctx)
}

// Settle waits until every task queued so far has run
func (t *TestApp) Settle() {
	t.Hub.Do(func() {})
}
