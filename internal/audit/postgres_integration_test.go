//go:build integration

package audit_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"veridoc/internal/audit"
	"veridoc/pkg/testutil/containers"
)

type PostgresAuditSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *audit.PostgresStore
}

func TestPostgresAuditSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresAuditSuite))
}

func (s *PostgresAuditSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())

	store, err := audit.NewPostgres(context.Background(), s.postgres.Pool)
	s.Require().NoError(err)
	s.store = store
}

func (s *PostgresAuditSuite) SetupTest() {
	err := s.postgres.Truncate(context.Background(), "audit_events")
	s.Require().NoError(err)
}

func (s *PostgresAuditSuite) TestAppendAndListRecent() {
	ctx := context.Background()

	event := audit.Event{
		Timestamp:      time.Now().UTC().Truncate(time.Microsecond),
		RequestID:      "req-1",
		SubmissionID:   "sub-1",
		Action:         audit.ActionDecision,
		Status:         "verified",
		IDNumberMasked: "******178",
		FaceBackend:    "deepface",
		ClientIP:       "203.0.113.9",
		Device:         "Firefox on Linux",
	}
	s.Require().NoError(s.store.Append(ctx, event))

	events, err := s.store.ListRecent(ctx, 10)
	s.Require().NoError(err)
	s.Require().Len(events, 1)
	s.Equal(event.Action, events[0].Action)
	s.Equal(event.IDNumberMasked, events[0].IDNumberMasked)
	s.WithinDuration(event.Timestamp, events[0].Timestamp, time.Second)
}

func (s *PostgresAuditSuite) TestListRecentNewestFirstAndLimited() {
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		s.Require().NoError(s.store.Append(ctx, audit.Event{
			Timestamp:    time.Now().UTC(),
			SubmissionID: fmt.Sprintf("sub-%d", i),
			Action:       audit.ActionRegister,
		}))
	}

	events, err := s.store.ListRecent(ctx, 3)
	s.Require().NoError(err)
	s.Require().Len(events, 3)
	s.Equal("sub-4", events[0].SubmissionID)
	s.Equal("sub-2", events[2].SubmissionID)
}

func (s *PostgresAuditSuite) TestTrailSurvivesNewStore() {
	ctx := context.Background()

	s.Require().NoError(s.store.Append(ctx, audit.Event{
		Timestamp:    time.Now().UTC(),
		SubmissionID: "sub-persist",
		Action:       audit.ActionDecision,
	}))

	reopened, err := audit.NewPostgres(ctx, s.postgres.Pool)
	s.Require().NoError(err)

	events, err := reopened.ListRecent(ctx, 10)
	s.Require().NoError(err)
	s.Require().Len(events, 1)
	s.Equal("sub-persist", events[0].SubmissionID)
}
