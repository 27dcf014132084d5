package repos_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/medrail/casebook/internal/adapters/repos"
	"github.com/medrail/casebook/internal/config"
	"github.com/medrail/casebook/internal/domain/model"
	"github.com/medrail/casebook/internal/infrastructure"
	"github.com/medrail/casebook/internal/ports"
	"github.com/medrail/casebook/pkg/logger"
	"github.com/stretchr/testify/suite"
)

type KeydbSessionStoreTestSuite struct {
	suite.Suite
	miniRedis   *miniredis.Miniredis
	keydbClient *infrastructure.KeydbClient
	store       *repos.KeydbSessionStore
}

func TestKeydbSessionStoreTestSuite(t *testing.T) {
	t.Parallel()
	suite.Run(t, new(KeydbSessionStoreTestSuite))
}

func (s *KeydbSessionStoreTestSuite) SetupTest() {
	var err error
	s.miniRedis, err = miniredis.Run()
	s.Require().NoError(err)

	cfg := config.SessionStore{
		Address:      s.miniRedis.Addr(),
		Password:     "",
		DB:           0,
		PoolSize:     5,
		DialTimeout:  time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
		EntryTTL:     time.Hour,
	}

	s.keydbClient = infrastructure.NewKeydbClient(cfg, logger.NewTestLogger())
	s.store = repos.NewKeydbSessionStore(s.keydbClient, nil, logger.NewTestLogger())
}

func (s *KeydbSessionStoreTestSuite) TearDownTest() {
	if s.keydbClient != nil {
		_ = s.keydbClient.Close()
	}
	if s.miniRedis != nil {
		s.miniRedis.Close()
	}
}

func (s *KeydbSessionStoreTestSuite) TestStoredVersions_EmptyForNewSession() {
	versions, err := s.store.StoredVersions(context.Background(), "session-1")

	s.Require().NoError(err)
	s.Require().NotNil(versions)
	s.Require().Empty(versions)
}

func (s *KeydbSessionStoreTestSuite) TestSaveAndLoadStoredVersions() {
	ctx := context.Background()

	versions := make(model.StoredVersions)
	versions.Put("Singapore", model.VersionTypeSurgerySets, 150)
	versions.Put(model.CountryGlobal, model.VersionTypePermissions, 3)

	s.Require().NoError(s.store.SaveStoredVersions(ctx, "session-1", versions))

	loaded, err := s.store.StoredVersions(ctx, "session-1")
	s.Require().NoError(err)
	s.Require().Equal(versions, loaded)

	number, ok := loaded.Get("Singapore", model.VersionTypeSurgerySets)
	s.Require().True(ok)
	s.Require().Equal(int64(150), number)
}

func (s *KeydbSessionStoreTestSuite) TestLastCheck_RoundTrip() {
	ctx := context.Background()

	_, found, err := s.store.LastCheck(ctx, "session-1")
	s.Require().NoError(err)
	s.Require().False(found)

	at := time.Now().UTC().Truncate(time.Millisecond)
	s.Require().NoError(s.store.SetLastCheck(ctx, "session-1", at))

	loaded, found, err := s.store.LastCheck(ctx, "session-1")
	s.Require().NoError(err)
	s.Require().True(found)
	s.Require().Equal(at, loaded)
}

func (s *KeydbSessionStoreTestSuite) TestPendingMismatch_RoundTrip() {
	ctx := context.Background()

	pending, err := s.store.PendingMismatch(ctx, "session-1")
	s.Require().NoError(err)
	s.Require().Nil(pending)

	entry := ports.PendingMismatch{
		SessionID:  "session-1",
		Signature:  "abc123",
		ReportedAt: time.Now().UTC().Truncate(time.Millisecond),
	}
	s.Require().NoError(s.store.SetPendingMismatch(ctx, entry))

	pending, err = s.store.PendingMismatch(ctx, "session-1")
	s.Require().NoError(err)
	s.Require().NotNil(pending)
	s.Require().Equal(entry, *pending)

	s.Require().NoError(s.store.ClearPendingMismatch(ctx, "session-1"))

	pending, err = s.store.PendingMismatch(ctx, "session-1")
	s.Require().NoError(err)
	s.Require().Nil(pending)
}

func (s *KeydbSessionStoreTestSuite) TestListPendingMismatches() {
	ctx := context.Background()

	reportedAt := time.Now().UTC().Truncate(time.Millisecond)
	for _, sessionID := range []string{"session-1", "session-2", "session-3"} {
		s.Require().NoError(s.store.SetPendingMismatch(ctx, ports.PendingMismatch{
			SessionID:  sessionID,
			Signature:  "abc123",
			ReportedAt: reportedAt,
		}))
	}

	pending, err := s.store.ListPendingMismatches(ctx)
	s.Require().NoError(err)
	s.Require().Len(pending, 3)

	seen := make(map[string]bool, len(pending))
	for _, entry := range pending {
		seen[entry.SessionID] = true
	}
	s.Require().True(seen["session-1"])
	s.Require().True(seen["session-2"])
	s.Require().True(seen["session-3"])
}

func (s *KeydbSessionStoreTestSuite) TestAcknowledgedSignature_RoundTrip() {
	ctx := context.Background()

	signature, err := s.store.AcknowledgedSignature(ctx, "session-1")
	s.Require().NoError(err)
	s.Require().Empty(signature)

	s.Require().NoError(s.store.SetAcknowledgedSignature(ctx, "session-1", "abc123"))

	signature, err = s.store.AcknowledgedSignature(ctx, "session-1")
	s.Require().NoError(err)
	s.Require().Equal("abc123", signature)
}

func (s *KeydbSessionStoreTestSuite) TestClear_RemovesAllSessionKeys() {
	ctx := context.Background()

	versions := make(model.StoredVersions)
	versions.Put("Singapore", model.VersionTypeSurgerySets, 150)

	s.Require().NoError(s.store.SaveStoredVersions(ctx, "session-1", versions))
	s.Require().NoError(s.store.SetLastCheck(ctx, "session-1", time.Now()))
	s.Require().NoError(s.store.SetPendingMismatch(ctx, ports.PendingMismatch{SessionID: "session-1", Signature: "abc123"}))
	s.Require().NoError(s.store.SetAcknowledgedSignature(ctx, "session-1", "abc123"))

	s.Require().NoError(s.store.Clear(ctx, "session-1"))

	loaded, err := s.store.StoredVersions(ctx, "session-1")
	s.Require().NoError(err)
	s.Require().Empty(loaded)

	_, found, err := s.store.LastCheck(ctx, "session-1")
	s.Require().NoError(err)
	s.Require().False(found)

	pending, err := s.store.PendingMismatch(ctx, "session-1")
	s.Require().NoError(err)
	s.Require().Nil(pending)

	signature, err := s.store.AcknowledgedSignature(ctx, "session-1")
	s.Require().NoError(err)
	s.Require().Empty(signature)
}

func (s *KeydbSessionStoreTestSuite) TestIsHealthy() {
	s.Require().True(s.store.IsHealthy(context.Background()))

	s.miniRedis.Close()

	s.Require().False(s.store.IsHealthy(context.Background()))
}
