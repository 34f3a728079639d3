//go:build integration

package storage_test

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/suite"

	"motormint/internal/audit"
	"motormint/internal/identity"
	"motormint/internal/storage"
	"motormint/internal/vehicle"
	"motormint/internal/wallet"
	id "motormint/pkg/domain"
	"motormint/pkg/platform/sentinel"
	"motormint/pkg/testutil/containers"
)

const (
	walletAlice = "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"
	walletBob   = "0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359"
)

// StoreSuite runs the postgres-backed stores against a real database so the
// unique constraints and conflict mapping are exercised for real.
type StoreSuite struct {
	suite.Suite

	container *containers.PostgresContainer
	db        *storage.DB
	auditDB   *sql.DB

	identities *identity.PostgresStore
	profiles   *vehicle.PostgresStore
	audits     *audit.PostgresStore
}

func TestStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(StoreSuite))
}

func (s *StoreSuite) SetupSuite() {
	ctx := context.Background()
	s.container = containers.NewPostgresContainer(s.T())

	db, err := storage.New(ctx, s.container.URL)
	s.Require().NoError(err)
	s.db = db
	s.Require().NoError(db.Migrate(ctx))

	auditDB, err := sql.Open("postgres", s.container.URL)
	s.Require().NoError(err)
	s.auditDB = auditDB

	s.identities = identity.NewPostgresStore(db.Pool)
	s.profiles = vehicle.NewPostgresStore(db.Pool)
	s.audits = audit.NewPostgresStore(auditDB)
}

func (s *StoreSuite) TearDownSuite() {
	if s.auditDB != nil {
		_ = s.auditDB.Close()
	}
	if s.db != nil {
		s.db.Close()
	}
	if s.container != nil {
		_ = s.container.Container.Terminate(context.Background())
	}
}

func (s *StoreSuite) SetupTest() {
	s.Require().NoError(s.container.TruncateAll(context.Background()))
}

func (s *StoreSuite) newIdentity(walletAddress string) *identity.Identity {
	normalized, err := wallet.Normalize(walletAddress)
	s.Require().NoError(err)
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &identity.Identity{
		ID:               id.NewIdentityID(),
		WalletAddress:    walletAddress,
		NormalizedWallet: normalized,
		DisplayName:      wallet.Short(normalized),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

func (s *StoreSuite) newProfile(tokenID id.TokenID, vin string, identityID id.IdentityID) *vehicle.Profile {
	now := time.Now().UTC().Truncate(time.Microsecond)
	normalized, err := wallet.Normalize(walletAlice)
	s.Require().NoError(err)
	return &vehicle.Profile{
		ID:          id.NewProfileID(),
		TokenID:     tokenID,
		VIN:         vin,
		OwnerWallet: normalized,
		IdentityID:  identityID,
		Make:        "Toyota",
		Model:       "Supra",
		Year:        1998,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func (s *StoreSuite) TestIdentityStore() {
	ctx := context.Background()

	s.Run("create and find roundtrip", func() {
		ident := s.newIdentity(walletAlice)
		s.Require().NoError(s.identities.Create(ctx, ident))

		found, err := s.identities.FindByWallet(ctx, ident.NormalizedWallet)
		s.Require().NoError(err)
		s.Equal(ident.ID, found.ID)
		s.Equal(walletAlice, found.WalletAddress)
		s.Nil(found.LastLogin)

		byID, err := s.identities.FindByID(ctx, ident.ID)
		s.Require().NoError(err)
		s.Equal(ident.NormalizedWallet, byID.NormalizedWallet)
	})

	s.Run("unknown wallet is not found", func() {
		_, err := s.identities.FindByWallet(ctx, "0x0000000000000000000000000000000000000000")
		s.ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("second create for the same wallet conflicts", func() {
		first := s.newIdentity(walletBob)
		s.Require().NoError(s.identities.Create(ctx, first))

		second := s.newIdentity(walletBob)
		err := s.identities.Create(ctx, second)
		s.ErrorIs(err, sentinel.ErrConflict)
	})

	s.Run("touch login stamps last_login", func() {
		ident := s.newIdentity("0x52908400098527886E0F7030069857D2E4169EE7")
		s.Require().NoError(s.identities.Create(ctx, ident))

		at := time.Now().UTC().Truncate(time.Microsecond)
		s.Require().NoError(s.identities.TouchLogin(ctx, ident.ID, at))

		found, err := s.identities.FindByID(ctx, ident.ID)
		s.Require().NoError(err)
		s.Require().NotNil(found.LastLogin)
		s.WithinDuration(at, *found.LastLogin, time.Millisecond)

		s.ErrorIs(s.identities.TouchLogin(ctx, id.NewIdentityID(), at), sentinel.ErrNotFound)
	})
}

func (s *StoreSuite) TestIdentityStore_ConcurrentCreate() {
	ctx := context.Background()

	const writers = 16
	var wg sync.WaitGroup
	errs := make([]error, writers)
	for i := range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = s.identities.Create(ctx, s.newIdentity(walletAlice))
		}()
	}
	wg.Wait()

	var created, conflicted int
	for _, err := range errs {
		switch {
		case err == nil:
			created++
		default:
			s.Require().ErrorIs(err, sentinel.ErrConflict)
			conflicted++
		}
	}
	s.Equal(1, created)
	s.Equal(writers-1, conflicted)
}

func (s *StoreSuite) TestVehicleStore() {
	ctx := context.Background()
	ident := s.newIdentity(walletAlice)
	s.Require().NoError(s.identities.Create(ctx, ident))

	s.Run("create and find roundtrip", func() {
		profile := s.newProfile(1, "JT2DE62A0X0097864", ident.ID)
		s.Require().NoError(s.profiles.Create(ctx, profile))

		found, err := s.profiles.FindByTokenID(ctx, 1)
		s.Require().NoError(err)
		s.Equal(profile.ID, found.ID)
		s.Equal(profile.VIN, found.VIN)
		s.Equal(ident.ID, found.IdentityID)
	})

	s.Run("reusing the token id is a duplicate token", func() {
		err := s.profiles.Create(ctx, s.newProfile(1, "WP0AA2994XS620631", ident.ID))
		s.ErrorIs(err, vehicle.ErrDuplicateToken)
		s.ErrorIs(err, sentinel.ErrConflict)
	})

	s.Run("reusing the vin is a duplicate vin", func() {
		err := s.profiles.Create(ctx, s.newProfile(2, "JT2DE62A0X0097864", ident.ID))
		s.ErrorIs(err, vehicle.ErrDuplicateVIN)
		s.ErrorIs(err, sentinel.ErrConflict)
	})

	s.Run("update owner rewrites the snapshot", func() {
		normalized, err := wallet.Normalize(walletBob)
		s.Require().NoError(err)
		at := time.Now().UTC().Truncate(time.Microsecond)
		s.Require().NoError(s.profiles.UpdateOwner(ctx, 1, normalized, at))

		found, err := s.profiles.FindByTokenID(ctx, 1)
		s.Require().NoError(err)
		s.Equal(normalized, found.OwnerWallet)

		s.ErrorIs(s.profiles.UpdateOwner(ctx, 999, normalized, at), sentinel.ErrNotFound)
	})

	s.Run("list by identity returns profiles in creation order", func() {
		s.Require().NoError(s.profiles.Create(ctx, s.newProfile(3, "WP0AA2994XS620631", ident.ID)))

		listed, err := s.profiles.ListByIdentity(ctx, ident.ID)
		s.Require().NoError(err)
		s.Require().Len(listed, 2)
		s.Equal(id.TokenID(1), listed[0].TokenID)
		s.Equal(id.TokenID(3), listed[1].TokenID)
	})
}

func (s *StoreSuite) TestAuditStore_OutboxRoundtrip() {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	entry := audit.Entry{
		ID:          uuid.New(),
		TokenID:     id.TokenID(5),
		Action:      audit.ActionBlockchainMint,
		Detail:      "tx 0xabc mined in block 12",
		ActorWallet: "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed",
		CreatedAt:   time.Now().UTC().Truncate(time.Microsecond),
	}
	s.Require().NoError(s.audits.Append(ctx, entry))

	entries, err := s.audits.ListByToken(ctx, 5)
	s.Require().NoError(err)
	s.Require().Len(entries, 1)
	s.Equal(entry.ID, entries[0].ID)
	s.Equal(entry.Detail, entries[0].Detail)

	s.Run("broker outage leaves the outbox row unpublished", func() {
		producer := &recordingProducer{failing: true}
		worker := audit.NewOutboxWorker(s.auditDB, producer, logger)
		s.Error(worker.DrainOnce(ctx))
		s.Equal(1, s.unpublishedOutboxRows(ctx))
	})

	s.Run("drain publishes and marks the row", func() {
		producer := &recordingProducer{}
		worker := audit.NewOutboxWorker(s.auditDB, producer, logger)
		s.Require().NoError(worker.DrainOnce(ctx))
		s.Equal(1, producer.count())
		s.Zero(s.unpublishedOutboxRows(ctx))

		// A second drain finds nothing new.
		s.Require().NoError(worker.DrainOnce(ctx))
		s.Equal(1, producer.count())
	})
}

func (s *StoreSuite) unpublishedOutboxRows(ctx context.Context) int {
	var n int
	err := s.db.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM outbox WHERE published_at IS NULL`).Scan(&n)
	s.Require().NoError(err)
	return n
}

// recordingProducer captures produced messages; failing simulates a broker
// outage.
type recordingProducer struct {
	mu       sync.Mutex
	messages [][]byte
	failing  bool
}

func (p *recordingProducer) Produce(_ context.Context, _, value []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failing {
		return context.DeadlineExceeded
	}
	p.messages = append(p.messages, value)
	return nil
}

func (p *recordingProducer) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.messages)
}
