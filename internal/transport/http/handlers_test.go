package httptransport

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"motormint/internal/audit"
	"motormint/internal/chain"
	"motormint/internal/chain/mocks"
	"motormint/internal/identity"
	"motormint/internal/mint"
	"motormint/internal/reconcile"
	"motormint/internal/token"
	"motormint/internal/vehicle"
	id "motormint/pkg/domain"
	"motormint/pkg/platform/sentinel"
)

const (
	testWallet = "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed"
	testTxHash = "0xc0ffeec0ffeec0ffeec0ffeec0ffeec0ffeec0ffeec0ffeec0ffeec0ffee0042"
)

// HandlerSuite drives the full router with real services over in-memory
// stores; only the chain reader is mocked.
type HandlerSuite struct {
	suite.Suite

	ctrl     *gomock.Controller
	reader   *mocks.MockReader
	profiles *vehicle.InMemoryStore
	sessions *token.Service
	server   http.Handler
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.reader = mocks.NewMockReader(s.ctrl)
	s.profiles = vehicle.NewInMemoryStore()
	s.sessions = token.NewService("test-signing-key")

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	audits := audit.NewPublisher(audit.NewInMemoryStore())
	registry := identity.NewRegistry(identity.NewInMemoryStore(), nil, logger)
	verifier := chain.NewVerifier(s.reader, nil, logger)
	reconciler := mint.NewReconciler(verifier, registry, s.profiles, audits, nil, logger)
	auditor := reconcile.NewAuditor(s.reader, s.profiles, audits, 4, nil, logger)

	health := map[string]HealthCheck{
		"store": func(context.Context) error { return nil },
	}
	handler := NewHandler(registry, s.sessions, reconciler, auditor, health, logger)
	s.server = NewRouter(handler, s.sessions, nil, logger)
}

func (s *HandlerSuite) do(method, path, body, bearer string) (*httptest.ResponseRecorder, map[string]json.RawMessage) {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	s.server.ServeHTTP(rec, req)

	fields := map[string]json.RawMessage{}
	if rec.Body.Len() > 0 {
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &fields))
	}
	return rec, fields
}

func (s *HandlerSuite) resolve(walletAddress string) (int, map[string]json.RawMessage) {
	rec, fields := s.do(http.MethodPost, "/identity/resolve",
		`{"wallet_address":"`+walletAddress+`"}`, "")
	return rec.Code, fields
}

func (s *HandlerSuite) sessionToken() string {
	code, fields := s.resolve(testWallet)
	s.Require().Equal(http.StatusOK, code)
	var sessionToken string
	s.Require().NoError(json.Unmarshal(fields["session_token"], &sessionToken))
	s.Require().NotEmpty(sessionToken)
	return sessionToken
}

func (s *HandlerSuite) errorCode(fields map[string]json.RawMessage) string {
	var code string
	s.Require().NoError(json.Unmarshal(fields["error"], &code))
	return code
}

func (s *HandlerSuite) TestResolveIdentity() {
	s.Run("resolving a wallet returns identity and session token", func() {
		code, fields := s.resolve(testWallet)
		s.Equal(http.StatusOK, code)
		s.Contains(fields, "identity")
		s.Contains(fields, "session_token")
	})

	s.Run("malformed wallet is a 400", func() {
		code, fields := s.resolve("0xnothex")
		s.Equal(http.StatusBadRequest, code)
		s.Equal("invalid_address", s.errorCode(fields))
	})

	s.Run("bad json is a 400", func() {
		rec, fields := s.do(http.MethodPost, "/identity/resolve", "{bad-json", "")
		s.Equal(http.StatusBadRequest, rec.Code)
		s.Equal("invalid_input", s.errorCode(fields))
	})
}

func (s *HandlerSuite) TestConfirmMint() {
	confirmBody := `{"token_id":"7","tx_hash":"` + testTxHash + `","vehicle":{"vin":"JT2DE62A0X0097864","make":"Toyota","model":"Supra","year":1998}}`

	s.Run("requires a session token", func() {
		rec, _ := s.do(http.MethodPost, "/mint/confirm", confirmBody, "")
		s.Equal(http.StatusUnauthorized, rec.Code)
	})

	s.Run("verified mint returns the created profile", func() {
		bearer := s.sessionToken()
		s.reader.EXPECT().GetReceipt(gomock.Any(), id.TxHash(testTxHash)).
			Return(chain.Receipt{TxHash: id.TxHash(testTxHash), Succeeded: true, BlockNumber: 99}, nil)
		s.reader.EXPECT().OwnerOf(gomock.Any(), id.TokenID(7)).Return(testWallet, nil)

		rec, fields := s.do(http.MethodPost, "/mint/confirm", confirmBody, bearer)
		s.Equal(http.StatusCreated, rec.Code)

		var ownerWallet string
		s.Require().NoError(json.Unmarshal(fields["owner_wallet"], &ownerWallet))
		s.Equal(testWallet, ownerWallet)
		s.Equal(1, s.profiles.Count())
	})

	s.Run("pending transaction is a 202", func() {
		bearer := s.sessionToken()
		s.reader.EXPECT().GetReceipt(gomock.Any(), id.TxHash(testTxHash)).
			Return(chain.Receipt{}, sentinel.ErrReceiptPending)

		body := strings.Replace(confirmBody, `"token_id":"7"`, `"token_id":"8"`, 1)
		rec, fields := s.do(http.MethodPost, "/mint/confirm", body, bearer)
		s.Equal(http.StatusAccepted, rec.Code)
		s.Equal("transaction_pending", s.errorCode(fields))
	})

	s.Run("duplicate token is a 409", func() {
		bearer := s.sessionToken()
		s.reader.EXPECT().GetReceipt(gomock.Any(), id.TxHash(testTxHash)).
			Return(chain.Receipt{TxHash: id.TxHash(testTxHash), Succeeded: true, BlockNumber: 99}, nil)
		s.reader.EXPECT().OwnerOf(gomock.Any(), id.TokenID(7)).Return(testWallet, nil)

		rec, fields := s.do(http.MethodPost, "/mint/confirm", confirmBody, bearer)
		s.Equal(http.StatusConflict, rec.Code)
		s.Equal("duplicate_token", s.errorCode(fields))
	})

	s.Run("owner mismatch is a 422", func() {
		bearer := s.sessionToken()
		s.reader.EXPECT().GetReceipt(gomock.Any(), id.TxHash(testTxHash)).
			Return(chain.Receipt{TxHash: id.TxHash(testTxHash), Succeeded: true, BlockNumber: 99}, nil)
		s.reader.EXPECT().OwnerOf(gomock.Any(), id.TokenID(9)).
			Return("0xfb6916095ca1df60bb79ce92ce3ea74c37c5d359", nil)

		body := strings.Replace(confirmBody, `"token_id":"7"`, `"token_id":"9"`, 1)
		rec, fields := s.do(http.MethodPost, "/mint/confirm", body, bearer)
		s.Equal(http.StatusUnprocessableEntity, rec.Code)
		s.Equal("owner_mismatch", s.errorCode(fields))
	})
}

func (s *HandlerSuite) TestOwnershipAudit() {
	bearer := s.sessionToken()

	s.Run("empty token list is a 400", func() {
		rec, fields := s.do(http.MethodPost, "/ownership/audit", `{"token_ids":[]}`, bearer)
		s.Equal(http.StatusBadRequest, rec.Code)
		s.Equal("invalid_input", s.errorCode(fields))
	})

	s.Run("reports mismatches and per-token errors", func() {
		for _, tokenID := range []id.TokenID{1, 2} {
			err := s.profiles.Create(context.Background(), &vehicle.Profile{
				ID:          id.NewProfileID(),
				TokenID:     tokenID,
				VIN:         "JT2DE62A0X009786" + tokenID.String(),
				OwnerWallet: testWallet,
				IdentityID:  id.NewIdentityID(),
			})
			s.Require().NoError(err)
		}

		s.reader.EXPECT().OwnerOf(gomock.Any(), id.TokenID(1)).
			Return("0xfb6916095ca1df60bb79ce92ce3ea74c37c5d359", nil)
		s.reader.EXPECT().OwnerOf(gomock.Any(), id.TokenID(2)).
			Return("", errors.New("rpc timeout"))

		rec, fields := s.do(http.MethodPost, "/ownership/audit", `{"token_ids":["1","2"]}`, bearer)
		s.Equal(http.StatusOK, rec.Code)

		var mismatches []reconcile.Mismatch
		s.Require().NoError(json.Unmarshal(fields["mismatches"], &mismatches))
		s.Require().Len(mismatches, 1)
		s.Equal(id.TokenID(1), mismatches[0].TokenID)

		var lookupErrors []reconcile.LookupError
		s.Require().NoError(json.Unmarshal(fields["errors"], &lookupErrors))
		s.Len(lookupErrors, 1)
	})
}

func (s *HandlerSuite) TestHealth() {
	rec, fields := s.do(http.MethodGet, "/healthz", "", "")
	s.Equal(http.StatusOK, rec.Code)
	s.Contains(fields, "checks")
}
