package integration

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	httpHandler "vault-custody/internal/adapter/http/handler"
	"vault-custody/internal/adapter/http/middleware"
	"vault-custody/internal/adapter/metrics"
	memStorage "vault-custody/internal/adapter/storage/memory"
	redisStorage "vault-custody/internal/adapter/storage/redis"
	"vault-custody/internal/core/domain"
	"vault-custody/internal/core/ports"
	"vault-custody/internal/service"
	"vault-custody/pkg/pubkey"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

const testProgramID = "BqvmMSVZZ6fNXHegCahrgSkD6STpiBASVpvbsAgmbNxC"

// testApp is the full HTTP stack over the in-memory ledger, with miniredis
// standing in for Redis nonces and rate limits.
type testApp struct {
	server  *httptest.Server
	redis   *miniredis.Miniredis
	audit   *memStorage.AuditRepo
	trusted keypair
}

type appOptions struct {
	rentLamportsPerByte uint64
	trustedService      string // defaults to a fresh key
}

type keypair struct {
	pub  pubkey.PublicKey
	priv ed25519.PrivateKey
}

func newKeypair(t *testing.T) keypair {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	pk, err := pubkey.FromBytes(pub)
	require.NoError(t, err)
	return keypair{pub: pk, priv: priv}
}

func newTestApp(t *testing.T, opts appOptions) *testApp {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	log := zerolog.Nop()
	programID := pubkey.MustParse(testProgramID)
	rent := domain.RentPolicy{LamportsPerByte: opts.rentLamportsPerByte}

	trusted := newKeypair(t)
	if opts.trustedService == "" {
		opts.trustedService = trusted.pub.String()
	}

	store := memStorage.NewStore()
	vaultRepo := memStorage.NewVaultRepo(store)
	accountRepo := memStorage.NewAccountRepo(store)
	transferRepo := memStorage.NewTransferRepo(store)
	auditRepo := memStorage.NewAuditRepo(store)
	transactor := memStorage.NewTransactor(store)

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		VaultSvc:       service.NewVaultService(vaultRepo, accountRepo, transactor, programID, rent, m, log),
		TransferSvc:    service.NewTransferService(opts.trustedService, vaultRepo, accountRepo, transferRepo, transactor, programID, rent, m, log),
		ReportingSvc:   service.NewReportingService(vaultRepo, accountRepo, transferRepo, programID),
		FundingSvc:     service.NewFaucetService(accountRepo, transactor, 1_000_000_000, m, log),
		SigSvc:         service.NewEd25519SignatureService(),
		NonceStore:     redisStorage.NewNonceStore(rdb),
		AuthConfig:     middleware.SignerAuthConfig{MaxTimestampDrift: time.Minute, NonceTTL: 2 * time.Minute},
		RateLimitStore: redisStorage.NewRateLimitStore(rdb),
		HealthCheckers: []ports.HealthChecker{memStorage.NewHealthCheck(), redisStorage.NewHealthCheck(rdb)},
		AuditSvc:       service.NewAuditService(auditRepo, log),
		Gatherer:       registry,
		Logger:         log,
	})

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &testApp{server: server, redis: mr, audit: auditRepo, trusted: trusted}
}

type apiResponse struct {
	Status    int
	Data      map[string]interface{}
	ErrorCode string
}

// do sends a request, signing it with signer when non-nil.
func (a *testApp) do(t *testing.T, method, path string, body interface{}, signer *keypair) apiResponse {
	t.Helper()
	return a.doWithNonce(t, method, path, body, signer, uuid.New().String())
}

func (a *testApp) doWithNonce(t *testing.T, method, path string, body interface{}, signer *keypair, nonce string) apiResponse {
	t.Helper()

	var raw []byte
	if body != nil {
		var err error
		raw, err = json.Marshal(body)
		require.NoError(t, err)
	}

	req, err := http.NewRequest(method, a.server.URL+path, bytes.NewReader(raw))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	if signer != nil {
		ts := time.Now().Unix()
		sigSvc := service.NewEd25519SignatureService()
		canonical := sigSvc.BuildCanonicalString(method, path, ts, nonce, string(raw))
		req.Header.Set(middleware.HeaderSigner, signer.pub.String())
		req.Header.Set(middleware.HeaderSignature, sigSvc.Sign(signer.priv, canonical))
		req.Header.Set(middleware.HeaderTimestamp, strconv.FormatInt(ts, 10))
		req.Header.Set(middleware.HeaderNonce, nonce)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var envelope struct {
		Data      map[string]interface{} `json:"data"`
		ErrorCode string                 `json:"error_code"`
	}
	if len(payload) > 0 {
		require.NoError(t, json.Unmarshal(payload, &envelope), string(payload))
	}
	return apiResponse{Status: resp.StatusCode, Data: envelope.Data, ErrorCode: envelope.ErrorCode}
}

// createVault creates authority's vault and returns its address.
func (a *testApp) createVault(t *testing.T, authority keypair) string {
	t.Helper()
	resp := a.do(t, http.MethodPost, "/api/v1/vaults", nil, &authority)
	require.Equal(t, http.StatusCreated, resp.Status, resp.ErrorCode)
	return resp.Data["address"].(string)
}

func (a *testApp) airdrop(t *testing.T, address string, lamports uint64) {
	t.Helper()
	resp := a.do(t, http.MethodPost, "/api/v1/accounts/"+address+"/airdrop", map[string]uint64{"lamports": lamports}, nil)
	require.Equal(t, http.StatusOK, resp.Status, resp.ErrorCode)
}

func (a *testApp) transfer(t *testing.T, vault string, caller keypair, recipient pubkey.PublicKey, amount uint64) apiResponse {
	t.Helper()
	return a.do(t, http.MethodPost, "/api/v1/vaults/"+vault+"/transfers", map[string]interface{}{
		"recipient": recipient.String(),
		"amount":    amount,
	}, &caller)
}

func (a *testApp) balance(t *testing.T, address string) uint64 {
	t.Helper()
	resp := a.do(t, http.MethodGet, "/api/v1/accounts/"+address, nil, nil)
	require.Equal(t, http.StatusOK, resp.Status)
	return uint64(resp.Data["lamports"].(float64))
}
