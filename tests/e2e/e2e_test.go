//go:build integration

package e2e

// e2e_test.go
// End-to-end integration tests using real Postgres + Redis via testcontainers.
// Run with: go test -tags integration ./tests/e2e/... -v
//
// Scenarios:
//   full stay cycle (login → check-in → occupancy → check-out → slot freed)
//   double check-in on one slot is refused
//   shift open/close reconciliation with variance
//   void frees the slot without billing
//   audit events drain from Redis into audit_records

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"parkgate/internal/audit"
	"parkgate/internal/config"
	"parkgate/internal/infra"
	"parkgate/internal/repository"
	"parkgate/internal/router"
	"parkgate/internal/worker"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcRedis "github.com/testcontainers/testcontainers-go/modules/redis"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// ── Helpers ──────────────────────────────────────────────────────────────────

func jsonBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewBuffer(b)
}

func do(t *testing.T, srv *httptest.Server, method, path string, body *bytes.Buffer, token string) *http.Response {
	t.Helper()
	var req *http.Request
	var err error
	if body != nil {
		req, err = http.NewRequest(method, srv.URL+path, body)
	} else {
		req, err = http.NewRequest(method, srv.URL+path, nil)
	}
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, dest any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dest))
}

// ── Test Suite Setup ─────────────────────────────────────────────────────────

type testEnv struct {
	server *httptest.Server
	token  string // admin JWT
	db     *gorm.DB
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	pgC, err := tcPostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:15-alpine"),
		tcPostgres.WithDatabase("parkgate_test"),
		tcPostgres.WithUsername("parkgate"),
		tcPostgres.WithPassword("parkgate"),
		testcontainers.WithWaitStrategy(
			tcPostgres.BasicWaitStrategies()...,
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })

	pgURL, err := pgC.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	rdC, err := tcRedis.RunContainer(ctx,
		testcontainers.WithImage("redis:7-alpine"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdC.Terminate(ctx) })

	rdURL, err := rdC.ConnectionString(ctx)
	require.NoError(t, err)

	cfg := &config.Config{
		Port:               8000,
		Env:                "test",
		JWTSecret:          "test-secret-key",
		JWTExpirationHours: 8,
		JWTRefreshHours:    24,
		DatabaseURL:        pgURL,
		RedisURL:           rdURL,
		WorkerPoolSize:     1,
		PDFStoragePath:     t.TempDir(),
		FacilityName:       "ParkGate E2E",
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	require.NoError(t, err)

	rdb, err := infra.NewRedis(cfg.RedisURL)
	require.NoError(t, err)

	// Seed admin
	hash, err := bcrypt.GenerateFromPassword([]byte("parkgate-e2e"), 12)
	require.NoError(t, err)
	require.NoError(t, db.Exec(`INSERT INTO users (id, username, name, password_hash, role, active, created_at)
		VALUES (gen_random_uuid(), 'admin.e2e', 'Admin E2E', ?, 'admin', true, NOW())
		ON CONFLICT DO NOTHING`, string(hash)).Error)

	// Drain audit events in the background like production does.
	workerCtx, cancel := context.WithCancel(ctx)
	t.Cleanup(cancel)
	handlers := worker.Handlers{
		Audit: worker.NewAuditWorker(repository.NewAuditRepository(db)),
	}
	worker.StartWorkerPool(workerCtx, rdb, cfg.WorkerPoolSize, handlers)

	sink := audit.NewRedisSink(rdb)
	dispatcher := worker.NewDispatcher(rdb)
	r := router.New(cfg, db, rdb, sink, dispatcher)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	loginResp := do(t, srv, "POST", "/v1/auth/login",
		jsonBody(t, map[string]string{"username": "admin.e2e", "password": "parkgate-e2e"}),
		"",
	)
	require.Equal(t, http.StatusOK, loginResp.StatusCode)
	var loginBody struct {
		AccessToken string `json:"access_token"`
	}
	decodeJSON(t, loginResp, &loginBody)
	require.NotEmpty(t, loginBody.AccessToken)

	return &testEnv{server: srv, token: loginBody.AccessToken, db: db}
}

func (env *testEnv) createSlot(t *testing.T, number, rate string) string {
	t.Helper()
	resp := do(t, env.server, "POST", "/v1/slots",
		jsonBody(t, map[string]any{
			"number":      number,
			"type":        "standard",
			"hourly_rate": rate,
			"daily_rate":  "40.00",
		}), env.token)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var slot struct {
		ID string `json:"id"`
	}
	decodeJSON(t, resp, &slot)
	return slot.ID
}

func checkInBody(slotID, plate string) map[string]any {
	return map[string]any{
		"slot_id": slotID,
		"vehicle": map[string]any{"license_plate": plate, "type": "car"},
		"driver":  map[string]any{"name": "E2E Driver"},
	}
}

// ── Tests ────────────────────────────────────────────────────────────────────

func TestE2E_FullStayCycle(t *testing.T) {
	env := setupTestEnv(t)
	slotID := env.createSlot(t, "A-01", "5.00")

	// Check in
	ciResp := do(t, env.server, "POST", "/v1/tickets/checkin", jsonBody(t, checkInBody(slotID, "E2E-001")), env.token)
	require.Equal(t, http.StatusCreated, ciResp.StatusCode)
	var ticket struct {
		ID            string `json:"id"`
		TicketNumber  string `json:"ticket_number"`
		PaymentStatus string `json:"payment_status"`
	}
	decodeJSON(t, ciResp, &ticket)
	assert.Equal(t, "T-000001", ticket.TicketNumber)
	assert.Equal(t, "pending", ticket.PaymentStatus)

	// Occupancy reflects the reservation
	occResp := do(t, env.server, "GET", "/v1/slots/occupancy", nil, env.token)
	require.Equal(t, http.StatusOK, occResp.StatusCode)
	var occ struct {
		Occupied int `json:"occupied"`
		Vacant   int `json:"vacant"`
	}
	decodeJSON(t, occResp, &occ)
	assert.Equal(t, 1, occ.Occupied)
	assert.Equal(t, 0, occ.Vacant)

	// Check out — minimum one hour billed
	coResp := do(t, env.server, "POST", "/v1/tickets/"+ticket.ID+"/checkout",
		jsonBody(t, map[string]any{"payment_method": "cash"}), env.token)
	require.Equal(t, http.StatusOK, coResp.StatusCode)
	var receipt struct {
		ReceiptNumber string `json:"receipt_number"`
		BilledHours   int64  `json:"billed_hours"`
		TotalAmount   string `json:"total_amount"`
	}
	decodeJSON(t, coResp, &receipt)
	assert.Equal(t, "R-00000001", receipt.ReceiptNumber)
	assert.Equal(t, int64(1), receipt.BilledHours)
	assert.Equal(t, "5", receipt.TotalAmount)

	// Slot is free again
	occResp = do(t, env.server, "GET", "/v1/slots/occupancy", nil, env.token)
	decodeJSON(t, occResp, &occ)
	assert.Equal(t, 0, occ.Occupied)
	assert.Equal(t, 1, occ.Vacant)

	// Audit trail lands in the database via the worker
	require.Eventually(t, func() bool {
		var count int64
		env.db.Table("audit_records").Count(&count)
		return count >= 2 // check-in + check-out
	}, 10*time.Second, 200*time.Millisecond)
}

func TestE2E_DoubleCheckInRefused(t *testing.T) {
	env := setupTestEnv(t)
	slotID := env.createSlot(t, "A-01", "5.00")

	resp := do(t, env.server, "POST", "/v1/tickets/checkin", jsonBody(t, checkInBody(slotID, "E2E-002")), env.token)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = do(t, env.server, "POST", "/v1/tickets/checkin", jsonBody(t, checkInBody(slotID, "E2E-003")), env.token)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()
}

func TestE2E_ShiftReconciliation(t *testing.T) {
	env := setupTestEnv(t)
	slotID := env.createSlot(t, "A-01", "5.00")

	openResp := do(t, env.server, "POST", "/v1/shifts/open",
		jsonBody(t, map[string]any{"opening_amount": "100.00"}), env.token)
	require.Equal(t, http.StatusCreated, openResp.StatusCode)
	openResp.Body.Close()

	// One settled ticket: $5 collected
	ciResp := do(t, env.server, "POST", "/v1/tickets/checkin", jsonBody(t, checkInBody(slotID, "E2E-004")), env.token)
	require.Equal(t, http.StatusCreated, ciResp.StatusCode)
	var ticket struct {
		ID string `json:"id"`
	}
	decodeJSON(t, ciResp, &ticket)

	coResp := do(t, env.server, "POST", "/v1/tickets/"+ticket.ID+"/checkout",
		jsonBody(t, map[string]any{"payment_method": "cash"}), env.token)
	require.Equal(t, http.StatusOK, coResp.StatusCode)
	coResp.Body.Close()

	// Declared count matches collections exactly
	closeResp := do(t, env.server, "POST", "/v1/shifts/close",
		jsonBody(t, map[string]any{"closing_amount": "5.00"}), env.token)
	require.Equal(t, http.StatusOK, closeResp.StatusCode)
	var shift struct {
		Status         string `json:"status"`
		TotalCollected string `json:"total_collected"`
		Variance       struct {
			Amount string `json:"amount"`
			Class  string `json:"class"`
		} `json:"variance"`
	}
	decodeJSON(t, closeResp, &shift)
	assert.Equal(t, "closed", shift.Status)
	assert.Equal(t, "5", shift.TotalCollected)
	assert.Equal(t, "0", shift.Variance.Amount)
	assert.Equal(t, "normal", shift.Variance.Class)

	// Second open works — calendar day has a closed shift, none open
	reopenResp := do(t, env.server, "POST", "/v1/shifts/open",
		jsonBody(t, map[string]any{"opening_amount": "50.00"}), env.token)
	assert.Equal(t, http.StatusCreated, reopenResp.StatusCode)
	reopenResp.Body.Close()
}

func TestE2E_VoidFreesSlotWithoutBilling(t *testing.T) {
	env := setupTestEnv(t)
	slotID := env.createSlot(t, "A-01", "5.00")

	ciResp := do(t, env.server, "POST", "/v1/tickets/checkin", jsonBody(t, checkInBody(slotID, "E2E-005")), env.token)
	require.Equal(t, http.StatusCreated, ciResp.StatusCode)
	var ticket struct {
		ID string `json:"id"`
	}
	decodeJSON(t, ciResp, &ticket)

	voidResp := do(t, env.server, "DELETE", "/v1/tickets/"+ticket.ID,
		jsonBody(t, map[string]any{"reason": "entered wrong slot"}), env.token)
	assert.Equal(t, http.StatusNoContent, voidResp.StatusCode)
	voidResp.Body.Close()

	getResp := do(t, env.server, "GET", "/v1/tickets/"+ticket.ID, nil, env.token)
	require.Equal(t, http.StatusOK, getResp.StatusCode)
	var voided struct {
		PaymentStatus string  `json:"payment_status"`
		TotalAmount   *string `json:"total_amount"`
	}
	decodeJSON(t, getResp, &voided)
	assert.Equal(t, "cancelled", voided.PaymentStatus)
	assert.Nil(t, voided.TotalAmount)

	// Slot reusable immediately
	resp := do(t, env.server, "POST", "/v1/tickets/checkin", jsonBody(t, checkInBody(slotID, "E2E-006")), env.token)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()
}

func TestE2E_CheckOutTwiceConflict(t *testing.T) {
	env := setupTestEnv(t)
	slotID := env.createSlot(t, "A-01", "5.00")

	ciResp := do(t, env.server, "POST", "/v1/tickets/checkin", jsonBody(t, checkInBody(slotID, "E2E-007")), env.token)
	require.Equal(t, http.StatusCreated, ciResp.StatusCode)
	var ticket struct {
		ID string `json:"id"`
	}
	decodeJSON(t, ciResp, &ticket)

	coResp := do(t, env.server, "POST", "/v1/tickets/"+ticket.ID+"/checkout",
		jsonBody(t, map[string]any{"payment_method": "cash"}), env.token)
	require.Equal(t, http.StatusOK, coResp.StatusCode)
	coResp.Body.Close()

	coResp = do(t, env.server, "POST", "/v1/tickets/"+ticket.ID+"/checkout",
		jsonBody(t, map[string]any{"payment_method": "cash"}), env.token)
	assert.Equal(t, http.StatusConflict, coResp.StatusCode)
	coResp.Body.Close()
}
