package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"log/slog"
	stdhttp "net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	pgcontainer "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	mw "github.com/smartqueue/smartqueue-backend/internal/adapters/primary/http/middleware"
	"github.com/smartqueue/smartqueue-backend/internal/adapters/secondary/emitter"
	pgadapter "github.com/smartqueue/smartqueue-backend/internal/adapters/secondary/postgres"
	"github.com/smartqueue/smartqueue-backend/internal/auth"
	"github.com/smartqueue/smartqueue-backend/internal/core/services"
)

var testPool *pgxpool.Pool

func TestMain(m *testing.M) {
	ctx := context.Background()

	pgContainer, err := pgcontainer.RunContainer(ctx,
		testcontainers.WithImage("postgres:16-alpine"),
		pgcontainer.WithDatabase("test-db"),
		pgcontainer.WithUsername("user"),
		pgcontainer.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Second),
		),
	)
	if err != nil {
		log.Fatalf("could not start postgres container: %v", err)
	}

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		log.Fatalf("could not get connection string: %v", err)
	}

	migrationsPath, err := filepath.Abs("../../../../migrations")
	if err != nil {
		log.Fatalf("could not find migrations directory: %v", err)
	}

	migrationURL := "file://" + migrationsPath
	mig, err := migrate.New(migrationURL, connStr)
	if err != nil {
		log.Fatalf("could not create migrate instance: %v", err)
	}
	if err := mig.Up(); err != nil && err != migrate.ErrNoChange {
		log.Fatalf("could not run migrations: %v", err)
	}

	testPool, err = pgxpool.New(ctx, connStr)
	if err != nil {
		log.Fatalf("could not create connection pool: %v", err)
	}

	code := m.Run()

	testPool.Close()
	if err := pgContainer.Terminate(ctx); err != nil {
		log.Fatalf("could not terminate postgres container: %v", err)
	}

	os.Exit(code)
}

// newTestRouter wires the dispatch vertical the way cmd/api does, minus
// rate limiting and the websocket hub.
func newTestRouter() (*chi.Mux, *auth.TokenManager) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	errorHandler := NewErrorHandler(logger)
	events := emitter.NewLogEmitter(logger)

	ticketRepo := pgadapter.NewTicketRepository(testPool)
	queueRepo := pgadapter.NewQueueRepository(testPool)
	pointRepo := pgadapter.NewServicePointRepository(testPool)
	dispatchRepo := pgadapter.NewDispatchRepository(testPool)

	estimatorService := services.NewEstimatorService(ticketRepo, queueRepo)
	ticketService := services.NewTicketService(ticketRepo, queueRepo, estimatorService, events)
	queueService := services.NewQueueService(queueRepo, ticketRepo, pointRepo, events)
	dispatchService := services.NewDispatchService(dispatchRepo, pointRepo, events, 0, logger)

	ticketHandler := NewTicketHandler(ticketService, estimatorService, errorHandler, logger)
	queueHandler := NewQueueHandler(queueService, errorHandler, logger)
	servicePointHandler := NewServicePointHandler(dispatchService, errorHandler, logger)

	tokenManager := auth.NewTokenManager("test-secret", time.Hour)

	router := chi.NewRouter()
	router.Post("/queues/{queueID}/tickets", ticketHandler.HandleCheckIn)
	router.Get("/queues/{queueID}/snapshot", queueHandler.HandleGetSnapshot)
	router.Get("/tickets/{ticketID}", ticketHandler.HandleGetTicket)
	router.Get("/tickets/{ticketID}/estimate", ticketHandler.HandleGetEstimate)

	router.Group(func(r chi.Router) {
		r.Use(mw.JWTMiddleware(tokenManager))
		r.Route("/queue-types", queueHandler.RegisterQueueTypeRoutes)
		r.Post("/queues", queueHandler.HandleCreateQueue)
		r.Post("/queues/{queueID}/service-points", queueHandler.HandleAssignServicePoint)
		r.Patch("/tickets/{ticketID}/status", ticketHandler.HandleUpdateTicketStatus)
		r.Route("/service-points", servicePointHandler.RegisterRoutes)
	})

	return router, tokenManager
}

func doJSON(t *testing.T, router *chi.Mux, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	return recorder
}

func decodeBody[T any](t *testing.T, recorder *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&v))
	return v
}

func TestDispatchFlow(t *testing.T) {
	router, tokenManager := newTestRouter()
	token, err := tokenManager.GenerateToken(uuid.New(), uuid.New())
	require.NoError(t, err)

	// Staff sets up a queue type, a queue, and a service point.
	rec := doJSON(t, router, stdhttp.MethodPost, "/queue-types", token, map[string]any{
		"organizationId":       uuid.NewString(),
		"branchId":             uuid.NewString(),
		"name":                 "Registration",
		"prefix":               "R",
		"category":             "PERSON",
		"estimatedServiceTime": 10,
	})
	require.Equal(t, stdhttp.StatusCreated, rec.Code, rec.Body.String())
	queueType := decodeBody[QueueTypeDTO](t, rec)

	rec = doJSON(t, router, stdhttp.MethodPost, "/queues", token, map[string]any{
		"queueTypeId": queueType.ID,
		"name":        "Morning shift",
	})
	require.Equal(t, stdhttp.StatusCreated, rec.Code, rec.Body.String())
	queue := decodeBody[QueueDTO](t, rec)
	assert.Equal(t, "ACTIVE", queue.Status)

	rec = doJSON(t, router, stdhttp.MethodPost, "/service-points", token, map[string]any{
		"branchId": queueType.BranchID,
		"name":     "Counter 1",
	})
	require.Equal(t, stdhttp.StatusCreated, rec.Code, rec.Body.String())
	point := decodeBody[ServicePointDTO](t, rec)
	assert.Equal(t, "AVAILABLE", point.Status)

	rec = doJSON(t, router, stdhttp.MethodPost, "/queues/"+queue.ID+"/service-points", token, map[string]any{
		"servicePointId": point.ID,
	})
	require.Equal(t, stdhttp.StatusNoContent, rec.Code)

	// A customer checks in without a token.
	rec = doJSON(t, router, stdhttp.MethodPost, "/queues/"+queue.ID+"/tickets", "", map[string]any{
		"requesterId": uuid.NewString(),
	})
	require.Equal(t, stdhttp.StatusCreated, rec.Code, rec.Body.String())
	checkIn := decodeBody[CheckInResponse](t, rec)
	assert.Equal(t, "R-0001", checkIn.Ticket.Number)
	assert.Equal(t, "WAITING", checkIn.Ticket.Status)
	assert.Equal(t, 1, checkIn.Position)
	require.NotNil(t, checkIn.EstimatedWaitMinutes)
	assert.Equal(t, 10, *checkIn.EstimatedWaitMinutes)

	rec = doJSON(t, router, stdhttp.MethodGet, "/queues/"+queue.ID+"/snapshot", "", nil)
	require.Equal(t, stdhttp.StatusOK, rec.Code)
	snapshot := decodeBody[QueueSnapshotDTO](t, rec)
	assert.Equal(t, 1, snapshot.WaitingCount)
	assert.Equal(t, 1, snapshot.AvailablePoints)

	// The agent calls the next ticket.
	rec = doJSON(t, router, stdhttp.MethodPost, "/service-points/"+point.ID+"/call-next", token, nil)
	require.Equal(t, stdhttp.StatusOK, rec.Code, rec.Body.String())
	called := decodeBody[CallNextResponse](t, rec)
	assert.Equal(t, checkIn.Ticket.ID, called.Ticket.ID)
	assert.Equal(t, "CALLED", called.Ticket.Status)
	assert.Equal(t, "Counter 1", called.ServicePointName)

	// Nothing left to call.
	rec = doJSON(t, router, stdhttp.MethodPost, "/service-points/"+point.ID+"/call-next", token, nil)
	require.Equal(t, stdhttp.StatusNotFound, rec.Code)

	// The ticket is served to completion, which frees the point.
	rec = doJSON(t, router, stdhttp.MethodPatch, "/tickets/"+called.Ticket.ID+"/status", token, map[string]any{
		"status": "SERVING",
	})
	require.Equal(t, stdhttp.StatusOK, rec.Code, rec.Body.String())

	rec = doJSON(t, router, stdhttp.MethodPatch, "/tickets/"+called.Ticket.ID+"/status", token, map[string]any{
		"status": "COMPLETED",
		"notes":  "all documents in order",
	})
	require.Equal(t, stdhttp.StatusOK, rec.Code, rec.Body.String())
	completed := decodeBody[TicketDTO](t, rec)
	assert.Equal(t, "COMPLETED", completed.Status)
	require.NotNil(t, completed.ServiceEndTime)

	rec = doJSON(t, router, stdhttp.MethodGet, "/service-points/"+point.ID, token, nil)
	require.Equal(t, stdhttp.StatusOK, rec.Code)
	freed := decodeBody[ServicePointDTO](t, rec)
	assert.Equal(t, "AVAILABLE", freed.Status)
	assert.Nil(t, freed.CurrentTicketID)
}

func TestDispatchFlow_Unauthorized(t *testing.T) {
	router, _ := newTestRouter()

	rec := doJSON(t, router, stdhttp.MethodPost, "/queue-types", "", map[string]any{
		"name": "Registration",
	})

	assert.Equal(t, stdhttp.StatusUnauthorized, rec.Code)
}

func TestCheckIn_Validation(t *testing.T) {
	router, tokenManager := newTestRouter()
	token, err := tokenManager.GenerateToken(uuid.New(), uuid.New())
	require.NoError(t, err)

	rec := doJSON(t, router, stdhttp.MethodPost, "/queue-types", token, map[string]any{
		"organizationId": uuid.NewString(),
		"branchId":       uuid.NewString(),
		"name":           "Registration",
		"category":       "PERSON",
	})
	require.Equal(t, stdhttp.StatusCreated, rec.Code, rec.Body.String())
	queueType := decodeBody[QueueTypeDTO](t, rec)

	rec = doJSON(t, router, stdhttp.MethodPost, "/queues", token, map[string]any{
		"queueTypeId": queueType.ID,
		"name":        "Morning shift",
	})
	require.Equal(t, stdhttp.StatusCreated, rec.Code)
	queue := decodeBody[QueueDTO](t, rec)

	t.Run("missing requester", func(t *testing.T) {
		rec := doJSON(t, router, stdhttp.MethodPost, "/queues/"+queue.ID+"/tickets", "", map[string]any{
			"priority": 1,
		})
		assert.Equal(t, stdhttp.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("priority out of range", func(t *testing.T) {
		rec := doJSON(t, router, stdhttp.MethodPost, "/queues/"+queue.ID+"/tickets", "", map[string]any{
			"requesterId": uuid.NewString(),
			"priority":    99,
		})
		assert.Equal(t, stdhttp.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("unknown queue", func(t *testing.T) {
		rec := doJSON(t, router, stdhttp.MethodPost, fmt.Sprintf("/queues/%s/tickets", uuid.NewString()), "", map[string]any{
			"requesterId": uuid.NewString(),
		})
		assert.Equal(t, stdhttp.StatusNotFound, rec.Code)
	})
}
