package ginserver

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	gin "github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/AntoS03/ProyectoFinal/internal/app/commands"
	"github.com/AntoS03/ProyectoFinal/internal/app/dto"
	"github.com/AntoS03/ProyectoFinal/internal/app/handlers/properties"
	"github.com/AntoS03/ProyectoFinal/internal/app/handlers/reservations"
	"github.com/AntoS03/ProyectoFinal/internal/app/middleware"
	appoutbox "github.com/AntoS03/ProyectoFinal/internal/app/outbox"
	"github.com/AntoS03/ProyectoFinal/internal/app/policies"
	"github.com/AntoS03/ProyectoFinal/internal/app/queries"
	authsvc "github.com/AntoS03/ProyectoFinal/internal/app/services/auth"
	"github.com/AntoS03/ProyectoFinal/internal/domain/shared/money"
	"github.com/AntoS03/ProyectoFinal/internal/infra/cache"
	"github.com/AntoS03/ProyectoFinal/internal/infra/obs"
	"github.com/AntoS03/ProyectoFinal/internal/infra/security"
	"github.com/AntoS03/ProyectoFinal/internal/infra/storage/memory"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	router *gin.Engine
	outbox *memory.Outbox
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := memory.NewStore()
	box := memory.NewOutbox()
	factory := memory.Factory{Store: store, Outbox: box}
	propertyCache := cache.NewMemory(time.Minute)
	box.Subscribe(cache.Invalidator{Cache: propertyCache, Logger: logger}.OnRecord)

	clock := policies.FixedClock{At: time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)}
	pricing := policies.FlatTax{Rate: money.MustRate(0.10)}
	encoder := appoutbox.JSONEventEncoder{}

	cmdRegistry := commands.NewRegistry()
	queryRegistry := queries.NewRegistry()
	properties.Register(cmdRegistry, queryRegistry, properties.Deps{
		UoWFactory: factory, Cache: propertyCache, Pricing: pricing, Clock: clock,
		Encoder: encoder, Currency: "EUR", Logger: logger,
	})
	reservations.Register(cmdRegistry, queryRegistry, reservations.Deps{
		UoWFactory: factory, Pricing: pricing, Cache: propertyCache, Clock: clock,
		Encoder: encoder, Logger: logger,
	})

	validator := middleware.NewStructValidator()
	cmdBus := middleware.ChainCommands(cmdRegistry,
		middleware.Logging(logger),
		middleware.Validation(validator),
		middleware.RequireActor(),
		middleware.Idempotency(memory.NewIdempotencyStore(time.Hour), nil),
		middleware.Transaction(factory, nil),
		middleware.OutboxFlush(box, logger),
	)
	queryBus := middleware.ChainQueries(queryRegistry,
		middleware.QueryLogging(logger),
		middleware.QueryValidation(validator),
	)

	issuer, err := security.NewJWTIssuer("test-secret-with-enough-bytes-123", time.Hour)
	require.NoError(t, err)
	authService := &authsvc.Service{
		Users:     memory.UserRepository{Store: store},
		Passwords: security.BcryptHasher{Cost: 4},
		Tokens:    issuer,
		Logger:    logger,
	}

	router := NewRouter(obs.Middleware{Logger: logger}, obs.HealthHandlers{}, Handlers{
		Auth:           AuthHandler{Service: authService, Logger: logger},
		Properties:     PropertyHandler{Commands: cmdBus, Queries: queryBus, Logger: logger},
		Reservations:   ReservationHandler{Commands: cmdBus, Queries: queryBus, Logger: logger},
		AuthMiddleware: AuthMiddleware{Service: authService, Logger: logger}.Handle,
	})
	return &testServer{router: router, outbox: box}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func (s *testServer) register(t *testing.T, email, role string) dto.AuthResponse {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"email": email, "password": "correct-horse", "first_name": "Test", "last_name": "User", "role": role,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[dto.AuthResponse](t, rec)
}

func (s *testServer) createProperty(t *testing.T, token string) dto.Property {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/v1/properties", token, gin.H{
		"name": "Casa Azul", "address": "Calle 1", "city": "Sevilla",
		"nightly_price": "100.00", "max_guests": 4,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[dto.Property](t, rec)
}

func (s *testServer) book(t *testing.T, token, propertyID, in, out string) *httptest.ResponseRecorder {
	t.Helper()
	return s.do(t, http.MethodPost, "/api/v1/reservations", token, gin.H{
		"property_id": propertyID, "check_in": in, "check_out": out, "guests": 2,
	})
}

func TestAuthRegisterLoginMe(t *testing.T) {
	s := newTestServer(t)
	reg := s.register(t, "Ana@Example.com", "guest")
	require.Equal(t, "ana@example.com", reg.User.Email)
	require.Equal(t, "Bearer", reg.TokenType)

	rec := s.do(t, http.MethodPost, "/api/v1/auth/register", "", gin.H{"email": "ana@example.com", "password": "another-pass"})
	require.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/v1/auth/login", "", gin.H{"email": "ana@example.com", "password": "wrong-password"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/v1/auth/login", "", gin.H{"email": "ana@example.com", "password": "correct-horse"})
	require.Equal(t, http.StatusOK, rec.Code)
	login := decode[dto.AuthResponse](t, rec)

	rec = s.do(t, http.MethodGet, "/api/v1/auth/me", login.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, reg.User.ID, decode[dto.UserProfile](t, rec).ID)

	rec = s.do(t, http.MethodGet, "/api/v1/auth/me", "not-a-token", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRegisterWithoutNames(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodPost, "/api/v1/auth/register", "", gin.H{"email": "solo@example.com", "password": "long-enough"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func TestCreateReservationReturnsPriceSnapshot(t *testing.T) {
	s := newTestServer(t)
	owner := s.register(t, "owner@example.com", "owner")
	guest := s.register(t, "guest@example.com", "guest")
	prop := s.createProperty(t, owner.Token)

	rec := s.book(t, guest.Token, prop.ID, "2026-02-01", "2026-02-04")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	res := decode[dto.Reservation](t, rec)
	require.Equal(t, "pending", res.Status)
	require.Equal(t, 3, res.Nights)
	require.Equal(t, "300.00", res.Price.Subtotal.Amount)
	require.Equal(t, "30.00", res.Price.Taxes.Amount)
	require.Equal(t, "330.00", res.Price.Total.Amount)
	require.Equal(t, "EUR", res.Price.Total.Currency)
	require.Equal(t, guest.User.ID, res.GuestID)
}

func TestCreateReservationConflicts(t *testing.T) {
	s := newTestServer(t)
	owner := s.register(t, "owner@example.com", "owner")
	guest := s.register(t, "guest@example.com", "guest")
	prop := s.createProperty(t, owner.Token)

	require.Equal(t, http.StatusCreated, s.book(t, guest.Token, prop.ID, "2026-02-01", "2026-02-04").Code)

	rec := s.book(t, guest.Token, prop.ID, "2026-02-03", "2026-02-06")
	require.Equal(t, http.StatusConflict, rec.Code)
	body := decode[errorResponse](t, rec)
	require.Equal(t, "dates unavailable", body.Error)
	require.Equal(t, "dates_unavailable", body.Code)

	// Same-day turnover.
	require.Equal(t, http.StatusCreated, s.book(t, guest.Token, prop.ID, "2026-02-04", "2026-02-06").Code)
}

func TestCreateReservationRejectsBadInput(t *testing.T) {
	s := newTestServer(t)
	owner := s.register(t, "owner@example.com", "owner")
	guest := s.register(t, "guest@example.com", "guest")
	prop := s.createProperty(t, owner.Token)

	require.Equal(t, http.StatusUnauthorized, s.book(t, "", prop.ID, "2026-02-01", "2026-02-04").Code)
	require.Equal(t, http.StatusBadRequest, s.book(t, guest.Token, prop.ID, "2026-02-04", "2026-02-01").Code)
	require.Equal(t, http.StatusBadRequest, s.book(t, guest.Token, prop.ID, "2026-02-04", "2026-02-04").Code)
	require.Equal(t, http.StatusBadRequest, s.book(t, guest.Token, prop.ID, "2026-01-01", "2026-01-03").Code)
	require.Equal(t, http.StatusBadRequest, s.book(t, guest.Token, prop.ID, "02/01/2026", "2026-02-03").Code)
	require.Equal(t, http.StatusNotFound, s.book(t, guest.Token, "missing", "2026-02-01", "2026-02-03").Code)
}

func TestCreateReservationRejectsPriceOverflow(t *testing.T) {
	s := newTestServer(t)
	owner := s.register(t, "owner@example.com", "owner")
	guest := s.register(t, "guest@example.com", "guest")
	rec := s.do(t, http.MethodPost, "/api/v1/properties", owner.Token, gin.H{
		"name": "Palacio", "address": "Calle 2", "city": "Sevilla",
		"nightly_price": "50000000000000000", "max_guests": 4,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	prop := decode[dto.Property](t, rec)

	rec = s.book(t, guest.Token, prop.ID, "2026-02-01", "2026-02-03")
	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	require.Equal(t, "invalid_request", decode[errorResponse](t, rec).Code)

	rec = s.do(t, http.MethodGet, "/api/v1/reservations/mine", guest.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, decode[dto.ReservationCollection](t, rec).Items)
}

func TestCreateReservationCountsLongStaysExactly(t *testing.T) {
	s := newTestServer(t)
	owner := s.register(t, "owner@example.com", "owner")
	guest := s.register(t, "guest@example.com", "guest")
	prop := s.createProperty(t, owner.Token)

	rec := s.book(t, guest.Token, prop.ID, "2026-01-01", "2400-01-01")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	res := decode[dto.Reservation](t, rec)
	require.Equal(t, 136600, res.Nights)
	require.Equal(t, "13660000.00", res.Price.Subtotal.Amount)
}

func TestLegacyReservationBody(t *testing.T) {
	s := newTestServer(t)
	owner := s.register(t, "owner@example.com", "owner")
	guest := s.register(t, "guest@example.com", "guest")
	prop := s.createProperty(t, owner.Token)

	rec := s.do(t, http.MethodPost, "/api/v1/reservations", guest.Token, gin.H{
		"id_alojamiento": prop.ID, "fecha_inicio": "2026-03-01", "fecha_fin": "2026-03-03",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.Equal(t, 1, decode[dto.Reservation](t, rec).Guests)
}

func TestConcurrentOverlappingBookingsOnlyOneWins(t *testing.T) {
	s := newTestServer(t)
	owner := s.register(t, "owner@example.com", "owner")
	guest := s.register(t, "guest@example.com", "guest")
	prop := s.createProperty(t, owner.Token)

	const attempts = 8
	codes := make([]int, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			codes[i] = s.book(t, guest.Token, prop.ID, "2026-05-10", "2026-05-15").Code
		}(i)
	}
	wg.Wait()

	created, conflicts := 0, 0
	for _, code := range codes {
		switch code {
		case http.StatusCreated:
			created++
		case http.StatusConflict:
			conflicts++
		}
	}
	require.Equal(t, 1, created)
	require.Equal(t, attempts-1, conflicts)

	rec := s.do(t, http.MethodGet, "/api/v1/properties/"+prop.ID+"/reservations", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, decode[dto.ReservationCollection](t, rec).Items, 1)
}

func TestIdempotencyKeyReplaysReservation(t *testing.T) {
	s := newTestServer(t)
	owner := s.register(t, "owner@example.com", "owner")
	guest := s.register(t, "guest@example.com", "guest")
	prop := s.createProperty(t, owner.Token)

	body := gin.H{"property_id": prop.ID, "check_in": "2026-04-01", "check_out": "2026-04-02"}
	first := s.do(t, http.MethodPost, "/api/v1/reservations", guest.Token, body, idempotencyHeader, "k-1")
	require.Equal(t, http.StatusCreated, first.Code)
	second := s.do(t, http.MethodPost, "/api/v1/reservations", guest.Token, body, idempotencyHeader, "k-1")
	require.Equal(t, http.StatusCreated, second.Code)
	require.Equal(t, decode[dto.Reservation](t, first).ID, decode[dto.Reservation](t, second).ID)
}

func TestReservationStatusChanges(t *testing.T) {
	s := newTestServer(t)
	owner := s.register(t, "owner@example.com", "owner")
	guest := s.register(t, "guest@example.com", "guest")
	stranger := s.register(t, "stranger@example.com", "guest")
	prop := s.createProperty(t, owner.Token)

	rec := s.book(t, guest.Token, prop.ID, "2026-02-01", "2026-02-04")
	require.Equal(t, http.StatusCreated, rec.Code)
	res := decode[dto.Reservation](t, rec)
	path := "/api/v1/reservations/" + res.ID

	require.Equal(t, http.StatusForbidden, s.do(t, http.MethodPatch, path, guest.Token, gin.H{"status": "confirmed"}).Code)
	require.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, path, stranger.Token, nil).Code)
	require.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPatch, path, owner.Token, gin.H{"status": "archived"}).Code)

	rec = s.do(t, http.MethodPut, path, owner.Token, gin.H{"estado": "confirmed"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, "confirmed", decode[dto.Reservation](t, rec).Status)

	rec = s.do(t, http.MethodDelete, path, guest.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, "cancelled", decode[dto.Reservation](t, rec).Status)

	rec = s.do(t, http.MethodPatch, path, owner.Token, gin.H{"status": "confirmed"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "invalid_transition", decode[errorResponse](t, rec).Code)

	// Cancelled nights become free again.
	require.Equal(t, http.StatusCreated, s.book(t, stranger.Token, prop.ID, "2026-02-01", "2026-02-04").Code)

	rec = s.do(t, http.MethodGet, "/api/v1/reservations/mine", guest.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, decode[dto.ReservationCollection](t, rec).Items, 1)

	require.Equal(t, http.StatusNotFound, s.do(t, http.MethodDelete, "/api/v1/reservations/missing", guest.Token, nil).Code)
	require.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodDelete, path, "", nil).Code)
}

func TestPropertyLifecycle(t *testing.T) {
	s := newTestServer(t)
	owner := s.register(t, "owner@example.com", "owner")
	other := s.register(t, "other@example.com", "guest")
	prop := s.createProperty(t, owner.Token)
	path := "/api/v1/properties/" + prop.ID

	rec := s.do(t, http.MethodGet, path, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "100.00", decode[dto.Property](t, rec).NightlyPrice.Amount)

	require.Equal(t, http.StatusForbidden, s.do(t, http.MethodPut, path, other.Token, gin.H{"name": "Mine now"}).Code)

	rec = s.do(t, http.MethodPut, path, owner.Token, gin.H{"precio_noche": 120})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, "120.00", decode[dto.Property](t, rec).NightlyPrice.Amount)

	// The update evicted the cached copy.
	rec = s.do(t, http.MethodGet, path, "", nil)
	require.Equal(t, "120.00", decode[dto.Property](t, rec).NightlyPrice.Amount)

	rec = s.do(t, http.MethodGet, path+"/quote?check_in=2026-02-01&check_out=2026-02-03", "", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	quote := decode[dto.Quote](t, rec)
	require.True(t, quote.Available)
	require.Equal(t, "264.00", quote.Price.Total.Amount)

	rec = s.do(t, http.MethodGet, "/api/v1/properties?city=sevilla&price_max=150", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 1, decode[dto.PropertyCollection](t, rec).Total)

	require.Equal(t, http.StatusCreated, s.book(t, other.Token, prop.ID, "2026-02-01", "2026-02-03").Code)
	require.Equal(t, http.StatusConflict, s.do(t, http.MethodDelete, path, owner.Token, nil).Code)

	require.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/api/v1/properties/missing", "", nil).Code)
	require.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodPost, "/api/v1/properties", "", gin.H{"name": "x"}).Code)
}

func TestHealthEndpoints(t *testing.T) {
	s := newTestServer(t)
	require.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/livez", "", nil).Code)
	require.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/readyz", "", nil).Code)
	rec := s.do(t, http.MethodGet, "/livez", "", nil)
	require.NotEmpty(t, rec.Header().Get(obs.RequestIDHeader))
}
