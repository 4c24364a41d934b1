package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"risewith9-sales-api/internal/cache"
	"risewith9-sales-api/internal/handler"
	"risewith9-sales-api/internal/middleware"
	"risewith9-sales-api/internal/model"
	"risewith9-sales-api/internal/repository"
	"risewith9-sales-api/internal/router"
	"risewith9-sales-api/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type fixture struct {
	server *httptest.Server
	buyers *repository.MemoryBuyerRepository
	units  *repository.MemoryUnitRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	units := repository.NewMemoryUnitRepository()
	buyers := repository.NewMemoryBuyerRepository()
	visits := repository.NewMemoryVisitRepository()
	c := cache.NewMemoryCache()
	t.Cleanup(func() { c.Close() })

	require.NoError(t, units.SeedUnits(ctx, []model.Unit{
		{ID: "9 South-10-1", Tower: "9 South", Floor: 10, Number: "Home 1", Type: "3BHK", Sqft: 1850, Price: "$450,000", Status: model.StatusAvailable},
		{ID: "9 South-10-2", Tower: "9 South", Floor: 10, Number: "Home 2", Type: "4BHK", Sqft: 2400, Price: "$620,000", Status: model.StatusSold},
	}))

	unitID := "9 South-10-1"
	require.NoError(t, buyers.CreateBuyer(ctx, &model.Buyer{
		ID: "b1", Name: "Asha Rao", Email: "asha@example.com", Phone: "555-0101", AssignedUnitID: &unitID,
	}))

	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	require.NoError(t, err)
	buyers.PutBuilder(model.Builder{ID: 1, Email: "sales@risewith9.com", PasswordHash: string(hash)})

	insight := service.NewInsightService("", "gpt-4o-mini")
	unitSvc := service.NewUnitService(units, insight)
	accessSvc := service.NewAccessService(buyers, units, c, "RISE-", time.Hour)
	sessionSvc := service.NewSessionService(buyers, c)
	analyticsSvc := service.NewAnalyticsService(visits, nil, insight)
	tourSvc := service.NewTourService(accessSvc, c, analyticsSvc)

	r := router.New(router.Config{
		HealthHandler:    handler.NewHealthHandler("1.0.0"),
		AuthHandler:      handler.NewAuthHandler(sessionSvc),
		UnitHandler:      handler.NewUnitHandler(unitSvc),
		BuyerHandler:     handler.NewBuyerHandler(buyers),
		AccessHandler:    handler.NewAccessHandler(accessSvc),
		TourHandler:      handler.NewTourHandler(tourSvc),
		AnalyticsHandler: handler.NewAnalyticsHandler(analyticsSvc),
		AdminHandler:     handler.NewAdminHandler("sesame", units, nil, "memory", "memory"),
		AuthMiddleware: middleware.NewAuthMiddleware(middleware.AuthConfig{
			Sessions: sessionSvc,
			LoginKey: "sesame",
		}),
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return &fixture{server: srv, buyers: buyers, units: units}
}

func (f *fixture) do(t *testing.T, method, path, token string, body interface{}) (*http.Response, envelope) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, f.server.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("X-Token", token)
	}

	resp, err := f.server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	if resp.StatusCode != http.StatusNoContent {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	}
	return resp, env
}

func (f *fixture) login(t *testing.T) string {
	t.Helper()

	resp, env := f.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email": "sales@risewith9.com", "password": "hunter2",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var data handler.LoginResponse
	require.NoError(t, json.Unmarshal(env.Data, &data))
	return data.Token
}

func TestLoginEndpoint(t *testing.T) {
	f := newFixture(t)

	t.Run("wrong password", func(t *testing.T) {
		resp, env := f.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
			"email": "sales@risewith9.com", "password": "wrong",
		})
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		require.NotNil(t, env.Error)
		assert.Equal(t, "Invalid email or password.", env.Error.Message)
	})

	t.Run("missing fields are rejected before any lookup", func(t *testing.T) {
		resp, _ := f.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"email": "sales@risewith9.com"})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("success returns a token", func(t *testing.T) {
		token := f.login(t)
		assert.NotEmpty(t, token)
	})
}

func TestUnitEndpoints(t *testing.T) {
	f := newFixture(t)
	token := f.login(t)

	t.Run("list requires a session", func(t *testing.T) {
		resp, _ := f.do(t, http.MethodGet, "/api/v1/units", "", nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("list returns the inventory", func(t *testing.T) {
		resp, env := f.do(t, http.MethodGet, "/api/v1/units", token, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var units []model.Unit
		require.NoError(t, json.Unmarshal(env.Data, &units))
		assert.Len(t, units, 2)
	})

	t.Run("status update", func(t *testing.T) {
		resp, env := f.do(t, http.MethodPatch, "/api/v1/units/"+url.PathEscape("9 South-10-1")+"/status", token,
			map[string]string{"status": "Reserved"})
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var unit model.Unit
		require.NoError(t, json.Unmarshal(env.Data, &unit))
		assert.Equal(t, model.StatusReserved, unit.Status)
	})

	t.Run("invalid status", func(t *testing.T) {
		resp, _ := f.do(t, http.MethodPatch, "/api/v1/units/"+url.PathEscape("9 South-10-1")+"/status", token,
			map[string]string{"status": "Haunted"})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("toggle sold unit conflicts", func(t *testing.T) {
		resp, _ := f.do(t, http.MethodPost, "/api/v1/units/"+url.PathEscape("9 South-10-2")+"/toggle", token, nil)
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
	})

	t.Run("description falls back without a generation key", func(t *testing.T) {
		resp, env := f.do(t, http.MethodPost, "/api/v1/units/"+url.PathEscape("9 South-10-1")+"/description", token, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var unit model.Unit
		require.NoError(t, json.Unmarshal(env.Data, &unit))
		assert.Equal(t, "Experience luxury living at its finest in this premium unit.", unit.Description)
	})
}

func TestBuyerEndpoints(t *testing.T) {
	f := newFixture(t)
	token := f.login(t)

	t.Run("create rejects missing fields", func(t *testing.T) {
		resp, _ := f.do(t, http.MethodPost, "/api/v1/buyers", token, map[string]string{"name": "No Contact"})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("create, update and delete", func(t *testing.T) {
		resp, env := f.do(t, http.MethodPost, "/api/v1/buyers", token, map[string]string{
			"name": "Lee Park", "email": "lee@example.com", "phone": "555-0102",
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		var created model.Buyer
		require.NoError(t, json.Unmarshal(env.Data, &created))
		assert.NotEmpty(t, created.ID)

		resp, env = f.do(t, http.MethodPut, "/api/v1/buyers/"+created.ID, token, map[string]string{
			"name": "Lee Park", "email": "lee.park@example.com", "phone": "555-0102",
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var updated model.Buyer
		require.NoError(t, json.Unmarshal(env.Data, &updated))
		assert.Equal(t, "lee.park@example.com", updated.Email)

		resp, _ = f.do(t, http.MethodDelete, "/api/v1/buyers/"+created.ID, token, nil)
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)

		resp, _ = f.do(t, http.MethodGet, "/api/v1/buyers/"+created.ID, token, nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestAccessEndpoints(t *testing.T) {
	f := newFixture(t)
	token := f.login(t)

	t.Run("generate issues a code once", func(t *testing.T) {
		resp, env := f.do(t, http.MethodPost, "/api/v1/access/generate", token,
			map[string]string{"buyer_id": "b1"})
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		var result service.IssueResult
		require.NoError(t, json.Unmarshal(env.Data, &result))
		assert.Contains(t, result.InviteMessage, "Welcome to Trilight - Rise with 9!")

		resp, _ = f.do(t, http.MethodPost, "/api/v1/access/generate", token,
			map[string]string{"buyer_id": "b1"})
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
	})

	t.Run("remaining reports the active countdown", func(t *testing.T) {
		resp, env := f.do(t, http.MethodGet, "/api/v1/access/remaining/b1", token, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var data map[string]interface{}
		require.NoError(t, json.Unmarshal(env.Data, &data))
		assert.Equal(t, "active", data["phase"])
		assert.Greater(t, data["remaining_ms"].(float64), float64(0))
	})

	t.Run("validate is public and reports invalid codes in-band", func(t *testing.T) {
		resp, env := f.do(t, http.MethodPost, "/api/v1/access/validate", "",
			map[string]string{"code": "RISE-0000"})
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var data map[string]interface{}
		require.NoError(t, json.Unmarshal(env.Data, &data))
		assert.Equal(t, false, data["valid"])
		assert.Equal(t, "Invalid Access Code", data["message"])
	})

	t.Run("unknown buyer", func(t *testing.T) {
		resp, _ := f.do(t, http.MethodPost, "/api/v1/access/generate", token,
			map[string]string{"buyer_id": "ghost"})
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestTourEndpoints(t *testing.T) {
	f := newFixture(t)
	token := f.login(t)

	resp, env := f.do(t, http.MethodPost, "/api/v1/access/generate", token,
		map[string]string{"buyer_id": "b1"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var issued service.IssueResult
	require.NoError(t, json.Unmarshal(env.Data, &issued))

	// Buyer-side calls carry no session token.
	resp, env = f.do(t, http.MethodPost, "/api/v1/tour/start", "",
		map[string]string{"code": issued.AccessCode.Code})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var started handler.StartResponse
	require.NoError(t, json.Unmarshal(env.Data, &started))
	assert.Equal(t, "9 South-10-1", started.Unit.ID)

	resp, _ = f.do(t, http.MethodPost, "/api/v1/tour/visit", "", map[string]interface{}{
		"session_id": started.Session.ID, "room": "Living Room", "minutes": 3.5,
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, env = f.do(t, http.MethodGet, "/api/v1/analytics/visits", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var stats []model.VisitData
	require.NoError(t, json.Unmarshal(env.Data, &stats))
	require.Len(t, stats, 1)
	assert.Equal(t, "Living Room", stats[0].Name)
}

func TestAdminStats(t *testing.T) {
	f := newFixture(t)

	req, err := http.NewRequest(http.MethodGet, f.server.URL+"/api/v1/admin/stats", nil)
	require.NoError(t, err)
	req.Header.Set("X-Login-Key", "wrong")
	resp, err := f.server.Client().Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req.Header.Set("X-Login-Key", "sesame")
	resp, err = f.server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
