package gin

import (
	"net/http"
	"net/http/httptest"
	"testing"

	gongin "github.com/gin-gonic/gin"

	"github.com/ladleapp/ladle-billing/pkg/entitlement"
	"github.com/ladleapp/ladle-billing/storage/memory"
)

func setupRouter(t *testing.T, cfg Config) *gongin.Engine {
	t.Helper()

	gongin.SetMode(gongin.TestMode)
	router := gongin.New()
	router.GET("/planner", RequirePro(cfg), func(c *gongin.Context) {
		c.String(http.StatusOK, "success")
	})
	return router
}

func setupStore(t *testing.T) *memory.Store {
	t.Helper()

	store := memory.New()
	for _, u := range []entitlement.User{
		{ID: "u-pro", Email: "pro@ladle.app", IsPro: true},
		{ID: "u-free", Email: "free@ladle.app", IsPro: false},
	} {
		if err := store.AddUser(u); err != nil {
			t.Fatalf("Failed to seed user: %v", err)
		}
	}
	return store
}

func TestRequirePro_ProUserPasses(t *testing.T) {
	router := setupRouter(t, Config{
		Store:       setupStore(t),
		GetIdentity: FromHeader("X-User-Email"),
	})

	req := httptest.NewRequest(http.MethodGet, "/planner", nil)
	req.Header.Set("X-User-Email", "pro@ladle.app")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestRequirePro_FreeUserBlocked(t *testing.T) {
	router := setupRouter(t, Config{
		Store:       setupStore(t),
		GetIdentity: FromHeader("X-User-Email"),
	})

	req := httptest.NewRequest(http.MethodGet, "/planner", nil)
	req.Header.Set("X-User-Email", "free@ladle.app")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusPaymentRequired {
		t.Errorf("status = %d, want 402", rec.Code)
	}
}

func TestRequirePro_NoIdentity(t *testing.T) {
	router := setupRouter(t, Config{
		Store:       setupStore(t),
		GetIdentity: FromHeader("X-User-Email"),
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/planner", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestRequirePro_FromContext(t *testing.T) {
	gongin.SetMode(gongin.TestMode)
	router := gongin.New()
	router.Use(func(c *gongin.Context) {
		c.Set("UserEmail", "pro@ladle.app")
	})
	router.GET("/planner", RequirePro(Config{
		Store:       setupStore(t),
		GetIdentity: FromContext("UserEmail"),
	}), func(c *gongin.Context) {
		c.String(http.StatusOK, "success")
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/planner", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestRequirePro_PanicsWithoutStore(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for missing Store")
		}
	}()
	RequirePro(Config{GetIdentity: FromHeader("X-User-Email")})
}
