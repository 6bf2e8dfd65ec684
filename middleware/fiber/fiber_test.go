package fiber

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/ladleapp/ladle-billing/pkg/entitlement"
	"github.com/ladleapp/ladle-billing/storage/memory"
)

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

func setupApp(t *testing.T, cfg Config) *fiber.App {
	t.Helper()

	app := fiber.New()
	app.Use(RequirePro(cfg))
	app.Get("/planner", func(c *fiber.Ctx) error {
		return c.SendString("success")
	})
	return app
}

func TestRequirePro_ProUserPasses(t *testing.T) {
	app := setupApp(t, Config{
		Store:       setupStore(t),
		GetIdentity: FromHeader("X-User-Email"),
	})

	req := httptest.NewRequest(http.MethodGet, "/planner", http.NoBody)
	req.Header.Set("X-User-Email", "pro@ladle.app")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}

func TestRequirePro_FreeUserBlocked(t *testing.T) {
	app := setupApp(t, Config{
		Store:       setupStore(t),
		GetIdentity: FromHeader("X-User-Email"),
	})

	req := httptest.NewRequest(http.MethodGet, "/planner", http.NoBody)
	req.Header.Set("X-User-Email", "free@ladle.app")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusPaymentRequired {
		t.Errorf("status = %d, want 402", resp.StatusCode)
	}
}

func TestRequirePro_NoIdentity(t *testing.T) {
	app := setupApp(t, Config{
		Store:       setupStore(t),
		GetIdentity: FromHeader("X-User-Email"),
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/planner", http.NoBody))
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", resp.StatusCode)
	}
}

func TestRequirePro_FromLocals(t *testing.T) {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("userEmail", "pro@ladle.app")
		return c.Next()
	})
	app.Use(RequirePro(Config{
		Store:       setupStore(t),
		GetIdentity: FromLocals("userEmail"),
	}))
	app.Get("/planner", func(c *fiber.Ctx) error {
		return c.SendString("success")
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/planner", http.NoBody))
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
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
