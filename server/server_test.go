package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"rallypoint/config"
	"rallypoint/database"
	"rallypoint/middleware"
	"rallypoint/models"
	"rallypoint/services"
)

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()

	cfg := config.Defaults()
	cfg.JWTSecret = "test-secret"
	cfg.BcryptCost = 4
	cfg.DatabasePath = filepath.Join(t.TempDir(), "test.db")

	db, err := database.Connect(cfg)
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	log := zap.NewNop()
	store := database.NewStore(db)
	tokens := services.NewTokenManager(cfg.JWTSecret, cfg.SessionDuration)
	audit := services.NewAuditLogger(store, log)
	auth, err := services.NewAuthService(store, services.NewPasswordHasher(cfg.BcryptCost), tokens, nil, log)
	if err != nil {
		t.Fatalf("NewAuthService failed: %v", err)
	}

	return New(cfg, log, Deps{
		Store:      store,
		Tokens:     tokens,
		Auth:       auth,
		Groups:     services.NewGroupService(store, services.NewInviteCodeGenerator(), audit, log),
		Activities: services.NewActivityService(store, audit),
		Metrics:    middleware.NewMetrics(),
	})
}

func call(t *testing.T, app *fiber.App, method, path, token string, body any) (int, string) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, path, err)
	}
	data, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(data)
}

func signUp(t *testing.T, app *fiber.App, email, name string) string {
	t.Helper()

	status, body := call(t, app, fiber.MethodPost, "/user/register", "", models.RegisterInput{
		Email: email, Username: name, Password: "Secret123",
	})
	if status != fiber.StatusOK {
		t.Fatalf("register %s: %d %s", email, status, body)
	}
	status, token := call(t, app, fiber.MethodPost, "/user/login", "", models.LoginInput{
		Email: email, Password: "Secret123",
	})
	if status != fiber.StatusOK {
		t.Fatalf("login %s: %d %s", email, status, token)
	}
	return token
}

func createGroup(t *testing.T, app *fiber.App, token, name string) models.CreateGroupResponse {
	t.Helper()

	status, body := call(t, app, fiber.MethodPost, "/group/create", token, models.CreateGroupInput{GroupName: name})
	if status != fiber.StatusOK {
		t.Fatalf("create group: %d %s", status, body)
	}
	var created models.CreateGroupResponse
	if err := json.Unmarshal([]byte(body), &created); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	return created
}

func TestUserRoutes(t *testing.T) {
	app := newTestApp(t)

	t.Run("Weak password", func(t *testing.T) {
		status, body := call(t, app, fiber.MethodPost, "/user/register", "", models.RegisterInput{
			Email: "weak@example.com", Username: "Weak", Password: "password",
		})
		if status != fiber.StatusBadRequest || !strings.Contains(body, "Invalid password") {
			t.Errorf("got %d %s", status, body)
		}
	})

	token := signUp(t, app, "alice@example.com", "Alice")

	t.Run("Duplicate email", func(t *testing.T) {
		status, body := call(t, app, fiber.MethodPost, "/user/register", "", models.RegisterInput{
			Email: "ALICE@example.com", Username: "Again", Password: "Secret123",
		})
		if status != fiber.StatusConflict {
			t.Errorf("got %d %s", status, body)
		}
	})

	t.Run("Login failures are indistinguishable", func(t *testing.T) {
		s1, b1 := call(t, app, fiber.MethodPost, "/user/login", "", models.LoginInput{Email: "alice@example.com", Password: "Wrong1234"})
		s2, b2 := call(t, app, fiber.MethodPost, "/user/login", "", models.LoginInput{Email: "nobody@example.com", Password: "Secret123"})
		if s1 != fiber.StatusForbidden || s2 != fiber.StatusForbidden || b1 != b2 {
			t.Errorf("got %d %s and %d %s", s1, b1, s2, b2)
		}
	})

	t.Run("Me", func(t *testing.T) {
		status, body := call(t, app, fiber.MethodGet, "/user/me", token, nil)
		if status != fiber.StatusOK {
			t.Fatalf("got %d %s", status, body)
		}
		var me models.UserResponse
		if err := json.Unmarshal([]byte(body), &me); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if me.Username != "Alice" || me.Email != "alice@example.com" || me.ID == 0 {
			t.Errorf("unexpected profile %+v", me)
		}
		if strings.Contains(body, "password") {
			t.Errorf("profile leaks password: %s", body)
		}
	})

	t.Run("Guarded routes need a token", func(t *testing.T) {
		for _, path := range []string{"/user/me", "/group/list", "/activity/list?groupID=1"} {
			if status, _ := call(t, app, fiber.MethodGet, path, "", nil); status != fiber.StatusUnauthorized {
				t.Errorf("%s: status %d", path, status)
			}
			if status, _ := call(t, app, fiber.MethodGet, path, "garbage", nil); status != fiber.StatusUnauthorized {
				t.Errorf("%s with bad token: status %d", path, status)
			}
		}
	})
}

func TestHikersScenario(t *testing.T) {
	app := newTestApp(t)
	alice := signUp(t, app, "alice@example.com", "Alice")
	bob := signUp(t, app, "bob@example.com", "Bob")

	hikers := createGroup(t, app, alice, "Hikers")
	if len(hikers.Code) != 8 {
		t.Fatalf("unexpected code %q", hikers.Code)
	}

	status, code := call(t, app, fiber.MethodGet, fmt.Sprintf("/group/code?id=%d", hikers.ID), alice, nil)
	if status != fiber.StatusOK || code != hikers.Code {
		t.Fatalf("code: %d %q", status, code)
	}
	if status, _ := call(t, app, fiber.MethodGet, fmt.Sprintf("/group/code?id=%d", hikers.ID), bob, nil); status != fiber.StatusForbidden {
		t.Errorf("non-admin code status %d", status)
	}
	if status, _ := call(t, app, fiber.MethodGet, "/group/code?id=abc", alice, nil); status != fiber.StatusBadRequest {
		t.Errorf("bad id status %d", status)
	}

	if status, body := call(t, app, fiber.MethodPost, "/group/join", bob, models.JoinGroupInput{GroupCode: code}); status != fiber.StatusOK {
		t.Fatalf("join: %d %s", status, body)
	}
	if status, _ := call(t, app, fiber.MethodPost, "/group/join", bob, models.JoinGroupInput{GroupCode: code}); status != fiber.StatusBadRequest {
		t.Errorf("second join status %d", status)
	}
	if status, _ := call(t, app, fiber.MethodPost, "/group/join", bob, models.JoinGroupInput{GroupCode: "ZZZZZZZZ"}); status != fiber.StatusNotFound {
		t.Errorf("unknown code status %d", status)
	}

	membersPath := fmt.Sprintf("/group/members?id=%d", hikers.ID)

	status, body := call(t, app, fiber.MethodGet, membersPath, alice, nil)
	if status != fiber.StatusOK {
		t.Fatalf("members as admin: %d %s", status, body)
	}
	var asAdmin []models.MemberResponse
	if err := json.Unmarshal([]byte(body), &asAdmin); err != nil {
		t.Fatalf("decode %s: %v", body, err)
	}
	if len(asAdmin) != 2 || asAdmin[0].Name != "Alice" || asAdmin[1].Name != "Bob" || asAdmin[1].ID == 0 {
		t.Errorf("admin view %s", body)
	}

	status, body = call(t, app, fiber.MethodGet, membersPath, bob, nil)
	if status != fiber.StatusOK || body != `[{"name":"Alice"},{"name":"Bob"}]` {
		t.Errorf("member view: %d %s", status, body)
	}

	adminPath := fmt.Sprintf("/group/admin?groupID=%d", hikers.ID)
	if status, body := call(t, app, fiber.MethodGet, adminPath, alice, nil); status != fiber.StatusOK || body != "true" {
		t.Errorf("admin check as admin: %d %s", status, body)
	}
	if status, body := call(t, app, fiber.MethodGet, adminPath, bob, nil); status != fiber.StatusOK || body != "false" {
		t.Errorf("admin check as member: %d %s", status, body)
	}
	if status, _ := call(t, app, fiber.MethodGet, "/group/admin?groupID=9999", alice, nil); status != fiber.StatusNotFound {
		t.Errorf("admin check on missing group: %d", status)
	}

	status, body = call(t, app, fiber.MethodGet, "/group/list", bob, nil)
	if status != fiber.StatusOK || !strings.Contains(body, `"group_owner":"Alice"`) {
		t.Errorf("list: %d %s", status, body)
	}
}

func TestBanAndUnban(t *testing.T) {
	app := newTestApp(t)
	alice := signUp(t, app, "alice@example.com", "Alice")
	bob := signUp(t, app, "bob@example.com", "Bob")

	group := createGroup(t, app, alice, "Hikers")
	call(t, app, fiber.MethodPost, "/group/join", bob, models.JoinGroupInput{GroupCode: group.Code})

	status, body := call(t, app, fiber.MethodGet, fmt.Sprintf("/group/members?id=%d", group.ID), alice, nil)
	var members []models.MemberResponse
	if err := json.Unmarshal([]byte(body), &members); err != nil {
		t.Fatalf("decode %s: %v", body, err)
	}
	if status != fiber.StatusOK || len(members) != 2 {
		t.Fatalf("members: %d %s", status, body)
	}
	bobID := members[1].ID

	ban := models.BanInput{UserID: bobID, GroupID: group.ID, Reason: "littering"}
	if status, _ := call(t, app, fiber.MethodPost, "/group/ban", bob, ban); status != fiber.StatusForbidden {
		t.Errorf("ban by non-admin: %d", status)
	}
	if status, body := call(t, app, fiber.MethodPost, "/group/ban", alice, ban); status != fiber.StatusOK {
		t.Fatalf("ban: %d %s", status, body)
	}
	if status, _ := call(t, app, fiber.MethodPost, "/group/ban", alice, ban); status != fiber.StatusConflict {
		t.Errorf("second ban: %d", status)
	}

	status, body = call(t, app, fiber.MethodPost, "/group/join", bob, models.JoinGroupInput{GroupCode: group.Code})
	if status != fiber.StatusForbidden || !strings.Contains(body, "You have been banned for littering.") {
		t.Errorf("join while banned: %d %s", status, body)
	}

	status, body = call(t, app, fiber.MethodGet, fmt.Sprintf("/group/bannedMembers?id=%d", group.ID), alice, nil)
	if status != fiber.StatusOK || body != fmt.Sprintf(`[{"id":%d,"name":"Bob"}]`, bobID) {
		t.Errorf("banned members: %d %s", status, body)
	}

	unban := models.UnbanInput{UserID: bobID, GroupID: group.ID}
	if status, body := call(t, app, fiber.MethodPost, "/group/unban", alice, unban); status != fiber.StatusOK {
		t.Fatalf("unban: %d %s", status, body)
	}
	if status, _ := call(t, app, fiber.MethodPost, "/group/unban", alice, unban); status != fiber.StatusNotFound {
		t.Errorf("second unban: %d", status)
	}
	if status, body := call(t, app, fiber.MethodPost, "/group/join", bob, models.JoinGroupInput{GroupCode: group.Code}); status != fiber.StatusOK {
		t.Errorf("rejoin after unban: %d %s", status, body)
	}

	status, body = call(t, app, fiber.MethodGet, fmt.Sprintf("/group/audit?id=%d&limit=2", group.ID), alice, nil)
	if status != fiber.StatusOK {
		t.Fatalf("audit: %d %s", status, body)
	}
	var page models.AuditPage
	if err := json.Unmarshal([]byte(body), &page); err != nil {
		t.Fatalf("decode %s: %v", body, err)
	}
	if page.Total != 5 || len(page.Logs) != 2 || page.Logs[0].Action != models.AuditActionGroupJoin {
		t.Errorf("unexpected audit page %s", body)
	}
	if status, _ := call(t, app, fiber.MethodGet, fmt.Sprintf("/group/audit?id=%d", group.ID), bob, nil); status != fiber.StatusForbidden {
		t.Errorf("audit as member: %d", status)
	}
}

func TestActivityRoutes(t *testing.T) {
	app := newTestApp(t)
	alice := signUp(t, app, "alice@example.com", "Alice")
	bob := signUp(t, app, "bob@example.com", "Bob")
	eve := signUp(t, app, "eve@example.com", "Eve")

	hikers := createGroup(t, app, alice, "Hikers")
	other := createGroup(t, app, alice, "Other")
	call(t, app, fiber.MethodPost, "/group/join", bob, models.JoinGroupInput{GroupCode: hikers.Code})

	input := models.ActivityInput{
		GroupID:  hikers.ID,
		Name:     "Summit",
		Time:     time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC).Format(time.RFC3339),
		Location: "Trailhead",
	}

	status, body := call(t, app, fiber.MethodPost, "/activity/create", bob, input)
	if status != fiber.StatusForbidden || strings.Contains(body, "successfully") {
		t.Errorf("create by member: %d %s", status, body)
	}

	status, body = call(t, app, fiber.MethodPost, "/activity/create", alice, input)
	if status != fiber.StatusOK {
		t.Fatalf("create: %d %s", status, body)
	}
	var created struct {
		ID uint `json:"id"`
	}
	if err := json.Unmarshal([]byte(body), &created); err != nil {
		t.Fatalf("decode %s: %v", body, err)
	}

	listPath := fmt.Sprintf("/activity/list?groupID=%d", hikers.ID)
	status, body = call(t, app, fiber.MethodGet, listPath, bob, nil)
	if status != fiber.StatusOK || !strings.Contains(body, `"name":"Summit"`) || !strings.Contains(body, `"time":"2026-06-01T08:00:00Z"`) {
		t.Errorf("list: %d %s", status, body)
	}
	if status, _ := call(t, app, fiber.MethodGet, listPath, eve, nil); status != fiber.StatusForbidden {
		t.Errorf("list by outsider: %d", status)
	}

	wrongGroup := models.DeleteActivityInput{ActivityID: created.ID, GroupID: other.ID}
	if status, _ := call(t, app, fiber.MethodPost, "/activity/delete", alice, wrongGroup); status != fiber.StatusNotFound {
		t.Errorf("cross-group delete: %d", status)
	}
	del := models.DeleteActivityInput{ActivityID: created.ID, GroupID: hikers.ID}
	if status, body := call(t, app, fiber.MethodPost, "/activity/delete", alice, del); status != fiber.StatusOK {
		t.Errorf("delete: %d %s", status, body)
	}
	if status, body := call(t, app, fiber.MethodGet, listPath, alice, nil); status != fiber.StatusOK || body != "[]" {
		t.Errorf("list after delete: %d %s", status, body)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	app := newTestApp(t)

	status, body := call(t, app, fiber.MethodGet, "/health", "", nil)
	if status != fiber.StatusOK || body != `{"status":"ok"}` {
		t.Errorf("health: %d %s", status, body)
	}

	status, body = call(t, app, fiber.MethodGet, "/metrics", "", nil)
	if status != fiber.StatusOK || !strings.Contains(body, `route="/health"`) {
		t.Errorf("metrics: %d %s", status, body)
	}
}
