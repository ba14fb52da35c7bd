package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"workchat/internal/app/chat"
	"workchat/internal/app/history"
	"workchat/internal/app/identity"
	"workchat/internal/app/store"
	"workchat/internal/configs"
)

// fakeProvider satisfies the OAuth provider contract without the network.
type fakeProvider struct {
	user identity.Identity
}

func (p *fakeProvider) LoginURL(state string) string {
	return "https://provider.example/auth?state=" + url.QueryEscape(state)
}

func (p *fakeProvider) ExchangeCode(ctx context.Context, code string) (identity.Identity, error) {
	if code != "good-code" {
		return identity.Identity{}, fmt.Errorf("provider rejected code %q", code)
	}
	return p.user, nil
}

type frontDoorEnv struct {
	server *httptest.Server
	client *http.Client
	store  *store.FileStore
}

func newFrontDoorEnv(t *testing.T) *frontDoorEnv {
	t.Helper()

	dir := t.TempDir()

	fileStore, err := store.NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}

	fileLog, err := history.NewFileLog(dir + "/messages")
	if err != nil {
		t.Fatalf("NewFileLog: %v", err)
	}

	deps := &AppDeps{
		Config: &configs.AppConfig{
			Environment:    "development",
			StorageBackend: configs.BackendFile,
			StaticDir:      dir,
		},
		Chat:  chat.NewService(fileStore, fileLog),
		Store: fileStore,
		OAuth: &fakeProvider{user: identity.Identity{
			Subject: "sub-1",
			Email:   "ana@example.com",
			Name:    "Ana",
		}},
	}

	server := httptest.NewServer(FrontDoorRouter(deps))
	t.Cleanup(server.Close)

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookiejar: %v", err)
	}

	client := &http.Client{
		Jar: jar,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	return &frontDoorEnv{server: server, client: client, store: fileStore}
}

func (env *frontDoorEnv) get(t *testing.T, path string) *http.Response {
	t.Helper()

	res, err := env.client.Get(env.server.URL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	t.Cleanup(func() { res.Body.Close() })

	return res
}

func (env *frontDoorEnv) postJSON(t *testing.T, path string, body any) *http.Response {
	t.Helper()

	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}

	res, err := env.client.Post(env.server.URL+path, "application/json", bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	t.Cleanup(func() { res.Body.Close() })

	return res
}

func decodeEnvelope(t *testing.T, res *http.Response) (int, map[string]any) {
	t.Helper()

	var envelope struct {
		Code int            `json:"code"`
		Data map[string]any `json:"data"`
	}
	if err := json.NewDecoder(res.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}

	return envelope.Code, envelope.Data
}

// login walks the full OAuth round trip and leaves the session cookie in
// the client jar.
func (env *frontDoorEnv) login(t *testing.T) {
	t.Helper()

	res := env.get(t, "/login")
	if res.StatusCode != http.StatusFound {
		t.Fatalf("GET /login = %d, want 302", res.StatusCode)
	}

	location := res.Header.Get("Location")
	if !strings.HasPrefix(location, "https://provider.example/auth?") {
		t.Fatalf("login redirect = %q, want the provider URL", location)
	}

	parsed, err := url.Parse(location)
	if err != nil {
		t.Fatalf("parse redirect: %v", err)
	}
	if parsed.Query().Get("state") == "" {
		t.Fatal("login redirect carries no state")
	}

	res = env.get(t, "/oauth2callback?code=good-code")
	if res.StatusCode != http.StatusFound {
		t.Fatalf("GET /oauth2callback = %d, want 302", res.StatusCode)
	}
	if loc := res.Header.Get("Location"); loc != "/" {
		t.Fatalf("callback redirect = %q, want /", loc)
	}
}

func TestFrontDoor_FullLoginFlow(t *testing.T) {
	env := newFrontDoorEnv(t)
	env.login(t)

	res := env.get(t, "/session")
	if res.StatusCode != http.StatusOK {
		t.Fatalf("GET /session = %d, want 200", res.StatusCode)
	}

	code, data := decodeEnvelope(t, res)
	if code != 0 {
		t.Fatalf("session code = %d, want 0", code)
	}
	if data["session_token"] == "" {
		t.Error("session response carries no token")
	}

	user, ok := data["user"].(map[string]any)
	if !ok {
		t.Fatalf("session user = %T, want object", data["user"])
	}
	if user["name"] != "Ana" || user["email"] != "ana@example.com" {
		t.Errorf("session user = %v", user)
	}
}

func TestFrontDoor_SessionWithoutCookie(t *testing.T) {
	env := newFrontDoorEnv(t)

	res := env.get(t, "/session")
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("GET /session = %d, want 401", res.StatusCode)
	}
}

func TestFrontDoor_CallbackRejectsMissingCode(t *testing.T) {
	env := newFrontDoorEnv(t)

	res := env.get(t, "/oauth2callback")
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("callback without code = %d, want 400", res.StatusCode)
	}
}

func TestFrontDoor_CallbackReportsExchangeFailure(t *testing.T) {
	env := newFrontDoorEnv(t)

	res := env.get(t, "/oauth2callback?code=bad-code")
	if res.StatusCode != http.StatusBadGateway {
		t.Fatalf("callback with bad code = %d, want 502", res.StatusCode)
	}
}

func TestFrontDoor_CallbackReportsProviderError(t *testing.T) {
	env := newFrontDoorEnv(t)

	res := env.get(t, "/oauth2callback?error=access_denied")
	if res.StatusCode != http.StatusBadGateway {
		t.Fatalf("callback with provider error = %d, want 502", res.StatusCode)
	}
}

func TestFrontDoor_SetName(t *testing.T) {
	env := newFrontDoorEnv(t)
	env.login(t)

	res := env.postJSON(t, "/setname", map[string]string{"name": "AnaDev"})
	if res.StatusCode != http.StatusOK {
		t.Fatalf("POST /setname = %d, want 200", res.StatusCode)
	}

	_, data := decodeEnvelope(t, res)
	user, _ := data["user"].(map[string]any)
	if user["name"] != "AnaDev" {
		t.Errorf("renamed user = %v, want AnaDev", user)
	}

	res = env.get(t, "/session")
	_, data = decodeEnvelope(t, res)
	user, _ = data["user"].(map[string]any)
	if user["name"] != "AnaDev" {
		t.Errorf("session after rename = %v, want AnaDev", user)
	}
}

func TestFrontDoor_SetNameBlankGetsSynthesizedName(t *testing.T) {
	env := newFrontDoorEnv(t)
	env.login(t)

	res := env.postJSON(t, "/setname", map[string]string{"name": "   "})
	if res.StatusCode != http.StatusOK {
		t.Fatalf("POST /setname = %d, want 200", res.StatusCode)
	}

	_, data := decodeEnvelope(t, res)
	user, _ := data["user"].(map[string]any)
	name, _ := user["name"].(string)
	if !strings.HasPrefix(name, "Usuario_") {
		t.Errorf("blank rename produced %q, want Usuario_ prefix", name)
	}
}

func TestFrontDoor_SetNameWithoutSession(t *testing.T) {
	env := newFrontDoorEnv(t)

	res := env.postJSON(t, "/setname", map[string]string{"name": "AnaDev"})
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("POST /setname = %d, want 401", res.StatusCode)
	}
}

func TestFrontDoor_Logout(t *testing.T) {
	env := newFrontDoorEnv(t)
	env.login(t)

	res := env.get(t, "/logout")
	if res.StatusCode != http.StatusOK {
		t.Fatalf("GET /logout = %d, want 200", res.StatusCode)
	}

	res = env.get(t, "/session")
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("GET /session after logout = %d, want 401", res.StatusCode)
	}
}

func TestFrontDoor_LogoutWithoutSessionIsFine(t *testing.T) {
	env := newFrontDoorEnv(t)

	res := env.get(t, "/logout")
	if res.StatusCode != http.StatusOK {
		t.Fatalf("GET /logout without session = %d, want 200", res.StatusCode)
	}
}

func TestFrontDoor_RoomsCatalog(t *testing.T) {
	env := newFrontDoorEnv(t)

	res := env.get(t, "/rooms")
	if res.StatusCode != http.StatusOK {
		t.Fatalf("GET /rooms = %d, want 200", res.StatusCode)
	}

	_, data := decodeEnvelope(t, res)
	rooms, ok := data["rooms"].([]any)
	if !ok || len(rooms) != 1 {
		t.Fatalf("rooms = %v, want the seeded catalog", data["rooms"])
	}

	room := rooms[0].(map[string]any)
	if room["name"] != "default" || room["label"] != "General" {
		t.Errorf("seeded room = %v", room)
	}
}
