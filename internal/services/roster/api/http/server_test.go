package httpapi

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/louisbranch/raidroster/internal/services/roster/channel/channeltest"
	"github.com/louisbranch/raidroster/internal/services/roster/dispatch"
	"github.com/louisbranch/raidroster/internal/services/roster/domain"
	"github.com/louisbranch/raidroster/internal/services/roster/render"
	"github.com/louisbranch/raidroster/internal/services/roster/storage/sqlite"
)

var testNow = time.Date(2026, 3, 14, 19, 0, 0, 0, time.UTC)

type apiFixture struct {
	server *httptest.Server
	ch     *channeltest.Channel
	key    ed25519.PrivateKey
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "roster.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	var mu sync.Mutex
	n := 0
	svc := domain.NewService(store, func() time.Time { return testNow }, func() (string, error) {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("id-%d", n), nil
	})
	ch := channeltest.New()
	loc := message.NewPrinter(language.English)
	pub := render.NewPublisher(store, ch, loc)
	d := dispatch.New(svc, pub, loc, dispatch.Config{}, zap.NewNop(), nil)

	pubKey, privKey, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	tokens, err := LoadTokenConfig("raidroster-test", "raidroster-api", base64.StdEncoding.EncodeToString(pubKey),
		func() time.Time { return testNow })
	if err != nil {
		t.Fatalf("token config: %v", err)
	}

	srv := NewServer(Config{
		Service:    svc,
		Dispatcher: d,
		Projector:  pub,
		Localizer:  loc,
		Tokens:     tokens,
		Clock:      func() time.Time { return testNow },
	})
	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { _, _ = io.WriteString(w, "ok") })
	ts := httptest.NewServer(srv.Handler(map[string]http.Handler{"/metrics": metrics}))
	t.Cleanup(ts.Close)
	return &apiFixture{server: ts, ch: ch, key: privKey}
}

func (f *apiFixture) token(t *testing.T, subject, role string) string {
	t.Helper()
	claims := identityClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "raidroster-test",
			Audience:  jwt.ClaimStrings{"raidroster-api"},
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(testNow.Add(time.Hour)),
		},
		Name: subject,
		Role: role,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims).SignedString(f.key)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func (f *apiFixture) do(t *testing.T, method, path, token string, body any) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("encode body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(context.Background(), method, f.server.URL+path, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	out := map[string]any{}
	if resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil && !errors.Is(err, io.EOF) {
			t.Fatalf("decode %s %s: %v", method, path, err)
		}
	}
	return resp.StatusCode, out
}

func errorCode(body map[string]any) string {
	errBody, _ := body["error"].(map[string]any)
	code, _ := errBody["code"].(string)
	return code
}

func TestAPIRequiresBearerToken(t *testing.T) {
	t.Parallel()
	f := newAPIFixture(t)

	status, body := f.do(t, http.MethodGet, "/api/v1/events", "", nil)
	if status != http.StatusUnauthorized || errorCode(body) != "UNAUTHENTICATED" {
		t.Fatalf("status = %d body = %v", status, body)
	}

	_, otherKey, _ := ed25519.GenerateKey(nil)
	forged := &apiFixture{key: otherKey}
	status, _ = f.do(t, http.MethodGet, "/api/v1/events", forged.token(t, "discord:1", "admin"), nil)
	if status != http.StatusUnauthorized {
		t.Fatalf("forged token status = %d", status)
	}
}

func TestAPISignupFlow(t *testing.T) {
	t.Parallel()
	f := newAPIFixture(t)
	lead := f.token(t, "discord:900", "lead")
	player := f.token(t, "discord:100", "")

	status, body := f.do(t, http.MethodPost, "/api/v1/events", player, map[string]any{
		"title": "Heroic Clear", "scheduled_at": testNow.Add(48 * time.Hour), "capacity": 20,
		"difficulty": "heroic", "loot_type": "saved",
	})
	if status != http.StatusForbidden {
		t.Fatalf("participant create event status = %d body = %v", status, body)
	}

	status, body = f.do(t, http.MethodPost, "/api/v1/events", lead, map[string]any{
		"title": "Heroic Clear", "scheduled_at": testNow.Add(48 * time.Hour), "capacity": 20,
		"difficulty": "heroic", "loot_type": "saved", "channel_ref": "chan-1",
	})
	if status != http.StatusCreated {
		t.Fatalf("create event status = %d body = %v", status, body)
	}
	eventID := body["id"].(string)
	if body["announcement_ref"] == nil {
		t.Fatalf("event created without projection: %v", body)
	}

	status, body = f.do(t, http.MethodPost, "/api/v1/characters", player, map[string]any{
		"name": "Aelin", "class": "paladin", "role": "tank", "item_level": 480,
	})
	if status != http.StatusCreated {
		t.Fatalf("create character status = %d body = %v", status, body)
	}
	characterID := body["id"].(string)

	status, body = f.do(t, http.MethodGet, "/api/v1/events/"+eventID+"/available-characters", player, nil)
	if status != http.StatusOK || len(body["characters"].([]any)) != 1 {
		t.Fatalf("available status = %d body = %v", status, body)
	}

	status, body = f.do(t, http.MethodPost, "/api/v1/events/"+eventID+"/signups", player, map[string]any{"character_id": characterID})
	if status != http.StatusCreated {
		t.Fatalf("signup status = %d body = %v", status, body)
	}
	signupID := body["signup"].(map[string]any)["id"].(string)

	status, body = f.do(t, http.MethodPost, "/api/v1/events/"+eventID+"/signups", player, map[string]any{"character_id": characterID})
	if status != http.StatusConflict || errorCode(body) != "ALREADY_SIGNED_UP" {
		t.Fatalf("duplicate signup status = %d body = %v", status, body)
	}

	status, _ = f.do(t, http.MethodPost, "/api/v1/signups/"+signupID+"/commit", player, nil)
	if status != http.StatusForbidden {
		t.Fatalf("participant commit status = %d", status)
	}
	status, body = f.do(t, http.MethodPost, "/api/v1/signups/"+signupID+"/commit", lead, nil)
	if status != http.StatusOK || body["signup"].(map[string]any)["status"] != "committed" {
		t.Fatalf("commit status = %d body = %v", status, body)
	}

	status, body = f.do(t, http.MethodGet, "/api/v1/events/"+eventID+"/signups?filter="+`status%20%3D%20%22committed%22`, player, nil)
	if status != http.StatusOK || len(body["signups"].([]any)) != 1 {
		t.Fatalf("filtered signups status = %d body = %v", status, body)
	}
	status, body = f.do(t, http.MethodGet, "/api/v1/events/"+eventID+"/signups?filter=status%20%3D", player, nil)
	if status != http.StatusBadRequest || errorCode(body) != "VALIDATION" {
		t.Fatalf("bad filter status = %d body = %v", status, body)
	}

	status, body = f.do(t, http.MethodPost, "/api/v1/events/"+eventID+"/withdraw", player, nil)
	if status != http.StatusOK || body["withdrawn"].(float64) != 0 {
		t.Fatalf("withdraw status = %d body = %v", status, body)
	}

	resp, err := http.Get(f.server.URL + "/events/" + eventID + "/roster")
	if err != nil {
		t.Fatalf("roster page: %v", err)
	}
	page, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(page), "Aelin") || !strings.Contains(string(page), "Tanks (1)") {
		t.Fatalf("roster page status = %d body = %s", resp.StatusCode, page)
	}
}

func TestAPIEventLifecycle(t *testing.T) {
	t.Parallel()
	f := newAPIFixture(t)
	admin := f.token(t, "discord:1", "admin")

	status, body := f.do(t, http.MethodPost, "/api/v1/events", admin, map[string]any{
		"title": "Normal Run", "scheduled_at": testNow.Add(24 * time.Hour), "capacity": 10,
		"difficulty": "normal", "loot_type": "unsaved",
	})
	if status != http.StatusCreated {
		t.Fatalf("create status = %d body = %v", status, body)
	}
	eventID := body["id"].(string)

	status, body = f.do(t, http.MethodPost, "/api/v1/events/"+eventID+"/reproject", admin, nil)
	if status != http.StatusUnprocessableEntity || errorCode(body) != "EVENT_CHANNEL_NOT_ATTACHED" {
		t.Fatalf("reproject without channel status = %d body = %v", status, body)
	}

	status, body = f.do(t, http.MethodPut, "/api/v1/events/"+eventID+"/channel", admin, map[string]any{"channel_ref": "chan-9"})
	if status != http.StatusOK || body["announcement_ref"] == nil {
		t.Fatalf("set channel status = %d body = %v", status, body)
	}

	f.ch.EditErr = errors.New("discord unavailable")
	status, body = f.do(t, http.MethodPatch, "/api/v1/events/"+eventID, admin, map[string]any{"capacity": 25})
	if status != http.StatusBadGateway || errorCode(body) != "EXTERNAL_CHANNEL" {
		t.Fatalf("patch with failing push status = %d body = %v", status, body)
	}
	if result, _ := body["result"].(map[string]any); result["capacity"].(float64) != 25 {
		t.Fatalf("patch result = %v", body["result"])
	}
	f.ch.EditErr = nil

	status, body = f.do(t, http.MethodGet, "/api/v1/events/"+eventID, admin, nil)
	if status != http.StatusOK || body["capacity"].(float64) != 25 {
		t.Fatalf("get status = %d body = %v", status, body)
	}

	status, body = f.do(t, http.MethodGet, "/api/v1/events?from="+testNow.Format(time.RFC3339), admin, nil)
	if status != http.StatusOK || len(body["events"].([]any)) != 1 {
		t.Fatalf("list status = %d body = %v", status, body)
	}
	status, _ = f.do(t, http.MethodGet, "/api/v1/events?limit=zero", admin, nil)
	if status != http.StatusBadRequest {
		t.Fatalf("bad limit status = %d", status)
	}

	status, _ = f.do(t, http.MethodDelete, "/api/v1/events/"+eventID, admin, nil)
	if status != http.StatusNoContent {
		t.Fatalf("delete status = %d", status)
	}
	for _, ref := range []string{"msg-1", "msg-2"} {
		posted, ok := f.ch.Get(ref)
		if !ok || posted.Message.Title != "Cancelled – Normal Run" || len(posted.Message.Buttons) != 0 {
			t.Fatalf("message %s after delete = %+v", ref, posted)
		}
	}
	status, body = f.do(t, http.MethodGet, "/api/v1/events/"+eventID, admin, nil)
	if status != http.StatusNotFound || errorCode(body) != "NOT_FOUND" {
		t.Fatalf("get deleted status = %d body = %v", status, body)
	}
}

func TestAPIRejectsUnknownFields(t *testing.T) {
	t.Parallel()
	f := newAPIFixture(t)

	status, body := f.do(t, http.MethodPost, "/api/v1/characters", f.token(t, "discord:5", ""), map[string]any{"name": "X", "bogus": true})
	if status != http.StatusBadRequest || errorCode(body) != "VALIDATION" {
		t.Fatalf("status = %d body = %v", status, body)
	}
}

func TestExtraHandlersAreUnauthenticated(t *testing.T) {
	t.Parallel()
	f := newAPIFixture(t)

	resp, err := http.Get(f.server.URL + "/metrics")
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("metrics status = %d", resp.StatusCode)
	}
}
