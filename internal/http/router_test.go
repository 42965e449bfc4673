package http_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/turnaplay-teams/internal/config"
	internalhttp "github.com/tendant/turnaplay-teams/internal/http"
	"github.com/tendant/turnaplay-teams/internal/testutil"
	"github.com/tendant/turnaplay-teams/pkg/auth"
)

type apiClient struct {
	t        *testing.T
	handler  http.Handler
	verifier *auth.TokenVerifier
}

func newAPI(t *testing.T) (*apiClient, *testutil.Fixture) {
	t.Helper()
	f := testutil.New(t)
	verifier := auth.NewTokenVerifier(auth.TokenConfig{
		JWTSecret: []byte("router-test-secret-at-least-32-bytes"),
		Issuer:    "turnaplay",
	})
	handler := internalhttp.NewRouter(internalhttp.RouterConfig{
		Service:    f.Service,
		Accounts:   f.Accounts,
		Verifier:   verifier,
		Validation: config.ValidationConfig{MaxRequestBodySize: 1 << 16},
	})
	return &apiClient{t: t, handler: handler, verifier: verifier}, f
}

func (c *apiClient) do(method, path string, actor uuid.UUID, body any) (int, map[string]any) {
	c.t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			c.t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if actor != uuid.Nil {
		token, err := c.verifier.IssueAccessToken(actor, time.Minute)
		if err != nil {
			c.t.Fatalf("issue token: %v", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	c.handler.ServeHTTP(rec, req)

	var out map[string]any
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
			c.t.Fatalf("%s %s: decode response %q: %v", method, path, rec.Body.String(), err)
		}
	}
	return rec.Code, out
}

func (c *apiClient) mustDo(method, path string, actor uuid.UUID, body any, want int) map[string]any {
	c.t.Helper()
	code, out := c.do(method, path, actor, body)
	if code != want {
		c.t.Fatalf("%s %s: status %d, want %d (%v)", method, path, code, want, out)
	}
	return out
}

func TestRouter_Health(t *testing.T) {
	api, _ := newAPI(t)
	out := api.mustDo(http.MethodGet, "/health", uuid.Nil, nil, http.StatusOK)
	if out["status"] != "ok" {
		t.Errorf("status = %v, want ok", out["status"])
	}
}

func TestRouter_RequiresToken(t *testing.T) {
	api, _ := newAPI(t)
	api.mustDo(http.MethodGet, "/v1/invites", uuid.Nil, nil, http.StatusUnauthorized)
	api.mustDo(http.MethodPost, "/v1/registrations", uuid.Nil, map[string]string{}, http.StatusUnauthorized)
}

func TestRouter_InviteWorkflow(t *testing.T) {
	api, f := newAPI(t)
	comp := f.Competition(t, 2, 2)
	captain := f.Account(t, "captain")
	alice := f.Account(t, "alice")
	bob := f.Account(t, "bob")

	reg := api.mustDo(http.MethodPost, "/v1/registrations", captain, map[string]string{
		"competition_id":  comp.String(),
		"game_account_id": f.GameAccountOf(t, captain).String(),
		"team_name":       "  Night <b>Owls</b> ",
	}, http.StatusCreated)
	if reg["team_name"] != "Night Owls" {
		t.Errorf("team_name = %v, want sanitized name", reg["team_name"])
	}
	if reg["status"] != "forming" {
		t.Errorf("status = %v, want forming", reg["status"])
	}
	regPath := "/v1/registrations/" + reg["id"].(string)

	byHandle := api.mustDo(http.MethodPost, regPath+"/invites", captain, map[string]string{
		"username_or_email": "alice@example.com",
	}, http.StatusCreated)
	aliceInvite := byHandle["invite"].(map[string]any)
	if aliceInvite["invitee_account_id"] != alice.String() {
		t.Errorf("invitee = %v, want %s", aliceInvite["invitee_account_id"], alice)
	}
	api.mustDo(http.MethodPost, regPath+"/invites", captain, map[string]string{
		"account_id": bob.String(),
	}, http.StatusCreated)

	summary := api.mustDo(http.MethodGet, "/v1/invites/summary", alice, nil, http.StatusOK)
	if summary["pending_count"] != float64(1) {
		t.Errorf("pending_count = %v, want 1", summary["pending_count"])
	}
	incoming := api.mustDo(http.MethodGet, "/v1/invites?direction=incoming&status=pending", alice, nil, http.StatusOK)
	if list := incoming["invites"].([]any); len(list) != 1 {
		t.Errorf("incoming invites = %d, want 1", len(list))
	}
	outgoing := api.mustDo(http.MethodGet, "/v1/invites?direction=outgoing", captain, nil, http.StatusOK)
	if list := outgoing["invites"].([]any); len(list) != 2 {
		t.Errorf("outgoing invites = %d, want 2", len(list))
	}

	accepted := api.mustDo(http.MethodPost, "/v1/invites/"+aliceInvite["id"].(string)+"/accept", alice,
		map[string]string{"game_account_id": f.GameAccountOf(t, alice).String()}, http.StatusOK)
	if status := accepted["registration"].(map[string]any)["status"]; status != "valid" {
		t.Errorf("registration status = %v, want valid", status)
	}

	// The roster filled, so bob's invite was swept and accepting it reports capacity.
	bobInvites := api.mustDo(http.MethodGet, "/v1/invites", bob, nil, http.StatusOK)["invites"].([]any)
	if len(bobInvites) != 1 {
		t.Fatalf("bob invites = %d, want 1", len(bobInvites))
	}
	bobInvite := bobInvites[0].(map[string]any)
	if bobInvite["status"] != "cancelled" || bobInvite["close_reason"] != "roster_full" {
		t.Errorf("bob invite = %v, want cancelled/roster_full", bobInvite)
	}
	_, out := api.do(http.MethodPost, "/v1/invites/"+bobInvite["id"].(string)+"/accept", bob,
		map[string]string{"game_account_id": f.GameAccountOf(t, bob).String()})
	if out["kind"] != "capacity" {
		t.Errorf("late accept kind = %v, want capacity", out["kind"])
	}

	roster := api.mustDo(http.MethodGet, regPath, bob, nil, http.StatusOK)
	members := roster["members"].([]any)
	if len(members) != 2 {
		t.Fatalf("members = %d, want 2", len(members))
	}
	for _, m := range members {
		seat := m.(map[string]any)
		id, _ := uuid.Parse(seat["account_id"].(string))
		if want := f.GameAccountOf(t, id).String(); seat["game_account_id"] != want {
			t.Errorf("member %s game_account_id = %v, want %s", id, seat["game_account_id"], want)
		}
	}

	events := api.mustDo(http.MethodGet, regPath+"/events", captain, nil, http.StatusOK)
	if len(events["events"].([]any)) == 0 {
		t.Error("expected audit events")
	}
	api.mustDo(http.MethodGet, regPath+"/events", alice, nil, http.StatusForbidden)

	locked := api.mustDo(http.MethodPost, regPath+"/submit", captain, nil, http.StatusOK)
	if locked["locked"] != true {
		t.Errorf("locked = %v, want true", locked["locked"])
	}
	api.mustDo(http.MethodPost, regPath+"/leave", alice, nil, http.StatusConflict)

	api.mustDo(http.MethodPost, regPath+"/cancel", captain, nil, http.StatusOK)
	again := api.mustDo(http.MethodPost, regPath+"/cancel", captain, nil, http.StatusOK)
	if again["status"] != "cancelled" {
		t.Errorf("status = %v, want cancelled", again["status"])
	}
}

func TestRouter_Errors(t *testing.T) {
	api, f := newAPI(t)
	comp := f.Competition(t, 2, 4)
	captain := f.Account(t, "captain")
	alice := f.Account(t, "alice")

	reg := api.mustDo(http.MethodPost, "/v1/registrations", captain, map[string]string{
		"competition_id":  comp.String(),
		"game_account_id": f.GameAccountOf(t, captain).String(),
		"team_name":       "Night Owls",
	}, http.StatusCreated)
	regPath := "/v1/registrations/" + reg["id"].(string)
	captainGA := f.GameAccountOf(t, captain).String()
	aliceGA := f.GameAccountOf(t, alice).String()

	tests := []struct {
		name     string
		method   string
		path     string
		actor    uuid.UUID
		body     any
		want     int
		wantKind string
	}{
		{"bad competition id", http.MethodPost, "/v1/registrations", captain, map[string]string{"competition_id": "nope", "game_account_id": captainGA, "team_name": "x"}, http.StatusBadRequest, ""},
		{"missing game account", http.MethodPost, "/v1/registrations", alice, map[string]string{"competition_id": comp.String(), "team_name": "x"}, http.StatusBadRequest, ""},
		{"foreign game account", http.MethodPost, "/v1/registrations", alice, map[string]string{"competition_id": comp.String(), "game_account_id": captainGA, "team_name": "x"}, http.StatusUnprocessableEntity, "referential"},
		{"unknown competition", http.MethodPost, "/v1/registrations", alice, map[string]string{"competition_id": uuid.NewString(), "game_account_id": aliceGA, "team_name": "x"}, http.StatusNotFound, "not_found"},
		{"duplicate registration", http.MethodPost, "/v1/registrations", captain, map[string]string{"competition_id": comp.String(), "game_account_id": captainGA, "team_name": "Other"}, http.StatusConflict, "integrity"},
		{"invalid team name", http.MethodPost, "/v1/registrations", alice, map[string]string{"competition_id": comp.String(), "game_account_id": aliceGA, "team_name": "   "}, http.StatusBadRequest, "invalid_input"},
		{"malformed body", http.MethodPost, regPath + "/invites", captain, "not an object", http.StatusBadRequest, ""},
		{"both invite targets", http.MethodPost, regPath + "/invites", captain, map[string]string{"account_id": alice.String(), "username_or_email": "alice"}, http.StatusBadRequest, ""},
		{"no invite target", http.MethodPost, regPath + "/invites", captain, map[string]string{}, http.StatusBadRequest, ""},
		{"unknown handle", http.MethodPost, regPath + "/invites", captain, map[string]string{"username_or_email": "ghost"}, http.StatusNotFound, "not_found"},
		{"not captain", http.MethodPost, regPath + "/invites", alice, map[string]string{"account_id": captain.String()}, http.StatusForbidden, "authorization"},
		{"captain invites self", http.MethodPost, regPath + "/invites", captain, map[string]string{"account_id": captain.String()}, http.StatusConflict, "integrity"},
		{"bad registration id", http.MethodGet, "/v1/registrations/nope", captain, nil, http.StatusBadRequest, ""},
		{"unknown registration", http.MethodGet, "/v1/registrations/" + uuid.NewString(), captain, nil, http.StatusNotFound, "not_found"},
		{"unknown invite", http.MethodPost, "/v1/invites/" + uuid.NewString() + "/accept", alice, map[string]string{"game_account_id": aliceGA}, http.StatusNotFound, "not_found"},
		{"accept without game account", http.MethodPost, "/v1/invites/" + uuid.NewString() + "/accept", alice, map[string]string{}, http.StatusBadRequest, ""},
		{"bad direction", http.MethodGet, "/v1/invites?direction=sideways", alice, nil, http.StatusBadRequest, ""},
		{"bad status", http.MethodGet, "/v1/invites?status=maybe", alice, nil, http.StatusBadRequest, ""},
		{"evict captain", http.MethodDelete, regPath + "/members/" + captain.String(), captain, nil, http.StatusConflict, "integrity"},
		{"evict non-member", http.MethodDelete, regPath + "/members/" + alice.String(), captain, nil, http.StatusConflict, "integrity"},
		{"submit while forming", http.MethodPost, regPath + "/submit", captain, nil, http.StatusConflict, "state"},
		{"unknown route", http.MethodGet, "/v1/nothing", captain, nil, http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, out := api.do(tt.method, tt.path, tt.actor, tt.body)
			if code != tt.want {
				t.Fatalf("status = %d, want %d (%v)", code, tt.want, out)
			}
			if out["error"] == nil || out["error"] == "" {
				t.Errorf("missing error message: %v", out)
			}
			if tt.wantKind != "" && out["kind"] != tt.wantKind {
				t.Errorf("kind = %v, want %s", out["kind"], tt.wantKind)
			}
		})
	}
}

func TestRouter_RemoveMember(t *testing.T) {
	api, f := newAPI(t)
	comp := f.Competition(t, 3, 4)
	captain := f.Account(t, "captain")
	alice := f.Account(t, "alice")

	reg := api.mustDo(http.MethodPost, "/v1/registrations", captain, map[string]string{
		"competition_id":  comp.String(),
		"game_account_id": f.GameAccountOf(t, captain).String(),
		"team_name":       "Night Owls",
	}, http.StatusCreated)
	regPath := "/v1/registrations/" + reg["id"].(string)

	inv := api.mustDo(http.MethodPost, regPath+"/invites", captain, map[string]string{"account_id": alice.String()}, http.StatusCreated)
	api.mustDo(http.MethodPost, "/v1/invites/"+inv["invite"].(map[string]any)["id"].(string)+"/accept", alice,
		map[string]string{"game_account_id": f.GameAccountOf(t, alice).String()}, http.StatusOK)

	api.mustDo(http.MethodDelete, regPath+"/members/"+alice.String(), alice, nil, http.StatusForbidden)
	api.mustDo(http.MethodDelete, regPath+"/members/"+alice.String(), captain, nil, http.StatusOK)

	roster := api.mustDo(http.MethodGet, regPath, captain, nil, http.StatusOK)
	if members := roster["members"].([]any); len(members) != 1 {
		t.Errorf("members = %d, want 1", len(members))
	}
}
