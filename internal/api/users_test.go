package api

import (
	"encoding/json"
	"net/http"
	"testing"
)

func TestHandleListUsers(t *testing.T) {
	srv, repo := testServer(t)
	admin := adminToken(t, srv, repo)
	standard, _ := registerAndLogin(t, srv, "marcos")

	// Standard users cannot list.
	rec := doRequest(t, srv, http.MethodGet, "/api/v1/users/", standard, "")
	if rec.Code != http.StatusForbidden {
		t.Errorf("list as standard: status = %d, want 403", rec.Code)
	}

	rec = doRequest(t, srv, http.MethodGet, "/api/v1/users/", admin, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list as admin: status = %d, want 200 (body: %s)", rec.Code, rec.Body.String())
	}

	var body struct {
		Users []json.RawMessage `json:"users"`
		Count int               `json:"count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if body.Count != 2 {
		t.Errorf("count = %d, want 2", body.Count)
	}
}

func TestHandleGetUser(t *testing.T) {
	srv, repo := testServer(t)
	admin := adminToken(t, srv, repo)
	aliceToken, aliceID := registerAndLogin(t, srv, "alice")
	_, bobID := registerAndLogin(t, srv, "bob")

	// Self access.
	rec := doRequest(t, srv, http.MethodGet, "/api/v1/users/"+aliceID+"/", aliceToken, "")
	if rec.Code != http.StatusOK {
		t.Errorf("get self: status = %d, want 200", rec.Code)
	}

	// Standard user cannot read another record.
	rec = doRequest(t, srv, http.MethodGet, "/api/v1/users/"+bobID+"/", aliceToken, "")
	if rec.Code != http.StatusForbidden {
		t.Errorf("get other as standard: status = %d, want 403", rec.Code)
	}

	// Admin reads anyone.
	rec = doRequest(t, srv, http.MethodGet, "/api/v1/users/"+bobID+"/", admin, "")
	if rec.Code != http.StatusOK {
		t.Errorf("get as admin: status = %d, want 200", rec.Code)
	}

	// Unknown id.
	rec = doRequest(t, srv, http.MethodGet, "/api/v1/users/usr-missing0/", admin, "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("get missing: status = %d, want 404", rec.Code)
	}
}

func TestHandleUpdateUser(t *testing.T) {
	srv, _ := testServer(t)
	token, id := registerAndLogin(t, srv, "marcos")

	rec := doRequest(t, srv, http.MethodPatch, "/api/v1/users/"+id+"/", token,
		`{"display_name":"Marcos Serna"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body: %s)", rec.Code, rec.Body.String())
	}

	var profile struct {
		DisplayName string `json:"display_name"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &profile); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if profile.DisplayName != "Marcos Serna" {
		t.Errorf("display_name = %q, want Marcos Serna", profile.DisplayName)
	}

	// Password change takes effect at the next login.
	rec = doRequest(t, srv, http.MethodPatch, "/api/v1/users/"+id+"/", token,
		`{"password":"new-password-1"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("password patch: status = %d (body: %s)", rec.Code, rec.Body.String())
	}

	rec = doRequest(t, srv, http.MethodPost, "/api/v1/auth/login", "",
		`{"username":"marcos","password":"new-password-1"}`)
	if rec.Code != http.StatusOK {
		t.Errorf("login with new password: status = %d, want 200", rec.Code)
	}
	rec = doRequest(t, srv, http.MethodPost, "/api/v1/auth/login", "",
		`{"username":"marcos","password":"correct-horse"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("login with old password: status = %d, want 401", rec.Code)
	}
}

func TestHandleSetUserActive(t *testing.T) {
	srv, repo := testServer(t)
	admin := adminToken(t, srv, repo)
	aliceToken, aliceID := registerAndLogin(t, srv, "alice")

	// Standard user cannot toggle activation.
	rec := doRequest(t, srv, http.MethodPut, "/api/v1/users/"+aliceID+"/active", aliceToken,
		`{"active":false}`)
	if rec.Code != http.StatusForbidden {
		t.Errorf("set active as standard: status = %d, want 403", rec.Code)
	}

	// Missing field.
	rec = doRequest(t, srv, http.MethodPut, "/api/v1/users/"+aliceID+"/active", admin, `{}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("set active without field: status = %d, want 400", rec.Code)
	}

	// Deactivate.
	rec = doRequest(t, srv, http.MethodPut, "/api/v1/users/"+aliceID+"/active", admin,
		`{"active":false}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("deactivate: status = %d (body: %s)", rec.Code, rec.Body.String())
	}

	// Deactivated accounts cannot log in.
	rec = doRequest(t, srv, http.MethodPost, "/api/v1/auth/login", "",
		`{"username":"alice","password":"correct-horse"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("login while deactivated: status = %d, want 401", rec.Code)
	}
}

func TestHandleSetUserActive_SelfDeactivation(t *testing.T) {
	srv, repo := testServer(t)
	admin := adminToken(t, srv, repo)

	// Find the admin's own id via profile.
	rec := doRequest(t, srv, http.MethodGet, "/api/v1/auth/profile", admin, "")
	var profile struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &profile); err != nil {
		t.Fatalf("decoding profile: %v", err)
	}

	rec = doRequest(t, srv, http.MethodPut, "/api/v1/users/"+profile.ID+"/active", admin,
		`{"active":false}`)
	if rec.Code != http.StatusConflict {
		t.Errorf("self deactivation: status = %d, want 409 (body: %s)", rec.Code, rec.Body.String())
	}
}

func TestHandleSetUserRole(t *testing.T) {
	srv, repo := testServer(t)
	admin := adminToken(t, srv, repo)
	aliceToken, aliceID := registerAndLogin(t, srv, "alice")

	// Standard user cannot change roles.
	rec := doRequest(t, srv, http.MethodPut, "/api/v1/users/"+aliceID+"/role", aliceToken,
		`{"role":"admin"}`)
	if rec.Code != http.StatusForbidden {
		t.Errorf("set role as standard: status = %d, want 403", rec.Code)
	}

	// Unknown role.
	rec = doRequest(t, srv, http.MethodPut, "/api/v1/users/"+aliceID+"/role", admin,
		`{"role":"root"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("set unknown role: status = %d, want 400", rec.Code)
	}

	// Promote.
	rec = doRequest(t, srv, http.MethodPut, "/api/v1/users/"+aliceID+"/role", admin,
		`{"role":"admin"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("promote: status = %d (body: %s)", rec.Code, rec.Body.String())
	}

	var profile struct {
		Role string `json:"role"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &profile); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if profile.Role != "admin" {
		t.Errorf("role = %q, want admin", profile.Role)
	}

	// Promotion takes effect for tokens issued after the next login; the
	// old token still carries the standard role.
	rec = doRequest(t, srv, http.MethodGet, "/api/v1/users/", aliceToken, "")
	if rec.Code != http.StatusForbidden {
		t.Errorf("list with pre-promotion token: status = %d, want 403", rec.Code)
	}

	newToken, _ := loginAs(t, srv, "alice", "correct-horse")
	rec = doRequest(t, srv, http.MethodGet, "/api/v1/users/", newToken, "")
	if rec.Code != http.StatusOK {
		t.Errorf("list with post-promotion token: status = %d, want 200", rec.Code)
	}
}
