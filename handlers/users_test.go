package handlers

import (
	"net/http"
	"testing"
)

func TestUserAccount(t *testing.T) {
	api := newTestAPI(t)
	token, _ := api.register("alice")

	user := api.expect(api.request(http.MethodGet, "/api/v1/users", token, nil), http.StatusOK)["user"].(map[string]any)
	if user["userName"] != "alice" || user["email"] != "alice@example.com" {
		t.Errorf("user = %v", user)
	}
	for _, key := range []string{"password", "passwordHash", "PasswordHash"} {
		if _, ok := user[key]; ok {
			t.Errorf("response leaks %s", key)
		}
	}

	body := api.expect(api.request(http.MethodPatch, "/api/v1/users", token, map[string]string{"firstName": " Alicia "}), http.StatusOK)
	if body["message"] != "User Updated Successfully" || body["modifiedCount"] != float64(1) {
		t.Errorf("update body = %v", body)
	}
	user = api.expect(api.request(http.MethodGet, "/api/v1/users", token, nil), http.StatusOK)["user"].(map[string]any)
	if user["firstName"] != "Alicia" {
		t.Errorf("firstName = %v", user["firstName"])
	}

	api.expect(api.request(http.MethodPatch, "/api/v1/users", token, map[string]string{"email": "not-an-email"}), http.StatusUnprocessableEntity)

	api.register("bob")
	body = api.expect(api.request(http.MethodPatch, "/api/v1/users", token, map[string]string{"userName": "bob"}), http.StatusBadRequest)
	if errorKind(body) != "DUPLICATE_KEY" {
		t.Errorf("taken user name kind = %q", errorKind(body))
	}
}

func TestPasswordReset(t *testing.T) {
	api := newTestAPI(t)
	token, _ := api.register("alice")

	api.expect(api.request(http.MethodPatch, "/api/v1/users/password-reset", token, map[string]string{"password": "weak"}), http.StatusUnprocessableEntity)
	api.expect(api.request(http.MethodPatch, "/api/v1/users/password-reset", token, map[string]string{}), http.StatusBadRequest)
	api.expect(api.request(http.MethodPatch, "/api/v1/users/password-reset", token, map[string]string{"password": "Changed99"}), http.StatusOK)

	login := func(password string) int {
		return api.request(http.MethodPost, "/api/v1/login", "", map[string]string{
			"emailOrUserName": "alice@example.com", "password": password,
		}).Code
	}
	if code := login("Secret123"); code != http.StatusBadRequest {
		t.Errorf("old password: status %d, want 400", code)
	}
	if code := login("Changed99"); code != http.StatusOK {
		t.Errorf("new password: status %d, want 200", code)
	}
}

func TestDeleteUser(t *testing.T) {
	api := newTestAPI(t)
	token, refresh := api.register("alice")
	other, _ := api.register("bob")

	listID := api.expect(api.request(http.MethodPost, "/api/v1/lists", token, map[string]string{"heading": "L"}), http.StatusCreated)["id"].(string)
	api.expect(api.request(http.MethodPost, "/api/v1/tasks", token, map[string]string{"heading": "T", "listID": listID}), http.StatusCreated)
	api.expect(api.request(http.MethodPost, "/api/v1/sticky-notes", other, map[string]string{"content": "keep"}), http.StatusCreated)

	body := api.expect(api.request(http.MethodDelete, "/api/v1/users", token, nil), http.StatusOK)
	if body["message"] != "User Deleted Successfully" || body["deletedCount"] != float64(1) {
		t.Errorf("delete body = %v", body)
	}

	api.expect(api.request(http.MethodGet, "/api/v1/users", token, nil), http.StatusUnprocessableEntity)
	api.expect(api.request(http.MethodPost, "/api/v1/refresh-token", "", nil, "X-Refresh-Token", "Bearer "+refresh), http.StatusUnauthorized)

	notes := api.expect(api.request(http.MethodGet, "/api/v1/sticky-notes", other, nil), http.StatusOK)["stickyNotes"].([]any)
	if len(notes) != 1 {
		t.Errorf("other user's notes = %d, want 1", len(notes))
	}
}

func TestHealthz(t *testing.T) {
	api := newTestAPI(t)
	if body := api.expect(api.request(http.MethodGet, "/healthz", "", nil), http.StatusOK); body["message"] != "OK" {
		t.Errorf("healthz body = %v", body)
	}
}
