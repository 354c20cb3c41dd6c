package handlers

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
)

func TestTaskFlow(t *testing.T) {
	api := newTestAPI(t)
	token, _ := api.register("alice")

	listID := api.expect(api.request(http.MethodPost, "/api/v1/lists", token, map[string]string{"heading": "Groceries"}), http.StatusCreated)["id"].(string)
	tagID := api.expect(api.request(http.MethodPost, "/api/v1/tags", token, map[string]string{"heading": "Errand", "color": "#123456"}), http.StatusCreated)["id"].(string)

	buy := api.expect(api.request(http.MethodPost, "/api/v1/tasks", token, map[string]any{
		"heading":  "Buy",
		"listID":   listID,
		"tagID":    tagID,
		"dueDate":  "2026-10-20",
		"subTasks": []map[string]any{{"heading": " milk "}},
	}), http.StatusCreated)["id"].(string)
	api.expect(api.request(http.MethodPost, "/api/v1/tasks", token, map[string]any{
		"heading": "Other",
		"dueDate": "2026-11-01T10:00:00Z",
	}), http.StatusCreated)

	task := api.expect(api.request(http.MethodGet, "/api/v1/tasks/"+buy, token, nil), http.StatusOK)["task"].(map[string]any)
	if list, _ := task["list"].(map[string]any); list["heading"] != "Groceries" {
		t.Errorf("joined list = %v", task["list"])
	}
	if tag, _ := task["tag"].(map[string]any); tag["color"] != "#123456" {
		t.Errorf("joined tag = %v", task["tag"])
	}
	if task["dueDate"] != "2026-10-20T00:00:00Z" {
		t.Errorf("dueDate = %v", task["dueDate"])
	}
	if subs := task["subTasks"].([]any); len(subs) != 1 || subs[0].(map[string]any)["heading"] != "milk" {
		t.Errorf("subTasks = %v", task["subTasks"])
	}

	body := api.expect(api.request(http.MethodPatch, "/api/v1/tasks/"+buy+"/toggle-done", token, nil), http.StatusOK)
	if body["message"] != "Task Updated Successfully" || body["modifiedCount"] != float64(1) {
		t.Errorf("toggle body = %v", body)
	}

	tests := []struct {
		name string
		path string
		want int
	}{
		{"All", "/api/v1/tasks", 2},
		{"Done", "/api/v1/tasks?done=true", 1},
		{"Not done", "/api/v1/tasks?done=false", 1},
		{"Due after", "/api/v1/tasks?dueDateFrom=2026-10-25", 1},
		{"Due window", "/api/v1/tasks?dueDateFrom=2026-10-01&dueDateTo=2026-10-20", 1},
		{"By list", "/api/v1/tasks/lists/" + listID, 1},
		{"By tag", "/api/v1/tasks/tags/" + tagID, 1},
		{"By unknown list", "/api/v1/tasks/lists/" + uuid.NewString(), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := api.expect(api.request(http.MethodGet, tt.path, token, nil), http.StatusOK)
			if got := len(body["tasks"].([]any)); got != tt.want {
				t.Errorf("got %d tasks, want %d", got, tt.want)
			}
		})
	}

	body = api.expect(api.request(http.MethodGet, "/api/v1/tasks/count?done=true", token, nil), http.StatusOK)
	if body["count"] != float64(1) {
		t.Errorf("count = %v", body["count"])
	}

	api.expect(api.request(http.MethodPatch, "/api/v1/tasks/"+buy, token, map[string]string{"listID": ""}), http.StatusOK)
	api.expect(api.request(http.MethodDelete, "/api/v1/tags/"+tagID, token, nil), http.StatusOK)
	task = api.expect(api.request(http.MethodGet, "/api/v1/tasks/"+buy, token, nil), http.StatusOK)["task"].(map[string]any)
	if task["listID"] != nil || task["tagID"] != nil {
		t.Errorf("references survived: listID=%v tagID=%v", task["listID"], task["tagID"])
	}

	body = api.expect(api.request(http.MethodDelete, "/api/v1/tasks/"+buy, token, nil), http.StatusOK)
	if body["deletedCount"] != float64(1) {
		t.Errorf("deletedCount = %v", body["deletedCount"])
	}
}

func TestTaskInputErrors(t *testing.T) {
	api := newTestAPI(t)
	token, _ := api.register("alice")
	other, _ := api.register("bob")
	foreignList := api.expect(api.request(http.MethodPost, "/api/v1/lists", other, map[string]string{"heading": "Bob's"}), http.StatusCreated)["id"].(string)

	tests := []struct {
		name string
		body map[string]any
		want int
		kind string
	}{
		{"Missing heading", map[string]any{"description": "x"}, http.StatusBadRequest, "MISSING_FIELD"},
		{"Bad due date", map[string]any{"heading": "x", "dueDate": "tomorrow"}, http.StatusUnprocessableEntity, "VALIDATION_FAILED"},
		{"Malformed list id", map[string]any{"heading": "x", "listID": "abc"}, http.StatusBadRequest, "INVALID_IDENTIFIER"},
		{"Missing list", map[string]any{"heading": "x", "listID": uuid.NewString()}, http.StatusUnprocessableEntity, "RELATED_ENTITY_MISSING"},
		{"Another user's list", map[string]any{"heading": "x", "listID": foreignList}, http.StatusUnprocessableEntity, "RELATED_ENTITY_MISSING"},
		{"Missing tag", map[string]any{"heading": "x", "tagID": uuid.NewString()}, http.StatusUnprocessableEntity, "RELATED_ENTITY_MISSING"},
		{"Blank sub task", map[string]any{"heading": "x", "subTasks": []map[string]any{{"heading": ""}}}, http.StatusBadRequest, "MISSING_FIELD"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := api.request(http.MethodPost, "/api/v1/tasks", token, tt.body)
			if rr.Code != tt.want {
				t.Fatalf("status = %d, want %d; body %s", rr.Code, tt.want, rr.Body.String())
			}
			if kind := errorKind(api.expect(rr, tt.want)); kind != tt.kind {
				t.Errorf("kind = %q, want %q", kind, tt.kind)
			}
		})
	}

	if rr := api.request(http.MethodGet, "/api/v1/tasks?done=maybe", token, nil); rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("bad done filter: status %d, want 422", rr.Code)
	}
	if rr := api.request(http.MethodGet, "/api/v1/tasks/tags/abc", token, nil); rr.Code != http.StatusBadRequest {
		t.Errorf("malformed tag id: status %d, want 400", rr.Code)
	}
}
