package main

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"mini-planner/auth"
	"mini-planner/config"
	"mini-planner/handlers"
	appmw "mini-planner/middleware"
)

var router http.Handler

// TestMain runs the flow against TEST_DSN when set and the memory store
// otherwise.
func TestMain(m *testing.M) {
	if err := godotenv.Load(".env.test"); err != nil {
		log.Println("Warning: no .env.test file, using the memory store")
	}
	auth.PasswordCost = bcrypt.MinCost

	driver := os.Getenv("TEST_DB_DRIVER")
	if driver == "" {
		driver = "mysql"
	}
	dbCfg := config.DatabaseConfig{Driver: "memory", QueryTimeout: 5 * time.Second}
	if dsn := os.Getenv("TEST_DSN"); dsn != "" {
		dbCfg.Driver, dbCfg.DSN = driver, dsn
	}

	repo, err := openRepository(context.Background(), dbCfg, zap.NewNop())
	if err != nil {
		log.Fatalf("open repository: %v", err)
	}

	router = handlers.NewRouter(handlers.Deps{
		Repo:     repo,
		Tokens:   auth.NewTokens("integration-access", "integration-refresh", time.Hour, 24*time.Hour),
		Sessions: auth.NewMemorySessions(),
		Log:      zap.NewNop(),
		Metrics:  appmw.NewMetrics(),
	})

	code := m.Run()
	repo.Close()
	os.Exit(code)
}

func call(t *testing.T, method, path, token string, body any) (int, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	var out map[string]any
	json.Unmarshal(resp.Body.Bytes(), &out)
	return resp.Code, out
}

// signUp registers a fresh user and returns its access token.
func signUp(t *testing.T) string {
	t.Helper()
	name := "it" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	code, body := call(t, http.MethodPost, "/api/v1/signup", "", map[string]string{
		"userName":        name,
		"email":           name + "@example.com",
		"password":        "Integration1",
		"confirmPassword": "Integration1",
		"firstName":       "Integration",
		"lastName":        "Test",
	})
	if code != http.StatusCreated {
		t.Fatalf("signup: status %d, body %v", code, body)
	}
	code, body = call(t, http.MethodPost, "/api/v1/login", "", map[string]string{
		"emailOrUserName": name,
		"password":        "Integration1",
	})
	if code != http.StatusOK {
		t.Fatalf("login: status %d, body %v", code, body)
	}
	return body["accessToken"].(string)
}

func TestCreateAndGetTask(t *testing.T) {
	token := signUp(t)

	code, body := call(t, http.MethodPost, "/api/v1/lists", token, map[string]string{"heading": "Work"})
	if code != http.StatusCreated {
		t.Fatalf("create list: status %d, body %v", code, body)
	}
	listID := body["id"].(string)

	code, body = call(t, http.MethodPost, "/api/v1/tasks", token, map[string]any{
		"heading": "Integration Test Task",
		"listID":  listID,
		"dueDate": "2026-12-01",
	})
	if code != http.StatusCreated {
		t.Fatalf("create task: status %d, body %v", code, body)
	}
	taskID := body["id"].(string)

	code, body = call(t, http.MethodGet, "/api/v1/tasks?perPage=10", token, nil)
	if code != http.StatusOK {
		t.Fatalf("get tasks: status %d", code)
	}
	found := false
	for _, raw := range body["tasks"].([]any) {
		task := raw.(map[string]any)
		if task["id"] == taskID {
			found = true
			if list, _ := task["list"].(map[string]any); list["heading"] != "Work" {
				t.Errorf("joined list = %v", task["list"])
			}
		}
	}
	if !found {
		t.Error("Created task not found in the list of tasks")
	}
}

func TestUpdateTask(t *testing.T) {
	token := signUp(t)

	_, body := call(t, http.MethodPost, "/api/v1/tasks", token, map[string]string{"heading": "Task to be updated"})
	taskID := body["id"].(string)

	for i := 0; i < 2; i++ {
		code, body := call(t, http.MethodPatch, "/api/v1/tasks/"+taskID, token, map[string]string{
			"heading": "Updated integration test task",
		})
		if code != http.StatusOK || body["modifiedCount"] != float64(1) {
			t.Fatalf("update %d: status %d, body %v", i+1, code, body)
		}
	}

	_, body = call(t, http.MethodGet, "/api/v1/tasks/"+taskID, token, nil)
	if task := body["task"].(map[string]any); task["heading"] != "Updated integration test task" {
		t.Errorf("Task was not correctly updated, got heading: %v", task["heading"])
	}
}

func TestDeleteUserCascades(t *testing.T) {
	token := signUp(t)
	other := signUp(t)

	_, body := call(t, http.MethodPost, "/api/v1/tags", token, map[string]string{"heading": "Home"})
	tagID := body["id"].(string)
	call(t, http.MethodPost, "/api/v1/tasks", token, map[string]string{"heading": "Tagged", "tagID": tagID})
	call(t, http.MethodPost, "/api/v1/sticky-notes", token, map[string]string{"content": "Remember"})

	if code, _ := call(t, http.MethodGet, "/api/v1/tags/"+tagID, other, nil); code != http.StatusForbidden {
		t.Errorf("foreign tag read: status %d, want 403", code)
	}

	if code, body := call(t, http.MethodDelete, "/api/v1/users", token, nil); code != http.StatusOK {
		t.Fatalf("delete user: status %d, body %v", code, body)
	}
	if code, _ := call(t, http.MethodGet, "/api/v1/tags/"+tagID, other, nil); code != http.StatusUnprocessableEntity {
		t.Errorf("tag survived its owner: status %d, want 422", code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	call(t, http.MethodGet, "/healthz", "", nil)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("metrics: status %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), `planner_http_requests_total{method="GET",route="/healthz",status="200"}`) {
		t.Error("healthz request not counted")
	}
}
