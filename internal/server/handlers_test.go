package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"deployer/internal/project"
)

const testSecret = "kJ8mN2pQ5tR7vX1zB4cE6gH9jL3nP8qS2uW5yA7bD0fG3hK6"

const testRepoConfig = `[defaults]
method = "makefile"
playbook = "ansible/deploy.yml"

[branches.main]
task = "deploy"
notify_url = "https://hooks.example.com/main"

[branches."release/v1"]
task = "deploy"

[branches.staging]
method = "ansible"
inventory = "ansible/inventory/staging"
`

func writeTestFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("Failed to create directory for %s: %v", name, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
}

func setupTestServer(t *testing.T) (*Server, *project.Project) {
	tmpDir := t.TempDir()
	writeTestFile(t, tmpDir, "Makefile", "deploy:\n\t./deploy.sh\n")
	writeTestFile(t, tmpDir, "ansible/deploy.yml", "- hosts: all\n  roles:\n    - app\n")
	writeTestFile(t, tmpDir, "ansible/inventory/staging", "[web]\nstaging.example.com\n")
	writeTestFile(t, tmpDir, ".deployer.conf", testRepoConfig)

	testProject := &project.Project{
		Name:   "test-project",
		Path:   tmpDir,
		Secret: testSecret,
	}

	registry := project.NewRegistry(map[string]*project.Project{
		"test-project": testProject,
	}, filepath.Join(tmpDir, "projects.yaml"))

	// Test mode disables rate limiting
	server := NewServer(registry, zerolog.Nop(), true)

	return server, testProject
}

func newWebhookRequest(t *testing.T, projectName string, payload []byte, secret string) *http.Request {
	t.Helper()
	req := httptest.NewRequest("POST", "/in/"+projectName, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-GitHub-Event", "push")
	req.Header.Set("X-Hub-Signature-256", Sign(payload, secret))
	return req
}

func decodeMap(t *testing.T, rr *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var response map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to decode response %q: %v", rr.Body.String(), err)
	}
	return response
}

func decodePlan(t *testing.T, rr *httptest.ResponseRecorder) Plan {
	t.Helper()
	var plan Plan
	if err := json.Unmarshal(rr.Body.Bytes(), &plan); err != nil {
		t.Fatalf("Failed to decode plan %q: %v", rr.Body.String(), err)
	}
	return plan
}

func TestHandleWebhook_UnknownProject(t *testing.T) {
	server, _ := setupTestServer(t)

	req := newWebhookRequest(t, "unknown-project", []byte(`{"ref":"refs/heads/main"}`), testSecret)
	rr := httptest.NewRecorder()
	server.Router().ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", rr.Code)
	}
	if response := decodeMap(t, rr); response["error"] != "Unknown project" {
		t.Errorf("Expected 'Unknown project' error, got %v", response)
	}
}

func TestHandleWebhook_InvalidProjectName(t *testing.T) {
	server, _ := setupTestServer(t)

	req := newWebhookRequest(t, ".hidden", []byte(`{"ref":"refs/heads/main"}`), testSecret)
	rr := httptest.NewRecorder()
	server.Router().ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rr.Code)
	}
}

func TestHandleWebhook_InvalidSignature(t *testing.T) {
	server, _ := setupTestServer(t)

	req := newWebhookRequest(t, "test-project", []byte(`{"ref":"refs/heads/main"}`), "wrong-secret-32-chars-long-xxxxxxx")
	rr := httptest.NewRecorder()
	server.Router().ServeHTTP(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Errorf("Expected status 403, got %d", rr.Code)
	}
	if response := decodeMap(t, rr); response["error"] != "Invalid signature" {
		t.Errorf("Expected 'Invalid signature' error, got %v", response)
	}
}

func TestHandleWebhook_PayloadTooLarge(t *testing.T) {
	server, _ := setupTestServer(t)

	// Create payload larger than 1MB
	largePayload := make([]byte, MaxPayloadBytes+1)

	req := httptest.NewRequest("POST", "/in/test-project", bytes.NewReader(largePayload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-GitHub-Event", "push")

	rr := httptest.NewRecorder()
	server.Router().ServeHTTP(rr, req)

	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("Expected status 413, got %d", rr.Code)
	}
}

func TestHandleWebhook_InvalidContentType(t *testing.T) {
	server, testProject := setupTestServer(t)

	req := newWebhookRequest(t, "test-project", []byte(`{"ref":"refs/heads/main"}`), testProject.Secret)
	req.Header.Set("Content-Type", "text/plain") // Wrong content type

	rr := httptest.NewRecorder()
	server.Router().ServeHTTP(rr, req)

	if rr.Code != http.StatusUnsupportedMediaType {
		t.Errorf("Expected status 415, got %d", rr.Code)
	}
}

func TestHandleWebhook_NonPushEvent(t *testing.T) {
	server, testProject := setupTestServer(t)

	req := newWebhookRequest(t, "test-project", []byte(`{"ref":"refs/heads/main"}`), testProject.Secret)
	req.Header.Set("X-GitHub-Event", "pull_request") // Not a push event

	rr := httptest.NewRecorder()
	server.Router().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rr.Code)
	}
	if response := decodeMap(t, rr); response["message"] != "Ignoring non-push event" {
		t.Errorf("Expected 'Ignoring non-push event' message, got %v", response)
	}
}

func TestHandleWebhook_Skips(t *testing.T) {
	server, testProject := setupTestServer(t)

	tests := []struct {
		name    string
		payload string
		message string
	}{
		{"empty payload", `{}`, "Missing payload, skipping"},
		{"tag push", `{"ref":"refs/tags/v1.0.0"}`, "Not a branch push, skipping"},
		{"unconfigured branch", `{"ref":"refs/heads/develop"}`, "No deployment configured for branch, skipping"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := newWebhookRequest(t, "test-project", []byte(tt.payload), testProject.Secret)
			rr := httptest.NewRecorder()
			server.Router().ServeHTTP(rr, req)

			if rr.Code != http.StatusOK {
				t.Errorf("Expected status 200, got %d", rr.Code)
			}
			if response := decodeMap(t, rr); response["message"] != tt.message {
				t.Errorf("Expected %q message, got %v", tt.message, response)
			}
		})
	}
}

func TestHandleWebhook_InvalidJSON(t *testing.T) {
	server, testProject := setupTestServer(t)

	req := newWebhookRequest(t, "test-project", []byte(`{"ref":`), testProject.Secret)
	rr := httptest.NewRecorder()
	server.Router().ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rr.Code)
	}
}

func TestHandleWebhook_InvalidBranchName(t *testing.T) {
	server, testProject := setupTestServer(t)

	req := newWebhookRequest(t, "test-project", []byte(`{"ref":"refs/heads/main;rm"}`), testProject.Secret)
	rr := httptest.NewRecorder()
	server.Router().ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rr.Code)
	}
}

func TestHandleWebhook_ReturnsPlan(t *testing.T) {
	server, testProject := setupTestServer(t)

	payload := []byte(`{"ref":"refs/heads/main","after":"abc123"}`)
	req := newWebhookRequest(t, "test-project", payload, testProject.Secret)
	rr := httptest.NewRecorder()
	server.Router().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	plan := decodePlan(t, rr)
	if plan.Method != "makefile" || plan.Branch != "main" || plan.Project != "test-project" {
		t.Errorf("Unexpected plan: %+v", plan)
	}
	if plan.Task == nil || plan.Task.Name != "deploy" {
		t.Fatalf("Expected task 'deploy', got %+v", plan.Task)
	}
	if plan.NotifyURL == nil || *plan.NotifyURL != "https://hooks.example.com/main" {
		t.Errorf("Expected notify_url, got %v", plan.NotifyURL)
	}
}

func TestHandleWebhook_BrokenConfig(t *testing.T) {
	server, testProject := setupTestServer(t)
	writeTestFile(t, testProject.Path, ".deployer.conf", "[defaults]\nmethod = \"docker\"\n\n[branches.main]\ntask = \"deploy\"\n")

	req := newWebhookRequest(t, "test-project", []byte(`{"ref":"refs/heads/main"}`), testProject.Secret)
	rr := httptest.NewRecorder()
	server.Router().ServeHTTP(rr, req)

	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("Expected status 422, got %d", rr.Code)
	}
	if response := decodeMap(t, rr); response["subject"] != "defaults.method" {
		t.Errorf("Expected subject 'defaults.method', got %v", response)
	}
}

func TestHandlePlan(t *testing.T) {
	server, _ := setupTestServer(t)

	t.Run("makefile branch", func(t *testing.T) {
		rr := httptest.NewRecorder()
		server.Router().ServeHTTP(rr, httptest.NewRequest("GET", "/plan/test-project/main", nil))

		if rr.Code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d: %s", rr.Code, rr.Body.String())
		}
		plan := decodePlan(t, rr)
		if plan.Task == nil || plan.Task.Name != "deploy" || plan.Playbook != "" {
			t.Errorf("Unexpected plan: %+v", plan)
		}
	})

	t.Run("branch with slash", func(t *testing.T) {
		rr := httptest.NewRecorder()
		server.Router().ServeHTTP(rr, httptest.NewRequest("GET", "/plan/test-project/release/v1", nil))

		if rr.Code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d: %s", rr.Code, rr.Body.String())
		}
		if plan := decodePlan(t, rr); plan.Branch != "release/v1" || plan.NotifyURL != nil {
			t.Errorf("Unexpected plan: %+v", plan)
		}
	})

	t.Run("ansible branch", func(t *testing.T) {
		rr := httptest.NewRecorder()
		server.Router().ServeHTTP(rr, httptest.NewRequest("GET", "/plan/test-project/staging", nil))

		if rr.Code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d: %s", rr.Code, rr.Body.String())
		}
		plan := decodePlan(t, rr)
		if plan.Method != "ansible" || plan.Task != nil {
			t.Errorf("Unexpected plan: %+v", plan)
		}
		if plan.Playbook != "ansible/deploy.yml" || plan.Inventory != "ansible/inventory/staging" {
			t.Errorf("Unexpected playbook/inventory: %+v", plan)
		}
		want := "ansible-playbook -i ansible/inventory/staging ansible/deploy.yml"
		if plan.Command != want {
			t.Errorf("Command = %q, want %q", plan.Command, want)
		}
	})

	t.Run("unknown branch", func(t *testing.T) {
		rr := httptest.NewRecorder()
		server.Router().ServeHTTP(rr, httptest.NewRequest("GET", "/plan/test-project/develop", nil))

		if rr.Code != http.StatusNotFound {
			t.Errorf("Expected status 404, got %d", rr.Code)
		}
	})

	t.Run("unknown project", func(t *testing.T) {
		rr := httptest.NewRecorder()
		server.Router().ServeHTTP(rr, httptest.NewRequest("GET", "/plan/other/main", nil))

		if rr.Code != http.StatusNotFound {
			t.Errorf("Expected status 404, got %d", rr.Code)
		}
	})
}

func TestHandlePlan_MissingConfig(t *testing.T) {
	server, testProject := setupTestServer(t)
	if err := os.Remove(filepath.Join(testProject.Path, ".deployer.conf")); err != nil {
		t.Fatalf("Failed to remove config: %v", err)
	}

	rr := httptest.NewRecorder()
	server.Router().ServeHTTP(rr, httptest.NewRequest("GET", "/plan/test-project/main", nil))

	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("Expected status 422, got %d", rr.Code)
	}
	response := decodeMap(t, rr)
	if response["error"] != "could not open deployer configuration" {
		t.Errorf("Unexpected error: %v", response)
	}
	if response["subject"] != filepath.Join(testProject.Path, ".deployer.conf") {
		t.Errorf("Unexpected subject: %v", response)
	}
}

func TestHandleHealth(t *testing.T) {
	server, _ := setupTestServer(t)

	rr := httptest.NewRecorder()
	server.Router().ServeHTTP(rr, httptest.NewRequest("GET", "/health", nil))

	if rr.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rr.Code)
	}

	var response map[string]interface{}
	if err := json.Unmarshal(rr.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if response["status"] != "ok" {
		t.Errorf("Expected status 'ok', got %v", response["status"])
	}
	if response["project_count"] != float64(1) {
		t.Errorf("Expected project_count 1, got %v", response["project_count"])
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	handler := NewRateLimitMiddleware(2, zerolog.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/health", nil)
		req.RemoteAddr = "192.0.2.1:1234"
		handler.ServeHTTP(rr, req)
		codes = append(codes, rr.Code)
	}

	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Errorf("Expected [200 200 429], got %v", codes)
	}
}
