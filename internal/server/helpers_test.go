package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/tradenotehq/tradenote/backend/internal/attachments"
	"github.com/tradenotehq/tradenote/backend/internal/auth"
	"github.com/tradenotehq/tradenote/backend/internal/database"
	"github.com/tradenotehq/tradenote/backend/internal/journal"
	"github.com/tradenotehq/tradenote/backend/internal/users"
)

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.Open(":memory:", nil)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}

	tokenManager := auth.NewTokenManager(auth.TokenManagerConfig{
		SigningSecret: []byte("test-secret"),
		Issuer:        "tradenote-auth",
		Audience:      "tradenote-api",
	})

	userService, err := users.NewService(users.ServiceConfig{Database: db})
	if err != nil {
		t.Fatalf("failed to build user service: %v", err)
	}

	attachmentManager, err := attachments.NewManager(attachments.ManagerConfig{Dir: t.TempDir()})
	if err != nil {
		t.Fatalf("failed to build attachment manager: %v", err)
	}

	serviceConfig := journal.ServiceConfig{Database: db}
	noteRepo, err := journal.NewNotes(serviceConfig)
	if err != nil {
		t.Fatalf("failed to build notes repository: %v", err)
	}
	tradeRepo, err := journal.NewTrades(journal.TradesConfig{ServiceConfig: serviceConfig, Files: attachmentManager})
	if err != nil {
		t.Fatalf("failed to build trades repository: %v", err)
	}
	playbookRepo, err := journal.NewPlaybooks(journal.PlaybooksConfig{ServiceConfig: serviceConfig})
	if err != nil {
		t.Fatalf("failed to build playbooks repository: %v", err)
	}

	handler, err := NewHTTPHandler(Dependencies{
		TokenManager: tokenManager,
		Users:        userService,
		Notes:        noteRepo,
		Trades:       tradeRepo,
		Playbooks:    playbookRepo,
		Attachments:  attachmentManager,
	})
	if err != nil {
		t.Fatalf("failed to build handler: %v", err)
	}
	return handler
}

func doJSON(t *testing.T, handler http.Handler, method, path, token string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("failed to encode payload: %v", err)
		}
		body = bytes.NewReader(encoded)
	}
	request := httptest.NewRequest(method, path, body)
	if payload != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		request.Header.Set("Authorization", "Bearer "+token)
	}
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)
	return recorder
}

func decodeBody(t *testing.T, recorder *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var payload map[string]any
	if err := json.Unmarshal(recorder.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode response %q: %v", recorder.Body.String(), err)
	}
	return payload
}

func registerUser(t *testing.T, handler http.Handler, username, password string) {
	t.Helper()
	recorder := doJSON(t, handler, http.MethodPost, "/auth/register", "", map[string]string{
		"username": username,
		"password": password,
	})
	if recorder.Code != http.StatusCreated {
		t.Fatalf("register failed with status %d: %s", recorder.Code, recorder.Body.String())
	}
}

func loginUser(t *testing.T, handler http.Handler, username, password string) string {
	t.Helper()
	request := httptest.NewRequest(http.MethodPost, "/auth/login", http.NoBody)
	request.SetBasicAuth(username, password)
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)
	if recorder.Code != http.StatusOK {
		t.Fatalf("login failed with status %d: %s", recorder.Code, recorder.Body.String())
	}
	payload := decodeBody(t, recorder)
	token, ok := payload["token"].(string)
	if !ok || token == "" {
		t.Fatalf("login response missing token: %s", recorder.Body.String())
	}
	return token
}

func registerAndLogin(t *testing.T, handler http.Handler, username string) string {
	t.Helper()
	registerUser(t, handler, username, "secret")
	return loginUser(t, handler, username, "secret")
}

func completeTradeForm(entry string) map[string]string {
	return map[string]string{
		"ticker":         "AAPL",
		"result":         "win",
		"total_pnl":      "142.5",
		"entry_datetime": entry,
		"exit_datetime":  strings.Replace(entry, "T10:", "T12:", 1),
		"risk_reward":    "2.5",
		"position":       "long",
		"stoploss_pips":  "15",
		"range":          "40",
		"result_type":    "target",
		"entry_model":    "breaker",
		"trade_model":    "continuation",
		"setup_type":     "breakout",
		"confluences":    `["Breakout"]`,
	}
}

func doMultipart(t *testing.T, handler http.Handler, method, path, token string, fields map[string]string, screenshot []byte, filename string) *httptest.ResponseRecorder {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			t.Fatalf("failed to write field %s: %v", key, err)
		}
	}
	if screenshot != nil {
		part, err := writer.CreateFormFile("screenshot", filename)
		if err != nil {
			t.Fatalf("failed to create screenshot part: %v", err)
		}
		if _, err := part.Write(screenshot); err != nil {
			t.Fatalf("failed to write screenshot part: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("failed to close multipart writer: %v", err)
	}

	request := httptest.NewRequest(method, path, body)
	request.Header.Set("Content-Type", writer.FormDataContentType())
	if token != "" {
		request.Header.Set("Authorization", "Bearer "+token)
	}
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)
	return recorder
}

func tradeIDFromCreate(t *testing.T, recorder *httptest.ResponseRecorder) uint {
	t.Helper()
	payload := decodeBody(t, recorder)
	trade, ok := payload["trade"].(map[string]any)
	if !ok {
		t.Fatalf("create response missing trade: %s", recorder.Body.String())
	}
	id, ok := trade["id"].(float64)
	if !ok || id <= 0 {
		t.Fatalf("create response missing trade id: %s", recorder.Body.String())
	}
	return uint(id)
}

func tradePath(id uint) string {
	return fmt.Sprintf("/trades/%d", id)
}
