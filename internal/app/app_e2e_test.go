//go:build e2e

package app

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"
)

var (
	realBaseURL  string
	realAPIToken string
	httpClient   = &http.Client{Timeout: 5 * time.Second}
)

type successEnvelope struct {
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Meta    map[string]any  `json:"meta"`
}

type errorEnvelope struct {
	Message string            `json:"message"`
	Error   map[string]string `json:"error"`
}

func TestMain(m *testing.M) {
	realBaseURL = strings.TrimRight(strings.TrimSpace(os.Getenv("STEAMGUARD_REAL_BASE_URL")), "/")
	if realBaseURL == "" {
		realBaseURL = "http://localhost:8080"
	}
	realAPIToken = os.Getenv("STEAMGUARD_REAL_API_TOKEN")

	resp, err := httpClient.Get(realBaseURL + "/health")
	if err != nil {
		fmt.Fprintf(os.Stderr, "e2e tests require a running server (steamguard serve). failed to reach %s: %v\n", realBaseURL, err)
		os.Exit(1)
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	if resp.StatusCode >= http.StatusInternalServerError {
		fmt.Fprintf(os.Stderr, "e2e tests require a healthy server. %s returned %s\n", realBaseURL, resp.Status)
		os.Exit(1)
	}

	os.Exit(m.Run())
}

func doJSON(t *testing.T, method, path string, payload any, token string) (int, []byte) {
	t.Helper()

	var body io.Reader
	if payload != nil {
		buf := &bytes.Buffer{}
		if err := json.NewEncoder(buf).Encode(payload); err != nil {
			t.Fatalf("encode json: %v", err)
		}
		body = buf
	}

	req, err := http.NewRequest(method, realBaseURL+path, body)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read response: %v", err)
	}

	return resp.StatusCode, respBody
}

func decodeSuccess(t *testing.T, body []byte, out any) successEnvelope {
	t.Helper()

	var env successEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		t.Fatalf("decode success envelope: %v", err)
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			t.Fatalf("decode success data: %v", err)
		}
	}

	return env
}

func decodeError(t *testing.T, body []byte) errorEnvelope {
	t.Helper()

	var env errorEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		t.Fatalf("decode error envelope: %v", err)
	}

	return env
}

// e2eAccountID sits in the individual-account range and is never a real account.
const e2eAccountID = "76561197960265729"

func TestE2E_ImportCodeAndBackup(t *testing.T) {
	// Arrange
	maFile := map[string]any{
		"shared_secret":   "MTIzNDU2Nzg5MDEyMzQ1Njc4OTA=",
		"identity_secret": "aWRlbnRpdHktc2VjcmV0LTAxMjM=",
		"revocation_code": "R00001",
		"account_name":    "e2e-account",
		"device_id":       "android:00000000-0000-0000-0000-000000000001",
		"serial_number":   "1",
		"fully_enrolled":  true,
		"Session":         map[string]any{"SteamID": e2eAccountID},
	}

	// Act
	status, body := doJSON(t, http.MethodPost, "/api/v1/steamguard/accounts-import", map[string]any{
		"mafile":     maFile,
		"account_id": e2eAccountID,
	}, realAPIToken)

	// Assert
	if status != http.StatusCreated && status != http.StatusConflict {
		t.Fatalf("import failed: status=%d message=%q", status, decodeError(t, body).Message)
	}

	status, body = doJSON(t, http.MethodGet, "/api/v1/steamguard/accounts/"+e2eAccountID+"/code", nil, realAPIToken)
	if status != http.StatusOK {
		t.Fatalf("code failed: status=%d message=%q", status, decodeError(t, body).Message)
	}
	var code struct {
		Code            string `json:"code"`
		ValidForSeconds int64  `json:"valid_for_seconds"`
	}
	decodeSuccess(t, body, &code)
	if len(code.Code) != 5 || code.ValidForSeconds < 1 || code.ValidForSeconds > 30 {
		t.Fatalf("unexpected code response %+v", code)
	}

	status, body = doJSON(t, http.MethodGet, "/api/v1/steamguard/accounts", nil, realAPIToken)
	if status != http.StatusOK {
		t.Fatalf("list failed: status=%d", status)
	}
	var accounts []struct {
		AccountID string `json:"account_id"`
	}
	env := decodeSuccess(t, body, &accounts)
	if env.Meta["total"] == nil {
		t.Fatal("missing meta total")
	}
	found := false
	for _, a := range accounts {
		found = found || a.AccountID == e2eAccountID
	}
	if !found {
		t.Fatalf("imported account missing from list: %s", body)
	}

	status, body = doJSON(t, http.MethodPost, "/api/v1/steamguard/accounts/"+e2eAccountID+"/backup", nil, realAPIToken)
	if status != http.StatusOK {
		t.Fatalf("backup failed: status=%d message=%q", status, decodeError(t, body).Message)
	}
}

func TestE2E_UnknownAccount(t *testing.T) {
	// Act
	status, body := doJSON(t, http.MethodGet, "/api/v1/steamguard/accounts/76561197960265730/code", nil, realAPIToken)

	// Assert
	if status != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", status, body)
	}
}

func TestE2E_InvalidAccountID(t *testing.T) {
	// Act
	status, _ := doJSON(t, http.MethodGet, "/api/v1/steamguard/accounts/not-a-number/code", nil, realAPIToken)

	// Assert
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", status)
	}
}
