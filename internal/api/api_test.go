package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/evidenca/internal/auth"
	"github.com/erazemk/evidenca/internal/db"
	"github.com/erazemk/evidenca/internal/ledger"
	"github.com/erazemk/evidenca/internal/model"
	"github.com/erazemk/evidenca/internal/store"
)

const testJWTSecret = "test-secret"

func setupTestServer(t *testing.T) (*httptest.Server, string) {
	t.Helper()
	database := db.NewTestDB(t)
	svc := ledger.New(&store.EventLog{DB: database}, &store.AuditLog{DB: database})
	server := httptest.NewServer(NewRouter(svc, database, testJWTSecret))
	t.Cleanup(server.Close)

	// Create admin user.
	ctx := context.Background()
	hash, _ := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	store.CreateUser(ctx, database, "admin", string(hash), model.RoleAdmin)

	// Get token.
	body, _ := json.Marshal(map[string]string{"username": "admin", "password": "password"})
	resp, err := http.Post(server.URL+"/api/auth/login", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("login request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login failed: %d", resp.StatusCode)
	}

	var loginResp map[string]string
	json.NewDecoder(resp.Body).Decode(&loginResp)
	token := loginResp["token"]
	if token == "" {
		t.Fatal("empty token from login")
	}

	return server, token
}

func authRequest(method, url, token string, body any) (*http.Request, error) {
	var bodyReader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		bodyReader = bytes.NewReader(data)
	} else {
		bodyReader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, url, bodyReader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func createTestItem(t *testing.T, server *httptest.Server, token, name string, count int) model.Item {
	t.Helper()
	req, _ := authRequest("POST", server.URL+"/api/items", token, map[string]any{
		"name":        name,
		"category":    "electronics",
		"subcategory": "laptops",
		"count":       count,
	})
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("create item: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201 creating item, got %d", resp.StatusCode)
	}
	var item model.Item
	json.NewDecoder(resp.Body).Decode(&item)
	return item
}

func TestLoginEndpoint(t *testing.T) {
	server, _ := setupTestServer(t)

	// Test invalid credentials.
	body, _ := json.Marshal(map[string]string{"username": "admin", "password": "wrong"})
	resp, _ := http.Post(server.URL+"/api/auth/login", "application/json", bytes.NewReader(body))
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for bad password, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestItemsAPIFlow(t *testing.T) {
	server, token := setupTestServer(t)

	item := createTestItem(t, server, token, "Laptop", 5)
	if item.ID == 0 {
		t.Fatal("expected item id to be assigned")
	}

	// List items.
	req, _ := authRequest("GET", server.URL+"/api/items", token, nil)
	resp, _ := http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var items []model.Item
	json.NewDecoder(resp.Body).Decode(&items)
	resp.Body.Close()
	if len(items) != 1 {
		t.Errorf("expected 1 item, got %d", len(items))
	}

	// Update item.
	req, _ = authRequest("PUT", server.URL+"/api/items/1", token, map[string]any{
		"name":        "Laptop",
		"category":    "electronics",
		"subcategory": "workstations",
		"count":       5,
	})
	resp, _ = http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 updating item, got %d", resp.StatusCode)
	}
	var updated model.Item
	json.NewDecoder(resp.Body).Decode(&updated)
	resp.Body.Close()
	if updated.Subcategory != "workstations" {
		t.Errorf("expected updated subcategory, got %q", updated.Subcategory)
	}

	// Delete item.
	req, _ = authRequest("DELETE", server.URL+"/api/items/1", token, nil)
	resp, _ = http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 deleting item, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Deleted item is gone.
	req, _ = authRequest("GET", server.URL+"/api/items/1", token, nil)
	resp, _ = http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 for deleted item, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestDuplicateItemConflict(t *testing.T) {
	server, token := setupTestServer(t)

	createTestItem(t, server, token, "Projector", 2)

	req, _ := authRequest("POST", server.URL+"/api/items", token, map[string]any{
		"name":     "Projector",
		"category": "electronics",
		"count":    1,
	})
	resp, _ := http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("expected 409 for duplicate item, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestIssuanceAPIFlow(t *testing.T) {
	server, token := setupTestServer(t)

	item := createTestItem(t, server, token, "Headset", 3)

	// Issue two units.
	req, _ := authRequest("POST", server.URL+"/api/issuances", token, map[string]any{
		"item_id":              item.ID,
		"issuer_id":            1,
		"authorized_by_id":     1,
		"quantity":             2,
		"status":               model.IssuanceStatusTemporary,
		"return_date":          "2030-01-01T00:00:00Z",
		"recipient_department": "support",
	})
	resp, _ := http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201 issuing, got %d", resp.StatusCode)
	}
	var issued model.Issuance
	json.NewDecoder(resp.Body).Decode(&issued)
	resp.Body.Close()
	if issued.Quantity != 2 {
		t.Errorf("expected quantity 2, got %d", issued.Quantity)
	}

	// Count dropped.
	req, _ = authRequest("GET", server.URL+"/api/items/1", token, nil)
	resp, _ = http.DefaultClient.Do(req)
	var detail struct {
		Item model.Item `json:"item"`
	}
	json.NewDecoder(resp.Body).Decode(&detail)
	resp.Body.Close()
	if detail.Item.Count != 1 {
		t.Errorf("expected count 1 after issuing, got %d", detail.Item.Count)
	}

	// Over-issue rejected with stock details.
	req, _ = authRequest("POST", server.URL+"/api/issuances", token, map[string]any{
		"item_id":              item.ID,
		"issuer_id":            1,
		"authorized_by_id":     1,
		"quantity":             5,
		"status":               model.IssuanceStatusPermanent,
		"recipient_department": "support",
	})
	resp, _ = http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 for insufficient stock, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Return restores the count.
	req, _ = authRequest("POST", server.URL+"/api/issuances/1/return", token, nil)
	resp, _ = http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 returning, got %d", resp.StatusCode)
	}
	var returned model.Issuance
	json.NewDecoder(resp.Body).Decode(&returned)
	resp.Body.Close()
	if returned.Open() {
		t.Error("expected issuance closed after return")
	}

	// Double return conflicts.
	req, _ = authRequest("POST", server.URL+"/api/issuances/1/return", token, nil)
	resp, _ = http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("expected 409 for double return, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestReconcileAPIFlow(t *testing.T) {
	server, token := setupTestServer(t)

	createTestItem(t, server, token, "Monitor", 10)

	// Matching count is a silent accept.
	req, _ := authRequest("POST", server.URL+"/api/items/1/reconcile", token, map[string]any{
		"observed_count": 10,
	})
	resp, _ := http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for matching count, got %d", resp.StatusCode)
	}
	var result ledger.ReconcileResult
	json.NewDecoder(resp.Body).Decode(&result)
	resp.Body.Close()
	if result.Outcome != ledger.ReconcileAccepted {
		t.Errorf("expected accepted outcome, got %q", result.Outcome)
	}

	// Mismatch without a reason reports the discrepancy.
	req, _ = authRequest("POST", server.URL+"/api/items/1/reconcile", token, map[string]any{
		"observed_count": 8,
	})
	resp, _ = http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 for discrepancy, got %d", resp.StatusCode)
	}
	json.NewDecoder(resp.Body).Decode(&result)
	resp.Body.Close()
	if result.Expected != 10 || result.Observed != 8 {
		t.Errorf("expected discrepancy 10/8, got %d/%d", result.Expected, result.Observed)
	}

	// Resubmitting with a reason forces the adjustment.
	req, _ = authRequest("POST", server.URL+"/api/items/1/reconcile", token, map[string]any{
		"observed_count": 8,
		"reason":         "two units written off",
	})
	resp, _ = http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for adjustment, got %d", resp.StatusCode)
	}
	json.NewDecoder(resp.Body).Decode(&result)
	resp.Body.Close()
	if result.Outcome != ledger.ReconcileAdjusted {
		t.Errorf("expected adjusted outcome, got %q", result.Outcome)
	}

	// The item now reflects the observed count.
	req, _ = authRequest("GET", server.URL+"/api/items/1", token, nil)
	resp, _ = http.DefaultClient.Do(req)
	var detail struct {
		Item model.Item `json:"item"`
	}
	json.NewDecoder(resp.Body).Decode(&detail)
	resp.Body.Close()
	if detail.Item.Count != 8 {
		t.Errorf("expected count 8 after adjustment, got %d", detail.Item.Count)
	}
}

func TestActivityEndpoint(t *testing.T) {
	server, token := setupTestServer(t)

	item := createTestItem(t, server, token, "Camera", 4)

	// Issue once so the item has issue activity.
	req, _ := authRequest("POST", server.URL+"/api/issuances", token, map[string]any{
		"item_id":              item.ID,
		"issuer_id":            1,
		"authorized_by_id":     1,
		"quantity":             1,
		"status":               model.IssuanceStatusPermanent,
		"recipient_department": "media",
	})
	resp, _ := http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201 issuing, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	req, _ = authRequest("GET", server.URL+"/api/items/1/activity", token, nil)
	resp, _ = http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var activity []ledger.Activity
	json.NewDecoder(resp.Body).Decode(&activity)
	resp.Body.Close()
	if len(activity) != 1 {
		t.Errorf("expected 1 activity entry, got %d", len(activity))
	}
	if len(activity) == 1 && activity[0].Kind != ledger.KindIssue {
		t.Errorf("expected issue activity, got %q", activity[0].Kind)
	}

	req, _ = authRequest("GET", server.URL+"/api/items/99/activity", token, nil)
	resp, _ = http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 for missing item, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestAnalyticsAndAuditEndpoints(t *testing.T) {
	server, token := setupTestServer(t)

	createTestItem(t, server, token, "Tablet", 2)

	for _, path := range []string{"/api/analytics", "/api/analytics/overdue", "/api/audits"} {
		req, _ := authRequest("GET", server.URL+path, token, nil)
		resp, _ := http.DefaultClient.Do(req)
		if resp.StatusCode != http.StatusOK {
			t.Errorf("expected 200 for %s, got %d", path, resp.StatusCode)
		}
		resp.Body.Close()
	}

	req, _ := authRequest("GET", server.URL+"/api/audits", token, nil)
	resp, _ := http.DefaultClient.Do(req)
	var audits []model.AuditEntry
	json.NewDecoder(resp.Body).Decode(&audits)
	resp.Body.Close()
	if len(audits) != 1 {
		t.Errorf("expected 1 audit entry, got %d", len(audits))
	}
}

func TestLogoutRevokesToken(t *testing.T) {
	server, token := setupTestServer(t)

	req, _ := authRequest("POST", server.URL+"/api/auth/logout", token, nil)
	resp, _ := http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 logging out, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// The revoked token no longer works.
	req, _ = authRequest("GET", server.URL+"/api/items", token, nil)
	resp, _ = http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 after logout, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestUnauthenticatedAccess(t *testing.T) {
	database := db.NewTestDB(t)
	svc := ledger.New(&store.EventLog{DB: database}, &store.AuditLog{DB: database})
	server := httptest.NewServer(NewRouter(svc, database, testJWTSecret))
	t.Cleanup(server.Close)

	resp, _ := http.Get(server.URL + "/api/items")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for unauthenticated request, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestRoleBasedAccess(t *testing.T) {
	database := db.NewTestDB(t)
	svc := ledger.New(&store.EventLog{DB: database}, &store.AuditLog{DB: database})
	server := httptest.NewServer(NewRouter(svc, database, testJWTSecret))
	t.Cleanup(server.Close)

	// Create a viewer.
	ctx := context.Background()
	hash, _ := bcrypt.GenerateFromPassword([]byte("pass"), bcrypt.DefaultCost)
	store.CreateUser(ctx, database, "viewer1", string(hash), model.RoleViewer)

	viewerToken, _ := auth.GenerateToken(testJWTSecret, 1, "viewer1", model.RoleViewer)

	// Viewers can read items.
	req, _ := authRequest("GET", server.URL+"/api/items", viewerToken, nil)
	resp, _ := http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200 for viewer listing items, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Viewers cannot create items (manager+ required).
	req, _ = authRequest("POST", server.URL+"/api/items", viewerToken, map[string]string{
		"name": "Test",
	})
	resp, _ = http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403 for viewer creating item, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Viewers cannot access /api/users.
	req, _ = authRequest("GET", server.URL+"/api/users", viewerToken, nil)
	resp, _ = http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403 for viewer accessing users, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}
