package integration

import (
	"fmt"
	"net/http"
	"testing"
)

func TestBillFlow_PurchaseClaimUnclaim(t *testing.T) {
	app := setupApp(t)

	adminSession := app.registerAdmin(t, "admin@test.com", "password123")
	portfolioID := app.createPortfolio(t, adminSession, "Minimal Dark", "minimal-dark")
	userSession, _ := app.registerUser(t, "buyer@test.com", "password123")

	// Purchase: mints a bill with a claim token in UnClaim
	rec := app.request("POST", "/api/v1/bills",
		fmt.Sprintf(`{"portfolio_id":%q}`, portfolioID), userSession)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create bill failed: %d %s", rec.Code, rec.Body.String())
	}
	bill := parseJSON(t, rec)
	billID := bill["id"].(string)
	claimToken := bill["token"].(string)
	if len(claimToken) != 40 {
		t.Fatalf("expected 40-char claim token, got %q", claimToken)
	}
	if bill["status"] != "UnClaim" {
		t.Fatalf("expected UnClaim, got %v", bill["status"])
	}

	// Claim
	rec = app.request("PATCH", "/api/v1/bills/"+billID+"/status",
		`{"status":"Claim"}`, userSession)
	if rec.Code != http.StatusOK {
		t.Fatalf("claim failed: %d %s", rec.Code, rec.Body.String())
	}
	if parseJSON(t, rec)["status"] != "Claim" {
		t.Fatal("expected Claim after transition")
	}

	// Unclaim stamps unclaimed_at
	rec = app.request("PATCH", "/api/v1/bills/"+billID+"/status",
		`{"status":"UnClaim"}`, userSession)
	if rec.Code != http.StatusOK {
		t.Fatalf("unclaim failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	if result["status"] != "UnClaim" {
		t.Fatal("expected UnClaim after transition")
	}
	if result["unclaimed_at"] == nil {
		t.Error("expected unclaimed_at to be stamped")
	}
}

func TestBillFlow_TrialRequiresAdmin(t *testing.T) {
	app := setupApp(t)

	adminSession := app.registerAdmin(t, "admin@test.com", "password123")
	portfolioID := app.createPortfolio(t, adminSession, "Minimal Dark", "minimal-dark")
	userSession, _ := app.registerUser(t, "buyer@test.com", "password123")

	rec := app.request("POST", "/api/v1/bills",
		fmt.Sprintf(`{"portfolio_id":%q}`, portfolioID), userSession)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create bill failed: %d %s", rec.Code, rec.Body.String())
	}
	billID := parseJSON(t, rec)["id"].(string)

	// Regular user cannot move a bill into Trial
	rec = app.request("PATCH", "/api/v1/bills/"+billID+"/status",
		`{"status":"Trial"}`, userSession)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for user Trial transition, got %d: %s", rec.Code, rec.Body.String())
	}

	// Admin can
	rec = app.request("PATCH", "/api/v1/bills/"+billID+"/status",
		`{"status":"Trial"}`, adminSession)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected admin Trial transition to succeed, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestBillFlow_RecoverByToken(t *testing.T) {
	app := setupApp(t)

	adminSession := app.registerAdmin(t, "admin@test.com", "password123")
	portfolioID := app.createPortfolio(t, adminSession, "Minimal Dark", "minimal-dark")
	userSession, _ := app.registerUser(t, "buyer@test.com", "password123")

	rec := app.request("POST", "/api/v1/bills",
		fmt.Sprintf(`{"portfolio_id":%q}`, portfolioID), userSession)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create bill failed: %d %s", rec.Code, rec.Body.String())
	}
	bill := parseJSON(t, rec)
	billID := bill["id"].(string)
	claimToken := bill["token"].(string)

	// Recovery needs no session: the token alone is the credential
	rec = app.request("POST", "/api/v1/bills/recover",
		fmt.Sprintf(`{"token":%q}`, claimToken), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("recover failed: %d %s", rec.Code, rec.Body.String())
	}
	recovered := parseJSON(t, rec)
	if recovered["id"] != billID {
		t.Errorf("expected bill %s, got %v", billID, recovered["id"])
	}
	if recovered["status"] != "UnClaim" {
		t.Errorf("recovery must not change status, got %v", recovered["status"])
	}
	portfolio, ok := recovered["portfolio"].(map[string]interface{})
	if !ok || portfolio["path"] != "minimal-dark" {
		t.Error("expected recovered bill to include its portfolio")
	}

	// Wrong token gets the uniform token-incorrect error
	rec = app.request("POST", "/api/v1/bills/recover",
		`{"token":"0000000000000000000000000000000000000000"}`, userSession)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for wrong token, got %d", rec.Code)
	}
	errObj := parseJSON(t, rec)["error"].(map[string]interface{})
	if errObj["code"] != "INVALID_CLAIM_TOKEN" {
		t.Errorf("expected INVALID_CLAIM_TOKEN, got %v", errObj["code"])
	}

	// Deleting the bill permanently invalidates the token
	rec = app.request("DELETE", "/api/v1/bills/"+billID, "", userSession)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete failed: %d %s", rec.Code, rec.Body.String())
	}
	rec = app.request("POST", "/api/v1/bills/recover",
		fmt.Sprintf(`{"token":%q}`, claimToken), userSession)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected deleted bill's token to be unrecoverable, got %d", rec.Code)
	}
}

func TestBillFlow_DuplicatePurchase(t *testing.T) {
	app := setupApp(t)

	adminSession := app.registerAdmin(t, "admin@test.com", "password123")
	portfolioID := app.createPortfolio(t, adminSession, "Minimal Dark", "minimal-dark")
	userSession, _ := app.registerUser(t, "buyer@test.com", "password123")

	body := fmt.Sprintf(`{"portfolio_id":%q}`, portfolioID)
	rec := app.request("POST", "/api/v1/bills", body, userSession)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create bill failed: %d %s", rec.Code, rec.Body.String())
	}

	rec = app.request("POST", "/api/v1/bills", body, userSession)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate purchase, got %d: %s", rec.Code, rec.Body.String())
	}

	// Another user can buy the same portfolio
	otherSession, _ := app.registerUser(t, "other@test.com", "password123")
	rec = app.request("POST", "/api/v1/bills", body, otherSession)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected other user's purchase to succeed, got %d", rec.Code)
	}
}

func TestBillFlow_OwnershipIsolation(t *testing.T) {
	app := setupApp(t)

	adminSession := app.registerAdmin(t, "admin@test.com", "password123")
	portfolioID := app.createPortfolio(t, adminSession, "Minimal Dark", "minimal-dark")
	ownerSession, _ := app.registerUser(t, "owner@test.com", "password123")
	intruderSession, _ := app.registerUser(t, "intruder@test.com", "password123")

	rec := app.request("POST", "/api/v1/bills",
		fmt.Sprintf(`{"portfolio_id":%q}`, portfolioID), ownerSession)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create bill failed: %d %s", rec.Code, rec.Body.String())
	}
	billID := parseJSON(t, rec)["id"].(string)

	// Another user cannot read, transition, or delete the bill
	rec = app.request("GET", "/api/v1/bills/"+billID, "", intruderSession)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 on read, got %d", rec.Code)
	}
	rec = app.request("PATCH", "/api/v1/bills/"+billID+"/status", `{"status":"Claim"}`, intruderSession)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 on transition, got %d", rec.Code)
	}
	rec = app.request("DELETE", "/api/v1/bills/"+billID, "", intruderSession)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 on delete, got %d", rec.Code)
	}

	// The intruder's bill list is empty, the admin sees everything
	rec = app.request("GET", "/api/v1/bills", "", intruderSession)
	if rec.Code != http.StatusOK {
		t.Fatalf("list failed: %d", rec.Code)
	}
	if parseJSON(t, rec)["total_items"] != float64(0) {
		t.Error("expected intruder's bill list to be empty")
	}

	rec = app.request("GET", "/api/v1/bills", "", adminSession)
	if rec.Code != http.StatusOK {
		t.Fatalf("admin list failed: %d", rec.Code)
	}
	if parseJSON(t, rec)["total_items"] != float64(1) {
		t.Error("expected admin to see the owner's bill")
	}
}
