package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mojisejr/oeng-api/internal/core/analyze"
	"github.com/mojisejr/oeng-api/internal/core/auth"
	"github.com/mojisejr/oeng-api/internal/core/llm"
	"github.com/mojisejr/oeng-api/internal/core/payment"
	"github.com/mojisejr/oeng-api/internal/modules/coach/models"
	"github.com/mojisejr/oeng-api/internal/modules/coach/repositories"
	"github.com/mojisejr/oeng-api/internal/modules/coach/services"
)

const testAnalysisJSON = `{
  "translation": {"suggested": "ฉันไปตลาดเมื่อเช้านี้", "critique": "Accurate."},
  "grammar": [{"original": "I go to market", "corrected": "I went to the market", "reason": "Past tense and article."}],
  "spelling": [],
  "vocabulary": [{"word": "market", "meaning": "ตลาด", "part_of_speech": "noun", "example": "The market opens at six."}],
  "alternatives": ["This morning I went to the market."],
  "context_fit": {"appropriate": true, "comment": "Fine."},
  "overall": {"score": 6, "summary": "Understandable with tense issues."}
}`

type cannedProvider struct {
	response string
	err      error
}

func (p *cannedProvider) GenerateResponse(ctx context.Context, systemPrompt, userMessage string) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	return p.response, nil
}

func (p *cannedProvider) GetProviderName() string { return "canned" }

// newTestApp wires the full route table against an in-memory database.
func newTestApp(t *testing.T, provider llm.Provider, freeCredits int) *fiber.App {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(&models.User{}, &models.CreditTransaction{}, &models.Sentence{}, &models.Purchase{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	userRepo := repositories.NewUserRepo(db)
	ledgerRepo := repositories.NewLedgerRepo(db)
	sentenceRepo := repositories.NewSentenceRepo(db)
	purchaseRepo := repositories.NewPurchaseRepo(db)

	jwtService := auth.NewJWTService("handler-test-secret")
	creditService := services.NewCreditService(ledgerRepo, nil)
	accountService := services.NewAccountService(userRepo, creditService, jwtService, freeCredits)
	analyzer := analyze.NewAnalyzer(llm.NewServiceWithProvider(provider))
	sentenceService := services.NewSentenceService(db, sentenceRepo, ledgerRepo, analyzer, nil)
	purchaseService := services.NewPurchaseService(db, purchaseRepo, ledgerRepo, payment.NewManualGateway(), nil)

	accountHandler := NewAccountHandler(accountService)
	creditHandler := NewCreditHandler(creditService, purchaseService, accountService)
	sentenceHandler := NewSentenceHandler(sentenceService)

	app := fiber.New()

	app.Post("/api/auth/register", accountHandler.Register)
	app.Post("/api/auth/login", accountHandler.Login)
	app.Post("/api/auth/refresh", accountHandler.Refresh)

	protected := auth.Middleware(jwtService)
	app.Get("/api/auth/me", protected, accountHandler.Me)
	app.Get("/api/credits/balance", protected, creditHandler.GetBalance)
	app.Get("/api/credits/history", protected, creditHandler.GetHistory)
	app.Get("/api/credits/packs", creditHandler.GetPacks)
	app.Post("/api/credits/purchase", protected, creditHandler.CreatePurchase)
	app.Post("/api/credits/purchase/:id/confirm", protected, creditHandler.ConfirmPurchase)
	app.Post("/api/sentences", protected, sentenceHandler.Create)
	app.Get("/api/sentences", protected, sentenceHandler.List)
	app.Post("/api/sentences/analyze", protected, sentenceHandler.Analyze)
	app.Get("/api/sentences/:id", protected, sentenceHandler.Get)
	app.Delete("/api/sentences/:id", protected, sentenceHandler.Delete)

	return app
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Timestamp string `json:"timestamp"`
}

func doRequest(t *testing.T, app *fiber.App, method, path, token string, body interface{}) (int, *envelope) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, path, reader)
	if err != nil {
		t.Fatal(err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("%s %s: decode envelope: %v", method, path, err)
	}
	return resp.StatusCode, &env
}

func register(t *testing.T, app *fiber.App, email string) string {
	t.Helper()
	status, env := doRequest(t, app, "POST", "/api/auth/register", "", map[string]string{
		"email":    email,
		"password": "hunter22",
		"name":     "Learner",
	})
	if status != http.StatusOK || !env.Success {
		t.Fatalf("register: status %d, env %+v", status, env)
	}
	var data struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatal(err)
	}
	if data.AccessToken == "" {
		t.Fatal("register returned no access token")
	}
	return data.AccessToken
}

func decodeData(t *testing.T, env *envelope, out interface{}) {
	t.Helper()
	if err := json.Unmarshal(env.Data, out); err != nil {
		t.Fatalf("decode data: %v", err)
	}
}

func TestRegisterGrantsWelcomeCredits(t *testing.T) {
	app := newTestApp(t, &cannedProvider{response: testAnalysisJSON}, 3)
	token := register(t, app, "welcome@example.com")

	status, env := doRequest(t, app, "GET", "/api/credits/balance", token, nil)
	if status != http.StatusOK {
		t.Fatalf("balance status = %d", status)
	}
	var balance struct {
		CreditBalance int `json:"creditBalance"`
	}
	decodeData(t, env, &balance)
	if balance.CreditBalance != 3 {
		t.Errorf("creditBalance = %d, want 3", balance.CreditBalance)
	}

	status, env = doRequest(t, app, "GET", "/api/credits/history", token, nil)
	if status != http.StatusOK {
		t.Fatalf("history status = %d", status)
	}
	var history struct {
		Transactions []models.CreditTransaction `json:"transactions"`
	}
	decodeData(t, env, &history)
	if len(history.Transactions) != 1 || history.Transactions[0].Type != models.TxTypeBonus {
		t.Errorf("history = %+v, want one bonus entry", history.Transactions)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	app := newTestApp(t, &cannedProvider{response: testAnalysisJSON}, 3)
	register(t, app, "dup@example.com")

	status, env := doRequest(t, app, "POST", "/api/auth/register", "", map[string]string{
		"email":    "dup@example.com",
		"password": "hunter22",
		"name":     "Copy",
	})
	if status != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", status)
	}
	if env.Success || env.Error == nil {
		t.Errorf("env = %+v, want error envelope", env)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	app := newTestApp(t, &cannedProvider{response: testAnalysisJSON}, 3)

	for _, path := range []string{"/api/credits/balance", "/api/credits/history", "/api/sentences"} {
		status, env := doRequest(t, app, "GET", path, "", nil)
		if status != http.StatusUnauthorized {
			t.Errorf("GET %s without token: status = %d, want 401", path, status)
		}
		if env.Error == nil || env.Error.Code != "UNAUTHORIZED" {
			t.Errorf("GET %s: error = %+v, want UNAUTHORIZED", path, env.Error)
		}
	}

	status, _ := doRequest(t, app, "GET", "/api/credits/balance", "garbage-token", nil)
	if status != http.StatusUnauthorized {
		t.Errorf("bad token: status = %d, want 401", status)
	}
}

func TestHistoryLimitValidation(t *testing.T) {
	app := newTestApp(t, &cannedProvider{response: testAnalysisJSON}, 3)
	token := register(t, app, "limits@example.com")

	for _, limit := range []string{"0", "101", "-5", "abc"} {
		status, env := doRequest(t, app, "GET", "/api/credits/history?limit="+limit, token, nil)
		if status != http.StatusBadRequest {
			t.Errorf("limit=%s: status = %d, want 400", limit, status)
		}
		if env.Error == nil || env.Error.Code != "INVALID_INPUT" {
			t.Errorf("limit=%s: error = %+v, want INVALID_INPUT", limit, env.Error)
		}
	}

	status, _ := doRequest(t, app, "GET", "/api/credits/history?limit=100", token, nil)
	if status != http.StatusOK {
		t.Errorf("limit=100: status = %d, want 200", status)
	}
}

func TestAnalyzeFlow(t *testing.T) {
	app := newTestApp(t, &cannedProvider{response: testAnalysisJSON}, 3)
	token := register(t, app, "flow@example.com")

	// Submit a sentence.
	status, env := doRequest(t, app, "POST", "/api/sentences", token, map[string]string{
		"text":    "I go to market this morning",
		"context": "telling a friend about my day",
	})
	if status != http.StatusOK {
		t.Fatalf("create sentence: status = %d", status)
	}
	var sentence models.Sentence
	decodeData(t, env, &sentence)
	if sentence.Status != models.SentenceStatusPending {
		t.Fatalf("status = %q, want pending", sentence.Status)
	}

	// Analyze it.
	status, env = doRequest(t, app, "POST", "/api/sentences/analyze", token, map[string]string{
		"sentence_id": sentence.ID.String(),
	})
	if status != http.StatusOK {
		t.Fatalf("analyze: status = %d, env %+v", status, env)
	}
	var result struct {
		CreditsRemaining int               `json:"credits_remaining"`
		Analysis         *analyze.Analysis `json:"analysis"`
	}
	decodeData(t, env, &result)
	if result.CreditsRemaining != 2 {
		t.Errorf("credits_remaining = %d, want 2", result.CreditsRemaining)
	}
	if result.Analysis == nil || result.Analysis.Overall.Score != 6 {
		t.Errorf("analysis = %+v, want score 6", result.Analysis)
	}

	// A second analysis of the same sentence is rejected without a charge.
	status, env = doRequest(t, app, "POST", "/api/sentences/analyze", token, map[string]string{
		"sentence_id": sentence.ID.String(),
	})
	if status != http.StatusBadRequest {
		t.Errorf("re-analyze: status = %d, want 400", status)
	}
	if env.Error == nil || env.Error.Code != "ALREADY_ANALYZED" {
		t.Errorf("re-analyze: error = %+v, want ALREADY_ANALYZED", env.Error)
	}

	status, env = doRequest(t, app, "GET", "/api/credits/balance", token, nil)
	if status != http.StatusOK {
		t.Fatal("balance after analyze")
	}
	var balance struct {
		CreditBalance    int `json:"creditBalance"`
		TotalCreditsUsed int `json:"totalCreditsUsed"`
	}
	decodeData(t, env, &balance)
	if balance.CreditBalance != 2 || balance.TotalCreditsUsed != 1 {
		t.Errorf("balance/used = %d/%d, want 2/1", balance.CreditBalance, balance.TotalCreditsUsed)
	}
}

func TestAnalyzeWithoutCredits(t *testing.T) {
	app := newTestApp(t, &cannedProvider{response: testAnalysisJSON}, 0)
	token := register(t, app, "broke@example.com")

	status, env := doRequest(t, app, "POST", "/api/sentences", token, map[string]string{
		"text": "No credits at all",
	})
	if status != http.StatusOK {
		t.Fatal("create sentence")
	}
	var sentence models.Sentence
	decodeData(t, env, &sentence)

	status, env = doRequest(t, app, "POST", "/api/sentences/analyze", token, map[string]string{
		"sentence_id": sentence.ID.String(),
	})
	if status != http.StatusPaymentRequired {
		t.Errorf("status = %d, want 402", status)
	}
	if env.Error == nil || env.Error.Code != "INSUFFICIENT_CREDITS" {
		t.Errorf("error = %+v, want INSUFFICIENT_CREDITS", env.Error)
	}

	// The sentence is still pending and may be analyzed after a top-up.
	status, env = doRequest(t, app, "GET", "/api/sentences/"+sentence.ID.String(), token, nil)
	if status != http.StatusOK {
		t.Fatal("fetch sentence")
	}
	var fresh models.Sentence
	decodeData(t, env, &fresh)
	if fresh.Status != models.SentenceStatusPending {
		t.Errorf("status = %q, want pending", fresh.Status)
	}
}

func TestAnalyzeProviderQuotaError(t *testing.T) {
	app := newTestApp(t, &cannedProvider{err: fmt.Errorf("gemini API returned status: 429")}, 3)
	token := register(t, app, "quota@example.com")

	_, env := doRequest(t, app, "POST", "/api/sentences", token, map[string]string{"text": "quota test"})
	var sentence models.Sentence
	decodeData(t, env, &sentence)

	status, env := doRequest(t, app, "POST", "/api/sentences/analyze", token, map[string]string{
		"sentence_id": sentence.ID.String(),
	})
	if status != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", status)
	}
	if env.Error == nil || env.Error.Code != "QUOTA_EXCEEDED" {
		t.Errorf("error = %+v, want QUOTA_EXCEEDED", env.Error)
	}

	// No charge for a failed analysis.
	_, env = doRequest(t, app, "GET", "/api/credits/balance", token, nil)
	var balance struct {
		CreditBalance int `json:"creditBalance"`
	}
	decodeData(t, env, &balance)
	if balance.CreditBalance != 3 {
		t.Errorf("creditBalance = %d, want 3", balance.CreditBalance)
	}
}

func TestSentenceOwnershipOverHTTP(t *testing.T) {
	app := newTestApp(t, &cannedProvider{response: testAnalysisJSON}, 3)
	ownerToken := register(t, app, "owner@example.com")
	intruderToken := register(t, app, "intruder@example.com")

	_, env := doRequest(t, app, "POST", "/api/sentences", ownerToken, map[string]string{"text": "mine alone"})
	var sentence models.Sentence
	decodeData(t, env, &sentence)

	status, env := doRequest(t, app, "GET", "/api/sentences/"+sentence.ID.String(), intruderToken, nil)
	if status != http.StatusForbidden {
		t.Errorf("status = %d, want 403", status)
	}
	if env.Error == nil || env.Error.Code != "ACCESS_DENIED" {
		t.Errorf("error = %+v, want ACCESS_DENIED", env.Error)
	}
}

func TestPurchaseFlow(t *testing.T) {
	app := newTestApp(t, &cannedProvider{response: testAnalysisJSON}, 0)
	token := register(t, app, "buyer@example.com")

	// Packs are public.
	status, env := doRequest(t, app, "GET", "/api/credits/packs", "", nil)
	if status != http.StatusOK {
		t.Fatalf("packs status = %d", status)
	}
	var packs struct {
		Packs []services.Pack `json:"packs"`
	}
	decodeData(t, env, &packs)
	if len(packs.Packs) != 3 {
		t.Fatalf("packs = %d, want 3", len(packs.Packs))
	}

	// Open a pending purchase.
	status, env = doRequest(t, app, "POST", "/api/credits/purchase", token, map[string]string{"pack_id": "starter"})
	if status != http.StatusOK {
		t.Fatalf("purchase status = %d, env %+v", status, env)
	}
	var outcome struct {
		Purchase models.Purchase `json:"purchase"`
	}
	decodeData(t, env, &outcome)
	if outcome.Purchase.Status != models.PurchaseStatusPending {
		t.Fatalf("purchase status = %q, want pending", outcome.Purchase.Status)
	}

	// No credits until confirmation.
	_, env = doRequest(t, app, "GET", "/api/credits/balance", token, nil)
	var balance struct {
		CreditBalance         int `json:"creditBalance"`
		TotalCreditsPurchased int `json:"totalCreditsPurchased"`
	}
	decodeData(t, env, &balance)
	if balance.CreditBalance != 0 {
		t.Fatalf("creditBalance = %d before confirm, want 0", balance.CreditBalance)
	}

	// Confirm grants the pack through the ledger.
	confirmPath := "/api/credits/purchase/" + outcome.Purchase.ID.String() + "/confirm"
	status, _ = doRequest(t, app, "POST", confirmPath, token, nil)
	if status != http.StatusOK {
		t.Fatalf("confirm status = %d", status)
	}

	_, env = doRequest(t, app, "GET", "/api/credits/balance", token, nil)
	decodeData(t, env, &balance)
	if balance.CreditBalance != 10 || balance.TotalCreditsPurchased != 10 {
		t.Errorf("balance/purchased = %d/%d, want 10/10", balance.CreditBalance, balance.TotalCreditsPurchased)
	}

	// A second confirm must not double-grant.
	status, env = doRequest(t, app, "POST", confirmPath, token, nil)
	if status != http.StatusBadRequest {
		t.Errorf("re-confirm status = %d, want 400", status)
	}
	if env.Error == nil || env.Error.Code != "INVALID_INPUT" {
		t.Errorf("re-confirm error = %+v", env.Error)
	}

	_, env = doRequest(t, app, "GET", "/api/credits/balance", token, nil)
	decodeData(t, env, &balance)
	if balance.CreditBalance != 10 {
		t.Errorf("creditBalance after re-confirm = %d, want 10", balance.CreditBalance)
	}
}

func TestUnknownPack(t *testing.T) {
	app := newTestApp(t, &cannedProvider{response: testAnalysisJSON}, 0)
	token := register(t, app, "nopack@example.com")

	status, env := doRequest(t, app, "POST", "/api/credits/purchase", token, map[string]string{"pack_id": "mega"})
	if status != http.StatusNotFound {
		t.Errorf("status = %d, want 404", status)
	}
	if env.Error == nil || env.Error.Code != "NOT_FOUND" {
		t.Errorf("error = %+v, want NOT_FOUND", env.Error)
	}
}

func TestLoginAndRefresh(t *testing.T) {
	app := newTestApp(t, &cannedProvider{response: testAnalysisJSON}, 3)
	register(t, app, "session@example.com")

	status, env := doRequest(t, app, "POST", "/api/auth/login", "", map[string]string{
		"email":    "session@example.com",
		"password": "hunter22",
	})
	if status != http.StatusOK {
		t.Fatalf("login status = %d", status)
	}
	var session struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}
	decodeData(t, env, &session)

	status, _ = doRequest(t, app, "GET", "/api/auth/me", session.AccessToken, nil)
	if status != http.StatusOK {
		t.Errorf("me status = %d", status)
	}

	status, env = doRequest(t, app, "POST", "/api/auth/refresh", "", map[string]string{
		"refresh_token": session.RefreshToken,
	})
	if status != http.StatusOK {
		t.Fatalf("refresh status = %d, env %+v", status, env)
	}
	decodeData(t, env, &session)
	if session.AccessToken == "" {
		t.Error("refresh returned no access token")
	}

	// Wrong password.
	status, env = doRequest(t, app, "POST", "/api/auth/login", "", map[string]string{
		"email":    "session@example.com",
		"password": "wrong",
	})
	if status != http.StatusUnauthorized {
		t.Errorf("wrong password status = %d, want 401", status)
	}
	if env.Error == nil || env.Error.Code != "UNAUTHORIZED" {
		t.Errorf("wrong password error = %+v", env.Error)
	}
}
