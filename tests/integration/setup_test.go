package integration

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"foliomart/internal/config"
	"foliomart/internal/handlers"
	"foliomart/internal/logger"
	"foliomart/internal/middleware"
	"foliomart/internal/models"
	"foliomart/internal/services"
	"foliomart/internal/testutil"
	"foliomart/internal/token"
	"foliomart/internal/validator"
)

// testApp holds the full application stack for integration tests.
type testApp struct {
	DB       *gorm.DB
	Router   *gin.Engine
	Notifier *testutil.RecordingNotifier
}

// dbCounter ensures each test gets a unique in-memory database.
var dbCounter atomic.Int64

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
	validator.Register()
}

// setupIsolatedDB creates an isolated in-memory SQLite database for a single test.
func setupIsolatedDB(t *testing.T) *gorm.DB {
	t.Helper()

	n := dbCounter.Add(1)
	dsn := fmt.Sprintf("file:integrationdb%d?mode=memory&cache=shared", n)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	allModels := []interface{}{
		&models.User{},
		&models.Portfolio{},
		&models.Bill{},
		&models.AuditLog{},
	}
	if err := db.AutoMigrate(allModels...); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

// setupApp creates a full application stack backed by an isolated in-memory SQLite.
func setupApp(t *testing.T) *testApp {
	t.Helper()

	db := setupIsolatedDB(t)
	notif := &testutil.RecordingNotifier{}

	// Services
	tokens := token.NewService(30 * time.Minute)
	userService := services.NewUserService(db, tokens, notif, "http://localhost:8080")
	portfolioService := services.NewPortfolioService(db)
	billService := services.NewBillService(db, tokens)
	auditService := services.NewAuditService(db)

	// Handlers
	authHandler := handlers.NewAuthHandler(userService, auditService)
	portfolioHandler := handlers.NewPortfolioHandler(portfolioService, auditService)
	billHandler := handlers.NewBillHandler(billService, auditService)

	// Router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.ErrorHandler())

	v1 := router.Group("/api/v1")

	// Public routes
	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/logout", authHandler.Logout)
	auth.POST("/forgot-password", authHandler.ForgotPassword)
	auth.PUT("/password/reset/:token", authHandler.ResetPassword)

	v1.GET("/portfolios", portfolioHandler.ListPortfolios)
	v1.GET("/portfolios/:id", portfolioHandler.GetPortfolio)

	v1.POST("/bills/recover", billHandler.RecoverBill)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	protected.GET("/profile", authHandler.GetProfile)
	protected.PUT("/profile/password", authHandler.ChangePassword)

	bills := protected.Group("/bills")
	bills.POST("", billHandler.CreateBill)
	bills.GET("", billHandler.ListBills)
	bills.GET("/:id", billHandler.GetBill)
	bills.PATCH("/:id/status", billHandler.UpdateBillStatus)
	bills.DELETE("/:id", billHandler.DeleteBill)

	admin := protected.Group("/admin")
	admin.Use(middleware.AdminMiddleware())
	admin.POST("/portfolios", portfolioHandler.CreatePortfolio)
	admin.PUT("/portfolios/:id", portfolioHandler.UpdatePortfolio)
	admin.DELETE("/portfolios/:id", portfolioHandler.DeletePortfolio)

	return &testApp{DB: db, Router: router, Notifier: notif}
}

// request makes an HTTP request to the test router and returns the recorder.
func (app *testApp) request(method, path, body, session string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if session != "" {
		req.AddCookie(&http.Cookie{Name: config.Get().CookieName, Value: session})
	}
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

// parseJSON parses the response body into a map.
func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

// sessionFrom extracts the session cookie value from a response.
func sessionFrom(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == config.Get().CookieName && c.Value != "" {
			return c.Value
		}
	}
	t.Fatalf("no session cookie in response: %s", rec.Body.String())
	return ""
}

// registerUser registers a new user and returns the session cookie value and user ID.
func (app *testApp) registerUser(t *testing.T, email, password string) (session, userID string) {
	t.Helper()
	body := fmt.Sprintf(`{"email":%q,"password":%q,"first_name":"Test","last_name":"User"}`, email, password)
	rec := app.request("POST", "/api/v1/auth/register", body, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("register failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	user := result["user"].(map[string]interface{})
	return sessionFrom(t, rec), user["id"].(string)
}

// loginUser logs in and returns the session cookie value.
func (app *testApp) loginUser(t *testing.T, email, password string) string {
	t.Helper()
	body := fmt.Sprintf(`{"email":%q,"password":%q}`, email, password)
	rec := app.request("POST", "/api/v1/auth/login", body, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("login failed: %d %s", rec.Code, rec.Body.String())
	}
	return sessionFrom(t, rec)
}

// registerAdmin registers a user, promotes it to admin directly in the
// database, and logs in again so the session carries the admin role.
func (app *testApp) registerAdmin(t *testing.T, email, password string) string {
	t.Helper()
	_, userID := app.registerUser(t, email, password)
	if err := app.DB.Model(&models.User{}).Where("id = ?", userID).Update("role", models.RoleAdmin).Error; err != nil {
		t.Fatalf("failed to promote admin: %v", err)
	}
	return app.loginUser(t, email, password)
}

// createPortfolio creates a portfolio through the admin API and returns its ID.
func (app *testApp) createPortfolio(t *testing.T, adminSession, title, path string) string {
	t.Helper()
	body := fmt.Sprintf(`{"title":%q,"path":%q,"price":9900,"tier":"Premium"}`, title, path)
	rec := app.request("POST", "/api/v1/admin/portfolios", body, adminSession)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create portfolio failed: %d %s", rec.Code, rec.Body.String())
	}
	return parseJSON(t, rec)["id"].(string)
}
