package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"blogpulse/internal/models"
	"blogpulse/internal/repository"
	"blogpulse/internal/service"
	"blogpulse/internal/storage"
	"blogpulse/pkg/utils"
)

func newAuthTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	gdb, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db := &storage.PostgresDB{DB: gdb}
	if err := db.AutoMigrate(&models.User{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	handler := NewAuthHandler(service.NewUserService(repository.NewUserRepository(db)))

	r := gin.New()
	r.POST("/api/register", handler.Register)
	r.POST("/api/login", handler.Login)
	return r
}

func postJSON(r *gin.Engine, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestRegisterAndLogin(t *testing.T) {
	r := newAuthTestRouter(t)

	if w := postJSON(r, "/api/register", `{"username":"alice","password":"secret"}`); w.Code != http.StatusCreated {
		t.Fatalf("register status = %d, want 201", w.Code)
	}

	w := postJSON(r, "/api/login", `{"username":"alice","password":"secret"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("login status = %d, want 200: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	claims, err := utils.ParseToken(resp.Token)
	if err != nil {
		t.Fatalf("issued token does not validate: %v", err)
	}
	if claims.UserID == 0 {
		t.Error("token carries no user id")
	}
}

func TestRegisterDuplicateUsername(t *testing.T) {
	r := newAuthTestRouter(t)

	if w := postJSON(r, "/api/register", `{"username":"alice","password":"secret"}`); w.Code != http.StatusCreated {
		t.Fatalf("first register status = %d, want 201", w.Code)
	}
	if w := postJSON(r, "/api/register", `{"username":"alice","password":"other"}`); w.Code != http.StatusConflict {
		t.Errorf("duplicate register status = %d, want 409", w.Code)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	r := newAuthTestRouter(t)
	postJSON(r, "/api/register", `{"username":"alice","password":"secret"}`)

	if w := postJSON(r, "/api/login", `{"username":"alice","password":"wrong"}`); w.Code != http.StatusUnauthorized {
		t.Errorf("wrong password status = %d, want 401", w.Code)
	}
	if w := postJSON(r, "/api/login", `{"username":"nobody","password":"secret"}`); w.Code != http.StatusUnauthorized {
		t.Errorf("unknown user status = %d, want 401", w.Code)
	}
	if w := postJSON(r, "/api/login", `{"username":"alice"}`); w.Code != http.StatusBadRequest {
		t.Errorf("missing password status = %d, want 400", w.Code)
	}
}
