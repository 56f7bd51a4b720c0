package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Baaaki/newsletter-app/internal/handler"
	"github.com/Baaaki/newsletter-app/internal/repository"
	"github.com/Baaaki/newsletter-app/internal/service"
	"github.com/Baaaki/newsletter-app/internal/testutil"
	"github.com/gin-gonic/gin"
)

// testApp is the full router over SQLite users and in-memory posts.
type testApp struct {
	testDB *testutil.TestDatabase
	router *gin.Engine
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	testDB := testutil.SetupTestDatabase(t)
	userRepo := repository.NewUserRepository(testDB.DB)
	posts := repository.NewMemoryPostRepository()
	comments := repository.NewMemoryCommentRepository()

	authService := service.NewAuthService(userRepo, testutil.TestJWTSecret, time.Hour, "development")
	postService := service.NewPostService(posts, comments, userRepo, nil)
	commentService := service.NewCommentService(comments, postService, userRepo)

	router := gin.New()
	router.Use(gin.Recovery())
	handler.RegisterRoutes(router, handler.Handlers{
		Auth:    handler.NewAuthHandler(authService),
		Admin:   handler.NewAdminHandler(authService),
		Post:    handler.NewPostHandler(postService),
		Comment: handler.NewCommentHandler(commentService),
	}, testutil.TestJWTSecret, handler.Limits{})

	return &testApp{testDB: testDB, router: router}
}

// do sends a JSON request; authHeader may be empty.
func (a *testApp) do(method, path string, body interface{}, authHeader string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, _ := http.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}
