package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/fudbi/fudbi/internal/common"
	"github.com/fudbi/fudbi/internal/logging"
	"github.com/fudbi/fudbi/internal/server/config"
	"github.com/fudbi/fudbi/internal/server/identity"
	"github.com/fudbi/fudbi/internal/server/models"
	"github.com/fudbi/fudbi/internal/server/notify"
	"github.com/fudbi/fudbi/internal/server/repositories/repomanager"
	"github.com/fudbi/fudbi/internal/server/services"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const testPassword = "Secret123"

type captureMailer struct {
	mu   sync.Mutex
	sent []notify.Message
}

func (m *captureMailer) Send(_ context.Context, msg notify.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return nil
}

func (m *captureMailer) last() notify.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sent[len(m.sent)-1]
}

type testServer struct {
	router *gin.Engine
	rm     *repomanager.MemoryRepositoryManager
	env    *Env
	mailer *captureMailer
}

func testConfig() *config.Config {
	return &config.Config{
		CORSOrigin:     "*",
		RequestTimeout: 5 * time.Second,
		RateLimitRPS:   1000,
		RateLimitBurst: 1000,
		PageSize:       50,
		SessionTTL:     24 * time.Hour,
		S3Bucket:       "fudbi",
		S3Region:       "ap-south-1",
		UploadURLTTL:   15 * time.Minute,
		MaxImageSize:   1 << 20,
	}
}

func newTestServer(t *testing.T, cfg *config.Config) *testServer {
	t.Helper()
	rm := repomanager.NewMemoryRepositoryManager()
	repos := rm.Repositories()
	mailer := &captureMailer{}
	sessions := services.NewJWTSessionStore(repos.Sessions, "test-secret", cfg.SessionTTL)
	provider := identity.NewLocalProvider(repos.Identities, time.Hour)

	env := &Env{
		Auth:          services.NewAuthService(rm, provider, sessions, mailer, time.Hour, logging.Nop{}),
		Posts:         services.NewPostService(rm, cfg.PageSize, logging.Nop{}),
		Pickups:       services.NewPickupService(rm, logging.Nop{}),
		Stats:         services.NewStatsService(rm),
		Media:         services.NewMediaService(cfg),
		Notifications: services.NewNotificationService(rm),
		Sessions:      sessions,
		Feed:          notify.NewHub("*", logging.Nop{}),
		Store:         rm,
		Logger:        logging.Nop{},
		SessionTTL:    cfg.SessionTTL,
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	router := gin.New()
	SetupRoutes(ctx, router, env, cfg)
	return &testServer{router: router, rm: rm, env: env, mailer: mailer}
}

func (s *testServer) do(t *testing.T, method, path string, body any, session *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if session != nil {
		req.AddCookie(session)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

// login creates a confirmed account with role and signs it in over HTTP.
func (s *testServer) login(t *testing.T, email string, role models.Role) *http.Cookie {
	t.Helper()
	_, err := s.env.Auth.CreateAdmin(context.Background(), &services.SignUpRequest{
		Email: email, Password: testPassword, Name: "User " + email, Phone: "9876543210", City: "Pune", Role: role,
	})
	require.NoError(t, err)

	rec := s.do(t, http.MethodPost, "/api/auth/signin", gin.H{"email": email, "password": testPassword}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return sessionCookie(t, rec)
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == common.SessionCookieName {
			return c
		}
	}
	t.Fatalf("no %s cookie in response", common.SessionCookieName)
	return nil
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func newPostBody(city string) gin.H {
	return gin.H{
		"foodType":    "Biryani",
		"quantity":    "3 trays",
		"servings":    30,
		"address":     "12 MG Road",
		"city":        city,
		"preparedAt":  time.Now().UTC().Format(time.RFC3339),
		"expiryHours": 4,
		"safetyChecklist": gin.H{
			"freshlyPrepared": true, "properStorage": true, "noAllergensWarning": true, "labeledCorrectly": true,
		},
	}
}

func (s *testServer) createPost(t *testing.T, host *http.Cookie, city string) string {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/posts", newPostBody(city), host)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	id, _ := decode(t, rec)["postId"].(string)
	require.NotEmpty(t, id)
	return id
}
