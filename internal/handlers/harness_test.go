package handlers_test

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/anonto42/yatube/backend/internal/auth"
	"github.com/anonto42/yatube/backend/internal/mailer"
	"github.com/anonto42/yatube/backend/internal/models"
	"github.com/anonto42/yatube/backend/internal/render"
	"github.com/anonto42/yatube/backend/internal/router"
	"github.com/anonto42/yatube/backend/internal/storage"
	"github.com/anonto42/yatube/backend/internal/testutil"
	"github.com/anonto42/yatube/backend/pkg/config"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const testSecret = "handlers-test-secret-0123456789"

// smallGIF is a valid 2x1 GIF image.
var smallGIF = []byte{
	0x47, 0x49, 0x46, 0x38, 0x39, 0x61, 0x02, 0x00,
	0x01, 0x00, 0x80, 0x00, 0x00, 0x00, 0x00, 0x00,
	0xFF, 0xFF, 0xFF, 0x21, 0xF9, 0x04, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x2C, 0x00, 0x00, 0x00, 0x00,
	0x02, 0x00, 0x01, 0x00, 0x00, 0x02, 0x02, 0x0C,
	0x0A, 0x00, 0x3B,
}

// recordingRenderer renders through the real templates and remembers the
// last page and its context.
type recordingRenderer struct {
	real *render.Renderer
	name string
	data map[string]interface{}
}

func (r *recordingRenderer) Render(w io.Writer, name string, data interface{}, c echo.Context) error {
	r.name = name
	r.data, _ = data.(map[string]interface{})
	return r.real.Render(w, name, data, c)
}

type memoryCache struct {
	mu          sync.Mutex
	fields      map[string][]byte
	hits        int
	invalidated int
}

func (m *memoryCache) Get(_ context.Context, field string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.fields[field]
	if ok {
		m.hits++
	}
	return v, ok
}

func (m *memoryCache) Set(_ context.Context, field string, value []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fields == nil {
		m.fields = map[string][]byte{}
	}
	m.fields[field] = value
}

func (m *memoryCache) Invalidate(context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fields = nil
	m.invalidated++
}

type published struct {
	subject string
	payload any
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []published
}

func (p *recordingPublisher) Publish(_ context.Context, subject string, payload any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, published{subject: subject, payload: payload})
}

func (p *recordingPublisher) subjects() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, ev := range p.events {
		out[i] = ev.subject
	}
	return out
}

type recordingMailer struct {
	sent []mailer.Message
}

func (m *recordingMailer) Send(_ context.Context, msg mailer.Message) error {
	m.sent = append(m.sent, msg)
	return nil
}

type testServer struct {
	t        *testing.T
	e        *echo.Echo
	db       *gorm.DB
	renderer *recordingRenderer
	tokens   *auth.TokenService
	media    *storage.FileSystemStorage
	cache    *memoryCache
	events   *recordingPublisher
	mail     *recordingMailer
}

func newTestServer(t *testing.T, opts ...func(*router.Dependencies)) *testServer {
	t.Helper()

	db := testutil.NewDB(t)
	pages, err := render.New()
	require.NoError(t, err)
	tokens, err := auth.NewTokenService(testSecret, time.Hour)
	require.NoError(t, err)
	media, err := storage.NewFileSystemStorage(t.TempDir())
	require.NoError(t, err)

	s := &testServer{
		t:        t,
		e:        echo.New(),
		db:       db,
		renderer: &recordingRenderer{real: pages},
		tokens:   tokens,
		media:    media,
		cache:    &memoryCache{},
		events:   &recordingPublisher{},
		mail:     &recordingMailer{},
	}

	deps := router.Dependencies{
		DB:         db,
		Media:      media,
		Tokens:     tokens,
		Passwords:  auth.NewPasswordHasher(bcrypt.MinCost),
		IndexCache: s.cache,
		Publisher:  s.events,
		Mailer:     s.mail,
		Renderer:   s.renderer,
		SiteURL:    "http://testserver",
	}
	for _, opt := range opts {
		opt(&deps)
	}

	config.SetupMiddleware(s.e, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, router.SetupRoutes(s.e, deps))
	return s
}

func (s *testServer) do(req *http.Request, user *models.User) *httptest.ResponseRecorder {
	s.t.Helper()
	s.renderer.name, s.renderer.data = "", nil
	if user != nil {
		token, err := s.tokens.IssueSession(user.ID)
		require.NoError(s.t, err)
		req.AddCookie(&http.Cookie{Name: auth.SessionCookie, Value: token})
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) get(target string, user *models.User) *httptest.ResponseRecorder {
	return s.do(httptest.NewRequest(http.MethodGet, target, nil), user)
}

func (s *testServer) postForm(target string, form url.Values, user *models.User) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	return s.do(req, user)
}

// postMultipart submits fields plus, when filename is not empty, an "image"
// file part.
func (s *testServer) postMultipart(target string, fields map[string]string, filename string, content []byte, user *models.User) *httptest.ResponseRecorder {
	s.t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(s.t, w.WriteField(k, v))
	}
	if filename != "" {
		part, err := w.CreateFormFile("image", filename)
		require.NoError(s.t, err)
		_, err = part.Write(content)
		require.NoError(s.t, err)
	}
	require.NoError(s.t, w.Close())

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	return s.do(req, user)
}

func location(rec *httptest.ResponseRecorder) string {
	return rec.Header().Get(echo.HeaderLocation)
}
