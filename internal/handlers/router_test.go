package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"premium-homes/internal/auth"
	"premium-homes/internal/cleanup"
	"premium-homes/internal/database"
	"premium-homes/internal/models"
	"premium-homes/internal/ratelimit"
	"premium-homes/internal/search"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	router    *gin.Engine
	store     database.Store
	uploadDir string
	indexer   *fakeIndexer
}

type fakeIndexer struct {
	indexed  []int
	deleted  []int
	results  []models.Property
	err      error
	searches int
	criteria []search.Criteria
}

func (f *fakeIndexer) IndexProperties(properties []models.Property) error {
	for _, p := range properties {
		f.indexed = append(f.indexed, p.ID)
	}
	return nil
}

func (f *fakeIndexer) DeleteProperty(id int) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeIndexer) Reindex([]models.Property) error { return nil }

func (f *fakeIndexer) FilterSearch(c search.Criteria, _ int64) ([]models.Property, error) {
	f.searches++
	f.criteria = append(f.criteria, c)
	return f.results, f.err
}

func newTestServer(t *testing.T, limiter *ratelimit.RateLimiter) *testServer {
	t.Helper()
	store, err := database.NewJSONStore(t.TempDir())
	require.NoError(t, err)

	uploadDir := t.TempDir()
	idx := &fakeIndexer{}
	r := NewRouter(Dependencies{
		Store:          store,
		Auth:           auth.NewService(store, auth.NewTokenManager("test"), nil),
		Indexer:        idx,
		Cleanup:        cleanup.NewService(store, uploadDir, nil),
		LoginLimiter:   limiter,
		UploadDir:      uploadDir,
		MaxUploadBytes: 5 << 20,
		MaxUploadFiles: 3,
	})
	return &testServer{router: r, store: store, uploadDir: uploadDir, indexer: idx}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) adminToken(t *testing.T) string {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/auth/login", "", models.LoginRequest{Username: "admin", Password: "admin123"})
	require.Equal(t, http.StatusOK, w.Code)
	var resp models.AuthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Token
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestHealthAndIndex(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, nil)
	w := s.do(t, http.MethodGet, "/api/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "OK", decode[map[string]any](t, w)["status"])

	w = s.do(t, http.MethodGet, "/api", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "Premium Homes API")
}

func TestListProperties(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, nil)
	w := s.do(t, http.MethodGet, "/api/properties", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	all := decode[[]models.Property](t, w)
	require.Len(t, all, 2)
	require.Equal(t, 1, all[0].ID)

	w = s.do(t, http.MethodGet, "/api/properties?transactionType=rent", "", nil)
	rent := decode[[]models.Property](t, w)
	require.Len(t, rent, 1)
	require.Equal(t, 2, rent[0].ID)

	w = s.do(t, http.MethodGet, "/api/properties?sortBy=newest", "", nil)
	sorted := decode[[]models.Property](t, w)
	require.Equal(t, 2, sorted[0].ID)

	// unrelated or default-valued parameters keep store order
	for _, path := range []string{
		"/api/properties?_=1700000000",
		"/api/properties?city=all&propertyType=all",
		"/api/properties?minPrice=NaN",
	} {
		w = s.do(t, http.MethodGet, path, "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		got := decode[[]models.Property](t, w)
		require.Len(t, got, 2, path)
		require.Equal(t, 1, got[0].ID, path)
		require.Equal(t, 2, got[1].ID, path)
	}
}

func TestGetProperty(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, nil)
	w := s.do(t, http.MethodGet, "/api/properties/2", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	prop := decode[models.Property](t, w)
	require.Equal(t, "Vlorë", prop.City())

	w = s.do(t, http.MethodGet, "/api/properties/99", "", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Equal(t, "Property not found", decode[map[string]string](t, w)["error"])

	w = s.do(t, http.MethodGet, "/api/properties/abc", "", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMutationsRequireToken(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, nil)
	w := s.do(t, http.MethodPost, "/api/properties", "", models.Property{Title: "x"})
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Equal(t, "Access token required", decode[map[string]string](t, w)["error"])

	w = s.do(t, http.MethodDelete, "/api/properties/1", "not-a-jwt", nil)
	require.Equal(t, http.StatusForbidden, w.Code)
	require.Equal(t, "Invalid or expired token", decode[map[string]string](t, w)["error"])
}

func TestPropertyLifecycle(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, nil)
	token := s.adminToken(t)

	draft := models.Property{
		Title:           "Seaside Land",
		Location:        "Durrës, Albania",
		Price:           90000,
		PropertyType:    models.PropertyTypeLand,
		TransactionType: models.TransactionSale,
	}
	w := s.do(t, http.MethodPost, "/api/properties", token, draft)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[models.Property](t, w)
	require.Equal(t, 3, created.ID)
	require.Equal(t, []int{3}, s.indexer.indexed)

	created.Price = 80000
	created.ID = 77
	w = s.do(t, http.MethodPut, "/api/properties/3", token, created)
	require.Equal(t, http.StatusOK, w.Code)
	updated := decode[models.Property](t, w)
	require.Equal(t, 3, updated.ID)
	require.Equal(t, 80000.0, updated.Price)

	w = s.do(t, http.MethodPut, "/api/properties/50", token, created)
	require.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodDelete, "/api/properties/3", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "Property deleted successfully", decode[map[string]string](t, w)["message"])
	require.Equal(t, []int{3}, s.indexer.deleted)

	w = s.do(t, http.MethodDelete, "/api/properties/3", token, nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreatePropertyValidation(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, nil)
	token := s.adminToken(t)

	w := s.do(t, http.MethodPost, "/api/properties", token, models.Property{
		Title: "Bad", Price: -1, PropertyType: models.PropertyTypeVilla, TransactionType: models.TransactionSale,
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAgentsAndRegister(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, nil)
	w := s.do(t, http.MethodGet, "/api/agents", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, "[]", w.Body.String())

	w = s.do(t, http.MethodPost, "/api/auth/register", "", models.RegisterRequest{
		Username: "elira", Password: "pw", Name: "Elira", Email: "elira@example.com", City: "Tirana",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	reg := decode[models.AuthResponse](t, w)
	require.NotNil(t, reg.Agent)

	// agent-owned listing bumps the agent's counter
	w = s.do(t, http.MethodPost, "/api/properties", reg.Token, models.Property{
		Title: "Agent flat", PropertyType: models.PropertyTypeApartment, TransactionType: models.TransactionRent,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	require.Equal(t, reg.Agent.ID, decode[models.Property](t, w).AgentID)

	w = s.do(t, http.MethodGet, "/api/agents/"+reg.Agent.ID, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, 1, decode[models.Agent](t, w).PropertiesCount)

	w = s.do(t, http.MethodPost, "/api/agents", reg.Token, models.Agent{Name: "No email"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "Name and email are required", decode[map[string]string](t, w)["error"])

	w = s.do(t, http.MethodGet, "/api/agents/missing", "", nil)
	require.Equal(t, http.StatusNotFound, w.Code)

	// agents are not admins
	w = s.do(t, http.MethodGet, "/api/admin/stats", reg.Token, nil)
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestLoginAndVerify(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, nil)
	w := s.do(t, http.MethodPost, "/api/auth/login", "", models.LoginRequest{Username: "admin", Password: "nope"})
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Equal(t, "Invalid credentials", decode[map[string]string](t, w)["error"])

	w = s.do(t, http.MethodPost, "/api/auth/login", "", models.LoginRequest{Username: "admin"})
	require.Equal(t, http.StatusBadRequest, w.Code)

	token := s.adminToken(t)
	w = s.do(t, http.MethodGet, "/api/auth/verify", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	v := decode[models.VerifyResponse](t, w)
	require.True(t, v.Valid)
	require.Equal(t, "admin", v.User.Username)

	w = s.do(t, http.MethodGet, "/api/auth/verify", "", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	w = s.do(t, http.MethodGet, "/api/auth/verify", "junk", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLoginRateLimit(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, ratelimit.NewRateLimiter(2, 0, true))
	body := models.LoginRequest{Username: "admin", Password: "wrong"}
	require.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodPost, "/api/auth/login", "", body).Code)
	require.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodPost, "/api/auth/login", "", body).Code)
	require.Equal(t, http.StatusTooManyRequests, s.do(t, http.MethodPost, "/api/auth/login", "", body).Code)
}

func TestSearch(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, nil)

	// no query: in-memory view
	w := s.do(t, http.MethodGet, "/api/search?city=tirana", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, decode[[]models.Property](t, w), 1)

	// query goes to the index
	s.indexer.results = []models.Property{{ID: 2, Title: "from index"}}
	w = s.do(t, http.MethodGet, "/api/search?q=sea", "", nil)
	require.Equal(t, "from index", decode[[]models.Property](t, w)[0].Title)

	// index failure falls back to the filter
	s.indexer.err = os.ErrDeadlineExceeded
	w = s.do(t, http.MethodGet, "/api/search?q=vlor", "", nil)
	got := decode[[]models.Property](t, w)
	require.Len(t, got, 1)
	require.Equal(t, 2, got[0].ID)
}

func TestSearchBreakerSkipsFailingIndex(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, nil)
	s.indexer.err = os.ErrDeadlineExceeded
	for i := 0; i < 5; i++ {
		w := s.do(t, http.MethodGet, "/api/search?q=tirana", "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		require.Len(t, decode[[]models.Property](t, w), 1)
	}
	require.Equal(t, 3, s.indexer.searches)

	token := s.adminToken(t)
	w := s.do(t, http.MethodGet, "/api/admin/stats", token, nil)
	stats := decode[map[string]any](t, w)
	require.Equal(t, true, stats["search_breaker"].(map[string]any)["open"])
}

func TestSearchIgnoresNonFinitePrices(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, nil)
	s.indexer.results = []models.Property{{ID: 1, Title: "from index"}}
	for _, bound := range []string{"NaN", "Inf", "-Inf"} {
		w := s.do(t, http.MethodGet, "/api/search?q=tirana&minPrice="+bound+"&maxPrice="+bound, "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		require.Equal(t, "from index", decode[[]models.Property](t, w)[0].Title)
	}
	require.Equal(t, 3, s.indexer.searches)
	for _, c := range s.indexer.criteria {
		require.Nil(t, c.MinPrice)
		require.Nil(t, c.MaxPrice)
	}

	token := s.adminToken(t)
	w := s.do(t, http.MethodGet, "/api/admin/stats", token, nil)
	stats := decode[map[string]any](t, w)
	require.Equal(t, false, stats["search_breaker"].(map[string]any)["open"])
}

func TestOnlyOwnerOrAdminModifies(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, nil)
	admin := s.adminToken(t)

	register := func(username, email string) models.AuthResponse {
		w := s.do(t, http.MethodPost, "/api/auth/register", "", models.RegisterRequest{
			Username: username, Password: "secret1", Name: username, Email: email, City: "Tirana",
		})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		return decode[models.AuthResponse](t, w)
	}
	ana := register("ana", "ana@example.com")
	besa := register("besa", "besa@example.com")

	w := s.do(t, http.MethodPost, "/api/properties", ana.Token, models.Property{
		Title: "Ana flat", Price: 500, PropertyType: models.PropertyTypeApartment, TransactionType: models.TransactionRent,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	own := decode[models.Property](t, w)
	path := fmt.Sprintf("/api/properties/%d", own.ID)

	// seeded listing has no owner
	w = s.do(t, http.MethodPut, "/api/properties/1", ana.Token, own)
	require.Equal(t, http.StatusForbidden, w.Code)
	require.Equal(t, "You can only modify your own listings", decode[map[string]string](t, w)["error"])
	w = s.do(t, http.MethodDelete, "/api/properties/1", ana.Token, nil)
	require.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodPut, path, besa.Token, own)
	require.Equal(t, http.StatusForbidden, w.Code)
	w = s.do(t, http.MethodDelete, path, besa.Token, nil)
	require.Equal(t, http.StatusForbidden, w.Code)

	// owner cannot hand the listing to someone else
	own.Price = 550
	own.AgentID = besa.Agent.ID
	w = s.do(t, http.MethodPut, path, ana.Token, own)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decode[models.Property](t, w)
	require.Equal(t, 550.0, updated.Price)
	require.Equal(t, ana.Agent.ID, updated.AgentID)

	w = s.do(t, http.MethodPut, "/api/agents/"+ana.Agent.ID, besa.Token, ana.Agent)
	require.Equal(t, http.StatusForbidden, w.Code)
	require.Equal(t, "You can only modify your own profile", decode[map[string]string](t, w)["error"])
	w = s.do(t, http.MethodDelete, "/api/agents/"+ana.Agent.ID, besa.Token, nil)
	require.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodPut, "/api/agents/"+besa.Agent.ID, besa.Token, besa.Agent)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// admin may change anything
	w = s.do(t, http.MethodDelete, path, admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = s.do(t, http.MethodDelete, "/api/agents/"+ana.Agent.ID, admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestAdminEndpoints(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, nil)
	token := s.adminToken(t)

	w := s.do(t, http.MethodGet, "/api/admin/stats", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	stats := decode[map[string]any](t, w)
	require.Equal(t, 2.0, stats["properties"].(map[string]any)["total"])

	require.NoError(t, os.WriteFile(filepath.Join(s.uploadDir, "stray.png"), []byte("x"), 0o644))
	w = s.do(t, http.MethodPost, "/api/admin/cleanup", token, map[string]any{"min_age_hours": 0})
	require.Equal(t, http.StatusOK, w.Code)
	result := decode[cleanup.CleanupResult](t, w)
	require.True(t, result.DryRun)
	require.FileExists(t, filepath.Join(s.uploadDir, "stray.png"))

	w = s.do(t, http.MethodPost, "/api/admin/reindex", token, nil)
	require.Equal(t, http.StatusAccepted, w.Code)
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.White)
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func multipartRequest(t *testing.T, path, token, field string, files map[string][]byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for name, data := range files {
		fw, err := mw.CreateFormFile(field, name)
		require.NoError(t, err)
		_, err = fw.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestUploadImage(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, nil)
	token := s.adminToken(t)

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, multipartRequest(t, "/api/upload/image", token, "image", map[string][]byte{"house.png": pngBytes(t)}))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	img := decode[models.UploadedImage](t, w)
	require.Contains(t, img.URL, UploadURLPrefix)
	require.Equal(t, "house.png", img.OriginalName)
	require.FileExists(t, filepath.Join(s.uploadDir, img.Filename))

	// served statically
	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, img.URL, nil))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, multipartRequest(t, "/api/upload/image", token, "image", map[string][]byte{"notes.txt": []byte("hello")}))
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, multipartRequest(t, "/api/upload/image", token, "image", map[string][]byte{"fake.png": []byte("plain text")}))
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUploadImages(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, nil)
	token := s.adminToken(t)
	data := pngBytes(t)

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, multipartRequest(t, "/api/upload/images", token, "images",
		map[string][]byte{"a.png": data, "b.png": data}))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[struct {
		Images []models.UploadedImage `json:"images"`
	}](t, w)
	require.Len(t, resp.Images, 2)

	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, multipartRequest(t, "/api/upload/images", token, "images",
		map[string][]byte{"a.png": data, "b.png": data, "c.png": data, "d.png": data}))
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	req := multipartRequest(t, "/api/upload/images", "", "images", map[string][]byte{"a.png": data})
	req.Header.Del("Authorization")
	s.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}
