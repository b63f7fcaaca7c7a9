package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	authmw "github.com/Dhia7/weary-sub000/internal/middleware/auth"
	"github.com/Dhia7/weary-sub000/internal/models"
	"github.com/Dhia7/weary-sub000/internal/repo"
	"github.com/Dhia7/weary-sub000/internal/service"
	"github.com/Dhia7/weary-sub000/internal/testutil"
	pkg_hash "github.com/Dhia7/weary-sub000/pkg/hash"
)

var (
	testAccessSecret  = []byte("access-secret")
	testRefreshSecret = []byte("refresh-secret")
)

type testApp struct {
	e    *echo.Echo
	repo *repo.GormRepo
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	r := repo.New(testutil.NewDB(t))

	authSvc := &service.AuthService{
		Repo:             r,
		JWTSecret:        testAccessSecret,
		RefreshSecret:    testRefreshSecret,
		AccessTTL:        15 * time.Minute,
		RefreshTTL:       time.Hour,
		MaxLoginAttempts: 3,
		LockDuration:     time.Minute,
	}
	products := &service.ProductService{Repo: r}
	cart := &service.CartService{Repo: r}
	orders := &service.OrderService{
		Repo:                  r,
		FreeShippingThreshold: decimal.NewFromInt(100),
		ShippingFlatRate:      decimal.NewFromInt(10),
	}

	uploads := t.TempDir()
	e := echo.New()
	Register(e, &Deps{
		AuthHandler:       &AuthHTTP{Svc: authSvc},
		UserHandler:       &UserHTTP{Svc: &service.UserService{Repo: r}},
		ProductHandler:    &ProductHTTP{Svc: products, Uploads: &Uploads{Dir: uploads, MaxBytes: 1 << 20}},
		CategoryHandler:   &CategoryHTTP{Svc: &service.CategoryService{Repo: r}},
		CollectionHandler: &CollectionHTTP{Svc: &service.CollectionService{Repo: r}},
		CartHandler:       &CartHTTP{Svc: cart},
		WishlistHandler:   &WishlistHTTP{Svc: &service.WishlistService{Repo: r, Cart: cart}},
		OrderHandler:      &OrderHTTP{Svc: orders},
		AdminHandler:      &AdminHTTP{Svc: &service.AdminService{Repo: r, LowStockThreshold: 5}, Orders: orders},
		HealthHandler:     &HealthHTTP{DB: r},
		Auth:              authmw.New(testAccessSecret, r),
		UploadDir:         uploads,
	})
	return &testApp{e: e, repo: r}
}

type apiResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (a *testApp) call(t *testing.T, method, path, token string, body any) (int, apiResponse) {
	t.Helper()
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rdr)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)

	var res apiResponse
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res), rec.Body.String())
	}
	return rec.Code, res
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v), string(raw))
	return v
}

func (a *testApp) seedUser(t *testing.T, email, role string) {
	t.Helper()
	h, err := pkg_hash.HashPassword("secret123")
	require.NoError(t, err)
	require.NoError(t, a.repo.CreateUser(context.Background(), &models.User{
		Email: email, PasswordHash: h, FirstName: "T", LastName: "U", Role: role, IsActive: true,
	}))
}

func (a *testApp) login(t *testing.T, email string) string {
	t.Helper()
	code, res := a.call(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": email, "password": "secret123"})
	require.Equal(t, http.StatusOK, code, res.Message)
	data := decode[struct {
		AccessToken string `json:"accessToken"`
	}](t, res.Data)
	require.NotEmpty(t, data.AccessToken)
	return data.AccessToken
}

func jsonBody(t *testing.T, v any) io.Reader {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewReader(b)
}
