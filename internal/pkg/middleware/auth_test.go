package middleware_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/GinaFerl/Ecommerce-Rest-API/internal/domain"
	apperror "github.com/GinaFerl/Ecommerce-Rest-API/internal/errors"
	"github.com/GinaFerl/Ecommerce-Rest-API/internal/pkg/logger"
	"github.com/GinaFerl/Ecommerce-Rest-API/internal/pkg/middleware"
	"github.com/GinaFerl/Ecommerce-Rest-API/internal/pkg/token"
)

const (
	testSecret = "segredo-de-teste-com-tamanho-suficiente"
	cookieName = "token"
)

// MockUserFinder é um mock da busca de usuário usada na resolução de identidade.
type MockUserFinder struct {
	mock.Mock
}

func (m *MockUserFinder) FindByID(ctx context.Context, id string) (domain.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.User), args.Error(1)
}

// newRequestWithSession monta uma requisição com o cookie de sessão preenchido.
func newRequestWithSession(tokenString string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	if tokenString != "" {
		req.AddCookie(&http.Cookie{Name: cookieName, Value: tokenString})
	}
	return req
}

// decodeEnvelope lê o envelope de erro padrão da resposta.
func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

// TestAuthMiddleware_NoCookie verifica que a ausência do cookie de sessão
// rejeita a requisição com 401 sem chamar o handler.
func TestAuthMiddleware_NoCookie(t *testing.T) {
	tokenSvc := token.NewService(testSecret, time.Hour)
	users := new(MockUserFinder)
	authenticated := middleware.NewAuthMiddleware(tokenSvc, users, cookieName, logger.NewLogger("error"))

	called := false
	handler := authenticated(func(w http.ResponseWriter, r *http.Request) { called = true })

	rec := httptest.NewRecorder()
	handler(rec, newRequestWithSession(""))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, called)
	body := decodeEnvelope(t, rec)
	assert.Equal(t, false, body["success"])
}

// TestAuthMiddleware_ExpiredToken verifica que um token expirado é rejeitado com 401.
func TestAuthMiddleware_ExpiredToken(t *testing.T) {
	expiredIssuer := token.NewService(testSecret, -time.Minute)
	tokenString, _, err := expiredIssuer.GenerateToken("u1")
	require.NoError(t, err)

	tokenSvc := token.NewService(testSecret, time.Hour)
	users := new(MockUserFinder)
	authenticated := middleware.NewAuthMiddleware(tokenSvc, users, cookieName, logger.NewLogger("error"))

	rec := httptest.NewRecorder()
	handler := authenticated(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("o handler não deve ser chamado com token expirado")
	})
	handler(rec, newRequestWithSession(tokenString))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	users.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
}

// TestAuthMiddleware_UserNoLongerExists verifica que um token válido de um
// usuário removido do banco é rejeitado com 401.
func TestAuthMiddleware_UserNoLongerExists(t *testing.T) {
	tokenSvc := token.NewService(testSecret, time.Hour)
	tokenString, _, err := tokenSvc.GenerateToken("u1")
	require.NoError(t, err)

	users := new(MockUserFinder)
	users.On("FindByID", mock.Anything, "u1").
		Return(domain.User{}, apperror.NewNotFoundError("não encontrado"))

	authenticated := middleware.NewAuthMiddleware(tokenSvc, users, cookieName, logger.NewLogger("error"))

	rec := httptest.NewRecorder()
	handler := authenticated(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("o handler não deve ser chamado para usuário inexistente")
	})
	handler(rec, newRequestWithSession(tokenString))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

// TestAuthMiddleware_ValidSession verifica o caminho feliz: o handler roda
// com a identidade do usuário anexada ao contexto.
func TestAuthMiddleware_ValidSession(t *testing.T) {
	tokenSvc := token.NewService(testSecret, time.Hour)
	tokenString, _, err := tokenSvc.GenerateToken("u1")
	require.NoError(t, err)

	users := new(MockUserFinder)
	users.On("FindByID", mock.Anything, "u1").
		Return(domain.User{ID: "u1", Name: "Gina", Role: domain.RoleCustomer}, nil)

	authenticated := middleware.NewAuthMiddleware(tokenSvc, users, cookieName, logger.NewLogger("error"))

	var identity middleware.UserIdentity
	var found bool
	handler := authenticated(func(w http.ResponseWriter, r *http.Request) {
		identity, found = middleware.GetUserIdentity(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	handler(rec, newRequestWithSession(tokenString))

	assert.Equal(t, http.StatusOK, rec.Code)
	require.True(t, found)
	assert.Equal(t, "u1", identity.UserID)
	assert.Equal(t, "Gina", identity.Name)
	assert.Equal(t, domain.RoleCustomer, identity.Role)
}

// TestPermissionMiddleware_CustomerForbidden verifica que uma role fora da
// lista permitida recebe 403.
func TestPermissionMiddleware_CustomerForbidden(t *testing.T) {
	adminOnly := middleware.PermissionMiddleware(domain.RoleAdmin)

	handler := adminOnly(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("o handler não deve ser chamado sem a role exigida")
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/users", nil)
	ctx := context.WithValue(req.Context(), middleware.UserIdentityKey, middleware.UserIdentity{
		UserID: "u1",
		Role:   domain.RoleCustomer,
	})

	rec := httptest.NewRecorder()
	handler(rec, req.WithContext(ctx))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	body := decodeEnvelope(t, rec)
	assert.Equal(t, "FORBIDDEN", body["category"])
}

// TestPermissionMiddleware_AdminAllowed verifica que a role exigida passa.
func TestPermissionMiddleware_AdminAllowed(t *testing.T) {
	adminOnly := middleware.PermissionMiddleware(domain.RoleAdmin)

	called := false
	handler := adminOnly(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/users", nil)
	ctx := context.WithValue(req.Context(), middleware.UserIdentityKey, middleware.UserIdentity{
		UserID: "admin-1",
		Role:   domain.RoleAdmin,
	})

	rec := httptest.NewRecorder()
	handler(rec, req.WithContext(ctx))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, called)
}

// TestPermissionMiddleware_MissingIdentity verifica o encadeamento incorreto:
// sem identidade no contexto a resposta é 401, não pânico.
func TestPermissionMiddleware_MissingIdentity(t *testing.T) {
	adminOnly := middleware.PermissionMiddleware(domain.RoleAdmin)

	handler := adminOnly(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("o handler não deve ser chamado sem identidade no contexto")
	})

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/api/v1/admin/users", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
