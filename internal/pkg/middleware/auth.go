package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/GinaFerl/Ecommerce-Rest-API/internal/domain"
	apperror "github.com/GinaFerl/Ecommerce-Rest-API/internal/errors"
	"github.com/GinaFerl/Ecommerce-Rest-API/internal/pkg/logger"
	"github.com/GinaFerl/Ecommerce-Rest-API/internal/pkg/token"
)

// ContextKey é o tipo usado para chaves de contexto deste pacote.
// Usamos um tipo próprio para garantir que a chave seja única e não haja
// conflito com chaves string de outros pacotes.
type ContextKey int

const (
	// UserIdentityKey é a chave usada para armazenar a identidade do usuário no contexto.
	UserIdentityKey ContextKey = iota
)

// UserIdentity representa o usuário autenticado resolvido a partir do cookie
// de sessão, anexado ao contexto da requisição pelo AuthMiddleware.
type UserIdentity struct {
	UserID string
	Name   string
	Role   domain.UserRole
}

// TokenService define o contrato de validação necessário para o middleware.
type TokenService interface {
	ValidateToken(tokenString string) (*token.CustomClaims, error)
}

// UserFinder define a busca de usuário necessária para resolver a identidade.
// O token é stateless; a busca garante que o usuário ainda existe.
type UserFinder interface {
	FindByID(ctx context.Context, id string) (domain.User, error)
}

// writeAuthError envia a resposta de erro no envelope padrão da API.
// Os middlewares são os únicos pontos fora dos handlers que escrevem resposta,
// então repetimos aqui o formato do tradutor central.
func writeAuthError(w http.ResponseWriter, err error) {
	status, category, message := apperror.MapToHTTPStatus(err)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success":  false,
		"code":     status,
		"category": category,
		"message":  message,
	})
}

// NewAuthMiddleware cria o Session Guard: lê o token de sessão do cookie,
// valida a assinatura/expiração e resolve a identidade no banco.
// Fluxo fixo: Unauthenticated -> Authenticated, ou Rejected(401) quando
// o cookie está ausente, o token é inválido/expirado ou o usuário não existe mais.
func NewAuthMiddleware(tokenSvc TokenService, users UserFinder, cookieName string, log logger.Logger) func(next http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {

			// 1. Extrair o token do cookie de sessão (HTTP-only)
			cookie, err := r.Cookie(cookieName)
			if err != nil || cookie.Value == "" {
				writeAuthError(w, apperror.NewUnauthorizedError("Faça login para acessar este recurso."))
				return
			}

			// 2. Validar o token
			claims, err := tokenSvc.ValidateToken(cookie.Value)
			if err != nil {
				if errors.Is(err, token.ErrTokenExpired) {
					log.Debug("Sessão rejeitada: token expirado.", map[string]interface{}{"path": r.URL.Path})
				}
				writeAuthError(w, apperror.NewUnauthorizedError("Sessão inválida ou expirada. Faça login novamente."))
				return
			}

			// 3. Resolver a identidade: o usuário pode ter sido removido
			// depois da emissão do token.
			user, err := users.FindByID(r.Context(), claims.UserID)
			if err != nil {
				writeAuthError(w, apperror.NewUnauthorizedError("Sessão inválida ou expirada. Faça login novamente."))
				return
			}

			identity := UserIdentity{
				UserID: user.ID,
				Name:   user.Name,
				Role:   user.Role,
			}

			ctx := context.WithValue(r.Context(), UserIdentityKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		}
	}
}

// GetUserIdentity extrai a identidade autenticada do contexto nos handlers.
func GetUserIdentity(ctx context.Context) (UserIdentity, bool) {
	identity, ok := ctx.Value(UserIdentityKey).(UserIdentity)
	return identity, ok
}

// PermissionMiddleware verifica se a role da identidade autenticada está na
// lista de roles permitidas. DEVE ser encadeado depois do AuthMiddleware:
// a resolução de identidade sempre precede a autorização.
func PermissionMiddleware(requiredRoles ...domain.UserRole) func(next http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {

			// 1. A identidade precisa ter sido anexada pelo AuthMiddleware
			identity, ok := GetUserIdentity(r.Context())
			if !ok {
				writeAuthError(w, apperror.NewUnauthorizedError("Autorização necessária. Sessão não processada."))
				return
			}

			// 2. Verificar permissão (AuthZ)
			for _, required := range requiredRoles {
				if identity.Role == required {
					next.ServeHTTP(w, r)
					return
				}
			}

			writeAuthError(w, apperror.NewForbiddenError(
				"Role: "+string(identity.Role)+" não tem permissão para acessar este recurso."))
		}
	}
}
