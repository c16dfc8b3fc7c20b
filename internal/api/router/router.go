package router

import (
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/GinaFerl/Ecommerce-Rest-API/config"
	_ "github.com/GinaFerl/Ecommerce-Rest-API/docs" // registro do spec OpenAPI
	"github.com/GinaFerl/Ecommerce-Rest-API/internal/api/product"
	"github.com/GinaFerl/Ecommerce-Rest-API/internal/api/user"
	"github.com/GinaFerl/Ecommerce-Rest-API/internal/domain"
	"github.com/GinaFerl/Ecommerce-Rest-API/internal/pkg/cache"
	"github.com/GinaFerl/Ecommerce-Rest-API/internal/pkg/logger"
	"github.com/GinaFerl/Ecommerce-Rest-API/internal/pkg/middleware"
)

// NewRouter configura e retorna o roteador HTTP principal.
// Recebe os Handlers já inicializados por injeção de dependências.
// Usamos o ServeMux padrão do net/http; os handlers verificam o método.
func NewRouter(
	productHandler *product.Handler,
	userHandler *user.Handler,
	tokenSvc middleware.TokenService,
	users middleware.UserFinder,
	cacheClient cache.Client,
	cfg *config.Config,
	log logger.Logger,
) http.Handler {

	mux := http.NewServeMux()

	// Session Guard: cookie -> token -> usuário. A ordem é fixa:
	// authenticated sempre antes de qualquer verificação de role.
	authenticated := middleware.NewAuthMiddleware(tokenSvc, users, cfg.CookieName, log)
	adminOnly := middleware.PermissionMiddleware(domain.RoleAdmin)

	// --- 1. Health Check e documentação ---
	mux.HandleFunc("/ping", PingHandler)
	mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	// --- 2. Rotas públicas de autenticação ---
	mux.HandleFunc("/api/v1/register", userHandler.RegisterHandler)
	mux.HandleFunc("/api/v1/login", userHandler.LoginHandler)
	mux.HandleFunc("/api/v1/logout", userHandler.LogoutHandler)
	mux.HandleFunc("/api/v1/password/forgot", userHandler.ForgotPasswordHandler)
	mux.HandleFunc("/api/v1/password/reset/", userHandler.ResetPasswordHandler)

	// --- 3. Rotas do usuário autenticado ---
	mux.HandleFunc("/api/v1/me", authenticated(userHandler.MeHandler))
	mux.HandleFunc("/api/v1/me/update", authenticated(userHandler.UpdateProfileHandler))
	mux.HandleFunc("/api/v1/password/update", authenticated(userHandler.UpdatePasswordHandler))

	// --- 4. Catálogo público ---
	mux.HandleFunc("/api/v1/products", productHandler.ListProductsHandler)
	mux.HandleFunc("/api/v1/products/", productHandler.ProductByIDHandler)

	// --- 5. Reviews: leitura pública, escrita autenticada ---
	mux.HandleFunc("/api/v1/reviews", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			productHandler.ReviewsHandler(w, r)
			return
		}
		authenticated(productHandler.ReviewsHandler)(w, r)
	})

	// --- 6. Rotas administrativas (auth + role admin) ---
	mux.HandleFunc("/api/v1/admin/users", authenticated(adminOnly(userHandler.ListUsersHandler)))
	mux.HandleFunc("/api/v1/admin/users/", authenticated(adminOnly(userHandler.UserByIDHandler)))
	mux.HandleFunc("/api/v1/admin/products", authenticated(adminOnly(productHandler.CreateProductHandler)))
	mux.HandleFunc("/api/v1/admin/products/", authenticated(adminOnly(productHandler.AdminProductByIDHandler)))

	// --- 7. Middlewares globais ---
	rateLimited := middleware.RateLimiter(cacheClient, cfg.RateLimitMaxRequests, cfg.RateLimitPeriod)

	return rateLimited(mux)
}

// PingHandler é uma função utilitária para o health check.
func PingHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("pong"))
}
