package product

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/GinaFerl/Ecommerce-Rest-API/internal/domain"
	apperror "github.com/GinaFerl/Ecommerce-Rest-API/internal/errors"
	"github.com/GinaFerl/Ecommerce-Rest-API/internal/pkg/logger"
	"github.com/GinaFerl/Ecommerce-Rest-API/internal/pkg/middleware"
)

// ProductService define o contrato que o Handler espera da camada de Serviço.
type ProductService interface {
	CreateProduct(ctx context.Context, product domain.Product, creatorID string) (domain.Product, error)
	GetProductByID(ctx context.Context, id string) (domain.Product, error)
	GetProducts(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, int, error)
	UpdateProduct(ctx context.Context, product domain.Product) (domain.Product, error)
	DeleteProduct(ctx context.Context, id string) error
	GetReviews(ctx context.Context, productID string) ([]domain.Review, error)
	UpsertReview(ctx context.Context, productID, userID, userName string, rating int, comment string) error
	DeleteReview(ctx context.Context, productID, reviewID, requesterID string, requesterRole domain.UserRole) error
}

// ReviewRequest representa o payload de criação/atualização de review.
// Rating chega como número JSON e é coagido para inteiro.
type ReviewRequest struct {
	ProductID string  `json:"productId"`
	Rating    float64 `json:"rating"`
	Comment   string  `json:"comment"`
}

// Handler agrupa todos os métodos de Handler do produto.
type Handler struct {
	Service ProductService
	Logger  logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc ProductService, log logger.Logger) *Handler {
	return &Handler{
		Service: svc,
		Logger:  log,
	}
}

// respond padroniza o envelope de resposta, igual ao handler de usuário:
// {"success": true, ...payload} no sucesso; erros traduzidos via MapToHTTPStatus.
func (h *Handler) respond(w http.ResponseWriter, r *http.Request, payload map[string]interface{}, err error, successStatus int) {
	w.Header().Set("Content-Type", "application/json")

	if err == nil {
		body := map[string]interface{}{"success": true}
		for k, v := range payload {
			body[k] = v
		}
		w.WriteHeader(successStatus)
		json.NewEncoder(w).Encode(body)
		return
	}

	status, category, message := apperror.MapToHTTPStatus(err)

	if status >= 500 {
		h.Logger.Error(fmt.Sprintf("Erro de servidor: %s", category), err)
	} else {
		h.Logger.Debug(fmt.Sprintf("Requisição rejeitada com status %d.", status), map[string]interface{}{"path": r.URL.Path})
	}

	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success":  false,
		"code":     status,
		"category": category,
		"message":  message,
	})
}

// ListProductsHandler lida com GET /api/v1/products.
// @Summary Lista o catálogo com busca e paginação
// @Tags products
// @Produce json
// @Param keyword query string false "Busca por nome"
// @Param category query string false "Filtro por categoria"
// @Param page query int false "Página (padrão 1)"
// @Param limit query int false "Itens por página (padrão 10)"
// @Success 200 {object} map[string]interface{} "Produtos e total"
// @Router /products [get]
func (h *Handler) ListProductsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}

	query := r.URL.Query()
	page, _ := strconv.Atoi(query.Get("page"))
	limit, _ := strconv.Atoi(query.Get("limit"))

	filter := domain.ProductFilter{
		Page:     page,
		Limit:    limit,
		Keyword:  query.Get("keyword"),
		Category: query.Get("category"),
	}

	products, total, err := h.Service.GetProducts(r.Context(), filter)
	if err != nil {
		h.respond(w, r, nil, err, 0)
		return
	}

	h.respond(w, r, map[string]interface{}{
		"products":     products,
		"productCount": total,
	}, nil, http.StatusOK)
}

// ProductByIDHandler lida com GET /api/v1/products/{id}.
// @Summary Busca um produto por ID (com reviews)
// @Tags products
// @Produce json
// @Param id path string true "ID do produto"
// @Success 200 {object} map[string]interface{} "Produto"
// @Failure 404 {object} domain.ErrorResponse "Produto não encontrado"
// @Router /products/{id} [get]
func (h *Handler) ProductByIDHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/v1/products/")
	if id == "" || strings.Contains(id, "/") {
		h.respond(w, r, nil, apperror.NewValidationError("ID do produto ausente na URL."), 0)
		return
	}

	product, err := h.Service.GetProductByID(r.Context(), id)
	if err != nil {
		h.respond(w, r, nil, err, 0)
		return
	}

	h.respond(w, r, map[string]interface{}{"product": product}, nil, http.StatusOK)
}

// CreateProductHandler lida com POST /api/v1/admin/products (admin).
// @Summary Cria um novo produto
// @Tags admin
// @Accept json
// @Produce json
// @Param product body domain.Product true "Dados do produto"
// @Success 201 {object} map[string]interface{} "Produto criado"
// @Failure 403 {object} domain.ErrorResponse "Role sem permissão"
// @Router /admin/products [post]
func (h *Handler) CreateProductHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}

	identity, ok := middleware.GetUserIdentity(r.Context())
	if !ok {
		h.respond(w, r, nil, apperror.NewUnauthorizedError("Sessão não processada."), 0)
		return
	}

	var product domain.Product
	if err := json.NewDecoder(r.Body).Decode(&product); err != nil {
		h.respond(w, r, nil, apperror.NewValidationError("Payload JSON inválido."), 0)
		return
	}

	created, err := h.Service.CreateProduct(r.Context(), product, identity.UserID)
	if err != nil {
		h.respond(w, r, nil, err, 0)
		return
	}

	h.respond(w, r, map[string]interface{}{"product": created}, nil, http.StatusCreated)
}

// AdminProductByIDHandler despacha PUT/DELETE /api/v1/admin/products/{id} (admin).
// @Summary Atualiza ou remove um produto
// @Tags admin
// @Accept json
// @Produce json
// @Param id path string true "ID do produto"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} domain.ErrorResponse "Produto não encontrado"
// @Router /admin/products/{id} [put]
func (h *Handler) AdminProductByIDHandler(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/v1/admin/products/")
	if id == "" || strings.Contains(id, "/") {
		h.respond(w, r, nil, apperror.NewValidationError("ID do produto ausente na URL."), 0)
		return
	}

	switch r.Method {
	case http.MethodPut:
		var product domain.Product
		if err := json.NewDecoder(r.Body).Decode(&product); err != nil {
			h.respond(w, r, nil, apperror.NewValidationError("Payload JSON inválido."), 0)
			return
		}
		product.ID = id

		updated, err := h.Service.UpdateProduct(r.Context(), product)
		if err != nil {
			h.respond(w, r, nil, err, 0)
			return
		}
		h.respond(w, r, map[string]interface{}{"product": updated}, nil, http.StatusOK)

	case http.MethodDelete:
		if err := h.Service.DeleteProduct(r.Context(), id); err != nil {
			h.respond(w, r, nil, err, 0)
			return
		}
		h.respond(w, r, map[string]interface{}{"message": "Produto removido com sucesso."}, nil, http.StatusOK)

	default:
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
	}
}

// ReviewsHandler despacha GET/PUT/DELETE /api/v1/reviews.
// GET é público; PUT (upsert) e DELETE exigem sessão — o roteador encadeia o
// AuthMiddleware apenas para os métodos de escrita, então aqui verificamos
// a identidade quando ela é necessária.
// @Summary Lista, cria/atualiza ou remove reviews de um produto
// @Tags reviews
// @Accept json
// @Produce json
// @Param productId query string false "ID do produto (GET/DELETE)"
// @Param id query string false "ID da review (DELETE)"
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} domain.ErrorResponse "Não autenticado"
// @Failure 403 {object} domain.ErrorResponse "Review de outro usuário"
// @Router /reviews [put]
func (h *Handler) ReviewsHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		productID := r.URL.Query().Get("productId")
		if productID == "" {
			h.respond(w, r, nil, apperror.NewValidationError("Informe o parâmetro productId."), 0)
			return
		}

		reviews, err := h.Service.GetReviews(r.Context(), productID)
		if err != nil {
			h.respond(w, r, nil, err, 0)
			return
		}
		h.respond(w, r, map[string]interface{}{"reviews": reviews}, nil, http.StatusOK)

	case http.MethodPut:
		identity, ok := middleware.GetUserIdentity(r.Context())
		if !ok {
			h.respond(w, r, nil, apperror.NewUnauthorizedError("Faça login para avaliar produtos."), 0)
			return
		}

		var body ReviewRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			h.respond(w, r, nil, apperror.NewValidationError("Payload JSON inválido."), 0)
			return
		}

		err := h.Service.UpsertReview(r.Context(), body.ProductID,
			identity.UserID, identity.Name, int(body.Rating), body.Comment)
		if err != nil {
			h.respond(w, r, nil, err, 0)
			return
		}
		h.respond(w, r, map[string]interface{}{"message": "Review registrada."}, nil, http.StatusOK)

	case http.MethodDelete:
		identity, ok := middleware.GetUserIdentity(r.Context())
		if !ok {
			h.respond(w, r, nil, apperror.NewUnauthorizedError("Faça login para remover reviews."), 0)
			return
		}

		productID := r.URL.Query().Get("productId")
		reviewID := r.URL.Query().Get("id")

		err := h.Service.DeleteReview(r.Context(), productID, reviewID, identity.UserID, identity.Role)
		if err != nil {
			h.respond(w, r, nil, err, 0)
			return
		}
		h.respond(w, r, map[string]interface{}{"message": "Review removida."}, nil, http.StatusOK)

	default:
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
	}
}
