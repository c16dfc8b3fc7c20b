package productservice

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/GinaFerl/Ecommerce-Rest-API/internal/domain"
	apperror "github.com/GinaFerl/Ecommerce-Rest-API/internal/errors"
	"github.com/GinaFerl/Ecommerce-Rest-API/internal/pkg/logger"
)

// Service implementa a lógica de negócio do catálogo de produtos e reviews.
type Service struct {
	repo   domain.ProductRepository
	logger logger.Logger
}

// NewService cria e retorna uma nova instância do Serviço de Produto.
func NewService(repo domain.ProductRepository, log logger.Logger) *Service {
	return &Service{repo: repo, logger: log}
}

// CreateProduct valida e persiste um novo produto do catálogo.
// Os agregados de review nascem zerados e NUNCA são aceitos do cliente.
func (s *Service) CreateProduct(ctx context.Context, product domain.Product, creatorID string) (domain.Product, error) {
	// 1. Validação de regras de negócio
	if product.Name == "" {
		return domain.Product{}, apperror.NewValidationError("O nome do produto é obrigatório.")
	}
	if product.Price <= 0 {
		return domain.Product{}, apperror.NewValidationError("O preço do produto deve ser positivo.")
	}
	if product.Stock < 0 {
		return domain.Product{}, apperror.NewValidationError("O estoque do produto não pode ser negativo.")
	}

	// 2. Preenchimento de ID, criador e timestamps
	product.ID = uuid.NewString()
	product.CreatedBy = creatorID
	product.Ratings = 0
	product.NumOfReviews = 0
	product.Reviews = nil
	now := time.Now().UTC()
	product.CreatedAt = now
	product.UpdatedAt = now

	// 3. Delegação para a camada de persistência
	created, err := s.repo.Save(ctx, product)
	if err != nil {
		return domain.Product{}, err
	}

	s.logger.Info("Produto criado.", map[string]interface{}{"product_id": created.ID, "created_by": creatorID})
	return created, nil
}

// GetProductByID busca um produto pelo ID (com reviews).
func (s *Service) GetProductByID(ctx context.Context, id string) (domain.Product, error) {
	if _, err := uuid.Parse(id); err != nil {
		return domain.Product{}, apperror.NewValidationError("O ID do produto deve ser um UUID válido.")
	}

	return s.repo.FindByID(ctx, id)
}

// GetProducts retorna a página do catálogo segundo o filtro.
// Page e Limit inválidos caem para os padrões (1, 10).
func (s *Service) GetProducts(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, int, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 || filter.Limit > 100 {
		filter.Limit = 10
	}

	return s.repo.FindAll(ctx, filter)
}

// UpdateProduct atualiza os campos editáveis de um produto existente.
func (s *Service) UpdateProduct(ctx context.Context, product domain.Product) (domain.Product, error) {
	if _, err := uuid.Parse(product.ID); err != nil {
		return domain.Product{}, apperror.NewValidationError("O ID do produto deve ser um UUID válido.")
	}
	if product.Name == "" {
		return domain.Product{}, apperror.NewValidationError("O nome do produto é obrigatório.")
	}
	if product.Price <= 0 {
		return domain.Product{}, apperror.NewValidationError("O preço do produto deve ser positivo.")
	}

	if err := s.repo.Update(ctx, product); err != nil {
		return domain.Product{}, err
	}

	// Releitura para devolver o estado persistido (agregados intactos)
	return s.repo.FindByID(ctx, product.ID)
}

// DeleteProduct remove um produto do catálogo.
func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return apperror.NewValidationError("O ID do produto deve ser um UUID válido.")
	}

	return s.repo.Delete(ctx, id)
}

// GetReviews retorna as reviews de um produto.
func (s *Service) GetReviews(ctx context.Context, productID string) ([]domain.Review, error) {
	if _, err := uuid.Parse(productID); err != nil {
		return nil, apperror.NewValidationError("O ID do produto deve ser um UUID válido.")
	}

	return s.repo.FindReviews(ctx, productID)
}

// UpsertReview cria ou atualiza a review do usuário autenticado sobre um
// produto. A faixa de rating (1 a 5) é imposta aqui; a persistência recomputa
// e grava os agregados atomicamente.
func (s *Service) UpsertReview(ctx context.Context, productID, userID, userName string, rating int, comment string) error {
	if _, err := uuid.Parse(productID); err != nil {
		return apperror.NewValidationError("O ID do produto deve ser um UUID válido.")
	}
	if rating < 1 || rating > 5 {
		return apperror.NewValidationError("O rating deve ser um inteiro entre 1 e 5.")
	}

	rev := domain.Review{
		UserID:  userID,
		Name:    userName,
		Rating:  rating,
		Comment: comment,
	}

	return s.repo.UpsertReview(ctx, productID, rev)
}

// DeleteReview remove uma review de um produto. Só o autor da review ou um
// admin podem removê-la.
func (s *Service) DeleteReview(ctx context.Context, productID, reviewID, requesterID string, requesterRole domain.UserRole) error {
	if _, err := uuid.Parse(productID); err != nil {
		return apperror.NewValidationError("O ID do produto deve ser um UUID válido.")
	}
	if reviewID == "" {
		return apperror.NewValidationError("O ID da review é obrigatório.")
	}

	if requesterRole != domain.RoleAdmin {
		reviews, err := s.repo.FindReviews(ctx, productID)
		if err != nil {
			return err
		}

		owned := false
		for _, rev := range reviews {
			if rev.ID == reviewID && rev.UserID == requesterID {
				owned = true
				break
			}
		}
		if !owned {
			return apperror.NewForbiddenError("Você só pode remover as suas próprias reviews.")
		}
	}

	return s.repo.DeleteReview(ctx, productID, reviewID)
}
