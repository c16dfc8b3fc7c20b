package productservice_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/GinaFerl/Ecommerce-Rest-API/internal/domain"
	apperror "github.com/GinaFerl/Ecommerce-Rest-API/internal/errors"
	"github.com/GinaFerl/Ecommerce-Rest-API/internal/pkg/logger"
	"github.com/GinaFerl/Ecommerce-Rest-API/internal/service/productservice"
)

// MockProductRepository é uma implementação mock da interface domain.ProductRepository.
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) Save(ctx context.Context, product domain.Product) (domain.Product, error) {
	args := m.Called(ctx, product)
	return args.Get(0).(domain.Product), args.Error(1)
}

func (m *MockProductRepository) FindByID(ctx context.Context, id string) (domain.Product, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Product), args.Error(1)
}

func (m *MockProductRepository) FindAll(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, int, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.Product), args.Int(1), args.Error(2)
}

func (m *MockProductRepository) Update(ctx context.Context, product domain.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *MockProductRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockProductRepository) UpsertReview(ctx context.Context, productID string, rev domain.Review) error {
	args := m.Called(ctx, productID, rev)
	return args.Error(0)
}

func (m *MockProductRepository) DeleteReview(ctx context.Context, productID, reviewID string) error {
	args := m.Called(ctx, productID, reviewID)
	return args.Error(0)
}

func (m *MockProductRepository) FindReviews(ctx context.Context, productID string) ([]domain.Review, error) {
	args := m.Called(ctx, productID)
	return args.Get(0).([]domain.Review), args.Error(1)
}

func newService(repo *MockProductRepository) *productservice.Service {
	return productservice.NewService(repo, logger.NewLogger("error"))
}

// --- Catálogo ---

// TestCreateProduct_Success verifica o preenchimento de ID, criador e
// agregados zerados na criação.
func TestCreateProduct_Success(t *testing.T) {
	repo := new(MockProductRepository)
	svc := newService(repo)

	repo.On("Save", mock.Anything, mock.MatchedBy(func(p domain.Product) bool {
		// Os agregados nascem zerados, mesmo que o cliente tente enviá-los
		return p.Ratings == 0 && p.NumOfReviews == 0 && p.CreatedBy == "admin-1" && p.ID != ""
	})).Return(domain.Product{ID: "p1", Name: "Teclado", Price: 199.90}, nil)

	created, err := svc.CreateProduct(context.Background(), domain.Product{
		Name:         "Teclado",
		Price:        199.90,
		Stock:        10,
		Ratings:      4.9, // deve ser ignorado
		NumOfReviews: 42,  // deve ser ignorado
	}, "admin-1")

	require.NoError(t, err)
	assert.Equal(t, "p1", created.ID)
	repo.AssertExpectations(t)
}

// TestCreateProduct_InvalidPrice verifica a validação de preço, sem tocar o repositório.
func TestCreateProduct_InvalidPrice(t *testing.T) {
	repo := new(MockProductRepository)
	svc := newService(repo)

	_, err := svc.CreateProduct(context.Background(), domain.Product{Name: "Teclado", Price: 0}, "admin-1")

	assert.IsType(t, &apperror.ValidationError{}, err)
	repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

// TestGetProductByID_InvalidUUID verifica a validação do formato do ID.
func TestGetProductByID_InvalidUUID(t *testing.T) {
	repo := new(MockProductRepository)
	svc := newService(repo)

	_, err := svc.GetProductByID(context.Background(), "nao-e-uuid")

	assert.IsType(t, &apperror.ValidationError{}, err)
	repo.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
}

// TestGetProducts_DefaultsPagination verifica que page/limit inválidos caem
// para os padrões antes de chegar ao repositório.
func TestGetProducts_DefaultsPagination(t *testing.T) {
	repo := new(MockProductRepository)
	svc := newService(repo)

	repo.On("FindAll", mock.Anything, domain.ProductFilter{Page: 1, Limit: 10, Keyword: "teclado"}).
		Return([]domain.Product{{ID: "p1"}}, 1, nil)

	products, total, err := svc.GetProducts(context.Background(), domain.ProductFilter{
		Page:    0,
		Limit:   500,
		Keyword: "teclado",
	})

	require.NoError(t, err)
	assert.Len(t, products, 1)
	assert.Equal(t, 1, total)
	repo.AssertExpectations(t)
}

// --- Reviews ---

// TestUpsertReview_RatingOutOfRange verifica que ratings fora de 1..5 são
// rejeitados antes de qualquer acesso à persistência.
func TestUpsertReview_RatingOutOfRange(t *testing.T) {
	repo := new(MockProductRepository)
	svc := newService(repo)
	productID := uuid.NewString()

	for _, rating := range []int{0, 6, -1} {
		err := svc.UpsertReview(context.Background(), productID, "u1", "Gina", rating, "ok")
		assert.IsType(t, &apperror.ValidationError{}, err)
	}
	repo.AssertNotCalled(t, "UpsertReview", mock.Anything, mock.Anything, mock.Anything)
}

// TestUpsertReview_Success verifica a delegação com a review montada a partir
// da identidade autenticada.
func TestUpsertReview_Success(t *testing.T) {
	repo := new(MockProductRepository)
	svc := newService(repo)
	productID := uuid.NewString()

	repo.On("UpsertReview", mock.Anything, productID, domain.Review{
		UserID:  "u1",
		Name:    "Gina",
		Rating:  5,
		Comment: "Excelente",
	}).Return(nil)

	err := svc.UpsertReview(context.Background(), productID, "u1", "Gina", 5, "Excelente")

	require.NoError(t, err)
	repo.AssertExpectations(t)
}

// TestDeleteReview_NotOwner verifica que um cliente não pode remover a review
// de outro usuário.
func TestDeleteReview_NotOwner(t *testing.T) {
	repo := new(MockProductRepository)
	svc := newService(repo)
	productID := uuid.NewString()

	repo.On("FindReviews", mock.Anything, productID).
		Return([]domain.Review{{ID: "r1", UserID: "outro-usuario"}}, nil)

	err := svc.DeleteReview(context.Background(), productID, "r1", "u1", domain.RoleCustomer)

	assert.IsType(t, &apperror.ForbiddenError{}, err)
	repo.AssertNotCalled(t, "DeleteReview", mock.Anything, mock.Anything, mock.Anything)
}

// TestDeleteReview_Owner verifica que o autor consegue remover a própria review.
func TestDeleteReview_Owner(t *testing.T) {
	repo := new(MockProductRepository)
	svc := newService(repo)
	productID := uuid.NewString()

	repo.On("FindReviews", mock.Anything, productID).
		Return([]domain.Review{{ID: "r1", UserID: "u1"}}, nil)
	repo.On("DeleteReview", mock.Anything, productID, "r1").Return(nil)

	err := svc.DeleteReview(context.Background(), productID, "r1", "u1", domain.RoleCustomer)

	require.NoError(t, err)
	repo.AssertExpectations(t)
}

// TestDeleteReview_AdminBypassesOwnership verifica que o admin remove qualquer
// review sem a checagem de autoria.
func TestDeleteReview_AdminBypassesOwnership(t *testing.T) {
	repo := new(MockProductRepository)
	svc := newService(repo)
	productID := uuid.NewString()

	repo.On("DeleteReview", mock.Anything, productID, "r1").Return(nil)

	err := svc.DeleteReview(context.Background(), productID, "r1", "admin-1", domain.RoleAdmin)

	require.NoError(t, err)
	repo.AssertNotCalled(t, "FindReviews", mock.Anything, mock.Anything)
	repo.AssertExpectations(t)
}
