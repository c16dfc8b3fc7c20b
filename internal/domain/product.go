package domain

import (
	"context"
	"time"
)

// Product representa o item principal do catálogo (a Entidade).
// Ratings e NumOfReviews são campos DERIVADOS da lista de reviews:
// eles nunca são aceitos do cliente e são recomputados a cada mutação.
type Product struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Category    string  `json:"category"`
	Stock       int     `json:"stock"`

	Ratings      float64  `json:"ratings"`       // média aritmética (0 quando não há reviews)
	NumOfReviews int      `json:"num_of_reviews"`
	Reviews      []Review `json:"reviews,omitempty"`

	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Review representa a avaliação de um usuário sobre um produto.
// Invariante: no máximo UMA review por usuário por produto.
type Review struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	Rating    int       `json:"rating"` // inteiro de 1 a 5
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

// UpsertReview aplica a review de um usuário sobre o produto em memória.
// Se o usuário já avaliou, a entrada existente é atualizada no lugar
// (NumOfReviews não muda); caso contrário, a review é anexada.
// Ratings e NumOfReviews são sempre recomputados a partir da lista resultante.
// Retorna true quando uma review existente foi atualizada.
func (p *Product) UpsertReview(rev Review) bool {
	updated := false
	for i := range p.Reviews {
		if p.Reviews[i].UserID == rev.UserID {
			p.Reviews[i].Rating = rev.Rating
			p.Reviews[i].Comment = rev.Comment
			updated = true
			break
		}
	}

	if !updated {
		p.Reviews = append(p.Reviews, rev)
	}

	p.recalculate()
	return updated
}

// RemoveReview remove a review com o ID informado e recomputa os agregados.
// Retorna false quando nenhuma review com esse ID existe no produto.
func (p *Product) RemoveReview(reviewID string) bool {
	remaining := p.Reviews[:0]
	found := false
	for _, rev := range p.Reviews {
		if rev.ID == reviewID {
			found = true
			continue
		}
		remaining = append(remaining, rev)
	}

	if !found {
		return false
	}

	p.Reviews = remaining
	p.recalculate()
	return true
}

// recalculate recomputa os campos derivados a partir de Reviews.
// Lista vazia zera os dois campos.
func (p *Product) recalculate() {
	p.NumOfReviews = len(p.Reviews)
	if p.NumOfReviews == 0 {
		p.Ratings = 0
		return
	}

	sum := 0
	for _, rev := range p.Reviews {
		sum += rev.Rating
	}
	p.Ratings = float64(sum) / float64(p.NumOfReviews)
}

// --- Interfaces de Contrato ---

// ProductRepository define o que a camada de Serviço pode pedir para a Persistência.
// As mutações de review são atômicas: reviews + agregados persistidos juntos,
// com a linha do produto travada durante o read-modify-write.
type ProductRepository interface {
	Save(ctx context.Context, product Product) (Product, error)
	FindByID(ctx context.Context, id string) (Product, error)
	FindAll(ctx context.Context, filter ProductFilter) ([]Product, int, error)
	Update(ctx context.Context, product Product) error
	Delete(ctx context.Context, id string) error

	UpsertReview(ctx context.Context, productID string, rev Review) error
	DeleteReview(ctx context.Context, productID string, reviewID string) error
	FindReviews(ctx context.Context, productID string) ([]Review, error)
}

// ProductFilter define os parâmetros de busca e paginação do catálogo.
type ProductFilter struct {
	Page     int
	Limit    int
	Keyword  string
	Category string
}
