package productrepo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/GinaFerl/Ecommerce-Rest-API/internal/domain"
	apperror "github.com/GinaFerl/Ecommerce-Rest-API/internal/errors"
	"github.com/GinaFerl/Ecommerce-Rest-API/internal/pkg/cache"
	"github.com/GinaFerl/Ecommerce-Rest-API/internal/pkg/logger"
)

// Chave de cache para produtos individuais.
const productCacheKey = "product:%s"

// ProductRepository implementa a interface domain.ProductRepository.
// Contém as conexões necessárias para acessar dados (PostgreSQL + Redis).
type ProductRepository struct {
	DB        *sql.DB
	Cache     cache.Client
	DBTimeout time.Duration
	CacheTTL  time.Duration
	logger    logger.Logger
}

// NewProductRepository cria e retorna uma nova instância do Repositório.
// Aqui injetamos as dependências de Infraestrutura (DB e Cache).
func NewProductRepository(db *sql.DB, cacheClient cache.Client, dbTimeout, cacheTTL time.Duration, logger logger.Logger) *ProductRepository {
	return &ProductRepository{
		DB:        db,
		Cache:     cacheClient,
		DBTimeout: dbTimeout,
		CacheTTL:  cacheTTL,
		logger:    logger,
	}
}

// Save persiste um novo Produto no banco de dados.
func (r *ProductRepository) Save(ctx context.Context, product domain.Product) (domain.Product, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	const productSQL = `INSERT INTO products (id, name, description, price, category, stock, ratings, num_of_reviews, created_by, created_at, updated_at)
	                    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`

	_, err := r.DB.ExecContext(ctxTimeout, productSQL,
		product.ID,
		product.Name,
		product.Description,
		product.Price,
		product.Category,
		product.Stock,
		product.Ratings,
		product.NumOfReviews,
		product.CreatedBy,
		product.CreatedAt,
		product.UpdatedAt,
	)
	if err != nil {
		return domain.Product{}, apperror.NewDBError("failed to insert product", err)
	}

	return product, nil
}

// FindByID busca um produto pelo ID, utilizando a estratégia Cache-Aside.
// As reviews são carregadas junto com o produto.
func (r *ProductRepository) FindByID(ctx context.Context, id string) (domain.Product, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	key := fmt.Sprintf(productCacheKey, id)
	var product domain.Product

	// --- 1. Estratégia Cache-Aside (READ) ---
	cachedData, err := r.Cache.Get(ctxTimeout, key)
	if err == nil {
		if json.Unmarshal([]byte(cachedData), &product) == nil {
			return product, nil
		}
		// Desserialização falhou: segue para o DB
	} else if err != cache.ErrCacheMiss {
		// Erro real de cache (conexão perdida): degrada para o DB
		r.logger.Warn("Falha ao ler do cache Redis, caindo para o DB.", map[string]interface{}{"key": key})
	}

	// --- 2. Busca no Banco de Dados ---
	const productSQL = `
		SELECT id, name, description, price, category, stock, ratings, num_of_reviews, created_by, created_at, updated_at
		FROM products
		WHERE id = $1`

	row := r.DB.QueryRowContext(ctxTimeout, productSQL, id)
	err = row.Scan(
		&product.ID,
		&product.Name,
		&product.Description,
		&product.Price,
		&product.Category,
		&product.Stock,
		&product.Ratings,
		&product.NumOfReviews,
		&product.CreatedBy,
		&product.CreatedAt,
		&product.UpdatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return domain.Product{}, apperror.NewNotFoundError(fmt.Sprintf("Produto com ID '%s' não encontrado.", id))
	}
	if err != nil {
		return domain.Product{}, apperror.NewDBError("failed to find product", err)
	}

	product.Reviews, err = r.loadReviews(ctxTimeout, r.DB, id)
	if err != nil {
		return domain.Product{}, err
	}

	// --- 3. Estratégia Cache-Aside (WRITE) ---
	if productJSON, marshalErr := json.Marshal(product); marshalErr == nil {
		r.Cache.Set(ctxTimeout, key, productJSON, r.CacheTTL)
	}

	return product, nil
}

// FindAll retorna a página de produtos solicitada pelo filtro e o total de itens.
func (r *ProductRepository) FindAll(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, int, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	// Filtro opcional por palavra-chave (nome) e categoria
	where := ` WHERE ($1 = '' OR name ILIKE '%' || $1 || '%') AND ($2 = '' OR category = $2)`

	var total int
	if err := r.DB.QueryRowContext(ctxTimeout, `SELECT COUNT(*) FROM products`+where,
		filter.Keyword, filter.Category).Scan(&total); err != nil {
		return nil, 0, apperror.NewDBError("failed to count products", err)
	}

	query := `
		SELECT id, name, description, price, category, stock, ratings, num_of_reviews, created_by, created_at, updated_at
		FROM products` + where + `
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4`

	offset := (filter.Page - 1) * filter.Limit
	rows, err := r.DB.QueryContext(ctxTimeout, query, filter.Keyword, filter.Category, filter.Limit, offset)
	if err != nil {
		return nil, 0, apperror.NewDBError("failed to list products", err)
	}
	defer rows.Close()

	products := []domain.Product{}
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(
			&p.ID,
			&p.Name,
			&p.Description,
			&p.Price,
			&p.Category,
			&p.Stock,
			&p.Ratings,
			&p.NumOfReviews,
			&p.CreatedBy,
			&p.CreatedAt,
			&p.UpdatedAt,
		); err != nil {
			return nil, 0, apperror.NewDBError("failed to scan product row", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, apperror.NewDBError("failed to iterate product rows", err)
	}

	return products, total, nil
}

// Update atualiza os campos editáveis do produto e invalida o cache.
// Ratings e NumOfReviews NÃO passam por aqui: são derivados e só mudam
// pelas mutações de review.
func (r *ProductRepository) Update(ctx context.Context, product domain.Product) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	const updateSQL = `UPDATE products SET name = $1, description = $2, price = $3, category = $4, stock = $5, updated_at = $6
	                   WHERE id = $7`

	result, err := r.DB.ExecContext(ctxTimeout, updateSQL,
		product.Name, product.Description, product.Price, product.Category, product.Stock,
		time.Now().UTC(), product.ID)
	if err != nil {
		return apperror.NewDBError("failed to update product", err)
	}

	if err := r.requireRowAffected(result, product.ID); err != nil {
		return err
	}

	r.Cache.Delete(ctxTimeout, fmt.Sprintf(productCacheKey, product.ID))
	return nil
}

// Delete remove o produto (as reviews caem junto por ON DELETE CASCADE).
func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	result, err := r.DB.ExecContext(ctxTimeout, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return apperror.NewDBError("failed to delete product", err)
	}

	if err := r.requireRowAffected(result, id); err != nil {
		return err
	}

	r.Cache.Delete(ctxTimeout, fmt.Sprintf(productCacheKey, id))
	return nil
}

// FindReviews retorna a lista de reviews de um produto.
func (r *ProductRepository) FindReviews(ctx context.Context, productID string) ([]domain.Review, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	// Garante 404 para produto inexistente antes de listar
	var exists bool
	if err := r.DB.QueryRowContext(ctxTimeout,
		`SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)`, productID).Scan(&exists); err != nil {
		return nil, apperror.NewDBError("failed to check product", err)
	}
	if !exists {
		return nil, apperror.NewNotFoundError(fmt.Sprintf("Produto com ID '%s' não encontrado.", productID))
	}

	return r.loadReviews(ctxTimeout, r.DB, productID)
}

// queryer cobre *sql.DB e *sql.Tx para reuso de loadReviews dentro e fora de transação.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

// loadReviews carrega as reviews de um produto em ordem de criação.
func (r *ProductRepository) loadReviews(ctx context.Context, q queryer, productID string) ([]domain.Review, error) {
	const reviewSQL = `SELECT id, user_id, name, rating, comment, created_at
	                   FROM reviews WHERE product_id = $1 ORDER BY created_at`

	rows, err := q.QueryContext(ctx, reviewSQL, productID)
	if err != nil {
		return nil, apperror.NewDBError("failed to load reviews", err)
	}
	defer rows.Close()

	reviews := []domain.Review{}
	for rows.Next() {
		var rev domain.Review
		if err := rows.Scan(&rev.ID, &rev.UserID, &rev.Name, &rev.Rating, &rev.Comment, &rev.CreatedAt); err != nil {
			return nil, apperror.NewDBError("failed to scan review row", err)
		}
		reviews = append(reviews, rev)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDBError("failed to iterate review rows", err)
	}

	return reviews, nil
}

// UpsertReview aplica a review de um usuário e persiste reviews + agregados
// em UMA transação, com a linha do produto travada (SELECT ... FOR UPDATE).
// Isso fecha a corrida de submissões concorrentes: dois upserts no mesmo
// produto serializam no lock e cada um recomputa sobre o estado já commitado.
func (r *ProductRepository) UpsertReview(ctx context.Context, productID string, rev domain.Review) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	tx, err := r.DB.BeginTx(ctxTimeout, nil)
	if err != nil {
		return apperror.NewDBError("failed to start tx", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	// 1. Trava a linha do produto durante o read-modify-write
	product, err := r.lockProduct(ctxTimeout, tx, productID)
	if err != nil {
		return err
	}

	// 2. Carrega as reviews atuais e aplica a mutação em memória
	product.Reviews, err = r.loadReviews(ctxTimeout, tx, productID)
	if err != nil {
		return err
	}

	if rev.ID == "" {
		rev.ID = uuid.NewString()
	}
	rev.CreatedAt = time.Now().UTC()
	updatedInPlace := product.UpsertReview(rev)

	// 3. Persiste a review (update in place ou insert)
	if updatedInPlace {
		const updateSQL = `UPDATE reviews SET rating = $1, comment = $2 WHERE product_id = $3 AND user_id = $4`
		if _, err = tx.ExecContext(ctxTimeout, updateSQL, rev.Rating, rev.Comment, productID, rev.UserID); err != nil {
			return apperror.NewDBError("failed to update review", err)
		}
	} else {
		const insertSQL = `INSERT INTO reviews (id, product_id, user_id, name, rating, comment, created_at)
		                   VALUES ($1,$2,$3,$4,$5,$6,$7)`
		if _, err = tx.ExecContext(ctxTimeout, insertSQL,
			rev.ID, productID, rev.UserID, rev.Name, rev.Rating, rev.Comment, rev.CreatedAt); err != nil {
			return apperror.NewDBError("failed to insert review", err)
		}
	}

	// 4. Persiste os agregados recomputados na MESMA transação
	if err = r.persistAggregates(ctxTimeout, tx, product); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return apperror.NewDBError("failed to commit tx", err)
	}

	r.Cache.Delete(ctxTimeout, fmt.Sprintf(productCacheKey, productID))
	return nil
}

// DeleteReview remove a review e persiste os agregados recomputados
// na mesma transação (0 reviews zera ratings e num_of_reviews).
func (r *ProductRepository) DeleteReview(ctx context.Context, productID string, reviewID string) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	tx, err := r.DB.BeginTx(ctxTimeout, nil)
	if err != nil {
		return apperror.NewDBError("failed to start tx", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	product, err := r.lockProduct(ctxTimeout, tx, productID)
	if err != nil {
		return err
	}

	product.Reviews, err = r.loadReviews(ctxTimeout, tx, productID)
	if err != nil {
		return err
	}

	if !product.RemoveReview(reviewID) {
		err = apperror.NewNotFoundError(fmt.Sprintf("Review com ID '%s' não encontrada.", reviewID))
		return err
	}

	if _, err = tx.ExecContext(ctxTimeout, `DELETE FROM reviews WHERE id = $1 AND product_id = $2`, reviewID, productID); err != nil {
		return apperror.NewDBError("failed to delete review", err)
	}

	if err = r.persistAggregates(ctxTimeout, tx, product); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return apperror.NewDBError("failed to commit tx", err)
	}

	r.Cache.Delete(ctxTimeout, fmt.Sprintf(productCacheKey, productID))
	return nil
}

// lockProduct carrega o produto dentro da transação com FOR UPDATE.
func (r *ProductRepository) lockProduct(ctx context.Context, tx *sql.Tx, productID string) (domain.Product, error) {
	const lockSQL = `SELECT id, ratings, num_of_reviews FROM products WHERE id = $1 FOR UPDATE`

	var product domain.Product
	err := tx.QueryRowContext(ctx, lockSQL, productID).Scan(&product.ID, &product.Ratings, &product.NumOfReviews)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Product{}, apperror.NewNotFoundError(fmt.Sprintf("Produto com ID '%s' não encontrado.", productID))
	}
	if err != nil {
		return domain.Product{}, apperror.NewDBError("failed to lock product row", err)
	}
	return product, nil
}

// persistAggregates grava ratings e num_of_reviews derivados.
func (r *ProductRepository) persistAggregates(ctx context.Context, tx *sql.Tx, product domain.Product) error {
	const aggSQL = `UPDATE products SET ratings = $1, num_of_reviews = $2, updated_at = $3 WHERE id = $4`
	if _, err := tx.ExecContext(ctx, aggSQL, product.Ratings, product.NumOfReviews, time.Now().UTC(), product.ID); err != nil {
		return apperror.NewDBError("failed to persist review aggregates", err)
	}
	return nil
}

// requireRowAffected traduz "nenhuma linha afetada" para NotFoundError.
func (r *ProductRepository) requireRowAffected(result sql.Result, id string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return apperror.NewDBError("failed to read rows affected", err)
	}
	if affected == 0 {
		return apperror.NewNotFoundError(fmt.Sprintf("Produto com ID '%s' não encontrado.", id))
	}
	return nil
}
