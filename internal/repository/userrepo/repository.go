package userrepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/GinaFerl/Ecommerce-Rest-API/internal/domain"
	apperror "github.com/GinaFerl/Ecommerce-Rest-API/internal/errors"
	"github.com/GinaFerl/Ecommerce-Rest-API/internal/pkg/logger"
)

// Código de erro do PostgreSQL para violação de chave única (e-mail duplicado).
const pgUniqueViolation = "23505"

// Colunas retornadas em toda leitura de usuário.
const userColumns = `id, name, email, password_hash, role, reset_password_token, reset_password_expire, created_at, updated_at`

// UserRepository implementa a interface domain.UserRepository sobre PostgreSQL.
type UserRepository struct {
	DB        *sql.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewUserRepository cria uma nova instância do UserRepository, injetando o DB.
func NewUserRepository(db *sql.DB, dbTimeout time.Duration, logger logger.Logger) *UserRepository {
	return &UserRepository{
		DB:        db,
		DBTimeout: dbTimeout,
		logger:    logger,
	}
}

// scanUser mapeia uma linha do DB para a struct domain.User.
// Os campos de reset são anuláveis no schema.
func scanUser(row *sql.Row) (domain.User, error) {
	var user domain.User
	var resetToken sql.NullString
	var resetExpire sql.NullTime

	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&resetToken,
		&resetExpire,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return domain.User{}, err
	}

	if resetToken.Valid {
		user.ResetPasswordToken = resetToken.String
	}
	if resetExpire.Valid {
		t := resetExpire.Time
		user.ResetPasswordExpire = &t
	}
	return user, nil
}

// Save insere um novo usuário no banco de dados.
// Violação de unicidade de e-mail é traduzida para ConflictError (409).
func (r *UserRepository) Save(ctx context.Context, user domain.User) (domain.User, error) {
	r.logger.Debug("Iniciando Save de usuário no repositório.", map[string]interface{}{"email": user.Email})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	user.ID = uuid.NewString()
	user.CreatedAt = time.Now().UTC()
	user.UpdatedAt = user.CreatedAt

	const insertSQL = `INSERT INTO users (id, name, email, password_hash, role, created_at, updated_at)
	                   VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.DB.ExecContext(
		ctxTimeout,
		insertSQL,
		user.ID,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.Role,
		user.CreatedAt,
		user.UpdatedAt,
	)

	if err != nil {
		// Verifica o código específico do driver pq para duplicidade de e-mail
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == pgUniqueViolation {
			return domain.User{}, apperror.NewConflictError(
				fmt.Sprintf("O e-mail '%s' já está em uso.", user.Email))
		}
		r.logger.Error("Falha ao inserir usuário no DB.", err)
		return domain.User{}, apperror.NewDBError("failed to insert user", err)
	}

	r.logger.Info("Usuário salvo com sucesso no repositório.", map[string]interface{}{"user_id": user.ID})
	return user, nil
}

// FindByEmail busca um usuário pelo endereço de e-mail (inclui o hash da senha,
// que o serviço de login precisa comparar).
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (domain.User, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	user, err := scanUser(r.DB.QueryRowContext(ctxTimeout, query, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, apperror.NewNotFoundError(
				fmt.Sprintf("Usuário com e-mail '%s' não encontrado.", email))
		}
		r.logger.Error("Falha ao buscar usuário por e-mail no DB.", err)
		return domain.User{}, apperror.NewDBError("failed to find user by email", err)
	}

	return user, nil
}

// FindByID busca um usuário pelo identificador.
func (r *UserRepository) FindByID(ctx context.Context, id string) (domain.User, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(r.DB.QueryRowContext(ctxTimeout, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, apperror.NewNotFoundError(
				fmt.Sprintf("Usuário com ID '%s' não encontrado.", id))
		}
		r.logger.Error("Falha ao buscar usuário por ID no DB.", err)
		return domain.User{}, apperror.NewDBError("failed to find user by id", err)
	}

	return user, nil
}

// FindByResetHash busca o usuário cujo hash de token de reset corresponde
// E cuja expiração ainda está no futuro. A expiração é verificada aqui
// (lazy, no momento do uso) — não há varredura ativa de tokens vencidos.
func (r *UserRepository) FindByResetHash(ctx context.Context, tokenHash string) (domain.User, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `SELECT ` + userColumns + ` FROM users
	          WHERE reset_password_token = $1 AND reset_password_expire > $2`

	user, err := scanUser(r.DB.QueryRowContext(ctxTimeout, query, tokenHash, time.Now().UTC()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Token desconhecido, já consumido ou expirado — mesmo resultado.
			return domain.User{}, apperror.NewNotFoundError("Token de reset inválido ou expirado.")
		}
		r.logger.Error("Falha ao buscar usuário por token de reset no DB.", err)
		return domain.User{}, apperror.NewDBError("failed to find user by reset hash", err)
	}

	return user, nil
}

// FindAll retorna todos os usuários (operação de admin).
func (r *UserRepository) FindAll(ctx context.Context) ([]domain.User, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at`

	rows, err := r.DB.QueryContext(ctxTimeout, query)
	if err != nil {
		r.logger.Error("Falha ao listar usuários no DB.", err)
		return nil, apperror.NewDBError("failed to list users", err)
	}
	defer rows.Close()

	users := []domain.User{}
	for rows.Next() {
		var user domain.User
		var resetToken sql.NullString
		var resetExpire sql.NullTime

		if err := rows.Scan(
			&user.ID,
			&user.Name,
			&user.Email,
			&user.PasswordHash,
			&user.Role,
			&resetToken,
			&resetExpire,
			&user.CreatedAt,
			&user.UpdatedAt,
		); err != nil {
			return nil, apperror.NewDBError("failed to scan user row", err)
		}

		if resetToken.Valid {
			user.ResetPasswordToken = resetToken.String
		}
		if resetExpire.Valid {
			t := resetExpire.Time
			user.ResetPasswordExpire = &t
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, apperror.NewDBError("failed to iterate user rows", err)
	}

	return users, nil
}

// Update atualiza nome, e-mail e role do usuário.
func (r *UserRepository) Update(ctx context.Context, user domain.User) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	const updateSQL = `UPDATE users SET name = $1, email = $2, role = $3, updated_at = $4 WHERE id = $5`

	result, err := r.DB.ExecContext(ctxTimeout, updateSQL,
		user.Name, user.Email, user.Role, time.Now().UTC(), user.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == pgUniqueViolation {
			return apperror.NewConflictError(
				fmt.Sprintf("O e-mail '%s' já está em uso.", user.Email))
		}
		r.logger.Error("Falha ao atualizar usuário no DB.", err)
		return apperror.NewDBError("failed to update user", err)
	}

	return r.requireRowAffected(result, user.ID)
}

// UpdatePassword grava um novo hash de senha para o usuário.
func (r *UserRepository) UpdatePassword(ctx context.Context, id string, passwordHash string) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	const updateSQL = `UPDATE users SET password_hash = $1, updated_at = $2 WHERE id = $3`

	result, err := r.DB.ExecContext(ctxTimeout, updateSQL, passwordHash, time.Now().UTC(), id)
	if err != nil {
		r.logger.Error("Falha ao atualizar senha no DB.", err)
		return apperror.NewDBError("failed to update password", err)
	}

	return r.requireRowAffected(result, id)
}

// SetResetToken grava o hash do token de reset e a expiração no usuário.
func (r *UserRepository) SetResetToken(ctx context.Context, id string, tokenHash string, expire time.Time) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	const updateSQL = `UPDATE users SET reset_password_token = $1, reset_password_expire = $2, updated_at = $3 WHERE id = $4`

	result, err := r.DB.ExecContext(ctxTimeout, updateSQL, tokenHash, expire, time.Now().UTC(), id)
	if err != nil {
		r.logger.Error("Falha ao gravar token de reset no DB.", err)
		return apperror.NewDBError("failed to set reset token", err)
	}

	return r.requireRowAffected(result, id)
}

// ClearResetToken limpa os dois campos de reset juntos.
// Usado tanto no consumo do token quanto no rollback por falha de e-mail.
func (r *UserRepository) ClearResetToken(ctx context.Context, id string) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	const updateSQL = `UPDATE users SET reset_password_token = NULL, reset_password_expire = NULL, updated_at = $1 WHERE id = $2`

	result, err := r.DB.ExecContext(ctxTimeout, updateSQL, time.Now().UTC(), id)
	if err != nil {
		r.logger.Error("Falha ao limpar token de reset no DB.", err)
		return apperror.NewDBError("failed to clear reset token", err)
	}

	return r.requireRowAffected(result, id)
}

// ConsumeResetToken grava a nova senha e limpa os campos de reset na MESMA
// escrita. Um token consumido (ou expirado) nunca volta a casar no
// FindByResetHash — idempotência do fluxo de reset.
func (r *UserRepository) ConsumeResetToken(ctx context.Context, id string, passwordHash string) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	const updateSQL = `UPDATE users
	                   SET password_hash = $1, reset_password_token = NULL, reset_password_expire = NULL, updated_at = $2
	                   WHERE id = $3`

	result, err := r.DB.ExecContext(ctxTimeout, updateSQL, passwordHash, time.Now().UTC(), id)
	if err != nil {
		r.logger.Error("Falha ao consumir token de reset no DB.", err)
		return apperror.NewDBError("failed to consume reset token", err)
	}

	return r.requireRowAffected(result, id)
}

// Delete remove o usuário (operação de admin).
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	result, err := r.DB.ExecContext(ctxTimeout, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("Falha ao remover usuário no DB.", err)
		return apperror.NewDBError("failed to delete user", err)
	}

	return r.requireRowAffected(result, id)
}

// requireRowAffected traduz "nenhuma linha afetada" para NotFoundError.
func (r *UserRepository) requireRowAffected(result sql.Result, id string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return apperror.NewDBError("failed to read rows affected", err)
	}
	if affected == 0 {
		return apperror.NewNotFoundError(fmt.Sprintf("Usuário com ID '%s' não encontrado.", id))
	}
	return nil
}
