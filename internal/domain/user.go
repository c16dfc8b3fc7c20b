package domain

import (
	"context"
	"time"
)

// User representa a entidade do usuário no sistema.
// O hash da senha e os campos de reset NUNCA são serializados na resposta.
type User struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Email        string   `json:"email"`
	PasswordHash string   `json:"-"` // Oculta o hash da senha no JSON de resposta
	Role         UserRole `json:"role"`

	// Campos do fluxo de recuperação de senha.
	// Invariante: ResetPasswordToken presente SSE ResetPasswordExpire presente
	// e no futuro; ambos são limpos juntos quando o token é consumido.
	ResetPasswordToken  string     `json:"-"` // hash SHA-256 (hex) do token bruto
	ResetPasswordExpire *time.Time `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UserRole é um tipo string para representar o papel do usuário no sistema.
type UserRole string

// Constantes para os papéis de usuário
const (
	RoleAdmin    UserRole = "admin"
	RoleCustomer UserRole = "customer"
)

// UserRegistration representa o payload de entrada para o registro.
type UserRegistration struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserUpdate representa os campos mutáveis do perfil (e, para admin, a role).
type UserUpdate struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role,omitempty"`
}

// UserRepository define o contrato de persistência para a entidade User.
type UserRepository interface {
	Save(ctx context.Context, user User) (User, error)
	FindByEmail(ctx context.Context, email string) (User, error)
	FindByID(ctx context.Context, id string) (User, error)
	// FindByResetHash busca o usuário cujo hash de reset corresponde E cuja
	// expiração ainda está no futuro (a expiração é verificada aqui, lazy).
	FindByResetHash(ctx context.Context, tokenHash string) (User, error)
	FindAll(ctx context.Context) ([]User, error)
	Update(ctx context.Context, user User) error
	UpdatePassword(ctx context.Context, id string, passwordHash string) error
	// SetResetToken grava hash+expiração; ClearResetToken limpa ambos (rollback).
	SetResetToken(ctx context.Context, id string, tokenHash string, expire time.Time) error
	ClearResetToken(ctx context.Context, id string) error
	// ConsumeResetToken grava a nova senha E limpa os campos de reset em uma
	// única escrita, garantindo que o token nunca possa ser usado duas vezes.
	ConsumeResetToken(ctx context.Context, id string, passwordHash string) error
	Delete(ctx context.Context, id string) error
}
