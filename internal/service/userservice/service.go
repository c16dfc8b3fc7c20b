package userservice

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/GinaFerl/Ecommerce-Rest-API/internal/domain"
	apperror "github.com/GinaFerl/Ecommerce-Rest-API/internal/errors"
	"github.com/GinaFerl/Ecommerce-Rest-API/internal/pkg/logger"
	"github.com/GinaFerl/Ecommerce-Rest-API/internal/pkg/mailer"
	"github.com/GinaFerl/Ecommerce-Rest-API/internal/pkg/password"
)

// TokenService é o contrato da camada de token (internal/pkg/token).
type TokenService interface {
	GenerateToken(userID string) (string, time.Time, error)
}

// Session agrupa o resultado de uma autenticação bem-sucedida:
// o usuário e o token de sessão que o Handler emitirá como cookie.
type Session struct {
	User      domain.User
	Token     string
	ExpiresAt time.Time
}

// UserService implementa a lógica de negócio de usuários: registro, login,
// perfil, recuperação de senha e operações administrativas.
type UserService struct {
	UserRepo         domain.UserRepository
	TokenSvc         TokenService
	Mailer           mailer.Mailer
	ResetTokenExpiry time.Duration
	logger           logger.Logger
}

// NewService cria uma nova instância do UserService, injetando as dependências.
func NewService(repo domain.UserRepository, tokenSvc TokenService, mail mailer.Mailer, resetExpiry time.Duration, log logger.Logger) *UserService {
	return &UserService{
		UserRepo:         repo,
		TokenSvc:         tokenSvc,
		Mailer:           mail,
		ResetTokenExpiry: resetExpiry,
		logger:           log,
	}
}

// issueSession gera o token de sessão para o usuário autenticado.
func (s *UserService) issueSession(user domain.User) (Session, error) {
	tokenString, expiresAt, err := s.TokenSvc.GenerateToken(user.ID)
	if err != nil {
		return Session{}, apperror.NewInternalError("Falha ao gerar token de autenticação.", err)
	}
	return Session{User: user, Token: tokenString, ExpiresAt: expiresAt}, nil
}

// Register registra um novo usuário no sistema com a role padrão "customer"
// e já autentica o chamador (emite sessão).
func (s *UserService) Register(ctx context.Context, registration domain.UserRegistration) (Session, error) {
	// 1. Validação básica de presença
	if registration.Name == "" || registration.Email == "" || registration.Password == "" {
		return Session{}, apperror.NewValidationError("Nome, e-mail e senha são obrigatórios.")
	}

	// 2. Hashing da senha (one-way, salt embutido)
	hashed, err := password.Hash(registration.Password)
	if err != nil {
		return Session{}, apperror.NewInternalError("Falha ao gerar hash da senha.", err)
	}

	newUser := domain.User{
		Name:         registration.Name,
		Email:        registration.Email,
		PasswordHash: hashed,
		Role:         domain.RoleCustomer,
	}

	// 3. Persistência (e-mail duplicado volta como ConflictError do repositório)
	user, err := s.UserRepo.Save(ctx, newUser)
	if err != nil {
		return Session{}, err
	}

	s.logger.Info("Novo usuário registrado.", map[string]interface{}{"user_id": user.ID})
	return s.issueSession(user)
}

// Login autentica um usuário, verifica a senha e emite a sessão.
// E-mail desconhecido e senha incorreta produzem a MESMA resposta 401,
// para não dar dicas a invasores.
func (s *UserService) Login(ctx context.Context, email string, pass string) (Session, error) {
	if email == "" || pass == "" {
		return Session{}, apperror.NewValidationError("Informe e-mail e senha.")
	}

	user, err := s.UserRepo.FindByEmail(ctx, email)
	if err != nil {
		var notFound *apperror.NotFoundError
		if errors.As(err, &notFound) {
			return Session{}, apperror.NewUnauthorizedError("E-mail ou senha inválidos.")
		}
		return Session{}, err
	}

	if !password.Verify(pass, user.PasswordHash) {
		return Session{}, apperror.NewUnauthorizedError("E-mail ou senha inválidos.")
	}

	return s.issueSession(user)
}

// GetProfile retorna os dados do usuário autenticado.
func (s *UserService) GetProfile(ctx context.Context, userID string) (domain.User, error) {
	return s.UserRepo.FindByID(ctx, userID)
}

// UpdateProfile atualiza nome e e-mail do usuário autenticado.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, update domain.UserUpdate) (domain.User, error) {
	if update.Name == "" || update.Email == "" {
		return domain.User{}, apperror.NewValidationError("Nome e e-mail são obrigatórios.")
	}

	user, err := s.UserRepo.FindByID(ctx, userID)
	if err != nil {
		return domain.User{}, err
	}

	user.Name = update.Name
	user.Email = update.Email

	if err := s.UserRepo.Update(ctx, user); err != nil {
		return domain.User{}, err
	}

	return user, nil
}

// UpdatePassword troca a senha do usuário autenticado após conferir a senha
// antiga, e re-emite a sessão.
func (s *UserService) UpdatePassword(ctx context.Context, userID, oldPassword, newPassword, confirmPassword string) (Session, error) {
	if oldPassword == "" || newPassword == "" || confirmPassword == "" {
		return Session{}, apperror.NewValidationError("Informe a senha antiga, a nova senha e a confirmação.")
	}

	user, err := s.UserRepo.FindByID(ctx, userID)
	if err != nil {
		return Session{}, err
	}

	if !password.Verify(oldPassword, user.PasswordHash) {
		return Session{}, apperror.NewValidationError("A senha antiga está incorreta.")
	}

	if newPassword != confirmPassword {
		return Session{}, apperror.NewValidationError("A nova senha e a confirmação não conferem.")
	}

	hashed, err := password.Hash(newPassword)
	if err != nil {
		return Session{}, apperror.NewInternalError("Falha ao gerar hash da senha.", err)
	}

	if err := s.UserRepo.UpdatePassword(ctx, user.ID, hashed); err != nil {
		return Session{}, err
	}

	return s.issueSession(user)
}

// hashResetToken deriva o hash armazenável (SHA-256 hex) do token bruto.
// Só o hash toca o banco; o token bruto viaja apenas no e-mail.
func hashResetToken(rawToken string) string {
	sum := sha256.Sum256([]byte(rawToken))
	return hex.EncodeToString(sum[:])
}

// ForgotPassword inicia o fluxo de recuperação: gera um token aleatório,
// grava o hash + expiração no usuário e envia o token bruto por e-mail
// dentro de uma URL de reset. Se o envio falhar, os campos gravados são
// LIMPOS (rollback) antes de propagar o erro.
func (s *UserService) ForgotPassword(ctx context.Context, email string, baseURL string) error {
	user, err := s.UserRepo.FindByEmail(ctx, email)
	if err != nil {
		// UserNotFound (404) propaga sem nenhuma mutação de estado
		return err
	}

	// 1. Token criptograficamente aleatório (o bruto nunca é persistido)
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return apperror.NewInternalError("Falha ao gerar token de reset.", err)
	}
	rawToken := hex.EncodeToString(buf)

	// 2. Grava hash + expiração
	expire := time.Now().UTC().Add(s.ResetTokenExpiry)
	if err := s.UserRepo.SetResetToken(ctx, user.ID, hashResetToken(rawToken), expire); err != nil {
		return err
	}

	// 3. Dispara o e-mail com a URL de reset
	resetURL := fmt.Sprintf("%s/api/v1/password/reset/%s", baseURL, rawToken)
	message := fmt.Sprintf(
		"Seu token de recuperação de senha é:\n\n%s\n\nSe você não solicitou este e-mail, apenas o ignore.", resetURL)

	if err := s.Mailer.Send(user.Email, "Ecommerce - Recuperação de Senha", message); err != nil {
		// Rollback: limpa hash/expiração antes de reportar a falha externa
		if clearErr := s.UserRepo.ClearResetToken(ctx, user.ID); clearErr != nil {
			s.logger.Error("Falha no rollback do token de reset.", clearErr)
		}
		return apperror.NewExternalServiceError("não foi possível enviar o e-mail de recuperação", err)
	}

	s.logger.Info("E-mail de recuperação enviado.", map[string]interface{}{"user_id": user.ID})
	return nil
}

// ResetPassword conclui o fluxo de recuperação: confere o token apresentado
// contra o hash armazenado (com expiração no futuro), troca a senha, limpa os
// campos de reset e re-autentica o chamador com uma nova sessão.
func (s *UserService) ResetPassword(ctx context.Context, rawToken, newPassword, confirmPassword string) (Session, error) {
	user, err := s.UserRepo.FindByResetHash(ctx, hashResetToken(rawToken))
	if err != nil {
		var notFound *apperror.NotFoundError
		if errors.As(err, &notFound) {
			// Token desconhecido, consumido ou expirado: 400, como um token malformado
			return Session{}, apperror.NewValidationError("Token de reset inválido ou expirado.")
		}
		return Session{}, err
	}

	if newPassword == "" || newPassword != confirmPassword {
		return Session{}, apperror.NewValidationError("A nova senha e a confirmação não conferem.")
	}

	hashed, err := password.Hash(newPassword)
	if err != nil {
		return Session{}, apperror.NewInternalError("Falha ao gerar hash da senha.", err)
	}

	// Senha nova + limpeza do token em uma única escrita: uso único garantido.
	if err := s.UserRepo.ConsumeResetToken(ctx, user.ID, hashed); err != nil {
		return Session{}, err
	}

	s.logger.Info("Senha redefinida via token de reset.", map[string]interface{}{"user_id": user.ID})
	return s.issueSession(user)
}

// --- Operações administrativas ---

// ListUsers retorna todos os usuários (admin).
func (s *UserService) ListUsers(ctx context.Context) ([]domain.User, error) {
	return s.UserRepo.FindAll(ctx)
}

// GetUser retorna um usuário pelo ID (admin).
func (s *UserService) GetUser(ctx context.Context, id string) (domain.User, error) {
	return s.UserRepo.FindByID(ctx, id)
}

// UpdateUserRole atualiza nome, e-mail e role de um usuário (admin).
func (s *UserService) UpdateUserRole(ctx context.Context, id string, update domain.UserUpdate) (domain.User, error) {
	role := domain.UserRole(update.Role)
	if role != domain.RoleAdmin && role != domain.RoleCustomer {
		return domain.User{}, apperror.NewValidationError("Role inválida: use 'customer' ou 'admin'.")
	}

	user, err := s.UserRepo.FindByID(ctx, id)
	if err != nil {
		return domain.User{}, err
	}

	if update.Name != "" {
		user.Name = update.Name
	}
	if update.Email != "" {
		user.Email = update.Email
	}
	user.Role = role

	if err := s.UserRepo.Update(ctx, user); err != nil {
		return domain.User{}, err
	}

	return user, nil
}

// DeleteUser remove um usuário (admin).
func (s *UserService) DeleteUser(ctx context.Context, id string) error {
	return s.UserRepo.Delete(ctx, id)
}
