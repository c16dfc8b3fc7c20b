package userservice_test

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/GinaFerl/Ecommerce-Rest-API/internal/domain"
	apperror "github.com/GinaFerl/Ecommerce-Rest-API/internal/errors"
	"github.com/GinaFerl/Ecommerce-Rest-API/internal/pkg/logger"
	"github.com/GinaFerl/Ecommerce-Rest-API/internal/pkg/password"
	"github.com/GinaFerl/Ecommerce-Rest-API/internal/service/userservice"
)

// MockUserRepository é uma implementação mock da interface domain.UserRepository.
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Save(ctx context.Context, user domain.User) (domain.User, error) {
	args := m.Called(ctx, user)
	return args.Get(0).(domain.User), args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (domain.User, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(domain.User), args.Error(1)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id string) (domain.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.User), args.Error(1)
}

func (m *MockUserRepository) FindByResetHash(ctx context.Context, tokenHash string) (domain.User, error) {
	args := m.Called(ctx, tokenHash)
	return args.Get(0).(domain.User), args.Error(1)
}

func (m *MockUserRepository) FindAll(ctx context.Context) ([]domain.User, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.User), args.Error(1)
}

func (m *MockUserRepository) Update(ctx context.Context, user domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) UpdatePassword(ctx context.Context, id string, passwordHash string) error {
	args := m.Called(ctx, id, passwordHash)
	return args.Error(0)
}

func (m *MockUserRepository) SetResetToken(ctx context.Context, id string, tokenHash string, expire time.Time) error {
	args := m.Called(ctx, id, tokenHash, expire)
	return args.Error(0)
}

func (m *MockUserRepository) ClearResetToken(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockUserRepository) ConsumeResetToken(ctx context.Context, id string, passwordHash string) error {
	args := m.Called(ctx, id, passwordHash)
	return args.Error(0)
}

func (m *MockUserRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockTokenService é um mock do emissor de tokens de sessão.
type MockTokenService struct {
	mock.Mock
}

func (m *MockTokenService) GenerateToken(userID string) (string, time.Time, error) {
	args := m.Called(userID)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}

// MockMailer é um mock do colaborador de e-mail.
type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) Send(to, subject, body string) error {
	args := m.Called(to, subject, body)
	return args.Error(0)
}

// newService monta o serviço com todos os mocks injetados.
func newService(repo *MockUserRepository, tokenSvc *MockTokenService, mailer *MockMailer) *userservice.UserService {
	return userservice.NewService(repo, tokenSvc, mailer, 15*time.Minute, logger.NewLogger("error"))
}

func hashOf(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// --- Registro e Login ---

// TestRegister_Success verifica o hashing da senha, a role padrão e a emissão de sessão.
func TestRegister_Success(t *testing.T) {
	repo := new(MockUserRepository)
	tokenSvc := new(MockTokenService)
	mailer := new(MockMailer)
	svc := newService(repo, tokenSvc, mailer)

	var savedUser domain.User
	repo.On("Save", mock.Anything, mock.MatchedBy(func(u domain.User) bool {
		savedUser = u
		// A senha nunca é persistida em texto puro
		return u.PasswordHash != "minha-senha" && u.Role == domain.RoleCustomer
	})).Return(domain.User{ID: "u1", Name: "Gina", Email: "gina@example.com", Role: domain.RoleCustomer}, nil)

	expiresAt := time.Now().Add(time.Hour)
	tokenSvc.On("GenerateToken", "u1").Return("jwt-token", expiresAt, nil)

	session, err := svc.Register(context.Background(), domain.UserRegistration{
		Name:     "Gina",
		Email:    "gina@example.com",
		Password: "minha-senha",
	})

	require.NoError(t, err)
	assert.Equal(t, "jwt-token", session.Token)
	assert.Equal(t, "u1", session.User.ID)
	// O hash gravado valida contra a senha original
	assert.True(t, password.Verify("minha-senha", savedUser.PasswordHash))
	repo.AssertExpectations(t)
	tokenSvc.AssertExpectations(t)
}

// TestRegister_MissingFields verifica a validação de presença.
func TestRegister_MissingFields(t *testing.T) {
	svc := newService(new(MockUserRepository), new(MockTokenService), new(MockMailer))

	_, err := svc.Register(context.Background(), domain.UserRegistration{Email: "a@b.c"})

	assert.IsType(t, &apperror.ValidationError{}, err)
}

// TestLogin_WrongPassword verifica que senha incorreta produz 401.
func TestLogin_WrongPassword(t *testing.T) {
	repo := new(MockUserRepository)
	svc := newService(repo, new(MockTokenService), new(MockMailer))

	hash, _ := password.Hash("senha-certa")
	repo.On("FindByEmail", mock.Anything, "gina@example.com").
		Return(domain.User{ID: "u1", Email: "gina@example.com", PasswordHash: hash}, nil)

	_, err := svc.Login(context.Background(), "gina@example.com", "senha-errada")

	assert.IsType(t, &apperror.UnauthorizedError{}, err)
}

// TestLogin_UnknownEmail verifica que e-mail desconhecido também produz 401
// (mesma resposta da senha errada, sem dar dicas).
func TestLogin_UnknownEmail(t *testing.T) {
	repo := new(MockUserRepository)
	svc := newService(repo, new(MockTokenService), new(MockMailer))

	repo.On("FindByEmail", mock.Anything, "ninguem@example.com").
		Return(domain.User{}, apperror.NewNotFoundError("não encontrado"))

	_, err := svc.Login(context.Background(), "ninguem@example.com", "qualquer")

	assert.IsType(t, &apperror.UnauthorizedError{}, err)
}

// TestLogin_Success verifica o caminho feliz do login.
func TestLogin_Success(t *testing.T) {
	repo := new(MockUserRepository)
	tokenSvc := new(MockTokenService)
	svc := newService(repo, tokenSvc, new(MockMailer))

	hash, _ := password.Hash("senha-certa")
	repo.On("FindByEmail", mock.Anything, "gina@example.com").
		Return(domain.User{ID: "u1", Email: "gina@example.com", PasswordHash: hash}, nil)
	tokenSvc.On("GenerateToken", "u1").Return("jwt-token", time.Now().Add(time.Hour), nil)

	session, err := svc.Login(context.Background(), "gina@example.com", "senha-certa")

	require.NoError(t, err)
	assert.Equal(t, "jwt-token", session.Token)
}

// --- Fluxo de recuperação de senha ---

// TestForgotPassword_UnknownEmail verifica que e-mail desconhecido falha com
// 404 e NENHUMA mutação de estado acontece.
func TestForgotPassword_UnknownEmail(t *testing.T) {
	repo := new(MockUserRepository)
	mailer := new(MockMailer)
	svc := newService(repo, new(MockTokenService), mailer)

	repo.On("FindByEmail", mock.Anything, "ninguem@example.com").
		Return(domain.User{}, apperror.NewNotFoundError("não encontrado"))

	err := svc.ForgotPassword(context.Background(), "ninguem@example.com", "http://localhost:8080")

	assert.IsType(t, &apperror.NotFoundError{}, err)
	repo.AssertNotCalled(t, "SetResetToken", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	mailer.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything)
}

// TestForgotPassword_Success verifica que só o HASH do token vai para o banco
// e que o token BRUTO viaja no e-mail dentro da URL de reset.
func TestForgotPassword_Success(t *testing.T) {
	repo := new(MockUserRepository)
	mailer := new(MockMailer)
	svc := newService(repo, new(MockTokenService), mailer)

	repo.On("FindByEmail", mock.Anything, "gina@example.com").
		Return(domain.User{ID: "u1", Email: "gina@example.com"}, nil)

	var storedHash string
	repo.On("SetResetToken", mock.Anything, "u1", mock.AnythingOfType("string"), mock.AnythingOfType("time.Time")).
		Run(func(args mock.Arguments) {
			storedHash = args.String(2)
		}).Return(nil)

	var sentBody string
	mailer.On("Send", "gina@example.com", mock.AnythingOfType("string"), mock.AnythingOfType("string")).
		Run(func(args mock.Arguments) {
			sentBody = args.String(2)
		}).Return(nil)

	err := svc.ForgotPassword(context.Background(), "gina@example.com", "http://localhost:8080")
	require.NoError(t, err)

	// Extrai o token bruto da URL enviada no e-mail
	idx := strings.Index(sentBody, "/api/v1/password/reset/")
	require.GreaterOrEqual(t, idx, 0)
	rawToken := sentBody[idx+len("/api/v1/password/reset/"):]
	rawToken = strings.Fields(rawToken)[0]

	// O hash persistido corresponde ao SHA-256 do token bruto enviado
	assert.Equal(t, hashOf(rawToken), storedHash)
	repo.AssertNotCalled(t, "ClearResetToken", mock.Anything, mock.Anything)
}

// TestForgotPassword_MailFailureRollsBack verifica o rollback: falha no envio
// limpa hash/expiração e o erro vira ExternalServiceError.
func TestForgotPassword_MailFailureRollsBack(t *testing.T) {
	repo := new(MockUserRepository)
	mailer := new(MockMailer)
	svc := newService(repo, new(MockTokenService), mailer)

	repo.On("FindByEmail", mock.Anything, "gina@example.com").
		Return(domain.User{ID: "u1", Email: "gina@example.com"}, nil)
	repo.On("SetResetToken", mock.Anything, "u1", mock.Anything, mock.Anything).Return(nil)
	repo.On("ClearResetToken", mock.Anything, "u1").Return(nil)
	mailer.On("Send", mock.Anything, mock.Anything, mock.Anything).
		Return(errors.New("smtp: connection refused"))

	err := svc.ForgotPassword(context.Background(), "gina@example.com", "http://localhost:8080")

	assert.IsType(t, &apperror.ExternalServiceError{}, err)
	repo.AssertCalled(t, "ClearResetToken", mock.Anything, "u1")
}

// TestResetPassword_InvalidToken verifica que token desconhecido/expirado/
// consumido falha com 400.
func TestResetPassword_InvalidToken(t *testing.T) {
	repo := new(MockUserRepository)
	svc := newService(repo, new(MockTokenService), new(MockMailer))

	repo.On("FindByResetHash", mock.Anything, hashOf("token-invalido")).
		Return(domain.User{}, apperror.NewNotFoundError("não encontrado"))

	_, err := svc.ResetPassword(context.Background(), "token-invalido", "nova", "nova")

	assert.IsType(t, &apperror.ValidationError{}, err)
}

// TestResetPassword_Mismatch verifica a confirmação divergente.
func TestResetPassword_Mismatch(t *testing.T) {
	repo := new(MockUserRepository)
	svc := newService(repo, new(MockTokenService), new(MockMailer))

	repo.On("FindByResetHash", mock.Anything, hashOf("token-valido")).
		Return(domain.User{ID: "u1"}, nil)

	_, err := svc.ResetPassword(context.Background(), "token-valido", "nova", "diferente")

	assert.IsType(t, &apperror.ValidationError{}, err)
	repo.AssertNotCalled(t, "ConsumeResetToken", mock.Anything, mock.Anything, mock.Anything)
}

// TestResetPassword_Success verifica a troca de senha, o consumo do token
// (uso único) e a re-autenticação.
func TestResetPassword_Success(t *testing.T) {
	repo := new(MockUserRepository)
	tokenSvc := new(MockTokenService)
	svc := newService(repo, tokenSvc, new(MockMailer))

	repo.On("FindByResetHash", mock.Anything, hashOf("token-valido")).
		Return(domain.User{ID: "u1", Email: "gina@example.com"}, nil)

	var newHash string
	repo.On("ConsumeResetToken", mock.Anything, "u1", mock.AnythingOfType("string")).
		Run(func(args mock.Arguments) {
			newHash = args.String(2)
		}).Return(nil)
	tokenSvc.On("GenerateToken", "u1").Return("jwt-novo", time.Now().Add(time.Hour), nil)

	session, err := svc.ResetPassword(context.Background(), "token-valido", "senha-nova", "senha-nova")

	require.NoError(t, err)
	assert.Equal(t, "jwt-novo", session.Token)
	assert.True(t, password.Verify("senha-nova", newHash))
	repo.AssertExpectations(t)
}

// --- Troca de senha autenticada ---

// TestUpdatePassword_WrongOldPassword verifica que a senha antiga incorreta
// falha com 400, sem gravar nada.
func TestUpdatePassword_WrongOldPassword(t *testing.T) {
	repo := new(MockUserRepository)
	svc := newService(repo, new(MockTokenService), new(MockMailer))

	hash, _ := password.Hash("senha-antiga")
	repo.On("FindByID", mock.Anything, "u1").
		Return(domain.User{ID: "u1", PasswordHash: hash}, nil)

	_, err := svc.UpdatePassword(context.Background(), "u1", "senha-errada", "nova", "nova")

	assert.IsType(t, &apperror.ValidationError{}, err)
	repo.AssertNotCalled(t, "UpdatePassword", mock.Anything, mock.Anything, mock.Anything)
}

// --- Operações administrativas ---

// TestUpdateUserRole_InvalidRole verifica a validação da role.
func TestUpdateUserRole_InvalidRole(t *testing.T) {
	svc := newService(new(MockUserRepository), new(MockTokenService), new(MockMailer))

	_, err := svc.UpdateUserRole(context.Background(), "u1", domain.UserUpdate{Role: "superuser"})

	assert.IsType(t, &apperror.ValidationError{}, err)
}

// TestUpdateUserRole_Success verifica a promoção de um usuário a admin.
func TestUpdateUserRole_Success(t *testing.T) {
	repo := new(MockUserRepository)
	svc := newService(repo, new(MockTokenService), new(MockMailer))

	repo.On("FindByID", mock.Anything, "u1").
		Return(domain.User{ID: "u1", Name: "Gina", Email: "gina@example.com", Role: domain.RoleCustomer}, nil)
	repo.On("Update", mock.Anything, mock.MatchedBy(func(u domain.User) bool {
		return u.Role == domain.RoleAdmin
	})).Return(nil)

	user, err := svc.UpdateUserRole(context.Background(), "u1", domain.UserUpdate{Role: "admin"})

	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, user.Role)
	repo.AssertExpectations(t)
}
