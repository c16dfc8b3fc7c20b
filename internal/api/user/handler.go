package user

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/GinaFerl/Ecommerce-Rest-API/internal/domain"
	apperror "github.com/GinaFerl/Ecommerce-Rest-API/internal/errors"
	"github.com/GinaFerl/Ecommerce-Rest-API/internal/pkg/logger"
	"github.com/GinaFerl/Ecommerce-Rest-API/internal/pkg/middleware"
	"github.com/GinaFerl/Ecommerce-Rest-API/internal/service/userservice"
)

// UserService define o contrato que o Handler espera da camada de Serviço.
type UserService interface {
	Register(ctx context.Context, registration domain.UserRegistration) (userservice.Session, error)
	Login(ctx context.Context, email, password string) (userservice.Session, error)
	GetProfile(ctx context.Context, userID string) (domain.User, error)
	UpdateProfile(ctx context.Context, userID string, update domain.UserUpdate) (domain.User, error)
	UpdatePassword(ctx context.Context, userID, oldPassword, newPassword, confirmPassword string) (userservice.Session, error)
	ForgotPassword(ctx context.Context, email, baseURL string) error
	ResetPassword(ctx context.Context, rawToken, newPassword, confirmPassword string) (userservice.Session, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
	GetUser(ctx context.Context, id string) (domain.User, error)
	UpdateUserRole(ctx context.Context, id string, update domain.UserUpdate) (domain.User, error)
	DeleteUser(ctx context.Context, id string) error
}

// LoginRequest representa o payload de entrada para o login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// PasswordUpdateRequest representa o payload de troca de senha autenticada.
type PasswordUpdateRequest struct {
	OldPassword     string `json:"oldPassword"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

// PasswordResetRequest representa o payload do reset via token de e-mail.
type PasswordResetRequest struct {
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

// Handler agrupa todos os métodos de Handler do usuário.
type Handler struct {
	Service    UserService
	Logger     logger.Logger
	CookieName string
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc UserService, log logger.Logger, cookieName string) *Handler {
	return &Handler{
		Service:    svc,
		Logger:     log,
		CookieName: cookieName,
	}
}

// respond padroniza o envelope de resposta: {"success": true, ...payload} no
// sucesso; a tradução de erro acontece SOMENTE aqui, via MapToHTTPStatus.
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

// issueSessionCookie emite o token de sessão como cookie HTTP-only, com a
// validade do cookie casada com a expiração embutida no token.
func (h *Handler) issueSessionCookie(w http.ResponseWriter, session userservice.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.CookieName,
		Value:    session.Token,
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		Path:     "/",
	})
}

// requestBaseURL reconstrói a base pública da requisição para a URL de reset.
func requestBaseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}

// RegisterHandler lida com POST /api/v1/register.
// @Summary Registra um novo usuário
// @Description Cria um usuário com role "customer", hasheia a senha e já emite o cookie de sessão.
// @Tags auth
// @Accept json
// @Produce json
// @Param registration body domain.UserRegistration true "Nome, e-mail e senha"
// @Success 201 {object} map[string]interface{} "Usuário criado e sessão emitida"
// @Failure 400 {object} domain.ErrorResponse "Payload inválido"
// @Failure 409 {object} domain.ErrorResponse "E-mail já cadastrado"
// @Failure 500 {object} domain.ErrorResponse "Erro interno do servidor"
// @Router /register [post]
func (h *Handler) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}

	var reg domain.UserRegistration
	if err := json.NewDecoder(r.Body).Decode(&reg); err != nil {
		h.respond(w, r, nil, apperror.NewValidationError("Payload JSON inválido."), 0)
		return
	}

	session, err := h.Service.Register(r.Context(), reg)
	if err != nil {
		h.respond(w, r, nil, err, 0)
		return
	}

	h.issueSessionCookie(w, session)
	h.respond(w, r, map[string]interface{}{"user": session.User, "token": session.Token}, nil, http.StatusCreated)
}

// LoginHandler lida com POST /api/v1/login.
// @Summary Autentica um usuário
// @Description Verifica as credenciais e emite o token de sessão como cookie HTTP-only.
// @Tags auth
// @Accept json
// @Produce json
// @Param login body LoginRequest true "E-mail e senha"
// @Success 200 {object} map[string]interface{} "Sessão emitida"
// @Failure 400 {object} domain.ErrorResponse "Payload inválido"
// @Failure 401 {object} domain.ErrorResponse "Credenciais inválidas"
// @Router /login [post]
func (h *Handler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}

	var loginReq LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&loginReq); err != nil {
		h.respond(w, r, nil, apperror.NewValidationError("Payload JSON inválido."), 0)
		return
	}

	session, err := h.Service.Login(r.Context(), loginReq.Email, loginReq.Password)
	if err != nil {
		h.respond(w, r, nil, err, 0)
		return
	}

	h.issueSessionCookie(w, session)
	h.respond(w, r, map[string]interface{}{"user": session.User, "token": session.Token}, nil, http.StatusOK)
}

// LogoutHandler lida com GET /api/v1/logout.
// O token é stateless, então o logout é puramente client-side: o cookie é
// sobrescrito com um valor já expirado.
// @Summary Encerra a sessão
// @Tags auth
// @Produce json
// @Success 200 {object} map[string]interface{} "Sessão encerrada"
// @Router /logout [get]
func (h *Handler) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.CookieName,
		Value:    "",
		Expires:  time.Now(),
		HttpOnly: true,
		Path:     "/",
	})

	h.respond(w, r, map[string]interface{}{"message": "Logout realizado."}, nil, http.StatusOK)
}

// ForgotPasswordHandler lida com POST /api/v1/password/forgot.
// @Summary Solicita a recuperação de senha
// @Description Gera um token de uso único e envia a URL de reset para o e-mail cadastrado.
// @Tags auth
// @Accept json
// @Produce json
// @Param body body map[string]string true "E-mail da conta"
// @Success 200 {object} map[string]interface{} "E-mail enviado"
// @Failure 404 {object} domain.ErrorResponse "Usuário não encontrado"
// @Failure 500 {object} domain.ErrorResponse "Falha no envio do e-mail"
// @Router /password/forgot [post]
func (h *Handler) ForgotPasswordHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}

	var body struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Email == "" {
		h.respond(w, r, nil, apperror.NewValidationError("Informe o e-mail da conta."), 0)
		return
	}

	if err := h.Service.ForgotPassword(r.Context(), body.Email, requestBaseURL(r)); err != nil {
		h.respond(w, r, nil, err, 0)
		return
	}

	h.respond(w, r, map[string]interface{}{
		"message": fmt.Sprintf("E-mail enviado para %s com sucesso.", body.Email),
	}, nil, http.StatusOK)
}

// ResetPasswordHandler lida com PUT /api/v1/password/reset/{token}.
// @Summary Redefine a senha via token de e-mail
// @Description Confere o token de uso único, troca a senha e emite uma nova sessão.
// @Tags auth
// @Accept json
// @Produce json
// @Param token path string true "Token bruto recebido por e-mail"
// @Param body body PasswordResetRequest true "Nova senha e confirmação"
// @Success 200 {object} map[string]interface{} "Senha redefinida e sessão emitida"
// @Failure 400 {object} domain.ErrorResponse "Token inválido/expirado ou senhas não conferem"
// @Router /password/reset/{token} [put]
func (h *Handler) ResetPasswordHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}

	rawToken := strings.TrimPrefix(r.URL.Path, "/api/v1/password/reset/")
	if rawToken == "" || strings.Contains(rawToken, "/") {
		h.respond(w, r, nil, apperror.NewValidationError("Token de reset ausente na URL."), 0)
		return
	}

	var body PasswordResetRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.respond(w, r, nil, apperror.NewValidationError("Payload JSON inválido."), 0)
		return
	}

	session, err := h.Service.ResetPassword(r.Context(), rawToken, body.Password, body.ConfirmPassword)
	if err != nil {
		h.respond(w, r, nil, err, 0)
		return
	}

	h.issueSessionCookie(w, session)
	h.respond(w, r, map[string]interface{}{"user": session.User, "token": session.Token}, nil, http.StatusOK)
}

// MeHandler lida com GET /api/v1/me (autenticado).
// @Summary Retorna o perfil do usuário autenticado
// @Tags users
// @Produce json
// @Success 200 {object} map[string]interface{} "Perfil"
// @Failure 401 {object} domain.ErrorResponse "Não autenticado"
// @Router /me [get]
func (h *Handler) MeHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}

	identity, ok := middleware.GetUserIdentity(r.Context())
	if !ok {
		h.respond(w, r, nil, apperror.NewUnauthorizedError("Sessão não processada."), 0)
		return
	}

	user, err := h.Service.GetProfile(r.Context(), identity.UserID)
	if err != nil {
		h.respond(w, r, nil, err, 0)
		return
	}

	h.respond(w, r, map[string]interface{}{"user": user}, nil, http.StatusOK)
}

// UpdatePasswordHandler lida com PUT /api/v1/password/update (autenticado).
// @Summary Troca a senha do usuário autenticado
// @Tags users
// @Accept json
// @Produce json
// @Param body body PasswordUpdateRequest true "Senha antiga, nova e confirmação"
// @Success 200 {object} map[string]interface{} "Senha atualizada e sessão re-emitida"
// @Failure 400 {object} domain.ErrorResponse "Senha antiga incorreta ou confirmação divergente"
// @Router /password/update [put]
func (h *Handler) UpdatePasswordHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}

	identity, ok := middleware.GetUserIdentity(r.Context())
	if !ok {
		h.respond(w, r, nil, apperror.NewUnauthorizedError("Sessão não processada."), 0)
		return
	}

	var body PasswordUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.respond(w, r, nil, apperror.NewValidationError("Payload JSON inválido."), 0)
		return
	}

	session, err := h.Service.UpdatePassword(r.Context(), identity.UserID,
		body.OldPassword, body.NewPassword, body.ConfirmPassword)
	if err != nil {
		h.respond(w, r, nil, err, 0)
		return
	}

	h.issueSessionCookie(w, session)
	h.respond(w, r, map[string]interface{}{"user": session.User, "token": session.Token}, nil, http.StatusOK)
}

// UpdateProfileHandler lida com PUT /api/v1/me/update (autenticado).
// @Summary Atualiza nome e e-mail do usuário autenticado
// @Tags users
// @Accept json
// @Produce json
// @Param body body domain.UserUpdate true "Nome e e-mail"
// @Success 200 {object} map[string]interface{} "Perfil atualizado"
// @Router /me/update [put]
func (h *Handler) UpdateProfileHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}

	identity, ok := middleware.GetUserIdentity(r.Context())
	if !ok {
		h.respond(w, r, nil, apperror.NewUnauthorizedError("Sessão não processada."), 0)
		return
	}

	var body domain.UserUpdate
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.respond(w, r, nil, apperror.NewValidationError("Payload JSON inválido."), 0)
		return
	}

	user, err := h.Service.UpdateProfile(r.Context(), identity.UserID, body)
	if err != nil {
		h.respond(w, r, nil, err, 0)
		return
	}

	h.respond(w, r, map[string]interface{}{"user": user}, nil, http.StatusOK)
}

// --- Handlers administrativos ---

// ListUsersHandler lida com GET /api/v1/admin/users (admin).
// @Summary Lista todos os usuários
// @Tags admin
// @Produce json
// @Success 200 {object} map[string]interface{} "Lista de usuários"
// @Failure 403 {object} domain.ErrorResponse "Role sem permissão"
// @Router /admin/users [get]
func (h *Handler) ListUsersHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}

	users, err := h.Service.ListUsers(r.Context())
	if err != nil {
		h.respond(w, r, nil, err, 0)
		return
	}

	h.respond(w, r, map[string]interface{}{"users": users}, nil, http.StatusOK)
}

// UserByIDHandler despacha GET/PUT/DELETE /api/v1/admin/users/{id} (admin).
// @Summary Consulta, atualiza role ou remove um usuário
// @Tags admin
// @Accept json
// @Produce json
// @Param id path string true "ID do usuário"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} domain.ErrorResponse "Usuário não encontrado"
// @Router /admin/users/{id} [get]
func (h *Handler) UserByIDHandler(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/v1/admin/users/")
	if id == "" || strings.Contains(id, "/") {
		h.respond(w, r, nil, apperror.NewValidationError("ID do usuário ausente na URL."), 0)
		return
	}

	switch r.Method {
	case http.MethodGet:
		user, err := h.Service.GetUser(r.Context(), id)
		if err != nil {
			h.respond(w, r, nil, err, 0)
			return
		}
		h.respond(w, r, map[string]interface{}{"user": user}, nil, http.StatusOK)

	case http.MethodPut:
		var body domain.UserUpdate
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			h.respond(w, r, nil, apperror.NewValidationError("Payload JSON inválido."), 0)
			return
		}

		user, err := h.Service.UpdateUserRole(r.Context(), id, body)
		if err != nil {
			h.respond(w, r, nil, err, 0)
			return
		}
		h.respond(w, r, map[string]interface{}{"user": user}, nil, http.StatusOK)

	case http.MethodDelete:
		if err := h.Service.DeleteUser(r.Context(), id); err != nil {
			h.respond(w, r, nil, err, 0)
			return
		}
		h.respond(w, r, map[string]interface{}{"message": "Usuário removido com sucesso."}, nil, http.StatusOK)

	default:
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
	}
}
