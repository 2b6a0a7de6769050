package auth

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/folio-space/core/internal/middleware"
	"github.com/folio-space/core/internal/models"
	"github.com/folio-space/core/internal/pkg/response"
)

const (
	msgInvalidLogin = "E-mail ou senha incorretos"
	msgOwnerExists  = "Já existe um administrador cadastrado"
	msgEmailTaken   = "Este e-mail já está cadastrado"
	msgSameAsOld    = "A nova senha deve ser diferente da atual"
	msgBadBody      = "Corpo da requisição inválido"
)

type Handler struct{ svc *Service }

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

type userResponse struct {
	ID            string     `json:"id"`
	Email         string     `json:"email"`
	Name          string     `json:"name"`
	LastLoginTime *time.Time `json:"last_login_time"`
}

func toUserResponse(u *models.UserModel) userResponse {
	return userResponse{ID: u.ID, Email: u.Email, Name: u.Name, LastLoginTime: u.LastLoginTime}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW, optionalMW gin.HandlerFunc) {
	a := rg.Group("/auth")
	a.POST("/sign-in", h.signIn)
	a.POST("/sign-up", h.signUp)
	a.POST("/sign-out", h.signOut)
	a.GET("/session", optionalMW, h.session)

	s := a.Group("/sessions", authMW)
	s.GET("", h.listSessions)
	s.DELETE("/:id", h.revokeSession)
	s.POST("/revoke-others", h.revokeOthers)

	a.PATCH("/password", authMW, h.changePassword)
}

// SetTokenCookie stores the session token for the server-rendered admin pages.
func SetTokenCookie(c *gin.Context, token string, ttl time.Duration) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.TokenCookie, token, int(ttl.Seconds()), "/", "", c.Request.TLS != nil, true)
}

func ClearTokenCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.TokenCookie, "", -1, "/", "", c.Request.TLS != nil, true)
}

func (h *Handler) signIn(c *gin.Context) {
	var dto SignInDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, msgBadBody)
		return
	}
	token, u, err := h.svc.SignIn(c.Request.Context(), dto, Client{IP: c.ClientIP(), UA: c.Request.UserAgent()})
	if err != nil {
		h.fail(c, err)
		return
	}
	SetTokenCookie(c, token, h.svc.TTL())
	response.OK(c, gin.H{
		"token":      token,
		"expires_at": time.Now().Add(h.svc.TTL()),
		"user":       toUserResponse(u),
	})
}

func (h *Handler) signUp(c *gin.Context) {
	var dto SignUpDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, msgBadBody)
		return
	}
	u, err := h.svc.SignUp(c.Request.Context(), dto)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Created(c, toUserResponse(u))
}

func (h *Handler) signOut(c *gin.Context) {
	if err := h.svc.SignOut(c.Request.Context(), middleware.ExtractToken(c)); err != nil {
		response.InternalError(c, err)
		return
	}
	ClearTokenCookie(c)
	response.OK(c, gin.H{"success": true})
}

func (h *Handler) session(c *gin.Context) {
	if !middleware.IsAuthenticated(c) {
		response.OK(c, nil)
		return
	}
	u, err := h.svc.User(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			response.OK(c, nil)
			return
		}
		response.InternalError(c, err)
		return
	}
	response.OK(c, gin.H{
		"user":       toUserResponse(u),
		"session_id": middleware.CurrentSessionID(c),
	})
}

func (h *Handler) listSessions(c *gin.Context) {
	sessions, err := h.svc.Sessions(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	current := middleware.CurrentSessionID(c)
	items := make([]gin.H, 0, len(sessions))
	for _, s := range sessions {
		items = append(items, gin.H{
			"id":         s.ID,
			"ip":         s.IP,
			"ua":         s.UA,
			"created_at": s.CreatedAt,
			"updated_at": s.UpdatedAt,
			"expires_at": s.ExpiresAt,
			"current":    s.ID == current,
		})
	}
	response.OK(c, items)
}

func (h *Handler) revokeSession(c *gin.Context) {
	if err := h.svc.RevokeSession(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	response.NoContent(c)
}

func (h *Handler) revokeOthers(c *gin.Context) {
	if err := h.svc.RevokeOthers(c.Request.Context(), middleware.CurrentUserID(c), middleware.CurrentSessionID(c)); err != nil {
		response.InternalError(c, err)
		return
	}
	response.NoContent(c)
}

func (h *Handler) changePassword(c *gin.Context) {
	var dto ChangePasswordDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, msgBadBody)
		return
	}
	err := h.svc.ChangePassword(c.Request.Context(), middleware.CurrentUserID(c), middleware.CurrentSessionID(c), dto)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.NoContent(c)
}

func (h *Handler) fail(c *gin.Context, err error) {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		response.UnprocessableEntity(c, verr.Message)
	case errors.Is(err, ErrInvalidLogin):
		response.UnauthorizedMsg(c, msgInvalidLogin)
	case errors.Is(err, ErrOwnerExists):
		response.ForbiddenMsg(c, msgOwnerExists)
	case errors.Is(err, ErrEmailTaken):
		response.Conflict(c, msgEmailTaken)
	case errors.Is(err, ErrPasswordUnchanged):
		response.UnprocessableEntity(c, msgSameAsOld)
	case errors.Is(err, ErrSessionNotFound), errors.Is(err, ErrUserNotFound):
		response.NotFound(c)
	default:
		response.InternalError(c, err)
	}
}
