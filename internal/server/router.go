package server

import (
	"errors"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/tradenotehq/tradenote/backend/internal/attachments"
	"github.com/tradenotehq/tradenote/backend/internal/journal"
	"github.com/tradenotehq/tradenote/backend/internal/users"
	"go.uber.org/zap"
)

const userIDContextKey = "tradenote_user_id"

var (
	errMissingTokenManager = errors.New("token manager dependency required")
	errMissingUserService  = errors.New("user service dependency required")
	errMissingNotes        = errors.New("notes repository dependency required")
	errMissingTrades       = errors.New("trades repository dependency required")
	errMissingPlaybooks    = errors.New("playbooks repository dependency required")
	errMissingAttachments  = errors.New("attachment manager dependency required")
)

// TokenManager issues and validates the bearer tokens gating every
// protected route.
type TokenManager interface {
	Issue(userID uint) (string, int64, error)
	Validate(token string) (uint, error)
}

// Dependencies wires the API surface to its collaborators.
type Dependencies struct {
	TokenManager TokenManager
	Users        *users.Service
	Notes        *journal.Notes
	Trades       *journal.Trades
	Playbooks    *journal.Playbooks
	Attachments  *attachments.Manager
	Logger       *zap.Logger
}

// NewHTTPHandler assembles the gin router for the journal API.
func NewHTTPHandler(deps Dependencies) (http.Handler, error) {
	if deps.TokenManager == nil {
		return nil, errMissingTokenManager
	}
	if deps.Users == nil {
		return nil, errMissingUserService
	}
	if deps.Notes == nil {
		return nil, errMissingNotes
	}
	if deps.Trades == nil {
		return nil, errMissingTrades
	}
	if deps.Playbooks == nil {
		return nil, errMissingPlaybooks
	}
	if deps.Attachments == nil {
		return nil, errMissingAttachments
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))

	handler := &httpHandler{
		tokens:      deps.TokenManager,
		users:       deps.Users,
		notes:       deps.Notes,
		trades:      deps.Trades,
		playbooks:   deps.Playbooks,
		attachments: deps.Attachments,
		logger:      logger,
	}

	router.GET("/", handler.handleCalendarEvents)
	router.POST("/auth/register", handler.handleRegister)
	router.POST("/auth/login", handler.handleLogin)

	protected := router.Group("/")
	protected.Use(handler.authorizeRequest)
	protected.GET("/auth/user", handler.handleProfile)
	protected.POST("/auth/avatar", handler.handleSetAvatar)

	protected.POST("/notes/", handler.handleCreateNote)
	protected.GET("/notes/", handler.handleListNotes)
	protected.GET("/notes/:id", handler.handleGetNote)
	protected.PUT("/notes/:id", handler.handleUpdateNote)
	protected.DELETE("/notes/:id", handler.handleDeleteNote)

	protected.POST("/trades/", handler.handleCreateTrade)
	protected.GET("/trades/", handler.handleListTrades)
	protected.GET("/trades/screenshots/:filename", handler.handleGetScreenshot)
	protected.GET("/trades/:id", handler.handleGetTrade)
	protected.PUT("/trades/:id", handler.handleUpdateTrade)
	protected.DELETE("/trades/:id", handler.handleDeleteTrade)

	protected.POST("/playbooks/", handler.handleCreatePlaybook)
	protected.GET("/playbooks/", handler.handleListPlaybooks)
	protected.GET("/playbooks/:playbook_id", handler.handleGetPlaybook)
	protected.PUT("/playbooks/:playbook_id", handler.handleUpdatePlaybook)
	protected.DELETE("/playbooks/:playbook_id", handler.handleDeletePlaybook)

	return router, nil
}

type httpHandler struct {
	tokens      TokenManager
	users       *users.Service
	notes       *journal.Notes
	trades      *journal.Trades
	playbooks   *journal.Playbooks
	attachments *attachments.Manager
	logger      *zap.Logger
}

// authorizeRequest is the single gate in front of every protected route:
// it validates the bearer token and stores the resolved identity in the
// request context for handlers to consume.
func (h *httpHandler) authorizeRequest(c *gin.Context) {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Token is missing!"})
		return
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Token is missing!"})
		return
	}
	userID, err := h.tokens.Validate(token)
	if err != nil {
		h.logger.Warn("token validation failed", zap.Error(err))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Token is invalid!"})
		return
	}
	c.Set(userIDContextKey, userID)
	c.Next()
}

// currentUserID returns the identity stored by the auth middleware.
func currentUserID(c *gin.Context) (uint, bool) {
	value, exists := c.Get(userIDContextKey)
	if !exists {
		return 0, false
	}
	userID, ok := value.(uint)
	return userID, ok
}

// requireUser fetches the authenticated identity or terminates the request.
func (h *httpHandler) requireUser(c *gin.Context) (uint, bool) {
	userID, ok := currentUserID(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Token is missing!"})
		return 0, false
	}
	return userID, true
}

// respondError maps domain errors onto HTTP statuses. Unexpected errors
// become opaque 500s with the detail kept in the log.
func (h *httpHandler) respondError(c *gin.Context, err error) {
	var validation *journal.ValidationError
	switch {
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, gin.H{"message": validation.Error()})
	case errors.Is(err, journal.ErrNotFound), errors.Is(err, users.ErrUnknownUser):
		c.JSON(http.StatusNotFound, gin.H{"message": "Not found!"})
	case errors.Is(err, attachments.ErrUnsupportedType),
		errors.Is(err, attachments.ErrEmptyUpload),
		errors.Is(err, attachments.ErrInvalidName):
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
	case errors.Is(err, users.ErrUsernameTaken):
		c.JSON(http.StatusConflict, gin.H{"message": "Username already exists"})
	case errors.Is(err, users.ErrMissingCredentials):
		c.JSON(http.StatusBadRequest, gin.H{"message": "Username and password are required"})
	case errors.Is(err, users.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Could not verify"})
	default:
		h.logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
	}
}

// isMissingFile reports whether reading an attachment hit an absent file.
func isMissingFile(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
