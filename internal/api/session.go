package api

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/IGORVINICIUSDEASSIS/realh-sub000/internal/auth"
	"github.com/IGORVINICIUSDEASSIS/realh-sub000/internal/model"
)

const sessionTTL = 12 * time.Hour

// session binds a token to the authenticated user and their hierarchy
// assertion. Every engine call for this user runs under this assertion.
type session struct {
	user      *auth.User
	assertion model.Assertion
	expiresAt time.Time
}

type sessionStore struct {
	mu    sync.Mutex
	items map[string]session
}

func newSessionStore() *sessionStore {
	return &sessionStore{items: make(map[string]session)}
}

func (s *sessionStore) put(user *auth.User, assertion model.Assertion) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.purgeLocked(time.Now())

	token := uuid.New().String()
	s.items[token] = session{user: user, assertion: assertion, expiresAt: time.Now().Add(sessionTTL)}
	return token
}

func (s *sessionStore) get(token string) (session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.purgeLocked(time.Now())

	v, ok := s.items[token]
	return v, ok
}

func (s *sessionStore) delete(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, token)
}

func (s *sessionStore) purgeLocked(now time.Time) {
	for k, v := range s.items {
		if now.After(v.expiresAt) {
			delete(s.items, k)
		}
	}
}

// requireSession resolves the bearer token and stashes the session on the
// context.
func (h *Handler) requireSession(c *gin.Context) {
	token := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
	if token == "" {
		token = c.Query("token")
	}
	sess, ok := h.sessions.get(token)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not logged in"})
		return
	}
	c.Set("session", sess)
	c.Set("sessionToken", token)
	c.Next()
}

func currentSession(c *gin.Context) session {
	v, _ := c.Get("session")
	return v.(session)
}

// Login authenticates a user and opens a session.
// POST /api/login
func (h *Handler) Login(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, assertion, err := h.users.Authenticate(req.Username, req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	token := h.sessions.put(user, assertion)
	c.JSON(http.StatusOK, gin.H{
		"token":        token,
		"display_name": user.DisplayName,
		"type":         user.Type,
	})
}

// Logout closes the session.
// POST /api/logout
func (h *Handler) Logout(c *gin.Context) {
	if token, ok := c.Get("sessionToken"); ok {
		h.sessions.delete(token.(string))
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
