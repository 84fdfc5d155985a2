// Package server implements the demo back-office API: a password-grant
// token endpoint plus paginated, filterable person and transaction
// resources over a generated dataset. It exists so the TUI can be run
// and tested without the production backend, the same way a recorded
// fixture would be replayed.
package server

import (
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/counterdeskhq/counterdesk/datagen"
	"github.com/counterdeskhq/counterdesk/engine"
	"github.com/counterdeskhq/counterdesk/engine/model"
)

// Credential is a demo login the token endpoint accepts.
type Credential struct {
	Username     string
	PasswordHash []byte
	Roles        []string
	FullName     string
}

// Options configures the demo server.
type Options struct {
	ClientID     string
	ClientSecret string
	Credentials  []Credential
	Data         *datagen.Dataset
	Logger       *slog.Logger
	TokenTTL     int // seconds reported as expires_in
}

// DemoCredentials returns the built-in demo users, one per role.
func DemoCredentials() []Credential {
	demo := []struct {
		username, password, fullName string
		roles                        []string
	}{
		{"admin", "admin123", "Alice Admin", []string{"admin"}},
		{"manager", "manager123", "Mandy Manager", []string{"manager"}},
		{"user", "user123", "Uma User", []string{"user"}},
	}

	creds := make([]Credential, 0, len(demo))
	for _, d := range demo {
		hash, err := bcrypt.GenerateFromPassword([]byte(d.password), bcrypt.DefaultCost)
		if err != nil {
			// bcrypt only fails on oversized input; the demo passwords
			// are constants
			panic(err)
		}
		creds = append(creds, Credential{
			Username:     d.username,
			PasswordHash: hash,
			Roles:        d.roles,
			FullName:     d.fullName,
		})
	}
	return creds
}

// Server holds the demo API state: credentials, issued tokens and the
// backing dataset.
type Server struct {
	opts   Options
	logger *slog.Logger
	router *gin.Engine

	mu     sync.Mutex
	tokens map[string]*Credential
}

// New builds the demo server and its routes.
func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Data == nil {
		opts.Data = datagen.Generate(datagen.DefaultOptions())
	}
	if len(opts.Credentials) == 0 {
		opts.Credentials = DemoCredentials()
	}
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = 3600
	}

	s := &Server{
		opts:   opts,
		logger: opts.Logger,
		tokens: make(map[string]*Credential),
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.POST("/auth/token", s.handleToken)

	authed := router.Group("/", s.requireBearer)
	authed.GET("/users", s.handleUsers)
	authed.GET("/transactions", s.handleTransactions)

	s.router = router
	return s
}

// Handler exposes the router for embedding in tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves the demo API until the listener fails.
func (s *Server) Run(addr string) error {
	s.logger.Info("demo API listening", "addr", addr)
	return s.router.Run(addr)
}

func (s *Server) handleToken(c *gin.Context) {
	var req model.TokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "malformed token request"})
		return
	}

	if req.GrantType != "password" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "unsupported grant type"})
		return
	}
	if req.ClientID != s.opts.ClientID || req.ClientSecret != s.opts.ClientSecret {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "invalid client credentials"})
		return
	}

	cred := s.findCredential(req.Username)
	if cred == nil || bcrypt.CompareHashAndPassword(cred.PasswordHash, []byte(req.Password)) != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "invalid username or password"})
		return
	}

	token := newToken()
	s.mu.Lock()
	s.tokens[token] = cred
	s.mu.Unlock()

	s.logger.Debug("issued token", "username", cred.Username)
	c.JSON(http.StatusOK, gin.H{"data": model.TokenResponse{
		AccessToken: token,
		ExpiresIn:   s.opts.TokenTTL,
		TokenType:   "Bearer",
		Roles:       cred.Roles,
		FullName:    cred.FullName,
	}})
}

func (s *Server) requireBearer(c *gin.Context) {
	header := c.GetHeader("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthenticated."})
		return
	}

	s.mu.Lock()
	_, known := s.tokens[token]
	s.mu.Unlock()

	if !known {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthenticated."})
		return
	}
	c.Next()
}

// RevokeAll invalidates every issued token. Tests use it to force 401s
// on previously valid sessions.
func (s *Server) RevokeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = make(map[string]*Credential)
}

func (s *Server) handleUsers(c *gin.Context) {
	filters := map[string]string{
		"name":      c.Query("name"),
		"username":  c.Query("username"),
		"email":     c.Query("email"),
		"number_id": c.Query("number_id"),
		"phone":     c.Query("phone"),
	}
	applySearch(filters, c.Query("q"), "name")

	page := pageState(c)
	sortState := sortStateFromQuery(c)

	filtered := engine.Filter(engine.PersonView, s.opts.Data.Persons, filters)
	sorted := engine.Sort(engine.PersonView, filtered, sortState)
	rows := engine.Paginate(sorted, page)

	wire := make([]model.PersonWire, 0, len(rows))
	for _, p := range rows {
		wire = append(wire, p.Wire())
	}

	c.JSON(http.StatusOK, model.Envelope[model.PersonWire]{
		Data:       wire,
		Pagination: paginationFor(len(sorted), page),
	})
}

func (s *Server) handleTransactions(c *gin.Context) {
	filters := map[string]string{
		"receipt_code":     c.Query("receipt_code"),
		"msisdn":           c.Query("msisdn"),
		"fullname":         c.Query("fullname"),
		"number_id":        c.Query("number_id"),
		"package_name":     c.Query("package_name"),
		"transaction_type": c.Query("transaction_type"),
	}
	applySearch(filters, c.Query("q"), "fullname")

	page := pageState(c)
	sortState := sortStateFromQuery(c)

	records := byStatus(s.opts.Data.Transactions, c.Query("status"))
	filtered := engine.Filter(engine.TransactionView, records, filters)
	sorted := engine.Sort(engine.TransactionView, filtered, sortState)
	rows := engine.Paginate(sorted, page)

	wire := make([]model.TransactionWire, 0, len(rows))
	for _, t := range rows {
		wire = append(wire, t.Wire())
	}

	c.JSON(http.StatusOK, model.Envelope[model.TransactionWire]{
		Data:       wire,
		Pagination: paginationFor(len(sorted), page),
	})
}

func (s *Server) findCredential(username string) *Credential {
	for i := range s.opts.Credentials {
		if s.opts.Credentials[i].Username == username {
			return &s.opts.Credentials[i]
		}
	}
	return nil
}

// byStatus narrows transactions to refunded or voided records. Any
// other status value leaves the set untouched.
func byStatus(records []model.Transaction, status string) []model.Transaction {
	if status != "refunded" && status != "voided" {
		return records
	}
	out := make([]model.Transaction, 0, len(records))
	for _, t := range records {
		if status == "refunded" && t.IsRefunded {
			out = append(out, t)
		}
		if status == "voided" && t.IsVoided {
			out = append(out, t)
		}
	}
	return out
}

func applySearch(filters map[string]string, q, field string) {
	if q != "" && filters[field] == "" {
		filters[field] = q
	}
}

func pageState(c *gin.Context) engine.PageState {
	page := intQuery(c, "page", 1)
	if page < 1 {
		page = 1
	}
	limit := intQuery(c, "limit", 20)
	if limit < 1 {
		limit = 20
	}
	return engine.PageState{Current: page, Size: limit}
}

func sortStateFromQuery(c *gin.Context) engine.SortState {
	return engine.SortState{
		Key:       c.Query("sort"),
		Direction: engine.ParseSortDirection(c.Query("dir")),
	}
}

func paginationFor(total int, page engine.PageState) model.Pagination {
	return model.Pagination{
		CurrentPage: page.Current,
		LastPage:    engine.TotalPages(total, page.Size),
		PerPage:     page.Size,
		Total:       total,
	}
}

func intQuery(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}

func newToken() string {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		panic(err)
	}
	return hex.EncodeToString(buf)
}
