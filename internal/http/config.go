package http

import (
	"github.com/mrlokans/librarium/internal/auth"
	"github.com/mrlokans/librarium/internal/covers"
	"github.com/mrlokans/librarium/internal/database"
)

// RouterConfig carries every dependency the router needs, so NewRouter stays
// a single-argument call and tests can wire only what they exercise.
type RouterConfig struct {
	Database *database.Database

	LoanStore     LoanStore
	BookStore     BookStore
	MemberStore   MemberStore
	CategoryStore CategoryStore

	CoverStorage *covers.Storage

	AuthService    *auth.Service
	AuthMiddleware *auth.Middleware
	SessionManager *auth.SessionManager
	AuthController *auth.Controller
	CSRFSecret     []byte
	SecureCookies  bool

	Version string
}
