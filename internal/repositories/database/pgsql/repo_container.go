package pgsql

import (
	"github.com/jackc/pgx/v5/pgxpool"

	portsrepo "github.com/mistakebook/mistakebook/internal/core/ports/repositories"
)

// RepositoryProvider bundles every server-side repository.
type RepositoryProvider struct {
	UserRepo     portsrepo.UserRepository
	QuestionRepo portsrepo.QuestionRepository
	SessionRepo  portsrepo.SessionRepository
}

// NewRepositoryProvider wires every repository over one pool.
func NewRepositoryProvider(dbPool *pgxpool.Pool) RepositoryProvider {
	return RepositoryProvider{
		UserRepo:     newPgxUserRepository(dbPool),
		QuestionRepo: newPgxQuestionRepository(dbPool),
		SessionRepo:  newPgxSessionRepository(dbPool),
	}
}
