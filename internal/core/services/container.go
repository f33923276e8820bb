package services

import (
	"log/slog"

	"github.com/mistakebook/mistakebook/internal/clients/ark"
	portsrepo "github.com/mistakebook/mistakebook/internal/core/ports/repositories"
	portssvc "github.com/mistakebook/mistakebook/internal/core/ports/services"
)

// ServerDeps carries everything the server-side services need.
type ServerDeps struct {
	Users       portsrepo.UserRepository
	Questions   portsrepo.QuestionRepository
	Sessions    portsrepo.SessionRepository
	AI          *ark.Client
	TokenSecret string
	Logger      *slog.Logger
}

// NewServiceContainer wires every server-side service.
func NewServiceContainer(deps ServerDeps) *portssvc.ServiceContainer {
	questionSvc := NewQuestionService(deps.Questions, deps.Logger)
	return &portssvc.ServiceContainer{
		User:     NewUserService(deps.Users, deps.TokenSecret, deps.Logger),
		Question: questionSvc,
		Session:  NewSessionService(deps.Sessions, deps.Questions, deps.Logger),
		External: NewExternalService(deps.Users, questionSvc, deps.AI, deps.Logger),
	}
}
