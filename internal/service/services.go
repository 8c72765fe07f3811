package service

import (
	"github.com/dom/timetrack/internal/common/clock"
	"github.com/dom/timetrack/internal/common/crypto"
	"github.com/dom/timetrack/internal/config"
	"github.com/dom/timetrack/internal/repository"
)

type Services struct {
	Auth  *AuthService
	Timer *TimerService
}

func NewServices(repos *repository.Repositories, cfg *config.Config, clk clock.Clock) *Services {
	return &Services{
		Auth:  NewAuthService(repos.User, repos.Session, crypto.NewBcryptHasher(), clk, cfg),
		Timer: NewTimerService(repos.Timer, clk),
	}
}
