package memory_test

import (
	"testing"

	"github.com/dom/timetrack/internal/repository"
	"github.com/dom/timetrack/internal/repository/memory"
	"github.com/dom/timetrack/internal/repository/repotest"
)

func TestMemoryRepositories(t *testing.T) {
	repotest.Run(t, func(t *testing.T) *repository.Repositories {
		return memory.NewRepositories()
	})
}
