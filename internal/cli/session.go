package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// ErrNotLoggedIn is returned when no session file exists.
var ErrNotLoggedIn = errors.New("you are not logged in")

// SessionFile stores the session token between invocations.
type SessionFile struct {
	Path string
}

// DefaultSessionPath is ~/.sb-timers-session, or ~/_sb-timers-session on
// Windows.
func DefaultSessionPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("locate home directory: %w", err)
	}
	prefix := "."
	if runtime.GOOS == "windows" {
		prefix = "_"
	}
	return filepath.Join(home, prefix+"sb-timers-session"), nil
}

func (s SessionFile) Load() (string, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", ErrNotLoggedIn
		}
		return "", fmt.Errorf("read session file: %w", err)
	}
	token := strings.TrimSpace(string(data))
	if token == "" {
		return "", ErrNotLoggedIn
	}
	return token, nil
}

func (s SessionFile) Save(token string) error {
	if err := os.WriteFile(s.Path, []byte(token), 0o600); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	return nil
}

// Remove deletes the session file. A missing file is not an error.
func (s SessionFile) Remove() error {
	if err := os.Remove(s.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove session file: %w", err)
	}
	return nil
}
