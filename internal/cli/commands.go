package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"
)

const Usage = `timers - track time from the command line

USAGE:
  timers <command> [argument]

COMMANDS:
  signup                 Create an account and log in
  login                  Log in and remember the session
  logout                 End the session and forget it
  status [old|<id>]      List all timers, only stopped ones, or one timer
  start [description]    Start a timer
  stop [id]              Stop a timer
  help                   Show this help message

ENVIRONMENT:
  SERVER   Server URL (default: http://localhost:3000)`

// Runner executes one CLI command.
type Runner struct {
	Client  *APIClient
	Session SessionFile
	Prompt  Prompter
	Out     io.Writer
}

func (r *Runner) Run(args []string) error {
	if len(args) == 0 {
		fmt.Fprintln(r.Out, Usage)
		return errors.New("no command given")
	}

	command, param := args[0], ""
	if len(args) > 1 {
		param = strings.Join(args[1:], " ")
	}

	var err error
	switch command {
	case "signup":
		err = r.authenticate(r.Client.Signup)
	case "login":
		err = r.authenticate(r.Client.Login)
	case "logout":
		err = r.logout()
	case "status":
		err = r.status(param)
	case "start":
		err = r.start(param)
	case "stop":
		err = r.stop(param)
	case "help", "-h", "--help":
		fmt.Fprintln(r.Out, Usage)
	default:
		fmt.Fprintln(r.Out, Usage)
		return fmt.Errorf("unknown command %q", command)
	}

	if errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrNotLoggedIn) {
		return fmt.Errorf("%w; run `timers login` first", err)
	}
	return err
}

func (r *Runner) authenticate(call func(username, password string) (string, error)) error {
	username, err := r.Prompt.Prompt("Username")
	if err != nil {
		return err
	}
	password, err := r.Prompt.PromptPassword("Password")
	if err != nil {
		return err
	}

	token, err := call(username, password)
	if err != nil {
		return err
	}
	if err := r.Session.Save(token); err != nil {
		return err
	}

	fmt.Fprintln(r.Out, "Successfully logged in")
	return nil
}

func (r *Runner) logout() error {
	token, err := r.Session.Load()
	if err != nil {
		return err
	}

	// The local session is forgotten even if the server is unreachable.
	if err := r.Client.Logout(token); err != nil {
		fmt.Fprintf(r.Out, "warning: server logout failed: %v\n", err)
	}
	if err := r.Session.Remove(); err != nil {
		return err
	}

	fmt.Fprintln(r.Out, "Logged out successfully!")
	return nil
}

func (r *Runner) status(param string) error {
	token, err := r.Session.Load()
	if err != nil {
		return err
	}

	var timers []Timer
	switch param {
	case "":
		timers, err = r.Client.ListAllTimers(token)
	case "old":
		timers, err = r.Client.ListTimers(token, false)
	default:
		var all []Timer
		all, err = r.Client.ListAllTimers(token)
		for _, t := range all {
			if t.ID == param {
				timers = append(timers, t)
			}
		}
	}
	if err != nil {
		return err
	}

	if len(timers) == 0 {
		fmt.Fprintln(r.Out, "No timers.")
		return nil
	}
	return WriteTimerTable(r.Out, timers)
}

func (r *Runner) start(description string) error {
	token, err := r.Session.Load()
	if err != nil {
		return err
	}

	if description == "" {
		if description, err = r.Prompt.Prompt("Task name"); err != nil {
			return err
		}
	}

	id, err := r.Client.StartTimer(token, description)
	if err != nil {
		return err
	}

	fmt.Fprintf(r.Out, "Started timer %q with id %s\n", description, id)
	return nil
}

func (r *Runner) stop(id string) error {
	token, err := r.Session.Load()
	if err != nil {
		return err
	}

	if id == "" {
		if id, err = r.Prompt.Prompt("Timer id"); err != nil {
			return err
		}
	}

	if err := r.Client.StopTimer(token, id); err != nil {
		return err
	}

	fmt.Fprintf(r.Out, "Timer %s stopped.\n", id)
	return nil
}
