package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/dom/timetrack/internal/cli"
)

func main() {
	serverURL := "http://localhost:3000"
	if envURL := os.Getenv("SERVER"); envURL != "" {
		serverURL = strings.TrimRight(envURL, "/")
	}

	sessionPath, err := cli.DefaultSessionPath()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}

	runner := &cli.Runner{
		Client:  cli.NewAPIClient(serverURL),
		Session: cli.SessionFile{Path: sessionPath},
		Prompt:  cli.NewTerminalPrompter(os.Stdin, os.Stdout),
		Out:     os.Stdout,
	}

	if err := runner.Run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
