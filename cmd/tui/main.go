// Command tui runs the terminal dashboard for observing interview sessions.
// It connects to the server's observer WebSocket and renders every session
// live: proctoring status, violations, scores, and reports.
package main

import (
	"flag"
	"fmt"
	"net/url"
	"os"

	"github.com/greenroomhq/greenroom/internal/tui/app"
	"github.com/greenroomhq/greenroom/internal/tui/client"
	"github.com/greenroomhq/greenroom/internal/tui/theme"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
)

func main() {
	urlFlag := flag.String("url", "ws://127.0.0.1:8080/ws/observe", "observer WebSocket URL")
	token := flag.String("token", os.Getenv("GREENROOM_TOKEN"), "API token (defaults to GREENROOM_TOKEN)")
	themePath := flag.String("theme", "", "YAML color override file")
	flag.Parse()

	if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		fmt.Fprintln(os.Stderr, "greenroom tui requires an interactive terminal")
		os.Exit(1)
	}

	if *themePath != "" {
		if err := theme.Load(*themePath); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}

	httpBase, err := deriveHTTPBase(*urlFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "bad url %q: %v\n", *urlFlag, err)
		os.Exit(1)
	}

	m := app.New(client.NewWS(*urlFlag, *token), client.NewHTTP(httpBase, *token), *urlFlag)
	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// deriveHTTPBase maps the observer URL onto the REST base of the same host.
func deriveHTTPBase(wsURL string) (string, error) {
	u, err := url.Parse(wsURL)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "ws":
		u.Scheme = "http"
	case "wss":
		u.Scheme = "https"
	case "http", "https":
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	u.Path = ""
	u.RawQuery = ""
	return u.String(), nil
}
