package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/luxemarket/storefront-backend/internal/cart"
	"github.com/luxemarket/storefront-backend/internal/checkout"
	"github.com/luxemarket/storefront-backend/pkg/kv"
	"github.com/luxemarket/storefront-backend/pkg/storeapi"
)

// app holds what every command shares once flags and config are resolved.
type app struct {
	settings settings
	api      *storeapi.Client
	state    *kv.FileStore
	notifier *terminalNotifier
	in       *prompter
	out      io.Writer
}

// session is what login stores under kv.KeyToken.
type session struct {
	Email        string `json:"email"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

func (a *app) cart(ctx context.Context) *cart.Store {
	return cart.NewStore(ctx, a.state, cart.Options{Notifier: a.notifier})
}

func (a *app) session(ctx context.Context) (session, error) {
	raw, ok, err := a.state.Get(ctx, kv.KeyToken)
	if err != nil {
		return session{}, err
	}
	var s session
	if !ok || json.Unmarshal([]byte(raw), &s) != nil || s.AccessToken == "" {
		return session{}, storeapi.ErrNotLoggedIn
	}
	return s, nil
}

func (a *app) saveSession(ctx context.Context, s session) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return a.state.Set(ctx, kv.KeyToken, string(raw))
}

func (a *app) clearSession(ctx context.Context) error {
	return a.state.Delete(ctx, kv.KeyToken)
}

func (a *app) navigator() checkout.Navigator {
	return checkout.NavigatorFunc(func(path string) {
		hint := routeHints[path]
		if hint == "" {
			hint = path
		}
		fmt.Fprintln(a.out, mutedStyle.Render("→ "+hint))
	})
}

// routeHints maps storefront routes onto the command that shows them.
var routeHints = map[string]string{
	checkout.RouteProducts: "browse the catalog with `storefront products list`",
	checkout.RouteHome:     "back to the storefront home",
}

var (
	titleStyle       = lipgloss.NewStyle().Bold(true)
	successStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#8BC34A"))
	destructiveStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#E53935"))
	mutedStyle       = lipgloss.NewStyle().Faint(true)
)

// terminalNotifier prints notices as one line each. Durations only matter
// to toast-style UIs and are ignored here.
type terminalNotifier struct {
	mu  sync.Mutex
	out io.Writer
}

func newTerminalNotifier(out io.Writer) *terminalNotifier {
	return &terminalNotifier{out: out}
}

func (n *terminalNotifier) Notify(notice cart.Notice) {
	style := successStyle
	if notice.Severity == cart.SeverityDestructive {
		style = destructiveStyle
	}
	line := style.Render(notice.Title)
	if notice.Description != "" {
		line += " " + notice.Description
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	fmt.Fprintln(n.out, line)
}

// prompter reads answers line by line. Once input is exhausted every
// further prompt returns ok=false.
type prompter struct {
	scanner *bufio.Scanner
	out     io.Writer
	done    bool
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	return &prompter{scanner: bufio.NewScanner(in), out: out}
}

func (p *prompter) ask(label string) (string, bool) {
	if p.done {
		return "", false
	}
	fmt.Fprintf(p.out, "%s: ", label)
	if !p.scanner.Scan() {
		p.done = true
		fmt.Fprintln(p.out)
		return "", false
	}
	return strings.TrimSpace(p.scanner.Text()), true
}
