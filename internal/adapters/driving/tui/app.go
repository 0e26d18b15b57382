package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/mailsift-cli/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/mailsift-cli/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/mailsift-cli/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/mailsift-cli/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/mailsift-cli/internal/adapters/driving/tui/views/review"
	"github.com/custodia-labs/mailsift-cli/internal/core/ports/driving"
)

// App is the TUI application following the Elm architecture.
// It implements tea.Model for use with Bubbletea and hosts the
// near-duplicate review screen.
type App struct {
	// ports provides access to core services via driving ports.
	ports *Ports

	// ctx is the context for cancellation.
	ctx context.Context

	// styles holds the TUI styles.
	styles *styles.Styles

	// reviewView is the near-duplicate review screen.
	reviewView *review.View

	// statusBar displays state and keybinding hints.
	statusBar *status.Bar

	// err holds the last error that occurred.
	err error

	// width and height are terminal dimensions.
	width  int
	height int

	// ready indicates if the app has initialised.
	ready bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a new TUI application reviewing the given run.
// An empty runID selects the most recent run.
func NewApp(ports *Ports, runID string) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()

	return &App{
		ports:      ports,
		ctx:        context.Background(),
		styles:     s,
		reviewView: review.NewView(s, ports.Review, runID),
		statusBar:  status.NewBar(s, km),
	}, nil
}

// WithContext sets the context for the app.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	return a
}

// Init implements tea.Model.
// It runs initial commands when the program starts.
func (a *App) Init() tea.Cmd {
	a.statusBar.SetState(status.StateLoading)
	return tea.Batch(
		tea.EnterAltScreen,
		tea.SetWindowTitle("mailsift - Near-Duplicate Review"),
		a.reviewView.Init(),
	)
}

// Update implements tea.Model.
// It handles messages and updates the model state.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.ready = true
		a.reviewView.SetDimensions(msg.Width, msg.Height)
		a.statusBar.SetWidth(msg.Width)
		return a, nil

	case tea.KeyMsg:
		// Global quit; the review screen has no text input.
		if msg.String() == "ctrl+c" || msg.String() == "q" {
			return a, tea.Quit
		}
		a.reviewView, cmd = a.reviewView.Update(msg)
		a.syncStatus()
		return a, cmd

	case messages.PairsLoaded, messages.PairResolved:
		a.reviewView, cmd = a.reviewView.Update(msg)
		a.syncStatus()
		return a, cmd

	case messages.ErrorOccurred:
		a.err = msg.Err
		a.statusBar.SetState(status.StateError)
		if msg.Err != nil {
			a.statusBar.SetMessage(msg.Err.Error())
		}
		return a, nil

	case messages.Quit:
		return a, tea.Quit
	}

	a.reviewView, cmd = a.reviewView.Update(msg)
	return a, cmd
}

// syncStatus mirrors the review view state onto the status bar.
func (a *App) syncStatus() {
	a.err = a.reviewView.Err()
	if a.err != nil {
		a.statusBar.SetState(status.StateError)
		a.statusBar.SetMessage(a.err.Error())
		return
	}

	count := len(a.reviewView.Pairs())
	a.statusBar.SetPairCount(count)
	a.statusBar.SetMessage("")
	if count > 0 {
		a.statusBar.SetState(status.StateReviewing)
	} else {
		a.statusBar.SetState(status.StateReady)
	}
}

// View implements tea.Model.
// It renders the review screen with the status bar below.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	return a.reviewView.View() + "\n" + a.statusBar.View()
}

// Run starts the TUI application.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// Pairs returns the pairs currently shown by the review screen.
func (a *App) Pairs() []driving.ReviewPair {
	return a.reviewView.Pairs()
}

// Err returns the last error that occurred.
func (a *App) Err() error {
	return a.err
}

// Ready returns whether the app has been initialised.
func (a *App) Ready() bool {
	return a.ready
}

// SetDimensions sets the terminal dimensions (for testing).
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true
	a.reviewView.SetDimensions(width, height)
	a.statusBar.SetWidth(width)
}
