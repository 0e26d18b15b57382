// Package review provides the near-duplicate review view for the TUI.
package review

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/mailsift-cli/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/mailsift-cli/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/mailsift-cli/internal/core/domain"
	"github.com/custodia-labs/mailsift-cli/internal/core/ports/driving"
)

// View is the near-duplicate review view. It lists the flagged pairs of
// a run and records the reviewer's decision for each.
type View struct {
	styles        *styles.Styles
	reviewService driving.ReviewService
	runID         string

	runLabel string
	pairs    []driving.ReviewPair
	selected int
	width    int
	height   int
	ready    bool
	err      error
	loading  bool
}

// NewView creates a new review view. An empty runID selects the most
// recent run.
func NewView(s *styles.Styles, reviewService driving.ReviewService, runID string) *View {
	return &View{
		styles:        s,
		reviewService: reviewService,
		runID:         runID,
		pairs:         []driving.ReviewPair{},
	}
}

// Init initialises the view and loads the pair list.
func (v *View) Init() tea.Cmd {
	v.loading = true
	return v.loadPairs()
}

// loadPairs returns a command that loads the flagged pairs from the service.
func (v *View) loadPairs() tea.Cmd {
	return func() tea.Msg {
		if v.reviewService == nil {
			return messages.PairsLoaded{Err: fmt.Errorf("review service not available")}
		}

		label, pairs, err := v.reviewService.Pairs(context.Background(), v.runID)
		if err != nil {
			return messages.PairsLoaded{Err: err}
		}

		return messages.PairsLoaded{RunLabel: label, Pairs: pairs, Err: nil}
	}
}

// resolve returns a command that records a decision for a pair.
func (v *View) resolve(index int, resolution domain.Resolution) tea.Cmd {
	return func() tea.Msg {
		if v.reviewService == nil {
			return messages.PairResolved{
				Index:      index,
				Resolution: resolution,
				Err:        fmt.Errorf("review service not available"),
			}
		}

		err := v.reviewService.Resolve(context.Background(), v.runID, index, resolution)
		return messages.PairResolved{Index: index, Resolution: resolution, Err: err}
	}
}

// Update handles messages for the review view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		v.ready = true
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.PairsLoaded:
		v.loading = false
		if msg.Err != nil {
			v.err = msg.Err
		} else {
			v.runLabel = msg.RunLabel
			v.pairs = msg.Pairs
			v.err = nil
			if v.selected >= len(v.pairs) {
				v.selected = 0
			}
		}
		return v, nil

	case messages.PairResolved:
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.err = nil
		for i := range v.pairs {
			if v.pairs[i].Index == msg.Index {
				v.pairs[i].Resolution = msg.Resolution
				break
			}
		}
		// Move on to the next pair after a decision.
		if v.selected < len(v.pairs)-1 {
			v.selected++
		}
		return v, nil
	}

	return v, nil
}

// handleKeyMsg handles key presses.
func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if v.selected > 0 {
			v.selected--
		}
	case "down", "j":
		if v.selected < len(v.pairs)-1 {
			v.selected++
		}
	case "b":
		return v, v.resolveSelected(domain.ResolutionKeepBoth)
	case "1":
		return v, v.resolveSelected(domain.ResolutionFlagFirst)
	case "2":
		return v, v.resolveSelected(domain.ResolutionFlagSecond)
	case "r":
		v.loading = true
		return v, v.loadPairs()
	}

	return v, nil
}

// resolveSelected records a decision for the currently selected pair.
func (v *View) resolveSelected(resolution domain.Resolution) tea.Cmd {
	if len(v.pairs) == 0 || v.selected >= len(v.pairs) {
		return nil
	}
	return v.resolve(v.pairs[v.selected].Index, resolution)
}

// View renders the review view.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render("Near-Duplicate Review"))
	if v.runLabel != "" {
		b.WriteString("  ")
		b.WriteString(v.styles.Muted.Render(v.runLabel))
	}
	b.WriteString("\n\n")

	if v.loading {
		b.WriteString(v.styles.Muted.Render("Loading pairs..."))
		b.WriteString("\n\n")
		b.WriteString(v.renderHelp())
		return b.String()
	}

	if v.err != nil {
		b.WriteString(v.styles.Error.Render(fmt.Sprintf("Error: %s", v.err.Error())))
		b.WriteString("\n\n")
		b.WriteString(v.renderHelp())
		return b.String()
	}

	if len(v.pairs) == 0 {
		b.WriteString(v.styles.Success.Render("No near-duplicate pairs flagged."))
		b.WriteString("\n\n")
		b.WriteString(v.renderHelp())
		return b.String()
	}

	b.WriteString(v.styles.Subtitle.Render(v.renderProgress()))
	b.WriteString("\n\n")

	for i := range v.pairs {
		b.WriteString(v.renderPair(i, &v.pairs[i]))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(v.renderHelp())

	return b.String()
}

// renderProgress renders the reviewed/pending counter line.
func (v *View) renderProgress() string {
	pending := 0
	for i := range v.pairs {
		if v.pairs[i].Resolution == domain.ResolutionPending {
			pending++
		}
	}
	return fmt.Sprintf("%d pairs, %d pending", len(v.pairs), pending)
}

// renderPair renders a single pair line.
func (v *View) renderPair(index int, pair *driving.ReviewPair) string {
	indicator := "  "
	if index == v.selected {
		indicator = "> "
	}

	// Format: > [N] address ~ existing  (93% d1)  resolution
	detail := fmt.Sprintf("(%.0f%% d%d)", pair.Pair.Score*100, pair.Pair.EditDistance)
	addresses := fmt.Sprintf("%s ~ %s", pair.Pair.Address, pair.Pair.Existing)

	// Truncate the address pair if needed
	maxAddrLen := v.width - len(detail) - 24
	if maxAddrLen < 16 {
		maxAddrLen = 16
	}
	if len(addresses) > maxAddrLen {
		addresses = addresses[:maxAddrLen-3] + "..."
	}

	if index == v.selected {
		return v.styles.Selected.Render(fmt.Sprintf("%s[%3d] %s  %s  %s",
			indicator, pair.Index, addresses, detail, pair.Resolution))
	}

	return v.styles.Normal.Render(fmt.Sprintf("%s[%3d] %s  %s  ", indicator, pair.Index, addresses, detail)) +
		v.renderResolution(pair.Resolution)
}

// renderResolution renders a resolution label in its status colour.
func (v *View) renderResolution(r domain.Resolution) string {
	switch r {
	case domain.ResolutionKeepBoth:
		return v.styles.Success.Render(r.String())
	case domain.ResolutionFlagFirst, domain.ResolutionFlagSecond:
		return v.styles.Warning.Render(r.String())
	case domain.ResolutionPending:
		return v.styles.Muted.Render(r.String())
	}
	return v.styles.Muted.Render(r.String())
}

// renderHelp renders the help footer.
func (v *View) renderHelp() string {
	return v.styles.Help.Render("[b] keep both  [1] flag first  [2] flag second  [r] reload  [↑/↓] move  [q] quit")
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
}

// Pairs returns the current pair list.
func (v *View) Pairs() []driving.ReviewPair {
	return v.pairs
}

// RunLabel returns the label of the run under review.
func (v *View) RunLabel() string {
	return v.runLabel
}

// SelectedIndex returns the currently selected list position.
func (v *View) SelectedIndex() int {
	return v.selected
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
