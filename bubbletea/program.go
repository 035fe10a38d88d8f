package bubbletea

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
)

// Program runs a ReviewModel full screen until the user quits.
type Program struct {
	opts []tea.ProgramOption
}

// ProgramOption configures a Program.
type ProgramOption func(*Program)

// WithProgramOptions passes additional options to the Bubble Tea program.
func WithProgramOptions(opts ...tea.ProgramOption) ProgramOption {
	return func(p *Program) {
		p.opts = append(p.opts, opts...)
	}
}

// NewProgram creates a Program.
func NewProgram(opts ...ProgramOption) *Program {
	p := &Program{}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run displays m and blocks until the user exits or ctx is cancelled.
// Requests started from the view use ctx.
func (p *Program) Run(ctx context.Context, m ReviewModel) error {
	m.ctx = ctx
	opts := append([]tea.ProgramOption{
		tea.WithContext(ctx),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	}, p.opts...)
	_, err := tea.NewProgram(m, opts...).Run()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return err
}
