package console

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/afero"

	"github.com/five82/webtail/internal/state"
)

// Options configure the console.
type Options struct {
	Store *state.Store
	Feed  *Feed
	Theme string

	// PrefsPath, when set, restores and saves the operator's theme and
	// follow choices.
	PrefsPath string
	FS        afero.Fs
}

// Run takes over the terminal until the operator quits or ctx is cancelled.
func Run(ctx context.Context, opts Options) error {
	if opts.Store == nil {
		return fmt.Errorf("console requires a stats store")
	}
	model := NewModel(opts.Store, opts.Feed, opts.Theme)
	if opts.PrefsPath != "" {
		fs := opts.FS
		if fs == nil {
			fs = afero.NewOsFs()
		}
		model = model.WithPrefs(fs, opts.PrefsPath)
	}
	p := tea.NewProgram(model, tea.WithAltScreen())

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			p.Quit()
		case <-done:
		}
	}()

	_, err := p.Run()
	return err
}
