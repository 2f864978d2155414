package cmd

import (
	"fmt"
	"os"

	"xpick/internal/gui"
	"xpick/internal/log"
	"xpick/internal/tui"
	"xpick/internal/watch"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

// isTerminal is swapped in tests
var isTerminal = func(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (a *app) browseCmd() *cobra.Command {
	var filter, classifierPath string

	cmd := &cobra.Command{
		Use:   "browse [directory]",
		Short: "Pick a file in the terminal",
		Long: `Open the terminal picker. Enter opens folders and chooses files; the
chosen path is printed on exit. When stdout is not a terminal the listing is
printed instead, as with ls.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := ""
			if len(args) > 0 {
				dir = args[0]
			}

			if !isTerminal(os.Stdout) {
				b, err := a.newBrowser(dir, filter, false)
				if err != nil {
					return err
				}
				printListing(cmd.OutOrStdout(), b)
				return nil
			}

			b, err := a.newBrowser(dir, filter, true)
			if err != nil {
				return err
			}
			c, err := a.classifier(classifierPath, false)
			if err != nil {
				return err
			}
			w, err := a.startWatcher()
			if err != nil {
				return err
			}
			if w != nil {
				defer w.Stop()
			}

			chosen, err := tui.Run(cmd.Context(), b, tui.Options{Classifier: c, Watcher: w})
			if err != nil {
				return err
			}
			if chosen != "" {
				fmt.Fprintln(cmd.OutOrStdout(), chosen)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&filter, "filter", "f", "", "initial wildcard filter")
	cmd.Flags().StringVarP(&classifierPath, "classifier", "c", "", "classifier file enabling the autopick key")
	return cmd
}

func (a *app) guiCmd() *cobra.Command {
	var filter, classifierPath string

	cmd := &cobra.Command{
		Use:   "gui [directory]",
		Short: "Pick a file in a desktop window",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !gui.IsGUIAvailable() {
				return fmt.Errorf("this build has no GUI, use browse instead")
			}
			dir := ""
			if len(args) > 0 {
				dir = args[0]
			}
			b, err := a.newBrowser(dir, filter, true)
			if err != nil {
				return err
			}
			c, err := a.classifier(classifierPath, false)
			if err != nil {
				return err
			}

			var w *watch.Watcher
			if a.cfg.Browser.Watch {
				if w, err = watch.New(64); err != nil {
					return err
				}
			}

			chosen, err := gui.Run(cmd.Context(), b, gui.Options{Classifier: c, Watcher: w})
			if err != nil {
				return err
			}
			if chosen != "" {
				fmt.Fprintln(cmd.OutOrStdout(), chosen)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&filter, "filter", "f", "", "initial wildcard filter")
	cmd.Flags().StringVarP(&classifierPath, "classifier", "c", "", "classifier file enabling autopick")
	return cmd
}

// startWatcher returns a running watcher, or nil when watching is disabled
func (a *app) startWatcher() (*watch.Watcher, error) {
	if !a.cfg.Browser.Watch {
		return nil, nil
	}
	w, err := watch.New(64)
	if err != nil {
		return nil, err
	}
	if err := w.Start(); err != nil {
		log.LogWithError(err).Warn("directory watching disabled")
		return nil, nil
	}
	return w, nil
}
