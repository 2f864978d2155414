package cmd

import (
	"fmt"
	"io"

	"xpick/internal/browser"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var kindColors = map[browser.Kind]*color.Color{
	browser.Parent: color.New(color.Faint),
	browser.Folder: color.New(color.FgBlue, color.Bold),
	browser.Image:  color.New(color.FgGreen),
	browser.Index:  color.New(color.FgYellow),
	browser.File:   color.New(color.Reset),
}

func (a *app) lsCmd() *cobra.Command {
	var filter string

	cmd := &cobra.Command{
		Use:   "ls [directory]",
		Short: "List a directory through the filter",
		Long: `List a directory the way the pickers show it: the parent entry first,
then folders and files by name. The filter takes space-separated wildcard
patterns; an entry is listed when any pattern matches its whole name.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := ""
			if len(args) > 0 {
				dir = args[0]
			}
			b, err := a.newBrowser(dir, filter, false)
			if err != nil {
				return err
			}
			printListing(cmd.OutOrStdout(), b)
			return nil
		},
	}

	cmd.Flags().StringVarP(&filter, "filter", "f", "", "wildcard patterns, e.g. \"*.mrc *.spi\"")
	return cmd
}

// printListing writes one line per visible entry followed by the status
func printListing(w io.Writer, b *browser.Model) {
	for _, it := range b.Items() {
		name := it.Name
		if it.Kind == browser.Folder {
			name += "/"
		}
		fmt.Fprintf(w, "%-7s ", it.Kind)
		kindColors[it.Kind].Fprintln(w, name)
	}

	status := b.Status()
	if status.Filtering() {
		color.New(color.FgYellow).Fprintf(w, "⚠ %s (filter %q)\n", status, b.FilterText())
		return
	}
	fmt.Fprintln(w, status)
}
