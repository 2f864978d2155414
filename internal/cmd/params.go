package cmd

import (
	"fmt"
	"os"
	"strings"

	"xpick/internal/picker"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
)

func (a *app) paramsCmd() *cobra.Command {
	var classifierPath string
	var raw bool

	cmd := &cobra.Command{
		Use:   "params",
		Short: "Show a classifier's parameters and command templates",
		Long: `Show the parameters a classifier file declares, its command templates
and any %(name) placeholder in them that no parameter provides.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.classifier(classifierPath, true)
			if err != nil {
				return err
			}

			md := classifierMarkdown(c)
			if raw {
				fmt.Fprint(cmd.OutOrStdout(), md)
				return nil
			}
			rendered, err := renderMarkdown(md, isTerminal(os.Stdout))
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), rendered)
			return nil
		},
	}

	cmd.Flags().StringVarP(&classifierPath, "classifier", "c", "", "classifier file (default from the config)")
	cmd.Flags().BoolVar(&raw, "raw", false, "print markdown without rendering")
	return cmd
}

func renderMarkdown(md string, tty bool) (string, error) {
	style := glamour.WithStandardStyle("notty")
	if tty {
		style = glamour.WithAutoStyle()
	}
	r, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(100))
	if err != nil {
		return "", fmt.Errorf("creating markdown renderer: %w", err)
	}
	return r.Render(md)
}

func cell(s string) string {
	if s == "" {
		return "-"
	}
	return strings.ReplaceAll(s, "|", `\|`)
}

// classifierMarkdown describes a classifier as a markdown document
func classifierMarkdown(c *picker.Classifier) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "# Classifier `%s`\n\n", c.Path())

	params := c.Parameters()
	if len(params) == 0 {
		sb.WriteString("No parameters declared.\n\n")
	} else {
		sb.WriteString("| Parameter | Label | Value | Help |\n")
		sb.WriteString("| --- | --- | --- | --- |\n")
		for _, p := range params {
			fmt.Fprintf(&sb, "| `%s` | %s | %s | %s |\n", p.Name, cell(p.Label), cell(p.Value), cell(p.Help))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("## Commands\n\n")
	fmt.Fprintf(&sb, "- autopick: `%s`\n", c.AutopickCommand())
	if conv := c.ConvertCommand(); conv != "" {
		fmt.Fprintf(&sb, "- convert: `%s`\n", conv)
	}
	if dir := c.RunDir(); dir != "" {
		fmt.Fprintf(&sb, "- run directory: `%s`\n", dir)
	}
	sb.WriteString("\n")

	unresolved := c.Unresolved(c.AutopickCommand())
	if len(unresolved) == 0 {
		sb.WriteString("All placeholders resolve.\n")
		return sb.String()
	}
	sb.WriteString("## Unresolved placeholders\n\n")
	for _, u := range unresolved {
		fmt.Fprintf(&sb, "- `%s`", picker.Placeholder(u.Token))
		if u.Suggestion != "" {
			fmt.Fprintf(&sb, ", did you mean `%s`?", picker.Placeholder(u.Suggestion))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
