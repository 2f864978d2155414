package cmd

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"xpick/internal/picker"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func (a *app) autopickCmd() *cobra.Command {
	var classifierPath string
	var strict bool

	cmd := &cobra.Command{
		Use:   "autopick <micrograph>...",
		Short: "Run the classifier's autopick program on micrographs",
		Long: `Run the autopick command of a classifier file on each micrograph in turn,
followed by its convert command when the pick succeeded. A failed run is
reported and the remaining micrographs still run; --strict makes any
failure the exit status.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.classifier(classifierPath, true)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			failed := 0
			for _, arg := range args {
				path, err := filepath.Abs(arg)
				if err != nil {
					return err
				}
				res := c.Autopick(cmd.Context(), picker.MicrographFromPath(path))
				printAutopickResult(out, res)
				if !res.OK() {
					failed++
				}
			}

			if strict && failed > 0 {
				return fmt.Errorf("%d of %d autopick runs failed", failed, len(args))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&classifierPath, "classifier", "c", "", "classifier file (default from the config)")
	cmd.Flags().BoolVar(&strict, "strict", false, "exit non-zero when any run fails")
	return cmd
}

func printAutopickResult(w io.Writer, res picker.AutopickResult) {
	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)
	faint := color.New(color.Faint)

	if err := res.Err(); err != nil {
		red.Fprintf(w, "FAIL %s", res.Micrograph.Name)
		fmt.Fprintf(w, ": %v\n", err)
	} else {
		green.Fprintf(w, "ok   %s\n", res.Micrograph.Name)
	}

	for _, r := range res.Results {
		faint.Fprintf(w, "     [%s] exit %d in %s: %s\n", shortID(r.RunID), r.ExitStatus, r.Duration.Round(time.Millisecond), r.Command)
		if out := strings.TrimRight(r.Output, "\n"); out != "" {
			for _, line := range strings.Split(out, "\n") {
				fmt.Fprintf(w, "     | %s\n", line)
			}
		}
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
