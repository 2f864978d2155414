package cmd

import (
	"fmt"
	"time"

	"xpick/internal/picker"
	"xpick/internal/watch"

	"github.com/spf13/cobra"
)

func (a *app) watchCmd() *cobra.Command {
	var (
		classifierPath string
		filter         string
		settle         time.Duration
	)

	cmd := &cobra.Command{
		Use:   "watch [directory]",
		Short: "Autopick images as they arrive in a directory",
		Long: `Watch a directory and run the classifier's autopick program on every new
image that matches the filter, once the file has stopped changing. Runs
until interrupted.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.classifier(classifierPath, true)
			if err != nil {
				return err
			}
			arg := ""
			if len(args) > 0 {
				arg = args[0]
			}
			dir, err := a.cfg.StartDir(arg)
			if err != nil {
				return err
			}

			d, err := watch.NewDaemon(dir, c)
			if err != nil {
				return err
			}
			if err := d.SetFilter(filter); err != nil {
				return err
			}
			d.SetSettle(settle)

			out := cmd.OutOrStdout()
			d.SetCallback(func(res picker.AutopickResult) {
				printAutopickResult(out, res)
			})

			ctx := cmd.Context()
			if err := d.Start(ctx); err != nil {
				return err
			}
			fmt.Fprintf(out, "watching %s, press Ctrl+C to stop\n", dir)
			<-ctx.Done()
			d.Stop()

			status := d.Status()
			fmt.Fprintf(out, "autopicked %d micrographs, %d failed\n", status.Processed, status.Failed)
			return nil
		},
	}

	cmd.Flags().StringVarP(&classifierPath, "classifier", "c", "", "classifier file (default from the config)")
	cmd.Flags().StringVarP(&filter, "filter", "f", "", "only pick names matching these wildcard patterns")
	cmd.Flags().DurationVar(&settle, "settle", watch.DefaultSettle, "time a file must stay unchanged before it is picked")
	return cmd
}
