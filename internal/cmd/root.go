package cmd

import (
	"fmt"

	"xpick/internal/browser"
	"xpick/internal/config"
	"xpick/internal/log"
	"xpick/internal/picker"
	"xpick/internal/thumb"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// app carries the global flags and the configuration loaded for a run
type app struct {
	cfgFile string
	envFile string
	debug   bool
	jsonLog bool
	cfg     *config.Config
}

// NewRootCmd builds the xpick command tree
func NewRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "xpick",
		Short: "Browse micrograph directories and run particle autopicking",
		Long: `xpick lists image directories with a wildcard filter, shows them in a
terminal or desktop picker with thumbnails, and runs the autopick program a
classifier file describes on the micrographs you choose.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default is $HOME/.config/xpick/config.yaml)")
	root.PersistentFlags().StringVar(&a.envFile, "env-file", "", "environment file for the autopick commands (default is ./.env when present)")
	root.PersistentFlags().BoolVar(&a.debug, "debug", false, "enable debug logging")
	root.PersistentFlags().BoolVar(&a.jsonLog, "json-log", false, "write log lines as JSON")

	root.AddCommand(
		a.lsCmd(),
		a.browseCmd(),
		a.guiCmd(),
		a.autopickCmd(),
		a.paramsCmd(),
		a.watchCmd(),
		a.configCmd(),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	// Commands run through sh -c, so variables set here are expanded by the
	// shell, never by the classifier loader
	if a.envFile != "" {
		if err := godotenv.Load(a.envFile); err != nil {
			return fmt.Errorf("loading environment file: %w", err)
		}
	} else {
		_ = godotenv.Load()
	}

	var err error
	if a.cfgFile != "" {
		a.cfg, err = config.LoadConfigFile(a.cfgFile)
	} else {
		a.cfg, err = config.LoadConfig()
	}
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	opts := []log.Option{log.WithOutput(cmd.ErrOrStderr()), log.WithLevel(a.cfg.Log.Level)}
	if a.cfg.Log.File != "" {
		opts = append(opts, log.WithFile(a.cfg.Log.File))
	}
	if a.jsonLog || a.cfg.Log.JSON {
		opts = append(opts, log.WithJSON())
	}
	log.Configure(opts...)
	if a.debug {
		log.SetDebug(true)
	}
	return nil
}

// newBrowser opens a directory model configured from the loaded settings.
// withThumbs attaches a fresh thumbnail cache for the interactive views.
func (a *app) newBrowser(dirArg, filter string, withThumbs bool) (*browser.Model, error) {
	dir, err := a.cfg.StartDir(dirArg)
	if err != nil {
		return nil, fmt.Errorf("resolving directory: %w", err)
	}

	opts := []browser.Option{
		browser.WithShowHidden(a.cfg.Browser.ShowHidden),
		browser.WithSniffing(a.cfg.Browser.SniffContent),
		browser.WithFilter(filter),
	}
	if withThumbs {
		cache, err := thumb.NewCache(a.cfg.Browser.ThumbnailCacheSize, a.cfg.Browser.ThumbnailSize)
		if err != nil {
			return nil, err
		}
		opts = append(opts, browser.WithThumbnails(cache))
	}
	return browser.New(dir, opts...)
}

// classifier loads the classifier named by flag, falling back to the
// configured one. required reports an error when neither is set.
func (a *app) classifier(path string, required bool) (*picker.Classifier, error) {
	if path == "" {
		path = a.cfg.Picker.Classifier
	}
	if path == "" {
		if required {
			return nil, fmt.Errorf("no classifier file given, use --classifier or picker.classifier in the config")
		}
		return nil, nil
	}
	return picker.New(path,
		picker.WithTimeout(a.cfg.CommandTimeout()),
		picker.WithLock(a.cfg.Picker.Lock),
	)
}
