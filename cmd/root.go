package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/daveschumaker/gbm/internal/config"
	gbmerrors "github.com/daveschumaker/gbm/internal/errors"
	"github.com/daveschumaker/gbm/internal/git"
	"github.com/daveschumaker/gbm/internal/log"
	"github.com/daveschumaker/gbm/internal/session"
	"github.com/daveschumaker/gbm/internal/ui"
	"github.com/daveschumaker/gbm/internal/watch"
)

// Version is set at build time.
var Version = "dev"

var (
	workDir     string
	configPath  string
	debug       bool
	showRemotes bool
)

var rootCmd = &cobra.Command{
	Use:           "gbm",
	Short:         "A terminal branch manager for git",
	Long:          `gbm - browse, filter, switch, rename and delete git branches without losing work`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !isInteractive() {
			return fmt.Errorf("gbm needs a terminal; use `gbm list` for plain output")
		}

		env, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer env.close()

		opts := ui.Options{
			ShowRemotes: env.cfg.ShowRemotes,
			MaxAge:      env.cfg.MaxAge(),
		}
		if env.cfg.AutoRefresh {
			w, err := watch.New(env.loc, watch.DefaultDebounce)
			if err != nil {
				log.Warn("auto refresh disabled", "err", err)
			} else {
				defer w.Close()
				opts.Watch = w.Events()
			}
		}

		// Initialize and run the TUI
		p := tea.NewProgram(ui.NewModel(env.session, opts), tea.WithAltScreen())
		if _, err := p.Run(); err != nil {
			return fmt.Errorf("error running app: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&workDir, "dir", "C", "", "run as if gbm was started in this directory")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default $XDG_CONFIG_HOME/gbm/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "write debug logs")
	rootCmd.PersistentFlags().BoolVarP(&showRemotes, "remotes", "r", false, "include remote-tracking branches")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// env is everything a command needs to talk to the repository.
type env struct {
	cfg     *config.AppConfig
	loc     *git.Location
	session *session.Session
}

func (e *env) close() {
	_ = log.Close()
}

func openEnv(cmd *cobra.Command) (*env, error) {
	dir := workDir
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		dir = wd
	}

	loc, err := git.Discover(dir)
	if err != nil {
		if gbmerrors.Is(err, git.ErrNotARepository) {
			return nil, fmt.Errorf("not a git repository: %s", dir)
		}
		return nil, err
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
	}
	if cmd.Flags().Changed("remotes") {
		cfg.ShowRemotes = showRemotes
	}

	if err := initLogging(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: logging disabled: %v\n", err)
	}
	log.Info("gbm start", "version", Version, "worktree", loc.WorkTree, "git_dir", loc.GitDir)

	s := session.New(git.NewRepo(loc.WorkTree), session.Options{
		BaseBranch:   cfg.DefaultBaseBranch,
		Protected:    cfg.ProtectedBranches,
		AheadBehind:  cfg.AheadBehind,
		AuthorEmail:  cfg.AuthorEmail,
		FetchTimeout: cfg.FetchTimeout,
	})
	return &env{cfg: cfg, loc: loc, session: s}, nil
}

func initLogging(cfg *config.AppConfig) error {
	enabled := debug || os.Getenv("GBM_DEBUG") != ""
	log.SetDebug(enabled)

	path := cfg.DebugLog
	if path == "" && enabled {
		path = config.DefaultLogPath()
	}
	if path == "" {
		return nil
	}
	expanded, err := config.ExpandPath(path)
	if err != nil {
		return err
	}
	return log.Init(filepath.Clean(expanded))
}

func isInteractive() bool {
	in, out := os.Stdin.Fd(), os.Stdout.Fd()
	return (isatty.IsTerminal(in) || isatty.IsCygwinTerminal(in)) &&
		(isatty.IsTerminal(out) || isatty.IsCygwinTerminal(out))
}

// refresh builds the first snapshot for the headless commands.
func (e *env) refresh(ctx context.Context) error {
	if _, err := e.session.Refresh(ctx, e.cfg.ShowRemotes); err != nil {
		return err
	}
	email, err := e.session.AuthorEmail(ctx)
	if err != nil {
		log.Warn("author lookup failed", "err", err)
	}
	st := e.session.Filter()
	st.AuthorEmail = email
	e.session.SetFilter(st)
	return nil
}
