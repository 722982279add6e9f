// Package cli implements the askip command line.
package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"askip/internal/logger"
	"askip/internal/repl"
	"askip/internal/service"
	"askip/internal/tui"
)

var (
	cfgPath    string
	langFlag   string
	verbose    bool
	plain      bool
	noCache    bool
	queries    []string
	maxResults int
	seed       int64
)

// runProgram runs the interactive UI. Replaced in tests.
var runProgram = func(m tea.Model) error {
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}

var rootCmd = &cobra.Command{
	Use:   "askip <title|url|file>",
	Short: "Ask questions about a Wikipedia page or a local document",
	Long: `askip splits a document into sentences, groups them into topics and
answers each question with the sentences of the topic closest to it.

The source can be a Wikipedia URL (https://fr.wikipedia.org/wiki/Paris),
a bare page title looked up in the --lang edition, a text file or a PDF.

Type bye, exit or quit (or an empty line in --plain mode) to leave.`,
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		logger.SetOutput(cmd.ErrOrStderr())
		logger.SetVerbose(verbose)
	},
	RunE: runRoot,
}

func init() {
	registerRootFlags()
}

func registerRootFlags() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "path to YAML config file (default ./askip.yaml, then ~/.config/askip/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log fetch, fit and query details to stderr")
	rootCmd.Flags().StringVarP(&langFlag, "lang", "l", "", "language of bare titles and files (en, fr, it, es, pt)")
	rootCmd.Flags().BoolVar(&plain, "plain", false, "use the line-oriented prompt instead of the terminal UI")
	rootCmd.Flags().BoolVar(&noCache, "no-cache", false, "bypass the local document cache")
	rootCmd.Flags().StringArrayVarP(&queries, "query", "q", nil, "answer this question and exit (repeatable)")
	rootCmd.Flags().IntVarP(&maxResults, "max-results", "n", 0, "maximum passages per answer (default from config)")
	rootCmd.Flags().Int64Var(&seed, "seed", -1, "clustering seed (default from config)")
}

// Execute runs the root command.
func Execute() error {
	_ = godotenv.Load()
	return rootCmd.Execute()
}

func runRoot(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyFlagOverrides(cfg)

	opts, err := serviceOptions(cfg)
	if err != nil {
		return err
	}
	fetcher, closeFetcher, err := newFetcher(cfg)
	if err != nil {
		return err
	}
	defer closeFetcher()

	ctx := cmd.Context()
	svc := service.New(fetcher, opts)
	if _, err := svc.LoadModel(ctx, args[0], cfg.Language); err != nil {
		return fmt.Errorf("loading %s: %w", args[0], err)
	}

	if len(queries) > 0 {
		for _, q := range queries {
			passages, err := svc.Ask(q)
			if err != nil {
				return err
			}
			cmd.Println(repl.Format(passages))
		}
		return nil
	}
	if plain {
		return repl.New(svc, cmd.InOrStdin(), cmd.OutOrStdout()).Run(ctx)
	}
	src, _ := svc.Source()
	return runProgram(tui.New(svc, src.String(), cfg.Language))
}
