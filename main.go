// locsync keeps localization JSON/YAML documents in sync with their source
// language using AI translation.
package main

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/minios-linux/locsync/config"
	"github.com/minios-linux/locsync/i18n"
	"github.com/minios-linux/locsync/langmeta"
	"github.com/minios-linux/locsync/settings"
	"github.com/minios-linux/locsync/translate"
)

// Version information (set via -ldflags during build)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// ANSI colors
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[0;31m"
	colorGreen  = "\033[0;32m"
	colorYellow = "\033[1;33m"
	colorBlue   = "\033[0;34m"
)

// stderrIsTerminal gates colors and progress bars.
var stderrIsTerminal = isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())

func useColor() bool {
	return stderrIsTerminal && os.Getenv("NO_COLOR") == ""
}

func paint(color, s string) string {
	if !useColor() {
		return s
	}
	return color + s + colorReset
}

func logInfo(format string, args ...any) {
	fmt.Fprintf(os.Stderr, paint(colorBlue, "[INFO]")+" "+format+"\n", args...)
}

func logSuccess(format string, args ...any) {
	fmt.Fprintf(os.Stderr, paint(colorGreen, "[OK]")+" "+format+"\n", args...)
}

func logWarning(format string, args ...any) {
	fmt.Fprintf(os.Stderr, paint(colorYellow, "[WARN]")+" "+format+"\n", args...)
}

func logError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, paint(colorRed, "[ERROR]")+" "+format+"\n", args...)
}

// ---------------------------------------------------------------------------
// Global flag
// ---------------------------------------------------------------------------

var rootDir string

// ---------------------------------------------------------------------------
// Root command
// ---------------------------------------------------------------------------

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "locsync",
		Short: i18n.T("Keep localization documents in sync using AI translation"),
		Long: `locsync - incremental AI translation for localization JSON/YAML files.

Only strings that are missing or still equal to the source text are sent
for translation. Work is split into small batches and the target file is
saved after every batch, so an interrupted run resumes where it stopped.

Commands:
  sync        Translate missing strings into the target languages
  status      Show per-language translation progress (no network)
  languages   List language codes accepted as targets
  prompts     Manage system prompt overrides
  auth        Manage provider API keys

AI Providers:
  openai         OpenAI - API key
  google         Google AI (Gemini) - API key
  anthropic      Anthropic - API key
  groq           Groq - API key
  ollama         Ollama local server
  custom-openai  Custom OpenAI-compatible endpoint`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&rootDir, "root", ".", i18n.T("Project root directory"))

	root.AddCommand(
		newSyncCmd(),
		newStatusCmd(),
		newLanguagesCmd(),
		newPromptsCmd(),
		newAuthCmd(),
		newVersionCmd(),
	)

	return root
}

func main() {
	i18n.Init("")
	if err := newRootCmd().Execute(); err != nil {
		logError("%v", err)
		os.Exit(1)
	}
}

// ---------------------------------------------------------------------------
// version
// ---------------------------------------------------------------------------

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: i18n.T("Show version information"),
		Long:  `Display version, commit hash, and build date.`,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "locsync version %s\n", version)
			fmt.Fprintf(out, "  commit:    %s\n", commit)
			fmt.Fprintf(out, "  built:     %s\n", date)
		},
	}
}

// ---------------------------------------------------------------------------
// languages
// ---------------------------------------------------------------------------

func newLanguagesCmd() *cobra.Command {
	var catalogPath string

	cmd := &cobra.Command{
		Use:   "languages",
		Short: i18n.T("List language codes accepted as targets"),
		Long: `List target language codes with English and native names.

With a catalog (--catalog or "catalog" in .locsync.yaml) only the codes
it lists are shown, since only those are accepted by sync.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(rootDir)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("catalog") {
				cfg.Catalog = catalogPath
			}
			catalog, err := loadCatalog(cfg)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, m := range langmeta.Known(catalog) {
				flag := m.Flag
				if flag == "" {
					flag = "  "
				}
				fmt.Fprintf(out, "%s %-8s %-28s %s\n", flag, m.Code, m.Name, m.Native)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&catalogPath, "catalog", "", i18n.T("Language catalog file (JSON)"))
	return cmd
}

func loadCatalog(cfg *config.Config) (*langmeta.Catalog, error) {
	if cfg.Catalog == "" {
		return nil, nil
	}
	return langmeta.LoadCatalog(cfg.CatalogPath())
}

// ---------------------------------------------------------------------------
// prompts
// ---------------------------------------------------------------------------

func newPromptsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prompts",
		Short: i18n.T("Manage system prompt overrides"),
		Long: `System prompts are templates; {{targetLang}} and {{count}} are
replaced before each request. Overrides live in prompts.json in the
locsync data directory and are selected with --prompt NAME.`,
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "init",
			Short: i18n.T("Write the built-in prompts to prompts.json for editing"),
			RunE: func(cmd *cobra.Command, args []string) error {
				path, err := settings.PromptsFilePath()
				if err != nil {
					return err
				}
				written, err := translate.WriteDefaultPrompts(path)
				if err != nil {
					return err
				}
				if written {
					logSuccess(i18n.T("Prompts written to %s"), path)
				} else {
					logInfo(i18n.T("%s already exists, not overwriting"), path)
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "show [name]",
			Short: i18n.T("Print a prompt template"),
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				prompts, err := loadPrompts()
				if err != nil {
					return err
				}
				name := "default"
				if len(args) == 1 {
					name = args[0]
				}
				if _, ok := prompts.Prompts[name]; !ok {
					return fmt.Errorf(i18n.T("unknown prompt %q (available: %s)"), name, strings.Join(promptNames(prompts), ", "))
				}
				fmt.Fprintln(cmd.OutOrStdout(), prompts.Get(name))
				return nil
			},
		},
	)

	return cmd
}

func loadPrompts() (*translate.PromptsConfig, error) {
	path, err := settings.PromptsFilePath()
	if err != nil {
		return nil, err
	}
	return translate.LoadPrompts(path)
}

func promptNames(p *translate.PromptsConfig) []string {
	names := make([]string, 0, len(p.Prompts))
	for name := range p.Prompts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
