package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/minios-linux/locsync/config"
	"github.com/minios-linux/locsync/i18n"
	"github.com/minios-linux/locsync/langmeta"
	"github.com/minios-linux/locsync/lockfile"
	"github.com/minios-linux/locsync/settings"
	"github.com/minios-linux/locsync/syncer"
	"github.com/minios-linux/locsync/translate"
)

// ---------------------------------------------------------------------------
// Shared flags
// ---------------------------------------------------------------------------

// projectFlags select the documents and languages to work on.
type projectFlags struct {
	source     string
	output     string
	langs      []string
	exempt     []string
	catalog    string
	lock       bool
	prune      bool
	force      bool
	batchSize  int
	maxAttempt int
}

func (f *projectFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.source, "source", "", i18n.T("Source document (overrides .locsync.yaml)"))
	fs.StringVar(&f.output, "output", "", i18n.T("Target path pattern containing {lang}"))
	fs.StringSliceVar(&f.langs, "lang", nil, i18n.T("Target languages (comma-separated, default: config or detected)"))
	fs.StringSliceVar(&f.exempt, "exempt", nil, i18n.T("Leaf names copied verbatim (default: nativeName)"))
	fs.StringVar(&f.catalog, "catalog", "", i18n.T("Language catalog file restricting valid targets"))
	fs.BoolVar(&f.lock, "lock", false, i18n.T("Track source checksums in locsync.lock to re-translate edited strings"))
	fs.BoolVar(&f.prune, "prune", false, i18n.T("Remove target strings that no longer exist in the source"))
	fs.BoolVar(&f.force, "force", false, i18n.T("Re-translate every string"))
	fs.IntVar(&f.batchSize, "batch-size", 0, i18n.T("Strings per API request (default 20)"))
	fs.IntVar(&f.maxAttempt, "max-attempts", 0, i18n.T("Attempts per batch before it is skipped (default 3)"))
}

// apply overrides cfg with every flag the user set explicitly.
func (f *projectFlags) apply(fs *pflag.FlagSet, cfg *config.Config) {
	if fs.Changed("source") {
		cfg.Source = f.source
	}
	if fs.Changed("output") {
		cfg.Output = f.output
	}
	if fs.Changed("lang") {
		cfg.Languages = f.langs
	}
	if fs.Changed("exempt") {
		cfg.ExemptKeys = f.exempt
	}
	if fs.Changed("catalog") {
		cfg.Catalog = f.catalog
	}
	if fs.Changed("lock") {
		cfg.Lock = f.lock
	}
	if fs.Changed("prune") {
		cfg.Prune = f.prune
	}
	if fs.Changed("batch-size") {
		cfg.BatchSize = f.batchSize
	}
	if fs.Changed("max-attempts") {
		cfg.MaxAttempts = f.maxAttempt
	}
}

// providerFlags select and configure the AI provider.
type providerFlags struct {
	provider   string
	model      string
	apiKey     string
	baseURL    string
	proxy      string
	prompt     string
	timeout    time.Duration
	maxRetries int
}

func (f *providerFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.provider, "provider", "", i18n.T("AI provider: openai, google, anthropic, groq, ollama, custom-openai"))
	fs.StringVar(&f.model, "model", "", i18n.T("Model name"))
	fs.StringVar(&f.apiKey, "api-key", "", i18n.T("API key (or LOCSYNC_API_KEY env var)"))
	fs.StringVar(&f.baseURL, "base-url", "", i18n.T("Custom API base URL"))
	fs.StringVar(&f.proxy, "proxy", "", i18n.T("HTTP/HTTPS proxy URL"))
	fs.StringVar(&f.prompt, "prompt", "", i18n.T("Prompt name from prompts.json, or a custom system prompt"))
	fs.DurationVar(&f.timeout, "timeout", 0, i18n.T("Request timeout (0 = provider default)"))
	fs.IntVar(&f.maxRetries, "max-retries", 3, i18n.T("Maximum waits on rate limit (429) per request"))
}

func (f *providerFlags) apply(fs *pflag.FlagSet, cfg *config.Config) {
	if fs.Changed("provider") {
		cfg.Provider = f.provider
	}
	if fs.Changed("model") {
		cfg.Model = f.model
	}
	if fs.Changed("api-key") {
		cfg.APIKey = f.apiKey
	}
	if fs.Changed("base-url") {
		cfg.BaseURL = f.baseURL
	}
	if fs.Changed("proxy") {
		cfg.Proxy = f.proxy
	}
	if fs.Changed("prompt") {
		cfg.Prompt = f.prompt
	}
}

func registerProviderCompletion(cmd *cobra.Command) {
	_ = cmd.RegisterFlagCompletionFunc("provider", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{
			"openai\tOpenAI - API key required",
			"google\tGoogle AI (Gemini) - API key required",
			"anthropic\tAnthropic - API key required",
			"groq\tGroq - API key required",
			"ollama\tOllama local server",
			"custom-openai\tCustom OpenAI-compatible endpoint",
		}, cobra.ShellCompDirectiveNoFileComp
	})

	_ = cmd.RegisterFlagCompletionFunc("model", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		p, _ := cmd.Flags().GetString("provider")
		if examples, ok := modelExamples[p]; ok {
			return examples, cobra.ShellCompDirectiveNoFileComp
		}
		return nil, cobra.ShellCompDirectiveNoFileComp
	})
}

var modelExamples = map[string][]string{
	translate.ProviderOpenAI:    {"gpt-4o", "gpt-4o-mini", "gpt-4.1"},
	translate.ProviderGoogle:    {"gemini-2.5-flash", "gemini-2.5-pro", "gemini-2.0-flash"},
	translate.ProviderAnthropic: {"claude-sonnet-4-5", "claude-haiku-4-5"},
	translate.ProviderGroq:      {"llama-3.3-70b-versatile", "openai/gpt-oss-120b"},
	translate.ProviderOllama:    {"llama3.2", "qwen2.5", "mistral"},
}

// ---------------------------------------------------------------------------
// sync
// ---------------------------------------------------------------------------

func newSyncCmd() *cobra.Command {
	var (
		project  projectFlags
		provider providerFlags

		noPlaceholderCheck bool
		dryRun             bool
		verbose            bool
	)

	cmd := &cobra.Command{
		Use:   "sync",
		Short: i18n.T("Translate missing strings into the target languages"),
		Long: `Bring every target document up to date with the source document.

A string is sent for translation when the target lacks it or still holds
the source text. Everything else is kept as it is. Strings go out in
batches; the target file is saved after each batch, so interrupting and
re-running continues where the previous run stopped.

Examples:
  # Translate locales/en.json into German and French
  locsync sync --source locales/en.json --lang de,fr --provider openai --model gpt-4o

  # Use the settings from .locsync.yaml
  locsync sync

  # Show what would be translated without calling the API
  locsync sync --dry-run

  # Re-translate strings whose English text changed since the last run
  locsync sync --lock`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(rootDir)
			if err != nil {
				return err
			}
			project.apply(cmd.Flags(), cfg)
			provider.apply(cmd.Flags(), cfg)

			a := syncArgs{
				force:              project.force,
				noPlaceholderCheck: noPlaceholderCheck,
				dryRun:             dryRun,
				verbose:            verbose,
				timeout:            provider.timeout,
				maxRetries:         provider.maxRetries,
				out:                cmd.OutOrStdout(),
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runSync(ctx, cfg, a)
		},
	}

	project.register(cmd.Flags())
	provider.register(cmd.Flags())
	cmd.Flags().BoolVar(&noPlaceholderCheck, "no-placeholder-check", false, i18n.T("Accept translations that change {placeholders} or %s verbs"))
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, i18n.T("Show what would be translated without calling AI"))
	cmd.Flags().BoolVar(&verbose, "verbose", false, i18n.T("Enable detailed logging"))
	registerProviderCompletion(cmd)

	return cmd
}

type syncArgs struct {
	force, noPlaceholderCheck bool
	dryRun, verbose           bool
	timeout                   time.Duration
	maxRetries                int
	out                       io.Writer
}

// runSync validates the whole setup for every language first, so a bad
// language or provider aborts before any file is touched.
func runSync(ctx context.Context, cfg *config.Config, a syncArgs) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if _, err := os.Stat(cfg.SourcePath()); err != nil {
		return fmt.Errorf(i18n.T("source document: %w"), err)
	}

	langs, err := resolveLanguages(cfg)
	if err != nil {
		return err
	}

	var lock *lockfile.LockFile
	if cfg.Lock {
		lock, err = lockfile.Load(cfg.Root)
		if err != nil {
			return err
		}
	}

	if a.dryRun {
		return printPlans(cfg, langs, lock, a.force, a.out)
	}

	prov, err := resolveProvider(cfg, a.timeout)
	if err != nil {
		return err
	}
	systemPrompt, err := resolvePrompt(cfg.Prompt)
	if err != nil {
		return err
	}
	client, err := translate.NewAIClient(translate.ClientOptions{
		Provider:          prov,
		Prompt:            systemPrompt,
		MaxRateLimitWaits: a.maxRetries,
		Verbose:           a.verbose,
		OnLog:             logInfo,
		OnWarn:            logWarning,
	})
	if err != nil {
		return err
	}

	logInfo(i18n.T("Provider: %s, model: %s"), prov.Name, prov.Model)
	logInfo(i18n.T("Source: %s"), cfg.SourcePath())

	if lock != nil && cfg.Prune {
		if err := pruneLockTargets(cfg, lock); err != nil {
			return err
		}
	}

	failed := 0
	for _, lang := range langs {
		if err := ctx.Err(); err != nil {
			break
		}
		res, err := syncLanguage(ctx, cfg, client, lock, lang, a)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				logWarning("%s", i18n.T("Interrupted; progress so far is saved, run again to continue"))
				return err
			}
			return fmt.Errorf("%s: %w", lang, err)
		}
		if !res.Complete() {
			failed++
		}
	}

	if failed > 0 {
		logWarning(i18n.N("%d language has untranslated strings left; run sync again to retry them",
			"%d languages have untranslated strings left; run sync again to retry them", failed), failed)
	}
	return ctx.Err()
}

// pruneLockTargets drops ledger sections whose target document no longer
// exists, e.g. after a language was removed from the project.
func pruneLockTargets(cfg *config.Config, lock *lockfile.LockFile) error {
	removed := 0
	for _, t := range lock.Targets() {
		path := filepath.FromSlash(t)
		if !filepath.IsAbs(path) {
			path = filepath.Join(cfg.Root, path)
		}
		if _, err := os.Stat(path); os.IsNotExist(err) {
			lock.RemoveTarget(t)
			removed++
		}
	}
	if removed == 0 {
		return nil
	}
	logInfo(i18n.N("Removed %d stale target from %s", "Removed %d stale targets from %s", removed), removed, lockfile.LockFileName)
	return lock.Save()
}

func syncLanguage(ctx context.Context, cfg *config.Config, tr translate.Translator, lock *lockfile.LockFile, lang string, a syncArgs) (*syncer.Result, error) {
	target := cfg.TargetPath(lang)
	name := langmeta.DisplayName(lang)

	var bar *progressbar.ProgressBar
	warn := func(format string, args ...any) {
		if bar != nil {
			_ = bar.Clear()
		}
		logWarning(format, args...)
	}

	opts := syncer.Options{
		Translator:         tr,
		Language:           lang,
		LanguageName:       name,
		BatchSize:          cfg.BatchSize,
		MaxAttempts:        cfg.MaxAttempts,
		Force:              a.force,
		ExemptKeys:         cfg.ExemptKeys,
		NoPlaceholderCheck: a.noPlaceholderCheck,
		Prune:              cfg.Prune,
		Lock:               lock,
		LockTarget:         cfg.RelTargetPath(lang),
		OnWarn:             warn,
		OnPlan: func(lang string, pending, batches int) {
			logInfo(i18n.T("%s: %d strings to translate in %d batches"), name, pending, batches)
			if stderrIsTerminal && !a.verbose {
				bar = progressbar.NewOptions(pending,
					progressbar.OptionSetWriter(os.Stderr),
					progressbar.OptionSetDescription(lang),
					progressbar.OptionShowCount(),
					progressbar.OptionClearOnFinish(),
				)
			}
		},
		OnProgress: func(lang string, done, total int) {
			if bar != nil {
				_ = bar.Set(done)
				return
			}
			logInfo(i18n.T("%s: %d/%d strings translated"), lang, done, total)
		},
	}
	if a.verbose {
		opts.OnLog = logInfo
	}

	res, err := syncer.SyncFile(ctx, cfg.SourcePath(), target, opts)
	if bar != nil {
		_ = bar.Finish()
	}
	if err != nil {
		return res, err
	}

	switch {
	case res.Pending == 0:
		logSuccess(i18n.T("%s: up to date (%d strings)"), name, res.Total)
	case res.Complete():
		logSuccess(i18n.T("%s: translated %d strings -> %s"), name, res.Translated, target)
	default:
		logWarning(i18n.T("%s: translated %d, kept source text for %d, %d batches failed"),
			name, res.Translated, res.Fallback, res.FailedBatches)
	}
	return res, nil
}

// ---------------------------------------------------------------------------
// status / dry run
// ---------------------------------------------------------------------------

func newStatusCmd() *cobra.Command {
	var project projectFlags

	cmd := &cobra.Command{
		Use:   "status",
		Short: i18n.T("Show per-language translation progress"),
		Long: `Show how many strings each target language still needs.

Reads the source and target documents only; no API calls are made.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(rootDir)
			if err != nil {
				return err
			}
			project.apply(cmd.Flags(), cfg)
			if err := cfg.Validate(); err != nil {
				return err
			}
			langs, err := resolveLanguages(cfg)
			if err != nil {
				return err
			}
			var lock *lockfile.LockFile
			if cfg.Lock {
				if lock, err = lockfile.Load(cfg.Root); err != nil {
					return err
				}
			}
			if err := printPlans(cfg, langs, lock, project.force, cmd.OutOrStdout()); err != nil {
				return err
			}
			if lock != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "\n%s\n", lock.Summary())
			}
			return nil
		},
	}

	project.register(cmd.Flags())
	return cmd
}

// printPlans runs detection for every language and prints a table.
func printPlans(cfg *config.Config, langs []string, lock *lockfile.LockFile, force bool, out io.Writer) error {
	fmt.Fprintf(out, "%-10s %-28s %7s %7s %7s %6s\n",
		i18n.T("LANG"), i18n.T("NAME"), i18n.T("TOTAL"), i18n.T("DONE"), i18n.T("PENDING"), "%")
	fmt.Fprintln(out, strings.Repeat("-", 70))

	for _, lang := range langs {
		plan, err := syncer.PlanFile(cfg.SourcePath(), cfg.TargetPath(lang), syncer.Options{
			Language:   lang,
			Force:      force,
			ExemptKeys: cfg.ExemptKeys,
			Lock:       lock,
			LockTarget: cfg.RelTargetPath(lang),
			OnWarn:     logWarning,
		})
		if err != nil {
			return err
		}
		translatable := plan.Total - plan.PassThrough
		pct := 100.0
		if translatable > 0 {
			pct = float64(plan.Satisfied) * 100 / float64(translatable)
		}
		fmt.Fprintf(out, "%-10s %-28s %7d %7d %7d %5.1f%%\n",
			lang, langmeta.Resolve(lang).Name, plan.Total, plan.Satisfied, len(plan.Pending), pct)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Resolution helpers
// ---------------------------------------------------------------------------

// resolveLanguages returns the configured languages, or the ones detected
// from existing target files, after validating each against the catalog.
// A language whose target path is the source document is rejected.
func resolveLanguages(cfg *config.Config) ([]string, error) {
	catalog, err := loadCatalog(cfg)
	if err != nil {
		return nil, err
	}

	langs := cfg.Languages
	if len(langs) == 0 {
		langs = cfg.DetectLanguages()
	}
	if len(langs) == 0 {
		return nil, fmt.Errorf(i18n.T("no target languages: pass --lang, set languages in %s, or create target files matching %s"),
			config.FileName, cfg.OutputPattern())
	}

	seen := make(map[string]bool, len(langs))
	var out []string
	for _, l := range langs {
		l = strings.TrimSpace(l)
		if l == "" || seen[l] {
			continue
		}
		if err := langmeta.Validate(l, catalog); err != nil {
			return nil, err
		}
		if filepath.Clean(cfg.TargetPath(l)) == filepath.Clean(cfg.SourcePath()) {
			return nil, fmt.Errorf(i18n.T("language %q targets the source document %s"), l, cfg.SourcePath())
		}
		seen[l] = true
		out = append(out, l)
	}
	return out, nil
}

// resolveProvider builds the provider from config, filling the API key and
// base URL from the credential store when neither flag nor env set them.
func resolveProvider(cfg *config.Config, timeout time.Duration) (translate.Provider, error) {
	id := strings.ToLower(cfg.Provider)
	prov, ok := translate.DefaultProviders()[id]
	if !ok {
		return prov, fmt.Errorf(i18n.T("unknown provider %q (available: %s)"), cfg.Provider, strings.Join(allProviders(), ", "))
	}

	switch {
	case cfg.BaseURL != "":
		prov.BaseURL = cfg.BaseURL
	case settings.GetBaseURL(id) != "":
		prov.BaseURL = settings.GetBaseURL(id)
	}

	prov.APIKey = cfg.APIKey
	if prov.APIKey == "" {
		prov.APIKey = settings.GetAPIKey(id)
	}
	prov.Model = cfg.Model
	prov.Proxy = cfg.Proxy
	if timeout > 0 {
		prov.Timeout = timeout
	}

	return prov, validateProvider(prov)
}

func validateProvider(prov translate.Provider) error {
	if prov.Model == "" {
		examples := strings.Join(modelExamples[prov.ID], ", ")
		if examples == "" {
			examples = "check provider documentation"
		}
		return fmt.Errorf("--model is required for provider '%s'\n\n"+
			"Example models for %s:\n  %s\n\n"+
			"Usage: --provider %s --model MODEL_NAME",
			prov.ID, prov.Name, examples, prov.ID)
	}
	if prov.BaseURL == "" {
		return fmt.Errorf(i18n.T("provider '%s' needs --base-url (or run: locsync auth login --provider %s)"), prov.ID, prov.ID)
	}
	if prov.NeedsAPIKey() && prov.APIKey == "" {
		return fmt.Errorf(i18n.T("no API key for '%s': pass --api-key, set LOCSYNC_API_KEY, or run: locsync auth login --provider %s"), prov.ID, prov.ID)
	}
	return nil
}

// resolvePrompt treats value as a prompt name when prompts.json (or the
// built-ins) define it, and as a literal template otherwise.
func resolvePrompt(value string) (string, error) {
	prompts, err := loadPrompts()
	if err != nil {
		return "", err
	}
	if value == "" {
		return prompts.Get("default"), nil
	}
	if p, ok := prompts.Prompts[value]; ok {
		return p, nil
	}
	return value, nil
}
