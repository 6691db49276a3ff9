package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/minios-linux/locsync/i18n"
	"github.com/minios-linux/locsync/settings"
	"github.com/minios-linux/locsync/translate"
)

// ---------------------------------------------------------------------------
// auth
// ---------------------------------------------------------------------------

func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: i18n.T("Manage provider API keys"),
		Long: `Manage stored API keys for the AI providers.

Keys are kept in auth.json in the locsync data directory
($XDG_DATA_HOME/locsync, default ~/.local/share/locsync) with 0600
permissions. --api-key and LOCSYNC_API_KEY take precedence over them.

Examples:
  locsync auth login --provider openai         Store an OpenAI key
  locsync auth login --provider custom-openai  Store endpoint URL and key
  locsync auth logout --provider groq          Remove the Groq key
  locsync auth logout                          Remove all keys
  locsync auth list                            Show stored keys`,
	}

	cmd.AddCommand(
		newAuthLoginCmd(),
		newAuthLogoutCmd(),
		newAuthListCmd(),
	)

	return cmd
}

// authProviders is the ordered provider list shown by auth commands.
var authProviders = []struct {
	id      string
	name    string
	helpURL string
	needURL bool
}{
	{translate.ProviderOpenAI, "OpenAI", "https://platform.openai.com/api-keys", false},
	{translate.ProviderGoogle, "Google AI Studio", "https://aistudio.google.com/apikey", false},
	{translate.ProviderAnthropic, "Anthropic", "https://console.anthropic.com/settings/keys", false},
	{translate.ProviderGroq, "Groq Cloud", "https://console.groq.com/keys", false},
	{translate.ProviderOllama, "Ollama", "", true},
	{translate.ProviderCustomOpenAI, "Custom OpenAI", "", true},
}

func allProviders() []string {
	ids := make([]string, len(authProviders))
	for i, p := range authProviders {
		ids[i] = p.id
	}
	return ids
}

func providerCompletion(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	out := make([]string, 0, len(authProviders))
	for _, p := range authProviders {
		out = append(out, fmt.Sprintf("%s\t%s", p.id, p.name))
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}

func newAuthLoginCmd() *cobra.Command {
	var provider string

	cmd := &cobra.Command{
		Use:   "login",
		Short: i18n.T("Store an API key for a provider"),
		RunE: func(cmd *cobra.Command, args []string) error {
			if provider == "" {
				return fmt.Errorf(i18n.T("--provider is required (one of: %s)"), strings.Join(allProviders(), ", "))
			}
			return authLogin(cmd.InOrStdin(), provider)
		},
	}

	cmd.Flags().StringVar(&provider, "provider", "", i18n.T("Provider to store a key for"))
	_ = cmd.RegisterFlagCompletionFunc("provider", providerCompletion)
	return cmd
}

// authLogin prompts on stderr and reads answers from in. Providers without
// a fixed endpoint are asked for a base URL first; their key is optional.
func authLogin(in io.Reader, providerID string) error {
	idx := -1
	for i, p := range authProviders {
		if p.id == providerID {
			idx = i
		}
	}
	if idx < 0 {
		return fmt.Errorf(i18n.T("unknown provider %q (available: %s)"), providerID, strings.Join(allProviders(), ", "))
	}
	info := authProviders[idx]

	fmt.Fprintf(os.Stderr, "\n%s\n", paint(colorBlue, info.name+" - "+i18n.T("API Key Setup")))
	fmt.Fprintln(os.Stderr, strings.Repeat("─", 60))
	if info.helpURL != "" {
		fmt.Fprintf(os.Stderr, "  %s %s\n\n", i18n.T("Get your API key from:"), paint(colorGreen, info.helpURL))
	}

	scanner := bufio.NewScanner(in)
	existing := settings.Load()[providerID]

	baseURL := ""
	if existing != nil {
		baseURL = existing.BaseURL
	}
	if info.needURL {
		if baseURL != "" {
			fmt.Fprintf(os.Stderr, "  %s %s\n", i18n.T("Current endpoint:"), paint(colorYellow, baseURL))
			fmt.Fprint(os.Stderr, "  "+i18n.T("Enter new endpoint URL, or press Enter to keep: "))
		} else {
			fmt.Fprint(os.Stderr, "  "+i18n.T("Enter endpoint URL (e.g., https://api.example.com/v1): "))
		}
		if !scanner.Scan() {
			return errors.New(i18n.T("no input received"))
		}
		if u := strings.TrimSpace(scanner.Text()); u != "" {
			baseURL = u
		}
		if baseURL == "" && providerID == translate.ProviderCustomOpenAI {
			return errors.New(i18n.T("endpoint URL is required"))
		}
	}

	if existing != nil && existing.Key != "" {
		fmt.Fprintf(os.Stderr, "  %s %s\n", i18n.T("Current key:"), paint(colorYellow, settings.MaskKey(existing.Key)))
		fmt.Fprint(os.Stderr, "  "+i18n.T("Enter new key to replace, or press Enter to keep: "))
	} else {
		fmt.Fprint(os.Stderr, "  "+i18n.T("Enter API key: "))
	}
	if !scanner.Scan() {
		return errors.New(i18n.T("no input received"))
	}
	key := strings.TrimSpace(scanner.Text())
	if key == "" && existing != nil {
		key = existing.Key
	}
	if key == "" && !info.needURL {
		return errors.New(i18n.T("no API key provided"))
	}

	if err := settings.SetAPIKey(providerID, key, baseURL); err != nil {
		return fmt.Errorf(i18n.T("saving credentials: %w"), err)
	}

	logSuccess(i18n.T("%s credentials saved to %s"), info.name, settings.FilePath())
	return nil
}

func newAuthLogoutCmd() *cobra.Command {
	var provider string

	cmd := &cobra.Command{
		Use:   "logout",
		Short: i18n.T("Remove stored credentials"),
		Long: `Remove stored credentials for one or all providers.

If --provider is not specified, credentials for ALL providers are removed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if provider != "" {
				if err := settings.Remove(provider); err != nil {
					return err
				}
				logSuccess(i18n.T("%s credentials removed"), provider)
				return nil
			}
			for _, id := range settings.Providers() {
				if err := settings.Remove(id); err != nil {
					return err
				}
			}
			logSuccess("%s", i18n.T("All stored credentials removed"))
			return nil
		},
	}

	cmd.Flags().StringVar(&provider, "provider", "", i18n.T("Provider to logout (default: all)"))
	_ = cmd.RegisterFlagCompletionFunc("provider", providerCompletion)
	return cmd
}

func newAuthListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   i18n.T("Show stored credentials and status"),
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			store := settings.Load()

			fmt.Fprintf(out, "\n%s\n", paint(colorBlue, i18n.T("Stored Credentials")))
			fmt.Fprintln(out, strings.Repeat("─", 60))
			for _, p := range authProviders {
				c := store[p.id]
				switch {
				case c != nil && c.Key != "":
					status := paint(colorGreen, i18n.T("configured")) + " (key: " + settings.MaskKey(c.Key) + ")"
					if c.BaseURL != "" {
						status += fmt.Sprintf("\n  %14s endpoint: %s", "", c.BaseURL)
					}
					fmt.Fprintf(out, "  %-14s %s\n", p.id, status)
				case c != nil && c.BaseURL != "":
					fmt.Fprintf(out, "  %-14s %s (no key)\n  %14s endpoint: %s\n", p.id, paint(colorGreen, i18n.T("configured")), "", c.BaseURL)
				default:
					fmt.Fprintf(out, "  %-14s %s\n", p.id, paint(colorRed, i18n.T("not configured")))
				}
			}

			fmt.Fprintf(out, "\n  %s\n", paint(colorYellow, i18n.T("Environment Variables")))
			if envKey := os.Getenv("LOCSYNC_API_KEY"); envKey != "" {
				fmt.Fprintf(out, "  LOCSYNC_API_KEY: %s %s\n", paint(colorGreen, settings.MaskKey(envKey)), i18n.T("(overrides stored keys)"))
			} else {
				fmt.Fprintf(out, "  LOCSYNC_API_KEY: %s\n", paint(colorRed, i18n.T("not set")))
			}
			fmt.Fprintln(out)
		},
	}
}
