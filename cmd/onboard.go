package cmd

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/linanwx/policychat/assistant"
	"github.com/linanwx/policychat/config"
)

var onboardCmd = &cobra.Command{
	Use:   "onboard",
	Short: "Initialize policychat configuration",
	Long:  `Create the policychat configuration directory and config file.`,
	RunE:  runOnboard,
}

func init() {
	rootCmd.AddCommand(onboardCmd)
}

// providerURLs maps provider names to their API key portal URLs.
var providerURLs = map[string]string{
	"openai":    "https://platform.openai.com/api-keys",
	"together":  "https://api.together.xyz/settings/api-keys",
	"anthropic": "https://console.anthropic.com",
}

func runOnboard(_ *cobra.Command, _ []string) error {
	configPath, err := config.ConfigPath()
	if err != nil {
		return err
	}
	if _, err := os.Stat(configPath); err == nil {
		fmt.Println("Config already exists at:", configPath)
		fmt.Println("To reconfigure, edit the file directly or delete it first.")
		return nil
	}

	// --- interactive wizard ---

	var (
		selectedProvider string
		selectedModel    string
		apiKey           string
		serverURL        = config.DefaultConfig().Widget.ServerURL
	)

	// Step 1: select provider
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Choose the assistant's LLM provider").
				Description("mock answers with a scripted guided flow and needs no key.").
				Options(buildProviderOptions()...).
				Value(&selectedProvider),
		),
	).Run()
	if err != nil {
		return err
	}

	// Step 2: model, prefilled with the provider default
	selectedModel = assistant.DefaultModel(selectedProvider)
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Model for " + selectedProvider).
				Description("Leave as is to use the recommended default.").
				Value(&selectedModel),
		),
	).Run()
	if err != nil {
		return err
	}

	// Step 3: API key, unless the provider needs none
	if env := assistant.KeyEnv(selectedProvider); env != "" {
		desc := "Leave empty to read " + env + " at startup."
		if u := providerURLs[selectedProvider]; u != "" {
			desc = "Create one at " + u + ". " + desc
		}
		err = huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title("Enter your " + selectedProvider + " API key").
					Description(desc).
					EchoMode(huh.EchoModePassword).
					Value(&apiKey),
			),
		).Run()
		if err != nil {
			return err
		}
	}

	// Step 4: where the widget finds the endpoint
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Assistant endpoint URL").
				Description("Used by 'policychat chat'.").
				Validate(validateServerURL).
				Value(&serverURL),
		),
	).Run()
	if err != nil {
		return err
	}

	// --- apply config ---

	cfg := config.DefaultConfig()
	cfg.Assistant.Provider = selectedProvider
	cfg.Assistant.Model = strings.TrimSpace(selectedModel)
	cfg.Assistant.APIKey = strings.TrimSpace(apiKey)
	cfg.Widget.ServerURL = strings.TrimSpace(serverURL)

	if err := cfg.Save(); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Println()
	fmt.Println("policychat initialized successfully!")
	fmt.Println()
	fmt.Println("  Config:", configPath)
	fmt.Println("  Provider:", selectedProvider)
	fmt.Println("  Model:", cfg.Assistant.Model)
	fmt.Println("  Endpoint:", cfg.Widget.ServerURL)
	fmt.Println()
	fmt.Println("Run 'policychat serve' to start the endpoint, then 'policychat chat'.")
	return nil
}

func buildProviderOptions() []huh.Option[string] {
	names := assistant.SupportedProviders()
	// Put mock first.
	sorted := make([]string, 0, len(names))
	for _, n := range names {
		if n == "mock" {
			sorted = append([]string{n}, sorted...)
		} else {
			sorted = append(sorted, n)
		}
	}
	options := make([]huh.Option[string], 0, len(sorted))
	for _, name := range sorted {
		label := name + " (" + assistant.DefaultModel(name) + ")"
		if name == "mock" {
			label += " [No key needed]"
		}
		options = append(options, huh.NewOption(label, name))
	}
	return options
}

func validateServerURL(s string) error {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL must start with http:// or https://")
	}
	if u.Host == "" {
		return fmt.Errorf("URL needs a host")
	}
	return nil
}

func joinProviders() string {
	return strings.Join(assistant.SupportedProviders(), ", ")
}
