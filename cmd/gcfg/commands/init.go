package commands

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/l3aro/go-cfg-builder/internal/config"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize gcfg configuration interactively",
	Long: `Guides you through setting up gcfg configuration step by step.
Creates a config file with the failure policy, output format and graph
cache settings.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInit()
	},
}

func runInit() error {
	cfg := config.DefaultConfig()

	// === SECTION 1: Building ===
	policy := cfg.FailurePolicy
	output := string(cfg.OutputFormat)
	concurrency := strconv.Itoa(cfg.Concurrency)
	simplify := cfg.Simplify
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Failure Policy").
				Description("What to do when a function cannot be built").
				Options(
					huh.NewOption("Skip the function and report it", "skip"),
					huh.NewOption("Abort the whole build", "abort"),
				).
				Value(&policy),
			huh.NewSelect[string]().
				Title("Output Format").
				Options(
					huh.NewOption("Text", string(config.OutputText)),
					huh.NewOption("JSON", string(config.OutputJSON)),
					huh.NewOption("Graphviz dot", string(config.OutputDot)),
				).
				Value(&output),
			huh.NewInput().
				Title("Concurrency").
				Description("Functions built at once, 0 for one per CPU").
				Placeholder("0").
				Validate(func(s string) error {
					if n, err := strconv.Atoi(strings.TrimSpace(s)); err != nil || n < 0 {
						return fmt.Errorf("enter a non-negative number")
					}
					return nil
				}).
				Value(&concurrency),
			huh.NewConfirm().
				Title("Simplify graphs?").
				Description("Collapse no-op nodes left by lowering").
				Value(&simplify),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("interactive prompt failed: %w", err)
	}

	// === SECTION 2: Cache and files ===
	cacheEnabled := cfg.CacheEnabled
	exclude := ""
	form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Enable graph cache?").
				Description(fmt.Sprintf("Built graphs are kept in %s", cfg.CacheDir)).
				Value(&cacheEnabled),
			huh.NewInput().
				Title("Exclude globs").
				Description("Comma separated, e.g. **/*_gen.go, cmd/**").
				Value(&exclude),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("interactive prompt failed: %w", err)
	}

	// === SECTION 3: Config Location ===
	var saveLocationChoice string
	form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Save Configuration").
				Description("Where to save the configuration file?").
				Options(
					huh.NewOption("Global (~/.gcfg/config.yaml)", "global"),
					huh.NewOption("Project (./.gcfg/config.yaml)", "project"),
				).
				Value(&saveLocationChoice),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("interactive prompt failed: %w", err)
	}

	configPath := config.ProjectConfigFilePath()
	if saveLocationChoice == "global" {
		configPath = config.GlobalConfigFilePath()
	}

	if _, err := os.Stat(configPath); err == nil {
		var overwrite bool
		form = huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Title("Config file exists").
					Description(fmt.Sprintf("Overwrite existing config at %s?", configPath)).
					Affirmative("Overwrite").
					Negative("Cancel").
					Value(&overwrite),
			),
		)
		if err := form.Run(); err != nil {
			return fmt.Errorf("interactive prompt failed: %w", err)
		}
		if !overwrite {
			fmt.Println("Cancelled.")
			return nil
		}
	}

	cfg.FailurePolicy = policy
	cfg.OutputFormat = config.OutputFormat(output)
	cfg.Concurrency, _ = strconv.Atoi(strings.TrimSpace(concurrency))
	cfg.Simplify = simplify
	cfg.CacheEnabled = cacheEnabled
	for _, g := range strings.Split(exclude, ",") {
		if g = strings.TrimSpace(g); g != "" {
			cfg.Exclude = append(cfg.Exclude, g)
		}
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	fmt.Println("\n=== Configuration Preview ===")
	fmt.Printf("Failure policy: %s\n", cfg.FailurePolicy)
	fmt.Printf("Output format:  %s\n", cfg.OutputFormat)
	fmt.Printf("Concurrency:    %d\n", cfg.Concurrency)
	fmt.Printf("Simplify:       %t\n", cfg.Simplify)
	fmt.Printf("Cache:          %t (%s)\n", cfg.CacheEnabled, cfg.CacheDir)
	if len(cfg.Exclude) > 0 {
		fmt.Printf("Exclude:        %s\n", strings.Join(cfg.Exclude, ", "))
	}
	fmt.Println("================================")

	if err := cfg.Save(configPath); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	fmt.Printf("\nConfiguration saved to %s\n", configPath)
	return nil
}
