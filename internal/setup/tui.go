package setup

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/vadiminshakov/rebalancer/config"
)

// DefaultConfigFile where the wizard writes its result.
const DefaultConfigFile = "config.gen.yaml"

var (
	subtle    = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#383838"}
	highlight = lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"}
	special   = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Background(highlight).
			Padding(1, 2).
			Bold(true).
			MarginBottom(1)

	stepStyle = lipgloss.NewStyle().
			Foreground(special).
			Bold(true).
			MarginTop(1).
			MarginBottom(0)
)

// answers raw wizard input.
type answers struct {
	platform        string
	quote           string
	maxPairs        string
	noiseAbs        string
	noisePct        string
	dust            string
	orderDelay      string
	simulateBalance string
	capital         string
	trade           bool
}

func defaultAnswers() answers {
	return answers{
		platform:        config.PlatformSimulate,
		quote:           config.DefaultQuote,
		maxPairs:        strconv.Itoa(config.DefaultMaxPairs),
		noiseAbs:        config.DefaultNoiseAbsolute.String(),
		noisePct:        config.DefaultNoisePercent.String(),
		dust:            config.DefaultDustThreshold.String(),
		orderDelay:      config.DefaultOrderDelay.String(),
		simulateBalance: config.DefaultSimulateBalance.String(),
	}
}

func step(title string) {
	fmt.Print("\033[H\033[2J") // clear screen
	fmt.Println(headerStyle.Render("REBALANCER CONFIG WIZARD"))
	fmt.Println(stepStyle.Render(title))
}

// RunTUI launches the terminal configuration wizard and returns the path of
// the written config file.
func RunTUI() (string, error) {
	a := defaultAnswers()
	var confirm bool

	step("STEP 1: PLATFORM")
	fmt.Println(lipgloss.NewStyle().Foreground(subtle).Render("Equal-weight the top coins by market cap.\n"))
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Select Exchange Platform").
				Options(
					huh.NewOption("Binance", config.PlatformBinance),
					huh.NewOption("Simulation (paper wallet)", config.PlatformSimulate),
				).
				Value(&a.platform),
		),
	).Run()
	if err != nil {
		return "", err
	}

	step("STEP 2: UNIVERSE")
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Quote Currency").
				Description("Every pair is traded against it (e.g. USDC)").
				Value(&a.quote).
				Validate(validateSymbol),
			huh.NewInput().
				Title("Max Pairs").
				Description("Size cap of the target universe").
				Value(&a.maxPairs).
				Validate(validatePositiveInt),
		),
	).Run()
	if err != nil {
		return "", err
	}

	step("STEP 3: THRESHOLDS")
	fields := []huh.Field{
		huh.NewInput().
			Title("Minimum Trade Value").
			Description("Deltas below this quote amount are ignored (e.g. 1)").
			Value(&a.noiseAbs).
			Validate(validatePositive),
		huh.NewInput().
			Title("Noise %").
			Description("Deltas below this share of the per-pair target are ignored (e.g. 1)").
			Value(&a.noisePct).
			Validate(validatePercent),
		huh.NewInput().
			Title("Dust Threshold").
			Description("Holdings worth less are left alone (e.g. 0.5)").
			Value(&a.dust).
			Validate(validateNonNegative),
		huh.NewInput().
			Title("Fixed Capital").
			Description("Optional: deploy this amount instead of the account value").
			Value(&a.capital).
			Validate(validateOptionalPositive),
	}
	if a.platform == config.PlatformSimulate {
		fields = append(fields, huh.NewInput().
			Title("Paper Wallet Balance").
			Description("Starting quote balance of the simulated account").
			Value(&a.simulateBalance).
			Validate(validateNonNegative),
		)
	}
	if err = huh.NewForm(huh.NewGroup(fields...)).Run(); err != nil {
		return "", err
	}

	step("STEP 4: EXECUTION")
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Order Delay").
				Description("Pause after every order (e.g. 1s)").
				Value(&a.orderDelay).
				Validate(func(s string) error {
					_, err := time.ParseDuration(s)
					return err
				}),
			huh.NewConfirm().
				Title("Send orders to the exchange?").
				Description("No keeps the run in simulation mode").
				Affirmative("Yes, trade").
				Negative("No, simulate").
				Value(&a.trade),
		),
	).Run()
	if err != nil {
		return "", err
	}

	step("FINAL CONFIRMATION")
	summary := fmt.Sprintf(
		"Platform: %s\nQuote: %s\nMax pairs: %s\nTrading: %t\nOrder delay: %s\n",
		a.platform, strings.ToUpper(a.quote), a.maxPairs, a.trade, a.orderDelay,
	)
	fmt.Println(lipgloss.NewStyle().Border(lipgloss.NormalBorder()).Padding(1).Render(summary))

	err = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Save Configuration?").
				Affirmative("Yes, save and start").
				Negative("No, exit").
				Value(&confirm),
		),
	).Run()
	if err != nil {
		return "", err
	}
	if !confirm {
		return "", fmt.Errorf("setup cancelled by user")
	}

	if err := writeConfig(DefaultConfigFile, a.toConfig()); err != nil {
		return "", err
	}

	fmt.Println(lipgloss.NewStyle().Foreground(special).Render(fmt.Sprintf("\n✓ Configuration saved to %s", DefaultConfigFile)))
	return DefaultConfigFile, nil
}

func (a answers) toConfig() config.ConfigTmp {
	delay, _ := time.ParseDuration(a.orderDelay)

	cfg := config.ConfigTmp{
		Platform:           a.platform,
		Quote:              strings.ToUpper(strings.TrimSpace(a.quote)),
		MaxPairsStr:        a.maxPairs,
		NoiseAbsoluteStr:   a.noiseAbs,
		NoisePercentStr:    a.noisePct,
		DustThresholdStr:   a.dust,
		OrderDelay:         delay,
		TradingEnabled:     a.trade,
		CapitalOverrideStr: strings.TrimSpace(a.capital),
	}
	if a.platform == config.PlatformSimulate {
		cfg.SimulateBalanceStr = a.simulateBalance
	}
	return cfg
}

func writeConfig(path string, cfg config.ConfigTmp) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to generate yaml: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to save config file: %w", err)
	}
	return nil
}

func validateSymbol(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return fmt.Errorf("symbol cannot be empty")
	}
	for _, r := range s {
		if (r < 'A' || r > 'Z') && (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return fmt.Errorf("symbol must be alphanumeric")
		}
	}
	return nil
}

func validatePositiveInt(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("must be a whole number")
	}
	if n <= 0 {
		return fmt.Errorf("must be positive")
	}
	return nil
}

func validateNonNegative(s string) error {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("must be a valid number")
	}
	if d.IsNegative() {
		return fmt.Errorf("must not be negative")
	}
	return nil
}

func validatePositive(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("value is required")
	}
	return validateOptionalPositive(s)
}

func validatePercent(s string) error {
	if err := validateNonNegative(s); err != nil {
		return err
	}
	if decimal.RequireFromString(strings.TrimSpace(s)).GreaterThan(decimal.NewFromInt(100)) {
		return fmt.Errorf("must be between 0 and 100")
	}
	return nil
}

func validateOptionalPositive(s string) error {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("must be a valid number")
	}
	if !d.IsPositive() {
		return fmt.Errorf("must be positive")
	}
	return nil
}
