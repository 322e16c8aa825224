package store

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	DataSource string `yaml:"data_source"` // LIVE or MOCK
	Workers    int    `yaml:"workers"`
	Sources struct {
		FundamentusURL  string `yaml:"fundamentus_url"`
		StatusInvestURL string `yaml:"statusinvest_url"`
		UserAgent       string `yaml:"user_agent"`
		TimeoutSeconds  int    `yaml:"timeout_seconds"`
		RateLimitMs     int    `yaml:"rate_limit_ms"`
	} `yaml:"sources"`
	Universe struct {
		Mode         string   `yaml:"mode"` // ALL or STATIC
		ListURL      string   `yaml:"list_url"`
		Static       []string `yaml:"static"`
		SuffixDigits []string `yaml:"suffix_digits"`
	} `yaml:"universe"`
	Dividends struct {
		Window      int  `yaml:"window"`
		RequireFull bool `yaml:"require_full"`
	} `yaml:"dividends"`
	Normalize struct {
		CurrencyPrefixes []string `yaml:"currency_prefixes"`
		NATokens         []string `yaml:"na_tokens"`
	} `yaml:"normalize"`
	Valuation struct {
		GrahamPE           float64 `yaml:"graham_pe"`
		GrahamPB           float64 `yaml:"graham_pb"`
		BazinTargetYield   float64 `yaml:"bazin_target_yield_pct"`
		GordonDiscountRate float64 `yaml:"gordon_discount_rate_pct"`
	} `yaml:"valuation"`
	Output struct {
		Dir           string    `yaml:"dir"`
		SafetyMargins []float64 `yaml:"safety_margins"`
	} `yaml:"output"`
}

func (c *Config) Validate() error {
	if c.DataSource != "LIVE" && c.DataSource != "MOCK" {
		return fmt.Errorf("invalid data_source '%s': must be 'LIVE' or 'MOCK'", c.DataSource)
	}
	if c.Universe.Mode != "ALL" && c.Universe.Mode != "STATIC" {
		return fmt.Errorf("invalid universe.mode '%s': must be 'ALL' or 'STATIC'", c.Universe.Mode)
	}
	if c.Universe.Mode == "STATIC" && len(c.Universe.Static) == 0 {
		return errors.New("universe.static cannot be empty in STATIC mode")
	}
	if c.Dividends.Window <= 0 {
		return fmt.Errorf("dividends.window must be positive, got %d", c.Dividends.Window)
	}
	if c.Valuation.BazinTargetYield <= 0 || c.Valuation.BazinTargetYield > 100 {
		return fmt.Errorf("valuation.bazin_target_yield_pct must be between 0-100, got %.2f", c.Valuation.BazinTargetYield)
	}
	if c.Valuation.GordonDiscountRate <= 0 || c.Valuation.GordonDiscountRate > 100 {
		return fmt.Errorf("valuation.gordon_discount_rate_pct must be between 0-100, got %.2f", c.Valuation.GordonDiscountRate)
	}
	if c.Valuation.GrahamPE <= 0 || c.Valuation.GrahamPB <= 0 {
		return fmt.Errorf("valuation.graham_pe and graham_pb must be positive, got %.2f/%.2f", c.Valuation.GrahamPE, c.Valuation.GrahamPB)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("workers must be positive, got %d", c.Workers)
	}
	return nil
}

func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}
	c.applyDefaults()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &c, nil
}

// Default returns a Config with every field at its default, usable without a
// config file on disk.
func Default() *Config {
	var c Config
	c.applyDefaults()
	return &c
}

func (c *Config) applyDefaults() {
	if c.DataSource == "" {
		c.DataSource = "LIVE"
	}
	if c.Workers == 0 {
		c.Workers = 4
	}
	if c.Sources.FundamentusURL == "" {
		c.Sources.FundamentusURL = "https://www.fundamentus.com.br/resultado.php"
	}
	if c.Sources.StatusInvestURL == "" {
		c.Sources.StatusInvestURL = "https://statusinvest.com.br"
	}
	if c.Sources.UserAgent == "" {
		c.Sources.UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
	}
	if c.Sources.TimeoutSeconds == 0 {
		c.Sources.TimeoutSeconds = 30
	}
	if c.Sources.RateLimitMs == 0 {
		c.Sources.RateLimitMs = 500
	}
	if c.Universe.Mode == "" {
		c.Universe.Mode = "ALL"
	}
	if c.Universe.ListURL == "" {
		c.Universe.ListURL = "https://www.infomoney.com.br/cotacoes/empresas-b3/"
	}
	if len(c.Universe.SuffixDigits) == 0 {
		// common B3 ticker classes: FII units, ON, PN
		c.Universe.SuffixDigits = []string{"1", "3", "4"}
	}
	if c.Dividends.Window == 0 {
		c.Dividends.Window = 12
	}
	if len(c.Normalize.CurrencyPrefixes) == 0 {
		c.Normalize.CurrencyPrefixes = []string{"R$"}
	}
	if len(c.Normalize.NATokens) == 0 {
		c.Normalize.NATokens = []string{"-", "N/A"}
	}
	if c.Valuation.GrahamPE == 0 {
		c.Valuation.GrahamPE = 15
	}
	if c.Valuation.GrahamPB == 0 {
		c.Valuation.GrahamPB = 1.5
	}
	if c.Valuation.BazinTargetYield == 0 {
		c.Valuation.BazinTargetYield = 6.0
	}
	if c.Valuation.GordonDiscountRate == 0 {
		c.Valuation.GordonDiscountRate = 10.0
	}
	if c.Output.Dir == "" {
		c.Output.Dir = "reports"
	}
	if len(c.Output.SafetyMargins) == 0 {
		c.Output.SafetyMargins = []float64{5, 10, 20, 30, 40}
	}
}
