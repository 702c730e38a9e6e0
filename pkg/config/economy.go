package config

import (
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Package is a purchasable bundle of Mimos.
type Package struct {
	ID          string
	MimosAmount int64
	Price       decimal.Decimal
	Description string
}

// Economy holds every constant that prices chats, splits revenue and gates
// withdrawals. It is built once at startup and never mutated afterwards.
type Economy struct {
	ProcessorFee  decimal.Decimal
	TaxRate       decimal.Decimal
	RevenueShare  decimal.Decimal
	MinWithdrawal decimal.Decimal

	// LedgerPrecision is the number of decimal places kept for Reais amounts
	// written to the ledger.
	LedgerPrecision int32

	AccessWindow   time.Duration
	FreeChatWindow time.Duration

	DefaultPackageID string
	StatementLimit   int

	packages map[string]Package
}

func DefaultEconomy() Economy {
	return Economy{
		ProcessorFee:     decimal.RequireFromString("1.99"),
		TaxRate:          decimal.RequireFromString("0.06"),
		RevenueShare:     decimal.RequireFromString("0.50"),
		MinWithdrawal:    decimal.RequireFromString("5.00"),
		LedgerPrecision:  6,
		AccessWindow:     7 * 24 * time.Hour,
		FreeChatWindow:   7 * 24 * time.Hour,
		DefaultPackageID: "pacote_120_mimos",
		StatementLimit:   50,
		packages: map[string]Package{
			"pacote_10_mimos": {
				ID: "pacote_10_mimos", MimosAmount: 10,
				Price: decimal.RequireFromString("12.00"), Description: "Pacote de 10 Mimos",
			},
			"pacote_50_mimos": {
				ID: "pacote_50_mimos", MimosAmount: 50,
				Price: decimal.RequireFromString("52.00"), Description: "Pacote de 50 Mimos (Popular)",
			},
			"pacote_120_mimos": {
				ID: "pacote_120_mimos", MimosAmount: 120,
				Price: decimal.RequireFromString("118.80"), Description: "Pacote de 120 Mimos",
			},
		},
	}
}

func (e Economy) Package(id string) (Package, bool) {
	p, ok := e.packages[id]
	return p, ok
}

func (e Economy) DefaultPackage() Package {
	return e.packages[e.DefaultPackageID]
}

// Packages returns the catalog ordered by Mimo count.
func (e Economy) Packages() []Package {
	out := make([]Package, 0, len(e.packages))
	for _, p := range e.packages {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MimosAmount < out[j].MimosAmount })
	return out
}

func (e Economy) Validate() error {
	one := decimal.NewFromInt(1)
	if e.RevenueShare.LessThanOrEqual(decimal.Zero) || e.RevenueShare.GreaterThan(one) {
		return fmt.Errorf("revenue share must be in (0, 1], got %s", e.RevenueShare)
	}
	if e.TaxRate.IsNegative() || e.TaxRate.GreaterThanOrEqual(one) {
		return fmt.Errorf("tax rate must be in [0, 1), got %s", e.TaxRate)
	}
	if e.ProcessorFee.IsNegative() {
		return fmt.Errorf("processor fee must not be negative, got %s", e.ProcessorFee)
	}
	if !e.MinWithdrawal.IsPositive() {
		return fmt.Errorf("minimum withdrawal must be positive, got %s", e.MinWithdrawal)
	}
	if e.AccessWindow <= 0 || e.FreeChatWindow <= 0 {
		return fmt.Errorf("access and free chat windows must be positive")
	}
	if len(e.packages) == 0 {
		return fmt.Errorf("package catalog is empty")
	}
	for id, p := range e.packages {
		if p.MimosAmount <= 0 {
			return fmt.Errorf("package %s: mimos amount must be positive", id)
		}
		if p.Price.LessThanOrEqual(e.ProcessorFee) {
			return fmt.Errorf("package %s: price %s does not cover the processor fee", id, p.Price)
		}
	}
	if _, ok := e.packages[e.DefaultPackageID]; !ok {
		return fmt.Errorf("default package %q is not in the catalog", e.DefaultPackageID)
	}
	return nil
}

type economyFile struct {
	ProcessorFee     string `yaml:"processor_fee"`
	TaxRate          string `yaml:"tax_rate"`
	RevenueShare     string `yaml:"revenue_share"`
	MinWithdrawal    string `yaml:"min_withdrawal"`
	AccessWindow     string `yaml:"access_window"`
	FreeChatWindow   string `yaml:"free_chat_window"`
	DefaultPackageID string `yaml:"default_package"`
	Packages         []struct {
		ID          string `yaml:"id"`
		MimosAmount int64  `yaml:"mimos"`
		Price       string `yaml:"price"`
		Description string `yaml:"description"`
	} `yaml:"packages"`
}

// LoadEconomy returns the defaults, overridden by the YAML file at path when
// path is not empty.
func LoadEconomy(path string) (Economy, error) {
	economy := DefaultEconomy()
	if path == "" {
		return economy, economy.Validate()
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return Economy{}, fmt.Errorf("reading economy config: %w", err)
	}
	return ParseEconomy(raw)
}

func ParseEconomy(raw []byte) (Economy, error) {
	economy := DefaultEconomy()

	var file economyFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return Economy{}, fmt.Errorf("parsing economy config: %w", err)
	}

	decimals := []struct {
		value  string
		target *decimal.Decimal
	}{
		{file.ProcessorFee, &economy.ProcessorFee},
		{file.TaxRate, &economy.TaxRate},
		{file.RevenueShare, &economy.RevenueShare},
		{file.MinWithdrawal, &economy.MinWithdrawal},
	}
	for _, d := range decimals {
		if d.value == "" {
			continue
		}
		parsed, err := decimal.NewFromString(d.value)
		if err != nil {
			return Economy{}, fmt.Errorf("parsing economy config: %w", err)
		}
		*d.target = parsed
	}

	durations := []struct {
		value  string
		target *time.Duration
	}{
		{file.AccessWindow, &economy.AccessWindow},
		{file.FreeChatWindow, &economy.FreeChatWindow},
	}
	for _, d := range durations {
		if d.value == "" {
			continue
		}
		parsed, err := time.ParseDuration(d.value)
		if err != nil {
			return Economy{}, fmt.Errorf("parsing economy config: %w", err)
		}
		*d.target = parsed
	}

	if file.DefaultPackageID != "" {
		economy.DefaultPackageID = file.DefaultPackageID
	}

	if len(file.Packages) > 0 {
		economy.packages = make(map[string]Package, len(file.Packages))
		for _, p := range file.Packages {
			price, err := decimal.NewFromString(p.Price)
			if err != nil {
				return Economy{}, fmt.Errorf("parsing price of package %s: %w", p.ID, err)
			}
			economy.packages[p.ID] = Package{
				ID:          p.ID,
				MimosAmount: p.MimosAmount,
				Price:       price,
				Description: p.Description,
			}
		}
	}

	if err := economy.Validate(); err != nil {
		return Economy{}, err
	}
	return economy, nil
}
