package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultEconomyIsValid(t *testing.T) {
	economy := DefaultEconomy()
	require.NoError(t, economy.Validate())

	assert.Equal(t, "pacote_120_mimos", economy.DefaultPackage().ID)
	assert.Equal(t, "5", economy.MinWithdrawal.String())

	ids := []string{}
	for _, p := range economy.Packages() {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []string{"pacote_10_mimos", "pacote_50_mimos", "pacote_120_mimos"}, ids)
}

func TestParseEconomyOverrides(t *testing.T) {
	raw := []byte(`
processor_fee: "2.49"
revenue_share: "0.4"
access_window: 72h
default_package: mega
packages:
  - id: mega
    mimos: 200
    price: "180.00"
    description: Mega
`)
	economy, err := ParseEconomy(raw)
	require.NoError(t, err)

	assert.Equal(t, "2.49", economy.ProcessorFee.String())
	assert.Equal(t, "0.4", economy.RevenueShare.String())
	assert.Equal(t, "0.06", economy.TaxRate.String())
	assert.Equal(t, 72*time.Hour, economy.AccessWindow)
	assert.Equal(t, 7*24*time.Hour, economy.FreeChatWindow)

	p, ok := economy.Package("mega")
	require.True(t, ok)
	assert.EqualValues(t, 200, p.MimosAmount)
	_, ok = economy.Package("pacote_50_mimos")
	assert.False(t, ok)
}

func TestParseEconomyRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"share above one":    `revenue_share: "1.5"`,
		"unknown default":    `default_package: nope`,
		"price below fee":    "packages:\n  - {id: tiny, mimos: 1, price: \"1.00\"}\ndefault_package: tiny",
		"malformed decimal":  `tax_rate: "six percent"`,
		"malformed duration": `free_chat_window: "a week"`,
		"tax rate of one":    `tax_rate: "1"`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseEconomy([]byte(raw))
			assert.Error(t, err)
		})
	}
}

func TestLoadEconomyWithoutFileUsesDefaults(t *testing.T) {
	economy, err := LoadEconomy("")
	require.NoError(t, err)
	assert.Equal(t, DefaultEconomy().ProcessorFee, economy.ProcessorFee)
}
