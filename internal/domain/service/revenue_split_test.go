package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"mimoly/internal/domain/entity"
	"mimoly/pkg/config"
	"mimoly/pkg/utils"
)

func TestPayoutForPopularPackage(t *testing.T) {
	splitter := NewRevenueSplitter(config.DefaultEconomy())

	payout := splitter.PayoutForPurchase(&entity.Transaction{PackageID: "pacote_50_mimos"})

	assert.Equal(t, "0.470094", payout.StringFixed(6))
	assert.Equal(t, "R$ 0,47", utils.FormatBRL(payout))
}

func TestPayoutPerPackage(t *testing.T) {
	splitter := NewRevenueSplitter(config.DefaultEconomy())

	cases := map[string]string{
		"pacote_10_mimos":  "0.47047",
		"pacote_50_mimos":  "0.470094",
		"pacote_120_mimos": "0.457506",
	}
	for id, want := range cases {
		pkg, ok := config.DefaultEconomy().Package(id)
		assert.True(t, ok)
		assert.Equal(t, want, splitter.Payout(pkg).String(), id)
	}
}

func TestPayoutFallsBackToDefaultPackage(t *testing.T) {
	splitter := NewRevenueSplitter(config.DefaultEconomy())
	expected := splitter.Payout(config.DefaultEconomy().DefaultPackage())

	assert.True(t, expected.Equal(splitter.PayoutForPurchase(nil)))
	assert.True(t, expected.Equal(splitter.PayoutForPurchase(&entity.Transaction{PackageID: "retired"})))
}
