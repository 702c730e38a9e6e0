package service

import (
	"github.com/shopspring/decimal"

	"mimoly/internal/domain/entity"
	"mimoly/pkg/config"
)

// RevenueSplitter turns one consumed Mimo into the Reais credited to the
// receiver of a chat.
type RevenueSplitter struct {
	economy config.Economy
}

func NewRevenueSplitter(economy config.Economy) *RevenueSplitter {
	return &RevenueSplitter{economy: economy}
}

// PayoutPerMimo is the net value of one Mimo of pkg after the processor fee
// and taxes, before the revenue share.
func (s *RevenueSplitter) PayoutPerMimo(pkg config.Package) decimal.Decimal {
	one := decimal.NewFromInt(1)
	net := pkg.Price.Sub(s.economy.ProcessorFee).Mul(one.Sub(s.economy.TaxRate))
	return net.Div(decimal.NewFromInt(pkg.MimosAmount))
}

// Payout is what the receiver earns for one Mimo bought in pkg, rounded to
// ledger precision.
func (s *RevenueSplitter) Payout(pkg config.Package) decimal.Decimal {
	return s.PayoutPerMimo(pkg).Mul(s.economy.RevenueShare).Round(s.economy.LedgerPrecision)
}

// PayoutForPurchase prices the Mimo against the package of the initiator's
// latest purchase. A nil purchase or an unknown package falls back to the
// default package.
func (s *RevenueSplitter) PayoutForPurchase(purchase *entity.Transaction) decimal.Decimal {
	return s.Payout(s.PackageFor(purchase))
}

func (s *RevenueSplitter) PackageFor(purchase *entity.Transaction) config.Package {
	if purchase != nil {
		if pkg, ok := s.economy.Package(purchase.PackageID); ok {
			return pkg
		}
	}
	return s.economy.DefaultPackage()
}
