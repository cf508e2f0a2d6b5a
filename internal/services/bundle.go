package services

import (
	"pesaprime/internal/lock"
	"pesaprime/internal/store"
)

// Bundle is the set of services one process runs with.
type Bundle struct {
	Quoter      Quoter
	Users       UserServicer
	Wallets     WalletServicer
	Investments InvestmentServicer
	Activities  ActivityServicer
}

// NewBundle wires every service over one ledger, locker and quote source.
func NewBundle(ledger store.Ledger, locker lock.Locker, quoter Quoter, settings Settings) *Bundle {
	activities := NewActivityService(ledger)
	investments := NewInvestmentService(ledger, locker, quoter, activities, settings)
	return &Bundle{
		Quoter:      quoter,
		Users:       NewUserService(ledger, activities, settings),
		Wallets:     NewWalletService(ledger, locker, investments, activities, settings),
		Investments: investments,
		Activities:  activities,
	}
}
