package store

import (
	"gamevault_back_end/internal/checkout"
	"gamevault_back_end/internal/repository"
)

var (
	carts  *checkout.CartStore
	engine *checkout.Engine
	eval   *checkout.Evaluator
	ledger checkout.WalletLedger

	catalogRepo  repository.CatalogRepo
	libraryRepo  repository.LibraryRepo
	purchaseRepo repository.PurchaseRepo
)

// Init branche les handlers sur le moteur de règlement et le panier.
func Init(c *checkout.CartStore, e *checkout.Engine, ev *checkout.Evaluator, l checkout.WalletLedger) {
	carts = c
	engine = e
	eval = ev
	ledger = l
}
