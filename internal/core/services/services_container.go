package services

import (
	portsnotif "github.com/SscSPs/payment_ledger_app/internal/core/ports/notifications"
	portsproviders "github.com/SscSPs/payment_ledger_app/internal/core/ports/providers"
	portsrepo "github.com/SscSPs/payment_ledger_app/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/payment_ledger_app/internal/core/ports/services"
	"github.com/SscSPs/payment_ledger_app/internal/platform/config"
)

// NewServiceContainer creates a new service container with properly initialized dependencies
func NewServiceContainer(cfg *config.Config, repos portsrepo.RepositoryProvider, providers portsproviders.Registry, notifier portsnotif.Notifier) *portssvc.ServiceContainer {
	// Create the container structure first
	container := &portssvc.ServiceContainer{}

	// Initialize the transaction service first since subscriptions charge through it
	container.Transaction = NewTransactionService(cfg, repos.TransactionRepo, providers, notifier)

	container.Escrow = NewEscrowService(cfg, repos.TransactionRepo, notifier)
	container.Subscription = NewSubscriptionService(cfg, repos.SubscriptionRepo, container.Transaction, notifier)

	container.APIToken = NewAPITokenService(repos.APITokenRepo)
	container.Token = NewTokenService(cfg, repos.APITokenRepo)

	return container
}
