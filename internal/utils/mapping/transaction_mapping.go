package mapping

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/SscSPs/payment_ledger_app/internal/core/domain"
	"github.com/SscSPs/payment_ledger_app/internal/models"
)

var jsonNull = []byte("null")

// ToModelTransaction converts a domain Transaction to a model Transaction.
// Commission, Escrow and Splits are marshalled into their jsonb columns;
// absent satellites become NULL rather than empty documents.
func ToModelTransaction(d domain.Transaction) (models.Transaction, error) {
	m := models.Transaction{
		TransactionID:          d.TransactionID,
		IdempotencyKey:         d.IdempotencyKey,
		Direction:              string(d.Direction),
		Category:               d.Category,
		Status:                 string(d.Status),
		Amount:                 d.Amount,
		Currency:               d.Currency,
		Gateway:                d.Gateway,
		GatewaySessionID:       d.GatewaySessionID,
		GatewayPaymentIntentID: d.GatewayPaymentIntentID,
		RefundedAmount:         d.RefundedAmount,
		RefundedAt:             d.RefundedAt,
		ReferenceID:            d.ReferenceID,
		ReferenceModel:         d.ReferenceModel,
		VerifiedAt:             d.VerifiedAt,
		VerifiedBy:             d.VerifiedBy,
		AuditFields:            ToModelAuditFields(d.AuditFields),
	}

	if d.Commission != nil {
		raw, err := json.Marshal(d.Commission)
		if err != nil {
			return models.Transaction{}, fmt.Errorf("marshalling commission: %w", err)
		}
		m.Commission = raw
	}
	if d.Escrow != nil {
		raw, err := json.Marshal(d.Escrow)
		if err != nil {
			return models.Transaction{}, fmt.Errorf("marshalling escrow: %w", err)
		}
		m.Escrow = raw
	}
	if len(d.Splits) > 0 {
		raw, err := json.Marshal(d.Splits)
		if err != nil {
			return models.Transaction{}, fmt.Errorf("marshalling splits: %w", err)
		}
		m.Splits = raw
	}
	return m, nil
}

// ToDomainTransaction converts a model Transaction to a domain Transaction.
func ToDomainTransaction(m models.Transaction) (domain.Transaction, error) {
	d := domain.Transaction{
		TransactionID:          m.TransactionID,
		IdempotencyKey:         m.IdempotencyKey,
		Direction:              domain.TransactionDirection(m.Direction),
		Category:               m.Category,
		Status:                 domain.TransactionStatus(m.Status),
		Amount:                 m.Amount,
		Currency:               m.Currency,
		Gateway:                m.Gateway,
		GatewaySessionID:       m.GatewaySessionID,
		GatewayPaymentIntentID: m.GatewayPaymentIntentID,
		RefundedAmount:         m.RefundedAmount,
		RefundedAt:             m.RefundedAt,
		ReferenceID:            m.ReferenceID,
		ReferenceModel:         m.ReferenceModel,
		VerifiedAt:             m.VerifiedAt,
		VerifiedBy:             m.VerifiedBy,
		AuditFields:            ToDomainAuditFields(m.AuditFields),
	}

	if isPresent(m.Commission) {
		var c domain.Commission
		if err := json.Unmarshal(m.Commission, &c); err != nil {
			return domain.Transaction{}, fmt.Errorf("unmarshalling commission: %w", err)
		}
		d.Commission = &c
	}
	if isPresent(m.Escrow) {
		var e domain.EscrowHold
		if err := json.Unmarshal(m.Escrow, &e); err != nil {
			return domain.Transaction{}, fmt.Errorf("unmarshalling escrow: %w", err)
		}
		d.Escrow = &e
	}
	if isPresent(m.Splits) {
		var s []domain.SplitEntry
		if err := json.Unmarshal(m.Splits, &s); err != nil {
			return domain.Transaction{}, fmt.Errorf("unmarshalling splits: %w", err)
		}
		d.Splits = s
	}
	return d, nil
}

// ToDomainTransactionSlice converts a slice of model Transactions to domain Transactions.
func ToDomainTransactionSlice(ms []models.Transaction) ([]domain.Transaction, error) {
	ds := make([]domain.Transaction, 0, len(ms))
	for _, m := range ms {
		d, err := ToDomainTransaction(m)
		if err != nil {
			return nil, err
		}
		ds = append(ds, d)
	}
	return ds, nil
}

// isPresent reports whether a jsonb column held a real document.
// Both SQL NULL (empty raw) and a literal json null read as absent.
func isPresent(raw json.RawMessage) bool {
	return len(raw) > 0 && !bytes.Equal(raw, jsonNull)
}
