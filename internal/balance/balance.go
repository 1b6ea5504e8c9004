// Package balance computes what customers, suppliers and partners owe or are
// owed from their movement history.
package balance

import (
	"fmt"
	"strings"

	"github.com/cleared-dev/ledgeraudit/internal/money"
)

// EntityType selects the sign convention applied to a balance.
type EntityType string

const (
	EntityCustomer EntityType = "CUSTOMER"
	EntitySupplier EntityType = "SUPPLIER"
	EntityPartner  EntityType = "PARTNER"
)

// ParseEntityType accepts any letter case, e.g. "customer".
func ParseEntityType(s string) (EntityType, error) {
	et := EntityType(strings.ToUpper(strings.TrimSpace(s)))
	switch et {
	case EntityCustomer, EntitySupplier, EntityPartner:
		return et, nil
	}
	return "", fmt.Errorf("unknown entity type %q", s)
}

// SignMeaning is the business reading of a net balance.
type SignMeaning string

const (
	Settled         SignMeaning = "SETTLED"
	CustomerDebt    SignMeaning = "DEBT"             // customer owes the business
	CustomerCredit  SignMeaning = "CREDIT"           // business owes the customer
	SupplierPayable SignMeaning = "PAYABLE"          // business owes the supplier
	SupplierPrepaid SignMeaning = "OVERPAID"         // business paid the supplier ahead
	PartnerOwed     SignMeaning = "OWED_TO_PARTNER"  // profit share still to pay out
	PartnerOverpaid SignMeaning = "PARTNER_OVERPAID" // paid out more than due
)

// Record is the computed balance of one entity.
type Record struct {
	EntityType  EntityType  `json:"entity_type"`
	EntityID    string      `json:"entity_id"`
	DebitTotal  money.Money `json:"debit_total"`
	CreditTotal money.Money `json:"credit_total"`
	NetBalance  money.Money `json:"net_balance"`
	SignMeaning SignMeaning `json:"sign_meaning"`
	Anomaly     bool        `json:"anomaly"`
}

// Compute returns the balance of an entity. Charges are amounts that raise
// what is owed (sales, invoices, services, purchases, shipments, profit shares
// due); settlements are payments against them. Order does not matter.
//
// Customers and suppliers use net = settlements - charges, so a negative net
// means money is still owed on the account. Partners use net = charges -
// settlements; a negative partner balance is flagged as an anomaly.
func Compute(entityType EntityType, entityID string, charges, settlements []money.Money) Record {
	debit := money.Sum(charges...)
	credit := money.Sum(settlements...)

	rec := Record{
		EntityType:  entityType,
		EntityID:    entityID,
		DebitTotal:  debit,
		CreditTotal: credit,
	}

	switch entityType {
	case EntityPartner:
		rec.NetBalance = debit.Sub(credit)
	default:
		rec.NetBalance = credit.Sub(debit)
	}
	rec.SignMeaning, rec.Anomaly = meaning(entityType, rec.NetBalance)
	return rec
}

func meaning(entityType EntityType, net money.Money) (SignMeaning, bool) {
	if net.IsZero() {
		return Settled, false
	}
	negative := net.IsNegative()
	switch entityType {
	case EntitySupplier:
		if negative {
			return SupplierPayable, false
		}
		return SupplierPrepaid, false
	case EntityPartner:
		if negative {
			return PartnerOverpaid, true
		}
		return PartnerOwed, false
	default:
		if negative {
			return CustomerDebt, false
		}
		return CustomerCredit, false
	}
}
