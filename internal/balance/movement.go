package balance

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/cleared-dev/ledgeraudit/internal/money"
)

// MovementKind classifies a monetary movement on an entity's account.
type MovementKind string

const (
	KindSale        MovementKind = "sale"
	KindInvoice     MovementKind = "invoice"
	KindService     MovementKind = "service"
	KindPurchase    MovementKind = "purchase"
	KindShipment    MovementKind = "shipment"
	KindProfitShare MovementKind = "profit_share"
	KindPayment     MovementKind = "payment"
	KindSettlement  MovementKind = "settlement"
)

// IsSettlement reports whether k pays down an account rather than raising it.
func (k MovementKind) IsSettlement() bool {
	return k == KindPayment || k == KindSettlement
}

// Known reports whether k is one of the movement kinds above.
func (k MovementKind) Known() bool {
	switch k {
	case KindSale, KindInvoice, KindService, KindPurchase, KindShipment,
		KindProfitShare, KindPayment, KindSettlement:
		return true
	}
	return false
}

// Movement is one historical amount on an entity's account.
type Movement struct {
	EntityType EntityType
	EntityID   string
	Kind       MovementKind
	Amount     money.Money
	Date       time.Time
	Reference  string
}

// InvalidMovementError reports a movement that cannot be classified.
type InvalidMovementError struct {
	Index  int
	Kind   MovementKind
	Reason string
}

func (e *InvalidMovementError) Error() string {
	return fmt.Sprintf("movement %d (%s): %s", e.Index, e.Kind, e.Reason)
}

// Split separates movements into charges and settlements.
func Split(movements []Movement) (charges, settlements []money.Money, err error) {
	for i, m := range movements {
		kind := MovementKind(strings.ToLower(string(m.Kind)))
		if !kind.Known() {
			return nil, nil, &InvalidMovementError{Index: i, Kind: m.Kind, Reason: "unknown movement kind"}
		}
		if kind.IsSettlement() {
			settlements = append(settlements, m.Amount)
		} else {
			charges = append(charges, m.Amount)
		}
	}
	return charges, settlements, nil
}

// ComputeMovements classifies movements and computes the entity's balance.
func ComputeMovements(entityType EntityType, entityID string, movements []Movement) (Record, error) {
	charges, settlements, err := Split(movements)
	if err != nil {
		return Record{}, err
	}
	return Compute(entityType, entityID, charges, settlements), nil
}

type entityKey struct {
	entityType EntityType
	entityID   string
}

// ComputeAll groups a mixed movement history by entity and returns one record
// per entity, ordered by entity type then id.
func ComputeAll(movements []Movement) ([]Record, error) {
	groups := make(map[entityKey][]Movement)
	for i, m := range movements {
		if m.EntityType == "" || m.EntityID == "" {
			return nil, &InvalidMovementError{Index: i, Kind: m.Kind, Reason: "missing entity"}
		}
		k := entityKey{m.EntityType, m.EntityID}
		groups[k] = append(groups[k], m)
	}

	keys := make([]entityKey, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].entityType != keys[j].entityType {
			return keys[i].entityType < keys[j].entityType
		}
		return keys[i].entityID < keys[j].entityID
	})

	records := make([]Record, 0, len(keys))
	for _, k := range keys {
		rec, err := ComputeMovements(k.entityType, k.entityID, groups[k])
		if err != nil {
			return nil, fmt.Errorf("entity %s/%s: %w", k.entityType, k.entityID, err)
		}
		records = append(records, rec)
	}
	return records, nil
}
