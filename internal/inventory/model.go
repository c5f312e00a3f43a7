package inventory

import (
	"time"

	"github.com/google/uuid"
)

// Movement reasons.
const (
	ReasonAdjustment = "adjustment"
	ReasonSale       = "sale"
	ReasonPurchase   = "purchase"
)

// Movement represents a row in the stock_movements table. Delta is signed.
type Movement struct {
	ID          uuid.UUID
	TenantID    uuid.UUID
	TokoID      uuid.UUID
	ProductID   uuid.UUID
	Delta       int
	StockAfter  int
	Reason      string
	ReferenceID *uuid.UUID // sale or purchase that caused the movement
	Note        string
	CreatedBy   uuid.UUID
	CreatedAt   time.Time
}

// MovementFilter holds optional filters and pagination for the movement history.
type MovementFilter struct {
	ProductID *uuid.UUID
	Reason    string
	Page      int
	Limit     int
}
