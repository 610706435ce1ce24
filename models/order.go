package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DeliveryStatus represents the delivery progress of an order.
type DeliveryStatus string

const (
	DeliveryStatusPending   DeliveryStatus = "Pending"
	DeliveryStatusDelivered DeliveryStatus = "Delivered"
)

// Valid reports whether the status is one of the known values.
func (s DeliveryStatus) Valid() bool {
	return s == DeliveryStatusPending || s == DeliveryStatusDelivered
}

// DeliveryPriority marks how urgently an order should be delivered.
type DeliveryPriority string

const (
	DeliveryPriorityNormal DeliveryPriority = "Normal"
	DeliveryPriorityUrgent DeliveryPriority = "Urgent"
)

// Valid reports whether the priority is one of the known values.
func (p DeliveryPriority) Valid() bool {
	return p == DeliveryPriorityNormal || p == DeliveryPriorityUrgent
}

var (
	ErrEmptyVillage      = errors.New("village name is required")
	ErrEmptyCustomer     = errors.New("customer name is required")
	ErrEmptyProduct      = errors.New("product name is required")
	ErrEmptyLandmark     = errors.New("landmark is required")
	ErrInvalidQuantity   = errors.New("quantity must be at least 1")
	ErrNegativePrice     = errors.New("price must not be negative")
	ErrMissingDeliveryBy = errors.New("expected delivery date is required")
	ErrInvalidStatus     = errors.New("unknown delivery status")
	ErrInvalidPriority   = errors.New("unknown delivery priority")
	ErrStatusRegression  = errors.New("delivered order cannot go back to pending")
)

var validationErrs = []error{
	ErrEmptyVillage, ErrEmptyCustomer, ErrEmptyProduct, ErrEmptyLandmark,
	ErrInvalidQuantity, ErrNegativePrice, ErrMissingDeliveryBy,
	ErrInvalidStatus, ErrInvalidPriority, ErrStatusRegression,
}

// IsValidation reports whether err is one of the order validation errors.
func IsValidation(err error) bool {
	for _, v := range validationErrs {
		if errors.Is(err, v) {
			return true
		}
	}
	return false
}

// Order is a customer purchase record with delivery tracking fields.
// The JSON field names are the document names used verbatim by the local
// blob, the remote mirror documents, and the HTTP API.
type Order struct {
	OrderID              string           `json:"orderId"`
	OrderDate            time.Time        `json:"orderDate"`
	VillageName          string           `json:"villageName"`
	CustomerName         string           `json:"customerName"`
	ProductName          string           `json:"productName"`
	Quantity             int              `json:"quantity"`
	Price                float64          `json:"price"`
	Landmark             string           `json:"landmark"`
	ExpectedDeliveryDate time.Time        `json:"expectedDeliveryDate"`
	DeliveryStatus       DeliveryStatus   `json:"deliveryStatus"`
	DeliveryPriority     DeliveryPriority `json:"deliveryPriority"`
	DeliveryNotes        string           `json:"deliveryNotes,omitempty"`
}

// NewOrderID builds a time-based order id. Ids are unique by construction
// down to the millisecond, which is the collision stance of the whole system:
// the stores never de-duplicate.
func NewOrderID(t time.Time) string {
	return fmt.Sprintf("ORD-%d", t.UnixMilli())
}

// Total is the order value: unit price times quantity.
func (o *Order) Total() float64 {
	return o.Price * float64(o.Quantity)
}

// Validate checks the entity invariants. OrderID and OrderDate are assigned
// by the creation path and are not re-checked here.
func (o *Order) Validate() error {
	if strings.TrimSpace(o.VillageName) == "" {
		return ErrEmptyVillage
	}
	if strings.TrimSpace(o.CustomerName) == "" {
		return ErrEmptyCustomer
	}
	if strings.TrimSpace(o.ProductName) == "" {
		return ErrEmptyProduct
	}
	if strings.TrimSpace(o.Landmark) == "" {
		return ErrEmptyLandmark
	}
	if o.Quantity < 1 {
		return ErrInvalidQuantity
	}
	if o.Price < 0 {
		return ErrNegativePrice
	}
	if o.ExpectedDeliveryDate.IsZero() {
		return ErrMissingDeliveryBy
	}
	if !o.DeliveryStatus.Valid() {
		return ErrInvalidStatus
	}
	if !o.DeliveryPriority.Valid() {
		return ErrInvalidPriority
	}
	return nil
}

// OrderUpdate is a partial edit of an order. Nil fields are left unchanged.
// OrderID and OrderDate are immutable and have no counterpart here.
type OrderUpdate struct {
	VillageName          *string           `json:"villageName"`
	CustomerName         *string           `json:"customerName"`
	ProductName          *string           `json:"productName"`
	Quantity             *int              `json:"quantity"`
	Price                *float64          `json:"price"`
	Landmark             *string           `json:"landmark"`
	ExpectedDeliveryDate *time.Time        `json:"expectedDeliveryDate"`
	DeliveryStatus       *DeliveryStatus   `json:"deliveryStatus"`
	DeliveryPriority     *DeliveryPriority `json:"deliveryPriority"`
	DeliveryNotes        *string           `json:"deliveryNotes"`
}

// Apply merges the non-nil fields into o and re-validates the result.
// A delivered order cannot be moved back to pending.
func (u OrderUpdate) Apply(o *Order) error {
	if u.DeliveryStatus != nil {
		if !u.DeliveryStatus.Valid() {
			return ErrInvalidStatus
		}
		if o.DeliveryStatus == DeliveryStatusDelivered && *u.DeliveryStatus == DeliveryStatusPending {
			return ErrStatusRegression
		}
	}
	merged := *o
	if u.VillageName != nil {
		merged.VillageName = *u.VillageName
	}
	if u.CustomerName != nil {
		merged.CustomerName = *u.CustomerName
	}
	if u.ProductName != nil {
		merged.ProductName = *u.ProductName
	}
	if u.Quantity != nil {
		merged.Quantity = *u.Quantity
	}
	if u.Price != nil {
		merged.Price = *u.Price
	}
	if u.Landmark != nil {
		merged.Landmark = *u.Landmark
	}
	if u.ExpectedDeliveryDate != nil {
		merged.ExpectedDeliveryDate = *u.ExpectedDeliveryDate
	}
	if u.DeliveryStatus != nil {
		merged.DeliveryStatus = *u.DeliveryStatus
	}
	if u.DeliveryPriority != nil {
		merged.DeliveryPriority = *u.DeliveryPriority
	}
	if u.DeliveryNotes != nil {
		merged.DeliveryNotes = *u.DeliveryNotes
	}
	if err := merged.Validate(); err != nil {
		return err
	}
	*o = merged
	return nil
}
