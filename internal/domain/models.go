// Package domain defines the persistence models for access keys, orders,
// entitlements and the read-only unit catalog. These types are mapped with
// GORM and form the core data layer of the delivery pipeline.
package domain

import (
	"time"
)

// ContentType is the deliverable variant of a unit.
type ContentType string

const (
	ContentNote       ContentType = "note"
	ContentAssignment ContentType = "assignment"
)

// Valid reports whether c is a known variant.
func (c ContentType) Valid() bool {
	return c == ContentNote || c == ContentAssignment
}

// KeyStatus is the lifecycle state of an access key.
type KeyStatus string

const (
	KeyAvailable KeyStatus = "available"
	KeyBound     KeyStatus = "bound"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderPending        OrderStatus = "pending"
	OrderPendingPayment OrderStatus = "pending_payment"
	OrderProcessing     OrderStatus = "processing"
	OrderCompleted      OrderStatus = "completed"
)

// SourceKind records which upstream trigger produced an entitlement.
type SourceKind string

const (
	SourceOrder SourceKind = "order"
	SourceKey   SourceKind = "access_key"
)

// AccessKey is a human-enterable, single-use token that grants one unit
// variant outside the order flow.
//
// Fields:
//   - Key: the token itself; globally unique and case-sensitive.
//   - Status: "available" until redeemed, then "bound" forever.
//   - BoundTo / BoundAt: set together with Status=bound, nil otherwise.
//
// Keys are never deleted; bound rows are the redemption audit trail.
type AccessKey struct {
	ID          string      `json:"id"           gorm:"type:char(36);primaryKey"`
	Key         string      `json:"key"          gorm:"type:varchar(64);not null;uniqueIndex:ux_access_keys_key" validate:"required,max=64"`
	ItemID      string      `json:"item_id"      gorm:"type:varchar(64);not null;index" validate:"required"`
	ContentType ContentType `json:"content_type" gorm:"type:varchar(16);not null;check:content_type IN ('note','assignment')" validate:"required,oneof=note assignment"`
	Status      KeyStatus   `json:"status"       gorm:"type:varchar(16);not null;default:'available';index;check:status IN ('available','bound')" validate:"required,oneof=available bound"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
	BoundTo     *string     `json:"bound_to,omitempty" gorm:"type:varchar(128)" validate:"required_if=Status bound,excluded_if=Status available"`
	BoundAt     *time.Time  `json:"bound_at,omitempty" validate:"required_if=Status bound,excluded_if=Status available"`
}

// TableName returns the database table name for AccessKey.
func (AccessKey) TableName() string { return "access_keys" }

// Order is a checkout of one or more unit variants by a single user.
// ContentUnlocked flips false→true once, by fulfillment, after the order
// reached "completed".
type Order struct {
	ID              string      `json:"id"               gorm:"type:char(36);primaryKey"`
	UserID          string      `json:"user_id"          gorm:"type:varchar(128);not null;index:idx_user_orders,priority:1" validate:"required"`
	TotalPrice      float64     `json:"total_price"      gorm:"not null;default:0" validate:"gte=0"`
	Status          OrderStatus `json:"status"           gorm:"type:varchar(24);not null;default:'pending';check:status IN ('pending','pending_payment','processing','completed')" validate:"required,oneof=pending pending_payment processing completed"`
	ContentUnlocked bool        `json:"content_unlocked" gorm:"not null;default:false"`
	CreatedAt       time.Time   `json:"created_at"       gorm:"index:idx_user_orders,priority:2"`
	UpdatedAt       time.Time   `json:"updated_at"`

	Items []OrderItem `json:"items" gorm:"foreignKey:OrderID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" validate:"required,min=1,dive"`
}

// TableName returns the database table name for Order.
func (Order) TableName() string { return "orders" }

// OrderItem is one line of an order. Position preserves checkout order.
type OrderItem struct {
	ID          string      `json:"id"           gorm:"type:char(36);primaryKey"`
	OrderID     string      `json:"-"            gorm:"type:char(36);not null;index:idx_order_items,priority:1"`
	Position    int         `json:"position"     gorm:"not null;index:idx_order_items,priority:2"`
	ItemID      string      `json:"item_id"      gorm:"type:varchar(64);not null" validate:"required"`
	ContentType ContentType `json:"content_type" gorm:"type:varchar(16);not null" validate:"required,oneof=note assignment"`
	Language    string      `json:"language"     gorm:"type:varchar(16);not null" validate:"required,max=16"`
	UnitPrice   float64     `json:"unit_price"   gorm:"not null;default:0" validate:"gte=0"`
}

// TableName returns the database table name for OrderItem.
func (OrderItem) TableName() string { return "order_items" }

// Entitlement is the unlock record: one user may retrieve one file variant.
// It is the only authorization source for downloads.
//
// Fields:
//   - SourceKind / SourceID: the order or access key that produced it.
//   - Language: nil for key-sourced records.
//   - Part / PartLabel: which file part of the unit ("Part 1", "Part 2").
//   - FileRef: stored object path, or a previously issued URL.
//   - Downloaded / DownloadedAt: set once by the download issuer.
type Entitlement struct {
	ID           string      `json:"id"            gorm:"type:char(36);primaryKey"`
	UserID       string      `json:"user_id"       gorm:"type:varchar(128);not null;index:idx_user_unlocks,priority:1" validate:"required"`
	SourceKind   SourceKind  `json:"source_kind"   gorm:"type:varchar(16);not null;check:source_kind IN ('order','access_key')" validate:"required,oneof=order access_key"`
	SourceID     string      `json:"source_id"     gorm:"type:char(36);not null;index" validate:"required"`
	ItemID       string      `json:"item_id"       gorm:"type:varchar(64);not null" validate:"required"`
	ContentType  ContentType `json:"content_type"  gorm:"type:varchar(16);not null" validate:"required,oneof=note assignment"`
	Language     *string     `json:"language,omitempty" gorm:"type:varchar(16)"`
	Part         int         `json:"part"          gorm:"not null;default:1" validate:"gte=1"`
	PartLabel    string      `json:"part_label"    gorm:"type:varchar(64)"`
	FileRef      string      `json:"-"             gorm:"type:text;not null" validate:"required"`
	UnlockedAt   time.Time   `json:"unlocked_at"   gorm:"not null;index:idx_user_unlocks,priority:2"`
	Downloaded   bool        `json:"downloaded"    gorm:"not null;default:false"`
	DownloadedAt *time.Time  `json:"downloaded_at,omitempty"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// TableName returns the database table name for Entitlement.
func (Entitlement) TableName() string { return "entitlements" }

// Unit is a purchasable catalog item. The delivery core only reads it.
type Unit struct {
	ID        string    `json:"id"        gorm:"type:varchar(64);primaryKey"`
	Name      string    `json:"name"      gorm:"type:varchar(255);not null"`
	NameAlt   string    `json:"name_alt"  gorm:"type:varchar(255)"`
	Category  string    `json:"category"  gorm:"type:varchar(64);index"`
	CreatedAt time.Time `json:"created_at"`

	Files []UnitFile `json:"files,omitempty" gorm:"foreignKey:UnitID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Unit.
func (Unit) TableName() string { return "units" }

// UnitFile is one deliverable PDF part of a unit for a (language, content
// type) variant. Path holds the object key or a legacy download URL.
type UnitFile struct {
	ID          string      `json:"id"           gorm:"type:char(36);primaryKey"`
	UnitID      string      `json:"unit_id"      gorm:"type:varchar(64);not null;uniqueIndex:ux_unit_file_variant,priority:1"`
	Language    string      `json:"language"     gorm:"type:varchar(16);not null;uniqueIndex:ux_unit_file_variant,priority:2"`
	ContentType ContentType `json:"content_type" gorm:"type:varchar(16);not null;uniqueIndex:ux_unit_file_variant,priority:3"`
	Part        int         `json:"part"         gorm:"not null;default:1;uniqueIndex:ux_unit_file_variant,priority:4"`
	Label       string      `json:"label"        gorm:"type:varchar(64)"`
	Path        string      `json:"path"         gorm:"type:text;not null"`
}

// TableName returns the database table name for UnitFile.
func (UnitFile) TableName() string { return "unit_files" }
