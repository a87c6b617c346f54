// Package domain defines the persistence models for users, addresses, and
// sell orders. These types are mapped with GORM and form the core data layer
// of the reprice application.
package domain

import (
	"time"

	"gorm.io/gorm"
)

// User types accepted at signup.
const (
	UserTypeCustomer = "customer"
	UserTypeAgent    = "agent"
)

// Order lifecycle states.
const (
	OrderStatusPending   = "pending"
	OrderStatusAssigned  = "assigned"
	OrderStatusCompleted = "completed"
	OrderStatusCancelled = "cancelled"
)

// User represents an account on the platform. The same phone number may be
// registered once as a customer and once as an agent; within a single user
// type it must be unique (enforced by a composite unique index).
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - Name: display name.
//   - Phone: login identifier, unique per user type.
//   - PasswordHash: bcrypt hash, never serialized.
//   - UserType: "customer" or "agent" (enforced by DB constraint).
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
//   - DeletedAt: soft deletion marker (retains row for audit/history).
type User struct {
	ID           string         `json:"id"         gorm:"type:char(36);primaryKey"`
	Name         string         `json:"name"       gorm:"type:varchar(128);not null"`
	Phone        string         `json:"phone"      gorm:"type:varchar(32);not null;uniqueIndex:ux_users_phone_type,priority:1"`
	PasswordHash string         `json:"-"          gorm:"type:varchar(128);not null"`
	UserType     string         `json:"user_type"  gorm:"type:varchar(16);not null;uniqueIndex:ux_users_phone_type,priority:2;check:user_type IN ('customer','agent')"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `json:"-"          gorm:"index"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }

// Address is the pickup location attached to a sell order.
//
// Fields:
//   - ID: UUID primary key (char(36)).
//   - UserID: owner of the address (indexed).
//   - Line1 / Line2: street address, Line2 optional.
//   - City / State / Pincode: locality fields.
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
//   - DeletedAt: soft deletion marker.
type Address struct {
	ID        string         `json:"id"       gorm:"type:char(36);primaryKey"`
	UserID    string         `json:"user_id"  gorm:"type:char(36);not null;index:idx_user_addresses"`
	Line1     string         `json:"line1"    gorm:"type:varchar(255);not null"`
	Line2     string         `json:"line2"    gorm:"type:varchar(255)"`
	City      string         `json:"city"     gorm:"type:varchar(64);not null"`
	State     string         `json:"state"    gorm:"type:varchar(64);not null"`
	Pincode   string         `json:"pincode"  gorm:"type:varchar(16);not null"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-"        gorm:"index"`
}

// TableName returns the database table name for Address.
func (Address) TableName() string { return "addresses" }

// Order represents a customer's request to sell a device at a quoted price.
// Orders start pending; an agent claims one by moving it to assigned, which
// also stamps AgentID. The claim is a conditional update so two agents can
// never hold the same order.
//
// Fields:
//   - ID: UUID primary key (char(36)).
//   - UserID: the selling customer (indexed).
//   - AgentID: the claiming agent, nil until assignment.
//   - PhoneModel: full device label including variant.
//   - QuotedPrice: price shown to the customer at order time.
//   - Status: pending|assigned|completed|cancelled (enforced by DB constraint).
//   - AddressID: pickup address foreign key.
//   - PickupDate / PickupSlot: customer-chosen pickup day and window, free-form.
//   - PaymentMode: how the customer wants to be paid (e.g. upi, cash).
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
//   - DeletedAt: soft deletion marker.
//   - Address: FK association, cascade delete/update.
type Order struct {
	ID          string         `json:"id"           gorm:"type:char(36);primaryKey"`
	UserID      string         `json:"user_id"      gorm:"type:char(36);not null;index:idx_user_orders"`
	AgentID     *string        `json:"agent_id,omitempty" gorm:"type:char(36);index:idx_agent_orders"`
	PhoneModel  string         `json:"phone_model"  gorm:"type:varchar(255);not null"`
	QuotedPrice int            `json:"quoted_price" gorm:"not null;check:quoted_price >= 0"`
	Status      string         `json:"status"       gorm:"type:varchar(16);not null;default:'pending';check:status IN ('pending','assigned','completed','cancelled')"`
	AddressID   string         `json:"address_id"   gorm:"type:char(36);not null"`
	PickupDate  string         `json:"pickup_date"  gorm:"type:varchar(32)"`
	PickupSlot  string         `json:"pickup_slot"  gorm:"type:varchar(128)"`
	PaymentMode string         `json:"payment_mode" gorm:"type:varchar(32)"`
	CreatedAt   time.Time      `json:"created_at"   gorm:"index:idx_user_orders,priority:2"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-"            gorm:"index"`

	// Address is the pickup location. Orders keep their address row
	// alive; removing an order cascades to nothing.
	Address Address `json:"address" gorm:"foreignKey:AddressID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Order.
func (Order) TableName() string { return "orders" }
