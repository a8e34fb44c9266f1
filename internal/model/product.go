package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Product status values
const (
	ProductStatusUnset      = ""
	ProductStatusCheckedIn  = "checkin"
	ProductStatusCheckedOut = "checkedout"
)

// ValidProductStatus reports whether s is one of the three product states.
func ValidProductStatus(s string) bool {
	return s == ProductStatusUnset || s == ProductStatusCheckedIn || s == ProductStatusCheckedOut
}

// TechnicalCheck is the inspection checklist filled in by technicians.
// Nil booleans mean the item was not inspected.
type TechnicalCheck struct {
	TrackPad           *bool  `json:"track_pad,omitempty"`
	Keyboard           *bool  `json:"keyboard,omitempty"`
	LCDGhostPeel       *bool  `json:"lcd_ghost_peel,omitempty"`
	SoundHeadphoneJack *bool  `json:"sound_headphone_jack,omitempty"`
	Microphone         *bool  `json:"microphone,omitempty"`
	USBPorts           *bool  `json:"usb_ports,omitempty"`
	BluetoothWifi      *bool  `json:"bluetooth_wifi,omitempty"`
	CameraFaceTime     *bool  `json:"camera_facetime,omitempty"`
	FindMyMac          string `json:"find_my_mac"` // "", ON, OFF
	MDM                string `json:"mdm"`         // "", YES, NO
	AppleCare          string `json:"apple_care"`  // "", YES, NO
}

// Product is a single refurbished device tracked by serial number
type Product struct {
	ID              uuid.UUID                          `gorm:"type:uuid;primaryKey" json:"id"`
	SerialNumber    string                             `gorm:"type:varchar(100);uniqueIndex;not null" json:"serial_number"`
	Year            string                             `gorm:"type:varchar(10)" json:"year"`
	DeviceSize      string                             `gorm:"type:varchar(50)" json:"device_size"`
	DeviceType      string                             `gorm:"type:varchar(100);index" json:"device_type"`
	EMCNumber       string                             `gorm:"type:varchar(50)" json:"emc_number"`
	CPU             string                             `gorm:"type:varchar(100)" json:"cpu"`
	GPU             string                             `gorm:"type:varchar(100)" json:"gpu"`
	ModelNumber     string                             `gorm:"type:varchar(100)" json:"model_number"`
	Identifier      string                             `gorm:"type:varchar(100)" json:"identifier"`
	Memory          string                             `gorm:"type:varchar(50)" json:"memory"`
	StorageType     string                             `gorm:"type:varchar(50)" json:"storage_type"`
	BatteryCapacity string                             `gorm:"type:varchar(50)" json:"battery_capacity"`
	BatteryCycles   string                             `gorm:"type:varchar(50)" json:"battery_cycles"`
	StorageSize     string                             `gorm:"type:varchar(50)" json:"storage_size"`
	Source          string                             `gorm:"type:varchar(255)" json:"source"`
	Warehouse       string                             `gorm:"type:varchar(255);index" json:"warehouse"`
	Marketplace     string                             `gorm:"type:varchar(255)" json:"marketplace"`
	Status          string                             `gorm:"type:varchar(20);index;default:''" json:"status"`
	ImageURLs       datatypes.JSONSlice[string]        `json:"image_urls"`
	StorageIDs      datatypes.JSONSlice[string]        `json:"storage_ids"` // Parallel to ImageURLs
	FullUnitGrade   string                             `gorm:"type:varchar(2)" json:"full_unit_grade"`
	TopCaseGrade    string                             `gorm:"type:varchar(2)" json:"top_case_grade"`
	LCDGrade        string                             `gorm:"type:varchar(2)" json:"lcd_grade"`
	Notes           string                             `gorm:"type:text" json:"notes"`
	TechnicalNotes  string                             `gorm:"type:text" json:"technical_notes"`
	TechnicalCheck  datatypes.JSONType[TechnicalCheck] `json:"technical_check"`
	CreatedBy       string                             `gorm:"type:varchar(255)" json:"created_by"`
	CreatedAt       time.Time                          `json:"created_at"`
	UpdatedAt       time.Time                          `json:"updated_at"`
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// ProductMovement records every status transition of a product
type ProductMovement struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	ProductID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"product_id"`
	SerialNumber string     `gorm:"type:varchar(100);not null;index" json:"serial_number"`
	FromStatus   string     `gorm:"type:varchar(20)" json:"from_status"`
	ToStatus     string     `gorm:"type:varchar(20);not null;index" json:"to_status"`
	UserID       *uuid.UUID `gorm:"type:uuid;index" json:"user_id"`
	PerformedBy  string     `gorm:"type:varchar(255)" json:"performed_by"`
	CreatedAt    time.Time  `gorm:"index" json:"created_at"`
}

func (m *ProductMovement) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// Warehouse is a physical location products are stored in
type Warehouse struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	Address   string    `gorm:"type:text;not null" json:"address"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (w *Warehouse) BeforeCreate(tx *gorm.DB) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	return nil
}

// Device status values
const (
	DeviceStatusAvailable   = "Available"
	DeviceStatusInactive    = "Inactive"
	DeviceStatusMaintenance = "Maintenance"
)

// Device is a catalog entry for a kind of device the business refurbishes
type Device struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	Status    string    `gorm:"type:varchar(20);not null;default:'Available'" json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (d *Device) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}
