// Package domain defines the persistence models of the repair-reporting
// system. These types are mapped with GORM and shared by the repository,
// store and service layers.
package domain

import (
	"time"

	"gorm.io/datatypes"
)

// PersonalInfo is the reporter's identity snapshot. It is embedded both in
// UserProfile (the canonical copy) and in every RepairRequest (the copy taken
// at submission time).
type PersonalInfo struct {
	TitlePrefix string  `json:"titlePrefix" gorm:"type:varchar(32)"`
	FirstName   string  `json:"firstName"   gorm:"type:varchar(128)"`
	LastName    string  `json:"lastName"    gorm:"type:varchar(128)"`
	Age         FormInt `json:"age,omitempty"`
	Ethnicity   string  `json:"ethnicity,omitempty"   gorm:"type:varchar(64)"`
	Nationality string  `json:"nationality,omitempty" gorm:"type:varchar(64)"`
	Phone       string  `json:"phone"   gorm:"type:varchar(16);index"`
	HouseNo     string  `json:"houseNo" gorm:"type:varchar(32)"`
	Moo         string  `json:"moo"     gorm:"type:varchar(16)"`
}

// FullName joins prefix, first and last name the way the cards print it.
func (p PersonalInfo) FullName() string {
	return p.TitlePrefix + p.FirstName + " " + p.LastName
}

// RepairRequest is one reported electrical-pole fault.
//
// Fields:
//   - RequestID: "YYMM-NNN" ticket number, assigned once at creation.
//   - LineUserID / LineDisplayName: the reporting LINE user.
//   - PersonalInfo: snapshot of the reporter at submission time.
//   - PoleID: free-text pole reference ("ไม่ระบุ" when not given).
//   - ProblemDescription: the reported fault.
//   - Latitude / Longitude: optional coordinates.
//   - Photo: object-store key, or the encoded image when no store is configured.
//   - Status: workflow state (see Status).
//   - TechnicianNotes: optional notes attached on status updates.
//   - SignatureURL / ApprovedBy / ApprovalTimestamp: executive approval trail.
//   - FormType: CHAT or FORM.
//   - DateReported: creation time, the ordering source of truth.
//
// Requests are never deleted.
type RepairRequest struct {
	RequestID       string `json:"requestId"       gorm:"type:varchar(32);primaryKey"`
	LineUserID      string `json:"lineUserId"      gorm:"type:varchar(64);not null;index"`
	LineDisplayName string `json:"lineDisplayName" gorm:"type:varchar(255)"`
	PersonalInfo

	PoleID             string   `json:"poleId"             gorm:"type:varchar(64)"`
	ProblemDescription string   `json:"problemDescription" gorm:"type:text;not null"`
	Latitude           *float64 `json:"latitude,omitempty"`
	Longitude          *float64 `json:"longitude,omitempty"`
	Photo              string   `json:"photo,omitempty"    gorm:"type:text"`

	Status          Status `json:"status"          gorm:"type:varchar(64);not null;index"`
	TechnicianNotes string `json:"technicianNotes" gorm:"type:text"`

	SignatureURL      string     `json:"signatureUrl,omitempty" gorm:"type:text"`
	ApprovedBy        string     `json:"approvedBy,omitempty"   gorm:"type:varchar(128)"`
	ApprovalTimestamp *time.Time `json:"approvalTimestamp,omitempty"`

	FormType     FormType  `json:"formType"     gorm:"type:varchar(8);not null;default:'FORM'"`
	DateReported time.Time `json:"dateReported" gorm:"not null;index"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// TableName returns the database table name for RepairRequest.
func (RepairRequest) TableName() string { return "repair_requests" }

// UserProfile is the canonical personal data for a LINE user.
//
// Rows are append-friendly: when more than one row exists for a user the
// newest one (highest ID) wins. CreatedAt of the first write is preserved on
// updates.
type UserProfile struct {
	ID          uint   `json:"-"          gorm:"primaryKey;autoIncrement"`
	LineUserID  string `json:"lineUserId" gorm:"type:varchar(64);not null;index"`
	DisplayName string `json:"displayName" gorm:"type:varchar(255)"`
	PersonalInfo
	LastActiveAt time.Time `json:"lastActiveAt"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// TableName returns the database table name for UserProfile.
func (UserProfile) TableName() string { return "user_profiles" }

// PeriodCounter is a named monotonic counter scoped to a YYMM period.
type PeriodCounter struct {
	ID          uint      `json:"-"           gorm:"primaryKey;autoIncrement"`
	CounterType string    `json:"counterType" gorm:"type:varchar(32);not null;uniqueIndex:ux_counter_period,priority:1"`
	Period      string    `json:"period"      gorm:"type:varchar(8);not null;uniqueIndex:ux_counter_period,priority:2"`
	Value       int64     `json:"value"       gorm:"not null;default:0"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// TableName keeps the historical "system config" name of the counter table.
func (PeriodCounter) TableName() string { return "system_config" }

// CounterRequestID is the counter type backing ticket numbers.
const CounterRequestID = "REQUEST_ID"

// Pole is an entry of the street-light pole catalog.
type Pole struct {
	PoleID         string    `json:"poleId"         gorm:"type:varchar(64);primaryKey"`
	Village        string    `json:"village"        gorm:"type:varchar(128);index"`
	PoleType       string    `json:"poleType"       gorm:"type:varchar(64)"`
	PoleSubtype    string    `json:"poleSubtype"    gorm:"type:varchar(64)"`
	Latitude       *float64  `json:"latitude,omitempty"`
	Longitude      *float64  `json:"longitude,omitempty"`
	LampType       string    `json:"lampType"       gorm:"type:varchar(64)"`
	Wattage        string    `json:"wattage"        gorm:"type:varchar(32)"`
	InstallDate    string    `json:"installDate"    gorm:"type:varchar(32)"`
	InstallCompany string    `json:"installCompany" gorm:"type:varchar(128)"`
	Notes          string    `json:"notes"          gorm:"type:text"`
	QRCode         string    `json:"qrCode"         gorm:"type:text"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// TableName returns the database table name for Pole.
func (Pole) TableName() string { return "poles" }

// InventoryItem is a stock line for repair materials.
//
// CurrentStock and TotalPrice are derived: stock = total + added - used, and
// total price = stock * price per unit.
type InventoryItem struct {
	ID            uint      `json:"id"            gorm:"primaryKey;autoIncrement"`
	ItemName      string    `json:"itemName"      gorm:"type:varchar(255);not null;uniqueIndex"`
	Unit          string    `json:"unit"          gorm:"type:varchar(32)"`
	FiscalYear    string    `json:"fiscalYear"    gorm:"type:varchar(8)"`
	PricePerUnit  float64   `json:"pricePerUnit"`
	TotalQuantity int       `json:"totalQuantity"`
	AddedQuantity int       `json:"addedQuantity"`
	UsedQuantity  int       `json:"usedQuantity"`
	CurrentStock  int       `json:"currentStock"`
	TotalPrice    float64   `json:"totalPrice"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// TableName returns the database table name for InventoryItem.
func (InventoryItem) TableName() string { return "inventory" }

// Recompute refreshes the derived stock and price columns.
func (i *InventoryItem) Recompute() {
	i.CurrentStock = i.TotalQuantity + i.AddedQuantity - i.UsedQuantity
	i.TotalPrice = float64(i.CurrentStock) * i.PricePerUnit
}

// AdminUser is a dashboard operator account.
type AdminUser struct {
	Username     string     `json:"username"  gorm:"type:varchar(64);primaryKey"`
	PasswordHash string     `json:"-"         gorm:"type:varchar(255);not null"`
	Role         Role       `json:"role"      gorm:"type:varchar(16);not null;default:'technician'"`
	FullName     string     `json:"fullName"  gorm:"type:varchar(255)"`
	Email        string     `json:"email"     gorm:"type:varchar(255)"`
	IsActive     bool       `json:"isActive"  gorm:"not null;default:true"`
	LastLogin    *time.Time `json:"lastLogin,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// TableName returns the database table name for AdminUser.
func (AdminUser) TableName() string { return "admin_users" }

// Rating is a user's satisfaction score for a completed request.
//
// Quick ratings from the chat card carry zero sub-scores and no comment.
type Rating struct {
	ID              uint      `json:"id"              gorm:"primaryKey;autoIncrement"`
	RequestID       string    `json:"requestId"       gorm:"type:varchar(32);not null;index"`
	LineUserID      string    `json:"lineUserId"      gorm:"type:varchar(64);not null"`
	LineDisplayName string    `json:"lineDisplayName" gorm:"type:varchar(255)"`
	RatingDate      time.Time `json:"ratingDate"      gorm:"not null;index"`
	OverallRating   int       `json:"overallRating"   gorm:"not null"`
	SpeedRating     int       `json:"speedRating"`
	QualityRating   int       `json:"qualityRating"`
	Comment         string    `json:"comment"         gorm:"type:text"`
	DaysToComplete  float64   `json:"daysToComplete"`
	ExpectationMet  string    `json:"expectationMet"  gorm:"type:varchar(32)"`
	Phone           string    `json:"phone"           gorm:"type:varchar(16)"`
}

// TableName returns the database table name for Rating.
func (Rating) TableName() string { return "ratings" }

// Signature is an uploaded executive signature image.
type Signature struct {
	FileName   string    `json:"fileName"   gorm:"type:varchar(255);primaryKey"`
	MimeType   string    `json:"mimeType"   gorm:"type:varchar(64)"`
	ObjectKey  string    `json:"objectKey,omitempty" gorm:"type:varchar(255)"`
	Base64Data string    `json:"-"          gorm:"type:text"`
	UploadedBy string    `json:"uploadedBy" gorm:"type:varchar(64)"`
	UploadedAt time.Time `json:"uploadedAt"`
	FileSize   int64     `json:"fileSize"`
	UsageCount int       `json:"usageCount"`
}

// TableName returns the database table name for Signature.
func (Signature) TableName() string { return "signatures" }

// TelegramConfig is the staff notification channel setting.
type TelegramConfig struct {
	ConfigKey string    `json:"-"         gorm:"type:varchar(32);primaryKey"`
	BotToken  string    `json:"botToken"  gorm:"type:varchar(255)"`
	ChatID    string    `json:"chatId"    gorm:"type:varchar(64)"`
	IsEnabled bool      `json:"isEnabled"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName returns the database table name for TelegramConfig.
func (TelegramConfig) TableName() string { return "telegram_config" }

// TelegramConfigKey is the single row key of the telegram_config table.
const TelegramConfigKey = "default"

// SystemSetting stores a JSON document under a key (flex settings, counter
// backups).
type SystemSetting struct {
	Key       string         `json:"key"   gorm:"type:varchar(64);primaryKey"`
	Value     datatypes.JSON `json:"value"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

// TableName returns the database table name for SystemSetting.
func (SystemSetting) TableName() string { return "system_settings" }

// Setting keys.
const (
	SettingFlexMessages  = "flex_message_settings"
	SettingCounterBackup = "counter_backup"
)

// AllModels lists every persisted model in migration order.
func AllModels() []any {
	return []any{
		&RepairRequest{},
		&UserProfile{},
		&PeriodCounter{},
		&Pole{},
		&InventoryItem{},
		&AdminUser{},
		&Rating{},
		&Signature{},
		&TelegramConfig{},
		&SystemSetting{},
		&Idempotency{},
	}
}
