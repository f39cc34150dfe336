package models

import (
	"time"

	"github.com/oklog/ulid/v2"
	"gorm.io/gorm"
)

// BaseModel provides common fields and auto-generated ULID for all models
type BaseModel struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(26)"`
	CreatedAt time.Time `json:"createdAt" gorm:"autoCreateTime"`
}

// BeforeCreate generates a ULID for the ID field if it's empty
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = ulid.Make().String()
	}
	return nil
}

// User is an identity record. Unique by email.
type User struct {
	BaseModel
	Name          string    `json:"name" gorm:"not null"`
	Email         string    `json:"email" gorm:"uniqueIndex;not null"`
	EmailVerified bool      `json:"emailVerified" gorm:"not null;default:false"`
	Image         *string   `json:"image"`
	Role          string    `json:"role" gorm:"not null;default:user"`
	UpdatedAt     time.Time `json:"updatedAt" gorm:"autoUpdateTime"`
}

func (User) TableName() string { return "user" }

// Session is a server-side session addressed by the token carried in the
// session cookie. A user may hold several at once.
type Session struct {
	BaseModel
	UserID    string    `json:"userId" gorm:"index;not null"`
	Token     string    `json:"token" gorm:"uniqueIndex;not null"`
	ExpiresAt time.Time `json:"expiresAt" gorm:"not null"`
	IPAddress string    `json:"ipAddress"`
	UserAgent string    `json:"userAgent"`
	UpdatedAt time.Time `json:"updatedAt" gorm:"autoUpdateTime"`

	User User `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

func (Session) TableName() string { return "session" }

// Expired reports whether the session is past its expiry at now
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Account holds a credential or linked identity for a user.
// ProviderID "credential" carries the email/password hash.
type Account struct {
	BaseModel
	UserID     string    `json:"userId" gorm:"index;not null"`
	AccountID  string    `json:"accountId" gorm:"not null"`
	ProviderID string    `json:"providerId" gorm:"not null"`
	Password   string    `json:"-"`
	UpdatedAt  time.Time `json:"updatedAt" gorm:"autoUpdateTime"`

	User User `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

func (Account) TableName() string { return "account" }

// CredentialProvider is the provider id of email/password accounts
const CredentialProvider = "credential"

// Config is the singleton settings row (only one row should exist)
type Config struct {
	BaseModel
	AuthSecret string    `json:"-" gorm:"type:varchar(64);not null"` // generated on first start when no secret is configured
	UpdatedAt  time.Time `json:"updatedAt" gorm:"autoUpdateTime"`
}

func (Config) TableName() string { return "config" }

// AutoMigrate runs database migrations for all models
func AutoMigrate(db *gorm.DB) error {
	models := []interface{}{
		&User{}, &Session{}, &Account{}, &Config{},
	}

	return db.AutoMigrate(models...)
}

// FindByID safely finds a record by string ID
func FindByID[T any](db *gorm.DB, id string, model *T) error {
	return db.Where("id = ?", id).First(model).Error
}
