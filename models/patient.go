package models

import (
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type Patient struct {
	ID           uint          `json:"id" gorm:"primaryKey"`
	FirstName    string        `json:"firstName" gorm:"size:100;not null"`
	LastName     string        `json:"lastName" gorm:"size:100;not null"`
	Email        string        `json:"email" gorm:"size:120;not null;unique"`
	Password     string        `json:"-" gorm:"size:200;not null"`
	Phone        string        `json:"phone" gorm:"size:20"`
	Age          int           `json:"age" gorm:"not null"`
	Gender       string        `json:"gender" gorm:"size:20;not null"`
	RegisteredOn time.Time     `json:"registeredOn" gorm:"autoCreateTime"`
	Appointments []Appointment `json:"appointments,omitempty" gorm:"foreignKey:PatientID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

// BeforeCreate hashes the plain-text password before the row is written.
func (p *Patient) BeforeCreate(tx *gorm.DB) error {
	if p.Password == "" {
		return nil
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(p.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	p.Password = string(hashed)
	return nil
}

func (p *Patient) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(p.Password), []byte(password)) == nil
}
