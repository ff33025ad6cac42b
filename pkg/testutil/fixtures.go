package testutil

import (
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// MedicineFixture represents test medicine data
type MedicineFixture struct {
	Name         string
	Manufacturer string
	Category     string
	Price        string
	Stock        int
	ReorderLevel int
	ExpiryDate   time.Time
	Barcode      string
}

// UserFixture represents test user data
type UserFixture struct {
	Email        string
	Name         string
	Password     string
	PasswordHash string
	Role         string
}

// FixtureFactory creates test fixtures with sensible defaults
type FixtureFactory struct {
	sequence int
}

// NewFixtureFactory creates a new fixture factory
func NewFixtureFactory() *FixtureFactory {
	return &FixtureFactory{}
}

// Medicine creates a sellable medicine fixture with a unique 13-digit barcode
func (f *FixtureFactory) Medicine() MedicineFixture {
	f.sequence++
	return MedicineFixture{
		Name:         fmt.Sprintf("Test Medicine %d", f.sequence),
		Manufacturer: "Test Pharma",
		Category:     "Pain Relief",
		Price:        "25.50",
		Stock:        100,
		ReorderLevel: 10,
		ExpiryDate:   time.Now().AddDate(1, 0, 0),
		Barcode:      f.Barcode(),
	}
}

// ExpiredMedicine creates a medicine fixture whose expiry date has passed
func (f *FixtureFactory) ExpiredMedicine() MedicineFixture {
	m := f.Medicine()
	m.ExpiryDate = time.Now().AddDate(0, 0, -30)
	return m
}

// Barcode creates a unique 13-digit barcode
func (f *FixtureFactory) Barcode() string {
	f.sequence++
	return fmt.Sprintf("89%011d", f.sequence)
}

// User creates a seller fixture with a bcrypt-hashed password
func (f *FixtureFactory) User() UserFixture {
	f.sequence++
	password := "test-password-123"
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	return UserFixture{
		Email:        fmt.Sprintf("seller%d@pharmstock.test", f.sequence),
		Name:         fmt.Sprintf("Seller %d", f.sequence),
		Password:     password,
		PasswordHash: string(hash),
		Role:         "seller",
	}
}
