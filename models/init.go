package models

import (
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// SeedDefaultAdmin ensures at least one admin account exists so a fresh
// deployment can be bootstrapped. No-op when any admin is present or
// when no bootstrap password is configured.
func SeedDefaultAdmin(db *gorm.DB, email, password string) error {
	if email == "" || password == "" {
		return nil
	}

	var count int64
	if err := db.Model(&User{}).Where("role = ?", RoleAdmin).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	admin := User{
		Email:        email,
		PasswordHash: string(hash),
		Name:         "Administrator",
		Role:         RoleAdmin,
		IsActive:     true,
	}
	return db.FirstOrCreate(&admin, "email = ?", email).Error
}
