package config

import (
	"errors"
	"fmt"

	"github.com/apex/log"
	"github.com/google/uuid"
	"github.com/posko-pajak/api-go/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// SeedRoles makes sure every role exists.
func SeedRoles(db *gorm.DB) error {
	for _, name := range []string{models.RoleAdmin, models.RoleModerator, models.RoleUser} {
		role := models.Role{Name: name}
		if err := db.Where(models.Role{Name: name}).FirstOrCreate(&role).Error; err != nil {
			return fmt.Errorf("seed role %s: %w", name, err)
		}
	}
	return nil
}

// EnsureUser returns the user with the given email, creating it when missing.
// Roles are attached in either case.
func EnsureUser(db *gorm.DB, name, email, password string, roleNames ...string) (*models.User, error) {
	var user models.User
	err := db.Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		user = models.User{Name: name, Email: email, Password: string(hashed)}
		if err := db.Omit("Roles").Create(&user).Error; err != nil {
			return nil, fmt.Errorf("create user %s: %w", email, err)
		}
		log.WithField("email", email).Info("user created")
	} else if err != nil {
		return nil, fmt.Errorf("find user %s: %w", email, err)
	}

	if len(roleNames) > 0 {
		var roles []models.Role
		if err := db.Where("name IN ?", roleNames).Find(&roles).Error; err != nil {
			return nil, fmt.Errorf("load roles: %w", err)
		}
		if err := db.Model(&user).Association("Roles").Append(roles); err != nil {
			return nil, fmt.Errorf("assign roles to %s: %w", email, err)
		}
	}

	if err := db.Preload("Roles").First(&user, "id = ?", user.ID).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// Bootstrap seeds roles, the optional admin account and the system user that
// owns public submissions. It returns the public reporter id.
func Bootstrap(db *gorm.DB, cfg *Config) (string, error) {
	if err := SeedRoles(db); err != nil {
		return "", err
	}

	if cfg.AdminEmail != "" && cfg.AdminPassword != "" {
		if _, err := EnsureUser(db, "Administrator", cfg.AdminEmail, cfg.AdminPassword, models.RoleAdmin); err != nil {
			return "", err
		}
	}

	// nobody logs in as the public reporter, so its password is random
	reporter, err := EnsureUser(db, "Public Reporter", cfg.PublicReporterEmail, uuid.NewString(), models.RoleUser)
	if err != nil {
		return "", err
	}
	return reporter.ID, nil
}
