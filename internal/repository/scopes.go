package repository

import (
	"strings"

	"gorm.io/gorm"

	"pedbook/internal/model"
)

// paginate applies offset and limit from normalized list params.
func paginate(p model.ListParams) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Offset(p.Offset()).Limit(p.Limit)
	}
}

// containsFold matches column against a case-insensitive substring.
func containsFold(column, search string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		search = strings.TrimSpace(search)
		if search == "" {
			return db
		}
		return db.Where("LOWER("+column+") LIKE ?", "%"+strings.ToLower(search)+"%")
	}
}

// withDeleted lets preloads reach soft-deleted rows, so history keeps its references.
func withDeleted(db *gorm.DB) *gorm.DB {
	return db.Unscoped()
}

// publicUser limits a preloaded user to the fields shown next to public content.
// Deleted accounts still sign their old reviews.
func publicUser(db *gorm.DB) *gorm.DB {
	return db.Unscoped().Select("id", "username", "display_name", "profile_image")
}
