// Package repo implements the data persistence layer for the alert store,
// backed by GORM. This file provides the get-or-create resolvers for the
// dimension tables.
//
// Resolution semantics:
//   - Lookup by natural key; insert when absent; never update existing rows.
//   - A blank input is coerced to the literal "Unknown" before lookup, so
//     "Unknown" is itself a legitimate, deduplicated dimension value.
//   - Centers use the (name, country_id) composite key because center names
//     collide across countries.
//   - On a unique-constraint violation (another goroutine inserted the same
//     key between lookup and insert), the row is looked up again instead of
//     surfacing the conflict.
package repo

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/slotwatch/go-alert-backend/internal/domain"
)

// unknownValue is the sentinel stored for blank or unextractable inputs.
const unknownValue = "Unknown"

// coerceUnknown trims the value and substitutes the "Unknown" sentinel for
// blanks.
func coerceUnknown(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return unknownValue
	}
	return v
}

// ResolveSender returns the surrogate id for a sender name, inserting the row
// when it does not exist yet.
func ResolveSender(ctx context.Context, db *gorm.DB, name string) (uint, error) {
	name = coerceUnknown(name)

	var s domain.Sender
	err := db.WithContext(ctx).Where("name = ?", name).First(&s).Error
	if err == nil {
		return s.ID, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, err
	}

	s = domain.Sender{Name: name}
	if err := db.WithContext(ctx).Create(&s).Error; err != nil {
		if isUniqueViolation(err) {
			var again domain.Sender
			if err2 := db.WithContext(ctx).Where("name = ?", name).First(&again).Error; err2 != nil {
				return 0, err2
			}
			return again.ID, nil
		}
		return 0, err
	}
	return s.ID, nil
}

// ResolveGroup returns the surrogate id for a group title, inserting the row
// when it does not exist yet.
func ResolveGroup(ctx context.Context, db *gorm.DB, name string) (uint, error) {
	name = coerceUnknown(name)

	var g domain.Group
	err := db.WithContext(ctx).Where("name = ?", name).First(&g).Error
	if err == nil {
		return g.ID, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, err
	}

	g = domain.Group{Name: name}
	if err := db.WithContext(ctx).Create(&g).Error; err != nil {
		if isUniqueViolation(err) {
			var again domain.Group
			if err2 := db.WithContext(ctx).Where("name = ?", name).First(&again).Error; err2 != nil {
				return 0, err2
			}
			return again.ID, nil
		}
		return 0, err
	}
	return g.ID, nil
}

// ResolveKeyword returns the surrogate id for a keyword, inserting the row
// when it does not exist yet.
func ResolveKeyword(ctx context.Context, db *gorm.DB, word string) (uint, error) {
	word = coerceUnknown(word)

	var k domain.Keyword
	err := db.WithContext(ctx).Where("word = ?", word).First(&k).Error
	if err == nil {
		return k.ID, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, err
	}

	k = domain.Keyword{Word: word}
	if err := db.WithContext(ctx).Create(&k).Error; err != nil {
		if isUniqueViolation(err) {
			var again domain.Keyword
			if err2 := db.WithContext(ctx).Where("word = ?", word).First(&again).Error; err2 != nil {
				return 0, err2
			}
			return again.ID, nil
		}
		return 0, err
	}
	return k.ID, nil
}

// ResolveCountry returns the surrogate id for a country name, inserting the
// row when it does not exist yet. Code and flag metadata are only written on
// first insert; existing rows are never updated.
func ResolveCountry(ctx context.Context, db *gorm.DB, name string) (uint, error) {
	name = coerceUnknown(name)

	var c domain.Country
	err := db.WithContext(ctx).Where("name = ?", name).First(&c).Error
	if err == nil {
		return c.ID, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, err
	}

	c = domain.Country{Name: name}
	if err := db.WithContext(ctx).Create(&c).Error; err != nil {
		if isUniqueViolation(err) {
			var again domain.Country
			if err2 := db.WithContext(ctx).Where("name = ?", name).First(&again).Error; err2 != nil {
				return 0, err2
			}
			return again.ID, nil
		}
		return 0, err
	}
	return c.ID, nil
}

// ResolveCenter returns the surrogate id for a center, keyed by the
// (name, country_id) pair. The owning country must already be resolved;
// a center row never exists without its parent country context.
func ResolveCenter(ctx context.Context, db *gorm.DB, name string, countryID uint) (uint, error) {
	name = coerceUnknown(name)

	var ce domain.Center
	err := db.WithContext(ctx).
		Where("name = ? AND country_id = ?", name, countryID).
		First(&ce).Error
	if err == nil {
		return ce.ID, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, err
	}

	ce = domain.Center{Name: name, CountryID: countryID}
	if err := db.WithContext(ctx).Create(&ce).Error; err != nil {
		if isUniqueViolation(err) {
			var again domain.Center
			if err2 := db.WithContext(ctx).
				Where("name = ? AND country_id = ?", name, countryID).
				First(&again).Error; err2 != nil {
				return 0, err2
			}
			return again.ID, nil
		}
		return 0, err
	}
	return ce.ID, nil
}
