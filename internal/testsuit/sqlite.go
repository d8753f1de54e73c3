// Package testsuit holds the shared fixtures of the package tests.
package testsuit

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"rise_local_back_end/internal/database"
	"rise_local_back_end/internal/models"
)

// InitSQLite opens a migrated in-memory database. A single connection keeps
// every goroutine of a test on the same memory database.
func InitSQLite() *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		panic(err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		panic(err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := database.Migrate(db); err != nil {
		panic(err)
	}
	return db
}

// Clock is a settable time source for services that take a now func.
type Clock struct {
	T time.Time
}

func NewClock(t time.Time) *Clock { return &Clock{T: t.UTC()} }

func (c *Clock) Now() time.Time { return c.T }

func (c *Clock) Advance(d time.Duration) { c.T = c.T.Add(d) }

func CreateUser(db *gorm.DB, mutate ...func(*models.User)) *models.User {
	u := &models.User{
		ID:       uuid.NewString(),
		Email:    uuid.NewString() + "@example.com",
		Name:     "Test User",
		Role:     models.RoleConsumer,
		Provider: "local",
	}
	for _, m := range mutate {
		m(u)
	}
	must(db.Create(u).Error)
	return u
}

func CreateVendor(db *gorm.DB, mutate ...func(*models.Vendor)) *models.Vendor {
	id := uuid.NewString()
	v := &models.Vendor{
		ID:       id,
		Name:     "Corner Bakery",
		Slug:     "corner-bakery-" + id[:8],
		Category: models.VendorCategoryRestaurant,
		City:     "Austin",
		IsActive: true,
	}
	for _, m := range mutate {
		m(v)
	}
	must(db.Create(v).Error)
	return v
}

// CreateStaff creates a vendor user acting for vendorID.
func CreateStaff(db *gorm.DB, vendorID string) *models.User {
	return CreateUser(db, func(u *models.User) {
		u.Role = models.RoleVendor
		u.VendorID = &vendorID
	})
}

func CreateDeal(db *gorm.DB, vendorID string, mutate ...func(*models.Deal)) *models.Deal {
	d := &models.Deal{
		ID:                  uuid.NewString(),
		VendorID:            vendorID,
		Title:               "Buy one coffee, get one free",
		DealType:            models.DealTypeBOGO,
		RedemptionFrequency: models.FrequencyOnce,
		CodeType:            models.CodeTypeUnique,
		Status:              models.DealStatusPublished,
	}
	for _, m := range mutate {
		m(d)
	}
	must(db.Create(d).Error)
	return d
}

// CreateCodes stocks a deal's UNIQUE pool with the given codes.
func CreateCodes(db *gorm.DB, dealID string, codes ...string) []models.CouponCode {
	out := make([]models.CouponCode, 0, len(codes))
	for i, c := range codes {
		out = append(out, models.CouponCode{
			ID:        uuid.NewString(),
			DealID:    dealID,
			Code:      c,
			CreatedAt: time.Now().UTC().Add(time.Duration(i) * time.Millisecond),
		})
	}
	if len(out) > 0 {
		must(db.Create(&out).Error)
	}
	return out
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}
