package seeders

import (
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/webdiner/webdiner/app/models"
	"github.com/webdiner/webdiner/pkg/auth"
	"github.com/webdiner/webdiner/pkg/logger"
)

func init() {
	Register("departments", SeedDepartments)
	Register("users", SeedUsers)
	Register("vendors", SeedVendors)
}

// SeedDepartments creates the demo departments once.
func SeedDepartments(db *gorm.DB) error {
	for i, name := range []string{"Engineering", "Finance", "Operations"} {
		d := models.Department{Name: name, IsActive: true, DisplayColumn: 1 + i%2, DisplayOrder: i}
		if err := db.Where(models.Department{Name: name}).FirstOrCreate(&d).Error; err != nil {
			return fmt.Errorf("department %s: %w", name, err)
		}
	}
	return nil
}

// SeedUsers creates a sysadmin, an admin and a handful of employees. The
// password of every demo account is "password".
func SeedUsers(db *gorm.DB) error {
	hash, err := auth.HashPassword("password")
	if err != nil {
		return err
	}
	var dept models.Department
	if err := db.Where("name = ?", "Engineering").Take(&dept).Error; err != nil {
		return fmt.Errorf("engineering department: %w", err)
	}

	users := []models.User{
		{EmployeeCode: "root", Name: "System Administrator", Role: models.RoleSysAdmin},
		{EmployeeCode: "A0001", Name: "Office Manager", Role: models.RoleAdmin, Email: "office@example.com"},
	}
	for i := 1; i <= 8; i++ {
		users = append(users, models.User{
			EmployeeCode: fmt.Sprintf("E%04d", i),
			Name:         fmt.Sprintf("Employee %d", i),
			Email:        fmt.Sprintf("e%04d@example.com", i),
			Role:         models.RoleUser,
			DepartmentID: &dept.ID,
		})
	}
	for i := range users {
		users[i].Password = hash
		users[i].IsActive = true
	}

	res := db.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "employee_code"}}, DoNothing: true}).Create(&users)
	if res.Error != nil {
		return res.Error
	}
	logger.Info("seeders: users", "inserted", res.RowsAffected)
	return nil
}

type seedItem struct {
	name    string
	price   int64
	weekday *int
}

// SeedVendors creates two lunch vendors and their menus.
func SeedVendors(db *gorm.DB) error {
	wednesday := 2
	catalog := []struct {
		vendor models.Vendor
		items  []seedItem
	}{
		{
			models.Vendor{Name: "Golden Bento", Color: "#F59E0B", IsActive: true},
			[]seedItem{{"Chicken Leg Bento", 100, nil}, {"Pork Chop Bento", 95, nil}, {"Vegetarian Bento", 85, nil}},
		},
		{
			models.Vendor{Name: "Noodle House", Color: models.DefaultVendorColor, IsActive: true},
			[]seedItem{{"Beef Noodle Soup", 130, nil}, {"Dan Dan Noodles", 90, nil}, {"Curry Udon", 110, &wednesday}},
		},
	}

	for _, c := range catalog {
		v := c.vendor
		if err := db.Where(models.Vendor{Name: v.Name}).FirstOrCreate(&v).Error; err != nil {
			return fmt.Errorf("vendor %s: %w", v.Name, err)
		}
		for _, it := range c.items {
			m := models.MenuItem{VendorID: v.ID, Name: it.name, Price: decimal.NewFromInt(it.price), Weekday: it.weekday, IsActive: true}
			if err := db.Where(models.MenuItem{VendorID: v.ID, Name: it.name}).FirstOrCreate(&m).Error; err != nil {
				return fmt.Errorf("menu item %s: %w", it.name, err)
			}
		}
	}
	return nil
}
