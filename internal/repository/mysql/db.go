package mysql

import (
	"fmt"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"openbands/internal/model"
)

var DB *gorm.DB

func InitDB(dsn string) error {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)

	DB = db
	return nil
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.Community{},
		&model.CommunityRequirement{},
		&model.Membership{},
		&model.Post{},
		&model.Comment{},
		&model.Upvote{},
		&model.EventOutbox{},
	)
}

// VerifySchema makes the schema a hard startup dependency: every table the
// write paths touch must exist, there is no runtime fallback if one is
// missing.
func VerifySchema(db *gorm.DB) error {
	required := []any{
		&model.Community{},
		&model.CommunityRequirement{},
		&model.Membership{},
		&model.Post{},
		&model.Comment{},
		&model.Upvote{},
		&model.EventOutbox{},
	}
	for _, m := range required {
		if !db.Migrator().HasTable(m) {
			return fmt.Errorf("required table missing for %T", m)
		}
	}
	return nil
}
