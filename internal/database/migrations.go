package database

import (
	"fmt"
	"sort"
	"time"

	"github.com/hynexus/hynexus-api/internal/models"
	"github.com/hynexus/hynexus-api/pkg/logger"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Migration is one reversible schema step.
type Migration struct {
	Version int
	Name    string
	Up      func(tx *gorm.DB) error
	Down    func(tx *gorm.DB) error
}

// SchemaMigration records an applied migration.
type SchemaMigration struct {
	Version   int    `gorm:"primaryKey;autoIncrement:false"`
	Name      string `gorm:"type:varchar(255);not null"`
	AppliedAt time.Time
}

func (SchemaMigration) TableName() string {
	return "schema_migrations"
}

// MigrationStatus is a migration plus whether it has been applied.
type MigrationStatus struct {
	Version   int
	Name      string
	Applied   bool
	AppliedAt *time.Time
}

// Migrations returns the ordered schema history.
func Migrations() []Migration {
	return []Migration{
		{
			Version: 1,
			Name:    "create_rbac_users_refresh_tokens",
			Up: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&models.Permission{}, &models.Role{}, &models.User{}, &models.RefreshToken{})
			},
			Down: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable("user_roles", "role_permissions",
					&models.RefreshToken{}, &models.User{}, &models.Role{}, &models.Permission{})
			},
		},
		{
			Version: 2,
			Name:    "create_servers",
			Up: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&models.Server{})
			},
			Down: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(&models.Server{})
			},
		},
		{
			Version: 3,
			Name:    "add_servers_status_featured_index",
			Up: func(tx *gorm.DB) error {
				return tx.Exec("CREATE INDEX IF NOT EXISTS idx_servers_status_featured ON servers (status, featured)").Error
			},
			Down: func(tx *gorm.DB) error {
				return tx.Exec("DROP INDEX IF EXISTS idx_servers_status_featured").Error
			},
		},
	}
}

// MigrateUp applies every pending migration in version order.
func MigrateUp(db *gorm.DB) error {
	if err := db.AutoMigrate(&SchemaMigration{}); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	applied, err := appliedVersions(db)
	if err != nil {
		return err
	}

	for _, m := range sorted(Migrations()) {
		if applied[m.Version] {
			continue
		}

		start := time.Now()
		err := db.Transaction(func(tx *gorm.DB) error {
			if err := m.Up(tx); err != nil {
				return err
			}
			return tx.Create(&SchemaMigration{Version: m.Version, Name: m.Name, AppliedAt: time.Now()}).Error
		})
		if err != nil {
			logger.Log.Error("Migration failed",
				zap.Int("version", m.Version),
				zap.String("name", m.Name),
				zap.Error(err),
			)
			return fmt.Errorf("migration %d (%s): %w", m.Version, m.Name, err)
		}

		logger.Log.Info("Migration applied",
			zap.Int("version", m.Version),
			zap.String("name", m.Name),
			zap.Duration("duration", time.Since(start)),
		)
	}

	return nil
}

// MigrateDown reverts the newest applied migrations, at most steps of them.
func MigrateDown(db *gorm.DB, steps int) error {
	if err := db.AutoMigrate(&SchemaMigration{}); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	applied, err := appliedVersions(db)
	if err != nil {
		return err
	}

	ordered := sorted(Migrations())
	for i := len(ordered) - 1; i >= 0 && steps > 0; i-- {
		m := ordered[i]
		if !applied[m.Version] {
			continue
		}

		err := db.Transaction(func(tx *gorm.DB) error {
			if err := m.Down(tx); err != nil {
				return err
			}
			return tx.Delete(&SchemaMigration{}, m.Version).Error
		})
		if err != nil {
			return fmt.Errorf("revert migration %d (%s): %w", m.Version, m.Name, err)
		}

		logger.Log.Info("Migration reverted",
			zap.Int("version", m.Version),
			zap.String("name", m.Name),
		)
		steps--
	}

	return nil
}

// Status lists every known migration and whether it is applied.
func Status(db *gorm.DB) ([]MigrationStatus, error) {
	if err := db.AutoMigrate(&SchemaMigration{}); err != nil {
		return nil, err
	}

	var rows []SchemaMigration
	if err := db.Find(&rows).Error; err != nil {
		return nil, err
	}
	byVersion := make(map[int]SchemaMigration, len(rows))
	for _, r := range rows {
		byVersion[r.Version] = r
	}

	var out []MigrationStatus
	for _, m := range sorted(Migrations()) {
		st := MigrationStatus{Version: m.Version, Name: m.Name}
		if r, ok := byVersion[m.Version]; ok {
			appliedAt := r.AppliedAt
			st.Applied = true
			st.AppliedAt = &appliedAt
		}
		out = append(out, st)
	}
	return out, nil
}

func appliedVersions(db *gorm.DB) (map[int]bool, error) {
	var versions []int
	if err := db.Model(&SchemaMigration{}).Pluck("version", &versions).Error; err != nil {
		return nil, fmt.Errorf("read schema_migrations: %w", err)
	}
	applied := make(map[int]bool, len(versions))
	for _, v := range versions {
		applied[v] = true
	}
	return applied, nil
}

func sorted(ms []Migration) []Migration {
	out := append([]Migration(nil), ms...)
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out
}
