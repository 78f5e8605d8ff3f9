package migration

import (
	auditdomain "github.com/abruzzotech/attesta/internal/audit/domain"
	catastodomain "github.com/abruzzotech/attesta/internal/catasto/domain"
	"github.com/abruzzotech/attesta/internal/config"
	visuradomain "github.com/abruzzotech/attesta/internal/visura/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if cfg.DBType != "postgres" {
			// sqlite has no embedded migration path, gorm derives the schema.
			return conn.AutoMigrate(
				&visuradomain.Visura{},
				&catastodomain.Address{},
				&catastodomain.Person{},
				&catastodomain.Immobile{},
				&catastodomain.ImmobileElement{},
				&catastodomain.Contract{},
				&auditdomain.CanoneCalculation{},
				&auditdomain.AttestazioneLog{},
			)
		}

		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}

		return RunMigrations(sqlDB)
	}),
)
