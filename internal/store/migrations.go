package store

import (
	"database/sql"
	"log"

	assets "github.com/haatos/simple-deploy"
	"github.com/haatos/simple-deploy/internal/settings"
	"github.com/pressly/goose/v3"
)

func RunMigrations(db *sql.DB, dir string) {
	goose.SetBaseFS(assets.MigrationsFS)
	dialect := "sqlite"
	if settings.Settings != nil && settings.Settings.UsesPostgres() {
		dialect = "postgres"
	}
	if err := goose.SetDialect(dialect); err != nil {
		log.Fatal(err)
	}
	if err := goose.Up(db, dir); err != nil {
		log.Fatal(err)
	}
}
