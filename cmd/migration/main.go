package main

import (
	"civicore/cmd/migration/versions"
	"civicore/registry/schema"
	"flag"
	"fmt"
	"log"
	"net/url"
	"strings"

	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func postgresDsn(uri string) string {
	parts, err := url.Parse(uri)
	if err != nil {
		log.Fatalf("error parsing db uri: %v", err)
	}
	pwd, _ := parts.User.Password()
	dbname := strings.TrimPrefix(parts.Path, "/")
	return fmt.Sprintf("host=%v user=%v password=%v dbname=%v port=%v", parts.Hostname(), parts.User.Username(), pwd, dbname, parts.Port())
}

func main() {
	dbUri := flag.String("db_uri", "", "Postgres database URI")
	sqlitePath := flag.String("sqlite", "", "Sqlite database to migrate instead of postgres")
	flag.Parse()

	var dialector gorm.Dialector
	switch {
	case *dbUri != "":
		dialector = postgres.Open(postgresDsn(*dbUri))
	case *sqlitePath != "":
		dialector = sqlite.Open(*sqlitePath)
	default:
		log.Fatalf("one of --db_uri or --sqlite must be provided")
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		log.Fatalf("error opening database connection: %v", err)
	}

	migration := gormigrate.New(db, gormigrate.DefaultOptions, versions.Migrations())

	migration.InitSchema(func(txn *gorm.DB) error {
		log.Println("clean database detected, running full schema initialization")

		return txn.AutoMigrate(
			&schema.User{}, &schema.Document{}, &schema.Issuance{},
			&schema.Barangay{}, &schema.Template{}, &schema.CertSequence{},
		)
	})

	if err := migration.Migrate(); err != nil {
		log.Fatalf("migration failed: %v", err)
	}

	log.Println("migration completed successfully")
}
