package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	"github.com/linemk/print-shop/internal/app"
	"github.com/linemk/print-shop/internal/config"
	"github.com/linemk/print-shop/internal/domain/models"
	"github.com/linemk/print-shop/internal/storage"
	"golang.org/x/crypto/bcrypt"
)

const migrationTableName = "migrations"

// buildMigrateDSN добавляет к DSN имя таблицы версий миграций
func buildMigrateDSN(dbCfg config.DatabaseConfig, migrationTable string) string {
	return app.DSN(dbCfg) + "&x-migrations-table=" + migrationTable
}

func main() {
	// флаги объявляются до MustLoad: он сам вызывает flag.Parse
	var migrationsPathFlag, superuser string
	flag.StringVar(&migrationsPathFlag, "migrations-path", "", "path to migration files")
	flag.StringVar(&superuser, "superuser", "", "create a superuser with this name, password from SUPERUSER_PASSWORD")

	cfg := config.MustLoad()

	migrationsPath := cfg.Migrations.Path
	if migrationsPathFlag != "" {
		migrationsPath = migrationsPathFlag
	}

	// Создаем объект мигратора
	m, err := migrate.New(
		"file://"+migrationsPath,
		buildMigrateDSN(cfg.Database, migrationTableName),
	)
	if err != nil {
		log.Fatalf("failed to create migrate instance: %v", err)
	}

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			fmt.Println("No migrations to apply")
		} else {
			log.Fatalf("migration failed: %v", err)
		}
	} else {
		log.Println("Migrations applied successfully")
	}

	if superuser == "" {
		return
	}

	db, err := sql.Open("postgres", app.DSN(cfg.Database))
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	if err := createSuperuser(db, superuser, os.Getenv("SUPERUSER_PASSWORD")); err != nil {
		log.Fatalf("failed to create superuser: %v", err)
	}
}

func createSuperuser(db *sql.DB, username, password string) error {
	if len(password) < 8 {
		return errors.New("SUPERUSER_PASSWORD must be at least 8 characters")
	}
	passHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// роль суперпользователя не важна для политики доступа, хранится как student
	user, err := storage.NewUserRepository(db).CreateUser(ctx, &models.User{
		Username:    username,
		PassHash:    passHash,
		Role:        models.RoleStudent,
		IsApproved:  true,
		IsSuperuser: true,
	})
	if err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			log.Printf("user %q already exists, nothing to do", username)
			return nil
		}
		return err
	}
	log.Printf("superuser %q created with id %d", username, user.ID)
	return nil
}
