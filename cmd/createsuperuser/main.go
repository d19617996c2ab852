// Command createsuperuser creates or resets a staff account interactively.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"formsadmin/internal/config"
	"formsadmin/internal/logging"
	"formsadmin/internal/storage"
)

const minPasswordLength = 8

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("unable to load configuration")
	}
	dbPath := flag.String("db", cfg.DatabasePath, "sqlite database file")
	flag.Parse()

	if err := logging.Setup("warn", "console", os.Stderr); err != nil {
		log.Fatal().Err(err).Msg("unable to configure logging")
	}

	ctx := context.Background()
	db, err := storage.Open(ctx, *dbPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", *dbPath).Msg("unable to open database")
	}
	defer db.Close()

	if err := run(ctx, db); err != nil {
		if errors.Is(err, terminal.InterruptErr) {
			fmt.Fprintln(os.Stderr, "Operation cancelled.")
			os.Exit(1)
		}
		log.Fatal().Err(err).Msg("createsuperuser failed")
	}
}

func run(ctx context.Context, db *storage.DB) error {
	var username string
	if err := survey.AskOne(&survey.Input{Message: "Username:"}, &username,
		survey.WithValidator(survey.Required),
		survey.WithValidator(validUsername),
	); err != nil {
		return err
	}
	username = strings.TrimSpace(username)

	var password string
	if err := survey.AskOne(&survey.Password{Message: "Password:"}, &password,
		survey.WithValidator(survey.MinLength(minPasswordLength)),
	); err != nil {
		return err
	}
	var again string
	if err := survey.AskOne(&survey.Password{Message: "Password (again):"}, &again); err != nil {
		return err
	}
	if password != again {
		return errors.New("passwords do not match")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	_, err = db.CreateUser(ctx, username, string(hash), true)
	if errors.Is(err, storage.ErrUsernameExists) {
		reset := false
		if err := survey.AskOne(&survey.Confirm{
			Message: fmt.Sprintf("User %q already exists. Reset the password?", username),
		}, &reset); err != nil {
			return err
		}
		if !reset {
			fmt.Println("Nothing changed.")
			return nil
		}
		if err := db.SetUserPassword(ctx, username, string(hash)); err != nil {
			return err
		}
		fmt.Printf("Password of %q updated.\n", username)
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Printf("Superuser %q created successfully.\n", username)
	return nil
}

func validUsername(ans interface{}) error {
	s, _ := ans.(string)
	s = strings.TrimSpace(s)
	if strings.ContainsAny(s, " \t\r\n") {
		return errors.New("username must not contain whitespace")
	}
	if len(s) > 150 {
		return errors.New("username must be at most 150 characters")
	}
	return nil
}
