// Command credits grants or revokes account credits. Operator tool, run with
// direct database access.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/francesca-tabor-ai/commerce-pix-sub001/internal/adapter/repo"
	"github.com/francesca-tabor-ai/commerce-pix-sub001/internal/infra"
)

func main() {
	var (
		idFlag    string
		emailFlag string
		centsFlag int
		planFlag  string
	)
	flag.StringVar(&idFlag, "id", "", "user ID to credit (UUID)")
	flag.StringVar(&emailFlag, "email", "", "user email to credit")
	flag.IntVar(&centsFlag, "cents", 0, "credit delta in cents (negative to revoke)")
	flag.StringVar(&planFlag, "plan", "", "plan to assign (free, pro); empty keeps the current plan")
	flag.Parse()

	userID := strings.TrimSpace(idFlag)
	email := strings.TrimSpace(strings.ToLower(emailFlag))
	plan := strings.TrimSpace(strings.ToLower(planFlag))
	if userID == "" && email == "" {
		exitWithError(errors.New("either -id or -email must be provided"))
	}
	if centsFlag == 0 && plan == "" {
		exitWithError(errors.New("nothing to do: provide -cents and/or -plan"))
	}
	if plan != "" && plan != "free" && plan != "pro" {
		exitWithError(fmt.Errorf("unknown plan %q", plan))
	}

	_ = godotenv.Load()
	cfg, err := infra.LoadConfig()
	if err != nil {
		exitWithError(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		exitWithError(err)
	}
	defer pool.Close()

	if userID == "" {
		if err := pool.QueryRow(ctx, `SELECT id FROM users WHERE email = $1;`, email).Scan(&userID); err != nil {
			exitWithError(fmt.Errorf("resolve email %s: %w", email, err))
		}
	}

	users := repo.NewUserRepository(pool)
	if centsFlag != 0 {
		if err := users.AddCredits(ctx, userID, centsFlag); err != nil {
			exitWithError(fmt.Errorf("add credits: %w", err))
		}
	}
	if plan != "" {
		if _, err := pool.Exec(ctx, `UPDATE users SET plan = $2, updated_at = NOW() WHERE id = $1;`, userID, plan); err != nil {
			exitWithError(fmt.Errorf("set plan: %w", err))
		}
	}

	user, err := users.GetByID(ctx, userID)
	if err != nil {
		exitWithError(err)
	}
	fmt.Printf("user %s (%s) plan=%s balance=%d cents\n", user.ID, user.Email, user.Plan, user.CreditCents)
}

func exitWithError(err error) {
	fmt.Fprintln(os.Stderr, "error:", err)
	os.Exit(1)
}
