package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/tillbook/tillbook/internal/infrastructure/config"
	"github.com/tillbook/tillbook/internal/infrastructure/postgres"
)

var (
	baseURL string
	timeout time.Duration
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "tillbook-cli",
		Short: "Tillbook CLI tool",
		Long:  `A command line interface for operating a Tillbook deployment.`,
	}

	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "http://localhost:8080", "Base URL of the Tillbook API")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")

	// Ledger commands
	ledgerCmd := &cobra.Command{
		Use:   "ledger",
		Short: "Ledger operations",
	}
	verifyCmd := &cobra.Command{
		Use:   "verify [kind]",
		Short: "Replay every holder of one kind against its ledger",
		Long:  `Verifies that each holder's balance equals the replay of its ledger history. Kinds: stock, gift_card, register_cash, loyalty.`,
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			verifyLedger(args[0])
		},
	}
	ledgerCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(ledgerCmd)

	// Register commands
	registerCmd := &cobra.Command{
		Use:   "register",
		Short: "Cash register operations",
	}
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show the currently open register session",
		Run: func(cmd *cobra.Command, args []string) {
			registerStatus()
		},
	}
	reconcileCmd := &cobra.Command{
		Use:   "reconcile [id]",
		Short: "Reconcile one register session against its cash ledger",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			reconcileRegister(args[0])
		},
	}
	registerCmd.AddCommand(statusCmd, reconcileCmd)
	rootCmd.AddCommand(registerCmd)

	// Migration commands (direct database access, configured via env)
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migrations",
	}
	migrateUpCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			return postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath)
		},
	}
	migrateDownCmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back the last migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			return postgres.RunMigrationsDown(cfg.DatabaseURL, cfg.MigrationsPath)
		},
	}
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd)
	rootCmd.AddCommand(migrateCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func verifyLedger(kind string) {
	body := get("/api/v1/reports/ledger/" + kind + "/verify")

	var broken []map[string]any
	if err := json.Unmarshal(body, &broken); err != nil {
		fmt.Printf("Failed to parse response: %v\n", err)
		os.Exit(1)
	}

	if len(broken) == 0 {
		fmt.Printf("Ledger verification PASSED for kind %q\n", kind)
		return
	}

	fmt.Printf("Ledger verification FAILED for kind %q: %d holder(s) broken\n", kind, len(broken))
	for _, v := range broken {
		fmt.Printf("  holder=%v balance=%v replay_sum=%v\n", v["ref"], v["balance"], v["replay_sum"])
	}
	os.Exit(1)
}

func registerStatus() {
	client := &http.Client{Timeout: timeout}
	resp, err := client.Get(baseURL + "/api/v1/registers/current")
	if err != nil {
		fmt.Printf("Error making request: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode == http.StatusNotFound {
		fmt.Println("No register is currently open")
		return
	}
	if resp.StatusCode != http.StatusOK {
		fmt.Printf("Request failed (Status: %d)\nResponse: %s\n", resp.StatusCode, string(body))
		os.Exit(1)
	}

	var reg map[string]any
	if err := json.Unmarshal(body, &reg); err != nil {
		fmt.Printf("Failed to parse response: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Register %v at location %v\n", reg["id"], reg["location_id"])
	fmt.Printf("  opened by %v at %v\n", reg["opened_by"], reg["opened_at"])
	fmt.Printf("  cash on hand: %v\n", reg["cash_on_hand"])
}

func reconcileRegister(id string) {
	body := get("/api/v1/reports/registers/" + id + "/reconcile")

	var rec map[string]any
	if err := json.Unmarshal(body, &rec); err != nil {
		fmt.Printf("Failed to parse response: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Register %v (%v)\n", rec["register_id"], rec["status"])
	fmt.Printf("  cash on hand:   %v\n", rec["cash_on_hand"])
	fmt.Printf("  drawer balance: %v\n", rec["drawer_balance"])
	fmt.Printf("  ledger balance: %v\n", rec["ledger_balance"])
	if consistent, ok := rec["consistent"].(bool); ok && consistent {
		fmt.Println("Reconciliation PASSED")
		return
	}
	fmt.Println("Reconciliation FAILED")
	os.Exit(1)
}

func get(path string) []byte {
	client := &http.Client{Timeout: timeout}
	resp, err := client.Get(baseURL + path)
	if err != nil {
		fmt.Printf("Error making request: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		fmt.Printf("Request failed (Status: %d)\nResponse: %s\n", resp.StatusCode, string(body))
		os.Exit(1)
	}
	return body
}
