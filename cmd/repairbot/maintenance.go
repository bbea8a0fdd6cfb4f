package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/khayai/repairbot/internal/domain"
	"github.com/khayai/repairbot/internal/services"
	"github.com/khayai/repairbot/internal/sysutil"
)

// --- migrate ---

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create missing tables and columns, then exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB(cfg)
		if err != nil {
			return err
		}
		if sqlDB, err := db.DB(); err == nil {
			defer sqlDB.Close()
		}
		fmt.Fprintln(cmd.OutOrStdout(), "schema is up to date")
		return nil
	},
}

// --- counters ---

var countersCmd = &cobra.Command{
	Use:   "counters",
	Short: "Inspect and maintain the Request-ID counters",
}

var countersStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "List every period with its request count",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newStoreApp(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer a.close()

		stats, err := a.counters.Stats(cmd.Context())
		if err != nil {
			return err
		}
		return printStats(cmd.OutOrStdout(), stats)
	},
}

var countersResetCmd = &cobra.Command{
	Use:   "reset PERIOD",
	Short: "Reset the counter of a YYMM period to zero",
	Long: `Reset the counter of a YYMM period to zero.

Ticket numbers of that period will be handed out again. Use only after
the period's requests were removed.

Example:
  repairbot counters reset 2506 --yes`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if yes, _ := cmd.Flags().GetBool("yes"); !yes {
			return fmt.Errorf("refusing to reset %s without --yes", args[0])
		}
		a, err := newStoreApp(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer a.close()

		if err := a.counters.Reset(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "counter %s reset\n", args[0])
		return nil
	},
}

var countersBackupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Write all counters as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newStoreApp(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer a.close()

		backup, err := a.counters.Backup(cmd.Context())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if path, _ := cmd.Flags().GetString("out"); path != "" {
			f, err := os.Create(path)
			if err != nil {
				return fmt.Errorf("create backup file: %w", err)
			}
			defer f.Close()
			out = f
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(backup)
	},
}

var countersCleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Delete counters older than --keep-years",
	RunE: func(cmd *cobra.Command, args []string) error {
		keep, _ := cmd.Flags().GetInt("keep-years")
		if keep < 1 {
			return fmt.Errorf("--keep-years must be >= 1")
		}
		a, err := newStoreApp(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer a.close()

		res, err := a.counters.Cleanup(cmd.Context(), keep)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deleted %d counters before %s\n", res.Deleted, res.Cutoff)
		return nil
	},
}

func init() {
	countersResetCmd.Flags().Bool("yes", false, "confirm the reset")
	countersBackupCmd.Flags().String("out", "", "write to this file instead of stdout")
	countersCleanupCmd.Flags().Int("keep-years", services.DefaultKeepYears, "years of counters to keep")
	countersCmd.AddCommand(countersStatsCmd, countersResetCmd, countersBackupCmd, countersCleanupCmd)
}

func printStats(w io.Writer, stats []services.PeriodStats) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PERIOD\tMONTH\tREQUESTS\tLAST ID")
	for _, s := range stats {
		last := s.LastRequestID
		if last == "" {
			last = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", s.Period, s.DisplayName, s.TotalRequests, last)
	}
	return tw.Flush()
}

// --- admin ---

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Manage dashboard accounts",
}

var adminCreateCmd = &cobra.Command{
	Use:   "create USERNAME",
	Short: "Create a dashboard account",
	Long: `Create a dashboard account.

The password comes from --password or REPAIRBOT_ADMIN_PASSWORD.

Example:
  REPAIRBOT_ADMIN_PASSWORD=secret repairbot admin create somchai --role admin --name "สมชาย ใจดี"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		flagPw, _ := cmd.Flags().GetString("password")
		role, _ := cmd.Flags().GetString("role")
		name, _ := cmd.Flags().GetString("name")
		email, _ := cmd.Flags().GetString("email")

		password := sysutil.FirstNonEmpty(flagPw, os.Getenv("REPAIRBOT_ADMIN_PASSWORD"))
		if password == "" {
			return fmt.Errorf("a password is required (--password or REPAIRBOT_ADMIN_PASSWORD)")
		}

		a, err := newStoreApp(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer a.close()

		u, err := a.accounts.Create(cmd.Context(), services.NewAdminUser{
			Username: args[0],
			Password: password,
			Role:     role,
			FullName: name,
			Email:    email,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "created %s (%s)\n", u.Username, u.Role)
		return nil
	},
}

func init() {
	adminCreateCmd.Flags().String("password", "", "account password")
	adminCreateCmd.Flags().String("role", string(domain.RoleTechnician), "technician, executive or admin")
	adminCreateCmd.Flags().String("name", "", "full name")
	adminCreateCmd.Flags().String("email", "", "email address")
	adminCmd.AddCommand(adminCreateCmd)
}
