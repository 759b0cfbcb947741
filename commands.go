package main

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/Eursukkul/booking-microservice/tenancy-service/config"
	"github.com/Eursukkul/booking-microservice/tenancy-service/internal/report"
	"github.com/Eursukkul/booking-microservice/tenancy-service/internal/repository"
	"github.com/Eursukkul/booking-microservice/tenancy-service/internal/service"
	"github.com/Eursukkul/booking-microservice/tenancy-service/internal/sweeper"
	"github.com/Eursukkul/booking-microservice/tenancy-service/pkg/database"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, the property consumer and the lease sweeper",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the schema and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB(config.Load())
			if err != nil {
				return err
			}
			log.Println("[Migrate] schema is up to date")
			return closeDB(db)
		},
	}
}

func sweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Complete every rented-out lease whose end date has passed, once",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB(config.Load())
			if err != nil {
				return err
			}
			defer closeDB(db)

			bookings := service.NewBookingService(repository.NewBookingRepository(db), repository.NewPropertyRepository(db))
			n := sweeper.New(bookings).RunOnce(cmd.Context())
			fmt.Printf("completed %d lease(s)\n", n)
			return nil
		},
	}
}

func statementCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "statement <early-exit-id>",
		Short: "Write the settlement statement of an early exit as xlsx",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil || id == 0 {
				return fmt.Errorf("invalid early exit id %q", args[0])
			}
			if out == "" {
				out = fmt.Sprintf("settlement-%d.xlsx", id)
			}

			db, err := openDB(config.Load())
			if err != nil {
				return err
			}
			defer closeDB(db)

			exit, err := repository.NewEarlyExitRepository(db).FindDetailed(cmd.Context(), uint(id))
			if err != nil {
				return fmt.Errorf("load early exit %d: %w", id, err)
			}

			f, err := os.Create(out)
			if err != nil {
				return err
			}
			if err := report.WriteStatement(f, exit); err != nil {
				f.Close()
				os.Remove(out)
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "", "output file (default settlement-<id>.xlsx)")
	return cmd
}

func openDB(cfg *config.Config) (*gorm.DB, error) {
	db, err := database.Open(cfg)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		closeDB(db)
		return nil, err
	}
	return db, nil
}

func closeDB(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
