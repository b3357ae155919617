package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"concierge/internal/travel"
)

// dbCmd groups the travel database maintenance commands.
var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Manage the travel database",
}

// dbInitCmd provisions the schema and sample dataset.
var dbInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the travel database schema and load sample data",
	Long: `Creates (or recreates) the flights, tickets, car rental, hotel, and
trip recommendation tables and loads a sample dataset whose dates are
relative to the current time.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := travel.Open(cfg.Database.TravelPath)
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.Init(cmd.Context()); err != nil {
			return err
		}
		logger.Info("travel database initialized", zap.String("path", store.Path()))
		fmt.Printf("Initialized travel database at %s\n", store.Path())
		return nil
	},
}

// dbShiftDatesCmd refreshes a stale dataset.
var dbShiftDatesCmd = &cobra.Command{
	Use:   "shift-dates",
	Short: "Shift all timestamps so the dataset looks current",
	Long: `Moves every flight, rental, and hotel timestamp forward so the latest
scheduled departure aligns with now. Useful after restoring an old
database snapshot.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := travel.Open(cfg.Database.TravelPath)
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.ShiftDates(cmd.Context()); err != nil {
			return err
		}
		logger.Info("travel database timestamps shifted", zap.String("path", store.Path()))
		fmt.Println("Shifted database timestamps to the current time.")
		return nil
	},
}

func init() {
	dbCmd.AddCommand(dbInitCmd)
	dbCmd.AddCommand(dbShiftDatesCmd)
}
