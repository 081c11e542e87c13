package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/florahq/trellis/internal/config"
	"github.com/florahq/trellis/internal/garden"
	"github.com/florahq/trellis/internal/plant"
	"github.com/florahq/trellis/internal/user"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed a demo user, garden, and plants",
	RunE:  runSeed,
}

func init() {
	rootCmd.AddCommand(seedCmd)
}

const (
	demoEmail    = "demo@trellis.dev"
	demoPassword = "greenhouse"
)

var demoPlants = []plant.CreatePlantInput{
	{
		Name:     "Monstera deliciosa",
		Nickname: "Monty",
		Location: plant.LocationIndoor,
		Area:     "living room",
		Notes:    "Prefers bright indirect light. Wipe leaves monthly.",
	},
	{
		Name:     "Ficus lyrata",
		Nickname: "Fig",
		Location: plant.LocationIndoor,
		Area:     "hallway",
		Notes:    "Drops leaves when moved. Keep away from drafts.",
	},
	{
		Name:     "Lavandula angustifolia",
		Nickname: "Lavender",
		Location: plant.LocationOutdoor,
		Area:     "south bed",
		Notes:    "Drought tolerant once established.",
	},
	{
		Name:     "Solanum lycopersicum",
		Nickname: "Cherry tomato",
		Location: plant.LocationOutdoor,
		Area:     "raised bed",
		Notes:    "Pinch side shoots weekly during the season.",
	},
}

var demoSchedules = map[string][]plant.UpsertScheduleInput{
	"Monty": {
		{CareType: plant.CareWatering, IntervalDays: 7},
		{CareType: plant.CareFertilizing, IntervalDays: 30},
	},
	"Fig": {
		{CareType: plant.CareWatering, IntervalDays: 10},
	},
	"Lavender": {
		{CareType: plant.CarePruning, IntervalDays: 90},
	},
	"Cherry tomato": {
		{CareType: plant.CareWatering, IntervalDays: 2},
		{CareType: plant.CareFertilizing, IntervalDays: 14},
	},
}

func runSeed(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.Database.URL)
	if err != nil {
		return err
	}
	defer pool.Close()

	userStore := user.NewStore(pool)
	plantStore := plant.NewStore(pool)
	gardenStore := garden.NewStore(pool)
	plantService := plant.NewService(plantStore)
	gardenService := garden.NewService(gardenStore, plantStore)

	// Check if seed has already run.
	if existing, err := userStore.GetByEmail(ctx, demoEmail); err == nil && existing != nil {
		slog.Info("demo data already exists, skipping seed")
		return nil
	}

	u, err := userStore.Create(ctx, user.CreateUserInput{
		Email:    demoEmail,
		Password: demoPassword,
		Name:     "Demo Gardener",
	})
	if err != nil {
		return fmt.Errorf("creating demo user: %w", err)
	}
	slog.Info("created demo user", "id", u.ID, "email", u.Email)

	g, err := gardenService.Create(ctx, u.ID, garden.CreateGardenInput{
		Name:        "Back Garden",
		Description: "Shared household garden with beds and containers",
	})
	if err != nil {
		return fmt.Errorf("creating demo garden: %w", err)
	}
	slog.Info("created demo garden", "id", g.ID, "name", g.Name)

	for _, input := range demoPlants {
		p, err := plantService.Create(ctx, u.ID, input)
		if err != nil {
			return fmt.Errorf("creating plant %q: %w", input.Name, err)
		}
		slog.Info("created plant", "id", p.ID, "name", p.Name)

		if input.Location == plant.LocationOutdoor {
			if _, err := gardenService.AddPlant(ctx, u.ID, g.ID, p.ID); err != nil {
				return fmt.Errorf("adding plant %q to garden: %w", input.Name, err)
			}
		}

		for _, sched := range demoSchedules[p.Nickname] {
			sched.PlantID = p.ID
			if _, err := plantService.SaveSchedule(ctx, u.ID, sched); err != nil {
				return fmt.Errorf("creating schedule for %q: %w", input.Name, err)
			}
		}
	}

	token, _, err := userStore.CreateSession(ctx, u.ID)
	if err != nil {
		return fmt.Errorf("creating demo session: %w", err)
	}

	fmt.Printf("\n=== Demo Data Seeded ===\n")
	fmt.Printf("User:      %s / %s\n", demoEmail, demoPassword)
	fmt.Printf("Garden:    %s (%s)\n", g.Name, g.ID)
	fmt.Printf("Plants:    %d created\n", len(demoPlants))
	fmt.Printf("Token:     %s\n", token)
	fmt.Printf("\nTry it:\n")
	fmt.Printf("  curl -H 'Authorization: Bearer %s' http://localhost:8080/api/v1/care/upcoming\n", token)
	fmt.Printf("  curl -H 'Authorization: Bearer %s' http://localhost:8080/api/v1/gardens/%s/plants\n", token, g.ID)

	return nil
}
