package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oficiosya/dispatch/app"
	"github.com/oficiosya/dispatch/config"
	"github.com/oficiosya/dispatch/core/dispatch"
	"github.com/oficiosya/dispatch/core/model"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run one dispatch cycle against a seeded in-memory fleet",
	RunE:  simulate,
}

func init() {
	rootCmd.AddCommand(simulateCmd)
}

func simulate(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	seedFleet(svc)

	req, err := svc.Orchestrator.CreateRequest(ctx, model.UrgentRequest{
		RequesterID: "client-demo",
		Description: "Caño roto en la cocina, pérdida de agua",
		Lat:         -34.6037,
		Lon:         -58.3816,
		Urgency:     model.UrgencyHigh,
		Category:    "plomeria",
	})
	if err != nil {
		return err
	}
	res, err := svc.Orchestrator.Dispatch(ctx, req.ID)
	if err != nil {
		return err
	}
	fmt.Printf("request %s: outcome=%s candidates=%d\n", req.ID, res.Outcome, len(res.Created))
	for _, c := range res.Created {
		fmt.Printf("  %-8s %.2f km, ETA %d min\n", c.ProfessionalID, c.DistanceKm, c.EstimatedArrivalMin)
	}
	if res.Outcome != dispatch.OutcomeDispatched {
		return nil
	}

	price := 9500.0
	winner := res.Created[0].ProfessionalID
	a, err := svc.Orchestrator.Accept(ctx, req.ID, winner, &price)
	if err != nil {
		return err
	}
	fmt.Printf("accepted by %s, assignment %s\n", winner, a.ID)
	if err := svc.Orchestrator.Complete(ctx, a.ID, winner); err != nil {
		return err
	}
	fmt.Println("assignment completed")
	return nil
}

func seedFleet(svc *app.Service) {
	pros := []model.ProfessionalSnapshot{
		{ID: "pro-1", Lat: -34.598, Lon: -58.383, Specialties: []string{"Plomero y gasista"}, Available: true, ReputationScore: 90, Punctual: true, IdentityVerified: true, HasDescription: true, HasPhoto: true, YearsExperience: 8, Verified: true},
		{ID: "pro-2", Lat: -34.627, Lon: -58.410, Specialties: []string{"Plomería general"}, Available: true, ReputationScore: 72, HasDescription: true, YearsExperience: 3},
		{ID: "pro-3", Lat: -34.571, Lon: -58.423, Specialties: []string{"Electricista matriculado"}, Available: true, ReputationScore: 95},
		{ID: "pro-4", Lat: -34.610, Lon: -58.372, Specialties: []string{"Destapaciones y sanitarios"}, Available: true, ReputationScore: 60, HasPhoto: true},
		{ID: "pro-5", Lat: -34.640, Lon: -58.562, Specialties: []string{"Plomero"}, Available: false, ReputationScore: 88},
	}
	for _, p := range pros {
		svc.Store.UpsertProfessional(p)
	}
}
