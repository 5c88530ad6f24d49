package worker

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	"github.com/postspark/postspark/db/dbgen"
	"github.com/postspark/postspark/spark"

	"github.com/jackc/pgx/v5/pgxpool"
)

// RunWorker connects to Temporal and the database and serves the campaign
// refresh task queue until the context is cancelled.
func RunWorker(ctx context.Context, l *slog.Logger, thp, tns string) error {
	// connect to temporal
	c, err := client.Dial(client.Options{
		Logger:    l,
		HostPort:  thp,
		Namespace: tns,
	})
	if err != nil {
		return fmt.Errorf("couldn't initialize temporal client: %w", err)
	}
	defer c.Close()

	// activities talk to the database directly
	dbURL := os.Getenv(spark.EnvDatabaseURL)
	if dbURL == "" {
		return fmt.Errorf("%s environment variable not set", spark.EnvDatabaseURL)
	}
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		return fmt.Errorf("couldn't create database pool: %w", err)
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("couldn't ping database: %w", err)
	}

	activities, err := spark.NewActivities(dbgen.New(pool))
	if err != nil {
		return fmt.Errorf("failed to create activities: %w", err)
	}

	taskQueue := os.Getenv(spark.EnvTaskQueue)
	if taskQueue == "" {
		return fmt.Errorf("%s environment variable not set", spark.EnvTaskQueue)
	}
	w := worker.New(c, taskQueue, worker.Options{})

	w.RegisterWorkflow(spark.CampaignRefreshWorkflow)
	w.RegisterWorkflow(spark.RefreshActiveCampaignsWorkflow)

	w.RegisterActivity(activities.GetCampaignInfo)
	w.RegisterActivity(activities.ScanCampaignLeads)
	w.RegisterActivity(activities.PersistLeads)
	w.RegisterActivity(activities.RecordRefreshUsage)
	w.RegisterActivity(activities.ListActiveCampaignIDs)

	l.Info("Starting worker", "TaskQueue", taskQueue)
	err = w.Run(worker.InterruptCh())
	l.Info("Worker stopped")
	return err
}

// CheckConnection verifies the Temporal server is reachable.
func CheckConnection(ctx context.Context, l *slog.Logger, thp, tns string) error {
	c, err := client.Dial(client.Options{
		Logger:    l,
		HostPort:  thp,
		Namespace: tns,
	})
	if err != nil {
		return fmt.Errorf("couldn't initialize temporal client: %w", err)
	}
	defer c.Close()
	if _, err := c.CheckHealth(ctx, &client.CheckHealthRequest{}); err != nil {
		return fmt.Errorf("temporal health check failed: %w", err)
	}
	return nil
}
