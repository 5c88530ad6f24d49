package main

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"
	"go.temporal.io/sdk/client"

	"github.com/postspark/postspark/spark"
)

func debugCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "rate-limit",
			Usage: "Test rate limiting",
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:    "count",
					Aliases: []string{"c"},
					Value:   10,
					Usage:   "Number of requests to make",
				},
				&cli.StringFlag{
					Name:    "endpoint",
					Aliases: []string{"e"},
					Value:   "http://localhost:8080",
					Usage:   "Server endpoint",
					EnvVars: []string{EnvServerEndpoint},
				},
			},
			Action: testRateLimit,
		},
		{
			Name:  "token-info",
			Usage: "Decode and display JWT token information",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "token",
					Required: true,
					Usage:    "JWT token to decode",
				},
			},
			Action: decodeToken,
		},
		{
			Name:  "scan",
			Usage: "Run a lead scan directly against the Reddit API",
			Flags: []cli.Flag{
				&cli.StringSliceFlag{
					Name:     "keyword",
					Aliases:  []string{"k"},
					Required: true,
					Usage:    "Keyword to search for (can be specified multiple times)",
				},
				&cli.StringFlag{
					Name:  "offer",
					Usage: "Offer description used for scoring",
				},
				&cli.StringSliceFlag{
					Name:    "subreddit",
					Aliases: []string{"sr"},
					Usage:   "Subreddit to prioritize (can be specified multiple times)",
				},
				&cli.StringFlag{
					Name:    "reddit-user-agent",
					Aliases: []string{"ua"},
					Usage:   "User agent string for Reddit API",
					Value:   "PostSpark/1.0",
					EnvVars: []string{spark.EnvRedditUserAgent},
				},
				&cli.StringFlag{
					Name:    "reddit-username",
					Usage:   "Reddit username for authentication",
					EnvVars: []string{spark.EnvRedditUsername},
				},
				&cli.StringFlag{
					Name:    "reddit-password",
					Usage:   "Reddit password for authentication",
					EnvVars: []string{spark.EnvRedditPassword},
				},
				&cli.StringFlag{
					Name:    "reddit-client-id",
					Usage:   "Reddit client ID for authentication",
					EnvVars: []string{spark.EnvRedditClientID},
				},
				&cli.StringFlag{
					Name:    "reddit-client-secret",
					Usage:   "Reddit client secret for authentication",
					EnvVars: []string{spark.EnvRedditClientSecret},
				},
			},
			Action: testScan,
		},
		{
			Name:  "trigger-refresh",
			Usage: "Start a campaign refresh workflow",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "campaign-id",
					Required: true,
					Usage:    "Campaign UUID to refresh",
				},
				&cli.StringFlag{
					Name:    "task-queue",
					Usage:   "Temporal task queue",
					EnvVars: []string{"TASK_QUEUE"},
					Value:   spark.TaskQueueName,
				},
				&cli.StringFlag{
					Name:    "temporal-address",
					Aliases: []string{"ta"},
					Usage:   "Temporal server address",
					EnvVars: []string{"TEMPORAL_ADDRESS"},
					Value:   "localhost:7233",
				},
				&cli.StringFlag{
					Name:    "temporal-namespace",
					Aliases: []string{"tn"},
					Usage:   "Temporal namespace",
					EnvVars: []string{"TEMPORAL_NAMESPACE"},
					Value:   "default",
				},
			},
			Action: triggerRefresh,
		},
	}
}

func testRateLimit(c *cli.Context) error {
	endpoint := c.String("endpoint")
	count := c.Int("count")

	fmt.Printf("Testing rate limiting with %d requests to %s\n", count, endpoint)

	client := &http.Client{}
	for i := 0; i < count; i++ {
		resp, err := client.Get(endpoint + "/ping")
		if err != nil {
			fmt.Printf("Request %d failed: %v\n", i+1, err)
			continue
		}

		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		fmt.Printf("Request %d: Status=%d, Body=%s\n", i+1, resp.StatusCode, string(body))
		if resp.StatusCode == http.StatusTooManyRequests {
			retryAfter := resp.Header.Get("Retry-After")
			fmt.Printf("Rate limit hit! Retry after %s seconds\n", retryAfter)
			break
		}

		time.Sleep(100 * time.Millisecond)
	}

	return nil
}

func decodeToken(c *cli.Context) error {
	token := c.String("token")
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return fmt.Errorf("invalid token format")
	}

	header, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return fmt.Errorf("failed to decode header: %w", err)
	}
	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return fmt.Errorf("failed to decode payload: %w", err)
	}

	var prettyHeader, prettyPayload interface{}
	json.Unmarshal(header, &prettyHeader)
	json.Unmarshal(payload, &prettyPayload)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	fmt.Println("Header:")
	enc.Encode(prettyHeader)
	fmt.Println("\nPayload:")
	enc.Encode(prettyPayload)

	return nil
}

func testScan(c *cli.Context) error {
	deps := spark.RedditDependencies{
		UserAgent:    c.String("reddit-user-agent"),
		Username:     c.String("reddit-username"),
		Password:     c.String("reddit-password"),
		ClientID:     c.String("reddit-client-id"),
		ClientSecret: c.String("reddit-client-secret"),
	}

	scanner := spark.NewScanner(
		&http.Client{Timeout: 30 * time.Second},
		rand.New(rand.NewSource(time.Now().UnixNano())),
		getDefaultLogger(slog.LevelInfo),
	)
	result, err := scanner.Scan(c.Context, &deps, spark.ScanInput{
		Keywords:       c.StringSlice("keyword"),
		Offer:          c.String("offer"),
		SubredditHints: c.StringSlice("subreddit"),
	})
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func triggerRefresh(c *cli.Context) error {
	campaignID, err := uuid.Parse(c.String("campaign-id"))
	if err != nil {
		return fmt.Errorf("invalid --campaign-id: %w", err)
	}

	tc, err := client.Dial(client.Options{
		Logger:    getDefaultLogger(slog.LevelInfo),
		HostPort:  c.String("temporal-address"),
		Namespace: c.String("temporal-namespace"),
	})
	if err != nil {
		return fmt.Errorf("failed to create Temporal client: %w", err)
	}
	defer tc.Close()

	workflowID := fmt.Sprintf("campaign-refresh-%s-%d", campaignID, time.Now().Unix())
	workflowOptions := client.StartWorkflowOptions{
		ID:        workflowID,
		TaskQueue: c.String("task-queue"),
	}

	run, err := tc.ExecuteWorkflow(c.Context, workflowOptions, spark.CampaignRefreshWorkflow, spark.CampaignRefreshWorkflowInput{
		CampaignID:  campaignID,
		RecordUsage: false,
	})
	if err != nil {
		return fmt.Errorf("failed to start workflow: %w", err)
	}

	var result spark.CampaignRefreshResult
	if err := run.Get(c.Context, &result); err != nil {
		return fmt.Errorf("workflow execution failed: %w", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
