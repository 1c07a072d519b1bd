package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/alderglen/lookout/internal/model"
	"github.com/alderglen/lookout/internal/ui"
)

var (
	watchURL      string
	watchInterval time.Duration
	watchType     string
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Tail recent bus traffic from a running relay",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		client := &http.Client{Timeout: 10 * time.Second}
		var lastSeen time.Time

		ticker := time.NewTicker(watchInterval)
		defer ticker.Stop()

		for {
			msgs, err := fetchMessages(ctx, client)
			if err != nil {
				fmt.Fprintln(os.Stderr, ui.RenderAlert("poll failed: "+err.Error()))
			} else {
				lastSeen = printNew(msgs, lastSeen)
			}

			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
			}
		}
	},
}

func init() {
	watchCmd.Flags().StringVar(&watchURL, "url", defaultServerURL(), "base URL of the relay HTTP API")
	watchCmd.Flags().DurationVar(&watchInterval, "interval", 2*time.Second, "poll interval")
	watchCmd.Flags().StringVar(&watchType, "type", "",
		"limit to one kind (events, reviews or tracked_objects)")
}

func defaultServerURL() string {
	if s := os.Getenv("LOOKOUT_HTTP_URL"); s != "" {
		return s
	}
	return "http://localhost:8080"
}

func fetchMessages(ctx context.Context, client *http.Client) ([]*model.BufferedMessage, error) {
	url := watchURL + "/v1/messages"
	if watchType != "" {
		url += "?type=" + watchType
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("server returned %s", resp.Status)
	}

	if watchType != "" {
		var msgs []*model.BufferedMessage
		if err := json.NewDecoder(resp.Body).Decode(&msgs); err != nil {
			return nil, err
		}
		return msgs, nil
	}

	var all struct {
		Events         []*model.BufferedMessage `json:"events"`
		Reviews        []*model.BufferedMessage `json:"reviews"`
		TrackedObjects []*model.BufferedMessage `json:"trackedObjects"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&all); err != nil {
		return nil, err
	}
	merged := append(all.Events, all.Reviews...)
	return append(merged, all.TrackedObjects...), nil
}

// printNew prints messages newer than lastSeen in arrival order and
// returns the newest timestamp printed.
func printNew(msgs []*model.BufferedMessage, lastSeen time.Time) time.Time {
	sort.Slice(msgs, func(i, j int) bool {
		return msgs[i].ReceivedAt.Before(msgs[j].ReceivedAt)
	})

	newest := lastSeen
	for _, m := range msgs {
		if !m.ReceivedAt.After(lastSeen) {
			continue
		}
		payload := string(m.Payload)
		if len(payload) > 160 {
			payload = payload[:160] + "…"
		}
		fmt.Printf("%s %s %s\n",
			ui.RenderMuted(m.ReceivedAt.Format("15:04:05")),
			ui.RenderAccent(m.Topic),
			payload)
		if m.ReceivedAt.After(newest) {
			newest = m.ReceivedAt
		}
	}
	return newest
}
