package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/annel0/alarm-missions/internal/eventbus"
)

const (
	defaultAPIAddr  = "http://localhost:8088"
	defaultNATSAddr = "nats://127.0.0.1:4222"
	timeFormat      = "2006-01-02T15:04:05Z"
)

func main() {
	var (
		apiAddr    = flag.String("api", defaultAPIAddr, "REST API address")
		natsAddr   = flag.String("nats", defaultNATSAddr, "NATS server for follow mode")
		stream     = flag.String("stream", "MISSIONS", "JetStream stream name")
		command    = flag.String("cmd", "tail", "Command: tail, stats, types")
		eventTypes = flag.String("types", "", "Event types filter (comma-separated)")
		session    = flag.String("session", "", "Mission session ID filter")
		since      = flag.String("since", "1h", "Time duration since now (e.g., 1h, 30m, 1d)")
		limit      = flag.Int("limit", 100, "Maximum number of events")
		follow     = flag.Bool("follow", false, "Follow new events from JetStream (like tail -f)")
	)
	flag.Parse()

	client := &apiClient{base: strings.TrimRight(*apiAddr, "/"), http: &http.Client{Timeout: 10 * time.Second}}

	switch *command {
	case "tail":
		opts := TailOptions{
			EventTypes: parseStringList(*eventTypes),
			Session:    *session,
			Since:      *since,
			Limit:      *limit,
		}
		var err error
		if *follow {
			err = followEvents(*natsAddr, *stream, opts)
		} else {
			err = tailEvents(client, opts)
		}
		if err != nil {
			log.Fatalf("❌ Tail failed: %v", err)
		}

	case "stats":
		if err := showStats(client); err != nil {
			log.Fatalf("❌ Stats failed: %v", err)
		}

	case "types":
		if err := showTypes(client); err != nil {
			log.Fatalf("❌ Types failed: %v", err)
		}

	default:
		fmt.Printf("❌ Unknown command: %s\n", *command)
		fmt.Println("Available commands: tail, stats, types")
		os.Exit(1)
	}
}

type TailOptions struct {
	EventTypes []string
	Session    string
	Since      string
	Limit      int
}

type apiClient struct {
	base string
	http *http.Client
}

type apiResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (c *apiClient) get(path string, query url.Values, out interface{}) error {
	endpoint := c.base + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	resp, err := c.http.Get(endpoint)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var body apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	if !body.Success {
		return fmt.Errorf("%s: %d %s", path, resp.StatusCode, body.Message)
	}
	return json.Unmarshal(body.Data, out)
}

// tailEvents выводит недавние события из журнала сервиса
func tailEvents(client *apiClient, opts TailOptions) error {
	startTime, err := parseSinceTime(opts.Since, time.Now())
	if err != nil {
		return fmt.Errorf("invalid since time: %v", err)
	}
	fmt.Printf("🎬 Events since %s (limit: %d)\n", startTime.Format(timeFormat), opts.Limit)

	query := url.Values{}
	query.Set("since", startTime.UTC().Format(time.RFC3339))
	query.Set("limit", strconv.Itoa(opts.Limit))
	if len(opts.EventTypes) > 0 {
		query.Set("type", strings.Join(opts.EventTypes, ","))
	}
	if opts.Session != "" {
		query.Set("correlation_id", opts.Session)
	}

	var page struct {
		Events []*eventbus.Envelope `json:"events"`
		Total  int                  `json:"total"`
	}
	if err := client.get("/api/events", query, &page); err != nil {
		return err
	}
	for _, ev := range page.Events {
		printEvent(ev)
	}
	fmt.Printf("\n📊 Total events: %d\n", page.Total)
	return nil
}

// followEvents подписывается на JetStream и печатает события до Ctrl+C
func followEvents(natsAddr, stream string, opts TailOptions) error {
	bus, err := eventbus.NewJetStreamBus(natsAddr, stream, 0)
	if err != nil {
		return fmt.Errorf("connect %s: %w", natsAddr, err)
	}
	defer bus.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sub, err := bus.Subscribe(ctx, eventbus.Filter{Types: opts.EventTypes}, func(_ context.Context, ev *eventbus.Envelope) {
		if opts.Session != "" && ev.CorrelationID != opts.Session {
			return
		}
		printEvent(ev)
	})
	if err != nil {
		return err
	}
	defer sub.Unsubscribe()

	fmt.Printf("🎬 Following %s on %s (Ctrl+C to stop)\n", eventbus.Subject(">"), natsAddr)
	<-ctx.Done()
	return nil
}

func showStats(client *apiClient) error {
	var body struct {
		Stats struct {
			Stored  int            `json:"stored"`
			Dropped uint64         `json:"dropped"`
			ByType  map[string]int `json:"by_type"`
		} `json:"stats"`
		Types []string `json:"types"`
	}
	if err := client.get("/api/events/stats", nil, &body); err != nil {
		return err
	}
	fmt.Println("📊 Event statistics")
	fmt.Printf("   Stored: %d, dropped: %d\n", body.Stats.Stored, body.Stats.Dropped)
	for _, t := range body.Types {
		fmt.Printf("   %-24s %d\n", t, body.Stats.ByType[t])
	}
	return nil
}

func showTypes(client *apiClient) error {
	var body struct {
		Types []string `json:"types"`
	}
	if err := client.get("/api/events/stats", nil, &body); err != nil {
		return err
	}
	fmt.Println("📋 Event types seen:")
	for _, t := range body.Types {
		fmt.Printf("   • %s\n", t)
	}
	return nil
}

func printEvent(ev *eventbus.Envelope) {
	corr := ev.CorrelationID
	if corr == "" {
		corr = "-"
	}
	fmt.Printf("%s [%s] %-22s session=%s p=%d %s\n",
		ev.Timestamp.Format(timeFormat), ev.Source, ev.EventType, corr, ev.Priority, string(ev.Payload))
}

func parseStringList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// parseSinceTime понимает длительности Go и суффикс "d" для дней
func parseSinceTime(since string, now time.Time) (time.Time, error) {
	if strings.HasSuffix(since, "d") {
		days, err := strconv.Atoi(strings.TrimSuffix(since, "d"))
		if err != nil {
			return time.Time{}, err
		}
		return now.Add(-time.Duration(days) * 24 * time.Hour), nil
	}
	d, err := time.ParseDuration(since)
	if err != nil {
		return time.Time{}, err
	}
	return now.Add(-d), nil
}
