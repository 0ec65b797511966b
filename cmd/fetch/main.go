package main

import (
	"context"
	"fake-fetch/client"
	"fake-fetch/domain"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/gookit/color"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/olekukonko/tablewriter"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// Exit codes for the client application.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

// Config defines the client-side environment variables.
type Config struct {
	ServerAddress string        `envconfig:"FETCH_SERVER_ADDR" default:"localhost:8080"`
	DefaultDelay  time.Duration `envconfig:"DEFAULT_DELAY" default:"2500ms"`
	Timeout       time.Duration `envconfig:"FETCH_TIMEOUT" default:"1m"`
	Colours       bool          `envconfig:"FETCH_COLOURS" default:"true"`
}

func main() {
	code, err := run(os.Args[1:], os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Client error: %v\n", err)
	}
	os.Exit(code)
}

// command is what the flags ask the client to do.
type command struct {
	delay   time.Duration
	items   []string
	history int
	stats   bool
	id      string
}

func parseCommand(args []string, config Config) (command, error) {
	flags := flag.NewFlagSet("fetch", flag.ContinueOnError)
	delay := flags.Duration("delay", config.DefaultDelay, "latency of the fetch")
	items := flags.String("items", "", "comma separated items, default fruits when empty")
	history := flags.Int("history", 0, "print the last N journaled fetches instead of fetching")
	stats := flags.Bool("stats", false, "print the server counters instead of fetching")
	id := flags.String("id", "", "print one journaled fetch instead of fetching")
	if err := flags.Parse(args); err != nil {
		return command{}, err
	}
	return command{
		delay:   *delay,
		items:   splitItems(*items),
		history: *history,
		stats:   *stats,
		id:      strings.TrimSpace(*id),
	}, nil
}

func run(args []string, out io.Writer) (int, error) {
	_ = godotenv.Load()
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	cmd, err := parseCommand(args, config)
	if err != nil {
		return exitConfig, err
	}
	color.Enable = config.Colours

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, config.Timeout)
	defer cancel()

	conn, err := grpc.NewClient(config.ServerAddress, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return exitRuntime, fmt.Errorf("could not connect to server at %s: %w", config.ServerAddress, err)
	}
	defer func() { _ = conn.Close() }()

	return execute(ctx, client.NewFetchClient(conn), cmd, out)
}

// execute performs a single command against the server.
func execute(ctx context.Context, fetchClient *client.FetchClient, cmd command, out io.Writer) (int, error) {
	switch {
	case cmd.id != "":
		id, err := uuid.Parse(cmd.id)
		if err != nil {
			return exitConfig, fmt.Errorf("invalid id %q: %w", cmd.id, err)
		}
		record, err := fetchClient.Get(ctx, id)
		if err != nil {
			return exitRuntime, fmt.Errorf("get failed: %w", err)
		}
		printHistory(out, []domain.FetchRecord{record})
	case cmd.stats:
		snapshot, err := fetchClient.Stats(ctx)
		if err != nil {
			return exitRuntime, fmt.Errorf("stats failed: %w", err)
		}
		printStats(out, snapshot)
	case cmd.history > 0:
		records, _, err := fetchClient.History(ctx, &cmd.history, nil)
		if err != nil {
			return exitRuntime, fmt.Errorf("history failed: %w", err)
		}
		printHistory(out, records)
	default:
		start := time.Now()
		result, err := fetchClient.Fetch(ctx, cmd.delay, cmd.items...)
		if err != nil {
			return exitRuntime, fmt.Errorf("fetch failed: %w", err)
		}
		fmt.Fprintf(out, "%s %s\n",
			color.FgGreen.Render(fmt.Sprintf("resolved in %s:", time.Since(start).Round(time.Millisecond))),
			strings.Join(result, ", "),
		)
	}
	return exitOK, nil
}

func splitItems(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var items []string
	for _, item := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}

func printHistory(out io.Writer, records []domain.FetchRecord) {
	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"ID", "State", "Delay", "Settled", "Items", "Error"})
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)
	for _, record := range records {
		table.Append([]string{
			record.ID.String()[:8],
			stateColour(record.State).Render(string(record.State)),
			record.Delay.String(),
			record.SettledAt.Local().Format(time.TimeOnly),
			strings.Join(record.Items, ", "),
			record.Error,
		})
	}
	table.Render()
}

func printStats(out io.Writer, snapshot domain.StatsSnapshot) {
	fmt.Fprintf(out, "started=%d %s %s %s in_flight=%d rss=%dKiB\n",
		snapshot.Started,
		color.FgGreen.Render(fmt.Sprintf("resolved=%d", snapshot.Resolved)),
		color.FgRed.Render(fmt.Sprintf("rejected=%d", snapshot.Rejected)),
		color.FgYellow.Render(fmt.Sprintf("cancelled=%d", snapshot.Cancelled)),
		snapshot.InFlight,
		snapshot.RSSBytes/1024,
	)
}

func stateColour(state domain.FetchState) color.Color {
	switch state {
	case domain.RESOLVED:
		return color.FgGreen
	case domain.REJECTED:
		return color.FgRed
	case domain.CANCELLED:
		return color.FgYellow
	default:
		return color.FgDefault
	}
}
