// Command feedwatch follows one workspace's flagged messages in a terminal.
// It rings the bell for every new message and prints popups when desktop
// notifications are enabled in the config.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/gookit/color"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
	"github.com/olekukonko/tablewriter"

	"support-feed/internal/changefeed"
	"support-feed/internal/config"
	"support-feed/internal/feed"
	"support-feed/internal/messaging"
	"support-feed/internal/model"
	"support-feed/internal/notify"
	"support-feed/internal/storage"
	"support-feed/internal/worker"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "config.yaml", "Path to the YAML config")
	workspace := flag.String("workspace", "", "Workspace UUID to follow")
	send := flag.String("send", "", "Send this message once the feed is ready")
	priority := flag.String("priority", string(model.PriorityMedium), "Priority of the -send message")
	notifyLog := flag.String("notify-log", "", "Also append popups to this file")
	flag.Parse()

	_ = godotenv.Load()
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(strings.ToUpper(cfg.LogLevel))

	workspaceID, err := uuid.Parse(*workspace)
	if err != nil {
		return fmt.Errorf("invalid -workspace: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := storage.NewStorage(cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to init DB: %w", err)
	}
	defer func() { _ = db.DB.Close() }()

	rabbitClient, err := messaging.NewRabbitClient(cfg.RabbitMQ.URL, log)
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	defer func() { _ = rabbitClient.Close() }()

	sinks := notify.Fanout{notify.NewTerminalSink(os.Stdout, cfg.Notify.Desktop)}
	if *notifyLog != "" {
		f, err := os.OpenFile(*notifyLog, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("open notify log: %w", err)
		}
		defer func() { _ = f.Close() }()
		sinks = append(sinks, notify.NewTerminalSink(f, true))
	}

	pool := worker.NewPool("feedwatch", log, 1, cfg.Notify.QueueSize)
	pool.Start()
	defer pool.Stop()

	store := changefeed.NewClient(db, rabbitClient, changefeed.AMQPSubscriber(rabbitClient.GetConnection(), log), log)
	f := feed.New(feed.Config{
		WorkspaceID:  workspaceID,
		HistoryLimit: cfg.Feed.HistoryLimit,
		Identity:     cfg.Feed.Identity,
	}, store, store, notify.NewDispatcher(log, sinks, pool), log, feed.WithObserver(func(m model.Message) {
		printLive(os.Stdout, m)
	}))
	defer func() { _ = f.Close() }()

	if err := f.Start(ctx); err != nil {
		return err
	}
	history, err := f.LoadHistory(ctx)
	if err != nil {
		return err
	}
	printHistory(os.Stdout, history)

	if *send != "" {
		p, err := model.ParsePriority(*priority)
		if err != nil {
			return err
		}
		if err := f.Send(ctx, *send, p); err != nil {
			return err
		}
	}

	<-ctx.Done()
	return nil
}

func printHistory(out io.Writer, messages []model.Message) {
	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"Time", "Flag", "Author", "Message"})
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetTablePadding("\t")

	// Oldest at the top so live lines continue the table downward.
	for i := len(messages) - 1; i >= 0; i-- {
		m := messages[i]
		table.Append([]string{m.CreatedAt.Local().Format("15:04:05"), m.Priority.Label(), m.Author, notify.Body(m)})
	}
	table.Render()
}

func printLive(out io.Writer, m model.Message) {
	style := color.Style{color.FgGray}
	switch m.Priority {
	case model.PriorityUrgent:
		style = color.Style{color.FgRed, color.OpBold}
	case model.PriorityHigh:
		style = color.Style{color.FgYellow}
	}
	_, _ = fmt.Fprintf(out, "%s\t%s\t%s\t%s\n",
		m.CreatedAt.Local().Format("15:04:05"), style.Sprint(m.Priority.Label()), m.Author, notify.Body(m))
}
