package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/annel0/brick-sandbox/internal/config"
	"github.com/annel0/brick-sandbox/internal/eventbus"
	"github.com/annel0/brick-sandbox/internal/world"
	"github.com/spf13/cobra"
)

var (
	tailURL     string
	tailSubject string
	tailTypes   string
	tailLimit   int
)

var tailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Следить за мутациями сцены в NATS",
	Long:  `Подписывается на <subject>.* и печатает события BrickAdded/BrickRemoved по мере поступления.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if tailURL == "" {
			tailURL = cfg.EventBus.URL
		}
		if tailSubject == "" {
			tailSubject = cfg.EventBus.Subject
		}

		bus, err := eventbus.NewNATSBus(tailURL, tailSubject)
		if err != nil {
			return err
		}
		defer bus.Close()

		return tailEvents(cmd.Context(), bus, cmd.OutOrStdout(), parseStringList(tailTypes), tailLimit)
	},
}

func init() {
	tailCmd.Flags().StringVar(&tailURL, "url", "", "адрес NATS (по умолчанию eventbus.url)")
	tailCmd.Flags().StringVar(&tailSubject, "subject", "", "префикс subject (по умолчанию eventbus.subject)")
	tailCmd.Flags().StringVar(&tailTypes, "types", "", "фильтр типов событий через запятую")
	tailCmd.Flags().IntVar(&tailLimit, "limit", 0, "выйти после N событий (0 - без ограничения)")
	rootCmd.AddCommand(tailCmd)
}

// tailEvents печатает события, пока не отменён ctx или не набран limit
func tailEvents(ctx context.Context, bus eventbus.EventBus, out io.Writer, types []string, limit int) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	fmt.Fprintf(out, "🎬 Tailing events (limit: %d)\n", limit)

	var (
		mu    sync.Mutex
		count int
	)
	sub, err := bus.Subscribe(ctx, eventbus.Filter{Types: types}, func(_ context.Context, ev *eventbus.Envelope) {
		mu.Lock()
		defer mu.Unlock()
		if limit > 0 && count >= limit {
			return
		}
		printEvent(out, ev)
		count++
		if limit > 0 && count >= limit {
			cancel()
		}
	})
	if err != nil {
		return err
	}
	defer sub.Unsubscribe()

	<-ctx.Done()

	mu.Lock()
	fmt.Fprintf(out, "\n📊 Total events: %d\n", count)
	mu.Unlock()
	return nil
}

func printEvent(out io.Writer, ev *eventbus.Envelope) {
	fmt.Fprintf(out, "[%s] %s [%s] %s\n", ev.Timestamp.Format("15:04:05"), ev.Source, ev.EventType, ev.ID)

	var m world.MutationEvent
	if err := ev.Decode(&m); err != nil {
		fmt.Fprintf(out, "  ⚠️ payload: %v\n", err)
		return
	}
	b := m.Brick
	fmt.Fprintf(out, "  Brick: %s %s (%.2f,%.2f,%.2f) %s cause=%s total=%d\n",
		b.ID, b.Type, b.Position.X, b.Position.Y, b.Position.Z, b.Color, m.Cause, m.BrickCount)
}

// parseStringList парсит строку с разделителями-запятыми
func parseStringList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			result = append(result, p)
		}
	}
	return result
}
