package eventbus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/annel0/brick-sandbox/internal/logging"
	nats "github.com/nats-io/nats.go"
)

// NATSBus реализует EventBus поверх NATS: событие типа T уходит в subject <prefix>.<T>.
type NATSBus struct {
	nc        *nats.Conn
	prefix    string
	published uint64
	consumed  uint64
	dropped   uint64
}

// NewNATSBus подключается к NATS. url: nats://127.0.0.1:4222, prefix: "bricks".
func NewNATSBus(url, prefix string) (*NATSBus, error) {
	if prefix == "" {
		prefix = "bricks"
	}

	nc, err := nats.Connect(url,
		nats.Name("brick-sandbox"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logging.Warn("⚠️ NATS отключён: %v", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logging.Info("🔌 NATS переподключён к %s", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	logging.Info("🔌 NATS: подключено к %s, subject %s.*", nc.ConnectedUrl(), prefix)
	return &NATSBus{nc: nc, prefix: prefix}, nil
}

// subject возвращает subject для типа события
func (nb *NATSBus) subject(eventType string) string {
	return nb.prefix + "." + eventType
}

// Publish сериализует Envelope в JSON и публикует в subject <prefix>.<type>.
func (nb *NATSBus) Publish(ctx context.Context, ev *Envelope) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if err := nb.nc.Publish(nb.subject(ev.EventType), data); err != nil {
		atomic.AddUint64(&nb.dropped, 1)
		return fmt.Errorf("nats publish %s: %w", ev.EventType, err)
	}
	atomic.AddUint64(&nb.published, 1)
	return nil
}

// Subscribe подписывается на subject и вызывает handler в горутине клиента NATS.
func (nb *NATSBus) Subscribe(ctx context.Context, f Filter, h Handler) (Subscription, error) {
	subj := nb.prefix + ".*"
	if len(f.Types) == 1 {
		subj = nb.subject(f.Types[0])
	}

	natSub, err := nb.nc.Subscribe(subj, func(msg *nats.Msg) {
		var ev Envelope
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			atomic.AddUint64(&nb.dropped, 1)
			logging.Warn("⚠️ NATS: некорректное сообщение в %s: %v", msg.Subject, err)
			return
		}
		if !matchFilter(&ev, f) {
			return
		}
		h(ctx, &ev)
		atomic.AddUint64(&nb.consumed, 1)
	})
	if err != nil {
		return nil, fmt.Errorf("nats subscribe %s: %w", subj, err)
	}

	return &natsSub{natSub}, nil
}

// natsSub обёртка вокруг *nats.Subscription чтобы удовлетворить наш интерфейс.
type natsSub struct {
	s *nats.Subscription
}

func (n *natsSub) Unsubscribe() {
	_ = n.s.Unsubscribe()
}

// Metrics возвращает текущие метрики.
func (nb *NATSBus) Metrics() Stats {
	return Stats{
		Published: atomic.LoadUint64(&nb.published),
		Consumed:  atomic.LoadUint64(&nb.consumed),
		Dropped:   atomic.LoadUint64(&nb.dropped),
		InFlight:  0, // очередь держит сам клиент NATS
	}
}

// Close сливает подписки и закрывает соединение
func (nb *NATSBus) Close() error {
	if nb.nc.IsClosed() {
		return nil
	}
	if err := nb.nc.Drain(); err != nil && !errors.Is(err, nats.ErrConnectionClosed) {
		nb.nc.Close()
		return err
	}
	return nil
}
