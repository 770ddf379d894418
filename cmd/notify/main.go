package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sysu-ecnc-dev/guard-roster/backend/internal/config"
	"github.com/sysu-ecnc-dev/guard-roster/backend/internal/domain"
	"github.com/sysu-ecnc-dev/guard-roster/backend/internal/events"
	"github.com/wneessen/go-mail"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return
	}
	loc, err := cfg.Location()
	if err != nil {
		logger.Error("invalid scheduling timezone", "error", err)
		return
	}

	/**********************************************
	 * mail client
	 **********************************************/
	client, err := mail.NewClient(cfg.Email.SMTP.Host,
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithSSL(),
		mail.WithPort(cfg.Email.SMTP.Port),
		mail.WithUsername(cfg.Email.SMTP.Username),
		mail.WithPassword(cfg.Email.SMTP.Password),
	)
	if err != nil {
		logger.Error("failed to create mail client", "error", err)
		return
	}
	defer client.Close()

	dialCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Email.SMTP.DialTimeout)*time.Second)
	defer cancel()
	if err := client.DialWithContext(dialCtx); err != nil {
		logger.Error("failed to connect to mail server", "error", err)
		return
	}

	/**********************************************
	 * rabbitmq
	 **********************************************/
	conn, err := amqp.Dial(cfg.RabbitMQ.DSN)
	if err != nil {
		logger.Error("failed to connect to rabbitmq", "error", err)
		return
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		logger.Error("failed to open channel", "error", err)
		return
	}
	defer ch.Close()

	if err := events.DeclareTopology(ch, cfg.RabbitMQ.Exchange, cfg.RabbitMQ.NotifyQueue); err != nil {
		logger.Error("failed to declare exchange and queue", "error", err)
		return
	}

	// one message in flight, so a stalled SMTP server holds back a single notice
	if err := ch.Qos(1, 0, false); err != nil {
		logger.Error("failed to set prefetch", "error", err)
		return
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	msgs, err := ch.Consume(
		cfg.RabbitMQ.NotifyQueue,
		"",    // consumer tag assigned by the broker
		false, // manual ack
		false, // exclusive
		false, // no-local, unsupported by RabbitMQ
		false, // no-wait
		nil,
	)
	if err != nil {
		logger.Error("failed to consume queue", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	wg := sync.WaitGroup{}

	wg.Add(1)
	go func() {
		defer wg.Done()
		failures := 0
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					logger.Warn("delivery channel closed")
					return
				}

				var evt domain.ShiftAssignmentEvent
				if err := json.Unmarshal(msg.Body, &evt); err != nil {
					logger.Error("failed to decode event", "messageID", msg.MessageId, "error", err)
					_ = msg.Nack(false, false)
					continue
				}

				notice, err := events.ComposeNotice(&evt, loc)
				if err != nil {
					logger.Error("failed to compose notice", "eventID", evt.EventID, "error", err)
					_ = msg.Nack(false, false)
					continue
				}

				m := mail.NewMsg()
				if err := m.From(cfg.Email.SMTP.Username); err != nil {
					logger.Error("invalid sender", "error", err)
					_ = msg.Nack(false, false)
					continue
				}
				if err := m.To(notice.To); err != nil {
					logger.Error("invalid recipient", "to", notice.To, "error", err)
					_ = msg.Nack(false, false)
					continue
				}
				m.Subject(notice.Subject)
				m.SetBodyString(mail.TypeTextPlain, notice.Body)

				if err := client.DialAndSend(m); err != nil {
					failures++
					wait := events.SendBackoff(failures)
					logger.Error("failed to send notice", "eventID", evt.EventID, "failures", failures, "retryIn", wait, "error", err)
					select {
					case <-ctx.Done():
					case <-time.After(wait):
					}
					_ = msg.Nack(false, true) // requeue
					continue
				}
				failures = 0

				logger.Info("notice sent", "eventID", evt.EventID, "type", evt.Type, "guardID", evt.GuardID)
				_ = msg.Ack(false)
			}
		}
	}()

	logger.Info("waiting for events (CTRL+C to quit)")
	<-sigChan

	logger.Info("shutting down notify worker")
	cancel()
	wg.Wait()
	logger.Info("notify worker stopped")
}
