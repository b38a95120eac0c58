package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/smtp"
	"time"

	"github.com/redis/go-redis/v9"

	"cashbox/internal/logger"
	"cashbox/internal/metrics"
)

const (
	queueKey       = "notifications"
	failedQueueKey = "notifications:failed"
	maxTries       = 3
)

type Job struct {
	To      string    `json:"to"`
	Name    string    `json:"name"`
	Kind    string    `json:"kind"`
	Subject string    `json:"subject"`
	Body    string    `json:"body"`
	Tries   int       `json:"tries"`
	Created time.Time `json:"created"`
}

type Service struct {
	redis    *redis.Client
	from     string
	fromName string
	smtpHost string
	smtpPort string
	smtpUser string
	smtpPass string
	// pause between pop attempts when Redis itself is failing
	popBackoff time.Duration
}

func New(fromEmail, fromName, smtpHost, smtpPort, smtpUser, smtpPass, redisAddr string) *Service {
	return &Service{
		redis: redis.NewClient(&redis.Options{
			Addr: redisAddr,
		}),
		from:       fromEmail,
		fromName:   fromName,
		smtpHost:   smtpHost,
		smtpPort:   smtpPort,
		smtpUser:   smtpUser,
		smtpPass:   smtpPass,
		popBackoff: 2 * time.Second,
	}
}

func (s *Service) Send(ctx context.Context, to, name, kind, subject, body string) error {
	job := Job{
		To:      to,
		Name:    name,
		Kind:    kind,
		Subject: subject,
		Body:    body,
		Tries:   0,
		Created: time.Now(),
	}

	data, err := json.Marshal(job)
	if err != nil {
		logger.Errorf("Failed to marshal notification job: %v", err)
		return err
	}

	if err := s.redis.LPush(ctx, queueKey, data).Err(); err != nil {
		logger.Errorf("Failed to queue notification to %s: %v", to, err)
		return err
	}

	logger.Infof("Notification queued: %s to %s", subject, to)
	return nil
}

func (s *Service) Start(ctx context.Context) {
	logger.Info("notification service started")

	for {
		select {
		case <-ctx.Done():
			logger.Info("notification service stopped")
			return
		default:
			s.processNext(ctx)
		}
	}
}

func (s *Service) processNext(ctx context.Context) {
	result, err := s.redis.BRPop(ctx, 2*time.Second, queueKey).Result()
	if err != nil {
		// redis.Nil means the queue was empty for the BRPop window; any
		// other error is a connection problem, so back off instead of
		// hammering a dead Redis in a tight loop.
		if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
			logger.Errorf("Failed to pop notification job: %v", err)
			time.Sleep(s.popBackoff)
		}
		return
	}
	metrics.NotifyQueueLength.Set(float64(s.QueueLength(ctx)))

	var job Job
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		logger.Errorf("Bad notification data: %v", err)
		return
	}

	job.Tries++
	logger.Infof("Sending notification to %s (attempt %d)", job.To, job.Tries)
	if err := s.sendNow(job); err != nil {
		logger.Errorf("Failed to send notification to %s: %v", job.To, err)

		if job.Tries < maxTries {
			time.Sleep(5 * time.Second)
			data, _ := json.Marshal(job)
			s.redis.LPush(context.Background(), queueKey, data)
			logger.Infof("Retrying notification to %s (attempt %d)", job.To, job.Tries+1)
		} else {
			logger.Errorf("Notification to %s failed after %d attempts", job.To, maxTries)
			metrics.NotificationsSentTotal.WithLabelValues(job.Kind, "failed").Inc()
			s.saveFailed(job, err)
		}
		return
	}

	metrics.NotificationsSentTotal.WithLabelValues(job.Kind, "sent").Inc()
	logger.Infof("Notification sent successfully to %s", job.To)
}

func (s *Service) sendNow(job Job) error {
	message := fmt.Sprintf("From: %s <%s>\r\n", s.fromName, s.from)
	message += fmt.Sprintf("To: %s\r\n", job.To)
	message += fmt.Sprintf("Subject: %s\r\n", job.Subject)
	message += "\r\n" + job.Body

	var auth smtp.Auth
	if s.smtpUser != "" && s.smtpPass != "" {
		auth = smtp.PlainAuth("", s.smtpUser, s.smtpPass, s.smtpHost)
	}

	addr := s.smtpHost + ":" + s.smtpPort
	return smtp.SendMail(addr, auth, s.from, []string{job.To}, []byte(message))
}

func (s *Service) saveFailed(job Job, err error) {
	failed := map[string]interface{}{
		"job":   job,
		"error": err.Error(),
		"time":  time.Now(),
	}
	data, _ := json.Marshal(failed)
	s.redis.LPush(context.Background(), failedQueueKey, data)
	logger.Errorf("Notification moved to failed queue: %s", job.To)
}

func (s *Service) QueueLength(ctx context.Context) int64 {
	length, _ := s.redis.LLen(ctx, queueKey).Result()
	return length
}

func (s *Service) Close() error {
	return s.redis.Close()
}

func (s *Service) SendTopupCompleted(ctx context.Context, email, name, orderCode string, amountCents int64) error {
	subject := "Top-up Completed - " + orderCode
	body := fmt.Sprintf(`Hi %s,

Your top-up has been confirmed.

Order: %s
Credited: %s

Thanks for using Cashbox!

- Cashbox Team`, name, orderCode, formatAmount(amountCents))

	return s.Send(ctx, email, name, "topup", subject, body)
}

func (s *Service) SendWithdrawalStatus(ctx context.Context, email, name, code string, status string, amountCents int64) error {
	subject := fmt.Sprintf("Withdrawal %s - %s", status, code)
	body := fmt.Sprintf(`Hi %s,

Your withdrawal request has been updated.

Reference: %s
Amount: %s
Status: %s

- Cashbox Team`, name, code, formatAmount(amountCents), status)

	return s.Send(ctx, email, name, "withdrawal", subject, body)
}

func formatAmount(cents int64) string {
	return fmt.Sprintf("%d.%02d", cents/100, cents%100)
}
