package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	json "github.com/goccy/go-json"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sysu-ecnc-dev/roster-engine/backend/internal/domain"
)

// QueueName 邮件队列，cmd/mail 从这里消费
const QueueName = "email_queue"

// Notifier 通知端口，引擎本身不依赖具体的邮件客户端
type Notifier interface {
	Send(ctx context.Context, msg *domain.MailMessage) error
}

// Publisher *amqp.Channel 满足该接口
type Publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// AMQPNotifier 把邮件序列化后投递到 RabbitMQ
type AMQPNotifier struct {
	publisher Publisher
	queue     string
	timeout   time.Duration
}

func NewAMQPNotifier(publisher Publisher, timeout time.Duration) *AMQPNotifier {
	return &AMQPNotifier{
		publisher: publisher,
		queue:     QueueName,
		timeout:   timeout,
	}
}

func (n *AMQPNotifier) Send(ctx context.Context, msg *domain.MailMessage) error {
	if msg.To == "" {
		return fmt.Errorf("邮件 %s 没有收件人", msg.Type)
	}

	// 对邮件进行序列化
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	return n.publisher.PublishWithContext(
		ctx,
		"",
		n.queue,
		true,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	)
}

// LogNotifier 只记录日志，用于没有 RabbitMQ 的环境
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Send(ctx context.Context, msg *domain.MailMessage) error {
	n.logger.InfoContext(ctx, "通知未投递，仅记录",
		slog.String("type", msg.Type),
		slog.String("to", msg.To),
		slog.String("subject", msg.Subject),
	)
	return nil
}
