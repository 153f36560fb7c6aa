package di

import (
	"context"
	"log/slog"

	"github.com/redis/go-redis/v9"

	authadapters "account_backend/internal/feature/auth/adapters"
	"account_backend/internal/platform/mail"
)

// asyncMaxInFlight はRedisなしで同時に送信できるメールの上限です。
const asyncMaxInFlight = 16

// NewMailSender はSMTPが設定されていればSMTPSenderを、なければLogSenderを返します。
func NewMailSender(cfg mail.SMTPConfig) mail.Sender {
	if cfg.Host == "" {
		slog.Warn("SMTP_HOST is not set. Mail will be logged, not sent.")
		return mail.LogSender{}
	}
	return mail.NewSMTPSender(cfg)
}

// NewMailQueue はメール送信キューと、その送信ワーカーを返します。
// Redisが利用可能な場合はRedisのリスト、そうでなければプロセス内のディスパッチャーを使用します。
// ワーカーはctxがキャンセルされるまでブロックします。
func NewMailQueue(rdb *redis.Client, sender mail.Sender) (authadapters.MailQueue, func(ctx context.Context) error) {
	if rdb != nil {
		q := mail.NewRedisQueue(rdb, mail.DefaultQueueKey)
		return q, func(ctx context.Context) error { return q.Run(ctx, sender) }
	}

	d := mail.NewAsyncDispatcher(sender, asyncMaxInFlight)
	return d, func(ctx context.Context) error {
		<-ctx.Done()
		// 送信中のメールを待ってから終了する
		d.Wait()
		return nil
	}
}
