package mail

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultQueueKey はメール送信キューのデフォルトのRedisキーです。
const DefaultQueueKey = "mail:queue"

// RedisQueue はRedisのリストを使ったメール送信キューです。
// EnqueueでLPUSHし、RunでBRPOPして送信します。
type RedisQueue struct {
	client *redis.Client
	key    string
	// pollTimeout はBRPOPのブロック時間です。contextのキャンセルを検知する間隔になります。
	pollTimeout time.Duration
}

// NewRedisQueue はRedisQueueを生成します。keyが空の場合はDefaultQueueKeyを使用します。
func NewRedisQueue(client *redis.Client, key string) *RedisQueue {
	if key == "" {
		key = DefaultQueueKey
	}
	return &RedisQueue{client: client, key: key, pollTimeout: 5 * time.Second}
}

// Enqueue はメッセージをキューに追加します。
func (q *RedisQueue) Enqueue(ctx context.Context, msg Message) error {
	if msg.To == "" {
		return ErrNoRecipient
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal mail: %w", err)
	}
	if err := q.client.LPush(ctx, q.key, data).Err(); err != nil {
		return fmt.Errorf("failed to enqueue mail: %w", err)
	}
	return nil
}

// Run はctxがキャンセルされるまでキューからメッセージを取り出してsenderで送信します。
// 送信に失敗したメッセージはログに記録して破棄します。
func (q *RedisQueue) Run(ctx context.Context, sender Sender) error {
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		msg, err := q.pop(ctx)
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			if ctx.Err() != nil {
				return nil
			}
			slog.Error("mail queue pop failed", "key", q.key, "error", err)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(time.Second):
			}
			continue
		}
		if msg == nil {
			continue
		}

		if err := sender.Send(ctx, *msg); err != nil {
			slog.Error("failed to send mail", "to", msg.To, "subject", msg.Subject, "error", err)
		}
	}
}

// pop はキューから1件取り出します。壊れたペイロードはログに記録してnilを返します。
func (q *RedisQueue) pop(ctx context.Context) (*Message, error) {
	res, err := q.client.BRPop(ctx, q.pollTimeout, q.key).Result()
	if err != nil {
		return nil, err
	}
	// BRPOPは[key, value]を返す
	if len(res) != 2 {
		return nil, fmt.Errorf("unexpected BRPOP reply length %d", len(res))
	}

	var msg Message
	if err := json.Unmarshal([]byte(res[1]), &msg); err != nil {
		slog.Error("dropping malformed mail job", "key", q.key, "error", err)
		return nil, nil
	}
	return &msg, nil
}
