package mail

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"golang.org/x/sync/semaphore"
)

// ErrDispatcherFull は同時送信数の上限に達している場合に返されます。
var ErrDispatcherFull = errors.New("mail: dispatcher is full")

// AsyncDispatcher はメールをバックグラウンドのgoroutineで送信します。
// Redisが利用できない場合のプロセス内キューとして使用します。
type AsyncDispatcher struct {
	sender Sender
	sem    *semaphore.Weighted
	wg     sync.WaitGroup
}

// NewAsyncDispatcher は同時送信数をmaxInFlightに制限するAsyncDispatcherを生成します。
func NewAsyncDispatcher(sender Sender, maxInFlight int64) *AsyncDispatcher {
	if maxInFlight <= 0 {
		maxInFlight = 8
	}
	return &AsyncDispatcher{sender: sender, sem: semaphore.NewWeighted(maxInFlight)}
}

// Enqueue は送信をバックグラウンドで開始し、完了を待たずに戻ります。
// 上限に達している場合は待たずにErrDispatcherFullを返します。
func (d *AsyncDispatcher) Enqueue(ctx context.Context, msg Message) error {
	if !d.sem.TryAcquire(1) {
		return ErrDispatcherFull
	}
	// リクエストのcontextは応答後にキャンセルされるため切り離す
	sendCtx := context.WithoutCancel(ctx)

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer d.sem.Release(1)
		if err := d.sender.Send(sendCtx, msg); err != nil {
			slog.Error("failed to send mail", "to", msg.To, "subject", msg.Subject, "error", err)
		}
	}()
	return nil
}

// Wait は送信中のメールがすべて完了するまで待機します。
func (d *AsyncDispatcher) Wait() {
	d.wg.Wait()
}
