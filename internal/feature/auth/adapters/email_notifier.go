package adapters

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"

	"account_backend/internal/feature/auth/domain/entity"
	"account_backend/internal/feature/auth/usecase"
	"account_backend/internal/platform/mail"
)

// MailQueue はメールの送信を受け付けるキューです。
// mail.RedisQueueとmail.AsyncDispatcherが実装します。
type MailQueue interface {
	Enqueue(ctx context.Context, msg mail.Message) error
}

// FrontendURLs はメール本文に埋め込むフロントエンドのURLです。
// トークンはクエリパラメータtokenとして付与されます。
type FrontendURLs struct {
	VerifyEmail   string
	ResetPassword string
}

// emailNotifier はユースケースの通知をメールに変換してキューに投入するNotifier実装です。
type emailNotifier struct {
	queue MailQueue
	urls  FrontendURLs
}

// emailNotifierがNotifierを実装していることをコンパイル時に検証します。
var _ usecase.Notifier = (*emailNotifier)(nil)

// NewEmailNotifier はemailNotifierを生成します。
func NewEmailNotifier(queue MailQueue, urls FrontendURLs) *emailNotifier {
	return &emailNotifier{queue: queue, urls: urls}
}

// ConfirmationRequested はメールアドレス確認用のリンクを送信します。
func (n *emailNotifier) ConfirmationRequested(ctx context.Context, user *entity.User, token string) {
	link := withToken(n.urls.VerifyEmail, token)
	n.enqueue(ctx, user, mail.Message{
		To:      user.Email,
		Subject: "Confirm your email address",
		Text:    fmt.Sprintf("Open the link below to confirm your email address.\n\n%s\n", link),
		HTML:    fmt.Sprintf(`<p>Open the link below to confirm your email address.</p><p><a href="%s">Confirm email</a></p>`, link),
	})
}

// PasswordResetRequested はパスワード再設定用のリンクを送信します。
func (n *emailNotifier) PasswordResetRequested(ctx context.Context, user *entity.User, token string) {
	link := withToken(n.urls.ResetPassword, token)
	n.enqueue(ctx, user, mail.Message{
		To:      user.Email,
		Subject: "Reset your password",
		Text:    fmt.Sprintf("Open the link below to choose a new password. If you did not request this, ignore this email.\n\n%s\n", link),
		HTML:    fmt.Sprintf(`<p>Open the link below to choose a new password. If you did not request this, ignore this email.</p><p><a href="%s">Reset password</a></p>`, link),
	})
}

// PasswordChanged はパスワード変更の通知を送信します。
func (n *emailNotifier) PasswordChanged(ctx context.Context, user *entity.User) {
	n.enqueue(ctx, user, mail.Message{
		To:      user.Email,
		Subject: "Your password was changed",
		Text:    "The password of your account was just changed. If this was not you, reset your password immediately.\n",
	})
}

// enqueue はメッセージをキューに投入します。
// 通知は投げっぱなしのため、失敗はログに記録するだけで呼び出し元には返しません。
func (n *emailNotifier) enqueue(ctx context.Context, user *entity.User, msg mail.Message) {
	if err := n.queue.Enqueue(ctx, msg); err != nil {
		slog.Error("failed to enqueue mail", "user_id", user.ID, "subject", msg.Subject, "error", err)
	}
}

// withToken はbaseにtokenクエリパラメータを付与します。
// baseが不正なURLの場合は単純に連結します。
func withToken(base, token string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base + "?token=" + url.QueryEscape(token)
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String()
}
