// Package mail はメール送信と送信キューを提供します。
package mail

import (
	"context"
	"errors"
	"log/slog"
)

// ErrNoRecipient は宛先が空のメッセージを送信しようとした場合に返されます。
var ErrNoRecipient = errors.New("mail: message has no recipient")

// Message は送信する1通のメールです。
type Message struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Text    string `json:"text"`
	HTML    string `json:"html,omitempty"`
}

// Sender はメールを実際に配送します。
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// LogSender はメールを送信せずログに出力するSenderです。
// SMTPが設定されていない開発環境で使用します。
type LogSender struct{}

// Send はメッセージをslogに出力します。
func (LogSender) Send(_ context.Context, msg Message) error {
	if msg.To == "" {
		return ErrNoRecipient
	}
	slog.Info("mail (not sent)", "to", msg.To, "subject", msg.Subject, "text", msg.Text)
	return nil
}
