package notification

import (
	"context"
	"log/slog"
)

const (
	// KindWalletCreated indicates a wallet was created and added to the store.
	KindWalletCreated = "wallet_created"
	// KindRefreshFailed indicates the wallet list could not be refreshed.
	KindRefreshFailed = "wallet_refresh_failed"
	// KindRefreshRecovered indicates refreshing works again after a failure.
	KindRefreshRecovered = "wallet_refresh_recovered"
)

// Message describes a notification payload.
type Message struct {
	Kind     string
	WalletID string
	Body     string
}

// Notifier delivers notifications to downstream systems.
type Notifier interface {
	Send(ctx context.Context, message Message) error
}

// LoggerNotifier writes notifications to the logger.
type LoggerNotifier struct {
	logger *slog.Logger
}

// NewLoggerNotifier constructs a logging notifier.
func NewLoggerNotifier(logger *slog.Logger) *LoggerNotifier {
	return &LoggerNotifier{logger: logger}
}

// Send writes the message to the structured logger.
func (n *LoggerNotifier) Send(_ context.Context, message Message) error {
	if n == nil || n.logger == nil {
		return nil
	}
	n.logger.Info("notification", "kind", message.Kind, "wallet_id", message.WalletID, "body", message.Body)
	return nil
}
