package tracker

import (
	"context"
	"fmt"
	"time"

	"github.com/bluehax/soapbot/bot/platform"
	"github.com/bluehax/soapbot/core/logger"
	"log/slog"
)

// Syncer projects the counter file onto the two display channels. A
// display that fails to update is logged and skipped until the next
// sync pass, never retried immediately.
type Syncer struct {
	store  *Store
	client platform.Client

	soapDisplayID int64
	nnidDisplayID int64
}

// NewSyncer wires the store to its display channels. A zero channel id
// disables that display.
func NewSyncer(store *Store, client platform.Client, soapDisplayID, nnidDisplayID int64) *Syncer {
	return &Syncer{
		store:         store,
		client:        client,
		soapDisplayID: soapDisplayID,
		nnidDisplayID: nnidDisplayID,
	}
}

// Sync pushes current counts to both displays and returns them.
func (s *Syncer) Sync(ctx context.Context) (soap, nnid int) {
	soap, nnid = s.store.Read()
	s.updateDisplay(ctx, s.soapDisplayID, fmt.Sprintf("🧼 SOAPs Served: %d", soap))
	s.updateDisplay(ctx, s.nnidDisplayID, fmt.Sprintf("🔄 NNIDs Served: %d", nnid))
	logger.Debug(ctx, "tracker", "tracker.synced",
		slog.Int("soap_count", soap),
		slog.Int("nnid_count", nnid),
	)
	return soap, nnid
}

// Run syncs immediately and then on every interval tick until the
// context is cancelled.
func (s *Syncer) Run(ctx context.Context, interval time.Duration) {
	s.Sync(ctx)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sync(ctx)
		}
	}
}

func (s *Syncer) updateDisplay(ctx context.Context, chatID int64, label string) {
	if chatID == 0 {
		return
	}
	if err := s.client.UpdateChannelLabel(ctx, chatID, label); err != nil {
		logger.Warn(ctx, "tracker", "tracker.display_failed",
			slog.Int64("chat_id", chatID),
			slog.String("err", err.Error()),
		)
	}
}
