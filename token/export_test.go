package token

import (
	"context"
	"time"
)

func (h *ClientTokenHolder) RefreshIfStillStale(ctx context.Context, staleBefore time.Time) (Token, error) {
	return h.refreshIfStillStale(ctx, staleBefore)
}

func (h *ClientTokenHolder) Publish(t Token) bool {
	return h.cell.Publish(t)
}
