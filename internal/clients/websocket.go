package clients

import (
	"context"
	"fmt"

	ws "agrovet-ledger/internal/transport/websocket"

	"github.com/shopspring/decimal"
)

// Notifier publishes ledger and export events to the hub. All methods are
// fire-and-forget; a full hub drops messages rather than blocking a payment.
type Notifier struct {
	hub *ws.Hub
}

func NewNotifier(hub *ws.Hub) *Notifier {
	return &Notifier{hub: hub}
}

func (c *Notifier) NotifyPaymentRecorded(ctx context.Context, clientID, debtID int64, amount, outstanding decimal.Decimal) error {
	if c.hub == nil {
		return nil
	}

	message := &ws.Message{
		Type:    "payment_recorded",
		Channel: fmt.Sprintf("ledger_events#%d", clientID),
		Data: map[string]any{
			"debt_id":            debtID,
			"amount":             amount.String(),
			"outstanding_amount": outstanding.String(),
		},
	}

	c.hub.Broadcast(clientID, message)
	return nil
}

func (c *Notifier) NotifyDebtSettled(ctx context.Context, clientID, debtID int64) error {
	if c.hub == nil {
		return nil
	}

	message := &ws.Message{
		Type:    "debt_settled",
		Channel: fmt.Sprintf("ledger_events#%d", clientID),
		Data: map[string]any{
			"debt_id": debtID,
		},
	}

	c.hub.Broadcast(clientID, message)
	return nil
}

func (c *Notifier) NotifyExportProgress(ctx context.Context, subscriberID int64, exportID string, progress float64, stage string) error {
	if c.hub == nil {
		return nil
	}

	data := map[string]any{
		"id":       exportID,
		"progress": progress,
	}
	if stage != "" {
		data["stage"] = stage
	}

	c.hub.Broadcast(subscriberID, &ws.Message{
		Type:    "export_progress",
		Channel: fmt.Sprintf("export_events#%d", subscriberID),
		Data:    data,
	})
	return nil
}

func (c *Notifier) NotifyExportComplete(ctx context.Context, subscriberID int64, exportID, url, filename string) error {
	if c.hub == nil {
		return nil
	}

	c.hub.Broadcast(subscriberID, &ws.Message{
		Type:    "export_complete",
		Channel: fmt.Sprintf("export_events#%d", subscriberID),
		Data: map[string]any{
			"id":       exportID,
			"url":      url,
			"filename": filename,
		},
	})
	return nil
}

func (c *Notifier) NotifyExportFailed(ctx context.Context, subscriberID int64, exportID, errMsg string) error {
	if c.hub == nil {
		return nil
	}

	c.hub.Broadcast(subscriberID, &ws.Message{
		Type:    "export_failed",
		Channel: fmt.Sprintf("export_events#%d", subscriberID),
		Data: map[string]any{
			"id":      exportID,
			"message": errMsg,
		},
	})
	return nil
}
