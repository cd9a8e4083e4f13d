package payout

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"flightsurety-ledger/internal/domain/entity"
	"flightsurety-ledger/pkg/logger"

	"github.com/google/uuid"
)

// WebhookTransferer hands payouts to an external payment service over HTTP
type WebhookTransferer struct {
	logger      logger.Logger
	url         string
	bearerToken string
	client      *http.Client
}

// NewWebhookTransferer creates a transferer that POSTs to url
func NewWebhookTransferer(url, bearerToken string, timeout time.Duration, logger logger.Logger) *WebhookTransferer {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &WebhookTransferer{
		logger:      logger,
		url:         url,
		bearerToken: bearerToken,
		client:      &http.Client{Timeout: timeout},
	}
}

// TransferRequest is the body sent to the payment service
type TransferRequest struct {
	RequestID string `json:"requestId"`
	Passenger string `json:"passenger"`
	Amount    int64  `json:"amount"`
}

// Transfer sends the payout and fails unless the service accepts it
func (t *WebhookTransferer) Transfer(ctx context.Context, to entity.Identity, amount int64) error {
	body := TransferRequest{
		RequestID: uuid.NewString(),
		Passenger: string(to),
		Amount:    amount,
	}

	jsonData, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal transfer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if t.bearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+t.bearerToken)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", body.RequestID)

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send transfer: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusAccepted {
		var errorBody map[string]interface{}
		json.NewDecoder(resp.Body).Decode(&errorBody)
		return fmt.Errorf("payment service returned status %d: %v", resp.StatusCode, errorBody)
	}

	t.logger.Info("Payout transferred",
		"requestId", body.RequestID,
		"passenger", to,
		"amount", amount)

	return nil
}
