// Package paywave adapts the PayWave mobile wallet: a JSON REST provider that
// authenticates with short-lived bearer tokens and pushes HMAC-SHA256 signed
// notifications.
package paywave

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"peerpay-settlement/config"
	"peerpay-settlement/internal/core/domain"
	"peerpay-settlement/internal/core/ports"
	"peerpay-settlement/pkg/apperror"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
)

// notifyTolerance bounds the age of a pushed notification's timestamp.
const notifyTolerance = 5 * time.Minute

// tokenSlack refreshes the cached token slightly before the provider expiry.
const tokenSlack = 30 * time.Second

// Adapter implements ports.GatewayAdapter for PayWave. The provider token is
// cached per adapter instance with explicit expiry, checked on each use.
type Adapter struct {
	cfg        config.PayWaveConfig
	httpClient *http.Client
	sigSvc     ports.SignatureService
	log        zerolog.Logger

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time

	now func() time.Time // test seam
}

// New creates a PayWave adapter.
func New(cfg config.PayWaveConfig, httpClient *http.Client, sigSvc ports.SignatureService, log zerolog.Logger) *Adapter {
	return &Adapter{
		cfg:        cfg,
		httpClient: httpClient,
		sigSvc:     sigSvc,
		log:        log,
		now:        time.Now,
	}
}

// Method returns the payment method this adapter serves.
func (a *Adapter) Method() domain.PaymentMethod {
	return domain.MethodPayWave
}

// Initiate opens a payment session with the provider. The provider's
// payment_id becomes the correlation; it is only returned on success, so a
// mid-call failure leaves no dangling correlation to record.
func (a *Adapter) Initiate(ctx context.Context, req ports.InitiateRequest) (*ports.Initiation, error) {
	body := map[string]any{
		"app_id":      a.cfg.AppID,
		"reference":   req.ReferenceID,
		"amount":      req.Amount,
		"currency":    req.Currency,
		"payer":       req.PayerRef,
		"description": req.Description,
		"success_url": req.SuccessURL,
		"fail_url":    req.FailURL,
		"cancel_url":  req.CancelURL,
		"notify_url":  req.NotifyURL,
	}

	var resp struct {
		PaymentID string `json:"payment_id"`
		PayURL    string `json:"pay_url"`
	}
	if err := a.call(ctx, http.MethodPost, "/payments", body, &resp); err != nil {
		return nil, err
	}
	if resp.PaymentID == "" {
		return nil, apperror.ErrGatewayRejected("paywave returned no payment id")
	}

	return &ports.Initiation{
		RedirectURL: resp.PayURL,
		Correlation: resp.PaymentID,
	}, nil
}

// Verify pulls the payment status. Read-only, safe to retry.
func (a *Adapter) Verify(ctx context.Context, correlation string) (*ports.Outcome, error) {
	var resp struct {
		Reference string `json:"reference"`
		Status    string `json:"status"`
		Amount    int64  `json:"amount"`
		Currency  string `json:"currency"`
		WalletTxn string `json:"wallet_txn"`
	}
	if err := a.call(ctx, http.MethodGet, "/payments/"+correlation, nil, &resp); err != nil {
		return nil, err
	}

	return &ports.Outcome{
		ReferenceID:   resp.Reference,
		State:         stateFromStatus(resp.Status),
		Amount:        resp.Amount,
		Currency:      resp.Currency,
		ProviderTxnID: resp.WalletTxn,
	}, nil
}

// ParseAsyncNotification authenticates a pushed notification: the
// X-Paywave-Signature header must be HMAC-SHA256(partner_key, body) and the
// X-Paywave-Timestamp must fall within tolerance.
func (a *Adapter) ParseAsyncNotification(payload []byte, headers map[string]string) (*ports.Outcome, error) {
	sig := headers["X-Paywave-Signature"]
	tsStr := headers["X-Paywave-Timestamp"]
	if sig == "" || tsStr == "" {
		return nil, apperror.ErrSignatureInvalid()
	}
	ts, err := strconv.ParseInt(tsStr, 10, 64)
	if err != nil {
		return nil, apperror.ErrSignatureInvalid()
	}
	age := a.now().Sub(time.Unix(ts, 0))
	if age > notifyTolerance || age < -notifyTolerance {
		return nil, apperror.ErrSignatureInvalid()
	}
	if !a.sigSvc.Verify(a.cfg.PartnerKey, tsStr+"."+string(payload), sig) {
		return nil, apperror.ErrSignatureInvalid()
	}

	var body struct {
		EventID   string `json:"event_id"`
		PaymentID string `json:"payment_id"`
		Reference string `json:"reference"`
		Status    string `json:"status"`
		Amount    int64  `json:"amount"`
		Currency  string `json:"currency"`
		WalletTxn string `json:"wallet_txn"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return nil, apperror.Validation("paywave notification: bad payload")
	}

	return &ports.Outcome{
		ReferenceID:   body.Reference,
		State:         stateFromStatus(body.Status),
		Amount:        body.Amount,
		Currency:      body.Currency,
		ProviderTxnID: body.WalletTxn,
		EventID:       body.EventID,
	}, nil
}

// Refund requests a refund. Never auto-retried; the engine dedupes on the
// refund settlement record.
func (a *Adapter) Refund(ctx context.Context, providerTxnID string, amount int64, reason string) (*ports.RefundOutcome, error) {
	body := map[string]any{
		"app_id":     a.cfg.AppID,
		"wallet_txn": providerTxnID,
		"amount":     amount,
		"reason":     reason,
	}
	var resp struct {
		Status   string `json:"status"`
		RefundID string `json:"refund_id"`
	}
	if err := a.call(ctx, http.MethodPost, "/refunds", body, &resp); err != nil {
		return nil, err
	}
	return &ports.RefundOutcome{
		State:            stateFromStatus(resp.Status),
		ProviderRefundID: resp.RefundID,
	}, nil
}

// call performs an authenticated provider request.
func (a *Adapter) call(ctx context.Context, method, path string, body any, out any) error {
	token, err := a.bearerToken(ctx)
	if err != nil {
		return err
	}

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return apperror.InternalError(fmt.Errorf("marshal paywave request: %w", err))
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, a.cfg.BaseURL+path, reader)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("build paywave request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+token)

	resp, err := a.httpClient.Do(httpReq)
	if err != nil {
		return apperror.ErrGatewayUnavailable(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		// token revoked server-side; drop the cache so the next call refreshes
		a.mu.Lock()
		a.token = ""
		a.mu.Unlock()
		return apperror.ErrGatewayRejected("paywave rejected credentials")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apperror.ErrGatewayRejected(fmt.Sprintf("paywave status %d", resp.StatusCode))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperror.ErrGatewayUnavailable(fmt.Errorf("decode paywave response: %w", err))
	}
	return nil
}

// bearerToken returns the cached token, refreshing it when expired.
func (a *Adapter) bearerToken(ctx context.Context) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.token != "" && a.now().Before(a.tokenExpiry.Add(-tokenSlack)) {
		return a.token, nil
	}

	assertion, err := a.clientAssertion()
	if err != nil {
		return "", apperror.InternalError(fmt.Errorf("sign client assertion: %w", err))
	}

	raw, _ := json.Marshal(map[string]string{
		"grant_type": "client_credentials",
		"assertion":  assertion,
	})
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.BaseURL+"/oauth/token", bytes.NewReader(raw))
	if err != nil {
		return "", apperror.InternalError(fmt.Errorf("build token request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(httpReq)
	if err != nil {
		return "", apperror.ErrGatewayUnavailable(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", apperror.ErrGatewayRejected(fmt.Sprintf("token endpoint status %d", resp.StatusCode))
	}

	var body struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", apperror.ErrGatewayUnavailable(fmt.Errorf("decode token response: %w", err))
	}
	if body.AccessToken == "" {
		return "", apperror.ErrGatewayRejected("token endpoint returned empty token")
	}

	a.token = body.AccessToken
	a.tokenExpiry = a.now().Add(time.Duration(body.ExpiresIn) * time.Second)
	a.log.Debug().Time("expiry", a.tokenExpiry).Msg("paywave token refreshed")
	return a.token, nil
}

// clientAssertion builds the short-lived JWT PayWave expects for token exchange.
func (a *Adapter) clientAssertion() (string, error) {
	now := a.now()
	claims := jwt.MapClaims{
		"iss": a.cfg.AppID,
		"sub": a.cfg.AppID,
		"aud": a.cfg.BaseURL + "/oauth/token",
		"iat": now.Unix(),
		"exp": now.Add(time.Minute).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(a.cfg.SigningKey))
}

func stateFromStatus(status string) ports.OutcomeState {
	switch status {
	case "succeeded", "refunded":
		return ports.OutcomeSucceeded
	case "pending", "processing":
		return ports.OutcomePending
	case "cancelled":
		return ports.OutcomeCancelled
	default:
		return ports.OutcomeFailed
	}
}
