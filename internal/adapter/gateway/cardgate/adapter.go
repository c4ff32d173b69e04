// Package cardgate adapts the CardGate card gateway: a redirect-form provider
// that signs sorted query strings with HMAC-SHA512 and reports amounts in
// hundredths of the smallest unit.
package cardgate

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"peerpay-settlement/config"
	"peerpay-settlement/internal/core/domain"
	"peerpay-settlement/internal/core/ports"
	"peerpay-settlement/pkg/apperror"

	"github.com/rs/zerolog"
)

const (
	codeSuccess   = "00"
	codePending   = "01"
	codeCancelled = "24"
)

// Adapter implements ports.GatewayAdapter for CardGate.
type Adapter struct {
	cfg        config.CardGateConfig
	httpClient *http.Client
	log        zerolog.Logger
}

// New creates a CardGate adapter.
func New(cfg config.CardGateConfig, httpClient *http.Client, log zerolog.Logger) *Adapter {
	return &Adapter{cfg: cfg, httpClient: httpClient, log: log}
}

// Method returns the payment method this adapter serves.
func (a *Adapter) Method() domain.PaymentMethod {
	return domain.MethodCardGate
}

// Initiate builds the signed redirect URL. CardGate is a pure redirect
// provider: no outbound call happens here, so a failed initiation leaves
// nothing dangling and the call is trivially retryable. The correlation is
// our own reference echoed back by the provider.
func (a *Adapter) Initiate(_ context.Context, req ports.InitiateRequest) (*ports.Initiation, error) {
	params := url.Values{}
	params.Set("cg_MerchantCode", a.cfg.MerchantCode)
	params.Set("cg_TxnRef", req.ReferenceID)
	params.Set("cg_Amount", strconv.FormatInt(req.Amount*100, 10)) // hundredths
	params.Set("cg_Currency", req.Currency)
	params.Set("cg_OrderInfo", req.Description)
	params.Set("cg_ReturnUrl", req.SuccessURL)
	params.Set("cg_CancelUrl", req.CancelURL)
	params.Set("cg_NotifyUrl", req.NotifyURL)
	params.Set("cg_CreateDate", time.Now().UTC().Format("20060102150405"))
	params.Set("cg_SecureHash", a.signParams(params))

	return &ports.Initiation{
		RedirectURL: a.cfg.PayURL + "?" + params.Encode(),
		Correlation: req.ReferenceID,
	}, nil
}

// Verify pulls the transaction status from the provider's query API.
func (a *Adapter) Verify(ctx context.Context, correlation string) (*ports.Outcome, error) {
	params := url.Values{}
	params.Set("cg_MerchantCode", a.cfg.MerchantCode)
	params.Set("cg_TxnRef", correlation)
	params.Set("cg_SecureHash", a.signParams(params))

	reqURL := a.cfg.QueryURL + "?" + params.Encode()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("build query request: %w", err))
	}

	resp, err := a.httpClient.Do(httpReq)
	if err != nil {
		return nil, apperror.ErrGatewayUnavailable(err)
	}
	defer resp.Body.Close()

	var body struct {
		ResponseCode string `json:"response_code"`
		TxnRef       string `json:"txn_ref"`
		Amount       int64  `json:"amount"`
		Currency     string `json:"currency"`
		GatewayTxnID string `json:"gateway_txn_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, apperror.ErrGatewayUnavailable(fmt.Errorf("decode query response: %w", err))
	}

	return &ports.Outcome{
		ReferenceID:   body.TxnRef,
		State:         stateFromCode(body.ResponseCode),
		Amount:        body.Amount / 100,
		Currency:      body.Currency,
		ProviderTxnID: body.GatewayTxnID,
	}, nil
}

// ParseAsyncNotification validates and normalizes a CardGate IPN. The payload
// is the urlencoded query string the provider posts back, hashed over the
// sorted cg_ parameters minus the hash itself.
func (a *Adapter) ParseAsyncNotification(payload []byte, _ map[string]string) (*ports.Outcome, error) {
	params, err := url.ParseQuery(string(payload))
	if err != nil {
		return nil, apperror.ErrSignatureInvalid()
	}

	got := params.Get("cg_SecureHash")
	params.Del("cg_SecureHash")
	want := a.signParams(params)
	if got == "" || !hmac.Equal([]byte(want), []byte(got)) {
		return nil, apperror.ErrSignatureInvalid()
	}

	amount, err := strconv.ParseInt(params.Get("cg_Amount"), 10, 64)
	if err != nil {
		return nil, apperror.Validation("cardgate notification: bad amount")
	}

	return &ports.Outcome{
		ReferenceID:   params.Get("cg_TxnRef"),
		State:         stateFromCode(params.Get("cg_ResponseCode")),
		Amount:        amount / 100,
		Currency:      params.Get("cg_Currency"),
		ProviderTxnID: params.Get("cg_TransactionNo"),
		EventID:       params.Get("cg_NotifyId"),
	}, nil
}

// Refund requests a refund through the provider's refund API. Never
// auto-retried: the engine dedupes refunds on the refund settlement record.
func (a *Adapter) Refund(ctx context.Context, providerTxnID string, amount int64, reason string) (*ports.RefundOutcome, error) {
	reqBody := map[string]any{
		"merchant_code":  a.cfg.MerchantCode,
		"gateway_txn_id": providerTxnID,
		"amount":         amount * 100,
		"reason":         reason,
	}
	raw, _ := json.Marshal(reqBody)

	sig := a.sign(string(raw))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.RefundURL, strings.NewReader(string(raw)))
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("build refund request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-CG-Signature", sig)

	resp, err := a.httpClient.Do(httpReq)
	if err != nil {
		return nil, apperror.ErrGatewayUnavailable(err)
	}
	defer resp.Body.Close()

	var body struct {
		ResponseCode string `json:"response_code"`
		RefundID     string `json:"refund_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, apperror.ErrGatewayUnavailable(fmt.Errorf("decode refund response: %w", err))
	}
	if body.ResponseCode != codeSuccess {
		return &ports.RefundOutcome{State: ports.OutcomeFailed}, nil
	}
	return &ports.RefundOutcome{State: ports.OutcomeSucceeded, ProviderRefundID: body.RefundID}, nil
}

// signParams hashes the sorted cg_ parameters, provider style.
func (a *Adapter) signParams(params url.Values) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for i, k := range keys {
		if i > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(k)
		sb.WriteByte('=')
		sb.WriteString(params.Get(k))
	}
	return a.sign(sb.String())
}

func (a *Adapter) sign(payload string) string {
	mac := hmac.New(sha512.New, []byte(a.cfg.HashSecret))
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

func stateFromCode(code string) ports.OutcomeState {
	switch code {
	case codeSuccess:
		return ports.OutcomeSucceeded
	case codePending:
		return ports.OutcomePending
	case codeCancelled:
		return ports.OutcomeCancelled
	default:
		return ports.OutcomeFailed
	}
}
