// Package vnpay builds signed VNPay redirect URLs and verifies the
// secure hash on return callbacks.
package vnpay

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	version          = "2.1.0"
	command          = "pay"
	currCode         = "VND"
	orderType        = "fashion"
	locale           = "vn"
	createDateLayout = "20060102150405"

	// OrderInfoPrefix is prepended to the buyer id in vnp_OrderInfo.
	// Reconciliation strips it to recover the buyer id.
	OrderInfoPrefix = "4MEN"

	ParamTxnRef       = "vnp_TxnRef"
	ParamOrderInfo    = "vnp_OrderInfo"
	ParamAmount       = "vnp_Amount"
	ParamResponseCode = "vnp_ResponseCode"

	secureHashKey     = "vnp_SecureHash"
	secureHashTypeKey = "vnp_SecureHashType"

	// ResponseCodeSuccess is the gateway's code for a completed payment.
	ResponseCodeSuccess = "00"
)

// Config holds the merchant credentials and endpoints. Always passed
// explicitly; the signer never reads ambient state.
type Config struct {
	TmnCode    string
	HashSecret string
	BaseURL    string
	ReturnURL  string
}

// PaymentRequest is the outbound payment intent. Amount is in whole
// dong; Build scales it by 100 for the gateway. TxnRef must be unique
// per attempt and is the join key the callback is reconciled against.
type PaymentRequest struct {
	TxnRef    string
	UserID    string
	Amount    int64
	IPAddr    string
	BankCode  string
	CreatedAt time.Time
}

type VerificationResult int

const (
	SignatureInvalid VerificationResult = iota
	SignatureValid
)

func (r VerificationResult) String() string {
	if r == SignatureValid {
		return "valid"
	}
	return "invalid"
}

type Signer struct {
	cfg Config
}

func NewSigner(cfg Config) *Signer {
	return &Signer{cfg: cfg}
}

// Build assembles the gateway parameter set, signs it and returns the
// full redirect URL. Pure: the caller persists the pending order
// (keyed by TxnRef) before handing the URL out, otherwise the callback
// has nothing to reconcile against.
func (s *Signer) Build(req PaymentRequest) (string, error) {
	if req.TxnRef == "" {
		return "", errors.New("vnpay: empty txn ref")
	}
	if req.Amount <= 0 {
		return "", errors.New("vnpay: amount must be positive")
	}

	params := map[string]string{
		"vnp_Version":    version,
		"vnp_Command":    command,
		"vnp_TmnCode":    s.cfg.TmnCode,
		"vnp_Locale":     locale,
		"vnp_CurrCode":   currCode,
		ParamTxnRef:      req.TxnRef,
		ParamOrderInfo:   OrderInfoPrefix + req.UserID,
		"vnp_OrderType":  orderType,
		ParamAmount:      strconv.FormatInt(req.Amount*100, 10),
		"vnp_ReturnUrl":  s.cfg.ReturnURL,
		"vnp_IpAddr":     req.IPAddr,
		"vnp_CreateDate": req.CreatedAt.Format(createDateLayout),
		"vnp_BankCode":   req.BankCode,
	}

	// The signature is computed over the percent-encoded serialization.
	// The same bytes become the query string, so the callback's wire
	// values can be verified without a second encoding pass.
	signedData := encodeSorted(params)
	signature := s.sign(signedData)

	return s.cfg.BaseURL + "?" + signedData + "&" + secureHashKey + "=" + signature, nil
}

// Verify recomputes the secure hash over a callback payload. The
// payload values must be in wire form (still percent-encoded, see
// PayloadFromQuery): verification joins them as-is, mirroring the
// serialization the gateway signed. Missing or empty hash is Invalid;
// Verify never fails with an error.
func (s *Signer) Verify(payload map[string]string) VerificationResult {
	got, ok := payload[secureHashKey]
	if !ok || got == "" || s.cfg.HashSecret == "" {
		return SignatureInvalid
	}

	want := s.SignPayload(payload)
	if hmac.Equal([]byte(want), []byte(strings.ToLower(got))) {
		return SignatureValid
	}
	return SignatureInvalid
}

// SignPayload computes the secure hash for a wire-form payload,
// excluding any signature fields already present. This is the exact
// computation the gateway performs before sending a callback.
func (s *Signer) SignPayload(payload map[string]string) string {
	rest := make(map[string]string, len(payload))
	for k, v := range payload {
		if k == secureHashKey || k == secureHashTypeKey {
			continue
		}
		rest[k] = v
	}
	return s.sign(joinSorted(rest))
}

// SecureHashParam returns the reserved key the signature travels
// under.
func SecureHashParam() string {
	return secureHashKey
}

func (s *Signer) sign(data string) string {
	mac := hmac.New(sha512.New, []byte(s.cfg.HashSecret))
	mac.Write([]byte(data))
	return hex.EncodeToString(mac.Sum(nil))
}

// encodeSorted serializes key=value pairs in ascending key order with
// query escaping. Spaces become %20, never +: the gateway computes its
// hash over the %20 form.
func encodeSorted(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, escape(k)+"="+escape(params[k]))
	}
	return strings.Join(pairs, "&")
}

// joinSorted serializes already-encoded pairs in ascending key order
// without re-escaping.
func joinSorted(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+params[k])
	}
	return strings.Join(pairs, "&")
}

func escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// PayloadFromQuery splits a raw query string into a callback payload
// without unescaping values. Keys are unescaped so lookups work; the
// values keep their wire encoding, which is what Verify signs over.
func PayloadFromQuery(rawQuery string) map[string]string {
	payload := make(map[string]string)
	for _, pair := range strings.Split(rawQuery, "&") {
		if pair == "" {
			continue
		}
		key, value, _ := strings.Cut(pair, "=")
		if unescaped, err := url.QueryUnescape(key); err == nil {
			key = unescaped
		}
		payload[key] = value
	}
	return payload
}

// DecodeValue unescapes a wire-form payload value for use outside the
// signature check.
func DecodeValue(v string) string {
	decoded, err := url.QueryUnescape(v)
	if err != nil {
		return v
	}
	return decoded
}
