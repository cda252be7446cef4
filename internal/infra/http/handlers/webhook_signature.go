package handlers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

const (
	SignatureHeader           = "ElevenLabs-Signature"
	defaultSignatureTolerance = 30 * time.Minute
)

var (
	ErrMissingSignature = eris.New("missing webhook signature")
	ErrInvalidSignature = eris.New("invalid webhook signature")
	ErrStaleSignature   = eris.New("webhook signature timestamp outside tolerance")
)

// SignatureVerifier checks "t=<unix>,v0=<hex>" headers where v0 is
// HMAC-SHA256(secret, "<t>.<body>").
type SignatureVerifier struct {
	Secret    string
	Tolerance time.Duration
	now       func() time.Time
}

func NewSignatureVerifier(secret string) *SignatureVerifier {
	return &SignatureVerifier{
		Secret:    secret,
		Tolerance: defaultSignatureTolerance,
		now:       time.Now,
	}
}

func (v *SignatureVerifier) Verify(header string, body []byte) error {
	if strings.TrimSpace(header) == "" {
		return ErrMissingSignature
	}

	var timestamp string
	var signatures []string
	for _, part := range strings.Split(header, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch key {
		case "t":
			timestamp = value
		case "v0":
			signatures = append(signatures, value)
		}
	}
	if timestamp == "" || len(signatures) == 0 {
		return ErrInvalidSignature
	}

	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return ErrInvalidSignature
	}
	age := v.now().Sub(time.Unix(ts, 0))
	if age < 0 {
		age = -age
	}
	if age > v.Tolerance {
		return ErrStaleSignature
	}

	expected := Sign(v.Secret, timestamp, body)
	for _, sig := range signatures {
		if hmac.Equal([]byte(sig), []byte(expected)) {
			return nil
		}
	}
	return ErrInvalidSignature
}

// Sign returns the hex v0 signature for a timestamp and body.
func Sign(secret, timestamp string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp))
	mac.Write([]byte("."))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
