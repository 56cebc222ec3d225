package signer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// RemoteSigner talks to a local signer gateway, the daemon that fronts the
// user's wallet (the browser-extension analog). The gateway owns the keys
// and the approval UI; this client only ferries requests.
type RemoteSigner struct {
	baseURL    string
	httpClient *http.Client
	address    string
}

// NewRemoteSigner connects to the signer gateway and resolves the active
// account address.
func NewRemoteSigner(ctx context.Context, gatewayURL string, timeout time.Duration) (*RemoteSigner, error) {
	if gatewayURL == "" {
		return nil, fmt.Errorf("signer gateway URL cannot be empty")
	}
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}

	s := &RemoteSigner{
		baseURL: strings.TrimRight(gatewayURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}

	var account struct {
		Address string `json:"address"`
	}
	if err := s.post(ctx, "/account", nil, &account); err != nil {
		return nil, fmt.Errorf("unable to reach signer gateway: %w", err)
	}
	if account.Address == "" {
		return nil, fmt.Errorf("signer gateway returned no connected account")
	}
	s.address = account.Address

	zap.L().Info("Connected to signer gateway",
		zap.String("url", s.baseURL),
		zap.String("address", s.address))

	return s, nil
}

func (s *RemoteSigner) Address() string {
	return s.address
}

func (s *RemoteSigner) BuildTransfer(ctx context.Context, req TransferRequest) (string, error) {
	return s.signingCall(ctx, "/build-transfer", req)
}

func (s *RemoteSigner) SignTransfer(ctx context.Context, req TransferRequest) (string, error) {
	return s.signingCall(ctx, "/sign-transfer", req)
}

func (s *RemoteSigner) SignClaimFee(ctx context.Context, req ClaimFeeRequest) (string, error) {
	return s.signingCall(ctx, "/sign-claim-fee", req)
}

// signingCall posts a signing request and unwraps the gateway's response.
// A declined prompt comes back as an empty payload, not an error.
func (s *RemoteSigner) signingCall(ctx context.Context, path string, req any) (string, error) {
	var result struct {
		Payload  string `json:"payload"`
		Declined bool   `json:"declined"`
	}
	if err := s.post(ctx, path, req, &result); err != nil {
		return "", err
	}
	if result.Declined {
		return "", nil
	}
	return result.Payload, nil
}

func (s *RemoteSigner) post(ctx context.Context, path string, body, out any) error {
	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode signer request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build signer request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("signer gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("signer gateway returned status %d for %s", resp.StatusCode, path)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode signer response: %w", err)
	}
	return nil
}
