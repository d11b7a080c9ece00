package service

import (
	"context"
	"fmt"

	"github.com/gofiber/fiber/v3/client"

	"github.com/mparaz/cloudflare-ranking/internal/model"
)

// Verifier asks the human-verification oracle whether a token is valid for the
// given client IP. A rejected token is reported as Success=false, not as an
// error; an error means the oracle could not be consulted.
type Verifier interface {
	Verify(ctx context.Context, token, remoteIP string) (*model.VerificationOutcome, error)
}

// TurnstileVerifier calls Cloudflare Turnstile's siteverify endpoint.
type TurnstileVerifier struct {
	secret    string
	verifyURL string
	cc        *client.Client
}

func NewTurnstileVerifier(secret, verifyURL string) *TurnstileVerifier {
	return &TurnstileVerifier{
		secret:    secret,
		verifyURL: verifyURL,
		cc:        client.New(),
	}
}

// Verify posts the token as a form. No retry is layered on top; the request
// context carries the only deadline.
func (v *TurnstileVerifier) Verify(ctx context.Context, token, remoteIP string) (*model.VerificationOutcome, error) {
	form := map[string]string{
		"secret":   v.secret,
		"response": token,
	}
	if remoteIP != "" {
		form["remoteip"] = remoteIP
	}

	resp, err := v.cc.Post(v.verifyURL, client.Config{
		Ctx:      ctx,
		FormData: form,
	})
	if err != nil {
		return nil, fmt.Errorf("siteverify request: %w", err)
	}
	defer resp.Close()

	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("siteverify returned status %d", resp.StatusCode())
	}

	var outcome model.VerificationOutcome
	if err := resp.JSON(&outcome); err != nil {
		return nil, fmt.Errorf("decode siteverify response: %w", err)
	}
	return &outcome, nil
}
