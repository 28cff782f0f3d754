package paramstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

// ssmAPI is the minimal AWS SSM interface required by Client.
// *ssm.Client from aws-sdk-go-v2 satisfies this interface.
type ssmAPI interface {
	GetParameter(ctx context.Context, in *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// Getter is the interface that wraps GetParameter. Consumers should depend
// on this interface rather than the concrete *Client so they remain
// testable without real AWS calls.
type Getter interface {
	GetParameter(ctx context.Context, name string) (string, error)
}

// Secrets bundles the values the bot keeps out of its environment: the
// Telegram bot token and the gateway consumer id.
type Secrets struct {
	TelegramToken string
	ConsumerID    string
}

// Client wraps an AWS SSM API for parameter retrieval.
type Client struct {
	api ssmAPI
}

// New creates a Client with the given SSM API implementation.
func New(api ssmAPI) (*Client, error) {
	if api == nil {
		return nil, errors.New("paramstore: api must not be nil")
	}
	return &Client{api: api}, nil
}

func (c *Client) GetParameter(ctx context.Context, name string) (string, error) {
	if c.api == nil {
		return "", errors.New("paramstore: client not initialized")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errors.New("paramstore: name is required")
	}

	withDecryption := true
	out, err := c.api.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           &name,
		WithDecryption: &withDecryption,
	})
	if err != nil {
		return "", fmt.Errorf("paramstore: get parameter %q: %w", name, err)
	}
	if out == nil || out.Parameter == nil || out.Parameter.Value == nil {
		return "", errors.New("paramstore: parameter missing value")
	}
	return *out.Parameter.Value, nil
}

// LoadSecrets fetches the bot's secret bundle from under prefix. Called once
// at startup; nothing refetches parameters per update.
func LoadSecrets(ctx context.Context, g Getter, prefix string) (Secrets, error) {
	prefix = strings.TrimRight(strings.TrimSpace(prefix), "/")
	if prefix == "" {
		return Secrets{}, errors.New("paramstore: parameter prefix must not be empty")
	}

	token, err := fetchSecret(ctx, g, prefix+"/telegram-token")
	if err != nil {
		return Secrets{}, fmt.Errorf("paramstore: load telegram token: %w", err)
	}
	consumerID, err := fetchSecret(ctx, g, prefix+"/tbank-consumer-id")
	if err != nil {
		return Secrets{}, fmt.Errorf("paramstore: load consumer id: %w", err)
	}
	return Secrets{TelegramToken: token, ConsumerID: consumerID}, nil
}

// fetchSecret rejects blank parameter values: a placeholder written during
// provisioning must fail startup, not produce an unauthenticated client.
func fetchSecret(ctx context.Context, g Getter, name string) (string, error) {
	v, err := g.GetParameter(ctx, name)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(v) == "" {
		return "", fmt.Errorf("parameter %q is blank", name)
	}
	return v, nil
}
