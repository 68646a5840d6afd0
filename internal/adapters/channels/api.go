package channels

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"pet-grooming-scheduler/internal/platform/httpclient"
	channelports "pet-grooming-scheduler/internal/ports/channels"
)

// apiProvider habla con un gateway de mensajería por HTTP JSON
// (el vendor concreto de email/SMS/WhatsApp queda detrás del gateway).
// Un rate limiter local evita pasarnos de la cuota del proveedor.
type apiProvider struct {
	client  *httpclient.Client
	path    string
	channel string
	apiKey  string
	limiter *rate.Limiter
}

type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration

	// RatePerSecond <= 0 desactiva el pacing local.
	RatePerSecond float64
	Burst         int
}

type sendRequest struct {
	Channel   string `json:"channel"`
	Recipient string `json:"recipient"`
	Content   string `json:"content"`
}

type sendResponse struct {
	MessageID string `json:"message_id"`
	Delivered bool   `json:"delivered"`
}

func newAPIProvider(channel, path string, cfg Config) (*apiProvider, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, errors.New("channels: base url required")
	}

	client, err := httpclient.NewWithBaseURL(cfg.BaseURL, cfg.Timeout)
	if err != nil {
		return nil, err
	}

	var limiter *rate.Limiter
	if cfg.RatePerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), burst)
	}

	return &apiProvider{
		client:  client,
		path:    path,
		channel: channel,
		apiKey:  cfg.APIKey,
		limiter: limiter,
	}, nil
}

// NewEmailProvider envía por el gateway de email.
func NewEmailProvider(cfg Config) (channelports.Provider, error) {
	return newAPIProvider("EMAIL", "/v1/email/send", cfg)
}

// NewSMSProvider envía por el gateway de SMS.
func NewSMSProvider(cfg Config) (channelports.Provider, error) {
	return newAPIProvider("SMS", "/v1/sms/send", cfg)
}

// NewWhatsAppProvider envía por el gateway de WhatsApp
// (único canal que reporta acuse de entrega sincrónico).
func NewWhatsAppProvider(cfg Config) (channelports.Provider, error) {
	return newAPIProvider("WHATSAPP", "/v1/whatsapp/send", cfg)
}

func (p *apiProvider) Send(ctx context.Context, recipient, content string) (channelports.Outcome, error) {
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return channelports.Outcome{}, err
		}
	}

	headers := map[string]string{}
	if p.apiKey != "" {
		headers["Authorization"] = "Bearer " + p.apiKey
	}

	var resp sendResponse
	err := p.client.DoJSON(ctx, http.MethodPost, p.path, headers, sendRequest{
		Channel:   p.channel,
		Recipient: recipient,
		Content:   content,
	}, &resp)
	if err != nil {
		return channelports.Outcome{}, err
	}

	return channelports.Outcome{
		Delivered:         resp.Delivered,
		ProviderMessageID: resp.MessageID,
	}, nil
}
