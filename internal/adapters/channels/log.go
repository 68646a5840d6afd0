package channels

import (
	"context"

	"pet-grooming-scheduler/internal/platform/logger"
	channelports "pet-grooming-scheduler/internal/ports/channels"
)

// LogProvider es el canal de desarrollo: escribe el mensaje al log en
// vez de mandarlo. Nunca confirma entrega.
type LogProvider struct {
	channel string
	log     logger.Logger
}

func NewLogProvider(channel string, log logger.Logger) *LogProvider {
	return &LogProvider{channel: channel, log: log}
}

func (p *LogProvider) Send(ctx context.Context, recipient, content string) (channelports.Outcome, error) {
	p.log.Info("notification (dev channel)", map[string]any{
		"channel":   p.channel,
		"recipient": recipient,
		"content":   content,
	})
	return channelports.Outcome{}, nil
}
