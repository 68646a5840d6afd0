package notifications

import (
	"fmt"
	"os"
	"strings"

	yaml "go.yaml.in/yaml/v3"
)

// Priority es informativa (orden de atención humana), no altera el despacho.
// @Enum high, medium, low
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Rule define cómo, cuándo y cuántas veces se despacha un tipo de
// notificación. Es configuración de solo lectura.
type Rule struct {
	Category string    `yaml:"category"`
	Channels []Channel `yaml:"channels"`
	Priority Priority  `yaml:"priority"`

	// RateLimitHours > 0 suprime re-envíos del mismo evento al mismo
	// destinatario dentro de la ventana (por destinatario, no global).
	RateLimitHours int `yaml:"rate_limit_hours"`

	SendImmediately      bool `yaml:"send_immediately"`
	RequiresConfirmation bool `yaml:"requires_confirmation"`
	ResendOnFailure      bool `yaml:"resend_on_failure"`
	MaxRetries           int  `yaml:"max_retries"`
}

// RuleTable es la tabla de reglas, inmutable una vez construida.
// Se resuelve al arranque y se inyecta al Dispatcher (nada de lookup global).
type RuleTable struct {
	rules    map[string]Rule
	fallback Rule
}

// defaultFallback es la regla conservadora para claves desconocidas:
// solo email, prioridad media, encolada, 3 reintentos.
func defaultFallback() Rule {
	return Rule{
		Category:        "default",
		Channels:        []Channel{ChannelEmail},
		Priority:        PriorityMedium,
		SendImmediately: false,
		ResendOnFailure: true,
		MaxRetries:      3,
	}
}

func NewRuleTable(rules map[string]Rule) *RuleTable {
	owned := make(map[string]Rule, len(rules))
	for k, r := range rules {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		owned[k] = normalizeRule(r)
	}
	return &RuleTable{
		rules:    owned,
		fallback: defaultFallback(),
	}
}

// DefaultRuleTable trae las reglas de negocio de la peluquería.
func DefaultRuleTable() *RuleTable {
	return NewRuleTable(map[string]Rule{
		"scheduling.created": {
			Category:        "scheduling",
			Channels:        []Channel{ChannelEmail, ChannelWhatsApp},
			Priority:        PriorityHigh,
			SendImmediately: true,
			ResendOnFailure: true,
			MaxRetries:      3,
		},
		"scheduling.confirmed": {
			Category:        "scheduling",
			Channels:        []Channel{ChannelEmail},
			Priority:        PriorityMedium,
			SendImmediately: true,
			ResendOnFailure: true,
			MaxRetries:      3,
		},
		"scheduling.cancelled": {
			Category:        "scheduling",
			Channels:        []Channel{ChannelEmail, ChannelSMS, ChannelWhatsApp},
			Priority:        PriorityHigh,
			SendImmediately: true,
			ResendOnFailure: true,
			MaxRetries:      5,
		},
		"scheduling.rescheduled": {
			Category:        "scheduling",
			Channels:        []Channel{ChannelEmail, ChannelWhatsApp},
			Priority:        PriorityHigh,
			SendImmediately: true,
			ResendOnFailure: true,
			MaxRetries:      3,
		},
		"scheduling.reminder": {
			Category:             "scheduling",
			Channels:             []Channel{ChannelSMS, ChannelWhatsApp},
			Priority:             PriorityHigh,
			SendImmediately:      false,
			RequiresConfirmation: true,
			ResendOnFailure:      true,
			MaxRetries:           2,
		},
		"scheduling.completed": {
			Category:        "scheduling",
			Channels:        []Channel{ChannelEmail},
			Priority:        PriorityLow,
			SendImmediately: false,
			ResendOnFailure: false,
		},
		"scheduling.no_show": {
			Category:        "scheduling",
			Channels:        []Channel{ChannelEmail},
			Priority:        PriorityMedium,
			SendImmediately: false,
			ResendOnFailure: true,
			MaxRetries:      1,
		},
		// Saludo de cumpleaños: uno por mascota por año.
		"pet.birthday": {
			Category:        "pet",
			Channels:        []Channel{ChannelEmail, ChannelWhatsApp},
			Priority:        PriorityLow,
			RateLimitHours:  8760,
			SendImmediately: false,
			ResendOnFailure: false,
		},
	})
}

// Rule es lookup total: una clave desconocida resuelve al fallback.
func (t *RuleTable) Rule(typeKey string) Rule {
	r, ok := t.rules[strings.TrimSpace(typeKey)]
	if !ok {
		r = t.fallback
	}
	// Copia del slice: la tabla es inmutable, el caller no puede mutarla.
	channels := make([]Channel, len(r.Channels))
	copy(channels, r.Channels)
	r.Channels = channels
	return r
}

func (t *RuleTable) Keys() []string {
	keys := make([]string, 0, len(t.rules))
	for k := range t.rules {
		keys = append(keys, k)
	}
	return keys
}

// LoadRuleTable lee reglas desde YAML (clave "category.type" => regla).
// Las reglas del archivo se superponen a las default.
func LoadRuleTable(path string) (*RuleTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("rules: read %s: %w", path, err)
	}

	var raw map[string]Rule
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("rules: parse %s: %w", path, err)
	}

	merged := map[string]Rule{}
	base := DefaultRuleTable()
	for k, r := range base.rules {
		merged[k] = r
	}
	for k, r := range raw {
		if err := validateRule(k, r); err != nil {
			return nil, err
		}
		merged[k] = r
	}
	return NewRuleTable(merged), nil
}

func validateRule(key string, r Rule) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("rules: empty key")
	}
	for _, c := range r.Channels {
		if !c.Valid() {
			return fmt.Errorf("rules: %s: unknown channel %q", key, c)
		}
	}
	if r.MaxRetries < 0 {
		return fmt.Errorf("rules: %s: negative max_retries", key)
	}
	if r.RateLimitHours < 0 {
		return fmt.Errorf("rules: %s: negative rate_limit_hours", key)
	}
	return nil
}

func normalizeRule(r Rule) Rule {
	if len(r.Channels) == 0 {
		r.Channels = []Channel{ChannelEmail}
	}
	if r.Priority == "" {
		r.Priority = PriorityMedium
	}
	if r.MaxRetries < 0 {
		r.MaxRetries = 0
	}
	return r
}
