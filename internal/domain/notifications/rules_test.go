package notifications

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRuleTable_KnownKeyLookup(t *testing.T) {
	table := DefaultRuleTable()

	rule := table.Rule("scheduling.cancelled")
	if rule.Category != "scheduling" {
		t.Fatalf("expected scheduling category, got %s", rule.Category)
	}
	if len(rule.Channels) != 3 {
		t.Fatalf("expected 3 channels for cancellations, got %v", rule.Channels)
	}
	if !rule.SendImmediately {
		t.Fatalf("cancellations must send immediately")
	}
}

func TestRuleTable_UnknownKeyFallsBack(t *testing.T) {
	table := DefaultRuleTable()

	rule := table.Rule("inventory.restocked")
	if rule.Category != "default" {
		t.Fatalf("expected fallback rule, got category %s", rule.Category)
	}
	if len(rule.Channels) != 1 || rule.Channels[0] != ChannelEmail {
		t.Fatalf("fallback must be email-only, got %v", rule.Channels)
	}
	if rule.SendImmediately {
		t.Fatalf("fallback must queue, not send immediately")
	}
	if rule.MaxRetries != 3 {
		t.Fatalf("expected 3 fallback retries, got %d", rule.MaxRetries)
	}
}

func TestRuleTable_LookupReturnsCopy(t *testing.T) {
	table := DefaultRuleTable()

	first := table.Rule("scheduling.created")
	first.Channels[0] = Channel("PIGEON")

	second := table.Rule("scheduling.created")
	if second.Channels[0] != ChannelEmail {
		t.Fatalf("mutating a lookup result must not touch the table")
	}
}

func TestRuleTable_NormalizesSparseRules(t *testing.T) {
	table := NewRuleTable(map[string]Rule{
		"grooming.promo": {Category: "grooming"},
	})

	rule := table.Rule("grooming.promo")
	if len(rule.Channels) != 1 || rule.Channels[0] != ChannelEmail {
		t.Fatalf("empty channel list must default to email, got %v", rule.Channels)
	}
	if rule.Priority != PriorityMedium {
		t.Fatalf("empty priority must default to medium, got %s", rule.Priority)
	}
}

func TestLoadRuleTable_OverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	body := `
scheduling.completed:
  category: scheduling
  channels: [EMAIL, SMS]
  priority: low
  send_immediately: true
grooming.promo:
  category: grooming
  channels: [WHATSAPP]
  rate_limit_hours: 48
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write rules file: %v", err)
	}

	table, err := LoadRuleTable(path)
	if err != nil {
		t.Fatalf("LoadRuleTable returned error: %v", err)
	}

	// La clave pisada toma los valores del archivo.
	completed := table.Rule("scheduling.completed")
	if len(completed.Channels) != 2 || !completed.SendImmediately {
		t.Fatalf("file rule must override default, got %+v", completed)
	}

	// La clave nueva convive con las default intactas.
	promo := table.Rule("grooming.promo")
	if promo.RateLimitHours != 48 {
		t.Fatalf("expected 48h rate limit, got %d", promo.RateLimitHours)
	}
	created := table.Rule("scheduling.created")
	if !created.SendImmediately || len(created.Channels) != 2 {
		t.Fatalf("default rules must survive the overlay, got %+v", created)
	}
}

func TestLoadRuleTable_RejectsBadRules(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"unknown channel", "x.y:\n  channels: [PIGEON]\n"},
		{"negative retries", "x.y:\n  max_retries: -1\n"},
		{"negative window", "x.y:\n  rate_limit_hours: -2\n"},
		{"broken yaml", "x.y: [\n"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "rules.yaml")
			if err := os.WriteFile(path, []byte(tc.body), 0o600); err != nil {
				t.Fatalf("write rules file: %v", err)
			}
			if _, err := LoadRuleTable(path); err == nil {
				t.Fatalf("expected error for %s", tc.name)
			}
		})
	}
}

func TestLoadRuleTable_MissingFile(t *testing.T) {
	if _, err := LoadRuleTable(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
