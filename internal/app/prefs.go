package app

import (
	"context"

	"study-session-engine/internal/storage"
)

// PrefOnboardingCompleted gates the first-run onboarding flow.
const PrefOnboardingCompleted = "onboarding_completed"

const prefKeyPrefix = "prefs:"

// PrefStore persists boolean preference flags through the same storage
// gateway as history, under their own key namespace.
type PrefStore struct {
	gateway *storage.Gateway
}

func NewPrefStore(gateway *storage.Gateway) *PrefStore {
	return &PrefStore{gateway: gateway}
}

// Flag reports whether a preference flag is set. Missing keys read as
// false.
func (p *PrefStore) Flag(ctx context.Context, name string) (bool, error) {
	raw, err := p.gateway.Read(ctx, prefKeyPrefix+name)
	if err != nil {
		return false, err
	}
	return string(raw) == "true", nil
}

// SetFlag stores a preference flag.
func (p *PrefStore) SetFlag(ctx context.Context, name string, value bool) error {
	payload := "false"
	if value {
		payload = "true"
	}
	return p.gateway.Write(ctx, prefKeyPrefix+name, []byte(payload))
}
