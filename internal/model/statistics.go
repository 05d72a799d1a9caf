package model

// KeyStatistics summarises the key population at a point in time.
type KeyStatistics struct {
	TotalKeys         int64            `json:"totalKeys"`
	PendingKeys       int64            `json:"pendingKeys"`
	ActiveKeys        int64            `json:"activeKeys"`
	BannedKeys        int64            `json:"bannedKeys"`
	ExpiredKeys       int64            `json:"expiredKeys"`
	ExpiringKeys      int64            `json:"expiringKeys"`
	KeysByApp         map[string]int64 `json:"keysByApplication"`
	Applications      int64            `json:"applications"`
	Activations       int64            `json:"activations"`
	FailedActivations int64            `json:"failedActivations"`
}

// ValidKeys is the number of active keys that have not yet expired.
func (ks *KeyStatistics) ValidKeys() int64 {
	return ks.ActiveKeys - ks.ExpiredKeys
}

// ActivationSuccessRate is the share of activation attempts that succeeded.
func (ks *KeyStatistics) ActivationSuccessRate() float64 {
	total := ks.Activations + ks.FailedActivations
	if total == 0 {
		return 0
	}
	return float64(ks.Activations) / float64(total)
}

// CountFor returns the number of keys issued for the given application.
func (ks *KeyStatistics) CountFor(applicationID string) int64 {
	if n, ok := ks.KeysByApp[applicationID]; ok {
		return n
	}
	return 0
}
