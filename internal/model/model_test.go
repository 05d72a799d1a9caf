package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseStatus(t *testing.T) {
	tests := []struct {
		in      string
		want    Status
		wantErr bool
	}{
		{in: "pending", want: StatusPending},
		{in: "active", want: StatusActive},
		{in: "banned", want: StatusBanned},
		{in: "expired", wantErr: true},
		{in: "ACTIVE", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseStatus(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				assert.False(t, Status(tt.in).Valid())
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.True(t, got.Valid())
		})
	}
}

func TestStatusesRoundTrip(t *testing.T) {
	for _, status := range Statuses {
		got, err := ParseStatus(string(status))
		assert.NoError(t, err)
		assert.Equal(t, status, got)
	}
}

func TestKeyStatistics(t *testing.T) {
	stats := &KeyStatistics{
		ActiveKeys:        5,
		ExpiredKeys:       2,
		Activations:       3,
		FailedActivations: 1,
		KeysByApp:         map[string]int64{"app-1": 4},
	}

	assert.Equal(t, int64(3), stats.ValidKeys())
	assert.InDelta(t, 0.75, stats.ActivationSuccessRate(), 0.0001)
	assert.Equal(t, int64(4), stats.CountFor("app-1"))
	assert.Equal(t, int64(0), stats.CountFor("missing"))
	assert.Zero(t, (&KeyStatistics{}).ActivationSuccessRate())
}
