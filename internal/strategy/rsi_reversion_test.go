package strategy

import (
	"testing"

	"github.com/keel-lab/keel-trading/internal/types"
	"github.com/keel-lab/keel-trading/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestRSIReversionEvaluate(t *testing.T) {
	tests := []struct {
		name   string
		closes []float64
		want   types.SignalType
	}{
		{
			name:   "oversold after straight decline",
			closes: []float64{10, 9, 8, 7},
			want:   types.SignalTypeBuy,
		},
		{
			name:   "overbought after straight rally",
			closes: []float64{7, 8, 9, 10},
			want:   types.SignalTypeSell,
		},
		{
			name:   "neutral chop",
			closes: []float64{10, 9, 10, 9},
			want:   types.SignalTypeHold,
		},
		{
			name:   "flat prices read as neutral",
			closes: []float64{5, 5, 5, 5},
			want:   types.SignalTypeHold,
		},
		{
			name:   "window shorter than period",
			closes: []float64{10, 9, 8},
			want:   types.SignalTypeHold,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			strat := NewRSIReversion()
			err := strat.Initialize("period: 3\noversold: 30\noverbought: 70\n")
			assert.NoError(t, err)

			signal, err := strat.Evaluate(barsFromCloses(tt.closes...))
			assert.NoError(t, err)
			assert.Equal(t, tt.want, signal)
		})
	}
}

func TestRSIReversionInitialize(t *testing.T) {
	tests := []struct {
		name    string
		config  string
		wantErr bool
	}{
		{
			name:    "defaults on empty config",
			config:  "",
			wantErr: false,
		},
		{
			name:    "custom thresholds",
			config:  "period: 5\noversold: 25\noverbought: 75\n",
			wantErr: false,
		},
		{
			name:    "period too small",
			config:  "period: 1\n",
			wantErr: true,
		},
		{
			name:    "thresholds inverted",
			config:  "oversold: 80\noverbought: 20\n",
			wantErr: true,
		},
		{
			name:    "malformed yaml",
			config:  "period: {",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			strat := NewRSIReversion()
			err := strat.Initialize(tt.config)
			if tt.wantErr {
				assert.Error(t, err)
				assert.True(t, errors.HasCode(err, errors.ErrCodeStrategyConfigError))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRSIReversionDefaults(t *testing.T) {
	strat := NewRSIReversion()
	assert.NoError(t, strat.Initialize(""))
	assert.Equal(t, "rsi_reversion", strat.Name())
	assert.Equal(t, 14, strat.config.Period)
	assert.Equal(t, 30.0, strat.config.Oversold)
	assert.Equal(t, 70.0, strat.config.Overbought)
}
