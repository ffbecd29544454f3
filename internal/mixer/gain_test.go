package mixer

import (
	"errors"
	"math"
	"testing"
)

func TestParseGain(t *testing.T) {
	tests := []struct {
		name  string
		token string
		want  GainValue
	}{
		{"unity linear", "1.0", Linear(1.0)},
		{"fractional linear", "0.3", Linear(0.3)},
		{"integer linear", "2", Linear(2)},
		{"zero passes through", "0", Linear(0)},
		{"negative linear passes through", "-1", Linear(-1)},
		{"decibel mixed case", "-6dB", Decibel(-6)},
		{"decibel lower case", "-6db", Decibel(-6)},
		{"decibel upper case", "3DB", Decibel(3)},
		{"decibel positive sign", "+1.5dB", Decibel(1.5)},
		{"surrounding whitespace", " 0.5 ", Linear(0.5)},
		{"space before unit", "-3 dB", Decibel(-3)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseGain(tt.token)
			if err != nil {
				t.Fatalf("ParseGain(%q) returned error: %v", tt.token, err)
			}
			if got != tt.want {
				t.Errorf("ParseGain(%q) = %+v, want %+v", tt.token, got, tt.want)
			}
		})
	}
}

func TestParseGainInvalid(t *testing.T) {
	tokens := []string{"", "loud", "dB", "-6 dBFS", "1.0.0", "NaN", "Inf", "-infdB", "0x"}

	for _, token := range tokens {
		t.Run(token, func(t *testing.T) {
			_, err := ParseGain(token)
			if err == nil {
				t.Fatalf("ParseGain(%q) should fail", token)
			}
			if !errors.Is(err, ErrInvalidGain) {
				t.Errorf("ParseGain(%q) error = %v, want ErrInvalidGain", token, err)
			}
		})
	}
}

func TestParseGainDeterministic(t *testing.T) {
	for _, token := range []string{"1.0", "-6dB", "0"} {
		a, errA := ParseGain(token)
		b, errB := ParseGain(token)
		if errA != nil || errB != nil {
			t.Fatalf("ParseGain(%q) errors: %v, %v", token, errA, errB)
		}
		if a != b {
			t.Errorf("ParseGain(%q) not deterministic: %+v vs %+v", token, a, b)
		}
	}
}

func TestGainFilter(t *testing.T) {
	tests := []struct {
		gain GainValue
		want string
	}{
		{Linear(1.0), "volume=1"},
		{Linear(0.3), "volume=0.3"},
		{Linear(-1), "volume=-1"},
		{Decibel(-6), "volume=-6dB"},
		{Decibel(2.5), "volume=2.5dB"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.gain.Filter(); got != tt.want {
				t.Errorf("Filter() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGainConversions(t *testing.T) {
	t.Run("decibel to amplitude", func(t *testing.T) {
		got := Decibel(-6).Amplitude()
		if math.Abs(got-0.501187) > 1e-5 {
			t.Errorf("Amplitude() = %f, want ~0.501187", got)
		}
	})

	t.Run("linear to decibels", func(t *testing.T) {
		got := Linear(0.5).Decibels()
		if math.Abs(got-(-6.0206)) > 1e-3 {
			t.Errorf("Decibels() = %f, want ~-6.02", got)
		}
	})

	t.Run("silence floors at -120 dB", func(t *testing.T) {
		if got := Linear(0).Decibels(); got != -120.0 {
			t.Errorf("Decibels() = %f, want -120", got)
		}
	})

	t.Run("round trip", func(t *testing.T) {
		for _, db := range []float64{-24, -6, 0, 6} {
			got := LinearToDb(DbToLinear(db))
			if math.Abs(got-db) > 1e-9 {
				t.Errorf("LinearToDb(DbToLinear(%v)) = %v", db, got)
			}
		}
	})
}
