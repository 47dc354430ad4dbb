// Package matching scores demographic identities against candidate records
// and applies a confidence threshold. A shared identifier is authoritative;
// demographic scoring only decides when no identifier settles the question.
package matching

import (
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"github.com/aurelianware/payerlink/log"
)

// Weights apportion the confidence across the five comparators. They sum to
// 1.0; with the identifier comparator short-circuiting on agreement, a
// candidate agreeing on every demographic field scores 0.80.
type Weights struct {
	Identifier float64 `mapstructure:"identifier"`
	Name       float64 `mapstructure:"name"`
	BirthDate  float64 `mapstructure:"birthDate"`
	Sex        float64 `mapstructure:"sex"`
	Address    float64 `mapstructure:"address"`
	Telecom    float64 `mapstructure:"telecom"`
}

// Config carries the matcher tunables. Compliance staff adjust the
// threshold per deployment; the defaults are the reviewed baseline.
type Config struct {
	Weights         Weights `mapstructure:"weights"`
	MatchThreshold  float64 `mapstructure:"matchThreshold"`
	NameDistanceMax int     `mapstructure:"nameDistanceMax"`
}

// DefaultConfig is the reviewed baseline: name and birth date carry the
// most weight, telecom the least.
func DefaultConfig() Config {
	return Config{
		Weights: Weights{
			Identifier: 0.20,
			Name:       0.25,
			BirthDate:  0.25,
			Sex:        0.15,
			Address:    0.10,
			Telecom:    0.05,
		},
		MatchThreshold:  0.80,
		NameDistanceMax: 2,
	}
}

// LoadConfig resolves the matcher tunables from the environment on top of
// the defaults (PLX_MATCH_MATCHTHRESHOLD, PLX_MATCH_WEIGHTS_NAME, ...).
func LoadConfig() Config {
	defaults := DefaultConfig()

	v := viper.New()
	v.SetEnvPrefix("PLX_MATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("matchThreshold", defaults.MatchThreshold)
	v.SetDefault("nameDistanceMax", defaults.NameDistanceMax)
	v.SetDefault("weights.identifier", defaults.Weights.Identifier)
	v.SetDefault("weights.name", defaults.Weights.Name)
	v.SetDefault("weights.birthDate", defaults.Weights.BirthDate)
	v.SetDefault("weights.sex", defaults.Weights.Sex)
	v.SetDefault("weights.address", defaults.Weights.Address)
	v.SetDefault("weights.telecom", defaults.Weights.Telecom)

	var cfg Config
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.ErrorUnused = false
	}); err != nil {
		log.Matching.Warnf("Could not resolve matcher tunables, using defaults: %s", err.Error())
		return defaults
	}
	return cfg
}
