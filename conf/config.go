package conf

/*
   Package conf wraps viper for the payerlink engine. Configuration is read
   once from an env-format file when one is present; otherwise every lookup
   falls through to the process environment. Deployed environments provide
   the env file through the secret mount, local development usually runs on
   plain environment variables.

   Assumptions:
   1. The configuration file is an env file.
   2. Once loaded, configuration stays immutable for the lifetime of the
      process (tests are the exception, via SetEnv/UnsetEnv).
*/

import (
	"os"
	"testing"

	"github.com/spf13/viper"
)

// An instance of the viper struct holding the loaded configuration. Only
// accessible through GetEnv, LookupEnv, SetEnv, UnsetEnv.
var envVars viper.Viper

const (
	configGood    uint8 = 0
	configBad     uint8 = 1
	noConfigFound uint8 = 2
)

var state = configGood

// setup points viper at the discovered config directory and parses the file.
func setup(dir string) *viper.Viper {
	v := viper.New()
	v.SetConfigName("local")
	v.SetConfigType("env")
	v.AddConfigPath(dir)
	if err := v.ReadInConfig(); err != nil {
		state = configBad
	}
	return v
}

func init() {
	// Possible config file locations: local development and the deployed
	// secret mount, in that order.
	locations := []string{
		"shared_files/decrypted",
		"/etc/payerlink/decrypted",
	}

	if found, loc := findEnv(locations); found {
		envVars = *setup(loc)
	} else {
		state = noConfigFound
	}
}

func findEnv(locations []string) (bool, string) {
	for _, loc := range locations {
		if _, err := os.Stat(loc + "/local.env"); err == nil {
			return true, loc
		}
	}
	return false, ""
}

// GetEnv retrieves the value stored in conf. If it does not exist, the empty
// string is returned.
func GetEnv(key string) string {
	if state == configGood {
		value := envVars.GetString(key)

		// Even with a loaded config file, a key missing from it may still be
		// set in the environment. Copy it into conf to avoid repeat OS calls.
		if value == "" {
			v, ok := os.LookupEnv(key)
			if ok {
				value = v
				t := &testing.T{}
				_ = SetEnv(t, key, value)
			}
		}

		return value
	}

	return os.Getenv(key)
}

// LookupEnv augments os.LookupEnv to consult the loaded config first.
func LookupEnv(key string) (string, bool) {
	if state == configGood {
		if value := envVars.Get(key); value != nil && value != "" {
			return value.(string), true
		}
		if v, exist := os.LookupEnv(key); exist {
			t := &testing.T{}
			_ = SetEnv(t, key, v)
			return v, exist
		}
		return "", false
	}

	return os.LookupEnv(key)
}

// SetEnv adds a key/value into conf. Intended for this package and tests
// only; the *testing.T parameter keeps callers honest about that scope.
func SetEnv(protect *testing.T, key string, value string) error {
	var err error
	if state == configGood {
		envVars.Set(key, value)
	} else {
		err = os.Setenv(key, value)
	}
	return err
}

// UnsetEnv "unsets" a variable. Like SetEnv, tests only.
func UnsetEnv(protect *testing.T, key string) error {
	if state == configGood {
		envVars.Set(key, "")
	}
	return os.Unsetenv(key)
}
