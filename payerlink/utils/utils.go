package utils

import (
	"os"
	"strconv"

	"github.com/aurelianware/payerlink/conf"
	"github.com/sirupsen/logrus"
)

// FromEnv always returns a string that is either a non-empty value from the
// configuration key or the string otherwise.
func FromEnv(key, otherwise string) string {
	s := conf.GetEnv(key)
	if s == "" {
		return otherwise
	}
	return s
}

func GetEnvInt(varName string, defaultVal int) int {
	v := conf.GetEnv(varName)
	if v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return defaultVal
}

func GetEnvFloat(varName string, defaultVal float64) float64 {
	v := conf.GetEnv(varName)
	if v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err == nil {
			return f
		}
	}
	return defaultVal
}

// ContainsString returns true if target is in the array sa and false if it is not.
func ContainsString(sa []string, target string) bool {
	for _, s := range sa {
		if s == target {
			return true
		}
	}
	return false
}

// CloseFileAndLogError closes a file, logging the error instead of
// propagating it. Used in defers where the write outcome was already checked.
func CloseFileAndLogError(f *os.File) {
	if f == nil {
		return
	}
	if err := f.Close(); err != nil {
		logrus.Error("Failed to close file ", err)
	}
}
