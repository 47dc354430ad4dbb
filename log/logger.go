package log

import (
	"os"
	"path/filepath"

	"github.com/aurelianware/payerlink/conf"
	"github.com/sirupsen/logrus"
)

var (
	Mapper   logrus.FieldLogger
	Matching logrus.FieldLogger
	Consent  logrus.FieldLogger
	Exchange logrus.FieldLogger
	Timeline logrus.FieldLogger
	Backend  logrus.FieldLogger

	Worker logrus.FieldLogger
)

func init() {
	Mapper = Logger(logrus.New(), conf.GetEnv("PLX_MAPPER_LOG"),
		"engine", conf.GetEnv("ENVIRONMENT"))
	Matching = Logger(logrus.New(), conf.GetEnv("PLX_MATCHING_LOG"),
		"engine", conf.GetEnv("ENVIRONMENT"))
	Consent = Logger(logrus.New(), conf.GetEnv("PLX_CONSENT_LOG"),
		"engine", conf.GetEnv("ENVIRONMENT"))
	Exchange = Logger(logrus.New(), conf.GetEnv("PLX_EXCHANGE_LOG"),
		"engine", conf.GetEnv("ENVIRONMENT"))
	Timeline = Logger(logrus.New(), conf.GetEnv("PLX_TIMELINE_LOG"),
		"engine", conf.GetEnv("ENVIRONMENT"))
	Backend = Logger(logrus.New(), conf.GetEnv("PLX_BACKEND_LOG"),
		"engine", conf.GetEnv("ENVIRONMENT"))

	Worker = Logger(logrus.New(), conf.GetEnv("PLX_WORKER_LOG"),
		"worker", conf.GetEnv("ENVIRONMENT"))
}

func Logger(logger *logrus.Logger, outputFile string,
	application, environment string) logrus.FieldLogger {

	if outputFile != "" {
		if file, err := os.OpenFile(filepath.Clean(outputFile), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0640); err == nil {
			logger.SetOutput(file)
		} else {
			logger.Infof("Failed to open output file %s. Will use stderr. %s",
				outputFile, err.Error())
		}
	}

	return logger.WithFields(logrus.Fields{
		"application": application,
		"environment": environment})
}
