package logger

import (
	"log"

	"github.com/joeshaw/envdecode"
)

type Conf struct {
	LogDir string `env:"AGUI_LOG_DIR,default=logs"`
}

func LogConfig() *Conf {
	configs := new(Conf)
	if err := envdecode.StrictDecode(configs); err != nil {
		log.Fatalf("failed to decode log config: %s", err)
	}
	return configs
}

var logCfg = LogConfig()
