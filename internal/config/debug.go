package config

import "os"

func IsDebug() bool {
	return os.Getenv("MEMOBOT_DEBUG") == "1"
}
