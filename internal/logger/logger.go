package logger

import (
	"io"
	"log"
	"os"
)

var Log *log.Logger

func init() {
	// Usable before Init so early failures and tests can log safely.
	Log = log.New(io.Discard, "", log.LstdFlags)
}

// Init opens the agent log file in append mode. When GAMEWRIGHT_LOG_STDERR is
// set, log lines are mirrored to stderr.
func Init(logFilePath string) error {
	file, err := os.OpenFile(logFilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0666)
	if err != nil {
		return err
	}

	var out io.Writer = file
	if os.Getenv("GAMEWRIGHT_LOG_STDERR") != "" {
		out = io.MultiWriter(file, os.Stderr)
	}

	Log = log.New(out, "", log.LstdFlags)
	Log.Println("Logger initialized.")
	return nil
}
