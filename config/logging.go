package config

import (
	"io"
	"log"
	"os"
	"path/filepath"
)

// LogWriter is the writer used for application and database logs.
var LogWriter io.Writer = os.Stdout

// LogFilePath returns the path to the backend log file.
func LogFilePath() string {
	return filepath.Join("logs", "ip-review-api.log")
}

// InitLogging opens the log file and tees the standard logger into it.
// The returned file must be closed by the caller on shutdown.
func InitLogging() (*os.File, io.Writer) {
	if err := os.MkdirAll(filepath.Dir(LogFilePath()), os.ModePerm); err != nil {
		log.Printf("Warning: Failed to create logs directory: %v", err)
	}

	logFile, err := os.OpenFile(LogFilePath(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		log.Printf("Warning: Failed to open log file: %v", err)
		SetLogWriter(os.Stdout)
		return nil, LogWriter
	}

	SetLogWriter(io.MultiWriter(os.Stdout, logFile))
	return logFile, LogWriter
}

// SetLogWriter swaps the destination of every component logger.
func SetLogWriter(w io.Writer) {
	LogWriter = w
	log.SetOutput(w)
}

// lateWriter resolves LogWriter on each write so loggers built at package
// init follow a later InitLogging call.
type lateWriter struct{}

func (lateWriter) Write(p []byte) (int, error) { return LogWriter.Write(p) }

// Logger returns a logger whose lines are tagged with the component name,
// e.g. "[suggestion] accepted ...".
func Logger(component string) *log.Logger {
	return log.New(lateWriter{}, "["+component+"] ", log.LstdFlags)
}
