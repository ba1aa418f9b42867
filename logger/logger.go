// Package logger provides the process-wide logger plus one logger per
// device, each JSON-formatted and file-backed, matching the teacher's
// logger.CustomLogger/util.LogInfo split between a process logger and
// per-device loggers.
package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/shamanec/ios-device-control/store"
	"github.com/sirupsen/logrus"
)

// Process is the host-level logger: host init, HTTP server, config load.
// Populated by InitProcessLogger before main starts anything else.
var Process *logrus.Logger

// InitProcessLogger opens logFolder/provider.log and installs it as the
// process-wide logger, JSON-formatted like every other logger in this
// package.
func InitProcessLogger(logFolder string) error {
	logger, err := newJSONLogger(filepath.Join(logFolder, "provider.log"))
	if err != nil {
		return fmt.Errorf("logger: init process logger: %w", err)
	}
	Process = logger
	return nil
}

var (
	deviceLoggers   = map[string]*logrus.Logger{}
	deviceLoggersMu sync.Mutex
)

// ForDevice returns the *logrus.Logger for udid, creating and memoizing one
// under logFolder/<udid>.log on first use — mirroring the teacher's one-
// file-per-device CreateCustomLogger, but without re-opening the file on
// every call.
func ForDevice(logFolder, udid string) (*logrus.Logger, error) {
	deviceLoggersMu.Lock()
	defer deviceLoggersMu.Unlock()

	if l, ok := deviceLoggers[udid]; ok {
		return l, nil
	}
	l, err := newJSONLogger(filepath.Join(logFolder, udid+".log"))
	if err != nil {
		return nil, fmt.Errorf("logger: device %s: %w", udid, err)
	}
	deviceLoggers[udid] = l
	return l, nil
}

func newJSONLogger(path string) (*logrus.Logger, error) {
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	l := logrus.New()
	l.SetFormatter(&logrus.JSONFormatter{})
	l.SetOutput(file)
	return l, nil
}

// AttachMongoHook adds a persistence hook to l that writes every fired
// entry as a document in collection, grounded on the teacher's
// CreateCustomLogger wiring a MongoDBHook into every logger it creates.
func AttachMongoHook(l *logrus.Logger, client *store.Client, collection, host string) {
	l.AddHook(&store.LogHook{Client: client, Database: "logs", Collection: collection, Host: host})
}
