package binutil

import (
	"fmt"
	"io"
	"net/http"
	_ "net/http/pprof"
	"os"

	"github.com/natefinch/lumberjack"

	"github.com/gridmirror/gridmirror/engine/gmlog"
)

// SetupHTTPServer starts the HTTP server for go tool pprof
func SetupHTTPServer(ip string, port int) {
	if port == 0 {
		// pprof not enabled
		gmlog.Infof("pprof server not enabled")
		return
	}

	httpHost := fmt.Sprintf("%s:%d", ip, port)
	gmlog.Infof("http server listening on %s", httpHost)
	gmlog.Infof("pprof http://%s/debug/pprof/ ... available commands: ", httpHost)
	gmlog.Infof("    go tool pprof http://%s/debug/pprof/heap", httpHost)
	gmlog.Infof("    go tool pprof http://%s/debug/pprof/profile", httpHost)

	go http.ListenAndServe(httpHost, nil)
}

// SetupGMLog setup the gridmirror log system
func SetupGMLog(component string, logLevel string, logFile string, logStderr bool) {
	gmlog.SetSource(component)
	gmlog.Infof("Set log level to %s", logLevel)
	gmlog.SetLevel(gmlog.StringToLevel(logLevel))

	outputWriters := make([]io.Writer, 0, 2)
	if logFile != "" {
		logFileWriter := &lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    100, // megabytes
			MaxBackups: 100,
			MaxAge:     30, //days
			Compress:   true,
		}

		logFileWriter.Rotate() // rotate immediately
		outputWriters = append(outputWriters, logFileWriter)
	}

	if logStderr {
		outputWriters = append(outputWriters, os.Stderr)
	}

	if len(outputWriters) == 1 {
		gmlog.SetOutput(outputWriters[0])
	} else if len(outputWriters) > 1 {
		gmlog.SetOutput(io.MultiWriter(outputWriters...))
	}
}
