package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gridmirror/gridmirror"
	"github.com/gridmirror/gridmirror/engine/binutil"
	"github.com/gridmirror/gridmirror/engine/config"
	"github.com/gridmirror/gridmirror/engine/consts"
	"github.com/gridmirror/gridmirror/engine/gmlog"
	"github.com/gridmirror/gridmirror/engine/transport/wstransport"
)

var (
	configFile = ""
	logLevel   = ""
	sigChan    = make(chan os.Signal, 1)
)

func parseArgs() {
	flag.StringVar(&configFile, "configfile", "", "set config file path")
	flag.StringVar(&logLevel, "log", "", "override log level")
	flag.Parse()
}

func main() {
	parseArgs()

	if configFile != "" {
		config.SetConfigFile(configFile)
	}

	cfg := config.Get()
	if logLevel == "" {
		logLevel = cfg.Client.LogLevel
	}
	binutil.SetupGMLog("gridmirror", logLevel, cfg.Client.LogFile, cfg.Client.LogStderr)
	binutil.SetupHTTPServer(cfg.Client.PProfIp, cfg.Client.PProfPort)

	mirror := gridmirror.NewMirror(wstransport.New())

	ok, msg := mirror.Login(cfg.Login.First, cfg.Login.Last, cfg.Login.Credential,
		cfg.Login.StartLocation, cfg.Login.Grid)
	if !ok {
		gmlog.Fatalf("login request rejected: %s", msg)
	}

	ctx, cancel := context.WithCancel(context.Background())
	setupSignals(mirror, cancel)
	mirror.Run(ctx)
}

// setupSignals logs out on the first interrupt and force quits on the second
func setupSignals(mirror *gridmirror.Mirror, cancel context.CancelFunc) {
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		gmlog.Infof("interrupted, logging out ...")
		mirror.Logout()

		deadline := time.After(time.Second * 10)
		for mirror.Supervisor.IsLoggedIn() {
			select {
			case <-sigChan:
				gmlog.Infof("interrupted again, quitting ...")
				cancel()
				return
			case <-deadline:
				gmlog.Warnf("logout timed out, quitting ...")
				cancel()
				return
			case <-time.After(consts.SUPERVISOR_TICK_INTERVAL):
			}
		}
		cancel()
	}()
}
