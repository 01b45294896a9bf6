package config

import (
	"encoding/json"
	"strings"
	"sync"

	"github.com/go-ini/ini"
	"github.com/pkg/errors"

	"github.com/gridmirror/gridmirror/engine/common"
	"github.com/gridmirror/gridmirror/engine/gmlog"
)

const (
	_DEFAULT_CONFIG_FILE   = "gridmirror.ini"
	_DEFAULT_LOG_LEVEL     = "debug"
	_DEFAULT_START_LOCATON = "last"

	_GRID_SECTION_PREFIX = "grid."
)

var (
	configFilePath = _DEFAULT_CONFIG_FILE
	mirrorConfig   *GridMirrorConfig
	configLock     sync.Mutex
)

// LoginConfig defines fields of the [login] section
type LoginConfig struct {
	First         string
	Last          string
	Credential    string
	Grid          string
	StartLocation string
}

// ClientConfig defines fields of the [client] section
type ClientConfig struct {
	LogLevel    string
	LogFile     string
	LogStderr   bool
	HoldParents bool
	PProfIp     string
	PProfPort   int
}

// GridConfig is one entry of the grid directory: a known grid and its login
// URI
type GridConfig struct {
	Name     string
	LoginURI string
}

// GridMirrorConfig defines the whole config file
type GridMirrorConfig struct {
	Login  LoginConfig
	Client ClientConfig
	Grids  map[string]*GridConfig
}

// SetConfigFile sets the config file path (must be called before Get)
func SetConfigFile(f string) {
	configFilePath = f
}

// GetConfigFilePath returns the config file path
func GetConfigFilePath() string {
	return configFilePath
}

// Get returns the loaded config, reading the config file on first use
func Get() *GridMirrorConfig {
	configLock.Lock()
	defer configLock.Unlock()
	if mirrorConfig == nil {
		cfg, err := readConfigFile(configFilePath)
		if err != nil {
			gmlog.Fatalf("read config %s failed: %v", configFilePath, err)
		}
		mirrorConfig = cfg
		gmlog.Infof("Read config file %s:\n%s", configFilePath, DumpPretty(cfg))
	}
	return mirrorConfig
}

// Reload forces rereading the config file on next Get
func Reload() *GridMirrorConfig {
	configLock.Lock()
	mirrorConfig = nil
	configLock.Unlock()
	return Get()
}

// GetGrid resolves a grid name in the grid directory; returns nil when the
// grid is unknown
func GetGrid(name string) *GridConfig {
	return Get().Grids[strings.ToLower(name)]
}

// GridNames returns the set of grid names in the grid directory
func GridNames() common.StringSet {
	names := common.StringSet{}
	for name := range Get().Grids {
		names.Add(name)
	}
	return names
}

// DumpPretty format config to pretty json string
func DumpPretty(cfg interface{}) string {
	s, err := json.MarshalIndent(cfg, "", "    ")
	if err != nil {
		return err.Error()
	}
	return string(s)
}

func readConfigFile(path string) (*GridMirrorConfig, error) {
	iniFile, err := ini.Load(path)
	if err != nil {
		return nil, errors.Wrap(err, "load ini")
	}

	cfg := &GridMirrorConfig{
		Client: ClientConfig{
			LogLevel:    _DEFAULT_LOG_LEVEL,
			LogStderr:   true,
			HoldParents: true,
		},
		Login: LoginConfig{
			StartLocation: _DEFAULT_START_LOCATON,
		},
		Grids: map[string]*GridConfig{},
	}

	for _, sec := range iniFile.Sections() {
		secName := strings.ToLower(sec.Name())
		if secName == "login" {
			readLoginConfig(sec, &cfg.Login)
		} else if secName == "client" {
			readClientConfig(sec, &cfg.Client)
		} else if strings.HasPrefix(secName, _GRID_SECTION_PREFIX) {
			grid := &GridConfig{
				Name: secName[len(_GRID_SECTION_PREFIX):],
			}
			readGridConfig(sec, grid)
			if grid.LoginURI == "" {
				return nil, errors.Errorf("grid %s has no loginuri", grid.Name)
			}
			cfg.Grids[grid.Name] = grid
		} else if sec.Name() != ini.DefaultSection {
			gmlog.Warnf("unknown config section: [%s]", sec.Name())
		}
	}

	if cfg.Login.First == "" || cfg.Login.Last == "" {
		return nil, errors.Errorf("[login] section must set first and last")
	}
	return cfg, nil
}

func readLoginConfig(sec *ini.Section, lc *LoginConfig) {
	for _, key := range sec.Keys() {
		name := strings.ToLower(key.Name())
		if name == "first" {
			lc.First = key.MustString(lc.First)
		} else if name == "last" {
			lc.Last = key.MustString(lc.Last)
		} else if name == "credential" {
			lc.Credential = key.MustString(lc.Credential)
		} else if name == "grid" {
			lc.Grid = strings.ToLower(key.MustString(lc.Grid))
		} else if name == "start_location" {
			lc.StartLocation = key.MustString(lc.StartLocation)
		} else {
			gmlog.Warnf("unknown [login] key: %s", key.Name())
		}
	}
}

func readClientConfig(sec *ini.Section, cc *ClientConfig) {
	for _, key := range sec.Keys() {
		name := strings.ToLower(key.Name())
		if name == "log_level" {
			cc.LogLevel = key.MustString(cc.LogLevel)
		} else if name == "log_file" {
			cc.LogFile = key.MustString(cc.LogFile)
		} else if name == "log_stderr" {
			cc.LogStderr = key.MustBool(cc.LogStderr)
		} else if name == "hold_parents" {
			cc.HoldParents = key.MustBool(cc.HoldParents)
		} else if name == "pprof_ip" {
			cc.PProfIp = key.MustString(cc.PProfIp)
		} else if name == "pprof_port" {
			cc.PProfPort = key.MustInt(cc.PProfPort)
		} else {
			gmlog.Warnf("unknown [client] key: %s", key.Name())
		}
	}
}

func readGridConfig(sec *ini.Section, gc *GridConfig) {
	for _, key := range sec.Keys() {
		name := strings.ToLower(key.Name())
		if name == "loginuri" {
			gc.LoginURI = key.MustString(gc.LoginURI)
		} else {
			gmlog.Warnf("unknown [%s] key: %s", sec.Name(), key.Name())
		}
	}
}
