// Package wotkitconfig with commandline configuration handling
package wotkitconfig

import (
	"flag"
	"os"
	"path"

	"github.com/sirupsen/logrus"
)

// SetWotkitCommandlineArgs creates the common client commandline flags for
// parsing commandlines
//
// -c           /path/to/wotkit.yaml optional alt configuration, default is {home}/config/wotkit.yaml
// -home        /path/to/app/home    optional alternative application home folder
// -url         http://host/api      optional WoTKit API address
// -user        loginID              optional login ID
// -pass        secret               optional login password
// -mqttAddress host                 optional message broker address
// -mqttPort    1883                 optional message broker port
// -logFile     /path/to/wotkit.log  optional logfile. Use to determine logs folder
// -logLevel    warning              for extra logging, default is the config loglevel
func SetWotkitCommandlineArgs(config *WotkitConfig) {
	// Flags -c and --home are handled separately in LoadWotkitConfig. They are
	// added here to avoid a flag parse error.
	flag.String("c", WotkitConfigName, "Set the client configuration `file`")
	flag.StringVar(&config.Home, "home", config.Home, "Application working `folder`")

	flag.StringVar(&config.APIURL, "url", config.APIURL, "WoTKit API address")
	flag.StringVar(&config.Username, "user", config.Username, "Login ID")
	flag.StringVar(&config.Password, "pass", config.Password, "Login password")
	flag.StringVar(&config.MqttAddress, "mqttAddress", config.MqttAddress, "Message broker hostname or address")
	flag.IntVar(&config.MqttPort, "mqttPort", config.MqttPort, "Message broker port")
	flag.StringVar(&config.LogFile, "logFile", config.LogFile, "Log to file")
	flag.StringVar(&config.Loglevel, "logLevel", config.Loglevel, "Loglevel: {error|`warning`|info|debug}")
}

// LoadCommandlineConfig loads the client configuration (see LoadWotkitConfig)
// and applies commandline parameters on top of it. Last it configures the
// logging output.
// Flags of the application itself must be registered before this call and
// flag.Parse must not have run yet.
//
// A missing configuration file is not an error here. The client can run from
// commandline and environment alone. Applications that rely on the home
// folder layout call ValidateWotkitConfig separately.
//
//  homeFolder overrides the default home folder, "" for parent of the binary
//  clientID is used for the {{.clientID}} substitution and the log file name
// Returns the client configuration and error when the commandline or the
// configuration file content is invalid.
func LoadCommandlineConfig(homeFolder string, clientID string) (*WotkitConfig, error) {
	config, err := LoadWotkitConfig(homeFolder, clientID)
	if err != nil {
		if !os.IsNotExist(err) {
			return config, err
		}
		logrus.Infof("LoadCommandlineConfig: no configuration file, using commandline and environment")
	}

	SetWotkitCommandlineArgs(config)
	// catch parsing errors, in case flag.ErrorHandling = flag.ContinueOnError
	err = flag.CommandLine.Parse(os.Args[1:])
	if err != nil {
		return config, err
	}

	// last set the client logging
	logFile := config.LogFile
	if clientID != "" && logFile != "" {
		logFolder := path.Dir(logFile)
		logFile = path.Join(logFolder, clientID+".log")
	}
	if err = SetLogging(config.Loglevel, logFile); err != nil {
		// an unwritable log folder should not stop the client
		SetLogging(config.Loglevel, "")
	}
	return config, nil
}
