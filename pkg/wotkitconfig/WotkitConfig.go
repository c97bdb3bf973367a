// Package wotkitconfig with the WoTKit client configuration struct and methods
package wotkitconfig

import (
	"bytes"
	"fmt"
	"io/ioutil"
	"net/url"
	"os"
	"path"
	"strconv"
	"text/template"
	"time"

	"github.com/joho/godotenv"
	"github.com/juju/fslock"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"
)

// WotkitConfigName the configuration file name of the client
const WotkitConfigName = "wotkit.yaml"

// WotkitLogFile the file name of the client logging
const WotkitLogFile = "wotkit.log"

// DefaultAPIURL with the address of the public WoTKit instance
const DefaultAPIURL = "http://wotkit.sensetecnic.com/api"

// DefaultPortMqtt for the platform message broker
const DefaultPortMqtt = 1883

// Environment variables recognized by LoadConfigFromEnv
const (
	EnvAPIURL      = "WOTKIT_API_URL"
	EnvUsername    = "WOTKIT_USERNAME"
	EnvPassword    = "WOTKIT_PASSWORD"
	EnvLoglevel    = "WOTKIT_LOG_LEVEL"
	EnvMqttAddress = "WOTKIT_MQTT_ADDRESS"
	EnvMqttPort    = "WOTKIT_MQTT_PORT"
)

// limit on acquiring the save lock
const saveLockTimeout = time.Second * 3

// WotkitConfig with client configuration parameters
// Intended for gateways and applications that work against a WoTKit instance
type WotkitConfig struct {
	// logging
	Loglevel string `yaml:"logLevel"` // debug, info, warning, error. Default is warning
	LogFile  string `yaml:"logFile"`  // client logging to file, leave empty for stderr only

	// WoTKit API access
	APIURL   string `yaml:"apiUrl"`             // address of the WoTKit API
	Username string `yaml:"username,omitempty"` // default login ID
	Password string `yaml:"password,omitempty"` // default login password

	// MQTT message broker of the platform
	MqttAddress string `yaml:"mqttAddress,omitempty"` // broker hostname or ip. Default is the API host
	MqttPort    int    `yaml:"mqttPort,omitempty"`    // broker port
	MqttTimeout int    `yaml:"mqttTimeout,omitempty"` // connection timeout in seconds. 0 for indefinite

	// folders
	Home         string `yaml:"home"`         // application home directory. Default is parent of executable.
	ConfigFolder string `yaml:"configFolder"` // location of configuration files. Default is {home}/config
}

// CreateDefaultWotkitConfig with default values
// homeFolder is the home of the application, log and configuration folders.
// Use "" for default: parent of application binary
// When relative path is given, it is relative to the application binary
func CreateDefaultWotkitConfig(homeFolder string) *WotkitConfig {
	appBin, _ := os.Executable()
	binFolder := path.Dir(appBin)
	if homeFolder == "" {
		homeFolder = path.Dir(binFolder)
	} else if !path.IsAbs(homeFolder) {
		// turn relative home folder in absolute path
		homeFolder = path.Join(binFolder, homeFolder)
	}
	logrus.Infof("AppBin is: %s; Home is: %s", appBin, homeFolder)
	config := &WotkitConfig{
		Home:         homeFolder,
		ConfigFolder: path.Join(homeFolder, "config"),
		APIURL:       DefaultAPIURL,
	}
	config.MqttAddress = APIHost(config.APIURL)
	config.MqttPort = DefaultPortMqtt
	config.Loglevel = "warning"
	config.LogFile = path.Join(homeFolder, "./logs/"+WotkitLogFile)
	return config
}

// APIHost returns the hostname part of the API URL.
// Platform services such as the message broker live on the same host, this
// provides their default address.
//  apiURL to take the host from, "" for the default API URL
func APIHost(apiURL string) string {
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	parsed, err := url.Parse(apiURL)
	if err != nil {
		logrus.Errorf("APIHost: cannot parse API URL '%s': %s", apiURL, err)
		return ""
	}
	return parsed.Hostname()
}

// LoadConfig loads the configuration from file into the given config
//  configFile path to yaml configuration file
//  config interface to typed structure matching the config. Must have yaml tags
//  substituteMap map to substitute {{.key}} with value from map, nil to ignore
// Returns nil if successful
func LoadConfig(configFile string, config interface{}, substituteMap map[string]string) error {
	rawConfig, err := ioutil.ReadFile(configFile)
	if err != nil {
		logrus.Infof("Unable to load config file: %s", err)
		return err
	}
	logrus.Infof("Loaded config file '%s'", configFile)
	rawText := string(rawConfig)
	if substituteMap != nil {
		rawText = SubstituteText(rawText, substituteMap)
	}

	err = yaml.Unmarshal([]byte(rawText), config)
	if err != nil {
		logrus.Errorf("Error parsing config file '%s': %s", configFile, err)
		return err
	}
	return nil
}

// LoadWotkitConfig loads the client configuration
// This uses the -c and --home commandline arguments without the flag package.
// Intended for applications that have their own commandlines but still need
// the client's base configuration.
//
// This checks the following commandline arguments:
//  - Commandline "-c" specifies an alternative configuration file
//  - Commandline "--home" sets the home folder as the base of ./config and ./logs
//
// The environment overrides the configuration file, see LoadConfigFromEnv.
//
//  homeFolder overrides the default home folder. Leave empty to use parent of application binary.
//  clientID to substitute optional {{.clientID}} in the wotkit.yaml file
// Returns the client configuration and error in case of error
func LoadWotkitConfig(homeFolder string, clientID string) (*WotkitConfig, error) {
	substituteMap := make(map[string]string)
	substituteMap["clientID"] = clientID

	args := os.Args[1:]
	if homeFolder == "" {
		// Option --home overrides the default home folder. Intended for testing.
		for index, arg := range args {
			if arg == "--home" || arg == "-home" {
				homeFolder = args[index+1]
				// make relative paths absolute
				if !path.IsAbs(homeFolder) {
					cwd, _ := os.Getwd()
					homeFolder = path.Join(cwd, homeFolder)
				}
				break
			}
		}
	}

	// set configuration defaults
	config := CreateDefaultWotkitConfig(homeFolder)
	wotkitConfigFile := path.Join(config.ConfigFolder, WotkitConfigName)

	// Option -c overrides the default config file. Intended for testing.
	for index, arg := range args {
		if arg == "-c" {
			wotkitConfigFile = args[index+1]
			// make relative paths absolute
			if !path.IsAbs(wotkitConfigFile) {
				wotkitConfigFile = path.Join(config.Home, wotkitConfigFile)
			}
			logrus.Infof("Commandline option '-c %s' overrides default configfile", wotkitConfigFile)
			break
		}
	}
	logrus.Infof("Using %s as client config file", wotkitConfigFile)
	err := LoadConfig(wotkitConfigFile, config, substituteMap)

	// the environment wins over the configuration file so a gateway can run
	// from environment alone
	LoadConfigFromEnv(config)
	if err != nil {
		return config, err
	}
	return config, nil
}

// LoadConfigFromEnv updates the configuration from environment variables.
// A .env file in the working directory is loaded into the environment first,
// variables already present keep their value.
func LoadConfigFromEnv(config *WotkitConfig) {
	if err := godotenv.Load(); err == nil {
		logrus.Infof("LoadConfigFromEnv: loaded environment from .env")
	}
	if value := os.Getenv(EnvAPIURL); value != "" {
		config.APIURL = value
	}
	if value := os.Getenv(EnvUsername); value != "" {
		config.Username = value
	}
	if value := os.Getenv(EnvPassword); value != "" {
		config.Password = value
	}
	if value := os.Getenv(EnvLoglevel); value != "" {
		config.Loglevel = value
	}
	if value := os.Getenv(EnvMqttAddress); value != "" {
		config.MqttAddress = value
	}
	if value := os.Getenv(EnvMqttPort); value != "" {
		port, err := strconv.Atoi(value)
		if err != nil {
			logrus.Warningf("LoadConfigFromEnv: ignoring invalid %s '%s': %s", EnvMqttPort, value, err)
		} else {
			config.MqttPort = port
		}
	}
}

// SaveConfig writes the configuration back to file.
// A lock file next to the configuration guards against concurrent writers.
//  configFile path to write the yaml configuration to
//  config typed structure with yaml tags to serialize
// Returns nil if successful
func SaveConfig(configFile string, config interface{}) error {
	rawConfig, err := yaml.Marshal(config)
	if err != nil {
		logrus.Errorf("SaveConfig: cannot serialize configuration: %s", err)
		return err
	}
	lock := fslock.New(configFile + ".lock")
	err = lock.LockWithTimeout(saveLockTimeout)
	if err != nil {
		logrus.Errorf("SaveConfig: configuration file '%s' is locked: %s", configFile, err)
		return err
	}
	defer lock.Unlock()

	err = ioutil.WriteFile(configFile, rawConfig, 0644)
	if err != nil {
		logrus.Errorf("SaveConfig: cannot write configuration file '%s': %s", configFile, err)
		return err
	}
	logrus.Infof("Saved config file '%s'", configFile)
	return nil
}

// SubstituteText substitutes template strings in the text
//  text to substitute template strings in, eg "hello {{.destination}}"
//  substituteMap with replacement keywords, eg {"destination":"world"}
// Returns text with template strings replaced
func SubstituteText(text string, substituteMap map[string]string) string {
	var msg bytes.Buffer

	tpl, err := template.New("").Parse(text)
	if err != nil {
		logrus.Warningf("SubstituteText: text is not a valid template: %s", err)
		return text
	}
	tpl.Execute(&msg, substituteMap)
	return msg.String()
}

// ValidateWotkitConfig checks if values in the client configuration are correct
// Returns an error if the config is invalid
func ValidateWotkitConfig(config *WotkitConfig) error {
	if _, err := os.Stat(config.Home); os.IsNotExist(err) {
		logrus.Errorf("Home folder '%s' not found", config.Home)
		return err
	}
	if _, err := os.Stat(config.ConfigFolder); os.IsNotExist(err) {
		logrus.Errorf("Configuration folder '%s' not found", config.ConfigFolder)
		return err
	}
	if config.LogFile != "" {
		loggingFolder := path.Dir(config.LogFile)
		if _, err := os.Stat(loggingFolder); os.IsNotExist(err) {
			logrus.Errorf("Logging folder '%s' not found", loggingFolder)
			return err
		}
	}

	// the API address must be a usable URL
	if config.APIURL == "" {
		err := fmt.Errorf("WoTKit API address not provided")
		logrus.Error(err)
		return err
	}
	parsed, err := url.Parse(config.APIURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		err = fmt.Errorf("WoTKit API address '%s' is not a valid URL", config.APIURL)
		logrus.Error(err)
		return err
	}
	return nil
}
