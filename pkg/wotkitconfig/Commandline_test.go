package wotkitconfig_test

import (
	"flag"
	"os"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sensetecnic/wotkit-go/pkg/wotkitconfig"
)

// resetCommandline replaces the testing package's commandline so each test
// can register and parse its own flags.
func resetCommandline(args string) {
	flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	if args == "" {
		os.Args = os.Args[0:1]
	} else {
		os.Args = append(os.Args[0:1], strings.Split(args, " ")...)
	}
}

func TestCommandlineArgs(t *testing.T) {
	logrus.Infof("--- TestCommandlineArgs ---")
	resetCommandline("-url http://wotkit.example.org/api -user bob -logLevel debug -mqttPort 8883")

	config := wotkitconfig.CreateDefaultWotkitConfig(testHome(t))
	wotkitconfig.SetWotkitCommandlineArgs(config)
	err := flag.CommandLine.Parse(os.Args[1:])

	assert.NoError(t, err)
	assert.Equal(t, "http://wotkit.example.org/api", config.APIURL)
	assert.Equal(t, "bob", config.Username)
	assert.Equal(t, "debug", config.Loglevel)
	assert.Equal(t, 8883, config.MqttPort)
}

func TestLoadCommandlineConfig(t *testing.T) {
	logrus.Infof("--- TestLoadCommandlineConfig ---")
	home := testHome(t)
	resetCommandline("-c ./config/wotkit.yaml -user override")

	config, err := wotkitconfig.LoadCommandlineConfig(home, "client1")
	require.NoError(t, err)
	require.NotNil(t, config)

	// the commandline wins over the configuration file
	assert.Equal(t, "override", config.Username)
	assert.Equal(t, "http://wotkit.example.org/api", config.APIURL)
	assert.Equal(t, "info", config.Loglevel)
}

func TestLoadCommandlineConfigBadArg(t *testing.T) {
	logrus.Infof("--- TestLoadCommandlineConfigBadArg ---")
	resetCommandline("-badarg=bad")

	_, err := wotkitconfig.LoadCommandlineConfig(testHome(t), "client1")
	assert.Error(t, err, "Parse of flag -badarg should fail")
}

func TestLoadCommandlineConfigBadFile(t *testing.T) {
	logrus.Infof("--- TestLoadCommandlineConfigBadFile ---")
	resetCommandline("-c ./config/wotkit-bad.yaml")

	config, err := wotkitconfig.LoadCommandlineConfig(testHome(t), "client1")
	assert.Error(t, err, "Expected a yaml parse error")
	assert.NotNil(t, config)
}

func TestLoadCommandlineConfigNoFile(t *testing.T) {
	logrus.Infof("--- TestLoadCommandlineConfigNoFile ---")
	resetCommandline("-c ./config/doesnotexist.yaml")

	// a client can run from commandline and environment alone
	config, err := wotkitconfig.LoadCommandlineConfig(testHome(t), "client1")
	assert.NoError(t, err)
	require.NotNil(t, config)
	assert.Equal(t, wotkitconfig.DefaultAPIURL, config.APIURL)
}
