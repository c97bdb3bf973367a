package wotkitconfig_test

import (
	"io/ioutil"
	"os"
	"path"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sensetecnic/wotkit-go/pkg/wotkitconfig"
)

func TestWatchConfig(t *testing.T) {
	logrus.Infof("--- TestWatchConfig ---")

	configFile := path.Join(testHome(t), "logs/watchconfig-test.yaml")
	require.NoError(t, ioutil.WriteFile(configFile, []byte("logLevel: info\n"), 0644))
	defer os.Remove(configFile)

	var changeCount int32
	watcher, err := wotkitconfig.WatchConfig(configFile, func() error {
		atomic.AddInt32(&changeCount, 1)
		return nil
	})
	require.NoError(t, err)
	defer watcher.Close()

	// a burst of writes counts as a single change
	for i := 0; i < 3; i++ {
		require.NoError(t, ioutil.WriteFile(configFile, []byte("logLevel: debug\n"), 0644))
	}
	time.Sleep(time.Millisecond * 300)
	assert.Equal(t, int32(1), atomic.LoadInt32(&changeCount))

	// the watch stays active after the handler ran
	require.NoError(t, ioutil.WriteFile(configFile, []byte("logLevel: warning\n"), 0644))
	time.Sleep(time.Millisecond * 300)
	assert.Equal(t, int32(2), atomic.LoadInt32(&changeCount))
}

func TestWatchConfigMissingFile(t *testing.T) {
	logrus.Infof("--- TestWatchConfigMissingFile ---")

	_, err := wotkitconfig.WatchConfig("/this/path/doesntexist/wotkit.yaml", func() error {
		return nil
	})
	require.Error(t, err)
}
