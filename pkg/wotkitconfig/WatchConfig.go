package wotkitconfig

import (
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// wait for file changes to settle before invoking the handler
const watchDebounceDelay = time.Millisecond * 100

// WatchConfig watches a configuration file and invokes the handler on change.
// Multiple quick changes are debounced into a single invocation. After each
// invocation the file is watched again, as renames change the inode behind
// the watched name.
//  configFile to watch
//  handler to invoke after the file has changed
// This returns the fsnotify watcher. Close it when done.
func WatchConfig(configFile string, handler func() error) (*fsnotify.Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	// the callback timer debounces bursts of changes to the file
	callbackTimer := time.AfterFunc(0, func() {
		logrus.Debugf("WatchConfig: invoking handler for '%s'", configFile)
		if handlerErr := handler(); handlerErr != nil {
			logrus.Errorf("WatchConfig: handler for '%s': %s", configFile, handlerErr)
		}
		// file renames change the inode of the filename, resubscribe
		watcher.Remove(configFile)
		watcher.Add(configFile)
	})
	callbackTimer.Stop() // don't start yet

	err = watcher.Add(configFile)
	if err != nil {
		logrus.Errorf("WatchConfig: unable to watch '%s' for changes: %s", configFile, err)
		watcher.Close()
		return nil, err
	}
	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				logrus.Debugf("WatchConfig: event %s on '%s'", event.Op, event.Name)
				callbackTimer.Reset(watchDebounceDelay)
			case watchErr, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logrus.Errorf("WatchConfig: %s", watchErr)
			}
		}
	}()
	return watcher, nil
}
