package config

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// Watch reloads the config file whenever it changes on disk and logs every
// change under the dev-image root, so an operator dropping in a new
// developer disk image doesn't need to restart the provider for
// devimage.Resolver.FindForVersion to see it. Grounded on the watch-loop
// shape of WatchForNewSessionFile (create a watcher, select over its
// Events/Errors/ctx.Done()), adapted from watching for one file's creation
// to watching two long-lived paths for the life of the process.
func Watch(ctx context.Context, path string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return err
	}
	if err := watcher.Add(Config.DevImagesDir); err != nil {
		logrus.WithFields(logrus.Fields{"event": "config_watch"}).
			Warn("could not watch dev images dir: " + err.Error())
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				switch {
				case event.Name == path && event.Op&(fsnotify.Write|fsnotify.Create) != 0:
					Load(path)
					logrus.WithFields(logrus.Fields{"event": "config_watch"}).Info("reloaded " + path)
				case filepath.Dir(event.Name) != filepath.Dir(path):
					logrus.WithFields(logrus.Fields{"event": "config_watch"}).
						Info("dev images directory changed: " + event.Name)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logrus.WithFields(logrus.Fields{"event": "config_watch"}).Warn(err.Error())
			}
		}
	}()
	return nil
}
