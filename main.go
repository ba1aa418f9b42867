package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/shamanec/ios-device-control/config"
	"github.com/shamanec/ios-device-control/devicecontrol"
	"github.com/shamanec/ios-device-control/docker"
	"github.com/shamanec/ios-device-control/logger"
	"github.com/shamanec/ios-device-control/realdevice"
	"github.com/shamanec/ios-device-control/router"
	"github.com/shamanec/ios-device-control/simulator"
	"github.com/shamanec/ios-device-control/store"

	log "github.com/sirupsen/logrus"
)

func main() {
	configPath := flag.String("config", "./config.json", "path to config.json")
	flag.Parse()

	config.Load(*configPath)
	if err := config.Watch(context.Background(), *configPath); err != nil {
		log.WithFields(log.Fields{"event": "provider_startup"}).
			Warn("could not start config watcher: " + err.Error())
	}

	if err := os.MkdirAll(config.Config.LogFolder, 0o755); err != nil {
		panic("main: could not create log folder: " + err.Error())
	}
	if err := logger.InitProcessLogger(config.Config.LogFolder); err != nil {
		panic("main: " + err.Error())
	}
	log.SetFormatter(&log.JSONFormatter{})
	log.SetOutput(logger.Process.Out)

	if config.Config.MongoURI != "" {
		client, err := store.Connect(config.Config.MongoURI)
		if err != nil {
			log.WithFields(log.Fields{"event": "provider_startup"}).
				Warn("could not connect to Mongo, continuing without persistence: " + err.Error())
		} else {
			logger.AttachMongoHook(logger.Process, client, "provider", config.Config.BindAddress)
		}
	}

	devices := discoverDevices()
	devicecontrol.InitRealDeviceHost(devices)

	if config.Config.SidecarImage != "" {
		startSidecars(devices)
	}

	log.WithFields(log.Fields{
		"event": "provider_startup",
	}).Info(fmt.Sprintf("discovered %d device(s), listening on %s", len(devices), config.Config.BindAddress))

	engine := router.New(config.Config.LogFolder)
	if err := engine.Run(config.Config.BindAddress); err != nil {
		log.WithFields(log.Fields{"event": "provider_startup"}).Fatal(err.Error())
	}
}

// startSidecars ensures every real device has its auxiliary container
// running, grounded on the teacher's docker.StartDevicesListener startup
// hook (main.go's `go docker.StartDevicesListener()`) but run synchronously
// once at startup instead of as a background poller, since this module's
// device set is fixed for the process lifetime rather than hot-plugged
// through a container-per-emulator pool.
func startSidecars(devices []devicecontrol.Device) {
	cli, err := docker.NewClient()
	if err != nil {
		log.WithFields(log.Fields{"event": "sidecar_startup"}).
			Warn("could not reach Docker daemon, continuing without sidecars: " + err.Error())
		return
	}

	hostPort := 27753
	for _, d := range devices {
		if _, ok := d.(*realdevice.Device); !ok {
			continue
		}
		sidecar := docker.Sidecar{
			UDID:          d.UDID(),
			Image:         config.Config.SidecarImage,
			ContainerPort: config.Config.SidecarContainerPort,
			HostPort:      hostPort,
		}
		if _, err := docker.StartSidecar(context.Background(), cli, sidecar); err != nil {
			log.WithFields(log.Fields{"event": "sidecar_startup", "udid": d.UDID()}).
				Warn(err.Error())
			continue
		}
		hostPort++
	}
}

// discoverDevices enumerates attached real devices and booted simulators,
// matching the teacher's getConnectedDevicesIOS/getConnectedDevicesAndroid
// split — a device this provider cannot reach at startup is simply left out
// of the initial host, since devicecontrol.Host.Register/Unregister lets it
// join later.
func discoverDevices() []devicecontrol.Device {
	var devices []devicecontrol.Device

	real, err := realdevice.Discover(config.SupervisionIdentity(), config.Config.DevImagesDir)
	if err != nil {
		log.WithFields(log.Fields{"event": "provider_startup"}).
			Warn("could not discover real devices: " + err.Error())
	}
	for _, d := range real {
		devices = append(devices, d)
	}

	sims, err := simulator.Discover(context.Background())
	if err != nil {
		log.WithFields(log.Fields{"event": "provider_startup"}).
			Warn("could not discover simulators: " + err.Error())
	}
	for _, d := range sims {
		devices = append(devices, d)
	}

	return devices
}
