// Package router exposes the device fleet over HTTP, grounded on the
// teacher's router package: gin.Engine construction, the JSON envelope
// types, and the websocket streaming pattern, adapted from Appium/Android
// container proxying to this module's device-control core.
package router

import "github.com/gin-gonic/gin"

// New builds the gin.Engine serving the routes SPEC_FULL's HTTP exposure
// section names, mirroring the teacher's HandleRequests.
func New(logFolder string) *gin.Engine {
	r := gin.Default()

	r.GET("/devices", GetDevices)
	r.GET("/devices/:udid", GetDevice)
	r.POST("/devices/:udid/install", InstallApplication)
	r.POST("/devices/:udid/uninstall", UninstallApplication)
	r.POST("/devices/:udid/run", RunApplication)
	r.GET("/devices/:udid/screenshot", Screenshot)
	r.POST("/devices/:udid/restart", Restart)
	r.GET("/devices/:udid/logs", GetDeviceLogs(logFolder))
	r.GET("/devices/:udid/logs/stream", StreamDeviceLogs)

	return r
}
