// Package version carries the build version of the server and canvasctl.
//
//	go build -ldflags "-X github.com/mianjunaid1223/Collab-Studio/internal/version.Version=v1.4.0"
package version

var Version = "dev"
