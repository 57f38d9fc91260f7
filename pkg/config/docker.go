package config

import (
	"os"
	"sync"
)

var (
	isDockerOnce   sync.Once
	isDockerResult bool
)

// IsRunningInDocker returns true if the pipeline is running inside a Docker
// container, detected by the /.dockerenv file. The result is cached after the
// first call.
func IsRunningInDocker() bool {
	isDockerOnce.Do(func() {
		_, err := os.Stat("/.dockerenv")
		isDockerResult = err == nil
	})
	return isDockerResult
}

// ResolveHost maps loopback profiling targets to host.docker.internal when the
// pipeline itself runs in a container, so a database on the host machine stays
// reachable. Non-loopback hosts pass through unchanged.
func ResolveHost(host string) string {
	if !IsRunningInDocker() {
		return host
	}

	if host == "localhost" || host == "127.0.0.1" {
		return "host.docker.internal"
	}

	return host
}
