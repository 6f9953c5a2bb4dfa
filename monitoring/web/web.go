// Package web holds the page served by the monitoring server.
package web

import (
	"embed"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

//go:embed dist/*
var staticAssets embed.FS

// DevModeEnv names the variable that, when set to true or 1, makes GetAssets
// serve dist from the source tree so that edits show up without rebuilding.
const DevModeEnv = "AXI2WB_MONITOR_DEV"

// GetAssets returns the file system of the web page.
func GetAssets() http.FileSystem {
	if devMode() {
		_, self, _, ok := runtime.Caller(0)
		if !ok {
			panic("cannot locate the web sources")
		}

		dir := filepath.Join(filepath.Dir(self), "dist")
		fmt.Fprintf(os.Stderr, "Serving monitor pages from %s\n", dir)

		return http.Dir(dir)
	}

	dist, err := fs.Sub(staticAssets, "dist")
	if err != nil {
		panic(err)
	}

	return http.FS(dist)
}

func devMode() bool {
	v := os.Getenv(DevModeEnv)

	return v == "1" || strings.EqualFold(v, "true")
}
