// Package version carries build metadata injected with -ldflags -X.
package version

import (
	"fmt"
	"runtime"
)

var (
	VERSION  = "unknown"
	REVISION = "HEAD"
	BUILTAT  = "now"
)

// String renders the version block printed by `batchkit version`.
func String() string {
	return fmt.Sprintf("Version:        %s\nGit hash:       %s\nBuilt:          %s\nGolang version: %s\nOS/Arch:        %s/%s\n",
		VERSION, REVISION, BUILTAT, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
