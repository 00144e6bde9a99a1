// This file is part of Gopher2600.
//
// Gopher2600 is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Gopher2600 is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Gopher2600.  If not, see <https://www.gnu.org/licenses/>.

// Command emuctld hosts a demo Core behind the ControlRPC socket and the
// filesystem state bridge. It's the reference wiring for the control
// surface this module implements, not a real emulator: swap demoCore for a
// concrete core.Core and the rest of the wiring is unchanged.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/oos-tools/emuctl/breakpoints"
	"github.com/oos-tools/emuctl/handlers"
	"github.com/oos-tools/emuctl/logger"
	"github.com/oos-tools/emuctl/memsnapshot"
	"github.com/oos-tools/emuctl/rpcserver"
	"github.com/oos-tools/emuctl/slotstore"
	"github.com/oos-tools/emuctl/statebridge"
	"github.com/oos-tools/emuctl/symtab"
)

func main() {
	saveStateDir := flag.String("savestates", ".", "directory for save state slots")
	watchedPath := flag.String("bridge-watch", "", "path the state bridge polls for external loads (default: platform temp dir)")
	notifyPath := flag.String("bridge-notify", "", "path the state bridge publishes saves to (default: platform temp dir)")
	socketPath := flag.String("socket", "", "ControlRPC unix socket path (default: temp-dir/mesen2-<pid>.sock)")
	flag.Parse()

	c := newDemoCore()

	stopSim := make(chan struct{})
	go c.runFrames(stopSim)

	slots := slotstore.NewManager(*saveStateDir, c)
	defer slots.Close()

	bridge := statebridge.New(c, slots)
	if *watchedPath != "" {
		bridge.SetWatchedPath(*watchedPath)
	}
	if *notifyPath != "" {
		bridge.SetNotifyPath(*notifyPath)
	}
	bridge.Start()

	deps := &handlers.Deps{
		Core:        c,
		Slots:       slots,
		Breakpoints: breakpoints.NewTable(),
		Snapshots:   memsnapshot.NewStore(),
		Symbols:     symtab.NewTable(),
		StartedAt:   time.Now(),
	}
	registry := handlers.NewRegistry()

	srv := rpcserver.New(registry, deps)
	path := *socketPath
	if path == "" {
		path = rpcserver.SocketPath(os.Getpid())
	}
	if err := srv.Start(path); err != nil {
		fmt.Fprintf(os.Stderr, "emuctld: %v\n", err)
		os.Exit(1)
	}
	logger.Logf("emuctld", "listening on %s", path)

	// mirrors the teacher's main(): one channel for the interrupt signal,
	// blocking select until it fires, then an orderly shutdown of every
	// background goroutine in turn.
	intChan := make(chan os.Signal, 1)
	signal.Notify(intChan, os.Interrupt, syscall.SIGTERM)
	<-intChan

	logger.Log("emuctld", "shutting down")
	srv.Stop()
	bridge.Stop()
	close(stopSim)
	c.Stop()
}
