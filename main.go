/*
Demo application that uses the engine package to draw the testbed scene
*/
package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spaghettifunk/rendermatic/engine"
	"github.com/spaghettifunk/rendermatic/engine/core"
	"github.com/spaghettifunk/rendermatic/testbed"
)

func main() {
	tb := testbed.NewTestGame()

	e, err := engine.New(tb.Game)
	if err != nil {
		core.LogFatal("creating engine: %+v", err)
	}

	if err := e.Initialize(); err != nil {
		core.LogError("initializing engine: %+v", err)
		if serr := e.Shutdown(); serr != nil {
			core.LogError("shutting down: %+v", serr)
		}
		os.Exit(1)
	}

	// signal channel to capture system calls
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)
	go func() {
		<-sigCh
		e.Quit()
	}()

	code := 0
	if err := e.Run(); err != nil {
		core.LogError("engine stopped: %+v", err)
		code = 1
	}
	if err := e.Shutdown(); err != nil {
		core.LogError("shutting down: %+v", err)
		code = 1
	}
	os.Exit(code)
}
