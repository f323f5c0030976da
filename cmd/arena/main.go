package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/zeusync/arena/internal/engine"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	eng, err := engine.New(ctx, engine.DefaultConfig())
	if err != nil {
		fmt.Println("Error building engine:", err)
		os.Exit(1)
	}

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

	if err := eng.Start(ctx); err != nil {
		fmt.Println("Error starting engine:", err)
		os.Exit(1)
	}

	<-stopCh
	cancel()
	if err := eng.Stop(); err != nil {
		fmt.Println("Error stopping engine:", err)
	}
}
