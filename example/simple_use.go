package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/leandrodaf/airpiano/internal/logger"
	"github.com/leandrodaf/airpiano/internal/source"
	"github.com/leandrodaf/airpiano/sdk/airpiano"
	"github.com/leandrodaf/airpiano/sdk/contracts"
)

func main() {
	log := logger.NewDevelopmentLogger()

	engine, err := airpiano.NewEngine(
		contracts.WithLogger(log),
		contracts.WithLogLevel(contracts.InfoLevel),
		contracts.WithSustainTime(1500*time.Millisecond),
		contracts.WithOutputConfig(contracts.OutputConfig{Device: "loopMIDI", Velocity: 100}),
		contracts.WithObserver(contracts.ObserverFunc(func(e contracts.Event) {
			if e.Kind == contracts.ChordStarted {
				fmt.Println("♪", e.Name)
			}
		})),
	)
	if err != nil {
		log.Error("Failed to start engine", log.Field().Error("error", err))
		return
	}
	defer engine.Close()

	fmt.Println("Playing through", engine.Mode(), "- pipe hand landmarks into stdin. Press Ctrl+C to exit.")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	src := source.NewJSONLines(os.Stdin, source.WithLogger(log))
	defer src.Close()

	if err := engine.Run(ctx, src); err != nil {
		log.Error("Frame loop failed", log.Field().Error("error", err))
	}
}
