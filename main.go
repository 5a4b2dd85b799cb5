package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"

	"neuroseven/app/client/crm"
	"neuroseven/app/client/profile"
	"neuroseven/app/config"
	"neuroseven/app/service/gateway"
	"neuroseven/app/service/kb"
	"neuroseven/app/service/orchestrator"
	"neuroseven/app/service/outbox"
	"neuroseven/app/service/pricing"
	"neuroseven/app/service/reminder"
	"neuroseven/app/service/thread"
	"neuroseven/app/util/mylog"

	"github.com/gofiber/fiber/v2/log"
	"github.com/samber/do"
	"golang.org/x/sync/errgroup"
)

func main() {
	di := do.New()
	defer di.Shutdown()
	defer log.Info("Waiting for services to finish...")

	mylog.Preinit()

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	do.ProvideValue(di, appCtx)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	do.ProvideValue(di, cfg)

	if err = mylog.Init(cfg); err != nil {
		log.Fatalf("logging init failed: %v", err)
	}

	do.Provide(di, profile.NewClient)
	do.Provide(di, crm.NewClient)
	do.Provide(di, kb.New)
	do.Provide(di, pricing.New)
	do.Provide(di, thread.New)
	do.Provide(di, outbox.New)
	do.Provide(di, reminder.New)
	do.Provide(di, orchestrator.New)
	do.Provide(di, gateway.New)

	slog.Info("Service started")

	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt)
		<-sigint

		log.Info("Shutting down...")

		cancel()
	}()

	gw := do.MustInvoke[*gateway.Service](di)

	group, groupCtx := errgroup.WithContext(appCtx)
	group.Go(func() error {
		do.MustInvoke[*outbox.Service](di).Run(groupCtx)
		return nil
	})
	group.Go(gw.Run)
	group.Go(func() error {
		<-groupCtx.Done()
		return gw.Shutdown()
	})

	if err = group.Wait(); err != nil {
		log.Fatalf("service failed: %v", err)
	}
}
