package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/glekoz/bwfilter/application"
	"github.com/glekoz/bwfilter/data/storage"
	"github.com/glekoz/bwfilter/internal/config"
	"github.com/glekoz/bwfilter/internal/models"
	"github.com/glekoz/bwfilter/presentation/fileserver"
	"github.com/glekoz/bwfilter/presentation/watcher"
	"github.com/joho/godotenv"
	"github.com/spf13/afero"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			fmt.Print(config.Usage())
			return
		}
		fmt.Fprintln(os.Stderr, err)
		fmt.Fprint(os.Stderr, config.Usage())
		os.Exit(2)
	}

	log, err := newLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		os.Exit(1)
	}
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(lvl)
	zcfg.Encoding = "console"
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return zcfg.Build()
}

func run(ctx context.Context, cfg config.Config, log *zap.Logger) error {
	fs := afero.NewOsFs()
	st, err := storage.NewStorage(fs, cfg.OutputDir)
	if err != nil {
		log.Error("storage", zap.Error(err))
		return err
	}

	printer := models.Printer(cfg.Lang)
	app := application.NewApp(application.NewLoader(), application.NewConverter(), printer, log)

	if cfg.Watch == "" {
		return convertOnce(ctx, app, st, cfg.Input, log)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	w := watcher.NewWatcher(app, st, cfg.Watch, log)
	w.Settle = cfg.Settle
	w.AutoDownload = cfg.AutoDownload
	w.SkipOutputs = sameDir(cfg.Watch, cfg.OutputDir)

	errChan := make(chan error, 2)
	go func() { errChan <- w.Run(ctx) }()
	running := 1
	if cfg.PreviewAddr != "" {
		srv := fileserver.NewFileServer(app, cfg.PreviewAddr, log)
		go func() { errChan <- srv.Run(ctx) }()
		running++
	}

	var firstErr error
	for ; running > 0; running-- {
		if err := <-errChan; err != nil && firstErr == nil {
			firstErr = err
			log.Error("stopped", zap.Error(err))
			cancel()
		}
	}
	return firstErr
}

func sameDir(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	return errA == nil && errB == nil && absA == absB
}

func convertOnce(ctx context.Context, app *application.App, st storage.Storage, input string, log *zap.Logger) error {
	file, err := st.Source(input)
	if err != nil {
		log.Error("open input", zap.Error(err))
		return err
	}
	if err := app.Select(ctx, file); err != nil {
		if failed, ok := app.State().(application.Failed); ok {
			fmt.Fprintln(os.Stderr, failed.Message)
		}
		return err
	}

	d, err := app.Download()
	if err != nil {
		log.Error("download", zap.Error(err))
		return err
	}
	path, err := st.Save(ctx, d.FileName, d.Data)
	if err != nil {
		log.Error("save", zap.Error(err))
		return err
	}
	fmt.Println(path)
	return nil
}
