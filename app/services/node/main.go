package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ardanlabs/conf/v3"
	"github.com/ethereum/go-ethereum/common"
	"github.com/lyrion-l2/lyrion-node/app/services/node/handlers"
	"github.com/lyrion-l2/lyrion-node/business/web/metrics"
	"github.com/lyrion-l2/lyrion-node/foundation/blockchain/database"
	"github.com/lyrion-l2/lyrion-node/foundation/blockchain/database/storage/disk"
	"github.com/lyrion-l2/lyrion-node/foundation/blockchain/database/storage/leveldb"
	"github.com/lyrion-l2/lyrion-node/foundation/blockchain/database/storage/memory"
	"github.com/lyrion-l2/lyrion-node/foundation/blockchain/genesis"
	"github.com/lyrion-l2/lyrion-node/foundation/blockchain/mempool"
	"github.com/lyrion-l2/lyrion-node/foundation/blockchain/state"
	"github.com/lyrion-l2/lyrion-node/foundation/blockchain/worker"
	"github.com/lyrion-l2/lyrion-node/foundation/events"
	"github.com/lyrion-l2/lyrion-node/foundation/logger"
	"github.com/lyrion-l2/lyrion-node/foundation/nameservice"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// build is the git version of this program. It is set using build flags in the makefile.
var build = "develop"

func main() {

	// Construct the application logger.
	log, err := logger.New("LYRION-NODE")
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer log.Sync()

	// Perform the startup and shutdown sequence.
	if err := run(log); err != nil {
		log.Errorw("startup", "ERROR", err)
		log.Sync()
		os.Exit(1)
	}
}

func run(log *zap.SugaredLogger) error {

	// =========================================================================
	// Configuration

	// This is all the configuration for the application and the default values.
	// Configuration values will be passed through the application as individual
	// values.
	cfg := struct {
		conf.Version
		Web struct {
			ReadTimeout     time.Duration `conf:"default:5s"`
			WriteTimeout    time.Duration `conf:"default:10s"`
			IdleTimeout     time.Duration `conf:"default:120s"`
			ShutdownTimeout time.Duration `conf:"default:20s"`
			DebugHost       string        `conf:"default:0.0.0.0:7080"`
			RPCHost         string        `conf:"default:0.0.0.0:8545"`
			CORSOrigin      string        `conf:"default:*"`
			RateLimit       float64       `conf:"default:200"`
			RateBurst       int           `conf:"default:400"`
		}
		State struct {
			Beneficiary     string        `conf:"default:0x9999999999999999999999999999999999999999"`
			GenesisPath     string        `conf:"default:zblock/genesis.json"`
			DBPath          string        `conf:"default:zblock/blocks/"`
			Storage         string        `conf:"default:disk"`
			BlockInterval   time.Duration `conf:"default:3s"`
			StaleAfter      time.Duration `conf:"default:1m"`
			MempoolCapacity int           `conf:"default:10000"`
		}
		Auth struct {
			DevMode bool `conf:"default:true"`
		}
		NameService struct {
			Folder string `conf:"default:zblock/accounts/"`
		}
	}{
		Version: conf.Version{
			Build: build,
			Desc:  "LYRION L2 sequencer node",
		},
	}

	// Parse will set the defaults and then look for any overriding values
	// in environment variables and command line flags.
	const prefix = "LYRION"
	help, err := conf.Parse(prefix, &cfg)
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			fmt.Println(help)
			return nil
		}
		return fmt.Errorf("parsing config: %w", err)
	}

	// =========================================================================
	// App Starting

	log.Infow("starting service", "version", build)
	defer log.Infow("shutdown complete")

	// Display the current configuration to the logs.
	out, err := conf.String(&cfg)
	if err != nil {
		return fmt.Errorf("generating config for output: %w", err)
	}
	log.Infow("startup", "config", out)

	if !common.IsHexAddress(cfg.State.Beneficiary) {
		return fmt.Errorf("invalid beneficiary address %q", cfg.State.Beneficiary)
	}

	// =========================================================================
	// Name Service Support

	// The nameservice package provides name resolution for account addresses.
	// The names come from the file names in the zblock/accounts folder.
	ns, err := nameservice.New(cfg.NameService.Folder)
	if err != nil {
		return fmt.Errorf("unable to load account name service: %w", err)
	}

	// Logging the accounts for documentation in the logs.
	for account, name := range ns.Copy() {
		log.Infow("startup", "status", "nameservice", "name", name, "account", account)
	}

	// =========================================================================
	// Blockchain Support

	gen, err := genesis.Load(cfg.State.GenesisPath)
	if err != nil {
		return fmt.Errorf("unable to load genesis: %w", err)
	}

	storage, err := openStorage(cfg.State.Storage, cfg.State.DBPath)
	if err != nil {
		return err
	}

	// The blockchain packages accept a function of this signature to allow the
	// application to log. These raw messages are also sent to any websocket
	// client that is connected into the system through the events package.
	evts := events.New()
	ev := func(v string, args ...any) {
		s := fmt.Sprintf(v, args...)
		log.Infow(s, "traceid", "00000000-0000-0000-0000-000000000000")
		evts.Send(s)
	}

	// The state value represents the sequencer and manages the chain database
	// and provides an API for application support.
	st, err := state.New(state.Config{
		Beneficiary: common.HexToAddress(cfg.State.Beneficiary),
		Genesis:     gen,
		Storage:     storage,
		Mempool: mempool.Config{
			Capacity:   cfg.State.MempoolCapacity,
			StaleAfter: cfg.State.StaleAfter,
		},
		DevMode:   cfg.Auth.DevMode,
		EvHandler: ev,
	})
	if err != nil {
		storage.Close()
		return err
	}
	defer st.Shutdown()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	mtr, err := metrics.New(reg, handlers.MetricsSource{State: st})
	if err != nil {
		return fmt.Errorf("unable to register metrics: %w", err)
	}

	log.Infow("startup", "status", "chain loaded", "height", st.Height(), "hash", st.LatestBlock().Hash(), "devMode", st.DevMode())

	// The worker package drives block production. The worker will register
	// itself with the state. Only blocks sealed by the worker are counted,
	// not the ones replayed at startup.
	worker.Run(st, cfg.State.BlockInterval, ev, func(database.Block) { mtr.BlockSealed() })

	// =========================================================================
	// Start Debug Service

	log.Infow("startup", "status", "debug router started", "host", cfg.Web.DebugHost)

	// Construct the mux for the debug calls.
	debugMux := handlers.DebugMux(build, log, st, reg)

	// Start the service listening for debug requests.
	// Not concerned with shutting this down with load shedding.
	go func() {
		if err := http.ListenAndServe(cfg.Web.DebugHost, debugMux); err != nil {
			log.Errorw("shutdown", "status", "debug router closed", "host", cfg.Web.DebugHost, "ERROR", err)
		}
	}()

	// =========================================================================
	// Service Start/Stop Support

	// Make a channel to listen for an interrupt or terminate signal from the OS.
	// Use a buffered channel because the signal package requires it.
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	// Make a channel to listen for errors coming from the listener. Use a
	// buffered channel so the goroutine can exit if we don't collect this error.
	serverErrors := make(chan error, 1)

	// =========================================================================
	// Start RPC Service

	log.Infow("startup", "status", "initializing JSON-RPC support")

	// Construct the mux for the JSON-RPC calls.
	rpcMux := handlers.RPCMux(handlers.MuxConfig{
		Shutdown:   shutdown,
		Log:        log,
		State:      st,
		NS:         ns,
		Evts:       evts,
		Metrics:    mtr,
		CORSOrigin: cfg.Web.CORSOrigin,
		Limiter:    rate.NewLimiter(rate.Limit(cfg.Web.RateLimit), cfg.Web.RateBurst),
	})

	// Construct a server to service the requests against the mux.
	api := http.Server{
		Addr:         cfg.Web.RPCHost,
		Handler:      rpcMux,
		ReadTimeout:  cfg.Web.ReadTimeout,
		WriteTimeout: cfg.Web.WriteTimeout,
		IdleTimeout:  cfg.Web.IdleTimeout,
		ErrorLog:     zap.NewStdLog(log.Desugar()),
	}

	// Start the service listening for api requests.
	go func() {
		log.Infow("startup", "status", "rpc router started", "host", api.Addr)
		serverErrors <- api.ListenAndServe()
	}()

	// =========================================================================
	// Shutdown

	// Blocking main and waiting for shutdown.
	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		log.Infow("shutdown", "status", "shutdown started", "signal", sig)
		defer log.Infow("shutdown", "status", "shutdown complete", "signal", sig)

		// Release any web sockets that are currently active.
		log.Infow("shutdown", "status", "shutdown web socket channels")
		evts.Shutdown()

		// Give outstanding requests a deadline for completion.
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Web.ShutdownTimeout)
		defer cancel()

		// Asking listener to shut down and shed load.
		log.Infow("shutdown", "status", "shutdown rpc API started")
		if err := api.Shutdown(ctx); err != nil {
			api.Close()
			return fmt.Errorf("could not stop rpc service gracefully: %w", err)
		}
	}

	return nil
}

// openStorage constructs the serializer for the configured backend.
func openStorage(kind string, dbPath string) (database.Serializer, error) {
	switch kind {
	case "disk":
		s, err := disk.New(dbPath)
		if err != nil {
			return nil, fmt.Errorf("unable to open disk storage: %w", err)
		}
		return s, nil

	case "leveldb":
		s, err := leveldb.New(dbPath)
		if err != nil {
			return nil, fmt.Errorf("unable to open leveldb storage: %w", err)
		}
		return s, nil

	case "memory":
		return memory.New(), nil
	}

	return nil, fmt.Errorf("unknown storage %q, expecting disk, leveldb or memory", kind)
}
