// Command avdecc-controller is an interactive AVDECC controller.
//
// It registers a controller entity on one network interface, advertises
// it and discovers the entities on the segment. In interactive mode a
// shell drives enumeration and connection management commands.
//
// Usage:
//
//	avdecc-controller [flags]
//
// Flags:
//
//	-config string              YAML configuration file
//	-interface string           Network interface name
//	-transport string           Transport: pcap, afpacket, virtual (default "pcap")
//	-log-level string           Log level: debug, info, warn, error (default "info")
//	-log-file string            Rotated log file (default stderr)
//	-protocol-log string        Protocol trace file (.alog)
//	-metrics-addr string        Prometheus listen address, e.g. :9110
//	-announce                   Announce the metrics endpoint over DNS-SD
//	-interactive                Enable interactive command mode
//	-discovery-interval dur     Periodic discovery interval (0 disables)
//
// Examples:
//
//	# Interactive controller on eth0
//	avdecc-controller -interface eth0 -interactive
//
//	# Headless controller exporting metrics and a protocol trace
//	avdecc-controller -interface eth0 -metrics-addr :9110 -protocol-log trace.alog
//
// Interactive Commands:
//
//	list        - List discovered entities
//	discover    - Send ENTITY_DISCOVER
//	acquire     - Acquire an entity
//	connect     - Connect a talker stream to a listener stream
//	milan       - Query Milan information
//	quit        - Exit the controller
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/avb-tools/avdecc-go/cmd/avdecc-controller/interactive"
	"github.com/avb-tools/avdecc-go/pkg/entity"
	"github.com/avb-tools/avdecc-go/pkg/log"
	"github.com/avb-tools/avdecc-go/pkg/metrics"
	"github.com/avb-tools/avdecc-go/pkg/protocol"
	"github.com/avb-tools/avdecc-go/pkg/transport"
	"github.com/avb-tools/avdecc-go/pkg/uid"
	"github.com/avb-tools/avdecc-go/pkg/wire"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "avdecc-controller: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := parseArgs(args)
	if err != nil {
		return err
	}

	// Route log output through readline so it does not break the prompt.
	var ic *interactive.Controller
	var logOut io.Writer = os.Stderr
	if cfg.Interactive {
		if ic, err = interactive.New(cfg.Timeouts.Command); err != nil {
			return err
		}
		defer ic.Close()
		logOut = ic.Stderr()
	}

	logger, closeLog, err := setupLogging(cfg.Log, logOut)
	if err != nil {
		return err
	}
	defer closeLog()

	kind, err := transport.ParseKind(cfg.Transport)
	if err != nil {
		return err
	}
	tr, err := transport.Open(kind, cfg.Interface)
	if err != nil {
		return fmt.Errorf("open %s: %w", cfg.Interface, err)
	}

	pcfg := cfg.ProtocolConfig()
	pcfg.Logger = logger
	trace, closeTrace, err := setupProtocolLog(cfg.Protocol, logger)
	if err != nil {
		_ = tr.Close()
		return err
	}
	defer closeTrace()
	pcfg.ProtocolLogger = trace

	pi, err := protocol.New(tr, pcfg)
	if err != nil {
		return fmt.Errorf("start protocol interface: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	pi.Subscribe(metrics.NewCollector(reg, pi.Name()))
	pi.Subscribe(&eventLogger{logger: logger})

	controllerID, err := registerController(pi, cfg.Entity)
	if err != nil {
		return shutdown(pi, logger, err)
	}
	logger.Info("controller entity online", "entity_id", controllerID, "interface", pi.Name(), "mac", pi.MacAddress())

	var server *metrics.Server
	var announcement *metrics.Announcement
	if cfg.Metrics.Addr != "" {
		server = metrics.NewServer(cfg.Metrics.Addr, cfg.Metrics.Path, reg, logger)
		if err := server.Start(ctx); err != nil {
			return shutdown(pi, logger, err)
		}
		if cfg.Metrics.Announce {
			host, _ := os.Hostname()
			announcement, err = metrics.Announce(metrics.AnnounceConfig{
				Instance: host,
				Port:     server.Port(),
				Path:     cfg.Metrics.Path,
				EntityID: controllerID.String(),
			})
			if err != nil {
				logger.Warn("metrics announcement failed", "error", err)
			}
		}
	}

	if err := pi.DiscoverRemoteEntities(); err != nil {
		logger.Warn("discovery failed", "error", err)
	}
	if cfg.Entity.DiscoveryInterval > 0 {
		if err := pi.SetAutomaticDiscoveryDelay(cfg.Entity.DiscoveryInterval); err != nil {
			logger.Warn("automatic discovery not enabled", "error", err)
		}
	}

	if ic != nil {
		go ic.Run(ctx, cancel, pi, controllerID)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("received signal", "signal", sig)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	cancel()

	if announcement != nil {
		announcement.Shutdown()
	}
	if server != nil {
		if err := server.Stop(context.Background()); err != nil {
			logger.Warn("metrics server stop failed", "error", err)
		}
	}
	return shutdown(pi, logger, nil)
}

// shutdown departs the controller entity and releases the interface.
// cause is returned unchanged when set.
func shutdown(pi *protocol.Interface, logger *slog.Logger, cause error) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pi.Shutdown(ctx); err != nil {
		logger.Warn("protocol interface shutdown", "error", err)
	}
	return cause
}

func registerController(pi *protocol.Interface, cfg EntityConfig) (uid.ID, error) {
	id := cfg.EntityID
	if !id.IsValid() {
		var err error
		if id, err = pi.DynamicEID(); err != nil {
			return uid.Null, fmt.Errorf("allocate entity ID: %w", err)
		}
	}

	le, err := entity.NewLocalEntity(
		entity.CommonInformation{
			EntityID:               id,
			EntityModelID:          cfg.EntityModelID,
			ControllerCapabilities: wire.NewBitfield(wire.ControllerCapabilityImplemented),
		},
		entity.InterfaceInformation{
			InterfaceIndex: entity.GlobalInterfaceIndex,
			MacAddress:     pi.MacAddress(),
		},
	)
	if err != nil {
		return uid.Null, err
	}
	if _, err := pi.RegisterLocalEntity(le); err != nil {
		return uid.Null, fmt.Errorf("register controller: %w", err)
	}
	if err := pi.EnableEntityAdvertising(id, cfg.AvailableDuration); err != nil {
		return uid.Null, fmt.Errorf("advertise controller: %w", err)
	}
	return id, nil
}

// setupProtocolLog opens the protocol trace sinks. It returns a nil
// logger when tracing is off.
func setupProtocolLog(cfg ProtocolConfig, logger *slog.Logger) (log.Logger, func() error, error) {
	var sinks []log.Logger
	closer := func() error { return nil }

	if cfg.File != "" {
		fl, err := log.NewFileLogger(cfg.File)
		if err != nil {
			return nil, nil, fmt.Errorf("open protocol log: %w", err)
		}
		sinks = append(sinks, fl)
		closer = fl.Close
	}
	if cfg.Slog {
		sinks = append(sinks, log.NewSlogAdapter(logger))
	}

	switch len(sinks) {
	case 0:
		return nil, closer, nil
	case 1:
		return sinks[0], closer, nil
	default:
		return log.NewMultiLogger(sinks...), closer, nil
	}
}
