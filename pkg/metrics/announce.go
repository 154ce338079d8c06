package metrics

import (
	"fmt"
	"net"

	"github.com/enbility/zeroconf/v3"
)

// DNS-SD parameters of the metrics endpoint.
const (
	ServiceType = "_avdecc-metrics._tcp"
	Domain      = "local."
)

// AnnounceConfig describes the DNS-SD record of a metrics endpoint.
type AnnounceConfig struct {
	// Instance is the service instance name, usually the host name.
	Instance string

	// Port is the TCP port of the metrics server.
	Port int

	// Path is the HTTP path of the metrics, published in the TXT record.
	Path string

	// EntityID is the controller entity ID, published in the TXT record.
	EntityID string

	// Interface restricts the announcement to one network interface.
	// Empty means all interfaces.
	Interface string
}

// Announcement is a registered DNS-SD service.
type Announcement struct {
	server *zeroconf.Server
}

// Announce publishes the metrics endpoint over multicast DNS.
func Announce(cfg AnnounceConfig) (*Announcement, error) {
	if cfg.Port <= 0 {
		return nil, fmt.Errorf("announce metrics: invalid port %d", cfg.Port)
	}

	var ifaces []net.Interface
	if cfg.Interface != "" {
		ifi, err := net.InterfaceByName(cfg.Interface)
		if err != nil {
			return nil, fmt.Errorf("announce metrics: %w", err)
		}
		ifaces = []net.Interface{*ifi}
	}

	server, err := zeroconf.Register(cfg.Instance, ServiceType, Domain, cfg.Port, TXTRecords(cfg), ifaces)
	if err != nil {
		return nil, fmt.Errorf("failed to register metrics service: %w", err)
	}
	return &Announcement{server: server}, nil
}

// Shutdown withdraws the announcement.
func (a *Announcement) Shutdown() {
	if a.server != nil {
		a.server.Shutdown()
		a.server = nil
	}
}

// TXTRecords returns the key=value strings published with the service.
func TXTRecords(cfg AnnounceConfig) []string {
	path := cfg.Path
	if path == "" {
		path = DefaultPath
	}
	txt := []string{"path=" + path}
	if cfg.EntityID != "" {
		txt = append(txt, "eid="+cfg.EntityID)
	}
	return txt
}
