// ABOUTME: Local-network discovery endpoint backed by hashicorp/mdns
// ABOUTME: Advertises this peer and browses for others, emitting a raw event stream
package discovery

import (
	"context"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/mdns"

	"github.com/jamiepine/mdns-peer-go/internal/logging"
)

var logger = logging.Logger("mdnspeer/discovery")

const (
	// DefaultService is the mDNS service type peers advertise under.
	DefaultService = "_mdns-peer._udp"

	defaultQueryInterval = 2 * time.Second
	defaultExpiryAfter   = 8 * time.Second

	txtNodeID = "nid="
	txtLabel  = "label="
)

// Config holds endpoint configuration.
type Config struct {
	// Label is the human-readable name attached to the advertisement.
	Label string

	// Service overrides the advertised service type.
	Service string

	// QueryInterval is how long each browse round runs.
	QueryInterval time.Duration

	// ExpiryAfter is how long a peer may stay silent before it expires
	// from the routing table.
	ExpiryAfter time.Duration
}

func (c *Config) applyDefaults() {
	if c.Service == "" {
		c.Service = DefaultService
	}
	if c.QueryInterval <= 0 {
		c.QueryInterval = defaultQueryInterval
	}
	if c.ExpiryAfter <= 0 {
		c.ExpiryAfter = defaultExpiryAfter
	}
}

// Endpoint is this process's local network identity: an advertised mDNS
// service, a UDP socket anchoring its port, and a browse loop feeding the
// event stream. Close stops the advertisement and closes the stream.
type Endpoint struct {
	config   Config
	identity PeerIdentity
	conn     *net.UDPConn
	server   *mdns.Server
	reg      *registry
	events   chan Event

	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	closeOnce sync.Once
	closeErr  error
}

// Bind creates the endpoint: generates a node identity, advertises the label
// over mDNS, and starts browsing for other peers.
func Bind(config Config) (*Endpoint, error) {
	config.applyDefaults()

	identity, err := NewIdentity()
	if err != nil {
		return nil, err
	}

	// The socket anchors the advertised port for the endpoint's lifetime.
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4zero, Port: 0})
	if err != nil {
		return nil, fmt.Errorf("failed to bind endpoint socket: %w", err)
	}
	port := conn.LocalAddr().(*net.UDPAddr).Port

	ips, err := getLocalIPs()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to get local IPs: %w", err)
	}

	txt := []string{txtNodeID + identity.String()}
	if config.Label != "" {
		txt = append(txt, txtLabel+config.Label)
	}

	instance := fmt.Sprintf("peer-%s", identity.Short())
	service, err := mdns.NewMDNSService(instance, config.Service, "", "", port, ips, txt)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create service: %w", err)
	}

	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create mdns server: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	e := &Endpoint{
		config:   config,
		identity: identity,
		conn:     conn,
		server:   server,
		reg:      newRegistry(),
		events:   make(chan Event, 64),
		ctx:      ctx,
		cancel:   cancel,
	}

	logger.Debug("endpoint bound",
		"node_id", identity.Short(), "label", config.Label,
		"service", config.Service, "port", port)

	e.wg.Add(1)
	go e.browseLoop()

	return e, nil
}

// NodeID returns the endpoint's own peer identity.
func (e *Endpoint) NodeID() PeerIdentity {
	return e.identity
}

// Events returns the raw discovery stream. The channel is closed when the
// endpoint closes.
func (e *Endpoint) Events() <-chan Event {
	return e.events
}

// RemotePeers returns the routing-table snapshot: every remote peer
// currently advertising, unordered.
func (e *Endpoint) RemotePeers() []RemoteInfo {
	return e.reg.snapshot()
}

// Close shuts down the advertisement, stops the browse loop, and closes the
// event stream. Idempotent; returns the first close error.
func (e *Endpoint) Close() error {
	e.closeOnce.Do(func() {
		e.cancel()
		if err := e.server.Shutdown(); err != nil {
			e.closeErr = fmt.Errorf("failed to shut down mdns server: %w", err)
		}
		if err := e.conn.Close(); err != nil && e.closeErr == nil {
			e.closeErr = fmt.Errorf("failed to close endpoint socket: %w", err)
		}
		e.wg.Wait()
		close(e.events)
		logger.Debug("endpoint closed", "node_id", e.identity.Short())
	})
	return e.closeErr
}

// browseLoop runs browse rounds until the endpoint closes. Each round
// queries for the configured service, feeds observations into the registry
// and the event stream, then sweeps expired peers.
func (e *Endpoint) browseLoop() {
	defer e.wg.Done()

	for {
		select {
		case <-e.ctx.Done():
			return
		default:
		}

		entries := make(chan *mdns.ServiceEntry, 16)
		collected := make(chan struct{})

		go func() {
			defer close(collected)
			for entry := range entries {
				e.handleEntry(entry)
			}
		}()

		err := mdns.Query(&mdns.QueryParam{
			Service:     e.config.Service,
			Domain:      "local",
			Timeout:     e.config.QueryInterval,
			Entries:     entries,
			DisableIPv6: true,
		})
		close(entries)
		<-collected

		if err != nil {
			select {
			case <-e.ctx.Done():
				return
			default:
			}
			e.emit(Event{Kind: EventError, Err: fmt.Errorf("mdns query failed: %w", err)})
		}

		e.sweepExpired()
	}
}

// handleEntry converts one mDNS answer into a Discovered event. Entries are
// never filtered here: the stream reports every observation, the local
// endpoint's own advertisement included.
func (e *Endpoint) handleEntry(entry *mdns.ServiceEntry) {
	peer, label, hasLabel := parseEntryInfo(entry.InfoFields, entry.Name)

	addr := ""
	if entry.AddrV4 != nil {
		addr = fmt.Sprintf("%s:%d", entry.AddrV4, entry.Port)
	}

	if peer != e.identity {
		e.reg.observe(RemoteInfo{
			Peer:     peer,
			Label:    label,
			HasLabel: hasLabel,
			Addr:     addr,
			LastSeen: time.Now(),
		})
	}

	e.emit(Event{
		Kind:     EventDiscovered,
		Peer:     peer,
		Label:    label,
		HasLabel: hasLabel,
		Source:   "mdns",
	})
}

// parseEntryInfo extracts the node ID and label from TXT records. Answers
// without a node ID record fall back to the service instance name, so peers
// from unrelated or older advertisers still surface.
func parseEntryInfo(fields []string, fallback string) (PeerIdentity, string, bool) {
	var peer PeerIdentity
	var label string
	var hasLabel bool
	for _, f := range fields {
		switch {
		case strings.HasPrefix(f, txtNodeID):
			peer = PeerIdentity(strings.TrimPrefix(f, txtNodeID))
		case strings.HasPrefix(f, txtLabel):
			label = strings.TrimPrefix(f, txtLabel)
			hasLabel = true
		}
	}
	if peer == "" {
		peer = PeerIdentity(fallback)
	}
	return peer, label, hasLabel
}

func (e *Endpoint) sweepExpired() {
	for _, peer := range e.reg.expire(time.Now(), e.config.ExpiryAfter) {
		e.emit(Event{Kind: EventExpired, Peer: peer})
	}
}

// emit delivers an event unless the endpoint is closing. The stream buffer
// absorbs bursts; a reader gone at shutdown must not wedge the browse loop.
func (e *Endpoint) emit(ev Event) {
	select {
	case e.events <- ev:
	case <-e.ctx.Done():
	}
}

// getLocalIPs returns the non-loopback IPv4 addresses of up interfaces.
func getLocalIPs() ([]net.IP, error) {
	var ips []net.IP

	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}

	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}

		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}

		for _, addr := range addrs {
			if ipnet, ok := addr.(*net.IPNet); ok && !ipnet.IP.IsLoopback() {
				if ipnet.IP.To4() != nil {
					ips = append(ips, ipnet.IP)
				}
			}
		}
	}

	if len(ips) == 0 {
		ips = append(ips, net.ParseIP("127.0.0.1"))
	}

	return ips, nil
}
