package permit

import (
	"errors"
	"fmt"
	"net"
	"sync"

	"golang.org/x/net/ipv4"
	"golang.org/x/net/ipv6"
)

// mDNS multicast groups (RFC 6762).
var (
	GroupIPv4 = net.IPv4(224, 0, 0, 251)
	GroupIPv6 = net.ParseIP("ff02::fb")
)

// GroupConn is a packet connection that can join and leave multicast groups.
// Both *ipv4.PacketConn and *ipv6.PacketConn satisfy it.
type GroupConn interface {
	JoinGroup(ifi *net.Interface, group net.Addr) error
	LeaveGroup(ifi *net.Interface, group net.Addr) error
	Close() error
}

// ListenFunc opens a GroupConn for the given network ("udp4" or "udp6").
type ListenFunc func(network string) (GroupConn, error)

// InterfaceProvider lists the host's network interfaces.
type InterfaceProvider func() ([]net.Interface, error)

// Config configures a MulticastService.
type Config struct {
	// Interface restricts membership to one interface by name.
	// Empty means all up, multicast-capable interfaces.
	Interface string

	// IPv6 also joins ff02::fb. Failure to join the IPv6 group is tolerated
	// as long as the IPv4 group was joined.
	IPv6 bool

	// Listen opens membership sockets (default: ListenGroupConn).
	Listen ListenFunc

	// Interfaces lists interfaces (default: net.Interfaces).
	Interfaces InterfaceProvider
}

// MulticastService implements Service using mDNS group membership.
type MulticastService struct {
	config Config
}

// NewMulticastService creates a new multicast permit service.
func NewMulticastService(config Config) *MulticastService {
	if config.Listen == nil {
		config.Listen = ListenGroupConn
	}
	if config.Interfaces == nil {
		config.Interfaces = net.Interfaces
	}
	return &MulticastService{config: config}
}

// NewPermit creates a new, unheld permit.
func (s *MulticastService) NewPermit(tag string) (Permit, error) {
	if tag == "" {
		return nil, ErrEmptyTag
	}
	return &multicastPermit{
		svc:        s,
		tag:        tag,
		refCounted: true,
	}, nil
}

// ListenGroupConn opens a UDP socket on an ephemeral port and wraps it for
// group management. Membership alone opens the host's multicast filter, so
// the socket never has to compete for port 5353 with the application.
func ListenGroupConn(network string) (GroupConn, error) {
	switch network {
	case "udp4":
		conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4zero})
		if err != nil {
			return nil, err
		}
		return ipv4.NewPacketConn(conn), nil
	case "udp6":
		conn, err := net.ListenUDP("udp6", &net.UDPAddr{IP: net.IPv6unspecified})
		if err != nil {
			return nil, err
		}
		return ipv6.NewPacketConn(conn), nil
	default:
		return nil, fmt.Errorf("unsupported network: %s", network)
	}
}

// multicastInterfaces returns the interfaces membership should be taken on.
func (s *MulticastService) multicastInterfaces() ([]net.Interface, error) {
	all, err := s.config.Interfaces()
	if err != nil {
		return nil, fmt.Errorf("failed to list interfaces: %w", err)
	}

	var ifaces []net.Interface
	for _, ifi := range all {
		if s.config.Interface != "" && ifi.Name != s.config.Interface {
			continue
		}
		if ifi.Flags&net.FlagUp == 0 || ifi.Flags&net.FlagMulticast == 0 {
			continue
		}
		ifaces = append(ifaces, ifi)
	}

	if len(ifaces) == 0 {
		if s.config.Interface != "" {
			return nil, fmt.Errorf("%w: %s", ErrNoInterface, s.config.Interface)
		}
		return nil, ErrNoInterface
	}
	return ifaces, nil
}

// membership is one socket's group membership.
type membership struct {
	conn   GroupConn
	group  net.Addr
	ifaces []net.Interface
}

// join opens a membership socket and joins group on every interface that
// accepts it.
func (s *MulticastService) join(network string, group net.IP, ifaces []net.Interface) (*membership, error) {
	conn, err := s.config.Listen(network)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", network, err)
	}

	m := &membership{conn: conn, group: &net.UDPAddr{IP: group}}
	var errs []error
	for i := range ifaces {
		if err := conn.JoinGroup(&ifaces[i], m.group); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", ifaces[i].Name, err))
			continue
		}
		m.ifaces = append(m.ifaces, ifaces[i])
	}

	if len(m.ifaces) == 0 {
		conn.Close()
		return nil, fmt.Errorf("%s: %w", network, errors.Join(errs...))
	}
	return m, nil
}

// leave drops the membership on every joined interface and closes the socket.
func (m *membership) leave() error {
	var errs []error
	for i := range m.ifaces {
		if err := m.conn.LeaveGroup(&m.ifaces[i], m.group); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", m.ifaces[i].Name, err))
		}
	}
	if err := m.conn.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// multicastPermit is a Permit backed by mDNS group membership.
type multicastPermit struct {
	svc *MulticastService
	tag string

	mu          sync.Mutex
	refCounted  bool
	count       int
	memberships []*membership
}

func (p *multicastPermit) Tag() string {
	return p.tag
}

func (p *multicastPermit) SetReferenceCounted(refCounted bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.refCounted = refCounted
}

func (p *multicastPermit) Acquire() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.count == 0 {
		if err := p.joinLocked(); err != nil {
			return err
		}
	}

	if p.refCounted {
		p.count++
	} else {
		p.count = 1
	}
	return nil
}

func (p *multicastPermit) IsHeld() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.count > 0
}

func (p *multicastPermit) Release() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.count == 0 {
		return fmt.Errorf("%w: %s", ErrUnderLocked, p.tag)
	}

	if p.refCounted {
		p.count--
	} else {
		p.count = 0
	}

	if p.count > 0 {
		return nil
	}
	return p.leaveLocked()
}

// joinLocked joins the IPv4 group and, if enabled, the IPv6 group.
func (p *multicastPermit) joinLocked() error {
	ifaces, err := p.svc.multicastInterfaces()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrJoinFailed, err)
	}

	m4, err := p.svc.join("udp4", GroupIPv4, ifaces)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrJoinFailed, err)
	}
	p.memberships = append(p.memberships, m4)

	if p.svc.config.IPv6 {
		// IPv6 is best effort; the IPv4 membership is enough to hold the permit.
		if m6, err := p.svc.join("udp6", GroupIPv6, ifaces); err == nil {
			p.memberships = append(p.memberships, m6)
		}
	}
	return nil
}

// leaveLocked drops all memberships. The memberships are forgotten even on
// error, since a half-closed socket cannot be reused.
func (p *multicastPermit) leaveLocked() error {
	var errs []error
	for _, m := range p.memberships {
		if err := m.leave(); err != nil {
			errs = append(errs, err)
		}
	}
	p.memberships = nil

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("failed to leave multicast group: %w", err)
	}
	return nil
}
