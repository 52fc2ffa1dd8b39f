package guard_test

import (
	"net"
	"sync"

	"github.com/seguridad-en-casa/lanbridge/pkg/permit"
)

// fakeMulticast counts live group memberships across all sockets it opened.
type fakeMulticast struct {
	mu      sync.Mutex
	members int
}

func newFakeMulticast() *fakeMulticast {
	return &fakeMulticast{}
}

func (f *fakeMulticast) config() permit.Config {
	return permit.Config{
		Listen: func(string) (permit.GroupConn, error) {
			return &fakeGroupConn{net: f}, nil
		},
		Interfaces: func() ([]net.Interface, error) {
			return []net.Interface{
				{Index: 2, Name: "wlan0", Flags: net.FlagUp | net.FlagMulticast},
			}, nil
		},
	}
}

func (f *fakeMulticast) joined() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.members
}

type fakeGroupConn struct {
	net *fakeMulticast
}

func (c *fakeGroupConn) JoinGroup(*net.Interface, net.Addr) error {
	c.net.mu.Lock()
	defer c.net.mu.Unlock()
	c.net.members++
	return nil
}

func (c *fakeGroupConn) LeaveGroup(*net.Interface, net.Addr) error {
	c.net.mu.Lock()
	defer c.net.mu.Unlock()
	c.net.members--
	return nil
}

func (c *fakeGroupConn) Close() error { return nil }
