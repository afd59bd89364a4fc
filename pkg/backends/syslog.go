package backends

import (
	"fmt"
	"io"
	"net"
	"os"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/wayneeseguin/platformlog/pkg/severity"
	"github.com/wayneeseguin/platformlog/pkg/types"
)

// FacilityUser is the syslog "user-level messages" facility
const FacilityUser = 1

// localSyslogSockets are probed in order when no address is configured
var localSyslogSockets = []string{"/dev/log", "/var/run/syslog", "/var/run/log"}

// SyslogBuffer writes buffer entries to a syslog daemon. It is the host's
// circular log buffer on systems without a dedicated one.
type SyslogBuffer struct {
	network  string
	address  string
	conn     net.Conn
	facility int
	closed   bool
	mu       sync.Mutex // Protects conn and closed
}

// NewSyslogBuffer connects to a syslog daemon. An empty address probes the
// usual local sockets, trying a datagram connection before a stream one.
func NewSyslogBuffer(network, address string, facility int) (*SyslogBuffer, error) {
	if address == "" {
		for _, path := range localSyslogSockets {
			if _, err := os.Stat(path); err == nil {
				address = path
				break
			}
		}
		if address == "" {
			return nil, types.PlatformUnsupported("open buffer log", "syslog", errors.New("no local syslog socket found"))
		}
	} else if network == "" {
		network = "udp"
	}

	conn, resolved, err := dialSyslog(network, address)
	if err != nil {
		if network == "" {
			network = "unix"
		}
		return nil, types.PlatformUnsupported("open buffer log", network+"://"+address, errors.Wrap(err, "dial syslog"))
	}

	return &SyslogBuffer{
		network:  resolved,
		address:  address,
		conn:     conn,
		facility: facility,
	}, nil
}

// dialSyslog connects to address. An empty network means a local socket of
// unknown type: unixgram is tried first, then unix.
func dialSyslog(network, address string) (net.Conn, string, error) {
	if network != "" {
		conn, err := net.Dial(network, address)
		return conn, network, err
	}

	var firstErr error
	for _, n := range []string{"unixgram", "unix"} {
		conn, err := net.Dial(n, address)
		if err == nil {
			return conn, n, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return nil, "", firstErr
}

// WriteBuffer implements BufferLog. Each entry is sent as one
// "<PRI>tag: text" message. A failed write redials the daemon once and
// retries.
func (sb *SyslogBuffer) WriteBuffer(priority severity.BufferPriority, tag, text string) error {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	if sb.closed {
		return errors.New("syslog buffer closed")
	}

	pri := sb.facility*8 + severity.ToSyslogSeverity(priority)
	if tag == "" {
		tag = "platformlog"
	}
	message := fmt.Sprintf("<%d>%s: %s\n", pri, tag, strings.TrimSpace(text))

	if sb.conn != nil {
		if _, err := io.WriteString(sb.conn, message); err == nil {
			return nil
		}
		sb.conn.Close()
		sb.conn = nil
	}

	conn, err := net.Dial(sb.network, sb.address)
	if err != nil {
		return errors.Wrapf(err, "redial syslog %s", sb.Address())
	}
	sb.conn = conn
	if _, err := io.WriteString(conn, message); err != nil {
		conn.Close()
		sb.conn = nil
		return errors.Wrap(err, "write syslog")
	}
	return nil
}

// Address returns the daemon address as network://address
func (sb *SyslogBuffer) Address() string {
	return sb.network + "://" + sb.address
}

// Close closes the connection. Later writes fail.
func (sb *SyslogBuffer) Close() error {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	sb.closed = true
	if sb.conn == nil {
		return nil
	}
	err := sb.conn.Close()
	sb.conn = nil
	return errors.Wrap(err, "close conn")
}
