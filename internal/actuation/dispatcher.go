package actuation

import (
	"errors"
	"fmt"
	"net"
)

// ErrSend is returned when a datagram cannot be written. Sends are
// best-effort; callers log and continue polling.
var ErrSend = errors.New("actuation: send failed")

// Sender writes one payload as a single datagram. Implementations must not
// split or interleave a payload across writes.
type Sender interface {
	Send(payload []byte) error
	Close() error
}

// UDPSender sends datagrams to one fixed destination over a connected UDP
// socket. A connected socket makes each Send a single Write call, so
// concurrent sessions sharing a sender cannot interleave datagram bytes.
type UDPSender struct {
	conn *net.UDPConn
	addr string
}

// NewUDPSender resolves the destination and connects a UDP socket to it.
//
// Parameters:
//   - host: Destination host or IP
//   - port: Destination UDP port
//
// Returns:
//   - *UDPSender: Connected sender
//   - error: If the address cannot be resolved or the socket opened
func NewUDPSender(host string, port int) (*UDPSender, error) {
	addr := fmt.Sprintf("%s:%d", host, port)
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", addr, err)
	}
	conn, err := net.DialUDP("udp", nil, udpAddr)
	if err != nil {
		return nil, fmt.Errorf("dialing %s: %w", addr, err)
	}
	return &UDPSender{conn: conn, addr: addr}, nil
}

// Send writes the payload as one datagram.
func (s *UDPSender) Send(payload []byte) error {
	if _, err := s.conn.Write(payload); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrSend, s.addr, err)
	}
	return nil
}

// Close releases the socket.
func (s *UDPSender) Close() error {
	return s.conn.Close()
}

// Addr returns the destination address, for logging.
func (s *UDPSender) Addr() string {
	return s.addr
}

// Dispatcher renders command templates and sends the payloads through a
// Sender. One Dispatcher serves one visualisation target; sessions share
// it freely because Render is pure and Send is a single write.
type Dispatcher struct {
	sender Sender
}

// NewDispatcher creates a dispatcher over the given sender.
func NewDispatcher(sender Sender) *Dispatcher {
	return &Dispatcher{sender: sender}
}

// DispatchValues renders a placeholder template with numeric and string
// values and sends the result as one datagram.
//
// Returns:
//   - string: The payload that was sent, for datalogging
//   - error: ErrArity on a template mismatch, ErrSend on a write failure
func (d *Dispatcher) DispatchValues(tmpl *Template, values []float64, args []string) (string, error) {
	payload, err := tmpl.Render(values, args)
	if err != nil {
		return "", err
	}
	if err := d.sender.Send([]byte(payload)); err != nil {
		return payload, err
	}
	return payload, nil
}

// DispatchLiteral sends a literal (placeholder-free) template verbatim.
// Used for button-triggered fixed commands such as "BRAKE".
//
// Returns:
//   - string: The payload that was sent
//   - error: ErrArity if the template has placeholders, ErrSend on failure
func (d *Dispatcher) DispatchLiteral(tmpl *Template) (string, error) {
	if !tmpl.IsLiteral() {
		return "", fmt.Errorf("%w: template %q has placeholders, literal dispatch refused", ErrArity, tmpl.Raw())
	}
	payload := tmpl.Raw()
	if err := d.sender.Send([]byte(payload)); err != nil {
		return payload, err
	}
	return payload, nil
}

// Close releases the underlying sender.
func (d *Dispatcher) Close() error {
	return d.sender.Close()
}
