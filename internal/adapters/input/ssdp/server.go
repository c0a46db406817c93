package ssdp

import (
	"context"
	"fmt"
	"net"
	"strings"

	log "github.com/sirupsen/logrus"
)

const multicastAddr = "239.255.255.250:1900"

// Server answers SSDP searches so Echo devices find the emulated bridge.
type Server struct {
	ip   string
	port int
}

func NewServer(ip string, port int) *Server {
	if port == 0 {
		port = 80
	}
	return &Server{ip: ip, port: port}
}

// Start listens until ctx is done.
func (s *Server) Start(ctx context.Context) error {
	addr, err := net.ResolveUDPAddr("udp4", multicastAddr)
	if err != nil {
		return err
	}

	conn, err := net.ListenMulticastUDP("udp4", nil, addr)
	if err != nil {
		return err
	}
	go func() {
		<-ctx.Done()
		conn.Close()
	}()
	log.Infof("SSDP listening on %s", multicastAddr)

	buf := make([]byte, 1024)
	for {
		n, src, err := conn.ReadFromUDP(buf)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			continue
		}

		if Matches(string(buf[:n])) {
			log.Debugf("SSDP search from %s", src)
			s.respond(src)
		}
	}
}

// Matches reports whether msg is an M-SEARCH an Echo expects a bridge to
// answer.
func Matches(msg string) bool {
	if !strings.Contains(msg, "M-SEARCH") {
		return false
	}
	// Echo Dot 3 often searches for urn:schemas-upnp-org:device:basic:1 or upnp:rootdevice
	return strings.Contains(msg, "urn:schemas-upnp-org:device:basic:1") ||
		strings.Contains(msg, "upnp:rootdevice") ||
		strings.Contains(msg, "ssdp:all")
}

func (s *Server) Response() string {
	return fmt.Sprintf("HTTP/1.1 200 OK\r\n"+
		"CACHE-CONTROL: max-age=100\r\n"+
		"EXT:\r\n"+
		"LOCATION: http://%s:%d/description.xml\r\n"+
		"SERVER: FreeRTOS/6.0.5, UPnP/1.1, IpBridge/1.17.0\r\n"+
		"ST: urn:schemas-upnp-org:device:basic:1\r\n"+
		"USN: uuid:2f402f80-da50-11e1-9b23-001788102201::urn:schemas-upnp-org:device:basic:1\r\n\r\n", s.ip, s.port)
}

func (s *Server) respond(dest *net.UDPAddr) {
	conn, err := net.DialUDP("udp4", nil, dest)
	if err != nil {
		log.WithError(err).Debug("SSDP reply failed")
		return
	}
	defer conn.Close()

	conn.Write([]byte(s.Response()))
}
