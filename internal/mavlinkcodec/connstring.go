package mavlinkcodec

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bluenviron/gomavlib/v3"
)

// ParseConnectionString turns one of the spec's connection strings —
// "udpin:host:port", "udpout:host:port", "tcpin:host:port",
// "tcpout:host:port" or "serial:device:baud" — into a gomavlib
// endpoint configuration. "in" endpoints listen, "out" endpoints dial
// out, matching the pymavlink/MAVProxy convention the rest of the
// ecosystem follows.
func ParseConnectionString(conn string) (gomavlib.EndpointConf, error) {
	parts := strings.SplitN(conn, ":", 2)
	if len(parts) != 2 {
		return nil, fmt.Errorf("mavlinkcodec: malformed connection string %q", conn)
	}
	scheme, rest := parts[0], parts[1]

	switch scheme {
	case "udpin":
		return gomavlib.EndpointUDPServer{Address: rest}, nil
	case "udpout":
		return gomavlib.EndpointUDPClient{Address: rest}, nil
	case "tcpin":
		return gomavlib.EndpointTCPServer{Address: rest}, nil
	case "tcpout":
		return gomavlib.EndpointTCPClient{Address: rest}, nil
	case "serial":
		device, baudStr, ok := strings.Cut(rest, ":")
		if !ok {
			return nil, fmt.Errorf("mavlinkcodec: serial connection string needs device:baud, got %q", rest)
		}
		baud, err := strconv.Atoi(baudStr)
		if err != nil {
			return nil, fmt.Errorf("mavlinkcodec: invalid baud rate %q: %w", baudStr, err)
		}
		return gomavlib.EndpointSerial{Device: device, Baud: baud}, nil
	default:
		return nil, fmt.Errorf("mavlinkcodec: unknown connection scheme %q", scheme)
	}
}
