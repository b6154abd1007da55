package main

import (
	"fmt"
	"time"

	"github.com/bluenviron/gomavlib/v3/pkg/dialects/common"

	"github.com/mavbridge-dev/mavbridge/internal/ftp"
	"github.com/mavbridge-dev/mavbridge/internal/link"
)

// targetSystem/targetComponent address the vehicle's FTP server
// component; mavbridge's FTP CLI targets the conventional autopilot
// component id, matching the MAVFtp reference clients.
const (
	targetSystem    = 1
	targetComponent = 1
)

// sessionTimeout bounds how long mavftp waits for the remote peer to
// advance an operation before giving up — the controller itself has
// no retry timer, per spec, so the CLI enforces one at its boundary.
const sessionTimeout = 5 * time.Second

func sendPayload(lnk *link.Handle, p ftp.Payload) error {
	raw, err := ftp.Encode(p)
	if err != nil {
		return err
	}
	msg := &common.MessageFileTransferProtocol{
		TargetNetwork:   0,
		TargetSystem:    targetSystem,
		TargetComponent: targetComponent,
		Payload:         raw,
	}
	_, err = lnk.Send(msg)
	return err
}

// runOperation opens a link, sends start's initial request, and pumps
// inbound FILE_TRANSFER_PROTOCOL frames through the controller until
// it returns to Idle or an error aborts the operation.
func runOperation(connection string, start func(*ftp.Controller) (ftp.Payload, error)) (*ftp.Controller, error) {
	lnk, err := link.New(link.Config{
		Connect:         connection,
		HeartbeatPeriod: time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("mavftp: opening link: %w", err)
	}
	defer lnk.Close()

	controller := ftp.NewController()

	first, err := start(controller)
	if err != nil {
		return nil, err
	}
	if err := sendPayload(lnk, first); err != nil {
		return nil, fmt.Errorf("mavftp: sending initial request: %w", err)
	}

	for {
		select {
		case env := <-lnk.Inbound():
			ftpMsg, ok := env.Message.(*common.MessageFileTransferProtocol)
			if !ok {
				continue
			}
			payload, err := ftp.Decode(ftpMsg.Payload)
			if err != nil {
				continue
			}

			next, err := controller.HandleFrame(payload)
			if err != nil {
				return controller, err
			}
			if next == nil && controller.State() == ftp.StateIdle {
				return controller, nil
			}
			if next != nil {
				if err := sendPayload(lnk, *next); err != nil {
					return controller, fmt.Errorf("mavftp: sending follow-up request: %w", err)
				}
			}
		case <-time.After(sessionTimeout):
			return controller, fmt.Errorf("mavftp: timed out waiting for reply in state %v", controller.State())
		}
	}
}
