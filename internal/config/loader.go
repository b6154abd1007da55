package config

import "github.com/spf13/cobra"

// BindFlags registers every CLI flag from spec §6 onto cmd, seeded
// with Default()'s values.
func BindFlags(cmd *cobra.Command, cfg *Config) {
	d := Default()

	cmd.Flags().StringVar(&cfg.MAVLink.Connect, "connect", d.MAVLink.Connect, "MAVLink connection string (udpin|udpout|tcpin|tcpout:host:port, or serial:device:baud)")
	cmd.Flags().StringVar(&cfg.Server.Addr, "server", d.Server.Addr, "HTTP listen address")
	cmd.Flags().IntVar(&cfg.MAVLink.Version, "mavlink", d.MAVLink.Version, "MAVLink wire protocol version (1 or 2)")
	cmd.Flags().Uint8Var(&cfg.MAVLink.SystemID, "system-id", d.MAVLink.SystemID, "mavbridge's own MAVLink system id")
	cmd.Flags().Uint8Var(&cfg.MAVLink.ComponentID, "component-id", d.MAVLink.ComponentID, "mavbridge's own MAVLink component id")
	cmd.Flags().BoolVar(&cfg.Server.DefaultAPIVersion, "default-api-version", d.Server.DefaultAPIVersion, "mount routes at both / and /v1 (otherwise only /v1)")
	cmd.Flags().BoolVar(&cfg.Logging.Verbose, "verbose", d.Logging.Verbose, "enable debug logging")
}
