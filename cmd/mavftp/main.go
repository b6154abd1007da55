// Command mavftp is a standalone MAVLink-FTP client: it drives one
// FTP operation per invocation over a MAVLink link and prints the
// result.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	var connection string

	root := &cobra.Command{
		Use:   "mavftp",
		Short: "MAVLink-FTP client",
	}
	root.PersistentFlags().StringVar(&connection, "connection", "tcpout:0.0.0.0:5760", "MAVLink connection string")

	root.AddCommand(
		listCmd(&connection),
		readCmd(&connection),
		createCmd(&connection),
		writeCmd(&connection),
		removeCmd(&connection),
		mkdirCmd(&connection),
		rmdirCmd(&connection),
		crcCmd(&connection),
		resetCmd(&connection),
	)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
