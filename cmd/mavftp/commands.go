package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mavbridge-dev/mavbridge/internal/ftp"
)

func listCmd(connection *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list <path>",
		Short: "List a remote directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			controller, err := runOperation(*connection, func(c *ftp.Controller) (ftp.Payload, error) {
				return c.List(args[0])
			})
			if err != nil {
				return err
			}
			for _, entry := range controller.ListResult() {
				if entry.Type == ftp.EntryFile {
					fmt.Printf("%c %s\t%d\n", entry.Type, entry.Name, entry.Size)
				} else {
					fmt.Printf("%c %s\n", entry.Type, entry.Name)
				}
			}
			return nil
		},
	}
}

func readCmd(connection *string) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "read <path>",
		Short: "Read a remote file via burst transfer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dest := out
			if dest == "" {
				dest = args[0]
			}
			f, err := os.Create(dest)
			if err != nil {
				return err
			}
			defer f.Close()

			_, err = runOperation(*connection, func(c *ftp.Controller) (ftp.Payload, error) {
				return c.Read(args[0], f)
			})
			return err
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "local destination path (default: same as remote path)")
	return cmd
}

func createCmd(connection *string) *cobra.Command {
	return &cobra.Command{
		Use:   "create <path>",
		Short: "Create a remote file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := runOperation(*connection, func(c *ftp.Controller) (ftp.Payload, error) {
				return c.Create(args[0])
			})
			return err
		},
	}
}

func writeCmd(connection *string) *cobra.Command {
	var data string
	cmd := &cobra.Command{
		Use:   "write <path>",
		Short: "Send a WriteFile request with bytes at offset 0 (the path is not sent)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := runOperation(*connection, func(c *ftp.Controller) (ftp.Payload, error) {
				return c.Write(args[0], 0, []byte(data))
			})
			return err
		},
	}
	cmd.Flags().StringVar(&data, "data", "", "bytes to write")
	return cmd
}

func removeCmd(connection *string) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <path>",
		Short: "Remove a remote file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := runOperation(*connection, func(c *ftp.Controller) (ftp.Payload, error) {
				return c.Remove(args[0])
			})
			return err
		},
	}
}

func mkdirCmd(connection *string) *cobra.Command {
	return &cobra.Command{
		Use:   "mkdir <path>",
		Short: "Create a remote directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := runOperation(*connection, func(c *ftp.Controller) (ftp.Payload, error) {
				return c.Mkdir(args[0])
			})
			return err
		},
	}
}

func rmdirCmd(connection *string) *cobra.Command {
	return &cobra.Command{
		Use:   "rmdir <path>",
		Short: "Remove a remote directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := runOperation(*connection, func(c *ftp.Controller) (ftp.Payload, error) {
				return c.Rmdir(args[0])
			})
			return err
		},
	}
}

func crcCmd(connection *string) *cobra.Command {
	return &cobra.Command{
		Use:   "crc <path>",
		Short: "Compute a remote file's CRC32",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			controller, err := runOperation(*connection, func(c *ftp.Controller) (ftp.Payload, error) {
				return c.CRC(args[0])
			})
			if err != nil {
				return err
			}
			fmt.Printf("%08x\n", controller.CRCResult())
			return nil
		},
	}
}

func resetCmd(connection *string) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Reset all remote FTP sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := runOperation(*connection, func(c *ftp.Controller) (ftp.Payload, error) {
				return c.Reset()
			})
			return err
		},
	}
}
