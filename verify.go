package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

func newVerifyCmd(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "verify <commands-file>",
		Short: "Replay a command file with structural checks after every change",
		Long: `The verify command replays a command file, checking the station tree, the
station list and every car park after each mutating command. Responses are
discarded; a summary of the final state is printed.

Example:
  highway verify testdata/commands.txt`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := f.load(cmd)
			if err != nil {
				return err
			}
			cfg.Verify = true

			in, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open commands: %w", err)
			}
			defer in.Close()

			a := newApp(cfg, cmd.ErrOrStderr())
			if err := a.run(cmd.Context(), in, io.Discard); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok: %d stations, %d cars\n", a.reg.Len(), a.reg.Cars())
			return nil
		},
	}
}
