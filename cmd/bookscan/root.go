package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var configFlag string

	ctx := newCommandContext(&configFlag)

	rootCmd := &cobra.Command{
		Use:   "bookscan [rpi|uvc|ISBN]",
		Short: "Scan a book barcode and store its bibliographic record",
		Long: `bookscan reads an ISBN and stores the matching bibliographic record.

  bookscan           scan with the default camera profile (rpi unless configured)
  bookscan rpi       scan with the camera module, preview overlay on
  bookscan uvc       scan with a USB camera
  bookscan <ISBN>    skip the camera and look up the given ISBN

Exit status: 0 stored, 1 no barcode read, 2 lookup or parse failure,
3 store failure, 4 anything else.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd, ctx, args)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")

	rootCmd.AddCommand(newRecordsCommand(ctx))
	rootCmd.AddCommand(newDoctorCommand(ctx))
	rootCmd.AddCommand(newConfigCommand(ctx))

	return rootCmd
}
