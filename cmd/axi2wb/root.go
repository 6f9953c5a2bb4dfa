package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/tebeka/atexit"
)

// envPrefix is the prefix of the environment variables that provide flag
// defaults. A flag named num-txns is read from AXI2WB_NUM_TXNS.
const envPrefix = "AXI2WB_"

var rootCmd = &cobra.Command{
	Use:   "axi2wb",
	Short: "Simulate an AXI3 to Wishbone bridge at the clock-tick level.",
	Long: `axi2wb builds a system of an AXI manager, the bridge, and a ` +
		`Wishbone bus with memory and a register bank, then drives traffic ` +
		`through it. Flag defaults can be given in a .env file or as ` +
		envPrefix + `* environment variables.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if err := loadDotEnv(".env"); err != nil {
			return err
		}

		return applyEnv(cmd.Flags())
	},
}

// Execute runs the command line and exits through atexit, so that recorders
// are flushed.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		atexit.Exit(1)
	}

	atexit.Exit(0)
}

func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}

	return err
}

func envName(flag string) string {
	return envPrefix + strings.ToUpper(strings.ReplaceAll(flag, "-", "_"))
}

// applyEnv sets every flag that is not given on the command line from its
// environment variable.
func applyEnv(flags *pflag.FlagSet) error {
	var err error

	flags.VisitAll(func(f *pflag.Flag) {
		if err != nil || f.Changed {
			return
		}

		value, ok := os.LookupEnv(envName(f.Name))
		if !ok {
			return
		}

		if setErr := f.Value.Set(value); setErr != nil {
			err = fmt.Errorf("%s: %w", envName(f.Name), setErr)
		}
	})

	return err
}
