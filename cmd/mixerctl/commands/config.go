package commands

import (
	"fmt"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or edit the on-disk configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the current configuration as YAML",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig()
		if err != nil {
			return err
		}
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), string(data))
		return nil
	},
}

var (
	flagSetRate    int
	flagSetBufsize int
)

var configSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Update audio.rate / audio.bufsize and save",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig()
		if err != nil {
			return err
		}
		if flagSetRate > 0 {
			cfg.Audio.SampleRate = flagSetRate
		}
		if flagSetBufsize > 0 {
			cfg.Audio.BufferSize = flagSetBufsize
		}
		cfg.Normalize()
		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "saved")
		return nil
	},
}

func init() {
	configSetCmd.Flags().IntVar(&flagSetRate, "rate", 0, "sample rate in Hz")
	configSetCmd.Flags().IntVar(&flagSetBufsize, "bufsize", 0, "buffer size in frames")

	configCmd.AddCommand(configShowCmd, configSetCmd)
	rootCmd.AddCommand(configCmd)
}
