package cmd

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/lehigh-university-libraries/labelme2coco/internal/cli"
	"github.com/lehigh-university-libraries/labelme2coco/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func NewRootCmd() *cobra.Command {
	var cfgFile string

	cmd := &cobra.Command{
		Use:   "labelme2coco",
		Short: "Convert LabelMe annotations into COCO datasets",
		Long: `labelme2coco turns a folder of LabelMe polygon/shape annotations into a single
COCO object detection and segmentation dataset.

Settings can come from flags, LABELME2COCO_* environment variables, a .env file,
or a .labelme2coco.yaml config file.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()

			if err := config.Init(cfgFile); err != nil {
				return err
			}

			setupLogging(viper.GetBool("verbose"))
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default .labelme2coco.yaml)")
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Verbose logging")
	_ = viper.BindPFlag("verbose", cmd.PersistentFlags().Lookup("verbose"))

	// Add subcommands
	cmd.AddCommand(cli.NewConvertCmd())
	cmd.AddCommand(cli.NewInspectCmd())

	return cmd
}

func setupLogging(verbose bool) {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)
}
