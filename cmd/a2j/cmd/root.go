package cmd

import (
	"os"

	"github.com/spf13/cobra"

	configcmd "audio2json/cmd/a2j/cmd/config"
	"audio2json/cmd/a2j/cmd/transcribe"
	"audio2json/cmd/a2j/cmd/version"
)

var Verbose bool

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "a2j",
	Short: "Batch transcribe audio files to JSON with Gemini",
	Long: `Batch transcribe audio files to JSON with Gemini.
- Put the audio files in one directory (AudioData by default)
- Run a2j transcribe; every file is uploaded, transcribed and saved
- One <name>.json per input is written to the output directory (TextOutput by default).`,
	SilenceUsage:     true,
	TraverseChildren: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(configcmd.Cmd)
	rootCmd.AddCommand(transcribe.Cmd)
	rootCmd.AddCommand(version.Cmd)

	rootCmd.PersistentFlags().BoolVarP(&Verbose, "verbose", "V", false, "verbose output")
}
