package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "strataplay",
	Short: "Realtime audio-file player engine with a step-sequencer pattern core",
	Long: `strataplay is a realtime audio-file player built on a lock-free SPSC
ringbuffer pair and a decoupled decoder thread, plus a step-sequencer pattern
core for editing note/stutter/program-change events.

Commands:
  - play: play a single audio file with real-time status reporting
  - playlist: play a sequence of audio files back to back
  - transform: resample an audio file and write it out as WAV`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
