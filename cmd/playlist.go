package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aldertree/strataplay/internal/portaudiograph"
	"github.com/aldertree/strataplay/pkg/player"
	"github.com/aldertree/strataplay/pkg/types"

	"github.com/drgolem/go-portaudio/portaudio"
	"github.com/spf13/cobra"
)

var (
	playlistDeviceIdx  int
	playlistPAFrames   int
	playlistSampleRate int
	playlistVerbose    bool
)

// playlistCmd represents the playlist command
var playlistCmd = &cobra.Command{
	Use:   "playlist <audio_file> [audio_file...]",
	Short: "Play multiple audio files sequentially",
	Long: `Play a list of audio files one after another, reusing a single player
slot: each file is loaded, played to completion (or interrupted), then
unloaded before the next one starts.

Examples:
  strataplay playlist song1.mp3 song2.flac song3.wav
  strataplay playlist -d 0 -v music/*.flac`,
	Args: cobra.MinimumNArgs(1),
	Run:  runPlaylist,
}

func init() {
	rootCmd.AddCommand(playlistCmd)

	playlistCmd.Flags().IntVarP(&playlistDeviceIdx, "device", "d", 1, "Audio output device index")
	playlistCmd.Flags().IntVarP(&playlistPAFrames, "paframes", "p", 512, "PortAudio frames per buffer")
	playlistCmd.Flags().IntVar(&playlistSampleRate, "samplerate", 48000, "Output sample rate in Hz")
	playlistCmd.Flags().BoolVarP(&playlistVerbose, "verbose", "v", false, "Verbose output (debug logging)")
}

func runPlaylist(cmd *cobra.Command, args []string) {
	logLevel := slog.LevelInfo
	if playlistVerbose {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	files := args

	slog.Info("Initializing PortAudio")
	if err := portaudio.Initialize(); err != nil {
		slog.Error("Failed to initialize PortAudio", "error", err)
		os.Exit(1)
	}
	defer portaudio.Terminate()

	factory := portaudiograph.NewFactory(playlistDeviceIdx, playlistPAFrames, playlistSampleRate)
	host := player.NewHost(factory, 1)

	handle, err := host.Create()
	if err != nil {
		slog.Error("Failed to create player", "error", err)
		os.Exit(1)
	}
	defer host.Remove(handle)

	p, err := host.Player(handle)
	if err != nil {
		slog.Error("Failed to access player", "error", err)
		os.Exit(1)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	interrupted := false
	for i, fileName := range files {
		if interrupted {
			break
		}
		slog.Info("Playing file", "index", i+1, "total", len(files), "file", fileName)

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err := host.Load(ctx, handle, fileName, nil, nil)
		cancel()
		if err != nil {
			slog.Error("Failed to open file", "file", fileName, "error", err)
			continue
		}

		if err := host.Start(handle); err != nil {
			slog.Error("Failed to start playback", "file", fileName, "error", err)
			continue
		}

		interrupted = waitForFileOrSignal(p, sigChan)
		host.Unload(handle)
	}

	if interrupted {
		slog.Info("Playback interrupted")
	} else {
		slog.Info("All files completed", "total", len(files))
	}
	slog.Info("Exiting")
}

// waitForFileOrSignal blocks until the current file reaches STOPPED on its
// own (end of file, loop disabled) or an interrupt signal arrives; it
// returns true only for the latter.
func waitForFileOrSignal(p *player.Player, sigChan <-chan os.Signal) bool {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	sawPlaying := false
	for {
		select {
		case <-sigChan:
			return true
		case <-ticker.C:
			switch p.PlayState() {
			case types.PlayPlaying:
				sawPlaying = true
			case types.PlayStopped:
				if sawPlaying {
					return false
				}
			}
		}
	}
}
