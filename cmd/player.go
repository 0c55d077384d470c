package cmd

import (
	"context"
	"fmt"
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
	playDeviceIdx  int
	playPAFrames   int
	playSampleRate int
	playBufferSize int
	playLoop       bool
	playGain       float64
	playTrackA     int
	playTrackB     int
	playVerbose    bool
)

// playCmd represents the play command
var playCmd = &cobra.Command{
	Use:   "play <audio_file>",
	Short: "Play an audio file (MP3, FLAC, WAV, Ogg Vorbis, Opus)",
	Long: `Play an audio file through the realtime player pipeline: a decoder
thread fills a lock-free ring buffer pair that the audio callback drains at
the device's own period, with status reported every two seconds.

Examples:
  strataplay play music.mp3
  strataplay play -d 0 --loop music.flac
  strataplay play --track-a 0 --track-b 1 stems.wav`,
	Args: cobra.ExactArgs(1),
	Run:  runPlay,
}

func init() {
	rootCmd.AddCommand(playCmd)

	playCmd.Flags().IntVarP(&playDeviceIdx, "device", "d", 1, "Audio output device index")
	playCmd.Flags().IntVarP(&playPAFrames, "paframes", "p", 512, "PortAudio frames per buffer")
	playCmd.Flags().IntVar(&playSampleRate, "samplerate", 48000, "Output sample rate in Hz")
	playCmd.Flags().IntVarP(&playBufferSize, "buffer", "b", 4096, "Decoder chunk size in frames")
	playCmd.Flags().BoolVarP(&playLoop, "loop", "l", false, "Loop playback on reaching end of file")
	playCmd.Flags().Float64VarP(&playGain, "gain", "g", 1.0, "Output gain, 0.0-2.0")
	playCmd.Flags().IntVar(&playTrackA, "track-a", -1, "Channel routed to bus A (-1 = sum even channels)")
	playCmd.Flags().IntVar(&playTrackB, "track-b", -1, "Channel routed to bus B (-1 = sum odd channels)")
	playCmd.Flags().BoolVarP(&playVerbose, "verbose", "v", false, "Verbose output (debug logging)")
}

func runPlay(cmd *cobra.Command, args []string) {
	fileName := args[0]

	logLevel := slog.LevelInfo
	if playVerbose {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	if _, err := os.Stat(fileName); os.IsNotExist(err) {
		slog.Error("File not found", "path", fileName)
		os.Exit(1)
	}

	slog.Info("Initializing PortAudio")
	if err := portaudio.Initialize(); err != nil {
		slog.Error("Failed to initialize PortAudio", "error", err)
		os.Exit(1)
	}
	defer portaudio.Terminate()

	factory := portaudiograph.NewFactory(playDeviceIdx, playPAFrames, playSampleRate)
	host := player.NewHost(factory, 1)

	handle, err := host.Create()
	if err != nil {
		slog.Error("Failed to create player", "error", err)
		os.Exit(1)
	}
	defer host.Remove(handle)

	if err := host.SetBufferSize(handle, playBufferSize); err != nil {
		slog.Error("Failed to set buffer size", "error", err)
		os.Exit(1)
	}
	host.SetGain(handle, playGain)
	host.SetLoop(handle, playLoop)
	host.SetTrackA(handle, playTrackA)
	host.SetTrackB(handle, playTrackB)

	slog.Info("Opening audio file", "path", fileName)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := host.Load(ctx, handle, fileName, logNotify, fileName); err != nil {
		slog.Error("Failed to open file", "error", err)
		os.Exit(1)
	}

	slog.Info("Starting playback")
	if err := host.Start(handle); err != nil {
		slog.Error("Failed to start playback", "error", err)
		os.Exit(1)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	statusDone := make(chan struct{})
	go monitorPlayer(host, handle, statusDone)

	waitForStop(host, handle, sigChan)
	close(statusDone)

	slog.Info("Exiting")
}

// waitForStop polls the transport state until playback reaches STOPPED
// (either naturally, via loop-disabled end-of-file, or via signal) and
// issues stop() on interrupt.
func waitForStop(host *player.Host, handle int, sigChan <-chan os.Signal) {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	p, err := host.Player(handle)
	if err != nil {
		return
	}

	sawPlaying := false
	for {
		select {
		case sig := <-sigChan:
			slog.Info("Signal received, stopping", "signal", sig)
			host.Stop(handle)
			for p.PlayState() != types.PlayStopped {
				time.Sleep(20 * time.Millisecond)
			}
			return
		case <-ticker.C:
			switch p.PlayState() {
			case types.PlayPlaying:
				sawPlaying = true
			case types.PlayStopped:
				if sawPlaying {
					slog.Info("Playback completed")
					return
				}
			}
		}
	}
}

// monitorPlayer logs playback status every two seconds, in the teacher's
// style of a dedicated status-reporting goroutine separate from transport
// control.
func monitorPlayer(host *player.Host, handle int, done <-chan struct{}) {
	p, err := host.Player(handle)
	if err != nil {
		return
	}

	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			pos := p.GetPosition()
			posStr := fmt.Sprintf("%02d:%02d.%03d",
				int(pos)/60, int(pos)%60, int((pos-float64(int(pos)))*1000))
			slog.Info("Playback status",
				"state", p.PlayState(),
				"position", posStr,
				"gain", p.Gain(),
				"loop", p.Loop())
		case <-done:
			return
		}
	}
}

// logNotify is the types.Notifier installed on the CLI's single player: a
// thin slog bridge so threshold-crossing parameter changes show up at debug
// level without the control surface depending on any particular logger.
func logNotify(ctx any, kind types.NotifyKind, value float64) {
	slog.Debug("notify", "file", ctx, "kind", kind, "value", value)
}
