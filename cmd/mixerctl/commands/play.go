package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/loamforge/mixer/pkg/mixer"
	"github.com/loamforge/mixer/pkg/soundprovider"
)

var (
	flagPlayOut    string
	flagPlayVolume float32
	flagPlayPan    float32
)

var playCmd = &cobra.Command{
	Use:   "play <sound-file> [flags]",
	Short: "Render one sound through an offline mixdown and write the result",
	Long: `play loads a sound through the soundprovider package, plays it on a
single channel of a fresh System using the non-drifting record Mixdown, and
writes the rendered stereo output back out in this tool's own PCM container
— exercising the control layer, commit boundary, and rendering pipeline
without requiring an audio device.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPlay(cmd, args[0])
	},
}

func init() {
	playCmd.Flags().StringVar(&flagPlayOut, "out", "", "output file (default: <input>.out.pcm)")
	playCmd.Flags().Float32Var(&flagPlayVolume, "vol", 0, "volume in dB, [-80, 0]")
	playCmd.Flags().Float32Var(&flagPlayPan, "pan", 0, "pan, [-1, 1]")
	rootCmd.AddCommand(playCmd)
}

func runPlay(cmd *cobra.Command, path string) error {
	cfg, err := GetConfig()
	if err != nil {
		return err
	}
	log := logger()

	dir, base := filepath.Split(path)
	store, err := soundprovider.NewLocal(dir)
	if err != nil {
		return fmt.Errorf("open sound directory %s: %w", dir, err)
	}
	provider := soundprovider.NewProvider(store, nil)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	snd, err := provider.Load(ctx, base)
	if err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}

	sys := mixer.NewSystem(log)
	md, err := mixer.NewRecordMixdown(sys, cfg.Audio.SampleRate, cfg.Audio.BufferSize, 0, log)
	if err != nil {
		return fmt.Errorf("create record mixdown: %w", err)
	}
	defer md.Destroy()

	h, err := sys.ChannelPlay(snd, 0)
	if err != nil {
		return fmt.Errorf("play: %w", err)
	}
	if err := sys.ChannelSetParam(h, mixer.ParamVolume, flagPlayVolume); err != nil {
		return err
	}
	if err := sys.ChannelSetParam(h, mixer.ParamPan, flagPlayPan); err != nil {
		return err
	}
	sys.Commit()

	msPerBuffer := uint32(1000 * cfg.Audio.BufferSize / cfg.Audio.SampleRate)
	var t uint32
	var rendered []int16
	for i := 0; i < 100_000 && !sys.ChannelIsDone(h); i++ {
		t += msPerBuffer
		md.Process(t)
		buf := make([]float32, 2*md.BufferSize())
		md.Output(buf)
		for _, s := range buf {
			rendered = append(rendered, floatToInt16(s))
		}
	}

	out := flagPlayOut
	if out == "" {
		out = path + ".out.pcm"
	}
	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("create %s: %w", out, err)
	}
	defer f.Close()
	if err := soundprovider.Encode(f, true, uint32(cfg.Audio.SampleRate), rendered); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "rendered %d frames (%.2fs) to %s\n",
		len(rendered)/2, float64(len(rendered)/2)/float64(cfg.Audio.SampleRate), out)
	return nil
}

func floatToInt16(s float32) int16 {
	v := s * 32768
	switch {
	case v > 32767:
		return 32767
	case v < -32768:
		return -32768
	default:
		return int16(v)
	}
}
