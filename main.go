package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rm-hull/circle-mockup/cmd"
	"github.com/rm-hull/circle-mockup/internal/mockup"
	"github.com/spf13/cobra"
)

func main() {
	var opts cmd.RenderOptions
	var convertOut, generateOut, reelOut string
	var model string
	var frameDelay float64
	var inbox, outbox string
	var every time.Duration
	var workers int
	var port int
	var debug bool

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := &cobra.Command{
		Use:  "circle-mockup",
		Long: `Circular catalogue mock-ups with an embedded print resolution`,
	}
	rootCmd.PersistentFlags().Float64Var(&opts.DPI, "dpi", mockup.DefaultDPI, "Physical resolution declared in the output PNG")
	rootCmd.PersistentFlags().StringVar(&opts.Stages, "stages", "", "Source pre-processing, e.g. knockout:50,blur:1.0,greyscale,resample")

	convertCmd := &cobra.Command{
		Use:   "convert <image> [--out <file>]",
		Short: "Convert an image file into a mock-up",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return cmd.Convert(args[0], convertOut, opts)
		},
	}
	convertCmd.Flags().StringVar(&convertOut, "out", "", "Output file (default <image>-mockup.png)")

	generateCmd := &cobra.Command{
		Use:   "generate <prompt...> [--model <model>] [--out <file>]",
		Short: "Generate an illustration from a prompt and convert it",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return cmd.Generate(ctx, strings.Join(args, " "), model, generateOut, opts)
		},
	}
	generateCmd.Flags().StringVar(&model, "model", cmd.DefaultModel(), "Image generation model")
	generateCmd.Flags().StringVar(&generateOut, "out", "mockup.png", "Output file")

	reelCmd := &cobra.Command{
		Use:   "reel <image...> [--out <file>] [--delay <seconds>]",
		Short: "Render several images as an animated PNG reel",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return cmd.Reel(args, reelOut, frameDelay, opts)
		},
	}
	reelCmd.Flags().StringVar(&reelOut, "out", "reel.png", "Output file")
	reelCmd.Flags().Float64Var(&frameDelay, "delay", 1.0, "Seconds per frame")

	watchCmd := &cobra.Command{
		Use:   "watch --inbox <dir> --outbox <dir> [--every <duration>]",
		Short: "Periodically convert new images dropped into a folder",
		RunE: func(_ *cobra.Command, _ []string) error {
			return cmd.Watch(ctx, inbox, outbox, every, workers, opts)
		},
	}
	watchCmd.Flags().StringVar(&inbox, "inbox", "./data/inbox", "Folder to pick source images up from")
	watchCmd.Flags().StringVar(&outbox, "outbox", "./data/outbox", "Folder to write mock-ups to")
	watchCmd.Flags().DurationVar(&every, "every", time.Minute, "Interval between scans")
	watchCmd.Flags().IntVar(&workers, "workers", 2, "Number of concurrent conversions")

	apiServerCmd := &cobra.Command{
		Use:   "api-server [--port <port>] [--debug]",
		Short: "Start HTTP API server",
		Run: func(_ *cobra.Command, _ []string) {
			cmd.ApiServer(port, debug, opts)
		},
	}
	apiServerCmd.Flags().IntVar(&port, "port", 8080, "Port to run HTTP server on")
	apiServerCmd.Flags().BoolVar(&debug, "debug", false, "Enable debugging (pprof) - WARNING: do not enable in production")

	rootCmd.AddCommand(convertCmd, generateCmd, reelCmd, watchCmd, apiServerCmd)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.Fatal(err)
	}
}
