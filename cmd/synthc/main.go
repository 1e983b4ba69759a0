// Command synthc is the offline MML compiler: it turns a score file
// into the binary frame-stream format internal/sequencer's Player
// consumes at runtime (§6.1), the same split the original firmware's
// PC port kept between score authoring and the on-device player.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"tinysynth/internal/debug"
	"tinysynth/internal/mml"
	"tinysynth/internal/sequencer"
)

func main() {
	sampleRate := pflag.Uint16P("sample-rate", "r", 32000, "Sample rate the compiled stream targets, in Hz.")
	out := pflag.StringP("out", "o", "", "Output path for the compiled frame stream (default: <input>.bin).")
	verbose := pflag.BoolP("verbose", "v", false, "Log MML compiler diagnostics as they occur.")
	pflag.Parse()

	if pflag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: synthc [flags] <score.mml>")
		pflag.PrintDefaults()
		os.Exit(2)
	}
	inPath := pflag.Arg(0)

	var logger *debug.Logger
	if *verbose {
		logger = debug.NewLogger(1024)
		logger.SetComponentEnabled(debug.ComponentMML, true)
		logger.SetMinLevel(debug.LogLevelDebug)
		defer logger.Shutdown()
	}

	src, err := os.ReadFile(inPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "synthc: %v\n", err)
		os.Exit(1)
	}

	compiler := mml.New(*sampleRate, logger)
	compiler.OnError = func(message string, line, column int) {
		fmt.Fprintf(os.Stderr, "synthc: %d:%d: %s\n", line, column, message)
	}

	frameMap, err := compiler.Compile(string(src))
	if err != nil {
		fmt.Fprintf(os.Stderr, "synthc: compile failed: %v\n", err)
		os.Exit(1)
	}

	stream, err := sequencer.Compile(frameMap, *sampleRate, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "synthc: %v\n", err)
		os.Exit(1)
	}

	outPath := *out
	if outPath == "" {
		outPath = inPath + ".bin"
	}

	f, err := os.Create(outPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "synthc: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	if err := stream.Encode(f); err != nil {
		fmt.Fprintf(os.Stderr, "synthc: writing %s: %v\n", outPath, err)
		os.Exit(1)
	}

	fmt.Fprintf(os.Stderr, "synthc: wrote %d frames across %d voices to %s\n",
		stream.Header.FrameCount, stream.Header.Voices, outPath)
}
