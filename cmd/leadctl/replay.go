package main

import (
	"fmt"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/xavierca1/ligue-callbridge/internal/app"
	"github.com/xavierca1/ligue-callbridge/internal/entity"
	"github.com/xavierca1/ligue-callbridge/internal/usecase"
)

var replayFlags struct {
	file           string
	transcript     string
	duration       int
	conversationID string
	force          bool
	withFanOut     bool
}

// replay re-runs a call through the pipeline synchronously. The input is
// either a saved conversation-end payload (--file) or the raw_transcript
// array from a "lead persistence failed" log line (--transcript).
var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Process a saved webhook payload or a logged transcript",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate(); err != nil {
			return err
		}

		event, err := replayEvent()
		if err != nil {
			return err
		}

		policy := app.IntakePolicy(cfg)
		if !replayFlags.force && !policy.ShouldProcess(event.DurationSeconds, event.Transcript) {
			fmt.Fprintln(cmd.OutOrStdout(), "discarded by intake filter (use --force to store anyway)")
			return nil
		}

		store, release, err := app.OpenStore(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer release()

		extractor, _ := app.NewExtractor(cfg, nil)

		var publisher usecase.LeadPublisher
		if replayFlags.withFanOut {
			publisher = &usecase.DirectPublisher{FanOut: app.NewFanOut(cfg)}
		}

		pipeline := usecase.NewProcessCallUseCase(
			extractor,
			store,
			publisher,
			nil,
			usecase.InlineRunner{},
			policy,
			app.RetryConfig(cfg),
			nil,
		)

		if err := pipeline.Process(cmd.Context(), event); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "stored conversation %q\n", event.ConversationID)
		return nil
	},
}

func init() {
	f := replayCmd.Flags()
	f.StringVarP(&replayFlags.file, "file", "f", "", "path to a conversation-end payload (- for stdin)")
	f.StringVarP(&replayFlags.transcript, "transcript", "t", "", "path to a logged raw_transcript array (- for stdin)")
	f.IntVar(&replayFlags.duration, "duration", 0, "call duration in seconds, with --transcript")
	f.StringVar(&replayFlags.conversationID, "conversation-id", "", "conversation id, with --transcript")
	f.BoolVar(&replayFlags.force, "force", false, "skip the intake filter")
	f.BoolVar(&replayFlags.withFanOut, "fan-out", false, "push the stored lead to the CRM and notifiers")

	replayCmd.MarkFlagsOneRequired("file", "transcript")
	replayCmd.MarkFlagsMutuallyExclusive("file", "transcript")
}

func replayEvent() (entity.CallEvent, error) {
	if replayFlags.transcript != "" {
		body, err := readInput(replayFlags.transcript)
		if err != nil {
			return entity.CallEvent{}, err
		}
		transcript, err := entity.ParseTranscript(body)
		if err != nil {
			return entity.CallEvent{}, eris.Wrapf(err, "parse %s", replayFlags.transcript)
		}
		if replayFlags.duration < 0 {
			return entity.CallEvent{}, eris.New("--duration must not be negative")
		}
		return entity.CallEvent{
			ConversationID:  replayFlags.conversationID,
			Transcript:      transcript,
			DurationSeconds: replayFlags.duration,
		}, nil
	}
	return loadEvent(replayFlags.file)
}

func loadEvent(path string) (entity.CallEvent, error) {
	body, err := readInput(path)
	if err != nil {
		return entity.CallEvent{}, err
	}

	event, err := entity.ParseCallEvent(body)
	if err != nil {
		return entity.CallEvent{}, eris.Wrapf(err, "parse %s", path)
	}
	return event, nil
}

func readInput(path string) ([]byte, error) {
	var (
		body []byte
		err  error
	)
	if path == "-" {
		body, err = io.ReadAll(os.Stdin)
	} else {
		body, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "read %s", path)
	}
	return body, nil
}
