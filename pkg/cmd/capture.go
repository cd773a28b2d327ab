package cmd

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/yeisme/creativevault/pkg/configs"
	"github.com/yeisme/creativevault/pkg/internal/capture/queue"
	"github.com/yeisme/creativevault/pkg/internal/capture/uploader"
	s3c "github.com/yeisme/creativevault/pkg/internal/storage/s3"
)

var (
	captureCmd = &cobra.Command{
		Use:   "capture",
		Short: "local capture queue and upload commands",
	}

	captureArtifact queue.Artifact
	captureAt       string

	captureAddCmd = &cobra.Command{
		Use:   "add",
		Short: "add a captured artifact to the local queue",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)

			q, err := openQueue(cmd)
			if err != nil {
				return err
			}
			defer q.Close()

			a := captureArtifact
			if captureAt != "" {
				at, err := time.Parse(time.RFC3339, captureAt)
				if err != nil {
					return fmt.Errorf("invalid --captured-at: %w", err)
				}

				a.CapturedAt = at
			}

			if a.ArchivePath != "" {
				if st, err := os.Stat(a.ArchivePath); err == nil {
					size := st.Size()
					a.ArchiveSize = &size
				}
			}

			id, err := q.Enqueue(ctx, &a)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), id)

			return nil
		},
	}

	captureListCmd = &cobra.Command{
		Use:     "ls",
		Short:   "list queued artifacts, newest first",
		Aliases: []string{"list"},
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := openQueue(cmd)
			if err != nil {
				return err
			}
			defer q.Close()

			items, err := q.ListAll(commandContext(cmd))
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tCAPTURED\tUPLOADED\tUPLOADED AT\tTITLE")

			for _, a := range items {
				uploadedAt := "-"
				if a.UploadedAt != nil {
					uploadedAt = a.UploadedAt.Format(time.RFC3339)
				}

				fmt.Fprintf(w, "%d\t%s\t%t\t%s\t%s\n", a.ID, a.CapturedAt.Format(time.RFC3339), a.Uploaded, uploadedAt, a.Title)
			}

			return w.Flush()
		},
	}

	capturePendingCmd = &cobra.Command{
		Use:   "pending",
		Short: "print the number of artifacts waiting for upload",
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := openQueue(cmd)
			if err != nil {
				return err
			}
			defer q.Close()

			n, err := q.CountPending(commandContext(cmd))
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), n)

			return nil
		},
	}

	captureRemoveCmd = &cobra.Command{
		Use:   "rm id [id...]",
		Short: "delete artifacts from the local queue",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}

			q, err := openQueue(cmd)
			if err != nil {
				return err
			}
			defer q.Close()

			for _, id := range ids {
				if err := q.Delete(commandContext(cmd), id); err != nil {
					return err
				}
			}

			return nil
		},
	}

	captureUploadCmd = &cobra.Command{
		Use:   "upload [id...]",
		Short: "upload artifacts; without ids every pending artifact is uploaded",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)

			ids, err := parseIDs(args)
			if err != nil {
				return err
			}

			cfg := configs.GetConfig()

			q, err := openQueue(cmd)
			if err != nil {
				return err
			}
			defer q.Close()

			archives, err := s3c.New(ctx, cfg.S3)
			if err != nil {
				return err
			}

			var opts []uploader.IngestorOption
			if cfg.Client.CircuitBreaker {
				opts = append(opts, uploader.WithCircuitBreaker(cfg.CircuitBreaker.Settings("ingest")))
			}

			orch := uploader.New(q, archives, uploader.NewHTTPIngestor(cfg.Client.IngestURL, opts...),
				uploader.OptionsFromConfig(cfg.Client))

			results, err := orch.UploadAll(ctx, ids)
			if err != nil {
				return err
			}

			var failed int

			out := cmd.OutOrStdout()
			for _, r := range results {
				if r.Err != nil {
					failed++

					fmt.Fprintf(out, "%d\tfailed\t%v\n", r.ArtifactID, r.Err)

					continue
				}

				fmt.Fprintf(out, "%d\tuploaded\tcreative=%d\t%s\n", r.ArtifactID, r.CreativeID, r.ArchiveURL)
			}

			if failed > 0 {
				return fmt.Errorf("%d of %d uploads failed", failed, len(results))
			}

			return nil
		},
	}
)

func openQueue(cmd *cobra.Command) (*queue.Queue, error) {
	return queue.Open(commandContext(cmd), configs.GetConfig().Client.QueuePath)
}

func parseIDs(args []string) ([]uint, error) {
	ids := make([]uint, 0, len(args))

	for _, arg := range args {
		id, err := strconv.ParseUint(arg, 10, 64)
		if err != nil || id == 0 {
			return nil, errors.New("invalid artifact id: " + arg)
		}

		ids = append(ids, uint(id))
	}

	return ids, nil
}

// registerCaptureCommands 注册采集端命令.
func registerCaptureCommands() {
	f := captureAddCmd.Flags()
	f.StringVar(&captureArtifact.LandingURL, "landing-url", "", "landing page url (required)")
	f.StringVar(&captureArtifact.Title, "title", "", "title")
	f.StringVar(&captureArtifact.Description, "description", "", "description")
	f.StringVar(&captureArtifact.SourceLink, "source-link", "", "where the creative was seen")
	f.StringVar(&captureArtifact.PreviewPath, "preview", "", "preview image path")
	f.StringVar(&captureArtifact.FullPagePath, "full-page", "", "full-page image path")
	f.StringVar(&captureArtifact.ThumbnailPath, "thumbnail", "", "thumbnail image path")
	f.StringVar(&captureArtifact.ArchivePath, "archive", "", "page archive path (zip/mhtml)")
	f.StringVar(&captureArtifact.Format, "format", "", "format code")
	f.StringVar(&captureArtifact.Type, "type", "", "type code")
	f.StringVar(&captureArtifact.Placement, "placement", "", "placement code")
	f.StringVar(&captureArtifact.Platform, "platform", "", "platform code")
	f.StringVar(&captureArtifact.Country, "country", "", "country code")
	f.BoolVar(&captureArtifact.Cloaking, "cloaking", false, "landing page cloaking detected")
	f.StringVar(&captureAt, "captured-at", "", "capture time, RFC3339 (default now)")
	_ = captureAddCmd.MarkFlagRequired("landing-url")

	captureCmd.AddCommand(captureAddCmd)
	captureCmd.AddCommand(captureListCmd)
	captureCmd.AddCommand(capturePendingCmd)
	captureCmd.AddCommand(captureRemoveCmd)
	captureCmd.AddCommand(captureUploadCmd)

	rootCmd.AddCommand(captureCmd)
}
