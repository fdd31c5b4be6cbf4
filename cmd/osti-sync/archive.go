package main

import (
	"bytes"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/osti-sync/internal/archive"
	"github.com/pdiddy/osti-sync/internal/jsonfile"
	"github.com/pdiddy/osti-sync/pkg/types"
)

var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Bundle the run artifacts and upload them to object storage",
	Long: `Archive packs the snapshots, redirect cache, forms, payload, ledger, and
saved responses into a tar.gz and uploads it to an S3-compatible bucket,
then deletes all but the newest OSTI_SYNC_ARCHIVE_KEEP archives.

Settings come from the environment:
  OSTI_SYNC_ARCHIVE_BUCKET      bucket name (required)
  OSTI_SYNC_ARCHIVE_ENDPOINT    custom endpoint for S3-compatible storage
  OSTI_SYNC_ARCHIVE_REGION      region (default us-east-1)
  OSTI_SYNC_ARCHIVE_ACCESS_KEY  access key
  OSTI_SYNC_ARCHIVE_SECRET_KEY  secret key
  OSTI_SYNC_ARCHIVE_PREFIX      key prefix (default osti-sync/)
  OSTI_SYNC_ARCHIVE_KEEP        archives to keep (default 10)

With --local the archive is written to a file and nothing is uploaded.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		local, _ := cmd.Flags().GetString("local")
		log := logger(cmd.Context())

		files, err := artifactPaths(cfg)
		if err != nil {
			return err
		}
		var buf bytes.Buffer
		added, err := archive.Create(&buf, files)
		if err != nil {
			return err
		}
		if len(added) == 0 {
			return fmt.Errorf("no artifacts found in %s", cfg.Paths.DataDir)
		}
		fmt.Printf("Archived %d file(s) (%d bytes)\n", len(added), buf.Len())

		if local != "" {
			if err := jsonfile.WriteBytes(local, buf.Bytes()); err != nil {
				return err
			}
			fmt.Printf("Archive written to %s\n", local)
			return nil
		}

		acfg, err := archive.LoadConfig()
		if err != nil {
			return err
		}
		client, err := archive.NewS3Client(cmd.Context(), acfg)
		if err != nil {
			return err
		}
		up := &archive.Uploader{Store: client, Bucket: acfg.Bucket, Prefix: acfg.Prefix, Log: log}
		key, err := up.Upload(cmd.Context(), buf.Bytes(), time.Now())
		if err != nil {
			return err
		}
		fmt.Printf("Uploaded s3://%s/%s\n", acfg.Bucket, key)

		deleted, err := up.Rotate(cmd.Context(), acfg.Keep)
		if err != nil {
			return err
		}
		if len(deleted) > 0 {
			fmt.Printf("Removed %d old archive(s)\n", len(deleted))
		}
		return nil
	},
}

func init() {
	archiveCmd.Flags().String("local", "", "write the archive to this path instead of uploading")

	rootCmd.AddCommand(archiveCmd)
}

// artifactPaths lists every file a run produces, including saved responses.
func artifactPaths(cfg types.Config) ([]string, error) {
	p := cfg.Paths
	files := []string{
		p.InData(p.OSTIScrape),
		p.InData(p.DSpaceScrape),
		p.InData(p.ToUpload),
		p.InData(p.Redirects),
		p.InData(p.Payload),
		p.InData(p.Ledger),
		p.EntryForm,
		p.FormInput,
	}
	responses, err := filepath.Glob(filepath.Join(p.ResponseDir, "*_osti_response_*.json"))
	if err != nil {
		return nil, err
	}
	files = append(files, responses...)

	out := files[:0]
	for _, f := range files {
		if f != "" {
			out = append(out, f)
		}
	}
	return out, nil
}
