package cli

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/gruntek/audit-intake/internal/client"
	"github.com/gruntek/audit-intake/internal/intake"
	"github.com/gruntek/audit-intake/internal/services"
	"github.com/spf13/cobra"
)

var (
	runFile     string
	attachments []string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Upload attachments and run the analysis",
	Long: `Run validates the intake file, uploads any listed attachments to
object storage under a fresh session, submits the aggregate payload to the
analysis engine, and prints the returned report.`,
	RunE: runAnalysis,
}

func init() {
	runCmd.Flags().StringVarP(&runFile, "file", "f", "intake.yaml", "Intake file (YAML or JSON)")
	runCmd.Flags().StringArrayVar(&attachments, "attach", nil, "Local file to upload as a supporting document (repeatable)")
	runCmd.MarkFlagRequired("file")
}

func runAnalysis(cmd *cobra.Command, args []string) error {
	doc, err := loadDocument(runFile)
	if err != nil {
		return err
	}

	controller := intake.NewController(services.NewDefaultSessionIDGenerator())
	controller.SetForm(doc.Form)
	controller.SetFileList(strings.Join(doc.Files, "\n"))

	if err := controller.CanRun(); err != nil {
		return fmt.Errorf("intake file is not ready to run: %w", err)
	}

	ctx := cmd.Context()

	if len(attachments) > 0 {
		files, err := readAttachments(attachments)
		if err != nil {
			return err
		}

		uploader := client.NewUploader(serverURL)
		keys, uploadErr := uploader.UploadBatch(ctx, controller.SessionID(), files)
		// Keys uploaded before a failure stay in the submission; there is
		// no rollback on a partial batch.
		controller.MergeUploadKeys(keys)
		if uploadErr != nil {
			return fmt.Errorf("upload aborted after %d file(s): %w", len(keys), uploadErr)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Uploaded %d file(s).\n", len(keys))
	}

	result := client.NewAnalysisClient(serverURL).RunAnalysis(ctx, controller.Payload())
	if !result.OK {
		status := "unknown"
		if result.Status != 0 {
			status = fmt.Sprintf("%d", result.Status)
		}
		if result.Error != "" {
			return fmt.Errorf("analysis failed: %s (status %s)", result.Error, status)
		}
		return fmt.Errorf("analysis failed (status %s)", status)
	}

	analysis := strings.TrimSpace(result.Analysis)
	if analysis == "" {
		analysis = "Analysis text not returned."
	}
	fmt.Fprintln(cmd.OutOrStdout(), analysis)

	if len(result.Metrics) > 0 {
		fmt.Fprintln(cmd.OutOrStdout())
		fmt.Fprintln(cmd.OutOrStdout(), "Metrics:")
		for key, value := range result.Metrics {
			fmt.Fprintf(cmd.OutOrStdout(), "  %s: %v\n", key, value)
		}
	}
	return nil
}

func readAttachments(paths []string) ([]client.UploadFile, error) {
	var files []client.UploadFile
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read attachment: %w", err)
		}

		contentType := mime.TypeByExtension(filepath.Ext(path))
		if contentType == "" {
			contentType = "application/octet-stream"
		}

		files = append(files, client.UploadFile{
			Name:        filepath.Base(path),
			ContentType: contentType,
			Data:        data,
		})
	}
	return files, nil
}
