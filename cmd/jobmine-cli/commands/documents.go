package commands

import (
	"fmt"
	"os"
	"strconv"

	"github.com/hkpeprah/jerbminer/lib/osutil"
	"github.com/hkpeprah/jerbminer/lib/scrapers/jobmine/docs"

	"github.com/spf13/cobra"
)

var (
	documentsType     *string
	documentsOut      *string
	documentsName     *string
	documentsExisting *int
)

func init() {
	documentsType = documentsCmd.PersistentFlags().String("type", string(docs.TypeResume), "Document rendering: resume-document or package.")
	documentsOut = downloadCmd.Flags().String("out", "", "Path to write the document to, defaults to stdout.")
	documentsName = uploadCmd.Flags().String("name", "", "Display name to save against the document.")
	documentsExisting = uploadCmd.Flags().Int("existing", 0, "Re-upload into this existing document number instead of creating a new one.")

	documentsCmd.AddCommand(downloadCmd)
	documentsCmd.AddCommand(uploadCmd)
	documentsCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(documentsCmd)
}

func documentNumber(arg string) int {
	n, err := strconv.Atoi(arg)
	if err != nil {
		osutil.Fatal("document number must be an integer", err)
	}
	return n
}

var documentsCmd = &cobra.Command{
	Use:   "documents",
	Short: "Lists uploaded documents, see subcommands for transfers.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := readConfig()
		client := createClient(cmd.Context(), cfg)

		records, err := client.ListDocuments(cmd.Context())
		if err != nil {
			osutil.Fatal("failed to list documents", err)
		}
		renderRecords(records)
	},
}

var downloadCmd = &cobra.Command{
	Use:   "download <number> [--type <type>] [--out <path>]",
	Short: "Downloads a document by its number.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := readConfig()
		client := docs.NewClient(createClient(cmd.Context(), cfg).Core)

		content, err := client.Download(cmd.Context(), documentNumber(args[0]), docs.Type(*documentsType))
		if err != nil {
			osutil.Fatal("failed to download document", err)
		}

		if *documentsOut == "" {
			os.Stdout.Write(content)
			return
		}
		err = os.WriteFile(*documentsOut, content, 0644)
		if err != nil {
			osutil.Fatal("failed to write document", err)
		}
		fmt.Println(*documentsOut)
	},
}

var uploadCmd = &cobra.Command{
	Use:   "upload <path> [--name <name>] [--existing <number>]",
	Short: "Uploads a file as a new or existing document.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := readConfig()
		client := docs.NewClient(createClient(cmd.Context(), cfg).Core)

		err := client.Upload(cmd.Context(), args[0], docs.UploadOptions{
			Name:     *documentsName,
			Existing: *documentsExisting,
		})
		if err != nil {
			osutil.Fatal("failed to upload document", err)
		}
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <number>",
	Short: "Deletes a document by its number.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := readConfig()
		client := docs.NewClient(createClient(cmd.Context(), cfg).Core)

		err := client.Delete(cmd.Context(), documentNumber(args[0]))
		if err != nil {
			osutil.Fatal("failed to delete document", err)
		}
	},
}
