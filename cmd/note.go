package cmd

import (
	"context"
	"fmt"

	"erpsheets/pkg/services"
	"github.com/spf13/cobra"
)

var noteCmd = &cobra.Command{
	Use:   "note",
	Short: "Add a note to an invoice, client or vendor",
	Example: `  erpsheets note --kind client --id 0012 --title "Sollecito" --content "Chiamato il 12/03"
  erpsheets note --kind invoice --id FT123 --client 0012 --title "Contestazione" --content "..."`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		var in services.NoteInput
		in.Kind, _ = cmd.Flags().GetString("kind")
		in.EntityID, _ = cmd.Flags().GetString("id")
		in.ClientID, _ = cmd.Flags().GetString("client")
		in.Title, _ = cmd.Flags().GetString("title")
		in.Content, _ = cmd.Flags().GetString("content")
		in.Author, _ = cmd.Flags().GetString("author")

		b, err := openBackend(ctx)
		if err != nil {
			return err
		}
		defer b.close()

		note, err := b.pipeline.AddNote(ctx, in)
		if err != nil {
			return err
		}
		fmt.Printf("Nota registrata: %s\n", note.ID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(noteCmd)

	noteCmd.Flags().String("kind", "client", "Owner kind: invoice, client or vendor")
	noteCmd.Flags().String("id", "", "Owner identifier")
	noteCmd.Flags().String("client", "", "Owning client of an invoice note")
	noteCmd.Flags().String("title", "", "Note title")
	noteCmd.Flags().String("content", "", "Note content")
	noteCmd.Flags().String("author", "", "Note author")
	_ = noteCmd.MarkFlagRequired("id")
	_ = noteCmd.MarkFlagRequired("title")
	_ = noteCmd.MarkFlagRequired("content")
}
