package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"notedev-server/internal/domain"

	"github.com/spf13/cobra"
)

var (
	transformNote     string
	transformTemplate string
	transformStream   bool
	transformContext  map[string]string
)

var transformCmd = &cobra.Command{
	Use:   "transform",
	Short: "Transform a note with a template and print the document",
	Long: `Runs one transformation against the configured AI provider and stores
the resulting document. With --stream the text is printed as it arrives.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		services, closeStores, err := openServices(ctx, true)
		if err != nil {
			return err
		}
		defer closeStores()

		req := &domain.TransformRequest{
			NoteID:     transformNote,
			TemplateID: transformTemplate,
		}
		if len(transformContext) > 0 {
			req.AdditionalContext = make(map[string]any, len(transformContext))
			for k, v := range transformContext {
				req.AdditionalContext[k] = v
			}
		}

		out := cmd.OutOrStdout()

		if !transformStream {
			doc, err := services.Transforms.Transform(ctx, req)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, doc.Content)
			fmt.Fprintf(cmd.ErrOrStderr(), "\ndocument %s\n", doc.ID)
			return nil
		}

		t, err := services.Transforms.Prepare(ctx, req)
		if err != nil {
			return err
		}

		var documentID string
		_, err = services.Transforms.Stream(ctx, t, func(ev domain.StreamEvent) error {
			switch ev.Type {
			case domain.StreamEventFragment:
				_, err := fmt.Fprint(out, ev.Chunk)
				return err
			case domain.StreamEventDone:
				documentID = ev.DocumentID
			}
			return nil
		})
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.ErrOrStderr(), "\ndocument %s\n", documentID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(transformCmd)
	transformCmd.Flags().StringVar(&transformNote, "note", "", "Note ID")
	transformCmd.Flags().StringVar(&transformTemplate, "template", "", "Template ID")
	transformCmd.Flags().BoolVar(&transformStream, "stream", false, "Print fragments as they arrive")
	transformCmd.Flags().StringToStringVar(&transformContext, "context", nil, "Extra placeholder values (key=value)")
	transformCmd.MarkFlagRequired("note")
	transformCmd.MarkFlagRequired("template")
}
