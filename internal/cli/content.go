package cli

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/vrsandeep/contentsync-go/internal/api"
	"github.com/vrsandeep/contentsync-go/internal/models"
)

func newCreateCommand() *cobra.Command {
	var contentType string
	var wait bool

	cmd := &cobra.Command{
		Use:   "create <topic>",
		Short: "Create a record and start its generation job",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ct := models.ContentType(contentType)
			if !ct.Valid() {
				return fmt.Errorf("unknown content type %q", contentType)
			}
			app, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			c, err := app.Client().Create(ctx, strings.Join(args, " "), ct)
			if err != nil {
				return err
			}
			app.Store().Created(c)
			if !wait {
				renderContent(cmd.OutOrStdout(), c)
				return nil
			}
			return follow(ctx, app, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&contentType, "type", "t", string(models.ContentTypeArticle), "content type")
	cmd.Flags().BoolVarP(&wait, "wait", "w", false, "follow the job until it finishes")
	return cmd
}

func newEditCommand() *cobra.Command {
	var topic, content string

	cmd := &cobra.Command{
		Use:   "edit <content-id>",
		Short: "Change a record's topic or content",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var in api.UpdateInput
			if cmd.Flags().Changed("topic") {
				in.Topic = &topic
			}
			if cmd.Flags().Changed("content") {
				in.Content = &content
			}
			if in.Topic == nil && in.Content == nil {
				return fmt.Errorf("nothing to change: pass --topic and/or --content")
			}
			app, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			c, err := app.Client().Update(cmd.Context(), args[0], in)
			if err != nil {
				return err
			}
			app.Store().Fetched(c)
			renderContent(cmd.OutOrStdout(), c)
			return nil
		},
	}
	cmd.Flags().StringVar(&topic, "topic", "", "new topic")
	cmd.Flags().StringVar(&content, "content", "", "new content")
	return cmd
}

func newRollbackCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rollback <content-id>",
		Short: "Reset a record's content to the generated text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			c, err := app.Client().Rollback(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			app.Store().Fetched(c)
			renderContent(cmd.OutOrStdout(), c)
			return nil
		},
	}
}

func newDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <content-id>",
		Short: "Delete a record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			if err := app.Client().Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			app.Store().Deleted(args[0])
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
			return nil
		},
	}
}

func newStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status <job-id>",
		Short: "Fetch a job's status over REST",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			c, err := app.Client().GetJobStatus(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			renderContent(cmd.OutOrStdout(), c)
			return nil
		},
	}
}
