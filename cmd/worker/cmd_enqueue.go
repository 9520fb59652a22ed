package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/phrazzld/scry-worker/internal/domain"
	"github.com/phrazzld/scry-worker/internal/platform/postgres"
	"github.com/phrazzld/scry-worker/internal/store"
	"github.com/spf13/cobra"
)

type enqueueOptions struct {
	target     string
	title      string
	text       string
	voice      string
	notifyUser string
}

func newEnqueueCommand(root *rootOptions) *cobra.Command {
	opts := &enqueueOptions{}

	cmd := &cobra.Command{
		Use:   "enqueue",
		Short: "Create a pending generateAudio task",
		Long: `Create a pending generateAudio task for a post. The post is created
with the given title if it does not exist yet. A running worker picks the
task up immediately.`,
		Example: `  worker enqueue --target post-42 --text "Hello"
  worker enqueue --target post-42 --text "Hello" --voice Puck --notify-user user-7`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := opts.task()
			if err != nil {
				return err
			}

			cfg, log, err := root.loadConfig("database")
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			db, err := postgres.Open(ctx, cfg.Database, log)
			if err != nil {
				return err
			}
			defer db.Close() //nolint:errcheck

			posts := postgres.NewPostgresPostStore(db)
			tasks := postgres.NewPostgresTaskStore(db)
			if err := enqueue(ctx, db, posts, tasks, opts.target, opts.postTitle(), t); err != nil {
				return err
			}

			log.Info("task enqueued", "task_id", t.ID, "target_id", opts.target)
			fmt.Fprintln(cmd.OutOrStdout(), t.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.target, "target", "", "Post that receives the audio URL (required)")
	cmd.Flags().StringVar(&opts.text, "text", "", "Text to speak (required)")
	cmd.Flags().StringVar(&opts.title, "title", "", "Title for a newly created post (defaults to the target)")
	cmd.Flags().StringVar(&opts.voice, "voice", "", "Voice override")
	cmd.Flags().StringVar(&opts.notifyUser, "notify-user", "",
		"Send the completion notice to this user instead of the admin pool")
	_ = cmd.MarkFlagRequired("target")
	_ = cmd.MarkFlagRequired("text")

	return cmd
}

func (o *enqueueOptions) task() (*domain.Task, error) {
	payload := domain.AudioPayload{
		TargetID:     o.target,
		Text:         o.text,
		Voice:        o.voice,
		NotifyUserID: o.notifyUser,
	}
	if err := payload.Validate(); err != nil {
		return nil, err
	}
	return domain.NewTask(domain.TaskTypeGenerateAudio, payload)
}

func (o *enqueueOptions) postTitle() string {
	if o.title != "" {
		return o.title
	}
	return o.target
}

// enqueue creates the target post if needed and the task in one transaction.
func enqueue(
	ctx context.Context,
	db *sql.DB,
	posts store.PostStore,
	tasks store.TaskStore,
	postID, title string,
	t *domain.Task,
) error {
	return store.RunInTransaction(ctx, db, func(ctx context.Context, tx *sql.Tx) error {
		if err := posts.WithTx(tx).EnsureExists(ctx, postID, title); err != nil {
			return fmt.Errorf("failed to ensure post %s: %w", postID, err)
		}
		if err := tasks.WithTx(tx).Create(ctx, t); err != nil {
			return fmt.Errorf("failed to create task: %w", err)
		}
		return nil
	})
}
