package main

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fiapx/fiapx-dataset-prep/internal/domain/entity"
	"github.com/fiapx/fiapx-dataset-prep/internal/infra/rabbitmq"
)

type submitOptions struct {
	userID    string
	userEmail string
	targetDir string
	p         entity.Proportions
	seed      int64
	interval  int
}

// buildJobMessage turns "submit <kind> <source> [clips...]" into a job message.
func buildJobMessage(kind entity.JobKind, args []string, o submitOptions) (entity.DatasetJobMessage, error) {
	msg := entity.DatasetJobMessage{
		JobID:     uuid.New(),
		Kind:      kind,
		UserID:    o.userID,
		UserEmail: o.userEmail,
	}
	switch kind {
	case entity.JobKindSplit:
		msg.SourceDir = args[0]
		msg.TargetDir = o.targetDir
		msg.TrainSplit, msg.ValidSplit, msg.TestSplit = &o.p.Train, &o.p.Valid, &o.p.Test
		msg.Seed = &o.seed
	case entity.JobKindExtractFrames:
		msg.VideoKey = args[0]
		msg.Interval = o.interval
	case entity.JobKindExtractClips:
		if len(args) < 2 {
			return msg, errors.New("extract_clips needs at least one HH:MM:SS,SECS clip")
		}
		if _, err := entity.ParseClipSpecs(args[1:]); err != nil {
			return msg, err
		}
		msg.VideoKey = args[0]
		msg.Clips = args[1:]
	default:
		return msg, errors.Errorf("unknown job kind %q", kind)
	}
	return msg, nil
}

func newSubmitCmd(a *app) *cobra.Command {
	var o submitOptions
	cmd := &cobra.Command{
		Use:   "submit <split|extract_frames|extract_clips> <source> [HH:MM:SS,SECS...]",
		Short: "Queue a dataset job for the worker",
		Long: `Publish a job to the dataset exchange. For split the source is a directory
visible to the worker; for extract_frames and extract_clips it is the object
key of a video in the uploads bucket.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			msg, err := buildJobMessage(entity.JobKind(args[0]), args[1:], o)
			if err != nil {
				return err
			}
			body, err := json.Marshal(msg)
			if err != nil {
				return errors.Wrap(err, "marshal job")
			}

			conn, err := amqp.Dial(a.cfg.RabbitMQURL)
			if err != nil {
				return errors.Wrap(err, "connect to rabbitmq")
			}
			defer conn.Close()

			pub, err := rabbitmq.NewPublisher(conn, a.cfg.RabbitMQExchange)
			if err != nil {
				return errors.Wrap(err, "create rabbitmq publisher")
			}
			defer pub.Close()

			if err := rabbitmq.NewJobPublisher(pub).PublishJob(cmd.Context(), body); err != nil {
				return errors.Wrap(err, "publish job")
			}
			a.log.Info("job submitted", zap.String("job_id", msg.JobID.String()), zap.String("kind", string(msg.Kind)))
			fmt.Fprintln(cmd.OutOrStdout(), msg.JobID)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&o.userID, "user", "cli", "user id recorded on the job")
	f.StringVar(&o.userEmail, "email", "", "address notified if the job fails")
	f.StringVar(&o.targetDir, "target_dir", "", "split output directory on the worker (default: worker temp dir)")
	def := entity.DefaultProportions
	f.Float64Var(&o.p.Train, "train_split", def.Train, "proportion of video groups used for training")
	f.Float64Var(&o.p.Valid, "valid_split", def.Valid, "proportion of video groups used for validation")
	f.Float64Var(&o.p.Test, "test_split", def.Test, "proportion of video groups used for testing")
	f.Int64Var(&o.seed, "seed", entity.DefaultSeed, "random seed for shuffling the video groups")
	f.IntVar(&o.interval, "interval", 0, "frame interval for extract_frames (default: worker FRAME_INTERVAL)")
	return cmd
}
