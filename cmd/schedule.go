package main

import (
	"context"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/workflow-cli/internal/config"
	"github.com/sells-group/workflow-cli/internal/model"
	"github.com/sells-group/workflow-cli/internal/pipeline"
	"github.com/sells-group/workflow-cli/internal/store"
)

// cronParser accepts standard 5-field expressions plus descriptors such as
// "@hourly" and "@every 5m".
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Poll for the newest lead and open case on a cron schedule",
	Long:  "Runs the lead workflow on schedule.lead_cron and the ticket workflow on schedule.ticket_cron, each against the newest unprocessed record. An empty expression disables that workflow.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		jobs, err := parseJobs(cfg.Schedule)
		if err != nil {
			return err
		}
		if len(jobs) == 0 {
			return eris.New("schedule: no workflow scheduled (set schedule.lead_cron or schedule.ticket_cron)")
		}

		env, err := initWorkflow(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		g, gctx := errgroup.WithContext(ctx)
		for _, job := range jobs {
			g.Go(func() error {
				runSchedule(gctx, job, env.Engine, env.Store, time.Now)
				return nil
			})
		}
		return g.Wait()
	},
}

func init() {
	rootCmd.AddCommand(scheduleCmd)
}

// scheduledJob polls one workflow kind.
type scheduledJob struct {
	Kind     model.WorkflowKind
	Spec     string
	Schedule cron.Schedule
	UseLLM   bool
}

// parseJobs builds the enabled jobs from sc.
func parseJobs(sc config.ScheduleConfig) ([]scheduledJob, error) {
	var jobs []scheduledJob
	for _, item := range []struct {
		kind model.WorkflowKind
		spec string
	}{
		{model.KindLead, sc.LeadCron},
		{model.KindTicket, sc.TicketCron},
	} {
		spec := strings.TrimSpace(item.spec)
		if spec == "" {
			zap.L().Info("schedule: workflow disabled", zap.String("workflow", string(item.kind)))
			continue
		}
		sched, err := cronParser.Parse(spec)
		if err != nil {
			return nil, eris.Wrapf(err, "schedule: invalid cron %q for %s", spec, item.kind.Short())
		}
		jobs = append(jobs, scheduledJob{Kind: item.kind, Spec: spec, Schedule: sched, UseLLM: sc.UseLLM})
	}
	return jobs, nil
}

// runSchedule waits for each activation of job and polls once, until ctx
// is cancelled. Polls of one job never overlap.
func runSchedule(ctx context.Context, job scheduledJob, runner workflowRunner, st store.Store, now func() time.Time) {
	log := zap.L().With(zap.String("workflow", string(job.Kind)), zap.String("cron", job.Spec))
	for {
		t := now()
		next := job.Schedule.Next(t)
		if next.IsZero() {
			log.Warn("schedule: no future activation, stopping")
			return
		}
		log.Debug("schedule: next poll", zap.Time("at", next))

		timer := time.NewTimer(next.Sub(t))
		select {
		case <-ctx.Done():
			timer.Stop()
			log.Info("schedule: stopped")
			return
		case <-timer.C:
		}

		pollOnce(ctx, job, runner, st)
	}
}

// pollOnce runs the workflow against the newest record. An empty queue is
// not recorded in the run history.
func pollOnce(ctx context.Context, job scheduledJob, runner workflowRunner, st store.Store) *model.Report {
	rep := runner.Run(ctx, pipeline.Request{Kind: job.Kind, UseLLM: job.UseLLM})

	log := zap.L().With(
		zap.String("run_id", rep.RunID),
		zap.String("workflow", string(job.Kind)),
	)
	if rep.Status == model.StatusFailed && rep.ErrorKind == model.ErrFetchFailure && rep.RecordID == "" {
		log.Info("schedule: no pending record", zap.String("reason", rep.FailureReason))
		return rep
	}

	saveReport(ctx, st, rep)
	log.Info("schedule: run finished",
		zap.String("record_id", rep.RecordID),
		zap.String("status", string(rep.Status)),
		zap.Int("failed_actions", rep.FailedActions()),
	)
	return rep
}
