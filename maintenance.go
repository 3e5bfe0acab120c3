package main

import (
	"database/sql"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/slack-go/slack"
)

// StartMaintenanceScheduler starts a cron-based scheduler that periodically
// prunes old history and posts an activity summary to the Slack channel.
// The schedule is a standard 5-field cron expression (minute hour day-of-month month day-of-week).
// Examples: "0 4 * * *" (daily 4am), "0 4 * * 1" (Mondays 4am).
func StartMaintenanceScheduler(cfg Config, db *sql.DB, api *slack.Client) {
	schedule := strings.TrimSpace(cfg.MaintenanceSchedule)
	if schedule == "" {
		log.Println("Maintenance disabled (maintenance_schedule not set)")
		return
	}

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	sched, err := parser.Parse(schedule)
	if err != nil {
		log.Printf("Invalid maintenance_schedule '%s': %v — maintenance disabled", schedule, err)
		return
	}

	log.Printf("Maintenance scheduled (cron: %s) retention=%dd", schedule, cfg.RetentionDays)

	go func() {
		for {
			now := time.Now().In(cfg.Location)
			next := sched.Next(now)
			wait := next.Sub(now)
			log.Printf("Next maintenance at %s (in %s)", next.Format("Mon Jan 2 15:04"), wait.Round(time.Minute))

			time.Sleep(wait)

			summary := RunMaintenance(cfg, db)
			log.Printf("Maintenance complete: %s", summary)

			if api != nil && cfg.SlackChannelID != "" {
				_, _, postErr := api.PostMessage(cfg.SlackChannelID, slack.MsgOptionText(summary, false))
				if postErr != nil {
					log.Printf("Maintenance post error: %v", postErr)
				}
			}
		}
	}()
}

// RunMaintenance prunes history past the retention window and returns a
// human-readable summary of the last day's activity.
func RunMaintenance(cfg Config, db *sql.DB) string {
	now := time.Now().In(cfg.Location)
	cutoff := now.AddDate(0, 0, -cfg.RetentionDays)

	prunedDecisions, prunedGenerations, err := PruneHistory(db, cutoff)
	if err != nil {
		log.Printf("maintenance prune error: %v", err)
	}

	decisions, switches, tracks, err := ActivitySince(db, now.AddDate(0, 0, -1))
	if err != nil {
		log.Printf("maintenance activity query error: %v", err)
	}

	return FormatMaintenanceSummary(decisions, switches, tracks, prunedDecisions, prunedGenerations)
}

// FormatMaintenanceSummary renders the daily summary message.
func FormatMaintenanceSummary(decisions, switches, tracks int, prunedDecisions, prunedGenerations int64) string {
	msg := fmt.Sprintf("Last 24h: %d decisions, %d switches, %d tracks generated.",
		decisions, switches, tracks)
	if prunedDecisions > 0 || prunedGenerations > 0 {
		msg += fmt.Sprintf(" Pruned %d old decisions and %d old generations.",
			prunedDecisions, prunedGenerations)
	}
	return msg
}
