package main

import (
	"fmt"
	"log"

	"github.com/slack-go/slack"
)

// slackNotifier posts context switches and generation outcomes to a channel
// so an operator can follow the agent without tailing logs. It is optional;
// main only wires it when a bot token is configured.
type slackNotifier struct {
	api     *slack.Client
	channel string
}

func NewSlackNotifier(api *slack.Client, channelID string) EventSink {
	if api == nil || channelID == "" {
		return nil
	}
	return &slackNotifier{api: api, channel: channelID}
}

func (n *slackNotifier) Decision(evt DecisionEvent) {
	// Continue decisions fire every tick; only switches are worth a message.
	if evt.Action != ActionSwitch {
		return
	}
	n.post(formatSwitchMessage(evt))
}

func (n *slackNotifier) GenerationResult(resultURL string) {
	n.post(fmt.Sprintf("Track ready: %s", resultURL))
}

func (n *slackNotifier) GenerationError(message string) {
	n.post(fmt.Sprintf("Generation error: %s", message))
}

func (n *slackNotifier) post(msg string) {
	_, _, err := n.api.PostMessage(n.channel, slack.MsgOptionText(msg, false))
	if err != nil {
		log.Printf("slack notify error: %v", err)
	}
}

func formatSwitchMessage(evt DecisionEvent) string {
	from := "(none)"
	if evt.PreviousContext != nil && evt.PreviousContext.Tag != "" {
		from = evt.PreviousContext.Tag
	}
	to := evt.CurrentContext.Tag
	if to == "" {
		to = "unknown"
	}
	msg := fmt.Sprintf("Context switch: %s → %s", from, to)
	if evt.CurrentContext.Detail != "" {
		msg += fmt.Sprintf(" (%s)", evt.CurrentContext.Detail)
	}
	return msg
}
