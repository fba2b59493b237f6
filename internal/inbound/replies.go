// internal/inbound/replies.go
package inbound

import (
	"fmt"
	"strings"
)

const helpReply = "Keepswell: reply to a journal prompt any time to add an entry. " +
	"Text STOP to pause prompts, YES to resume, or JOIN <keyword> to join a journal. " +
	"Questions? support@keepswell.example"

const optOutReply = "You've been unsubscribed from all journal prompts. Reply YES any time to resume."

const resendReply = "That selection expired. Please resend your message and we'll ask again."

func welcomeReply(journalTitle string) string {
	return fmt.Sprintf("Welcome! You'll now receive prompts for %q. Reply to any prompt to add an entry.", journalTitle)
}

func joinActiveReply(journalTitle string) string {
	return fmt.Sprintf("You're already a member of %q.", journalTitle)
}

func joinPendingReply(journalTitle string) string {
	return fmt.Sprintf("Your request to join %q is still awaiting approval.", journalTitle)
}

func joinRequestedReply(journalTitle string) string {
	return fmt.Sprintf("Got it! We've asked the owner of %q to approve you. You'll hear from us soon.", journalTitle)
}

func joinUnknownReply(keyword string) string {
	return fmt.Sprintf("We couldn't find a journal for %q. Double-check the keyword and try again.", keyword)
}

func ownerApprovalNotice(name, phone, journalTitle string) string {
	who := name
	if who == "" {
		who = phone
	}
	return fmt.Sprintf("%s asked to join %q. Approve them from your Keepswell dashboard.", who, journalTitle)
}

func selectionConfirmReply(journalTitle string) string {
	return fmt.Sprintf("Added to %q. Thanks for sharing!", journalTitle)
}

func selectionRangeReply(max int) string {
	return fmt.Sprintf("Please reply with a number between 1 and %d.", max)
}

func selectionPrompt(labels []string) string {
	var b strings.Builder
	b.WriteString("Which journal is this for? Reply with a number:\n")
	for i, label := range labels {
		fmt.Fprintf(&b, "%d. %s\n", i+1, label)
	}
	return strings.TrimRight(b.String(), "\n")
}
