package jobs

import (
	"fmt"
	"log"
	"time"

	"github.com/JohnEstano/Graduate-School-System-sub002/database"
	"github.com/JohnEstano/Graduate-School-System-sub002/models"
	"github.com/JohnEstano/Graduate-School-System-sub002/notifications"
)

// SendDefenseReminders e-mails students and panel members for defenses
// starting within the next 24 hours. Reminders only; the job never touches
// workflow state.
func SendDefenseReminders() {
	log.Println("Running job: SendDefenseReminders...")

	now := time.Now()
	upperBound := now.Add(24 * time.Hour)

	var upcoming []models.DefenseRequest
	err := database.DB.
		Where("workflow_state = ?", models.StateScheduled).
		Where("start_at BETWEEN ? AND ?", now, upperBound).
		Where("reminder_sent_at IS NULL").
		Find(&upcoming).Error
	if err != nil {
		log.Printf("Error checking for upcoming defenses: %v", err)
		return
	}
	if len(upcoming) == 0 {
		return
	}

	for _, request := range upcoming {
		subject := "Reminder: Upcoming Thesis Defense"
		body := fmt.Sprintf(
			"<h1>Defense Reminder</h1><p>The %s defense of %s (%s) is scheduled on %s at %s, venue: %s.</p>",
			request.DefenseStage,
			request.StudentName,
			request.ThesisTitle,
			request.DefenseDate.Format("January 2, 2006"),
			request.StartAt.Format("3:04 PM"),
			request.Venue,
		)

		var student models.User
		if err := database.DB.First(&student, "id = ?", request.StudentID).Error; err == nil {
			go notifications.SendEmail(student.FullName, student.Email, subject, body)
		}
		for _, slot := range request.PanelSlots() {
			if slot.Member.PanelistID == nil {
				continue
			}
			var panelist models.User
			if err := database.DB.First(&panelist, "id = ?", *slot.Member.PanelistID).Error; err == nil {
				go notifications.SendEmail(panelist.FullName, panelist.Email, subject, body)
			}
		}

		sentAt := now
		request.ReminderSentAt = &sentAt
		database.DB.Save(&request)
	}

	log.Printf("Sent reminders for %d defense(s).", len(upcoming))
}
