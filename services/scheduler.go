package services

import (
	"log"
	"time"

	"gan-backend/models"

	"github.com/go-co-op/gocron/v2"
)

// StartScheduler runs the tournament lifecycle jobs. Transitions are driven
// by the stored schedule fields, so a restart picks up where it left off.
func (s *TournamentService) StartScheduler() (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	// Every minute: advance tournament statuses past their schedule marks.
	_, err = sched.NewJob(
		gocron.DurationJob(1*time.Minute),
		gocron.NewTask(s.advanceTournaments),
	)
	if err != nil {
		return nil, err
	}

	sched.Start()
	log.Printf("[Scheduler] tournament lifecycle jobs started")
	return sched, nil
}

func (s *TournamentService) advanceTournaments() {
	now := time.Now().UTC()

	// upcoming -> registration_open once the registration window opens
	var toOpen []models.Tournament
	err := s.DB.Where("status = ? AND registration_start IS NOT NULL AND registration_start <= ?",
		models.TournamentUpcoming, now).Find(&toOpen).Error
	if err != nil {
		log.Printf("[Scheduler] query failed: %v", err)
		return
	}
	for _, t := range toOpen {
		if err := s.DB.Model(&t).Update("status", models.TournamentRegistrationOpen).Error; err != nil {
			log.Printf("[Scheduler] failed to open registration for %s: %v", t.ID, err)
			continue
		}
		log.Printf("[Scheduler] registration opened: %s", t.Title)
	}

	// registration_open -> registration_closed once the window ends
	var toClose []models.Tournament
	err = s.DB.Where("status = ? AND registration_end IS NOT NULL AND registration_end <= ?",
		models.TournamentRegistrationOpen, now).Find(&toClose).Error
	if err != nil {
		log.Printf("[Scheduler] query failed: %v", err)
		return
	}
	for _, t := range toClose {
		if err := s.DB.Model(&t).Update("status", models.TournamentRegistrationClosed).Error; err != nil {
			log.Printf("[Scheduler] failed to close registration for %s: %v", t.ID, err)
			continue
		}
		log.Printf("[Scheduler] registration closed: %s", t.Title)
	}

	// registration_open/registration_closed -> active at start time
	var toActivate []models.Tournament
	err = s.DB.Where("status IN ? AND start_date <= ?",
		[]models.TournamentStatus{models.TournamentRegistrationOpen, models.TournamentRegistrationClosed},
		now).Find(&toActivate).Error
	if err != nil {
		log.Printf("[Scheduler] query failed: %v", err)
		return
	}
	for _, t := range toActivate {
		if err := s.DB.Model(&t).Update("status", models.TournamentActive).Error; err != nil {
			log.Printf("[Scheduler] failed to activate %s: %v", t.ID, err)
			continue
		}
		log.Printf("[Scheduler] tournament started: %s", t.Title)
	}
}
