// Package calendar classifies dates against the holiday list and selects the
// timetable segment governing trips on a given date.
package calendar

import (
	"time"

	"nexttrip.rieles.app/internal/models"
)

// Classification is the calendar context for one date.
type Classification struct {
	IsHoliday bool
	// Weekday follows time.Weekday numbering: 0 = Sunday ... 6 = Saturday.
	Weekday time.Weekday
}

// Classify matches date against the holiday list by day and month only. The
// holiday list is published once per year and recurring civil holidays keep
// their day/month across years; moving holidays are not modeled.
func Classify(date time.Time, holidays []models.HolidayEntry) Classification {
	classification := Classification{Weekday: date.Weekday()}

	day := date.Day()
	month := int(date.Month())

	for _, holiday := range holidays {
		if holiday.Day == day && holiday.Month == month {
			classification.IsHoliday = true
			break
		}
	}

	return classification
}
