package slots

import (
	"iter"
	"time"

	"github.com/m04kA/SMC-ConsultationService/internal/domain"
	"github.com/m04kA/SMC-ConsultationService/pkg/types"
)

// Candidate слот, вычисленный из окна доступности. В БД не хранится.
// Идентичность слота: (WindowID, StartTime)
type Candidate struct {
	WindowID        int64
	StartTime       types.TimeString
	StartsAt        time.Time
	DurationMinutes int
}

// EndsAt возвращает момент окончания слота
func (c Candidate) EndsAt() time.Time {
	return c.StartsAt.Add(time.Duration(c.DurationMinutes) * time.Minute)
}

// All возвращает все слоты окна без фильтрации по текущему времени
// Слоты идут с шагом durationMinutes от начала окна, пока слот целиком помещается в окно.
// Последний неполный слот отбрасывается.
// Последовательность ленивая, каждый range заново генерирует слоты.
func All(window *domain.AvailabilityWindow, durationMinutes int) iter.Seq[Candidate] {
	return func(yield func(Candidate) bool) {
		if window == nil || durationMinutes <= 0 {
			return
		}

		start, err := window.StartTime.Minutes()
		if err != nil {
			return
		}
		end, err := window.EndTime.Minutes()
		if err != nil {
			return
		}

		for t := start; t+durationMinutes <= end; t += durationMinutes {
			startTime, err := types.NewTimeStringFromMinutes(t)
			if err != nil {
				return
			}
			startsAt, err := startTime.On(window.Date)
			if err != nil {
				return
			}

			candidate := Candidate{
				WindowID:        window.ID,
				StartTime:       startTime,
				StartsAt:        startsAt,
				DurationMinutes: durationMinutes,
			}
			if !yield(candidate) {
				return
			}
		}
	}
}

// Bookable возвращает слоты окна, которые ещё не начались (начало строго позже now)
func Bookable(window *domain.AvailabilityWindow, durationMinutes int, now time.Time) iter.Seq[Candidate] {
	return func(yield func(Candidate) bool) {
		for c := range All(window, durationMinutes) {
			if !c.StartsAt.After(now) {
				continue
			}
			if !yield(c) {
				return
			}
		}
	}
}

// Contains проверяет, что startTime является началом одного из слотов окна
func Contains(window *domain.AvailabilityWindow, durationMinutes int, startTime types.TimeString) (Candidate, bool) {
	for c := range All(window, durationMinutes) {
		if c.StartTime == startTime {
			return c, true
		}
	}
	return Candidate{}, false
}

// Collect собирает последовательность в слайс
func Collect(seq iter.Seq[Candidate]) []Candidate {
	result := make([]Candidate, 0)
	for c := range seq {
		result = append(result, c)
	}
	return result
}
