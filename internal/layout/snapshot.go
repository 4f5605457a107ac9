package layout

import (
	"sort"
	"time"

	"github.com/cx-tal-miterani/coach-booking-client/internal/models"
)

// BuildSnapshot orders the seats of layout naturally (A2 before A10) and
// counts them per display bucket
func BuildSnapshot(layout models.CoachLayout, fetchedAt time.Time) models.LayoutSnapshot {
	seats := make([]models.SeatView, 0, len(layout))
	counts := make(map[models.SeatStatus]int)
	for id, seat := range layout {
		seats = append(seats, models.SeatView{SeatID: id, Status: seat.Status})
		counts[seat.Status]++
	}
	sort.Slice(seats, func(i, j int) bool {
		return naturalLess(seats[i].SeatID, seats[j].SeatID)
	})

	locked := counts[models.SeatStatusLocked]
	if locked == 0 {
		locked = counts[models.SeatStatusProcessing]
	}
	return models.LayoutSnapshot{
		Seats: seats,
		Summary: models.LayoutSummary{
			Available: counts[models.SeatStatusAvailable],
			Booked:    counts[models.SeatStatusBooked],
			Locked:    locked,
		},
		FetchedAt: fetchedAt.UTC(),
	}
}

// naturalLess compares digit runs by value and everything else byte-wise
func naturalLess(a, b string) bool {
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		ca, cb := a[i], b[j]
		if isDigit(ca) && isDigit(cb) {
			si := i
			for i < len(a) && isDigit(a[i]) {
				i++
			}
			sj := j
			for j < len(b) && isDigit(b[j]) {
				j++
			}
			na, nb := trimZeros(a[si:i]), trimZeros(b[sj:j])
			if len(na) != len(nb) {
				return len(na) < len(nb)
			}
			if na != nb {
				return na < nb
			}
			continue
		}
		if ca != cb {
			return ca < cb
		}
		i++
		j++
	}
	if len(a)-i != len(b)-j {
		return len(a)-i < len(b)-j
	}
	return a < b
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func trimZeros(s string) string {
	for len(s) > 1 && s[0] == '0' {
		s = s[1:]
	}
	return s
}
