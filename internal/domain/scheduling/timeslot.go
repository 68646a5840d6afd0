package scheduling

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	ErrInvalidInterval = errors.New("invalid interval")
	ErrInvalidDuration = errors.New("invalid duration")
)

// TimeSlot es un intervalo de tiempo inmutable.
// Se construye una vez; cualquier cambio produce un TimeSlot nuevo.
type TimeSlot struct {
	start time.Time
	end   time.Time
}

func NewTimeSlot(start, end time.Time) (TimeSlot, error) {
	if start.IsZero() || end.IsZero() {
		return TimeSlot{}, ErrInvalidInterval
	}
	if !start.Before(end) {
		return TimeSlot{}, ErrInvalidInterval
	}
	return TimeSlot{start: start, end: end}, nil
}

func NewTimeSlotFromDuration(start time.Time, minutes int) (TimeSlot, error) {
	if minutes <= 0 {
		return TimeSlot{}, ErrInvalidDuration
	}
	return NewTimeSlot(start, start.Add(time.Duration(minutes)*time.Minute))
}

func (ts TimeSlot) Start() time.Time { return ts.start }
func (ts TimeSlot) End() time.Time   { return ts.end }

// DurationMinutes redondea a minuto entero (no trunca), para absorber
// diferencias de precisión sub-minuto en los timestamps.
func (ts TimeSlot) DurationMinutes() int {
	return int(math.Round(ts.end.Sub(ts.start).Minutes()))
}

// Overlaps es simétrico. Dos intervalos que solo se tocan en el borde
// NO se superponen: así dos citas consecutivas son válidas.
func (ts TimeSlot) Overlaps(other TimeSlot) bool {
	return ts.start.Before(other.end) && ts.end.After(other.start)
}

// Contains es reflexivo: todo slot se contiene a sí mismo.
func (ts TimeSlot) Contains(other TimeSlot) bool {
	return !ts.start.After(other.start) && !ts.end.Before(other.end)
}

// IncludesTime es inclusivo en ambos extremos.
func (ts TimeSlot) IncludesTime(t time.Time) bool {
	return !t.Before(ts.start) && !t.After(ts.end)
}

// Equal compara por valor (start, end).
func (ts TimeSlot) Equal(other TimeSlot) bool {
	return ts.start.Equal(other.start) && ts.end.Equal(other.end)
}

func (ts TimeSlot) IsZero() bool {
	return ts.start.IsZero() && ts.end.IsZero()
}

func (ts TimeSlot) String() string {
	return fmt.Sprintf("[%s, %s]", ts.start.Format(time.RFC3339), ts.end.Format(time.RFC3339))
}
