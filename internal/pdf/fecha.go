package pdf

import (
	"fmt"
	"time"
)

var (
	diasES = []string{
		"domingo", "lunes", "martes", "miércoles", "jueves", "viernes", "sábado",
	}
	mesesES = []string{
		"enero", "febrero", "marzo", "abril", "mayo", "junio",
		"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre",
	}
)

// bogota is the fixed report timezone. America/Bogota has no DST; the
// fixed offset keeps the stamp correct even without tzdata on the host.
var bogota = loadBogota()

func loadBogota() *time.Location {
	if loc, err := time.LoadLocation("America/Bogota"); err == nil {
		return loc
	}
	return time.FixedZone("-05", -5*60*60)
}

// FormatFechaBogota renders a timestamp the way the reports always have:
// Spanish full date plus short 12-hour time, Bogotá local time.
// Example: "viernes, 2 de agosto de 2024, 3:04 p. m."
func FormatFechaBogota(t time.Time) string {
	t = t.In(bogota)

	hour := t.Hour() % 12
	if hour == 0 {
		hour = 12
	}
	meridiem := "a. m."
	if t.Hour() >= 12 {
		meridiem = "p. m."
	}

	return fmt.Sprintf("%s, %d de %s de %d, %d:%02d %s",
		diasES[int(t.Weekday())], t.Day(), mesesES[int(t.Month())-1], t.Year(),
		hour, t.Minute(), meridiem)
}
