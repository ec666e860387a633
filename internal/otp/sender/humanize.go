package sender

import "time"

var units = []struct {
	d        time.Duration
	one, many string
}{
	{24 * time.Hour, "day", "days"},
	{time.Hour, "hour", "hours"},
	{time.Minute, "minute", "minutes"},
	{time.Second, "second", "seconds"},
}

// Humanize convierte una duración en {valor, unidad} usando la unidad más
// grande que la divide exactamente (10m → 10 "minutes", 24h → 1 "day").
// Fracciones de segundo se redondean hacia arriba.
func Humanize(d time.Duration) (int, string) {
	if d <= 0 {
		return 0, "seconds"
	}
	if rem := d % time.Second; rem != 0 {
		d += time.Second - rem
	}
	for _, u := range units {
		if d%u.d == 0 {
			n := int(d / u.d)
			if n == 1 {
				return n, u.one
			}
			return n, u.many
		}
	}
	return int(d / time.Second), "seconds"
}
